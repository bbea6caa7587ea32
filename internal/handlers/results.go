package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/correlation"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/session"
)

type ResultsHandler struct {
	log        *zap.Logger
	session    Session
	exportName string
}

func NewResultsHandler(log *zap.Logger, s Session, exportName string) *ResultsHandler {
	return &ResultsHandler{log: log, session: s, exportName: exportName}
}

// Export downloads every registration result as CSV.
func (h *ResultsHandler) Export(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.exportName))
	if err := h.session.ExportResults(c.Writer); err != nil {
		h.log.Error("Failed to export results", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

// ShowPlot renders the correlation charts as a page.
func (h *ResultsHandler) ShowPlot(c *gin.Context) {
	var page bytes.Buffer
	err := h.session.RenderPlot(&page)
	if errors.Is(err, correlation.ErrInsufficientData) {
		c.JSON(http.StatusNotFound, gin.H{"notice": session.NoticeInsufficientData})
		return
	}
	if err != nil {
		h.log.Error("Failed to render plot", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to render plot")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page.Bytes())
}

// PlotOptions returns the chart options for a client-side renderer.
func (h *ResultsHandler) PlotOptions(c *gin.Context) {
	options, err := h.session.PlotOptions()
	if errors.Is(err, correlation.ErrInsufficientData) {
		c.JSON(http.StatusNotFound, gin.H{"notice": session.NoticeInsufficientData})
		return
	}
	if err != nil {
		h.log.Error("Failed to build plot options", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build plot options"})
		return
	}
	c.Data(http.StatusOK, "application/json", options)
}
