package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/game"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/registration"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/session"
)

// Session is the session API the handlers drive.
type Session interface {
	State() session.View
	SetMode(ctx context.Context, m session.Mode) (session.View, error)
	ResetTrial(ctx context.Context) (session.View, error)
	PlaceFiducial(ctx context.Context, x, y float64) (session.View, error)
	Ablate(ctx context.Context, margin float64) (session.View, error)
	WriteSurface(w io.Writer, intra bool) error
	ExportResults(w io.Writer) error
	RenderPlot(w io.Writer) error
	PlotOptions() ([]byte, error)
}

type SessionHandler struct {
	log           *zap.Logger
	session       Session
	defaultMargin float64
}

func NewSessionHandler(log *zap.Logger, s Session, defaultMargin float64) *SessionHandler {
	return &SessionHandler{log: log, session: s, defaultMargin: defaultMargin}
}

var refusals = map[error]string{
	session.ErrWrongMode:    "That is not available in the current mode.",
	session.ErrNoTransition: "Finish the game before leaving it.",
	session.ErrStaleTrial:   "Start a new trial before ablating.",
	registration.ErrNoTrial: "Start a trial before placing fiducials.",
	game.ErrNotRegistered:   "Register the target before ablating.",
	game.ErrGameOver:        "The game is over.",
}

// respond writes the view, or maps err to a status with a notice for the
// operator. Refused operations are 409; remote failures are 502.
func (h *SessionHandler) respond(c *gin.Context, v session.View, err error) {
	if err == nil {
		c.JSON(http.StatusOK, v)
		return
	}
	for target, notice := range refusals {
		if errors.Is(err, target) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "notice": notice, "state": v})
			return
		}
	}
	h.log.Error("Session operation failed", zap.String("path", c.FullPath()), zap.Error(err))
	notice := v.Notice
	if notice == "" {
		notice = session.NoticeServiceFailure
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "notice": notice, "state": v})
}

func (h *SessionHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.State())
}

func (h *SessionHandler) SetMode(c *gin.Context) {
	mode, err := session.ParseMode(c.Param("mode"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	v, err := h.session.SetMode(c.Request.Context(), mode)
	h.respond(c, v, err)
}

func (h *SessionHandler) ResetTrial(c *gin.Context) {
	v, err := h.session.ResetTrial(c.Request.Context())
	h.respond(c, v, err)
}

type placementRequest struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

func (h *SessionHandler) PlaceFiducial(c *gin.Context) {
	var req placementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug("Invalid placement", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}
	v, err := h.session.PlaceFiducial(c.Request.Context(), *req.X, *req.Y)
	h.respond(c, v, err)
}

type ablateRequest struct {
	Margin *float64 `json:"margin"`
}

func (h *SessionHandler) Ablate(c *gin.Context) {
	var req ablateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
			return
		}
	}
	margin := h.defaultMargin
	if req.Margin != nil {
		margin = *req.Margin
	}
	v, err := h.session.Ablate(c.Request.Context(), margin)
	h.respond(c, v, err)
}

func (h *SessionHandler) Surface(c *gin.Context) {
	var intra bool
	switch c.Param("name") {
	case "pre.webp":
	case "intra.webp":
		intra = true
	default:
		c.Status(http.StatusNotFound)
		return
	}
	var img bytes.Buffer
	if err := h.session.WriteSurface(&img, intra); err != nil {
		h.log.Error("Failed to encode surface", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/webp", img.Bytes())
}
