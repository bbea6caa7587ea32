package router

import (
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/config"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/handlers"
)

//go:embed index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"notice": "Too many mode changes. Try again in " + time.Until(info.ResetTime).Round(time.Second).String() + ".",
	})
}

func Setup(log *zap.Logger, conf *config.Config, sess handlers.Session) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:               false, // the plot page is shown in a frame
		CustomFrameOptionsValue: "SAMEORIGIN",
		ContentTypeNosniff:      true,
		BrowserXssFilter:        true,
		IsDevelopment:           !conf.Server.SecureCookie,
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	if conf.Server.AssetsDir != "" {
		router.Static("/assets", conf.Server.AssetsDir)
	}

	sessionHandler := handlers.NewSessionHandler(log, sess, conf.Game.DefaultMargin)
	resultsHandler := handlers.NewResultsHandler(log, sess, conf.Server.ExportName)

	router.GET("/", NonceMiddleware(), func(c *gin.Context) {
		nonce, _ := c.Get(CspNonceContextKey)
		c.Header("Content-Security-Policy", fmt.Sprintf(
			"default-src 'self'; script-src 'self' 'nonce-%s'; style-src 'self' 'nonce-%s'; img-src 'self'",
			nonce, nonce,
		))
		c.Header("Content-Type", "text/html; charset=utf-8")
		err := indexTemplate.Execute(c.Writer, gin.H{
			"Nonce":  nonce,
			"Width":  conf.Render.Width,
			"Height": conf.Render.Height,
			"Margin": conf.Game.DefaultMargin,
		})
		if err != nil {
			log.Error("Error rendering index page", zap.Error(err))
		}
	})

	modeLimit := func(c *gin.Context) { c.Next() }
	if conf.Server.ModeRateLimit > 0 {
		store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  time.Minute,
			Limit: uint(conf.Server.ModeRateLimit),
		})
		modeLimit = ratelimit.RateLimiter(store, &ratelimit.Options{
			ErrorHandler: errorHandler,
			KeyFunc:      keyFunc,
		})
	}

	api := router.Group("/api")
	{
		api.GET("/state", sessionHandler.State)
		api.POST("/mode/:mode", modeLimit, sessionHandler.SetMode)
		api.POST("/trial/reset", sessionHandler.ResetTrial)
		api.POST("/fiducials", sessionHandler.PlaceFiducial)
		api.POST("/ablate", sessionHandler.Ablate)
		api.GET("/surfaces/:name", sessionHandler.Surface)

		api.GET("/plot", resultsHandler.ShowPlot)
		api.GET("/plot/options", resultsHandler.PlotOptions)
		api.GET("/results.csv", resultsHandler.Export)
	}

	return router
}
