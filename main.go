package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/config"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/database"
	logger "github.com/SciKit-Surgery/scikit-surgeryfred/internal/logging"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/planning"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/repository"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/router"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/services"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/session"
)

func main() {
	// The console logger covers configuration loading.
	bootLog := logger.NewConsole()

	store, err := config.Init(".", bootLog)
	if err != nil {
		bootLog.Fatal("Failed to load configuration", zap.Error(err))
	}
	conf := store.Current()

	// Initialize Logger
	log, err := logger.Init(conf.Logging)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer log.Sync()

	planner := planning.NewClient(conf.Planning.BaseURL, conf.Planning.Timeout, log)

	var sink services.Sink
	switch conf.Store.Backend {
	case "remote":
		sink = planner
	case "database":
		db, err := database.Open(conf.Database, log)
		if err != nil {
			log.Fatal("Failed to open database", zap.Error(err))
		}
		defer database.Close(db)
		sink = repository.NewStore(db, conf.Server.FredVersion)
	default:
		sink = services.Discard{}
	}
	log.Info("Result store selected", zap.String("backend", conf.Store.Backend))
	recorder := services.NewRecorder(log, sink, conf.Planning.Timeout)

	filters, err := models.LoadDisplayFilters(conf.Display.FiltersPath)
	if err != nil {
		log.Fatal("Failed to load display filters", zap.Error(err))
	}

	sess := session.New(log, session.Options{
		Planner:         planner,
		Recorder:        recorder,
		Filters:         filters,
		TotalTrials:     conf.Game.TotalTrials,
		TargetRadius:    conf.Game.TargetRadius,
		Width:           conf.Render.Width,
		Height:          conf.Render.Height,
		Scale:           conf.Render.Scale,
		OutlineRowMajor: conf.Render.OutlineRowMajor,
	})
	if err := sess.Start(context.Background()); err != nil {
		// The operator can retry with a trial reset once the service is up.
		log.Warn("Session started without a trial", zap.Error(err))
	}
	store.OnChange(func(c *config.Config) {
		sess.SetTotalTrials(c.Game.TotalTrials)
	})

	r := router.Setup(log, conf, sess)

	srv := &http.Server{
		Addr:    ":" + conf.Server.Port,
		Handler: r,
	}
	go func() {
		log.Info("Server listening on http://localhost:" + conf.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to run Gin server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	if err := recorder.Close(ctx); err != nil {
		log.Warn("Some records were not written", zap.Error(err))
	}
}
