package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/herdbook/herdbook/internal/config"
	"github.com/herdbook/herdbook/internal/repository/sheets"
	"github.com/herdbook/herdbook/internal/scheduler"
	"github.com/herdbook/herdbook/internal/server/handlers"
	"github.com/herdbook/herdbook/internal/server/router"
	breedingsvc "github.com/herdbook/herdbook/internal/service/breeding"
	"github.com/herdbook/herdbook/internal/store"
	"github.com/herdbook/herdbook/internal/store/memory"
	"github.com/herdbook/herdbook/internal/store/mongodb"
	"github.com/herdbook/herdbook/internal/store/postgrest"
	"github.com/herdbook/herdbook/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var st store.Store
	switch cfg.Datastore.Backend {
	case config.BackendPostgrest:
		st = postgrest.New(cfg.Datastore.URL, cfg.Datastore.APIKey, baseLogger.Named("store.postgrest"))
	case config.BackendMongoDB:
		mongoStore, err := mongodb.New(context.Background(), cfg.Datastore.MongoURI, cfg.Datastore.MongoDBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb store", zap.Error(err))
		}
		defer func() {
			if err := mongoStore.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		st = mongoStore
	case config.BackendMemory:
		baseLogger.Warn("using in-memory datastore, all data is lost on shutdown")
		st = memory.New()
	}

	svc := breedingsvc.NewService(st, baseLogger.Named("svc.breeding"))
	handler := handlers.NewBreedingHandler(svc, baseLogger.Named("handlers.breeding"))
	engine := router.New(handler, baseLogger.Named("router"))

	if cfg.SheetsEnabled() {
		sink, err := sheets.NewGoogleSheetSink(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets sink", zap.Error(err))
		}
		sched := scheduler.New(cfg.Reporting, svc, sink, baseLogger.Named("scheduler"))
		sched.Start()
		defer sched.Stop()
	} else {
		baseLogger.Info("sheets export not configured, summary scheduler disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
