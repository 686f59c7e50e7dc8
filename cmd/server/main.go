package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/auth"
	"github.com/mamadbah2/warehouse/internal/config"
	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/listing"
	"github.com/mamadbah2/warehouse/internal/metrics"
	"github.com/mamadbah2/warehouse/internal/repository/mongodb"
	"github.com/mamadbah2/warehouse/internal/repository/sheets"
	"github.com/mamadbah2/warehouse/internal/scheduler"
	"github.com/mamadbah2/warehouse/internal/server/handlers"
	"github.com/mamadbah2/warehouse/internal/server/router"
	inventorysvc "github.com/mamadbah2/warehouse/internal/service/inventory"
	notifysvc "github.com/mamadbah2/warehouse/internal/service/notify"
	outflowsvc "github.com/mamadbah2/warehouse/internal/service/outflow"
	reportingsvc "github.com/mamadbah2/warehouse/internal/service/reporting"
	settingssvc "github.com/mamadbah2/warehouse/internal/service/settings"
	twilioclient "github.com/mamadbah2/warehouse/pkg/clients/twilio"
	"github.com/mamadbah2/warehouse/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)
	location := cfg.Location()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	mongoRepo, err := mongodb.NewMongoDBRepository(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var ledgerSheet sheets.Repository
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(startupCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		ledgerSheet = sheetsRepo
	} else {
		baseLogger.Warn("google sheets not configured, ledger export to sheets disabled")
	}

	recorder := metrics.New()

	smsClient := twilioclient.NewClient(cfg.Twilio)
	notifier := notifysvc.NewSMSService(cfg.Twilio, smsClient, recorder, baseLogger.Named("svc.notify"))

	settingsSvc := settingssvc.NewService(mongoRepo, baseLogger.Named("svc.settings"))
	inventorySvc := inventorysvc.NewService(mongoRepo, settingsSvc, location, baseLogger.Named("svc.inventory"))
	outflowSvc := outflowsvc.NewService(mongoRepo, settingsSvc, notifier, cfg.Outflow, location, recorder, baseLogger.Named("svc.outflow"))
	reportingSvc := reportingsvc.NewService(mongoRepo, ledgerSheet, recorder, baseLogger.Named("svc.reporting"))

	sessions := listing.NewSessionManager(mongoRepo, func(collection models.Collection, outcome listing.Outcome) {
		recorder.ListingFetch(string(collection), string(outcome))
	}, baseLogger.Named("listing"))

	verifier := auth.NewVerifier(cfg.Auth, baseLogger.Named("auth"))
	engine := router.New(router.Handlers{
		Inventory: handlers.NewInventoryHandler(inventorySvc, baseLogger.Named("handlers.inventory")),
		Outflow:   handlers.NewOutflowHandler(outflowSvc, reportingSvc, location, baseLogger.Named("handlers.outflow")),
		Settings:  handlers.NewSettingsHandler(settingsSvc, baseLogger.Named("handlers.settings")),
		Listing:   handlers.NewListingHandler(sessions, baseLogger.Named("handlers.listing")),
	}, verifier.Middleware(), recorder.Handler(), baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, outflowSvc, sessions, reportingSvc, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("timezone", location.String()))
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
