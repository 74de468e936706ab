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

	"github.com/mamadbah2/palmier/internal/cache"
	"github.com/mamadbah2/palmier/internal/config"
	"github.com/mamadbah2/palmier/internal/metrics"
	"github.com/mamadbah2/palmier/internal/repository/database"
	"github.com/mamadbah2/palmier/internal/repository/mongodb"
	"github.com/mamadbah2/palmier/internal/repository/sheets"
	"github.com/mamadbah2/palmier/internal/scheduler"
	"github.com/mamadbah2/palmier/internal/server/handlers"
	"github.com/mamadbah2/palmier/internal/server/router"
	commandsvc "github.com/mamadbah2/palmier/internal/service/commands"
	"github.com/mamadbah2/palmier/internal/service/ledger"
	"github.com/mamadbah2/palmier/internal/service/records"
	reportingsvc "github.com/mamadbah2/palmier/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/palmier/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/palmier/pkg/clients/whatsapp"
	"github.com/mamadbah2/palmier/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}
	clock := func() time.Time { return time.Now().In(loc) }

	db, err := database.Open(cfg.Database, cfg.Server.LogLevel, baseLogger.Named("repo.database"))
	if err != nil {
		baseLogger.Fatal("failed to open database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			baseLogger.Error("failed to close database", zap.Error(err))
		}
	}()
	store := database.NewStore(db, baseLogger.Named("repo.store"))

	registry := metrics.New()
	ledgerSvc := ledger.NewService(store, baseLogger.Named("svc.ledger"),
		ledger.WithClock(clock),
		ledger.WithRecorder(registry))
	recordsSvc := records.NewService(store, baseLogger.Named("svc.records"), clock)
	reportingSvc := reportingsvc.NewService(store, baseLogger.Named("svc.reporting"),
		reportingsvc.WithClock(clock),
		reportingsvc.WithAlertThreshold(cfg.Reporting.StockAlertThreshold))

	var idempotency cache.IdempotencyStore
	if cfg.Redis.URL != "" {
		redisStore, err := cache.NewRedisIdempotencyStore(context.Background(), cfg.Redis.URL)
		if err != nil {
			baseLogger.Fatal("failed to connect to redis", zap.Error(err))
		}
		idempotency = redisStore
		baseLogger.Info("redis idempotency store enabled")
	} else {
		idempotency = cache.NewInMemoryIdempotencyStore(nil)
		baseLogger.Warn("redis url missing, idempotency keys kept in memory")
	}
	defer func() { _ = idempotency.Close() }()

	var schedulerOpts []scheduler.Option
	var archive handlers.ReportArchive

	if cfg.MongoDB.URI != "" {
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		cancel()
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive = mongoRepo
		schedulerOpts = append(schedulerOpts, scheduler.WithArchive(mongoRepo))
	} else {
		baseLogger.Warn("mongodb uri missing, weekly reports are not archived")
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		schedulerOpts = append(schedulerOpts, scheduler.WithExporter(sheetsRepo))
	} else {
		baseLogger.Warn("google sheets not configured, weekly export disabled")
	}

	var whatsClient whatsappclient.Client
	if cfg.WhatsApp.Enabled() {
		whatsClient = whatsappclient.NewClient(cfg.WhatsApp)
	} else {
		whatsClient = whatsappclient.NopClient{Logger: baseLogger.Named("client.whatsapp")}
		baseLogger.Warn("whatsapp credentials missing, outbound messages are dropped")
	}

	commandDispatcher := commandsvc.NewService(reportingSvc, baseLogger.Named("svc.commands"))
	messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
	if cfg.WhatsApp.ManagerID != "" {
		schedulerOpts = append(schedulerOpts, scheduler.WithNotifier(messagingSvc))
	}

	engine := router.New(router.Deps{
		Plantations: handlers.NewPlantationHandler(recordsSvc, reportingSvc, baseLogger.Named("handlers.plantations")),
		Operations:  handlers.NewOperationHandler(recordsSvc, reportingSvc, baseLogger.Named("handlers.operations")),
		Productions: handlers.NewProductionHandler(recordsSvc, reportingSvc, baseLogger.Named("handlers.productions")),
		Ventes:      handlers.NewVenteHandler(recordsSvc, ledgerSvc, reportingSvc, baseLogger.Named("handlers.ventes")),
		Cash:        handlers.NewCashHandler(recordsSvc, reportingSvc, baseLogger.Named("handlers.cash")),
		Reports:     handlers.NewReportHandler(reportingSvc, archive, baseLogger.Named("handlers.reports")),
		Webhook:     handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp")),
		Metrics:     registry,
		Idempotency: idempotency,
		Health:      store.Ping,
	}, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting, loc, reportingSvc, baseLogger.Named("scheduler"), schedulerOpts...)
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.WithCORS(engine, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("db_driver", cfg.Database.Driver))
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
