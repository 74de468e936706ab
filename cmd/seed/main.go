package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/config"
	"github.com/mamadbah2/palmier/internal/repository/database"
	"github.com/mamadbah2/palmier/internal/seed"
	"github.com/mamadbah2/palmier/internal/service/ledger"
	"github.com/mamadbah2/palmier/internal/service/records"
	"github.com/mamadbah2/palmier/pkg/logger"
)

func main() {
	envFile := flag.String("env", "", "optional .env file")
	fakerSeed := flag.Uint64("seed", 0, "gofakeit seed, 0 for random")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}
	clock := func() time.Time { return time.Now().In(loc) }

	db, err := database.Open(cfg.Database, cfg.Server.LogLevel, baseLogger.Named("repo.database"))
	if err != nil {
		baseLogger.Fatal("failed to open database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	store := database.NewStore(db, baseLogger.Named("repo.store"))
	loader := seed.NewLoader(
		store,
		records.NewService(store, baseLogger.Named("svc.records"), clock),
		ledger.NewService(store, baseLogger.Named("svc.ledger"), ledger.WithClock(clock)),
		*fakerSeed,
		clock,
		baseLogger.Named("seed"),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := loader.Load(ctx); err != nil {
		baseLogger.Fatal("failed to load demo data", zap.Error(err))
	}
}
