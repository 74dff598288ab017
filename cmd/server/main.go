package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"portfolioBench/internal/config"
	"portfolioBench/internal/finance"
	"portfolioBench/internal/logger"
	"portfolioBench/internal/server"
	"portfolioBench/internal/storage"
)

func main() {
	cfg, err := config.LoadServer()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// Ensure parent directory for the DB exists
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := storage.OpenSQLite("file:" + cfg.DBPath + "?_fk=1")
	if err != nil {
		log.Fatal().Err(err).Msg("open sqlite")
	}
	defer db.Close()
	if err := storage.InitSchema(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("init schema")
	}
	log.Info().Str("path", cfg.DBPath).Msg("db: schema ensured")

	yahoo := finance.NewYahoo(log, finance.WithRateLimit(cfg.YahooRPS))
	engine := finance.NewEngine(yahoo, cfg.BenchmarkSymbol, cfg.SymbolSuffix, log)

	srv := server.New(server.Config{
		Port:   cfg.Port,
		Log:    log,
		Engine: engine,
		Repo:   storage.NewStore(db),
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
