package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolioBench/internal/client"
	"portfolioBench/internal/config"
	"portfolioBench/internal/logger"
	"portfolioBench/internal/openai"
	"portfolioBench/internal/server"
	"portfolioBench/internal/telegram"
)

func main() {
	cfg, err := config.LoadBot()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	backend := client.New(cfg.APIURL, log)
	log.Info().Str("api", backend.BaseURL()).Msg("performance backend")

	var comment telegram.Commentator
	if cfg.OpenAIKey != "" {
		comment = openai.NewCommentator(cfg.OpenAIKey)
	} else {
		log.Info().Msg("OPENAI_API_KEY not set, /insight disabled")
	}

	bot, err := telegram.NewBot(cfg.TelegramToken, cfg.WebhookPublicURL, backend, comment, log)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram")
	}
	defer bot.Close()

	srv := server.New(server.Config{Port: cfg.Port, Log: log, Webhook: bot.WebhookHandler})
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
