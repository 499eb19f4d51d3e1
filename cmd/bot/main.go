package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/giatha0/basee/internal/bot"
	"github.com/giatha0/basee/internal/bot/config"
	"github.com/giatha0/basee/pkg/logger"
)

func main() {
	cfg := config.InitConfig()

	logger.InitTrace("basee", "bot")
	ctx, span := logger.StartSpan(context.Background(), "main", "main")
	defer span.End()

	rootLogger := logger.NewLogger("bot")
	logger.SetLogLevel(cfg.Log.Level)
	tl := logger.WithTrace(ctx, rootLogger)

	go config.WatchConfig(&cfg)

	core := bot.New(cfg, tl)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		tl.Info("Starting copy trade bot...")
		core.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	tl.Info("Received shutdown signal, starting graceful shutdown...")

	core.Stop(ctx)

	tl.Info("Bot shut down.")
}
