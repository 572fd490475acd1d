package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"finsim/internal/config"
	"finsim/internal/httpserver"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := httpserver.Listen(ctx, cfg, logger); err != nil {
		logger.Fatal("finsim http server stopped", zap.Error(err))
	}
}
