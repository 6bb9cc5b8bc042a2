package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/japaniel/reviewgen/pkg/logger"
)

func main() {
	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("%v", err)
		cancel()
		os.Exit(1)
	}
}
