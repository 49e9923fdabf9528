package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"book-pipeline/config"
	"book-pipeline/utils"
)

// eurToUSD converts the source prices (EUR) into the summary currency.
const eurToUSD = 1.2

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(cfg, logger).ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("%v", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}
