package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"studio/internal/infra"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = NewRootCmd(cfg, &logger).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
