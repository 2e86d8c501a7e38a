package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Armin-kho/gold-live-rates/internal/app"
	"github.com/Armin-kho/gold-live-rates/internal/config"
	"github.com/Armin-kho/gold-live-rates/internal/logger"
)

func main() {
	cfgPath := flag.String("config", config.DefaultConfigPath(), "path to config file (yaml/json/toml)")
	backup := flag.String("backup", "", "write a database snapshot to this path and exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer a.Close()

	if *backup != "" {
		path, err := a.Backup(ctx, *backup)
		if err != nil {
			logger.Errorf("backup failed: %v", err)
			_ = a.Close()
			os.Exit(1)
		}
		logger.Infof("backup written to %s", path)
		return
	}

	config.Watch(*cfgPath, func(c *config.Config) {
		logger.SetLevel(c.LogLevel)
	})

	if err := a.Run(ctx); err != nil {
		logger.Errorf("run error: %v", err)
		_ = a.Close()
		os.Exit(1)
	}
	logger.Infof("shut down")
}
