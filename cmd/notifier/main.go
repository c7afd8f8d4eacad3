package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/Leopold1975/awr_control/internal/notifier"
	"github.com/Leopold1975/awr_control/internal/pkg/config"
	"github.com/Leopold1975/awr_control/pkg/logger"
)

func main() {
	var configPath string

	flag.StringVar(&configPath, "config", "./config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.New(configPath)
	if err != nil {
		log.Fatal(err)
	}

	if err := cfg.ValidateNotifier(); err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	n, err := notifier.New(cfg.Telegram, lg)
	if err != nil {
		lg.Errorf("notifier init error: %s", err.Error())
		return
	}

	n.Run(ctx)
}
