package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"quoteflow/chat"
	"quoteflow/config"
	"quoteflow/extractor"
	"quoteflow/logger"
	"quoteflow/models"
	"quoteflow/reader"
	"quoteflow/scheduler"
	"quoteflow/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Quoteflow.Name,
		"version": cfg.Quoteflow.Version,
	}).Info("starting quoteflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink, err := writer.NewPostgresWriter(cfg)
	if err != nil {
		log.WithError(err).Error("failed to create postgres writer")
		os.Exit(1)
	}
	defer sink.Close()

	var connectors []reader.Connector
	if cfg.Source.Bitkub.Enabled {
		connectors = append(connectors, reader.NewBitkub(cfg))
	}
	if cfg.Source.BinanceTH.Enabled {
		connectors = append(connectors, reader.NewBinanceTH(cfg))
	}
	if cfg.Source.Maxbit.Enabled {
		connectors = append(connectors, reader.NewMaxbit(cfg))
	}
	if cfg.Source.FX.Enabled {
		connectors = append(connectors, reader.NewFX(cfg))
	}

	var wg sync.WaitGroup

	if len(connectors) > 0 {
		sched := scheduler.New(cfg, connectors, sink)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sched.Run(ctx); err != nil {
				log.WithError(err).Warn("scheduler exited")
			}
		}()
	} else {
		log.WithComponent("main").Warn("no sources enabled; polling path disabled")
	}

	if cfg.Telegram.Enabled {
		markers := extractor.DefaultMarkers()
		if len(cfg.Telegram.Markers) > 0 {
			markers = make(map[string]extractor.Markers, len(cfg.Telegram.Markers))
			for sym, m := range cfg.Telegram.Markers {
				markers[sym] = extractor.Markers{Bid: m.Bid, Ask: m.Ask}
			}
		}
		ext := extractor.New(models.SourceBitazza, markers)

		listener, err := chat.NewListener(cfg, ext, sink)
		if err != nil {
			log.WithError(err).Error("failed to create chat listener")
			os.Exit(1)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := listener.Run(ctx); err != nil {
				log.WithError(err).Warn("chat listener exited")
			}
		}()
	} else {
		log.WithComponent("main").Info("telegram disabled; chat path skipped")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	cancel()
	wg.Wait()
	log.Info("quoteflow stopped")
}
