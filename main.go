package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"home-energy/confs"
	"home-energy/db"
	"home-energy/insights"
	"home-energy/metrics"
	"home-energy/mqtt"
	"home-energy/server"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger, err := newLogger(cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	metrics.Init()

	var generator insights.TextGenerator = insights.Disabled{Reason: "LLM_API_KEY is not set"}
	if cfg.LLM.Enabled() {
		g, err := insights.NewOpenAIGenerator(insights.Config{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			APIKey:  cfg.LLM.APIKey,
			Timeout: cfg.LLM.Timeout,
		}, logger)
		if err != nil {
			logger.Warn("insight generator disabled", zap.Error(err))
		} else {
			generator = g
		}
	}

	srv := server.NewServer(cfg, database, generator, logger)

	if cfg.MQTT.BrokerURL != "" {
		client, err := mqtt.Connect(cfg.MQTT.BrokerURL, cfg.MQTT.ClientID, logger)
		if err != nil {
			logger.Fatal("failed to connect to mqtt broker", zap.Error(err))
		}
		defer client.Close()

		ingestor := &mqtt.Ingestor{Reporter: srv.Occupancy(), TopicPrefix: cfg.MQTT.TopicPrefix, Log: logger.Named("mqtt")}
		if err := client.Subscribe(ingestor.SubscriptionTopic(), func(m mqtt.Message) {
			ingestor.HandleMessage(ctx, m, time.Now().UTC())
		}); err != nil {
			logger.Fatal("failed to subscribe to occupancy topic", zap.Error(err))
		}
		logger.Info("occupancy ingest subscribed", zap.String("topic", ingestor.SubscriptionTopic()))
	}

	// run server
	if err := srv.Start(ctx); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
