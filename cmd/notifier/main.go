package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"sessly/internal/notifications"
	"sessly/pkg/config"
	"sessly/pkg/kafka"

	"github.com/joho/godotenv"
)

const ServiceName = "notifier"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)

	if cfg.ResendAPIKey == "" {
		cfg.Log.Fatal("RESEND_API_KEY is required for the notifier")
	}

	cfg.Log.Info("Starting notifier service")

	notifier := notifications.NewResendNotifier(cfg.ResendAPIKey, cfg.NotifyFromEmail, cfg.Log)
	worker := notifications.NewWorker(notifier, cfg.Log)

	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaBookingTopic, cfg.KafkaGroupID, worker.Handle)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-shutdown
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	cfg.Log.Info("Consuming booking events",
		"topic", cfg.KafkaBookingTopic,
		"group_id", cfg.KafkaGroupID,
	)

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}

	cfg.Log.Info("Notifier stopped gracefully")
}
