// Command activitylog tails the company event topic and writes each
// lifecycle event to the log, giving operators a flat audit trail of
// creates, imports, enrichments, and deletes across all owners.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/relaycrm/relay/internal/company/events"
)

type Config struct {
	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC"`
}

const consumerGroup = "company-activity-log"

func main() {
	logger, _ := zap.NewProduction()
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	consumer := events.NewConsumer(cfg.KafkaBrokers, consumerGroup, cfg.Topic, logger)
	defer consumer.Close()

	consumer.RegisterHandler(func(_ context.Context, event events.Event) error {
		fields := []zap.Field{
			zap.String("event_type", string(event.Type)),
			zap.Time("occurred_at", event.OccurredAt),
		}
		if event.Source != "" {
			fields = append(fields, zap.String("source", string(event.Source)))
		}
		if event.Company != nil {
			fields = append(fields,
				zap.String("company_id", event.Company.ID.String()),
				zap.String("owner_id", event.Company.OwnerID.String()),
				zap.String("company", event.Company.Name),
			)
		}
		logger.Info("company activity", fields...)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	consumer.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Activity log stopped")
}

func loadConfig() (*Config, error) {
	configPath := filepath.Join("internal", "company", "config", "config.yaml")
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
