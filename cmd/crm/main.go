package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/relaycrm/relay/internal/company/controller"
	gorm "github.com/relaycrm/relay/internal/company/db"
	"github.com/relaycrm/relay/internal/company/enrich"
	"github.com/relaycrm/relay/internal/company/events"
	"github.com/relaycrm/relay/internal/company/handlers"
)

// Config struct for YAML configuration
type Config struct {
	HTTPPort        int      `yaml:"HTTP_PORT"`
	DBHost          string   `yaml:"DB_HOST"`
	DBPort          int      `yaml:"DB_PORT"`
	DBUser          string   `yaml:"DB_USER"`
	DBPassword      string   `yaml:"DB_PASSWORD"`
	DBName          string   `yaml:"DB_NAME"`
	DBSSLMode       string   `yaml:"DB_SSLMODE"`
	KafkaBrokers    []string `yaml:"KAFKA_BROKERS"`
	JWTSecret       string   `yaml:"JWT_SECRET"`
	Topic           string   `yaml:"TOPIC"`
	AnthropicModel  string   `yaml:"ANTHROPIC_MODEL"`
	EnrichTimeoutMS int      `yaml:"ENRICH_TIMEOUT_MS"`
}

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	repo, err := gorm.NewRepository(initDatabase(cfg))
	if err != nil {
		log.Fatal("failed to initialize database", err)
	}

	producer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	if err != nil {
		log.Fatal("failed to initialize Kafka producer", err)
	}
	defer producer.Close()

	provider := enrich.NewClaudeProvider(os.Getenv("ANTHROPIC_API_KEY"), cfg.AnthropicModel, logger)
	orchestrator := enrich.NewOrchestrator(repo, provider, producer, logger,
		time.Duration(cfg.EnrichTimeoutMS)*time.Millisecond)

	companySvc := controller.NewCompanyService(repo, producer, orchestrator, logger)
	companyHandler := handlers.NewCompanyHandler(companySvc, logger)

	server := handlers.NewServer(cfg.HTTPPort, logger, companyHandler, cfg.JWTSecret)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	waitForShutdown(server, orchestrator, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// loadConfig loads configuration. Secrets may be overridden via env.
func loadConfig() (*Config, error) {
	configPath := filepath.Join("internal", "company", "config", "config.yaml")
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, err
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	return &cfg, nil
}

// initDatabase initializes the database connection settings.
func initDatabase(cfg *Config) *gorm.Config {
	return &gorm.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then
// shuts down the server and drains in-flight enrichment jobs.
func waitForShutdown(server *handlers.Server, orchestrator *enrich.Orchestrator, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	orchestrator.Wait()
	logger.Info("Server stopped properly")
}
