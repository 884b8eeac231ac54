package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the service configuration, read from the environment with an
// optional .env file for local development.
type Config struct {
	Port             string        `envconfig:"PORT" default:":8080"`
	RunLocal         bool          `envconfig:"RUN_LOCAL" default:"false"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	OrdersTable      string        `envconfig:"ORDERS_TABLE" default:"fgc-orders"`
	StockTable       string        `envconfig:"STOCK_TABLE" default:"fgc-stock"`
	IdempotencyTable string        `envconfig:"IDEMPOTENCY_TABLE" default:"fgc-idempotency"`
	KitchenQueueURL  string        `envconfig:"KITCHEN_QUEUE_URL"`
	IdempotencyTTL   time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"48h"`
	MetricsNamespace string        `envconfig:"METRICS_NAMESPACE" default:"FoodGoCafe/Orders"`
}

// Load reads the configuration. A missing .env file is fine; anything else
// wrong with it is not.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return &cfg, nil
}
