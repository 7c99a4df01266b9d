package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/jwalitptl/postoppal-api/pkg/messaging"
	"github.com/jwalitptl/postoppal-api/pkg/messaging/redis"
)

// PrintWorkerConfig configures cmd/printworker from PRINTWORKER_* variables.
type PrintWorkerConfig struct {
	RedisURL        string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	RedisMaxRetries int           `envconfig:"REDIS_MAX_RETRIES" default:"3"`
	BreakerFailures int           `envconfig:"BREAKER_FAILURES" default:"5"`
	BreakerTimeout  time.Duration `envconfig:"BREAKER_TIMEOUT" default:"5s"`
	Channel         string        `envconfig:"CHANNEL" default:"qr.print"`
	SpoolDir        string        `envconfig:"SPOOL_DIR" required:"true"`
	HealthPort      int           `envconfig:"HEALTH_PORT" default:"8081"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON         bool          `envconfig:"LOG_JSON" default:"false"`
	MetricsPrefix   string        `envconfig:"METRICS_NAMESPACE" default:"postoppal_printworker"`
}

func LoadPrintWorkerConfig() (*PrintWorkerConfig, error) {
	var cfg PrintWorkerConfig
	if err := envconfig.Process("printworker", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load print worker config: %w", err)
	}
	if cfg.SpoolDir == "" {
		return nil, errors.New("PRINTWORKER_SPOOL_DIR is required")
	}
	if cfg.Channel == "" {
		cfg.Channel = messaging.ChannelPrint
	}
	return &cfg, nil
}

func (c *PrintWorkerConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:             c.RedisURL,
		MaxRetries:      c.RedisMaxRetries,
		BreakerFailures: c.BreakerFailures,
		BreakerTimeout:  c.BreakerTimeout,
	}
}
