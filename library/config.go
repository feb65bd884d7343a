package library

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime settings for the engine's front ends.
type Config struct {
	DBPath    string `env:"LIBRARY_DB,  default=library.db"`
	LogLevel  string `env:"LOG_LEVEL,   default=info"`
	LogPretty bool   `env:"LOG_PRETTY,  default=true"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}
