package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/verte-zerg/fitts/internal/model"
)

// EnvConfig holds overrides read from the environment.
type EnvConfig struct {
	Participant string `env:"FITTS_PARTICIPANT"`
	DataDir     string `env:"FITTS_DATA_DIR"`
	LogLevel    string `env:"FITTS_LOG_LEVEL"`
}

// LoadEnv parses FITTS_* variables.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Apply overlays non-empty environment values.
func (c EnvConfig) Apply(s *model.Settings) {
	if c.Participant != "" {
		s.Participant = c.Participant
	}
	if c.DataDir != "" {
		s.DataDir = c.DataDir
	}
	if c.LogLevel != "" {
		s.LogLevel = c.LogLevel
	}
}
