// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/fitts/internal/model"
)

// Host defaults.
const (
	DefaultParticipant = "P0"
	DefaultLogLevel    = "info"
	DefaultTickMs      = 20
	DefaultMoveSpeed   = 0.5
	DefaultReturnSpeed = 2.0
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Experiment ExperimentConfig `toml:"experiment"`
	Layout     LayoutConfig     `toml:"layout"`
	Host       HostConfig       `toml:"host"`
}

// ExperimentConfig maps session-level settings.
type ExperimentConfig struct {
	Participant *string  `toml:"participant"`
	Repetitions *int     `toml:"repetitions"`
	WidthLevels *int     `toml:"width-levels"`
	Tolerance   *float64 `toml:"tolerance"`
	DataDir     *string  `toml:"data-dir"`
	LogLevel    *string  `toml:"log-level"`
}

// LayoutConfig maps scene geometry.
type LayoutConfig struct {
	Start     *float64  `toml:"start"`
	Targets   []float64 `toml:"targets"`
	Width     *float64  `toml:"width"`
	WidthStep *float64  `toml:"width-step"`
}

// HostConfig maps interactive host settings.
type HostConfig struct {
	TickMs      *int     `toml:"tick-ms"`
	MoveSpeed   *float64 `toml:"move-speed"`
	ReturnSpeed *float64 `toml:"return-speed"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Defaults returns settings before any file, env or flag is applied.
func Defaults() model.Settings {
	return model.Settings{
		Participant: DefaultParticipant,
		Design:      model.DefaultDesign(),
		DataDir:     DefaultDataDir(),
		LogLevel:    DefaultLogLevel,
		TickRate:    DefaultTickMs * time.Millisecond,
		MoveSpeed:   DefaultMoveSpeed,
		ReturnSpeed: DefaultReturnSpeed,
	}
}

// Apply overlays the values set in the file.
func (c FileConfig) Apply(s *model.Settings) {
	setString(&s.Participant, c.Experiment.Participant)
	setInt(&s.Design.Repetitions, c.Experiment.Repetitions)
	setInt(&s.Design.WidthLevels, c.Experiment.WidthLevels)
	setFloat(&s.Design.Tolerance, c.Experiment.Tolerance)
	setString(&s.DataDir, c.Experiment.DataDir)
	setString(&s.LogLevel, c.Experiment.LogLevel)

	setFloat(&s.Design.Start, c.Layout.Start)
	if len(c.Layout.Targets) > 0 {
		s.Design.Targets = append([]float64(nil), c.Layout.Targets...)
	}
	setFloat(&s.Design.InitialWidth, c.Layout.Width)
	setFloat(&s.Design.WidthStep, c.Layout.WidthStep)

	if c.Host.TickMs != nil {
		s.TickRate = time.Duration(*c.Host.TickMs) * time.Millisecond
	}
	setFloat(&s.MoveSpeed, c.Host.MoveSpeed)
	setFloat(&s.ReturnSpeed, c.Host.ReturnSpeed)
}

func setString(target, value *string) {
	if value != nil {
		*target = *value
	}
}

func setInt(target, value *int) {
	if value != nil {
		*target = *value
	}
}

func setFloat(target, value *float64) {
	if value != nil {
		*target = *value
	}
}

// ValidateSettings checks resolved settings before a session starts.
func ValidateSettings(s model.Settings) error {
	if err := s.Design.Validate(); err != nil {
		return err
	}
	if s.DataDir == "" {
		return fmt.Errorf("data directory must not be empty")
	}
	if s.TickRate <= 0 {
		return fmt.Errorf("tick interval must be > 0")
	}
	if s.MoveSpeed <= 0 {
		return fmt.Errorf("move speed must be > 0")
	}
	if s.ReturnSpeed < 0 {
		return fmt.Errorf("return speed must be >= 0")
	}
	return nil
}
