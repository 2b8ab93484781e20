// Package config loads runtime settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"riptide/internal/stream"
)

const (
	// EnvConfig names a config file to load instead of the default location.
	EnvConfig = "RIPTIDE_CONFIG"

	// EnvPath holds extra module directories, separated like PATH.
	EnvPath = "RIPTIDE_PATH"
)

type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Modules  ModulesConfig  `yaml:"modules"`
	Log      LogConfig      `yaml:"log"`
}

type PipelineConfig struct {
	// BufferSize is the capacity in bytes of each stage-to-stage pipe.
	BufferSize int `yaml:"buffer_size"`

	// Pipefail makes a broken-pipe write in a non-final stage fail the
	// whole pipeline.
	Pipefail bool `yaml:"pipefail"`
}

type ModulesConfig struct {
	Path      []string `yaml:"path"`
	Extension string   `yaml:"extension"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() Config {
	return Config{
		Pipeline: PipelineConfig{BufferSize: stream.DefaultCapacity},
		Modules:  ModulesConfig{Extension: ".rt"},
		Log:      LogConfig{Level: "warn"},
	}
}

// Load reads the config file at path over the defaults. Unset keys keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg.normalize(), nil
}

// LoadDefault loads $RIPTIDE_CONFIG, or the user's riptide/config.yaml.
// A missing default file is not an error. Directories from $RIPTIDE_PATH are
// appended to the module path.
func LoadDefault() (Config, error) {
	path := os.Getenv(EnvConfig)
	explicit := path != ""
	if !explicit {
		dir, err := os.UserConfigDir()
		if err == nil {
			path = filepath.Join(dir, "riptide", "config.yaml")
		}
	}

	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case explicit || !errors.Is(err, fs.ErrNotExist):
			return cfg, err
		}
	}

	if extra := os.Getenv(EnvPath); extra != "" {
		cfg.Modules.Path = append(cfg.Modules.Path, filepath.SplitList(extra)...)
	}
	return cfg, nil
}

func (c Config) normalize() Config {
	if c.Pipeline.BufferSize <= 0 {
		c.Pipeline.BufferSize = stream.DefaultCapacity
	}
	if c.Modules.Extension == "" {
		c.Modules.Extension = ".rt"
	} else if !strings.HasPrefix(c.Modules.Extension, ".") {
		c.Modules.Extension = "." + c.Modules.Extension
	}
	return c
}

// SlogLevel maps the configured level name to a slog level, defaulting to
// warn for unknown names.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
