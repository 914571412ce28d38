// Package config loads the settings of the ctrain command.
//
// Settings are read in order from defaults, an optional YAML file and CTRAIN_* environment
// variables, which may also be set in a .env file. Later sources override earlier ones.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultInput      = "input/gtfs.zip"
	DefaultOutputDir  = "output"
	DefaultUsefulDays = 30
	DefaultTimezone   = "America/Edmonton"
)

type Config struct {
	// Input is the path of the GTFS static zip archive.
	Input      string `yaml:"input" validate:"required"`
	OutputDir  string `yaml:"output_dir" validate:"required"`
	FilePrefix string `yaml:"file_prefix" validate:"excludesall=/\\"`
	// DB is the path of the SQLite database. Generations are not stored when empty.
	DB         string `yaml:"db"`
	UsefulDays int    `yaml:"useful_days" validate:"gte=0,lte=366"`
	Timezone   string `yaml:"timezone" validate:"required,timezone"`
}

func Default() Config {
	return Config{
		Input:      DefaultInput,
		OutputDir:  DefaultOutputDir,
		UsefulDays: DefaultUsefulDays,
		Timezone:   DefaultTimezone,
	}
}

// Load returns the validated configuration. The YAML file is skipped when path is empty.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		log.Printf("Loaded config file %s", path)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyEnv() error {
	for _, v := range []struct {
		key  string
		dest *string
	}{
		{"CTRAIN_INPUT", &cfg.Input},
		{"CTRAIN_OUTPUT_DIR", &cfg.OutputDir},
		{"CTRAIN_FILE_PREFIX", &cfg.FilePrefix},
		{"CTRAIN_DB", &cfg.DB},
		{"CTRAIN_TIMEZONE", &cfg.Timezone},
	} {
		if value, ok := os.LookupEnv(v.key); ok {
			*v.dest = value
		}
	}
	if value, ok := os.LookupEnv("CTRAIN_USEFUL_DAYS"); ok {
		days, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CTRAIN_USEFUL_DAYS %q: %w", value, err)
		}
		cfg.UsefulDays = days
	}
	return nil
}

var validate = validator.New()

// Validate checks the configuration, for example after command line flags were applied.
func (cfg *Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location returns the time zone that the service window is computed in.
func (cfg *Config) Location() (*time.Location, error) {
	return time.LoadLocation(cfg.Timezone)
}
