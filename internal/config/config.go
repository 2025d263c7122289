// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8090"`

	// Auth
	APIKey string `env:"MKSHEETS_API_KEY"`

	// Content packs layered over the built-in compendium.
	ContentPack string `env:"MKSHEETS_CONTENT_PACK"`

	// Rendering
	OutputDir    string `env:"MKSHEETS_OUTPUT_DIR" envDefault:"."`
	LatexCommand string `env:"MKSHEETS_LATEX_CMD" envDefault:"pdflatex"`

	// Worker pool
	WorkerCount  int `env:"WORKER_COUNT" envDefault:"4"`
	MaxQueueSize int `env:"MAX_QUEUE_SIZE" envDefault:"100"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"1048576"` // 1MB

	// Job state
	JobTTL time.Duration `env:"JOB_TTL" envDefault:"1h"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 1048576
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg, nil
}

// Validate checks requirements for running the HTTP service. The batch
// CLI builds its Config from flags and skips this.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("MKSHEETS_API_KEY is required")
	}
	return nil
}
