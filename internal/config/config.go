// Package config loads the engine's YAML configuration file: where the
// data directory lives, how many frames the buffer pool holds, and
// whether debug logging is enabled.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tinypgdb/tinypg/internal/storage/pager"
)

// BufferPool holds the buffer pool section of the config file.
type BufferPool struct {
	Capacity int `yaml:"capacity"`
}

// Engine is the top-level configuration for a tinypg data directory.
type Engine struct {
	DataRoot   string     `yaml:"data_root"`
	Database   string     `yaml:"database"`
	PageSize   int        `yaml:"page_size"`
	Verbose    bool       `yaml:"verbose"`
	BufferPool BufferPool `yaml:"buffer_pool"`
}

// Default returns the configuration used when no config file is given:
// a "./data" data root, the default buffer pool capacity, and quiet
// logging.
func Default() *Engine {
	return &Engine{
		DataRoot: "./data",
		Database: "tinypg",
		PageSize: pager.PageSize,
		BufferPool: BufferPool{
			Capacity: pager.DefaultCapacity,
		},
	}
}

// Load reads and parses the YAML configuration file at path, filling in
// Default's values for any field the file omits.
func Load(path string) (*Engine, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.PageSize != 0 && cfg.PageSize != pager.PageSize {
		return nil, fmt.Errorf("config %s: page_size %d does not match the build's fixed page size %d", path, cfg.PageSize, pager.PageSize)
	}
	cfg.PageSize = pager.PageSize

	return cfg, nil
}
