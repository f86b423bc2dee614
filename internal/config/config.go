// Package config loads an optional YAML overlay for the CLI's default
// options. The CLI applies it only to flags not set on the command line, so
// command-line flags always win.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Options mirrors the CLI's run flags, as a YAML-loadable overlay.
type Options struct {
	Directory      string        `yaml:"directory"`
	Interval       time.Duration `yaml:"interval"`
	PollInterval   time.Duration `yaml:"pollInterval"`
	FlushLogPath   string        `yaml:"flushLogPath"`
	BufferCapacity int           `yaml:"bufferCapacity"`
	Provider       string        `yaml:"provider"`
	LogLevel       string        `yaml:"logLevel"`
}

// Load reads and parses the YAML config file at path. A missing path is not
// an error: the zero-value Options is returned so the caller's flag defaults
// apply unchanged.
func Load(path string) (Options, error) {
	var opts Options
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return opts, nil
}
