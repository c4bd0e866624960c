// Package config loads the table engine's runtime configuration from a
// YAML file, the same way the teacher's cmd/ddb loads ddb.ui.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the settings the library-simulation demo and the session
// logger need at startup.
type Config struct {
	// LogLevel is read from the file ("info" by default). Nothing in this
	// module consults it: librarysim's logger writes every line
	// regardless of its value.
	LogLevel string `yaml:"logLevel"`

	// SimSeed seeds the library simulation's random event generator, for
	// reproducible runs.
	SimSeed int64 `yaml:"simSeed"`

	// SimRounds is the number of simulated events to run per invocation.
	SimRounds int `yaml:"simRounds"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{LogLevel: "info", SimSeed: 1, SimRounds: 1000}
}

// Load reads path and unmarshals it over Default(), so a partial file
// only overrides the fields it sets.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Find searches for name walking up from the current directory, mirroring
// cmd/ddb's config.go. Returns "" if not found.
func Find(name string) string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
