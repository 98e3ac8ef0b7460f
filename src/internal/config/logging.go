// FILE: syslogfwd/src/internal/config/logging.go
package config

import "fmt"

// LogConfig controls the forwarder's own diagnostic logging
type LogConfig struct {
	// Output mode: "file", "stdout", "stderr", "both", "none"
	Output string `toml:"output"`

	// Log level: "debug", "info", "warn", "error"
	Level string `toml:"level"`

	// File output settings (when Output is "file" or "both")
	File LogFileConfig `toml:"file"`

	// Console format: "txt" or "json"
	Format string `toml:"format"`
}

type LogFileConfig struct {
	Directory string `toml:"directory"`
	Name      string `toml:"name"`

	// Maximum size per log file in MB
	MaxSizeMB int64 `toml:"max_size_mb"`
}

// DefaultLogConfig returns the logging defaults
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Output: "stderr",
		Level:  "warn",
		File: LogFileConfig{
			Directory: "./log",
			Name:      "syslogfwd",
			MaxSizeMB: 10,
		},
		Format: "txt",
	}
}

func validateLogConfig(cfg *LogConfig) error {
	validOutputs := map[string]bool{
		"file": true, "stdout": true, "stderr": true,
		"both": true, "none": true,
	}
	if !validOutputs[cfg.Output] {
		return fmt.Errorf("invalid log output mode: %s", cfg.Output)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	validFormats := map[string]bool{
		"txt": true, "json": true, "": true,
	}
	if !validFormats[cfg.Format] {
		return fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	if cfg.Output == "file" || cfg.Output == "both" {
		if cfg.File.Directory == "" || cfg.File.Name == "" {
			return fmt.Errorf("file logging requires directory and name")
		}
	}

	return nil
}
