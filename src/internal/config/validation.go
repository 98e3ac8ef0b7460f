// FILE: syslogfwd/src/internal/config/validation.go
package config

import (
	"fmt"
	"strings"
)

// Encodings accepted by the encoding package
var validEncodings = map[string]bool{
	"utf-8":        true,
	"us-ascii":     true,
	"iso-8859-1":   true,
	"windows-1252": true,
	"utf-16le":     true,
	"utf-16be":     true,
}

// Validate checks a configuration built outside the loader, filling in defaults where a zero
// value means "unset".
func (c *Config) Validate() error {
	return validateConfig(c)
}

// validateConfig is the single entry point for configuration checks
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := validateLogConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := validateTarget(&cfg.Target); err != nil {
		return err
	}

	if err := validateEnforcement(&cfg.Enforcement); err != nil {
		return err
	}

	if cfg.Encoding == "" {
		cfg.Encoding = "utf-8"
	}
	cfg.Encoding = strings.ToLower(cfg.Encoding)
	if !validEncodings[cfg.Encoding] {
		return fmt.Errorf("invalid encoding: %s", cfg.Encoding)
	}

	return nil
}
