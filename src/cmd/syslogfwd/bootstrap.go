// FILE: syslogfwd/src/cmd/syslogfwd/bootstrap.go
package main

import (
	"fmt"
	"strings"
	"time"

	"syslogfwd/src/internal/config"

	"github.com/lixenwraith/log"
)

// initializeLogger builds the diagnostic logger from the [logging] section
func initializeLogger(cfg *config.LogConfig, quiet bool) (*log.Logger, error) {
	logger := log.NewLogger()

	var configArgs []string

	if quiet {
		// Quiet mode disables all logging output
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=false",
			"level=255")

		return logger, logger.InitWithDefaults(configArgs...)
	}

	levelValue, err := parseLogLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	configArgs = append(configArgs, fmt.Sprintf("level=%d", levelValue))

	switch cfg.Output {
	case "none":
		configArgs = append(configArgs, "disable_file=true", "enable_stdout=false")

	case "stdout", "stderr":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			fmt.Sprintf("stdout_target=%s", cfg.Output))

	case "file":
		configArgs = append(configArgs, "enable_stdout=false")
		configArgs = append(configArgs, fileLoggingArgs(cfg)...)

	case "both":
		configArgs = append(configArgs, "enable_stdout=true", "stdout_target=stderr")
		configArgs = append(configArgs, fileLoggingArgs(cfg)...)

	default:
		return nil, fmt.Errorf("invalid log output mode: %s", cfg.Output)
	}

	if cfg.Format != "" {
		configArgs = append(configArgs, fmt.Sprintf("format=%s", cfg.Format))
	}

	return logger, logger.InitWithDefaults(configArgs...)
}

func fileLoggingArgs(cfg *config.LogConfig) []string {
	return []string{
		fmt.Sprintf("directory=%s", cfg.File.Directory),
		fmt.Sprintf("name=%s", cfg.File.Name),
		fmt.Sprintf("max_size_mb=%d", cfg.File.MaxSizeMB),
	}
}

func shutdownLogger(logger *log.Logger) {
	if logger != nil {
		if err := logger.Shutdown(2 * time.Second); err != nil {
			// Can't log the shutdown error
			Error("Logger shutdown error: %v\n", err)
		}
	}
}

func parseLogLevel(level string) (int, error) {
	switch strings.ToLower(level) {
	case "debug":
		return int(log.LevelDebug), nil
	case "info":
		return int(log.LevelInfo), nil
	case "warn", "warning":
		return int(log.LevelWarn), nil
	case "error":
		return int(log.LevelError), nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}
