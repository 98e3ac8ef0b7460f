// FILE: syslogfwd/src/internal/config/enforcement.go
package config

import (
	"fmt"
	"strings"
)

// Throttling strategies
const (
	// ThrottleNone disables throttling regardless of the limit
	ThrottleNone = "none"
	// ThrottleDiscard drops messages over the limit
	ThrottleDiscard = "discard"
	// ThrottleBlock makes the caller wait for capacity
	ThrottleBlock = "block"
)

// EnforcementConfig holds the switches that decide which policies take part in message shaping.
// Policies only read it.
type EnforcementConfig struct {
	// Split one message into several on CR/LF boundaries
	SplitOnNewLine bool `toml:"split_on_new_line"`

	// Replace control characters and invalid UTF-8
	ReplaceInvalidCharacters bool   `toml:"replace_invalid_characters"`
	ReplacementCharacter     string `toml:"replacement_character"`

	// Maximum message size in bytes. 0 = no limit.
	TruncateMessageTo int64 `toml:"truncate_message_to"`

	Throttling ThrottlingConfig `toml:"throttling"`
}

// ThrottlingConfig limits how many messages per second enter the pipeline.
type ThrottlingConfig struct {
	// Messages per second. 0 = disabled.
	Limit float64 `toml:"limit"`
	// Defaults to the limit, rounded up.
	Burst int64 `toml:"burst"`
	// "none", "discard" or "block"
	Strategy string `toml:"strategy"`
}

func validateEnforcement(e *EnforcementConfig) error {
	if e.TruncateMessageTo < 0 {
		return fmt.Errorf("enforcement: truncate_message_to cannot be negative: %d", e.TruncateMessageTo)
	}

	if e.ReplaceInvalidCharacters && e.ReplacementCharacter == "" {
		e.ReplacementCharacter = "?"
	}
	if strings.ContainsAny(e.ReplacementCharacter, "\r\n") {
		return fmt.Errorf("enforcement: replacement_character cannot contain line breaks")
	}

	t := &e.Throttling
	if t.Limit < 0 {
		return fmt.Errorf("enforcement: throttling limit cannot be negative")
	}
	if t.Burst < 0 {
		return fmt.Errorf("enforcement: throttling burst cannot be negative")
	}

	switch strings.ToLower(t.Strategy) {
	case "":
		t.Strategy = ThrottleNone
	case ThrottleNone, ThrottleDiscard, ThrottleBlock:
		t.Strategy = strings.ToLower(t.Strategy)
	default:
		return fmt.Errorf("enforcement: invalid throttling strategy '%s' (must be 'none', 'discard' or 'block')",
			t.Strategy)
	}

	return nil
}
