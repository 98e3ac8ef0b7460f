// FILE: syslogfwd/src/internal/policy/split.go
package policy

import (
	"strings"

	"syslogfwd/src/internal/config"

	"github.com/lixenwraith/log"
)

const NameSplit = "split_on_new_line"

// SplitPolicy breaks a message into one message per line
type SplitPolicy struct {
	enforcement *config.EnforcementConfig
	logger      *log.Logger
}

// NewSplitPolicy creates a splitting policy governed by enforcement.SplitOnNewLine
func NewSplitPolicy(enforcement *config.EnforcementConfig, logger *log.Logger) (*SplitPolicy, error) {
	if enforcement == nil {
		return nil, ErrNilEnforcement
	}
	return &SplitPolicy{
		enforcement: enforcement,
		logger:      logger,
	}, nil
}

func (p *SplitPolicy) Name() string {
	return NameSplit
}

func (p *SplitPolicy) IsApplicable() bool {
	return p.enforcement.SplitOnNewLine
}

// Apply splits on every CR or LF and drops empty segments.
// An empty message, or one made only of separators, yields no messages.
func (p *SplitPolicy) Apply(message string) []string {
	if message == "" {
		return []string{}
	}
	if !strings.ContainsAny(message, "\r\n") {
		return []string{message}
	}

	p.logger.Debug("msg", "Splitting on new line",
		"component", "split_policy",
		"length", len(message))

	return strings.FieldsFunc(message, isLineSeparator)
}

func isLineSeparator(r rune) bool {
	return r == '\r' || r == '\n'
}
