// FILE: syslogfwd/src/internal/policy/truncate.go
package policy

import (
	"unicode/utf8"

	"syslogfwd/src/internal/config"

	"github.com/lixenwraith/log"
)

const NameTruncate = "truncate_message_to"

// TruncatePolicy caps the byte length of a message
type TruncatePolicy struct {
	enforcement *config.EnforcementConfig
	logger      *log.Logger
}

func NewTruncatePolicy(enforcement *config.EnforcementConfig, logger *log.Logger) (*TruncatePolicy, error) {
	if enforcement == nil {
		return nil, ErrNilEnforcement
	}
	return &TruncatePolicy{
		enforcement: enforcement,
		logger:      logger,
	}, nil
}

func (p *TruncatePolicy) Name() string {
	return NameTruncate
}

func (p *TruncatePolicy) IsApplicable() bool {
	return p.enforcement.TruncateMessageTo > 0
}

// Apply cuts the message to at most TruncateMessageTo bytes, never inside a UTF-8 sequence.
// Nothing is emitted when not even the first rune fits.
func (p *TruncatePolicy) Apply(message string) []string {
	limit := int(p.enforcement.TruncateMessageTo)
	if len(message) <= limit {
		return []string{message}
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}

	p.logger.Debug("msg", "Truncating message",
		"component", "truncate_policy",
		"length", len(message),
		"limit", limit,
		"truncated_to", cut)

	// The first rune alone exceeds the limit
	if cut == 0 {
		return []string{}
	}
	return []string{message[:cut]}
}
