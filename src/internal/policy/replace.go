// FILE: syslogfwd/src/internal/policy/replace.go
package policy

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"syslogfwd/src/internal/config"

	"github.com/lixenwraith/log"
)

const NameReplaceInvalid = "replace_invalid_characters"

// ReplaceInvalidPolicy substitutes control characters and invalid UTF-8.
// Line breaks and tabs are kept so a later split still sees them.
type ReplaceInvalidPolicy struct {
	enforcement *config.EnforcementConfig
	logger      *log.Logger
}

func NewReplaceInvalidPolicy(enforcement *config.EnforcementConfig, logger *log.Logger) (*ReplaceInvalidPolicy, error) {
	if enforcement == nil {
		return nil, ErrNilEnforcement
	}
	return &ReplaceInvalidPolicy{
		enforcement: enforcement,
		logger:      logger,
	}, nil
}

func (p *ReplaceInvalidPolicy) Name() string {
	return NameReplaceInvalid
}

func (p *ReplaceInvalidPolicy) IsApplicable() bool {
	return p.enforcement.ReplaceInvalidCharacters
}

func (p *ReplaceInvalidPolicy) Apply(message string) []string {
	if !needsReplacement(message) {
		return []string{message}
	}

	replacement := p.enforcement.ReplacementCharacter
	var b strings.Builder
	b.Grow(len(message))

	replaced := 0
	for i := 0; i < len(message); {
		r, size := utf8.DecodeRuneInString(message[i:])
		if isInvalid(r, size) {
			b.WriteString(replacement)
			replaced++
		} else {
			b.WriteString(message[i : i+size])
		}
		i += size
	}

	p.logger.Debug("msg", "Replaced invalid characters",
		"component", "replace_policy",
		"replaced", replaced)

	return []string{b.String()}
}

func needsReplacement(s string) bool {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if isInvalid(r, size) {
			return true
		}
		i += size
	}
	return false
}

func isInvalid(r rune, size int) bool {
	if r == utf8.RuneError && size <= 1 {
		return true
	}
	switch r {
	case '\t', '\r', '\n':
		return false
	}
	return unicode.IsControl(r)
}
