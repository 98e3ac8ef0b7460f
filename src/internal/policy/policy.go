// FILE: syslogfwd/src/internal/policy/policy.go
package policy

import (
	"errors"
	"fmt"

	"syslogfwd/src/internal/config"

	"github.com/lixenwraith/log"
)

// ErrNilEnforcement is returned when a policy is built without enforcement settings.
var ErrNilEnforcement = errors.New("enforcement config is nil")

// Policy is a single conditionally applied message transformation.
type Policy interface {
	// Name returns the enforcement switch governing the policy
	Name() string

	// IsApplicable reports whether the policy's switch is enabled. Must be pure.
	IsApplicable() bool

	// Apply transforms one message into zero or more messages
	Apply(message string) []string
}

// Constructor builds a policy from the shared enforcement settings.
type Constructor func(enforcement *config.EnforcementConfig, logger *log.Logger) (Policy, error)

// Canonical chain order. Splitting runs before truncation so each line is cut on its own.
var order = []string{
	NameReplaceInvalid,
	NameSplit,
	NameTruncate,
}

var registry = map[string]Constructor{
	NameReplaceInvalid: func(e *config.EnforcementConfig, l *log.Logger) (Policy, error) {
		return NewReplaceInvalidPolicy(e, l)
	},
	NameSplit: func(e *config.EnforcementConfig, l *log.Logger) (Policy, error) {
		return NewSplitPolicy(e, l)
	},
	NameTruncate: func(e *config.EnforcementConfig, l *log.Logger) (Policy, error) {
		return NewTruncatePolicy(e, l)
	},
}

// New creates a single policy by name.
func New(name string, enforcement *config.EnforcementConfig, logger *log.Logger) (Policy, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown policy: %s", name)
	}
	return ctor(enforcement, logger)
}

// Names returns the registered policy names in chain order.
func Names() []string {
	names := make([]string, len(order))
	copy(names, order)
	return names
}
