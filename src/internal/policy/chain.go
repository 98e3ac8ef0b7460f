// FILE: syslogfwd/src/internal/policy/chain.go
package policy

import (
	"fmt"
	"sync/atomic"

	"syslogfwd/src/internal/config"

	"github.com/lixenwraith/log"
)

// Chain runs messages through an ordered sequence of policies.
type Chain struct {
	policies []Policy
	logger   *log.Logger

	// Statistics
	totalProcessed atomic.Uint64
	totalProduced  atomic.Uint64
	totalDropped   atomic.Uint64
}

// NewChain creates the standard chain from enforcement settings, in canonical order.
func NewChain(enforcement *config.EnforcementConfig, logger *log.Logger) (*Chain, error) {
	if enforcement == nil {
		return nil, ErrNilEnforcement
	}

	policies := make([]Policy, 0, len(order))
	for _, name := range order {
		p, err := New(name, enforcement, logger)
		if err != nil {
			return nil, fmt.Errorf("policy '%s': %w", name, err)
		}
		policies = append(policies, p)
	}

	return NewChainOf(logger, policies...), nil
}

// NewChainOf creates a chain from explicit policies, run in the given order.
func NewChainOf(logger *log.Logger, policies ...Policy) *Chain {
	chain := &Chain{
		policies: policies,
		logger:   logger,
	}

	logger.Debug("msg", "Policy chain created",
		"component", "policy_chain",
		"policy_count", len(policies))
	return chain
}

// Run applies every applicable policy to the working set, element by element, flattening the results.
// Inapplicable policies are skipped and leave the working set unchanged.
func (c *Chain) Run(message string) []string {
	c.totalProcessed.Add(1)

	working := []string{message}
	for _, p := range c.policies {
		if !p.IsApplicable() {
			continue
		}

		next := make([]string, 0, len(working))
		for _, m := range working {
			next = append(next, p.Apply(m)...)
		}
		working = next

		if len(working) == 0 {
			c.totalDropped.Add(1)
			c.logger.Debug("msg", "Message dropped by policy",
				"component", "policy_chain",
				"policy", p.Name())
			return working
		}
	}

	c.totalProduced.Add(uint64(len(working)))
	return working
}

// Policies returns the chain's policies in run order.
func (c *Chain) Policies() []Policy {
	out := make([]Policy, len(c.policies))
	copy(out, c.policies)
	return out
}

// GetStats returns aggregated statistics for the chain.
func (c *Chain) GetStats() map[string]any {
	applicable := make(map[string]bool, len(c.policies))
	for _, p := range c.policies {
		applicable[p.Name()] = p.IsApplicable()
	}

	return map[string]any{
		"policy_count":    len(c.policies),
		"policies":        applicable,
		"total_processed": c.totalProcessed.Load(),
		"total_produced":  c.totalProduced.Load(),
		"total_dropped":   c.totalDropped.Load(),
	}
}
