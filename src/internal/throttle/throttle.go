// FILE: syslogfwd/src/internal/throttle/throttle.go
package throttle

import (
	"context"
	"math"
	"sync/atomic"

	"syslogfwd/src/internal/config"

	"github.com/lixenwraith/log"
	"golang.org/x/time/rate"
)

// Throttle limits the rate of messages entering the pipeline.
// A nil *Throttle admits everything.
type Throttle struct {
	limiter  *rate.Limiter
	strategy string
	logger   *log.Logger

	// Statistics
	allowedCount atomic.Uint64
	droppedCount atomic.Uint64
	waitedCount  atomic.Uint64
}

// New creates a throttle from configuration. Returns nil when throttling is off.
func New(cfg config.ThrottlingConfig, logger *log.Logger) *Throttle {
	if cfg.Limit <= 0 || cfg.Strategy == config.ThrottleNone || cfg.Strategy == "" {
		return nil
	}

	burst := int(cfg.Burst)
	if burst <= 0 {
		burst = int(math.Ceil(cfg.Limit))
	}

	t := &Throttle{
		limiter:  rate.NewLimiter(rate.Limit(cfg.Limit), burst),
		strategy: cfg.Strategy,
		logger:   logger,
	}

	logger.Debug("msg", "Throttle created",
		"component", "throttle",
		"limit", cfg.Limit,
		"burst", burst,
		"strategy", cfg.Strategy)
	return t
}

// Admit reports whether one message may proceed. With the block strategy it waits for
// capacity and only fails when ctx ends first.
func (t *Throttle) Admit(ctx context.Context) (bool, error) {
	if t == nil {
		return true, nil
	}

	switch t.strategy {
	case config.ThrottleBlock:
		if t.limiter.Allow() {
			t.allowedCount.Add(1)
			return true, nil
		}
		t.waitedCount.Add(1)
		if err := t.limiter.Wait(ctx); err != nil {
			return false, err
		}
		t.allowedCount.Add(1)
		return true, nil

	default: // discard
		if t.limiter.Allow() {
			t.allowedCount.Add(1)
			return true, nil
		}
		if t.droppedCount.Add(1) == 1 {
			t.logger.Warn("msg", "Throttle limit reached, discarding messages",
				"component", "throttle",
				"limit", float64(t.limiter.Limit()))
		}
		return false, nil
	}
}

// GetStats returns throttle statistics
func (t *Throttle) GetStats() map[string]any {
	if t == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"enabled":  true,
		"strategy": t.strategy,
		"limit":    float64(t.limiter.Limit()),
		"burst":    t.limiter.Burst(),
		"allowed":  t.allowedCount.Load(),
		"dropped":  t.droppedCount.Load(),
		"waited":   t.waitedCount.Load(),
	}
}
