// FILE: syslogfwd/src/internal/forward/forward.go
package forward

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"syslogfwd/src/internal/config"
	"syslogfwd/src/internal/encoding"
	"syslogfwd/src/internal/policy"
	"syslogfwd/src/internal/throttle"
	"syslogfwd/src/internal/transmit"

	"github.com/lixenwraith/log"
)

// Forwarder shapes messages through the policy chain, encodes them and hands each
// batch to the transmitter. Safe for concurrent use.
type Forwarder struct {
	chain       *policy.Chain
	encoder     encoding.Encoder
	transmitter transmit.Transmitter
	throttle    *throttle.Throttle
	logger      *log.Logger
	stats       *Stats
}

// Stats contains forwarder counters
type Stats struct {
	StartTime           time.Time
	TotalMessages       atomic.Uint64
	TotalBatchesSent    atomic.Uint64
	TotalPayloads       atomic.Uint64
	TotalEmpty          atomic.Uint64
	TotalThrottled      atomic.Uint64
	TotalSendErrors     atomic.Uint64
	TotalEncodingErrors atomic.Uint64
}

// New builds a forwarder and all its stages from configuration.
func New(cfg *config.Config, logger *log.Logger) (*Forwarder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	chain, err := policy.NewChain(&cfg.Enforcement, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create policy chain: %w", err)
	}

	encoder, err := encoding.New(cfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	transmitter, err := transmit.New(cfg.Target, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transmitter: %w", err)
	}

	th := throttle.New(cfg.Enforcement.Throttling, logger)

	f := NewWith(chain, encoder, transmitter, th, logger)
	logger.Info("msg", "Forwarder created",
		"component", "forwarder",
		"protocol", transmitter.Name(),
		"target", cfg.Target.HostPort(),
		"enabled", cfg.Target.Enabled(),
		"encoding", encoder.Name())
	return f, nil
}

// NewWith assembles a forwarder from already built stages. th may be nil.
func NewWith(chain *policy.Chain, encoder encoding.Encoder, transmitter transmit.Transmitter,
	th *throttle.Throttle, logger *log.Logger) *Forwarder {
	return &Forwarder{
		chain:       chain,
		encoder:     encoder,
		transmitter: transmitter,
		throttle:    th,
		logger:      logger,
		stats:       &Stats{StartTime: time.Now()},
	}
}

// Forward runs one message through the pipeline and transmits the result as a single batch.
// Throttled messages and messages the chain reduces to nothing are dropped without error.
// Transmission errors are returned to the caller and never retried.
func (f *Forwarder) Forward(ctx context.Context, message string) error {
	f.stats.TotalMessages.Add(1)

	admitted, err := f.throttle.Admit(ctx)
	if err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	if !admitted {
		f.stats.TotalThrottled.Add(1)
		return nil
	}

	shaped := f.chain.Run(message)
	if len(shaped) == 0 {
		f.stats.TotalEmpty.Add(1)
		return nil
	}

	payloads := make([][]byte, 0, len(shaped))
	for _, m := range shaped {
		b, err := f.encoder.Encode(m)
		if err != nil {
			f.stats.TotalEncodingErrors.Add(1)
			return fmt.Errorf("encoding: %w", err)
		}
		payloads = append(payloads, b)
	}

	if err := f.transmitter.SendMessages(ctx, payloads); err != nil {
		f.stats.TotalSendErrors.Add(1)
		f.logger.Debug("msg", "Failed to send batch",
			"component", "forwarder",
			"protocol", f.transmitter.Name(),
			"payloads", len(payloads),
			"error", err)
		return fmt.Errorf("send: %w", err)
	}

	f.stats.TotalBatchesSent.Add(1)
	f.stats.TotalPayloads.Add(uint64(len(payloads)))
	return nil
}

// Write forwards p as one message, so any io.Writer based logger can use the forwarder as
// its output. A single trailing line break is removed.
func (f *Forwarder) Write(p []byte) (int, error) {
	msg := bytes.TrimSuffix(p, []byte("\n"))
	msg = bytes.TrimSuffix(msg, []byte("\r"))
	if err := f.Forward(context.Background(), string(msg)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// GetStats returns forwarder statistics including those of every stage
func (f *Forwarder) GetStats() map[string]any {
	return map[string]any{
		"start_time":      f.stats.StartTime,
		"uptime_seconds":  int64(time.Since(f.stats.StartTime).Seconds()),
		"total_messages":  f.stats.TotalMessages.Load(),
		"batches_sent":    f.stats.TotalBatchesSent.Load(),
		"payloads_sent":   f.stats.TotalPayloads.Load(),
		"empty":           f.stats.TotalEmpty.Load(),
		"throttled":       f.stats.TotalThrottled.Load(),
		"send_errors":     f.stats.TotalSendErrors.Load(),
		"encoding_errors": f.stats.TotalEncodingErrors.Load(),
		"encoding":        f.encoder.Name(),
		"policies":        f.chain.GetStats(),
		"transmitter":     f.transmitter.GetStats(),
		"throttle":        f.throttle.GetStats(),
	}
}
