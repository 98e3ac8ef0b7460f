// FILE: syslogfwd/src/internal/transmit/transmit.go
package transmit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"syslogfwd/src/internal/config"

	"github.com/lixenwraith/log"
)

// ErrUnknownProtocol is returned for a protocol with no registered transmitter
var ErrUnknownProtocol = errors.New("unknown protocol")

// Transmitter delivers a batch of finished payloads to the configured endpoint.
// Every call acquires its own connection and releases it before returning.
type Transmitter interface {
	// SendMessages sends payloads in order. A disabled target makes it a no-op.
	SendMessages(ctx context.Context, messages [][]byte) error

	// Name returns the protocol name
	Name() string

	// GetStats returns transmitter statistics
	GetStats() map[string]any
}

// dialFunc opens the connection for one batch
type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

type constructor func(cfg config.TargetConfig, logger *log.Logger) (Transmitter, error)

var registry = map[string]constructor{
	config.ProtocolUDP: func(cfg config.TargetConfig, logger *log.Logger) (Transmitter, error) {
		return NewUDPTransmitter(cfg, logger)
	},
	config.ProtocolTCP: func(cfg config.TargetConfig, logger *log.Logger) (Transmitter, error) {
		return NewTCPTransmitter(cfg, logger)
	},
}

// New creates the transmitter for cfg.Protocol
func New(cfg config.TargetConfig, logger *log.Logger) (Transmitter, error) {
	ctor, ok := registry[cfg.Protocol]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownProtocol, cfg.Protocol)
	}
	return ctor(cfg, logger)
}

func defaultDialer(cfg config.TargetConfig) dialFunc {
	d := &net.Dialer{
		Timeout:   cfg.DialTimeout(),
		KeepAlive: cfg.KeepAlive(),
	}
	return d.DialContext
}

// stats is shared by the transmitters
type stats struct {
	startTime     time.Time
	totalBatches  atomic.Uint64
	totalSent     atomic.Uint64
	totalFailed   atomic.Uint64
	totalSkipped  atomic.Uint64
	lastProcessed atomic.Value // time.Time
}

func newStats() *stats {
	s := &stats{startTime: time.Now()}
	s.lastProcessed.Store(time.Time{})
	return s
}

func (s *stats) snapshot(protocol string, cfg config.TargetConfig) map[string]any {
	lastProc, _ := s.lastProcessed.Load().(time.Time)
	return map[string]any{
		"protocol":       protocol,
		"enabled":        cfg.Enabled(),
		"address":        cfg.HostPort(),
		"total_batches":  s.totalBatches.Load(),
		"total_sent":     s.totalSent.Load(),
		"total_failed":   s.totalFailed.Load(),
		"total_skipped":  s.totalSkipped.Load(),
		"start_time":     s.startTime,
		"last_processed": lastProc,
	}
}

// setWriteDeadline applies the configured write timeout, bounded by the context deadline
func setWriteDeadline(ctx context.Context, conn net.Conn, timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if deadline.IsZero() {
		return nil
	}
	return conn.SetWriteDeadline(deadline)
}
