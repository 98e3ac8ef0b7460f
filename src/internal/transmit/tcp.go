// FILE: syslogfwd/src/internal/transmit/tcp.go
package transmit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"syslogfwd/src/internal/config"
	"syslogfwd/src/internal/framing"

	"github.com/lixenwraith/log"
)

// FrameError reports a payload that could not be framed. It does not abort the batch.
type FrameError struct {
	Index int
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("message %d: %v", e.Index+1, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// TCPTransmitter writes framed payloads over one stream connection per batch
type TCPTransmitter struct {
	config config.TargetConfig
	framer framing.Framer
	dial   dialFunc
	logger *log.Logger
	stats  *stats
}

// NewTCPTransmitter creates a TCP transmitter using the target's framing
func NewTCPTransmitter(cfg config.TargetConfig, logger *log.Logger) (*TCPTransmitter, error) {
	if cfg.Protocol != "" && cfg.Protocol != config.ProtocolTCP {
		return nil, fmt.Errorf("tcp transmitter cannot serve protocol '%s'", cfg.Protocol)
	}

	framer, err := framing.New(cfg.Framing)
	if err != nil {
		return nil, err
	}

	t := &TCPTransmitter{
		config: cfg,
		framer: framer,
		dial:   defaultDialer(cfg),
		logger: logger,
		stats:  newStats(),
	}

	logger.Debug("msg", "TCP transmitter created",
		"component", "tcp_transmitter",
		"address", cfg.HostPort(),
		"framing", framer.Name(),
		"enabled", cfg.Enabled())
	return t, nil
}

func (t *TCPTransmitter) Name() string {
	return config.ProtocolTCP
}

// SendMessages holds one connection for the batch and writes each payload as one frame.
// A dial or write failure aborts the batch and the connection is dropped. Payloads that cannot
// be framed are skipped and reported together once the batch is done.
func (t *TCPTransmitter) SendMessages(ctx context.Context, messages [][]byte) error {
	if !t.config.Enabled() || len(messages) == 0 {
		return nil
	}

	t.stats.totalBatches.Add(1)
	address := t.config.HostPort()

	conn, err := t.dial(ctx, "tcp", address)
	if err != nil {
		t.stats.totalFailed.Add(1)
		return fmt.Errorf("tcp dial %s: %w", address, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			t.logger.Debug("msg", "Failed to close TCP connection",
				"component", "tcp_transmitter",
				"error", cerr)
		}
	}()

	var frameErrs []error
	frame := make([]byte, 0, 1024)
	for i, message := range messages {
		if err := ctx.Err(); err != nil {
			t.stats.totalSkipped.Add(uint64(len(messages) - i))
			return err
		}

		frame, err = t.framer.Frame(frame[:0], message)
		if err != nil {
			t.stats.totalSkipped.Add(1)
			t.logger.Warn("msg", "Message skipped, cannot be framed",
				"component", "tcp_transmitter",
				"framing", t.framer.Name(),
				"index", i,
				"error", err)
			frameErrs = append(frameErrs, &FrameError{Index: i, Err: err})
			continue
		}

		if err := setWriteDeadline(ctx, conn, t.config.WriteTimeout()); err != nil {
			t.stats.totalFailed.Add(1)
			return fmt.Errorf("tcp set write deadline: %w", err)
		}

		n, err := conn.Write(frame)
		if err != nil {
			t.stats.totalFailed.Add(1)
			t.stats.totalSkipped.Add(uint64(len(messages) - i - 1))
			return fmt.Errorf("tcp send message %d of %d to %s: %w", i+1, len(messages), address, err)
		}
		if n != len(frame) {
			t.stats.totalFailed.Add(1)
			t.stats.totalSkipped.Add(uint64(len(messages) - i - 1))
			return fmt.Errorf("tcp send message %d of %d: partial write: %d/%d bytes", i+1, len(messages), n, len(frame))
		}
		t.stats.totalSent.Add(1)
	}

	t.stats.lastProcessed.Store(time.Now())
	return errors.Join(frameErrs...)
}

func (t *TCPTransmitter) GetStats() map[string]any {
	s := t.stats.snapshot(t.Name(), t.config)
	s["framing"] = t.framer.Name()
	return s
}
