// FILE: syslogfwd/src/internal/transmit/udp.go
package transmit

import (
	"context"
	"fmt"
	"time"

	"syslogfwd/src/internal/config"

	"github.com/lixenwraith/log"
)

// UDPTransmitter sends each payload as one datagram
type UDPTransmitter struct {
	config config.TargetConfig
	dial   dialFunc
	logger *log.Logger
	stats  *stats
}

// NewUDPTransmitter creates a UDP transmitter for the target
func NewUDPTransmitter(cfg config.TargetConfig, logger *log.Logger) (*UDPTransmitter, error) {
	if cfg.Protocol != "" && cfg.Protocol != config.ProtocolUDP {
		return nil, fmt.Errorf("udp transmitter cannot serve protocol '%s'", cfg.Protocol)
	}

	u := &UDPTransmitter{
		config: cfg,
		dial:   defaultDialer(cfg),
		logger: logger,
		stats:  newStats(),
	}

	logger.Debug("msg", "UDP transmitter created",
		"component", "udp_transmitter",
		"address", cfg.HostPort(),
		"enabled", cfg.Enabled())
	return u, nil
}

func (u *UDPTransmitter) Name() string {
	return config.ProtocolUDP
}

// SendMessages opens one socket for the batch and writes the payloads in order.
// The first failed datagram aborts the batch. The socket is closed on every path.
func (u *UDPTransmitter) SendMessages(ctx context.Context, messages [][]byte) error {
	if !u.config.Enabled() || len(messages) == 0 {
		return nil
	}

	u.stats.totalBatches.Add(1)
	address := u.config.HostPort()

	conn, err := u.dial(ctx, "udp", address)
	if err != nil {
		u.stats.totalFailed.Add(1)
		return fmt.Errorf("udp dial %s: %w", address, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			u.logger.Debug("msg", "Failed to close UDP socket",
				"component", "udp_transmitter",
				"error", cerr)
		}
	}()

	for i, message := range messages {
		if err := ctx.Err(); err != nil {
			u.stats.totalSkipped.Add(uint64(len(messages) - i))
			return err
		}
		if err := setWriteDeadline(ctx, conn, u.config.WriteTimeout()); err != nil {
			u.stats.totalFailed.Add(1)
			return fmt.Errorf("udp set write deadline: %w", err)
		}

		if _, err := conn.Write(message); err != nil {
			u.stats.totalFailed.Add(1)
			u.stats.totalSkipped.Add(uint64(len(messages) - i - 1))
			return fmt.Errorf("udp send message %d of %d to %s: %w", i+1, len(messages), address, err)
		}
		u.stats.totalSent.Add(1)
	}

	u.stats.lastProcessed.Store(time.Now())
	return nil
}

func (u *UDPTransmitter) GetStats() map[string]any {
	return u.stats.snapshot(u.Name(), u.config)
}
