// FILE: syslogfwd/src/internal/receiver/receiver.go
package receiver

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"syslogfwd/src/internal/config"
	"syslogfwd/src/internal/framing"

	"github.com/lixenwraith/log"
	"github.com/lixenwraith/log/compat"
	"github.com/panjf2000/gnet/v2"
)

// Per-connection cap on unframed TCP data
const maxConnBufferSize = framing.MaxFrameSize + 16

const defaultBootTimeout = 5 * time.Second

// Message is one datagram or one recovered stream frame
type Message struct {
	Network    string
	RemoteAddr string
	Payload    []byte
	Time       time.Time
}

// Config describes what the receiver listens on
type Config struct {
	// "udp" or "tcp"
	Network string
	// "host:port"
	Address string
	// Stream framing, tcp only
	Framing string
	// Subscriber channel capacity
	BufferSize int64
}

// Receiver is a loopback collector used to watch what the forwarder sends.
// It does not interpret message content.
type Receiver struct {
	cfg         Config
	framer      framing.Framer
	server      *receiverServer
	subscribers []chan Message
	mu          sync.RWMutex
	booted      chan struct{}
	bootTimeout time.Duration
	abandoned   atomic.Bool
	engine      *gnet.Engine
	engineMu    sync.Mutex
	wg          sync.WaitGroup
	logger      *log.Logger

	// Statistics
	totalMessages   atomic.Uint64
	droppedMessages atomic.Uint64
	frameErrors     atomic.Uint64
	activeConns     atomic.Int64
	startTime       time.Time
	lastMessageTime atomic.Value // time.Time
}

// New creates a receiver. Call Start to begin listening.
func New(cfg Config, logger *log.Logger) (*Receiver, error) {
	switch cfg.Network {
	case config.ProtocolUDP, config.ProtocolTCP:
	default:
		return nil, fmt.Errorf("receiver: unsupported network '%s'", cfg.Network)
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("receiver: address is required")
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}

	r := &Receiver{
		cfg:         cfg,
		booted:      make(chan struct{}),
		bootTimeout: defaultBootTimeout,
		logger:      logger,
		startTime:   time.Now(),
	}
	r.lastMessageTime.Store(time.Time{})

	if cfg.Network == config.ProtocolTCP {
		framer, err := framing.New(cfg.Framing)
		if err != nil {
			return nil, fmt.Errorf("receiver: %w", err)
		}
		r.framer = framer
	}

	return r, nil
}

// Subscribe returns a channel receiving every message. Closed by Stop.
func (r *Receiver) Subscribe() <-chan Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan Message, r.cfg.BufferSize)
	r.subscribers = append(r.subscribers, ch)
	return ch
}

// Start runs the event loop and returns once it is listening
func (r *Receiver) Start() error {
	r.server = &receiverServer{receiver: r}

	addr := fmt.Sprintf("%s://%s", r.cfg.Network, r.cfg.Address)
	gnetLogger := compat.NewGnetAdapter(r.logger)

	errChan := make(chan error, 1)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.logger.Info("msg", "Receiver starting",
			"component", "receiver",
			"network", r.cfg.Network,
			"address", r.cfg.Address)

		err := gnet.Run(r.server, addr,
			gnet.WithLogger(gnetLogger),
			gnet.WithMulticore(true),
			gnet.WithReusePort(true),
		)
		if err != nil {
			r.logger.Error("msg", "Receiver failed",
				"component", "receiver",
				"address", r.cfg.Address,
				"error", err)
		}
		errChan <- err
	}()

	select {
	case err := <-errChan:
		r.wg.Wait()
		if err == nil {
			err = fmt.Errorf("receiver stopped before boot")
		}
		return err
	case <-r.booted:
		r.logger.Info("msg", "Receiver listening",
			"component", "receiver",
			"network", r.cfg.Network,
			"address", r.cfg.Address)
		return nil
	case <-time.After(r.bootTimeout):
		// The event loop may still come up; shut it down when it does
		r.abandoned.Store(true)
		go func() {
			select {
			case <-r.booted:
				r.stopEngine()
			case <-errChan:
			}
		}()
		return fmt.Errorf("receiver: timed out waiting for %s to start", addr)
	}
}

func (r *Receiver) stopEngine() {
	r.engineMu.Lock()
	engine := r.engine
	r.engineMu.Unlock()

	if engine == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := (*engine).Stop(ctx); err != nil {
		r.logger.Debug("msg", "Receiver engine stop error",
			"component", "receiver",
			"error", err)
	}
}

// Stop shuts down the event loop and closes subscriber channels
func (r *Receiver) Stop() {
	r.logger.Info("msg", "Stopping receiver", "component", "receiver")

	r.stopEngine()

	// After a boot timeout the event loop is shut down in the background
	if !r.abandoned.Load() {
		r.wg.Wait()
	}

	r.mu.Lock()
	for _, ch := range r.subscribers {
		close(ch)
	}
	r.subscribers = nil
	r.mu.Unlock()

	r.logger.Info("msg", "Receiver stopped", "component", "receiver")
}

// GetStats returns receiver statistics
func (r *Receiver) GetStats() map[string]any {
	lastMessage, _ := r.lastMessageTime.Load().(time.Time)

	stats := map[string]any{
		"network":            r.cfg.Network,
		"address":            r.cfg.Address,
		"total_messages":     r.totalMessages.Load(),
		"dropped_messages":   r.droppedMessages.Load(),
		"frame_errors":       r.frameErrors.Load(),
		"active_connections": r.activeConns.Load(),
		"start_time":         r.startTime,
		"last_message_time":  lastMessage,
	}
	if r.framer != nil {
		stats["framing"] = r.framer.Name()
	}
	return stats
}

func (r *Receiver) publish(msg Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.totalMessages.Add(1)
	r.lastMessageTime.Store(msg.Time)

	dropped := false
	for _, ch := range r.subscribers {
		select {
		case ch <- msg:
		default:
			dropped = true
			r.droppedMessages.Add(1)
		}
	}

	if dropped {
		r.logger.Debug("msg", "Dropped message - subscriber buffer full",
			"component", "receiver")
	}
}

// connBuffer holds unframed bytes of one TCP connection
type connBuffer struct {
	data []byte
}

// Handles gnet events
type receiverServer struct {
	gnet.BuiltinEventEngine
	receiver *Receiver
}

func (s *receiverServer) OnBoot(eng gnet.Engine) gnet.Action {
	s.receiver.engineMu.Lock()
	s.receiver.engine = &eng
	s.receiver.engineMu.Unlock()

	close(s.receiver.booted)
	return gnet.None
}

func (s *receiverServer) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	if s.receiver.cfg.Network != config.ProtocolTCP {
		return nil, gnet.None
	}
	c.SetContext(&connBuffer{})
	n := s.receiver.activeConns.Add(1)
	s.receiver.logger.Debug("msg", "Connection opened",
		"component", "receiver",
		"remote_addr", c.RemoteAddr().String(),
		"active_connections", n)
	return nil, gnet.None
}

func (s *receiverServer) OnClose(c gnet.Conn, err error) gnet.Action {
	if s.receiver.cfg.Network != config.ProtocolTCP {
		return gnet.None
	}
	if buf, ok := c.Context().(*connBuffer); ok && len(buf.data) > 0 {
		// A trailing unterminated line is still a frame for non-transparent framing
		s.drain(c, buf, true)
	}

	n := s.receiver.activeConns.Add(-1)
	s.receiver.logger.Debug("msg", "Connection closed",
		"component", "receiver",
		"remote_addr", c.RemoteAddr().String(),
		"active_connections", n,
		"error", err)
	return gnet.None
}

func (s *receiverServer) OnTraffic(c gnet.Conn) gnet.Action {
	data, err := c.Next(-1)
	if err != nil {
		s.receiver.logger.Error("msg", "Error reading from connection",
			"component", "receiver",
			"error", err)
		return gnet.Close
	}

	remote := ""
	if addr := c.RemoteAddr(); addr != nil {
		remote = addr.String()
	}

	if s.receiver.cfg.Network == config.ProtocolUDP {
		s.receiver.publish(Message{
			Network:    config.ProtocolUDP,
			RemoteAddr: remote,
			Payload:    append([]byte(nil), data...),
			Time:       time.Now(),
		})
		return gnet.None
	}

	buf, ok := c.Context().(*connBuffer)
	if !ok {
		return gnet.Close
	}
	if len(buf.data)+len(data) > maxConnBufferSize {
		s.receiver.frameErrors.Add(1)
		s.receiver.logger.Warn("msg", "Connection buffer limit exceeded, closing connection",
			"component", "receiver",
			"remote_addr", remote,
			"buffer_size", len(buf.data),
			"incoming_size", len(data))
		return gnet.Close
	}
	buf.data = append(buf.data, data...)

	return s.drain(c, buf, false)
}

// drain publishes every complete frame in buf
func (s *receiverServer) drain(c gnet.Conn, buf *connBuffer, atEOF bool) gnet.Action {
	remote := ""
	if addr := c.RemoteAddr(); addr != nil {
		remote = addr.String()
	}

	for len(buf.data) > 0 {
		advance, token, err := s.receiver.framer.Split(buf.data, atEOF)
		if err != nil {
			s.receiver.frameErrors.Add(1)
			s.receiver.logger.Warn("msg", "Invalid frame, closing connection",
				"component", "receiver",
				"remote_addr", remote,
				"error", err)
			buf.data = nil
			return gnet.Close
		}
		if advance == 0 {
			break
		}
		if token != nil {
			s.receiver.publish(Message{
				Network:    config.ProtocolTCP,
				RemoteAddr: remote,
				Payload:    append([]byte(nil), token...),
				Time:       time.Now(),
			})
		}
		buf.data = buf.data[advance:]
	}

	if len(buf.data) == 0 {
		buf.data = nil
	}
	return gnet.None
}
