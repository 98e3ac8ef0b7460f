// FILE: syslogfwd/src/internal/transmit/transmit_test.go
package transmit

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"syslogfwd/src/internal/config"
	"syslogfwd/src/internal/framing"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

// fakeConn records writes and fails the write at failOn (1-based)
type fakeConn struct {
	mu         sync.Mutex
	writes     [][]byte
	failOn     int
	closeCount int
}

var errInjected = errors.New("injected write failure")

func (c *fakeConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOn > 0 && len(c.writes)+1 == c.failOn {
		c.writes = append(c.writes, nil)
		return 0, errInjected
	}
	c.writes = append(c.writes, append([]byte(nil), b...))
	return len(b), nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCount++
	return nil
}

func (c *fakeConn) Read(b []byte) (int, error)         { return 0, errors.New("not implemented") }
func (c *fakeConn) LocalAddr() net.Addr                { return &net.UDPAddr{} }
func (c *fakeConn) RemoteAddr() net.Addr               { return &net.UDPAddr{} }
func (c *fakeConn) SetDeadline(t time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

// fakeDialer hands out conn and counts dials
type fakeDialer struct {
	conn  *fakeConn
	err   error
	dials int
}

func (d *fakeDialer) dial(ctx context.Context, network, address string) (net.Conn, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func targetFor(protocol string, addr net.Addr) config.TargetConfig {
	host, port, _ := net.SplitHostPort(addr.String())
	p, _ := strconv.ParseInt(port, 10, 64)
	return config.TargetConfig{
		Address:        host,
		Port:           p,
		Protocol:       protocol,
		Framing:        config.FramingOctetCounting,
		DialTimeoutMS:  2000,
		WriteTimeoutMS: 2000,
	}
}

func payloads(s ...string) [][]byte {
	out := make([][]byte, len(s))
	for i, m := range s {
		out[i] = []byte(m)
	}
	return out
}

func TestNew(t *testing.T) {
	logger := newTestLogger()

	testCases := []struct {
		name        string
		protocol    string
		expected    string
		expectError bool
	}{
		{name: "UDP", protocol: config.ProtocolUDP, expected: "udp"},
		{name: "TCP", protocol: config.ProtocolTCP, expected: "tcp"},
		{name: "Unknown", protocol: "sctp", expectError: true},
		{name: "Empty", protocol: "", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := New(config.TargetConfig{Protocol: tc.protocol, Port: 514}, logger)
			if tc.expectError {
				assert.ErrorIs(t, err, ErrUnknownProtocol)
				assert.Nil(t, tr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, tr.Name())
		})
	}

	t.Run("InvalidFraming", func(t *testing.T) {
		_, err := New(config.TargetConfig{Protocol: config.ProtocolTCP, Framing: "bogus"}, logger)
		assert.Error(t, err)
	})
}

func TestSendMessages_DisabledTarget(t *testing.T) {
	logger := newTestLogger()
	batch := payloads("a", "b", "c")

	for _, protocol := range []string{config.ProtocolUDP, config.ProtocolTCP} {
		t.Run(protocol, func(t *testing.T) {
			tr, err := New(config.TargetConfig{Protocol: protocol, Address: "", Port: 514}, logger)
			require.NoError(t, err)

			dialer := &fakeDialer{conn: &fakeConn{}}
			switch v := tr.(type) {
			case *UDPTransmitter:
				v.dial = dialer.dial
			case *TCPTransmitter:
				v.dial = dialer.dial
			}

			assert.NoError(t, tr.SendMessages(context.Background(), batch))
			assert.Zero(t, dialer.dials)
			assert.Empty(t, dialer.conn.writes)
		})
	}
}

func TestUDPTransmitter_PreservesOrder(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	tr, err := NewUDPTransmitter(targetFor(config.ProtocolUDP, pc.LocalAddr()), newTestLogger())
	require.NoError(t, err)

	require.NoError(t, tr.SendMessages(context.Background(), payloads("p1", "p2", "p3")))

	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1024)
	var got []string
	for i := 0; i < 3; i++ {
		n, _, err := pc.ReadFrom(buf)
		require.NoError(t, err)
		got = append(got, string(buf[:n]))
	}
	assert.Equal(t, []string{"p1", "p2", "p3"}, got)

	stats := tr.GetStats()
	assert.Equal(t, uint64(1), stats["total_batches"])
	assert.Equal(t, uint64(3), stats["total_sent"])
}

func TestUDPTransmitter_FailureReleasesSocket(t *testing.T) {
	tr, err := NewUDPTransmitter(config.TargetConfig{Address: "127.0.0.1", Port: 9, Protocol: config.ProtocolUDP}, newTestLogger())
	require.NoError(t, err)

	conn := &fakeConn{failOn: 2}
	dialer := &fakeDialer{conn: conn}
	tr.dial = dialer.dial

	err = tr.SendMessages(context.Background(), payloads("p1", "p2", "p3"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errInjected)
	assert.Contains(t, err.Error(), "message 2 of 3")

	assert.Equal(t, 1, dialer.dials)
	assert.Equal(t, 1, conn.closeCount)
	// p1 written, p2 attempted and failed, p3 never attempted
	require.Len(t, conn.writes, 2)
	assert.Equal(t, "p1", string(conn.writes[0]))
	assert.Nil(t, conn.writes[1])

	stats := tr.GetStats()
	assert.Equal(t, uint64(1), stats["total_failed"])
	assert.Equal(t, uint64(1), stats["total_skipped"])
}

func TestUDPTransmitter_DialFailure(t *testing.T) {
	tr, err := NewUDPTransmitter(config.TargetConfig{Address: "127.0.0.1", Port: 9, Protocol: config.ProtocolUDP}, newTestLogger())
	require.NoError(t, err)

	dialErr := errors.New("network unreachable")
	tr.dial = (&fakeDialer{err: dialErr}).dial

	err = tr.SendMessages(context.Background(), payloads("p1"))
	assert.ErrorIs(t, err, dialErr)
}

func TestUDPTransmitter_FreshSocketPerCall(t *testing.T) {
	tr, err := NewUDPTransmitter(config.TargetConfig{Address: "127.0.0.1", Port: 9, Protocol: config.ProtocolUDP}, newTestLogger())
	require.NoError(t, err)

	dialer := &fakeDialer{conn: &fakeConn{}}
	tr.dial = dialer.dial

	require.NoError(t, tr.SendMessages(context.Background(), payloads("a")))
	require.NoError(t, tr.SendMessages(context.Background(), payloads("b")))
	assert.Equal(t, 2, dialer.dials)
	assert.Equal(t, 2, dialer.conn.closeCount)
}

func TestTCPTransmitter_FramedOrder(t *testing.T) {
	for _, framingName := range []string{config.FramingOctetCounting, config.FramingNonTransparent} {
		t.Run(framingName, func(t *testing.T) {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			require.NoError(t, err)
			defer ln.Close()

			received := make(chan []string, 1)
			go func() {
				conn, err := ln.Accept()
				if err != nil {
					received <- nil
					return
				}
				defer conn.Close()

				f, _ := framing.New(framingName)
				scanner := framing.NewScanner(f, conn)
				var frames []string
				for scanner.Scan() {
					frames = append(frames, scanner.Text())
				}
				received <- frames
			}()

			cfg := targetFor(config.ProtocolTCP, ln.Addr())
			cfg.Framing = framingName
			tr, err := NewTCPTransmitter(cfg, newTestLogger())
			require.NoError(t, err)

			require.NoError(t, tr.SendMessages(context.Background(), payloads("p1", "p2", "p3")))

			select {
			case frames := <-received:
				assert.Equal(t, []string{"p1", "p2", "p3"}, frames)
			case <-time.After(3 * time.Second):
				t.Fatal("timed out waiting for frames")
			}
		})
	}
}

func TestTCPTransmitter_FailureReleasesConnection(t *testing.T) {
	tr, err := NewTCPTransmitter(config.TargetConfig{Address: "127.0.0.1", Port: 9, Protocol: config.ProtocolTCP}, newTestLogger())
	require.NoError(t, err)

	conn := &fakeConn{failOn: 2}
	dialer := &fakeDialer{conn: conn}
	tr.dial = dialer.dial

	err = tr.SendMessages(context.Background(), payloads("p1", "p2", "p3"))
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, 1, conn.closeCount)
	require.Len(t, conn.writes, 2)
	assert.Equal(t, "2 p1", string(conn.writes[0]))
}

func TestTCPTransmitter_ConnectionRefused(t *testing.T) {
	// Grab a free port, then close the listener so nothing accepts
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr()
	require.NoError(t, ln.Close())

	tr, err := NewTCPTransmitter(targetFor(config.ProtocolTCP, addr), newTestLogger())
	require.NoError(t, err)

	err = tr.SendMessages(context.Background(), payloads("p1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tcp dial")
}

func TestTCPTransmitter_FrameErrorSkipsMessage(t *testing.T) {
	tr, err := NewTCPTransmitter(config.TargetConfig{
		Address:  "127.0.0.1",
		Port:     9,
		Protocol: config.ProtocolTCP,
		Framing:  config.FramingNonTransparent,
	}, newTestLogger())
	require.NoError(t, err)

	conn := &fakeConn{}
	tr.dial = (&fakeDialer{conn: conn}).dial

	err = tr.SendMessages(context.Background(), payloads("p1", "bad\nline", "p3"))
	require.Error(t, err)

	var frameErr *FrameError
	require.ErrorAs(t, err, &frameErr)
	assert.Equal(t, 1, frameErr.Index)

	require.Len(t, conn.writes, 2)
	assert.Equal(t, "p1\n", string(conn.writes[0]))
	assert.Equal(t, "p3\n", string(conn.writes[1]))
	assert.Equal(t, 1, conn.closeCount)
}

func TestSendMessages_CancelledContext(t *testing.T) {
	tr, err := NewTCPTransmitter(config.TargetConfig{Address: "127.0.0.1", Port: 9, Protocol: config.ProtocolTCP}, newTestLogger())
	require.NoError(t, err)

	conn := &fakeConn{}
	tr.dial = (&fakeDialer{conn: conn}).dial

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = tr.SendMessages(ctx, payloads("p1", "p2"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, conn.writes)
	assert.Equal(t, 1, conn.closeCount)
}
