// FILE: syslogfwd/src/cmd/syslogfwd/main_test.go
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"syslogfwd/src/internal/receiver"

	"github.com/fatih/color"
	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

// recordingForwarder records messages and fails those listed in failOn
type recordingForwarder struct {
	mu       sync.Mutex
	messages []string
	failOn   map[string]bool
}

func (f *recordingForwarder) Forward(ctx context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	if f.failOn[message] {
		return errors.New("send failed")
	}
	return nil
}

func TestSplitOverrideArgs(t *testing.T) {
	testCases := []struct {
		name              string
		args              []string
		expectedLocal     []string
		expectedOverrides []string
	}{
		{
			name:          "OnlyLocal",
			args:          []string{"-p", "4", "--file", "app.log"},
			expectedLocal: []string{"-p", "4", "--file", "app.log"},
		},
		{
			name:              "InlineOverride",
			args:              []string{"--target.address=10.0.0.1", "-q"},
			expectedLocal:     []string{"-q"},
			expectedOverrides: []string{"--target.address=10.0.0.1"},
		},
		{
			name:              "SeparateValue",
			args:              []string{"--target.port", "1514", "hello"},
			expectedLocal:     []string{"hello"},
			expectedOverrides: []string{"--target.port", "1514"},
		},
		{
			name:              "OverrideBeforeFlag",
			args:              []string{"--enforcement.split_on_new_line", "--quiet"},
			expectedLocal:     []string{"--quiet"},
			expectedOverrides: []string{"--enforcement.split_on_new_line"},
		},
		{
			name:          "DottedPositional",
			args:          []string{"app.log"},
			expectedLocal: []string{"app.log"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			local, overrides := splitOverrideArgs(tc.args)
			assert.Equal(t, tc.expectedLocal, local)
			assert.Equal(t, tc.expectedOverrides, overrides)
		})
	}
}

func TestForwardLines_Ordered(t *testing.T) {
	fwd := &recordingForwarder{}
	input := "first\n\nsecond\r\nthird"

	result, err := forwardLines(context.Background(), fwd, strings.NewReader(input), 1, newTestLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, fwd.messages)
	assert.Equal(t, uint64(3), result.total.Load())
	assert.Equal(t, uint64(1), result.skipped.Load())
	assert.Zero(t, result.failed.Load())
}

func TestForwardLines_SkipsWhitespaceOnly(t *testing.T) {
	fwd := &recordingForwarder{}
	input := "first\n   \n\t\r\n second \n"

	result, err := forwardLines(context.Background(), fwd, strings.NewReader(input), 1, newTestLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"first", " second "}, fwd.messages)
	assert.Equal(t, uint64(2), result.total.Load())
	assert.Equal(t, uint64(2), result.skipped.Load())
}

func TestForwardLines_Parallel(t *testing.T) {
	fwd := &recordingForwarder{failOn: map[string]bool{"line-7": true}}

	var sb strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&sb, "line-%d\n", i)
	}

	result, err := forwardLines(context.Background(), fwd, strings.NewReader(sb.String()), 4, newTestLogger())
	require.NoError(t, err)

	assert.Len(t, fwd.messages, 100)
	assert.Equal(t, uint64(100), result.total.Load())
	assert.Equal(t, uint64(1), result.failed.Load())
}

// blockingReader never returns, like an idle terminal
type blockingReader struct {
	release chan struct{}
}

func (b *blockingReader) Read(p []byte) (int, error) {
	<-b.release
	return 0, errors.New("released")
}

func TestForwardLines_Cancelled(t *testing.T) {
	r := &blockingReader{release: make(chan struct{})}
	defer close(r.release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := forwardLines(ctx, &recordingForwarder{}, r, 2, newTestLogger())
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("forwardLines did not return after cancellation")
	}
}

func TestForwardArgs(t *testing.T) {
	fwd := &recordingForwarder{failOn: map[string]bool{"b": true}}

	result, err := forwardArgs(context.Background(), fwd, []string{"a", "b", "multi\nline"}, newTestLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "multi\nline"}, fwd.messages)
	assert.Equal(t, uint64(3), result.total.Load())
	assert.Equal(t, uint64(1), result.failed.Load())
}

func TestFormatMessage(t *testing.T) {
	color.NoColor = true

	msg := receiver.Message{
		Network:    "udp",
		RemoteAddr: "127.0.0.1:40000",
		Payload:    []byte("hello"),
		Time:       time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	assert.Equal(t, "hello", formatMessage(msg, true))
	assert.Equal(t, "2025-01-02T03:04:05Z udp 127.0.0.1:40000 hello", formatMessage(msg, false))
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "ERROR"} {
		_, err := parseLogLevel(level)
		assert.NoError(t, err, level)
	}
	_, err := parseLogLevel("trace")
	assert.Error(t, err)
}

func TestSendSummary(t *testing.T) {
	newHandler := func(quiet bool) (*OutputHandler, *bytes.Buffer) {
		buf := &bytes.Buffer{}
		return &OutputHandler{quiet: quiet, stdout: buf, stderr: buf}, buf
	}

	t.Run("AllSent", func(t *testing.T) {
		o, buf := newHandler(false)
		result := &sendResult{}
		result.total.Store(3)
		o.SendSummary("127.0.0.1:514", result)
		assert.Equal(t, "Forwarded 3 messages to 127.0.0.1:514\n", buf.String())
	})

	t.Run("SingularWithDetails", func(t *testing.T) {
		o, buf := newHandler(false)
		result := &sendResult{}
		result.total.Store(1)
		result.failed.Store(1)
		result.skipped.Store(1)
		o.SendSummary("collector:1514", result)
		assert.Equal(t, "Forwarded 1 message to collector:1514 (1 failed, 1 blank line skipped)\n", buf.String())
	})

	t.Run("Quiet", func(t *testing.T) {
		o, buf := newHandler(true)
		result := &sendResult{}
		result.total.Store(2)
		result.skipped.Store(4)
		o.SendSummary("collector:1514", result)
		assert.Empty(t, buf.String())
	})
}
