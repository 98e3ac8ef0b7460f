// FILE: syslogfwd/src/internal/framing/framing.go
package framing

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"syslogfwd/src/internal/config"
)

// MaxFrameSize bounds a single decoded frame
const MaxFrameSize = 1 * 1024 * 1024

var (
	// ErrInvalidLength is returned when an octet-counted frame header is malformed
	ErrInvalidLength = errors.New("invalid frame length")
	// ErrFrameTooLarge is returned for frames above MaxFrameSize
	ErrFrameTooLarge = errors.New("frame too large")
)

// Framer turns one payload into a self-delimiting unit of a byte stream.
type Framer interface {
	// Frame appends the framed payload to dst and returns the extended slice
	Frame(dst, payload []byte) ([]byte, error)

	// Split recovers frames from a stream, for use with bufio.Scanner
	Split(data []byte, atEOF bool) (advance int, token []byte, err error)

	Name() string
}

// New returns the framer registered under name.
func New(name string) (Framer, error) {
	switch name {
	case "", config.FramingOctetCounting:
		return OctetCounting{}, nil
	case config.FramingNonTransparent:
		return NonTransparent{}, nil
	default:
		return nil, fmt.Errorf("unknown framing: %s", name)
	}
}

// NewScanner returns a scanner that yields one frame per Scan.
func NewScanner(f Framer, r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), MaxFrameSize+16)
	s.Split(f.Split)
	return s
}

// OctetCounting prefixes each payload with its decimal byte length and a space.
type OctetCounting struct{}

func (OctetCounting) Name() string {
	return config.FramingOctetCounting
}

func (OctetCounting) Frame(dst, payload []byte) ([]byte, error) {
	if len(payload) > MaxFrameSize {
		return dst, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	dst = strconv.AppendInt(dst, int64(len(payload)), 10)
	dst = append(dst, ' ')
	return append(dst, payload...), nil
}

func (OctetCounting) Split(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	sp := bytes.IndexByte(data, ' ')
	if sp < 0 {
		// Header is at most the digits of MaxFrameSize
		if len(data) > 8 {
			return 0, nil, ErrInvalidLength
		}
		if atEOF {
			return 0, nil, fmt.Errorf("%w: truncated header", ErrInvalidLength)
		}
		return 0, nil, nil
	}

	if !isDigits(data[:sp]) || data[0] == '0' && sp > 1 {
		return 0, nil, fmt.Errorf("%w: %q", ErrInvalidLength, data[:sp])
	}
	n, err := strconv.Atoi(string(data[:sp]))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %q", ErrInvalidLength, data[:sp])
	}
	if n > MaxFrameSize {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}

	end := sp + 1 + n
	if len(data) < end {
		if atEOF {
			return 0, nil, fmt.Errorf("%w: truncated frame", ErrInvalidLength)
		}
		return 0, nil, nil
	}

	return end, data[sp+1 : end], nil
}

func isDigits(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// NonTransparent terminates each payload with a line feed. Payloads must not contain one.
type NonTransparent struct{}

func (NonTransparent) Name() string {
	return config.FramingNonTransparent
}

func (NonTransparent) Frame(dst, payload []byte) ([]byte, error) {
	if bytes.IndexByte(payload, '\n') >= 0 {
		return dst, fmt.Errorf("payload contains a line feed, not allowed with %s framing", config.FramingNonTransparent)
	}
	dst = append(dst, payload...)
	return append(dst, '\n'), nil
}

func (NonTransparent) Split(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
