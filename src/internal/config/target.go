// FILE: syslogfwd/src/internal/config/target.go
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Transport protocols understood by the transmitters
const (
	ProtocolUDP = "udp"
	ProtocolTCP = "tcp"
)

// Stream framing methods, TCP only
const (
	// "<len> <msg>", RFC 6587 section 3.4.1
	FramingOctetCounting = "octet_counting"
	// "<msg>\n", RFC 6587 section 3.4.2
	FramingNonTransparent = "non_transparent"
)

// TargetConfig describes the remote collector endpoint.
type TargetConfig struct {
	// Host name or IP address. Empty disables sending.
	Address string `toml:"address"`

	Port int64 `toml:"port"`

	// "udp" or "tcp"
	Protocol string `toml:"protocol"`

	// "octet_counting" or "non_transparent", ignored for udp
	Framing string `toml:"framing"`

	DialTimeoutMS  int64 `toml:"dial_timeout_ms"`
	WriteTimeoutMS int64 `toml:"write_timeout_ms"`
	KeepAliveMS    int64 `toml:"keep_alive_ms"`
}

// Enabled reports whether a destination address is configured.
func (t TargetConfig) Enabled() bool {
	return strings.TrimSpace(t.Address) != ""
}

// HostPort returns the dialable "host:port" form of the endpoint.
func (t TargetConfig) HostPort() string {
	return net.JoinHostPort(strings.TrimSpace(t.Address), strconv.FormatInt(t.Port, 10))
}

func (t TargetConfig) DialTimeout() time.Duration {
	return time.Duration(t.DialTimeoutMS) * time.Millisecond
}

func (t TargetConfig) WriteTimeout() time.Duration {
	return time.Duration(t.WriteTimeoutMS) * time.Millisecond
}

func (t TargetConfig) KeepAlive() time.Duration {
	return time.Duration(t.KeepAliveMS) * time.Millisecond
}

func validateTarget(t *TargetConfig) error {
	switch strings.ToLower(t.Protocol) {
	case ProtocolUDP, ProtocolTCP:
		t.Protocol = strings.ToLower(t.Protocol)
	default:
		return fmt.Errorf("target: invalid protocol '%s' (must be 'udp' or 'tcp')", t.Protocol)
	}

	switch t.Framing {
	case "":
		t.Framing = FramingOctetCounting
	case FramingOctetCounting, FramingNonTransparent:
	default:
		return fmt.Errorf("target: invalid framing '%s' (must be '%s' or '%s')",
			t.Framing, FramingOctetCounting, FramingNonTransparent)
	}

	if t.DialTimeoutMS < 0 {
		return fmt.Errorf("target: dial_timeout_ms cannot be negative: %d", t.DialTimeoutMS)
	}
	if t.WriteTimeoutMS < 0 {
		return fmt.Errorf("target: write_timeout_ms cannot be negative: %d", t.WriteTimeoutMS)
	}
	if t.KeepAliveMS < 0 {
		return fmt.Errorf("target: keep_alive_ms cannot be negative: %d", t.KeepAliveMS)
	}

	// An empty address is a disabled target, nothing else to check
	if !t.Enabled() {
		return nil
	}

	if t.Port < 1 || t.Port > 65535 {
		return fmt.Errorf("target: invalid port: %d", t.Port)
	}
	if strings.ContainsAny(t.Address, " /") {
		return fmt.Errorf("target: invalid address '%s'", t.Address)
	}

	return nil
}
