// FILE: syslogfwd/src/internal/config/config.go
package config

// Config is the root configuration, loaded once at startup and read-only afterwards.
type Config struct {
	// Text encoding applied to messages after the policy chain
	Encoding string `toml:"encoding"`

	Target      TargetConfig      `toml:"target"`
	Enforcement EnforcementConfig `toml:"enforcement"`
	Logging     LogConfig         `toml:"logging"`
}

func defaults() *Config {
	return &Config{
		Encoding: "utf-8",
		Target: TargetConfig{
			Address:        "",
			Port:           514,
			Protocol:       ProtocolUDP,
			Framing:        FramingOctetCounting,
			DialTimeoutMS:  5000,
			WriteTimeoutMS: 5000,
			KeepAliveMS:    30000,
		},
		Enforcement: EnforcementConfig{
			SplitOnNewLine:           true,
			ReplaceInvalidCharacters: false,
			ReplacementCharacter:     "?",
			TruncateMessageTo:        0,
			Throttling: ThrottlingConfig{
				Limit:    0,
				Burst:    0,
				Strategy: ThrottleNone,
			},
		},
		Logging: *DefaultLogConfig(),
	}
}

// Defaults returns a fresh copy of the built-in configuration.
func Defaults() *Config {
	return defaults()
}
