// FILE: syslogfwd/src/cmd/syslogfwd/listen.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sync"
	"time"

	"syslogfwd/src/internal/config"
	"syslogfwd/src/internal/receiver"

	"github.com/fatih/color"
)

// listenCommand runs a local collector that prints whatever arrives
type listenCommand struct {
	out io.Writer
	mu  sync.Mutex
}

func newListenCommand() *listenCommand {
	return &listenCommand{out: color.Output}
}

func (c *listenCommand) Description() string {
	return "Run a local UDP/TCP receiver and print incoming messages"
}

func (c *listenCommand) Help() string {
	return `Listen Command - Print messages arriving on a local port

Usage:
  syslogfwd listen [options]

Messages are printed as received. Content is not parsed.

Options:
  -u, --udp <host:port>    UDP listen address (default 127.0.0.1:5514 when no --tcp)
  -t, --tcp <host:port>    TCP listen address
      --framing <method>   TCP framing: octet_counting (default), non_transparent
  -r, --raw                Print only the payload
      --no-color           Disable colored output
  -q, --quiet              Suppress status output
      --log-level <lvl>    debug, info, warn, error (default warn)

Examples:
  syslogfwd listen --udp 127.0.0.1:5514
  syslogfwd listen --tcp 127.0.0.1:5514 --framing non_transparent
`
}

func (c *listenCommand) Execute(args []string) error {
	fs := flag.NewFlagSet("listen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		udpAddr string
		tcpAddr string
		raw     bool
		noColor bool
		quiet   bool
	)
	fs.StringVar(&udpAddr, "udp", "", "")
	fs.StringVar(&udpAddr, "u", "", "")
	fs.StringVar(&tcpAddr, "tcp", "", "")
	fs.StringVar(&tcpAddr, "t", "", "")
	fs.BoolVar(&raw, "raw", false, "")
	fs.BoolVar(&raw, "r", false, "")
	fs.BoolVar(&noColor, "no-color", false, "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&quiet, "q", false, "")
	framingName := fs.String("framing", config.FramingOctetCounting, "")
	logLevel := fs.String("log-level", "warn", "")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("listen: %w\n\nRun 'syslogfwd listen --help' for usage", err)
	}
	if udpAddr == "" && tcpAddr == "" {
		udpAddr = "127.0.0.1:5514"
	}
	if noColor {
		color.NoColor = true
	}

	InitOutputHandler(quiet)

	logCfg := config.DefaultLogConfig()
	logCfg.Level = *logLevel
	logger, err := initializeLogger(logCfg, quiet)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer shutdownLogger(logger)

	var receivers []*receiver.Receiver
	var printers sync.WaitGroup
	stopAll := func() {
		for _, r := range receivers {
			r.Stop()
		}
	}

	for _, rc := range []receiver.Config{
		{Network: config.ProtocolUDP, Address: udpAddr},
		{Network: config.ProtocolTCP, Address: tcpAddr, Framing: *framingName},
	} {
		if rc.Address == "" {
			continue
		}
		r, err := receiver.New(rc, logger)
		if err != nil {
			stopAll()
			return err
		}
		ch := r.Subscribe()
		if err := r.Start(); err != nil {
			stopAll()
			return fmt.Errorf("failed to listen on %s://%s: %w", rc.Network, rc.Address, err)
		}
		receivers = append(receivers, r)
		Error("Listening on %s://%s\n", rc.Network, rc.Address)

		printers.Add(1)
		go func() {
			defer printers.Done()
			c.printLoop(ch, raw)
		}()
	}

	sh := NewSignalHandler(logger)
	defer sh.Stop()
	sh.Handle(context.Background())

	stopAll()
	printers.Wait()
	for _, r := range receivers {
		stats := r.GetStats()
		Error("%s: %d messages received, %d frame errors\n",
			stats["network"], stats["total_messages"], stats["frame_errors"])
	}
	return nil
}

func (c *listenCommand) printLoop(ch <-chan receiver.Message, raw bool) {
	for msg := range ch {
		line := formatMessage(msg, raw)
		c.mu.Lock()
		fmt.Fprintln(c.out, line)
		c.mu.Unlock()
	}
}

// formatMessage renders one received message for the terminal
func formatMessage(msg receiver.Message, raw bool) string {
	if raw {
		return string(msg.Payload)
	}
	return fmt.Sprintf("%s %s %s %s",
		msg.Time.Format(time.RFC3339Nano),
		color.CyanString(msg.Network),
		color.YellowString(msg.RemoteAddr),
		msg.Payload)
}
