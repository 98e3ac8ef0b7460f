// FILE: syslogfwd/src/cmd/syslogfwd/send.go
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"syslogfwd/src/internal/config"
	"syslogfwd/src/internal/forward"
	"syslogfwd/src/internal/framing"

	"github.com/lixenwraith/log"
	"golang.org/x/term"
)

// messageForwarder is the part of forward.Forwarder the send loop needs
type messageForwarder interface {
	Forward(ctx context.Context, message string) error
}

// sendCommand forwards messages from arguments, a file or stdin
type sendCommand struct {
	stdin *os.File
}

func newSendCommand() *sendCommand {
	return &sendCommand{stdin: os.Stdin}
}

func (c *sendCommand) Description() string {
	return "Forward messages from arguments, a file or stdin (default)"
}

func (c *sendCommand) Help() string {
	return `Send Command - Forward messages to the configured target

Usage:
  syslogfwd send [options] [message ...]
  syslogfwd [options] [message ...]

Each message argument is forwarded as one message. Without arguments, every line
of --file (or stdin) is one message.

Options:
  -c, --config <path>     Configuration file
  -f, --file <path>       Read messages from file instead of stdin
  -p, --parallel <n>      Forward with n concurrent workers (default 1, ordered)
  -q, --quiet             Suppress all console output
      --log-level <lvl>   debug, info, warn, error (overrides config)
      --log-output <out>  stdout, stderr, file, both, none (overrides config)

Any --section.key=value argument overrides the configuration, for example:
  --target.address=10.0.0.5 --target.port=514 --target.protocol=tcp
  --enforcement.split_on_new_line=false --encoding=us-ascii

Examples:
  syslogfwd send --target.address=127.0.0.1 "<14>Oct 11 22:14:15 host app: started"
  tail -f app.log | syslogfwd send -p 4 --target.address=collector.local
`
}

func (c *sendCommand) Execute(args []string) error {
	local, overrides := splitOverrideArgs(args)

	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configFile string
		inputFile  string
		parallel   int
		quiet      bool
	)
	fs.StringVar(&configFile, "config", "", "")
	fs.StringVar(&configFile, "c", "", "")
	fs.StringVar(&inputFile, "file", "", "")
	fs.StringVar(&inputFile, "f", "", "")
	fs.IntVar(&parallel, "parallel", 1, "")
	fs.IntVar(&parallel, "p", 1, "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&quiet, "q", false, "")
	logLevel := fs.String("log-level", "", "")
	logOutput := fs.String("log-output", "", "")

	if err := fs.Parse(local); err != nil {
		return fmt.Errorf("send: %w\n\nRun 'syslogfwd send --help' for usage", err)
	}
	if parallel < 1 {
		return fmt.Errorf("send: --parallel must be at least 1, got %d", parallel)
	}

	InitOutputHandler(quiet)

	if configFile != "" {
		os.Setenv("SYSLOGFWD_CONFIG_FILE", configFile)
	}

	cfg, err := config.LoadWithCLI(overrides)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logOutput != "" {
		cfg.Logging.Output = *logOutput
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := initializeLogger(&cfg.Logging, quiet)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer shutdownLogger(logger)

	fwd, err := forward.New(cfg, logger)
	if err != nil {
		return err
	}
	if !cfg.Target.Enabled() {
		Error("Warning: no target address configured, messages will be discarded\n")
	}

	sh := NewSignalHandler(logger)
	defer sh.Stop()
	ctx, cancel := sh.Context(context.Background())
	defer cancel()

	var result *sendResult
	switch {
	case len(fs.Args()) > 0:
		result, err = forwardArgs(ctx, fwd, fs.Args(), logger)

	case inputFile != "":
		f, ferr := os.Open(inputFile)
		if ferr != nil {
			return fmt.Errorf("failed to open input: %w", ferr)
		}
		defer f.Close()
		result, err = forwardLines(ctx, fwd, f, parallel, logger)

	default:
		if term.IsTerminal(int(c.stdin.Fd())) {
			Error("Reading messages from the terminal, one per line. Press Ctrl-D to finish.\n")
		}
		result, err = forwardLines(ctx, fwd, c.stdin, parallel, logger)
	}

	logger.Info("msg", "Send finished",
		"forwarder", fwd.GetStats())
	SendSummary(cfg.Target.HostPort(), result)

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if failed := result.failed.Load(); failed > 0 {
		return fmt.Errorf("%d of %d messages failed", failed, result.total.Load())
	}
	return nil
}

type sendResult struct {
	total   atomic.Uint64
	failed  atomic.Uint64
	skipped atomic.Uint64
}

func (r *sendResult) forward(ctx context.Context, fwd messageForwarder, message string, logger *log.Logger) {
	r.total.Add(1)
	if err := fwd.Forward(ctx, message); err != nil {
		r.failed.Add(1)
		logger.Warn("msg", "Failed to forward message",
			"component", "send",
			"error", err)
	}
}

// forwardArgs sends each argument as one message, in order
func forwardArgs(ctx context.Context, fwd messageForwarder, messages []string, logger *log.Logger) (*sendResult, error) {
	result := &sendResult{}
	for _, m := range messages {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.forward(ctx, fwd, m, logger)
	}
	return result, nil
}

// forwardLines sends every non-blank line of r as one message using parallel workers.
// With one worker lines go out in input order.
func forwardLines(ctx context.Context, fwd messageForwarder, r io.Reader, parallel int, logger *log.Logger) (*sendResult, error) {
	result := &sendResult{}
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), framing.MaxFrameSize)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				scanErr <- ctx.Err()
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	var wg sync.WaitGroup
	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case line, ok := <-lines:
					if !ok {
						return
					}
					if strings.TrimSpace(line) == "" {
						result.skipped.Add(1)
						continue
					}
					result.forward(ctx, fwd, line, logger)
				}
			}
		}()
	}
	wg.Wait()

	// The reader may still be blocked on input after cancellation
	select {
	case err := <-scanErr:
		if err != nil {
			return result, fmt.Errorf("read input: %w", err)
		}
		return result, nil
	case <-ctx.Done():
		return result, ctx.Err()
	}
}
