// FILE: syslogfwd/src/cmd/syslogfwd/output.go
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// OutputHandler writes user-facing status lines, respecting quiet mode
type OutputHandler struct {
	quiet  bool
	mu     sync.RWMutex
	stdout io.Writer
	stderr io.Writer
}

// Global output handler instance
var output *OutputHandler

// InitOutputHandler installs the global output handler
func InitOutputHandler(quiet bool) {
	output = &OutputHandler{
		quiet:  quiet,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

func (o *OutputHandler) Print(format string, args ...any) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.quiet {
		fmt.Fprintf(o.stdout, format, args...)
	}
}

func (o *OutputHandler) Error(format string, args ...any) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.quiet {
		fmt.Fprintf(o.stderr, format, args...)
	}
}

// SendSummary reports the outcome of a send run on stdout
func (o *OutputHandler) SendSummary(target string, result *sendResult) {
	total := result.total.Load()
	line := fmt.Sprintf("Forwarded %s to %s", countNoun(total, "message"), target)

	var details []string
	if failed := result.failed.Load(); failed > 0 {
		details = append(details, fmt.Sprintf("%d failed", failed))
	}
	if skipped := result.skipped.Load(); skipped > 0 {
		details = append(details, fmt.Sprintf("%s skipped", countNoun(skipped, "blank line")))
	}
	if len(details) > 0 {
		line += " (" + strings.Join(details, ", ") + ")"
	}

	o.Print("%s\n", line)
}

func countNoun(n uint64, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// FatalError writes to stderr and exits
func (o *OutputHandler) FatalError(code int, format string, args ...any) {
	o.Error(format, args...)
	os.Exit(code)
}

func Print(format string, args ...any) {
	if output != nil {
		output.Print(format, args...)
	}
}

func Error(format string, args ...any) {
	if output != nil {
		output.Error(format, args...)
	}
}

func SendSummary(target string, result *sendResult) {
	if output != nil {
		output.SendSummary(target, result)
	}
}

func FatalError(code int, format string, args ...any) {
	if output != nil {
		output.FatalError(code, format, args...)
	} else {
		// Handler not initialized yet
		fmt.Fprintf(os.Stderr, format, args...)
		os.Exit(code)
	}
}
