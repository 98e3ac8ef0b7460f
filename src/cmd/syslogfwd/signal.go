// FILE: syslogfwd/src/cmd/syslogfwd/signal.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lixenwraith/log"
)

// SignalHandler turns termination signals into shutdown
type SignalHandler struct {
	logger  *log.Logger
	sigChan chan os.Signal
}

func NewSignalHandler(logger *log.Logger) *SignalHandler {
	sh := &SignalHandler{
		logger:  logger,
		sigChan: make(chan os.Signal, 1),
	}

	signal.Notify(sh.sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sh
}

// Handle blocks until a signal arrives or ctx is done. Returns nil in the latter case.
func (sh *SignalHandler) Handle(ctx context.Context) os.Signal {
	select {
	case sig := <-sh.sigChan:
		sh.logger.Info("msg", "Shutdown signal received", "signal", sig)
		return sig
	case <-ctx.Done():
		return nil
	}
}

// Context returns a context cancelled on the first signal
func (sh *SignalHandler) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		if sh.Handle(ctx) != nil {
			cancel()
		}
	}()
	return ctx, cancel
}

func (sh *SignalHandler) Stop() {
	signal.Stop(sh.sigChan)
}
