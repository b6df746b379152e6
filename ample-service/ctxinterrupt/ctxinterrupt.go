// Package ctxinterrupt ties context cancellation to process interrupts.
package ctxinterrupt

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

var signals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// WithCancelOnInterrupt returns a context that is cancelled on the first SIGINT or
// SIGTERM. A second signal gets the default behavior and terminates the process.
func WithCancelOnInterrupt(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	go func() {
		defer signal.Stop(ch)
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}
