package ble

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithSigHandler cancels the context on SIGINT or SIGTERM.
func WithSigHandler(ctx context.Context, cancel func()) context.Context {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-c:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(c)
	}()
	return ctx
}
