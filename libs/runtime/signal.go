package runtime

import (
	"context"
	"os/signal"
	"syscall"
)

// SignalContext is the root context every service runs under; it is canceled
// on SIGINT or SIGTERM to start graceful shutdown.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
