package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/sethvargo/go-retry"
)

var ErrDependencyNotReady = errors.New("dependency not ready")

const (
	DefaultWaitTimeout  = 60 * time.Second
	DefaultWaitInterval = time.Second
)

var dialContext = func(ctx context.Context, network, addr string, timeout time.Duration) (net.Conn, error) {
	dialer := net.Dialer{Timeout: timeout}

	return dialer.DialContext(ctx, network, addr)
}

// WaitForTCP dials addr every interval until a connection succeeds or
// timeout passes.
func WaitForTCP(ctx context.Context, addr string, timeout, interval time.Duration) error {
	return WaitForDial(ctx, "tcp", addr, timeout, interval)
}

// WaitForDial is WaitForTCP for any network net.Dial understands, such as
// "unix" for a database listening on a socket file.
func WaitForDial(ctx context.Context, network, addr string, timeout, interval time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	if interval <= 0 {
		interval = DefaultWaitInterval
	}

	backoff := retry.WithMaxDuration(timeout, retry.NewConstant(interval))

	attempts := 0

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++

		conn, err := dialContext(ctx, network, addr, interval)
		if err != nil {
			slog.DebugContext(ctx, "Dependency not reachable yet", "addr", addr, "attempt", attempts, "error", err)

			return retry.RetryableError(err)
		}

		// The dependency answered; a failing close does not change that.
		if err := conn.Close(); err != nil {
			slog.DebugContext(ctx, "Could not close connection", "addr", addr, "error", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s after %d attempts: %w", ErrDependencyNotReady, addr, attempts, err)
	}

	slog.InfoContext(ctx, "Dependency is reachable", "addr", addr, "attempts", attempts)

	return nil
}
