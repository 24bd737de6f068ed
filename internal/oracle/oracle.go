// Package oracle defines the understanding-oracle capability and its providers.
// The pipeline only ever sees the Oracle interface; concrete providers are chosen by config.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/triage/pkg/utils"
)

var (
	// ErrUnavailable is returned when the oracle cannot be reached or refuses the call.
	ErrUnavailable = errors.New("oracle unavailable")
	// ErrTimeout is returned when the oracle does not answer before the deadline.
	ErrTimeout = errors.New("oracle timeout")
)

// Oracle turns system instructions and a user payload into raw text.
type Oracle interface {
	// Invoke sends one request. Errors wrap ErrUnavailable or ErrTimeout.
	Invoke(ctx context.Context, system, user string, maxOutputTokens int) (string, error)
	// Name identifies the provider and model for logs and metrics.
	Name() string
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, system, user string, maxOutputTokens int) (string, error)

// Invoke calls f.
func (f Func) Invoke(ctx context.Context, system, user string, maxOutputTokens int) (string, error) {
	return f(ctx, system, user, maxOutputTokens)
}

// Name returns "func".
func (f Func) Name() string { return "func" }

// classify maps a provider error onto ErrTimeout or ErrUnavailable.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// guarded bounds every call with a timeout and logs the outcome.
type guarded struct {
	inner   Oracle
	timeout time.Duration
	logger  *zap.Logger
}

// Guard wraps o so each call carries timeout and errors are classified.
// A zero timeout leaves the caller's deadline alone.
func Guard(o Oracle, timeout time.Duration, logger *zap.Logger) Oracle {
	return &guarded{inner: o, timeout: timeout, logger: utils.OrNop(logger)}
}

func (g *guarded) Invoke(ctx context.Context, system, user string, maxOutputTokens int) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := g.inner.Invoke(ctx, system, user, maxOutputTokens)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
			err = fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		err = classify(err)
		g.logger.Warn("oracle call failed",
			zap.String("oracle", g.inner.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return "", err
	}
	g.logger.Debug("oracle call",
		zap.String("oracle", g.inner.Name()),
		zap.Duration("elapsed", elapsed),
		zap.Int("system_len", len(system)),
		zap.Int("user_len", len(user)),
		zap.Int("response_len", len(out)))
	return out, nil
}

func (g *guarded) Name() string { return g.inner.Name() }

// Offline never answers. It forces the deterministic fallback path.
type Offline struct{}

// Invoke always fails with ErrUnavailable.
func (Offline) Invoke(context.Context, string, string, int) (string, error) {
	return "", fmt.Errorf("%w: offline mode", ErrUnavailable)
}

// Name returns "offline".
func (Offline) Name() string { return "offline" }
