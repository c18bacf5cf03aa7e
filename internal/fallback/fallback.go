// Package fallback routes reads to the live API when it is reachable and to
// bundled static data when it is not, so callers see one result type either
// way.
package fallback

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Path names which side served a call.
type Path string

const (
	PathLive   Path = "live"
	PathStatic Path = "static"
)

// Monitor is the availability gate consulted before live calls.
type Monitor interface {
	Configured() bool
	Check(ctx context.Context) bool
	MarkUnavailable(reason string)
}

// Observer is told which path served each operation.
type Observer interface {
	Served(op string, path Path)
}

type Gate struct {
	monitor  Monitor
	observer Observer
}

func NewGate(monitor Monitor, observer Observer) *Gate {
	return &Gate{monitor: monitor, observer: observer}
}

// Online reports whether live calls would currently be attempted.
func (g *Gate) Online(ctx context.Context) bool {
	return g.monitor.Configured() && g.monitor.Check(ctx)
}

// StatusCoder is implemented by errors that carry an HTTP status from the
// live backend.
type StatusCoder interface {
	StatusCode() int
}

// Do runs primary when the backend is configured and available, and fallback
// otherwise. A failing primary marks the backend unavailable for the rest of
// the session and is answered by fallback. Cancellation of ctx and client
// errors answered by a reachable backend (4xx other than 408 and 429) are
// returned as is and do not degrade availability.
func Do[T any](ctx context.Context, g *Gate, op string, primary, fallback func(context.Context) (T, error)) (T, error) {
	return run(ctx, g, op, primary, fallback, false)
}

// Read is Do for catalog reads: a client error is answered by fallback too,
// so the caller always gets the static shape. It still leaves availability
// untouched.
func Read[T any](ctx context.Context, g *Gate, op string, primary, fallback func(context.Context) (T, error)) (T, error) {
	return run(ctx, g, op, primary, fallback, true)
}

func run[T any](ctx context.Context, g *Gate, op string, primary, fallback func(context.Context) (T, error), clientErrToStatic bool) (T, error) {
	if !g.monitor.Configured() {
		log.Debug().Str("op", op).Msg("fallback: no backend configured, using static data")
		return serve(ctx, g, op, PathStatic, fallback)
	}

	if !g.monitor.Check(ctx) {
		log.Debug().Str("op", op).Msg("fallback: backend offline, using static data")
		return serve(ctx, g, op, PathStatic, fallback)
	}

	result, err := primary(ctx)
	if err == nil {
		g.observe(op, PathLive)
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		var zero T
		return zero, err
	}
	if IsClientError(err) {
		if !clientErrToStatic {
			var zero T
			return zero, err
		}
		log.Debug().Err(err).Str("op", op).Msg("fallback: live API rejected the read, using static data")
		return serve(ctx, g, op, PathStatic, fallback)
	}

	log.Warn().Err(err).Str("op", op).Msg("fallback: live call failed despite backend being available, using static data")
	g.monitor.MarkUnavailable(op + ": " + err.Error())

	return serve(ctx, g, op, PathStatic, fallback)
}

func serve[T any](ctx context.Context, g *Gate, op string, path Path, fn func(context.Context) (T, error)) (T, error) {
	g.observe(op, path)
	return fn(ctx)
}

func (g *Gate) observe(op string, path Path) {
	if g.observer != nil {
		g.observer.Served(op, path)
	}
}

// IsClientError reports whether err is a request the live backend answered
// and rejected, as opposed to a connectivity or server failure.
func IsClientError(err error) bool {
	var sc StatusCoder
	if !errors.As(err, &sc) {
		return false
	}
	code := sc.StatusCode()
	if code == 408 || code == 429 {
		return false
	}
	return code >= 400 && code < 500
}
