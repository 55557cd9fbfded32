// Package logging builds the logr.Logger used across mdao.
package logging

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// Verbosity levels passed to Logger.V.
const (
	INFO  = 0
	DEBUG = 1
	TRACE = 2
)

// New returns a logger writing to stderr that emits messages up to verbosity v.
func New(v int) logr.Logger {
	return NewWriter(os.Stderr, v)
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, v int) logr.Logger {
	stdr.SetVerbosity(v)
	return stdr.NewWithOptions(log.New(w, "", log.LstdFlags), stdr.Options{LogCaller: stdr.None}).WithName("mdao")
}

// NewTestLogger silences logging for test suites.
func NewTestLogger() logr.Logger {
	stdr.SetVerbosity(TRACE)
	return stdr.New(log.New(io.Discard, "", 0))
}

// FromContext returns the logger stored in ctx, or a discarding logger.
func FromContext(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}

// FromContextOr returns the logger stored in ctx, or fallback.
func FromContextOr(ctx context.Context, fallback logr.Logger) logr.Logger {
	if l, err := logr.FromContext(ctx); err == nil {
		return l
	}
	return fallback
}

func IntoContext(ctx context.Context, l logr.Logger) context.Context {
	return logr.NewContext(ctx, l)
}
