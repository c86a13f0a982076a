// Package transport is the boundary to the game interpreter process. The
// session core treats it as a request/response channel: one command in, one
// chunk of raw text out, with the framing details kept here.
package transport

import (
	"context"
	"errors"
)

// ErrClosed is returned when the interpreter process is gone: it either never
// started, already exited, or closed its side of the channel mid-command.
var ErrClosed = errors.New("transport: interpreter closed")

// Transport drives one interpreter process. Implementations are not safe for
// concurrent use; a session issues one command at a time.
type Transport interface {
	// Start launches the interpreter and returns its boot output.
	Start(ctx context.Context) (string, error)

	// Send writes one command and blocks until the interpreter responds or
	// is observed closed. A non-empty response may arrive without a prompt
	// when the game ends.
	Send(ctx context.Context, command string) (string, error)

	// Alive reports whether the interpreter process is still running.
	Alive() bool

	// Terminate stops the interpreter, forcibly if needed. Safe to call at
	// any point, including before Start and more than once.
	Terminate() error
}
