package terminal

import (
	"context"
	"errors"
	"os"

	"github.com/hpkotak/askcmd/internal/interact"
)

// ErrNotTerminal is returned by Open when in is not a terminal.
var ErrNotTerminal = errors.New("input is not a terminal")

// Session is unavailable on Windows; callers fall back to printing.
type Session struct{}

// Open always fails on Windows.
func Open(_ *os.File, _ context.CancelFunc) (*Session, error) {
	return nil, errors.New("interactive mode is not supported on windows")
}

// NextDecision reports Interrupted; it is never reached because Open fails.
func (s *Session) NextDecision(_ context.Context) (interact.Decision, error) {
	return interact.Interrupted, nil
}

// Close does nothing.
func (s *Session) Close() error { return nil }
