//go:build !windows

// Package terminal owns raw keyboard input for an interactive run.
//
// A Session puts the terminal in raw mode and reads single bytes on a
// background goroutine. Ctrl+C does not raise SIGINT in raw mode, so the
// reader watches for it and fires the cancel function it was given. Every
// other byte is delivered to NextDecision.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/hpkotak/askcmd/internal/interact"
)

const (
	interruptByte = 0x03
	pollInterval  = 20 * time.Millisecond
	closeWait     = 100 * time.Millisecond
)

// ErrNotTerminal is returned by Open when in is not a terminal.
var ErrNotTerminal = errors.New("input is not a terminal")

// Session is a raw-mode terminal with a single byte reader.
type Session struct {
	fd     int
	state  *term.State
	r      *os.File
	cancel context.CancelFunc

	keys   chan byte
	errc   chan error
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
}

// Open switches in to raw mode and starts the reader. cancel is called when
// the user presses Ctrl+C.
func Open(in *os.File, cancel context.CancelFunc) (*Session, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("entering raw mode: %w", err)
	}

	// Read through a non-blocking duplicate so Close can stop the reader
	// before the accepted command inherits the terminal.
	dup, err := syscall.Dup(fd)
	if err != nil {
		_ = term.Restore(fd, state)
		return nil, fmt.Errorf("duplicating terminal fd: %w", err)
	}
	if err := syscall.SetNonblock(dup, true); err != nil {
		_ = syscall.Close(dup)
		_ = term.Restore(fd, state)
		return nil, fmt.Errorf("set nonblock failed: %w", err)
	}

	s := &Session{
		fd:     fd,
		state:  state,
		r:      os.NewFile(uintptr(dup), in.Name()),
		cancel: cancel,
		keys:   make(chan byte, 16),
		errc:   make(chan error, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go s.read()
	return s, nil
}

func (s *Session) read() {
	defer close(s.exited)

	buf := make([]byte, 1)
	for {
		select {
		case <-s.done:
			return
		default:
		}

		n, err := s.r.Read(buf)
		if n > 0 {
			if buf[0] == interruptByte {
				s.cancel()
				continue
			}
			// Keys nobody is waiting for are dropped so the reader
			// always gets to a later Ctrl+C.
			select {
			case s.keys <- buf[0]:
			case <-s.done:
				return
			default:
			}
		}
		if err != nil {
			if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
				time.Sleep(pollInterval)
				continue
			}
			if !errors.Is(err, os.ErrDeadlineExceeded) && !errors.Is(err, os.ErrClosed) {
				s.errc <- err
			}
			return
		}
	}
}

// NextDecision blocks until an accept or reject key arrives. Enter and y
// accept; n, r and Tab reject. Other keys are ignored. When ctx is done,
// including after Ctrl+C, it returns Interrupted.
func (s *Session) NextDecision(ctx context.Context) (interact.Decision, error) {
	s.discardPending()

	for {
		select {
		case <-ctx.Done():
			return interact.Interrupted, nil
		case err := <-s.errc:
			return 0, err
		case b := <-s.keys:
			if d, ok := decisionFor(b); ok {
				return d, nil
			}
		}
	}
}

// discardPending drops keys typed while a suggestion was being fetched.
func (s *Session) discardPending() {
	for {
		select {
		case <-s.keys:
		default:
			return
		}
	}
}

func decisionFor(b byte) (interact.Decision, bool) {
	switch b {
	case '\r', '\n', 'y', 'Y':
		return interact.Accept, true
	case 'n', 'N', 'r', 'R', '\t':
		return interact.Reject, true
	default:
		return 0, false
	}
}

// Close stops the reader and restores the terminal. It is safe to call
// more than once.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		_ = s.r.SetReadDeadline(time.Now())
		select {
		case <-s.exited:
		case <-time.After(closeWait):
		}
		_ = s.r.Close()
		_ = syscall.SetNonblock(s.fd, false)
		err = term.Restore(s.fd, s.state)
	})
	return err
}
