// Package interact drives the fetch, show and decide cycle for one request.
//
// The loop is strictly sequential: it never fetches again before the previous
// suggestion has been accepted or rejected. Cancellation arrives through the
// context owned by the caller; the loop reports it as ErrInterrupted and
// leaves terminal cleanup to the caller.
package interact

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hpkotak/askcmd/internal/suggest"
)

// MaxAlternatives bounds both fetches and rejections per run.
const MaxAlternatives = 3

// ErrInterrupted is returned when the run was cancelled by the user.
var ErrInterrupted = errors.New("interrupted")

// Fetcher produces one suggestion for a query, avoiding rejected commands.
type Fetcher interface {
	Fetch(ctx context.Context, query string, rejected []string) (string, error)
}

// DecisionSource blocks until the user accepts or rejects, or ctx is done.
type DecisionSource interface {
	NextDecision(ctx context.Context) (Decision, error)
}

// Outcome describes how a run ended.
type Outcome struct {
	State    State
	Command  string
	Rejected []string
}

// Loop runs one interactive (or non-interactive) suggestion session.
type Loop struct {
	Fetcher Fetcher
	// Decisions is nil in non-interactive mode: the first suggestion is
	// printed and the run ends.
	Decisions DecisionSource
	// Handoff receives the accepted command. It must not wait for the
	// command to finish.
	Handoff   func(command string) error
	Presenter *Presenter
	Logger    *zap.Logger
}

// Run executes the state machine for query until it reaches a final state.
func (l *Loop) Run(ctx context.Context, query string) (Outcome, error) {
	log := l.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var (
		out     = Outcome{State: Fetching}
		failure error
	)

	for {
		log.Debug("loop state", zap.Stringer("state", out.State), zap.Int("rejected", len(out.Rejected)))

		switch out.State {
		case Fetching:
			cmd, err := l.Fetcher.Fetch(ctx, query, out.Rejected)
			if err != nil {
				if ctx.Err() != nil {
					return out, ErrInterrupted
				}
				failure = err
				out.State = Failed
				continue
			}
			out.Command = cmd

			if l.Decisions == nil {
				l.Presenter.Command(cmd)
				out.State = Accepted
				return out, nil
			}
			out.State = AwaitingDecision

		case AwaitingDecision:
			l.Presenter.Suggestion(out.Command, len(out.Rejected)+1, MaxAlternatives)
			d, err := l.Decisions.NextDecision(ctx)
			if err != nil {
				failure = fmt.Errorf("reading key: %w", err)
				out.State = Failed
				continue
			}
			log.Debug("decision", zap.Stringer("decision", d))

			switch d {
			case Interrupted:
				return out, ErrInterrupted
			case Accept:
				out.State = Accepted
			case Reject:
				out.Rejected = append(out.Rejected, out.Command)
				if len(out.Rejected) >= MaxAlternatives {
					out.State = Exhausted
				} else {
					out.State = Fetching
				}
			}

		case Accepted:
			if l.Handoff != nil {
				if err := l.Handoff(out.Command); err != nil {
					failure = fmt.Errorf("starting command: %w", err)
					out.State = Failed
					continue
				}
			}
			return out, nil

		case Exhausted:
			l.Presenter.Failure(suggest.ErrNoSuggestion)
			return out, reportedError{suggest.ErrNoSuggestion}

		case Failed:
			l.Presenter.Failure(failure)
			return out, reportedError{failure}
		}
	}
}

// reportedError marks a failure the loop has already shown to the user.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already shown by a Loop.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}
