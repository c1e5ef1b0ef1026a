package interact

import "fmt"

// State is a step of the suggestion loop.
type State int

const (
	Fetching State = iota
	AwaitingDecision
	Accepted
	Exhausted
	Failed
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case AwaitingDecision:
		return "awaiting_decision"
	case Accepted:
		return "accepted"
	case Exhausted:
		return "exhausted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Decision is the user's answer to a shown suggestion.
type Decision int

const (
	Accept Decision = iota + 1
	Reject
	// Interrupted means the run was cancelled while waiting.
	Interrupted
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	case Interrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}
