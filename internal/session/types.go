// internal/session/types.go
//
// Type definitions for a solving session.
// Defines:
//   - State: lifecycle of a session (loading → in_progress → won/impossible).
//   - Round: one accepted (guess, pattern) submission.
//   - Snapshot: a copy of everything the rendering layer may show.
//   - Errors: ValidationError and the sentinel errors returned by Submit.

package session

import (
	"errors"
	"fmt"

	"github.com/robalobadob/wordle/apps/solver-server/internal/pattern"
	"github.com/robalobadob/wordle/apps/solver-server/internal/rank"
)

// State is the coarse lifecycle state of a session.
type State uint8

const (
	StateLoading State = iota
	StateInProgress
	StateWon
	StateImpossible
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateWon:
		return "won"
	case StateImpossible:
		return "impossible"
	default:
		return "loading"
	}
}

// MarshalText renders the state as its string form in JSON.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses the string form produced by MarshalText.
func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{StateLoading, StateInProgress, StateWon, StateImpossible} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// Finished reports whether no further rounds are accepted.
func (s State) Finished() bool { return s == StateWon || s == StateImpossible }

// Round is one accepted submission.
type Round struct {
	Guess   string          `json:"guess"`
	Pattern pattern.Pattern `json:"pattern"`
}

// Snapshot is a point-in-time copy of a session's exposed state.
type Snapshot struct {
	ID             string        `json:"id"`
	Game           int           `json:"game"` // 1 for the first game, +1 per Reset
	State          State         `json:"state"`
	Round          int           `json:"round"`
	Proposal       string        `json:"proposal"`
	Ranked         []rank.Scored `json:"ranked"`
	CandidateCount int           `json:"candidateCount"`
	Candidates     []string      `json:"candidates,omitempty"`
	History        []Round       `json:"history"`
	Ranking        bool          `json:"ranking"`         // a ranking pass is still running
	Stale          bool          `json:"stale,omitempty"` // set with ErrStale: a newer Submit or Reset owns the state shown
}

var (
	// ErrMissingWordList means the session was started without any words.
	ErrMissingWordList = errors.New("session: word list not loaded")
	// ErrSessionOver is returned by Submit once the session is won or impossible.
	ErrSessionOver = errors.New("session: already finished")
	// ErrStale means a newer Submit or Reset superseded this round's ranking.
	ErrStale = errors.New("session: superseded by a newer round")
)

// ValidationError rejects a malformed submission. Session state is unchanged.
type ValidationError struct {
	Field  string // "guess" or "pattern"
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
