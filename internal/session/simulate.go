package session

import (
	"context"
	"strings"

	"github.com/robalobadob/wordle/apps/solver-server/internal/pattern"
	"github.com/robalobadob/wordle/apps/solver-server/internal/rank"
	"github.com/robalobadob/wordle/apps/solver-server/internal/words"
)

// DefaultMaxRounds caps a simulation when no limit is given.
const DefaultMaxRounds = 20

// Simulate lets the solver play against a known answer: every round it submits
// its own proposal together with the pattern the answer produces for it.
// It stops when the session finishes or after maxRounds submissions.
func Simulate(ctx context.Context, wordList []string, r *rank.Ranker, answer string, maxRounds int) (Snapshot, error) {
	answer = strings.ToLower(strings.TrimSpace(answer))
	if !words.Valid(answer) {
		return Snapshot{}, &ValidationError{Field: "answer", Value: answer, Reason: "must be 5 letters a-z"}
	}
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	s, err := New(ctx, "simulation", wordList, r)
	if err != nil {
		return Snapshot{}, err
	}
	for i := 0; i < maxRounds; i++ {
		snap := s.Snapshot()
		if snap.State.Finished() || snap.Proposal == "" {
			return snap, nil
		}
		guess := snap.Proposal
		if _, err := s.Submit(ctx, guess, pattern.Score(guess, answer).String()); err != nil {
			return s.Snapshot(), err
		}
	}
	return s.Snapshot(), nil
}
