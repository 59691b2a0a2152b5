// internal/session/session.go
//
// Session controller for one solving session.
// Responsibilities:
//   - Own the constraint store, candidate set, history and outcome.
//   - Validate submissions before touching any state.
//   - Sequence each round: update constraints → filter → rank → advance.
//   - Drop ranking results that a newer Submit or Reset has superseded.
//
// State transitions:
//   - New/Reset          → in_progress, proposal = opening word.
//   - Submit all-hit     → won.
//   - Submit, 0 survivors → impossible.
//   - otherwise          → in_progress, round++.
//
// Notes:
//   - Candidates are filtered from the current set, not the full list, so the
//     set can only shrink within a session.
//   - Ranking runs outside the lock. Every Submit/Reset bumps a generation and
//     cancels the in-flight ranking; a result whose generation is no longer current
//     is discarded and Submit returns ErrStale.

package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/solver-server/internal/constraint"
	"github.com/robalobadob/wordle/apps/solver-server/internal/pattern"
	"github.com/robalobadob/wordle/apps/solver-server/internal/rank"
	"github.com/robalobadob/wordle/apps/solver-server/internal/words"
)

// Option customizes a Session.
type Option func(*Session)

// WithDebounce waits d before each ranking pass. A newer submission during the
// wait cancels the pass before any work is done.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

// OnFinish registers fn to run (outside the session lock) when the session
// becomes won or impossible.
func OnFinish(fn func(Snapshot)) Option {
	return func(s *Session) { s.onFinish = fn }
}

// Session is safe for concurrent use.
type Session struct {
	id       string
	words    []string
	ranker   *rank.Ranker
	debounce time.Duration
	onFinish func(Snapshot)

	mu         sync.Mutex
	state      State
	game       int
	round      int
	store      constraint.Store
	candidates []string
	history    []Round
	proposal   string
	ranked     []rank.Scored
	ranking    bool
	gen        uint64
	cancel     context.CancelFunc
}

// New starts a session over wordList. The list is shared, never modified.
func New(ctx context.Context, id string, wordList []string, r *rank.Ranker, opts ...Option) (*Session, error) {
	if len(wordList) == 0 {
		return nil, ErrMissingWordList
	}
	s := &Session{id: id, words: wordList, ranker: r}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reset(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Reset starts over with the already-loaded word list.
func (s *Session) Reset(ctx context.Context) error {
	res, err := s.ranker.Rank(ctx, s.words, true)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidate()
	s.game++
	s.state = StateInProgress
	s.round = 0
	s.store = constraint.Store{}
	s.candidates = s.words
	s.history = nil
	s.proposal = res.Best
	s.ranked = res.Ranked
	return nil
}

// Submit applies one round of feedback: guess is the word played, pat its
// b/y/g pattern. See the package notes for the transitions.
func (s *Session) Submit(ctx context.Context, guess, pat string) (Snapshot, error) {
	g, p, err := validate(guess, pat)
	if err != nil {
		return s.Snapshot(), err
	}

	s.mu.Lock()
	if s.state.Finished() {
		defer s.mu.Unlock()
		return s.snapshotLocked(), ErrSessionOver
	}
	s.invalidate()
	gen := s.gen
	s.history = append(s.history, Round{Guess: g, Pattern: p})

	if p.IsAllHit() {
		s.state = StateWon
		s.proposal = g
		s.ranked = []rank.Scored{}
		return s.finishLocked(), nil
	}

	next := s.store.Update(g, p)
	cands := constraint.Filter(s.candidates, next)
	s.store = next
	log.Debug().Str("session", s.id).Str("guess", g).Stringer("pattern", p).
		Stringer("constraints", next).Int("candidates", len(cands)).Msg("round applied")

	if len(cands) == 0 {
		s.state = StateImpossible
		s.candidates = []string{}
		s.proposal = ""
		s.ranked = []rank.Scored{}
		return s.finishLocked(), nil
	}

	s.candidates = cands
	s.round++
	s.proposal = ""
	s.ranked = nil
	s.ranking = true
	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	res, err := s.rank(rctx, cands)

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()
	if gen != s.gen {
		log.Debug().Str("session", s.id).Uint64("gen", gen).Msg("discarding stale ranking")
		snap := s.snapshotLocked()
		snap.Stale = true
		return snap, ErrStale
	}
	s.cancel = nil
	s.ranking = false
	if err != nil {
		s.proposal = cands[0]
		s.ranked = []rank.Scored{}
		return s.snapshotLocked(), err
	}
	s.proposal = res.Best
	s.ranked = res.Ranked
	log.Debug().Str("session", s.id).Int("round", s.round).Str("proposal", res.Best).Msg("round ranked")
	return s.snapshotLocked(), nil
}

// Snapshot copies the exposed state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// rank runs the ranking pass after the debounce delay.
func (s *Session) rank(ctx context.Context, cands []string) (rank.Result, error) {
	if s.debounce > 0 {
		t := time.NewTimer(s.debounce)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return rank.Result{}, ctx.Err()
		case <-t.C:
		}
	}
	return s.ranker.Rank(ctx, cands, false)
}

// invalidate supersedes any in-flight ranking. Callers hold s.mu.
func (s *Session) invalidate() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.ranking = false
}

// finishLocked snapshots a terminal state, releases s.mu and runs the finish hook.
func (s *Session) finishLocked() Snapshot {
	snap := s.snapshotLocked()
	hook := s.onFinish
	s.mu.Unlock()
	log.Info().Str("session", s.id).Stringer("state", snap.State).Int("rounds", len(snap.History)).Msg("session finished")
	if hook != nil {
		hook(snap)
	}
	return snap
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:             s.id,
		Game:           s.game,
		State:          s.state,
		Round:          s.round,
		Proposal:       s.proposal,
		Ranked:         append([]rank.Scored{}, s.ranked...),
		CandidateCount: len(s.candidates),
		Candidates:     append([]string{}, s.candidates...),
		History:        append([]Round{}, s.history...),
		Ranking:        s.ranking,
	}
}

// validate normalizes and checks a submission.
func validate(guess, pat string) (string, pattern.Pattern, error) {
	g := strings.ToLower(strings.TrimSpace(guess))
	if !words.Valid(g) {
		return "", pattern.Pattern{}, &ValidationError{Field: "guess", Value: guess, Reason: "must be 5 letters a-z"}
	}
	p, err := pattern.Parse(pat)
	if err != nil {
		return "", pattern.Pattern{}, &ValidationError{Field: "pattern", Value: pat, Reason: err.Error()}
	}
	return g, p, nil
}
