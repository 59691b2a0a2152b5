// internal/httpserver/routes_solver.go
//
// HTTP routes for interactive solving sessions.
// Exposes six endpoints under /solver:
//   - POST /solver/new      → start a session, returns its token + first proposal
//   - GET  /solver/state    → current snapshot of the caller's session
//   - POST /solver/round    → submit the guess played and the pattern the game showed
//   - POST /solver/reset    → start the caller's session over
//   - POST /solver/end      → forget the caller's session and clear its cookie
//   - POST /solver/simulate → self-play against a known answer (no session needed);
//     without an answer it plays the word of the day
//
// A round always answers 200 once applied. If a newer round or reset of the
// same session superseded its ranking, the body carries "stale": true and the
// newer state. If ranking outlives rankBudget, the proposal falls back to the
// first remaining candidate.
//
// Snapshots list the remaining candidates only when there are at most
// candidateLimit of them, or when ?candidates=all is given.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/solver-server/internal/daily"
	"github.com/robalobadob/wordle/apps/solver-server/internal/session"
	"github.com/robalobadob/wordle/apps/solver-server/internal/store"
	"github.com/robalobadob/wordle/apps/solver-server/internal/words"
)

const candidateLimit = 100

// mountSolver registers all /solver routes.
func (s *Server) mountSolver() {
	s.r.Route("/solver", func(r chi.Router) {
		r.Post("/new", s.handleNew)
		r.Post("/simulate", s.handleSimulate)

		r.Group(func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/state", s.handleState)
			r.Post("/round", s.handleRound)
			r.Post("/reset", s.handleReset)
			r.Post("/end", s.handleEnd)
		})
	})
}

type newRes struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Session   session.Snapshot `json:"session"`
}

// handleNew creates a session, registers it in the store and issues its token.
func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	e := s.eng.Load()
	if e == nil {
		writeLoading(w)
		return
	}
	id := store.NewID()
	sess, err := session.New(r.Context(), id, e.lists.Dictionary, e.ranker,
		session.WithDebounce(s.cfg.Debounce),
		session.OnFinish(s.recordFinished(e.lists.Fingerprint)),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	tok, exp, err := s.tokens.sign(id)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	setTokenCookie(w, tok, exp)
	log.Debug().Str("session", id).Msg("session started")
	writeJSON(w, http.StatusOK, newRes{Token: tok, ExpiresAt: exp, Session: view(r, sess.Snapshot())})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, view(r, sessionFrom(r.Context()).Snapshot()))
}

// roundReq is the payload for POST /solver/round.
type roundReq struct {
	Guess   string `json:"guess"`
	Pattern string `json:"pattern"` // five of b/y/g, e.g. "bygbb"
}

func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	var req roundReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess := sessionFrom(r.Context())
	if g := strings.ToLower(strings.TrimSpace(req.Guess)); words.Valid(g) {
		if e := s.eng.Load(); e != nil && !e.lists.IsAllowed(g) {
			// the game decides what it accepts; only note it
			log.Info().Str("session", sess.ID()).Str("guess", g).Msg("guess not in dictionary")
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.rankBudget)
	defer cancel()
	snap, err := sess.Submit(ctx, req.Guess, req.Pattern)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrStale):
		log.Debug().Str("session", sess.ID()).Msg("round superseded")
	case errors.Is(err, context.DeadlineExceeded) && r.Context().Err() == nil:
		log.Warn().Str("session", sess.ID()).Dur("budget", s.rankBudget).Str("proposal", snap.Proposal).Msg("ranking budget exhausted")
	default:
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(r, snap))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(r, sess.Snapshot()))
}

// handleEnd drops the caller's session from the store. The token stays
// signed but no longer resolves.
func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := s.store.Delete(r.Context(), sess.ID()); err != nil {
		log.Error().Err(err).Str("session", sess.ID()).Msg("delete session")
		http.Error(w, `{"error":"delete_failed"}`, http.StatusInternalServerError)
		return
	}
	clearTokenCookie(w)
	log.Debug().Str("session", sess.ID()).Msg("session ended")
	writeJSON(w, http.StatusOK, map[string]bool{"ended": true})
}

// simulateReq is the payload for POST /solver/simulate.
type simulateReq struct {
	Answer    string `json:"answer"`    // "" = word of the day
	MaxRounds int    `json:"maxRounds"` // 0 = session.DefaultMaxRounds
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	e := s.eng.Load()
	if e == nil {
		writeLoading(w)
		return
	}
	var req simulateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		pick := e.lists.Likely
		if len(pick) == 0 {
			pick = e.lists.Dictionary
		}
		req.Answer = daily.Word(time.Now(), s.cfg.DailySalt, pick)
	}
	snap, err := session.Simulate(r.Context(), e.lists.Dictionary, e.ranker, req.Answer, req.MaxRounds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(r, snap))
}

// view trims the candidate list of a snapshot for the wire.
func view(r *http.Request, snap session.Snapshot) session.Snapshot {
	if r.URL.Query().Get("candidates") != "all" && len(snap.Candidates) > candidateLimit {
		snap.Candidates = nil
	}
	return snap
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
