// internal/httpserver/server.go
//
// HTTP server wiring for the Wordle solver.
// Responsibilities:
//   - Router + middleware (request IDs, logging, panic recovery, timeouts, JSON, CORS).
//   - Public endpoints: "/", "/health", "/debug/words", "/stats".
//   - Solver endpoints: mounted under /solver (see routes_solver.go).
//   - Mapping engine errors to JSON error bodies.
//
// Notes:
//   - The word lists may still be loading when the server starts; until SetEngine
//     is called, solver endpoints answer 503 with state "loading".
//   - Clients hold a signed session token (token.go); sessions themselves live in
//     the in-memory store.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/wordle/apps/solver-server/internal/config"
	"github.com/robalobadob/wordle/apps/solver-server/internal/journal"
	"github.com/robalobadob/wordle/apps/solver-server/internal/rank"
	"github.com/robalobadob/wordle/apps/solver-server/internal/session"
	"github.com/robalobadob/wordle/apps/solver-server/internal/store"
	"github.com/robalobadob/wordle/apps/solver-server/internal/words"
)

// engine is the loaded dictionary with the ranker built for it.
type engine struct {
	lists  *words.Lists
	ranker *rank.Ranker
}

// Server bundles router, session store, optional journal and the solving engine.
type Server struct {
	r       *chi.Mux
	store   store.Store
	journal *journal.Journal // nil when HISTORY_DB is unset
	tokens  tokenIssuer
	cfg     config.Config
	eng     atomic.Pointer[engine]

	// rankBudget bounds a round's ranking pass; shorter than the request timeout.
	rankBudget time.Duration
}

// New constructs a Server, installs middleware, and registers routes.
// jr may be nil.
func New(cfg config.Config, st store.Store, jr *journal.Journal) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		store:   st,
		journal: jr,
		tokens:  tokenIssuer{secret: []byte(cfg.JWTSecret), ttl: cfg.TokenTTL},
		cfg:     cfg,
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s.rankBudget = timeout - timeout/5

	// --- middleware ---
	s.r.Use(chimw.RequestID)        // add X-Request-ID
	s.r.Use(chimw.RealIP)           // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)          // one zerolog line per request
	s.r.Use(chimw.Recoverer)        // recover from panics
	s.r.Use(chimw.Timeout(timeout)) // bound handler time; answers 504 on expiry
	s.r.Use(jsonContentType)        // default JSON responses
	s.r.Use(cors(cfg.ClientOrigin)) // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"wordle-solver","endpoints":["/health","/debug/words","/stats","POST /solver/new","GET /solver/state","POST /solver/round","POST /solver/reset","POST /solver/end","POST /solver/simulate"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		state := "ready"
		if s.eng.Load() == nil {
			state = "loading"
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "words": state})
	})
	s.r.Get("/debug/words", s.handleDebugWords)
	s.r.Get("/stats", s.handleStats)

	s.mountSolver()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// SetEngine installs the loaded word lists and their ranker. Until it is called
// solver endpoints report the loading state.
func (s *Server) SetEngine(l *words.Lists, rk *rank.Ranker) {
	s.eng.Store(&engine{lists: l, ranker: rk})
	d, lk := l.Stats()
	log.Info().Int("dictionary", d).Int("likely", lk).Str("fingerprint", l.Fingerprint).Msg("word lists ready")
}

// Run serves HTTP on addr until ctx is cancelled, then drains in-flight
// requests for up to 10s.
func (s *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

func (s *Server) handleDebugWords(w http.ResponseWriter, r *http.Request) {
	e := s.eng.Load()
	if e == nil {
		writeLoading(w)
		return
	}
	d, lk := e.lists.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"dictionary":  d,
		"likely":      lk,
		"fingerprint": e.lists.Fingerprint,
		"opening":     e.ranker.Opening(),
	})
}

// handleStats reports journal aggregates; ?recent=N adds the latest N solves.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	st, err := s.journal.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("journal stats")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	out := map[string]any{"enabled": true, "stats": st}
	if n := queryInt(r, "recent", 0); n > 0 {
		recent, err := s.journal.Recent(r.Context(), n)
		if err != nil {
			log.Error().Err(err).Msg("journal recent")
			http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
			return
		}
		out["recent"] = recent
	}
	writeJSON(w, http.StatusOK, out)
}

// recordFinished is the session finish hook: best-effort journal write.
func (s *Server) recordFinished(fingerprint string) func(session.Snapshot) {
	return func(snap session.Snapshot) {
		if s.journal == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.journal.Record(ctx, journal.FromSnapshot(snap, fingerprint)); err != nil {
			log.Warn().Err(err).Str("session", snap.ID).Msg("journal record")
		}
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs method, path, status, size and latency of every request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// ------------------------------ responses ----------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeLoading(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "word_list_unavailable", "state": "loading"})
}

// writeError maps engine and store errors to status codes. Context errors write
// nothing: chimw.Timeout answers 504 for an expired request and a cancelled
// client is gone.
func writeError(w http.ResponseWriter, err error) {
	var ve *session.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_" + ve.Field, "detail": ve.Error()})
	case errors.Is(err, session.ErrSessionOver):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "session_over"})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session_not_found"})
	case errors.Is(err, session.ErrMissingWordList), errors.Is(err, words.ErrEmptyList):
		writeLoading(w)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.Warn().Err(err).Msg("request context done")
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
	}
}
