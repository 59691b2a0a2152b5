package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/apps/solver-server/internal/config"
	"github.com/robalobadob/wordle/apps/solver-server/internal/journal"
	"github.com/robalobadob/wordle/apps/solver-server/internal/pattern"
	"github.com/robalobadob/wordle/apps/solver-server/internal/rank"
	"github.com/robalobadob/wordle/apps/solver-server/internal/session"
	"github.com/robalobadob/wordle/apps/solver-server/internal/store"
	"github.com/robalobadob/wordle/apps/solver-server/internal/words"
)

var testWords = []string{
	"those", "chose", "whose", "shore", "horse", "house", "mouse", "crane",
	"slate", "trace", "crate", "react", "stare", "tears", "rates", "plant",
	"speed", "abide", "geese", "eerie", "there", "three", "sheet", "ghost",
	"hoist", "moist", "joist", "cigar", "paper", "rebut",
}

func testConfig() config.Config {
	return config.Config{
		ClientOrigin:   "http://example.test",
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		RequestTimeout: 5 * time.Second,
	}
}

func newTestServer(t *testing.T, withJournal bool) *Server {
	t.Helper()
	return newTestServerWith(t, testConfig(), withJournal)
}

func newTestServerWith(t *testing.T, cfg config.Config, withJournal bool) *Server {
	t.Helper()
	var jr *journal.Journal
	if withJournal {
		var err error
		jr, err = journal.Open(filepath.Join(t.TempDir(), "journal.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = jr.Close() })
	}
	srv := New(cfg, store.NewMemoryStore(), jr)

	lists, err := words.New(testWords, []string{"those", "cigar"})
	require.NoError(t, err)
	rk := rank.New(rank.Config{SampleThreshold: -1, Workers: 2, Source: rand.NewSource(1)})
	srv.SetEngine(lists, rk)
	return srv
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func startSession(t *testing.T, h http.Handler) newRes {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/solver/new", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[newRes](t, rec)
}

func TestDiagnostics(t *testing.T) {
	h := newTestServer(t, false).Router()

	rec := do(t, h, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/solver/round")

	rec = do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"words":"ready"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/debug/words", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dw := decode[map[string]any](t, rec)
	assert.EqualValues(t, len(testWords), dw["dictionary"])
	assert.EqualValues(t, 2, dw["likely"])
	assert.Equal(t, "salet", dw["opening"])
	assert.Len(t, dw["fingerprint"], 16)

	rec = do(t, h, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorOf(t, rec))

	rec = do(t, h, http.MethodGet, "/stats", "", nil)
	assert.JSONEq(t, `{"enabled":false}`, rec.Body.String())
}

func TestLoadingState(t *testing.T) {
	h := New(testConfig(), store.NewMemoryStore(), nil).Router()

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	assert.JSONEq(t, `{"ok":true,"words":"loading"}`, rec.Body.String())

	for _, path := range []string{"/solver/new", "/solver/simulate"} {
		rec = do(t, h, http.MethodPost, path, "", simulateReq{Answer: "those"})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.JSONEq(t, `{"error":"word_list_unavailable","state":"loading"}`, rec.Body.String(), path)
	}
	rec = do(t, h, http.MethodGet, "/debug/words", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSolveRoundTrip(t *testing.T) {
	srv := newTestServer(t, true)
	h := srv.Router()
	const answer = "those"

	started := startSession(t, h)
	require.NotEmpty(t, started.Token)
	assert.Equal(t, session.StateInProgress, started.Session.State)
	assert.Equal(t, 0, started.Session.Round)
	assert.Equal(t, "salet", started.Session.Proposal)
	assert.Equal(t, len(testWords), started.Session.CandidateCount)

	snap := started.Session
	prev := snap.CandidateCount
	for i := 0; i < len(testWords) && snap.State != session.StateWon; i++ {
		guess := snap.Proposal
		rec := do(t, h, http.MethodPost, "/solver/round", started.Token,
			roundReq{Guess: guess, Pattern: pattern.Score(guess, answer).String()})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		snap = decode[session.Snapshot](t, rec)
		assert.LessOrEqual(t, snap.CandidateCount, prev)
		prev = snap.CandidateCount
		if snap.State != session.StateWon {
			assert.Contains(t, snap.Candidates, answer)
		}
	}
	require.Equal(t, session.StateWon, snap.State)
	assert.Equal(t, answer, snap.History[len(snap.History)-1].Guess)

	rec := do(t, h, http.MethodGet, "/solver/state", started.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.StateWon, decode[session.Snapshot](t, rec).State)

	rec = do(t, h, http.MethodPost, "/solver/round", started.Token, roundReq{Guess: "crane", Pattern: "bbbbb"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "session_over", errorOf(t, rec))

	rec = do(t, h, http.MethodGet, "/stats?recent=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[statsRes](t, rec)
	assert.True(t, stats.Enabled)
	assert.Equal(t, 1, stats.Stats.Won)
	assert.Equal(t, map[int]int{len(snap.History): 1}, stats.Stats.Distribution)
	require.Len(t, stats.Recent, 1)
	assert.Equal(t, snap.ID, stats.Recent[0].SessionID)
	assert.Equal(t, "won", stats.Recent[0].Outcome)
}

func TestRoundValidation(t *testing.T) {
	h := newTestServer(t, false).Router()
	tok := startSession(t, h).Token

	rec := do(t, h, http.MethodPost, "/solver/round", tok, roundReq{Guess: "salet", Pattern: "bxbbb"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_pattern", errorOf(t, rec))

	rec = do(t, h, http.MethodPost, "/solver/round", tok, roundReq{Guess: "sal3t", Pattern: "bbbbb"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_guess", errorOf(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/solver/round", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rec = do(t, h, http.MethodGet, "/solver/state", tok, nil)
	snap := decode[session.Snapshot](t, rec)
	assert.Equal(t, 0, snap.Round, "rejected rounds leave the session untouched")
	assert.Empty(t, snap.History)
}

func TestImpossibleAndReset(t *testing.T) {
	h := newTestServer(t, false).Router()
	tok := startSession(t, h).Token

	// only cigar avoids t,h,o,s,e; the second round contradicts it
	rec := do(t, h, http.MethodPost, "/solver/round", tok, roundReq{Guess: "those", Pattern: "bbbbb"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPost, "/solver/round", tok, roundReq{Guess: "crane", Pattern: "ggggb"})
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[session.Snapshot](t, rec)
	assert.Equal(t, session.StateImpossible, snap.State)
	assert.Zero(t, snap.CandidateCount)

	rec = do(t, h, http.MethodPost, "/solver/reset", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decode[session.Snapshot](t, rec)
	assert.Equal(t, session.StateInProgress, snap.State)
	assert.Equal(t, 0, snap.Round)
	assert.Empty(t, snap.History)
	assert.Equal(t, len(testWords), snap.CandidateCount)
	assert.Equal(t, "salet", snap.Proposal)
}

func TestTokens(t *testing.T) {
	srv := newTestServer(t, false)
	h := srv.Router()

	rec := do(t, h, http.MethodGet, "/solver/state", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/solver/state", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	foreign := tokenIssuer{secret: []byte("other-secret"), ttl: time.Hour}
	tok, _, err := foreign.sign(store.NewID())
	require.NoError(t, err)
	rec = do(t, h, http.MethodGet, "/solver/state", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, _, err = srv.tokens.sign("no-such-session")
	require.NoError(t, err)
	rec = do(t, h, http.MethodGet, "/solver/state", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "session_not_found", errorOf(t, rec))

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": "whatever",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	tok, err = expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = srv.tokens.parse(tok)
	assert.ErrorIs(t, err, errBadToken)

	_, err = srv.tokens.parse("")
	assert.ErrorIs(t, err, errNoToken)
}

func TestCookieAuth(t *testing.T) {
	h := newTestServer(t, false).Router()

	rec := do(t, h, http.MethodPost, "/solver/new", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, tokenCookie, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/solver/state", nil)
	req.AddCookie(cookies[0])
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSimulate(t *testing.T) {
	h := newTestServer(t, false).Router()

	rec := do(t, h, http.MethodPost, "/solver/simulate", "", simulateReq{Answer: "Those"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decode[session.Snapshot](t, rec)
	assert.Equal(t, session.StateWon, snap.State)
	assert.Equal(t, "those", snap.History[len(snap.History)-1].Guess)

	rec = do(t, h, http.MethodPost, "/solver/simulate", "", simulateReq{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap = decode[session.Snapshot](t, rec)
	assert.Equal(t, session.StateWon, snap.State)
	assert.Contains(t, []string{"those", "cigar"}, snap.History[len(snap.History)-1].Guess, "word of the day comes from the likely list")

	rec = do(t, h, http.MethodPost, "/solver/simulate", "", simulateReq{Answer: "xx"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_answer", errorOf(t, rec))
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, false).Router()
	rec := do(t, h, http.MethodOptions, "/solver/round", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://example.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestViewTrimsLongCandidateLists(t *testing.T) {
	long := make([]string, candidateLimit+1)
	snap := session.Snapshot{Candidates: long, CandidateCount: len(long)}

	r := httptest.NewRequest(http.MethodGet, "/solver/state", nil)
	assert.Nil(t, view(r, snap).Candidates)
	assert.Equal(t, len(long), view(r, snap).CandidateCount)

	r = httptest.NewRequest(http.MethodGet, "/solver/state?candidates=all", nil)
	assert.Len(t, view(r, snap).Candidates, len(long))
}

type statsRes struct {
	Enabled bool            `json:"enabled"`
	Stats   journal.Stats   `json:"stats"`
	Recent  []journal.Entry `json:"recent"`
}

func TestJournalCountsEveryGameOfASession(t *testing.T) {
	h := newTestServer(t, true).Router()
	started := startSession(t, h)
	assert.Equal(t, 1, started.Session.Game)

	rec := do(t, h, http.MethodPost, "/solver/round", started.Token, roundReq{Guess: "those", Pattern: "ggggg"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, session.StateWon, decode[session.Snapshot](t, rec).State)

	rec = do(t, h, http.MethodPost, "/solver/reset", started.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[session.Snapshot](t, rec).Game)

	rec = do(t, h, http.MethodPost, "/solver/round", started.Token, roundReq{Guess: "crane", Pattern: "ggggg"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, session.StateWon, decode[session.Snapshot](t, rec).State)

	rec = do(t, h, http.MethodGet, "/stats?recent=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[statsRes](t, rec)
	assert.Equal(t, 2, stats.Stats.Won)
	assert.Equal(t, map[int]int{1: 2}, stats.Stats.Distribution)
	require.Len(t, stats.Recent, 2)
	for _, e := range stats.Recent {
		assert.Equal(t, started.Session.ID, e.SessionID)
	}
	assert.Equal(t, 2, stats.Recent[0].Game)
	assert.Equal(t, "crane:ggggg", stats.Recent[0].Guesses)
	assert.Equal(t, 1, stats.Recent[1].Game)
}

func TestEndForgetsSession(t *testing.T) {
	h := newTestServer(t, false).Router()
	tok := startSession(t, h).Token

	rec := do(t, h, http.MethodPost, "/solver/end", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ended":true}`, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, tokenCookie, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)

	rec = do(t, h, http.MethodGet, "/solver/state", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "session_not_found", errorOf(t, rec))

	rec = do(t, h, http.MethodPost, "/solver/end", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoundLogsOffDictionaryGuess(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	h := newTestServer(t, false).Router()
	tok := startSession(t, h).Token

	buf.Reset()
	rec := do(t, h, http.MethodPost, "/solver/round", tok, roundReq{Guess: "crane", Pattern: "bbbbb"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, buf.String(), "guess not in dictionary")

	buf.Reset()
	rec = do(t, h, http.MethodPost, "/solver/round", tok, roundReq{Guess: "ZZZZZ", Pattern: "bbbbb"})
	require.Equal(t, http.StatusOK, rec.Code, "off-dictionary guesses are still applied")
	assert.Contains(t, buf.String(), "guess not in dictionary")
	assert.Contains(t, buf.String(), `"guess":"zzzzz"`)
	assert.Len(t, decode[session.Snapshot](t, rec).History, 2)
}

func TestRoundFallsBackWhenRankingOutlivesBudget(t *testing.T) {
	cfg := testConfig()
	cfg.RequestTimeout = 500 * time.Millisecond
	cfg.Debounce = 5 * time.Second
	h := newTestServerWith(t, cfg, false).Router()
	tok := startSession(t, h).Token

	start := time.Now()
	rec := do(t, h, http.MethodPost, "/solver/round", tok,
		roundReq{Guess: "crane", Pattern: pattern.Score("crane", "moist").String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Less(t, time.Since(start), 2*time.Second)

	snap := decode[session.Snapshot](t, rec)
	assert.Equal(t, []string{"ghost", "hoist", "moist", "joist"}, snap.Candidates)
	assert.Equal(t, "ghost", snap.Proposal, "first remaining candidate")
	assert.Empty(t, snap.Ranked)
	assert.False(t, snap.Ranking)
	assert.False(t, snap.Stale)
}

func TestSupersededRoundAnswersWithNewerState(t *testing.T) {
	cfg := testConfig()
	cfg.Debounce = 300 * time.Millisecond
	h := newTestServerWith(t, cfg, false).Router()
	tok := startSession(t, h).Token

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- do(t, h, http.MethodPost, "/solver/round", tok,
			roundReq{Guess: "crane", Pattern: pattern.Score("crane", "moist").String()})
	}()
	require.Eventually(t, func() bool {
		rec := do(t, h, http.MethodGet, "/solver/state", tok, nil)
		return decode[session.Snapshot](t, rec).Ranking
	}, 2*time.Second, 10*time.Millisecond)

	rec := do(t, h, http.MethodPost, "/solver/round", tok,
		roundReq{Guess: "ghost", Pattern: pattern.Score("ghost", "moist").String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	latest := decode[session.Snapshot](t, rec)
	assert.False(t, latest.Stale)
	assert.Len(t, latest.History, 2)

	var stale *httptest.ResponseRecorder
	select {
	case stale = <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded round never answered")
	}
	require.Equal(t, http.StatusOK, stale.Code, stale.Body.String())
	snap := decode[session.Snapshot](t, stale)
	assert.True(t, snap.Stale)
	assert.Len(t, snap.History, 2, "the round was applied; the body shows the newer state")
	assert.Equal(t, "ghost", snap.History[1].Guess)
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := newTestServer(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
