// internal/httpserver/token.go
//
// Session tokens: an HS256 JWT carrying the session ID ("sid") and expiry.
// Clients send it as "Authorization: Bearer <token>" or via the solver_token
// cookie set by POST /solver/new.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/robalobadob/wordle/apps/solver-server/internal/session"
)

const tokenCookie = "solver_token"

var (
	errNoToken  = errors.New("missing token")
	errBadToken = errors.New("invalid token")
)

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// sign issues a token bound to sid.
func (t tokenIssuer) sign(sid string) (string, time.Time, error) {
	ttl := t.ttl
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	exp := now.Add(ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := tok.SignedString(t.secret)
	return ss, exp, err
}

// parse validates tok and returns its session ID.
func (t tokenIssuer) parse(tok string) (string, error) {
	if tok == "" {
		return "", errNoToken
	}
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", errBadToken
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", errBadToken
	}
	return sid, nil
}

func bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(tokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func setTokenCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

func clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

type ctxSessionKey struct{}

// withSession resolves the request's token to a live session.
//   - 401 when the token is missing or invalid.
//   - 404 when the session expired or never existed.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, err := s.tokens.parse(bearerOrCookie(r))
		switch {
		case errors.Is(err, errNoToken):
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		case err != nil:
			http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
			return
		}
		sess, err := s.store.Get(r.Context(), sid)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(ctxSessionKey{}).(*session.Session)
	return sess
}
