// internal/journal/journal.go
//
// Optional journal of finished solving sessions.
// Each row summarizes one session that ended won or impossible: the dictionary
// fingerprint, the outcome, how many rounds were submitted and the guesses with
// their patterns. Live session state is never stored or restored.

package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/robalobadob/wordle/apps/solver-server/assets"
	"github.com/robalobadob/wordle/apps/solver-server/internal/session"
)

// Entry is one journal row.
type Entry struct {
	SessionID  string `json:"sessionId"`
	Game       int    `json:"game"`
	Dictionary string `json:"dictionary"`
	Outcome    string `json:"outcome"`
	Rounds     int    `json:"rounds"`
	Guesses    string `json:"guesses"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// Stats aggregates the journal.
type Stats struct {
	Solves       int         `json:"solves"`
	Won          int         `json:"won"`
	Impossible   int         `json:"impossible"`
	AvgRoundsWon float64     `json:"avgRoundsWon"`
	Distribution map[int]int `json:"distribution"` // rounds → won sessions
}

// Journal writes and reads solve summaries.
type Journal struct{ db *sql.DB }

// Open opens the SQLite file at dsn and applies the embedded migrations.
func Open(dsn string) (*Journal, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, assets.Migrations()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database handle.
func (j *Journal) Close() error { return j.db.Close() }

// FromSnapshot summarizes a finished session.
func FromSnapshot(snap session.Snapshot, dictionary string) Entry {
	parts := make([]string, 0, len(snap.History))
	for _, r := range snap.History {
		parts = append(parts, r.Guess+":"+r.Pattern.String())
	}
	return Entry{
		SessionID:  snap.ID,
		Game:       max(snap.Game, 1),
		Dictionary: dictionary,
		Outcome:    snap.State.String(),
		Rounds:     len(snap.History),
		Guesses:    strings.Join(parts, ","),
	}
}

// Record inserts an entry. A second entry for the same session and game is ignored.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	_, err := j.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO solves (session_id, game, dictionary, outcome, rounds, guesses)
        VALUES (?, ?, ?, ?, ?, ?)`,
		e.SessionID, max(e.Game, 1), e.Dictionary, e.Outcome, e.Rounds, e.Guesses,
	)
	return err
}

// Recent returns the latest entries, newest first. Default limit is 20.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
        SELECT session_id, game, dictionary, outcome, rounds, guesses, finished_at
        FROM solves
        ORDER BY id DESC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.SessionID, &e.Game, &e.Dictionary, &e.Outcome, &e.Rounds, &e.Guesses, &e.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats aggregates outcomes and the round distribution of won sessions.
func (j *Journal) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Distribution: map[int]int{}}
	rows, err := j.db.QueryContext(ctx, `
        SELECT outcome, rounds, COUNT(1)
        FROM solves
        GROUP BY outcome, rounds`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	roundsWon := 0
	for rows.Next() {
		var outcome string
		var rounds, n int
		if err := rows.Scan(&outcome, &rounds, &n); err != nil {
			return st, err
		}
		st.Solves += n
		switch outcome {
		case session.StateWon.String():
			st.Won += n
			roundsWon += rounds * n
			st.Distribution[rounds] += n
		case session.StateImpossible.String():
			st.Impossible += n
		}
	}
	if err := rows.Err(); err != nil {
		return st, err
	}
	if st.Won > 0 {
		st.AvgRoundsWon = float64(roundsWon) / float64(st.Won)
	}
	return st, nil
}
