// internal/constraint/store.go
//
// Cumulative evidence gathered from the feedback of every accepted round.
// Responsibilities:
//   - fixed:      letter required at a position (from a Hit).
//   - excludedAt: letters known present but not at a position (from a Present).
//   - forbidden:  letters known absent unless separately confirmed present (from a Miss).
//
// Notes:
//   - Store has value semantics. Update returns a new Store and never touches the
//     receiver, so a Session can swap stores between rounds without copying by hand.
//   - The zero value is the empty store.

package constraint

import (
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/robalobadob/wordle/apps/solver-server/internal/pattern"
)

const alphabet = 26

// Store holds green/yellow/gray evidence for one solving session.
type Store struct {
	fixed      [pattern.Length]byte
	excludedAt [pattern.Length]*bitset.BitSet
	forbidden  *bitset.BitSet
}

// Update folds one round of feedback into a copy of the store.
//
// Rules per position i (letter c, mark m):
//   - Hit     → fixed[i] = c.
//   - Present → c added to excludedAt[i].
//   - Miss    → c added to forbidden, unless c is confirmed present by a Hit/Present
//     anywhere in this guess or by earlier evidence. Then the miss only says
//     "not here", so c goes to excludedAt[i] instead.
//
// Re-applying the same (guess, pattern) is a no-op. A Hit that contradicts an
// earlier fixed letter overwrites it; feedback is assumed to be ground truth.
func (s Store) Update(guess string, p pattern.Pattern) Store {
	next := s.clone()

	var thisRound [alphabet]bool
	for i := 0; i < pattern.Length; i++ {
		if p[i] != pattern.MarkMiss {
			thisRound[guess[i]-'a'] = true
		}
	}

	for i := 0; i < pattern.Length; i++ {
		switch p[i] {
		case pattern.MarkHit:
			next.fixed[i] = guess[i]
		case pattern.MarkPresent:
			next.excludedAt[i] = with(next.excludedAt[i], guess[i])
		}
	}

	for i := 0; i < pattern.Length; i++ {
		if p[i] != pattern.MarkMiss {
			continue
		}
		c := guess[i]
		if thisRound[c-'a'] || next.Confirmed(c) {
			next.excludedAt[i] = with(next.excludedAt[i], c)
			continue
		}
		next.forbidden = with(next.forbidden, c)
	}
	return next
}

// Fixed returns the letter required at position i, or 0.
func (s Store) Fixed(i int) byte { return s.fixed[i] }

// ExcludedAt lists the letters ruled out at position i, in alphabetical order.
func (s Store) ExcludedAt(i int) []byte { return letters(s.excludedAt[i]) }

// Forbidden lists letters reported absent, in alphabetical order.
func (s Store) Forbidden() []byte { return letters(s.forbidden) }

// Confirmed reports whether c is known to occur in the answer.
func (s Store) Confirmed(c byte) bool {
	for i := 0; i < pattern.Length; i++ {
		if s.fixed[i] == c || has(s.excludedAt[i], c) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the store carries no evidence at all.
func (s Store) IsEmpty() bool {
	for i := 0; i < pattern.Length; i++ {
		if s.fixed[i] != 0 || count(s.excludedAt[i]) > 0 {
			return false
		}
	}
	return count(s.forbidden) == 0
}

// Equal compares two stores by content.
func (s Store) Equal(o Store) bool {
	if s.fixed != o.fixed || string(s.Forbidden()) != string(o.Forbidden()) {
		return false
	}
	for i := 0; i < pattern.Length; i++ {
		if string(s.ExcludedAt(i)) != string(o.ExcludedAt(i)) {
			return false
		}
	}
	return true
}

// String renders the store compactly for debug logs, e.g.
// "fixed=s...e excluded=[a,,,,r] forbidden=bcd".
func (s Store) String() string {
	var b strings.Builder
	b.WriteString("fixed=")
	for i := 0; i < pattern.Length; i++ {
		if s.fixed[i] == 0 {
			b.WriteByte('.')
		} else {
			b.WriteByte(s.fixed[i])
		}
	}
	b.WriteString(" excluded=[")
	for i := 0; i < pattern.Length; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(s.ExcludedAt(i))
	}
	b.WriteString("] forbidden=")
	b.Write(s.Forbidden())
	return b.String()
}

func (s Store) clone() Store {
	next := Store{fixed: s.fixed}
	for i, bs := range s.excludedAt {
		if bs != nil {
			next.excludedAt[i] = bs.Clone()
		}
	}
	if s.forbidden != nil {
		next.forbidden = s.forbidden.Clone()
	}
	return next
}

// with adds letter c to bs, allocating the set on first use.
func with(bs *bitset.BitSet, c byte) *bitset.BitSet {
	if bs == nil {
		bs = bitset.New(alphabet)
	}
	return bs.Set(uint(c - 'a'))
}

func has(bs *bitset.BitSet, c byte) bool {
	return bs != nil && bs.Test(uint(c-'a'))
}

func count(bs *bitset.BitSet) uint {
	if bs == nil {
		return 0
	}
	return bs.Count()
}

func letters(bs *bitset.BitSet) []byte {
	if bs == nil {
		return nil
	}
	out := make([]byte, 0, bs.Count())
	for i, ok := bs.NextSet(0); ok; i, ok = bs.NextSet(i + 1) {
		out = append(out, byte('a'+i))
	}
	return out
}
