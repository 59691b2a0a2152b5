// internal/constraint/filter.go
//
// Candidate filtering: keeps the words of a list that are consistent with a Store.

package constraint

import (
	"strings"

	"github.com/robalobadob/wordle/apps/solver-server/internal/pattern"
)

// Filter returns the words consistent with st, preserving their order.
// An empty result means the evidence matches nothing in the list.
func Filter(words []string, st Store) []string {
	m := newMatcher(st)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if m.match(w) {
			out = append(out, w)
		}
	}
	return out
}

// Matches reports whether a single word is consistent with st.
func Matches(word string, st Store) bool { return newMatcher(st).match(word) }

// matcher flattens a Store into arrays so the per-word check does no allocation.
type matcher struct {
	fixed     [pattern.Length]byte
	excluded  [pattern.Length][alphabet]bool
	forbidden [alphabet]bool
	confirmed [alphabet]bool
	required  []byte // letters that must occur somewhere (from excludedAt)
}

func newMatcher(st Store) *matcher {
	m := &matcher{fixed: st.fixed}
	var req [alphabet]bool
	for i := 0; i < pattern.Length; i++ {
		if f := st.fixed[i]; f != 0 {
			m.confirmed[f-'a'] = true
		}
		for _, c := range st.ExcludedAt(i) {
			m.excluded[i][c-'a'] = true
			m.confirmed[c-'a'] = true
			if !req[c-'a'] {
				req[c-'a'] = true
				m.required = append(m.required, c)
			}
		}
	}
	for _, c := range st.Forbidden() {
		m.forbidden[c-'a'] = true
	}
	return m
}

func (m *matcher) match(w string) bool {
	if len(w) != pattern.Length {
		return false
	}
	for i := 0; i < pattern.Length; i++ {
		c := w[i]
		if c < 'a' || c > 'z' {
			return false
		}
		if f := m.fixed[i]; f != 0 && c != f {
			return false
		}
		if m.excluded[i][c-'a'] {
			return false
		}
		// gray letters are allowed only when confirmed elsewhere (repeated letters)
		if m.forbidden[c-'a'] && !m.confirmed[c-'a'] {
			return false
		}
	}
	for _, c := range m.required {
		if !strings.ContainsRune(w, rune(c)) {
			return false
		}
	}
	return true
}
