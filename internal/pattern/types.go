// internal/pattern/types.go
//
// Core type definitions for feedback patterns.
// Defines:
//   - Mark: per-letter result of a guess (hit/present/miss).
//   - Pattern: one Mark per position of a fixed-length word.

package pattern

import (
	"fmt"
	"strings"
)

// Length is the number of letters in every word the solver handles.
const Length = 5

// NumPatterns is the number of distinct patterns (3^Length).
const NumPatterns = 243

// Mark represents the evaluation result for a single letter in a guess.
// Possible values:
//   - MarkMiss ("b"):    letter does not occur at this position (after duplicate accounting).
//   - MarkPresent ("y"): letter exists in the answer but in a different position.
//   - MarkHit ("g"):     letter is correct and in the correct position.
type Mark uint8

const (
	MarkMiss Mark = iota
	MarkPresent
	MarkHit
)

// Symbol returns the single-letter form used on the wire ("b", "y", "g").
func (m Mark) Symbol() byte {
	switch m {
	case MarkHit:
		return 'g'
	case MarkPresent:
		return 'y'
	default:
		return 'b'
	}
}

func (m Mark) String() string {
	switch m {
	case MarkHit:
		return "hit"
	case MarkPresent:
		return "present"
	default:
		return "miss"
	}
}

// Pattern is the feedback for a whole guess.
type Pattern [Length]Mark

// AllHit is the pattern of a solved round.
var AllHit = Pattern{MarkHit, MarkHit, MarkHit, MarkHit, MarkHit}

// Parse reads a pattern of b/y/g symbols (case-insensitive).
func Parse(s string) (Pattern, error) {
	var p Pattern
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != Length {
		return p, fmt.Errorf("pattern must be %d symbols, got %d", Length, len(s))
	}
	for i := 0; i < Length; i++ {
		switch s[i] {
		case 'b':
			p[i] = MarkMiss
		case 'y':
			p[i] = MarkPresent
		case 'g':
			p[i] = MarkHit
		default:
			return p, fmt.Errorf("pattern symbol %q at %d is not one of b, y, g", s[i], i)
		}
	}
	return p, nil
}

// String renders the pattern as b/y/g symbols, e.g. "gybbg".
func (p Pattern) String() string {
	var b [Length]byte
	for i, m := range p {
		b[i] = m.Symbol()
	}
	return string(b[:])
}

// IsAllHit reports whether every mark is MarkHit.
func (p Pattern) IsAllHit() bool { return p == AllHit }

// Code packs the pattern into 0..NumPatterns-1 (base 3, position 0 most significant).
func (p Pattern) Code() uint8 {
	var c uint8
	for _, m := range p {
		c = c*3 + uint8(m)
	}
	return c
}

// MarshalText lets patterns travel as "gybbg" strings in JSON.
func (p Pattern) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText is the inverse of MarshalText.
func (p *Pattern) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
