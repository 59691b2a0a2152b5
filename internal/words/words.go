// internal/words/words.go
//
// Provides word list management for the solver.
//
// Responsibilities:
//   - Load the dictionary and the likely-answers list from environment-provided
//     files or fall back to the embedded defaults in assets.
//   - Keep list order (it drives filtering order and ranking tie-breaks).
//   - Fingerprint the dictionary so journal rows can be compared across lists.
//
// Word Lists:
//   - "dictionary": every valid guess; the starting candidate set.
//   - "likely":     answers to prefer when the guess pool is sampled (optional).
//
// Loading behavior (Load):
//   1. If allowedPath is set, read it; read likelyPath too when set.
//   2. Otherwise use the embedded words.txt / likely.txt.
//   Likely words missing from the dictionary are appended to it.
//
// Constraints:
//   • Words must be 5 alphabetic letters (a–z); other lines are skipped.
//   • Lists are normalized to lowercase and de-duplicated (first occurrence wins).

package words

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/robalobadob/wordle/apps/solver-server/assets"
	"github.com/robalobadob/wordle/apps/solver-server/internal/pattern"
)

// ErrEmptyList is returned when no usable dictionary words were loaded.
var ErrEmptyList = errors.New("words: dictionary is empty")

// Lists holds the loaded word lists. It is read-only after Load.
type Lists struct {
	Dictionary  []string
	Likely      []string
	Fingerprint string

	allowed map[string]struct{}
}

// Load reads the word lists. Empty paths select the embedded defaults.
func Load(allowedPath, likelyPath string) (*Lists, error) {
	var dict, likely []string
	var err error

	switch {
	case allowedPath != "":
		if dict, err = readWordFile(allowedPath); err != nil {
			return nil, fmt.Errorf("read dictionary %s: %w", allowedPath, err)
		}
		if likelyPath != "" {
			if likely, err = readWordFile(likelyPath); err != nil {
				return nil, fmt.Errorf("read likely list %s: %w", likelyPath, err)
			}
		}
	default:
		raw, err := assets.DictionaryList()
		if err != nil {
			return nil, fmt.Errorf("embedded dictionary: %w", err)
		}
		dict = normalize(raw)
		if likelyPath != "" {
			if likely, err = readWordFile(likelyPath); err != nil {
				return nil, fmt.Errorf("read likely list %s: %w", likelyPath, err)
			}
			break
		}
		raw, err = assets.LikelyList()
		if err != nil {
			return nil, fmt.Errorf("embedded likely list: %w", err)
		}
		likely = normalize(raw)
	}
	return New(dict, likely)
}

// New builds Lists from in-memory words (already normalized or not).
func New(dict, likely []string) (*Lists, error) {
	l := &Lists{Dictionary: normalize(dict), Likely: normalize(likely)}
	l.allowed = toSet(l.Dictionary)
	// ensure every likely answer is also a valid guess
	for _, w := range l.Likely {
		if _, ok := l.allowed[w]; !ok {
			l.allowed[w] = struct{}{}
			l.Dictionary = append(l.Dictionary, w)
		}
	}
	if len(l.Dictionary) == 0 {
		return nil, ErrEmptyList
	}
	l.Fingerprint = fingerprint(l.Dictionary)
	return l, nil
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readWords(f)
}

// readWords scans newline-separated words, keeping only valid ones.
func readWords(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return normalize(out), nil
}

// normalize lowercases and trims, drops invalid words and duplicates.
func normalize(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, line := range in {
		w := strings.TrimSpace(strings.ToLower(line))
		if !Valid(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// toSet converts a list of strings into a lookup set.
func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

// Valid reports whether s is exactly pattern.Length lowercase ASCII letters.
func Valid(s string) bool {
	if len(s) != pattern.Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

// fingerprint is a short blake2b digest of the list, order included.
func fingerprint(list []string) string {
	sum := blake2b.Sum256([]byte(strings.Join(list, "\n")))
	return hex.EncodeToString(sum[:8])
}

// IsAllowed reports whether w is in the dictionary.
func (l *Lists) IsAllowed(w string) bool {
	_, ok := l.allowed[strings.ToLower(w)]
	return ok
}

// Stats returns counts of loaded words: (dictionary, likely).
func (l *Lists) Stats() (dictionaryCount int, likelyCount int) {
	return len(l.Dictionary), len(l.Likely)
}
