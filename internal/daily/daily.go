// Package daily derives a deterministic "word of the day" from a salted
// date, so self-play simulations can run against the same answer all day.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Index maps a date to 0..n-1 using HMAC-SHA256(salt, YYYY-MM-DD).
func Index(t time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(t)))
	sum := h.Sum(nil)
	return int(binary.BigEndian.Uint64(sum[:8]) % uint64(n))
}

// Word picks the day's answer from list; "" when list is empty.
func Word(t time.Time, salt string, list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[Index(t, salt, len(list))]
}
