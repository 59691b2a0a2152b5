// internal/pattern/score.go
//
// The feedback oracle: compares a guess against an answer and produces a Pattern.
//
// Notes:
//   - Inputs are assumed validated (Length lowercase letters); the function is total
//     and never fails.
//   - Repeated letters are never credited more often than they occur in the answer.

package pattern

// Score implements the two-pass Wordle scoring algorithm.
//
// Pass 1:
//   - Mark exact matches as Hit and consume that answer letter.
//
// Pass 2:
//   - For each non-hit guess letter, take the leftmost unconsumed equal letter of the
//     answer; if there is one, mark Present and consume it, otherwise leave Miss.
func Score(guess, answer string) Pattern {
	var p Pattern
	var rest [Length]byte
	copy(rest[:], answer)

	// First pass: hits.
	for i := 0; i < Length; i++ {
		if guess[i] == rest[i] {
			p[i] = MarkHit
			rest[i] = 0
		}
	}

	// Second pass: presents for the remaining tiles.
	for i := 0; i < Length; i++ {
		if p[i] == MarkHit {
			continue
		}
		for j := 0; j < Length; j++ {
			if rest[j] != 0 && rest[j] == guess[i] {
				p[i] = MarkPresent
				rest[j] = 0
				break
			}
		}
	}
	return p
}

// Credited returns how many Hit+Present marks each letter of guess received.
func Credited(guess string, p Pattern) [26]int {
	var n [26]int
	for i := 0; i < Length; i++ {
		if p[i] != MarkMiss {
			n[guess[i]-'a']++
		}
	}
	return n
}
