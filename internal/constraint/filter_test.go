package constraint

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/apps/solver-server/internal/pattern"
)

func TestFilterAllMiss(t *testing.T) {
	words := []string{"crane", "slate", "trace"}
	st := Store{}.Update("crane", mustParse(t, "bbbbb"))

	got := Filter(words, st)
	assert.NotContains(t, got, "slate")
	assert.Empty(t, got)
}

func TestFilterKeepsOrder(t *testing.T) {
	words := []string{"trace", "those", "crane", "chose", "slate"}
	st := Store{}.Update("prose", mustParse(t, "bbggg"))
	assert.Equal(t, []string{"those", "chose"}, Filter(words, st))
}

func TestFilterRepeatedLetters(t *testing.T) {
	words := []string{"those", "these", "geese", "chose", "eases"}
	st := Store{}.Update("geese", pattern.Score("geese", "those"))

	// "those" survives although e was reported as a miss twice
	assert.Equal(t, []string{"those", "chose"}, Filter(words, st))
}

func TestFilterForbiddenButConfirmed(t *testing.T) {
	st := Store{}.Update("eight", mustParse(t, "bbbbb"))
	st = st.Update("wxyze", mustParse(t, "bbbbg"))

	assert.True(t, Matches("elope", st), "e is fixed at 4 so it may also appear elsewhere")
	assert.False(t, Matches("there", st))
	assert.False(t, Matches("bonus", st))
}

func TestFilterPresentMustOccur(t *testing.T) {
	st := Store{}.Update("crane", mustParse(t, "bbybb"))
	assert.False(t, Matches("stoic", st), "a was present, so words without a are out")
	assert.False(t, Matches("plaid", st), "a cannot sit where it was reported present")
	assert.False(t, Matches("sat", st), "wrong length never matches")
	assert.True(t, Matches("squad", st))
}

func TestFilterIdempotent(t *testing.T) {
	st := Store{}.Update("speed", pattern.Score("speed", "abide"))
	once := Filter(sampleWords, st)
	assert.Equal(t, once, Filter(once, st))
}

func TestFilterMonotonic(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	for n := 0; n < 100; n++ {
		answer := sampleWords[rnd.Intn(len(sampleWords))]
		st := Store{}
		cands := sampleWords
		for round := 0; round < 4; round++ {
			guess := sampleWords[rnd.Intn(len(sampleWords))]
			st = st.Update(guess, pattern.Score(guess, answer))
			next := Filter(cands, st)
			require.Subset(t, cands, next)
			require.Contains(t, next, answer)
			cands = next
		}
	}
}

func TestFilterImpossible(t *testing.T) {
	// synthetic feedback no word can satisfy: z fixed everywhere
	st := Store{}.Update("zzzzz", pattern.AllHit).Update("abcde", mustParse(t, "yyyyy"))
	assert.Empty(t, Filter(sampleWords, st))
}
