// internal/rank/rank.go
//
// Guess ranking: scores candidate guesses by how well they partition the
// remaining candidate set.
//
// Responsibilities:
//   - Partition the candidates by feedback pattern for every guess in the pool.
//   - Score each guess by entropy (expected bits) and worst-case bucket size.
//   - Order by entropy desc, then worst case desc, then pool order; keep the top N.
//   - Sample the guess pool when the candidate set is large (seedable source).
//
// Notes:
//   - The scan is read-only over its inputs and runs in parallel (errgroup).
//   - Rank only fails when ctx is cancelled; the Session uses that to drop stale
//     rounds.

package rank

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/wordle/apps/solver-server/internal/pattern"
)

const (
	DefaultOpening         = "salet"
	DefaultTopN            = 15
	DefaultSampleThreshold = 1000
	DefaultPoolSize        = 500
)

// Scored is one ranked guess.
type Scored struct {
	Word      string  `json:"word"`
	WorstCase int     `json:"worstCase"` // size of the largest remaining bucket
	Entropy   float64 `json:"entropy"`   // expected information in bits
}

// Result is the output of a ranking pass.
type Result struct {
	Best   string   `json:"best"`
	Ranked []Scored `json:"ranked"`
}

// Config tunes a Ranker. Zero values fall back to the defaults above.
type Config struct {
	Opening         string      // proposed guess for the first round
	TopN            int         // number of ranked guesses kept
	SampleThreshold int         // candidate count above which the guess pool is sampled; <0 disables sampling
	PoolSize        int         // guess pool size when sampling
	Workers         int         // parallel scan width; 0 means GOMAXPROCS
	Likely          []string    // preferred guesses when sampling
	Source          rand.Source // sampling source; nil means time-seeded
	Progress        func()      // called once per scored guess, from worker goroutines
}

// Ranker scores guesses. It is safe for concurrent use.
type Ranker struct {
	cfg    Config
	likely map[string]struct{}

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

// New constructs a Ranker, filling unset Config fields with defaults.
func New(cfg Config) *Ranker {
	if cfg.Opening == "" {
		cfg.Opening = DefaultOpening
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.SampleThreshold == 0 {
		cfg.SampleThreshold = DefaultSampleThreshold
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Source == nil {
		cfg.Source = rand.NewSource(time.Now().UnixNano())
	}
	likely := make(map[string]struct{}, len(cfg.Likely))
	for _, w := range cfg.Likely {
		likely[w] = struct{}{}
	}
	return &Ranker{cfg: cfg, likely: likely, rnd: rand.New(cfg.Source)}
}

// Opening returns the precomputed first-round guess.
func (r *Ranker) Opening() string { return r.cfg.Opening }

// Rank proposes the next guess for the given candidates.
//
// Special cases:
//   - firstRound: the configured opening word, no ranked list.
//   - one candidate: that word (worst case 1, entropy 0).
//   - two candidates: both, the lexicographically later word first.
func (r *Ranker) Rank(ctx context.Context, candidates []string, firstRound bool) (Result, error) {
	if firstRound {
		return Result{Best: r.cfg.Opening, Ranked: []Scored{}}, nil
	}
	switch len(candidates) {
	case 0:
		return Result{Ranked: []Scored{}}, nil
	case 1:
		return Result{Best: candidates[0], Ranked: []Scored{{Word: candidates[0], WorstCase: 1}}}, nil
	case 2:
		a, b := candidates[0], candidates[1]
		if a < b {
			a, b = b, a
		}
		return Result{Best: a, Ranked: []Scored{
			{Word: a, WorstCase: 1, Entropy: 1},
			{Word: b, WorstCase: 1, Entropy: 1},
		}}, nil
	}

	pool := r.pool(candidates)
	scores, err := r.scan(ctx, pool, candidates)
	if err != nil {
		return Result{}, err
	}

	sort.SliceStable(scores, func(i, j int) bool { return better(scores[i], scores[j]) })
	if len(scores) > r.cfg.TopN {
		scores = scores[:r.cfg.TopN]
	}
	best := candidates[0]
	if len(scores) > 0 {
		best = scores[0].Word
	}
	return Result{Best: best, Ranked: scores}, nil
}

// better orders by entropy (higher first), then by worst case (larger first).
func better(a, b Scored) bool {
	if a.Entropy != b.Entropy {
		return a.Entropy > b.Entropy
	}
	return a.WorstCase > b.WorstCase
}

// scan evaluates every guess of pool against candidates, in parallel.
func (r *Ranker) scan(ctx context.Context, pool, candidates []string) ([]Scored, error) {
	scores := make([]Scored, len(pool))
	g, gctx := errgroup.WithContext(ctx)

	workers := r.cfg.Workers
	if workers > len(pool) {
		workers = len(pool)
	}
	chunk := (len(pool) + workers - 1) / workers
	for lo := 0; lo < len(pool); lo += chunk {
		lo, hi := lo, min(lo+chunk, len(pool))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				scores[i] = Evaluate(pool[i], candidates)
				if r.cfg.Progress != nil {
					r.cfg.Progress()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// a cancellation that lands after the last guess was scored is still stale
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}

// Evaluate partitions candidates by the feedback they would give to guess.
func Evaluate(guess string, candidates []string) Scored {
	var hist [pattern.NumPatterns]int
	for _, a := range candidates {
		hist[pattern.Score(guess, a).Code()]++
	}
	counts := make([]int, 0, 32)
	worst := 0
	for _, n := range hist {
		if n == 0 {
			continue
		}
		counts = append(counts, n)
		if n > worst {
			worst = n
		}
	}
	return Scored{Word: guess, WorstCase: worst, Entropy: entropy(counts, len(candidates))}
}

// entropy is Σ p·log2(1/p) over bucket sizes. Counts are summed in sorted order so
// that equal partitions always produce bit-identical results.
func entropy(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	sort.Ints(counts)
	var h float64
	for _, n := range counts {
		p := float64(n) / float64(total)
		h += p * math.Log2(1/p)
	}
	return h
}

// pool picks the guesses to score. Small candidate sets are scanned in full;
// large ones are cut to PoolSize with likely answers first and a random sample
// of the rest.
func (r *Ranker) pool(candidates []string) []string {
	if r.cfg.SampleThreshold < 0 || len(candidates) <= r.cfg.SampleThreshold || len(candidates) <= r.cfg.PoolSize {
		return candidates
	}
	pool := make([]string, 0, r.cfg.PoolSize)
	rest := make([]string, 0, len(candidates))
	for _, w := range candidates {
		if _, ok := r.likely[w]; ok && len(pool) < r.cfg.PoolSize {
			pool = append(pool, w)
			continue
		}
		rest = append(rest, w)
	}

	need := r.cfg.PoolSize - len(pool)
	r.mu.Lock()
	// partial Fisher-Yates: the first `need` slots end up a uniform sample
	for i := 0; i < need && i < len(rest); i++ {
		j := i + r.rnd.Intn(len(rest)-i)
		rest[i], rest[j] = rest[j], rest[i]
	}
	r.mu.Unlock()

	return append(pool, rest[:min(need, len(rest))]...)
}
