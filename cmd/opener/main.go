// cmd/opener
//
// Precomputes first-round guesses: ranks every candidate against the full
// candidate set and prints the top N. The server's OPENING_WORD comes from here.
//
//	go run ./cmd/opener -top 10
//	go run ./cmd/opener -candidates likely -workers 8
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/robalobadob/wordle/apps/solver-server/internal/rank"
	"github.com/robalobadob/wordle/apps/solver-server/internal/words"
)

func main() {
	var (
		allowed    = flag.String("words", "", "dictionary file (default: embedded list)")
		likely     = flag.String("likely", "", "likely answers file (default: embedded list)")
		candidates = flag.String("candidates", "all", `candidate set: "all" (dictionary) or "likely"`)
		top        = flag.Int("top", 10, "number of guesses to print")
		pool       = flag.Int("pool", 0, "sample the guess pool down to this size (0 scans every candidate)")
		workers    = flag.Int("workers", 0, "parallel scan width (0 = GOMAXPROCS)")
		seed       = flag.Int64("seed", 1, "sampling seed")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	lists, err := words.Load(*allowed, *likely)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word lists")
	}
	set := lists.Dictionary
	if *candidates == "likely" {
		set = lists.Likely
	}
	if len(set) < 3 {
		log.Fatal().Int("candidates", len(set)).Msg("need at least 3 candidates")
	}

	threshold, total := -1, len(set)
	if *pool > 0 && *pool < len(set) {
		threshold, total = *pool, *pool
	}
	bar := progressbar.Default(int64(total))

	r := rank.New(rank.Config{
		TopN:            *top,
		SampleThreshold: threshold,
		PoolSize:        *pool,
		Workers:         *workers,
		Likely:          lists.Likely,
		Source:          rand.NewSource(*seed),
		Progress:        func() { _ = bar.Add(1) },
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info().Int("candidates", len(set)).Int("pool", total).Str("dictionary", lists.Fingerprint).Msg("ranking opening guesses")
	start := time.Now()
	res, err := r.Rank(ctx, set, false)
	_ = bar.Finish()
	if err != nil {
		log.Fatal().Err(err).Msg("ranking interrupted")
	}
	log.Info().Dur("took", time.Since(start)).Msg("done")

	fmt.Printf("%-4s %-6s %8s %6s\n", "#", "word", "entropy", "worst")
	for i, sc := range res.Ranked {
		fmt.Printf("%-4d %-6s %8.4f %6d\n", i+1, sc.Word, sc.Entropy, sc.WorstCase)
	}
}
