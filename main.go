package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/solver-server/internal/config"
	"github.com/robalobadob/wordle/apps/solver-server/internal/httpserver"
	"github.com/robalobadob/wordle/apps/solver-server/internal/journal"
	"github.com/robalobadob/wordle/apps/solver-server/internal/rank"
	"github.com/robalobadob/wordle/apps/solver-server/internal/store"
	"github.com/robalobadob/wordle/apps/solver-server/internal/words"
)

func main() {
	cfg := config.Load()
	cfg.SetupLogging()

	var jr *journal.Journal
	if cfg.HistoryDB != "" {
		j, err := journal.Open(cfg.HistoryDB)
		if err != nil {
			log.Fatal().Err(err).Str("db", cfg.HistoryDB).Msg("failed to open journal")
		}
		jr = j
		log.Info().Str("db", cfg.HistoryDB).Msg("solve journal enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mem := store.NewMemoryStore()
	srv := httpserver.New(cfg, mem, jr)

	// serve /health and the loading state while the lists are read
	go loadWords(cfg, srv)
	go sweep(ctx, mem, cfg.SessionTTL)

	log.Info().Str("port", cfg.Port).Msg("starting solver-server")
	err := srv.Run(ctx, ":"+cfg.Port)
	if jr != nil {
		if cerr := jr.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("close journal")
		}
	}
	if err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("solver-server stopped")
}

func loadWords(cfg config.Config, srv *httpserver.Server) {
	lists, err := words.Load(cfg.WordsAllowedFile, cfg.WordsLikelyFile)
	if err != nil {
		log.Error().Err(err).Msg("failed to load word lists, solver stays in loading state")
		return
	}
	srv.SetEngine(lists, rank.New(cfg.RankConfig(lists.Likely)))
}

func sweep(ctx context.Context, mem *store.Memory, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	t := time.NewTicker(ttl / 4)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := mem.Sweep(ttl); n > 0 {
				log.Debug().Int("removed", n).Int("live", mem.Len()).Msg("swept idle sessions")
			}
		}
	}
}
