// internal/config/config.go
//
// Process configuration for the solver server.
// Responsibilities:
//   - Loading .env (if present) via godotenv, then reading environment variables.
//   - Applying defaults for every setting.
//   - Configuring the global zerolog logger (level + output format).

package config

import (
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/solver-server/internal/rank"
)

// Config holds every setting read from the environment.
type Config struct {
	Port         string
	LogLevel     string
	LogFormat    string // "json" | "console"
	ClientOrigin string

	WordsAllowedFile string
	WordsLikelyFile  string

	OpeningWord     string
	TopN            int
	SampleThreshold int
	PoolSize        int
	Workers         int
	Seed            *int64 // nil = time-seeded
	Debounce        time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	HistoryDB      string // empty disables the journal
	RequestTimeout time.Duration
	SessionTTL     time.Duration // idle sessions older than this are swept
	DailySalt      string        // seeds the word of the day for simulations
}

// DevJWTSecret is used when JWT_SECRET is unset.
const DevJWTSecret = "dev-insecure-secret"

// Load reads .env (ignored when missing) and the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment without touching .env.
func FromEnv() Config {
	c := Config{
		Port:         getEnv("PORT", "5175"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),

		WordsAllowedFile: os.Getenv("WORDS_ALLOWED_FILE"),
		WordsLikelyFile:  os.Getenv("WORDS_LIKELY_FILE"),

		OpeningWord:     getEnv("OPENING_WORD", rank.DefaultOpening),
		TopN:            getInt("RANK_TOP_N", rank.DefaultTopN),
		SampleThreshold: getInt("RANK_SAMPLE_THRESHOLD", rank.DefaultSampleThreshold),
		PoolSize:        getInt("RANK_POOL_SIZE", rank.DefaultPoolSize),
		Workers:         getInt("RANK_WORKERS", runtime.GOMAXPROCS(0)),
		Debounce:        time.Duration(getInt("RANK_DEBOUNCE_MS", 200)) * time.Millisecond,

		JWTSecret: getEnv("JWT_SECRET", DevJWTSecret),
		TokenTTL:  time.Duration(getInt("TOKEN_TTL_HOURS", 24)) * time.Hour,

		HistoryDB:      os.Getenv("HISTORY_DB"),
		RequestTimeout: time.Duration(getInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
		SessionTTL:     time.Duration(getInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		DailySalt:      getEnv("DAILY_SALT", "local_dev_salt"),
	}
	if v := os.Getenv("RANK_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = &n
		} else {
			log.Warn().Str("RANK_SEED", v).Msg("ignoring non-numeric seed")
		}
	}
	if c.JWTSecret == DevJWTSecret {
		log.Warn().Msg("JWT_SECRET not set, using development secret")
	}
	return c
}

// RankConfig translates the ranking settings. likely is the likely-answers list.
func (c Config) RankConfig(likely []string) rank.Config {
	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}
	return rank.Config{
		Opening:         c.OpeningWord,
		TopN:            c.TopN,
		SampleThreshold: c.SampleThreshold,
		PoolSize:        c.PoolSize,
		Workers:         c.Workers,
		Likely:          likely,
		Source:          rand.NewSource(seed),
	}
}

// SetupLogging configures the global zerolog logger.
func (c Config) SetupLogging() {
	if lvl, err := zerolog.ParseLevel(c.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("LOG_LEVEL", c.LogLevel).Msg("unknown log level, keeping default")
	}
	if c.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str(k, v).Int("default", def).Msg("ignoring non-numeric value")
		return def
	}
	return n
}
