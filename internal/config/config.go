// Package config reads runtime settings from flags, the environment and an
// optional .env file.
package config

import (
    "errors"
    "flag"
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// DefaultCards is the animal deck the game ships with.
var DefaultCards = []string{
    "Dog", "Cat", "Squirrel", "Horse", "Parrot", "Ferret",
    "Pig", "Cow", "Snake", "Lion", "Giraffe", "Human",
}

// Validation errors.
var (
    ErrNoCards       = errors.New("no cards configured")
    ErrNegativeDelay = errors.New("delay must not be negative")
)

// Config holds the settings for one server process.
type Config struct {
    Addr          string
    DeckName      string
    Cards         []string
    EvalDelay     time.Duration
    MismatchDelay time.Duration
    // Seed fixes the shuffle source; 0 means random.
    Seed uint64
}

// LoadDotEnv loads .env from the working directory if one exists.
func LoadDotEnv() error {
    if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
        return fmt.Errorf("load .env: %w", err)
    }
    return nil
}

// Register defines the config flags on fs with defaults taken from env.
// The returned Config is filled in when fs is parsed.
func Register(fs *flag.FlagSet, env func(string) string) *Config {
    if env == nil {
        env = os.Getenv
    }
    c := &Config{}
    fs.StringVar(&c.Addr, "addr", envOr(env, "MEMORY_ADDR", ":8080"), "HTTP listen address")
    fs.StringVar(&c.DeckName, "deck-name", envOr(env, "MEMORY_DECK_NAME", "Animals"), "Name of the deck")
    c.Cards = splitCards(envOr(env, "MEMORY_CARDS", strings.Join(DefaultCards, ",")))
    fs.Func("cards", "Comma separated card names", func(v string) error {
        c.Cards = splitCards(v)
        return nil
    })
    fs.DurationVar(&c.EvalDelay, "eval-delay", durationOr(env, "MEMORY_EVAL_DELAY", 500*time.Millisecond), "Delay before a selected pair is evaluated")
    fs.DurationVar(&c.MismatchDelay, "mismatch-delay", durationOr(env, "MEMORY_MISMATCH_DELAY", 700*time.Millisecond), "How long a mismatched pair stays revealed")
    fs.Uint64Var(&c.Seed, "seed", uint64Or(env, "MEMORY_SEED", 0), "Shuffle seed, 0 for random")
    return c
}

// Validate checks settings that do not depend on deck geometry.
func (c *Config) Validate() error {
    if len(c.Cards) == 0 {
        return ErrNoCards
    }
    if c.EvalDelay < 0 || c.MismatchDelay < 0 {
        return ErrNegativeDelay
    }
    return nil
}

func splitCards(v string) []string {
    var out []string
    for _, p := range strings.Split(v, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

func envOr(env func(string) string, key, def string) string {
    if v := env(key); v != "" {
        return v
    }
    return def
}

func durationOr(env func(string) string, key string, def time.Duration) time.Duration {
    if d, err := time.ParseDuration(env(key)); err == nil {
        return d
    }
    return def
}

func uint64Or(env func(string) string, key string, def uint64) uint64 {
    if n, err := strconv.ParseUint(env(key), 10, 64); err == nil {
        return n
    }
    return def
}
