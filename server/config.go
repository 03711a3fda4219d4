package server

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/wozlab/humanchat/rendezvous"
)

// Config is the humanchat server configuration.
type Config struct {
	// Listen is the TCP address to serve on (e.g. ":8080").
	Listen string

	// ModelID and ModelOwner are the identity of the single synthetic
	// model this backend advertises.
	ModelID    string
	ModelOwner string

	// AnswerTimeout bounds how long a request waits for the operator.
	// Zero disables the budget.
	AnswerTimeout time.Duration

	// TypingPace is the cosmetic delay between streamed frames.
	TypingPace time.Duration

	// PendingPolicy decides the fate of a request arriving while
	// MaxInFlight requests are already awaiting answers.
	PendingPolicy rendezvous.Policy
	MaxInFlight   int
}

// DefaultConfig returns the configuration used when no file and no flags
// are given.
func DefaultConfig() Config {
	return Config{
		Listen:        ":8080",
		ModelID:       "human",
		ModelOwner:    "human-backend",
		AnswerTimeout: 5 * time.Minute,
		TypingPace:    0,
		PendingPolicy: rendezvous.PolicyReject,
		MaxInFlight:   1,
	}
}

// fileConfig is the TOML shape of the config file. Absent keys keep their
// defaults.
type fileConfig struct {
	Server struct {
		Listen string `toml:"listen"`
	} `toml:"server"`
	Model struct {
		ID    string `toml:"id"`
		Owner string `toml:"owner"`
	} `toml:"model"`
	Answer struct {
		Timeout    string `toml:"timeout"`
		TypingPace string `toml:"typing_pace"`
	} `toml:"answer"`
	Pending struct {
		Policy      string `toml:"policy"`
		MaxInFlight int    `toml:"max_in_flight"`
	} `toml:"pending"`
}

// LoadConfig reads a TOML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	if fc.Server.Listen != "" {
		cfg.Listen = fc.Server.Listen
	}
	if fc.Model.ID != "" {
		cfg.ModelID = fc.Model.ID
	}
	if fc.Model.Owner != "" {
		cfg.ModelOwner = fc.Model.Owner
	}
	if fc.Answer.Timeout != "" {
		d, err := time.ParseDuration(fc.Answer.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("answer.timeout: %w", err)
		}
		cfg.AnswerTimeout = d
	}
	if fc.Answer.TypingPace != "" {
		d, err := time.ParseDuration(fc.Answer.TypingPace)
		if err != nil {
			return Config{}, fmt.Errorf("answer.typing_pace: %w", err)
		}
		cfg.TypingPace = d
	}
	if fc.Pending.Policy != "" {
		p, err := rendezvous.ParsePolicy(fc.Pending.Policy)
		if err != nil {
			return Config{}, fmt.Errorf("pending.policy: %w", err)
		}
		cfg.PendingPolicy = p
	}
	if fc.Pending.MaxInFlight > 0 {
		cfg.MaxInFlight = fc.Pending.MaxInFlight
	}

	return cfg, nil
}
