// Package config loads configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime settings.
type Config struct {
	DatabaseURL   string `env:"DATABASE_URL" envDefault:"sqlite://village.db"`
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	RedisAddr     string `env:"REDIS_ADDR"`
	NotifyPrefix  string `env:"NOTIFY_PREFIX" envDefault:"village"`
	DramaChannel  string `env:"DRAMA_CHANNEL" envDefault:"town-square"`
	TraceEndpoint string `env:"TRACE_ENDPOINT"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	RandomSeed    uint64 `env:"RANDOM_SEED"`
	AdminToken    string `env:"ADMIN_TOKEN"`

	Narrator     NarratorConfig     `envPrefix:"NARRATOR_"`
	Decay        DecayConfig        `envPrefix:"DECAY_"`
	Drama        DramaConfig        `envPrefix:"DRAMA_"`
	Relationship RelationshipConfig `envPrefix:"RELATIONSHIP_"`
	Care         CareConfig         `envPrefix:"CARE_"`
}

// NarratorConfig selects the text generator for epitaphs and drama retellings.
type NarratorConfig struct {
	Provider string        `env:"PROVIDER" envDefault:"none"`
	Model    string        `env:"MODEL"`
	APIKey   string        `env:"API_KEY"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// DecayConfig holds the pet decay rules.
type DecayConfig struct {
	Interval          time.Duration `env:"INTERVAL" envDefault:"2m"`
	HungerGain        int           `env:"HUNGER_GAIN" envDefault:"5"`
	Natural           int           `env:"NATURAL" envDefault:"1"`
	SevereThreshold   int           `env:"SEVERE_THRESHOLD" envDefault:"80"`
	SevereDamage      int           `env:"SEVERE_DAMAGE" envDefault:"3"`
	ModerateThreshold int           `env:"MODERATE_THRESHOLD" envDefault:"50"`
	ModerateDamage    int           `env:"MODERATE_DAMAGE" envDefault:"1"`
	MaxHealth         int           `env:"MAX_HEALTH" envDefault:"100"`
	MaxHunger         int           `env:"MAX_HUNGER" envDefault:"100"`
	HealthCritical    int           `env:"HEALTH_CRITICAL" envDefault:"20"`
	HungerCritical    int           `env:"HUNGER_CRITICAL" envDefault:"80"`
}

// DramaConfig holds drama cadence, generation chances and outcome deltas.
type DramaConfig struct {
	Interval       time.Duration `env:"INTERVAL" envDefault:"5m"`
	VoteWindow     time.Duration `env:"VOTE_WINDOW" envDefault:"2m"`
	RomanceChance  float64       `env:"ROMANCE_CHANCE" envDefault:"0.3"`
	ConflictChance float64       `env:"CONFLICT_CHANCE" envDefault:"0.4"`
	FightChance    float64       `env:"FIGHT_CHANCE" envDefault:"0.5"`
	ReconcileBonus int           `env:"RECONCILE_BONUS" envDefault:"15"`
	BreakupPenalty int           `env:"BREAKUP_PENALTY" envDefault:"-30"`
	FightPenalty   int           `env:"FIGHT_PENALTY" envDefault:"-10"`
	ForgiveBonus   int           `env:"FORGIVE_BONUS" envDefault:"10"`
	JusticePenalty int           `env:"JUSTICE_PENALTY" envDefault:"-25"`
	SpreadPenalty  int           `env:"SPREAD_PENALTY" envDefault:"-5"`
	SupportBonus   int           `env:"SUPPORT_BONUS" envDefault:"10"`
	OpposePenalty  int           `env:"OPPOSE_PENALTY" envDefault:"-10"`
	AllianceBonus  int           `env:"ALLIANCE_BONUS" envDefault:"10"`
	ScandalPenalty int           `env:"SCANDAL_PENALTY" envDefault:"-10"`
}

// RelationshipConfig holds the score bounds and bucket thresholds.
type RelationshipConfig struct {
	Min     int `env:"MIN" envDefault:"0"`
	Max     int `env:"MAX" envDefault:"100"`
	Default int `env:"DEFAULT" envDefault:"50"`
	Lovers  int `env:"LOVERS" envDefault:"80"`
	Friends int `env:"FRIENDS" envDefault:"60"`
	Neutral int `env:"NEUTRAL" envDefault:"40"`
	Rivals  int `env:"RIVALS" envDefault:"20"`
}

// CareConfig holds feed/heal amounts and the starting inventory.
type CareConfig struct {
	FeedReduction   int `env:"FEED_REDUCTION" envDefault:"30"`
	HealRestoration int `env:"HEAL_RESTORATION" envDefault:"25"`
	StartFood       int `env:"START_FOOD" envDefault:"5"`
	StartMedicine   int `env:"START_MEDICINE" envDefault:"2"`
	StartCoal       int `env:"START_COAL" envDefault:"0"`
}

// Load reads env vars, applies defaults, and validates the result.
func Load() Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Parse reads env vars and returns a validated Config.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required (postgres://... or sqlite://path)"))
	}
	if c.Decay.Interval <= 0 {
		errs = append(errs, errors.New("DECAY_INTERVAL must be positive"))
	}
	if c.Decay.MaxHealth <= 0 || c.Decay.MaxHunger <= 0 {
		errs = append(errs, errors.New("DECAY_MAX_HEALTH and DECAY_MAX_HUNGER must be positive"))
	}
	if c.Decay.ModerateThreshold > c.Decay.SevereThreshold {
		errs = append(errs, errors.New("DECAY_MODERATE_THRESHOLD must not exceed DECAY_SEVERE_THRESHOLD"))
	}
	if c.Drama.Interval <= 0 {
		errs = append(errs, errors.New("DRAMA_INTERVAL must be positive"))
	}
	if c.Drama.VoteWindow <= 0 {
		errs = append(errs, errors.New("DRAMA_VOTE_WINDOW must be positive"))
	}
	for name, p := range map[string]float64{
		"DRAMA_ROMANCE_CHANCE":  c.Drama.RomanceChance,
		"DRAMA_CONFLICT_CHANCE": c.Drama.ConflictChance,
		"DRAMA_FIGHT_CHANCE":    c.Drama.FightChance,
	} {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1]", name))
		}
	}
	r := c.Relationship
	if !(r.Min <= r.Rivals && r.Rivals <= r.Neutral && r.Neutral <= r.Friends && r.Friends <= r.Lovers && r.Lovers <= r.Max) {
		errs = append(errs, errors.New("relationship thresholds must satisfy MIN <= RIVALS <= NEUTRAL <= FRIENDS <= LOVERS <= MAX"))
	}
	if r.Default < r.Min || r.Default > r.Max {
		errs = append(errs, errors.New("RELATIONSHIP_DEFAULT must be within [MIN,MAX]"))
	}
	if c.Care.FeedReduction <= 0 || c.Care.HealRestoration <= 0 {
		errs = append(errs, errors.New("CARE_FEED_REDUCTION and CARE_HEAL_RESTORATION must be positive"))
	}
	switch c.Narrator.Provider {
	case "none", "":
	case "gemini", "grok", "openrouter", "openai":
		if c.Narrator.APIKey == "" {
			errs = append(errs, fmt.Errorf("NARRATOR_API_KEY is required for provider %q", c.Narrator.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NARRATOR_PROVIDER %q", c.Narrator.Provider))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel maps LOG_LEVEL to a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}
