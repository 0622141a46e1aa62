package drama

import (
	"time"

	"github.com/easeaico/pet-village/internal/config"
	"github.com/easeaico/pet-village/internal/types"
)

// Family groups categories that share vote options.
type Family int

const (
	FamilyReaction Family = iota
	FamilyConflict
	FamilyJustice
)

// Option labels.
const (
	OptionReconcile = "reconcile"
	OptionBreakup   = "breakup"
	OptionFight     = "fight"
	OptionForgive   = "forgive"
	OptionJustice   = "justice"
	OptionSpread    = "spread"
	OptionSupport   = "support"
	OptionOppose    = "oppose"
	OptionNeutral   = "neutral"
)

// FamilyOf returns the resolution family of category.
func FamilyOf(category types.DramaCategory) Family {
	switch category {
	case types.DramaRomanceConflict:
		return FamilyConflict
	case types.DramaBetrayal, types.DramaScandal:
		return FamilyJustice
	default:
		return FamilyReaction
	}
}

// Options returns the three vote option labels for category, in ballot order.
func Options(category types.DramaCategory) []string {
	switch FamilyOf(category) {
	case FamilyConflict:
		return []string{OptionReconcile, OptionBreakup, OptionFight}
	case FamilyJustice:
		return []string{OptionForgive, OptionJustice, OptionSpread}
	default:
		return []string{OptionSupport, OptionOppose, OptionNeutral}
	}
}

// Deltas are the signed relationship changes per outcome.
type Deltas struct {
	Reconcile int
	Breakup   int
	Fight     int
	Forgive   int
	Justice   int
	Spread    int
	Support   int
	Oppose    int
	Alliance  int
	Scandal   int
}

// Settings tune generation and resolution.
type Settings struct {
	Interval       time.Duration
	VoteWindow     time.Duration
	RomanceChance  float64
	ConflictChance float64
	FightChance    float64
	Deltas         Deltas
}

// DefaultSettings returns the stock drama tuning.
func DefaultSettings() Settings {
	return Settings{
		Interval:       5 * time.Minute,
		VoteWindow:     2 * time.Minute,
		RomanceChance:  0.3,
		ConflictChance: 0.4,
		FightChance:    0.5,
		Deltas: Deltas{
			Reconcile: 15,
			Breakup:   -30,
			Fight:     -10,
			Forgive:   10,
			Justice:   -25,
			Spread:    -5,
			Support:   10,
			Oppose:    -10,
			Alliance:  10,
			Scandal:   -10,
		},
	}
}

// SettingsFromConfig builds Settings from configuration.
func SettingsFromConfig(cfg config.DramaConfig) Settings {
	return Settings{
		Interval:       cfg.Interval,
		VoteWindow:     cfg.VoteWindow,
		RomanceChance:  cfg.RomanceChance,
		ConflictChance: cfg.ConflictChance,
		FightChance:    cfg.FightChance,
		Deltas: Deltas{
			Reconcile: cfg.ReconcileBonus,
			Breakup:   cfg.BreakupPenalty,
			Fight:     cfg.FightPenalty,
			Forgive:   cfg.ForgiveBonus,
			Justice:   cfg.JusticePenalty,
			Spread:    cfg.SpreadPenalty,
			Support:   cfg.SupportBonus,
			Oppose:    cfg.OpposePenalty,
			Alliance:  cfg.AllianceBonus,
			Scandal:   cfg.ScandalPenalty,
		},
	}
}
