// Package decay ages living pets once per tick and executes death.
package decay

import (
	"strings"
	"time"

	"github.com/easeaico/pet-village/internal/config"
	"github.com/easeaico/pet-village/internal/types"
)

// Rules holds the decay formula constants.
type Rules struct {
	HungerGain        int
	Natural           int
	SevereThreshold   int
	SevereDamage      int
	ModerateThreshold int
	ModerateDamage    int
	MaxHealth         int
	MaxHunger         int
	HealthCritical    int
	HungerCritical    int
}

// DefaultRules returns the stock decay constants.
func DefaultRules() Rules {
	return Rules{
		HungerGain:        5,
		Natural:           1,
		SevereThreshold:   80,
		SevereDamage:      3,
		ModerateThreshold: 50,
		ModerateDamage:    1,
		MaxHealth:         100,
		MaxHunger:         100,
		HealthCritical:    20,
		HungerCritical:    80,
	}
}

// RulesFromConfig builds Rules from configuration.
func RulesFromConfig(cfg config.DecayConfig) Rules {
	return Rules{
		HungerGain:        cfg.HungerGain,
		Natural:           cfg.Natural,
		SevereThreshold:   cfg.SevereThreshold,
		SevereDamage:      cfg.SevereDamage,
		ModerateThreshold: cfg.ModerateThreshold,
		ModerateDamage:    cfg.ModerateDamage,
		MaxHealth:         cfg.MaxHealth,
		MaxHunger:         cfg.MaxHunger,
		HealthCritical:    cfg.HealthCritical,
		HungerCritical:    cfg.HungerCritical,
	}
}

// HungerDamage is the hunger-driven part of a tick's health loss.
func (r Rules) HungerDamage(hunger int) int {
	switch {
	case hunger >= r.SevereThreshold:
		return r.SevereDamage
	case hunger >= r.ModerateThreshold:
		return r.ModerateDamage
	default:
		return 0
	}
}

// NextTickDamage is the total health loss the following tick would apply to a
// pet whose hunger is currently hunger.
func (r Rules) NextTickDamage(hunger int) int {
	next := min(r.MaxHunger, hunger+r.HungerGain)
	return r.HungerDamage(next) + r.Natural
}

// Step is the outcome of one tick for one pet.
type Step struct {
	Health     int
	Hunger     int
	NextDamage int
	Dies       bool
	Reason     string
}

// Critical reports whether the pet is alive but would die on the next tick.
func (s Step) Critical() bool {
	return s.Health > 0 && s.Health <= s.NextDamage
}

// Apply runs one tick against p. It never mutates p.
func (r Rules) Apply(p types.Pet) Step {
	hunger := min(r.MaxHunger, p.Hunger+r.HungerGain)
	health := max(0, p.Health-r.HungerDamage(hunger)-r.Natural)

	step := Step{
		Health:     health,
		Hunger:     hunger,
		NextDamage: r.NextTickDamage(hunger),
	}
	if health <= 0 {
		step.Dies = true
		step.Reason = types.DeathReasonNatural
		if hunger >= r.SevereThreshold {
			step.Reason = types.DeathReasonStarvation
		}
	}
	return step
}

// Warning builds the imminent-death payload for p after step.
func (r Rules) Warning(p types.Pet, step Step) types.DeathWarning {
	return types.DeathWarning{
		PetID:     p.ID,
		PetName:   p.Name,
		OwnerID:   p.OwnerID,
		Health:    step.Health,
		Hunger:    step.Hunger,
		NeedsHeal: step.Health <= r.HealthCritical,
		NeedsFeed: step.Hunger >= r.HungerCritical,
	}
}

// LivedDays counts whole days between birth and death.
func LivedDays(birth, death time.Time) int {
	if death.Before(birth) {
		return 0
	}
	return int(death.Sub(birth) / (24 * time.Hour))
}

// MemorialText is the default graveyard inscription.
func MemorialText(name, reason string) string {
	return "Here lies " + name + ", who died of " + strings.ToLower(reason) + "."
}
