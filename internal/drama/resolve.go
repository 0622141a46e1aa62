package drama

import (
	"context"
	"errors"
	"fmt"

	"github.com/easeaico/pet-village/internal/types"
)

// Winner returns the index of the strictly highest count. With no votes or a
// tie at the top the index is drawn uniformly and fate is true.
func Winner(votes []int, rng types.Rand) (index int, fate bool) {
	best, bestCount, tied := -1, -1, false
	for i, n := range votes {
		switch {
		case n > bestCount:
			best, bestCount, tied = i, n, false
		case n == bestCount:
			tied = true
		}
	}
	if best < 0 || bestCount <= 0 || tied {
		return rng.IntN(len(votes)), true
	}
	return best, false
}

// Adjustment is one relationship delta to apply.
type Adjustment struct {
	A     string
	B     string
	Delta int
	Label string
}

// NPCUpdate is one typed NPC state change to apply.
type NPCUpdate struct {
	Name   string
	Update types.NPCStateUpdate
}

// Plan is the fully decided outcome of a vote, ready to execute.
type Plan struct {
	Option      string
	Index       int
	Fate        bool
	Outcome     string
	Adjustments []Adjustment
	Updates     []NPCUpdate
}

// Planner decides outcomes. It performs no I/O.
type Planner struct {
	rng      types.Rand
	settings Settings
}

// NewPlanner returns a Planner.
func NewPlanner(rng types.Rand, settings Settings) *Planner {
	return &Planner{rng: rng, settings: settings}
}

// Plan maps the winning option of a category to its effects.
func (p *Planner) Plan(category types.DramaCategory, a, b string, cast []string, index int, fate bool) (Plan, error) {
	options := Options(category)
	if index < 0 || index >= len(options) {
		return Plan{}, fmt.Errorf("%w: %d", types.ErrInvalidVoteOption, index+1)
	}
	d := p.settings.Deltas
	plan := Plan{Option: options[index], Index: index, Fate: fate}

	adjust := func(delta int, label string) {
		plan.Adjustments = append(plan.Adjustments, Adjustment{A: a, B: b, Delta: delta, Label: label})
	}

	var text string
	switch plan.Option {
	case OptionReconcile:
		adjust(d.Reconcile, "reconciled")
		text = fmt.Sprintf("💕 %s and %s made up! Love wins!", a, b)
	case OptionBreakup:
		adjust(d.Breakup, "broke_up")
		plan.Updates = append(plan.Updates,
			NPCUpdate{Name: a, Update: types.ClearDating()},
			NPCUpdate{Name: b, Update: types.ClearDating()},
		)
		text = fmt.Sprintf("💔 %s and %s broke up! The village mourns...", a, b)
	case OptionFight:
		adjust(d.Fight, "fought")
		if p.rng.Float64() < p.settings.FightChance {
			text = fmt.Sprintf("⚔️ %s won the fight but lost %s's respect!", a, b)
		} else {
			text = fmt.Sprintf("⚔️ %s stood their ground! %s storms off!", b, a)
		}
	case OptionForgive:
		adjust(d.Forgive, "forgiven")
		text = fmt.Sprintf("🤝 Forgiveness prevails! %s and %s move forward.", a, b)
	case OptionJustice:
		adjust(d.Justice, "rivals")
		plan.Updates = append(plan.Updates,
			NPCUpdate{Name: a, Update: types.SetRival(b)},
			NPCUpdate{Name: b, Update: types.SetRival(a)},
		)
		text = fmt.Sprintf("⚖️ Justice served! %s and %s are now bitter rivals!", a, b)
	case OptionSpread:
		var bystanders []string
		for _, name := range cast {
			if name != a && name != b {
				bystanders = append(bystanders, name)
			}
		}
		if len(bystanders) >= 2 {
			shuffle(p.rng, bystanders)
			plan.Adjustments = append(plan.Adjustments, Adjustment{A: bystanders[0], B: bystanders[1], Delta: d.Spread, Label: "drama_spread"})
			text = fmt.Sprintf("🔥 The drama spreads! Now %s and %s are at odds too!", bystanders[0], bystanders[1])
		} else {
			text = "🔥 The drama spreads! The whole village is talking!"
		}
	case OptionSupport:
		adjust(d.Support, "supported")
		text = fmt.Sprintf("👍 The village supports this! %s and %s grow closer.", a, b)
	case OptionOppose:
		adjust(d.Oppose, "opposed")
		text = fmt.Sprintf("👎 The village opposes! %s and %s drift apart.", a, b)
	case OptionNeutral:
		text = "🤷 The village doesn't care. Life goes on..."
	}

	if fate {
		plan.Outcome = "🎲 Fate decided: " + text
	} else {
		plan.Outcome = text
	}
	return plan, nil
}

// ForcedPlan is the flat delta an administrative event applies without a vote.
func (p *Planner) ForcedPlan(event types.DramaEvent) Plan {
	plan := Plan{Option: "forced"}
	switch event.Category {
	case types.DramaRomanceStart, types.DramaAlliance:
		plan.Adjustments = []Adjustment{{A: event.NPC1, B: event.NPC2, Delta: p.settings.Deltas.Alliance, Label: string(event.Category)}}
		plan.Outcome = fmt.Sprintf("Forced: %s and %s grow closer.", event.NPC1, event.NPC2)
	case types.DramaBetrayal, types.DramaScandal:
		plan.Adjustments = []Adjustment{{A: event.NPC1, B: event.NPC2, Delta: p.settings.Deltas.Scandal, Label: string(event.Category)}}
		plan.Outcome = fmt.Sprintf("Forced: %s and %s drift apart.", event.NPC1, event.NPC2)
	default:
		plan.Outcome = "Forced: the village watches and waits."
	}
	return plan
}

// Execute applies every effect of plan and returns the a/b edge afterwards.
// Effects are attempted independently; failures are joined.
func Execute(ctx context.Context, rels Relationships, plan Plan, a, b string) (*types.Relationship, error) {
	var errs []error
	for _, adj := range plan.Adjustments {
		if _, err := rels.Adjust(ctx, adj.A, adj.B, adj.Delta, adj.Label); err != nil {
			errs = append(errs, err)
		}
	}
	for _, u := range plan.Updates {
		if err := rels.UpdateNPC(ctx, u.Name, u.Update); err != nil {
			errs = append(errs, err)
		}
	}
	rel, err := rels.Get(ctx, a, b)
	if err != nil {
		errs = append(errs, err)
	}
	return rel, errors.Join(errs...)
}
