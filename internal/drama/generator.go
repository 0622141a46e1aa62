package drama

import (
	"context"
	"fmt"
	"slices"

	"github.com/easeaico/pet-village/internal/relationship"
	"github.com/easeaico/pet-village/internal/types"
)

// Relationships is the relationship surface drama reads and mutates.
// *relationship.Service implements it.
type Relationships interface {
	Cast() []types.NPC
	ListByType(ctx context.Context, kinds ...types.RelationshipType) ([]types.Relationship, error)
	Get(ctx context.Context, a, b string) (*types.Relationship, error)
	Adjust(ctx context.Context, a, b string, delta int, label string) (*types.Relationship, error)
	UpdateNPC(ctx context.Context, name string, update types.NPCStateUpdate) error
}

// Generator turns the current relationship topology into a drama event.
type Generator struct {
	rels     Relationships
	rng      types.Rand
	settings Settings
}

// NewGenerator returns a Generator.
func NewGenerator(rels Relationships, rng types.Rand, settings Settings) *Generator {
	return &Generator{rels: rels, rng: rng, settings: settings}
}

// Generate picks a category and participants and renders the description.
func (g *Generator) Generate(ctx context.Context) (types.DramaEvent, error) {
	names := relationship.Names(g.rels.Cast())
	if len(names) < 2 {
		return types.DramaEvent{}, fmt.Errorf("%w: drama needs at least two npcs", types.ErrUnknownNPC)
	}

	lovers, err := g.rels.ListByType(ctx, types.RelationshipLovers)
	if err != nil {
		return types.DramaEvent{}, fmt.Errorf("failed to list lovers: %w", err)
	}
	hostile, err := g.rels.ListByType(ctx, types.RelationshipRivals, types.RelationshipEnemies)
	if err != nil {
		return types.DramaEvent{}, fmt.Errorf("failed to list rivals: %w", err)
	}

	switch {
	case len(lovers) > 0 && g.rng.Float64() < g.settings.RomanceChance:
		couple := lovers[g.rng.IntN(len(lovers))]
		if len(hostile) > 0 {
			rival := g.rivalFor(couple, hostile[g.rng.IntN(len(hostile))])
			return g.build(types.DramaRomanceConflict, couple.NPC1, couple.NPC2, rival, true)
		}
		return g.build(types.DramaRomanceStart, couple.NPC1, couple.NPC2, g.outsider(names, couple.NPC1, couple.NPC2), false)

	case len(hostile) > 0 && g.rng.Float64() < g.settings.ConflictChance:
		pair := hostile[g.rng.IntN(len(hostile))]
		category := pick(g.rng, []types.DramaCategory{types.DramaBetrayal, types.DramaScandal})
		return g.build(category, pair.NPC1, pair.NPC2, g.outsider(names, pair.NPC1, pair.NPC2), false)

	default:
		shuffled := slices.Clone(names)
		shuffle(g.rng, shuffled)
		category := pick(g.rng, []types.DramaCategory{types.DramaMystery, types.DramaAlliance, types.DramaScandal})
		third := ""
		if len(shuffled) > 2 {
			third = shuffled[2]
		}
		return g.build(category, shuffled[0], shuffled[1], third, false)
	}
}

// rivalFor picks the end of a hostile edge that is not part of the couple.
func (g *Generator) rivalFor(couple, edge types.Relationship) string {
	var candidates []string
	for _, name := range []string{edge.NPC1, edge.NPC2} {
		if !couple.Involves(name) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return edge.NPC1
	}
	return candidates[g.rng.IntN(len(candidates))]
}

func (g *Generator) outsider(names []string, a, b string) string {
	var others []string
	for _, n := range names {
		if n != a && n != b {
			others = append(others, n)
		}
	}
	if len(others) == 0 {
		return ""
	}
	return others[g.rng.IntN(len(others))]
}

// build renders a template. The witness is kept on the event only when the
// narrative names it, except for love triangles where the rival always matters.
func (g *Generator) build(category types.DramaCategory, a, b, witness string, keepWitness bool) (types.DramaEvent, error) {
	candidates := templates[category]
	if witness == "" {
		candidates = slices.DeleteFunc(slices.Clone(candidates), func(n narrative) bool { return n.usesRival })
	}
	if len(candidates) == 0 {
		return types.DramaEvent{}, fmt.Errorf("no template for drama category %s", category)
	}
	n := candidates[g.rng.IntN(len(candidates))]

	description, err := render(n, Cast{A: a, B: b, Rival: witness})
	if err != nil {
		return types.DramaEvent{}, err
	}
	event := types.DramaEvent{
		Category:    category,
		Description: description,
		NPC1:        a,
		NPC2:        b,
	}
	if keepWitness || n.usesRival {
		event.Witness = witness
	}
	return event, nil
}

func pick[T any](rng types.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}

func shuffle[T any](rng types.Rand, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
