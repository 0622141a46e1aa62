package relationship

import (
	"context"

	"github.com/easeaico/pet-village/internal/types"
)

type fakeRepo struct {
	rels    map[[2]string]types.Relationship
	states  map[string]types.NPCState
	updates map[string][]types.NPCStateUpdate
}

func newFakeRepo(scale Scale, cast []types.NPC) *fakeRepo {
	r := &fakeRepo{
		rels:    make(map[[2]string]types.Relationship),
		states:  make(map[string]types.NPCState),
		updates: make(map[string][]types.NPCStateUpdate),
	}
	for _, p := range Pairs(cast) {
		r.rels[p] = types.Relationship{NPC1: p[0], NPC2: p[1], Score: scale.Default, Type: scale.Bucket(scale.Default)}
	}
	for _, npc := range cast {
		r.states[npc.Name] = types.NPCState{Name: npc.Name, Mood: types.DefaultMood}
	}
	return r
}

func (r *fakeRepo) GetRelationship(ctx context.Context, a, b string) (*types.Relationship, error) {
	rel, ok := r.rels[[2]string{a, b}]
	if !ok {
		return nil, types.ErrRelationshipMissing
	}
	return &rel, nil
}

func (r *fakeRepo) ListRelationships(ctx context.Context) ([]types.Relationship, error) {
	out := make([]types.Relationship, 0, len(r.rels))
	for _, rel := range r.rels {
		out = append(out, rel)
	}
	return out, nil
}

func (r *fakeRepo) UpdateRelationship(ctx context.Context, a, b string, fn func(types.Relationship) types.Relationship) (*types.Relationship, error) {
	rel, ok := r.rels[[2]string{a, b}]
	if !ok {
		return nil, types.ErrRelationshipMissing
	}
	next := fn(rel)
	r.rels[[2]string{a, b}] = next
	return &next, nil
}

func (r *fakeRepo) GetNPCState(ctx context.Context, name string) (*types.NPCState, error) {
	state, ok := r.states[name]
	if !ok {
		return nil, types.ErrUnknownNPC
	}
	return &state, nil
}

func (r *fakeRepo) UpdateNPCState(ctx context.Context, name string, update types.NPCStateUpdate) error {
	state := r.states[name]
	if update.Mood != nil {
		state.Mood = *update.Mood
	}
	if update.Dating != nil {
		state.Dating = update.Dating.Name
	}
	if update.Rival != nil {
		state.Rival = update.Rival.Name
	}
	r.states[name] = state
	r.updates[name] = append(r.updates[name], update)
	return nil
}
