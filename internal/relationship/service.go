package relationship

import (
	"context"
	"fmt"
	"slices"

	"github.com/easeaico/pet-village/internal/types"
	"github.com/easeaico/pet-village/internal/utils"
)

// Repo persists relationship edges and NPC state.
type Repo interface {
	GetRelationship(ctx context.Context, a, b string) (*types.Relationship, error)
	ListRelationships(ctx context.Context) ([]types.Relationship, error)
	// UpdateRelationship reads the edge, applies fn and writes the result in one transaction.
	UpdateRelationship(ctx context.Context, a, b string, fn func(types.Relationship) types.Relationship) (*types.Relationship, error)
	GetNPCState(ctx context.Context, name string) (*types.NPCState, error)
	UpdateNPCState(ctx context.Context, name string, update types.NPCStateUpdate) error
}

// Service is the single mutation path for relationship edges.
type Service struct {
	repo  Repo
	scale Scale
	cast  []types.NPC
	locks *utils.KeyedMutex
}

// NewService returns a relationship service for cast.
func NewService(repo Repo, scale Scale, cast []types.NPC) *Service {
	return &Service{
		repo:  repo,
		scale: scale,
		cast:  cast,
		locks: utils.NewKeyedMutex(),
	}
}

// Scale returns the configured score scale.
func (s *Service) Scale() Scale {
	return s.scale
}

// Cast returns the NPC cast.
func (s *Service) Cast() []types.NPC {
	return s.cast
}

// NPC returns the static traits of name.
func (s *Service) NPC(name string) (types.NPC, bool) {
	for _, npc := range s.cast {
		if npc.Name == name {
			return npc, true
		}
	}
	return types.NPC{}, false
}

// Adjust applies delta to the a/b edge, records label and returns the new edge.
func (s *Service) Adjust(ctx context.Context, a, b string, delta int, label string) (*types.Relationship, error) {
	a, b, err := s.pair(a, b)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(a + "|" + b)
	defer unlock()

	rel, err := s.repo.UpdateRelationship(ctx, a, b, func(cur types.Relationship) types.Relationship {
		return s.scale.Apply(cur, delta, label)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update relationship %s/%s: %w", a, b, err)
	}
	return rel, nil
}

// Get returns the a/b edge.
func (s *Service) Get(ctx context.Context, a, b string) (*types.Relationship, error) {
	a, b, err := s.pair(a, b)
	if err != nil {
		return nil, err
	}
	rel, err := s.repo.GetRelationship(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship %s/%s: %w", a, b, err)
	}
	return rel, nil
}

// List returns every edge ordered by score, highest first.
func (s *Service) List(ctx context.Context) ([]types.Relationship, error) {
	rels, err := s.repo.ListRelationships(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	slices.SortStableFunc(rels, func(x, y types.Relationship) int {
		return y.Score - x.Score
	})
	return rels, nil
}

// ListByType returns the edges whose type is one of kinds.
func (s *Service) ListByType(ctx context.Context, kinds ...types.RelationshipType) ([]types.Relationship, error) {
	rels, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []types.Relationship
	for _, rel := range rels {
		if slices.Contains(kinds, rel.Type) {
			out = append(out, rel)
		}
	}
	return out, nil
}

// NPCState returns the mutable state of name.
func (s *Service) NPCState(ctx context.Context, name string) (*types.NPCState, error) {
	if _, ok := s.NPC(name); !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownNPC, name)
	}
	state, err := s.repo.GetNPCState(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get npc state %s: %w", name, err)
	}
	return state, nil
}

// UpdateNPC applies a typed state update to name.
func (s *Service) UpdateNPC(ctx context.Context, name string, update types.NPCStateUpdate) error {
	if update.Empty() {
		return nil
	}
	if _, ok := s.NPC(name); !ok {
		return fmt.Errorf("%w: %s", types.ErrUnknownNPC, name)
	}
	for _, ref := range []*types.NPCRef{update.Dating, update.Rival} {
		if ref == nil || ref.Name == "" {
			continue
		}
		if _, ok := s.NPC(ref.Name); !ok {
			return fmt.Errorf("%w: %s", types.ErrUnknownNPC, ref.Name)
		}
	}

	unlock := s.locks.Lock("npc:" + name)
	defer unlock()

	if err := s.repo.UpdateNPCState(ctx, name, update); err != nil {
		return fmt.Errorf("failed to update npc state %s: %w", name, err)
	}
	return nil
}

func (s *Service) pair(a, b string) (string, string, error) {
	if a == b {
		return "", "", fmt.Errorf("%w: %s cannot relate to itself", types.ErrUnknownNPC, a)
	}
	for _, name := range []string{a, b} {
		if _, ok := s.NPC(name); !ok {
			return "", "", fmt.Errorf("%w: %s", types.ErrUnknownNPC, name)
		}
	}
	a, b = types.PairKey(a, b)
	return a, b, nil
}
