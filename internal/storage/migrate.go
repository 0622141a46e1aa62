package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/pet-village/internal/relationship"
	"github.com/easeaico/pet-village/internal/types"
)

// ErrIntegrity marks a store that is missing rows required at startup.
var ErrIntegrity = errors.New("store integrity check failed")

// Migrate creates or updates every table.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&userModel{},
		&inventoryModel{},
		&petModel{},
		&memorialModel{},
		&npcStateModel{},
		&npcRelationshipModel{},
		&dramaEventModel{},
		&dramaVoteModel{},
		&dramaSessionModel{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SeedCast inserts the NPC states and one relationship row per unordered pair.
// Existing rows are kept as they are.
func (s *Store) SeedCast(ctx context.Context, cast []types.NPC, scale relationship.Scale) error {
	now := time.Now().UTC()
	states := make([]npcStateModel, 0, len(cast))
	for _, npc := range cast {
		states = append(states, npcStateModel{NPCName: npc.Name, Mood: types.DefaultMood, UpdatedAt: now})
	}

	pairs := relationship.Pairs(cast)
	rels := make([]npcRelationshipModel, 0, len(pairs))
	score := scale.Clamp(scale.Default)
	for _, p := range pairs {
		rels = append(rels, npcRelationshipModel{
			NPC1:      p[0],
			NPC2:      p[1],
			Score:     score,
			Type:      string(scale.Bucket(score)),
			UpdatedAt: now,
		})
	}

	db := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Session(&gorm.Session{})
	if len(states) > 0 {
		if err := db.Create(&states).Error; err != nil {
			return fmt.Errorf("failed to seed npc states: %w", err)
		}
	}
	if len(rels) > 0 {
		if err := db.Create(&rels).Error; err != nil {
			return fmt.Errorf("failed to seed relationships: %w", err)
		}
	}
	return nil
}

// VerifyCast checks that every cast member has a state row and every pair has exactly one relationship.
func (s *Store) VerifyCast(ctx context.Context, cast []types.NPC) error {
	var errs []error
	for _, npc := range cast {
		if _, err := s.NPCs.GetNPCState(ctx, npc.Name); err != nil {
			errs = append(errs, err)
		}
	}
	for _, p := range relationship.Pairs(cast) {
		var count int64
		err := s.db.WithContext(ctx).Model(&npcRelationshipModel{}).
			Where("npc1 = ? AND npc2 = ?", p[0], p[1]).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to verify relationship %s/%s: %w", p[0], p[1], err)
		}
		if count != 1 {
			errs = append(errs, fmt.Errorf("%w: %s/%s has %d rows", types.ErrRelationshipMissing, p[0], p[1], count))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrIntegrity, errors.Join(errs...))
	}
	return nil
}
