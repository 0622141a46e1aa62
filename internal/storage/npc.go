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

type npcStateModel struct {
	NPCName   string  `gorm:"column:npc_name;primaryKey;size:64"`
	Mood      string  `gorm:"size:32;not null;default:normal"`
	Dating    *string `gorm:"size:64"`
	Rival     *string `gorm:"size:64"`
	UpdatedAt time.Time
}

func (npcStateModel) TableName() string {
	return "npc_states"
}

type npcRelationshipModel struct {
	NPC1      string  `gorm:"column:npc1;primaryKey;size:64"`
	NPC2      string  `gorm:"column:npc2;primaryKey;size:64"`
	Score     int     `gorm:"not null"`
	Type      string  `gorm:"size:16;not null;index"`
	LastEvent *string `gorm:"size:64"`
	UpdatedAt time.Time
}

func (npcRelationshipModel) TableName() string {
	return "npc_relationships"
}

type npcRepo struct {
	db *gorm.DB
}

// NewNPCRepo returns the relationship and NPC state repository.
func NewNPCRepo(db *gorm.DB) relationship.Repo {
	return &npcRepo{db: db}
}

func (r *npcRepo) GetRelationship(ctx context.Context, a, b string) (*types.Relationship, error) {
	a, b = types.PairKey(a, b)
	var model npcRelationshipModel
	if err := r.db.WithContext(ctx).Where("npc1 = ? AND npc2 = ?", a, b).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", types.ErrRelationshipMissing, a, b)
		}
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	return relationshipFromModel(model), nil
}

func (r *npcRepo) ListRelationships(ctx context.Context) ([]types.Relationship, error) {
	var models []npcRelationshipModel
	if err := r.db.WithContext(ctx).Order("score DESC, npc1 ASC, npc2 ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	out := make([]types.Relationship, 0, len(models))
	for _, m := range models {
		out = append(out, *relationshipFromModel(m))
	}
	return out, nil
}

func (r *npcRepo) UpdateRelationship(ctx context.Context, a, b string, fn func(types.Relationship) types.Relationship) (*types.Relationship, error) {
	a, b = types.PairKey(a, b)
	var updated *types.Relationship
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model npcRelationshipModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("npc1 = ? AND npc2 = ?", a, b).
			First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s/%s", types.ErrRelationshipMissing, a, b)
			}
			return fmt.Errorf("failed to lock relationship: %w", err)
		}

		next := fn(*relationshipFromModel(model))
		next.NPC1, next.NPC2 = a, b
		next.UpdatedAt = time.Now().UTC()

		var lastEvent *string
		if next.LastEvent != "" {
			lastEvent = &next.LastEvent
		}
		if err := tx.Model(&npcRelationshipModel{}).
			Where("npc1 = ? AND npc2 = ?", a, b).
			Updates(map[string]any{
				"score":      next.Score,
				"type":       string(next.Type),
				"last_event": lastEvent,
				"updated_at": next.UpdatedAt,
			}).Error; err != nil {
			return fmt.Errorf("failed to update relationship: %w", err)
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *npcRepo) GetNPCState(ctx context.Context, name string) (*types.NPCState, error) {
	var model npcStateModel
	if err := r.db.WithContext(ctx).Where("npc_name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", types.ErrUnknownNPC, name)
		}
		return nil, fmt.Errorf("failed to get npc state: %w", err)
	}
	state := &types.NPCState{Name: model.NPCName, Mood: model.Mood}
	if model.Dating != nil {
		state.Dating = *model.Dating
	}
	if model.Rival != nil {
		state.Rival = *model.Rival
	}
	return state, nil
}

func (r *npcRepo) UpdateNPCState(ctx context.Context, name string, update types.NPCStateUpdate) error {
	fields := map[string]any{"updated_at": time.Now().UTC()}
	if update.Mood != nil {
		fields["mood"] = *update.Mood
	}
	if update.Dating != nil {
		fields["dating"] = nullableName(update.Dating)
	}
	if update.Rival != nil {
		fields["rival"] = nullableName(update.Rival)
	}

	res := r.db.WithContext(ctx).Model(&npcStateModel{}).Where("npc_name = ?", name).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update npc state: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", types.ErrUnknownNPC, name)
	}
	return nil
}

func nullableName(ref *types.NPCRef) *string {
	if ref.Name == "" {
		return nil
	}
	name := ref.Name
	return &name
}

func relationshipFromModel(model npcRelationshipModel) *types.Relationship {
	rel := &types.Relationship{
		NPC1:      model.NPC1,
		NPC2:      model.NPC2,
		Score:     model.Score,
		Type:      types.RelationshipType(model.Type),
		UpdatedAt: model.UpdatedAt,
	}
	if model.LastEvent != nil {
		rel.LastEvent = *model.LastEvent
	}
	return rel
}
