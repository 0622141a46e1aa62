package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/pet-village/internal/types"
)

type userModel struct {
	ID          string `gorm:"primaryKey;size:64"`
	DisplayName string `gorm:"size:255"`
	Premium     bool   `gorm:"not null;default:false"`
	CreatedAt   time.Time
}

func (userModel) TableName() string {
	return "users"
}

type inventoryModel struct {
	OwnerID   string `gorm:"primaryKey;size:64"`
	Food      int    `gorm:"not null;default:0"`
	Medicine  int    `gorm:"not null;default:0"`
	Coal      int    `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (inventoryModel) TableName() string {
	return "inventories"
}

type petModel struct {
	ID          uint   `gorm:"primaryKey"`
	OwnerID     string `gorm:"size:64;not null;index;uniqueIndex:idx_pets_one_living,where:alive = true"`
	Name        string `gorm:"size:64;not null"`
	Generation  int    `gorm:"not null"`
	Health      int    `gorm:"not null"`
	Hunger      int    `gorm:"not null"`
	Alive       bool   `gorm:"not null;index"`
	BirthTime   time.Time
	DeathTime   *time.Time
	DeathReason *string `gorm:"size:64"`
	ParentID    *uint
}

func (petModel) TableName() string {
	return "pets"
}

type memorialModel struct {
	ID           uint   `gorm:"primaryKey"`
	PetID        uint   `gorm:"not null;uniqueIndex"`
	OwnerID      string `gorm:"size:64;not null;index"`
	Name         string `gorm:"size:64;not null"`
	Generation   int    `gorm:"not null"`
	LivedDays    int    `gorm:"not null"`
	DeathReason  string `gorm:"size:64;not null"`
	DeathTime    time.Time
	MemorialText string `gorm:"type:text"`
}

func (memorialModel) TableName() string {
	return "memorials"
}

// PetRepo accesses users, inventories, pets and memorials.
type PetRepo struct {
	db *gorm.DB
}

// NewPetRepo returns a PetRepo.
func NewPetRepo(db *gorm.DB) *PetRepo {
	return &PetRepo{db: db}
}

func (r *PetRepo) ListLivingPets(ctx context.Context) ([]types.Pet, error) {
	var models []petModel
	if err := r.db.WithContext(ctx).Where("alive = ?", true).Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list living pets: %w", err)
	}
	return petsFromModels(models), nil
}

func (r *PetRepo) GetPet(ctx context.Context, id uint) (*types.Pet, error) {
	var model petModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNoLivingPet
		}
		return nil, fmt.Errorf("failed to get pet by id: %w", err)
	}
	return petFromModel(model), nil
}

func (r *PetRepo) GetLivingPet(ctx context.Context, ownerID string) (*types.Pet, error) {
	return livingPet(r.db.WithContext(ctx), ownerID)
}

func (r *PetRepo) ListPets(ctx context.Context, ownerID string) ([]types.Pet, error) {
	var models []petModel
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("generation DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	return petsFromModels(models), nil
}

func (r *PetRepo) UpdateVitals(ctx context.Context, id uint, health, hunger int) error {
	res := r.db.WithContext(ctx).Model(&petModel{}).
		Where("id = ? AND alive = ?", id, true).
		Updates(map[string]any{"health": health, "hunger": hunger})
	if res.Error != nil {
		return fmt.Errorf("failed to update pet vitals: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return types.ErrPetNotAlive
	}
	return nil
}

func (r *PetRepo) RecordDeath(ctx context.Context, id uint, health, hunger int, death types.Death, memorial types.Memorial) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&petModel{}).
			Where("id = ? AND alive = ?", id, true).
			Updates(map[string]any{
				"health":       health,
				"hunger":       hunger,
				"alive":        false,
				"death_time":   death.Time,
				"death_reason": death.Reason,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to mark pet dead: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return types.ErrPetNotAlive
		}

		record := memorialModel{
			PetID:        memorial.PetID,
			OwnerID:      memorial.OwnerID,
			Name:         memorial.Name,
			Generation:   memorial.Generation,
			LivedDays:    memorial.LivedDays,
			DeathReason:  memorial.DeathReason,
			DeathTime:    memorial.DeathTime,
			MemorialText: memorial.MemorialText,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to insert memorial: %w", err)
		}
		return nil
	})
}

// UpdateMemorialText replaces the text of the pet's memorial.
func (r *PetRepo) UpdateMemorialText(ctx context.Context, petID uint, text string) error {
	res := r.db.WithContext(ctx).Model(&memorialModel{}).
		Where("pet_id = ?", petID).
		Update("memorial_text", text)
	if res.Error != nil {
		return fmt.Errorf("failed to update memorial text: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: no memorial for pet %d", types.ErrPetNotAlive, petID)
	}
	return nil
}

// CreatePet bootstraps the owner and inserts the next generation. The partial
// unique index on living pets backs the check inside the transaction.
func (r *PetRepo) CreatePet(ctx context.Context, ownerID, name string, start types.Inventory, health int, now time.Time) (*types.Pet, error) {
	var created petModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := userModel{ID: ownerID, DisplayName: ownerID, CreatedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
			return fmt.Errorf("failed to ensure user: %w", err)
		}
		inv := inventoryModel{OwnerID: ownerID, Food: start.Food, Medicine: start.Medicine, Coal: start.Coal, UpdatedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&inv).Error; err != nil {
			return fmt.Errorf("failed to ensure inventory: %w", err)
		}

		var living int64
		if err := tx.Model(&petModel{}).Where("owner_id = ? AND alive = ?", ownerID, true).Count(&living).Error; err != nil {
			return fmt.Errorf("failed to count living pets: %w", err)
		}
		if living > 0 {
			return types.ErrPetAlreadyAlive
		}

		created = petModel{
			OwnerID:    ownerID,
			Name:       name,
			Generation: 1,
			Health:     health,
			Hunger:     0,
			Alive:      true,
			BirthTime:  now,
		}
		var latest petModel
		err := tx.Where("owner_id = ?", ownerID).Order("generation DESC").Limit(1).First(&latest).Error
		switch {
		case err == nil:
			created.Generation = latest.Generation + 1
			created.ParentID = &latest.ID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to get latest pet: %w", err)
		}

		if err := tx.Create(&created).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return types.ErrPetAlreadyAlive
			}
			return fmt.Errorf("failed to insert pet: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return petFromModel(created), nil
}

func (r *PetRepo) GetInventory(ctx context.Context, ownerID string) (*types.Inventory, error) {
	var model inventoryModel
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &types.Inventory{OwnerID: ownerID}, nil
		}
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	return inventoryFromModel(model), nil
}

// Care loads the owner's living pet, lets fn mutate it, and consumes one unit
// of resource, all in one transaction.
func (r *PetRepo) Care(ctx context.Context, ownerID string, resource types.Resource, fn func(*types.Pet) error) (*types.Pet, *types.Inventory, error) {
	var pet *types.Pet
	var inv *types.Inventory
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := livingPet(tx, ownerID)
		if err != nil {
			return err
		}

		var invModel inventoryModel
		if err := tx.Where("owner_id = ?", ownerID).First(&invModel).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrInsufficientResources
			}
			return fmt.Errorf("failed to get inventory: %w", err)
		}
		current := inventoryFromModel(invModel)
		if current.Count(resource) < 1 {
			return fmt.Errorf("%w: no %s left", types.ErrInsufficientResources, resource)
		}

		if err := fn(p); err != nil {
			return err
		}

		res := tx.Model(&petModel{}).
			Where("id = ? AND alive = ?", p.ID, true).
			Updates(map[string]any{"health": p.Health, "hunger": p.Hunger})
		if res.Error != nil {
			return fmt.Errorf("failed to update pet: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return types.ErrNoLivingPet
		}

		column := string(resource)
		res = tx.Model(&inventoryModel{}).
			Where("owner_id = ? AND "+column+" >= 1", ownerID).
			Updates(map[string]any{column: gorm.Expr(column + " - 1"), "updated_at": time.Now()})
		if res.Error != nil {
			return fmt.Errorf("failed to consume %s: %w", resource, res.Error)
		}
		if res.RowsAffected == 0 {
			return types.ErrInsufficientResources
		}

		switch resource {
		case types.ResourceFood:
			current.Food--
		case types.ResourceMedicine:
			current.Medicine--
		case types.ResourceCoal:
			current.Coal--
		}
		pet, inv = p, current
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return pet, inv, nil
}

func (r *PetRepo) ListMemorials(ctx context.Context, ownerID string) ([]types.Memorial, error) {
	var models []memorialModel
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("death_time DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list memorials: %w", err)
	}
	out := make([]types.Memorial, 0, len(models))
	for _, m := range models {
		out = append(out, types.Memorial{
			PetID:        m.PetID,
			OwnerID:      m.OwnerID,
			Name:         m.Name,
			Generation:   m.Generation,
			LivedDays:    m.LivedDays,
			DeathReason:  m.DeathReason,
			DeathTime:    m.DeathTime,
			MemorialText: m.MemorialText,
		})
	}
	return out, nil
}

func livingPet(db *gorm.DB, ownerID string) (*types.Pet, error) {
	var model petModel
	if err := db.Where("owner_id = ? AND alive = ?", ownerID, true).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNoLivingPet
		}
		return nil, fmt.Errorf("failed to get living pet: %w", err)
	}
	return petFromModel(model), nil
}

func petFromModel(model petModel) *types.Pet {
	p := &types.Pet{
		ID:         model.ID,
		OwnerID:    model.OwnerID,
		Name:       model.Name,
		Generation: model.Generation,
		Health:     model.Health,
		Hunger:     model.Hunger,
		Alive:      model.Alive,
		BirthTime:  model.BirthTime,
		DeathTime:  model.DeathTime,
		ParentID:   model.ParentID,
	}
	if model.DeathReason != nil {
		p.DeathReason = *model.DeathReason
	}
	return p
}

func petsFromModels(models []petModel) []types.Pet {
	out := make([]types.Pet, 0, len(models))
	for _, m := range models {
		out = append(out, *petFromModel(m))
	}
	return out
}

func inventoryFromModel(model inventoryModel) *types.Inventory {
	return &types.Inventory{
		OwnerID:  model.OwnerID,
		Food:     model.Food,
		Medicine: model.Medicine,
		Coal:     model.Coal,
	}
}
