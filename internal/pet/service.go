// Package pet implements the owner-facing pet commands: adopt, feed, heal and status.
package pet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"

	"github.com/easeaico/pet-village/internal/config"
	"github.com/easeaico/pet-village/internal/decay"
	"github.com/easeaico/pet-village/internal/types"
	"github.com/easeaico/pet-village/internal/utils"
)

var tracer = otel.Tracer("pet")

// MaxNameLength bounds pet names in runes.
const MaxNameLength = 32

// Store persists pets, inventories and memorials.
type Store interface {
	CreatePet(ctx context.Context, ownerID, name string, start types.Inventory, health int, now time.Time) (*types.Pet, error)
	GetLivingPet(ctx context.Context, ownerID string) (*types.Pet, error)
	GetInventory(ctx context.Context, ownerID string) (*types.Inventory, error)
	Care(ctx context.Context, ownerID string, resource types.Resource, fn func(*types.Pet) error) (*types.Pet, *types.Inventory, error)
	ListPets(ctx context.Context, ownerID string) ([]types.Pet, error)
	ListMemorials(ctx context.Context, ownerID string) ([]types.Memorial, error)
}

// Settings holds care amounts and the new-owner inventory.
type Settings struct {
	FeedReduction   int
	HealRestoration int
	MaxHealth       int
	StartInventory  types.Inventory
}

// DefaultSettings mirrors the config defaults.
func DefaultSettings() Settings {
	return Settings{
		FeedReduction:   30,
		HealRestoration: 25,
		MaxHealth:       100,
		StartInventory:  types.Inventory{Food: 5, Medicine: 2},
	}
}

// SettingsFromConfig builds Settings from the care and decay config sections.
func SettingsFromConfig(care config.CareConfig, d config.DecayConfig) Settings {
	return Settings{
		FeedReduction:   care.FeedReduction,
		HealRestoration: care.HealRestoration,
		MaxHealth:       d.MaxHealth,
		StartInventory: types.Inventory{
			Food:     care.StartFood,
			Medicine: care.StartMedicine,
			Coal:     care.StartCoal,
		},
	}
}

// Status is a living pet with its owner's inventory.
type Status struct {
	Pet       *types.Pet       `json:"pet"`
	Inventory *types.Inventory `json:"inventory"`
}

// Service runs pet commands. Feed and heal share the decay engine's per-pet locks.
type Service struct {
	store    Store
	settings Settings
	locks    *utils.KeyedMutex
	now      func() time.Time
}

// NewService creates a pet service.
func NewService(store Store, settings Settings, locks *utils.KeyedMutex) *Service {
	if locks == nil {
		locks = utils.NewKeyedMutex()
	}
	return &Service{
		store:    store,
		settings: settings,
		locks:    locks,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Adopt creates the next generation pet for ownerID.
func (s *Service) Adopt(ctx context.Context, ownerID, name string) (*types.Pet, error) {
	ctx, span := tracer.Start(ctx, "Service.Adopt")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return nil, fmt.Errorf("%w: must be 1-%d characters", types.ErrInvalidName, MaxNameLength)
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	unlock := s.locks.Lock(ownerLockKey(ownerID))
	defer unlock()

	pet, err := s.store.CreatePet(ctx, ownerID, name, s.settings.StartInventory, s.settings.MaxHealth, s.now())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	slog.InfoContext(ctx, "pet adopted", "owner", ownerID, "pet_id", pet.ID, "generation", pet.Generation)
	return pet, nil
}

// Feed spends one food to reduce hunger.
func (s *Service) Feed(ctx context.Context, ownerID string) (*Status, error) {
	ctx, span := tracer.Start(ctx, "Service.Feed")
	defer span.End()

	return s.care(ctx, ownerID, types.ResourceFood, func(p *types.Pet) error {
		if p.Hunger == 0 {
			return fmt.Errorf("%w: %s is not hungry", types.ErrNothingToDo, p.Name)
		}
		p.Hunger = max(0, p.Hunger-s.settings.FeedReduction)
		return nil
	})
}

// Heal spends one medicine to restore health.
func (s *Service) Heal(ctx context.Context, ownerID string) (*Status, error) {
	ctx, span := tracer.Start(ctx, "Service.Heal")
	defer span.End()

	return s.care(ctx, ownerID, types.ResourceMedicine, func(p *types.Pet) error {
		if p.Health >= s.settings.MaxHealth {
			return fmt.Errorf("%w: %s is at full health", types.ErrNothingToDo, p.Name)
		}
		p.Health = min(s.settings.MaxHealth, p.Health+s.settings.HealRestoration)
		return nil
	})
}

func (s *Service) care(ctx context.Context, ownerID string, resource types.Resource, fn func(*types.Pet) error) (*Status, error) {
	current, err := s.store.GetLivingPet(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(decay.PetLockKey(current.ID))
	defer unlock()

	pet, inv, err := s.store.Care(ctx, ownerID, resource, fn)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "pet cared for", "owner", ownerID, "pet_id", pet.ID, "resource", string(resource),
		"health", pet.Health, "hunger", pet.Hunger)
	return &Status{Pet: pet, Inventory: inv}, nil
}

// Status returns the owner's living pet and inventory.
func (s *Service) Status(ctx context.Context, ownerID string) (*Status, error) {
	pet, err := s.store.GetLivingPet(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	inv, err := s.store.GetInventory(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &Status{Pet: pet, Inventory: inv}, nil
}

// Graveyard lists the owner's memorials, newest death first.
func (s *Service) Graveyard(ctx context.Context, ownerID string) ([]types.Memorial, error) {
	return s.store.ListMemorials(ctx, ownerID)
}

// Lineage lists every pet the owner has had, newest generation first.
func (s *Service) Lineage(ctx context.Context, ownerID string) ([]types.Pet, error) {
	return s.store.ListPets(ctx, ownerID)
}

func ownerLockKey(ownerID string) string {
	return "owner:" + ownerID
}
