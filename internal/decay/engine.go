package decay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/easeaico/pet-village/internal/metrics"
	"github.com/easeaico/pet-village/internal/types"
	"github.com/easeaico/pet-village/internal/utils"
)

var tracer = otel.Tracer("decay")

// PetStore is the persistence the engine needs.
type PetStore interface {
	ListLivingPets(ctx context.Context) ([]types.Pet, error)
	GetPet(ctx context.Context, id uint) (*types.Pet, error)
	// UpdateVitals writes health and hunger of a living pet. It returns
	// types.ErrPetNotAlive when the pet is already dead.
	UpdateVitals(ctx context.Context, id uint, health, hunger int) error
	// RecordDeath writes the final vitals, flips alive and appends the memorial atomically.
	RecordDeath(ctx context.Context, id uint, health, hunger int, death types.Death, memorial types.Memorial) error
	// UpdateMemorialText replaces the text of a recorded memorial.
	UpdateMemorialText(ctx context.Context, petID uint, text string) error
}

// Notifier receives decay notifications.
type Notifier interface {
	DeathWarning(ctx context.Context, warning types.DeathWarning) error
	PetDied(ctx context.Context, notice types.DeathNotice) error
}

// Epitaphs writes memorial text.
type Epitaphs interface {
	Epitaph(ctx context.Context, pet types.Pet, reason string, livedDays int) string
}

// TickReport summarizes one tick.
type TickReport struct {
	Processed int    `json:"processed"`
	Warned    []uint `json:"warned,omitempty"`
	Died      []uint `json:"died,omitempty"`
	Failed    int    `json:"failed"`
}

// Engine runs decay ticks. Scheduled and forced ticks share Tick.
type Engine struct {
	rules    Rules
	store    PetStore
	notifier Notifier
	epitaphs Epitaphs
	locks    *utils.KeyedMutex
	metrics  *metrics.Metrics
	now      func() time.Time

	mu     sync.Mutex
	warned map[uint]struct{}
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics records tick metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithEpitaphs replaces the default memorial text.
func WithEpitaphs(ep Epitaphs) Option {
	return func(e *Engine) { e.epitaphs = ep }
}

// NewEngine returns a decay engine. locks must be shared with every other
// writer of pet vitals.
func NewEngine(rules Rules, store PetStore, notifier Notifier, locks *utils.KeyedMutex, opts ...Option) *Engine {
	e := &Engine{
		rules:    rules,
		store:    store,
		notifier: notifier,
		locks:    locks,
		now:      time.Now,
		warned:   make(map[uint]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.locks == nil {
		e.locks = utils.NewKeyedMutex()
	}
	return e
}

// PetLockKey is the lock key guarding one pet's vitals.
func PetLockKey(id uint) string {
	return "pet:" + strconv.FormatUint(uint64(id), 10)
}

// Warned reports whether id is flagged in the current crisis.
func (e *Engine) Warned(id uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.warned[id]
	return ok
}

// Tick ages every living pet once. Epitaphs and notifications are produced
// after every pet lock is released.
func (e *Engine) Tick(ctx context.Context) (TickReport, error) {
	ctx, span := tracer.Start(ctx, "Decay.Tick")
	defer span.End()

	report, warnings, deaths, err := e.sweep(ctx)
	if err != nil {
		span.RecordError(err)
		return report, err
	}
	span.SetAttributes(attribute.Int("processed", report.Processed))
	e.metrics.DecayTick(report.Processed - len(report.Died))

	for _, w := range warnings {
		e.metrics.DeathWarning()
		if err := e.notifier.DeathWarning(ctx, w); err != nil {
			e.metrics.NotificationFailed("death_warning")
			slog.WarnContext(ctx, "failed to deliver death warning", "pet_id", w.PetID, "error", err.Error())
		}
	}
	for _, d := range deaths {
		notice := e.epitaph(ctx, d)
		e.metrics.PetDied(notice.Reason)
		if err := e.notifier.PetDied(ctx, notice); err != nil {
			e.metrics.NotificationFailed("death")
			slog.WarnContext(ctx, "failed to deliver death notice", "pet_id", notice.PetID, "error", err.Error())
		}
	}

	slog.InfoContext(ctx, "decay tick complete",
		"processed", report.Processed,
		"warned", len(report.Warned),
		"died", len(report.Died),
		"failed", report.Failed,
	)
	return report, nil
}

type death struct {
	pet    types.Pet
	notice types.DeathNotice
}

// sweep applies one tick to every living pet and persists the results.
func (e *Engine) sweep(ctx context.Context) (TickReport, []types.DeathWarning, []death, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var report TickReport
	pets, err := e.store.ListLivingPets(ctx)
	if err != nil {
		return report, nil, nil, fmt.Errorf("failed to list living pets: %w", err)
	}

	var warnings []types.DeathWarning
	var deaths []death
	for _, p := range pets {
		warning, d, err := e.tickPet(ctx, p.ID)
		if err != nil {
			if errors.Is(err, types.ErrPetNotAlive) {
				continue
			}
			report.Failed++
			slog.ErrorContext(ctx, "decay tick failed for pet", "pet_id", p.ID, "error", err.Error())
			continue
		}
		report.Processed++
		if warning != nil {
			warnings = append(warnings, *warning)
			report.Warned = append(report.Warned, warning.PetID)
		}
		if d != nil {
			deaths = append(deaths, *d)
			report.Died = append(report.Died, d.notice.PetID)
		}
	}
	return report, warnings, deaths, nil
}

// tickPet applies one tick to a single pet under its lock. The pet is re-read
// so a feed or heal that landed since the listing is not overwritten.
func (e *Engine) tickPet(ctx context.Context, id uint) (*types.DeathWarning, *death, error) {
	unlock := e.locks.Lock(PetLockKey(id))
	defer unlock()

	p, err := e.store.GetPet(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pet: %w", err)
	}
	if !p.Alive {
		delete(e.warned, id)
		return nil, nil, types.ErrPetNotAlive
	}

	step := e.rules.Apply(*p)
	if step.Dies {
		d, err := e.kill(ctx, *p, step)
		if err != nil {
			return nil, nil, err
		}
		delete(e.warned, id)
		return nil, d, nil
	}

	if err := e.store.UpdateVitals(ctx, id, step.Health, step.Hunger); err != nil {
		return nil, nil, fmt.Errorf("failed to update vitals: %w", err)
	}

	_, flagged := e.warned[id]
	switch {
	case step.Critical() && !flagged:
		e.warned[id] = struct{}{}
		w := e.rules.Warning(*p, step)
		return &w, nil, nil
	case !step.Critical() && flagged:
		delete(e.warned, id)
	}
	return nil, nil, nil
}

// kill records the death with the default memorial text.
func (e *Engine) kill(ctx context.Context, p types.Pet, step Step) (*death, error) {
	at := types.Death{Time: e.now().UTC(), Reason: step.Reason}
	lived := LivedDays(p.BirthTime, at.Time)
	text := MemorialText(p.Name, step.Reason)

	memorial := types.Memorial{
		PetID:        p.ID,
		OwnerID:      p.OwnerID,
		Name:         p.Name,
		Generation:   p.Generation,
		LivedDays:    lived,
		DeathReason:  step.Reason,
		DeathTime:    at.Time,
		MemorialText: text,
	}
	if err := e.store.RecordDeath(ctx, p.ID, step.Health, step.Hunger, at, memorial); err != nil {
		return nil, fmt.Errorf("failed to record death: %w", err)
	}

	slog.InfoContext(ctx, "pet died", "pet_id", p.ID, "owner_id", p.OwnerID, "reason", step.Reason, "lived_days", lived)
	return &death{
		pet: p,
		notice: types.DeathNotice{
			PetID:      p.ID,
			PetName:    p.Name,
			Generation: p.Generation,
			Reason:     step.Reason,
			OwnerID:    p.OwnerID,
			LivedDays:  lived,
			Epitaph:    text,
		},
	}, nil
}

// epitaph replaces the default memorial text when an epitaph writer is set.
func (e *Engine) epitaph(ctx context.Context, d death) types.DeathNotice {
	notice := d.notice
	if e.epitaphs == nil {
		return notice
	}
	text := e.epitaphs.Epitaph(ctx, d.pet, notice.Reason, notice.LivedDays)
	if text == "" || text == notice.Epitaph {
		return notice
	}
	if err := e.store.UpdateMemorialText(ctx, notice.PetID, text); err != nil {
		slog.WarnContext(ctx, "failed to store epitaph", "pet_id", notice.PetID, "error", err.Error())
		return notice
	}
	notice.Epitaph = text
	return notice
}
