package types

import "time"

// Pet is one creature in an owner's bloodline.
type Pet struct {
	ID          uint       `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	Generation  int        `json:"generation"`
	Health      int        `json:"health"`
	Hunger      int        `json:"hunger"`
	Alive       bool       `json:"alive"`
	BirthTime   time.Time  `json:"birth_time"`
	DeathTime   *time.Time `json:"death_time,omitempty"`
	DeathReason string     `json:"death_reason,omitempty"`
	ParentID    *uint      `json:"parent_id,omitempty"`
}

const (
	// DeathReasonStarvation is recorded when hunger was severe at the fatal tick.
	DeathReasonStarvation = "Starvation"
	// DeathReasonNatural is recorded for every other decay death.
	DeathReasonNatural = "Natural causes"
)

// Death describes the terminal transition of a pet.
type Death struct {
	Time   time.Time
	Reason string
}

// Memorial is the immutable graveyard record written when a pet dies.
type Memorial struct {
	PetID        uint      `json:"pet_id"`
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name"`
	Generation   int       `json:"generation"`
	LivedDays    int       `json:"lived_days"`
	DeathReason  string    `json:"death_reason"`
	DeathTime    time.Time `json:"death_time"`
	MemorialText string    `json:"memorial_text"`
}

// User is a pet owner.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Premium     bool      `json:"premium"`
	CreatedAt   time.Time `json:"created_at"`
}

// Resource names a consumable inventory counter.
type Resource string

const (
	ResourceFood     Resource = "food"
	ResourceMedicine Resource = "medicine"
	ResourceCoal     Resource = "coal"
)

// Inventory holds an owner's resource counters.
type Inventory struct {
	OwnerID  string `json:"owner_id"`
	Food     int    `json:"food"`
	Medicine int    `json:"medicine"`
	Coal     int    `json:"coal"`
}

// Count returns the counter for r.
func (i Inventory) Count(r Resource) int {
	switch r {
	case ResourceFood:
		return i.Food
	case ResourceMedicine:
		return i.Medicine
	case ResourceCoal:
		return i.Coal
	default:
		return 0
	}
}
