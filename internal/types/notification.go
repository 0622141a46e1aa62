package types

import "time"

// DeathWarning is emitted once per crisis for a pet expected to die next tick.
type DeathWarning struct {
	PetID     uint   `json:"pet_id"`
	PetName   string `json:"pet_name"`
	OwnerID   string `json:"owner_id"`
	Health    int    `json:"health"`
	Hunger    int    `json:"hunger"`
	NeedsHeal bool   `json:"needs_heal"`
	NeedsFeed bool   `json:"needs_feed"`
}

// DeathNotice announces a pet death.
type DeathNotice struct {
	PetID      uint   `json:"pet_id"`
	PetName    string `json:"pet_name"`
	Generation int    `json:"generation"`
	Reason     string `json:"reason"`
	OwnerID    string `json:"owner_id"`
	LivedDays  int    `json:"lived_days"`
	Epitaph    string `json:"epitaph"`
}

// DramaPosted announces a drama event and, unless forced, its open vote.
type DramaPosted struct {
	EventID     uint          `json:"event_id"`
	Channel     string        `json:"channel"`
	Category    DramaCategory `json:"category"`
	Description string        `json:"description"`
	NPCs        []string      `json:"npcs"`
	Options     []string      `json:"options,omitempty"`
	ClosesAt    time.Time     `json:"closes_at,omitempty"`
	Forced      bool          `json:"forced"`
}

// OptionTally is the final vote count for one option.
type OptionTally struct {
	Label string `json:"label"`
	Votes int    `json:"votes"`
}

// DramaResolved announces the outcome of a vote.
type DramaResolved struct {
	EventID      uint          `json:"event_id"`
	Channel      string        `json:"channel"`
	Outcome      string        `json:"outcome"`
	FateDecided  bool          `json:"fate_decided"`
	Tally        []OptionTally `json:"tally"`
	Relationship Relationship  `json:"relationship"`
}
