package types

import "time"

// DramaCategory enumerates generated drama events.
type DramaCategory string

const (
	DramaRomanceStart    DramaCategory = "romance_start"
	DramaRomanceConflict DramaCategory = "romance_conflict"
	DramaBetrayal        DramaCategory = "betrayal"
	DramaAlliance        DramaCategory = "alliance"
	DramaMystery         DramaCategory = "mystery"
	DramaScandal         DramaCategory = "scandal"
)

// DramaEvent is one generated drama occurrence.
// Witness is the optional third NPC named by the narrative.
type DramaEvent struct {
	ID          uint          `json:"id"`
	Category    DramaCategory `json:"category"`
	Description string        `json:"description"`
	NPC1        string        `json:"npc1"`
	NPC2        string        `json:"npc2"`
	Witness     string        `json:"witness,omitempty"`
	Outcome     string        `json:"outcome,omitempty"`
	Votes       []int         `json:"votes,omitempty"`
	Forced      bool          `json:"forced"`
	CreatedAt   time.Time     `json:"created_at"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
}

// Resolved reports whether the outcome has been written.
func (e DramaEvent) Resolved() bool {
	return e.ResolvedAt != nil
}

// DramaSession is the currently open vote on a channel.
type DramaSession struct {
	Channel   string        `json:"channel"`
	EventID   uint          `json:"event_id"`
	MessageID string        `json:"message_id"`
	Category  DramaCategory `json:"category"`
	NPC1      string        `json:"npc1"`
	NPC2      string        `json:"npc2"`
	Options   []string      `json:"options"`
	ClosesAt  time.Time     `json:"closes_at"`
}
