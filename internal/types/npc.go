package types

import "time"

// NPC is a member of the fixed village cast.
type NPC struct {
	Name        string `json:"name"`
	Personality string `json:"personality"`
	Role        string `json:"role"`
	Temper      int    `json:"temper"`
}

// NPCState is the mutable part of an NPC.
type NPCState struct {
	Name   string `json:"name"`
	Mood   string `json:"mood"`
	Dating string `json:"dating,omitempty"`
	Rival  string `json:"rival,omitempty"`
}

// DefaultMood is the mood every NPC starts with.
const DefaultMood = "normal"

// NPCRef is a nullable reference to another NPC. The zero value clears the field.
type NPCRef struct {
	Name string
}

// NPCStateUpdate names the mutable NPC fields. A nil field is left untouched.
type NPCStateUpdate struct {
	Mood   *string
	Dating *NPCRef
	Rival  *NPCRef
}

// ClearDating returns an update that removes the dating partner.
func ClearDating() NPCStateUpdate {
	return NPCStateUpdate{Dating: &NPCRef{}}
}

// SetRival returns an update that points the rival field at name.
func SetRival(name string) NPCStateUpdate {
	return NPCStateUpdate{Rival: &NPCRef{Name: name}}
}

// Empty reports whether the update touches no field.
func (u NPCStateUpdate) Empty() bool {
	return u.Mood == nil && u.Dating == nil && u.Rival == nil
}

// RelationshipType is the categorical bucket derived from a relationship score.
type RelationshipType string

const (
	RelationshipEnemies RelationshipType = "enemies"
	RelationshipRivals  RelationshipType = "rivals"
	RelationshipNeutral RelationshipType = "neutral"
	RelationshipFriends RelationshipType = "friends"
	RelationshipLovers  RelationshipType = "lovers"
)

// Relationship is the symmetric scored edge between two NPCs.
// NPC1 sorts before NPC2.
type Relationship struct {
	NPC1      string           `json:"npc1"`
	NPC2      string           `json:"npc2"`
	Score     int              `json:"score"`
	Type      RelationshipType `json:"type"`
	LastEvent string           `json:"last_event,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Involves reports whether name is one end of the edge.
func (r Relationship) Involves(name string) bool {
	return r.NPC1 == name || r.NPC2 == name
}

// PairKey orders two NPC names the way relationship rows are stored.
func PairKey(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
