// Package relationship owns NPC relationship scoring and NPC state updates.
package relationship

import (
	"github.com/easeaico/pet-village/internal/config"
	"github.com/easeaico/pet-village/internal/types"
)

// Scale bounds relationship scores and buckets them into types.
type Scale struct {
	Min     int
	Max     int
	Default int
	Lovers  int
	Friends int
	Neutral int
	Rivals  int
}

// DefaultScale returns the 0..100 scale with a neutral baseline of 50.
func DefaultScale() Scale {
	return Scale{Min: 0, Max: 100, Default: 50, Lovers: 80, Friends: 60, Neutral: 40, Rivals: 20}
}

// ScaleFromConfig builds a Scale from configuration.
func ScaleFromConfig(cfg config.RelationshipConfig) Scale {
	return Scale{
		Min:     cfg.Min,
		Max:     cfg.Max,
		Default: cfg.Default,
		Lovers:  cfg.Lovers,
		Friends: cfg.Friends,
		Neutral: cfg.Neutral,
		Rivals:  cfg.Rivals,
	}
}

// Clamp bounds score to [Min, Max].
func (s Scale) Clamp(score int) int {
	switch {
	case score < s.Min:
		return s.Min
	case score > s.Max:
		return s.Max
	default:
		return score
	}
}

// Bucket maps score to its relationship type.
func (s Scale) Bucket(score int) types.RelationshipType {
	switch {
	case score >= s.Lovers:
		return types.RelationshipLovers
	case score >= s.Friends:
		return types.RelationshipFriends
	case score >= s.Neutral:
		return types.RelationshipNeutral
	case score >= s.Rivals:
		return types.RelationshipRivals
	default:
		return types.RelationshipEnemies
	}
}

// Apply returns rel with delta applied, clamped and re-bucketed.
func (s Scale) Apply(rel types.Relationship, delta int, label string) types.Relationship {
	rel.Score = s.Clamp(rel.Score + delta)
	rel.Type = s.Bucket(rel.Score)
	rel.LastEvent = label
	return rel
}
