package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Decay.Interval)
	assert.Equal(t, 5, cfg.Decay.HungerGain)
	assert.Equal(t, 80, cfg.Decay.SevereThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Drama.Interval)
	assert.Equal(t, 2*time.Minute, cfg.Drama.VoteWindow)
	assert.Equal(t, -30, cfg.Drama.BreakupPenalty)
	assert.Equal(t, 50, cfg.Relationship.Default)
	assert.Equal(t, 5, cfg.Care.StartFood)
	assert.Equal(t, "none", cfg.Narrator.Provider)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("DECAY_INTERVAL", "30s")
	t.Setenv("DRAMA_FIGHT_CHANCE", "0.9")
	t.Setenv("RELATIONSHIP_LOVERS", "90")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Decay.Interval)
	assert.InDelta(t, 0.9, cfg.Drama.FightChance, 1e-9)
	assert.Equal(t, 90, cfg.Relationship.Lovers)
}

func TestParseRejectsInvertedThresholds(t *testing.T) {
	t.Setenv("RELATIONSHIP_FRIENDS", "85")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relationship thresholds")
}

func TestValidateRequiresNarratorKey(t *testing.T) {
	t.Setenv("NARRATOR_PROVIDER", "gemini")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NARRATOR_API_KEY")
}

func TestValidateRejectsZeroVoteWindow(t *testing.T) {
	t.Setenv("DRAMA_VOTE_WINDOW", "0s")

	_, err := Parse()
	require.Error(t, err)
}
