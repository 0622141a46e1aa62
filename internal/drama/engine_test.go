package drama

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/easeaico/pet-village/internal/types"
)

var testNow = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

func immediate(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- testNow
	return ch
}

type engineFixture struct {
	rels     *fakeRels
	store    *fakeStore
	notifier *fakeNotifier
	engine   *Engine
}

func newEngineFixture(channel string, rng *scriptRand) *engineFixture {
	f := &engineFixture{rels: newFakeRels(), store: newFakeStore(), notifier: &fakeNotifier{}}
	board := NewStoreBoard(channel, f.store, f.notifier)
	f.engine = NewEngine(f.rels, f.store, board, f.notifier, rng, DefaultSettings(),
		WithClock(func() time.Time { return testNow }, immediate))
	return f
}

func TestRunCycleUnvotedFateDecides(t *testing.T) {
	f := newEngineFixture("square", &scriptRand{})

	if err := f.engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(f.notifier.posted) != 1 || len(f.notifier.posted[0].Options) != 3 {
		t.Fatalf("expected one posted vote, got %#v", f.notifier.posted)
	}
	if len(f.notifier.resolved) != 1 {
		t.Fatalf("expected one resolution, got %d", len(f.notifier.resolved))
	}
	resolved := f.notifier.resolved[0]
	if !resolved.FateDecided || !strings.Contains(resolved.Outcome, "Fate decided") {
		t.Fatalf("expected fate to decide, got %#v", resolved)
	}
	// Every scripted draw is zero: the first option, support, wins by fate.
	event := f.store.events[1]
	if f.rels.score(event.NPC1, event.NPC2) != 60 {
		t.Fatalf("expected support delta applied once, got %d", f.rels.score(event.NPC1, event.NPC2))
	}
	if event.ResolvedAt == nil || event.Outcome != resolved.Outcome {
		t.Fatalf("event not resolved: %#v", event)
	}
	if len(f.store.sessions) != 0 {
		t.Fatalf("session not cleared")
	}
}

func TestResolveBreakupByVote(t *testing.T) {
	f := newEngineFixture("square", &scriptRand{})
	ctx := context.Background()
	f.rels.set("Luna", "Marcus", 85)
	_ = f.rels.UpdateNPC(ctx, "Luna", types.NPCStateUpdate{Dating: &types.NPCRef{Name: "Marcus"}})
	_ = f.rels.UpdateNPC(ctx, "Marcus", types.NPCStateUpdate{Dating: &types.NPCRef{Name: "Luna"}})

	event := &types.DramaEvent{Category: types.DramaRomanceConflict, NPC1: "Luna", NPC2: "Marcus", Witness: "Felix"}
	_ = f.store.CreateDramaEvent(ctx, event)
	session := types.DramaSession{
		Channel: "square", EventID: event.ID, MessageID: "m1",
		Category: event.Category, NPC1: "Luna", NPC2: "Marcus",
		Options: Options(event.Category), ClosesAt: testNow.Add(time.Minute),
	}
	_ = f.store.SaveSession(ctx, session)
	for user, option := range map[string]int{"u1": 2, "u2": 2, "u3": 1, "u4": 3, "u5": 2} {
		if err := f.engine.CastVote(ctx, user, option); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	resolved, err := f.engine.resolve(ctx, session)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resolved.FateDecided || resolved.Tally[1].Votes != 3 || resolved.Tally[1].Label != OptionBreakup {
		t.Fatalf("unexpected resolution: %#v", resolved)
	}
	if resolved.Relationship.Score != 55 || resolved.Relationship.Type != types.RelationshipNeutral {
		t.Fatalf("unexpected relationship: %#v", resolved.Relationship)
	}
	if f.rels.states["Luna"].Dating != "" || f.rels.states["Marcus"].Dating != "" {
		t.Fatalf("dating not cleared")
	}

	// A second resolution of the same event must not apply the delta again.
	_ = f.store.SaveSession(ctx, session)
	again, err := f.engine.resolve(ctx, session)
	if err != nil || again != nil {
		t.Fatalf("expected silent no-op, got %#v / %v", again, err)
	}
	if f.rels.score("Luna", "Marcus") != 55 {
		t.Fatalf("delta applied twice: %d", f.rels.score("Luna", "Marcus"))
	}
}

func TestResolveMessageGoneClearsSession(t *testing.T) {
	f := newEngineFixture("square", &scriptRand{})
	ctx := context.Background()
	event := &types.DramaEvent{Category: types.DramaMystery, NPC1: "Luna", NPC2: "Marcus"}
	_ = f.store.CreateDramaEvent(ctx, event)
	stored := types.DramaSession{Channel: "square", EventID: event.ID, MessageID: "new", Category: event.Category, NPC1: "Luna", NPC2: "Marcus", Options: Options(event.Category)}
	_ = f.store.SaveSession(ctx, stored)

	stale := stored
	stale.MessageID = "old"
	resolved, err := f.engine.resolve(ctx, stale)
	if err != nil || resolved != nil {
		t.Fatalf("expected aborted resolution, got %#v / %v", resolved, err)
	}
	if len(f.store.sessions) != 0 {
		t.Fatalf("session must be cleared regardless")
	}
	if f.store.events[event.ID].ResolvedAt != nil || f.rels.score("Luna", "Marcus") != 50 {
		t.Fatalf("aborted resolution must not mutate state")
	}
}

func TestRunCycleSkipsWithoutChannel(t *testing.T) {
	f := newEngineFixture("", &scriptRand{})
	if err := f.engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(f.store.events) != 0 || len(f.notifier.posted) != 0 {
		t.Fatalf("cycle should have been skipped")
	}
}

func TestRunCycleCancelledKeepsSession(t *testing.T) {
	f := newEngineFixture("square", &scriptRand{})
	f.engine.after = func(time.Duration) <-chan time.Time { return nil }
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.engine.RunCycle(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(f.store.sessions) != 1 {
		t.Fatalf("open session must survive for recovery")
	}
}

func TestCastVoteValidation(t *testing.T) {
	f := newEngineFixture("square", &scriptRand{})
	ctx := context.Background()

	if err := f.engine.CastVote(ctx, "u1", 1); !errors.Is(err, types.ErrNoActiveDrama) {
		t.Fatalf("expected ErrNoActiveDrama, got %v", err)
	}

	session := types.DramaSession{Channel: "square", EventID: 1, Options: Options(types.DramaMystery), ClosesAt: testNow.Add(time.Minute)}
	_ = f.store.SaveSession(ctx, session)
	if err := f.engine.CastVote(ctx, "u1", 4); !errors.Is(err, types.ErrInvalidVoteOption) {
		t.Fatalf("expected ErrInvalidVoteOption, got %v", err)
	}
	_ = f.engine.CastVote(ctx, "u1", 1)
	_ = f.engine.CastVote(ctx, "u1", 2)
	counts, _ := f.store.CountVotes(ctx, 1, 3)
	if counts[0] != 0 || counts[1] != 1 {
		t.Fatalf("re-vote should replace, got %v", counts)
	}

	session.ClosesAt = testNow
	_ = f.store.SaveSession(ctx, session)
	if err := f.engine.CastVote(ctx, "u2", 1); !errors.Is(err, types.ErrVoteClosed) {
		t.Fatalf("expected ErrVoteClosed, got %v", err)
	}
}

func TestForceAppliesFlatDelta(t *testing.T) {
	// Shuffle draws zeros, then alliance is picked with its first template.
	f := newEngineFixture("square", &scriptRand{ints: []int{0, 0, 0, 0, 1, 0}})

	result, err := f.engine.Force(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Event.Category != types.DramaAlliance || !result.Event.Forced {
		t.Fatalf("unexpected event: %#v", result.Event)
	}
	if result.Relationship.Score != 60 {
		t.Fatalf("expected alliance bonus applied, got %#v", result.Relationship)
	}
	if len(f.notifier.posted) != 1 || !f.notifier.posted[0].Forced || len(f.notifier.posted[0].Options) != 0 {
		t.Fatalf("expected forced announcement without a vote, got %#v", f.notifier.posted)
	}
	if len(f.store.sessions) != 0 {
		t.Fatalf("forced drama must not open a vote")
	}
	if f.store.events[result.Event.ID].ResolvedAt == nil {
		t.Fatalf("forced event should be resolved immediately")
	}
}

func TestForceResolvesEventWhenOutcomeFails(t *testing.T) {
	f := newEngineFixture("square", &scriptRand{ints: []int{0, 0, 0, 0, 1, 0}})
	f.rels.adjustErr = errors.New("database is locked")

	result, err := f.engine.Force(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Relationship.Score != 50 {
		t.Fatalf("expected relationship unchanged, got %#v", result.Relationship)
	}
	event := f.store.events[result.Event.ID]
	if event.ResolvedAt == nil || event.Outcome == "" {
		t.Fatalf("forced event must be resolved even when the outcome fails, got %#v", event)
	}
}

func TestRecoverResolvesPersistedSession(t *testing.T) {
	f := newEngineFixture("square", &scriptRand{})
	ctx := context.Background()
	event := &types.DramaEvent{Category: types.DramaMystery, NPC1: "Aria", NPC2: "Thorne"}
	_ = f.store.CreateDramaEvent(ctx, event)
	_ = f.store.SaveSession(ctx, types.DramaSession{
		Channel: "square", EventID: event.ID, MessageID: "m", Category: event.Category,
		NPC1: "Aria", NPC2: "Thorne", Options: Options(event.Category), ClosesAt: testNow.Add(-time.Minute),
	})
	_ = f.store.CastVote(ctx, event.ID, "u1", 2)

	if err := f.engine.Recover(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.rels.score("Aria", "Thorne") != 40 {
		t.Fatalf("expected oppose delta, got %d", f.rels.score("Aria", "Thorne"))
	}
	if len(f.store.sessions) != 0 {
		t.Fatalf("session not cleared")
	}
}

func TestHistoryDefaultsLimit(t *testing.T) {
	f := newEngineFixture("square", &scriptRand{})
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		_ = f.store.CreateDramaEvent(ctx, &types.DramaEvent{Category: types.DramaMystery})
	}
	events, err := f.engine.History(ctx, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(events) != 20 || events[0].ID != 25 {
		t.Fatalf("unexpected history: %d events, first %d", len(events), events[0].ID)
	}
}
