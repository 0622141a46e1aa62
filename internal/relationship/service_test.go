package relationship

import (
	"context"
	"errors"
	"testing"

	"github.com/easeaico/pet-village/internal/types"
)

func TestBucketThresholds(t *testing.T) {
	scale := DefaultScale()
	cases := []struct {
		score int
		want  types.RelationshipType
	}{
		{0, types.RelationshipEnemies},
		{19, types.RelationshipEnemies},
		{20, types.RelationshipRivals},
		{39, types.RelationshipRivals},
		{40, types.RelationshipNeutral},
		{59, types.RelationshipNeutral},
		{60, types.RelationshipFriends},
		{79, types.RelationshipFriends},
		{80, types.RelationshipLovers},
		{100, types.RelationshipLovers},
	}
	for _, tc := range cases {
		if got := scale.Bucket(tc.score); got != tc.want {
			t.Fatalf("bucket(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestAdjustToLovers(t *testing.T) {
	scale := DefaultScale()
	repo := newFakeRepo(scale, DefaultCast)
	service := NewService(repo, scale, DefaultCast)

	rel, err := service.Adjust(context.Background(), "Marcus", "Luna", 35, "admin")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rel.Score != 85 || rel.Type != types.RelationshipLovers {
		t.Fatalf("unexpected relationship: %#v", rel)
	}
	if rel.NPC1 != "Luna" || rel.NPC2 != "Marcus" || rel.LastEvent != "admin" {
		t.Fatalf("unexpected pair or label: %#v", rel)
	}
}

func TestAdjustClampsAndKeepsTypeConsistent(t *testing.T) {
	scale := DefaultScale()
	repo := newFakeRepo(scale, DefaultCast)
	service := NewService(repo, scale, DefaultCast)
	ctx := context.Background()

	for _, delta := range []int{-30, -30, -30, 15, 90, 90, -10} {
		rel, err := service.Adjust(ctx, "Felix", "Aria", delta, "walk")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rel.Score < scale.Min || rel.Score > scale.Max {
			t.Fatalf("score out of range: %d", rel.Score)
		}
		if rel.Type != scale.Bucket(rel.Score) {
			t.Fatalf("type %s does not match score %d", rel.Type, rel.Score)
		}
	}
	rel, _ := service.Get(ctx, "Aria", "Felix")
	if rel.Score != 90 {
		t.Fatalf("expected final score 90, got %d", rel.Score)
	}
}

func TestAdjustRejectsUnknownAndSelf(t *testing.T) {
	scale := DefaultScale()
	service := NewService(newFakeRepo(scale, DefaultCast), scale, DefaultCast)

	if _, err := service.Adjust(context.Background(), "Luna", "Nobody", 5, "x"); !errors.Is(err, types.ErrUnknownNPC) {
		t.Fatalf("expected ErrUnknownNPC, got %v", err)
	}
	if _, err := service.Adjust(context.Background(), "Luna", "Luna", 5, "x"); !errors.Is(err, types.ErrUnknownNPC) {
		t.Fatalf("expected ErrUnknownNPC for self pair, got %v", err)
	}
}

func TestListByTypeOrdersByScore(t *testing.T) {
	scale := DefaultScale()
	repo := newFakeRepo(scale, DefaultCast)
	service := NewService(repo, scale, DefaultCast)
	ctx := context.Background()

	_, _ = service.Adjust(ctx, "Luna", "Marcus", 35, "x")
	_, _ = service.Adjust(ctx, "Aria", "Thorne", 45, "x")
	_, _ = service.Adjust(ctx, "Felix", "Marcus", -35, "x")

	lovers, err := service.ListByType(ctx, types.RelationshipLovers)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(lovers) != 2 || lovers[0].Score != 95 || lovers[1].Score != 85 {
		t.Fatalf("unexpected lovers: %#v", lovers)
	}
	hostile, _ := service.ListByType(ctx, types.RelationshipRivals, types.RelationshipEnemies)
	if len(hostile) != 1 || !hostile[0].Involves("Felix") {
		t.Fatalf("unexpected hostile edges: %#v", hostile)
	}
}

func TestUpdateNPCClearsDating(t *testing.T) {
	scale := DefaultScale()
	repo := newFakeRepo(scale, DefaultCast)
	service := NewService(repo, scale, DefaultCast)
	ctx := context.Background()

	if err := service.UpdateNPC(ctx, "Luna", types.NPCStateUpdate{Dating: &types.NPCRef{Name: "Marcus"}}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := service.UpdateNPC(ctx, "Luna", types.ClearDating()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	state, _ := service.NPCState(ctx, "Luna")
	if state.Dating != "" || state.Mood != types.DefaultMood {
		t.Fatalf("unexpected state: %#v", state)
	}
	if err := service.UpdateNPC(ctx, "Luna", types.SetRival("Ghost")); !errors.Is(err, types.ErrUnknownNPC) {
		t.Fatalf("expected ErrUnknownNPC for unknown rival, got %v", err)
	}
}

func TestPairsCoverEveryUnorderedPair(t *testing.T) {
	pairs := Pairs(DefaultCast)
	if len(pairs) != 10 {
		t.Fatalf("expected 10 pairs, got %d", len(pairs))
	}
	for _, p := range pairs {
		if p[0] >= p[1] {
			t.Fatalf("pair not ordered: %v", p)
		}
	}
}
