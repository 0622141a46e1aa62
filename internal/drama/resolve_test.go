package drama

import (
	"context"
	"strings"
	"testing"

	"github.com/easeaico/pet-village/internal/relationship"
	"github.com/easeaico/pet-village/internal/types"
)

func TestWinner(t *testing.T) {
	cases := []struct {
		votes []int
		want  int
		fate  bool
	}{
		{[]int{1, 3, 2}, 1, false},
		{[]int{2, 2, 5}, 2, false},
		{[]int{4, 0, 0}, 0, false},
		{[]int{0, 0, 0}, 2, true},
		{[]int{3, 1, 3}, 2, true},
	}
	for _, tc := range cases {
		got, fate := Winner(tc.votes, &scriptRand{ints: []int{2}})
		if got != tc.want || fate != tc.fate {
			t.Fatalf("Winner(%v) = %d/%v, want %d/%v", tc.votes, got, fate, tc.want, tc.fate)
		}
	}
}

func TestPlanBreakupClearsDating(t *testing.T) {
	planner := NewPlanner(&scriptRand{}, DefaultSettings())
	plan, err := planner.Plan(types.DramaRomanceConflict, "Luna", "Marcus", relationship.Names(relationship.DefaultCast), 1, false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if plan.Option != OptionBreakup || len(plan.Adjustments) != 1 || plan.Adjustments[0].Delta != -30 {
		t.Fatalf("unexpected plan: %#v", plan)
	}
	if len(plan.Updates) != 2 || plan.Updates[0].Update.Dating == nil || plan.Updates[0].Update.Dating.Name != "" {
		t.Fatalf("expected dating cleared on both, got %#v", plan.Updates)
	}
}

func TestPlanJusticeSetsMutualRivals(t *testing.T) {
	planner := NewPlanner(&scriptRand{}, DefaultSettings())
	plan, _ := planner.Plan(types.DramaBetrayal, "Aria", "Felix", nil, 1, false)
	if len(plan.Updates) != 2 {
		t.Fatalf("expected two rival updates, got %#v", plan.Updates)
	}
	if plan.Updates[0].Name != "Aria" || plan.Updates[0].Update.Rival.Name != "Felix" {
		t.Fatalf("unexpected update: %#v", plan.Updates[0])
	}
	if plan.Updates[1].Name != "Felix" || plan.Updates[1].Update.Rival.Name != "Aria" {
		t.Fatalf("unexpected update: %#v", plan.Updates[1])
	}
}

func TestPlanSpreadHitsBystanders(t *testing.T) {
	planner := NewPlanner(&scriptRand{}, DefaultSettings())
	plan, _ := planner.Plan(types.DramaScandal, "Aria", "Felix", relationship.Names(relationship.DefaultCast), 2, false)
	if len(plan.Adjustments) != 1 {
		t.Fatalf("expected one adjustment, got %#v", plan.Adjustments)
	}
	adj := plan.Adjustments[0]
	for _, name := range []string{adj.A, adj.B} {
		if name == "Aria" || name == "Felix" {
			t.Fatalf("spread must hit uninvolved npcs, got %#v", adj)
		}
	}
	if adj.A == adj.B || adj.Delta != -5 {
		t.Fatalf("unexpected adjustment: %#v", adj)
	}
}

func TestPlanFightFlavor(t *testing.T) {
	planner := NewPlanner(&scriptRand{floats: []float64{0.9}}, DefaultSettings())
	plan, _ := planner.Plan(types.DramaRomanceConflict, "Luna", "Marcus", nil, 2, false)
	if !strings.Contains(plan.Outcome, "Marcus stood their ground") {
		t.Fatalf("unexpected fight outcome: %s", plan.Outcome)
	}
}

func TestPlanFateNoted(t *testing.T) {
	planner := NewPlanner(&scriptRand{}, DefaultSettings())
	plan, _ := planner.Plan(types.DramaMystery, "Luna", "Marcus", nil, 2, true)
	if !strings.Contains(plan.Outcome, "Fate decided") || len(plan.Adjustments) != 0 {
		t.Fatalf("unexpected plan: %#v", plan)
	}
}

func TestPlanRejectsBadIndex(t *testing.T) {
	planner := NewPlanner(&scriptRand{}, DefaultSettings())
	if _, err := planner.Plan(types.DramaMystery, "Luna", "Marcus", nil, 3, false); err == nil {
		t.Fatalf("expected error for out of range option")
	}
}

func TestForcedPlan(t *testing.T) {
	planner := NewPlanner(&scriptRand{}, DefaultSettings())
	cases := map[types.DramaCategory]int{
		types.DramaRomanceStart:    10,
		types.DramaAlliance:        10,
		types.DramaBetrayal:        -10,
		types.DramaScandal:         -10,
		types.DramaMystery:         0,
		types.DramaRomanceConflict: 0,
	}
	for category, want := range cases {
		plan := planner.ForcedPlan(types.DramaEvent{Category: category, NPC1: "Luna", NPC2: "Marcus"})
		got := 0
		for _, adj := range plan.Adjustments {
			got += adj.Delta
		}
		if got != want {
			t.Fatalf("%s: expected delta %d, got %d", category, want, got)
		}
	}
}

func TestExecuteAppliesOnce(t *testing.T) {
	rels := newFakeRels()
	rels.set("Luna", "Marcus", 85)
	_ = rels.UpdateNPC(context.Background(), "Luna", types.NPCStateUpdate{Dating: &types.NPCRef{Name: "Marcus"}})
	_ = rels.UpdateNPC(context.Background(), "Marcus", types.NPCStateUpdate{Dating: &types.NPCRef{Name: "Luna"}})

	planner := NewPlanner(&scriptRand{}, DefaultSettings())
	plan, _ := planner.Plan(types.DramaRomanceConflict, "Luna", "Marcus", nil, 1, false)
	rel, err := Execute(context.Background(), rels, plan, "Luna", "Marcus")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rel.Score != 55 || rel.Type != types.RelationshipNeutral || rel.LastEvent != "broke_up" {
		t.Fatalf("unexpected relationship: %#v", rel)
	}
	if rels.states["Luna"].Dating != "" || rels.states["Marcus"].Dating != "" {
		t.Fatalf("dating not cleared: %#v", rels.states)
	}
}
