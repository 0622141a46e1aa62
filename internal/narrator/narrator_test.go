package narrator

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/pet-village/internal/relationship"
	"github.com/easeaico/pet-village/internal/types"
)

type fakeLLM struct {
	reply string
	err   error
	last  *model.LLMRequest
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	f.last = req
	return func(yield func(*model.LLMResponse, error) bool) {
		if f.err != nil {
			yield(nil, f.err)
			return
		}
		yield(&model.LLMResponse{Content: genai.NewContentFromText(f.reply, "model")}, nil)
	}
}

func newNarrator(t *testing.T, llm *fakeLLM) *LLM {
	t.Helper()
	n, err := NewLLM(llm, relationship.DefaultCast, time.Second)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return n
}

func TestTemplates(t *testing.T) {
	var n Templates
	got := n.Epitaph(context.Background(), types.Pet{Name: "Mochi"}, types.DeathReasonStarvation, 3)
	if got != "Here lies Mochi, who died of starvation." {
		t.Fatalf("unexpected epitaph %q", got)
	}
	if n.Retell(context.Background(), types.DramaEvent{Description: "as is"}) != "as is" {
		t.Fatalf("expected description unchanged")
	}
}

func TestEpitaphFromModel(t *testing.T) {
	llm := &fakeLLM{reply: "```json\n{\"text\": \"Mochi  napped\\nforever in the sun.\"}\n```"}
	got := newNarrator(t, llm).Epitaph(context.Background(), types.Pet{ID: 1, Name: "Mochi"}, types.DeathReasonNatural, 10)
	if got != "Mochi napped forever in the sun." {
		t.Fatalf("unexpected epitaph %q", got)
	}
	if llm.last.Config.SystemInstruction == nil || len(llm.last.Contents) != 1 {
		t.Fatalf("expected system instruction split from contents: %#v", llm.last)
	}
}

func TestEpitaphFallsBack(t *testing.T) {
	cases := map[string]*fakeLLM{
		"model error":  {err: errors.New("quota")},
		"not json":     {reply: "a lovely pet"},
		"missing text": {reply: `{"epitaph": "x"}`},
		"empty text":   {reply: `{"text": ""}`},
	}
	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			got := newNarrator(t, llm).Epitaph(context.Background(), types.Pet{Name: "Bean"}, types.DeathReasonStarvation, 1)
			if got != "Here lies Bean, who died of starvation." {
				t.Fatalf("expected template fallback, got %q", got)
			}
		})
	}
}

func TestRetellUsesInvolvedCast(t *testing.T) {
	llm := &fakeLLM{reply: `{"text": "Whispers fill the square."}`}
	event := types.DramaEvent{Category: types.DramaScandal, Description: "Aria and Thorne were seen together", NPC1: "Aria", NPC2: "Thorne"}

	got := newNarrator(t, llm).Retell(context.Background(), event)
	if got != "Whispers fill the square." {
		t.Fatalf("unexpected retelling %q", got)
	}
	user := llm.last.Contents[0].Parts[0].Text
	if !strings.Contains(user, "Aria is a mysterious trader") || strings.Contains(user, "Luna") {
		t.Fatalf("unexpected cast in prompt: %s", user)
	}
}

func TestRetellTruncatesLongText(t *testing.T) {
	long := strings.Repeat("drama ", 100)
	llm := &fakeLLM{reply: `{"text": "` + long + `"}`}
	got := newNarrator(t, llm).Retell(context.Background(), types.DramaEvent{Description: "short"})
	if len([]rune(got)) > MaxTextLength+1 || !strings.HasSuffix(got, "…") {
		t.Fatalf("expected truncated text, got %d runes", len([]rune(got)))
	}
}

func TestNewLLMRequiresModel(t *testing.T) {
	if _, err := NewLLM(nil, nil, 0); err == nil {
		t.Fatalf("expected error for nil model")
	}
}
