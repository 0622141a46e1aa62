// Package narrator writes epitaphs and drama retellings, with a language
// model when one is configured and fixed templates otherwise.
package narrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"go.opentelemetry.io/otel"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/pet-village/internal/decay"
	"github.com/easeaico/pet-village/internal/prompt"
	"github.com/easeaico/pet-village/internal/types"
	"github.com/easeaico/pet-village/internal/utils"
)

var tracer = otel.Tracer("narrator")

// Narrator is satisfied by both Templates and LLM.
type Narrator interface {
	Epitaph(ctx context.Context, pet types.Pet, reason string, livedDays int) string
	Retell(ctx context.Context, event types.DramaEvent) string
}

// Templates is the deterministic narrator.
type Templates struct{}

// Epitaph returns the standard memorial inscription.
func (Templates) Epitaph(ctx context.Context, pet types.Pet, reason string, livedDays int) string {
	return decay.MemorialText(pet.Name, reason)
}

// Retell keeps the generated description.
func (Templates) Retell(ctx context.Context, event types.DramaEvent) string {
	return event.Description
}

// MaxTextLength caps narrated text in runes.
const MaxTextLength = 400

// outputSchema is the JSON shape the model must reply with.
func outputSchema() *jsonschema.Schema {
	minLen, maxLen := 1, MaxTextLength*4
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"text": {Type: "string", MinLength: &minLen, MaxLength: &maxLen},
		},
		Required: []string{"text"},
	}
}

// LLM narrates through a language model and falls back to Templates on any failure.
type LLM struct {
	model    model.LLM
	builder  *prompt.Builder
	resolved *jsonschema.Resolved
	cast     []types.NPC
	timeout  time.Duration
	fallback Templates
}

// NewLLM creates a model-backed narrator.
func NewLLM(llm model.LLM, cast []types.NPC, timeout time.Duration) (*LLM, error) {
	if llm == nil {
		return nil, fmt.Errorf("narrator model cannot be nil")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	resolved, err := outputSchema().Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve narrator schema: %w", err)
	}
	return &LLM{
		model:    llm,
		builder:  prompt.NewBuilder(60),
		resolved: resolved,
		cast:     cast,
		timeout:  timeout,
	}, nil
}

func (n *LLM) Epitaph(ctx context.Context, pet types.Pet, reason string, livedDays int) string {
	ctx, span := tracer.Start(ctx, "Narrator.Epitaph")
	defer span.End()

	contents, err := n.builder.Epitaph(prompt.EpitaphInput{Pet: pet, Reason: reason, LivedDays: livedDays})
	if err == nil {
		var text string
		if text, err = n.generate(ctx, contents); err == nil {
			return text
		}
	}
	span.RecordError(err)
	slog.WarnContext(ctx, "epitaph narration failed, using template", "pet_id", pet.ID, "error", err.Error())
	return n.fallback.Epitaph(ctx, pet, reason, livedDays)
}

func (n *LLM) Retell(ctx context.Context, event types.DramaEvent) string {
	ctx, span := tracer.Start(ctx, "Narrator.Retell")
	defer span.End()

	contents, err := n.builder.Retell(prompt.RetellInput{Event: event, Cast: n.involved(event)})
	if err == nil {
		var text string
		if text, err = n.generate(ctx, contents); err == nil {
			return text
		}
	}
	span.RecordError(err)
	slog.WarnContext(ctx, "drama narration failed, using template", "category", string(event.Category), "error", err.Error())
	return n.fallback.Retell(ctx, event)
}

func (n *LLM) generate(ctx context.Context, contents []*genai.Content) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req := &model.LLMRequest{
		Config: &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	}
	for _, c := range contents {
		if c.Role == "system" {
			req.Config.SystemInstruction = c
			continue
		}
		req.Contents = append(req.Contents, c)
	}

	var resp *model.LLMResponse
	var err error
	n.model.GenerateContent(ctx, req, false)(func(r *model.LLMResponse, e error) bool {
		resp = r
		err = e
		return false
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate narration: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("empty narration response")
	}

	obj, err := utils.ExtractJSONObject(utils.ExtractContentText(resp.Content))
	if err != nil {
		return "", err
	}
	if err := n.resolved.Validate(obj); err != nil {
		return "", fmt.Errorf("narration does not match schema: %w", err)
	}
	text := utils.NormalizeNarration(obj["text"].(string))
	if text == "" {
		return "", fmt.Errorf("narration is blank")
	}
	if runes := []rune(text); len(runes) > MaxTextLength {
		text = strings.TrimSpace(string(runes[:MaxTextLength])) + "…"
	}
	return text, nil
}

func (n *LLM) involved(event types.DramaEvent) []types.NPC {
	var out []types.NPC
	for _, npc := range n.cast {
		if npc.Name == event.NPC1 || npc.Name == event.NPC2 || npc.Name == event.Witness {
			out = append(out, npc)
		}
	}
	return out
}
