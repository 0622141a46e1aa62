// Package prompt renders the narrator prompts.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"

	"google.golang.org/genai"

	"github.com/easeaico/pet-village/internal/types"
)

// EpitaphInput describes a pet death to narrate.
type EpitaphInput struct {
	Pet       types.Pet
	Reason    string
	LivedDays int
}

// RetellInput describes a drama event to retell.
type RetellInput struct {
	Event types.DramaEvent
	Cast  []types.NPC
}

// Builder assembles system and user contents for the narrator.
type Builder struct {
	maxWords int
}

// NewBuilder creates a Builder limiting replies to maxWords.
func NewBuilder(maxWords int) *Builder {
	if maxWords <= 0 {
		maxWords = 60
	}
	return &Builder{maxWords: maxWords}
}

// SystemInstruction returns the chronicler system prompt.
func (b *Builder) SystemInstruction() (*genai.Content, error) {
	text, err := render(systemTemplate, struct{ MaxWords int }{b.maxWords})
	if err != nil {
		return nil, err
	}
	return genai.NewContentFromText(text, "system"), nil
}

// Epitaph builds the request contents for a memorial text.
func (b *Builder) Epitaph(in EpitaphInput) ([]*genai.Content, error) {
	return b.build(epitaphTemplate, in)
}

// Retell builds the request contents for a drama retelling.
func (b *Builder) Retell(in RetellInput) ([]*genai.Content, error) {
	return b.build(retellTemplate, in)
}

func (b *Builder) build(tmpl *template.Template, data any) ([]*genai.Content, error) {
	system, err := b.SystemInstruction()
	if err != nil {
		return nil, err
	}
	user, err := render(tmpl, data)
	if err != nil {
		return nil, err
	}
	return []*genai.Content{system, genai.NewContentFromText(user, "user")}, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
