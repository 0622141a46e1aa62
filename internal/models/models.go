// Package models builds the narrator's language model from a provider name.
package models

import (
	"context"
	"fmt"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// Provider names accepted by New.
const (
	ProviderNone       = "none"
	ProviderGemini     = "gemini"
	ProviderGrok       = "grok"
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
)

var baseURLs = map[string]string{
	ProviderGrok:       "https://api.x.ai/v1",
	ProviderOpenRouter: "https://openrouter.ai/api/v1",
	ProviderOpenAI:     "https://api.openai.com/v1",
}

var defaultModels = map[string]string{
	ProviderGemini:     "gemini-2.5-flash",
	ProviderGrok:       "grok-3-mini",
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderOpenAI:     "gpt-4o-mini",
}

// New returns the model for provider. It returns nil and no error for ProviderNone.
func New(ctx context.Context, provider, modelName, apiKey string) (model.LLM, error) {
	if provider == "" || provider == ProviderNone {
		return nil, nil
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		modelName = defaultModels[provider]
	}

	switch provider {
	case ProviderGemini:
		llm, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{APIKey: apiKey})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini model: %w", err)
		}
		return llm, nil
	case ProviderGrok, ProviderOpenRouter, ProviderOpenAI:
		return NewOpenAICompatible(baseURLs[provider], provider, modelName, apiKey)
	default:
		return nil, fmt.Errorf("unknown narrator provider %q", provider)
	}
}
