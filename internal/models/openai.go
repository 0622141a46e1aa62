package models

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"runtime"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// openaiModel adapts an OpenAI-compatible chat endpoint to model.LLM.
type openaiModel struct {
	client *openai.Client
	name   string
}

// NewOpenAICompatible creates a model.LLM for any OpenAI-compatible chat API.
func NewOpenAICompatible(baseURL, provider, modelName, apiKey string) (model.LLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHeader("User-Agent", fmt.Sprintf("%s-go/1.0.0 go/%s", provider, strings.TrimPrefix(runtime.Version(), "go"))),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return &openaiModel{client: &client, name: modelName}, nil
}

func (m *openaiModel) Name() string {
	return m.name
}

// GenerateContent always answers with one complete response, streaming or not.
func (m *openaiModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *openaiModel) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	params := buildParams(req, m.name)
	if len(params.Messages) == 0 {
		return nil, fmt.Errorf("request has no messages")
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		slog.ErrorContext(ctx, "failed to call llm API", "model", m.name, "error", err.Error())
		return nil, fmt.Errorf("failed to call llm API: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return &model.LLMResponse{TurnComplete: true}, nil
	}

	content := &genai.Content{Role: "model"}
	if text := resp.Choices[0].Message.Content; text != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: text})
	}
	return &model.LLMResponse{Content: content, TurnComplete: true}, nil
}
