package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// LangChainProvider adapts any langchaingo model to Provider.
type LangChainProvider struct {
	Name        string
	Model       llms.Model
	Temperature float64
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (*LangChainProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, err
	}
	return &LangChainProvider{Name: "gemini", Model: llm, Temperature: 0.4}, nil
}

func NewOpenAIProvider(apiKey, model string) (*LangChainProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	return &LangChainProvider{Name: "openai", Model: llm, Temperature: 0.4}, nil
}

func (p *LangChainProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if p.Model == nil {
		return "", errors.New(p.Name + ": model is nil")
	}
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(chatMessageType(m.Role), m.Content))
	}

	resp, err := p.Model.GenerateContent(ctx, content, llms.WithTemperature(p.Temperature))
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New(p.Name + ": empty response")
	}
	return resp.Choices[0].Content, nil
}

func chatMessageType(role string) schema.ChatMessageType {
	switch role {
	case RoleSystem:
		return schema.ChatMessageTypeSystem
	case RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
