package textgen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/vhouse/vhouse/internal/config"
)

// OpenAIProvider generates text using the OpenAI chat completions API.
type OpenAIProvider struct {
	client      *gopenai.Client
	model       string
	temperature float32
	log         *slog.Logger
}

// NewOpenAIProvider creates an OpenAI-backed provider from the given configuration.
func NewOpenAIProvider(cfg config.OpenAIConfig, log *slog.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientCfg := gopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	logger := log.With("component", "openai_provider")
	logger.Info("OpenAI provider initialized", "model", cfg.Model)
	return &OpenAIProvider{
		client:      gopenai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		log:         logger,
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	temperature := p.temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}

	resp, err := p.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("openai returned empty content")
	}
	return content, nil
}
