package textgen

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/vhouse/vhouse/internal/config"
)

// GeminiProvider generates text using Google's Gemini API.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
	log         *slog.Logger
}

// NewGeminiProvider creates a Gemini-backed provider from the given configuration.
func NewGeminiProvider(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger := log.With("component", "gemini_provider")
	logger.Info("Gemini provider initialized", "model", cfg.Model)
	return &GeminiProvider{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		log:         logger,
	}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Model() string { return p.model }

// Generate produces text for the prompt. Safety filters are relaxed since
// prompts only ever contain business correspondence and catalog data.
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	temperature := p.temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}
	if req.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		p.log.WarnContext(ctx, "Gemini request blocked by safety filter", "reason", reason)
		return "", fmt.Errorf("gemini request blocked: %s", reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned empty content")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}
