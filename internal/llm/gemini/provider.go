package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/jinxlo/api-dashboard/internal/config"
	"github.com/jinxlo/api-dashboard/internal/llm"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-1.5-flash"

type Provider struct {
	apiKey string
	model  string
	opts   []option.ClientOption
}

// NewProvider creates a Gemini provider. Extra client options are appended after the API key.
func NewProvider(cfg config.GeminiConfig, opts ...option.ClientOption) *Provider {
	return &Provider{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		opts:   opts,
	}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return defaultModel
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

// Chat ignores the catalog model id and always uses the configured Gemini model
func (p *Provider) Chat(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("gemini provider is not configured (missing API key)")
	}

	model := p.DefaultModel()

	opts := append([]option.ClientOption{option.WithAPIKey(p.apiKey)}, p.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	generativeModel := client.GenerativeModel(model)
	temperature := float32(req.Temperature)
	generativeModel.Temperature = &temperature

	start := time.Now()
	resp, err := generativeModel.GenerateContent(ctx, genai.Text(req.Prompt))
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, llm.ErrEmptyResponse
	}

	var output strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			output.WriteString(string(text))
		}
	}
	if output.Len() == 0 {
		return nil, llm.ErrEmptyResponse
	}

	tokensUsed := 0
	if resp.UsageMetadata != nil {
		tokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &llm.Response{
		Content:    output.String(),
		Model:      model,
		TokensUsed: tokensUsed,
		LatencyMs:  latency,
	}, nil
}
