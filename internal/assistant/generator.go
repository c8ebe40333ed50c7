// Package assistant turns prompts into marketing copy, segment rules and
// analytics insights through a text-generation model.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
)

// Generator produces free text for a system instruction and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GenAIClient is a Generator backed by the Gemini API.
type GenAIClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGenAIClient creates a Gemini client for model.
func NewGenAIClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIClient{client: client, model: model, timeout: timeout}, nil
}

func (g *GenAIClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		},
	)
	if err != nil {
		return "", appErrors.NewUpstream("generate content", err)
	}

	text := resp.Text()
	if text == "" {
		return "", appErrors.NewUpstream("generate content", errors.New("empty response"))
	}
	return text, nil
}

// Unconfigured is the Generator used when no API key is set.
type Unconfigured struct{}

func (Unconfigured) Generate(context.Context, string, string) (string, error) {
	return "", appErrors.NewUpstream("generate content", errors.New("text generation is not configured"))
}

var (
	_ Generator = (*GenAIClient)(nil)
	_ Generator = Unconfigured{}
)
