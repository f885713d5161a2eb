package assist

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured
const DefaultModel = "gemini-3-flash-preview"

// ErrNoAPIKey is returned by the generator used when no API key is configured
var ErrNoAPIKey = errors.New("no Gemini API key configured")

// Generator turns a prompt into plain text.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// GeminiGenerator calls the Gemini API through the genai SDK.
type GeminiGenerator struct {
	client *genai.Client
}

// NewGeminiGenerator creates a generator for apiKey.
// An empty key yields a generator that always fails, so callers fall back.
func NewGeminiGenerator(ctx context.Context, apiKey string) (Generator, error) {
	if apiKey == "" {
		return unavailableGenerator{}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiGenerator{client: client}, nil
}

// Generate sends prompt to model and returns the response text
func (g *GeminiGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", errors.New("empty response (check safety filters)")
	}

	return resp.Text(), nil
}

type unavailableGenerator struct{}

func (unavailableGenerator) Generate(context.Context, string, string) (string, error) {
	return "", ErrNoAPIKey
}

// Offline returns an assistant whose every request falls back
func Offline() *Assistant {
	return New(unavailableGenerator{}, "", 0)
}
