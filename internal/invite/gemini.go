package invite

import (
	"context" // For request-scoped calls
	"fmt"     // For error wrapping

	"google.golang.org/genai" // Google Gen AI SDK
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// GeminiGenerator generates text with Google's Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a generator. An empty apiKey yields ErrNotConfigured.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = DefaultModel
	}
	// Gemini Developer API, authenticated by key
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,                 // API key from config
		Backend: genai.BackendGeminiAPI, // Not Vertex AI
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate sends prompt as a single user turn.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	temp := float32(0.8) // Some variety between drafts
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     &temp, // Sampling temperature
		MaxOutputTokens: 1024,  // Invitations stay short
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil // Concatenated text parts of the first candidate
}
