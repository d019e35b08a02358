package resolver

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when the config leaves the model blank.
const DefaultModel = "gemini-2.5-flash"

const promptTemplate = `You are a manufacturing database assistant.
The user has entered a WIP Code: %q.

This code was not found in the local cache.
Please generate a plausible, professional sounding industrial food manufacturing "Mix Name" for this code.
Examples of styles: "Vanilla Bean Base Mix", "Chocolate Fudge Syrup", "High-Protein Whey Slurry".

Return ONLY the mix name as a string. No other text.`

// Gemini resolves names with Google's Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini backend.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("resolver: gemini API key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("resolver: create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Lookup implements Backend.
func (g *Gemini) Lookup(ctx context.Context, code string) (string, error) {
	prompt := fmt.Sprintf(promptTemplate, code)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("resolver: gemini generate: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("resolver: gemini returned no response")
	}
	return resp.Text(), nil
}

// Name identifies the backend in logs.
func (g *Gemini) Name() string {
	return "gemini:" + g.model
}
