package generate

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Completion is a model answer with its token accounting.
type Completion struct {
	Text       string
	TokensUsed *int
}

// Model is a single request/response text generator.
type Model interface {
	Name() string
	Generate(ctx context.Context, system, prompt string) (Completion, error)
}

// GeminiModel calls the Gemini API.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel creates a Gemini-backed model.
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

func (m *GeminiModel) Name() string { return m.model }

func (m *GeminiModel) Generate(ctx context.Context, system, prompt string) (Completion, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.8),
			MaxOutputTokens:   2000,
		})
	if err != nil {
		return Completion{}, fmt.Errorf("generate content: %w", err)
	}
	out := Completion{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		total := int(resp.UsageMetadata.TotalTokenCount)
		out.TokensUsed = &total
	}
	return out, nil
}
