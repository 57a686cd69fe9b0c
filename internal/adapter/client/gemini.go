package client

import (
	"context"

	"campusgreen/internal/config"
	"campusgreen/internal/domain/entity"

	"google.golang.org/genai"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient builds the shared SDK client. Vertex AI is used when only
// a Google Cloud project is configured.
func NewGenAIClient(ctx context.Context, cfg config.GeminiConfig) (*genai.Client, error) {
	if cfg.UseVertex() {
		return genai.NewClient(ctx, &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		})
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig) (*GeminiClient, error) {
	client, err := NewGenAIClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: client, model: cfg.Model}, nil
}

func NewGeminiClientFromClient(c *genai.Client, model string) *GeminiClient {
	return &GeminiClient{
		client: c,
		model:  model,
	}
}

func (g *GeminiClient) Model() string {
	return g.model
}

func (g *GeminiClient) Generate(ctx context.Context, gen entity.Generation) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, contentsFor(gen), configFor(gen))
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	// Text is empty when the response carries no candidates, e.g. a safety block.
	return result.Text(), nil
}

func contentsFor(gen entity.Generation) []*genai.Content {
	if gen.Image == nil {
		return genai.Text(gen.Prompt)
	}
	parts := []*genai.Part{
		genai.NewPartFromBytes(gen.Image.Data, gen.Image.MIMEType),
		genai.NewPartFromText(gen.Prompt),
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func configFor(gen entity.Generation) *genai.GenerateContentConfig {
	if gen.SystemInstruction == "" && gen.Temperature == nil && gen.ResponseMIMEType == "" {
		return nil
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:      gen.Temperature,
		ResponseMIMEType: gen.ResponseMIMEType,
	}
	if gen.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(gen.SystemInstruction, genai.RoleUser)
	}
	return cfg
}
