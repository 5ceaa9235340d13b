package services

import (
	"context"

	"google.golang.org/genai"
)

const ProviderGemini = "gemini"

// GeminiProvider relays to the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider builds a client for the Gemini API. An empty baseURL
// keeps the SDK default endpoint.
func NewGeminiProvider(ctx context.Context, apiKey, baseURL, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Name() string { return ProviderGemini }

func (p *GeminiProvider) Complete(ctx context.Context, message string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(message), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (p *GeminiProvider) Stream(ctx context.Context, message string, onChunk func(string) error) error {
	for resp, err := range p.client.Models.GenerateContentStream(ctx, p.model, genai.Text(message), nil) {
		if err != nil {
			return err
		}
		if err := onChunk(resp.Text()); err != nil {
			return err
		}
	}
	return nil
}
