package services

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

const ProviderOpenAI = "openai"

// OpenAIProvider relays to the OpenAI chat completions API.
type OpenAIProvider struct {
	client       *openai.Client
	model        string
	systemPrompt string
}

// NewOpenAIProvider builds a client for apiKey. baseURL overrides the API
// endpoint when set (proxies, compatible servers, tests).
func NewOpenAIProvider(apiKey, baseURL, model, systemPrompt string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(cfg),
		model:        model,
		systemPrompt: systemPrompt,
	}
}

func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

func (p *OpenAIProvider) request(message string, stream bool) openai.ChatCompletionRequest {
	var msgs []openai.ChatCompletionMessage
	if p.systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.systemPrompt})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})
	return openai.ChatCompletionRequest{Model: p.model, Messages: msgs, Stream: stream}
}

func (p *OpenAIProvider) Complete(ctx context.Context, message string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.request(message, false))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Stream(ctx context.Context, message string, onChunk func(string) error) error {
	stream, err := p.client.CreateChatCompletionStream(ctx, p.request(message, true))
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, choice := range resp.Choices {
			if err := onChunk(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
}
