package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newFakeOpenAI(t *testing.T, handler func(w http.ResponseWriter, req openai.ChatCompletionRequest)) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return NewOpenAIProvider("sk-test", srv.URL+"/v1", "gpt-3.5-turbo", "You are a helpful study assistant.")
}

func TestOpenAIProvider_Complete(t *testing.T) {
	p := newFakeOpenAI(t, func(w http.ResponseWriter, req openai.ChatCompletionRequest) {
		require.Len(t, req.Messages, 2)
		assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
		assert.Equal(t, "You are a helpful study assistant.", req.Messages[0].Content)
		assert.Equal(t, "What is 2+2?", req.Messages[1].Content)
		assert.Equal(t, "gpt-3.5-turbo", req.Model)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-3.5-turbo",
			"choices":[{"index":0,"message":{"role":"assistant","content":"4"},"finish_reason":"stop"}]}`))
	})

	reply, err := p.Complete(context.Background(), "What is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, "4", reply)
}

func TestOpenAIProvider_CompleteUpstreamError(t *testing.T) {
	p := newFakeOpenAI(t, func(w http.ResponseWriter, _ openai.ChatCompletionRequest) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	_, err := p.Complete(context.Background(), "hi")
	assert.Error(t, err)
}

func TestOpenAIProvider_Stream(t *testing.T) {
	p := newFakeOpenAI(t, func(w http.ResponseWriter, req openai.ChatCompletionRequest) {
		assert.True(t, req.Stream)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"hel", "", "lo"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var got []string
	err := p.Stream(context.Background(), "hello", func(c string) error {
		got = append(got, c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hel", "", "lo"}, got)
}

func TestOpenAIProvider_StreamThroughRelay(t *testing.T) {
	p := newFakeOpenAI(t, func(w http.ResponseWriter, _ openai.ChatCompletionRequest) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"hel", "", "lo"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})
	relay := NewRelay(zap.NewNop(), ProviderOpenAI, p)

	var got []string
	err := relay.Stream(context.Background(), "", "hello", func(c string) error {
		got = append(got, c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hel", "lo"}, got)
}
