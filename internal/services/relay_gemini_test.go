package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const geminiTestModel = "gemini-test"

func newFakeGemini(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "g-test", r.Header.Get("x-goog-api-key"))
		assert.Contains(t, r.URL.Path, "models/"+geminiTestModel+":")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	p, err := NewGeminiProvider(context.Background(), "g-test", srv.URL, geminiTestModel)
	require.NoError(t, err)
	return p
}

func geminiTextFrame(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, text)
}

// writeGeminiStream answers a streamGenerateContent call with one SSE frame per payload.
func writeGeminiStream(t *testing.T, w http.ResponseWriter, r *http.Request, frames ...string) {
	t.Helper()
	require.True(t, strings.HasSuffix(r.URL.Path, ":streamGenerateContent"), r.URL.Path)
	w.Header().Set("Content-Type", "text/event-stream")
	for _, f := range frames {
		fmt.Fprintf(w, "data: %s\n\n", f)
	}
}

func TestGeminiProvider_Complete(t *testing.T) {
	p := newFakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(geminiTextFrame("4")))
	})

	reply, err := p.Complete(context.Background(), "What is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, "4", reply)
	assert.Equal(t, ProviderGemini, p.Name())
}

func TestGeminiProvider_CompleteUpstreamError(t *testing.T) {
	p := newFakeGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad prompt","status":"INVALID_ARGUMENT"}}`))
	})

	relay := NewRelay(zap.NewNop(), ProviderGemini, p)
	_, err := relay.Complete(context.Background(), ProviderGemini, "hi")
	assert.ErrorIs(t, err, ErrUpstreamFailure)
}

func TestGeminiProvider_Stream(t *testing.T) {
	p := newFakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		writeGeminiStream(t, w, r, geminiTextFrame("hel"), geminiTextFrame(""), geminiTextFrame("lo"))
	})

	var got []string
	err := p.Stream(context.Background(), "hello", func(c string) error {
		got = append(got, c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hel", "", "lo"}, got)
}

func TestGeminiProvider_StreamThroughRelay(t *testing.T) {
	p := newFakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		writeGeminiStream(t, w, r,
			geminiTextFrame("hel"),
			geminiTextFrame(""),
			`{"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"noop","args":{}}}]}}]}`,
			geminiTextFrame("lo"),
		)
	})
	relay := NewRelay(zap.NewNop(), ProviderOpenAI, p)

	var got []string
	err := relay.Stream(context.Background(), ProviderGemini, "hello", func(c string) error {
		got = append(got, c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hel", "lo"}, got)
}

func TestGeminiProvider_StreamStopsOnSinkError(t *testing.T) {
	p := newFakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		writeGeminiStream(t, w, r, geminiTextFrame("one"), geminiTextFrame("two"), geminiTextFrame("three"))
	})

	sinkErr := errors.New("client gone")
	calls := 0
	err := p.Stream(context.Background(), "hello", func(string) error {
		calls++
		return sinkErr
	})
	assert.Equal(t, sinkErr, err)
	assert.Equal(t, 1, calls)
}
