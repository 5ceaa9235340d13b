package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

//go:generate mockgen -source=relay.go -destination=mock/provider_mock.go -package=mock_services

// ChatProvider is one upstream AI completion API.
type ChatProvider interface {
	Name() string
	// Complete returns the whole reply to a single user message.
	Complete(ctx context.Context, message string) (string, error)
	// Stream calls onChunk for each reply fragment in upstream order and returns
	// when the upstream stream ends. An error from onChunk stops the stream.
	Stream(ctx context.Context, message string, onChunk func(string) error) error
}

// Relay forwards student prompts to a configured provider.
type Relay struct {
	providers   map[string]ChatProvider
	defaultName string
	log         *zap.Logger
}

func NewRelay(log *zap.Logger, defaultName string, providers ...ChatProvider) *Relay {
	r := &Relay{
		providers:   make(map[string]ChatProvider, len(providers)),
		defaultName: defaultName,
		log:         log,
	}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Has reports whether the named provider (or the default for "") is configured.
func (r *Relay) Has(name string) bool {
	_, err := r.provider(name)
	return err == nil
}

func (r *Relay) provider(name string) (ChatProvider, error) {
	if name == "" {
		name = r.defaultName
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: chat provider %q", ErrUnavailable, name)
	}
	return p, nil
}

// Complete returns the provider's full reply to message.
func (r *Relay) Complete(ctx context.Context, providerName, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message required", ErrBadRequest)
	}
	p, err := r.provider(providerName)
	if err != nil {
		return "", err
	}

	reply, err := p.Complete(ctx, message)
	if err != nil {
		relayRequests.WithLabelValues(p.Name(), "complete", "error").Inc()
		r.log.Error("chat completion failed", zap.String("provider", p.Name()), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}
	relayRequests.WithLabelValues(p.Name(), "complete", "ok").Inc()
	return reply, nil
}

// Stream forwards each non-empty reply fragment to onChunk in order. The
// upstream call runs under ctx, so cancelling ctx (for example on client
// disconnect) aborts it. Errors returned by onChunk are passed back unchanged.
func (r *Relay) Stream(ctx context.Context, providerName, message string, onChunk func(string) error) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("%w: message required", ErrBadRequest)
	}
	p, err := r.provider(providerName)
	if err != nil {
		return err
	}

	var sinkErr error
	chunks := 0
	err = p.Stream(ctx, message, func(chunk string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if chunk == "" {
			return nil
		}
		if err := onChunk(chunk); err != nil {
			sinkErr = err
			return err
		}
		chunks++
		relayChunks.WithLabelValues(p.Name()).Inc()
		return nil
	})

	switch {
	case sinkErr != nil:
		relayRequests.WithLabelValues(p.Name(), "stream", "client_gone").Inc()
		return sinkErr
	case ctx.Err() != nil:
		relayRequests.WithLabelValues(p.Name(), "stream", "cancelled").Inc()
		r.log.Debug("chat stream cancelled", zap.String("provider", p.Name()), zap.Int("chunks", chunks))
		return ctx.Err()
	case err != nil && !errors.Is(err, context.Canceled):
		relayRequests.WithLabelValues(p.Name(), "stream", "error").Inc()
		r.log.Error("chat stream failed", zap.String("provider", p.Name()), zap.Int("chunks", chunks), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	case err != nil:
		return err
	}
	relayRequests.WithLabelValues(p.Name(), "stream", "ok").Inc()
	return nil
}
