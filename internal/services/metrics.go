package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vikas",
		Name:      "auth_attempts_total",
		Help:      "Registration and login attempts by outcome.",
	}, []string{"action", "outcome"})

	relayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vikas",
		Name:      "relay_requests_total",
		Help:      "Chat relay requests by provider, mode and outcome.",
	}, []string{"provider", "mode", "outcome"})

	relayChunks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vikas",
		Name:      "relay_stream_chunks_total",
		Help:      "Text chunks forwarded to clients by the streaming relay.",
	}, []string{"provider"})

	quizCompletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vikas",
		Name:      "quiz_completions_total",
		Help:      "Recorded quiz attempts by difficulty.",
	}, []string{"difficulty"})
)
