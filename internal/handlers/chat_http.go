package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sse"
	"go.uber.org/zap"

	"github.com/AnshRaj112/vikas-backend/internal/services"
)

const (
	errMessageRequired = "message required"
	errProviderFailed  = "Error talking to AI provider"
)

type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse keeps the reply field of the original client contract; on
// failure reply carries the error text too.
type ChatResponse struct {
	Success bool   `json:"success"`
	Reply   string `json:"reply"`
	Message string `json:"message,omitempty"`
}

type streamChunk struct {
	Text string `json:"text"`
}

type streamError struct {
	Error string `json:"error"`
}

type ChatHandler struct {
	relay     *services.Relay
	doneEvent bool
	log       *zap.Logger
}

// NewChatHandler builds the relay endpoints. With doneEvent a terminal
// "done" event is written before a successful stream closes.
func NewChatHandler(relay *services.Relay, doneEvent bool, log *zap.Logger) *ChatHandler {
	return &ChatHandler{relay: relay, doneEvent: doneEvent, log: log}
}

// Chat handles POST /chat with the default provider.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, ChatResponse{Reply: "Message is required", Message: "Message is required"})
		return
	}

	reply, err := h.relay.Complete(r.Context(), "", req.Message)
	if err != nil {
		status, msg := statusFor(err)
		if errors.Is(err, services.ErrUpstreamFailure) {
			msg = errProviderFailed
		}
		writeJSON(w, status, ChatResponse{Reply: msg, Message: msg})
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Success: true, Reply: reply})
}

// Stream returns the SSE handler for GET /chat-stream style routes. Each
// reply fragment is one `data: {"text": ...}` event; failures are one
// `data: {"error": ...}` event, after which the stream closes.
func (h *ChatHandler) Stream(provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		send := func(ev sse.Event) error {
			if err := sse.Encode(w, ev); err != nil {
				return err
			}
			return rc.Flush()
		}

		message := strings.TrimSpace(r.URL.Query().Get("message"))
		if message == "" {
			_ = send(sse.Event{Data: streamError{Error: errMessageRequired}})
			return
		}
		_ = rc.Flush()

		err := h.relay.Stream(r.Context(), provider, message, func(chunk string) error {
			return send(sse.Event{Data: streamChunk{Text: chunk}})
		})
		switch {
		case err == nil:
			if h.doneEvent {
				_ = send(sse.Event{Event: "done", Data: "[DONE]"})
			}
		case errors.Is(err, context.Canceled) || r.Context().Err() != nil:
			// client went away
		default:
			_, msg := statusFor(err)
			if errors.Is(err, services.ErrUpstreamFailure) {
				msg = errProviderFailed
			}
			_ = send(sse.Event{Data: streamError{Error: msg}})
		}
	}
}
