package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AnshRaj112/vikas-backend/internal/services"
)

const (
	wsReadLimit    = 64 * 1024
	wsPongWait     = 90 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
)

// ChatClientMessage is one frame sent by the browser over /ws/chat.
type ChatClientMessage struct {
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
}

// ChatServerMessage is one frame sent back. Exactly one field is set.
type ChatServerMessage struct {
	Text  string `json:"text,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewUpgrader accepts WebSocket handshakes from the allowed origins; "*"
// accepts any origin.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range allowedOrigins {
				if o == "*" || strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		},
	}
}

// ChatWebSocket handles GET /ws/chat. Prompts are answered one at a time;
// closing the socket cancels the reply in flight.
func (h *ChatHandler) ChatWebSocket(upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// r.Context() is not cancelled on hijacked connections; the reader
		// goroutine cancels ctx when the socket goes away.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		incoming := make(chan ChatClientMessage, 4)
		go h.readFrames(ctx, cancel, conn, incoming)

		ping := time.NewTicker(wsPingInterval)
		defer ping.Stop()

		write := func(m ChatServerMessage) error {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			return conn.WriteJSON(m)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			case msg := <-incoming:
				if strings.TrimSpace(msg.Message) == "" {
					if write(ChatServerMessage{Error: errMessageRequired}) != nil {
						return
					}
					continue
				}
				err := h.relay.Stream(ctx, msg.Provider, msg.Message, func(chunk string) error {
					return write(ChatServerMessage{Text: chunk})
				})
				switch {
				case err == nil:
					err = write(ChatServerMessage{Done: true})
				case ctx.Err() != nil:
					return
				default:
					_, text := statusFor(err)
					if errors.Is(err, services.ErrUpstreamFailure) {
						text = errProviderFailed
					}
					h.log.Debug("websocket relay failed", zap.Error(err))
					err = write(ChatServerMessage{Error: text})
				}
				if err != nil {
					return
				}
			}
		}
	}
}

// readFrames decodes client frames into out until the connection fails, then
// cancels the connection context.
func (h *ChatHandler) readFrames(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out chan<- ChatClientMessage) {
	defer cancel()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var msg ChatClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// plain text frames are taken as the prompt itself
			msg = ChatClientMessage{Message: string(data)}
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}
