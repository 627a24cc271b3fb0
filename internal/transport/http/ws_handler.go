package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"teacher-assistant-bot/internal/domain"
)

// Submit hands a decoded event to the dispatcher.
type Submit func(ctx context.Context, ev domain.Event)

// WSHandler is a development transport: each websocket connection acts as one chat
// identified by the userId query parameter.
type WSHandler struct {
	submit   Submit
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu      sync.RWMutex
	clients map[int64]*client
}

type client struct {
	send chan outboundMessage[any]
	done chan struct{}
}

func NewWSHandler(submit Submit, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		submit: submit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log:     log.With().Str("module", "ws").Logger(),
		clients: make(map[int64]*client),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type textPayload struct {
	Text string `json:"text"`
}

type callbackPayload struct {
	Data string `json:"data"`
}

type documentPayload struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

type choicePayload struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

type choicesPayload struct {
	Text    string          `json:"text"`
	Choices []choicePayload `json:"choices"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and turns every inbound frame into an event.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "missing or invalid userId", http.StatusBadRequest)
		return
	}
	actor := domain.Actor{
		UserID:    userID,
		ChatID:    userID,
		FirstName: r.URL.Query().Get("name"),
		Username:  r.URL.Query().Get("username"),
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws_upgrade_failed")
		return
	}
	defer conn.Close()
	// clear the server's request timeouts; the connection is long-lived
	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})

	c := &client{send: make(chan outboundMessage[any], 16), done: make(chan struct{})}
	h.attach(userID, c)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-c.send:
				if err := conn.WriteJSON(msg); err != nil {
					h.log.Warn().Err(err).Int64("user_id", userID).Msg("ws_write_failed")
					return
				}
			case <-c.done:
				return
			}
		}
	}()

	// events outlive the connection so a disconnect never aborts a half-applied write
	ctx := context.WithoutCancel(r.Context())
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		ev, ok := decodeInbound(actor, inbound)
		if !ok {
			h.deliver(ctx, userID, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message"}})
			continue
		}
		h.submit(ctx, ev)
	}

	h.detach(userID, c)
	<-writerDone
}

func decodeInbound(actor domain.Actor, in inboundMessage) (domain.Event, bool) {
	switch in.Type {
	case "message":
		var p textPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, false
		}
		return domain.DecodeMessage(actor, p.Text), true
	case "callback":
		var p callbackPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, false
		}
		return domain.CallbackEvent{Actor: actor, Callback: domain.DecodeCallback(p.Data)}, true
	case "document":
		var p documentPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, false
		}
		content := p.Content
		return domain.DocumentEvent{
			Actor:    actor,
			FileName: p.Name,
			Open: func(context.Context) (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(content)), nil
			},
		}, true
	default:
		return nil, false
	}
}

func (h *WSHandler) attach(userID int64, c *client) {
	h.mu.Lock()
	prev := h.clients[userID]
	h.clients[userID] = c
	h.mu.Unlock()
	if prev != nil {
		prev.close()
	}
}

func (h *WSHandler) detach(userID int64, c *client) {
	h.mu.Lock()
	if h.clients[userID] == c {
		delete(h.clients, userID)
	}
	h.mu.Unlock()
	c.close()
}

func (c *client) close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

func (h *WSHandler) deliver(ctx context.Context, chatID int64, msg outboundMessage[any]) error {
	h.mu.RLock()
	c, ok := h.clients[chatID]
	h.mu.RUnlock()
	if !ok {
		return domain.ErrRecipientUnavailable
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return domain.ErrRecipientUnavailable
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *WSHandler) SendText(ctx context.Context, chatID int64, text string) error {
	return h.deliver(ctx, chatID, outboundMessage[any]{Type: "text", Payload: textPayload{Text: text}})
}

func (h *WSHandler) SendChoices(ctx context.Context, chatID int64, text string, choices []domain.Choice) error {
	payload := choicesPayload{Text: text, Choices: make([]choicePayload, len(choices))}
	for i, c := range choices {
		payload.Choices[i] = choicePayload{Label: c.Label, Token: c.Token}
	}
	return h.deliver(ctx, chatID, outboundMessage[any]{Type: "choices", Payload: payload})
}

// SendDocument announces the file by name; the dev transport does not stream content.
func (h *WSHandler) SendDocument(ctx context.Context, chatID int64, path string) error {
	return h.deliver(ctx, chatID, outboundMessage[any]{Type: "document", Payload: documentPayload{Name: filepath.Base(path)}})
}
