package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/sl"
)

const processTimeout = 30 * time.Second

// MessageHandler runs chat messages through the workflow.
type MessageHandler interface {
	Process(ctx context.Context, userID, message string) (string, *entity.UserState)
}

// Event is sent to websocket clients.
type Event struct {
	Type string `json:"type"` // "reply", "state_changed", "error"
	Data any    `json:"data"`
}

type userEvent struct {
	userID string
	event  *Event
}

type directEvent struct {
	client *Client
	data   []byte
}

// Hub tracks the sessions of every user and fans state changes out to them.
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan userEvent
	direct     chan directEvent
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	handler    MessageHandler
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan userEvent, 256),
		direct:     make(chan directEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log.With(sl.Module("ws.hub")),
	}
}

func (h *Hub) SetHandler(handler MessageHandler) {
	h.handler = handler
}

// Run starts the hub's event loop. Should be called in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()
			h.log.Debug("session opened", sl.UserID(client.userID), slog.String("session", client.sessionID))

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case de := <-h.direct:
			h.mu.Lock()
			if h.clients[de.client.userID][de.client] {
				select {
				case de.client.send <- de.data:
				default:
					h.remove(de.client)
				}
			}
			h.mu.Unlock()

		case ue := <-h.broadcast:
			data, err := json.Marshal(ue.event)
			if err != nil {
				continue
			}
			h.mu.Lock()
			for client := range h.clients[ue.userID] {
				select {
				case client.send <- data:
				default:
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove expects h.mu to be held.
func (h *Hub) remove(client *Client) {
	sessions, ok := h.clients[client.userID]
	if !ok || !sessions[client] {
		return
	}
	delete(sessions, client)
	close(client.send)
	if len(sessions) == 0 {
		delete(h.clients, client.userID)
	}
}

// deliver queues data for one session. Closed sessions are skipped by Run.
func (h *Hub) deliver(client *Client, data []byte) {
	h.direct <- directEvent{client: client, data: data}
}

// Sessions returns the number of open sessions of a user.
func (h *Hub) Sessions(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// StateChanged notifies every session of the user about a step change.
func (h *Hub) StateChanged(state *entity.UserState, from entity.WorkflowStep) {
	ev := userEvent{
		userID: state.UserID,
		event: &Event{
			Type: "state_changed",
			Data: map[string]any{
				"from":            from,
				"to":              state.CurrentStep,
				"completed_steps": state.CompletedSteps,
			},
		},
	}
	select {
	case h.broadcast <- ev:
	default:
		h.log.Warn("state event dropped", sl.UserID(state.UserID))
	}
}

// clientEvent is an incoming message. Plain text frames are treated as chat messages.
type clientEvent struct {
	Type string `json:"type"`
	Data struct {
		Text string `json:"text"`
	} `json:"data"`
}

// HandleClientMessage processes one frame and returns the reply event for the sender.
func (h *Hub) HandleClientMessage(ctx context.Context, userID string, raw []byte) *Event {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "{") {
		var event clientEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			h.log.Warn("failed to parse client ws message", sl.Err(err))
			return &Event{Type: "error", Data: map[string]string{"message": "invalid message"}}
		}
		if event.Type != "message" {
			return &Event{Type: "error", Data: map[string]string{"message": "unknown event type"}}
		}
		text = strings.TrimSpace(event.Data.Text)
	}
	if text == "" {
		return &Event{Type: "error", Data: map[string]string{"message": "empty message"}}
	}
	if h.handler == nil {
		return &Event{Type: "error", Data: map[string]string{"message": "chat not available"}}
	}

	ctx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()
	reply, state := h.handler.Process(ctx, userID, text)
	return &Event{Type: "reply", Data: entity.NewChatResponse(reply, state)}
}
