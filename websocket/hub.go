package websocket

import (
	"sync"
	"time"

	"visa-portal-backend/db/models"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeCaseRefresh       MessageType = "CASE_REFRESH"
	MessageTypeNewMessage        MessageType = "NEW_MESSAGE"
	MessageTypeDocumentRequested MessageType = "DOCUMENT_REQUESTED"
	MessageTypeTyping            MessageType = "TYPING_INDICATOR"
	MessageTypeError             MessageType = "ERROR"
)

type WebSocketMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
	CaseID    string      `json:"caseId,omitempty"`
}

type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Hub    *Hub
	Send   chan WebSocketMessage
	Cases  map[string]bool
	mu     sync.RWMutex
}

// Hub fans case events out to connected clients. Each client subscribes
// to the application cases it is watching.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan WebSocketMessage
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan WebSocketMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.broadcastToAll(message)
		}
	}
}

// BroadcastCaseRefresh tells every watcher of a case that its aggregate
// changed and must be refetched.
func (h *Hub) BroadcastCaseRefresh(applicationID uuid.UUID) {
	h.BroadcastToCase(applicationID.String(), WebSocketMessage{
		Type:      MessageTypeCaseRefresh,
		Payload:   map[string]interface{}{"applicationId": applicationID},
		Timestamp: time.Now(),
		CaseID:    applicationID.String(),
	})
}

// BroadcastNewMessage pushes a freshly sent thread message to the case's
// watchers.
func (h *Hub) BroadcastNewMessage(applicationID uuid.UUID, message *models.Message) {
	h.BroadcastToCase(applicationID.String(), WebSocketMessage{
		Type:      MessageTypeNewMessage,
		Payload:   message,
		Timestamp: time.Now(),
		CaseID:    applicationID.String(),
	})
}

// BroadcastDocumentRequested notifies the case's watchers that an officer
// asked for another document.
func (h *Hub) BroadcastDocumentRequested(applicationID uuid.UUID, request *models.DocumentRequest) {
	h.BroadcastToCase(applicationID.String(), WebSocketMessage{
		Type:      MessageTypeDocumentRequested,
		Payload:   request,
		Timestamp: time.Now(),
		CaseID:    applicationID.String(),
	})
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(message WebSocketMessage) {
	h.broadcast <- message
}

// BroadcastToCase sends a message to clients subscribed to a specific case
func (h *Hub) BroadcastToCase(caseID string, message WebSocketMessage, excludeUserID ...uuid.UUID) {
	excludeMap := make(map[uuid.UUID]bool)
	for _, id := range excludeUserID {
		excludeMap[id] = true
	}

	var slow []*Client
	h.mu.RLock()
	for client := range h.clients {
		if excludeMap[client.UserID] {
			continue
		}

		client.mu.RLock()
		_, isSubscribed := client.Cases[caseID]
		client.mu.RUnlock()

		if isSubscribed {
			select {
			case client.Send <- message:
			default:
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()

	h.dropClients(slow)
}

func (h *Hub) broadcastToAll(message WebSocketMessage) {
	var slow []*Client
	h.mu.RLock()
	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	h.dropClients(slow)
}

// dropClients removes clients whose send buffer was full. The membership
// check under the write lock keeps the channel from being closed twice
// when Run's unregister branch races with a broadcast.
func (h *Hub) dropClients(clients []*Client) {
	if len(clients) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range clients {
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.Send)
		}
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscribeToCase adds a case to the client's subscription
func (c *Client) SubscribeToCase(caseID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Cases == nil {
		c.Cases = make(map[string]bool)
	}
	c.Cases[caseID] = true
}

// UnsubscribeFromCase removes a case from the client's subscription
func (c *Client) UnsubscribeFromCase(caseID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Cases, caseID)
}
