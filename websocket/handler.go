package websocket

import (
	"fmt"
	"time"

	"visa-portal-backend/config"
	"visa-portal-backend/token"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService defines a token validator interface
type AuthService interface {
	VerifyToken(token string) (*token.Payload, error)
}

// WsHandler manages WebSocket requests and connections
type WsHandler struct {
	hub  *Hub
	auth AuthService
}

func NewWsHandler(hub *Hub, auth AuthService) *WsHandler {
	return &WsHandler{hub: hub, auth: auth}
}

// HandleWebSocket handles incoming WebSocket upgrade requests. Clients
// authenticate via the HTTPOnly access token cookie and subscribe to one
// case per connection.
func (h *WsHandler) HandleWebSocket(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	tokenStr := c.Cookies("access_token")
	if tokenStr == "" {
		config.Logger.Warn("WebSocket connection attempted without access token cookie")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required - no access token cookie found",
		})
	}

	payload, err := h.auth.VerifyToken(tokenStr)
	if err != nil {
		config.Logger.Warn("Invalid access token for WebSocket",
			zap.Error(err),
		)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	caseID := c.Query("case")
	if caseID == "" {
		config.Logger.Warn("WebSocket connection attempted without case ID",
			zap.String("userID", payload.UserID.String()),
		)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "case parameter is required",
		})
	}

	if _, err := uuid.Parse(caseID); err != nil {
		config.Logger.Warn("Invalid case ID format",
			zap.String("caseID", caseID),
			zap.String("userID", payload.UserID.String()),
		)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid case ID format",
		})
	}

	config.Logger.Info("WebSocket connection authenticated",
		zap.String("userID", payload.UserID.String()),
		zap.String("caseID", caseID),
	)

	return websocket.New(func(conn *websocket.Conn) {
		client := &Client{
			ID:     uuid.New(),
			UserID: payload.UserID,
			Conn:   conn,
			Hub:    h.hub,
			Send:   make(chan WebSocketMessage, 256),
			Cases:  map[string]bool{caseID: true},
		}

		h.hub.register <- client

		config.Logger.Info("WebSocket client registered",
			zap.String("clientID", client.ID.String()),
			zap.String("userID", client.UserID.String()),
			zap.String("caseID", caseID),
		)

		go client.writePump()
		client.readPump()
	})(c)
}

// readPump listens for incoming messages from the WebSocket
func (c *Client) readPump() {
	defer func() {
		config.Logger.Info("WebSocket client disconnecting",
			zap.String("clientID", c.ID.String()),
			zap.String("userID", c.UserID.String()),
		)
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512 * 1024)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg WebSocketMessage
		err := c.Conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				config.Logger.Warn("WebSocket unexpected close",
					zap.String("clientID", c.ID.String()),
					zap.Error(err),
				)
			}
			break
		}

		if msg.Timestamp.IsZero() {
			msg.Timestamp = time.Now()
		}

		switch msg.Type {
		case MessageTypeTyping:
			c.handleTypingIndicator(msg)
		default:
			config.Logger.Warn("Unknown WebSocket message type",
				zap.String("type", string(msg.Type)),
				zap.String("clientID", c.ID.String()),
			)
			c.sendError("Unknown message type: " + string(msg.Type))
		}
	}
}

// writePump sends queued messages and keeps the connection alive
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(message); err != nil {
				config.Logger.Debug("WebSocket write error",
					zap.String("clientID", c.ID.String()),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				config.Logger.Debug("WebSocket ping error",
					zap.String("clientID", c.ID.String()),
					zap.Error(err),
				)
				return
			}
		}
	}
}

// handleTypingIndicator relays typing indicators to the other side of the
// case thread. Never persisted.
func (c *Client) handleTypingIndicator(msg WebSocketMessage) {
	payload, ok := msg.Payload.(map[string]interface{})
	if !ok {
		c.sendError("Invalid typing indicator payload")
		return
	}

	caseID, hasCase := payload["caseId"].(string)
	_, hasTyping := payload["isTyping"].(bool)

	if !hasCase || !hasTyping {
		c.sendError("Missing required fields in typing indicator")
		return
	}

	if _, err := uuid.Parse(caseID); err != nil {
		c.sendError("Invalid case ID format")
		return
	}

	payload["userId"] = c.UserID
	msg.Payload = payload
	msg.CaseID = caseID

	c.Hub.BroadcastToCase(caseID, msg, c.UserID)
}

// sendError sends an error message back to the client
func (c *Client) sendError(message string) {
	errorMsg := WebSocketMessage{
		Type: MessageTypeError,
		Payload: map[string]interface{}{
			"message": message,
		},
		Timestamp: time.Now(),
	}

	c.Send <- errorMsg
}

// SendMessage sends a message to this specific client
func (c *Client) SendMessage(msg WebSocketMessage) error {
	select {
	case c.Send <- msg:
		return nil
	default:
		return fmt.Errorf("client send channel is full")
	}
}
