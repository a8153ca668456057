package controllers

import (
	"errors"

	"visa-portal-backend/db/models"
	"visa-portal-backend/messages/repositories"
	"visa-portal-backend/messages/services"
	"visa-portal-backend/token"
	"visa-portal-backend/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type MessageController struct {
	MessageRepo repositories.MessageRepository
	ThreadSvc   *services.ThreadService
}

func actorFromContext(c *fiber.Ctx) (*models.User, bool) {
	payload, ok := c.Locals("user").(*token.Payload)
	if !ok || payload == nil {
		return nil, false
	}
	return &models.User{
		ID:    payload.UserID,
		Email: payload.Email,
		Role:  payload.Role,
	}, true
}

type SendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

// GetMessagesByApplicationController returns one page of a case's thread
// in display order.
func (mc *MessageController) GetMessagesByApplicationController(c *fiber.Ctx) error {
	applicationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid application ID",
		})
	}

	pageSize := c.QueryInt("page_size", 50)
	page := c.QueryInt("page", 1)
	if pageSize <= 0 || page <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "page and page_size must be greater than 0",
		})
	}

	messages, err := mc.ThreadSvc.Thread(applicationID, pageSize, (page-1)*pageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch messages",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    messages,
	})
}

// SendMessageController appends a message to the case thread.
func (mc *MessageController) SendMessageController(c *fiber.Ctx) error {
	applicationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid application ID",
		})
	}

	var request SendMessageRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request payload",
			"error":   err.Error(),
		})
	}

	recipientID, err := uuid.Parse(request.RecipientID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Valid recipient_id is required",
		})
	}

	actor, authed := actorFromContext(c)
	if !authed {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not authenticated",
		})
	}

	message, err := mc.ThreadSvc.SendMessage(applicationID, recipientID, request.Content, actor)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrEmptyMessage):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Message cannot be empty",
			})
		case errors.Is(err, services.ErrTooManyMessages):
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		case errors.Is(err, workflow.ErrOperationInFlight):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "A message for this case is already being sent, please wait",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to send message, please try again",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Message sent",
		"data":    message,
	})
}

// MarkMessageReadController flips a message's read flag. Safe to repeat.
func (mc *MessageController) MarkMessageReadController(c *fiber.Ctx) error {
	messageID, err := uuid.Parse(c.Params("messageId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid message ID",
		})
	}

	message, err := mc.ThreadSvc.MarkRead(messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Message not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to mark message read",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    message,
	})
}

// GetInboxController returns the officer's conversation list, unread
// conversations first.
func (mc *MessageController) GetInboxController(c *fiber.Ctx) error {
	actor, authed := actorFromContext(c)
	if !authed {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not authenticated",
		})
	}

	conversations, err := mc.ThreadSvc.Inbox(actor)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch inbox",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    conversations,
	})
}
