package controllers

import (
	"errors"

	"visa-portal-backend/applications/repositories"
	"visa-portal-backend/applications/services"
	"visa-portal-backend/db/models"
	search_repositories "visa-portal-backend/search/repositories"
	"visa-portal-backend/token"
	"visa-portal-backend/websocket"
	"visa-portal-backend/workflow"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ApplicationController struct {
	ApplicationRepo repositories.ApplicationRepository
	DB              *gorm.DB
	StatusSvc       *services.StatusService
	CaseSvc         *services.CaseService
	SearchRepo      search_repositories.SearchRepositoryInterface
	WsHub           *websocket.Hub
}

// actorFromContext rebuilds the acting user from the verified token
// payload. No database roundtrip; the payload carries everything the
// workflow needs.
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

// workflowErrorResponse maps workflow failures onto HTTP responses: local
// validation and illegal transitions carry their specific reason, anything
// opaque degrades to a generic try-again.
func workflowErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case workflow.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	case workflow.IsTransition(err):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	case errors.Is(err, workflow.ErrNoChanges):
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
			"message": "No changes",
		})
	case errors.Is(err, workflow.ErrOperationInFlight):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "This action is already being processed, please wait",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Something went wrong, please try again",
		})
	}
}
