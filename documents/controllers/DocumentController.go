package controllers

import (
	"errors"

	applications_services "visa-portal-backend/applications/services"
	"visa-portal-backend/db/models"
	"visa-portal-backend/documents/repositories"
	"visa-portal-backend/documents/services"
	"visa-portal-backend/token"
	"visa-portal-backend/websocket"
	"visa-portal-backend/workflow"

	"github.com/gofiber/fiber/v2"
)

type DocumentController struct {
	DocumentRepo    repositories.DocumentRepository
	VerificationSvc *services.VerificationService
	RequestSvc      *services.RequestService
	CaseSvc         *applications_services.CaseService
	WsHub           *websocket.Hub
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
	case errors.Is(err, workflow.ErrOperationInFlight):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "This action is already being processed, please wait",
		})
	case errors.Is(err, repositories.ErrDocumentNotFound),
		errors.Is(err, repositories.ErrRequestNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Something went wrong, please try again",
		})
	}
}
