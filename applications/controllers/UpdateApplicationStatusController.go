package controllers

import (
	"errors"

	"visa-portal-backend/applications/repositories"
	"visa-portal-backend/config"
	"visa-portal-backend/db/models"
	search_repositories "visa-portal-backend/search/repositories"
	"visa-portal-backend/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UpdateStatusRequest struct {
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason"`
}

// UpdateApplicationStatusController moves the case to a new top-level
// status. A rejection without a reason never leaves this handler; a
// same-state update is reported back as "no changes".
func (ac *ApplicationController) UpdateApplicationStatusController(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid application ID",
		})
	}

	var request UpdateStatusRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request payload",
			"error":   err.Error(),
		})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not authenticated",
		})
	}

	current, err := ac.ApplicationRepo.GetApplicationByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrApplicationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Application not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch application",
		})
	}

	outcome, err := ac.StatusSvc.UpdateStatus(current, models.ApplicationStatus(request.Status), request.RejectionReason, actor)
	if err != nil {
		if errors.Is(err, workflow.ErrMissingReason) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "A rejection reason is required",
			})
		}
		return workflowErrorResponse(c, err)
	}

	updated, err := ac.CaseSvc.ApplyOutcome(current, outcome)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Status changed but the case view could not be refreshed, reload the page",
		})
	}

	// Keep the search projection in step with the new status.
	go func(application *models.Application) {
		if err := ac.SearchRepo.UpdateApplication(search_repositories.NewApplicationSearchDoc(application)); err != nil {
			config.Logger.Error("Failed to reindex application after status change",
				zap.Error(err),
				zap.String("applicationID", application.ID.String()))
		}
	}(updated)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Application status updated",
		"data":    updated,
	})
}
