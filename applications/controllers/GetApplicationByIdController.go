package controllers

import (
	"errors"

	"visa-portal-backend/applications/repositories"
	messages_services "visa-portal-backend/messages/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetApplicationByIdController returns the full case aggregate. Applicants
// only ever see their own case; staff see any.
func (ac *ApplicationController) GetApplicationByIdController(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid application ID",
		})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not authenticated",
		})
	}

	application, err := ac.ApplicationRepo.GetApplicationByID(id)
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

	if !actor.Role.IsStaff() && application.ApplicantID != actor.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Not allowed to view this application",
		})
	}

	// Applicants never see internal officer notes.
	if !actor.Role.IsStaff() {
		application.Notes = nil
	}

	messages_services.SortThread(application.Messages)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    application,
	})
}
