package controllers

import (
	"visa-portal-backend/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateNoteRequest struct {
	Content string `json:"content"`
}

// CreateNoteController appends an internal officer note to a case.
func (ac *ApplicationController) CreateNoteController(c *fiber.Ctx) error {
	applicationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid application ID",
		})
	}

	var request CreateNoteRequest
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

	note, err := ac.StatusSvc.AddNote(applicationID, actor.ID, request.Content)
	if err != nil {
		if workflow.IsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Note content cannot be empty",
			})
		}
		return workflowErrorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Note added",
		"data":    note,
	})
}

// GetApplicationNotesController lists a case's internal notes, oldest
// first.
func (ac *ApplicationController) GetApplicationNotesController(c *fiber.Ctx) error {
	applicationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid application ID",
		})
	}

	notes, err := ac.StatusSvc.Notes(applicationID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch notes",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    notes,
	})
}
