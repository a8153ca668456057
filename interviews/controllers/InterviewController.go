package controllers

import (
	"errors"

	applications_services "visa-portal-backend/applications/services"
	"visa-portal-backend/db/models"
	"visa-portal-backend/interviews/repositories"
	"visa-portal-backend/interviews/services"
	"visa-portal-backend/token"
	"visa-portal-backend/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type InterviewController struct {
	InterviewRepo repositories.InterviewRepository
	SchedulerSvc  *services.SchedulerService
	CaseSvc       *applications_services.CaseService
	AsynqClient   *asynq.Client
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
	case errors.Is(err, workflow.ErrAlreadyConfirmed):
		// A repeat confirmation is a harmless no-op from the actor's side.
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
			"message": "Interview already confirmed",
		})
	case errors.Is(err, workflow.ErrOperationInFlight):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "This action is already being processed, please wait",
		})
	case errors.Is(err, repositories.ErrInterviewNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Interview not found",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Something went wrong, please try again",
		})
	}
}

// respondWithCase folds a workflow outcome into the case aggregate and
// returns the refreshed view.
func (ic *InterviewController) respondWithCase(c *fiber.Ctx, applicationID uuid.UUID, outcome workflow.Outcome, message string) error {
	current, err := ic.CaseSvc.Reload(applicationID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Action succeeded but the case view could not be refreshed, reload the page",
		})
	}

	updated, err := ic.CaseSvc.ApplyOutcome(current, outcome)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Action succeeded but the case view could not be refreshed, reload the page",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    updated,
	})
}

func parseCaseAndEntityIDs(c *fiber.Ctx, entityParam string) (uuid.UUID, uuid.UUID, bool) {
	applicationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	entityID, err := uuid.Parse(c.Params(entityParam))
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return applicationID, entityID, true
}
