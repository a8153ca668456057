package controllers

import (
	"strings"

	"visa-portal-backend/config"
	"visa-portal-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RejectDocumentRequest struct {
	Reason string `json:"reason"`
}

// VerifyDocumentController marks a pending document as verified by the
// acting officer.
func (dc *DocumentController) VerifyDocumentController(c *fiber.Ctx) error {
	applicationID, documentID, ok := parseCaseAndEntityIDs(c, "documentId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid ID in path",
		})
	}

	actor, authed := actorFromContext(c)
	if !authed {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not authenticated",
		})
	}

	outcome, err := dc.VerificationSvc.Verify(documentID, actor)
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	return dc.respondWithCase(c, applicationID, outcome, "Document verified")
}

// RejectDocumentController marks a pending document as rejected. The
// reason is mandatory and checked before anything is dispatched.
func (dc *DocumentController) RejectDocumentController(c *fiber.Ctx) error {
	applicationID, documentID, ok := parseCaseAndEntityIDs(c, "documentId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid ID in path",
		})
	}

	var request RejectDocumentRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request payload",
			"error":   err.Error(),
		})
	}

	actor, authed := actorFromContext(c)
	if !authed {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not authenticated",
		})
	}

	reason := strings.TrimSpace(request.Reason)
	outcome, err := dc.VerificationSvc.Reject(documentID, reason, actor)
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	// Email the applicant off the request path.
	go func(applicationID uuid.UUID, reason string) {
		current, err := dc.CaseSvc.Reload(applicationID)
		if err != nil {
			config.Logger.Error("Failed to load case for rejection notification",
				zap.Error(err),
				zap.String("applicationID", applicationID.String()))
			return
		}
		subject := "A document on application " + current.ApplicationNumber + " was rejected"
		body := "One of your uploaded documents could not be accepted: " + reason +
			". Please upload a replacement through the portal."
		if err := utils.SendEmail(current.Applicant.Email, subject, body); err != nil {
			config.Logger.Error("Failed to send rejection email",
				zap.Error(err),
				zap.String("applicationID", applicationID.String()))
		}
	}(applicationID, reason)

	return dc.respondWithCase(c, applicationID, outcome, "Document rejected")
}

// parseCaseAndEntityIDs pulls the application id and one sub-entity id out
// of the route path.
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
