package controllers

import (
	"io"

	"visa-portal-backend/config"
	"visa-portal-backend/db/models"
	"visa-portal-backend/utils"
	"visa-portal-backend/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateDocumentRequestRequest struct {
	DocumentName      string  `json:"document_name"`
	AdditionalDetails *string `json:"additional_details"`
}

// respondWithCase folds a workflow outcome into the case aggregate and
// returns the refreshed view.
func (dc *DocumentController) respondWithCase(c *fiber.Ctx, applicationID uuid.UUID, outcome workflow.Outcome, message string) error {
	current, err := dc.CaseSvc.Reload(applicationID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Action succeeded but the case view could not be refreshed, reload the page",
		})
	}

	updated, err := dc.CaseSvc.ApplyOutcome(current, outcome)
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

// GetApplicationDocumentsController lists a case's documents and open
// document requests together.
func (dc *DocumentController) GetApplicationDocumentsController(c *fiber.Ctx) error {
	applicationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid application ID",
		})
	}

	documents, err := dc.DocumentRepo.GetDocumentsByApplicationID(applicationID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch documents",
		})
	}

	requests, err := dc.DocumentRepo.GetRequestsByApplicationID(applicationID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch document requests",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"documents": documents,
			"requests":  requests,
		},
	})
}

// CreateDocumentRequestController opens an officer request for an extra
// document and notifies the applicant.
func (dc *DocumentController) CreateDocumentRequestController(c *fiber.Ctx) error {
	applicationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid application ID",
		})
	}

	var request CreateDocumentRequestRequest
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

	created, err := dc.RequestSvc.CreateRequest(applicationID, request.DocumentName, request.AdditionalDetails, actor)
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	if dc.WsHub != nil {
		dc.WsHub.BroadcastDocumentRequested(applicationID, created)
	}

	// Email the applicant off the request path.
	go func(applicationID uuid.UUID, documentName string) {
		current, err := dc.CaseSvc.Reload(applicationID)
		if err != nil {
			config.Logger.Error("Failed to load case for request notification",
				zap.Error(err),
				zap.String("applicationID", applicationID.String()))
			return
		}
		subject := "Additional document required for application " + current.ApplicationNumber
		body := "The consulate has requested an additional document for your visa application: " + documentName
		if err := utils.SendEmail(current.Applicant.Email, subject, body); err != nil {
			config.Logger.Error("Failed to send document request email",
				zap.Error(err),
				zap.String("applicationID", applicationID.String()))
		}
	}(applicationID, created.DocumentName)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Document request sent",
		"data":    created,
	})
}

// CancelDocumentRequestController closes a SENT request.
func (dc *DocumentController) CancelDocumentRequestController(c *fiber.Ctx) error {
	applicationID, requestID, ok := parseCaseAndEntityIDs(c, "requestId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid ID in path",
		})
	}

	outcome, err := dc.RequestSvc.CancelRequest(requestID)
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	return dc.respondWithCase(c, applicationID, outcome, "Document request cancelled")
}

// SubmitDocumentController lets the applicant fulfil an open request with
// a multipart file upload.
func (dc *DocumentController) SubmitDocumentController(c *fiber.Ctx) error {
	applicationID, requestID, ok := parseCaseAndEntityIDs(c, "requestId")
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

	documentType := models.DocumentType(c.FormValue("document_type"))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "A file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Could not read uploaded file",
		})
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Could not read uploaded file",
		})
	}

	outcome, err := dc.RequestSvc.SubmitDocument(requestID, actor, documentType, fileHeader.Filename, content)
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	return dc.respondWithCase(c, applicationID, outcome, "Document submitted")
}
