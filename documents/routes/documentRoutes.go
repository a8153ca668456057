package routes

import (
	applications_services "visa-portal-backend/applications/services"
	"visa-portal-backend/db/models"
	controllers "visa-portal-backend/documents/controllers"
	repositories "visa-portal-backend/documents/repositories"
	services "visa-portal-backend/documents/services"
	"visa-portal-backend/middleware"
	"visa-portal-backend/websocket"

	"github.com/gofiber/fiber/v2"
)

func DocumentRouterInit(
	app *fiber.App,
	appCtx *middleware.AppContext,
	documentRepository repositories.DocumentRepository,
	verificationService *services.VerificationService,
	requestService *services.RequestService,
	caseService *applications_services.CaseService,
	wsHub *websocket.Hub,
) {
	documentController := &controllers.DocumentController{
		DocumentRepo:    documentRepository,
		VerificationSvc: verificationService,
		RequestSvc:      requestService,
		CaseSvc:         caseService,
		WsHub:           wsHub,
	}

	documentRoutes := app.Group("/api/v1", middleware.ProtectedRoute(appCtx))
	staffOnly := middleware.RequireRoles(models.OfficerRole, models.AdminRole)
	applicantOnly := middleware.RequireRoles(models.ApplicantRole)

	documentRoutes.Get("/applications/:id/documents", documentController.GetApplicationDocumentsController)

	// Verification (officer side)
	documentRoutes.Post("/applications/:id/documents/:documentId/verify", staffOnly, documentController.VerifyDocumentController)
	documentRoutes.Post("/applications/:id/documents/:documentId/reject", staffOnly, documentController.RejectDocumentController)

	// Document requests
	documentRoutes.Post("/applications/:id/document-requests", staffOnly, documentController.CreateDocumentRequestController)
	documentRoutes.Post("/applications/:id/document-requests/:requestId/cancel", staffOnly, documentController.CancelDocumentRequestController)
	documentRoutes.Post("/applications/:id/document-requests/:requestId/submit", applicantOnly, documentController.SubmitDocumentController)
}
