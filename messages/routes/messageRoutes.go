package routes

import (
	"visa-portal-backend/db/models"
	controllers "visa-portal-backend/messages/controllers"
	repositories "visa-portal-backend/messages/repositories"
	services "visa-portal-backend/messages/services"
	"visa-portal-backend/middleware"

	"github.com/gofiber/fiber/v2"
)

func MessageRouterInit(
	app *fiber.App,
	appCtx *middleware.AppContext,
	messageRepository repositories.MessageRepository,
	threadService *services.ThreadService,
) {
	messageController := &controllers.MessageController{
		MessageRepo: messageRepository,
		ThreadSvc:   threadService,
	}

	messageRoutes := app.Group("/api/v1", middleware.ProtectedRoute(appCtx))
	staffOnly := middleware.RequireRoles(models.OfficerRole, models.AdminRole)

	messageRoutes.Get("/applications/:id/messages", messageController.GetMessagesByApplicationController)
	messageRoutes.Post("/applications/:id/messages", messageController.SendMessageController)
	messageRoutes.Patch("/messages/:messageId/read", messageController.MarkMessageReadController)

	// Officer inbox
	messageRoutes.Get("/inbox", staffOnly, messageController.GetInboxController)
}
