package routes

import (
	controllers "visa-portal-backend/applications/controllers"
	repositories "visa-portal-backend/applications/repositories"
	services "visa-portal-backend/applications/services"
	"visa-portal-backend/db/models"
	"visa-portal-backend/middleware"
	search_repositories "visa-portal-backend/search/repositories"
	"visa-portal-backend/websocket"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func ApplicationRouterInit(
	app *fiber.App,
	appCtx *middleware.AppContext,
	db *gorm.DB,
	applicationRepository repositories.ApplicationRepository,
	statusService *services.StatusService,
	caseService *services.CaseService,
	searchRepository search_repositories.SearchRepositoryInterface,
	wsHub *websocket.Hub,
) {
	applicationController := &controllers.ApplicationController{
		ApplicationRepo: applicationRepository,
		DB:              db,
		StatusSvc:       statusService,
		CaseSvc:         caseService,
		SearchRepo:      searchRepository,
		WsHub:           wsHub,
	}

	applicationRoutes := app.Group("/api/v1", middleware.ProtectedRoute(appCtx))
	staffOnly := middleware.RequireRoles(models.OfficerRole, models.AdminRole)

	// Applications
	applicationRoutes.Post("/create-application", applicationController.CreateApplicationController)
	applicationRoutes.Get("/filtered-applications", applicationController.GetFilteredApplicationsController)
	applicationRoutes.Get("/application/:id", applicationController.GetApplicationByIdController)

	// Case workflow (officer side)
	applicationRoutes.Patch("/applications/:id/status", staffOnly, applicationController.UpdateApplicationStatusController)
	applicationRoutes.Post("/applications/:id/notes", staffOnly, applicationController.CreateNoteController)
	applicationRoutes.Get("/applications/:id/notes", staffOnly, applicationController.GetApplicationNotesController)
}
