package routes

import (
	"visa-portal-backend/db/models"
	"visa-portal-backend/middleware"
	"visa-portal-backend/search/controllers"
	"visa-portal-backend/search/repositories"

	"github.com/gofiber/fiber/v2"
)

func SearchRouterInit(
	app *fiber.App,
	appCtx *middleware.AppContext,
	searchRepo repositories.SearchRepositoryInterface,
) {
	searchController := controllers.NewSearchController(searchRepo)

	searchRoutes := app.Group("/api/v1/search",
		middleware.ProtectedRoute(appCtx),
		middleware.RequireRoles(models.OfficerRole, models.AdminRole),
	)

	searchRoutes.Get("/applications", searchController.SearchApplicationsController)
}
