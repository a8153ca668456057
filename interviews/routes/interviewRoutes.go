package routes

import (
	applications_services "visa-portal-backend/applications/services"
	"visa-portal-backend/db/models"
	controllers "visa-portal-backend/interviews/controllers"
	repositories "visa-portal-backend/interviews/repositories"
	services "visa-portal-backend/interviews/services"
	"visa-portal-backend/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
)

func InterviewRouterInit(
	app *fiber.App,
	appCtx *middleware.AppContext,
	interviewRepository repositories.InterviewRepository,
	schedulerService *services.SchedulerService,
	caseService *applications_services.CaseService,
	asynqClient *asynq.Client,
) {
	interviewController := &controllers.InterviewController{
		InterviewRepo: interviewRepository,
		SchedulerSvc:  schedulerService,
		CaseSvc:       caseService,
		AsynqClient:   asynqClient,
	}

	interviewRoutes := app.Group("/api/v1", middleware.ProtectedRoute(appCtx))
	staffOnly := middleware.RequireRoles(models.OfficerRole, models.AdminRole)
	applicantOnly := middleware.RequireRoles(models.ApplicantRole)

	interviewRoutes.Get("/applications/:id/interviews", interviewController.GetApplicationInterviewsController)

	// Officer side
	interviewRoutes.Post("/applications/:id/interviews", staffOnly, interviewController.ScheduleInterviewController)
	interviewRoutes.Post("/applications/:id/interviews/:interviewId/reschedule", staffOnly, interviewController.RescheduleInterviewController)
	interviewRoutes.Post("/applications/:id/interviews/:interviewId/cancel", staffOnly, interviewController.CancelInterviewController)
	interviewRoutes.Post("/applications/:id/interviews/:interviewId/complete", staffOnly, interviewController.CompleteInterviewController)

	// Applicant side
	interviewRoutes.Post("/applications/:id/interviews/:interviewId/confirm", applicantOnly, interviewController.ConfirmInterviewController)
}
