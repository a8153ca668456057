package controllers

import (
	"time"

	"visa-portal-backend/config"
	"visa-portal-backend/tasks"
	"visa-portal-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type ScheduleInterviewRequest struct {
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	Location      string `json:"location"`
}

type RescheduleInterviewRequest struct {
	NewDate string `json:"new_date"`
	NewTime string `json:"new_time"`
}

type CompleteInterviewRequest struct {
	Outcome *string `json:"outcome"`
}

// GetApplicationInterviewsController lists a case's interviews, soonest
// first.
func (ic *InterviewController) GetApplicationInterviewsController(c *fiber.Ctx) error {
	applicationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid application ID",
		})
	}

	interviews, err := ic.InterviewRepo.GetInterviewsByApplicationID(applicationID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch interviews",
		})
	}

	entries := make([]fiber.Map, 0, len(interviews))
	for i := range interviews {
		entries = append(entries, fiber.Map{
			"interview":         interviews[i],
			"available_actions": ic.SchedulerSvc.AvailableActions(&interviews[i]),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    entries,
	})
}

// ScheduleInterviewController books a new interview for a case.
func (ic *InterviewController) ScheduleInterviewController(c *fiber.Ctx) error {
	applicationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid application ID",
		})
	}

	var request ScheduleInterviewRequest
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

	scheduledDate, err := time.ParseInLocation("2006-01-02 15:04", request.ScheduledDate+" "+request.ScheduledTime, time.Local)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "scheduled_date and scheduled_time are both required",
		})
	}

	interview, err := ic.SchedulerSvc.Schedule(applicationID, scheduledDate, request.Location, actor)
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	go ic.notifyApplicant(applicationID,
		"Visa interview scheduled",
		"Your visa interview has been scheduled for "+scheduledDate.Format("2 January 2006 at 15:04")+
			" at "+interview.Location+". Please confirm your attendance through the portal.")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Interview scheduled",
		"data":    interview,
	})
}

// RescheduleInterviewController moves an interview to a new date and time.
func (ic *InterviewController) RescheduleInterviewController(c *fiber.Ctx) error {
	applicationID, interviewID, ok := parseCaseAndEntityIDs(c, "interviewId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid ID in path",
		})
	}

	var request RescheduleInterviewRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request payload",
			"error":   err.Error(),
		})
	}

	outcome, err := ic.SchedulerSvc.Reschedule(interviewID, request.NewDate, request.NewTime)
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	go ic.notifyApplicant(applicationID,
		"Visa interview rescheduled",
		"Your visa interview has been moved to "+request.NewDate+" "+request.NewTime+
			". Any earlier confirmation no longer applies, please confirm the new slot.")

	return ic.respondWithCase(c, applicationID, outcome, "Interview rescheduled")
}

// CancelInterviewController closes an interview without holding it.
func (ic *InterviewController) CancelInterviewController(c *fiber.Ctx) error {
	applicationID, interviewID, ok := parseCaseAndEntityIDs(c, "interviewId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid ID in path",
		})
	}

	outcome, err := ic.SchedulerSvc.Cancel(interviewID)
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	return ic.respondWithCase(c, applicationID, outcome, "Interview cancelled")
}

// CompleteInterviewController records an interview as held.
func (ic *InterviewController) CompleteInterviewController(c *fiber.Ctx) error {
	applicationID, interviewID, ok := parseCaseAndEntityIDs(c, "interviewId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid ID in path",
		})
	}

	var request CompleteInterviewRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request payload",
			"error":   err.Error(),
		})
	}

	outcome, err := ic.SchedulerSvc.Complete(interviewID, request.Outcome)
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	return ic.respondWithCase(c, applicationID, outcome, "Interview completed")
}

// ConfirmInterviewController records the applicant's attendance
// confirmation.
func (ic *InterviewController) ConfirmInterviewController(c *fiber.Ctx) error {
	applicationID, interviewID, ok := parseCaseAndEntityIDs(c, "interviewId")
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

	outcome, err := ic.SchedulerSvc.Confirm(interviewID, actor)
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	// A confirmed slot gets a reminder the day before; the cron scan catches
	// anything this enqueue misses.
	if ic.AsynqClient != nil {
		if interview, err := ic.InterviewRepo.GetInterviewByID(interviewID); err == nil {
			remindAt := interview.ScheduledDate.Add(-24 * time.Hour)
			if remindAt.After(time.Now()) {
				if task, err := tasks.NewInterviewReminderTask(interviewID); err == nil {
					if _, err := ic.AsynqClient.Enqueue(task, asynq.ProcessAt(remindAt)); err != nil {
						config.Logger.Error("Failed to enqueue interview reminder",
							zap.Error(err),
							zap.String("interviewID", interviewID.String()))
					}
				}
			}
		}
	}

	return ic.respondWithCase(c, applicationID, outcome, "Interview confirmed")
}

// notifyApplicant emails the case's applicant off the request path.
func (ic *InterviewController) notifyApplicant(applicationID uuid.UUID, subject, body string) {
	current, err := ic.CaseSvc.Reload(applicationID)
	if err != nil {
		config.Logger.Error("Failed to load case for interview notification",
			zap.Error(err),
			zap.String("applicationID", applicationID.String()))
		return
	}
	if err := utils.SendEmail(current.Applicant.Email, subject, body); err != nil {
		config.Logger.Error("Failed to send interview email",
			zap.Error(err),
			zap.String("applicationID", applicationID.String()))
	}
}
