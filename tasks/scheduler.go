package tasks

import (
	"time"

	"visa-portal-backend/config"
	interview_repositories "visa-portal-backend/interviews/repositories"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartWorker runs the asynq worker that processes background tasks.
// Blocks; run in a goroutine.
func StartWorker(redisOpt asynq.RedisClientOpt, handler *TaskHandler) {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"default": 5,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOrphanSweep, handler.HandleOrphanSweep)
	mux.HandleFunc(TypeInterviewReminder, handler.HandleInterviewReminder)

	if err := srv.Run(mux); err != nil {
		config.Logger.Fatal("Background worker stopped", zap.Error(err))
	}
}

// StartScheduler enqueues the recurring maintenance work: a storage sweep
// nightly at 2 AM, and interview reminders every morning at 7 AM for
// interviews within the next 24 hours.
func StartScheduler(client *asynq.Client, interviewRepo interview_repositories.InterviewRepository) {
	c := cron.New()

	c.AddFunc("0 2 * * *", func() {
		if _, err := client.Enqueue(NewOrphanSweepTask()); err != nil {
			config.Logger.Error("Failed to enqueue orphan sweep", zap.Error(err))
		}
	})

	c.AddFunc("0 7 * * *", func() {
		upcoming, err := interviewRepo.ListUpcomingInterviews(24 * time.Hour)
		if err != nil {
			config.Logger.Error("Failed to list upcoming interviews for reminders", zap.Error(err))
			return
		}

		for _, interview := range upcoming {
			task, err := NewInterviewReminderTask(interview.ID)
			if err != nil {
				config.Logger.Error("Failed to build interview reminder task",
					zap.String("interviewID", interview.ID.String()),
					zap.Error(err))
				continue
			}
			if _, err := client.Enqueue(task); err != nil {
				config.Logger.Error("Failed to enqueue interview reminder",
					zap.String("interviewID", interview.ID.String()),
					zap.Error(err))
			}
		}

		config.Logger.Info("Interview reminders enqueued", zap.Int("count", len(upcoming)))
	})

	c.Start()
}
