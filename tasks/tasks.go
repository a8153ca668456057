package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypeOrphanSweep       = "maintenance:orphan-sweep"
	TypeInterviewReminder = "interview:reminder"
)

type InterviewReminderPayload struct {
	InterviewID uuid.UUID `json:"interview_id"`
}

// NewOrphanSweepTask builds the nightly storage reconciliation task. No
// payload; the handler diffs storage against the document table.
func NewOrphanSweepTask() *asynq.Task {
	return asynq.NewTask(TypeOrphanSweep, nil)
}

// NewInterviewReminderTask builds a reminder for one upcoming interview.
func NewInterviewReminderTask(interviewID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(InterviewReminderPayload{InterviewID: interviewID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeInterviewReminder, payload), nil
}
