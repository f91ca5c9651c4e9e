package domain

import "time"

// Skip reasons recorded by the reminder processor. Skips are not failures.
const (
	SkipAlreadySent = "already sent today"
	SkipNoAddress   = "no contact address"
)

// SendError is one isolated per-recipient failure inside a run.
type SendError struct {
	VolunteerID string `json:"volunteer_id,omitempty"`
	Address     string `json:"address,omitempty"`
	Reason      string `json:"reason"`
}

// TaskErrors groups the failures recorded against a single task.
type TaskErrors struct {
	TaskID string      `json:"task_id"`
	Title  string      `json:"title,omitempty"`
	Errors []SendError `json:"errors"`
}

// RunSummary is the immutable result of one job run. It is returned to the
// caller (scheduled or manual) and emitted to the log sink; nothing mutates
// it after the aggregator snapshots it.
type RunSummary struct {
	Job        string    `json:"job"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Success    bool      `json:"success"`
	Message    string    `json:"message,omitempty"`

	TasksProcessed    int `json:"tasks_processed"`
	RemindersSent     int `json:"reminders_sent"`
	RemindersSkipped  int `json:"reminders_skipped"`
	RemindersFailed   int `json:"reminders_failed"`
	EscalationsSent   int `json:"escalations_sent"`
	EscalationsFailed int `json:"escalations_failed"`
	StatusChanged     int `json:"status_changed"`
	StatusFailed      int `json:"status_failed"`

	TaskErrors []TaskErrors `json:"task_errors,omitempty"`
}

// Duration is the wall-clock time the run took.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
