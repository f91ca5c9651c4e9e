package domain

import "time"

// TaskStatus represents the lifecycle states of a volunteer task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskCompleted TaskStatus = "COMPLETED"
)

// IsCompleted returns true if the task is finished and must never produce
// further notifications.
func (s TaskStatus) IsCompleted() bool {
	return s == TaskCompleted
}

// Task is a unit of volunteer work. Tasks are created and mutated by the
// CRUD layer; the engine only reads them.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Status    TaskStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// OverdueOn reports whether the task's due date falls strictly before the
// given calendar day. Tasks without a due date are never overdue.
func (t *Task) OverdueOn(day string) bool {
	if t.DueDate == nil || t.Status.IsCompleted() {
		return false
	}
	return DayOf(*t.DueDate) < day
}

// VolunteerStatus is the derived activity state of a volunteer.
type VolunteerStatus string

const (
	VolunteerActive   VolunteerStatus = "ACTIVE"
	VolunteerInactive VolunteerStatus = "INACTIVE"
)

// Volunteer is a reminder recipient. Status is fully derived by the status
// evaluator on every run; manual edits are overwritten.
type Volunteer struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email,omitempty"` // empty = no contact address
	Status    VolunteerStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Assignment links a task to a volunteer. CreatedAt feeds the trailing
// activity window of the status evaluator.
type Assignment struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	VolunteerID string    `json:"volunteer_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// VolunteerActivity is the evaluator's view of one volunteer: how many of
// their assigned tasks are still open, and when they were last assigned.
type VolunteerActivity struct {
	Volunteer      Volunteer
	OpenTasks      int
	LastAssignedAt *time.Time
}

// ReminderEntry is one row of the reminder dedup ledger. At most one entry
// exists per (task, volunteer, day); entries are append-only.
type ReminderEntry struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	VolunteerID string    `json:"volunteer_id"`
	SentOn      string    `json:"sent_on"` // calendar day, YYYY-MM-DD (UTC)
	MessageID   string    `json:"message_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// EscalationEntry is one row of the escalation dedup ledger, keyed by admin
// address instead of volunteer. The namespace is separate from the reminder
// ledger because audience and semantics differ.
type EscalationEntry struct {
	ID           string    `json:"id"`
	TaskID       string    `json:"task_id"`
	AdminAddress string    `json:"admin_address"`
	SentOn       string    `json:"sent_on"`
	MessageID    string    `json:"message_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// DayOf returns the UTC calendar day of t in YYYY-MM-DD form. All ledger
// keys and overdue comparisons use this representation.
func DayOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
