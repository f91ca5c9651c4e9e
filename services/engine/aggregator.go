package engine

import (
	"sync"
	"time"

	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/domain"
)

// aggregator collects per-run counts and per-item errors. It is safe for
// the bounded dispatch pool to record into concurrently; Summary snapshots
// an immutable domain.RunSummary.
type aggregator struct {
	mu      sync.Mutex
	summary domain.RunSummary
	byTask  map[string]int // task ID → index into summary.TaskErrors
}

func newAggregator(job string, startedAt time.Time) *aggregator {
	return &aggregator{
		summary: domain.RunSummary{Job: job, StartedAt: startedAt, Success: true},
		byTask:  make(map[string]int),
	}
}

// abort marks the whole run failed. Used for discovery-level errors only;
// per-item failures are isolated and do not abort.
func (a *aggregator) abort(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.Success = false
	a.summary.Message = message
}

func (a *aggregator) taskProcessed() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.TasksProcessed++
}

func (a *aggregator) reminderSent() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.RemindersSent++
}

func (a *aggregator) reminderSkipped() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.RemindersSkipped++
}

func (a *aggregator) reminderFailed(task *domain.Task, volunteerID, reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.RemindersFailed++
	a.recordLocked(task.ID, task.Title, domain.SendError{VolunteerID: volunteerID, Reason: reason})
}

// taskFailed records a task-level error (e.g. assignment resolution) without
// a volunteer attached.
func (a *aggregator) taskFailed(task *domain.Task, reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recordLocked(task.ID, task.Title, domain.SendError{Reason: reason})
}

func (a *aggregator) escalationSent() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.EscalationsSent++
}

func (a *aggregator) escalationFailed(task *domain.Task, admin, reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.EscalationsFailed++
	a.recordLocked(task.ID, task.Title, domain.SendError{Address: admin, Reason: reason})
}

func (a *aggregator) statusChanged() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.StatusChanged++
}

func (a *aggregator) statusFailed() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.StatusFailed++
}

func (a *aggregator) recordLocked(taskID, title string, e domain.SendError) {
	idx, ok := a.byTask[taskID]
	if !ok {
		a.summary.TaskErrors = append(a.summary.TaskErrors, domain.TaskErrors{TaskID: taskID, Title: title})
		idx = len(a.summary.TaskErrors) - 1
		a.byTask[taskID] = idx
	}
	a.summary.TaskErrors[idx].Errors = append(a.summary.TaskErrors[idx].Errors, e)
}

// finish stamps the end time and returns the summary by value. The copy
// shares the TaskErrors backing array, but nothing writes after finish.
func (a *aggregator) finish(at time.Time) domain.RunSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.FinishedAt = at
	return a.summary
}
