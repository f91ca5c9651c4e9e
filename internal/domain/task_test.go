package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatus_IsCompleted(t *testing.T) {
	assert.True(t, TaskCompleted.IsCompleted())
	assert.False(t, TaskPending.IsCompleted())
}

func TestDayOf_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 2026-02-10 02:30 at UTC+5 is still 2026-02-09 in UTC.
	ts := time.Date(2026, 2, 10, 2, 30, 0, 0, loc)
	assert.Equal(t, "2026-02-09", DayOf(ts))
}

func TestTask_OverdueOn(t *testing.T) {
	due := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	pending := &Task{Status: TaskPending, DueDate: &due}
	assert.False(t, pending.OverdueOn("2026-02-09"), "not yet due")
	assert.False(t, pending.OverdueOn("2026-02-10"), "due today is not overdue")
	assert.True(t, pending.OverdueOn("2026-02-11"), "strictly past due date")

	completed := &Task{Status: TaskCompleted, DueDate: &due}
	assert.False(t, completed.OverdueOn("2026-02-11"), "completed tasks never escalate")

	noDue := &Task{Status: TaskPending}
	assert.False(t, noDue.OverdueOn("2026-02-11"), "no due date means never overdue")
}
