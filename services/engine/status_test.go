package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/domain"
)

var evalTime = time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func TestEvaluateStatus_OpenTaskMeansActive(t *testing.T) {
	a := &domain.VolunteerActivity{OpenTasks: 1}
	assert.Equal(t, domain.VolunteerActive, EvaluateStatus(a, evalTime))
}

func TestEvaluateStatus_OldOpenTaskWinsOverRecency(t *testing.T) {
	// Assigned far outside the window, but the task is still open.
	a := &domain.VolunteerActivity{
		OpenTasks:      1,
		LastAssignedAt: timePtr(evalTime.Add(-90 * 24 * time.Hour)),
	}
	assert.Equal(t, domain.VolunteerActive, EvaluateStatus(a, evalTime),
		"outstanding incomplete work keeps a volunteer Active regardless of recency")
}

func TestEvaluateStatus_RecentAssignmentMeansActive(t *testing.T) {
	a := &domain.VolunteerActivity{
		OpenTasks:      0,
		LastAssignedAt: timePtr(evalTime.Add(-3 * 24 * time.Hour)),
	}
	assert.Equal(t, domain.VolunteerActive, EvaluateStatus(a, evalTime))
}

func TestEvaluateStatus_NoActivityMeansInactive(t *testing.T) {
	assert.Equal(t, domain.VolunteerInactive, EvaluateStatus(&domain.VolunteerActivity{}, evalTime))
}

func TestEvaluateStatus_SevenDayBoundary(t *testing.T) {
	// The window is inclusive: exactly 7 days old still counts as recent.
	exactly := &domain.VolunteerActivity{LastAssignedAt: timePtr(evalTime.Add(-ActivityWindow))}
	assert.Equal(t, domain.VolunteerActive, EvaluateStatus(exactly, evalTime),
		"assignment exactly 7 days old is inside the window")

	// One second past the boundary falls outside.
	past := &domain.VolunteerActivity{LastAssignedAt: timePtr(evalTime.Add(-ActivityWindow - time.Second))}
	assert.Equal(t, domain.VolunteerInactive, EvaluateStatus(past, evalTime),
		"assignment older than 7 days is outside the window")
}

func TestRunStatusEvaluation_WritesOnlyChanges(t *testing.T) {
	store := newFakeStore()
	store.activity = []*domain.VolunteerActivity{
		{ // stays Active, no write
			Volunteer: domain.Volunteer{ID: "v1", Status: domain.VolunteerActive},
			OpenTasks: 1,
		},
		{ // flips to Inactive
			Volunteer: domain.Volunteer{ID: "v2", Status: domain.VolunteerActive},
			OpenTasks: 0,
		},
		{ // flips to Active via recency
			Volunteer:      domain.Volunteer{ID: "v3", Status: domain.VolunteerInactive},
			LastAssignedAt: timePtr(evalTime.Add(-24 * time.Hour)),
		},
	}

	e := newTestEngine(store, newFakeSender(), nil, evalTime)
	s := e.RunStatusEvaluation(context.Background())

	require.True(t, s.Success)
	assert.Equal(t, 2, s.StatusChanged, "only actual value changes are counted")
	assert.NotContains(t, store.statuses, "v1", "unchanged status is not rewritten")
	assert.Equal(t, domain.VolunteerInactive, store.statuses["v2"])
	assert.Equal(t, domain.VolunteerActive, store.statuses["v3"])
}

func TestRunStatusEvaluation_Idempotent(t *testing.T) {
	store := newFakeStore()
	store.activity = []*domain.VolunteerActivity{
		{Volunteer: domain.Volunteer{ID: "v1", Status: domain.VolunteerActive}, OpenTasks: 0},
	}

	e := newTestEngine(store, newFakeSender(), nil, evalTime)
	first := e.RunStatusEvaluation(context.Background())
	assert.Equal(t, 1, first.StatusChanged)

	// Feed the evaluator its own output: the stored status is now Inactive.
	store.activity[0].Volunteer.Status = domain.VolunteerInactive
	second := e.RunStatusEvaluation(context.Background())
	assert.Equal(t, 0, second.StatusChanged, "re-running with unchanged inputs changes nothing")
}

func TestRunStatusEvaluation_OverwritesManualEdit(t *testing.T) {
	store := newFakeStore()
	// Someone manually set v1 Active; the volunteer has no qualifying activity.
	store.activity = []*domain.VolunteerActivity{
		{Volunteer: domain.Volunteer{ID: "v1", Status: domain.VolunteerActive}},
	}

	s := newTestEngine(store, newFakeSender(), nil, evalTime).RunStatusEvaluation(context.Background())

	assert.Equal(t, 1, s.StatusChanged)
	assert.Equal(t, domain.VolunteerInactive, store.statuses["v1"],
		"evaluation supersedes manual status edits")
}

func TestRunStatusEvaluation_DiscoveryErrorAborts(t *testing.T) {
	store := newFakeStore()
	store.activityErr = errors.New("connection refused")

	s := newTestEngine(store, newFakeSender(), nil, evalTime).RunStatusEvaluation(context.Background())

	assert.False(t, s.Success)
	assert.Contains(t, s.Message, "list volunteer activity")
}

func TestRunStatusEvaluation_WriteFailureIsCounted(t *testing.T) {
	store := newFakeStore()
	store.activity = []*domain.VolunteerActivity{
		{Volunteer: domain.Volunteer{ID: "v1", Status: domain.VolunteerActive}},
	}
	store.updateStatusErr = errors.New("write denied")

	s := newTestEngine(store, newFakeSender(), nil, evalTime).RunStatusEvaluation(context.Background())

	require.True(t, s.Success, "a single write failure does not abort the run")
	assert.Equal(t, 0, s.StatusChanged)
	assert.Equal(t, 1, s.StatusFailed)
}
