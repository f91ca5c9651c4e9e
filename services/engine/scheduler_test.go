package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/domain"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	return NewScheduler(NewRunRegistry(), nil, time.Minute, slog.Default())
}

func summaryJob(job string) JobFunc {
	return func(_ context.Context) domain.RunSummary {
		return domain.RunSummary{Job: job, Success: true}
	}
}

func TestScheduler_Register_RejectsBadCron(t *testing.T) {
	s := newTestScheduler(t)
	err := s.Register("reminder", "not-a-cron", summaryJob("reminder"))
	require.Error(t, err)
}

func TestScheduler_Register_RejectsDuplicate(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Register("reminder", "0 9 * * *", summaryJob("reminder")))
	err := s.Register("reminder", "0 9 * * *", summaryJob("reminder"))
	require.Error(t, err)
}

func TestScheduler_Trigger_ReturnsSummary(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Register("reminder", "0 9 * * *", summaryJob("reminder")))

	got, err := s.Trigger(context.Background(), "reminder")
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, "reminder", got.Job)
}

func TestScheduler_Trigger_UnknownJob(t *testing.T) {
	s := newTestScheduler(t)

	_, err := s.Trigger(context.Background(), "nope")
	var notFound *domain.JobNotFoundError
	require.True(t, errors.As(err, &notFound), "expected JobNotFoundError, got: %v", err)
}

func TestScheduler_Trigger_RejectsOverlap(t *testing.T) {
	s := newTestScheduler(t)

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Register("reminder", "0 9 * * *", func(_ context.Context) domain.RunSummary {
		close(started)
		<-release
		return domain.RunSummary{Job: "reminder", Success: true}
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.Trigger(context.Background(), "reminder")
	}()

	<-started
	_, err := s.Trigger(context.Background(), "reminder")
	var running *domain.JobAlreadyRunningError
	require.True(t, errors.As(err, &running), "expected JobAlreadyRunningError, got: %v", err)

	st, stErr := s.Status("reminder")
	require.NoError(t, stErr)
	assert.True(t, st.Running)

	close(release)
	wg.Wait()

	st, stErr = s.Status("reminder")
	require.NoError(t, stErr)
	assert.False(t, st.Running, "registry released after the run finishes")
}

func TestScheduler_Reschedule(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Register("reminder", "0 9 * * *", summaryJob("reminder")))

	require.Error(t, s.Reschedule("reminder", "garbage"), "invalid cron is rejected")
	require.NoError(t, s.Reschedule("reminder", "30 7 * * *"))

	st, err := s.Status("reminder")
	require.NoError(t, err)
	assert.Equal(t, "30 7 * * *", st.Cron)

	var notFound *domain.JobNotFoundError
	err = s.Reschedule("nope", "0 9 * * *")
	require.True(t, errors.As(err, &notFound))
}

func TestScheduler_Status_ReportsSchedule(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Register("escalation", "0 8 * * *", summaryJob("escalation")))
	s.Start()
	defer s.Stop()

	st, err := s.Status("escalation")
	require.NoError(t, err)
	assert.True(t, st.Scheduled)
	assert.Equal(t, "0 8 * * *", st.Cron)
	assert.False(t, st.NextRun.IsZero(), "a started scheduler knows the next fire time")
}

// Two schedulers with separate registries run the same job name
// independently. This is the reason the registry is injectable.
func TestScheduler_IsolatedRegistries(t *testing.T) {
	a := NewScheduler(NewRunRegistry(), nil, time.Minute, slog.Default())
	b := NewScheduler(NewRunRegistry(), nil, time.Minute, slog.Default())

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, a.Register("reminder", "0 9 * * *", func(_ context.Context) domain.RunSummary {
		close(started)
		<-block
		return domain.RunSummary{Job: "reminder", Success: true}
	}))
	require.NoError(t, b.Register("reminder", "0 9 * * *", summaryJob("reminder")))

	go func() { _, _ = a.Trigger(context.Background(), "reminder") }()
	<-started

	_, err := b.Trigger(context.Background(), "reminder")
	assert.NoError(t, err, "instance B is not blocked by instance A's registry")
	close(block)
}
