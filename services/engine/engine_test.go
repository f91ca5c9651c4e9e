package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/domain"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/mailer"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/postgres"
)

// ── fakes ────────────────────────────────────────────────────────────────────

func ledgerKey(a, b, day string) string { return a + "|" + b + "|" + day }

type fakeStore struct {
	mu sync.Mutex

	tasks       []*domain.Task
	assignments map[string][]*domain.Volunteer // task ID → volunteers
	activity    []*domain.VolunteerActivity

	reminderLedger   map[string]string // (task,volunteer,day) → message ID
	escalationLedger map[string]string // (task,admin,day) → message ID
	statuses         map[string]domain.VolunteerStatus

	listTasksErr      error
	activityErr       error
	assignErrFor      map[string]error // task ID → resolution error
	appendReminderErr error
	updateStatusErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		assignments:      make(map[string][]*domain.Volunteer),
		reminderLedger:   make(map[string]string),
		escalationLedger: make(map[string]string),
		statuses:         make(map[string]domain.VolunteerStatus),
		assignErrFor:     make(map[string]error),
	}
}

func (s *fakeStore) ListPendingTasks(_ context.Context) ([]*domain.Task, error) {
	if s.listTasksErr != nil {
		return nil, s.listTasksErr
	}
	var out []*domain.Task
	for _, t := range s.tasks {
		if t.Status == domain.TaskPending {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) ListOverdueTasks(_ context.Context, day string) ([]*domain.Task, error) {
	if s.listTasksErr != nil {
		return nil, s.listTasksErr
	}
	var out []*domain.Task
	for _, t := range s.tasks {
		if t.OverdueOn(day) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) ListAssignedVolunteers(_ context.Context, taskID string) ([]*domain.Volunteer, error) {
	if err, ok := s.assignErrFor[taskID]; ok {
		return nil, err
	}
	return s.assignments[taskID], nil
}

func (s *fakeStore) ListVolunteerActivity(_ context.Context) ([]*domain.VolunteerActivity, error) {
	if s.activityErr != nil {
		return nil, s.activityErr
	}
	return s.activity, nil
}

func (s *fakeStore) UpdateVolunteerStatus(_ context.Context, volunteerID string, status domain.VolunteerStatus) error {
	if s.updateStatusErr != nil {
		return s.updateStatusErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[volunteerID] = status
	return nil
}

func (s *fakeStore) ReminderSentOn(_ context.Context, taskID, volunteerID, day string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.reminderLedger[ledgerKey(taskID, volunteerID, day)]
	return ok, nil
}

func (s *fakeStore) AppendReminderEntry(_ context.Context, e *domain.ReminderEntry) error {
	if s.appendReminderErr != nil {
		return s.appendReminderErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminderLedger[ledgerKey(e.TaskID, e.VolunteerID, e.SentOn)] = e.MessageID
	return nil
}

func (s *fakeStore) EscalationSentOn(_ context.Context, taskID, adminAddress, day string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.escalationLedger[ledgerKey(taskID, adminAddress, day)]
	return ok, nil
}

func (s *fakeStore) AppendEscalationEntry(_ context.Context, e *domain.EscalationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.escalationLedger[ledgerKey(e.TaskID, e.AdminAddress, e.SentOn)] = e.MessageID
	return nil
}

func (s *fakeStore) Ping(_ context.Context) error { return nil }

// Ensure fakeStore satisfies the interface at compile time.
var _ postgres.Store = (*fakeStore)(nil)

type sentMessage struct {
	address    string
	templateID string
	params     mailer.Params
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]error // address → error to return
}

func newFakeSender() *fakeSender {
	return &fakeSender{failFor: make(map[string]error)}
}

func (f *fakeSender) Send(_ context.Context, address, templateID string, params mailer.Params) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[address]; ok {
		return "", err
	}
	f.sent = append(f.sent, sentMessage{address: address, templateID: templateID, params: params})
	return fmt.Sprintf("<msg-%d@test>", len(f.sent)), nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestEngine(store *fakeStore, sender *fakeSender, admins []string, now time.Time) *Engine {
	return New(store, sender, admins,
		WithLogger(slog.Default()),
		WithClock(fixedClock(now)),
		WithConcurrency(2),
		WithSendTimeout(time.Second),
	)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
