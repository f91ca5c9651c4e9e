// Package engine implements the reminder and escalation core: the reminder
// processor, the volunteer status evaluator, the overdue escalation pipeline
// and the cron scheduler that drives them. Each job run produces one
// immutable RunSummary.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/domain"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/kafka"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/mailer"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/postgres"
	redisstore "github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/redis"
)

// Job names. These key the scheduler registry, the REST surface and the
// run summaries.
const (
	JobReminder         = "reminder"
	JobStatusEvaluation = "status"
	JobEscalation       = "escalation"
)

// Engine holds the collaborators shared by all three jobs.
type Engine struct {
	store   postgres.Store
	sender  mailer.Sender
	limiter redisstore.RateLimiter // nil = unlimited
	audit   kafka.Producer         // nil = no audit stream
	admins  []string

	concurrency int
	sendTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *slog.Logger) Option            { return func(e *Engine) { e.logger = l } }
func WithLimiter(r redisstore.RateLimiter) Option { return func(e *Engine) { e.limiter = r } }
func WithAudit(p kafka.Producer) Option           { return func(e *Engine) { e.audit = p } }
func WithConcurrency(n int) Option                { return func(e *Engine) { e.concurrency = n } }
func WithSendTimeout(d time.Duration) Option      { return func(e *Engine) { e.sendTimeout = d } }

// WithClock overrides the evaluation clock. Tests pin it to fixed days.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// New constructs an Engine. admins is the fixed administrator address list
// escalations go to; it comes from configuration, never from task data.
func New(store postgres.Store, sender mailer.Sender, admins []string, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		sender:      sender,
		admins:      admins,
		concurrency: 4,
		sendTimeout: 15 * time.Second,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// emit logs the summary and, when an audit producer is configured, publishes
// it to the runs topic. Emission failures never affect the run result.
func (e *Engine) emit(ctx context.Context, s domain.RunSummary) {
	e.logger.Info("run finished",
		slog.String("job", s.Job),
		slog.Bool("success", s.Success),
		slog.Int("tasks_processed", s.TasksProcessed),
		slog.Int("reminders_sent", s.RemindersSent),
		slog.Int("reminders_skipped", s.RemindersSkipped),
		slog.Int("reminders_failed", s.RemindersFailed),
		slog.Int("escalations_sent", s.EscalationsSent),
		slog.Int("escalations_failed", s.EscalationsFailed),
		slog.Int("status_changed", s.StatusChanged),
		slog.Int64("duration_ms", s.Duration().Milliseconds()),
	)
	if s.Message != "" {
		e.logger.Error("run aborted", slog.String("job", s.Job), slog.String("message", s.Message))
	}

	if e.audit == nil {
		return
	}
	payload, err := json.Marshal(s)
	if err != nil {
		e.logger.Error("marshal run summary", slog.String("error", err.Error()))
		return
	}
	if err := e.audit.Publish(ctx, kafka.RunsTopic, s.Job, payload); err != nil {
		e.logger.Error("publish run summary", slog.String("job", s.Job), slog.String("error", err.Error()))
	}
}
