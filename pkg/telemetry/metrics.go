package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ─── Jobs ────────────────────────────────────────────────────────────────────

	JobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remind",
		Subsystem: "jobs",
		Name:      "runs_total",
		Help:      "Total job runs, labelled by job name and result.",
	}, []string{"job", "result"})

	JobDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "remind",
		Subsystem: "jobs",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of one job run.",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"job"})

	JobOverlapSkipsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remind",
		Subsystem: "jobs",
		Name:      "overlap_skips_total",
		Help:      "Scheduled fires skipped because the previous run was still active.",
	}, []string{"job"})

	// ─── Reminders ───────────────────────────────────────────────────────────────

	RemindersSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "remind",
		Subsystem: "reminders",
		Name:      "sent_total",
		Help:      "Reminder notifications successfully dispatched.",
	})

	RemindersSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remind",
		Subsystem: "reminders",
		Name:      "skipped_total",
		Help:      "Reminder dispatches skipped, labelled by reason.",
	}, []string{"reason"})

	RemindersFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "remind",
		Subsystem: "reminders",
		Name:      "failed_total",
		Help:      "Reminder dispatches that failed (retried next scheduled run).",
	})

	// ─── Escalations ─────────────────────────────────────────────────────────────

	EscalationsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "remind",
		Subsystem: "escalations",
		Name:      "sent_total",
		Help:      "Escalation alerts successfully dispatched to administrators.",
	})

	EscalationsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "remind",
		Subsystem: "escalations",
		Name:      "failed_total",
		Help:      "Escalation dispatches that failed.",
	})

	// ─── Status evaluator ────────────────────────────────────────────────────────

	StatusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remind",
		Subsystem: "status",
		Name:      "changes_total",
		Help:      "Volunteer status transitions written, labelled by new value.",
	}, []string{"to"})
)
