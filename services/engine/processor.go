package engine

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/domain"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/mailer"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/pkg/telemetry"
)

// RunReminders executes one reminder run: discover pending tasks, resolve
// assigned volunteers, and for each pair check the dedup ledger, dispatch,
// and append a ledger entry. Failures are isolated at task and volunteer
// granularity; only a discovery failure aborts the run.
func (e *Engine) RunReminders(ctx context.Context) domain.RunSummary {
	ctx, span := otel.Tracer("engine").Start(ctx, "engine.run_reminders")
	defer span.End()

	now := e.now()
	day := domain.DayOf(now)
	agg := newAggregator(JobReminder, now)
	span.SetAttributes(attribute.String("run.day", day))

	tasks, err := e.store.ListPendingTasks(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "task discovery failed")
		agg.abort(fmt.Sprintf("discover pending tasks: %v", err))
		summary := agg.finish(e.now())
		e.emit(ctx, summary)
		return summary
	}

	for _, task := range tasks {
		if ctx.Err() != nil {
			// Host cancellation. Ledger entries already written make a
			// restarted run skip the notified pairs, so stopping here is safe.
			agg.abort(fmt.Sprintf("run cancelled: %v", ctx.Err()))
			break
		}
		// Discovery only returns pending tasks; this guards the invariant
		// that completed tasks never produce ledger entries.
		if task.Status.IsCompleted() {
			continue
		}

		volunteers, err := e.store.ListAssignedVolunteers(ctx, task.ID)
		if err != nil {
			e.logger.Error("resolve assignments",
				slog.String("task_id", task.ID),
				slog.String("error", err.Error()),
			)
			agg.taskFailed(task, fmt.Sprintf("resolve assignments: %v", err))
			continue
		}

		agg.taskProcessed()
		if len(volunteers) == 0 {
			continue // zero-effect, not an error
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.concurrency)
		for _, v := range volunteers {
			v := v
			g.Go(func() error {
				e.remind(gctx, agg, task, v, day)
				return nil // per-volunteer failures are recorded, never propagated
			})
		}
		_ = g.Wait()
	}

	summary := agg.finish(e.now())
	e.emit(ctx, summary)
	return summary
}

// remind handles one (task, volunteer) pair.
func (e *Engine) remind(ctx context.Context, agg *aggregator, task *domain.Task, v *domain.Volunteer, day string) {
	log := e.logger.With(
		slog.String("task_id", task.ID),
		slog.String("volunteer_id", v.ID),
	)

	sent, err := e.store.ReminderSentOn(ctx, task.ID, v.ID, day)
	if err != nil {
		log.Error("reminder ledger read", slog.String("error", err.Error()))
		agg.reminderFailed(task, v.ID, fmt.Sprintf("ledger read: %v", err))
		telemetry.RemindersFailedTotal.Inc()
		return
	}
	if sent {
		log.Debug("skip reminder", slog.String("reason", domain.SkipAlreadySent))
		agg.reminderSkipped()
		telemetry.RemindersSkippedTotal.WithLabelValues(domain.SkipAlreadySent).Inc()
		return
	}
	if v.Email == "" {
		log.Debug("skip reminder", slog.String("reason", domain.SkipNoAddress))
		agg.reminderSkipped()
		telemetry.RemindersSkippedTotal.WithLabelValues(domain.SkipNoAddress).Inc()
		return
	}

	if e.limiter != nil {
		allowed, err := e.limiter.Allow(ctx, "dispatch")
		if err != nil {
			// Allow on limiter failure so a Redis hiccup doesn't stall reminders.
			log.Error("rate limiter error", slog.String("error", err.Error()))
		} else if !allowed {
			agg.reminderFailed(task, v.ID, "send rate limit exceeded")
			telemetry.RemindersFailedTotal.Inc()
			return
		}
	}

	params := mailer.Params{
		"volunteer_name": v.Name,
		"volunteer_id":   v.ID,
		"task_title":     task.Title,
		"task_id":        task.ID,
	}
	if task.DueDate != nil {
		params["due_date"] = domain.DayOf(*task.DueDate)
	}

	sendCtx, cancel := context.WithTimeout(ctx, e.sendTimeout)
	defer cancel()
	messageID, err := e.sender.Send(sendCtx, v.Email, mailer.TemplateTaskReminder, params)
	if err != nil {
		log.Error("reminder dispatch failed", slog.String("error", err.Error()))
		agg.reminderFailed(task, v.ID, err.Error())
		telemetry.RemindersFailedTotal.Inc()
		return
	}

	agg.reminderSent()
	telemetry.RemindersSentTotal.Inc()

	entry := &domain.ReminderEntry{
		TaskID:      task.ID,
		VolunteerID: v.ID,
		SentOn:      day,
		MessageID:   messageID,
	}
	if err := e.store.AppendReminderEntry(ctx, entry); err != nil {
		// The message went out. Losing the ledger row risks one duplicate on
		// the next run, which beats silently dropping the fact of the send.
		log.Error("reminder ledger write failed after send",
			slog.String("message_id", messageID),
			slog.String("error", err.Error()),
		)
	}
}
