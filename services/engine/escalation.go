package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/domain"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/mailer"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/pkg/telemetry"
)

// RunEscalations notifies administrators about overdue, incomplete tasks:
// one alert per (task, admin, day), deduplicated through the escalation
// ledger. A failure for one (task, admin) pair never blocks the others.
func (e *Engine) RunEscalations(ctx context.Context) domain.RunSummary {
	ctx, span := otel.Tracer("engine").Start(ctx, "engine.run_escalations")
	defer span.End()

	now := e.now()
	day := domain.DayOf(now)
	agg := newAggregator(JobEscalation, now)
	span.SetAttributes(attribute.String("run.day", day))

	tasks, err := e.store.ListOverdueTasks(ctx, day)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "overdue discovery failed")
		agg.abort(fmt.Sprintf("discover overdue tasks: %v", err))
		summary := agg.finish(e.now())
		e.emit(ctx, summary)
		return summary
	}

	for _, task := range tasks {
		if ctx.Err() != nil {
			agg.abort(fmt.Sprintf("run cancelled: %v", ctx.Err()))
			break
		}
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
		e.escalate(ctx, agg, task, volunteerNames(volunteers), day)
	}

	summary := agg.finish(e.now())
	e.emit(ctx, summary)
	return summary
}

// escalate sends one alert about task to every configured admin address.
func (e *Engine) escalate(ctx context.Context, agg *aggregator, task *domain.Task, names string, day string) {
	params := mailer.Params{
		"task_title": task.Title,
		"task_id":    task.ID,
		"volunteers": names,
	}
	if task.DueDate != nil {
		params["due_date"] = domain.DayOf(*task.DueDate)
	}

	for _, admin := range e.admins {
		log := e.logger.With(
			slog.String("task_id", task.ID),
			slog.String("admin", admin),
		)

		sent, err := e.store.EscalationSentOn(ctx, task.ID, admin, day)
		if err != nil {
			log.Error("escalation ledger read", slog.String("error", err.Error()))
			agg.escalationFailed(task, admin, fmt.Sprintf("ledger read: %v", err))
			telemetry.EscalationsFailedTotal.Inc()
			continue
		}
		if sent {
			log.Debug("skip escalation", slog.String("reason", domain.SkipAlreadySent))
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, e.sendTimeout)
		messageID, err := e.sender.Send(sendCtx, admin, mailer.TemplateTaskEscalation, params)
		cancel()
		if err != nil {
			log.Error("escalation dispatch failed", slog.String("error", err.Error()))
			agg.escalationFailed(task, admin, err.Error())
			telemetry.EscalationsFailedTotal.Inc()
			continue
		}

		agg.escalationSent()
		telemetry.EscalationsSentTotal.Inc()

		entry := &domain.EscalationEntry{
			TaskID:       task.ID,
			AdminAddress: admin,
			SentOn:       day,
			MessageID:    messageID,
		}
		if err := e.store.AppendEscalationEntry(ctx, entry); err != nil {
			// Same trade-off as reminders: accept a possible duplicate
			// tomorrow over losing the record of a sent alert.
			log.Error("escalation ledger write failed after send",
				slog.String("message_id", messageID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// volunteerNames renders the deduplicated, sorted name list for the alert
// body, or "Unassigned" when the task has nobody.
func volunteerNames(volunteers []*domain.Volunteer) string {
	if len(volunteers) == 0 {
		return "Unassigned"
	}
	seen := make(map[string]struct{}, len(volunteers))
	names := make([]string, 0, len(volunteers))
	for _, v := range volunteers {
		if _, ok := seen[v.Name]; ok {
			continue
		}
		seen[v.Name] = struct{}{}
		names = append(names, v.Name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
