package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/domain"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/pkg/telemetry"
)

// ActivityWindow is the trailing window in which a new assignment keeps a
// volunteer Active even with no open tasks. The boundary is inclusive: an
// assignment exactly this old still counts.
const ActivityWindow = 7 * 24 * time.Hour

// EvaluateStatus derives a volunteer's status from their assignment
// activity. Outstanding incomplete work always wins over the recency check,
// so a volunteer holding an old overdue task stays Active outside the
// window. The derivation is pure and idempotent.
func EvaluateStatus(a *domain.VolunteerActivity, now time.Time) domain.VolunteerStatus {
	if a.OpenTasks > 0 {
		return domain.VolunteerActive
	}
	if a.LastAssignedAt != nil && now.Sub(*a.LastAssignedAt) <= ActivityWindow {
		return domain.VolunteerActive
	}
	return domain.VolunteerInactive
}

// RunStatusEvaluation re-derives every volunteer's status. The stored value
// is fully superseded: manual edits do not survive a run. Only actual value
// changes are written and counted.
func (e *Engine) RunStatusEvaluation(ctx context.Context) domain.RunSummary {
	ctx, span := otel.Tracer("engine").Start(ctx, "engine.run_status_evaluation")
	defer span.End()

	now := e.now()
	agg := newAggregator(JobStatusEvaluation, now)

	activity, err := e.store.ListVolunteerActivity(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "activity discovery failed")
		agg.abort(fmt.Sprintf("list volunteer activity: %v", err))
		summary := agg.finish(e.now())
		e.emit(ctx, summary)
		return summary
	}

	for _, a := range activity {
		if ctx.Err() != nil {
			agg.abort(fmt.Sprintf("run cancelled: %v", ctx.Err()))
			break
		}

		next := EvaluateStatus(a, now)
		if next == a.Volunteer.Status {
			continue
		}

		if err := e.store.UpdateVolunteerStatus(ctx, a.Volunteer.ID, next); err != nil {
			e.logger.Error("status write failed",
				slog.String("volunteer_id", a.Volunteer.ID),
				slog.String("to", string(next)),
				slog.String("error", err.Error()),
			)
			agg.statusFailed()
			continue
		}

		agg.statusChanged()
		telemetry.StatusChangesTotal.WithLabelValues(string(next)).Inc()
		e.logger.Info("volunteer status changed",
			slog.String("volunteer_id", a.Volunteer.ID),
			slog.String("from", string(a.Volunteer.Status)),
			slog.String("to", string(next)),
		)
	}

	summary := agg.finish(e.now())
	e.emit(ctx, summary)
	return summary
}
