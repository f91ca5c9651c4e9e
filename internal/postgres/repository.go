package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/domain"
)

// Store abstracts all database access the engine needs: read-only views of
// tasks, volunteers and assignments, append-only writes to both dedup
// ledgers, and the volunteer status field.
type Store interface {
	ListPendingTasks(ctx context.Context) ([]*domain.Task, error)
	ListOverdueTasks(ctx context.Context, day string) ([]*domain.Task, error)
	ListAssignedVolunteers(ctx context.Context, taskID string) ([]*domain.Volunteer, error)

	ListVolunteerActivity(ctx context.Context) ([]*domain.VolunteerActivity, error)
	UpdateVolunteerStatus(ctx context.Context, volunteerID string, status domain.VolunteerStatus) error

	ReminderSentOn(ctx context.Context, taskID, volunteerID, day string) (bool, error)
	AppendReminderEntry(ctx context.Context, entry *domain.ReminderEntry) error
	EscalationSentOn(ctx context.Context, taskID, adminAddress, day string) (bool, error)
	AppendEscalationEntry(ctx context.Context, entry *domain.EscalationEntry) error

	Ping(ctx context.Context) error
}

type store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a pgxpool with the Store interface.
func NewStore(pool *pgxpool.Pool) Store {
	return &store{pool: pool}
}

// NewPool creates a pgxpool and verifies connectivity.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

func (s *store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *store) ListPendingTasks(ctx context.Context) ([]*domain.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, due_date, status, created_at, updated_at
		FROM tasks
		WHERE status = $1
		ORDER BY created_at
	`, string(domain.TaskPending))
	if err != nil {
		return nil, fmt.Errorf("list pending tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// ListOverdueTasks returns non-completed tasks whose due date falls strictly
// before the given calendar day.
func (s *store) ListOverdueTasks(ctx context.Context, day string) ([]*domain.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, due_date, status, created_at, updated_at
		FROM tasks
		WHERE status <> $1
		  AND due_date IS NOT NULL
		  AND due_date < $2::date
		ORDER BY due_date
	`, string(domain.TaskCompleted), day)
	if err != nil {
		return nil, fmt.Errorf("list overdue tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *store) ListAssignedVolunteers(ctx context.Context, taskID string) ([]*domain.Volunteer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT v.id, v.name, COALESCE(v.email, ''), v.status, v.created_at
		FROM volunteers v
		JOIN assignments a ON a.volunteer_id = v.id
		WHERE a.task_id = $1
		ORDER BY v.name
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list volunteers for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var volunteers []*domain.Volunteer
	for rows.Next() {
		var v domain.Volunteer
		var statusStr string
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &statusStr, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan volunteer: %w", err)
		}
		v.Status = domain.VolunteerStatus(statusStr)
		volunteers = append(volunteers, &v)
	}
	return volunteers, rows.Err()
}

// ListVolunteerActivity returns every volunteer together with the inputs of
// the status evaluation: open (non-completed) assigned task count and the
// most recent assignment timestamp.
func (s *store) ListVolunteerActivity(ctx context.Context) ([]*domain.VolunteerActivity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT v.id, v.name, COALESCE(v.email, ''), v.status, v.created_at,
		       COUNT(t.id) FILTER (WHERE t.status <> $1) AS open_tasks,
		       MAX(a.created_at) AS last_assigned_at
		FROM volunteers v
		LEFT JOIN assignments a ON a.volunteer_id = v.id
		LEFT JOIN tasks t ON t.id = a.task_id
		GROUP BY v.id, v.name, v.email, v.status, v.created_at
		ORDER BY v.name
	`, string(domain.TaskCompleted))
	if err != nil {
		return nil, fmt.Errorf("list volunteer activity: %w", err)
	}
	defer rows.Close()

	var activity []*domain.VolunteerActivity
	for rows.Next() {
		var a domain.VolunteerActivity
		var statusStr string
		if err := rows.Scan(
			&a.Volunteer.ID, &a.Volunteer.Name, &a.Volunteer.Email,
			&statusStr, &a.Volunteer.CreatedAt,
			&a.OpenTasks, &a.LastAssignedAt,
		); err != nil {
			return nil, fmt.Errorf("scan volunteer activity: %w", err)
		}
		a.Volunteer.Status = domain.VolunteerStatus(statusStr)
		activity = append(activity, &a)
	}
	return activity, rows.Err()
}

func (s *store) UpdateVolunteerStatus(ctx context.Context, volunteerID string, status domain.VolunteerStatus) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE volunteers SET status = $1 WHERE id = $2
	`, string(status), volunteerID)
	if err != nil {
		return fmt.Errorf("update status for volunteer %s: %w", volunteerID, err)
	}
	return nil
}

func (s *store) ReminderSentOn(ctx context.Context, taskID, volunteerID, day string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reminder_ledger
			WHERE task_id = $1 AND volunteer_id = $2 AND sent_on = $3::date
		)
	`, taskID, volunteerID, day).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("reminder ledger lookup for (%s,%s,%s): %w", taskID, volunteerID, day, err)
	}
	return exists, nil
}

// AppendReminderEntry inserts one ledger row. ON CONFLICT DO NOTHING makes
// the unique (task, volunteer, day) constraint the concurrency guard: a
// racing duplicate insert is silently absorbed rather than failed.
func (s *store) AppendReminderEntry(ctx context.Context, entry *domain.ReminderEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reminder_ledger (id, task_id, volunteer_id, sent_on, message_id, created_at)
		VALUES ($1, $2, $3, $4::date, $5, $6)
		ON CONFLICT (task_id, volunteer_id, sent_on) DO NOTHING
	`, entry.ID, entry.TaskID, entry.VolunteerID, entry.SentOn, entry.MessageID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append reminder entry (%s,%s,%s): %w", entry.TaskID, entry.VolunteerID, entry.SentOn, err)
	}
	return nil
}

func (s *store) EscalationSentOn(ctx context.Context, taskID, adminAddress, day string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM escalation_ledger
			WHERE task_id = $1 AND admin_address = $2 AND sent_on = $3::date
		)
	`, taskID, adminAddress, day).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("escalation ledger lookup for (%s,%s,%s): %w", taskID, adminAddress, day, err)
	}
	return exists, nil
}

func (s *store) AppendEscalationEntry(ctx context.Context, entry *domain.EscalationEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO escalation_ledger (id, task_id, admin_address, sent_on, message_id, created_at)
		VALUES ($1, $2, $3, $4::date, $5, $6)
		ON CONFLICT (task_id, admin_address, sent_on) DO NOTHING
	`, entry.ID, entry.TaskID, entry.AdminAddress, entry.SentOn, entry.MessageID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append escalation entry (%s,%s,%s): %w", entry.TaskID, entry.AdminAddress, entry.SentOn, err)
	}
	return nil
}

// collectTasks reads task rows from a query result.
func collectTasks(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		var t domain.Task
		var statusStr string
		if err := rows.Scan(&t.ID, &t.Title, &t.DueDate, &statusStr, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Status = domain.TaskStatus(statusStr)
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}
