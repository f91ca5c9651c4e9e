package mailer

import (
	"fmt"

	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/domain"
)

// renderTemplate produces the subject and plain-text body for a template ID.
func renderTemplate(templateID string, p Params) (subject, body string, err error) {
	switch templateID {
	case TemplateTaskReminder:
		due := p["due_date"]
		if due == "" {
			due = "no due date"
		}
		subject = fmt.Sprintf("Reminder: %s", p["task_title"])
		body = fmt.Sprintf(
			"Hi %s,\n\nThis is a reminder that the task %q is still open (%s).\n\nTask ID: %s\nVolunteer ID: %s\n",
			p["volunteer_name"], p["task_title"], due, p["task_id"], p["volunteer_id"],
		)
		return subject, body, nil

	case TemplateTaskEscalation:
		subject = fmt.Sprintf("Overdue: %s", p["task_title"])
		body = fmt.Sprintf(
			"The task %q was due on %s and is not completed.\n\nAssigned volunteers: %s\nTask ID: %s\n",
			p["task_title"], p["due_date"], p["volunteers"], p["task_id"],
		)
		return subject, body, nil

	default:
		return "", "", &domain.UnknownTemplateError{TemplateID: templateID}
	}
}
