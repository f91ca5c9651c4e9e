// Package mailer is the transactional message capability: it turns a
// (address, template, parameters) triple into one delivered message and a
// message identifier. Failures are typed so callers can tell a bad address
// from a provider outage.
package mailer

import "context"

// Params carries the named substitution values for a template.
type Params map[string]string

// Template IDs known to the dispatcher.
const (
	TemplateTaskReminder   = "task-reminder"
	TemplateTaskEscalation = "task-escalation"
)

// Sender sends one transactional message and returns its message ID.
//
// Errors are typed: *domain.InvalidAddressError, *domain.ProviderAuthError,
// *domain.ProviderUnavailableError or *domain.UnknownTemplateError. A
// context deadline surfaces as ProviderUnavailableError wrapping ctx.Err().
type Sender interface {
	Send(ctx context.Context, address, templateID string, params Params) (string, error)
}
