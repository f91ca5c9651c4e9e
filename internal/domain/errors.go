package domain

import "fmt"

// InvalidAddressError is returned when a send is attempted to an address the
// provider cannot deliver to.
type InvalidAddressError struct {
	Address string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid recipient address: %q", e.Address)
}

// ProviderAuthError is returned when the message provider rejects our
// credentials.
type ProviderAuthError struct {
	Err error
}

func (e *ProviderAuthError) Error() string {
	return fmt.Sprintf("message provider rejected credentials: %v", e.Err)
}

func (e *ProviderAuthError) Unwrap() error { return e.Err }

// ProviderUnavailableError is returned when the message provider cannot be
// reached or fails transiently. Pairs that hit this are retried on the next
// scheduled run, never within the same run.
type ProviderUnavailableError struct {
	Err error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("message provider unavailable: %v", e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

// UnknownTemplateError is returned when a send references a template ID the
// dispatcher does not know.
type UnknownTemplateError struct {
	TemplateID string
}

func (e *UnknownTemplateError) Error() string {
	return fmt.Sprintf("unknown message template %q", e.TemplateID)
}

// JobNotFoundError is returned when a trigger, status or reschedule request
// names a job that was never registered.
type JobNotFoundError struct {
	Job string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job not found: %s", e.Job)
}

// JobAlreadyRunningError is returned when a manual trigger collides with an
// in-flight run of the same job.
type JobAlreadyRunningError struct {
	Job string
}

func (e *JobAlreadyRunningError) Error() string {
	return fmt.Sprintf("job %s is already running", e.Job)
}
