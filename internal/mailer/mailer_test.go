package mailer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/domain"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/mailer"
)

func TestSMTPSender_Send_InvalidAddress(t *testing.T) {
	s := mailer.NewSMTPSender(mailer.SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@test.dev"})

	_, err := s.Send(context.Background(), "not-an-address", mailer.TemplateTaskReminder, mailer.Params{})
	require.Error(t, err)

	var invalid *domain.InvalidAddressError
	assert.True(t, errors.As(err, &invalid), "expected InvalidAddressError, got: %v", err)
}

func TestSMTPSender_Send_UnknownTemplate(t *testing.T) {
	s := mailer.NewSMTPSender(mailer.SMTPConfig{Host: "localhost", Port: 1025})

	_, err := s.Send(context.Background(), "v@test.dev", "no-such-template", mailer.Params{})
	require.Error(t, err)

	var unknown *domain.UnknownTemplateError
	assert.True(t, errors.As(err, &unknown), "expected UnknownTemplateError, got: %v", err)
}

func TestSMTPSender_Send_CancelledContext(t *testing.T) {
	s := mailer.NewSMTPSender(mailer.SMTPConfig{Host: "localhost", Port: 1025})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel before calling Send

	_, err := s.Send(ctx, "v@test.dev", mailer.TemplateTaskReminder, mailer.Params{
		"volunteer_name": "Dana", "task_title": "Inventory",
	})
	require.Error(t, err, "cancelled context should result in an error")

	var unavailable *domain.ProviderUnavailableError
	assert.True(t, errors.As(err, &unavailable), "timeout maps to ProviderUnavailableError, got: %v", err)
}
