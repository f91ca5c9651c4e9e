package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/domain"
)

// SMTPConfig holds SMTP connection details.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// SMTPSender delivers messages over SMTP.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates an SMTPSender from config.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send renders the template, delivers the message and returns its
// Message-ID. The blocking SMTP call runs in a goroutine so the context
// deadline is respected.
func (s *SMTPSender) Send(ctx context.Context, address, templateID string, params Params) (string, error) {
	ctx, span := otel.Tracer("mailer").Start(ctx, "mailer.send")
	defer span.End()
	span.SetAttributes(attribute.String("mail.template", templateID))

	if !strings.Contains(address, "@") {
		err := &domain.InvalidAddressError{Address: address}
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid address")
		return "", err
	}

	subject, body, err := renderTemplate(templateID, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown template")
		return "", err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	msg := buildMIME(s.cfg.From, address, subject, messageID, body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	type result struct{ err error }
	done := make(chan result, 1)
	go func() {
		done <- result{err: smtp.SendMail(addr, auth, s.cfg.From, []string{address}, msg)}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			typed := classifySMTPError(address, res.err)
			span.RecordError(typed)
			span.SetStatus(codes.Error, "smtp send failed")
			return "", typed
		}
		return messageID, nil
	case <-ctx.Done():
		err := &domain.ProviderUnavailableError{Err: fmt.Errorf("send timed out: %w", ctx.Err())}
		span.RecordError(err)
		span.SetStatus(codes.Error, "timeout")
		return "", err
	}
}

// classifySMTPError maps SMTP reply codes onto the dispatcher's typed
// failures: 53x auth rejections, 55x/501 bad recipient, everything else a
// provider problem.
func classifySMTPError(address string, err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return &domain.ProviderAuthError{Err: err}
		case 501, 550, 553:
			return &domain.InvalidAddressError{Address: address}
		}
	}
	return &domain.ProviderUnavailableError{Err: err}
}

func buildMIME(from, to, subject, messageID, body string) []byte {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMessage-ID: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, to, subject, messageID, body,
	)
	return []byte(msg)
}
