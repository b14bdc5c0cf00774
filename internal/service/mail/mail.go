package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/sl"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg entity.MailMessage) error
}

// Service renders verification mail and hands it to a Sender.
type Service struct {
	sender Sender
	log    *slog.Logger
}

func NewService(sender Sender, log *slog.Logger) *Service {
	return &Service{
		sender: sender,
		log:    log.With(sl.Module("mail")),
	}
}

// SendOtp delivers a passcode. The code is not logged.
func (s *Service) SendOtp(ctx context.Context, to, firstName, code string, ttl time.Duration) error {
	subject, body, err := RenderOtp(firstName, code, int(ttl.Minutes()))
	if err != nil {
		return err
	}
	msg := entity.MailMessage{To: to, Subject: subject, Html: body}
	if err = msg.Validate(); err != nil {
		return fmt.Errorf("otp mail: %w", err)
	}
	if err = s.sender.Send(ctx, msg); err != nil {
		s.log.Error("otp mail not sent", sl.Email(to), sl.Err(err))
		return fmt.Errorf("send otp mail: %w", err)
	}
	s.log.Info("otp mail sent", sl.Email(to))
	return nil
}

func (s *Service) SendWelcome(ctx context.Context, to, firstName string) error {
	subject, body, err := RenderWelcome(firstName)
	if err != nil {
		return err
	}
	if err = s.sender.Send(ctx, entity.MailMessage{To: to, Subject: subject, Html: body}); err != nil {
		s.log.Warn("welcome mail not sent", sl.Email(to), sl.Err(err))
		return err
	}
	return nil
}

// LogSender writes the envelope to the log instead of delivering. Bodies are never logged.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log.With(sl.Module("mail.log-sender"))}
}

func (s *LogSender) Send(_ context.Context, msg entity.MailMessage) error {
	s.log.Warn("mail delivery disabled",
		sl.Email(msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("size", len(msg.Html)),
	)
	return nil
}
