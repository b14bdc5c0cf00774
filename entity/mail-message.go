package entity

import (
	"VerifyFlow/internal/lib/validate"
)

// MailMessage is an outbound html email.
type MailMessage struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Html    string `json:"html" validate:"required"`
}

func (m *MailMessage) Validate() error {
	return validate.Struct(m)
}
