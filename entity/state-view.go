package entity

import (
	"time"

	"VerifyFlow/internal/lib/mask"
)

// StateView is the state as shown to API clients. Contact data is masked and the OTP hash is never included.
type StateView struct {
	UserID            string       `json:"user_id"`
	CurrentStep       WorkflowStep `json:"current_step"`
	CompletedSteps    []string     `json:"completed_steps"`
	FirstName         string       `json:"first_name,omitempty"`
	LastName          string       `json:"last_name,omitempty"`
	Email             string       `json:"email,omitempty"`
	Phone             string       `json:"phone,omitempty"`
	CountryCode       string       `json:"country_code,omitempty"`
	ReturningUser     bool         `json:"is_returning_user"`
	OtpPending        bool         `json:"otp_pending"`
	OtpExpiresAt      *time.Time   `json:"otp_expires_at,omitempty"`
	FailedOtpAttempts int          `json:"failed_otp_attempts"`
	OtpIssued         int          `json:"otp_issued"`
	TermsAgreedAt     *time.Time   `json:"terms_agreed_at,omitempty"`
	Transitions       []Transition `json:"transitions,omitempty"`
	Version           int64        `json:"version"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func NewStateView(s *UserState) *StateView {
	v := &StateView{
		UserID:            s.UserID,
		CurrentStep:       s.CurrentStep,
		CompletedSteps:    s.CompletedSteps,
		FirstName:         s.GetString(KeyFirstName),
		LastName:          s.GetString(KeyLastName),
		CountryCode:       s.GetString(KeyCountryCode),
		ReturningUser:     s.GetBool(KeyReturningUser),
		OtpPending:        s.OtpHash != "",
		OtpExpiresAt:      s.OtpExpiresAt,
		FailedOtpAttempts: s.FailedOtpAttempts,
		OtpIssued:         s.OtpIssued,
		TermsAgreedAt:     s.TermsAgreedAt,
		Transitions:       s.Transitions,
		Version:           s.Version,
		UpdatedAt:         s.UpdatedAt,
	}
	if email := s.GetString(KeyEmail); email != "" {
		v.Email = mask.Email(email)
	}
	if phone := s.GetString(KeyPhone); phone != "" {
		v.Phone = mask.Phone(phone)
	}
	return v
}
