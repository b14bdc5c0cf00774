package entity

import (
	"time"
)

type WorkflowStep string

const (
	StepAwaitingTerms WorkflowStep = "awaiting_terms"
	StepAwaitingName  WorkflowStep = "awaiting_name"
	StepAwaitingEmail WorkflowStep = "awaiting_email"
	StepAwaitingPhone WorkflowStep = "awaiting_phone"
	StepAwaitingOTP   WorkflowStep = "awaiting_otp"
	StepVerified      WorkflowStep = "verified"
	StepActive        WorkflowStep = "active"
	StepSuspended     WorkflowStep = "suspended"
)

// Completion markers appended to CompletedSteps.
const (
	MarkTerms = "terms_accepted"
	MarkName  = "name_collected"
	MarkEmail = "email_collected"
	MarkPhone = "phone_collected"
	MarkOTP   = "otp_verified"
)

// Keys of UserState.Data.
const (
	KeyFirstName     = "first_name"
	KeyLastName      = "last_name"
	KeyEmail         = "email"
	KeyPhone         = "phone"
	KeyCountryCode   = "country_code"
	KeyRegion        = "region"
	KeyReturningUser = "is_returning_user"
	KeyExistingUUID  = "existing_uuid"
	KeyExistingPhone = "existing_phone"
	KeyUserUUID      = "user_uuid"
)

type Transition struct {
	From WorkflowStep `json:"from" bson:"from"`
	To   WorkflowStep `json:"to" bson:"to"`
	At   time.Time    `json:"at" bson:"at"`
}

type UserState struct {
	UserID            string         `json:"user_id" bson:"user_id"`
	CurrentStep       WorkflowStep   `json:"current_step" bson:"current_step"`
	CompletedSteps    []string       `json:"completed_steps" bson:"completed_steps"`
	Data              map[string]any `json:"data" bson:"data"`
	TermsAgreedAt     *time.Time     `json:"terms_agreed_at,omitempty" bson:"terms_agreed_at,omitempty"`
	OtpHash           string         `json:"-" bson:"otp_hash,omitempty"`
	OtpExpiresAt      *time.Time     `json:"otp_expires_at,omitempty" bson:"otp_expires_at,omitempty"`
	FailedOtpAttempts int            `json:"failed_otp_attempts" bson:"failed_otp_attempts"`
	MaxOtpAttempts    int            `json:"max_otp_attempts" bson:"max_otp_attempts"`
	OtpIssued         int            `json:"otp_issued" bson:"otp_issued"`
	OtpWindowStart    *time.Time     `json:"otp_window_start,omitempty" bson:"otp_window_start,omitempty"`
	Transitions       []Transition   `json:"transitions,omitempty" bson:"transitions,omitempty"`
	Version           int64          `json:"version" bson:"version"`
	CreatedAt         time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" bson:"updated_at"`
}

func NewUserState(userID string, now time.Time) *UserState {
	return &UserState{
		UserID:         userID,
		CurrentStep:    StepAwaitingTerms,
		CompletedSteps: []string{},
		Data:           make(map[string]any),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy suitable for speculative mutation.
func (s *UserState) Clone() *UserState {
	c := *s
	c.CompletedSteps = append([]string(nil), s.CompletedSteps...)
	c.Transitions = append([]Transition(nil), s.Transitions...)
	c.Data = make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		c.Data[k] = v
	}
	if s.TermsAgreedAt != nil {
		t := *s.TermsAgreedAt
		c.TermsAgreedAt = &t
	}
	if s.OtpExpiresAt != nil {
		t := *s.OtpExpiresAt
		c.OtpExpiresAt = &t
	}
	if s.OtpWindowStart != nil {
		t := *s.OtpWindowStart
		c.OtpWindowStart = &t
	}
	return &c
}

func (s *UserState) GetString(key string) string {
	if v, ok := s.Data[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

func (s *UserState) GetBool(key string) bool {
	if v, ok := s.Data[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// MergeData adds keys to Data. Existing keys are overwritten, never removed.
func (s *UserState) MergeData(data map[string]any) {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	for k, v := range data {
		s.Data[k] = v
	}
}

func (s *UserState) HasCompleted(marker string) bool {
	for _, m := range s.CompletedSteps {
		if m == marker {
			return true
		}
	}
	return false
}

// ClearOtp drops the OTP lifecycle fields once the code is no longer needed.
func (s *UserState) ClearOtp() {
	s.OtpHash = ""
	s.OtpExpiresAt = nil
	s.FailedOtpAttempts = 0
}

func (s *UserState) IsActive() bool {
	return s.CurrentStep == StepActive
}
