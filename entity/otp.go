package entity

import "time"

type OtpStatus string

const (
	OtpIssued    OtpStatus = "issued"
	OtpVerified  OtpStatus = "verified"
	OtpExpired   OtpStatus = "expired"
	OtpExhausted OtpStatus = "exhausted"
	OtpMismatch  OtpStatus = "mismatch"
	OtpMalformed OtpStatus = "malformed"
)

// OtpData is the persisted half of a passcode. The plaintext code never lives here.
type OtpData struct {
	Hash        string    `json:"-" bson:"otp_hash"`
	ExpiresAt   time.Time `json:"expires_at" bson:"expires_at"`
	Attempts    int       `json:"attempts" bson:"attempts"`
	MaxAttempts int       `json:"max_attempts" bson:"max_attempts"`
}

func (o *OtpData) Remaining() int {
	left := o.MaxAttempts - o.Attempts
	if left < 0 {
		return 0
	}
	return left
}

// OtpData extracts the lifecycle fields from state.
func (s *UserState) OtpData() *OtpData {
	if s.OtpHash == "" || s.OtpExpiresAt == nil {
		return nil
	}
	return &OtpData{
		Hash:        s.OtpHash,
		ExpiresAt:   *s.OtpExpiresAt,
		Attempts:    s.FailedOtpAttempts,
		MaxAttempts: s.MaxOtpAttempts,
	}
}

// ApplyOtp writes the lifecycle fields back into state.
func (s *UserState) ApplyOtp(o *OtpData) {
	if o == nil {
		s.ClearOtp()
		return
	}
	expires := o.ExpiresAt
	s.OtpHash = o.Hash
	s.OtpExpiresAt = &expires
	s.FailedOtpAttempts = o.Attempts
	s.MaxOtpAttempts = o.MaxAttempts
}
