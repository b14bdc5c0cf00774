package entity

// Reply describes what happened while processing one message.
// Each step emits only its own variant, so renderers see the fields relevant to that step.
type Reply interface {
	Kind() string
}

type TermsPending struct{}

type TermsAccepted struct{}

type NameIncomplete struct {
	FirstName string
}

type NameInvalid struct {
	Reason string
}

type NameCollected struct {
	FirstName string
	LastName  string
}

type EmailInvalid struct {
	Reason string
}

type EmailCollected struct {
	FirstName string
	Returning bool
	PhoneHint string
}

type PhoneInvalid struct {
	Reason   string
	Category string
}

type OtpSent struct {
	EmailHint    string
	ValidMinutes int
	Resent       bool
}

type OtpSendFailed struct{}

// OtpResendLimit carries the whole minutes until a new code may be requested.
type OtpResendLimit struct {
	RetryMinutes int
}

type OtpInvalid struct {
	Reason            string
	Status            OtpStatus
	AttemptsRemaining int
}

type Verified struct {
	FirstName string
	Returning bool
}

type AssistantAnswer struct {
	Text string
}

type Suspended struct{}

type ServiceUnavailable struct{}

func (TermsPending) Kind() string       { return "terms_pending" }
func (TermsAccepted) Kind() string      { return "terms_accepted" }
func (NameIncomplete) Kind() string     { return "name_incomplete" }
func (NameInvalid) Kind() string        { return "name_invalid" }
func (NameCollected) Kind() string      { return "name_collected" }
func (EmailInvalid) Kind() string       { return "email_invalid" }
func (EmailCollected) Kind() string     { return "email_collected" }
func (PhoneInvalid) Kind() string       { return "phone_invalid" }
func (OtpSent) Kind() string            { return "otp_sent" }
func (OtpSendFailed) Kind() string      { return "otp_send_failed" }
func (OtpResendLimit) Kind() string     { return "otp_resend_limit" }
func (OtpInvalid) Kind() string         { return "otp_invalid" }
func (Verified) Kind() string           { return "verified" }
func (AssistantAnswer) Kind() string    { return "assistant_answer" }
func (Suspended) Kind() string          { return "suspended" }
func (ServiceUnavailable) Kind() string { return "service_unavailable" }
