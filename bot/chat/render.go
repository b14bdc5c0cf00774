package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/sl"
)

const systemPrompt = `You are a friendly assistant guiding a user through identity verification.
Write one short reply of at most three sentences. Never invent codes, numbers or links.
Never ask for passwords or payment details.`

// unsafeTerms make a generated reply fall back to the fixed text.
var unsafeTerms = []string{"password", "api key", "api_key", "secret", "ssn", "social security", "credit card", "cvv"}

// Renderer turns a reply into user-facing text. Failures use fixed text; milestones are phrased by the completer.
type Renderer struct {
	completer Completer
	log       *slog.Logger
}

func NewRenderer(completer Completer, log *slog.Logger) *Renderer {
	return &Renderer{
		completer: completer,
		log:       log.With(sl.Module("chat.render")),
	}
}

func (r *Renderer) Render(ctx context.Context, reply entity.Reply) string {
	if reply == nil {
		return Fallback(entity.ServiceUnavailable{})
	}
	if answer, ok := reply.(entity.AssistantAnswer); ok && answer.Text != "" {
		return answer.Text
	}
	guidance := prompt(reply)
	if guidance == "" || r.completer == nil {
		return Fallback(reply)
	}

	text, err := r.completer.Complete(ctx, systemPrompt, guidance)
	if err != nil {
		r.log.Warn("reply generation failed", slog.String("kind", reply.Kind()), sl.Err(err))
		return Fallback(reply)
	}
	text = strings.TrimSpace(text)
	if text == "" || !Safe(text) {
		r.log.Warn("generated reply rejected", slog.String("kind", reply.Kind()))
		return Fallback(reply)
	}
	return text
}

// Safe rejects replies that solicit sensitive data.
func Safe(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range unsafeTerms {
		if strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

// prompt returns the completer input for milestone replies, or "" when the fixed text must be used.
func prompt(reply entity.Reply) string {
	switch v := reply.(type) {
	case entity.TermsAccepted:
		return "The user accepted the terms of service. Thank them and ask for their full name (first and last)."
	case entity.NameCollected:
		return fmt.Sprintf("The user's name is %s %s. Greet them by first name and ask for their email address.", v.FirstName, v.LastName)
	case entity.EmailCollected:
		if v.Returning {
			return fmt.Sprintf("%s is a returning user. Welcome them back and ask them to confirm their phone number ending %s by replying yes, or to send a new number with country code.",
				v.FirstName, v.PhoneHint)
		}
		return fmt.Sprintf("The email of %s is saved. Ask for their phone number including the country code, for example +1 650 253 0000.", v.FirstName)
	case entity.OtpSent:
		what := "a 6-digit verification code"
		if v.Resent {
			what = "a new 6-digit verification code"
		}
		return fmt.Sprintf("Tell the user %s was emailed to %s and is valid for %d minutes. Ask them to type it here.",
			what, v.EmailHint, v.ValidMinutes)
	case entity.Verified:
		return fmt.Sprintf("%s finished verification successfully. Congratulate them and ask how you can help.", v.FirstName)
	}
	return ""
}

// Fallback is the fixed text of every reply.
func Fallback(reply entity.Reply) string {
	switch v := reply.(type) {
	case entity.TermsPending:
		return `Welcome! Before we begin, please review and accept our terms of service. Reply "I accept" to continue.`
	case entity.TermsAccepted:
		return "Thank you for accepting the terms. What's your full name?"
	case entity.NameIncomplete:
		return fmt.Sprintf("Thanks, %s! Could you also provide your last name?", v.FirstName)
	case entity.NameInvalid:
		return v.Reason
	case entity.NameCollected:
		return fmt.Sprintf("Nice to meet you, %s! What's your email address?", v.FirstName)
	case entity.EmailInvalid:
		return v.Reason
	case entity.EmailCollected:
		if v.Returning {
			return fmt.Sprintf(`Welcome back, %s! Is your phone number still the one ending %s? Reply "yes" or send a new number with country code.`,
				v.FirstName, v.PhoneHint)
		}
		return "Thanks! Now please share your phone number with country code."
	case entity.PhoneInvalid:
		return v.Reason
	case entity.OtpSent:
		if v.Resent {
			return fmt.Sprintf("I've sent a new verification code to %s. It is valid for %d minutes.", v.EmailHint, v.ValidMinutes)
		}
		return fmt.Sprintf("I've sent a verification code to %s. Please enter it here. It is valid for %d minutes.", v.EmailHint, v.ValidMinutes)
	case entity.OtpSendFailed:
		return "I couldn't send the verification code right now. Please send your phone number again in a moment."
	case entity.OtpResendLimit:
		if v.RetryMinutes > 0 {
			return fmt.Sprintf("You've requested too many codes. Please enter the last code you received or try again in %d minute(s).", v.RetryMinutes)
		}
		return "You've requested too many codes. Please enter the last code you received or try again later."
	case entity.OtpInvalid:
		return v.Reason
	case entity.Verified:
		if v.Returning {
			return fmt.Sprintf("Welcome back, %s! You're verified. How can I help you today?", v.FirstName)
		}
		return fmt.Sprintf("You're verified, %s! How can I help you today?", v.FirstName)
	case entity.AssistantAnswer:
		if v.Text != "" {
			return v.Text
		}
		return "How can I assist you today?"
	case entity.Suspended:
		return "This account is currently on hold. Please contact support."
	}
	return "Something went wrong on our side. Please try again in a moment."
}
