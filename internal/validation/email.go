package validation

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/mask"
	"VerifyFlow/internal/lib/sl"
)

const maxEmailLength = 320

var (
	emailPattern     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	emailExtractable = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// UserLookup finds verified records for the returning-user check.
type UserLookup interface {
	FindByEmailAndLastName(ctx context.Context, email, lastName string) (*entity.User, error)
}

type Email struct {
	users UserLookup
	log   *slog.Logger
}

func NewEmail(users UserLookup, log *slog.Logger) *Email {
	return &Email{
		users: users,
		log:   log.With(sl.Module("validation.email")),
	}
}

// Validate extracts an address from free text, checks its format and looks up a returning user.
func (v *Email) Validate(ctx context.Context, input string, state *entity.UserState) entity.ValidationResult {
	candidate := ExtractEmail(input)
	if candidate == "" {
		candidate = strings.ToLower(strings.TrimSpace(input))
	}
	lastName := ""
	if state != nil {
		lastName = state.GetString(entity.KeyLastName)
	}
	return v.Check(ctx, candidate, lastName)
}

// Check validates an address. The lookup only runs when lastName is known.
func (v *Email) Check(ctx context.Context, email, lastName string) entity.ValidationResult {
	email = strings.ToLower(strings.TrimSpace(email))
	if !IsValidEmail(email) {
		return entity.Invalid("That doesn't look like a valid email address. Please check and try again.").
			WithMeta(MetaType, "email").
			WithMeta(MetaErrorType, "invalid_format")
	}

	data := map[string]any{
		entity.KeyEmail:         email,
		entity.KeyReturningUser: false,
	}

	if lastName != "" && v.users != nil {
		user, err := v.users.FindByEmailAndLastName(ctx, email, lastName)
		if err != nil {
			v.log.Error("returning user lookup", sl.Email(email), sl.Err(err))
			return entity.Invalid("returning user lookup failed").
				WithMeta(MetaType, "email").
				WithMeta(MetaErrorType, ErrorTypeLookupFailed).
				WithMeta(MetaCause, err)
		}
		if user != nil {
			data[entity.KeyReturningUser] = true
			data[entity.KeyExistingUUID] = user.UUID
			data[entity.KeyExistingPhone] = user.Phone
			v.log.Info("returning user found", sl.Email(email))
		}
	}

	return entity.Valid(data).
		WithMeta(MetaType, "email").
		WithMeta("returning_user_check", lastName != "")
}

func IsValidEmail(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}
	if strings.Count(email, "@") != 1 {
		return false
	}
	return emailPattern.MatchString(email)
}

// ExtractEmail returns the first address-shaped substring, lowercased.
func ExtractEmail(text string) string {
	return strings.ToLower(emailExtractable.FindString(text))
}

// PhoneHint renders the phone on file without revealing it.
func PhoneHint(phone string) string {
	if phone == "" {
		return ""
	}
	return mask.Phone(phone)
}
