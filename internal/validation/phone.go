package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/sl"

	"github.com/nyaruka/phonenumbers"
)

// Phone failure categories reported in metadata["error_type"].
const (
	PhoneInvalidCountryCode = "invalid_country_code"
	PhoneNotANumber         = "not_a_number"
	PhoneTooShort           = "too_short"
	PhoneTooLong            = "too_long"
	PhoneInvalidNumber      = "invalid_number"
	PhoneEmpty              = "empty"
)

// maxPhoneDigits covers the 15 digit E.164 limit plus an international prefix.
const maxPhoneDigits = 17

var phoneMessages = map[string]string{
	PhoneInvalidCountryCode: "Invalid country code. Please include a valid country code (e.g., +1 for US, +44 for UK).",
	PhoneNotANumber:         "That doesn't look like a phone number. Please check and try again.",
	PhoneTooShort:           "That phone number seems too short. Please provide the complete number.",
	PhoneTooLong:            "That phone number seems too long. Please check and try again.",
	PhoneInvalidNumber:      "That doesn't appear to be a valid phone number. Please include your country code (e.g., +1 for US).",
	PhoneEmpty:              "Please provide a phone number.",
}

var phoneCandidate = regexp.MustCompile(`(?:\+|00)?\d[\d\s().\-]{4,}\d`)

type Phone struct {
	region string
	log    *slog.Logger
}

// NewPhone builds a validator. An empty region requires an explicit country code.
func NewPhone(defaultRegion string, log *slog.Logger) *Phone {
	return &Phone{
		region: strings.ToUpper(defaultRegion),
		log:    log.With(sl.Module("validation.phone")),
	}
}

func (v *Phone) Validate(_ context.Context, input string, _ *entity.UserState) entity.ValidationResult {
	if found := v.Extract(input); found != "" {
		return v.Check(found, v.region)
	}
	return v.Check(input, v.region)
}

// Check parses raw with region and normalizes it to E.164.
func (v *Phone) Check(raw, region string) entity.ValidationResult {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return phoneFailure(PhoneEmpty)
	}

	digits := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits > maxPhoneDigits {
		return phoneFailure(PhoneTooLong)
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		category := parseCategory(err)
		v.log.Debug("phone parse failed", slog.String("category", category), sl.Err(err))
		return phoneFailure(category)
	}

	switch phonenumbers.IsPossibleNumberWithReason(num) {
	case phonenumbers.TOO_SHORT:
		return phoneFailure(PhoneTooShort)
	case phonenumbers.TOO_LONG:
		return phoneFailure(PhoneTooLong)
	case phonenumbers.INVALID_COUNTRY_CODE:
		return phoneFailure(PhoneInvalidCountryCode)
	}

	if !phonenumbers.IsValidNumber(num) {
		return phoneFailure(PhoneInvalidNumber)
	}

	return entity.Valid(map[string]any{
		entity.KeyPhone:       phonenumbers.Format(num, phonenumbers.E164),
		entity.KeyCountryCode: fmt.Sprintf("+%d", num.GetCountryCode()),
		"national_number":     fmt.Sprintf("%d", num.GetNationalNumber()),
		"formatted":           phonenumbers.Format(num, phonenumbers.INTERNATIONAL),
		entity.KeyRegion:      phonenumbers.GetRegionCodeForNumber(num),
	}).
		WithMeta(MetaType, "phone").
		WithMeta(MetaNumberType, numberType(num))
}

// Extract scans text for the first number-shaped run that parses as valid and returns it in E.164.
func (v *Phone) Extract(text string) string {
	for _, candidate := range phoneCandidate.FindAllString(text, -1) {
		num, err := phonenumbers.Parse(candidate, v.region)
		if err != nil {
			continue
		}
		if phonenumbers.IsValidNumber(num) {
			return phonenumbers.Format(num, phonenumbers.E164)
		}
	}
	return ""
}

func parseCategory(err error) string {
	switch {
	case errors.Is(err, phonenumbers.ErrInvalidCountryCode):
		return PhoneInvalidCountryCode
	case errors.Is(err, phonenumbers.ErrNotANumber):
		return PhoneNotANumber
	case errors.Is(err, phonenumbers.ErrTooShortNSN):
		return PhoneTooShort
	}
	return PhoneNotANumber
}

func phoneFailure(category string) entity.ValidationResult {
	return entity.Invalid(phoneMessages[category]).
		WithMeta(MetaType, "phone").
		WithMeta(MetaErrorType, category)
}

func numberType(num *phonenumbers.PhoneNumber) string {
	switch phonenumbers.GetNumberType(num) {
	case phonenumbers.MOBILE:
		return "mobile"
	case phonenumbers.FIXED_LINE:
		return "fixed_line"
	case phonenumbers.FIXED_LINE_OR_MOBILE:
		return "fixed_line_or_mobile"
	case phonenumbers.TOLL_FREE:
		return "toll_free"
	case phonenumbers.VOIP:
		return "voip"
	}
	return "unknown"
}
