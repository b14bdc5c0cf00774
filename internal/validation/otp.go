package validation

import (
	"context"

	"VerifyFlow/entity"
	"VerifyFlow/internal/otp"
)

// Otp adapts the passcode manager to the Validator contract.
// On a mismatch the returned metadata carries the incremented attempt count.
type Otp struct {
	manager *otp.Manager
}

func NewOtp(manager *otp.Manager) *Otp {
	return &Otp{manager: manager}
}

const MetaAttempts = "failed_attempts"

func (v *Otp) Validate(_ context.Context, input string, state *entity.UserState) entity.ValidationResult {
	var data *entity.OtpData
	if state != nil {
		data = state.OtpData()
	}
	verdict := v.manager.Verify(input, data)

	if verdict.Ok() {
		return entity.Valid(map[string]any{"user_id": state.UserID}).
			WithMeta(MetaType, "otp")
	}

	res := entity.Invalid(verdict.Message).
		WithMeta(MetaType, "otp").
		WithMeta(MetaErrorType, string(verdict.Status)).
		WithMeta(MetaRemaining, verdict.Remaining)
	if data != nil {
		res = res.WithMeta(MetaAttempts, data.Attempts)
	}
	return res
}
