package validation

import (
	"context"

	"VerifyFlow/entity"
)

// Validator checks one workflow field against the user's current state.
type Validator interface {
	Validate(ctx context.Context, input string, state *entity.UserState) entity.ValidationResult
}

// Metadata keys shared by validators.
const (
	MetaType       = "validation_type"
	MetaErrorType  = "error_type"
	MetaIncomplete = "incomplete"
	MetaMissing    = "missing"
	MetaRemaining  = "attempts_remaining"
	MetaNumberType = "number_type"
	// MetaCause holds the collaborator error behind a lookup_failed result.
	MetaCause = "cause"
)

// ErrorTypeLookupFailed marks a result that could not be decided because a store failed.
const ErrorTypeLookupFailed = "lookup_failed"
