package tools

import (
	"context"
	"fmt"

	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/mask"
)

const (
	ToolGetProfile            = "get_profile"
	ToolGetVerificationStatus = "get_verification_status"
)

// StateReader exposes read access to workflow state.
type StateReader interface {
	Get(ctx context.Context, userID string) (*entity.UserState, error)
}

// RegisterBuiltins installs the identity tools every verified session can use.
func RegisterBuiltins(r *Registry, states StateReader) {
	r.Register(ToolGetProfile,
		"Return the verified profile of the current user with contact details masked",
		entity.ToolSchema{
			Type: "object",
			Properties: map[string]entity.ToolProperty{
				"field": {
					Type:        "string",
					Description: "Return only this field",
					Enum:        []string{"first_name", "last_name", "email", "phone"},
				},
			},
		},
		func(_ context.Context, params map[string]any, tc entity.ToolContext) (any, error) {
			if !tc.Verified {
				return nil, fmt.Errorf("user is not verified")
			}
			profile := map[string]string{
				"first_name": tc.FirstName,
				"last_name":  tc.LastName,
				"email":      mask.Email(tc.Email),
				"phone":      mask.Phone(tc.Phone),
			}
			if field, ok := params["field"].(string); ok {
				return map[string]string{field: profile[field]}, nil
			}
			return profile, nil
		},
	)

	r.Register(ToolGetVerificationStatus,
		"Return the verification step and completed markers of the current user",
		entity.ToolSchema{
			Type: "object",
			Properties: map[string]entity.ToolProperty{
				"include_history": {Type: "boolean", Description: "Include the step transition history"},
			},
		},
		func(ctx context.Context, params map[string]any, tc entity.ToolContext) (any, error) {
			state, err := states.Get(ctx, tc.UserID)
			if err != nil {
				return nil, fmt.Errorf("load state: %w", err)
			}
			if state == nil {
				return nil, entity.ErrNotFound
			}
			out := map[string]any{
				"current_step":    state.CurrentStep,
				"completed_steps": state.CompletedSteps,
				"verified":        state.IsActive(),
			}
			if include, _ := params["include_history"].(bool); include {
				out["transitions"] = state.Transitions
			}
			return out, nil
		},
	)
}
