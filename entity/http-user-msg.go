package entity

import (
	"VerifyFlow/internal/lib/validate"
	"net/http"
)

type HttpUserMsg struct {
	UserID  string `json:"user_id" validate:"required,max=128"`
	Message string `json:"message" validate:"required,max=4000"`
}

func (m *HttpUserMsg) Bind(_ *http.Request) error {
	return validate.Struct(m)
}

type HttpChatResponse struct {
	Response       string       `json:"response"`
	CurrentStep    WorkflowStep `json:"current_step"`
	CompletedSteps []string     `json:"completed_steps"`
}

// NewChatResponse reports a state that was never saved as a fresh AWAITING_TERMS.
func NewChatResponse(text string, state *UserState) *HttpChatResponse {
	if state == nil {
		return &HttpChatResponse{Response: text, CurrentStep: StepAwaitingTerms, CompletedSteps: []string{}}
	}
	return &HttpChatResponse{
		Response:       text,
		CurrentStep:    state.CurrentStep,
		CompletedSteps: state.CompletedSteps,
	}
}
