package chat

import (
	"context"

	"VerifyFlow/entity"
)

// StepResult is the outcome of handling one message in a step.
type StepResult struct {
	// Complete marks the step satisfied. The engine advances to the single successor.
	Complete bool
	// Persist saves mutations without advancing, e.g. a partial name or a counted OTP attempt.
	Persist     bool
	UpdateState map[string]any
	Reply       entity.Reply
	// Hold moves the user to SUSPENDED instead of the successor.
	Hold bool
	// Error is a collaborator failure. Nothing from this message is saved.
	Error error
}

// Step handles messages while the user is in one workflow state.
// Steps receive a working copy of the state and never change CurrentStep or CompletedSteps.
type Step interface {
	ID() entity.WorkflowStep
	Marker() string
	HandleInput(ctx context.Context, state *entity.UserState, input string) StepResult
}

type Workflow interface {
	InitialStep() entity.WorkflowStep
	GetStep(id entity.WorkflowStep) (Step, bool)
}

// StateStore persists one state per user. Put is compare-and-swap on state.Version.
type StateStore interface {
	Get(ctx context.Context, userID string) (*entity.UserState, error)
	Put(ctx context.Context, state *entity.UserState) error
}

// Completer produces free text from an instruction and a message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Locker serializes message processing per user.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
