package chat

import "VerifyFlow/entity"

// transitions holds the single forward edge of every state.
// ACTIVE loops on itself and SUSPENDED has no edges.
var transitions = map[entity.WorkflowStep]entity.WorkflowStep{
	entity.StepAwaitingTerms: entity.StepAwaitingName,
	entity.StepAwaitingName:  entity.StepAwaitingEmail,
	entity.StepAwaitingEmail: entity.StepAwaitingPhone,
	entity.StepAwaitingPhone: entity.StepAwaitingOTP,
	entity.StepAwaitingOTP:   entity.StepActive,
	entity.StepActive:        entity.StepActive,
}

// Successor returns the only state reachable from step.
func Successor(step entity.WorkflowStep) (entity.WorkflowStep, bool) {
	next, ok := transitions[step]
	return next, ok
}

func CanTransition(from, to entity.WorkflowStep) bool {
	next, ok := transitions[from]
	return ok && next == to
}

// Reachable reports whether step lies on the forward path from AWAITING_TERMS.
func Reachable(step entity.WorkflowStep) bool {
	cur := entity.StepAwaitingTerms
	for i := 0; i <= len(transitions); i++ {
		if cur == step {
			return true
		}
		next, ok := transitions[cur]
		if !ok || next == cur {
			return false
		}
		cur = next
	}
	return false
}
