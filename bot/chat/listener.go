package chat

import "VerifyFlow/entity"

// TransitionListener is told about every saved state change, so the websocket
// hub can notify sessions without the engine importing transports.
type TransitionListener interface {
	StateChanged(state *entity.UserState, from entity.WorkflowStep)
}
