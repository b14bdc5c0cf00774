package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/sl"
)

var (
	ErrUnavailable = errors.New("service unavailable")
	ErrUnknownStep = errors.New("unknown workflow step")
)

// Engine routes each message to the handler of the user's current step and
// persists the result.
type Engine struct {
	workflow Workflow
	store    StateStore
	locker   Locker
	renderer *Renderer
	listener TransitionListener
	now      func() time.Time
	log      *slog.Logger
}

type Option func(*Engine)

func WithLocker(l Locker) Option {
	return func(e *Engine) { e.locker = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithListener(l TransitionListener) Option {
	return func(e *Engine) { e.listener = l }
}

func NewEngine(workflow Workflow, store StateStore, renderer *Renderer, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		workflow: workflow,
		store:    store,
		renderer: renderer,
		locker:   NewLockThreads(),
		now:      time.Now,
		log:      log.With(sl.Module("chat.engine")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process handles one user message. It always returns reply text; the error is
// set when a collaborator failed, in which case the returned state is the one
// loaded before the message.
func (e *Engine) Process(ctx context.Context, userID, message string) (string, *entity.UserState, error) {
	log := e.log.With(sl.UserID(userID))

	unlock, err := e.locker.Lock(ctx, userID)
	if err != nil {
		log.Error("acquire user lock", sl.Err(err))
		return Fallback(entity.ServiceUnavailable{}), nil, fmt.Errorf("%w: lock: %v", ErrUnavailable, err)
	}
	defer unlock()

	state, err := e.store.Get(ctx, userID)
	if err != nil {
		log.Error("load state", sl.Err(err))
		return Fallback(entity.ServiceUnavailable{}), nil, fmt.Errorf("%w: load: %v", ErrUnavailable, err)
	}
	isNew := state == nil
	if isNew {
		state = entity.NewUserState(userID, e.now())
		state.CurrentStep = e.workflow.InitialStep()
	}

	if state.CurrentStep == entity.StepSuspended {
		return Fallback(entity.Suspended{}), state, nil
	}

	step, ok := e.workflow.GetStep(state.CurrentStep)
	if !ok {
		log.Error("no handler for step", slog.String("step", string(state.CurrentStep)))
		return Fallback(entity.ServiceUnavailable{}), state, fmt.Errorf("%w: %s", ErrUnknownStep, state.CurrentStep)
	}

	work := state.Clone()
	result := step.HandleInput(ctx, work, message)
	if result.Error != nil {
		log.Error("step failed",
			slog.String("step", string(state.CurrentStep)),
			sl.Err(result.Error),
		)
		reply := result.Reply
		if reply == nil {
			reply = entity.ServiceUnavailable{}
		}
		return Fallback(reply), e.visible(state, isNew), fmt.Errorf("%w: %v", ErrUnavailable, result.Error)
	}

	// step handlers do not own the workflow position
	work.CurrentStep = state.CurrentStep
	work.CompletedSteps = append([]string(nil), state.CompletedSteps...)
	work.MergeData(result.UpdateState)

	from := state.CurrentStep
	switch {
	case result.Hold:
		e.hold(work)
	case result.Complete:
		e.advance(work, step.Marker())
	}

	if result.Complete || result.Persist || result.Hold || isNew {
		work.UpdatedAt = e.now()
		if err = e.store.Put(ctx, work); err != nil {
			if errors.Is(err, entity.ErrVersionConflict) {
				log.Warn("state changed concurrently", slog.Int64("version", state.Version))
			} else {
				log.Error("save state", sl.Err(err))
			}
			return Fallback(entity.ServiceUnavailable{}), e.visible(state, isNew), fmt.Errorf("%w: save: %v", ErrUnavailable, err)
		}
		if work.CurrentStep != from {
			log.Info("step advanced",
				slog.String("from", string(from)),
				slog.String("to", string(work.CurrentStep)),
			)
			if e.listener != nil {
				e.listener.StateChanged(work.Clone(), from)
			}
		}
	} else {
		work = state
	}

	return e.renderer.Render(ctx, result.Reply), work, nil
}

// advance moves state along its single successor edge and records the audit trail.
// OTP success passes through the transient VERIFIED state on its way to ACTIVE.
func (e *Engine) advance(state *entity.UserState, marker string) {
	from := state.CurrentStep
	next, ok := Successor(from)
	if !ok || next == from {
		return
	}
	now := e.now()
	if marker != "" && !state.HasCompleted(marker) {
		state.CompletedSteps = append(state.CompletedSteps, marker)
	}
	if from == entity.StepAwaitingOTP {
		state.Transitions = append(state.Transitions,
			entity.Transition{From: from, To: entity.StepVerified, At: now},
			entity.Transition{From: entity.StepVerified, To: next, At: now},
		)
	} else {
		state.Transitions = append(state.Transitions, entity.Transition{From: from, To: next, At: now})
	}
	state.CurrentStep = next
}

// hold parks the user in SUSPENDED. Only an operator moves them out again.
func (e *Engine) hold(state *entity.UserState) {
	if state.CurrentStep == entity.StepSuspended {
		return
	}
	state.Transitions = append(state.Transitions, entity.Transition{From: state.CurrentStep, To: entity.StepSuspended, At: e.now()})
	state.CurrentStep = entity.StepSuspended
}

// visible is the state a caller sees after a failed message. A state that was
// never saved is reported as nil.
func (e *Engine) visible(state *entity.UserState, isNew bool) *entity.UserState {
	if isNew {
		return nil
	}
	return state
}

// State returns the stored state without processing a message.
func (e *Engine) State(ctx context.Context, userID string) (*entity.UserState, error) {
	return e.store.Get(ctx, userID)
}
