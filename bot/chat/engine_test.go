package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VerifyFlow/entity"
	repository "VerifyFlow/internal/database"
	"VerifyFlow/internal/lib/logger"
)

type stubStep struct {
	id     entity.WorkflowStep
	marker string
	handle func(state *entity.UserState, input string) StepResult
}

func (s *stubStep) ID() entity.WorkflowStep { return s.id }
func (s *stubStep) Marker() string          { return s.marker }
func (s *stubStep) HandleInput(_ context.Context, state *entity.UserState, input string) StepResult {
	return s.handle(state, input)
}

type stubWorkflow map[entity.WorkflowStep]Step

func (w stubWorkflow) InitialStep() entity.WorkflowStep { return entity.StepAwaitingTerms }
func (w stubWorkflow) GetStep(id entity.WorkflowStep) (Step, bool) {
	s, ok := w[id]
	return s, ok
}

type conflictStore struct {
	StateStore
}

func (s conflictStore) Put(context.Context, *entity.UserState) error {
	return entity.ErrVersionConflict
}

type recorder struct {
	mu   sync.Mutex
	from []entity.WorkflowStep
	to   []entity.WorkflowStep
}

func (r *recorder) StateChanged(state *entity.UserState, from entity.WorkflowStep) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.from = append(r.from, from)
	r.to = append(r.to, state.CurrentStep)
}

func completeOn(id entity.WorkflowStep, marker, want string) *stubStep {
	return &stubStep{id: id, marker: marker, handle: func(state *entity.UserState, input string) StepResult {
		if input == want {
			return StepResult{Complete: true, UpdateState: map[string]any{string(id): input}, Reply: entity.TermsAccepted{}}
		}
		return StepResult{Reply: entity.TermsPending{}}
	}}
}

func newTestEngine(w Workflow, store StateStore, opts ...Option) *Engine {
	return NewEngine(w, store, NewRenderer(nil, logger.Discard()), logger.Discard(), opts...)
}

func TestSuccessor(t *testing.T) {
	next, ok := Successor(entity.StepAwaitingPhone)
	require.True(t, ok)
	assert.Equal(t, entity.StepAwaitingOTP, next)

	next, ok = Successor(entity.StepActive)
	require.True(t, ok)
	assert.Equal(t, entity.StepActive, next)

	_, ok = Successor(entity.StepSuspended)
	assert.False(t, ok)

	assert.True(t, CanTransition(entity.StepAwaitingOTP, entity.StepActive))
	assert.False(t, CanTransition(entity.StepAwaitingTerms, entity.StepAwaitingEmail))
	assert.False(t, CanTransition(entity.StepAwaitingEmail, entity.StepAwaitingName))

	assert.True(t, Reachable(entity.StepActive))
	assert.False(t, Reachable(entity.StepSuspended))
}

func TestProcess_NewUserIsSaved(t *testing.T) {
	store := NewRepositoryStateStore(repository.NewMemory())
	e := newTestEngine(stubWorkflow{entity.StepAwaitingTerms: completeOn(entity.StepAwaitingTerms, entity.MarkTerms, "ok")}, store)

	text, state, err := e.Process(context.Background(), "u1", "hello")
	require.NoError(t, err)
	assert.Contains(t, text, "terms of service")
	assert.Equal(t, entity.StepAwaitingTerms, state.CurrentStep)
	assert.Equal(t, int64(1), state.Version)

	stored, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestProcess_FailureLeavesStateUntouched(t *testing.T) {
	store := NewRepositoryStateStore(repository.NewMemory())
	e := newTestEngine(stubWorkflow{entity.StepAwaitingTerms: completeOn(entity.StepAwaitingTerms, entity.MarkTerms, "ok")}, store)
	ctx := context.Background()

	_, first, err := e.Process(ctx, "u1", "hello")
	require.NoError(t, err)
	_, second, err := e.Process(ctx, "u1", "still reading")
	require.NoError(t, err)

	assert.Equal(t, first.Version, second.Version)
	assert.Equal(t, first.CurrentStep, second.CurrentStep)
	assert.Empty(t, second.CompletedSteps)
}

func TestProcess_AdvancesAlongSuccessor(t *testing.T) {
	store := NewRepositoryStateStore(repository.NewMemory())
	rec := &recorder{}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e := newTestEngine(stubWorkflow{
		entity.StepAwaitingTerms: completeOn(entity.StepAwaitingTerms, entity.MarkTerms, "ok"),
		entity.StepAwaitingName:  completeOn(entity.StepAwaitingName, entity.MarkName, "Ann Lee"),
	}, store, WithListener(rec), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, state, err := e.Process(ctx, "u1", "ok")
	require.NoError(t, err)
	assert.Equal(t, entity.StepAwaitingName, state.CurrentStep)
	assert.Equal(t, []string{entity.MarkTerms}, state.CompletedSteps)
	require.Len(t, state.Transitions, 1)
	assert.Equal(t, entity.Transition{From: entity.StepAwaitingTerms, To: entity.StepAwaitingName, At: now}, state.Transitions[0])

	_, state, err = e.Process(ctx, "u1", "Ann Lee")
	require.NoError(t, err)
	assert.Equal(t, entity.StepAwaitingEmail, state.CurrentStep)
	assert.Equal(t, []string{entity.MarkTerms, entity.MarkName}, state.CompletedSteps)
	assert.Equal(t, "Ann Lee", state.GetString(string(entity.StepAwaitingName)))

	assert.Equal(t, []entity.WorkflowStep{entity.StepAwaitingTerms, entity.StepAwaitingName}, rec.from)
	assert.Equal(t, []entity.WorkflowStep{entity.StepAwaitingName, entity.StepAwaitingEmail}, rec.to)
}

func TestProcess_StepCannotMoveItself(t *testing.T) {
	store := NewRepositoryStateStore(repository.NewMemory())
	rogue := &stubStep{id: entity.StepAwaitingTerms, marker: entity.MarkTerms, handle: func(state *entity.UserState, _ string) StepResult {
		state.CurrentStep = entity.StepActive
		state.CompletedSteps = append(state.CompletedSteps, "forged")
		return StepResult{Persist: true, Reply: entity.TermsPending{}}
	}}
	e := newTestEngine(stubWorkflow{entity.StepAwaitingTerms: rogue}, store)

	_, state, err := e.Process(context.Background(), "u1", "x")
	require.NoError(t, err)
	assert.Equal(t, entity.StepAwaitingTerms, state.CurrentStep)
	assert.Empty(t, state.CompletedSteps)
}

func TestProcess_StepErrorDiscardsChanges(t *testing.T) {
	mem := repository.NewMemory()
	store := NewRepositoryStateStore(mem)
	failing := &stubStep{id: entity.StepAwaitingTerms, handle: func(state *entity.UserState, input string) StepResult {
		if input == "boom" {
			state.Data["dirty"] = true
			return StepResult{Error: errors.New("smtp down"), Reply: entity.OtpSendFailed{}}
		}
		return StepResult{Reply: entity.TermsPending{}}
	}}
	e := newTestEngine(stubWorkflow{entity.StepAwaitingTerms: failing}, store)
	ctx := context.Background()

	_, before, err := e.Process(ctx, "u1", "hi")
	require.NoError(t, err)

	text, after, err := e.Process(ctx, "u1", "boom")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, Fallback(entity.OtpSendFailed{}), text)
	assert.Equal(t, before.Version, after.Version)

	stored, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.NotContains(t, stored.Data, "dirty")
}

func TestProcess_VersionConflict(t *testing.T) {
	mem := repository.NewMemory()
	e := newTestEngine(stubWorkflow{entity.StepAwaitingTerms: completeOn(entity.StepAwaitingTerms, entity.MarkTerms, "ok")},
		conflictStore{NewRepositoryStateStore(mem)})

	text, state, err := e.Process(context.Background(), "u1", "ok")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, Fallback(entity.ServiceUnavailable{}), text)
	assert.Nil(t, state)
}

func TestProcess_Suspended(t *testing.T) {
	mem := repository.NewMemory()
	store := NewRepositoryStateStore(mem)
	called := false
	step := &stubStep{id: entity.StepAwaitingTerms, handle: func(*entity.UserState, string) StepResult {
		called = true
		return StepResult{Reply: entity.TermsPending{}}
	}}
	e := newTestEngine(stubWorkflow{entity.StepAwaitingTerms: step}, store)
	ctx := context.Background()

	_, _, err := e.Process(ctx, "u1", "hi")
	require.NoError(t, err)
	require.NoError(t, mem.SetUserStep(ctx, "u1", entity.StepSuspended))
	called = false

	text, state, err := e.Process(ctx, "u1", "hello?")
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, Fallback(entity.Suspended{}), text)
	assert.Equal(t, entity.StepSuspended, state.CurrentStep)
}

func TestProcess_HoldSuspends(t *testing.T) {
	store := NewRepositoryStateStore(repository.NewMemory())
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	holding := &stubStep{id: entity.StepAwaitingTerms, handle: func(*entity.UserState, string) StepResult {
		return StepResult{Hold: true, UpdateState: map[string]any{"reason": "blocked"}, Reply: entity.Suspended{}}
	}}
	e := newTestEngine(stubWorkflow{entity.StepAwaitingTerms: holding}, store, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	text, state, err := e.Process(ctx, "u1", "hi")
	require.NoError(t, err)
	assert.Equal(t, Fallback(entity.Suspended{}), text)
	assert.Equal(t, entity.StepSuspended, state.CurrentStep)
	assert.Empty(t, state.CompletedSteps)
	require.Len(t, state.Transitions, 1)
	assert.Equal(t, entity.Transition{From: entity.StepAwaitingTerms, To: entity.StepSuspended, At: now}, state.Transitions[0])

	stored, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.StepSuspended, stored.CurrentStep)
	assert.Equal(t, "blocked", stored.GetString("reason"))
}

func TestProcess_ConcurrentMessagesAreSerialized(t *testing.T) {
	store := NewRepositoryStateStore(repository.NewMemory())
	e := newTestEngine(stubWorkflow{entity.StepAwaitingTerms: completeOn(entity.StepAwaitingTerms, entity.MarkTerms, "ok")}, store)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := e.Process(context.Background(), "u1", "hello")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	state, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.Version)
}

func TestLockThreads(t *testing.T) {
	l := NewLockThreads()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "a")
	require.NoError(t, err)

	other, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	other()

	timed, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(timed, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Equal(t, 0, l.size())
}

type fixedCompleter struct {
	text string
	err  error
}

func (f fixedCompleter) Complete(context.Context, string, string) (string, error) {
	return f.text, f.err
}

func TestRenderer(t *testing.T) {
	ctx := context.Background()

	r := NewRenderer(fixedCompleter{text: "Welcome aboard, Ann!"}, logger.Discard())
	assert.Equal(t, "Welcome aboard, Ann!", r.Render(ctx, entity.NameCollected{FirstName: "Ann"}))

	// failures never go through the completer
	assert.Equal(t, "bad email", r.Render(ctx, entity.EmailInvalid{Reason: "bad email"}))

	r = NewRenderer(fixedCompleter{text: "Please send me your password"}, logger.Discard())
	assert.Equal(t, Fallback(entity.NameCollected{FirstName: "Ann"}), r.Render(ctx, entity.NameCollected{FirstName: "Ann"}))

	r = NewRenderer(fixedCompleter{err: errors.New("timeout")}, logger.Discard())
	assert.Equal(t, Fallback(entity.Verified{FirstName: "Ann"}), r.Render(ctx, entity.Verified{FirstName: "Ann"}))

	assert.Equal(t, "How can I assist you today?", r.Render(ctx, entity.AssistantAnswer{}))
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsAffirmative("Yes, that's right"))
	assert.True(t, IsAffirmative("same"))
	assert.False(t, IsAffirmative("no, not the same"))
	assert.True(t, IsNegated("I don't agree"))
	assert.True(t, IsNegated("I don\u2019t accept"))
	assert.Equal(t, []string{"i", "don't", "accept"}, Words("I don\u2019t accept"))
	assert.False(t, IsAffirmative("that\u2019s right, don\u2019t use it"))
	assert.True(t, HasPhrase("please send it again!", "send it again"))
	assert.False(t, HasPhrase("resending", "send"))
}
