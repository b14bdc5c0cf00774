package repository

import (
	"VerifyFlow/entity"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory keeps states and users in process. Used when Mongo is disabled and in tests.
type Memory struct {
	mu     sync.Mutex
	states map[string]*entity.UserState
	users  map[string]*entity.User
	keys   map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		states: make(map[string]*entity.UserState),
		users:  make(map[string]*entity.User),
		keys:   make(map[string]string),
	}
}

func (m *Memory) GetUserState(_ context.Context, userID string) (*entity.UserState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[userID]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (m *Memory) PutUserState(_ context.Context, state *entity.UserState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.states[state.UserID]
	switch {
	case !ok && state.Version != 0:
		return entity.ErrVersionConflict
	case ok && current.Version != state.Version:
		return entity.ErrVersionConflict
	}

	state.Version++
	state.UpdatedAt = time.Now()
	m.states[state.UserID] = state.Clone()
	return nil
}

func (m *Memory) SetUserStep(_ context.Context, userID string, step entity.WorkflowStep) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[userID]
	if !ok {
		return entity.ErrNotFound
	}
	s.CurrentStep = step
	s.Version++
	return nil
}

func (m *Memory) CreateUser(_ context.Context, user *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.LastNameKey = entity.NameKey(user.LastName)
	u := *user
	m.users[user.UUID] = &u
	return nil
}

func (m *Memory) UpdateUser(_ context.Context, user *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.UUID]; !ok {
		return entity.ErrNotFound
	}
	user.LastSeen = time.Now()
	user.LastNameKey = entity.NameKey(user.LastName)
	u := *user
	m.users[user.UUID] = &u
	return nil
}

func (m *Memory) FindByEmailAndLastName(_ context.Context, email, lastName string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := entity.NameKey(lastName)
	var found *entity.User
	for _, u := range m.users {
		if u.Email != email || u.LastNameKey != key {
			continue
		}
		if found == nil || u.Blocked {
			found = u
		}
	}
	if found == nil {
		return nil, nil
	}
	c := *found
	return &c, nil
}

func (m *Memory) GetUserByUUID(_ context.Context, uuid string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uuid]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

// Users returns a snapshot of all records.
func (m *Memory) Users() []entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out
}

// GenerateApiKey returns the existing key of username or stores a new one.
func (m *Memory) GenerateApiKey(username string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, u := range m.keys {
		if u == username {
			return k, nil
		}
	}
	key := uuid.NewString()
	m.keys[key] = username
	return key, nil
}

func (m *Memory) CheckApiKey(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.keys[key]; ok {
		return u, nil
	}
	return "", entity.ErrNotFound
}
