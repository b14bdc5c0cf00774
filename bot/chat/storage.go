package chat

import (
	"context"

	"VerifyFlow/entity"
)

// StateRepository is the database side of state persistence.
type StateRepository interface {
	GetUserState(ctx context.Context, userID string) (*entity.UserState, error)
	PutUserState(ctx context.Context, state *entity.UserState) error
}

// RepositoryStateStore adapts a repository to StateStore.
type RepositoryStateStore struct {
	repo StateRepository
}

func NewRepositoryStateStore(repo StateRepository) *RepositoryStateStore {
	return &RepositoryStateStore{repo: repo}
}

func (s *RepositoryStateStore) Get(ctx context.Context, userID string) (*entity.UserState, error) {
	return s.repo.GetUserState(ctx, userID)
}

func (s *RepositoryStateStore) Put(ctx context.Context, state *entity.UserState) error {
	return s.repo.PutUserState(ctx, state)
}
