package state

import (
	"VerifyFlow/entity"
	"context"
)

type Core interface {
	GetState(ctx context.Context, userID string) (*entity.StateView, error)
	Suspend(ctx context.Context, userID string) error
}
