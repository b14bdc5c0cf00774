package chat

import (
	"VerifyFlow/entity"
	"context"
)

type Core interface {
	Chat(ctx context.Context, msg *entity.HttpUserMsg) (*entity.HttpChatResponse, error)
}
