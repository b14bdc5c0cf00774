package mcp

import (
	"VerifyFlow/entity"
	"context"
)

type Core interface {
	Ping() string
	ToolDefinitions() []entity.ToolDefinition
	CallTool(ctx context.Context, userID, name, arguments string) (entity.ToolResult, error)
}
