package core

import (
	"context"
	"fmt"
	"log/slog"

	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/sl"
)

func (c *Core) ToolDefinitions() []entity.ToolDefinition {
	if c.tools == nil {
		return []entity.ToolDefinition{}
	}
	return c.tools.Definitions()
}

// CallTool executes a tool on behalf of an ACTIVE user. Invalid calls come back as a failed result.
func (c *Core) CallTool(ctx context.Context, userID, name, arguments string) (entity.ToolResult, error) {
	if c.tools == nil {
		return entity.ToolResult{}, fmt.Errorf("tool registry not set")
	}
	state, err := c.state(ctx, userID)
	if err != nil {
		return entity.ToolResult{}, err
	}
	if !state.IsActive() {
		return entity.ToolResult{}, ErrNotVerified
	}
	result := c.tools.ExecuteJSON(ctx, name, arguments, entity.NewToolContext(state))
	c.log.Debug("tool call",
		sl.UserID(userID),
		slog.String("tool", name),
		slog.Bool("success", result.Success),
	)
	return result, nil
}
