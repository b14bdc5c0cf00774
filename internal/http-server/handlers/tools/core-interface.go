package tools

import "VerifyFlow/entity"

type Core interface {
	ToolDefinitions() []entity.ToolDefinition
}
