package entity

// ToolCall is built only from arguments that passed the registry schema gate.
type ToolCall struct {
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"name" validate:"required"`
	Parameters map[string]any `json:"parameters"`
}

type ToolResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ToolOk(data any) ToolResult {
	return ToolResult{Success: true, Data: data}
}

func ToolFail(message string) ToolResult {
	return ToolResult{Success: false, Error: message}
}

type ToolProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

type ToolSchema struct {
	Type       string                  `json:"type"`
	Properties map[string]ToolProperty `json:"properties"`
	Required   []string                `json:"required,omitempty"`
}

type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  ToolSchema `json:"inputSchema"`
}

// ToolContext is the minimal verified identity a tool handler may see.
type ToolContext struct {
	UserID    string `json:"user_id"`
	UserUUID  string `json:"user_uuid,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Verified  bool   `json:"verified"`
}

func NewToolContext(state *UserState) ToolContext {
	return ToolContext{
		UserID:    state.UserID,
		UserUUID:  state.GetString(KeyUserUUID),
		FirstName: state.GetString(KeyFirstName),
		LastName:  state.GetString(KeyLastName),
		Email:     state.GetString(KeyEmail),
		Phone:     state.GetString(KeyPhone),
		Verified:  state.IsActive(),
	}
}
