package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/sl"
)

var (
	ErrUnknownTool       = errors.New("tool not found in registry")
	ErrMissingParameter  = errors.New("missing required parameter")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrMalformedArgument = errors.New("malformed tool arguments")
)

// Handler runs an allow-listed operation for a verified user.
type Handler func(ctx context.Context, params map[string]any, tc entity.ToolContext) (any, error)

type tool struct {
	def     entity.ToolDefinition
	handler Handler
}

// Registry is populated during startup and read-only afterwards.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]tool
	log   *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		tools: make(map[string]tool),
		log:   log.With(sl.Module("tools.registry")),
	}
}

// Register adds or replaces a tool. The last registration for a name wins.
func (r *Registry) Register(name, description string, schema entity.ToolSchema, handler Handler) {
	if schema.Type == "" {
		schema.Type = "object"
	}
	if schema.Properties == nil {
		schema.Properties = map[string]entity.ToolProperty{}
	}
	r.mu.Lock()
	r.tools[name] = tool{
		def:     entity.ToolDefinition{Name: name, Description: description, Parameters: schema},
		handler: handler,
	}
	r.mu.Unlock()
	r.log.Debug("registered tool", slog.String("tool", name))
}

// Definitions returns the allow-list sorted by name.
func (r *Registry) Definitions() []entity.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]entity.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

func (r *Registry) lookup(name string) (tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Validate gates a call: the name must be registered, required keys present,
// declared types honored, and no undeclared keys supplied.
func (r *Registry) Validate(call entity.ToolCall) error {
	t, ok := r.lookup(call.Name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	}
	schema := t.def.Parameters

	for _, key := range schema.Required {
		if _, present := call.Parameters[key]; !present {
			return fmt.Errorf("%w: %s", ErrMissingParameter, key)
		}
	}

	keys := make([]string, 0, len(call.Parameters))
	for k := range call.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		prop, declared := schema.Properties[key]
		if !declared {
			return fmt.Errorf("%w: unexpected parameter %s", ErrInvalidParameter, key)
		}
		if err := checkType(key, prop, call.Parameters[key]); err != nil {
			return err
		}
	}
	return nil
}

// Execute re-validates the call and runs its handler. Handler panics become failed results.
// Only the tool name and user id are logged.
func (r *Registry) Execute(ctx context.Context, call entity.ToolCall, tc entity.ToolContext) (result entity.ToolResult) {
	log := r.log.With(slog.String("tool", call.Name), sl.UserID(tc.UserID))

	if err := r.Validate(call); err != nil {
		log.Warn("tool call rejected", sl.Err(err))
		return entity.ToolFail(err.Error())
	}
	t, _ := r.lookup(call.Name)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("tool handler panic", slog.String("panic", fmt.Sprint(rec)))
			result = entity.ToolFail(fmt.Sprintf("tool %s failed", call.Name))
		}
	}()

	log.Info("executing tool")
	params := call.Parameters
	if params == nil {
		params = map[string]any{}
	}
	data, err := t.handler(ctx, params, tc)
	if err != nil {
		log.Warn("tool handler error", sl.Err(err))
		return entity.ToolFail(err.Error())
	}
	return entity.ToolOk(data)
}

// ExecuteJSON decodes raw model output into a call before executing it.
func (r *Registry) ExecuteJSON(ctx context.Context, name, raw string, tc entity.ToolContext) entity.ToolResult {
	params, err := DecodeArguments(raw)
	if err != nil {
		r.log.Warn("tool arguments rejected", slog.String("tool", name), sl.UserID(tc.UserID), sl.Err(err))
		return entity.ToolFail(err.Error())
	}
	return r.Execute(ctx, entity.ToolCall{Name: name, Parameters: params}, tc)
}

// DecodeArguments accepts exactly one JSON object. Anything else is rejected.
func DecodeArguments(raw string) (map[string]any, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedArgument)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var params map[string]any
	if err := dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArgument, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedArgument)
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, nil
}

func checkType(key string, prop entity.ToolProperty, value any) error {
	ok := true
	switch prop.Type {
	case "string":
		s, isString := value.(string)
		ok = isString
		if ok && len(prop.Enum) > 0 {
			ok = contains(prop.Enum, s)
		}
	case "number":
		ok = isNumber(value)
	case "integer":
		ok = isInteger(value)
	case "boolean":
		_, ok = value.(bool)
	case "object":
		_, ok = value.(map[string]any)
	case "array":
		_, ok = value.([]any)
	}
	if !ok {
		return fmt.Errorf("%w: %s must be %s", ErrInvalidParameter, key, prop.Type)
	}
	return nil
}

func isNumber(v any) bool {
	switch n := v.(type) {
	case float64, float32, int, int64, int32:
		return true
	case json.Number:
		_, err := n.Float64()
		return err == nil
	}
	return false
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int64, int32:
		return true
	case float64:
		return n == float64(int64(n))
	case json.Number:
		_, err := n.Int64()
		return err == nil
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
