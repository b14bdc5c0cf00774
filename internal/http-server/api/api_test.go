package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VerifyFlow/entity"
	"VerifyFlow/impl/core"
	"VerifyFlow/internal/config"
	"VerifyFlow/internal/lib/logger"
)

type fakeHandler struct {
	states map[string]*entity.UserState
}

func (f *fakeHandler) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if token == "good" {
		return &entity.UserAuth{Name: "tester", Token: token}, nil
	}
	return nil, errors.New("unknown key")
}

func (f *fakeHandler) Chat(_ context.Context, msg *entity.HttpUserMsg) (*entity.HttpChatResponse, error) {
	return entity.NewChatResponse("reply to "+msg.Message, nil), nil
}

func (f *fakeHandler) GetState(_ context.Context, userID string) (*entity.StateView, error) {
	s, ok := f.states[userID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return entity.NewStateView(s), nil
}

func (f *fakeHandler) Suspend(_ context.Context, userID string) error {
	s, ok := f.states[userID]
	if !ok {
		return entity.ErrNotFound
	}
	s.CurrentStep = entity.StepSuspended
	return nil
}

func (f *fakeHandler) ToolDefinitions() []entity.ToolDefinition {
	return []entity.ToolDefinition{{Name: "get_profile", Parameters: entity.ToolSchema{Type: "object"}}}
}

func (f *fakeHandler) Ping() string { return "core pong" }

func (f *fakeHandler) CallTool(_ context.Context, userID, name, _ string) (entity.ToolResult, error) {
	s, ok := f.states[userID]
	if !ok || !s.IsActive() {
		return entity.ToolResult{}, core.ErrNotVerified
	}
	return entity.ToolOk(map[string]string{"tool": name}), nil
}

func newServer(t *testing.T) (*httptest.Server, *fakeHandler) {
	t.Helper()
	conf := &config.Config{}
	conf.Listen.Timeout = 5 * time.Second
	active := entity.NewUserState("active", time.Now())
	active.CurrentStep = entity.StepActive
	active.Data[entity.KeyEmail] = "ann@example.com"
	h := &fakeHandler{states: map[string]*entity.UserState{"active": active}}
	srv := httptest.NewServer(NewRouter(conf, logger.Discard(), h, nil))
	t.Cleanup(srv.Close)
	return srv, h
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealthWithoutAuth(t *testing.T) {
	srv, _ := newServer(t)
	resp, out := do(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"])
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newServer(t)
	resp, _ := do(t, srv, http.MethodGet, "/api/v1/tools", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/api/v1/tools", "bad", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, out := do(t, srv, http.MethodGet, "/api/v1/tools", "good", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, out["data"], 1)
}

func TestChatEndpoint(t *testing.T) {
	srv, _ := newServer(t)

	resp, out := do(t, srv, http.MethodPost, "/api/v1/chat", "good", map[string]string{"user_id": "u1", "message": "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := out["data"].(map[string]any)
	assert.Equal(t, "reply to hi", data["response"])
	assert.Equal(t, string(entity.StepAwaitingTerms), data["current_step"])

	resp, out = do(t, srv, http.MethodPost, "/api/v1/chat", "good", map[string]string{"user_id": "u1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, out["success"])
}

func TestStateEndpoints(t *testing.T) {
	srv, h := newServer(t)

	resp, out := do(t, srv, http.MethodGet, "/api/v1/state/active", "good", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := out["data"].(map[string]any)
	assert.Equal(t, "a***@example.com", data["email"])

	resp, _ = do(t, srv, http.MethodGet, "/api/v1/state/nobody", "good", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/api/v1/state/active/suspend", "good", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.StepSuspended, h.states["active"].CurrentStep)
}

func TestMcp(t *testing.T) {
	srv, h := newServer(t)

	_, out := do(t, srv, http.MethodPost, "/api/v1/mcp", "good", map[string]any{"jsonrpc": "2.0", "id": 1, "method": "tools/list"})
	tools := out["result"].(map[string]any)["tools"].([]any)
	assert.Len(t, tools, 1)

	call := map[string]any{
		"jsonrpc": "2.0", "id": "abc", "method": "tools/call",
		"params": map[string]any{"user_id": "active", "name": "get_profile", "arguments": map[string]any{}},
	}
	_, out = do(t, srv, http.MethodPost, "/api/v1/mcp", "good", call)
	assert.Equal(t, "abc", out["id"])
	result := out["result"].(map[string]any)
	assert.Equal(t, false, result["isError"])

	h.states["active"].CurrentStep = entity.StepAwaitingOTP
	_, out = do(t, srv, http.MethodPost, "/api/v1/mcp", "good", call)
	rpcErr := out["error"].(map[string]any)
	assert.Equal(t, float64(-32001), rpcErr["code"])

	_, out = do(t, srv, http.MethodPost, "/api/v1/mcp", "good", map[string]any{"jsonrpc": "2.0", "id": 2, "method": "nope"})
	assert.Equal(t, float64(-32601), out["error"].(map[string]any)["code"])
}

func TestNotFound(t *testing.T) {
	srv, _ := newServer(t)
	resp, _ := do(t, srv, http.MethodGet, "/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
