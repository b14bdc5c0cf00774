package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/sl"
)

var (
	ErrNotVerified = errors.New("user is not verified")
	ErrNoEngine    = errors.New("chat engine not configured")
)

type Engine interface {
	Process(ctx context.Context, userID, message string) (string, *entity.UserState, error)
	State(ctx context.Context, userID string) (*entity.UserState, error)
}

type Repository interface {
	SetUserStep(ctx context.Context, userID string, step entity.WorkflowStep) error
}

type AuthService interface {
	AuthenticateByToken(token string) (*entity.UserAuth, error)
}

type ToolRegistry interface {
	Definitions() []entity.ToolDefinition
	ExecuteJSON(ctx context.Context, name, raw string, tc entity.ToolContext) entity.ToolResult
}

type Core struct {
	repo        Repository
	engine      Engine
	authService AuthService
	tools       ToolRegistry
	log         *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetRepository(repo Repository) {
	c.repo = repo
}

func (c *Core) SetEngine(engine Engine) {
	c.engine = engine
}

func (c *Core) SetAuthService(auth AuthService) {
	c.authService = auth
}

func (c *Core) SetTools(tools ToolRegistry) {
	c.tools = tools
}

func (c *Core) Ping() string {
	return "core pong"
}

func (c *Core) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if c.authService == nil {
		return nil, fmt.Errorf("auth service not set")
	}
	return c.authService.AuthenticateByToken(token)
}

// Process runs one message through the workflow. Collaborator failures are
// logged here and the retry text is still returned to the transport.
func (c *Core) Process(ctx context.Context, userID, message string) (string, *entity.UserState) {
	if c.engine == nil {
		c.log.Error("process message", sl.Err(ErrNoEngine))
		return "", nil
	}
	text, state, err := c.engine.Process(ctx, userID, strings.TrimSpace(message))
	if err != nil {
		c.log.Warn("message not applied", sl.UserID(userID), sl.Err(err))
	}
	return text, state
}

func (c *Core) Chat(ctx context.Context, msg *entity.HttpUserMsg) (*entity.HttpChatResponse, error) {
	if c.engine == nil {
		return nil, ErrNoEngine
	}
	text, state := c.Process(ctx, msg.UserID, msg.Message)
	return entity.NewChatResponse(text, state), nil
}

func (c *Core) GetState(ctx context.Context, userID string) (*entity.StateView, error) {
	state, err := c.state(ctx, userID)
	if err != nil {
		return nil, err
	}
	return entity.NewStateView(state), nil
}

// Suspend parks a user in SUSPENDED. Further messages are answered without processing.
func (c *Core) Suspend(ctx context.Context, userID string) error {
	if c.repo == nil {
		return fmt.Errorf("repository not set")
	}
	if err := c.repo.SetUserStep(ctx, userID, entity.StepSuspended); err != nil {
		return fmt.Errorf("suspend %s: %w", userID, err)
	}
	c.log.Info("user suspended", sl.UserID(userID))
	return nil
}

func (c *Core) state(ctx context.Context, userID string) (*entity.UserState, error) {
	if c.engine == nil {
		return nil, ErrNoEngine
	}
	state, err := c.engine.State(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if state == nil {
		return nil, entity.ErrNotFound
	}
	return state, nil
}
