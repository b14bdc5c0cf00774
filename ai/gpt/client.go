package gpt

import (
	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/sl"
	"VerifyFlow/internal/tools"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/sashabaranov/go-openai"
	"log/slog"
	"strings"
)

const (
	defaultModel   = openai.GPT4oMini
	extractionTool = "extract_data"
	maxToolRounds  = 3
)

var ErrEmptyResponse = errors.New("empty model response")

// ToolExecutor runs one model-requested tool call with raw JSON arguments.
type ToolExecutor func(ctx context.Context, name, arguments string) entity.ToolResult

type Client struct {
	client *openai.Client
	model  string
	log    *slog.Logger
}

func NewClient(apiKey, baseURL, model string, logger *slog.Logger) *Client {
	conf := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		conf.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		client: openai.NewClientWithConfig(conf),
		model:  model,
		log:    logger.With(sl.Module("gpt")),
	}
}

// Complete returns a single reply for a system instruction and user message.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Extract forces a function call whose parameters are schema and returns its decoded arguments.
func (c *Client) Extract(ctx context.Context, instruction, utterance string, schema entity.ToolSchema) (map[string]any, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: utterance},
		},
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        extractionTool,
				Description: "Record the fields extracted from the user's message",
				Parameters:  schema,
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: extractionTool},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	msg := resp.Choices[0].Message
	raw := msg.Content
	for _, call := range msg.ToolCalls {
		if call.Function.Name == extractionTool {
			raw = call.Function.Arguments
			break
		}
	}
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyResponse
	}
	out, err := tools.DecodeArguments(raw)
	if err != nil {
		c.log.Warn("extraction output rejected", sl.Err(err))
		return nil, err
	}
	return out, nil
}

// Converse answers a verified user, letting the model call allow-listed tools for a bounded number of rounds.
func (c *Client) Converse(ctx context.Context, system, message string, defs []entity.ToolDefinition, exec ToolExecutor) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: message},
	}
	available := toOpenAITools(defs)

	for round := 0; round <= maxToolRounds; round++ {
		req := openai.ChatCompletionRequest{
			Model:    c.model,
			Messages: messages,
		}
		if round < maxToolRounds && len(available) > 0 {
			req.Tools = available
		}

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyResponse
		}

		reply := resp.Choices[0].Message
		if len(reply.ToolCalls) == 0 {
			text := strings.TrimSpace(reply.Content)
			if text == "" {
				return "", ErrEmptyResponse
			}
			return text, nil
		}

		messages = append(messages, reply)
		for _, call := range reply.ToolCalls {
			c.log.Debug("tool requested", slog.String("tool", call.Function.Name), slog.Int("round", round))
			result := exec(ctx, call.Function.Name, call.Function.Arguments)
			output, err := json.Marshal(result)
			if err != nil {
				output = []byte(`{"success":false,"error":"unserializable result"}`)
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    string(output),
				ToolCallID: call.ID,
			})
		}
	}
	return "", fmt.Errorf("tool loop exceeded %d rounds", maxToolRounds)
}

func toOpenAITools(defs []entity.ToolDefinition) []openai.Tool {
	out := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return out
}
