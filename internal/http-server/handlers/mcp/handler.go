package mcp

import (
	"VerifyFlow/entity"
	"VerifyFlow/impl/core"
	"VerifyFlow/internal/lib/sl"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeNotVerified    = -32001
)

const maxBodySize = 1 << 20

type RPCRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type RPCResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type callParams struct {
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Handler serves the tool registry over JSON-RPC: ping, tools/list and tools/call.
func Handler(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.mcp"))

		var req RPCRequest
		body := http.MaxBytesReader(w, r.Body, maxBodySize)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			writeRPC(w, RPCResponse{Jsonrpc: "2.0", ID: json.RawMessage("null"), Error: &RPCError{Code: CodeParseError, Message: "invalid json"}})
			return
		}
		res := RPCResponse{Jsonrpc: "2.0", ID: req.ID}
		if len(res.ID) == 0 {
			res.ID = json.RawMessage("null")
		}
		if req.Jsonrpc != "2.0" {
			res.Error = &RPCError{Code: CodeInvalidRequest, Message: "jsonrpc must be 2.0"}
			writeRPC(w, res)
			return
		}

		logger.Debug("handling MCP request", slog.String("method", req.Method))

		switch req.Method {
		case "ping":
			res.Result = map[string]string{"msg": handler.Ping()}
		case "tools/list":
			res.Result = map[string]interface{}{"tools": handler.ToolDefinitions()}
		case "tools/call":
			var params callParams
			if err := json.Unmarshal(req.Params, &params); err != nil {
				res.Error = &RPCError{Code: CodeInvalidParams, Message: "invalid params: " + err.Error()}
				break
			}
			if params.UserID == "" || params.Name == "" {
				res.Error = &RPCError{Code: CodeInvalidParams, Message: "user_id and name are required"}
				break
			}
			result, err := handler.CallTool(r.Context(), params.UserID, params.Name, string(params.Arguments))
			if err != nil {
				res.Error = callError(err)
				logger.Warn("tool call refused", sl.UserID(params.UserID), slog.String("tool", params.Name), sl.Err(err))
				break
			}
			res.Result = toolContent(result.Success, result)
		default:
			res.Error = &RPCError{Code: CodeMethodNotFound, Message: "unknown method: " + req.Method}
		}

		writeRPC(w, res)
	}
}

func callError(err error) *RPCError {
	if errors.Is(err, core.ErrNotVerified) || errors.Is(err, entity.ErrNotFound) {
		return &RPCError{Code: CodeNotVerified, Message: "user is not verified"}
	}
	return &RPCError{Code: CodeInternal, Message: "tool call failed"}
}

func toolContent(success bool, result interface{}) map[string]interface{} {
	text, _ := json.Marshal(result)
	return map[string]interface{}{
		"content": []map[string]string{{"type": "text", "text": string(text)}},
		"isError": !success,
	}
}

func writeRPC(w http.ResponseWriter, res RPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}
