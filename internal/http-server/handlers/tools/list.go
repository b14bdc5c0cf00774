package tools

import (
	"VerifyFlow/internal/lib/api/response"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

func List(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.Ok(handler.ToolDefinitions()))
	}
}
