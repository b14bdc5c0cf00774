package errors

import (
	"VerifyFlow/internal/lib/api/response"
	"VerifyFlow/internal/lib/sl"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

func NotAllowed(log *slog.Logger) http.HandlerFunc {
	mod := sl.Module("http.handlers.errors")
	return func(w http.ResponseWriter, r *http.Request) {
		log.With(mod).Debug("method not allowed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, response.Error("Method not allowed"))
	}
}
