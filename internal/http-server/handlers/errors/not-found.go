package errors

import (
	"VerifyFlow/internal/lib/api/response"
	"VerifyFlow/internal/lib/sl"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

func NotFound(log *slog.Logger) http.HandlerFunc {
	mod := sl.Module("http.handlers.errors")
	return func(w http.ResponseWriter, r *http.Request) {
		log.With(mod).Debug("route not found", slog.String("path", r.URL.Path))

		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Requested resource not found"))
	}
}
