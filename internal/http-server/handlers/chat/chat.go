package chat

import (
	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/api/response"
	"VerifyFlow/internal/lib/sl"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

func Chat(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.chat")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("chat not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Chat not available"))
			return
		}

		var req entity.HttpUserMsg
		if err := render.Bind(r, &req); err != nil {
			logger.Warn("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		logger = logger.With(sl.UserID(req.UserID))

		resp, err := handler.Chat(r.Context(), &req)
		if err != nil {
			logger.Error("chat", sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Chat failed"))
			return
		}
		logger.Debug("chat", slog.String("step", string(resp.CurrentStep)))

		render.JSON(w, r, response.Ok(resp))
	}
}
