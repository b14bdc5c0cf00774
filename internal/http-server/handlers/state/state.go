package state

import (
	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/api/cont"
	"VerifyFlow/internal/lib/api/response"
	"VerifyFlow/internal/lib/sl"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

func GetState(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.state")
		userID := chi.URLParam(r, "user_id")

		logger := log.With(
			mod,
			sl.UserID(userID),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		view, err := handler.GetState(r.Context(), userID)
		if errors.Is(err, entity.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("State not found"))
			return
		}
		if err != nil {
			logger.Error("get state", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to load state"))
			return
		}

		render.JSON(w, r, response.Ok(view))
	}
}

func Suspend(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.state")
		userID := chi.URLParam(r, "user_id")

		logger := log.With(
			mod,
			sl.UserID(userID),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if client, err := cont.GetUser(r.Context()); err == nil {
			logger = logger.With(slog.String("client", client.Name))
		}

		err := handler.Suspend(r.Context(), userID)
		if errors.Is(err, entity.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("State not found"))
			return
		}
		if err != nil {
			logger.Error("suspend", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to suspend"))
			return
		}
		logger.Info("suspended")

		render.JSON(w, r, response.Ok(nil))
	}
}
