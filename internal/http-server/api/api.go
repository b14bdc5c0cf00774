package api

import (
	"VerifyFlow/internal/config"
	"VerifyFlow/internal/http-server/handlers/chat"
	"VerifyFlow/internal/http-server/handlers/errors"
	"VerifyFlow/internal/http-server/handlers/mcp"
	"VerifyFlow/internal/http-server/handlers/state"
	"VerifyFlow/internal/http-server/handlers/tools"
	wshandler "VerifyFlow/internal/http-server/handlers/ws"
	"VerifyFlow/internal/http-server/middleware/authenticate"
	"VerifyFlow/internal/http-server/middleware/timeout"
	"VerifyFlow/internal/lib/api/response"
	"VerifyFlow/internal/lib/sl"
	"VerifyFlow/internal/ws"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net"
	"net/http"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	chat.Core
	state.Core
	tools.Core
	mcp.Core
}

// NewRouter mounts every route. /health is the only route without a bearer key.
func NewRouter(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.Ok(map[string]string{"status": "ok", "ping": handler.Ping()}))
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate.New(log, handler))

		if hub != nil {
			r.Get("/api/v1/ws", wshandler.Serve(log, hub))
		}

		r.Group(func(r chi.Router) {
			r.Use(timeout.Duration(conf.Listen.Timeout))
			r.Use(render.SetContentType(render.ContentTypeJSON))

			r.Route("/api/v1", func(v1 chi.Router) {
				v1.Post("/chat", chat.Chat(log, handler))
				v1.Route("/state/{user_id}", func(r chi.Router) {
					r.Get("/", state.GetState(log, handler))
					r.Post("/suspend", state.Suspend(log, handler))
				})
				v1.Get("/tools", tools.List(log, handler))
				v1.Post("/mcp", mcp.Handler(log, handler))
			})
		})
	})

	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  NewRouter(conf, log, handler, hub),
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
