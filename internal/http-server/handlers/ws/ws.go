package ws

import (
	"VerifyFlow/internal/ws"
	"log/slog"
	"net/http"
)

// Serve opens a chat session for ?user_id= on an authenticated request.
func Serve(log *slog.Logger, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, log, w, r)
	}
}
