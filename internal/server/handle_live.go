package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
)

// handleLive is the operator's realtime feed: a WebSocket that pushes the
// session's events as they happen. Operators keep a dashboard open for the
// duration of a session, which is past the comfortable lifetime of an SSE
// connection behind some proxies.
func handleLive(logger *slog.Logger, store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		if _, err := store.SessionByID(r.Context(), sessionID); err != nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ch := broker.Subscribe(sessionID)
		defer broker.Unsubscribe(sessionID, ch)

		// The feed is write-only. CloseRead keeps processing control frames
		// and cancels the context when the operator disconnects; without it
		// a quiet session would hold the subscription forever.
		ctx := conn.CloseRead(r.Context())
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-ch:
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		}
	}
}
