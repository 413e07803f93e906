package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nugget/paperscout/internal/events"
)

const (
	eventBufferSize = 64
	wsWriteTimeout  = 10 * time.Second
	wsPingInterval  = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The API is meant for local clients and carries no cookies.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleEvents upgrades to a WebSocket and streams every bus event as a
// JSON text frame until the client goes away. Events are dropped, not
// queued, when the client falls behind.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.deps.Events == nil {
		s.errorResponse(w, http.StatusNotFound, "event stream not configured")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := s.deps.Events.Subscribe(eventBufferSize)
	defer s.deps.Events.Unsubscribe(ch)

	s.logger.Debug("event stream opened", "remote", r.RemoteAddr)

	// Drain client frames so close and pong control messages are
	// processed; a read error means the client is gone.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Debug("event stream read ended", "error", err)
				}
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-gone:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := s.writeEvent(conn, e); err != nil {
				s.logger.Debug("event stream write failed", "error", err)
				return
			}
		}
	}
}

func (s *Server) writeEvent(conn *websocket.Conn, e events.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(e)
}
