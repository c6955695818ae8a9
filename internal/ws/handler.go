package ws

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Handler runs the per-connection message loop. The connection must carry the
// previously registered name in the "user" query parameter.
type Handler struct {
	hub           *Hub
	maxMsgSize    int64
	writeDeadline time.Duration
	log           *zap.SugaredLogger
}

func NewHandler(hub *Hub, maxMsgSize int64, writeDeadline time.Duration, log *zap.SugaredLogger) *Handler {
	return &Handler{hub: hub, maxMsgSize: maxMsgSize, writeDeadline: writeDeadline, log: log}
}

func (h *Handler) Serve() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		name := conn.Query("user")
		if name == "" {
			_ = conn.WriteMessage(websocket.TextMessage, statusErrorFrame("missing user"))
			_ = conn.Close()
			return
		}

		s, err := h.hub.Attach(conn, name)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, statusErrorFrame("user not registered"))
			_ = conn.Close()
			return
		}

		go h.writePump(s, conn)

		conn.SetReadLimit(h.maxMsgSize)
		conn.SetPongHandler(func(string) error {
			s.markAlive()
			return nil
		})

		for {
			mt, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if mt != websocket.TextMessage {
				continue
			}
			if !s.allow() {
				// over the inbound rate limit; drop before parsing
				continue
			}
			h.hub.OnMessage(s, raw)
		}

		h.hub.Detach(s, ReasonLeft)
	}
}

// writePump drains the session's send channel onto the wire. It exits when
// detach closes the channel or a write fails; the heartbeat and read loops
// handle the eviction either way.
func (h *Handler) writePump(s *Session, conn *websocket.Conn) {
	for frame := range s.send {
		_ = conn.SetWriteDeadline(time.Now().Add(h.writeDeadline))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			h.log.Debugw("write failed", "user", s.Name, "err", err)
			return
		}
	}
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}
