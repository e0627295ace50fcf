package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local tool; any page may watch the pointer
	},
}

// StateHandler pushes every tick's FrameState to websocket clients.
type StateHandler struct {
	loop   Loop
	logger *slog.Logger
}

// NewStateHandler creates a StateHandler subscribed to loop.
func NewStateHandler(loop Loop, logger *slog.Logger) *StateHandler {
	return &StateHandler{loop: loop, logger: logger}
}

// ServeHTTP upgrades the request and streams frame states until either
// side closes.
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	states, cancel := h.loop.Subscribe()
	defer cancel()

	// Reads only detect the peer closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Send the current state first so clients render before the next tick.
	if err := h.send(conn, h.loop.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case fs, ok := <-states:
			if !ok {
				return
			}
			if err := h.send(conn, fs); err != nil {
				h.logger.Debug("websocket write", "err", err)
				return
			}
		}
	}
}

func (h *StateHandler) send(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
