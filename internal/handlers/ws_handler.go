package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/benj-n/regami/internal/middleware"
	"github.com/benj-n/regami/internal/ws"
)

// WSHandler upgrades HTTP requests to websocket connections and feeds them
// into the live-event hub.
type WSHandler struct {
	hub         *ws.Hub
	jwtSecret   string
	readTimeout time.Duration
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *ws.Hub, jwtSecret string, readTimeout time.Duration) *WSHandler {
	return &WSHandler{
		hub:         hub,
		jwtSecret:   jwtSecret,
		readTimeout: readTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin enforcement is left to the reverse proxy
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterWSRoutes registers the websocket endpoint
func (h *WSHandler) RegisterWSRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// wsConn serializes writes to a single websocket connection. The hub's
// fan-out and the read loop's pong replies both write, and gorilla
// connections allow only one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

// Serve authenticates the token query parameter, upgrades the connection
// and runs the read loop until the client goes away or falls idle. The
// browser WebSocket API cannot set headers, so the token travels as a
// query parameter instead of an Authorization header.
func (h *WSHandler) Serve(c echo.Context) error {
	raw, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	claims, err := middleware.ParseToken(c.QueryParam("token"), h.jwtSecret)
	if err != nil {
		// Reject after the handshake so the client sees a close code
		// rather than an opaque handshake failure.
		deadline := time.Now().Add(time.Second)
		raw.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid token"), deadline)
		raw.Close()
		return nil
	}

	conn := &wsConn{conn: raw}
	h.hub.Connect(claims.UserID, conn)
	defer func() {
		h.hub.Disconnect(claims.UserID, conn)
		conn.Close()
	}()

	h.readLoop(conn, raw)
	return nil
}

// readLoop consumes client frames until error or idle timeout. A ping
// frame refreshes the deadline and gets a pong back; anything else is
// ignored.
func (h *WSHandler) readLoop(conn *wsConn, raw *websocket.Conn) {
	for {
		raw.SetReadDeadline(time.Now().Add(h.readTimeout))

		var frame ws.InboundFrame
		if err := raw.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read error from %s: %v", raw.RemoteAddr(), err)
			}
			return
		}

		if frame.Type == "ping" {
			if err := conn.WriteJSON(ws.NewEvent(ws.EventPong, nil)); err != nil {
				return
			}
		}
	}
}
