package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"users-server/auth"
	"users-server/logger"
	"users-server/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Messages a console may send on the socket.
type incomingMessage struct {
	Type string `json:"type"` // ping
}

// WSHandler streams entity change events to signed-in admin consoles.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler accepts upgrades from the given origins; "*" accepts any.
func NewWSHandler(hub *ws.Hub, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		}},
	}
}

// HandleConsoleWS upgrades to websocket and holds the connection until the
// console goes away.
// GET {prefix}/ws
func (h *WSHandler) HandleConsoleWS(c *gin.Context) {
	admin, ok := auth.FromContext(c).Admin()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "admin login required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	connID := uuid.NewString()
	h.hub.Register(connID, conn)
	logger.Info().Str("conn", connID).Int64("admin_id", admin.ID).Msg("Console connected")

	defer func() {
		h.hub.Unregister(connID)
		logger.Info().Str("conn", connID).Msg("Console disconnected")
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Str("conn", connID).Msg("Console read error")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var base incomingMessage
		if err := json.Unmarshal(message, &base); err != nil {
			logger.Debug().Err(err).Str("conn", connID).Msg("Invalid console message")
			continue
		}
		switch base.Type {
		case "ping":
			h.hub.Send(connID, ws.Event{Type: "pong", At: time.Now().UTC()})
		default:
			logger.Debug().Str("conn", connID).Str("type", base.Type).Msg("Unknown console message")
		}
	}
}

// Connections handles GET {prefix}/api/connections
func (h *WSHandler) Connections(c *gin.Context) {
	ids := h.hub.List()
	c.JSON(http.StatusOK, gin.H{"connections": ids, "count": len(ids)})
}
