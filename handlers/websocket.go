package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"home-energy/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client message envelope
type incomingMessage struct {
	Type string `json:"type"` // ping
}

// WSHandler serves the live dashboard feed.
type WSHandler struct {
	mgr *ws.Manager
	log *zap.Logger
}

func NewWSHandler(mgr *ws.Manager, log *zap.Logger) *WSHandler {
	return &WSHandler{mgr: mgr, log: log.Named("ws")}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// HandleDashboardWS upgrades to websocket and keeps the client registered
// until it disconnects. Events flow server to client only; clients may send
// {"type":"ping"} to get a pong.
// GET /ws?id=<client_id>
func (h *WSHandler) HandleDashboardWS(c *gin.Context) {
	clientID := c.Query("id")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.mgr.Register(clientID, conn)
	h.log.Info("dashboard connected", zap.String("client_id", clientID))

	defer func() {
		h.mgr.Unregister(clientID, conn)
		h.log.Info("dashboard disconnected", zap.String("client_id", clientID))
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("read error", zap.String("client_id", clientID), zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var base incomingMessage
		if err := json.Unmarshal(message, &base); err != nil {
			h.log.Debug("invalid json", zap.String("client_id", clientID), zap.Error(err))
			continue
		}
		if base.Type == "ping" {
			b, _ := json.Marshal(ws.Event{Type: "pong", Timestamp: time.Now().UTC()})
			if err := h.mgr.SendTo(clientID, b); err != nil {
				return
			}
		}
	}
}

// GetConnectedClients GET /api/ws/clients
func (h *WSHandler) GetConnectedClients(c *gin.Context) {
	clients := h.mgr.List()
	c.JSON(http.StatusOK, gin.H{"data": clients, "count": len(clients)})
}
