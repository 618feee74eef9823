package controller

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/web/session"
	wshub "github.com/procodebh/crm-console/web/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// WebSocketController streams session and backend status changes to a tab.
type WebSocketController struct {
	hub *wshub.Hub
}

// NewWebSocketController creates a new WebSocket controller
func NewWebSocketController(g *gin.RouterGroup, hub *wshub.Hub) *WebSocketController {
	w := &WebSocketController{hub: hub}
	w.initRouter(g)
	return w
}

func (w *WebSocketController) initRouter(g *gin.RouterGroup) {
	g.GET("/ws", w.handleWebSocket)
}

// handleWebSocket follows the caller's session record: a logout in any tab
// or a sign-in on the login page is pushed to every connected tab of the
// same browser session.
func (w *WebSocketController) handleWebSocket(c *gin.Context) {
	// The session cookie must be written before the connection is hijacked.
	sid := session.SessionID(c)
	m := session.Open(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Debug("websocket upgrade failed:", err)
		return
	}
	defer conn.Close()

	client := wshub.NewClient(uuid.NewString(), sid)
	w.hub.Register(client)
	defer w.hub.Unregister(client)

	// Subscribe before reading the snapshot so no change is missed; sends
	// are serialized so the tab always ends on the latest state.
	var mu sync.Mutex
	stop := m.Watch(func(p *session.Principal) {
		mu.Lock()
		defer mu.Unlock()
		if p == nil {
			w.hub.SendTo(client, wshub.MessageTypeSession, wshub.SessionPayload{})
			return
		}
		w.hub.SendTo(client, wshub.MessageTypeSession, sessionPayload(*p, true))
	})
	defer stop()

	mu.Lock()
	m.Initialize()
	w.hub.SendTo(client, wshub.MessageTypeSession, sessionPayload(m.Principal()))
	mu.Unlock()

	go writePump(conn, client)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func sessionPayload(p session.Principal, ok bool) wshub.SessionPayload {
	if !ok {
		return wshub.SessionPayload{}
	}
	return wshub.SessionPayload{Authenticated: true, Role: string(p.Role)}
}

// writePump relays queued messages until the hub closes the client.
func writePump(conn *websocket.Conn, client *wshub.Client) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case data, ok := <-client.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || sameHost(origin, r.Host)
	},
}

func sameHost(origin, host string) bool {
	for _, scheme := range []string{"http://", "https://"} {
		if origin == scheme+host {
			return true
		}
	}
	return false
}
