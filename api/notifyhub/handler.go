package notifyhub

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Zahlii/godslr/tool"
	"github.com/Zahlii/godslr/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The admin group is already restricted to localhost.
		return true
	},
}

// HandleNotifyWS upgrades the request and feeds the connection booth
// events until the client goes away.
func HandleNotifyWS(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			tool.DefaultLogger.Debugf("notify-ws upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		hub.Register(conn)
		defer hub.Unregister(conn)
		tool.DefaultLogger.Debugf("notify-ws client connected from %s", c.ClientIP())

		// Greet so the client knows the channel is live before the first
		// booth event arrives.
		hello, err := sonic.Marshal(&types.Notification{Type: "connected", Title: "Event channel ready"})
		if err == nil {
			if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
				return
			}
		}

		// Drain client frames; the read error is the disconnect signal.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
