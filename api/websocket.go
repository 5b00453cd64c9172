package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait      = 10 * time.Second
	wsMaxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return isAllowedOrigin(r.Header.Get("Origin"))
	},
}

// handleCompileWS upgrades the connection, reads exactly one compile
// request, and streams one StageEvent per pipeline stage back to the
// client. The connection closes once the "done" event has been sent.
func (s *Server) handleCompileWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		apiLog.Printf("websocket upgrade error: %v", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			apiLog.Printf("websocket close error: %v", err)
		}
	}()

	conn.SetReadLimit(wsMaxMessageSize)

	var req CompileRequest
	if err := conn.ReadJSON(&req); err != nil {
		apiLog.Printf("websocket read error: %v", err)
		return
	}

	runCompileStaged(req.Source, func(ev StageEvent) {
		if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
			apiLog.Printf("websocket write deadline error: %v", err)
			return
		}
		if err := conn.WriteJSON(ev); err != nil {
			apiLog.Printf("websocket write error: %v", err)
		}
	})
}
