// Package websocket exposes the realtime hub over a WebSocket endpoint.
package websocket

import (
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"growthkit/realtime"
)

const writeTimeout = 5 * time.Second

// Handler returns an http.Handler that upgrades to WebSocket and streams
// score events from the hub until the client disconnects.
func Handler(hub *realtime.Hub) http.Handler {
	upgrader := gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		id, ch := hub.Subscribe(256)
		defer hub.Unsubscribe(id)

		for ev := range ch {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(gorillaws.TextMessage, realtime.MarshalJSON(ev)); err != nil {
				return
			}
		}
	})
}
