package http

import (
	"log"
	"net/http"

	"daily-trivia-service/internal/app"
	"github.com/gorilla/websocket"
)

// WSFeed streams countdown ticks and state changes for one session so the
// UI layer can update its rendering live.
type WSFeed struct {
	engine   *app.Engine
	upgrader websocket.Upgrader
}

func NewWSFeed(engine *app.Engine) *WSFeed {
	return &WSFeed{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request and forwards the session's event feed until
// the session ends or the client disconnects.
func (f *WSFeed) ServeWS(w http.ResponseWriter, r *http.Request) {
	participantID := r.URL.Query().Get("participantId")
	communityID := r.URL.Query().Get("communityId")
	if participantID == "" || communityID == "" {
		http.Error(w, "missing participantId or communityId", http.StatusBadRequest)
		return
	}

	events, cancel, err := f.engine.Subscribe(participantID, communityID)
	if err != nil {
		http.Error(w, "quiz session not found", http.StatusNotFound)
		return
	}
	defer cancel()

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain reads so close frames and pings are processed.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[app.Event]{Type: ev.Type, Payload: ev}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
			if ev.Session.Stage.Terminal() {
				return
			}
		case <-done:
			return
		}
	}
}
