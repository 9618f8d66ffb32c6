package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sjawhar/voicebrief/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SessionGateway is the slice of the controller the transport needs: connect
// and disconnect notifications plus the transcription feed.
type SessionGateway interface {
	Connect(sessionID string, handle session.DisplayHandle)
	Disconnect(sessionID, reason string)
	HandleTranscript(sessionID, text string, isFinal bool)
}

// transcriptMessage is the inbound frame on a session socket.
type transcriptMessage struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

type noticeMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// displayConn adapts one websocket connection into a session.DisplayHandle.
// Writes are serialized by the mutex; notices after close are dropped.
type displayConn struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func (d *displayConn) Notify(text string) {
	payload, err := json.Marshal(noticeMessage{Type: "notice", Text: text})
	if err != nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if err := d.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		d.closed = true
	}
}

func (d *displayConn) shutdown() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	_ = d.conn.Close()
}

func registerSessionWSRoute(mux *http.ServeMux, gateway SessionGateway) {
	mux.HandleFunc("GET /ws/session", func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("sessionId")
		if !validSessionID(sessionID) {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ws upgrade error: %v", err)
			return
		}

		display := &displayConn{conn: conn}
		gateway.Connect(sessionID, display)

		reason := "closed"
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					reason = "error"
				}
				break
			}

			var msg transcriptMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				log.Printf("session %s: bad frame: %v", sessionID, err)
				continue
			}
			if msg.Type != "transcript" {
				continue
			}

			gateway.HandleTranscript(sessionID, msg.Text, msg.IsFinal)
		}

		display.shutdown()
		gateway.Disconnect(sessionID, reason)
	})
}

func registerEventsWSRoute(mux *http.ServeMux, hub *Hub) {
	mux.HandleFunc("GET /ws/events", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ws upgrade error: %v", err)
			return
		}
		defer func() { _ = conn.Close() }()

		connectionEvent := ConnectionEvent{
			Event:     newEvent("connection", time.Now().UTC()),
			Connected: true,
		}
		payload, err := json.Marshal(connectionEvent)
		if err == nil {
			_ = conn.WriteMessage(websocket.TextMessage, payload)
		}

		ch := hub.Subscribe()
		defer hub.Unsubscribe(ch)

		for msg := range ch {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	})
}
