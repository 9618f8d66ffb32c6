package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Hub fans recording lifecycle events out to observer websocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan []byte]struct{})}
}

func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (h *Hub) BroadcastSessionConnected(sessionID string) {
	h.broadcastEvent(SessionConnectedEvent{
		Event:     newEvent("session_connected", time.Now().UTC()),
		SessionID: sessionID,
	})
}

func (h *Hub) BroadcastSessionDisconnected(sessionID, reason string) {
	h.broadcastEvent(SessionDisconnectedEvent{
		Event:     newEvent("session_disconnected", time.Now().UTC()),
		SessionID: sessionID,
		Reason:    reason,
	})
}

func (h *Hub) BroadcastRecordingStarted(sessionID string) {
	h.broadcastEvent(RecordingStartedEvent{
		Event:     newEvent("recording_started", time.Now().UTC()),
		SessionID: sessionID,
	})
}

func (h *Hub) BroadcastRecordingStopped(sessionID string, duration time.Duration) {
	h.broadcastEvent(RecordingStoppedEvent{
		Event:     newEvent("recording_stopped", time.Now().UTC()),
		SessionID: sessionID,
		Duration:  duration.Seconds(),
	})
}

func (h *Hub) BroadcastLiveTranscript(sessionID, text string, isFinal bool) {
	h.broadcastEvent(LiveTranscriptEvent{
		Event:     newEvent("live_transcript", time.Now().UTC()),
		SessionID: sessionID,
		Text:      text,
		IsFinal:   isFinal,
	})
}

func (h *Hub) BroadcastSummaryReady(sessionID, summary, status string) {
	h.broadcastEvent(SummaryReadyEvent{
		Event:     newEvent("summary_ready", time.Now().UTC()),
		SessionID: sessionID,
		Summary:   summary,
		Status:    status,
	})
}

func (h *Hub) broadcastEvent(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}
	h.Broadcast(payload)
}
