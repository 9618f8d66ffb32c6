package session

import (
	"context"
	"time"
)

// DisplayHandle pushes a one-line notice to the device behind a session.
// Implementations are best-effort: a notice sent to a closed connection is
// dropped, never an error.
type DisplayHandle interface {
	Notify(text string)
}

// Summarizer reduces an accumulated transcript to a single descriptive line.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// RecordingStore persists recording history. Live state stays in the
// Registry; the store only feeds history queries and summary retries.
type RecordingStore interface {
	OpenRecording(sessionID string, startedAt time.Time) (int64, error)
	CloseRecording(id int64, stoppedAt time.Time, transcript string) error
	UpdateSummary(id int64, summary, status string) error
}

// EventBroadcaster fans recording lifecycle events out to observers.
type EventBroadcaster interface {
	BroadcastSessionConnected(sessionID string)
	BroadcastSessionDisconnected(sessionID, reason string)
	BroadcastRecordingStarted(sessionID string)
	BroadcastRecordingStopped(sessionID string, duration time.Duration)
	BroadcastLiveTranscript(sessionID, text string, isFinal bool)
	BroadcastSummaryReady(sessionID, summary, status string)
}

// Info describes one live session for status endpoints.
type Info struct {
	SessionID   string    `json:"session_id"`
	Recording   bool      `json:"recording"`
	ConnectedAt time.Time `json:"connected_at"`
}
