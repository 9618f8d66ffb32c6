package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sjawhar/voicebrief/internal/storage"
)

const (
	noticeConnected  = "connected. start a recording when ready."
	noticeRecording  = "recording..."
	noticeProcessing = "processing..."
	noticeFailed     = "couldn't generate a summary. try again."
)

// Controller drives the per-session recording state machine: start/stop
// commands from the request boundary, the streamed transcription feed, and
// summarization on stop.
type Controller struct {
	registry   *Registry
	summarizer Summarizer
	store      RecordingStore
	hub        EventBroadcaster
	watchdog   *Watchdog
}

func NewController(registry *Registry, summarizer Summarizer, store RecordingStore, hub EventBroadcaster, watchdog *Watchdog) *Controller {
	if registry == nil {
		registry = NewRegistry()
	}
	if watchdog == nil {
		watchdog = NewWatchdog(0)
	}

	c := &Controller{
		registry:   registry,
		summarizer: summarizer,
		store:      store,
		hub:        hub,
		watchdog:   watchdog,
	}

	watchdog.OnExpire(func(sessionID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := c.Stop(ctx, sessionID); err != nil {
			slog.Warn("watchdog stop failed", "session_id", sessionID, "error", err)
		}
	})

	return c
}

// Connect registers a freshly connected session and greets its display.
func (c *Controller) Connect(sessionID string, handle DisplayHandle) {
	if replaced := c.registry.Connect(sessionID, handle); replaced {
		slog.Warn("duplicate connect replaced live session", "session_id", sessionID)
	}

	if handle != nil {
		handle.Notify(noticeConnected)
	}
	if c.hub != nil {
		c.hub.BroadcastSessionConnected(sessionID)
	}
}

// Disconnect tears the session down. An in-flight summarization for the
// session is left to finish; its display emit becomes a no-op.
func (c *Controller) Disconnect(sessionID, reason string) {
	c.watchdog.Disarm(sessionID)
	if removed := c.registry.Disconnect(sessionID); !removed {
		return
	}
	if c.hub != nil {
		c.hub.BroadcastSessionDisconnected(sessionID, reason)
	}
}

// Start flips the session into recording with an empty transcript. Starting
// while already recording re-arms the same way, so the transcript is always
// clean at the top of a recording.
func (c *Controller) Start(sessionID string) error {
	if _, ok := c.registry.Lookup(sessionID); !ok {
		return ErrSessionNotFound
	}

	var recordingID int64
	if c.store != nil {
		id, err := c.store.OpenRecording(sessionID, time.Now().UTC())
		if err != nil {
			slog.Warn("open recording row failed", "session_id", sessionID, "error", err)
		} else {
			recordingID = id
		}
	}

	handle, err := c.registry.StartRecording(sessionID, recordingID)
	if err != nil {
		return err
	}

	c.watchdog.Arm(sessionID)

	if handle != nil {
		handle.Notify(noticeRecording)
	}
	if c.hub != nil {
		c.hub.BroadcastRecordingStarted(sessionID)
	}
	return nil
}

// Stop flips the session to idle, snapshots the transcript, and runs
// summarization over the snapshot. The flip and the snapshot happen in one
// registry critical section before the summarizer is awaited, so fragments
// dispatched after Stop never leak into the summary input.
func (c *Controller) Stop(ctx context.Context, sessionID string) (string, error) {
	res, handle, err := c.registry.StopRecording(sessionID)
	if err != nil {
		return "", err
	}

	c.watchdog.Disarm(sessionID)

	if handle != nil {
		handle.Notify(noticeProcessing)
	}
	if c.hub != nil {
		c.hub.BroadcastRecordingStopped(sessionID, res.StoppedAt.Sub(res.StartedAt))
	}

	if c.store != nil && res.RecordingID != 0 {
		if err := c.store.CloseRecording(res.RecordingID, res.StoppedAt, res.Transcript); err != nil {
			slog.Warn("close recording row failed", "session_id", sessionID, "error", err)
		}
	}

	return c.summarize(ctx, sessionID, res.RecordingID, res.Transcript)
}

// Retry re-summarizes the transcript retained by the session's last stop,
// for when the summarization call failed the first time.
func (c *Controller) Retry(ctx context.Context, sessionID string) (string, error) {
	transcript, recordingID, err := c.registry.LastTranscript(sessionID)
	if err != nil {
		return "", err
	}
	return c.summarize(ctx, sessionID, recordingID, transcript)
}

// HandleTranscript routes one transcription event. Settled fragments are
// appended while recording; interim fragments are surfaced to observers but
// never retained. Events for unknown sessions are dropped.
func (c *Controller) HandleTranscript(sessionID, text string, isFinal bool) {
	if !isFinal {
		if c.hub != nil && c.registry.IsRecording(sessionID) {
			c.hub.BroadcastLiveTranscript(sessionID, text, false)
		}
		return
	}

	if appended := c.registry.AppendFragment(sessionID, text); !appended {
		return
	}

	c.watchdog.Touch(sessionID)
	if c.hub != nil {
		c.hub.BroadcastLiveTranscript(sessionID, text, true)
	}
}

// Sessions lists live sessions for status endpoints.
func (c *Controller) Sessions() []Info {
	return c.registry.Sessions()
}

func (c *Controller) summarize(ctx context.Context, sessionID string, recordingID int64, transcript string) (string, error) {
	summaryText, err := c.summarizer.Summarize(ctx, transcript)
	if err != nil {
		c.notifyIfConnected(sessionID, noticeFailed)
		c.recordSummary(sessionID, recordingID, "", storage.SummaryFailed)
		return "", fmt.Errorf("summarize session %s: %w", sessionID, err)
	}

	c.notifyIfConnected(sessionID, "Summary: "+summaryText)
	c.recordSummary(sessionID, recordingID, summaryText, storage.SummaryCompleted)
	return summaryText, nil
}

// notifyIfConnected re-resolves the handle after the summarization await:
// the session may have disconnected while the call was in flight.
func (c *Controller) notifyIfConnected(sessionID, text string) {
	handle, ok := c.registry.Lookup(sessionID)
	if !ok || handle == nil {
		return
	}
	handle.Notify(text)
}

func (c *Controller) recordSummary(sessionID string, recordingID int64, summaryText, status string) {
	if c.store != nil && recordingID != 0 {
		if err := c.store.UpdateSummary(recordingID, summaryText, status); err != nil {
			slog.Warn("update summary row failed", "session_id", sessionID, "error", err)
		}
	}
	if c.hub != nil {
		c.hub.BroadcastSummaryReady(sessionID, summaryText, status)
	}
}
