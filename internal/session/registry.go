package session

import (
	"sort"
	"sync"
	"time"

	"github.com/sjawhar/voicebrief/internal/transcript"
)

type entry struct {
	handle      DisplayHandle
	connectedAt time.Time

	recording   bool
	buffer      *transcript.Accumulator
	recordingID int64
	startedAt   time.Time

	// lastTranscript holds the most recent stopped recording's snapshot so a
	// failed summarization can be retried without the original audio.
	lastTranscript  string
	lastRecordingID int64
}

// Registry owns the process-wide session map and the per-session recording
// state. Every recording-state transition happens inside one mutex scope, so
// a fragment dispatched after Stop's flag flip can never reach the buffer.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Connect registers a session with a fresh idle recording state. A duplicate
// connect overwrites the previous entry; the caller learns via the return
// value so it can log the replacement.
func (r *Registry) Connect(sessionID string, handle DisplayHandle) (replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced = r.entries[sessionID]
	r.entries[sessionID] = &entry{
		handle:      handle,
		connectedAt: r.now().UTC(),
		buffer:      transcript.NewAccumulator(),
	}
	return replaced
}

// Disconnect removes the session record and its recording state in one step.
// Unknown ids are a no-op.
func (r *Registry) Disconnect(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[sessionID]; !ok {
		return false
	}
	delete(r.entries, sessionID)
	return true
}

// Lookup returns the display handle for a live session.
func (r *Registry) Lookup(sessionID string) (DisplayHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	if !ok {
		return nil, false
	}
	return e.handle, true
}

// StartRecording flips the session to recording and clears any prior
// transcript. Starting an already-recording session re-arms it the same way.
func (r *Registry) StartRecording(sessionID string, recordingID int64) (DisplayHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	e.recording = true
	e.buffer.Reset()
	e.recordingID = recordingID
	e.startedAt = r.now().UTC()
	return e.handle, nil
}

// StopResult is the state captured atomically when a recording stops.
type StopResult struct {
	Transcript  string
	RecordingID int64
	StartedAt   time.Time
	StoppedAt   time.Time
}

// StopRecording flips the session to idle and snapshots the transcript in the
// same critical section, then retains the snapshot for retries.
func (r *Registry) StopRecording(sessionID string) (StopResult, DisplayHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	if !ok {
		return StopResult{}, nil, ErrSessionNotFound
	}
	if !e.recording {
		return StopResult{}, nil, ErrNotRecording
	}

	res := StopResult{
		Transcript:  e.buffer.Snapshot(),
		RecordingID: e.recordingID,
		StartedAt:   e.startedAt,
		StoppedAt:   r.now().UTC(),
	}

	e.recording = false
	e.buffer.Reset()
	e.lastTranscript = res.Transcript
	e.lastRecordingID = res.RecordingID
	e.recordingID = 0
	e.startedAt = time.Time{}

	return res, e.handle, nil
}

// AppendFragment adds a settled fragment to the session's transcript. It
// reports whether the fragment was retained; fragments for unknown or idle
// sessions are dropped.
func (r *Registry) AppendFragment(sessionID, fragment string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	if !ok || !e.recording {
		return false
	}
	e.buffer.Append(fragment)
	return true
}

// IsRecording reports whether a session exists and is currently recording.
func (r *Registry) IsRecording(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	return ok && e.recording
}

// LastTranscript returns the snapshot retained by the most recent stop.
func (r *Registry) LastTranscript(sessionID string) (string, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	if !ok {
		return "", 0, ErrSessionNotFound
	}
	return e.lastTranscript, e.lastRecordingID, nil
}

// Sessions lists live sessions ordered by id.
func (r *Registry) Sessions() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]Info, 0, len(r.entries))
	for id, e := range r.entries {
		infos = append(infos, Info{
			SessionID:   id,
			Recording:   e.recording,
			ConnectedAt: e.connectedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].SessionID < infos[j].SessionID })
	return infos
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
