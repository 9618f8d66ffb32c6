package session

import (
	"errors"
	"sync"
	"testing"
)

type displayMock struct {
	mu      sync.Mutex
	notices []string
}

func (d *displayMock) Notify(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notices = append(d.notices, text)
}

func (d *displayMock) all() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.notices...)
}

func TestRegistryConnectLookupDisconnect(t *testing.T) {
	r := NewRegistry()
	display := &displayMock{}

	if replaced := r.Connect("s1", display); replaced {
		t.Fatal("first connect should not report replacement")
	}

	handle, ok := r.Lookup("s1")
	if !ok {
		t.Fatal("expected lookup to find s1")
	}
	if handle != DisplayHandle(display) {
		t.Fatal("expected lookup to return the registered handle")
	}

	if removed := r.Disconnect("s1"); !removed {
		t.Fatal("expected disconnect to remove s1")
	}
	if _, ok := r.Lookup("s1"); ok {
		t.Fatal("expected s1 to be gone after disconnect")
	}
	if removed := r.Disconnect("s1"); removed {
		t.Fatal("expected second disconnect to be a no-op")
	}
}

func TestRegistryDuplicateConnectOverwrites(t *testing.T) {
	r := NewRegistry()
	first := &displayMock{}
	second := &displayMock{}

	r.Connect("s1", first)
	if _, err := r.StartRecording("s1", 0); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	r.AppendFragment("s1", "stale")

	if replaced := r.Connect("s1", second); !replaced {
		t.Fatal("expected duplicate connect to report replacement")
	}

	// Last-writer-wins: the new entry has a fresh idle state.
	if r.IsRecording("s1") {
		t.Fatal("expected overwritten entry to be idle")
	}
	handle, _ := r.Lookup("s1")
	if handle != DisplayHandle(second) {
		t.Fatal("expected lookup to return the newer handle")
	}
}

func TestRegistryAppendOnlyWhileRecording(t *testing.T) {
	r := NewRegistry()
	r.Connect("s1", &displayMock{})

	if appended := r.AppendFragment("s1", "dropped"); appended {
		t.Fatal("expected fragment for idle session to be dropped")
	}
	if appended := r.AppendFragment("missing", "dropped"); appended {
		t.Fatal("expected fragment for unknown session to be dropped")
	}

	if _, err := r.StartRecording("s1", 0); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	if appended := r.AppendFragment("s1", "hello"); !appended {
		t.Fatal("expected fragment to be retained while recording")
	}

	res, _, err := r.StopRecording("s1")
	if err != nil {
		t.Fatalf("StopRecording failed: %v", err)
	}
	if res.Transcript != "hello " {
		t.Fatalf("expected transcript %q, got %q", "hello ", res.Transcript)
	}
}

func TestRegistryStartClearsTranscript(t *testing.T) {
	r := NewRegistry()
	r.Connect("s1", &displayMock{})

	if _, err := r.StartRecording("s1", 0); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	r.AppendFragment("s1", "first take")

	// Re-arm while already recording clears the buffer.
	if _, err := r.StartRecording("s1", 0); err != nil {
		t.Fatalf("second StartRecording failed: %v", err)
	}

	res, _, err := r.StopRecording("s1")
	if err != nil {
		t.Fatalf("StopRecording failed: %v", err)
	}
	if res.Transcript != "" {
		t.Fatalf("expected empty transcript after re-arm, got %q", res.Transcript)
	}
}

func TestRegistryStopWhileIdle(t *testing.T) {
	r := NewRegistry()
	r.Connect("s1", &displayMock{})

	if _, _, err := r.StopRecording("s1"); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording, got %v", err)
	}
	if _, _, err := r.StopRecording("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRegistryRetainsLastTranscript(t *testing.T) {
	r := NewRegistry()
	r.Connect("s1", &displayMock{})

	if _, err := r.StartRecording("s1", 7); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	r.AppendFragment("s1", "keep me")
	if _, _, err := r.StopRecording("s1"); err != nil {
		t.Fatalf("StopRecording failed: %v", err)
	}

	last, recordingID, err := r.LastTranscript("s1")
	if err != nil {
		t.Fatalf("LastTranscript failed: %v", err)
	}
	if last != "keep me " {
		t.Fatalf("expected retained transcript %q, got %q", "keep me ", last)
	}
	if recordingID != 7 {
		t.Fatalf("expected retained recording id 7, got %d", recordingID)
	}

	if _, _, err := r.LastTranscript("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRegistrySessions(t *testing.T) {
	r := NewRegistry()
	r.Connect("b", &displayMock{})
	r.Connect("a", &displayMock{})
	if _, err := r.StartRecording("a", 0); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}

	infos := r.Sessions()
	if len(infos) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(infos))
	}
	if infos[0].SessionID != "a" || infos[1].SessionID != "b" {
		t.Fatalf("expected sessions sorted by id, got %#v", infos)
	}
	if !infos[0].Recording || infos[1].Recording {
		t.Fatalf("unexpected recording flags: %#v", infos)
	}
	if r.Len() != 2 {
		t.Fatalf("expected Len 2, got %d", r.Len())
	}
}
