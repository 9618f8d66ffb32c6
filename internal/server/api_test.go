package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sjawhar/voicebrief/internal/session"
	"github.com/sjawhar/voicebrief/internal/storage"
)

type serviceStub struct {
	startErr  error
	stopErr   error
	retryErr  error
	summary   string
	sessions  []session.Info
	lastStart string
	lastStop  string
}

func (s *serviceStub) Start(sessionID string) error {
	s.lastStart = sessionID
	return s.startErr
}

func (s *serviceStub) Stop(_ context.Context, sessionID string) (string, error) {
	s.lastStop = sessionID
	if s.stopErr != nil {
		return "", s.stopErr
	}
	return s.summary, nil
}

func (s *serviceStub) Retry(_ context.Context, sessionID string) (string, error) {
	if s.retryErr != nil {
		return "", s.retryErr
	}
	return s.summary, nil
}

func (s *serviceStub) Sessions() []session.Info {
	return s.sessions
}

type gatewayStub struct{}

func (gatewayStub) Connect(string, session.DisplayHandle) {}
func (gatewayStub) Disconnect(string, string)             {}
func (gatewayStub) HandleTranscript(string, string, bool) {}

type recordingLogStub struct {
	recs map[string][]storage.Recording
}

func (s recordingLogStub) Recordings(sessionID string) ([]storage.Recording, error) {
	return s.recs[sessionID], nil
}

func newTestHandler(svc RecordingService) http.Handler {
	return Handler(NewHub(), svc, gatewayStub{}, recordingLogStub{recs: map[string][]storage.Recording{}}, time.Second)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return payload
}

func TestAPIStartSuccess(t *testing.T) {
	svc := &serviceStub{}
	h := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/start?sessionId=s1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	payload := decodeBody(t, rr)
	if payload["success"] != true {
		t.Fatalf("expected success true, got %#v", payload)
	}
	if svc.lastStart != "s1" {
		t.Fatalf("expected start for s1, got %q", svc.lastStart)
	}
}

func TestAPIStartSessionNotFound(t *testing.T) {
	svc := &serviceStub{startErr: session.ErrSessionNotFound}
	h := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/start?sessionId=missing", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	payload := decodeBody(t, rr)
	if payload["error"] != "Session not found" {
		t.Fatalf("expected fixed error message, got %#v", payload)
	}
}

func TestAPIStopSuccess(t *testing.T) {
	svc := &serviceStub{summary: "Said hello"}
	h := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/stop?sessionId=s1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	payload := decodeBody(t, rr)
	if payload["success"] != true || payload["summary"] != "Said hello" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestAPIStopErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "not recording", err: session.ErrNotRecording, wantStatus: http.StatusBadRequest, wantError: "Not recording"},
		{name: "session not found", err: session.ErrSessionNotFound, wantStatus: http.StatusNotFound, wantError: "Session not found"},
		{name: "summarization failed", err: context.DeadlineExceeded, wantStatus: http.StatusInternalServerError, wantError: "Failed to generate summary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&serviceStub{stopErr: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/api/stop?sessionId=s1", nil)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			payload := decodeBody(t, rr)
			if payload["error"] != tt.wantError {
				t.Fatalf("expected error %q, got %#v", tt.wantError, payload)
			}
		})
	}
}

func TestAPIRejectsInvalidSessionID(t *testing.T) {
	h := newTestHandler(&serviceStub{})

	for _, target := range []string{"/api/start", "/api/start?sessionId=", "/api/start?sessionId=a/b"} {
		req := httptest.NewRequest(http.MethodPost, target, nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status 400, got %d", target, rr.Code)
		}
	}
}

func TestAPIRetry(t *testing.T) {
	svc := &serviceStub{summary: "Recovered"}
	h := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/retry?sessionId=s1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	payload := decodeBody(t, rr)
	if payload["summary"] != "Recovered" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestAPISessionsAndStatus(t *testing.T) {
	svc := &serviceStub{sessions: []session.Info{
		{SessionID: "a", Recording: true, ConnectedAt: time.Now().UTC()},
		{SessionID: "b", Recording: false, ConnectedAt: time.Now().UTC()},
	}}
	h := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); !strings.Contains(got, "application/json") {
		t.Fatalf("expected json content type, got %q", got)
	}

	var infos []session.Info
	if err := json.Unmarshal(rr.Body.Bytes(), &infos); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(infos))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	payload := decodeBody(t, rr)
	if payload["sessions"] != float64(2) || payload["recording"] != float64(1) {
		t.Fatalf("unexpected status payload: %#v", payload)
	}
}

func TestAPIRecordings(t *testing.T) {
	started := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	log := recordingLogStub{recs: map[string][]storage.Recording{
		"s1": {{ID: 1, SessionID: "s1", StartedAt: started, Summary: "Said hello", SummaryStatus: storage.SummaryCompleted}},
	}}
	h := Handler(NewHub(), &serviceStub{}, gatewayStub{}, log, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/recordings?sessionId=s1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var recs []storage.Recording
	if err := json.Unmarshal(rr.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode recordings: %v", err)
	}
	if len(recs) != 1 || recs[0].Summary != "Said hello" {
		t.Fatalf("unexpected recordings: %#v", recs)
	}
}
