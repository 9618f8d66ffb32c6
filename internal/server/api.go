package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/sjawhar/voicebrief/internal/session"
	"github.com/sjawhar/voicebrief/internal/storage"
)

var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// RecordingService is the slice of the controller the request boundary needs.
type RecordingService interface {
	Start(sessionID string) error
	Stop(ctx context.Context, sessionID string) (string, error)
	Retry(ctx context.Context, sessionID string) (string, error)
	Sessions() []session.Info
}

// RecordingLog reads stored recording history.
type RecordingLog interface {
	Recordings(sessionID string) ([]storage.Recording, error)
}

func registerAPIRoutes(mux *http.ServeMux, svc RecordingService, recordings RecordingLog, summaryTimeout time.Duration) {
	mux.HandleFunc("POST /api/start", func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requestSessionID(w, r)
		if !ok {
			return
		}

		if err := svc.Start(sessionID); err != nil {
			writeRecordingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	mux.HandleFunc("POST /api/stop", func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requestSessionID(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), summaryTimeout)
		defer cancel()

		summaryText, err := svc.Stop(ctx, sessionID)
		if err != nil {
			writeRecordingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "summary": summaryText})
	})

	mux.HandleFunc("POST /api/retry", func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requestSessionID(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), summaryTimeout)
		defer cancel()

		summaryText, err := svc.Retry(ctx, sessionID)
		if err != nil {
			writeRecordingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "summary": summaryText})
	})

	mux.HandleFunc("GET /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Sessions())
	})

	mux.HandleFunc("GET /api/recordings", func(w http.ResponseWriter, r *http.Request) {
		if recordings == nil {
			writeJSON(w, http.StatusOK, []storage.Recording{})
			return
		}

		sessionID, ok := requestSessionID(w, r)
		if !ok {
			return
		}

		recs, err := recordings.Recordings(sessionID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "Failed to list recordings")
			return
		}
		writeJSON(w, http.StatusOK, recs)
	})

	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		infos := svc.Sessions()
		recording := 0
		for _, info := range infos {
			if info.Recording {
				recording++
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"sessions":  len(infos),
			"recording": recording,
		})
	})
}

func requestSessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := r.URL.Query().Get("sessionId")
	if !validSessionID(sessionID) {
		writeJSONError(w, http.StatusBadRequest, "Invalid session id")
		return "", false
	}
	return sessionID, true
}

// writeRecordingError maps the controller's error taxonomy onto the status
// codes and fixed messages the request boundary promises.
func writeRecordingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeJSONError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, session.ErrNotRecording):
		writeJSONError(w, http.StatusBadRequest, "Not recording")
	default:
		writeJSONError(w, http.StatusInternalServerError, "Failed to generate summary")
	}
}

func validSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
