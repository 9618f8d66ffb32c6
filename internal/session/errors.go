package session

import "errors"

// ErrSessionNotFound is returned when a request references a session id with
// no live registry entry.
var ErrSessionNotFound = errors.New("session not found")

// ErrNotRecording is returned by Stop when the session is idle.
var ErrNotRecording = errors.New("not recording")
