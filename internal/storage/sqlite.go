package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	SummaryPending   = "pending"
	SummaryCompleted = "completed"
	SummaryFailed    = "failed"
)

// Recording is one start/stop cycle of a session.
type Recording struct {
	ID            int64      `json:"id"`
	SessionID     string     `json:"session_id"`
	StartedAt     time.Time  `json:"started_at"`
	StoppedAt     *time.Time `json:"stopped_at,omitempty"`
	Transcript    string     `json:"transcript"`
	Summary       string     `json:"summary"`
	SummaryStatus string     `json:"summary_status"`
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		dbPath = filepath.Join("data", "voicebrief.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS recordings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			started_at TEXT NOT NULL,
			stopped_at TEXT,
			transcript TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			summary_status TEXT NOT NULL DEFAULT 'pending'
		);
	`); err != nil {
		return fmt.Errorf("create recordings table: %w", err)
	}

	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_recordings_session_id ON recordings(session_id, started_at)"); err != nil {
		return fmt.Errorf("create recordings index: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) OpenRecording(sessionID string, startedAt time.Time) (int64, error) {
	if strings.TrimSpace(sessionID) == "" {
		return 0, errors.New("session id is required")
	}

	res, err := s.db.Exec(
		`INSERT INTO recordings(session_id, started_at, summary_status) VALUES(?, ?, ?)`,
		sessionID,
		startedAt.UTC().Format(time.RFC3339Nano),
		SummaryPending,
	)
	if err != nil {
		return 0, fmt.Errorf("open recording for session %s: %w", sessionID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("open recording insert id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) CloseRecording(id int64, stoppedAt time.Time, transcript string) error {
	res, err := s.db.Exec(
		`UPDATE recordings SET stopped_at = ?, transcript = ? WHERE id = ?`,
		stoppedAt.UTC().Format(time.RFC3339Nano),
		transcript,
		id,
	)
	if err != nil {
		return fmt.Errorf("close recording %d: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close recording rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *SQLiteStore) UpdateSummary(id int64, summary, status string) error {
	res, err := s.db.Exec(
		`UPDATE recordings SET summary = ?, summary_status = ? WHERE id = ?`,
		summary,
		status,
		id,
	)
	if err != nil {
		return fmt.Errorf("update summary for recording %d: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update summary rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *SQLiteStore) Recordings(sessionID string) ([]Recording, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, started_at, stopped_at, transcript, summary, summary_status
		 FROM recordings
		 WHERE session_id = ?
		 ORDER BY started_at DESC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query recordings for session %s: %w", sessionID, err)
	}
	defer func() { _ = rows.Close() }()

	recordings := make([]Recording, 0, 16)
	for rows.Next() {
		var rec Recording
		var startedAt string
		var stoppedAt sql.NullString
		if err := rows.Scan(&rec.ID, &rec.SessionID, &startedAt, &stoppedAt, &rec.Transcript, &rec.Summary, &rec.SummaryStatus); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}

		parsedStart, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		rec.StartedAt = parsedStart

		if stoppedAt.Valid {
			parsedStop, err := time.Parse(time.RFC3339Nano, stoppedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse stopped_at: %w", err)
			}
			rec.StoppedAt = &parsedStop
		}

		recordings = append(recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recording rows: %w", err)
	}

	return recordings, nil
}

func (s *SQLiteStore) GetRecording(id int64) (Recording, error) {
	row := s.db.QueryRow(
		`SELECT id, session_id, started_at, stopped_at, transcript, summary, summary_status FROM recordings WHERE id = ?`,
		id,
	)

	var rec Recording
	var startedAt string
	var stoppedAt sql.NullString
	if err := row.Scan(&rec.ID, &rec.SessionID, &startedAt, &stoppedAt, &rec.Transcript, &rec.Summary, &rec.SummaryStatus); err != nil {
		return Recording{}, fmt.Errorf("query recording %d: %w", id, err)
	}

	parsedStart, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Recording{}, fmt.Errorf("parse recording %d started_at: %w", id, err)
	}
	rec.StartedAt = parsedStart

	if stoppedAt.Valid {
		parsedStop, err := time.Parse(time.RFC3339Nano, stoppedAt.String)
		if err != nil {
			return Recording{}, fmt.Errorf("parse recording %d stopped_at: %w", id, err)
		}
		rec.StoppedAt = &parsedStop
	}

	return rec, nil
}
