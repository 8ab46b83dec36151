package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteJournal creates a new SQLite-backed journal. Use ":memory:"
// for an in-memory database, or a file path for persistent storage.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	j := &SQLiteJournal{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return j, nil
}

func (j *SQLiteJournal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		action_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload BLOB,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_session_id ON actions(session_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON actions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_action_type ON actions(action_type);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Append adds an action to the journal.
func (j *SQLiteJournal) Append(ctx context.Context, sessionID, actionType string, payload []byte, metadata map[string]string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var metadataJSON []byte
	if metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	timestamp := time.Now().UnixMilli()
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO actions (session_id, action_type, timestamp, payload, metadata) VALUES (?, ?, ?, ?, ?)",
		sessionID, actionType, timestamp, payload, metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}

	return nil
}

// GetBySession retrieves all actions for a session, in dispatch order.
func (j *SQLiteJournal) GetBySession(ctx context.Context, sessionID string) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx,
		"SELECT id, session_id, action_type, timestamp, payload, metadata FROM actions WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	return j.scanEntries(rows)
}

// GetRange retrieves actions within a time range.
func (j *SQLiteJournal) GetRange(ctx context.Context, start, end time.Time) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx,
		"SELECT id, session_id, action_type, timestamp, payload, metadata FROM actions WHERE timestamp >= ? AND timestamp <= ? ORDER BY id",
		start.UnixMilli(), end.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	return j.scanEntries(rows)
}

// Sessions lists the distinct session IDs present in the journal,
// oldest first.
func (j *SQLiteJournal) Sessions(ctx context.Context) ([]string, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx,
		"SELECT session_id FROM actions GROUP BY session_id ORDER BY MIN(id)",
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return sessions, nil
}

func (j *SQLiteJournal) scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var timestampMilli int64
		var metadataJSON []byte

		err := rows.Scan(&e.ID, &e.SessionID, &e.Type, &timestampMilli, &e.Payload, &metadataJSON)
		if err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}

		e.Timestamp = time.UnixMilli(timestampMilli)

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}
