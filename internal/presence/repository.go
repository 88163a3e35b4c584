package presence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Paging limits for Recent.
const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 200
)

// timestampFormat is fixed-width so created_at sorts correctly as text.
const timestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Repository stores presence events.
type Repository interface {
	Record(ctx context.Context, event *Event) error
	Recent(ctx context.Context, deviceID string, limit int) ([]Event, error)
}

// SQLiteRepository stores presence events in the presence_events table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts an event. ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Record(ctx context.Context, event *Event) error {
	if event.ID == "" {
		event.ID = "prs-" + uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO presence_events (id, device_id, action, restarted, already_stopped, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.DeviceID, event.Action,
		boolToInt(event.Restarted), boolToInt(event.AlreadyStopped),
		nullableString(event.Note),
		event.CreatedAt.UTC().Format(timestampFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting presence event: %w", err)
	}

	return nil
}

// Recent returns up to limit events for deviceID, newest first.
// A limit of zero or less selects DefaultRecentLimit; larger values are
// capped at MaxRecentLimit.
func (r *SQLiteRepository) Recent(ctx context.Context, deviceID string, limit int) ([]Event, error) {
	limit = clampLimit(limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_id, action, restarted, already_stopped, note, created_at
		 FROM presence_events
		 WHERE device_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		deviceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying presence events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	for rows.Next() {
		var (
			e                         Event
			restarted, alreadyStopped int
			note                      sql.NullString
			createdAt                 string
		)
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.Action,
			&restarted, &alreadyStopped, &note, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning presence event: %w", err)
		}

		e.Restarted = restarted != 0
		e.AlreadyStopped = alreadyStopped != 0
		if note.Valid {
			e.Note = note.String
		}

		t, err := time.Parse(timestampFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing presence event timestamp %q: %w", createdAt, err)
		}
		e.CreatedAt = t

		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating presence events: %w", err)
	}

	return events, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	return min(limit, MaxRecentLimit)
}

// nullableString returns nil for empty strings so optional TEXT columns
// store NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
