package history

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db      *sql.DB
	closed  bool
	writeMu sync.Mutex
}

// NewSQLiteStore creates a new SQLite upload journal
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Configure SQLite for concurrent access
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=2000&_busy_timeout=60000", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(10 * time.Minute)

	store := &SQLiteStore{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS uploads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		filename TEXT NOT NULL,
		key TEXT NOT NULL,
		size INTEGER NOT NULL,
		status TEXT NOT NULL,
		presigned INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_uploads_username ON uploads(username, created_at);
	`

	_, err := s.db.Exec(query)
	return err
}

// SaveRecord appends one upload outcome with retry mechanism
func (s *SQLiteStore) SaveRecord(record *Record) error {
	if s.closed {
		return fmt.Errorf("database store is closed")
	}

	// Serialize writes to avoid SQLITE_BUSY from multiple concurrent writers
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.retryOnBusy(func() error {
		return s.insertRecord(record)
	})
}

func (s *SQLiteStore) insertRecord(record *Record) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	query := `
	INSERT INTO uploads (username, filename, key, size, status, presigned, last_error, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		record.Username,
		record.Filename,
		record.Key,
		record.Size,
		record.Status,
		record.Presigned,
		record.LastError,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// ListByUser returns the most recent records for a user, newest first
func (s *SQLiteStore) ListByUser(username string, limit int) ([]*Record, error) {
	if s.closed {
		return nil, fmt.Errorf("database store is closed")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT username, filename, key, size, status, presigned, last_error, created_at
	FROM uploads WHERE username = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ?
	`

	rows, err := s.db.Query(query, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record

	for rows.Next() {
		var record Record
		var lastError sql.NullString

		err := rows.Scan(
			&record.Username,
			&record.Filename,
			&record.Key,
			&record.Size,
			&record.Status,
			&record.Presigned,
			&lastError,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if lastError.Valid {
			record.LastError = lastError.String
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}

// retryOnBusy retries the operation if SQLite is busy
func (s *SQLiteStore) retryOnBusy(operation func() error) error {
	maxRetries := 10
	baseDelay := 50 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if isSQLiteBusyError(err) {
			if attempt < maxRetries-1 {
				delay := baseDelay * time.Duration(1<<uint(attempt))
				jitter := time.Duration(attempt*10) * time.Millisecond
				time.Sleep(delay + jitter)
				continue
			}
		}

		return err
	}

	return nil
}

// isSQLiteBusyError checks if the error is a SQLite busy error
func isSQLiteBusyError(err error) bool {
	if err == nil {
		return false
	}
	errorStr := err.Error()
	return strings.Contains(errorStr, "database is locked") ||
		strings.Contains(errorStr, "SQLITE_BUSY") ||
		strings.Contains(errorStr, "database is closed")
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.closed = true
	return s.db.Close()
}
