package history

import (
	"time"
)

// Status records how far an upload attempt got
type Status string

const (
	StatusStored Status = "stored"
	StatusLinked Status = "linked"
	StatusFailed Status = "failed"
)

// Record is one row of the upload journal
type Record struct {
	Username  string    `json:"username"`
	Filename  string    `json:"filename"`
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	Status    Status    `json:"status"`
	Presigned bool      `json:"presigned"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store defines the interface for upload journal persistence
type Store interface {
	// SaveRecord appends one upload outcome to the journal
	SaveRecord(record *Record) error
	// ListByUser returns the most recent records for a user, newest first
	ListByUser(username string, limit int) ([]*Record, error)

	// Cleanup
	Close() error
}
