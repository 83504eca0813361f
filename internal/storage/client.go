package storage

import (
	"context"
	"io"
	"time"
)

// Client defines the interface for S3-compatible storage operations
type Client interface {
	// EnsureBucket creates the bucket if it does not exist yet
	EnsureBucket(ctx context.Context, bucket string) error

	// PutObject stores reader under key. size must be the exact byte
	// count (-1 if unknown, at the cost of buffering).
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts PutOptions) error

	// PresignedGetURL returns a time-limited download URL for key
	PresignedGetURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// PutOptions contains options for put operations
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Config contains client configuration
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
}
