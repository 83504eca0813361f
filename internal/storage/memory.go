package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// MemoryClient is an in-memory Client used by tests and local development.
// Presigned URLs are synthetic but carry a real expiry that Fetch enforces.
type MemoryClient struct {
	mu      sync.Mutex
	objects map[string][]byte    // "bucket/key" -> bytes
	expiry  map[string]time.Time // presigned url -> deadline
	now     func() time.Time

	// FailPut and FailPresign inject failures for any key containing
	// the map entry's pattern. Keys carry a random suffix, so substring
	// matching on the file stem is how tests target a specific file.
	FailPut     map[string]error
	FailPresign map[string]error
}

// NewMemoryClient creates an empty in-memory storage client
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		objects:     make(map[string][]byte),
		expiry:      make(map[string]time.Time),
		now:         time.Now,
		FailPut:     make(map[string]error),
		FailPresign: make(map[string]error),
	}
}

// SetClock overrides the time source, letting tests advance past expiry
func (c *MemoryClient) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// EnsureBucket is a no-op for the in-memory client
func (c *MemoryClient) EnsureBucket(ctx context.Context, bucket string) error {
	return nil
}

// PutObject stores the object bytes in memory
func (c *MemoryClient) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts PutOptions) error {
	if err := c.injectedFailure(c.FailPut, key); err != nil {
		return err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[bucket+"/"+key] = data
	return nil
}

func (c *MemoryClient) injectedFailure(patterns map[string]error, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for pattern, err := range patterns {
		if strings.Contains(key, pattern) {
			return err
		}
	}
	return nil
}

// PresignedGetURL returns a synthetic URL valid until expiry elapses
func (c *MemoryClient) PresignedGetURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for pattern, err := range c.FailPresign {
		if strings.Contains(key, pattern) {
			return "", err
		}
	}
	if _, ok := c.objects[bucket+"/"+key]; !ok {
		return "", fmt.Errorf("object %s/%s does not exist", bucket, key)
	}

	u := fmt.Sprintf("https://storage.local/%s/%s?expires=%d", bucket, key, c.now().Add(expiry).Unix())
	c.expiry[u] = c.now().Add(expiry)
	return u, nil
}

// Fetch resolves a presigned URL back to the stored bytes, rejecting
// expired links. Tests use it to verify the presign contract.
func (c *MemoryClient) Fetch(url string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := c.expiry[url]
	if !ok {
		return nil, fmt.Errorf("unknown presigned url")
	}
	if c.now().After(deadline) {
		return nil, fmt.Errorf("presigned url expired")
	}

	// Strip scheme, host and query to recover "bucket/key"
	path := strings.TrimPrefix(url, "https://storage.local/")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	data, ok := c.objects[path]
	if !ok {
		return nil, fmt.Errorf("object not found")
	}
	return data, nil
}

// Object returns the stored bytes for bucket/key, if present
func (c *MemoryClient) Object(bucket, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.objects[bucket+"/"+key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(data), true
}

// Keys returns all stored keys in the given bucket
func (c *MemoryClient) Keys(bucket string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := bucket + "/"
	var keys []string
	for k := range c.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, strings.TrimPrefix(k, prefix))
		}
	}
	return keys
}
