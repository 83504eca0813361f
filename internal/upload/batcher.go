package upload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ProgressFunc receives the monotonically increasing batch fraction
// (0..1] and a human-readable label after each chunk settles.
type ProgressFunc func(fraction float64, label string)

// Batcher splits an upload batch into fixed-size chunks and processes
// chunks strictly sequentially, with the files inside one chunk running
// concurrently. The chunk size bounds the number of in-flight requests
// against the storage endpoint.
type Batcher struct {
	orch   *Orchestrator
	limit  int
	logger *zap.Logger
}

// NewBatcher creates a batcher with the given per-chunk rate limit
func NewBatcher(orch *Orchestrator, limit int, logger *zap.Logger) *Batcher {
	return &Batcher{orch: orch, limit: limit, logger: logger}
}

// Run processes all files and returns the settled batch. Chunk i+1
// never starts before every task of chunk i has settled; a zero-length
// file list yields zero chunks and an immediately settled batch.
func (b *Batcher) Run(ctx context.Context, username string, files []File, wantURL bool, progress ProgressFunc) *Batch {
	start := time.Now()
	batch := NewBatch()

	n := len(files)
	if n == 0 {
		batch.Elapsed = time.Since(start)
		return batch
	}

	chunks := (n + b.limit - 1) / b.limit
	b.logger.Info("Starting upload batch",
		zap.String("username", username),
		zap.Int("files", n),
		zap.Int("chunks", chunks),
		zap.Int("rate_limit", b.limit),
		zap.Bool("presign", wantURL),
	)

	for i := 0; i < chunks; i++ {
		lo := i * b.limit
		hi := min(lo+b.limit, n)

		var wg sync.WaitGroup
		for _, f := range files[lo:hi] {
			wg.Add(1)
			go func(f File) {
				defer wg.Done()
				b.orch.processFile(ctx, username, f, wantURL, batch)
			}(f)
		}
		wg.Wait()

		fraction := float64(i+1) / float64(chunks)
		if progress != nil {
			progress(fraction, fmt.Sprintf("Uploading...%.2f%% done", fraction*100))
		}
	}

	batch.Elapsed = time.Since(start)
	b.orch.metrics.ObserveBatchDuration(batch.Elapsed)

	b.logger.Info("Upload batch completed",
		zap.String("username", username),
		zap.Int("files", n),
		zap.Int("failures", len(batch.Failures())),
		zap.Duration("elapsed", batch.Elapsed),
	)
	return batch
}

// ChunkCount returns ceil(n/limit) for the configured limit
func (b *Batcher) ChunkCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + b.limit - 1) / b.limit
}
