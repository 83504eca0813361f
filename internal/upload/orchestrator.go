package upload

import (
	"context"
	"fmt"
	"mime"
	"path"
	"time"

	"go.uber.org/zap"

	"bucketdrop/internal/history"
	"bucketdrop/internal/metrics"
	"bucketdrop/internal/storage"
)

// Orchestrator runs the per-file upload task: store the byte stream
// under a derived key, then optionally generate a presigned download
// URL. Failures are attributed to the specific filename and key and
// never abort sibling tasks.
type Orchestrator struct {
	client        storage.Client
	bucket        string
	presignExpiry time.Duration
	metrics       *metrics.Collector
	journal       history.Store // nil when history is disabled
	logger        *zap.Logger
}

// NewOrchestrator creates an orchestrator bound to one bucket
func NewOrchestrator(
	client storage.Client,
	bucket string,
	presignExpiry time.Duration,
	metricsCollector *metrics.Collector,
	journal history.Store,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		client:        client,
		bucket:        bucket,
		presignExpiry: presignExpiry,
		metrics:       metricsCollector,
		journal:       journal,
		logger:        logger,
	}
}

// processFile uploads one file and appends its outcome to the batch.
// It never returns an error: every failure mode resolves to a Report.
func (o *Orchestrator) processFile(ctx context.Context, username string, f File, wantURL bool, b *Batch) {
	start := time.Now()
	key := DeriveKey(username, f.Name)
	log := o.logger.With(zap.String("filename", f.Name), zap.String("key", key))

	contentType := mime.TypeByExtension(path.Ext(f.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	err := o.client.PutObject(ctx, o.bucket, key, f.Content, f.Size, storage.PutOptions{
		ContentType: contentType,
	})
	if err != nil {
		o.metrics.IncFailed()
		o.record(username, f, key, history.StatusFailed, wantURL, err)
		log.Warn("Upload failed", zap.Error(err))
		b.addReport(Report{
			Filename: f.Name,
			Key:      key,
			Status:   StatusStoreFailed,
			Err:      fmt.Errorf("unable to upload %s to %s: %w", f.Name, key, err),
		})
		return
	}

	o.metrics.IncSuccessWithBytes(f.Size)
	o.metrics.ObserveFileDuration(time.Since(start))

	if !wantURL {
		o.record(username, f, key, history.StatusStored, false, nil)
		log.Info("Upload completed", zap.Int64("size", f.Size))
		b.addReport(Report{Filename: f.Name, Key: key, Status: StatusStored})
		return
	}

	url, err := o.client.PresignedGetURL(ctx, o.bucket, key, o.presignExpiry)
	if err != nil {
		// The object is stored; only the link is missing. Surfaced as
		// its own status so the user knows the upload itself succeeded.
		o.metrics.IncPresignFailed()
		o.record(username, f, key, history.StatusStored, true, err)
		log.Warn("Presigned URL generation failed", zap.Error(err))
		b.addReport(Report{
			Filename: f.Name,
			Key:      key,
			Status:   StatusLinkFailed,
			Err:      fmt.Errorf("unable to generate presigned url for %s: %w", key, err),
		})
		return
	}

	o.metrics.IncPresignSuccess()
	o.record(username, f, key, history.StatusLinked, true, nil)
	log.Info("Upload completed", zap.Int64("size", f.Size), zap.Duration("duration", time.Since(start)))
	b.addURL(url)
	b.addReport(Report{Filename: f.Name, Key: key, URL: url, Status: StatusLinked})
}

func (o *Orchestrator) record(username string, f File, key string, status history.Status, presigned bool, cause error) {
	if o.journal == nil {
		return
	}

	rec := &history.Record{
		Username:  username,
		Filename:  f.Name,
		Key:       key,
		Size:      f.Size,
		Status:    status,
		Presigned: presigned,
	}
	if cause != nil {
		rec.LastError = cause.Error()
	}

	if err := o.journal.SaveRecord(rec); err != nil {
		o.logger.Error("Failed to save upload record",
			zap.String("key", key),
			zap.Error(err))
	}
}
