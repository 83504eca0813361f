package upload

import (
	"io"
	"sync"
	"time"
)

// File is one submitted file: a named in-memory byte stream. Each file
// is owned by exactly one upload task for the duration of the batch.
type File struct {
	Name    string
	Content io.Reader
	Size    int64
}

// ReportStatus classifies the outcome of one file's upload task
type ReportStatus string

const (
	// StatusStored means the object was written; no link was requested
	StatusStored ReportStatus = "stored"
	// StatusLinked means the object was written and a presigned URL generated
	StatusLinked ReportStatus = "linked"
	// StatusStoreFailed means the object write itself failed
	StatusStoreFailed ReportStatus = "store_failed"
	// StatusLinkFailed means the object was written but presigning failed
	StatusLinkFailed ReportStatus = "link_failed"
)

// Report is the per-file outcome, attributed to filename and key
type Report struct {
	Filename string
	Key      string
	URL      string
	Status   ReportStatus
	Err      error
}

// Batch collects the results of one upload run. It is created empty at
// the start of every run and populated by concurrent tasks; URLs
// accumulate in completion order, which is not submission order.
type Batch struct {
	mu      sync.Mutex
	urls    []string
	reports []Report

	// Elapsed is set once the whole batch has settled
	Elapsed time.Duration
}

// NewBatch returns an empty batch
func NewBatch() *Batch {
	return &Batch{}
}

func (b *Batch) addURL(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.urls = append(b.urls, url)
}

func (b *Batch) addReport(r Report) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reports = append(b.reports, r)
}

// URLs returns the generated presigned URLs in completion order
func (b *Batch) URLs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.urls))
	copy(out, b.urls)
	return out
}

// Reports returns all per-file outcomes
func (b *Batch) Reports() []Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Report, len(b.reports))
	copy(out, b.reports)
	return out
}

// Failures returns only the reports whose task did not fully succeed
func (b *Batch) Failures() []Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Report
	for _, r := range b.reports {
		if r.Status == StatusStoreFailed || r.Status == StatusLinkFailed {
			out = append(out, r)
		}
	}
	return out
}
