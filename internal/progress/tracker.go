package progress

import (
	"sync"
	"time"
)

// Status is a snapshot of the currently running (or last finished) batch
type Status struct {
	Active     bool          `json:"active"`
	Fraction   float64       `json:"fraction"`
	Label      string        `json:"label"`
	TotalFiles int           `json:"total_files"`
	StartTime  time.Time     `json:"start_time"`
	Elapsed    time.Duration `json:"-"`
}

// Tracker tracks batch upload progress. The batcher bumps the fraction
// after each chunk; the web layer polls it for the progress bar.
// Updates must keep the fraction monotonically increasing within a run.
type Tracker struct {
	mu     sync.RWMutex
	status Status
}

// NewTracker creates an idle tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin resets the tracker for a new batch of totalFiles files
func (t *Tracker) Begin(totalFiles int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = Status{
		Active:     true,
		Label:      "Preparing...",
		TotalFiles: totalFiles,
		StartTime:  time.Now(),
	}
}

// Update records a new fraction and label. Regressions are ignored so
// the progress bar never moves backwards.
func (t *Tracker) Update(fraction float64, label string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fraction < t.status.Fraction {
		return
	}
	t.status.Fraction = fraction
	t.status.Label = label
}

// Finish marks the batch as settled
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.Active = false
	t.status.Elapsed = time.Since(t.status.StartTime)
}

// GetStatus returns the current status (thread-safe)
func (t *Tracker) GetStatus() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.status
}
