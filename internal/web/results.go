package web

import (
	"sync"
	"time"

	"bucketdrop/internal/progress"
	"bucketdrop/internal/upload"
)

// batchResult is what one settled upload run left behind for a user:
// the completion-ordered URL list, the per-file reports, and the
// elapsed time shown in the success banner.
type batchResult struct {
	URLs    []string
	Reports []upload.Report
	Elapsed time.Duration
	When    time.Time
}

// resultStore keeps each user's last batch result and progress tracker.
// Results follow a create-empty, populate, read, discard lifecycle: a
// new upload run always clears the previous result first, so links from
// an earlier run never leak into a later download.
type resultStore struct {
	mu       sync.Mutex
	results  map[string]*batchResult
	trackers map[string]*progress.Tracker
}

func newResultStore() *resultStore {
	return &resultStore{
		results:  make(map[string]*batchResult),
		trackers: make(map[string]*progress.Tracker),
	}
}

// tracker returns the user's progress tracker, creating it on first use
func (s *resultStore) tracker(username string) *progress.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trackers[username]
	if !ok {
		t = progress.NewTracker()
		s.trackers[username] = t
	}
	return t
}

// clear drops the user's previous result
func (s *resultStore) clear(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, username)
}

// set stores the user's settled batch result
func (s *resultStore) set(username string, r *batchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[username] = r
}

// get returns the user's last batch result, if any
func (s *resultStore) get(username string) (*batchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[username]
	return r, ok
}
