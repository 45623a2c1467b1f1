package usecase

import (
	"sync"

	"ragserver/internal/domain"
)

// Tracker records per-document indexing progress. Reads are safe to call
// concurrently with any writer; each document has exactly one background
// worker, so same-document writes are naturally serialized. Entries are
// retained for the life of the process once a submission is accepted.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]domain.JobStatus
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]domain.JobStatus)}
}

// Status returns the job status for a document id. An id the tracker has
// never seen reports StateUnknown, which is distinct from every tracked
// state.
func (t *Tracker) Status(docID string) domain.JobStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.jobs[docID]
}

// MarkPending records a freshly validated submission.
func (t *Tracker) MarkPending(docID string) {
	t.set(docID, domain.JobStatus{State: domain.StatePending})
}

// MarkIndexing records that the background worker has picked up the job.
func (t *Tracker) MarkIndexing(docID string) {
	t.set(docID, domain.JobStatus{State: domain.StateIndexing})
}

// MarkDone records successful completion. Terminal.
func (t *Tracker) MarkDone(docID string) {
	t.set(docID, domain.JobStatus{State: domain.StateDone})
}

// MarkFailed records a failed job with its reason. Terminal.
func (t *Tracker) MarkFailed(docID, reason string) {
	t.set(docID, domain.JobStatus{State: domain.StateFailed, Reason: reason})
}

func (t *Tracker) set(docID string, status domain.JobStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.jobs[docID].Terminal() {
		return
	}
	t.jobs[docID] = status
}

// withdraw removes an entry for a submission that was rejected before
// any worker could observe it (queue overflow). Accepted jobs are never
// removed.
func (t *Tracker) withdraw(docID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, docID)
}
