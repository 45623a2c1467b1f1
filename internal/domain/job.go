package domain

import "fmt"

// JobState is the lifecycle state of one document's indexing job.
type JobState int

const (
	StateUnknown JobState = iota
	StatePending
	StateIndexing
	StateDone
	StateFailed
)

func (s JobState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateIndexing:
		return "indexing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// JobStatus is the tracker's answer for one document id. Reason is set
// only for failed jobs.
type JobStatus struct {
	State  JobState
	Reason string
}

// Terminal reports whether no further transitions occur for this job.
func (s JobStatus) Terminal() bool {
	return s.State == StateDone || s.State == StateFailed
}

func (s JobStatus) String() string {
	if s.State == StateFailed && s.Reason != "" {
		return fmt.Sprintf("failed: %s", s.Reason)
	}
	return s.State.String()
}
