package pipeline

import "go.uber.org/atomic"

// Stats counts pipeline activity, it is safe for concurrent use
type Stats struct {
	calls    atomic.Int64
	failures atomic.Int64
	chunks   atomic.Int64
	vectors  atomic.Int64
}

// StatsSnapshot is a point in time copy of Stats
type StatsSnapshot struct {
	Calls    int64 `json:"calls"`
	Failures int64 `json:"failures"`
	Chunks   int64 `json:"chunks"`
	Vectors  int64 `json:"vectors"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Calls:    s.calls.Load(),
		Failures: s.failures.Load(),
		Chunks:   s.chunks.Load(),
		Vectors:  s.vectors.Load(),
	}
}
