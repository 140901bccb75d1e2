// Package results holds the shared collection that workers append processed
// output to. The sink is the only structure concurrently written by every
// worker, so all access goes through a single mutex.
package results

import (
	"fmt"
	"sync"
	"time"
)

// Result records one processed task. It is immutable after construction and
// owned by the sink once appended.
type Result struct {
	WorkerID    int           `json:"worker_id"`
	TaskID      int           `json:"task_id"`
	Input       string        `json:"input"`
	Output      string        `json:"output"`
	Length      int           `json:"length"`
	Delay       time.Duration `json:"delay_ns"`
	ProcessedAt time.Time     `json:"processed_at"`
}

// String renders the result as a single report line.
func (r Result) String() string {
	return fmt.Sprintf("Worker-%d processed Task-%d: %q -> %q (len=%d, delay=%dms)",
		r.WorkerID, r.TaskID, r.Input, r.Output, r.Length, r.Delay.Milliseconds())
}

// Sink is an append-only collection of results. Appends from different
// workers interleave in completion order; each worker's own results keep
// their submission order. Contents are only guaranteed visible to a reader
// after every writer has finished (the coordinator's join barrier).
type Sink struct {
	mu      sync.Mutex
	results []Result
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// Append adds a result. Safe for concurrent use.
func (s *Sink) Append(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

// Results returns a snapshot of the collected results.
func (s *Sink) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}

// Lines returns the rendered report line for every collected result, in
// sink order.
func (s *Sink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]string, len(s.results))
	for i, r := range s.results {
		lines[i] = r.String()
	}
	return lines
}

// Len returns the number of results collected so far.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}
