package results

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResultString(t *testing.T) {
	r := Result{
		WorkerID: 2,
		TaskID:   7,
		Input:    "task_data_7",
		Output:   "TASK_DATA_7",
		Length:   11,
		Delay:    347 * time.Millisecond,
	}
	assert.Equal(t,
		`Worker-2 processed Task-7: "task_data_7" -> "TASK_DATA_7" (len=11, delay=347ms)`,
		r.String())
}

func TestSinkAppendAndSnapshot(t *testing.T) {
	s := NewSink()
	assert.Equal(t, 0, s.Len())

	s.Append(Result{WorkerID: 1, TaskID: 1, Input: "a", Output: "A", Length: 1})
	s.Append(Result{WorkerID: 1, TaskID: 2, Input: "b", Output: "B", Length: 1})

	assert.Equal(t, 2, s.Len())
	got := s.Results()
	assert.Equal(t, 1, got[0].TaskID)
	assert.Equal(t, 2, got[1].TaskID)

	// Snapshots are copies, not views.
	got[0].TaskID = 99
	assert.Equal(t, 1, s.Results()[0].TaskID)
}

func TestSinkConcurrentAppends(t *testing.T) {
	const writers = 8
	const perWriter = 100

	s := NewSink()
	var wg sync.WaitGroup
	for w := 1; w <= writers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				s.Append(Result{
					WorkerID: workerID,
					TaskID:   workerID*perWriter + i,
					Input:    fmt.Sprintf("p%d", i),
				})
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, writers*perWriter, s.Len())

	// Per-worker submission order survives the interleaving.
	lastSeen := make(map[int]int)
	for _, r := range s.Results() {
		if prev, ok := lastSeen[r.WorkerID]; ok {
			assert.Greater(t, r.TaskID, prev, "worker %d results out of order", r.WorkerID)
		}
		lastSeen[r.WorkerID] = r.TaskID
	}
}

func TestSinkLines(t *testing.T) {
	s := NewSink()
	s.Append(Result{WorkerID: 1, TaskID: 1, Input: "a", Output: "A", Length: 1})
	lines := s.Lines()
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Worker-1 processed Task-1")
}
