// Package pipeline contains the coordinator that wires the producer, the
// shared queue, the worker pool, and the result sink together and runs one
// batch end to end.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/textmill/textmill/pkg/core/queue"
	"github.com/textmill/textmill/pkg/core/results"
	"github.com/textmill/textmill/pkg/core/task"
	"github.com/textmill/textmill/pkg/core/worker"
	"github.com/textmill/textmill/pkg/infrastructure/logging"
)

// Config holds everything the coordinator needs for one run.
type Config struct {
	NumWorkers    int
	NumTasks      int
	QueueCapacity int // 0 means unbounded

	// Simulated per-task processing latency bounds.
	MinDelay time.Duration
	MaxDelay time.Duration

	// Bound on the join barrier. Exceeding it is a soft failure: the run
	// reports a timeout and continues with whatever results exist.
	JoinTimeout time.Duration

	// Explicit payloads, one task each. When nil, NumTasks payloads of the
	// form task_data_<n> are generated.
	Payloads []string

	Logger *logging.Logger
}

// RunStats summarizes one pipeline run.
type RunStats struct {
	RunID            string        `json:"run_id"`
	NumWorkers       int           `json:"num_workers"`
	TasksEnqueued    int           `json:"tasks_enqueued"`
	ResultsCollected int           `json:"results_collected"`
	TasksFailed      int64         `json:"tasks_failed"`
	TimedOut         bool          `json:"timed_out"`
	Elapsed          time.Duration `json:"elapsed"`
}

// Pipeline coordinates a single producer, a worker pool, and a result sink.
type Pipeline struct {
	cfg  Config
	log  *logging.Logger
	sink *results.Sink
}

// New validates the configuration and builds a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.NumWorkers <= 0 {
		return nil, fmt.Errorf("number of workers must be positive (got %d)", cfg.NumWorkers)
	}
	if cfg.NumTasks < 0 {
		return nil, fmt.Errorf("number of tasks cannot be negative (got %d)", cfg.NumTasks)
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetGlobalLogger()
	}

	return &Pipeline{
		cfg: cfg,
		log: cfg.Logger.WithComponent("pipeline"),
	}, nil
}

// Sink returns the result sink of the most recent run. Its contents are only
// guaranteed complete once Run has returned without reporting a timeout.
func (p *Pipeline) Sink() *results.Sink {
	return p.sink
}

// Run executes the coordination protocol: build queue and sink, spawn the
// workers, enqueue every task followed by one shutdown sentinel per worker,
// then wait for the pool at the join barrier. Workers consume concurrently
// with the enqueue phase. The returned error is non-nil only for
// cancellation of ctx; task failures and join timeouts are reported through
// RunStats instead.
func (p *Pipeline) Run(ctx context.Context) (*RunStats, error) {
	start := time.Now()
	runID := uuid.NewString()
	runLog := p.log.WithField("run_id", runID)

	q := queue.New(p.cfg.QueueCapacity)
	p.sink = results.NewSink()

	payloads := p.cfg.Payloads
	if payloads == nil {
		payloads = generatePayloads(p.cfg.NumTasks)
	}

	runLog.WithField("workers", p.cfg.NumWorkers).WithField("tasks", len(payloads)).Info("starting pipeline run")

	// Spawn the pool before producing; workers consume while the producer
	// is still enqueuing.
	workers := make([]*worker.Worker, p.cfg.NumWorkers)
	var wg sync.WaitGroup
	for i := 0; i < p.cfg.NumWorkers; i++ {
		w := worker.New(i+1, q, p.sink, worker.Config{
			MinDelay: p.cfg.MinDelay,
			MaxDelay: p.cfg.MaxDelay,
			Logger:   p.cfg.Logger,
		})
		workers[i] = w

		wg.Add(1)
		go func() {
			defer wg.Done()
			// Cancellation is already logged by the worker itself.
			_ = w.Run(ctx)
		}()
	}

	enqueued := p.produce(ctx, q, payloads, runLog)

	// One sentinel per worker, so every worker observes exactly one and
	// none starves after the batch drains.
	for i := 0; i < p.cfg.NumWorkers; i++ {
		if err := q.Put(ctx, task.Shutdown()); err != nil {
			runLog.WithField("error", err).Warn("interrupted while enqueuing shutdown sentinels")
			break
		}
	}

	timedOut := p.join(&wg, runLog)

	var failed int64
	for _, w := range workers {
		failed += w.Failed()
	}

	stats := &RunStats{
		RunID:            runID,
		NumWorkers:       p.cfg.NumWorkers,
		TasksEnqueued:    enqueued,
		ResultsCollected: p.sink.Len(),
		TasksFailed:      failed,
		TimedOut:         timedOut,
		Elapsed:          time.Since(start),
	}

	runLog.WithField("results", stats.ResultsCollected).WithField("elapsed", stats.Elapsed).Info("pipeline run finished")

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// produce enqueues one work envelope per payload with sequential ids
// starting at 1. If ctx is cancelled mid-batch it stops adding further tasks
// and returns how many made it onto the queue.
func (p *Pipeline) produce(ctx context.Context, q *queue.TaskQueue, payloads []string, runLog *logging.FieldLogger) int {
	enqueued := 0
	for i, payload := range payloads {
		tk, err := task.New(i+1, payload)
		if err != nil {
			runLog.WithField("task_id", i+1).WithField("error", err).Error("skipping invalid task")
			continue
		}

		if err := q.Put(ctx, task.Wrap(tk)); err != nil {
			runLog.WithField("error", err).Warn("interrupted while enqueuing tasks")
			break
		}
		enqueued++
		runLog.WithField("task_id", tk.ID).WithField("queued", q.Len()).Debug("task added to queue")
	}
	return enqueued
}

// join blocks until every worker has finished or the configured bound
// passes. On timeout the workers are left running (soft failure); the caller
// proceeds with partial results.
func (p *Pipeline) join(wg *sync.WaitGroup, runLog *logging.FieldLogger) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return false
	case <-time.After(p.cfg.JoinTimeout):
		runLog.WithField("timeout", p.cfg.JoinTimeout).Warn("timed out waiting for workers to finish")
		return true
	}
}

func generatePayloads(n int) []string {
	payloads := make([]string, n)
	for i := range payloads {
		payloads[i] = fmt.Sprintf("task_data_%d", i+1)
	}
	return payloads
}
