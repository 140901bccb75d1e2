// Package worker implements the consumer side of the pipeline: a loop that
// takes envelopes off the shared queue, transforms work payloads, and
// records results until it receives the shutdown sentinel or is cancelled.
package worker

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/textmill/textmill/pkg/core/queue"
	"github.com/textmill/textmill/pkg/core/results"
	"github.com/textmill/textmill/pkg/core/task"
	"github.com/textmill/textmill/pkg/infrastructure/logging"
)

// State describes where a worker is in its lifecycle. A worker moves
// Running -> Processing -> Running for each task and ends Stopped exactly
// once, either on the shutdown sentinel or on cancellation.
type State int32

const (
	StateRunning State = iota
	StateProcessing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateProcessing:
		return "processing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config holds per-worker settings supplied by the coordinator.
type Config struct {
	// Simulated processing latency bounds. MaxDelay of zero disables the
	// delay entirely, which tests rely on.
	MinDelay time.Duration
	MaxDelay time.Duration

	Logger *logging.Logger
}

// Worker consumes envelopes from the queue and appends results to the sink.
type Worker struct {
	id    int
	queue *queue.TaskQueue
	sink  *results.Sink

	minDelay time.Duration
	maxDelay time.Duration
	log      *logging.FieldLogger

	state     atomic.Int32
	processed atomic.Int64
	failed    atomic.Int64
}

// New creates a worker bound to the shared queue and sink.
func New(id int, q *queue.TaskQueue, sink *results.Sink, cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &Worker{
		id:       id,
		queue:    q,
		sink:     sink,
		minDelay: cfg.MinDelay,
		maxDelay: cfg.MaxDelay,
		log:      logger.WithComponent("worker").WithField("worker_id", id),
	}
}

// ID returns the worker's numeric id.
func (w *Worker) ID() int {
	return w.id
}

// State returns the worker's current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Processed returns how many tasks this worker has completed successfully.
func (w *Worker) Processed() int64 {
	return w.processed.Load()
}

// Failed returns how many tasks this worker skipped due to transform errors.
func (w *Worker) Failed() int64 {
	return w.failed.Load()
}

// Run executes the worker loop until the shutdown sentinel arrives or ctx is
// cancelled. Cancellation is propagated as the returned error; a normal
// sentinel shutdown returns nil. Either way the worker ends in StateStopped
// and performs no further dequeues.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker started")
	defer w.log.Info("worker stopped")

	for {
		env, err := w.queue.Take(ctx)
		if err != nil {
			w.state.Store(int32(StateStopped))
			w.log.WithField("error", err).Warn("worker interrupted while waiting for tasks")
			return err
		}

		if env.IsShutdown() {
			w.state.Store(int32(StateStopped))
			w.log.Info("worker received shutdown sentinel")
			return nil
		}

		if err := w.process(ctx, env); err != nil {
			w.state.Store(int32(StateStopped))
			w.log.WithField("error", err).Warn("worker interrupted during processing")
			return err
		}
	}
}

// process handles a single work envelope. A transform failure is logged and
// absorbed so the loop continues; only cancellation is returned.
func (w *Worker) process(ctx context.Context, env task.Envelope) error {
	w.state.Store(int32(StateProcessing))
	defer func() {
		// Back to running unless a cancellation already marked us stopped.
		if State(w.state.Load()) == StateProcessing {
			w.state.Store(int32(StateRunning))
		}
	}()

	t := env.Task()
	w.log.WithField("task_id", t.ID).Debug("worker processing task")

	delay := w.pickDelay()
	if delay > 0 {
		select {
		case <-ctx.Done():
			w.state.Store(int32(StateStopped))
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	output, length, err := Transform(t.Payload)
	if err != nil {
		w.failed.Add(1)
		w.log.WithField("task_id", t.ID).WithField("error", err).Error("failed to process task")
		return nil
	}

	r := results.Result{
		WorkerID:    w.id,
		TaskID:      t.ID,
		Input:       t.Payload,
		Output:      output,
		Length:      length,
		Delay:       delay,
		ProcessedAt: time.Now(),
	}
	w.sink.Append(r)
	w.processed.Add(1)
	w.log.Info(r.String())

	return nil
}

// pickDelay draws a random delay in [MinDelay, MaxDelay]. A zero MaxDelay
// means no simulated latency.
func (w *Worker) pickDelay() time.Duration {
	if w.maxDelay <= 0 {
		return 0
	}
	if w.maxDelay <= w.minDelay {
		return w.minDelay
	}
	return w.minDelay + time.Duration(rand.Int63n(int64(w.maxDelay-w.minDelay+1)))
}
