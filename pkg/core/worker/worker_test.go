package worker

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textmill/textmill/pkg/core/queue"
	"github.com/textmill/textmill/pkg/core/results"
	"github.com/textmill/textmill/pkg/core/task"
	"github.com/textmill/textmill/pkg/infrastructure/logging"
)

func quietLogger() *logging.Logger {
	return logging.NewLogger(&logging.Config{
		Level:  logging.ErrorLevel,
		Output: io.Discard,
	})
}

func enqueue(t *testing.T, q *queue.TaskQueue, id int, payload string) {
	t.Helper()
	tk, err := task.New(id, payload)
	require.NoError(t, err)
	require.NoError(t, q.Put(context.Background(), task.Wrap(tk)))
}

func TestTransform(t *testing.T) {
	out, length, err := Transform("task_data_1")
	require.NoError(t, err)
	assert.Equal(t, "TASK_DATA_1", out)
	assert.Equal(t, 11, length)

	// Pure and deterministic: repeated calls agree.
	for i := 0; i < 10; i++ {
		again, n, err := Transform("task_data_1")
		require.NoError(t, err)
		assert.Equal(t, out, again)
		assert.Equal(t, length, n)
	}
}

func TestTransformRejectsInvalidUTF8(t *testing.T) {
	_, _, err := Transform(string([]byte{0xff, 0xfe}))
	assert.Error(t, err)
}

func TestWorkerProcessesUntilSentinel(t *testing.T) {
	q := queue.New(0)
	sink := results.NewSink()
	ctx := context.Background()

	for i, payload := range []string{"a", "b", "c"} {
		enqueue(t, q, i+1, payload)
	}
	require.NoError(t, q.Put(ctx, task.Shutdown()))

	w := New(1, q, sink, Config{Logger: quietLogger()})
	require.NoError(t, w.Run(ctx))

	assert.Equal(t, StateStopped, w.State())
	assert.EqualValues(t, 3, w.Processed())
	assert.EqualValues(t, 0, w.Failed())

	// A single worker preserves queue order.
	got := sink.Results()
	require.Len(t, got, 3)
	for i, want := range []string{"A", "B", "C"} {
		assert.Equal(t, i+1, got[i].TaskID)
		assert.Equal(t, want, got[i].Output)
		assert.Equal(t, 1, got[i].Length)
	}

	// No further dequeues after the sentinel.
	assert.Equal(t, 0, q.Len())
}

func TestWorkerSkipsFailedTask(t *testing.T) {
	q := queue.New(0)
	sink := results.NewSink()
	ctx := context.Background()

	enqueue(t, q, 1, string([]byte{0xff}))
	enqueue(t, q, 2, "fine")
	require.NoError(t, q.Put(ctx, task.Shutdown()))

	w := New(1, q, sink, Config{Logger: quietLogger()})
	require.NoError(t, w.Run(ctx))

	assert.EqualValues(t, 1, w.Failed(), "bad payload is counted as failed")
	assert.EqualValues(t, 1, w.Processed(), "worker keeps running after a task-level error")

	got := sink.Results()
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].TaskID)
	assert.Equal(t, "FINE", got[0].Output)
}

func TestWorkerCancellationWhileBlocked(t *testing.T) {
	q := queue.New(0)
	sink := results.NewSink()
	ctx, cancel := context.WithCancel(context.Background())

	w := New(1, q, sink, Config{Logger: quietLogger()})

	errs := make(chan error, 1)
	go func() {
		errs <- w.Run(ctx)
	}()

	cancel()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation while blocked on Take")
	}
	assert.Equal(t, StateStopped, w.State())
}

func TestWorkerDoesNotDrainQueueAfterCancellation(t *testing.T) {
	q := queue.New(0)
	sink := results.NewSink()
	ctx, cancel := context.WithCancel(context.Background())

	for i := 1; i <= 3; i++ {
		enqueue(t, q, i, "p")
	}
	cancel()

	w := New(1, q, sink, Config{Logger: quietLogger()})
	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, StateStopped, w.State())
	assert.Equal(t, 0, sink.Len(), "a cancelled worker must not keep processing the backlog")
	assert.Equal(t, 3, q.Len(), "queued work is left in place for accounting")
}

func TestWorkerCancellationDuringDelay(t *testing.T) {
	q := queue.New(0)
	sink := results.NewSink()
	ctx, cancel := context.WithCancel(context.Background())

	enqueue(t, q, 1, "slow")

	w := New(1, q, sink, Config{
		MinDelay: 10 * time.Second,
		MaxDelay: 10 * time.Second,
		Logger:   quietLogger(),
	})

	errs := make(chan error, 1)
	go func() {
		errs <- w.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation during simulated delay")
	}
	assert.Equal(t, StateStopped, w.State())
	assert.Equal(t, 0, sink.Len(), "cancelled task must not produce a result")
}

func TestPickDelayBounds(t *testing.T) {
	w := New(1, queue.New(0), results.NewSink(), Config{
		MinDelay: 200 * time.Millisecond,
		MaxDelay: 500 * time.Millisecond,
		Logger:   quietLogger(),
	})

	for i := 0; i < 100; i++ {
		d := w.pickDelay()
		assert.GreaterOrEqual(t, d, 200*time.Millisecond)
		assert.LessOrEqual(t, d, 500*time.Millisecond)
	}

	// Zero max disables the delay.
	fast := New(2, queue.New(0), results.NewSink(), Config{Logger: quietLogger()})
	assert.Equal(t, time.Duration(0), fast.pickDelay())
}
