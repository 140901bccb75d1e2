package task

import (
	"fmt"
)

// Task is a single unit of work in the pipeline: a numeric ID and the text
// payload a worker will transform. Tasks are immutable once constructed and
// are consumed exactly once by exactly one worker.
type Task struct {
	ID      int    `json:"id"`
	Payload string `json:"payload"`
}

// legacyPoisonID is the reserved id the original poison-pill protocol used.
// Shutdown is signalled by a tagged Envelope now, so the id is simply
// rejected at the construction boundary rather than carrying meaning.
const legacyPoisonID = -1

// New creates a work task. The reserved legacy poison id is rejected so a
// plain task can never be mistaken for a shutdown signal.
func New(id int, payload string) (Task, error) {
	if id == legacyPoisonID {
		return Task{}, fmt.Errorf("task id %d is reserved for the legacy shutdown sentinel", id)
	}
	return Task{ID: id, Payload: payload}, nil
}

// Envelope is what actually travels on the queue: either a work task or the
// shutdown sentinel. Tagging shutdown explicitly keeps the Task type free of
// magic values.
type Envelope struct {
	task     Task
	shutdown bool
}

// Wrap places a work task in an envelope.
func Wrap(t Task) Envelope {
	return Envelope{task: t}
}

// Shutdown returns the sentinel envelope that tells a worker to stop.
func Shutdown() Envelope {
	return Envelope{shutdown: true}
}

// IsShutdown reports whether this envelope is the shutdown sentinel.
func (e Envelope) IsShutdown() bool {
	return e.shutdown
}

// Task returns the work task carried by this envelope. The zero Task is
// returned for shutdown envelopes.
func (e Envelope) Task() Task {
	return e.task
}

func (e Envelope) String() string {
	if e.shutdown {
		return "Envelope{shutdown}"
	}
	return fmt.Sprintf("Envelope{Task-%d %q}", e.task.ID, e.task.Payload)
}
