package assistant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue is a channel-backed jobQueue for development and tests.
// Jobs are delivered at most once; Ack is a no-op.
type MemoryQueue struct {
	jobs chan queuedJob
}

var _ jobQueue = (*MemoryQueue)(nil)

// NewMemoryQueue creates a queue holding up to capacity jobs.
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 128
	}
	return &MemoryQueue{jobs: make(chan queuedJob, capacity)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, body string) error {
	job := queuedJob{
		ID:      uuid.NewString(),
		Body:    body,
		Receipt: uuid.NewString(),
	}
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue returns at least one job, waiting up to waitSeconds for the
// first. A waitSeconds of zero blocks until a job arrives or ctx is done.
func (q *MemoryQueue) Dequeue(ctx context.Context, max, waitSeconds int) ([]queuedJob, error) {
	if max <= 0 {
		max = 1
	}

	var timeout <-chan time.Time
	if waitSeconds > 0 {
		timer := time.NewTimer(time.Duration(waitSeconds) * time.Second)
		defer timer.Stop()
		timeout = timer.C
	}

	var first queuedJob
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return nil, nil
	case first = <-q.jobs:
	}

	batch := []queuedJob{first}
	for len(batch) < max {
		select {
		case job := <-q.jobs:
			batch = append(batch, job)
		default:
			return batch, nil
		}
	}
	return batch, nil
}

func (q *MemoryQueue) Ack(context.Context, string) error { return nil }
