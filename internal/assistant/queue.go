package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// jobQueue decouples accepting a turn from processing it. SQS backs it in
// production; a channel-backed implementation covers development and tests.
type jobQueue interface {
	Enqueue(ctx context.Context, body string) error
	Dequeue(ctx context.Context, max, waitSeconds int) ([]queuedJob, error)
	Ack(ctx context.Context, receipt string) error
}

// queuedJob is one raw message pulled off the queue. Receipt is what the
// backing queue needs to acknowledge the job.
type queuedJob struct {
	ID      string
	Body    string
	Receipt string
}

// turnJob is the wire form of a queued turn.
type turnJob struct {
	ID      string         `json:"id"`
	Message MessageRequest `json:"message"`
}

// encodeJob assigns the job an ID if it has none and serializes it.
func encodeJob(job turnJob) (turnJob, string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	body, err := json.Marshal(job)
	if err != nil {
		return turnJob{}, "", fmt.Errorf("assistant: encode turn job: %w", err)
	}
	return job, string(body), nil
}
