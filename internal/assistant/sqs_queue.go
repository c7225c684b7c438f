package assistant

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSQueue is the production jobQueue. Works against AWS and LocalStack.
type SQSQueue struct {
	client *sqs.Client
	url    string
}

var _ jobQueue = (*SQSQueue)(nil)

// NewSQSQueue wraps an SQS client for one queue URL.
func NewSQSQueue(client *sqs.Client, queueURL string) *SQSQueue {
	if client == nil {
		panic("assistant: sqs client cannot be nil")
	}
	if queueURL == "" {
		panic("assistant: sqs queue url cannot be empty")
	}
	return &SQSQueue{client: client, url: queueURL}
}

func (q *SQSQueue) Enqueue(ctx context.Context, body string) error {
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.url),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("assistant: sqs send: %w", err)
	}
	return nil
}

func (q *SQSQueue) Dequeue(ctx context.Context, max, waitSeconds int) ([]queuedJob, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.url),
		MaxNumberOfMessages: int32(max),
		WaitTimeSeconds:     int32(waitSeconds),
	})
	if err != nil {
		return nil, fmt.Errorf("assistant: sqs receive: %w", err)
	}

	jobs := make([]queuedJob, 0, len(out.Messages))
	for _, msg := range out.Messages {
		jobs = append(jobs, queuedJob{
			ID:      aws.ToString(msg.MessageId),
			Body:    aws.ToString(msg.Body),
			Receipt: aws.ToString(msg.ReceiptHandle),
		})
	}
	return jobs, nil
}

func (q *SQSQueue) Ack(ctx context.Context, receipt string) error {
	if receipt == "" {
		return nil
	}
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.url),
		ReceiptHandle: aws.String(receipt),
	})
	if err != nil {
		return fmt.Errorf("assistant: sqs delete: %w", err)
	}
	return nil
}
