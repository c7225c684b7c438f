package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/agendia/booking-ai-platform/pkg/logging"
)

// Processor is the downstream engine the dispatcher feeds. Implemented by
// AIService.
type Processor interface {
	ProcessMessage(ctx context.Context, req MessageRequest) *TurnResult
}

// ErrDispatcherClosed indicates the dispatcher is no longer accepting work.
var ErrDispatcherClosed = errors.New("assistant: dispatcher closed")

// Dispatcher routes turns through a queue before invoking the pipeline.
// This lets development point at an in-memory queue and production at
// SQS without touching the HTTP handlers. Callers are responsible for
// not dispatching two concurrent turns for the same session; the queue
// preserves no per-session ordering on its own.
type Dispatcher struct {
	processor Processor
	queue     jobQueue
	logger    *logging.Logger

	cfg dispatcherConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pending sync.Map // jobID -> chan *TurnResult
}

const (
	defaultWorkers          = 2
	defaultReceiveWait      = 2  // seconds
	defaultReceiveMax       = 5  // messages
	maxReceiveWaitSeconds   = 20 // SQS limit
	maxReceiveBatchMessages = 10
)

type dispatcherConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// DispatcherOption configures the dispatcher.
type DispatcherOption func(*dispatcherConfig)

// WithWorkerCount overrides the number of queue polling goroutines.
func WithWorkerCount(workers int) DispatcherOption {
	return func(cfg *dispatcherConfig) {
		if workers > 0 {
			cfg.workers = workers
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait time for receive calls.
func WithReceiveWaitSeconds(seconds int) DispatcherOption {
	return func(cfg *dispatcherConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxReceiveWaitSeconds {
			seconds = maxReceiveWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize overrides how many messages each poll should return.
func WithReceiveBatchSize(size int) DispatcherOption {
	return func(cfg *dispatcherConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchMessages {
			size = maxReceiveBatchMessages
		}
		cfg.receiveBatchSize = size
	}
}

// NewDispatcher wires a queue-backed dispatcher around the pipeline.
func NewDispatcher(processor Processor, queue jobQueue, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if processor == nil {
		panic("assistant: processor cannot be nil")
	}
	if queue == nil {
		panic("assistant: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := dispatcherConfig{
		workers:          defaultWorkers,
		receiveWaitSecs:  defaultReceiveWait,
		receiveBatchSize: defaultReceiveMax,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		processor: processor,
		queue:     queue,
		logger:    logger,
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
	}

	for i := 0; i < cfg.workers; i++ {
		d.wg.Add(1)
		go d.runWorker(i + 1)
	}

	return d
}

// ProcessMessage enqueues a turn and blocks until a worker completes it.
func (d *Dispatcher) ProcessMessage(ctx context.Context, req MessageRequest) (*TurnResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	job, body, err := encodeJob(turnJob{Message: req})
	if err != nil {
		return nil, err
	}

	resultCh := make(chan *TurnResult, 1)
	d.pending.Store(job.ID, resultCh)
	defer d.pending.Delete(job.ID)

	if err := d.queue.Enqueue(ctx, body); err != nil {
		return nil, fmt.Errorf("assistant: failed to enqueue turn: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultCh:
		if res == nil {
			return nil, ErrDispatcherClosed
		}
		return res, nil
	}
}

// Shutdown stops worker goroutines and notifies any pending callers.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	d.pending.Range(func(key, value any) bool {
		if ch, ok := value.(chan *TurnResult); ok {
			select {
			case ch <- nil:
			default:
			}
		}
		d.pending.Delete(key)
		return true
	})

	return nil
}

func (d *Dispatcher) runWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Debug("assistant dispatcher worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-d.ctx.Done():
			d.logger.Debug("assistant dispatcher worker stopping", "worker_id", workerID)
			return
		default:
		}

		jobs, err := d.queue.Dequeue(d.ctx, d.cfg.receiveBatchSize, d.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			d.logger.Error("failed to receive turn jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, job := range jobs {
			d.handleJob(job)
		}
	}
}

func (d *Dispatcher) handleJob(raw queuedJob) {
	var job turnJob
	if err := json.Unmarshal([]byte(raw.Body), &job); err != nil {
		d.logger.Error("failed to decode turn job", "error", err)
		d.ackJob(raw.Receipt)
		return
	}

	result := d.processor.ProcessMessage(d.ctx, job.Message)

	d.ackJob(raw.Receipt)
	d.deliverResult(job.ID, result)
}

func (d *Dispatcher) ackJob(receipt string) {
	ackCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.queue.Ack(ackCtx, receipt); err != nil {
		d.logger.Error("failed to ack turn job", "error", err)
	}
}

func (d *Dispatcher) deliverResult(jobID string, result *TurnResult) {
	value, ok := d.pending.Load(jobID)
	if !ok {
		d.logger.Debug("no waiting caller for turn job", "job_id", jobID)
		return
	}

	ch, ok := value.(chan *TurnResult)
	if !ok {
		d.logger.Error("assistant dispatcher pending map corrupted", "job_id", jobID)
		d.pending.Delete(jobID)
		return
	}

	select {
	case ch <- result:
	default:
	}
}
