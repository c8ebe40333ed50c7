package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-crm/internal/metrics"
)

// InMemoryQueue feeds jobs to a fixed pool of goroutines through a buffered
// channel. A job whose campaign is already queued or in flight is dropped.
type InMemoryQueue struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	workers int
	jobs    chan DeliveryJob

	mu      sync.Mutex
	pending map[string]struct{}
	started bool

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	wg     sync.WaitGroup
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(workers, buffer int, logger *zap.Logger, m *metrics.Metrics) *InMemoryQueue {
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &InMemoryQueue{
		logger:  logger,
		metrics: m,
		workers: workers,
		jobs:    make(chan DeliveryJob, buffer),
		pending: make(map[string]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Publish enqueues job unless the same campaign is already pending. It never
// blocks: with every worker busy and the buffer full it returns ErrQueueFull.
func (q *InMemoryQueue) Publish(ctx context.Context, job DeliveryJob) error {
	if q.ctx.Err() != nil {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	if _, dup := q.pending[job.CampaignID]; dup {
		q.mu.Unlock()
		q.metrics.JobDeduplicated()
		q.logger.Debug("dropping duplicate delivery job", zap.String("campaign_id", job.CampaignID))
		return nil
	}
	q.pending[job.CampaignID] = struct{}{}
	q.mu.Unlock()

	select {
	case q.jobs <- job:
		return nil
	default:
		// the campaign stays unclaimed, the sweeper publishes it again later
		q.release(job.CampaignID)
		q.logger.Warn("delivery queue full, dropping job", zap.String("campaign_id", job.CampaignID))
		return ErrQueueFull
	}
}

// Subscribe starts the worker goroutines.
func (q *InMemoryQueue) Subscribe(handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ctx.Err() != nil {
		return ErrClosed
	}
	if q.started {
		return ErrAlreadySubscribed
	}
	q.started = true

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(i, handler)
	}
	return nil
}

func (q *InMemoryQueue) work(id int, handler Handler) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.process(id, handler, job)
		}
	}
}

func (q *InMemoryQueue) process(worker int, handler Handler, job DeliveryJob) {
	defer q.release(job.CampaignID)
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("delivery job panicked",
				zap.Int("worker", worker),
				zap.String("campaign_id", job.CampaignID),
				zap.Any("panic", r))
		}
	}()

	if err := handler(q.ctx, job); err != nil {
		q.logger.Error("delivery job failed",
			zap.Int("worker", worker),
			zap.String("campaign_id", job.CampaignID),
			zap.Error(err))
		return
	}
	q.logger.Debug("delivery job done", zap.Int("worker", worker), zap.String("campaign_id", job.CampaignID))
}

func (q *InMemoryQueue) release(campaignID string) {
	q.mu.Lock()
	delete(q.pending, campaignID)
	q.mu.Unlock()
}

// Close cancels running jobs and waits for the workers to exit. Jobs still
// buffered are dropped; the sweeper picks their campaigns up again.
func (q *InMemoryQueue) Close() error {
	q.once.Do(func() {
		q.cancel()
		q.wg.Wait()
	})
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
