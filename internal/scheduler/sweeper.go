// Package scheduler re-publishes delivery jobs for campaigns that were saved
// but never picked up by a worker, e.g. after a crash between persisting the
// campaign and publishing its job.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-crm/internal/metrics"
	"github.com/unclebandit/campaign-crm/internal/queue"
	"github.com/unclebandit/campaign-crm/internal/repository"
)

type Sweeper struct {
	cron      *cron.Cron
	campaigns repository.CampaignRepositoryInterface
	queue     queue.Queue
	metrics   *metrics.Metrics
	logger    *zap.Logger
	grace     time.Duration
	now       func() time.Time
}

func NewSweeper(
	campaigns repository.CampaignRepositoryInterface,
	q queue.Queue,
	m *metrics.Metrics,
	logger *zap.Logger,
	grace time.Duration,
) *Sweeper {
	return &Sweeper{
		cron:      cron.New(),
		campaigns: campaigns,
		queue:     q,
		metrics:   m,
		logger:    logger,
		grace:     grace,
		now:       time.Now,
	}
}

// Start schedules the sweep and returns immediately.
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.logger.Error("sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule sweeper %q: %w", schedule, err)
	}
	s.cron.Start()
	return nil
}

// Stop waits for a running sweep to return.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep publishes a job for every unclaimed sending campaign older than the
// grace period and reports how many were published. A campaign whose job is
// still queued is deduplicated by the queue, and the claim guard stops a
// second run if both jobs get through.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	stale, err := s.campaigns.ListUnclaimed(ctx, s.now().Add(-s.grace))
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, c := range stale {
		if err := s.queue.Publish(ctx, queue.DeliveryJob{CampaignID: c.ID}); err != nil {
			s.logger.Warn("requeue failed", zap.String("campaign_id", c.ID), zap.Error(err))
			continue
		}
		requeued++
	}
	if requeued > 0 {
		s.metrics.Requeued(requeued)
		s.logger.Info("requeued unclaimed campaigns", zap.Int("count", requeued))
	}
	return requeued, nil
}
