package queue

import (
	"context"
	"errors"
)

// DeliveryJob asks a worker to deliver one campaign. CampaignID is the
// idempotency key of the job.
type DeliveryJob struct {
	CampaignID string `json:"campaign_id"`
}

// Handler processes one job. Errors are logged, never retried.
type Handler func(ctx context.Context, job DeliveryJob) error

// Queue interface
type Queue interface {
	Publish(ctx context.Context, job DeliveryJob) error
	// Subscribe starts consuming with handler. It may be called once.
	Subscribe(handler Handler) error
	Close() error
}

var (
	ErrClosed            = errors.New("queue closed")
	ErrAlreadySubscribed = errors.New("queue already has a subscriber")
	ErrQueueFull         = errors.New("queue full")
)
