package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-crm/internal/metrics"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/queue"
	"github.com/unclebandit/campaign-crm/internal/repository"
	"github.com/unclebandit/campaign-crm/internal/segment"
)

// Worker runs the delivery of one campaign at a time: claim, resolve the
// audience, send to every recipient in order and finalize the counters.
type Worker struct {
	CampaignRepo repository.CampaignRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	LogRepo      repository.CommunicationLogRepositoryInterface
	Sender       Sender
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
	// RecipientDelay paces the sends of one run.
	RecipientDelay time.Duration
	Now            func() time.Time
}

// Handle is the queue.Handler of the worker.
func (w *Worker) Handle(ctx context.Context, job queue.DeliveryJob) error {
	return w.Deliver(ctx, job.CampaignID)
}

// Deliver sends a campaign. Only the caller that wins the claim does any
// work; every other call for the same campaign returns nil right away.
//
// Once claimed, any storage failure or a cancelled ctx marks the campaign
// failed. Log entries already written are kept.
func (w *Worker) Deliver(ctx context.Context, campaignID string) error {
	now := nowFunc(w.Now)
	log := w.Logger.With(zap.String("campaign_id", campaignID))

	won, err := w.CampaignRepo.Claim(ctx, campaignID, now())
	if err != nil {
		return err
	}
	if !won {
		w.Metrics.JobDeduplicated()
		log.Info("campaign already claimed, skipping")
		return nil
	}

	campaign, err := w.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return w.fail(ctx, log, campaignID, err)
	}
	customers, err := w.CustomerRepo.ListAll(ctx)
	if err != nil {
		return w.fail(ctx, log, campaignID, err)
	}
	audience := segment.Filter(campaign.Rules, customers, now())
	if campaign.AudienceSize > 0 && len(audience) > campaign.AudienceSize {
		audience = audience[:campaign.AudienceSize]
	}
	log.Info("delivering campaign", zap.Int("recipients", len(audience)))

	sent, failed := 0, 0
	for i, customer := range audience {
		if i > 0 {
			if err := w.pause(ctx); err != nil {
				return w.fail(ctx, log, campaignID, err)
			}
		} else if err := ctx.Err(); err != nil {
			return w.fail(ctx, log, campaignID, err)
		}

		message := Personalize(campaign.Message, customer)
		status := model.LogStatusSent
		if err := w.Sender.Send(ctx, customer, message); err != nil {
			status = model.LogStatusFailed
		}

		at := now()
		entry := &model.CommunicationLog{
			CampaignID:    campaignID,
			CustomerID:    customer.ID,
			CustomerName:  customer.Name,
			CustomerEmail: customer.Email,
			Message:       message,
			Status:        status,
			SentAt:        at,
			CreatedAt:     at,
		}
		if err := w.LogRepo.Create(ctx, entry); err != nil {
			return w.fail(ctx, log, campaignID, err)
		}

		if status == model.LogStatusSent {
			sent++
			w.Metrics.MessageSent()
		} else {
			failed++
			w.Metrics.MessageFailed()
		}
		log.Debug("delivery receipt",
			zap.String("customer_email", customer.Email),
			zap.String("status", status))
	}

	if err := w.CampaignRepo.Finish(ctx, campaignID, sent, failed, len(audience)); err != nil {
		return w.fail(ctx, log, campaignID, err)
	}
	w.Metrics.CampaignFinished(model.CampaignStatusCompleted)
	log.Info("campaign completed", zap.Int("sent", sent), zap.Int("failed", failed))
	return nil
}

func (w *Worker) pause(ctx context.Context) error {
	if w.RecipientDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(w.RecipientDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// fail marks the campaign failed even when ctx is already cancelled.
func (w *Worker) fail(ctx context.Context, log *zap.Logger, campaignID string, cause error) error {
	log.Error("campaign delivery aborted", zap.Error(cause))
	if err := w.CampaignRepo.MarkFailed(context.WithoutCancel(ctx), campaignID); err != nil {
		log.Error("failed to mark campaign failed", zap.Error(err))
		return errors.Join(cause, err)
	}
	w.Metrics.CampaignFinished(model.CampaignStatusFailed)
	return cause
}
