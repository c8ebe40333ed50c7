package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/queue"
	"github.com/unclebandit/campaign-crm/internal/repository"
)

var everyone = model.Rule{ID: "1", Field: model.FieldVisits, Operator: model.OpGreaterOrEqual, Value: "0"}

func alwaysSend() Sender {
	return SenderFunc(func(context.Context, model.Customer, string) error { return nil })
}

func newWorker(store *repository.Store, sender Sender) *Worker {
	return &Worker{
		CampaignRepo: store.Campaigns,
		CustomerRepo: store.Customers,
		LogRepo:      store.Logs,
		Sender:       sender,
		Logger:       zap.NewNop(),
		Now:          clock,
	}
}

func TestWorkerDeliversPersonalizedMessages(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	addCustomers(t, store, "Customer", 3, 1)
	c := sendingCampaign(t, store, 0, everyone)

	w := newWorker(store, alwaysSend())
	require.NoError(t, w.Handle(ctx, queue.DeliveryJob{CampaignID: c.ID}))

	got, err := store.Campaigns.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusCompleted, got.Status)
	assert.Equal(t, 3, got.SentCount)
	assert.Equal(t, 0, got.FailedCount)
	assert.Equal(t, 3, got.AudienceSize)

	logs, err := store.Logs.ListByCampaign(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "Hi Customer A, Customer A gets 10% off", logs[0].Message)
	assert.Equal(t, "Customera@example.com", logs[0].CustomerEmail)
	assert.Equal(t, model.LogStatusSent, logs[0].Status)
}

func TestWorkerCountersMatchLogs(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	addCustomers(t, store, "Customer", 20, 4)
	c := sendingCampaign(t, store, 0, everyone)

	w := newWorker(store, NewRandomSender(0.5, 7))
	require.NoError(t, w.Deliver(ctx, c.ID))

	got, err := store.Campaigns.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, model.CampaignStatusCompleted, got.Status)

	logs, err := store.Logs.ListByCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, len(logs), got.SentCount+got.FailedCount)

	stats, err := store.Logs.CountByStatus(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, got.SentCount, stats[model.LogStatusSent])
	assert.Equal(t, got.FailedCount, stats[model.LogStatusFailed])
}

func TestWorkerCapsAudienceAndFiltersByRules(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	addCustomers(t, store, "Regular", 3, 5)
	addCustomers(t, store, "Customer", 2, 1)
	c := sendingCampaign(t, store, 1,
		model.Rule{ID: "1", Field: model.FieldVisits, Operator: model.OpLessThan, Value: "3"})

	require.NoError(t, newWorker(store, alwaysSend()).Deliver(ctx, c.ID))

	got, err := store.Campaigns.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SentCount)
	assert.Equal(t, 1, got.AudienceSize)

	logs, err := store.Logs.ListByCampaign(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Customer A", logs[0].CustomerName)
}

func TestWorkerFailsCampaignWhenLogWriteFails(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	addCustomers(t, store, "Customer", 6, 2)
	c := sendingCampaign(t, store, 5, everyone)

	w := newWorker(store, alwaysSend())
	w.LogRepo = &failingLogRepo{CommunicationLogRepositoryInterface: store.Logs, failAt: 2}

	err := w.Deliver(ctx, c.ID)
	require.Error(t, err)

	got, err := store.Campaigns.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusFailed, got.Status)
	assert.Equal(t, 0, got.SentCount)
	assert.Equal(t, 0, got.FailedCount)

	logs, err := store.Logs.ListByCampaign(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Customer A", logs[0].CustomerName)
}

func TestWorkerClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	addCustomers(t, store, "Customer", 4, 1)
	c := sendingCampaign(t, store, 0, everyone)

	w := newWorker(store, alwaysSend())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.Deliver(ctx, c.ID))
		}()
	}
	wg.Wait()

	logs, err := store.Logs.ListByCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 4)

	got, err := store.Campaigns.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.SentCount)
}

func TestWorkerSkipsFinishedCampaign(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	addCustomers(t, store, "Customer", 2, 1)
	c := sendingCampaign(t, store, 0, everyone)
	require.NoError(t, store.Campaigns.Finish(ctx, c.ID, 0, 0, 0))

	require.NoError(t, newWorker(store, alwaysSend()).Deliver(ctx, c.ID))

	logs, err := store.Logs.ListByCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestWorkerUnknownCampaign(t *testing.T) {
	err := newWorker(newMemoryStore(), alwaysSend()).Deliver(context.Background(), "missing")
	assert.Error(t, err)
}

func TestWorkerCancelledRunMarksFailed(t *testing.T) {
	store := newMemoryStore()
	addCustomers(t, store, "Customer", 3, 1)
	c := sendingCampaign(t, store, 0, everyone)

	ctx, cancel := context.WithCancel(context.Background())
	sender := SenderFunc(func(context.Context, model.Customer, string) error {
		cancel()
		return nil
	})

	err := newWorker(store, sender).Deliver(ctx, c.ID)
	assert.ErrorIs(t, err, context.Canceled)

	got, err := store.Campaigns.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusFailed, got.Status)

	logs, err := store.Logs.ListByCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestRandomSenderRate(t *testing.T) {
	s := NewRandomSender(0.9, 1)
	failed := 0
	for i := 0; i < 1000; i++ {
		if err := s.Send(context.Background(), model.Customer{}, "m"); err != nil {
			assert.ErrorIs(t, err, ErrDeliveryFailed)
			failed++
		}
	}
	assert.InDelta(t, 100, failed, 40)

	assert.NoError(t, NewRandomSender(1, 1).Send(context.Background(), model.Customer{}, "m"))
	assert.Error(t, NewRandomSender(0, 1).Send(context.Background(), model.Customer{}, "m"))
}
