package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/queue"
	"github.com/unclebandit/campaign-crm/internal/repository"
	"github.com/unclebandit/campaign-crm/internal/repository/memory"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// recordingQueue remembers published jobs instead of running them.
type recordingQueue struct {
	mu   sync.Mutex
	jobs []queue.DeliveryJob
	err  error
}

func (q *recordingQueue) Publish(_ context.Context, job queue.DeliveryJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Subscribe(queue.Handler) error { return nil }
func (q *recordingQueue) Close() error                  { return nil }

func (q *recordingQueue) published() []queue.DeliveryJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.DeliveryJob(nil), q.jobs...)
}

// failingLogRepo fails every write from the failAt-th on.
type failingLogRepo struct {
	repository.CommunicationLogRepositoryInterface
	failAt int
	calls  int
}

func (r *failingLogRepo) Create(ctx context.Context, l *model.CommunicationLog) error {
	r.calls++
	if r.calls >= r.failAt {
		return errPersistenceDown
	}
	return r.CommunicationLogRepositoryInterface.Create(ctx, l)
}

var errPersistenceDown = errors.New("persistence down")

func addCustomers(t *testing.T, store *repository.Store, prefix string, n, visits int) []model.Customer {
	t.Helper()
	out := make([]model.Customer, 0, n)
	for i := 0; i < n; i++ {
		c := &model.Customer{
			Name:       prefix + " " + string(rune('A'+i)),
			Email:      prefix + string(rune('a'+i)) + "@example.com",
			TotalSpend: decimal.NewFromInt(int64(1000 * (i + 1))),
			Visits:     visits,
			CreatedAt:  fixedNow.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.Customers.Create(context.Background(), c))
		out = append(out, *c)
	}
	return out
}

func sendingCampaign(t *testing.T, store *repository.Store, audienceSize int, rules ...model.Rule) *model.Campaign {
	t.Helper()
	c := &model.Campaign{
		Name:         "Spring Sale",
		Message:      "Hi {name}, {name} gets 10% off",
		Rules:        rules,
		AudienceSize: audienceSize,
		Status:       model.CampaignStatusSending,
		CreatedAt:    fixedNow,
	}
	require.NoError(t, store.Campaigns.Create(context.Background(), c))
	return c
}

func newMemoryStore() *repository.Store {
	return memory.New()
}
