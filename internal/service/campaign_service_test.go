package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/queue"
	"github.com/unclebandit/campaign-crm/internal/repository"
)

func newCampaignService(store *repository.Store, q *recordingQueue) *CampaignService {
	return &CampaignService{
		CampaignRepo: store.Campaigns,
		LogRepo:      store.Logs,
		Queue:        q,
		Logger:       zap.NewNop(),
		Now:          clock,
	}
}

func TestCreateCampaignPublishesDeliveryJob(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	q := &recordingQueue{}
	svc := newCampaignService(store, q)

	c, err := svc.CreateCampaign(ctx, CreateCampaignInput{
		Name:    "  Win back  ",
		Message: "We miss you {name}",
		Rules: []model.Rule{
			{Field: model.FieldLastPurchase, Operator: model.OpDaysAgo, Value: "90", Connector: "OR"},
			{Field: model.FieldVisits, Operator: model.OpLessThan, Value: "3", Connector: "AND"},
		},
		AudienceSize: 25,
	})
	require.NoError(t, err)

	assert.Equal(t, "Win back", c.Name)
	assert.Equal(t, model.CampaignStatusSending, c.Status)
	assert.Zero(t, c.SentCount)
	assert.Zero(t, c.FailedCount)
	assert.Equal(t, "1", c.Rules[0].ID)
	assert.Empty(t, c.Rules[0].Connector)
	assert.Equal(t, fixedNow, c.CreatedAt)

	jobs := q.published()
	require.Len(t, jobs, 1)
	assert.Equal(t, c.ID, jobs[0].CampaignID)

	stored, err := store.Campaigns.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, stored.AudienceSize)
}

func TestCreateCampaignValidation(t *testing.T) {
	rule := model.Rule{Field: model.FieldTotalSpend, Operator: model.OpGreaterThan, Value: "10000"}
	long := make([]byte, maxCampaignName+1)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name string
		in   CreateCampaignInput
	}{
		{"empty rules", CreateCampaignInput{Name: "n", Message: "m"}},
		{"missing name", CreateCampaignInput{Message: "m", Rules: []model.Rule{rule}}},
		{"blank message", CreateCampaignInput{Name: "n", Message: "   ", Rules: []model.Rule{rule}}},
		{"long name", CreateCampaignInput{Name: string(long), Message: "m", Rules: []model.Rule{rule}}},
		{"negative audience", CreateCampaignInput{Name: "n", Message: "m", Rules: []model.Rule{rule}, AudienceSize: -1}},
		{"bad rule", CreateCampaignInput{Name: "n", Message: "m", Rules: []model.Rule{{Field: "age", Operator: "gt", Value: "3"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			q := &recordingQueue{}
			_, err := newCampaignService(store, q).CreateCampaign(context.Background(), tt.in)

			var verr *appErrors.ValidationError
			require.ErrorAs(t, err, &verr)

			all, err := store.Campaigns.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.Empty(t, q.published())
		})
	}
}

func TestCreateCampaignSurvivesPublishFailure(t *testing.T) {
	store := newMemoryStore()
	q := &recordingQueue{err: errors.New("broker down")}

	c, err := newCampaignService(store, q).CreateCampaign(context.Background(), CreateCampaignInput{
		Name:    "n",
		Message: "m",
		Rules:   []model.Rule{{Field: model.FieldVisits, Operator: model.OpGreaterThan, Value: "1"}},
	})
	require.NoError(t, err)

	unclaimed, err := store.Campaigns.ListUnclaimed(context.Background(), fixedNow.Add(1))
	require.NoError(t, err)
	require.Len(t, unclaimed, 1)
	assert.Equal(t, c.ID, unclaimed[0].ID)
}

func TestCreateCampaignDoesNotWaitOnBusyWorkers(t *testing.T) {
	store := newMemoryStore()
	q := queue.NewInMemoryQueue(1, 1, zap.NewNop(), nil)
	defer q.Close()

	busy := make(chan struct{})
	started := make(chan struct{}, 1)
	require.NoError(t, q.Subscribe(func(ctx context.Context, _ queue.DeliveryJob) error {
		started <- struct{}{}
		select {
		case <-busy:
		case <-ctx.Done():
		}
		return nil
	}))
	defer close(busy)

	svc := &CampaignService{
		CampaignRepo: store.Campaigns,
		LogRepo:      store.Logs,
		Queue:        q,
		Logger:       zap.NewNop(),
		Now:          clock,
	}
	create := func(name string) {
		_, err := svc.CreateCampaign(context.Background(), CreateCampaignInput{
			Name:    name,
			Message: "m",
			Rules:   []model.Rule{{Field: model.FieldVisits, Operator: model.OpGreaterThan, Value: "1"}},
		})
		assert.NoError(t, err)
	}

	create("first")
	<-started // the only worker is now held

	done := make(chan struct{})
	go func() {
		defer close(done)
		create("second") // fills the buffer
		create("third")  // overflows
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("CreateCampaign blocked behind a busy queue")
	}

	campaigns, err := store.Campaigns.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, campaigns, 3)
}

func TestCampaignDetailsWithStats(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	addCustomers(t, store, "Customer", 3, 1)
	c := sendingCampaign(t, store, 0, everyone)
	require.NoError(t, newWorker(store, alwaysSend()).Deliver(ctx, c.ID))

	svc := newCampaignService(store, &recordingQueue{})
	details, err := svc.GetCampaignDetailsWithStats(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, details.ID)
	assert.Equal(t, 3, details.Stats["sent"])
	assert.Equal(t, 3, details.Stats["total"])
	assert.Equal(t, 0, details.Stats["failed"])

	logs, err := svc.ListLogs(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 3)

	_, err = svc.GetCampaignDetailsWithStats(ctx, "nope")
	var nf *appErrors.ErrCampaignNotFound
	assert.ErrorAs(t, err, &nf)

	_, err = svc.ListLogs(ctx, "nope")
	assert.ErrorAs(t, err, &nf)
}

func TestListCampaignsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := newCampaignService(store, &recordingQueue{})
	rules := []model.Rule{everyone}

	svc.Now = func() time.Time { return fixedNow }
	_, err := svc.CreateCampaign(ctx, CreateCampaignInput{Name: "old", Message: "m", Rules: rules})
	require.NoError(t, err)
	svc.Now = func() time.Time { return fixedNow.Add(time.Hour) }
	_, err = svc.CreateCampaign(ctx, CreateCampaignInput{Name: "new", Message: "m", Rules: rules})
	require.NoError(t, err)

	all, err := svc.ListCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].Name)
}

func TestPersonalizeReplacesEveryPlaceholder(t *testing.T) {
	got := Personalize("{name}, hello {name}! {unknown}", model.Customer{Name: "Ann"})
	assert.Equal(t, "Ann, hello Ann! {unknown}", got)

	assert.Equal(t, "Hi Bob from Nairobi",
		RenderTemplate("Hi {first_name} from {location}", map[string]string{"first_name": "Bob", "location": "Nairobi"}))
}
