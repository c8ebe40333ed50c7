// Package memory keeps every collection in process memory. It backs tests and
// the "memory" store driver for local runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/repository"
)

type state struct {
	mu        sync.RWMutex
	customers []model.Customer
	campaigns []model.Campaign
	logs      []model.CommunicationLog
	orders    []model.Order
}

// New returns an empty in-memory store.
func New() *repository.Store {
	s := &state{}
	return repository.NewStore(
		&CustomerRepository{s: s},
		&CampaignRepository{s: s},
		&CommunicationLogRepository{s: s},
		&OrderRepository{s: s},
		nil,
	)
}

// ====================== Customers ======================

type CustomerRepository struct {
	s *state
}

func (r *CustomerRepository) Create(_ context.Context, c *model.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.customers {
		if strings.EqualFold(existing.Email, c.Email) {
			return appErrors.NewValidation("Customer with this email already exists")
		}
	}
	if c.ID == "" {
		c.ID = model.NewID()
	}
	r.s.customers = append(r.s.customers, *c)
	return nil
}

func (r *CustomerRepository) GetByID(_ context.Context, id string) (*model.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.customers {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, appErrors.NewNotFound("customer", id)
}

func (r *CustomerRepository) List(_ context.Context, opts repository.CustomerListOptions) ([]model.Customer, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(opts.Search)
	var matched []model.Customer
	for _, c := range r.s.customers {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.Email), search) {
			continue
		}
		matched = append(matched, c)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := opts.Offset()
	if start >= total {
		return []model.Customer{}, total, nil
	}
	end := start + opts.Limit
	if opts.Limit <= 0 || end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *CustomerRepository) ListAll(_ context.Context) ([]model.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Customer, len(r.s.customers))
	copy(out, r.s.customers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *CustomerRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.customers), nil
}

func (r *CustomerRepository) DeleteAll(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.customers = nil
	return nil
}

// ====================== Campaigns ======================

type CampaignRepository struct {
	s *state
}

func cloneCampaign(c model.Campaign) model.Campaign {
	c.Rules = append([]model.Rule(nil), c.Rules...)
	if c.ClaimedAt != nil {
		at := *c.ClaimedAt
		c.ClaimedAt = &at
	}
	return c
}

func (r *CampaignRepository) find(id string) int {
	for i := range r.s.campaigns {
		if r.s.campaigns[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *CampaignRepository) Create(_ context.Context, c *model.Campaign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c.ID == "" {
		c.ID = model.NewID()
	}
	r.s.campaigns = append(r.s.campaigns, cloneCampaign(*c))
	return nil
}

func (r *CampaignRepository) GetByID(_ context.Context, id string) (*model.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i := r.find(id)
	if i < 0 {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	out := cloneCampaign(r.s.campaigns[i])
	return &out, nil
}

func (r *CampaignRepository) List(_ context.Context) ([]model.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Campaign, 0, len(r.s.campaigns))
	for _, c := range r.s.campaigns {
		out = append(out, cloneCampaign(c))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *CampaignRepository) ListUnclaimed(_ context.Context, olderThan time.Time) ([]model.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []model.Campaign
	for _, c := range r.s.campaigns {
		if c.Status == model.CampaignStatusSending && c.ClaimedAt == nil && c.CreatedAt.Before(olderThan) {
			out = append(out, cloneCampaign(c))
		}
	}
	return out, nil
}

func (r *CampaignRepository) Claim(_ context.Context, id string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.find(id)
	if i < 0 {
		return false, appErrors.NewCampaignNotFound(id)
	}
	c := &r.s.campaigns[i]
	if c.Status != model.CampaignStatusSending || c.ClaimedAt != nil {
		return false, nil
	}
	c.ClaimedAt = &at
	c.UpdatedAt = at
	return true, nil
}

func (r *CampaignRepository) Finish(_ context.Context, id string, sent, failed, audienceSize int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.find(id)
	if i < 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	c := &r.s.campaigns[i]
	if c.Status != model.CampaignStatusSending {
		return appErrors.NewValidation("campaign %s is %s, not sending", id, c.Status)
	}
	c.Status = model.CampaignStatusCompleted
	c.SentCount = sent
	c.FailedCount = failed
	c.AudienceSize = audienceSize
	c.UpdatedAt = time.Now()
	return nil
}

func (r *CampaignRepository) MarkFailed(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.find(id)
	if i < 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	c := &r.s.campaigns[i]
	if c.Status != model.CampaignStatusSending {
		return appErrors.NewValidation("campaign %s is %s, not sending", id, c.Status)
	}
	c.Status = model.CampaignStatusFailed
	c.UpdatedAt = time.Now()
	return nil
}

func (r *CampaignRepository) DeleteAll(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.campaigns = nil
	return nil
}

// ====================== Communication logs ======================

type CommunicationLogRepository struct {
	s *state
}

func (r *CommunicationLogRepository) Create(_ context.Context, l *model.CommunicationLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if l.ID == "" {
		l.ID = model.NewID()
	}
	r.s.logs = append(r.s.logs, *l)
	return nil
}

func (r *CommunicationLogRepository) ListByCampaign(_ context.Context, campaignID string) ([]model.CommunicationLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.CommunicationLog{}
	for _, l := range r.s.logs {
		if l.CampaignID == campaignID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *CommunicationLogRepository) CountByStatus(_ context.Context, campaignID string) (map[string]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := repository.EmptyStats()
	for _, l := range r.s.logs {
		if l.CampaignID == campaignID {
			stats[l.Status]++
		}
	}
	return stats, nil
}

// ====================== Orders ======================

type OrderRepository struct {
	s *state
}

func (r *OrderRepository) Create(_ context.Context, o *model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if o.ID == "" {
		o.ID = model.NewID()
	}
	r.s.orders = append(r.s.orders, *o)
	return nil
}

func (r *OrderRepository) List(_ context.Context, customerID string) ([]model.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.Order{}
	for _, o := range r.s.orders {
		if customerID == "" || o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *OrderRepository) DeleteAll(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.orders = nil
	return nil
}

var (
	_ repository.CustomerRepositoryInterface         = (*CustomerRepository)(nil)
	_ repository.CampaignRepositoryInterface         = (*CampaignRepository)(nil)
	_ repository.CommunicationLogRepositoryInterface = (*CommunicationLogRepository)(nil)
	_ repository.OrderRepositoryInterface            = (*OrderRepository)(nil)
)
