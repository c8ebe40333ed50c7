// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/unclebandit/campaign-crm/internal/model"
)

// CustomerListOptions drives the paginated customer listing.
type CustomerListOptions struct {
	Page   int
	Limit  int
	Search string // case-insensitive substring of name or email
}

// Offset is the number of rows skipped for the requested page.
func (o CustomerListOptions) Offset() int {
	if o.Page < 1 {
		return 0
	}
	return (o.Page - 1) * o.Limit
}

type CustomerRepositoryInterface interface {
	// Create fails with a ValidationError when the email is already taken.
	Create(ctx context.Context, c *model.Customer) error
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	// List returns one page, newest first, and the total number of matches.
	List(ctx context.Context, opts CustomerListOptions) ([]model.Customer, int, error)
	// ListAll returns every customer, oldest first.
	ListAll(ctx context.Context) ([]model.Customer, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	// List returns every campaign, newest first.
	List(ctx context.Context) ([]model.Campaign, error)
	// ListUnclaimed returns sending campaigns nobody claimed, created before olderThan.
	ListUnclaimed(ctx context.Context, olderThan time.Time) ([]model.Campaign, error)
	// Claim marks a sending, unclaimed campaign as owned by the caller. It
	// reports false when somebody else got there first.
	Claim(ctx context.Context, id string, at time.Time) (bool, error)
	// Finish moves a sending campaign to completed with its final counters.
	Finish(ctx context.Context, id string, sent, failed, audienceSize int) error
	// MarkFailed moves a sending campaign to failed.
	MarkFailed(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

type CommunicationLogRepositoryInterface interface {
	Create(ctx context.Context, l *model.CommunicationLog) error
	ListByCampaign(ctx context.Context, campaignID string) ([]model.CommunicationLog, error)
	CountByStatus(ctx context.Context, campaignID string) (map[string]int, error)
}

type OrderRepositoryInterface interface {
	Create(ctx context.Context, o *model.Order) error
	// List returns orders newest first; an empty customerID means all customers.
	List(ctx context.Context, customerID string) ([]model.Order, error)
	DeleteAll(ctx context.Context) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Customers CustomerRepositoryInterface
	Campaigns CampaignRepositoryInterface
	Logs      CommunicationLogRepositoryInterface
	Orders    OrderRepositoryInterface

	close func(ctx context.Context) error
}

// NewStore wires repositories together with the backend's shutdown hook.
func NewStore(customers CustomerRepositoryInterface, campaigns CampaignRepositoryInterface,
	logs CommunicationLogRepositoryInterface, orders OrderRepositoryInterface,
	closeFn func(ctx context.Context) error) *Store {
	return &Store{
		Customers: customers,
		Campaigns: campaigns,
		Logs:      logs,
		Orders:    orders,
		close:     closeFn,
	}
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// EmptyStats returns the zeroed per-status log counters.
func EmptyStats() map[string]int {
	return map[string]int{
		model.LogStatusPending: 0,
		model.LogStatusSent:    0,
		model.LogStatusFailed:  0,
	}
}
