package service

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/repository"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	maxCustomerName  = 100
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type CustomerService struct {
	CustomerRepo repository.CustomerRepositoryInterface
	Logger       *zap.Logger
	Now          func() time.Time
}

type CreateCustomerInput struct {
	Name       string
	Email      string
	TotalSpend *decimal.Decimal
	Visits     *int
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type CustomerPage struct {
	Customers  []model.Customer `json:"customers"`
	Pagination Pagination       `json:"pagination"`
}

func (s *CustomerService) CreateCustomer(ctx context.Context, in CreateCustomerInput) (*model.Customer, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" {
		return nil, appErrors.NewValidation("Name and email are required")
	}
	if utf8.RuneCountInString(name) > maxCustomerName {
		return nil, appErrors.NewValidation("Name must be at most %d characters", maxCustomerName)
	}
	if !emailPattern.MatchString(email) {
		return nil, appErrors.NewValidation("Please enter a valid email")
	}

	spend := decimal.Zero
	if in.TotalSpend != nil {
		spend = *in.TotalSpend
	}
	if spend.IsNegative() {
		return nil, appErrors.NewValidation("Total spend cannot be negative")
	}
	visits := 0
	if in.Visits != nil {
		visits = *in.Visits
	}
	if visits < 0 {
		return nil, appErrors.NewValidation("Visits cannot be negative")
	}

	now := nowFunc(s.Now)()
	c := &model.Customer{
		Name:         name,
		Email:        email,
		TotalSpend:   spend,
		Visits:       visits,
		LastPurchase: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CustomerRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.Logger.Info("customer created", zap.String("customer_id", c.ID))
	return c, nil
}

// ListCustomers pages through customers, newest first. page defaults to 1 and
// limit to 10, capped at 100.
func (s *CustomerService) ListCustomers(ctx context.Context, page, limit int, search string) (*CustomerPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	customers, total, err := s.CustomerRepo.List(ctx, repository.CustomerListOptions{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(search),
	})
	if err != nil {
		return nil, err
	}
	if customers == nil {
		customers = []model.Customer{}
	}
	return &CustomerPage{
		Customers: customers,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	}, nil
}
