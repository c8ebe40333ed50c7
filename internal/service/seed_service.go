package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/repository"
)

type SeedService struct {
	CustomerRepo repository.CustomerRepositoryInterface
	OrderRepo    repository.OrderRepositoryInterface
	Logger       *zap.Logger
	Now          func() time.Time
}

type SeedResult struct {
	Customers int    `json:"customers"`
	Orders    int    `json:"orders"`
	Message   string `json:"message"`
}

type seedCustomer struct {
	name, email  string
	spend        int64
	visits       int
	lastPurchase string
	createdAt    string
}

var demoCustomers = []seedCustomer{
	{"John Doe", "john@example.com", 15000, 5, "2024-01-15", "2023-06-01"},
	{"Jane Smith", "jane@example.com", 8500, 3, "2023-12-20", "2023-05-15"},
	{"Bob Johnson", "bob@example.com", 25000, 12, "2024-01-28", "2023-03-10"},
	{"Alice Brown", "alice@example.com", 12000, 8, "2024-01-20", "2023-04-05"},
	{"Charlie Wilson", "charlie@example.com", 3500, 2, "2023-11-15", "2023-08-20"},
}

// demoOrders reference demoCustomers by index.
var demoOrders = []struct {
	customer  int
	amount    int64
	createdAt string
}{
	{0, 5000, "2024-01-15"},
	{1, 3500, "2023-12-20"},
	{0, 10000, "2024-01-10"},
}

func seedDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(fmt.Sprintf("bad seed date %q", s))
	}
	return t
}

// Seed loads the demo customers and orders. With reset it first wipes both
// collections; without it, an already populated store is left alone.
func (s *SeedService) Seed(ctx context.Context, reset bool) (*SeedResult, error) {
	if reset {
		if err := s.OrderRepo.DeleteAll(ctx); err != nil {
			return nil, err
		}
		if err := s.CustomerRepo.DeleteAll(ctx); err != nil {
			return nil, err
		}
	} else {
		n, err := s.CustomerRepo.Count(ctx)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			s.Logger.Info("store already seeded, skipping", zap.Int("customers", n))
			return &SeedResult{Message: "Database already contains data"}, nil
		}
	}

	now := nowFunc(s.Now)()
	ids := make([]string, len(demoCustomers))
	for i, sc := range demoCustomers {
		c := &model.Customer{
			Name:         sc.name,
			Email:        sc.email,
			TotalSpend:   decimal.NewFromInt(sc.spend),
			Visits:       sc.visits,
			LastPurchase: seedDate(sc.lastPurchase),
			CreatedAt:    seedDate(sc.createdAt),
			UpdatedAt:    now,
		}
		if err := s.CustomerRepo.Create(ctx, c); err != nil {
			return nil, err
		}
		ids[i] = c.ID
	}

	for _, so := range demoOrders {
		created := seedDate(so.createdAt)
		o := &model.Order{
			CustomerID: ids[so.customer],
			Amount:     decimal.NewFromInt(so.amount),
			Status:     model.OrderStatusCompleted,
			CreatedAt:  created,
			UpdatedAt:  created,
		}
		if err := s.OrderRepo.Create(ctx, o); err != nil {
			return nil, err
		}
	}

	s.Logger.Info("database seeded",
		zap.Int("customers", len(demoCustomers)),
		zap.Int("orders", len(demoOrders)))
	return &SeedResult{
		Customers: len(demoCustomers),
		Orders:    len(demoOrders),
		Message:   "Database seeded successfully",
	}, nil
}
