package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/repository"
)

type OrderService struct {
	OrderRepo    repository.OrderRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	Logger       *zap.Logger
	Now          func() time.Time
}

type CreateOrderInput struct {
	CustomerID string
	Amount     *decimal.Decimal
	Status     string
}

func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" || in.Amount == nil || in.Amount.IsZero() {
		return nil, appErrors.NewValidation("Customer ID and amount are required")
	}
	if in.Amount.IsNegative() {
		return nil, appErrors.NewValidation("Amount cannot be negative")
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = model.OrderStatusCompleted
	}
	if !model.ValidOrderStatus(status) {
		return nil, appErrors.NewValidation("Unknown order status %q", status)
	}

	if _, err := s.CustomerRepo.GetByID(ctx, customerID); err != nil {
		var nf *appErrors.NotFoundError
		if errors.As(err, &nf) {
			return nil, appErrors.NewValidation("Customer %s does not exist", customerID)
		}
		return nil, err
	}

	now := nowFunc(s.Now)()
	o := &model.Order{
		CustomerID: customerID,
		Amount:     *in.Amount,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.OrderRepo.Create(ctx, o); err != nil {
		return nil, err
	}
	s.Logger.Info("order created", zap.String("order_id", o.ID), zap.String("customer_id", customerID))
	return o, nil
}

// ListOrders returns orders newest first; customerID narrows them to one customer.
func (s *OrderService) ListOrders(ctx context.Context, customerID string) ([]model.Order, error) {
	return s.OrderRepo.List(ctx, strings.TrimSpace(customerID))
}
