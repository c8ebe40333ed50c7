package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/repository"
)

type OrderRepository struct {
	DB *sqlx.DB
}

func (r *OrderRepository) Create(ctx context.Context, o *model.Order) error {
	if o.ID == "" {
		o.ID = model.NewID()
	}
	query := `
        INSERT INTO orders (id, customer_id, amount, status, created_at, updated_at)
        VALUES (:id, :customer_id, :amount, :status, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, orderRow(*o))
	return appErrors.NewPersistence("insert order", err)
}

func (r *OrderRepository) List(ctx context.Context, customerID string) ([]model.Order, error) {
	query := `SELECT id, customer_id, amount, status, created_at, updated_at FROM orders`
	args := []interface{}{}
	if customerID != "" {
		query += ` WHERE customer_id=$1`
		args = append(args, customerID)
	}
	query += ` ORDER BY created_at DESC`

	var rows []orderRow
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, appErrors.NewPersistence("list orders", err)
	}
	out := make([]model.Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.Order(row))
	}
	return out, nil
}

func (r *OrderRepository) DeleteAll(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM orders`)
	return appErrors.NewPersistence("delete orders", err)
}

var _ repository.OrderRepositoryInterface = (*OrderRepository)(nil)
