package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/repository"
)

type CustomerRepository struct {
	DB *sqlx.DB
}

const customerColumns = `id, name, email, total_spend, visits, last_purchase, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) error {
	if c.ID == "" {
		c.ID = model.NewID()
	}
	query := `
        INSERT INTO customers (` + customerColumns + `)
        VALUES (:id, :name, :email, :total_spend, :visits, :last_purchase, :created_at, :updated_at)
    `
	if _, err := r.DB.NamedExecContext(ctx, query, customerRow(*c)); err != nil {
		if isUniqueViolation(err) {
			return appErrors.NewValidation("Customer with this email already exists")
		}
		return appErrors.NewPersistence("insert customer", err)
	}
	return nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	var row customerRow
	err := r.DB.GetContext(ctx, &row, `SELECT `+customerColumns+` FROM customers WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewNotFound("customer", id)
	}
	if err != nil {
		return nil, appErrors.NewPersistence("get customer", err)
	}
	c := model.Customer(row)
	return &c, nil
}

func (r *CustomerRepository) List(ctx context.Context, opts repository.CustomerListOptions) ([]model.Customer, int, error) {
	where := ``
	args := []interface{}{}
	if opts.Search != "" {
		where = ` WHERE name ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+likeEscaper.Replace(opts.Search)+"%")
	}

	var total int
	if err := r.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM customers`+where, args...); err != nil {
		return nil, 0, appErrors.NewPersistence("count customers", err)
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + where + ` ORDER BY created_at DESC OFFSET ` + itoa(opts.Offset())
	if opts.Limit > 0 {
		query += ` LIMIT ` + itoa(opts.Limit)
	}
	var rows []customerRow
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, appErrors.NewPersistence("list customers", err)
	}
	return customers(rows), total, nil
}

func (r *CustomerRepository) ListAll(ctx context.Context) ([]model.Customer, error) {
	var rows []customerRow
	if err := r.DB.SelectContext(ctx, &rows, `SELECT `+customerColumns+` FROM customers ORDER BY created_at ASC`); err != nil {
		return nil, appErrors.NewPersistence("list customers", err)
	}
	return customers(rows), nil
}

func (r *CustomerRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM customers`); err != nil {
		return 0, appErrors.NewPersistence("count customers", err)
	}
	return n, nil
}

func (r *CustomerRepository) DeleteAll(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM customers`)
	return appErrors.NewPersistence("delete customers", err)
}

func customers(rows []customerRow) []model.Customer {
	out := make([]model.Customer, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.Customer(row))
	}
	return out
}

var _ repository.CustomerRepositoryInterface = (*CustomerRepository)(nil)
