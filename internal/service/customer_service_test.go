package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
)

func newCustomerService() *CustomerService {
	return &CustomerService{CustomerRepo: newMemoryStore().Customers, Logger: zap.NewNop(), Now: clock}
}

func intPtr(i int) *int { return &i }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateCustomer(t *testing.T) {
	ctx := context.Background()
	svc := newCustomerService()

	c, err := svc.CreateCustomer(ctx, CreateCustomerInput{
		Name:       "Ann",
		Email:      "ann@x.com",
		TotalSpend: decPtr("12000"),
		Visits:     intPtr(4),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Ann", c.Name)
	assert.True(t, decimal.NewFromInt(12000).Equal(c.TotalSpend))
	assert.Equal(t, 4, c.Visits)
	assert.Equal(t, fixedNow, c.LastPurchase)
	assert.Equal(t, fixedNow, c.CreatedAt)

	stored, err := svc.CustomerRepo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", stored.Email)
}

func TestCreateCustomerDefaultsAndNormalizes(t *testing.T) {
	c, err := newCustomerService().CreateCustomer(context.Background(), CreateCustomerInput{
		Name:  " Bob ",
		Email: " Bob@Example.COM ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bob", c.Name)
	assert.Equal(t, "bob@example.com", c.Email)
	assert.True(t, c.TotalSpend.IsZero())
	assert.Zero(t, c.Visits)
}

func TestCreateCustomerRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newCustomerService()

	_, err := svc.CreateCustomer(ctx, CreateCustomerInput{Name: "Ann", Email: "ann@x.com"})
	require.NoError(t, err)

	_, err = svc.CreateCustomer(ctx, CreateCustomerInput{Name: "Other Ann", Email: "ANN@x.com"})
	var verr *appErrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Customer with this email already exists", verr.Message)

	n, err := svc.CustomerRepo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateCustomerValidation(t *testing.T) {
	tests := map[string]CreateCustomerInput{
		"missing name":   {Email: "a@b.co"},
		"missing email":  {Name: "A"},
		"invalid email":  {Name: "A", Email: "not-an-email"},
		"negative spend": {Name: "A", Email: "a@b.co", TotalSpend: decPtr("-1")},
		"negative visit": {Name: "A", Email: "a@b.co", Visits: intPtr(-2)},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newCustomerService().CreateCustomer(context.Background(), in)
			var verr *appErrors.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestListCustomersPagination(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	addCustomers(t, store, "Customer", 12, 1)
	svc := &CustomerService{CustomerRepo: store.Customers, Logger: zap.NewNop()}

	page, err := svc.ListCustomers(ctx, 0, 0, "")
	require.NoError(t, err)
	assert.Len(t, page.Customers, 10)
	assert.Equal(t, Pagination{Page: 1, Limit: 10, Total: 12, Pages: 2}, page.Pagination)

	page, err = svc.ListCustomers(ctx, 2, 10, "")
	require.NoError(t, err)
	assert.Len(t, page.Customers, 2)

	page, err = svc.ListCustomers(ctx, 1, 500, "customerb")
	require.NoError(t, err)
	assert.Equal(t, 100, page.Pagination.Limit)
	assert.Equal(t, 1, page.Pagination.Total)

	page, err = svc.ListCustomers(ctx, 9, 10, "")
	require.NoError(t, err)
	assert.NotNil(t, page.Customers)
	assert.Empty(t, page.Customers)
}
