package controller

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-crm/internal/service"
)

type CustomerController struct {
	CustomerService *service.CustomerService
	Logger          *zap.Logger
}

func (c *CustomerController) ListCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	// bad numbers fall back to the defaults
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := c.CustomerService.ListCustomers(r.Context(), page, limit, q.Get("search"))
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *CustomerController) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name       string           `json:"name"`
		Email      string           `json:"email"`
		TotalSpend *decimal.Decimal `json:"totalSpend"`
		Visits     *int             `json:"visits"`
	}
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, c.Logger, err)
		return
	}

	customer, err := c.CustomerService.CreateCustomer(r.Context(), service.CreateCustomerInput{
		Name:       body.Name,
		Email:      body.Email,
		TotalSpend: body.TotalSpend,
		Visits:     body.Visits,
	})
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}
