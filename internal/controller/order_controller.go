package controller

import (
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/service"
)

type OrderController struct {
	OrderService *service.OrderService
	Logger       *zap.Logger
}

func (c *OrderController) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := c.OrderService.ListOrders(r.Context(), r.URL.Query().Get("customerId"))
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (c *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CustomerID string           `json:"customerId"`
		Amount     *decimal.Decimal `json:"amount"`
		Status     string           `json:"status"`
	}
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, c.Logger, err)
		return
	}

	order, err := c.OrderService.CreateOrder(r.Context(), service.CreateOrderInput{
		CustomerID: body.CustomerID,
		Amount:     body.Amount,
		Status:     body.Status,
	})
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}
