package controller

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-crm/internal/service"
)

// VendorController takes callbacks from the messaging vendor and the demo
// data reset.
type VendorController struct {
	SeedService *service.SeedService
	Logger      *zap.Logger
}

// DeliveryReceipt records a vendor receipt in the log. Receipts do not change
// campaign counters.
func (c *VendorController) DeliveryReceipt(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MessageID  string `json:"messageId"`
		Status     string `json:"status"`
		CustomerID string `json:"customerId"`
		Timestamp  string `json:"timestamp"`
	}
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, c.Logger, err)
		return
	}

	c.Logger.Info("delivery receipt",
		zap.String("message_id", body.MessageID),
		zap.String("status", body.Status),
		zap.String("customer_id", body.CustomerID),
		zap.String("timestamp", body.Timestamp))

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Delivery receipt processed",
	})
}

func (c *VendorController) Seed(w http.ResponseWriter, r *http.Request) {
	result, err := c.SeedService.Seed(r.Context(), true)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
