// Package handler assembles the HTTP surface: routes, request logging and
// session authentication.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-crm/internal/controller"
	"github.com/unclebandit/campaign-crm/internal/metrics"
)

type Controllers struct {
	Campaigns *controller.CampaignController
	Customers *controller.CustomerController
	Orders    *controller.OrderController
	Insights  *controller.InsightController
	Vendor    *controller.VendorController
}

// NewRouter mounts every route. sessions maps bearer tokens to user names.
func NewRouter(c Controllers, sessions map[string]string, m *metrics.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", m.Handler())
	r.Post("/vendor/delivery-receipt", c.Vendor.DeliveryReceipt)

	r.Group(func(r chi.Router) {
		r.Use(requireSession(sessions, logger))

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", c.Campaigns.ListCampaigns)
			r.Post("/", c.Campaigns.CreateCampaign)
			r.Get("/{id}", c.Campaigns.GetCampaignDetails)
			r.Get("/{id}/logs", c.Campaigns.ListLogs)
		})

		r.Get("/customers", c.Customers.ListCustomers)
		r.Post("/customers", c.Customers.CreateCustomer)

		r.Get("/orders", c.Orders.ListOrders)
		r.Post("/orders", c.Orders.CreateOrder)

		r.Post("/segments/preview", c.Insights.PreviewSegment)
		r.Get("/analytics/summary", c.Insights.AnalyticsSummary)

		r.Route("/ai", func(r chi.Router) {
			r.Post("/campaign-insights", c.Insights.CampaignInsights)
			r.Post("/generate-rules", c.Insights.GenerateRules)
			r.Post("/message-suggestions", c.Insights.MessageSuggestions)
		})

		r.Post("/seed", c.Vendor.Seed)
	})
	return r
}
