package controller

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-crm/internal/assistant"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/service"
)

// InsightController serves segment previews, analytics and the AI assistant.
type InsightController struct {
	SegmentService   *service.SegmentService
	AnalyticsService *service.AnalyticsService
	Assistant        *assistant.Service
	Logger           *zap.Logger
}

func (c *InsightController) PreviewSegment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rules []model.Rule `json:"rules"`
	}
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, c.Logger, err)
		return
	}

	preview, err := c.SegmentService.Preview(r.Context(), body.Rules)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (c *InsightController) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := c.AnalyticsService.Summary(r.Context())
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (c *InsightController) CampaignInsights(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data *service.Summary `json:"data"`
	}
	if err := decodeBody(r, &body, true); err != nil {
		writeError(w, c.Logger, err)
		return
	}

	data := body.Data
	if data == nil {
		summary, err := c.AnalyticsService.Summary(r.Context())
		if err != nil {
			writeError(w, c.Logger, err)
			return
		}
		data = summary
	}

	insights, err := c.Assistant.CampaignInsights(r.Context(), *data)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

func (c *InsightController) GenerateRules(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, c.Logger, err)
		return
	}

	rules, err := c.Assistant.GenerateRules(r.Context(), body.Prompt)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (c *InsightController) MessageSuggestions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CampaignType string `json:"campaignType"`
	}
	if err := decodeBody(r, &body, true); err != nil {
		writeError(w, c.Logger, err)
		return
	}

	suggestions, err := c.Assistant.MessageSuggestions(r.Context(), body.CampaignType)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}
