package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/segment"
	"github.com/unclebandit/campaign-crm/internal/service"
)

const (
	insightsSystem = `You are a marketing analytics expert. Analyze campaign and customer data to provide actionable insights.

Generate 4-5 concise, human-readable insights based on the provided data. Each insight should be:
- Specific and data-driven
- Actionable for marketing teams
- Easy to understand
- Focused on opportunities for improvement

Return the insights as a JSON array of strings.`

	rulesSystem = `You are an expert in customer segmentation. Convert natural language descriptions into structured rules.

Available fields:
- totalSpend (number): total amount the customer spent
- visits (number): number of visits
- lastPurchase (date): date of the last purchase
- createdAt (date): when the customer account was created

Available operators:
- gt, gte, lt, lte, eq: comparisons
- days_ago: the date field is at least N days old (date fields only)

Return a JSON array of rule objects shaped like
{"id": "1", "field": "totalSpend", "operator": "gt", "value": "10000", "connector": "AND"}
where connector is AND or OR and is omitted on the first rule.

Example input: "Customers who spent more than 10000 and visited less than 3 times"
Example output: [
  {"id": "1", "field": "totalSpend", "operator": "gt", "value": "10000"},
  {"id": "2", "field": "visits", "operator": "lt", "value": "3", "connector": "AND"}
]`

	suggestionsSystem = `You are a marketing expert specializing in personalized customer communications. Generate 3 different message suggestions for campaigns.

Requirements:
- Include the {name} placeholder for personalization
- Keep messages under 160 characters
- Make them engaging and action-oriented
- Include relevant offers or calls-to-action
- Return a JSON array of strings

Campaign types:
- general: welcome messages, product updates
- winback: re-engage inactive customers
- highvalue: reward loyal customers
- newcustomer: onboard new users`
)

var defaultSuggestions = []string{
	"Hi {name}, we have a special offer just for you! Get 20% off your next purchase.",
	"Hey {name}! Don't miss out on our exclusive deals tailored for valued customers like you.",
	"Hello {name}, your personalized recommendations are ready! Check them out now.",
}

// Service runs the three assistant flows. Insights and suggestions fall back
// to canned content, flagged as degraded, when the model output is unusable.
// Generated rules have no fallback.
type Service struct {
	Generator Generator
	Logger    *zap.Logger
}

type Insights struct {
	Insights []string `json:"insights"`
	Degraded bool     `json:"degraded"`
}

type Suggestions struct {
	Suggestions []string `json:"suggestions"`
	Degraded    bool     `json:"degraded"`
}

func (s *Service) CampaignInsights(ctx context.Context, data service.Summary) (*Insights, error) {
	raw, err := s.Generator.Generate(ctx, insightsSystem, insightsPrompt(data))
	if err != nil {
		return nil, err
	}

	insights, err := ParseStringArray(raw)
	if err != nil {
		s.degraded("campaign insights", err)
		return &Insights{Insights: fallbackInsights(data), Degraded: true}, nil
	}
	return &Insights{Insights: insights}, nil
}

func (s *Service) GenerateRules(ctx context.Context, prompt string) ([]model.Rule, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, appErrors.NewValidation("Prompt is required")
	}

	raw, err := s.Generator.Generate(ctx, rulesSystem,
		fmt.Sprintf("Convert this customer segment description to rules: %q", prompt))
	if err != nil {
		return nil, err
	}

	rules, err := ParseRules(raw)
	if err != nil {
		return nil, appErrors.NewUpstream("generate rules", err)
	}
	for i := range rules {
		if rules[i].ID == "" {
			rules[i].ID = strconv.Itoa(i + 1)
		}
	}
	rules[0].Connector = ""

	if err := segment.Validate(rules); err != nil {
		// a bad generated rule is the model's fault, not the caller's
		return nil, appErrors.NewUpstream("generate rules", &appErrors.ParseError{Raw: raw, Reason: err.Error()})
	}
	return rules, nil
}

func (s *Service) MessageSuggestions(ctx context.Context, campaignType string) (*Suggestions, error) {
	campaignType = strings.TrimSpace(campaignType)
	if campaignType == "" {
		campaignType = "general"
	}

	raw, err := s.Generator.Generate(ctx, suggestionsSystem, fmt.Sprintf(
		"Generate 3 message suggestions for a %s campaign. Return only a JSON array of message strings.", campaignType))
	if err != nil {
		return nil, err
	}

	suggestions, err := ParseStringArray(raw)
	if err != nil {
		s.degraded("message suggestions", err)
		return &Suggestions{Suggestions: append([]string(nil), defaultSuggestions...), Degraded: true}, nil
	}
	return &Suggestions{Suggestions: suggestions}, nil
}

func (s *Service) degraded(flow string, err error) {
	var perr *appErrors.ParseError
	if errors.As(err, &perr) {
		s.Logger.Warn("unusable model output, serving canned content",
			zap.String("flow", flow),
			zap.String("reason", perr.Reason))
		return
	}
	s.Logger.Warn("unusable model output, serving canned content", zap.String("flow", flow), zap.Error(err))
}

func insightsPrompt(d service.Summary) string {
	top, _ := json.Marshal(d.TopPerformingCampaigns)
	segments, _ := json.Marshal(d.CustomerSegments)
	months, _ := json.Marshal(d.CampaignsByMonth)

	return fmt.Sprintf(`Analyze this marketing data and provide insights:

Total Campaigns: %d
Total Customers: %d
Average Delivery Rate: %.1f%%
Total Revenue: %s

Top Campaigns: %s
Customer Segments: %s
Monthly Activity: %s

Provide actionable insights for improving campaign performance and customer engagement.`,
		d.TotalCampaigns, d.TotalCustomers, d.AvgDeliveryRate, d.TotalRevenue.StringFixed(2),
		top, segments, months)
}

func fallbackInsights(d service.Summary) []string {
	inactive := 0.0
	for _, s := range d.CustomerSegments {
		if s.Segment == "Inactive" {
			inactive = s.Percentage
		}
	}
	return []string{
		fmt.Sprintf("Your average delivery rate is %.1f%%; keep an eye on failed sends to protect it.", d.AvgDeliveryRate),
		fmt.Sprintf("%.1f%% of customers are inactive, a re-engagement campaign could win them back.", inactive),
		"High-value customers offer the strongest return, target them with loyalty rewards.",
		"Keep a steady monthly campaign cadence to hold engagement.",
		"Nudge frequent buyers toward the high-value segment to grow revenue.",
	}
}
