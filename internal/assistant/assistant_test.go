package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/service"
)

type fakeGenerator struct {
	text   string
	err    error
	system string
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	f.system, f.prompt = system, prompt
	return f.text, f.err
}

func newService(g Generator) *Service {
	return &Service{Generator: g, Logger: zap.NewNop()}
}

func TestParseStringArray(t *testing.T) {
	got, err := ParseStringArray(`["a", " b ", ""]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	got, err = ParseStringArray("Sure! Here you go:\n```json\n[\"x\", \"y\"]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, got)

	var perr *appErrors.ParseError
	_, err = ParseStringArray("no array here")
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "no array here", perr.Raw)

	_, err = ParseStringArray("[1, 2]")
	assert.ErrorAs(t, err, &perr)

	_, err = ParseStringArray("[]")
	assert.ErrorAs(t, err, &perr)
}

func TestParseRulesAcceptsNumbers(t *testing.T) {
	rules, err := ParseRules(`Here: [{"id": 1, "field": "totalSpend", "operator": "gt", "value": 10000},
		{"id": "2", "field": "visits", "operator": "lt", "value": "3", "connector": "and"}]`)
	require.NoError(t, err)
	assert.Equal(t, []model.Rule{
		{ID: "1", Field: "totalSpend", Operator: "gt", Value: "10000"},
		{ID: "2", Field: "visits", Operator: "lt", Value: "3", Connector: "AND"},
	}, rules)
}

func TestGenerateRules(t *testing.T) {
	g := &fakeGenerator{text: `[{"field": "totalSpend", "operator": "gt", "value": "10000", "connector": "OR"},
		{"field": "visits", "operator": "lt", "value": "3", "connector": "AND"}]`}

	rules, err := newService(g).GenerateRules(context.Background(), "big spenders who rarely visit")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "1", rules[0].ID)
	assert.Empty(t, rules[0].Connector)
	assert.Contains(t, g.prompt, "big spenders who rarely visit")
}

func TestGenerateRulesFailures(t *testing.T) {
	ctx := context.Background()

	_, err := newService(&fakeGenerator{}).GenerateRules(ctx, "  ")
	assert.Equal(t, 400, appErrors.StatusCode(err))

	_, err = newService(&fakeGenerator{text: "I cannot help with that"}).GenerateRules(ctx, "vip")
	var perr *appErrors.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 500, appErrors.StatusCode(err))

	// parses, but the field does not exist
	_, err = newService(&fakeGenerator{text: `[{"field": "age", "operator": "gt", "value": "30"}]`}).GenerateRules(ctx, "old")
	assert.Equal(t, 500, appErrors.StatusCode(err))

	_, err = newService(&fakeGenerator{err: appErrors.NewUpstream("generate content", errors.New("quota"))}).GenerateRules(ctx, "vip")
	assert.Equal(t, 500, appErrors.StatusCode(err))
}

func TestMessageSuggestions(t *testing.T) {
	g := &fakeGenerator{text: `["Hi {name}!", "Welcome back {name}"]`}
	got, err := newService(g).MessageSuggestions(context.Background(), "winback")
	require.NoError(t, err)
	assert.False(t, got.Degraded)
	assert.Len(t, got.Suggestions, 2)
	assert.Contains(t, g.prompt, "winback campaign")

	got, err = newService(&fakeGenerator{text: "plain prose"}).MessageSuggestions(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, got.Degraded)
	assert.Equal(t, defaultSuggestions, got.Suggestions)

	_, err = newService(Unconfigured{}).MessageSuggestions(context.Background(), "general")
	var uerr *appErrors.UpstreamError
	assert.ErrorAs(t, err, &uerr)
}

func TestCampaignInsights(t *testing.T) {
	data := service.Summary{
		TotalCampaigns:  3,
		TotalCustomers:  5,
		AvgDeliveryRate: 85.7,
		TotalRevenue:    decimal.NewFromInt(18500),
		CustomerSegments: []service.SegmentShare{
			{Segment: "Inactive", Count: 1, Percentage: 20},
		},
	}

	g := &fakeGenerator{text: `["Insight one", "Insight two"]`}
	got, err := newService(g).CampaignInsights(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Insight one", "Insight two"}, got.Insights)
	assert.Contains(t, g.prompt, "Average Delivery Rate: 85.7%")
	assert.Contains(t, g.prompt, "Total Revenue: 18500.00")

	got, err = newService(&fakeGenerator{text: "{}"}).CampaignInsights(context.Background(), data)
	require.NoError(t, err)
	assert.True(t, got.Degraded)
	assert.Len(t, got.Insights, 5)
	assert.Contains(t, got.Insights[1], "20.0% of customers are inactive")
}
