package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/campaign-crm/internal/model"
)

func TestRuleListColumn(t *testing.T) {
	rules := ruleList{
		{ID: "1", Field: model.FieldTotalSpend, Operator: model.OpGreaterThan, Value: "10000"},
		{ID: "2", Field: model.FieldVisits, Operator: model.OpLessThan, Value: "3", Connector: model.ConnectorOr},
	}
	v, err := rules.Value()
	require.NoError(t, err)

	var back ruleList
	require.NoError(t, back.Scan(v))
	assert.Equal(t, rules, back)

	require.NoError(t, back.Scan(nil))
	assert.Empty(t, back)

	assert.Error(t, back.Scan(42))
}

func TestNilRuleListStoresEmptyArray(t *testing.T) {
	v, err := ruleList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestLikeEscaper(t *testing.T) {
	assert.Equal(t, `50\%\_off`, likeEscaper.Replace("50%_off"))
}

func TestCampaignRowModelNeverNilRules(t *testing.T) {
	c := campaignRow{ID: "c1", Status: model.CampaignStatusSending}.model()
	assert.NotNil(t, c.Rules)
	assert.Equal(t, "c1", c.ID)
}
