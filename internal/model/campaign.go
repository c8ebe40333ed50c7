// internal/model/campaign.go
package model

import "time"

const (
	CampaignStatusDraft     = "draft"
	CampaignStatusSending   = "sending"
	CampaignStatusCompleted = "completed"
	CampaignStatusFailed    = "failed"
)

type Campaign struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Message      string     `json:"message"`
	Rules        []Rule     `json:"rules"`
	AudienceSize int        `json:"audienceSize"`
	Status       string     `json:"status"`
	SentCount    int        `json:"sentCount"`
	FailedCount  int        `json:"failedCount"`
	ClaimedAt    *time.Time `json:"claimedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Terminal reports whether the campaign can no longer change state.
func (c *Campaign) Terminal() bool {
	return c.Status == CampaignStatusCompleted || c.Status == CampaignStatusFailed
}
