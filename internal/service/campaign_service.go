// internal/service/campaign_service.go
package service

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/queue"
	"github.com/unclebandit/campaign-crm/internal/repository"
	"github.com/unclebandit/campaign-crm/internal/segment"
)

const (
	maxCampaignName    = 200
	maxCampaignMessage = 1000
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	LogRepo      repository.CommunicationLogRepositoryInterface
	Queue        queue.Queue
	Logger       *zap.Logger
	Now          func() time.Time
}

type CreateCampaignInput struct {
	Name         string
	Message      string
	Rules        []model.Rule
	AudienceSize int
}

// CampaignDetails is a campaign with its per-status log counts.
type CampaignDetails struct {
	model.Campaign
	Stats map[string]int `json:"stats"`
}

// CreateCampaign validates and stores a campaign in the sending state, then
// hands its delivery to the queue. It does not wait for delivery.
func (s *CampaignService) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*model.Campaign, error) {
	name := strings.TrimSpace(in.Name)
	message := strings.TrimSpace(in.Message)
	if name == "" || message == "" || len(in.Rules) == 0 {
		return nil, appErrors.NewValidation("Name, message, and rules are required")
	}
	if utf8.RuneCountInString(name) > maxCampaignName {
		return nil, appErrors.NewValidation("Campaign name must be at most %d characters", maxCampaignName)
	}
	if utf8.RuneCountInString(message) > maxCampaignMessage {
		return nil, appErrors.NewValidation("Message must be at most %d characters", maxCampaignMessage)
	}
	if in.AudienceSize < 0 {
		return nil, appErrors.NewValidation("audienceSize must not be negative")
	}

	rules := make([]model.Rule, len(in.Rules))
	for i, r := range in.Rules {
		if r.ID == "" {
			r.ID = strconv.Itoa(i + 1)
		}
		if i == 0 {
			r.Connector = ""
		}
		rules[i] = r
	}
	if err := segment.Validate(rules); err != nil {
		return nil, err
	}

	now := nowFunc(s.Now)()
	c := &model.Campaign{
		Name:         name,
		Message:      message,
		Rules:        rules,
		AudienceSize: in.AudienceSize,
		Status:       model.CampaignStatusSending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	if err := s.Queue.Publish(ctx, queue.DeliveryJob{CampaignID: c.ID}); err != nil {
		// the sweeper republishes campaigns nobody claimed
		s.Logger.Warn("failed to enqueue campaign delivery",
			zap.String("campaign_id", c.ID), zap.Error(err))
	}
	s.Logger.Info("campaign created",
		zap.String("campaign_id", c.ID),
		zap.Int("rules", len(rules)),
		zap.Int("audience_size", c.AudienceSize))
	return c, nil
}

// ListCampaigns returns every campaign, newest first.
func (s *CampaignService) ListCampaigns(ctx context.Context) ([]model.Campaign, error) {
	return s.CampaignRepo.List(ctx)
}

func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, campaignID string) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	stats, err := s.LogRepo.CountByStatus(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range stats {
		total += n
	}
	stats["total"] = total
	return &CampaignDetails{Campaign: *campaign, Stats: stats}, nil
}

// ListLogs returns the communication log of a campaign.
func (s *CampaignService) ListLogs(ctx context.Context, campaignID string) ([]model.CommunicationLog, error) {
	if _, err := s.CampaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.LogRepo.ListByCampaign(ctx, campaignID)
}

func nowFunc(f func() time.Time) func() time.Time {
	if f == nil {
		return time.Now
	}
	return f
}
