package service

import (
	"context"
	"time"

	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/repository"
	"github.com/unclebandit/campaign-crm/internal/segment"
)

type SegmentService struct {
	CustomerRepo repository.CustomerRepositoryInterface
	Now          func() time.Time
}

type SegmentPreview struct {
	AudienceSize   int `json:"audienceSize"`
	EstimatedSize  int `json:"estimatedSize"`
	TotalCustomers int `json:"totalCustomers"`
}

// Preview counts the exact audience of rules next to the rule-count estimate.
// Rules that do not evaluate simply match nobody.
func (s *SegmentService) Preview(ctx context.Context, rules []model.Rule) (*SegmentPreview, error) {
	customers, err := s.CustomerRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return &SegmentPreview{
		AudienceSize:   segment.Count(rules, customers, nowFunc(s.Now)()),
		EstimatedSize:  segment.Estimate(len(customers), len(rules)),
		TotalCustomers: len(customers),
	}, nil
}
