package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/repository"
	"github.com/unclebandit/campaign-crm/internal/segment"
)

const topCampaigns = 3

type AnalyticsService struct {
	CustomerRepo repository.CustomerRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	OrderRepo    repository.OrderRepositoryInterface
	Now          func() time.Time
}

type SegmentShare struct {
	Segment    string  `json:"segment"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type MonthlyActivity struct {
	Month     string `json:"month"`
	Campaigns int    `json:"campaigns"`
	Delivered int    `json:"delivered"`
}

type CampaignPerformance struct {
	Name         string  `json:"name"`
	DeliveryRate float64 `json:"deliveryRate"`
	Audience     int     `json:"audience"`
}

type Summary struct {
	TotalCampaigns         int                   `json:"totalCampaigns"`
	TotalCustomers         int                   `json:"totalCustomers"`
	AvgDeliveryRate        float64               `json:"avgDeliveryRate"`
	TotalRevenue           decimal.Decimal       `json:"totalRevenue"`
	CampaignsByMonth       []MonthlyActivity     `json:"campaignsByMonth"`
	TopPerformingCampaigns []CampaignPerformance `json:"topPerformingCampaigns"`
	CustomerSegments       []SegmentShare        `json:"customerSegments"`
}

type namedSegment struct {
	name  string
	rules func(now time.Time) []model.Rule
}

// Fixed analytics segments. A customer can be in several of them.
var analyticsSegments = []namedSegment{
	{"High Value", func(time.Time) []model.Rule {
		return []model.Rule{{Field: model.FieldTotalSpend, Operator: model.OpGreaterThan, Value: "10000"}}
	}},
	{"Frequent Buyers", func(time.Time) []model.Rule {
		return []model.Rule{{Field: model.FieldVisits, Operator: model.OpGreaterOrEqual, Value: "5"}}
	}},
	{"New Customers", func(now time.Time) []model.Rule {
		since := now.AddDate(0, 0, -30).Format(time.RFC3339)
		return []model.Rule{{Field: model.FieldCreatedAt, Operator: model.OpGreaterOrEqual, Value: since}}
	}},
	{"Inactive", func(time.Time) []model.Rule {
		return []model.Rule{{Field: model.FieldLastPurchase, Operator: model.OpDaysAgo, Value: "90"}}
	}},
}

func (s *AnalyticsService) Summary(ctx context.Context) (*Summary, error) {
	now := nowFunc(s.Now)()

	customers, err := s.CustomerRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	campaigns, err := s.CampaignRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.OrderRepo.List(ctx, "")
	if err != nil {
		return nil, err
	}

	revenue := decimal.Zero
	for _, o := range orders {
		if o.Status == model.OrderStatusCompleted {
			revenue = revenue.Add(o.Amount)
		}
	}

	return &Summary{
		TotalCampaigns:         len(campaigns),
		TotalCustomers:         len(customers),
		AvgDeliveryRate:        averageDeliveryRate(campaigns),
		TotalRevenue:           revenue,
		CampaignsByMonth:       campaignsByMonth(campaigns),
		TopPerformingCampaigns: topPerforming(campaigns),
		CustomerSegments:       customerSegments(customers, now),
	}, nil
}

func deliveryRate(sent, failed int) float64 {
	if sent+failed == 0 {
		return 0
	}
	return round1(float64(sent) * 100 / float64(sent+failed))
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func averageDeliveryRate(campaigns []model.Campaign) float64 {
	sent, failed := 0, 0
	for _, c := range campaigns {
		if c.Status == model.CampaignStatusCompleted {
			sent += c.SentCount
			failed += c.FailedCount
		}
	}
	return deliveryRate(sent, failed)
}

func campaignsByMonth(campaigns []model.Campaign) []MonthlyActivity {
	byKey := map[string]*MonthlyActivity{}
	var keys []string
	for _, c := range campaigns {
		key := c.CreatedAt.Format("2006-01")
		m, ok := byKey[key]
		if !ok {
			m = &MonthlyActivity{Month: c.CreatedAt.Format("Jan 2006")}
			byKey[key] = m
			keys = append(keys, key)
		}
		m.Campaigns++
		m.Delivered += c.SentCount
	}
	sort.Strings(keys)

	out := make([]MonthlyActivity, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byKey[k])
	}
	return out
}

func topPerforming(campaigns []model.Campaign) []CampaignPerformance {
	out := []CampaignPerformance{}
	for _, c := range campaigns {
		if c.Status != model.CampaignStatusCompleted {
			continue
		}
		out = append(out, CampaignPerformance{
			Name:         c.Name,
			DeliveryRate: deliveryRate(c.SentCount, c.FailedCount),
			Audience:     c.AudienceSize,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DeliveryRate > out[j].DeliveryRate
	})
	if len(out) > topCampaigns {
		out = out[:topCampaigns]
	}
	return out
}

func customerSegments(customers []model.Customer, now time.Time) []SegmentShare {
	out := make([]SegmentShare, 0, len(analyticsSegments))
	for _, seg := range analyticsSegments {
		n := segment.Count(seg.rules(now), customers, now)
		share := SegmentShare{Segment: seg.name, Count: n}
		if len(customers) > 0 {
			share.Percentage = round1(float64(n) * 100 / float64(len(customers)))
		}
		out = append(out, share)
	}
	return out
}
