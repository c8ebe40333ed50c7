package postgres

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/unclebandit/campaign-crm/internal/model"
)

func closer(db *sqlx.DB) func(context.Context) error {
	return func(context.Context) error { return db.Close() }
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// ruleList stores a rule chain in a JSONB column.
type ruleList []model.Rule

func (r ruleList) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]model.Rule(r))
}

func (r *ruleList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*r = ruleList{}
		return nil
	default:
		return fmt.Errorf("rules: unsupported column type %T", src)
	}
	return json.Unmarshal(raw, (*[]model.Rule)(r))
}

type customerRow struct {
	ID           string          `db:"id"`
	Name         string          `db:"name"`
	Email        string          `db:"email"`
	TotalSpend   decimal.Decimal `db:"total_spend"`
	Visits       int             `db:"visits"`
	LastPurchase time.Time       `db:"last_purchase"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

type campaignRow struct {
	ID           string     `db:"id"`
	Name         string     `db:"name"`
	Message      string     `db:"message"`
	Rules        ruleList   `db:"rules"`
	AudienceSize int        `db:"audience_size"`
	Status       string     `db:"status"`
	SentCount    int        `db:"sent_count"`
	FailedCount  int        `db:"failed_count"`
	ClaimedAt    *time.Time `db:"claimed_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

type logRow struct {
	ID            string    `db:"id"`
	CampaignID    string    `db:"campaign_id"`
	CustomerID    string    `db:"customer_id"`
	CustomerName  string    `db:"customer_name"`
	CustomerEmail string    `db:"customer_email"`
	Message       string    `db:"message"`
	Status        string    `db:"status"`
	SentAt        time.Time `db:"sent_at"`
	CreatedAt     time.Time `db:"created_at"`
}

type orderRow struct {
	ID         string          `db:"id"`
	CustomerID string          `db:"customer_id"`
	Amount     decimal.Decimal `db:"amount"`
	Status     string          `db:"status"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func (r campaignRow) model() model.Campaign {
	rules := []model.Rule(r.Rules)
	if rules == nil {
		rules = []model.Rule{}
	}
	return model.Campaign{
		ID:           r.ID,
		Name:         r.Name,
		Message:      r.Message,
		Rules:        rules,
		AudienceSize: r.AudienceSize,
		Status:       r.Status,
		SentCount:    r.SentCount,
		FailedCount:  r.FailedCount,
		ClaimedAt:    r.ClaimedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
