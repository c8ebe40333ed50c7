package mongostore

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/unclebandit/campaign-crm/internal/model"
)

type customerDoc struct {
	ID           string               `bson:"_id"`
	Name         string               `bson:"name"`
	Email        string               `bson:"email"`
	TotalSpend   primitive.Decimal128 `bson:"totalSpend"`
	Visits       int                  `bson:"visits"`
	LastPurchase time.Time            `bson:"lastPurchase"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

type ruleDoc struct {
	ID        string `bson:"id"`
	Field     string `bson:"field"`
	Operator  string `bson:"operator"`
	Value     string `bson:"value"`
	Connector string `bson:"connector,omitempty"`
}

type campaignDoc struct {
	ID           string     `bson:"_id"`
	Name         string     `bson:"name"`
	Message      string     `bson:"message"`
	Rules        []ruleDoc  `bson:"rules"`
	AudienceSize int        `bson:"audienceSize"`
	Status       string     `bson:"status"`
	SentCount    int        `bson:"sentCount"`
	FailedCount  int        `bson:"failedCount"`
	ClaimedAt    *time.Time `bson:"claimedAt"`
	CreatedAt    time.Time  `bson:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt"`
}

type logDoc struct {
	ID            string    `bson:"_id"`
	CampaignID    string    `bson:"campaignId"`
	CustomerID    string    `bson:"customerId"`
	CustomerName  string    `bson:"customerName"`
	CustomerEmail string    `bson:"customerEmail"`
	Message       string    `bson:"message"`
	Status        string    `bson:"status"`
	SentAt        time.Time `bson:"sentAt"`
	CreatedAt     time.Time `bson:"createdAt"`
}

type orderDoc struct {
	ID         string               `bson:"_id"`
	CustomerID string               `bson:"customerId"`
	Amount     primitive.Decimal128 `bson:"amount"`
	Status     string               `bson:"status"`
	CreatedAt  time.Time            `bson:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) decimal.Decimal {
	out, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Zero
	}
	return out
}

func newCustomerDoc(c *model.Customer) (customerDoc, error) {
	spend, err := toDecimal128(c.TotalSpend)
	if err != nil {
		return customerDoc{}, err
	}
	return customerDoc{
		ID:           c.ID,
		Name:         c.Name,
		Email:        c.Email,
		TotalSpend:   spend,
		Visits:       c.Visits,
		LastPurchase: c.LastPurchase,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}, nil
}

func (d customerDoc) model() model.Customer {
	return model.Customer{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		TotalSpend:   fromDecimal128(d.TotalSpend),
		Visits:       d.Visits,
		LastPurchase: d.LastPurchase,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func newCampaignDoc(c *model.Campaign) campaignDoc {
	rules := make([]ruleDoc, len(c.Rules))
	for i, r := range c.Rules {
		rules[i] = ruleDoc(r)
	}
	return campaignDoc{
		ID:           c.ID,
		Name:         c.Name,
		Message:      c.Message,
		Rules:        rules,
		AudienceSize: c.AudienceSize,
		Status:       c.Status,
		SentCount:    c.SentCount,
		FailedCount:  c.FailedCount,
		ClaimedAt:    c.ClaimedAt,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (d campaignDoc) model() model.Campaign {
	rules := make([]model.Rule, len(d.Rules))
	for i, r := range d.Rules {
		rules[i] = model.Rule(r)
	}
	return model.Campaign{
		ID:           d.ID,
		Name:         d.Name,
		Message:      d.Message,
		Rules:        rules,
		AudienceSize: d.AudienceSize,
		Status:       d.Status,
		SentCount:    d.SentCount,
		FailedCount:  d.FailedCount,
		ClaimedAt:    d.ClaimedAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func newOrderDoc(o *model.Order) (orderDoc, error) {
	amount, err := toDecimal128(o.Amount)
	if err != nil {
		return orderDoc{}, err
	}
	return orderDoc{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Amount:     amount,
		Status:     o.Status,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}, nil
}

func (d orderDoc) model() model.Order {
	return model.Order{
		ID:         d.ID,
		CustomerID: d.CustomerID,
		Amount:     fromDecimal128(d.Amount),
		Status:     d.Status,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
