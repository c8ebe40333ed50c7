// internal/model/customer.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	TotalSpend   decimal.Decimal `json:"totalSpend"`
	Visits       int             `json:"visits"`
	LastPurchase time.Time       `json:"lastPurchase"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
