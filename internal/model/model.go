// internal/model/model.go
package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// totals and amounts go over the wire as plain JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// NewID returns a fresh identifier for any stored document.
func NewID() string {
	return uuid.NewString()
}
