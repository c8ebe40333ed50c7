// internal/model/rule.go
package model

// Rule fields
const (
	FieldTotalSpend   = "totalSpend"
	FieldVisits       = "visits"
	FieldLastPurchase = "lastPurchase"
	FieldCreatedAt    = "createdAt"
)

// Rule operators
const (
	OpGreaterThan    = "gt"
	OpGreaterOrEqual = "gte"
	OpLessThan       = "lt"
	OpLessOrEqual    = "lte"
	OpEqual          = "eq"
	OpDaysAgo        = "days_ago"
)

const (
	ConnectorAnd = "AND"
	ConnectorOr  = "OR"
)

// Rule is one predicate of a segment. Connector joins it to the rule before it
// and is ignored on the first rule of a chain.
type Rule struct {
	ID        string `json:"id"`
	Field     string `json:"field"`
	Operator  string `json:"operator"`
	Value     string `json:"value"`
	Connector string `json:"connector,omitempty"`
}
