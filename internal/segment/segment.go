// Package segment evaluates rule chains against customers.
//
// A chain is folded strictly left to right: the first rule seeds the result and
// every following rule is combined with the running value through its own
// connector. There is no precedence, so "a AND b OR c" means ((a AND b) OR c).
// Rules that cannot be evaluated (unknown field, unknown operator, bad value)
// evaluate to false instead of failing the whole audience.
package segment

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
)

const day = 24 * time.Hour

const dateLayout = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	dateLayout,
}

// Matches reports whether c belongs to the audience described by rules.
// An empty chain matches nobody.
func Matches(rules []model.Rule, c model.Customer, now time.Time) bool {
	if len(rules) == 0 {
		return false
	}
	result := evaluate(rules[0], c, now)
	for _, r := range rules[1:] {
		ok := evaluate(r, c, now)
		if strings.EqualFold(r.Connector, model.ConnectorOr) {
			result = result || ok
		} else {
			result = result && ok
		}
	}
	return result
}

// Filter returns the matching customers in input order.
func Filter(rules []model.Rule, customers []model.Customer, now time.Time) []model.Customer {
	if len(rules) == 0 {
		return nil
	}
	var out []model.Customer
	for _, c := range customers {
		if Matches(rules, c, now) {
			out = append(out, c)
		}
	}
	return out
}

// Count returns the exact audience size for rules.
func Count(rules []model.Rule, customers []model.Customer, now time.Time) int {
	if len(rules) == 0 {
		return 0
	}
	n := 0
	for _, c := range customers {
		if Matches(rules, c, now) {
			n++
		}
	}
	return n
}

// Estimate guesses an audience size from the rule count alone. Each rule is
// assumed to cut the audience by 30%, never below a tenth of total.
func Estimate(total, ruleCount int) int {
	if ruleCount <= 0 || total <= 0 {
		return 0
	}
	factor := math.Max(0.1, 1-float64(ruleCount)*0.3)
	return int(math.Floor(float64(total) * factor))
}

// Validate checks a chain strictly. It is used where a bad rule must be
// rejected up front rather than silently failing closed.
func Validate(rules []model.Rule) error {
	if len(rules) == 0 {
		return appErrors.NewValidation("at least one rule is required")
	}
	for i, r := range rules {
		if err := validateRule(r); err != nil {
			return appErrors.NewValidation("rule %d: %s", i+1, err.Error())
		}
		if i > 0 && r.Connector != "" &&
			!strings.EqualFold(r.Connector, model.ConnectorAnd) &&
			!strings.EqualFold(r.Connector, model.ConnectorOr) {
			return appErrors.NewValidation("rule %d: unknown connector %q", i+1, r.Connector)
		}
	}
	return nil
}

func validateRule(r model.Rule) error {
	if !knownOperator(r.Operator) {
		return appErrors.NewValidation("unknown operator %q", r.Operator)
	}
	switch r.Field {
	case model.FieldTotalSpend, model.FieldVisits:
		if r.Operator == model.OpDaysAgo {
			return appErrors.NewValidation("operator days_ago needs a date field, got %s", r.Field)
		}
		if _, err := decimal.NewFromString(strings.TrimSpace(r.Value)); err != nil {
			return appErrors.NewValidation("value %q is not a number", r.Value)
		}
	case model.FieldLastPurchase, model.FieldCreatedAt:
		if r.Operator == model.OpDaysAgo {
			if _, ok := parseDays(r.Value); !ok {
				return appErrors.NewValidation("value %q is not a day count", r.Value)
			}
			return nil
		}
		if _, _, ok := parseDate(r.Value); !ok {
			return appErrors.NewValidation("value %q is not a date", r.Value)
		}
	default:
		return appErrors.NewValidation("unknown field %q", r.Field)
	}
	return nil
}

func knownOperator(op string) bool {
	switch op {
	case model.OpGreaterThan, model.OpGreaterOrEqual, model.OpLessThan,
		model.OpLessOrEqual, model.OpEqual, model.OpDaysAgo:
		return true
	}
	return false
}

func evaluate(r model.Rule, c model.Customer, now time.Time) bool {
	switch r.Field {
	case model.FieldTotalSpend:
		return compareNumber(c.TotalSpend, r)
	case model.FieldVisits:
		return compareNumber(decimal.NewFromInt(int64(c.Visits)), r)
	case model.FieldLastPurchase:
		return compareDate(c.LastPurchase, r, now)
	case model.FieldCreatedAt:
		return compareDate(c.CreatedAt, r, now)
	default:
		return false
	}
}

func compareNumber(actual decimal.Decimal, r model.Rule) bool {
	want, err := decimal.NewFromString(strings.TrimSpace(r.Value))
	if err != nil {
		return false
	}
	return compare(actual.Cmp(want), r.Operator)
}

func compareDate(actual time.Time, r model.Rule, now time.Time) bool {
	if r.Operator == model.OpDaysAgo {
		days, ok := parseDays(r.Value)
		if !ok {
			return false
		}
		cutoff := now.Add(-time.Duration(days) * day)
		return !actual.After(cutoff)
	}
	want, dateOnly, ok := parseDate(r.Value)
	if !ok {
		return false
	}
	if dateOnly {
		// a bare date compares by calendar day (UTC)
		actual = startOfDay(actual)
	}
	return compare(actual.Compare(want), r.Operator)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// compare turns a three-way comparison into the operator's verdict.
func compare(cmp int, op string) bool {
	switch op {
	case model.OpGreaterThan:
		return cmp > 0
	case model.OpGreaterOrEqual:
		return cmp >= 0
	case model.OpLessThan:
		return cmp < 0
	case model.OpLessOrEqual:
		return cmp <= 0
	case model.OpEqual:
		return cmp == 0
	default:
		return false
	}
}

func parseDays(v string) (int64, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil || d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return 0, false
	}
	return d.IntPart(), true
}

// parseDate also reports whether v was a bare calendar date.
func parseDate(v string) (time.Time, bool, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, layout == dateLayout, true
		}
	}
	return time.Time{}, false, false
}
