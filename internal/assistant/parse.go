package assistant

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
)

// arrayBlock spans from the first '[' to the last ']' of a response.
var arrayBlock = regexp.MustCompile(`\[[\s\S]*\]`)

// decodeArray reads a JSON array out of raw model output: the whole text
// first, then the outermost bracketed block.
func decodeArray(raw string, dst any) error {
	text := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(text), dst); err == nil {
		return nil
	}

	block := arrayBlock.FindString(text)
	if block == "" {
		return &appErrors.ParseError{Raw: raw, Reason: "no JSON array in response"}
	}
	if err := json.Unmarshal([]byte(block), dst); err != nil {
		return &appErrors.ParseError{Raw: raw, Reason: err.Error()}
	}
	return nil
}

// ParseStringArray extracts a non-empty list of non-blank strings.
func ParseStringArray(raw string) ([]string, error) {
	var items []string
	if err := decodeArray(raw, &items); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, &appErrors.ParseError{Raw: raw, Reason: "empty array"}
	}
	return out, nil
}

// generatedRule tolerates numbers where the rule model wants strings.
type generatedRule struct {
	ID        any    `json:"id"`
	Field     string `json:"field"`
	Operator  string `json:"operator"`
	Value     any    `json:"value"`
	Connector string `json:"connector"`
}

func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// ParseRules extracts a rule chain. It only checks the shape; rule semantics
// are validated by the caller.
func ParseRules(raw string) ([]model.Rule, error) {
	var generated []generatedRule
	if err := decodeArray(raw, &generated); err != nil {
		return nil, err
	}
	if len(generated) == 0 {
		return nil, &appErrors.ParseError{Raw: raw, Reason: "empty rule list"}
	}

	rules := make([]model.Rule, len(generated))
	for i, g := range generated {
		rules[i] = model.Rule{
			ID:        scalar(g.ID),
			Field:     strings.TrimSpace(g.Field),
			Operator:  strings.TrimSpace(g.Operator),
			Value:     scalar(g.Value),
			Connector: strings.ToUpper(strings.TrimSpace(g.Connector)),
		}
	}
	return rules, nil
}
