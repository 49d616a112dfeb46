package profilematch

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// A pattern over one profile field. Matches when Expr (if set) matches, and every expression in AllOf matches.
//
// A lone expression is matched against the whole field. When there is more than one expression, they must all match within a single line of the field; lines are separated by \n, \r, U+2028 or U+2029.
//
// Expressions use Go regexp syntax and are always matched case-insensitively.
type FieldPattern struct {
	Expr  string   `json:"expr,omitempty"`
	AllOf []string `json:"allOf,omitempty"`
}

func (fp FieldPattern) String() string {
	parts := make([]string, 0, len(fp.AllOf)+1)
	if fp.Expr != "" {
		parts = append(parts, "/"+fp.Expr+"/i")
	}
	for _, e := range fp.AllOf {
		parts = append(parts, "/"+e+"/i")
	}
	return strings.Join(parts, " & ")
}

// Named rule over the display name, the description, or both. Matches if any of its field patterns matches.
type BlockPattern struct {
	Name        string        `json:"name"`
	DisplayName *FieldPattern `json:"displayName,omitempty"`
	Description *FieldPattern `json:"description,omitempty"`
}

// Matches when the description contains both an adult-content indicator and a promotional link, and the account follows more than Threshold times as many accounts as follow it.
type FollowRatioRule struct {
	AdultContent string  `json:"adultContent"`
	PromoLink    string  `json:"promoLink"`
	Threshold    float64 `json:"threshold"`
	Disabled     bool    `json:"disabled,omitempty"`
}

type RuleSet struct {
	// nil means DefaultFollowRatioRule()
	FollowRatio *FollowRatioRule `json:"followRatio,omitempty"`
	// evaluated in order; first match wins
	Patterns []BlockPattern `json:"patterns"`
}

// Parses a JSON rule set. Does not compile expressions; use [NewMatcher] for that.
func ParseRuleSetJSON(raw []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("parsing rule set JSON: %w", err)
	}
	for i, bp := range rs.Patterns {
		if bp.DisplayName == nil && bp.Description == nil {
			return nil, fmt.Errorf("rule %d (%s) has no field patterns", i, bp.Name)
		}
	}
	return &rs, nil
}

func LoadRuleSetJSON(p string) (*RuleSet, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return ParseRuleSetJSON(raw)
}
