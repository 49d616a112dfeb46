package profilematch

type RatioCheck struct {
	Enabled bool
	// false when either count is absent or zero
	HasRatio     bool
	Ratio        float64
	Threshold    float64
	AdultContent bool
	PromoLink    bool
	Matched      bool
}

type RuleCheck struct {
	Rule    string
	Field   string
	Pattern string
	Matched bool
}

// Full breakdown of how a profile fares against every rule, for manual inspection. Unlike [Matcher.Evaluate], this does not stop at the first match.
type Explanation struct {
	Ratio  RatioCheck
	Checks []RuleCheck
	Result MatchResult
}

func (m *Matcher) Explain(p *Profile) Explanation {
	displayName := p.displayNameText()
	description := p.descriptionText()

	var ex Explanation
	ratio, ok, adult, promo := m.checkRatio(p, description)
	ex.Ratio = RatioCheck{
		Enabled:      m.ratio != nil,
		HasRatio:     ok,
		Ratio:        ratio,
		AdultContent: adult,
		PromoLink:    promo,
	}
	if m.ratio != nil {
		ex.Ratio.Threshold = m.ratio.threshold
		ex.Ratio.Matched = ok && adult && promo && ratio > m.ratio.threshold
	}

	for _, r := range m.rules {
		if r.displayName != nil {
			ex.Checks = append(ex.Checks, RuleCheck{
				Rule:    r.name,
				Field:   "displayName",
				Pattern: r.displayName.source,
				Matched: r.displayName.match(displayName),
			})
		}
		if r.description != nil {
			ex.Checks = append(ex.Checks, RuleCheck{
				Rule:    r.name,
				Field:   "description",
				Pattern: r.description.source,
				Matched: r.description.match(description),
			})
		}
	}
	ex.Result = m.Evaluate(p)
	return ex
}
