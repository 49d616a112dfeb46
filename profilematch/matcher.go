package profilematch

import (
	"fmt"
	"regexp"
	"strings"
)

const FollowRatioRuleName = "follow-ratio"

type MatchResult struct {
	Matches bool
	// human-readable explanation; empty when Matches is false
	Reason string
	// name of the matching rule
	Rule string
}

type compiledField struct {
	source string
	exprs  []*regexp.Regexp
}

func (cf *compiledField) match(text string) bool {
	if cf == nil {
		return false
	}
	if len(cf.exprs) == 1 {
		return cf.exprs[0].MatchString(text)
	}
	// a conjunction must be satisfied within a single line
	for _, line := range splitLines(text) {
		if matchAll(cf.exprs, line) {
			return true
		}
	}
	return false
}

func matchAll(exprs []*regexp.Regexp, text string) bool {
	for _, re := range exprs {
		if !re.MatchString(text) {
			return false
		}
	}
	return true
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\u2028', '\u2029':
		return true
	}
	return false
}

func splitLines(text string) []string {
	lines := strings.FieldsFunc(text, isLineBreak)
	if len(lines) == 0 {
		// empty text is a single empty line
		return []string{""}
	}
	return lines
}

type compiledRule struct {
	name        string
	displayName *compiledField
	description *compiledField
}

type compiledRatio struct {
	adultContent *regexp.Regexp
	promoLink    *regexp.Regexp
	threshold    float64
}

// Compiled, immutable rule set. Safe for concurrent use.
type Matcher struct {
	ratio *compiledRatio
	rules []compiledRule
}

func compileExpr(expr string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + expr)
}

func compileField(fp *FieldPattern) (*compiledField, error) {
	if fp == nil {
		return nil, nil
	}
	cf := compiledField{source: fp.String()}
	all := fp.AllOf
	if fp.Expr != "" {
		all = append([]string{fp.Expr}, all...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("empty field pattern")
	}
	for _, e := range all {
		re, err := compileExpr(e)
		if err != nil {
			return nil, err
		}
		cf.exprs = append(cf.exprs, re)
	}
	return &cf, nil
}

// Compiles a rule set. Any invalid expression is an error.
func NewMatcher(rs RuleSet) (*Matcher, error) {
	m := Matcher{}

	ratio := rs.FollowRatio
	if ratio == nil {
		ratio = DefaultFollowRatioRule()
	}
	if !ratio.Disabled {
		if ratio.Threshold <= 0 {
			return nil, fmt.Errorf("follow ratio threshold must be positive: %v", ratio.Threshold)
		}
		adult, err := compileExpr(ratio.AdultContent)
		if err != nil {
			return nil, fmt.Errorf("follow ratio adult content pattern: %w", err)
		}
		promo, err := compileExpr(ratio.PromoLink)
		if err != nil {
			return nil, fmt.Errorf("follow ratio promo link pattern: %w", err)
		}
		m.ratio = &compiledRatio{adultContent: adult, promoLink: promo, threshold: ratio.Threshold}
	}

	for i, bp := range rs.Patterns {
		name := bp.Name
		if name == "" {
			name = fmt.Sprintf("pattern-%d", i)
		}
		dn, err := compileField(bp.DisplayName)
		if err != nil {
			return nil, fmt.Errorf("rule %s display name: %w", name, err)
		}
		desc, err := compileField(bp.Description)
		if err != nil {
			return nil, fmt.Errorf("rule %s description: %w", name, err)
		}
		if dn == nil && desc == nil {
			return nil, fmt.Errorf("rule %s has no field patterns", name)
		}
		m.rules = append(m.rules, compiledRule{name: name, displayName: dn, description: desc})
	}
	return &m, nil
}

// Matcher for [DefaultRuleSet]. Panics if the built-in rules fail to compile.
func DefaultMatcher() *Matcher {
	m, err := NewMatcher(DefaultRuleSet())
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Matcher) checkRatio(p *Profile, description string) (ratio float64, hasRatio, adult, promo bool) {
	ratio, hasRatio = p.FollowRatio()
	if m.ratio == nil {
		return
	}
	adult = m.ratio.adultContent.MatchString(description)
	promo = m.ratio.promoLink.MatchString(description)
	return
}

// Evaluates a profile: the follow ratio rule first, then each pattern rule in order, display name before description. The first match wins.
func (m *Matcher) Evaluate(p *Profile) MatchResult {
	displayName := p.displayNameText()
	description := p.descriptionText()

	if m.ratio != nil {
		ratio, ok, adult, promo := m.checkRatio(p, description)
		if ok && adult && promo && ratio > m.ratio.threshold {
			return MatchResult{
				Matches: true,
				Rule:    FollowRatioRuleName,
				Reason:  fmt.Sprintf("adult content with suspicious follow ratio (following %.1fx more than followers)", ratio),
			}
		}
	}

	for _, r := range m.rules {
		if r.displayName.match(displayName) {
			return MatchResult{
				Matches: true,
				Rule:    r.name,
				Reason:  "display name matches pattern: " + r.displayName.source,
			}
		}
		if r.description.match(description) {
			return MatchResult{
				Matches: true,
				Rule:    r.name,
				Reason:  "description matches pattern: " + r.description.source,
			}
		}
	}
	return MatchResult{}
}
