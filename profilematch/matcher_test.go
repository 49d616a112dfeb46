package profilematch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int64) *int64   { return &i }

func TestFollowRatioBoundary(t *testing.T) {
	assert := assert.New(t)
	m := DefaultMatcher()

	desc := "😈 new pics every day onlyfans.com/someone"
	p := Profile{
		Description:    strPtr(desc),
		FollowersCount: intPtr(10),
		FollowsCount:   intPtr(50),
	}
	res := m.Evaluate(&p)
	assert.False(res.Matches, "ratio of exactly 5.0 is not suspicious")

	p.FollowsCount = intPtr(51)
	res = m.Evaluate(&p)
	assert.True(res.Matches)
	assert.Equal(FollowRatioRuleName, res.Rule)
	assert.Contains(res.Reason, "5.1x")
}

func TestFollowRatioMissingCounts(t *testing.T) {
	assert := assert.New(t)
	m := DefaultMatcher()

	desc := "😈 onlyfans.com/someone"
	for _, p := range []Profile{
		{Description: strPtr(desc), FollowsCount: intPtr(500)},
		{Description: strPtr(desc), FollowersCount: intPtr(0), FollowsCount: intPtr(500)},
		{Description: strPtr(desc), FollowersCount: intPtr(10), FollowsCount: intPtr(0)},
	} {
		res := m.Evaluate(&p)
		assert.NotEqual(FollowRatioRuleName, res.Rule)
	}

	ratio, ok := (&Profile{FollowersCount: intPtr(0), FollowsCount: intPtr(10)}).FollowRatio()
	assert.False(ok)
	assert.Equal(0.0, ratio)
}

func TestFollowRatioNeedsBothSignals(t *testing.T) {
	assert := assert.New(t)
	m := DefaultMatcher()

	// promo link without adult-content indicator
	p := Profile{
		Description:    strPtr("my art portfolio: hoo.be/artist"),
		FollowersCount: intPtr(10),
		FollowsCount:   intPtr(1000),
	}
	assert.False(m.Evaluate(&p).Matches)

	// adult-content indicator without promo link
	p.Description = strPtr("🔥 hot takes about baseball 🔥")
	assert.False(m.Evaluate(&p).Matches)
}

func TestEmptyFieldSafety(t *testing.T) {
	assert := assert.New(t)
	m := DefaultMatcher()

	assert.NotPanics(func() {
		res := m.Evaluate(&Profile{DisplayName: strPtr(""), Description: nil})
		assert.False(res.Matches)
	})
	assert.NotPanics(func() {
		res := m.Evaluate(nil)
		assert.False(res.Matches)
	})

	// a rule which matches the empty string still applies to absent fields
	rs := RuleSet{
		FollowRatio: &FollowRatioRule{Disabled: true},
		Patterns: []BlockPattern{
			{Name: "empty-description", Description: &FieldPattern{Expr: `^$`}},
		},
	}
	em, err := NewMatcher(rs)
	require.NoError(t, err)
	res := em.Evaluate(&Profile{DisplayName: strPtr("")})
	assert.True(res.Matches)
	assert.Equal("empty-description", res.Rule)
}

func TestFirstMatchReason(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	rs := RuleSet{
		FollowRatio: &FollowRatioRule{Disabled: true},
		Patterns: []BlockPattern{
			{Name: "rule-one", DisplayName: &FieldPattern{Expr: `spammer`}},
			{Name: "rule-two", Description: &FieldPattern{Expr: `buy now`}},
		},
	}
	m, err := NewMatcher(rs)
	require.NoError(err)

	res := m.Evaluate(&Profile{
		DisplayName: strPtr("Totally Not A SPAMMER"),
		Description: strPtr("buy now!"),
	})
	assert.True(res.Matches)
	assert.Equal("rule-one", res.Rule)
	assert.Equal("display name matches pattern: /spammer/i", res.Reason)

	res = m.Evaluate(&Profile{DisplayName: strPtr("someone"), Description: strPtr("BUY NOW")})
	assert.Equal("rule-two", res.Rule)
	assert.Equal("description matches pattern: /buy now/i", res.Reason)
}

func TestDisplayNameCheckedBeforeDescription(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	m, err := NewMatcher(RuleSet{
		FollowRatio: &FollowRatioRule{Disabled: true},
		Patterns: []BlockPattern{
			{
				Name:        "both",
				DisplayName: &FieldPattern{Expr: `alpha`},
				Description: &FieldPattern{Expr: `beta`},
			},
		},
	})
	require.NoError(err)

	res := m.Evaluate(&Profile{DisplayName: strPtr("alpha"), Description: strPtr("beta")})
	assert.Contains(res.Reason, "display name")
	res = m.Evaluate(&Profile{DisplayName: strPtr("gamma"), Description: strPtr("beta")})
	assert.Contains(res.Reason, "description")
}

func TestDefaultRules(t *testing.T) {
	assert := assert.New(t)
	m := DefaultMatcher()

	testCases := []struct {
		displayName string
		description string
		rule        string
	}{
		{"Free OnlyFans 💋", "", "free-of-display-name"},
		{"Jess", "free o.f. ➡️ in my bio", "free-of-description"},
		{"Jess", "Free OF ➡ link below", "free-of-description"},
		{"Jess", "😘 tap the link 👉 getallmylinks.com/jess", "promo-link-emoji-call-to-action"},
		{"Jess", "don't be shy, linktr.ee/jess", "bait-phrase-promo-link"},
		{"Jess", "so alone tonight... join me?? fansly.com/jess", "lonely-sweet-promo-link"},
		{"Jess", "gardening, cats, and sourdough", ""},
		{"Free Software Fan", "I write about open source", ""},
	}

	for _, tc := range testCases {
		res := m.Evaluate(&Profile{DisplayName: strPtr(tc.displayName), Description: strPtr(tc.description)})
		if tc.rule == "" {
			assert.False(res.Matches, tc.description)
		} else {
			assert.True(res.Matches, tc.description)
			assert.Equal(tc.rule, res.Rule, tc.description)
		}
	}
}

func TestConjunctionWithinOneLine(t *testing.T) {
	assert := assert.New(t)
	m := DefaultMatcher()

	// emoji, call to action and promo host spread across lines
	for _, desc := range []string{
		"🔥 new pics every day\ncheck my page\nlinktr.ee/someone",
		"🔥 new pics every day\r\ncheck my page\r\nlinktr.ee/someone",
		"🔥 new pics every day\u2028check my page\u2029linktr.ee/someone",
	} {
		res := m.Evaluate(&Profile{Description: strPtr(desc)})
		assert.False(res.Matches, desc)
	}

	// all three on one line of a multi-line bio
	res := m.Evaluate(&Profile{Description: strPtr("cats and sourdough\n🔥 check my page linktr.ee/someone\nDMs open")})
	assert.True(res.Matches)
	assert.Equal("promo-link-emoji-call-to-action", res.Rule)

	// a lone expression still spans lines
	res = m.Evaluate(&Profile{Description: strPtr("free\nonlyfans")})
	assert.True(res.Matches)
	assert.Equal("free-of-description", res.Rule)
}

func TestUnicodeNormalization(t *testing.T) {
	assert := assert.New(t)
	m := DefaultMatcher()

	// mathematical bold letters fold to ASCII under NFKC
	res := m.Evaluate(&Profile{DisplayName: strPtr("𝐅𝐫𝐞𝐞 𝐎𝐧𝐥𝐲𝐅𝐚𝐧𝐬")})
	assert.True(res.Matches)
	assert.Equal("free-of-display-name", res.Rule)
}

func TestNewMatcherErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := NewMatcher(RuleSet{Patterns: []BlockPattern{{Name: "bad", DisplayName: &FieldPattern{Expr: `(unclosed`}}}})
	assert.Error(err)

	_, err = NewMatcher(RuleSet{Patterns: []BlockPattern{{Name: "lookahead", Description: &FieldPattern{Expr: `(?=.*x)`}}}})
	assert.Error(err)

	_, err = NewMatcher(RuleSet{Patterns: []BlockPattern{{Name: "nothing"}}})
	assert.Error(err)

	_, err = NewMatcher(RuleSet{FollowRatio: &FollowRatioRule{AdultContent: "x", PromoLink: "y", Threshold: 0}})
	assert.Error(err)
}

func TestExplain(t *testing.T) {
	assert := assert.New(t)
	m := DefaultMatcher()

	ex := m.Explain(&Profile{
		DisplayName:    strPtr("Free OF"),
		Description:    strPtr("🔥 onlyfans.com/x"),
		FollowersCount: intPtr(100),
		FollowsCount:   intPtr(200),
	})
	assert.True(ex.Ratio.Enabled)
	assert.True(ex.Ratio.HasRatio)
	assert.Equal(2.0, ex.Ratio.Ratio)
	assert.True(ex.Ratio.AdultContent)
	assert.True(ex.Ratio.PromoLink)
	assert.False(ex.Ratio.Matched)

	// one check per field pattern, across every rule
	assert.Len(ex.Checks, 5)
	assert.Equal("displayName", ex.Checks[0].Field)
	assert.True(ex.Checks[0].Matched)
	assert.True(ex.Result.Matches)
	assert.Equal("free-of-display-name", ex.Result.Rule)
}
