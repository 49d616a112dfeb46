package profilematch

const (
	// adult-content indicators: paid-content hosts, "spicy" emoji, and common bait phrases
	AdultContentExpr = `(onlyfans\.com|fansly\.com|😘|😈|🔥|italian\s*d|watch.*big|click.*watch)`

	// link aggregators and paid-content hosts
	PromoLinkExpr = `(onlyfans\.com|getallmyl?inks\.com|linkt?r\.ee|fansly\.com|hoo\.be)`

	DefaultRatioThreshold = 5.0

	promoHostsExpr = `onlyfans\.com|getallmyl?inks\.com|linkt?r\.ee|fansly\.com`
)

func DefaultFollowRatioRule() *FollowRatioRule {
	return &FollowRatioRule{
		AdultContent: AdultContentExpr,
		PromoLink:    PromoLinkExpr,
		Threshold:    DefaultRatioThreshold,
	}
}

// Rules for common paid-content follow-spam.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		FollowRatio: DefaultFollowRatioRule(),
		Patterns: []BlockPattern{
			{
				Name:        "free-of-display-name",
				DisplayName: &FieldPattern{Expr: `free\s*(?:onlyfans|o\.?f\.?|only\.?fans)`},
			},
			{
				Name:        "free-of-description",
				Description: &FieldPattern{Expr: `free\s*(?:onlyfans|o\.?f\.?|only\.?fans|of\s*➡\x{FE0F}?)`},
			},
			{
				Name: "promo-link-emoji-call-to-action",
				Description: &FieldPattern{AllOf: []string{
					promoHostsExpr,
					`😘|💋|😈|🔥|🍰|🍬`,
					`click|check|tap|join|free|bio|link`,
				}},
			},
			{
				Name:        "bait-phrase-promo-link",
				Description: &FieldPattern{Expr: `(?:don'?t be shy|check it out|sweet tooth).*(?:` + promoHostsExpr + `)`},
			},
			{
				Name:        "lonely-sweet-promo-link",
				Description: &FieldPattern{Expr: `(?:alone|sweet).*(?:join\s*me|tooth)\s*\?*.*(?:` + promoHostsExpr + `)`},
			},
		},
	}
}
