package profilematch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRuleSetJSON(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	raw := `{
		"followRatio": {"adultContent": "spicy", "promoLink": "example\\.com", "threshold": 2},
		"patterns": [
			{"name": "crypto", "description": {"allOf": ["airdrop", "claim"]}},
			{"name": "bot-name", "displayName": {"expr": "^bot\\d+$"}}
		]
	}`
	p := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(os.WriteFile(p, []byte(raw), 0644))

	rs, err := LoadRuleSetJSON(p)
	require.NoError(err)
	assert.Len(rs.Patterns, 2)
	assert.Equal(2.0, rs.FollowRatio.Threshold)

	m, err := NewMatcher(*rs)
	require.NoError(err)

	res := m.Evaluate(&Profile{Description: strPtr("CLAIM your AIRDROP")})
	assert.True(res.Matches)
	assert.Equal("crypto", res.Rule)
	assert.Equal("description matches pattern: /airdrop/i & /claim/i", res.Reason)

	res = m.Evaluate(&Profile{Description: strPtr("airdrop soon")})
	assert.False(res.Matches)

	res = m.Evaluate(&Profile{DisplayName: strPtr("BOT42")})
	assert.Equal("bot-name", res.Rule)

	res = m.Evaluate(&Profile{
		Description:    strPtr("spicy stuff at example.com"),
		FollowersCount: intPtr(10),
		FollowsCount:   intPtr(25),
	})
	assert.Equal(FollowRatioRuleName, res.Rule)
	assert.Contains(res.Reason, "2.5x")
}

func TestParseRuleSetJSONErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := ParseRuleSetJSON([]byte(`{"patterns": [`))
	assert.Error(err)

	_, err = ParseRuleSetJSON([]byte(`{"patterns": [{"name": "empty"}]}`))
	assert.Error(err)

	_, err = LoadRuleSetJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(err)

	// no followRatio section: the default ratio rule applies
	rs, err := ParseRuleSetJSON([]byte(`{"patterns": []}`))
	assert.NoError(err)
	assert.Nil(rs.FollowRatio)
	m, err := NewMatcher(*rs)
	assert.NoError(err)
	res := m.Evaluate(&Profile{
		Description:    strPtr("🔥 onlyfans.com/x"),
		FollowersCount: intPtr(1),
		FollowsCount:   intPtr(100),
	})
	assert.True(res.Matches)
}
