package profilematch

import (
	"golang.org/x/text/unicode/norm"
)

// Snapshot of the public profile fields the rules inspect. Any field may be absent.
type Profile struct {
	DisplayName    *string
	Description    *string
	FollowersCount *int64
	FollowsCount   *int64
	PostsCount     *int64
}

// Display name, NFKC-normalized, or "" if absent
func (p *Profile) displayNameText() string {
	if p == nil || p.DisplayName == nil {
		return ""
	}
	return norm.NFKC.String(*p.DisplayName)
}

// Description, NFKC-normalized, or "" if absent
func (p *Profile) descriptionText() string {
	if p == nil || p.Description == nil {
		return ""
	}
	return norm.NFKC.String(*p.Description)
}

// Following divided by followers. Returns false if either count is absent or not positive.
func (p *Profile) FollowRatio() (float64, bool) {
	if p == nil || p.FollowersCount == nil || p.FollowsCount == nil {
		return 0, false
	}
	if *p.FollowersCount <= 0 || *p.FollowsCount <= 0 {
		return 0, false
	}
	return float64(*p.FollowsCount) / float64(*p.FollowersCount), true
}
