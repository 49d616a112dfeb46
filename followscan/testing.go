package followscan

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bluesky-social/followguard/atproto/syntax"
	"github.com/bluesky-social/followguard/profilematch"
)

// In-memory stand-in for the network, for tests and local development. Serves a fixed sequence of follower pages, and records every call.
type MockNetwork struct {
	lk sync.Mutex

	// served in order; the cursor for page N is "page-N"
	Pages [][]Follower
	// if set, ListFollowers fails for this page index
	ListErrPage int
	ListErr     error

	Profiles    map[syntax.DID]*profilematch.Profile
	ProfileErrs map[syntax.DID]error
	AddErrs     map[syntax.DID]error

	// call logs
	ListCursors  []string
	ProfileCalls []syntax.DID
	Added        []syntax.DID
	// listing and profile calls interleaved in the order made, as "list:<cursor>" and "profile:<did>"
	Calls []string
}

var (
	_ FollowerLister = (*MockNetwork)(nil)
	_ ProfileFetcher = (*MockNetwork)(nil)
	_ ListAdder      = (*MockNetwork)(nil)
)

func NewMockNetwork() *MockNetwork {
	return &MockNetwork{
		ListErrPage: -1,
		Profiles:    make(map[syntax.DID]*profilematch.Profile),
		ProfileErrs: make(map[syntax.DID]error),
		AddErrs:     make(map[syntax.DID]error),
	}
}

// Adds a page of followers with generated DIDs and handles, each with a bland profile. Returns the new followers.
func (mn *MockNetwork) AddPage(prefix string, count int) []Follower {
	mn.lk.Lock()
	defer mn.lk.Unlock()
	page := make([]Follower, count)
	for i := range count {
		name := fmt.Sprintf("%s%d", prefix, i)
		page[i] = Follower{
			DID:    syntax.DID("did:plc:" + name),
			Handle: syntax.Handle(name + ".example.com"),
		}
		displayName := "Follower " + name
		mn.Profiles[page[i].DID] = &profilematch.Profile{DisplayName: &displayName}
	}
	mn.Pages = append(mn.Pages, page)
	return page
}

func (mn *MockNetwork) ListFollowers(ctx context.Context, actor string, cursor string, limit int) (*FollowerPage, error) {
	mn.lk.Lock()
	defer mn.lk.Unlock()
	mn.ListCursors = append(mn.ListCursors, cursor)
	mn.Calls = append(mn.Calls, "list:"+cursor)

	idx := 0
	if cursor != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(cursor, "page-"))
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %s", cursor)
		}
		idx = n
	}
	if idx == mn.ListErrPage && mn.ListErr != nil {
		return nil, mn.ListErr
	}
	if idx >= len(mn.Pages) {
		return nil, fmt.Errorf("page out of range: %d", idx)
	}

	followers := mn.Pages[idx]
	if limit > 0 && len(followers) > limit {
		followers = followers[:limit]
	}
	page := FollowerPage{Followers: append([]Follower{}, followers...)}
	if idx+1 < len(mn.Pages) {
		page.Cursor = fmt.Sprintf("page-%d", idx+1)
	}
	return &page, nil
}

func (mn *MockNetwork) GetProfile(ctx context.Context, did syntax.DID) (*profilematch.Profile, error) {
	mn.lk.Lock()
	defer mn.lk.Unlock()
	mn.ProfileCalls = append(mn.ProfileCalls, did)
	mn.Calls = append(mn.Calls, "profile:"+did.String())
	if err, ok := mn.ProfileErrs[did]; ok {
		return nil, err
	}
	p, ok := mn.Profiles[did]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrFetch, ErrProfileNotFound, did)
	}
	return p, nil
}

func (mn *MockNetwork) AddToList(ctx context.Context, listID string, subject syntax.DID) error {
	mn.lk.Lock()
	defer mn.lk.Unlock()
	if err, ok := mn.AddErrs[subject]; ok {
		return err
	}
	mn.Added = append(mn.Added, subject)
	return nil
}

func (mn *MockNetwork) ProfileCallCount() int {
	mn.lk.Lock()
	defer mn.lk.Unlock()
	return len(mn.ProfileCalls)
}
