package followscan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	comatproto "github.com/bluesky-social/followguard/api/atproto"
	"github.com/bluesky-social/followguard/api/bsky"
	"github.com/bluesky-social/followguard/atproto/atclient"
	"github.com/bluesky-social/followguard/atproto/syntax"
	"github.com/bluesky-social/followguard/profilematch"

	"golang.org/x/time/rate"
)

// A follower account, as listed by the network. The DID is the durable key; the handle is for logging.
type Follower struct {
	DID    syntax.DID
	Handle syntax.Handle
}

type FollowerPage struct {
	Followers []Follower
	// empty when there are no further pages
	Cursor string
}

type FollowerLister interface {
	ListFollowers(ctx context.Context, actor string, cursor string, limit int) (*FollowerPage, error)
}

type ProfileFetcher interface {
	GetProfile(ctx context.Context, did syntax.DID) (*profilematch.Profile, error)
}

type ListAdder interface {
	// Returns an error wrapping [ErrDuplicate] if the subject is already on the list.
	AddToList(ctx context.Context, listID string, subject syntax.DID) error
}

const DefaultAPIRateLimit = 10.0

// Adapts an authenticated [atclient.APIClient] to [FollowerLister], [ProfileFetcher], and [ListAdder]. Every API call first waits on a client-side rate limiter.
type NetworkClient struct {
	Client  *atclient.APIClient
	Logger  *slog.Logger
	limiter *rate.Limiter
}

var (
	_ FollowerLister = (*NetworkClient)(nil)
	_ ProfileFetcher = (*NetworkClient)(nil)
	_ ListAdder      = (*NetworkClient)(nil)
)

type LoginConfig struct {
	Host            string
	Username        string
	Password        string
	AuthFactorToken string
	// requests per second; zero or negative means unlimited
	RateLimit  float64
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Creates a password session with the configured host. Any failure wraps [ErrAuth].
func Login(ctx context.Context, config LoginConfig) (*NetworkClient, error) {
	if config.Username == "" || config.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrConfig)
	}
	c := atclient.NewAPIClient(config.Host)
	if config.HTTPClient != nil {
		c.Client = config.HTTPClient
	}
	if _, err := atclient.LoginWithClient(ctx, c, config.Username, config.Password, config.AuthFactorToken); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuth, err)
	}
	return NewNetworkClient(c, config.RateLimit, config.Logger), nil
}

func NewNetworkClient(c *atclient.APIClient, rateLimit float64, logger *slog.Logger) *NetworkClient {
	if logger == nil {
		logger = slog.Default()
	}
	lim := rate.Inf
	if rateLimit > 0 {
		lim = rate.Limit(rateLimit)
	}
	return &NetworkClient{
		Client:  c,
		Logger:  logger.With("component", "network"),
		limiter: rate.NewLimiter(lim, 1),
	}
}

// DID of the authenticated account, or empty if not authenticated
func (n *NetworkClient) AccountDID() syntax.DID {
	if n.Client.AccountDID == nil {
		return ""
	}
	return *n.Client.AccountDID
}

func (n *NetworkClient) wait(ctx context.Context) error {
	return n.limiter.Wait(ctx)
}

func (n *NetworkClient) ListFollowers(ctx context.Context, actor string, cursor string, limit int) (*FollowerPage, error) {
	if err := n.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := bsky.GraphGetFollowers(ctx, n.Client, actor, cursor, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing followers of %s: %w", actor, err)
	}

	page := FollowerPage{
		Followers: make([]Follower, 0, len(resp.Followers)),
	}
	if resp.Cursor != nil {
		page.Cursor = *resp.Cursor
	}
	for _, pv := range resp.Followers {
		if pv == nil {
			continue
		}
		did, err := syntax.ParseDID(pv.Did)
		if err != nil {
			n.Logger.Warn("skipping follower with invalid DID", "did", pv.Did, "err", err)
			continue
		}
		handle, err := syntax.ParseHandle(pv.Handle)
		if err != nil {
			handle = syntax.HandleInvalid
		}
		page.Followers = append(page.Followers, Follower{DID: did, Handle: handle.Normalize()})
	}
	return &page, nil
}

// Fetches the full profile view for a handle or DID.
func (n *NetworkClient) GetProfileDetailed(ctx context.Context, actor string) (*bsky.ActorDefs_ProfileViewDetailed, error) {
	if err := n.wait(ctx); err != nil {
		return nil, err
	}
	pv, err := bsky.ActorGetProfile(ctx, n.Client, actor)
	if err != nil {
		if isProfileNotFound(err) {
			return nil, fmt.Errorf("%w: %w: %s: %w", ErrFetch, ErrProfileNotFound, actor, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, actor, err)
	}
	return pv, nil
}

func (n *NetworkClient) GetProfile(ctx context.Context, did syntax.DID) (*profilematch.Profile, error) {
	pv, err := n.GetProfileDetailed(ctx, did.String())
	if err != nil {
		return nil, err
	}
	return ProfileFromView(pv), nil
}

func ProfileFromView(pv *bsky.ActorDefs_ProfileViewDetailed) *profilematch.Profile {
	return &profilematch.Profile{
		DisplayName:    pv.DisplayName,
		Description:    pv.Description,
		FollowersCount: pv.FollowersCount,
		FollowsCount:   pv.FollowsCount,
		PostsCount:     pv.PostsCount,
	}
}

// Resolves the list reference: either a full AT-URI, or a record key of a list owned by the authenticated account.
func (n *NetworkClient) listURI(listID string) (syntax.ATURI, error) {
	if strings.HasPrefix(listID, "at://") {
		return syntax.ParseRecordURI(listID)
	}
	did := n.AccountDID()
	if did == "" {
		return "", fmt.Errorf("%w: client is not authenticated", ErrConfig)
	}
	return syntax.NewRecordURI(did, syntax.NSID(bsky.GraphListNSID), listID), nil
}

// Creates an app.bsky.graph.listitem record in the authenticated account's repo.
func (n *NetworkClient) AddToList(ctx context.Context, listID string, subject syntax.DID) error {
	uri, err := n.listURI(listID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBlockAction, err)
	}
	if err := n.wait(ctx); err != nil {
		return err
	}

	rec := bsky.GraphListitem{
		LexiconTypeID: bsky.GraphListitemNSID,
		CreatedAt:     syntax.DatetimeNow().String(),
		List:          uri.String(),
		Subject:       subject.String(),
	}
	resp, err := comatproto.RepoCreateRecord(ctx, n.Client, &comatproto.RepoCreateRecord_Input{
		Collection: bsky.GraphListitemNSID,
		Repo:       n.AccountDID().String(),
		Record:     &rec,
	})
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: %s: %w", ErrDuplicate, subject, err)
		}
		return fmt.Errorf("%w: %s: %w", ErrBlockAction, subject, err)
	}
	n.Logger.Debug("created list item", "subject", subject, "uri", resp.Uri)
	return nil
}

// Classifies list item creation failures which mean the subject is already listed. Structured error fields are checked first; message text is a fallback.
func isDuplicate(err error) bool {
	var ae *atclient.APIError
	if errors.As(err, &ae) {
		if ae.StatusCode == http.StatusConflict || strings.Contains(strings.ToLower(ae.Name), "duplicate") {
			return true
		}
		return ae.Mentions("duplicate")
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate")
}

func isProfileNotFound(err error) bool {
	var ae *atclient.APIError
	if !errors.As(err, &ae) {
		return false
	}
	switch ae.Name {
	case "AccountTakedown", "AccountDeactivated", "NotFound":
		return true
	}
	if ae.StatusCode == http.StatusNotFound {
		return true
	}
	return ae.StatusCode == http.StatusBadRequest && ae.Mentions("not found")
}
