package followscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/bluesky-social/followguard/atproto/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimal PDS/AppView for the endpoints the network client uses
type fakePDS struct {
	lk        sync.Mutex
	listItems []map[string]any
}

func (p *fakePDS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeErr := func(status int, name, msg string) {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":%q,"message":%q}`, name, msg)
	}

	if r.URL.Path != "/xrpc/com.atproto.server.createSession" && r.Header.Get("Authorization") != "Bearer access1" {
		writeErr(http.StatusUnauthorized, "AuthenticationRequired", "missing auth")
		return
	}

	switch r.URL.Path {
	case "/xrpc/com.atproto.server.createSession":
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeErr(http.StatusBadRequest, "InvalidRequest", "bad body")
			return
		}
		if body["identifier"] != "guard.example.com" || body["password"] != "app-password" {
			writeErr(http.StatusUnauthorized, "AuthenticationRequired", "Invalid identifier or password")
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"did":        "did:plc:guardowner",
			"handle":     "guard.example.com",
			"accessJwt":  "access1",
			"refreshJwt": "refresh1",
		})
	case "/xrpc/app.bsky.graph.getFollowers":
		q := r.URL.Query()
		if q.Get("actor") != "did:plc:guardowner" || q.Get("limit") != "2" {
			writeErr(http.StatusBadRequest, "InvalidRequest", "unexpected params")
			return
		}
		if q.Get("cursor") == "" {
			fmt.Fprintln(w, `{"subject":{"did":"did:plc:guardowner","handle":"guard.example.com"},"cursor":"c1","followers":[
				{"did":"did:plc:follower1","handle":"One.Example.com"},
				{"did":"not-a-did","handle":"broken.example.com"}]}`)
			return
		}
		fmt.Fprintln(w, `{"subject":{"did":"did:plc:guardowner","handle":"guard.example.com"},"followers":[
			{"did":"did:plc:follower2","handle":"bad handle"}]}`)
	case "/xrpc/app.bsky.actor.getProfile":
		switch r.URL.Query().Get("actor") {
		case "did:plc:follower1":
			fmt.Fprintln(w, `{"did":"did:plc:follower1","handle":"one.example.com","displayName":"One","followersCount":10,"followsCount":51}`)
		case "did:plc:takendown":
			writeErr(http.StatusBadRequest, "AccountTakedown", "Account has been suspended")
		case "did:plc:missing":
			writeErr(http.StatusBadRequest, "InvalidRequest", "Profile not found")
		default:
			writeErr(http.StatusInternalServerError, "InternalServerError", "oops")
		}
	case "/xrpc/com.atproto.repo.createRecord":
		var body struct {
			Collection string         `json:"collection"`
			Repo       string         `json:"repo"`
			Record     map[string]any `json:"record"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeErr(http.StatusBadRequest, "InvalidRequest", "bad body")
			return
		}
		switch body.Record["subject"] {
		case "did:plc:conflict":
			writeErr(http.StatusConflict, "RecordExists", "record already exists")
			return
		case "did:plc:dupemsg":
			writeErr(http.StatusBadRequest, "InvalidRequest", "Duplicate list item")
			return
		case "did:plc:fails":
			writeErr(http.StatusBadRequest, "InvalidRequest", "Record/subject must be a valid did")
			return
		}
		p.lk.Lock()
		p.listItems = append(p.listItems, map[string]any{
			"collection": body.Collection,
			"repo":       body.Repo,
			"record":     body.Record,
		})
		p.lk.Unlock()
		fmt.Fprintln(w, `{"uri":"at://did:plc:guardowner/app.bsky.graph.listitem/3kabc","cid":"bafyreie"}`)
	default:
		writeErr(http.StatusNotImplemented, "MethodNotImplemented", r.URL.Path)
	}
}

func testNetworkClient(t *testing.T) (*NetworkClient, *fakePDS) {
	pds := &fakePDS{}
	srv := httptest.NewServer(pds)
	t.Cleanup(srv.Close)

	nc, err := Login(context.Background(), LoginConfig{
		Host:      srv.URL,
		Username:  "guard.example.com",
		Password:  "app-password",
		RateLimit: 1000,
	})
	require.NoError(t, err)
	return nc, pds
}

func TestNetworkLogin(t *testing.T) {
	assert := assert.New(t)

	nc, _ := testNetworkClient(t)
	assert.Equal(syntax.DID("did:plc:guardowner"), nc.AccountDID())

	srv := httptest.NewServer(&fakePDS{})
	defer srv.Close()
	_, err := Login(context.Background(), LoginConfig{Host: srv.URL, Username: "guard.example.com", Password: "wrong"})
	assert.ErrorIs(err, ErrAuth)

	_, err = Login(context.Background(), LoginConfig{Host: srv.URL})
	assert.ErrorIs(err, ErrConfig)
}

func TestNetworkListFollowers(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	nc, _ := testNetworkClient(t)
	page, err := nc.ListFollowers(ctx, "did:plc:guardowner", "", 2)
	require.NoError(err)
	assert.Equal("c1", page.Cursor)
	// invalid DIDs are dropped, handles normalized
	require.Len(page.Followers, 1)
	assert.Equal(Follower{DID: "did:plc:follower1", Handle: "one.example.com"}, page.Followers[0])

	page, err = nc.ListFollowers(ctx, "did:plc:guardowner", "c1", 2)
	require.NoError(err)
	assert.Empty(page.Cursor)
	require.Len(page.Followers, 1)
	assert.Equal(syntax.HandleInvalid, page.Followers[0].Handle)
}

func TestNetworkGetProfile(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	nc, _ := testNetworkClient(t)
	p, err := nc.GetProfile(ctx, "did:plc:follower1")
	require.NoError(err)
	require.NotNil(p.DisplayName)
	assert.Equal("One", *p.DisplayName)
	assert.Nil(p.Description)
	ratio, ok := p.FollowRatio()
	assert.True(ok)
	assert.InDelta(5.1, ratio, 0.001)

	_, err = nc.GetProfile(ctx, "did:plc:takendown")
	assert.ErrorIs(err, ErrFetch)
	assert.ErrorIs(err, ErrProfileNotFound)

	_, err = nc.GetProfile(ctx, "did:plc:missing")
	assert.ErrorIs(err, ErrProfileNotFound)

	_, err = nc.GetProfile(ctx, "did:plc:broken")
	assert.ErrorIs(err, ErrFetch)
	assert.False(errors.Is(err, ErrProfileNotFound))
}

func TestNetworkAddToList(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	nc, pds := testNetworkClient(t)
	require.NoError(nc.AddToList(ctx, "3kblocklist", "did:plc:spammer"))
	require.Len(pds.listItems, 1)
	item := pds.listItems[0]
	assert.Equal("app.bsky.graph.listitem", item["collection"])
	assert.Equal("did:plc:guardowner", item["repo"])
	rec := item["record"].(map[string]any)
	assert.Equal("app.bsky.graph.listitem", rec["$type"])
	assert.Equal("at://did:plc:guardowner/app.bsky.graph.list/3kblocklist", rec["list"])
	assert.Equal("did:plc:spammer", rec["subject"])
	assert.NotEmpty(rec["createdAt"])

	// full list URIs are passed through
	require.NoError(nc.AddToList(ctx, "at://did:plc:other/app.bsky.graph.list/3kshared", "did:plc:spammer2"))
	assert.Equal("at://did:plc:other/app.bsky.graph.list/3kshared", pds.listItems[1]["record"].(map[string]any)["list"])

	assert.ErrorIs(nc.AddToList(ctx, "3kblocklist", "did:plc:conflict"), ErrDuplicate)
	assert.ErrorIs(nc.AddToList(ctx, "3kblocklist", "did:plc:dupemsg"), ErrDuplicate)

	err := nc.AddToList(ctx, "3kblocklist", "did:plc:fails")
	assert.ErrorIs(err, ErrBlockAction)
	assert.False(errors.Is(err, ErrDuplicate))
}

func TestIsDuplicate(t *testing.T) {
	assert := assert.New(t)

	assert.True(isDuplicate(errors.New("Duplicate record")))
	assert.False(isDuplicate(errors.New("connection refused")))
}
