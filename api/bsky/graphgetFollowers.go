package bsky

// schema: app.bsky.graph.getFollowers

import (
	"context"

	lexutil "github.com/bluesky-social/followguard/lex/util"
)

// GraphGetFollowers_Output is the output of a app.bsky.graph.getFollowers call.
type GraphGetFollowers_Output struct {
	Cursor    *string                  `json:"cursor,omitempty"`
	Followers []*ActorDefs_ProfileView `json:"followers"`
	Subject   *ActorDefs_ProfileView   `json:"subject"`
}

// GraphGetFollowers calls the XRPC method "app.bsky.graph.getFollowers".
//
// Followers are returned newest-first. An empty cursor requests the first page; limit is 1-100.
func GraphGetFollowers(ctx context.Context, c lexutil.LexClient, actor string, cursor string, limit int64) (*GraphGetFollowers_Output, error) {
	var out GraphGetFollowers_Output

	params := map[string]any{
		"actor": actor,
	}
	if cursor != "" {
		params["cursor"] = cursor
	}
	if limit != 0 {
		params["limit"] = limit
	}
	if err := c.LexDo(ctx, lexutil.Query, "", "app.bsky.graph.getFollowers", params, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
