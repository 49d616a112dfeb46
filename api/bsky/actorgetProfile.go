package bsky

// schema: app.bsky.actor.getProfile

import (
	"context"

	lexutil "github.com/bluesky-social/followguard/lex/util"
)

// ActorGetProfile calls the XRPC method "app.bsky.actor.getProfile".
//
// actor: Handle or DID of account to fetch profile of.
func ActorGetProfile(ctx context.Context, c lexutil.LexClient, actor string) (*ActorDefs_ProfileViewDetailed, error) {
	var out ActorDefs_ProfileViewDetailed

	params := map[string]any{
		"actor": actor,
	}
	if err := c.LexDo(ctx, lexutil.Query, "", "app.bsky.actor.getProfile", params, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
