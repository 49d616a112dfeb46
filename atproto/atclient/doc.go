// Package atclient is a small XRPC client for atproto API hosts (PDS instances), with password session auth.
//
// It covers what the follower moderation bot needs: JSON "query" and "procedure" calls, automatic access token refresh, and structured API errors. Endpoint-specific helpers live in the api/ packages and call [APIClient.LexDo].
package atclient
