package atclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bluesky-social/followguard/atproto/syntax"

	"github.com/carlmjohnson/versioninfo"
)

// Interface for auth implementations which can be used with [APIClient].
type AuthMethod interface {
	DoWithAuth(c *http.Client, req *http.Request, endpoint syntax.NSID) (*http.Response, error)
}

// General purpose client for atproto "XRPC" API endpoints.
type APIClient struct {
	// Inner HTTP client. Callers usually swap in util.RobustHTTPClient() for retries.
	Client *http.Client

	// Host URL prefix: scheme, hostname, and port. Required.
	Host string

	// Optional auth "middleware"
	Auth AuthMethod

	// Optional HTTP headers included in every request
	Headers http.Header

	// Authenticated account DID, if any. Informational only.
	AccountDID *syntax.DID
}

func userAgent() string {
	return "followguard/" + versioninfo.Short()
}

// Creates an unauthenticated APIClient for the provided host, using [http.DefaultClient].
func NewAPIClient(host string) *APIClient {
	return &APIClient{
		Client: http.DefaultClient,
		Host:   host,
		Headers: http.Header{
			"User-Agent": []string{userAgent()},
		},
	}
}

// JSON "Query" (HTTP GET) call. Non-successful responses are returned as [*APIError].
func (c *APIClient) Get(ctx context.Context, endpoint syntax.NSID, params map[string]any, out any) error {
	req := NewAPIRequest(http.MethodGet, endpoint, nil)
	req.Headers.Set("Accept", "application/json")
	if params != nil {
		qp, err := ParseParams(params)
		if err != nil {
			return err
		}
		req.QueryParams = qp
	}
	return c.doJSON(ctx, req, out)
}

// JSON-to-JSON "Procedure" (HTTP POST) call. Non-successful responses are returned as [*APIError].
func (c *APIClient) Post(ctx context.Context, endpoint syntax.NSID, body any, out any) error {
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req := NewAPIRequest(http.MethodPost, endpoint, bytes.NewReader(bodyJSON))
	req.Headers.Set("Accept", "application/json")
	req.Headers.Set("Content-Type", "application/json")
	return c.doJSON(ctx, req, out)
}

func (c *APIClient) doJSON(ctx context.Context, req *APIRequest, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !(resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return readAPIError(resp.StatusCode, resp.Body)
	}

	if out == nil {
		// drain body so the connection can be re-used
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decodeJSON(resp, out)
}

func decodeJSON(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed decoding JSON response body: %w", err)
	}
	return nil
}

// Full-featured request method. Does not parse error responses; the caller owns the response body.
func (c *APIClient) Do(ctx context.Context, req *APIRequest) (*http.Response, error) {
	if c.Client == nil {
		c.Client = http.DefaultClient
	}

	httpReq, err := req.HTTPRequest(ctx, c.Host, c.Headers)
	if err != nil {
		return nil, err
	}

	if c.Auth != nil {
		return c.Auth.DoWithAuth(c.Client, httpReq, req.Endpoint)
	}
	return c.Client.Do(httpReq)
}
