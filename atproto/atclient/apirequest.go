package atclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/bluesky-social/followguard/atproto/syntax"
)

type APIRequest struct {
	// HTTP method as a string (eg "GET") (required)
	Method string

	// atproto API endpoint, as NSID (required)
	Endpoint syntax.NSID

	// Optional request body (may be nil)
	Body io.Reader

	// Optional function to return a fresh reader for the request body; used when a request is retried after token refresh
	GetBody func() (io.ReadCloser, error)

	// Optional query parameters
	QueryParams url.Values

	// Optional HTTP headers. Only the first value for each key is sent.
	Headers http.Header
}

// Initializes a new request, with empty Headers and QueryParams ready to be manipulated.
//
// Seekable bodies (eg, [bytes.Reader]) get a GetBody function so they can be re-sent.
func NewAPIRequest(method string, endpoint syntax.NSID, body io.Reader) *APIRequest {
	req := APIRequest{
		Method:      method,
		Endpoint:    endpoint,
		Headers:     http.Header{},
		QueryParams: url.Values{},
	}
	if body != nil {
		req.Body = body
		if s, ok := body.(io.ReadSeeker); ok {
			req.GetBody = func() (io.ReadCloser, error) {
				if _, err := s.Seek(0, io.SeekStart); err != nil {
					return nil, err
				}
				return io.NopCloser(s), nil
			}
		}
	}
	return &req
}

// Creates an [http.Request] for this API request.
//
// `host` is a URL prefix: scheme, hostname, and optional port. `clientHeaders` are client-level defaults, overridden by request-level headers.
func (r *APIRequest) HTTPRequest(ctx context.Context, host string, clientHeaders http.Header) (*http.Request, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, errors.New("empty hostname in host URL")
	}
	if u.Scheme == "" {
		return nil, errors.New("empty scheme in host URL")
	}
	if r.Endpoint == "" {
		return nil, errors.New("empty request endpoint")
	}
	u.Path = "/xrpc/" + r.Endpoint.String()
	u.RawQuery = ""
	if len(r.QueryParams) > 0 {
		u.RawQuery = r.QueryParams.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, r.Method, u.String(), r.Body)
	if err != nil {
		return nil, err
	}
	if r.GetBody != nil {
		httpReq.GetBody = r.GetBody
	}

	for k := range clientHeaders {
		httpReq.Header.Set(k, clientHeaders.Get(k))
	}
	for k := range r.Headers {
		httpReq.Header.Set(k, r.Headers.Get(k))
	}
	return httpReq, nil
}
