package atclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/bluesky-social/followguard/atproto/syntax"
	lexutil "github.com/bluesky-social/followguard/lex/util"
)

var _ lexutil.LexClient = (*APIClient)(nil)

// Implements [lexutil.LexClient], for use with the endpoint helpers in the api/ packages.
func (c *APIClient) LexDo(ctx context.Context, method string, inputEncoding string, endpoint string, params map[string]any, bodyData any, out any) error {
	nsid, err := syntax.ParseNSID(endpoint)
	if err != nil {
		return err
	}

	var body io.Reader
	if bodyData != nil {
		if rr, ok := bodyData.(io.Reader); ok {
			body = rr
		} else {
			b, err := json.Marshal(bodyData)
			if err != nil {
				return err
			}
			body = bytes.NewReader(b)
			if inputEncoding == "" {
				inputEncoding = "application/json"
			}
		}
	}

	req := NewAPIRequest(method, nsid, body)
	req.Headers.Set("Accept", "application/json")
	if inputEncoding != "" {
		req.Headers.Set("Content-Type", inputEncoding)
	}
	if params != nil {
		qp, err := ParseParams(params)
		if err != nil {
			return err
		}
		req.QueryParams = qp
	}
	return c.doJSON(ctx, req, out)
}
