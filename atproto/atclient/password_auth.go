package atclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/bluesky-social/followguard/atproto/syntax"
)

// [AuthMethod] for password (app password) sessions with a PDS. Refreshes the access token with the refresh token when the host reports "ExpiredToken".
//
// Safe for concurrent use.
type PasswordAuth struct {
	Session PasswordSessionData

	// protects tokens in Session
	lk sync.RWMutex
}

type PasswordSessionData struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	AccountDID   syntax.DID `json:"account_did"`
	Host         string     `json:"host"`
}

type createSessionRequest struct {
	AuthFactorToken *string `json:"authFactorToken,omitempty"`
	Identifier      string  `json:"identifier"`
	Password        string  `json:"password"`
}

type sessionResponse struct {
	AccessJwt  string  `json:"accessJwt"`
	RefreshJwt string  `json:"refreshJwt"`
	Did        string  `json:"did"`
	Handle     string  `json:"handle"`
	Active     *bool   `json:"active,omitempty"`
	Status     *string `json:"status,omitempty"`
}

func (a *PasswordAuth) DoWithAuth(c *http.Client, req *http.Request, endpoint syntax.NSID) (*http.Response, error) {
	accessToken, refreshToken := a.GetTokens()
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}

	// on success, or most errors, just return HTTP response
	if resp.StatusCode != http.StatusBadRequest || !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		return resp, nil
	}

	defer resp.Body.Close()
	apiErr := readAPIError(resp.StatusCode, resp.Body)
	var ae *APIError
	if !errors.As(apiErr, &ae) || ae.Name != "ExpiredToken" {
		return nil, apiErr
	}

	if err := a.Refresh(req.Context(), c, refreshToken); err != nil {
		return nil, fmt.Errorf("refreshing expired session: %w", err)
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		retry.Body, err = req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("API request retry GetBody failed: %w", err)
		}
	}
	accessToken, _ = a.GetTokens()
	retry.Header.Set("Authorization", "Bearer "+accessToken)
	return c.Do(retry)
}

// Returns current access and refresh tokens
func (a *PasswordAuth) GetTokens() (string, string) {
	a.lk.RLock()
	defer a.lk.RUnlock()
	return a.Session.AccessToken, a.Session.RefreshToken
}

// Refreshes auth tokens. If `priorRefreshToken` no longer matches the session, a concurrent refresh already happened and this is a no-op.
func (a *PasswordAuth) Refresh(ctx context.Context, c *http.Client, priorRefreshToken string) error {
	a.lk.Lock()
	defer a.lk.Unlock()

	if priorRefreshToken != "" && priorRefreshToken != a.Session.RefreshToken {
		return nil
	}

	u := a.Session.Host + "/xrpc/com.atproto.server.refreshSession"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent())
	// NOTE: refresh token here, not access token
	req.Header.Set("Authorization", "Bearer "+a.Session.RefreshToken)

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !(resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return readAPIError(resp.StatusCode, resp.Body)
	}

	var out sessionResponse
	if err := decodeJSON(resp, &out); err != nil {
		return err
	}
	a.Session.AccessToken = out.AccessJwt
	a.Session.RefreshToken = out.RefreshJwt
	return nil
}

// Creates a new [APIClient] with [PasswordAuth], by logging in to the provided host. `username` may be a handle, DID, or (with some PDS implementations) an email address.
//
// `authToken` is optional; it is used when email two-factor auth is enabled for the account.
func LoginWithPasswordHost(ctx context.Context, host, username, password, authToken string) (*APIClient, error) {
	return LoginWithClient(ctx, NewAPIClient(host), username, password, authToken)
}

// Same as [LoginWithPasswordHost], but configures auth on the provided (unauthenticated) client, eg one with a retrying HTTP client.
func LoginWithClient(ctx context.Context, c *APIClient, username, password, authToken string) (*APIClient, error) {
	reqBody := createSessionRequest{
		Identifier: username,
		Password:   password,
	}
	if authToken != "" {
		reqBody.AuthFactorToken = &authToken
	}

	var out sessionResponse
	if err := c.Post(ctx, syntax.NSID("com.atproto.server.createSession"), &reqBody, &out); err != nil {
		return nil, err
	}

	if out.Active != nil && !*out.Active {
		status := "unknown"
		if out.Status != nil {
			status = *out.Status
		}
		return nil, fmt.Errorf("account is disabled: %s", status)
	}

	did, err := syntax.ParseDID(out.Did)
	if err != nil {
		return nil, fmt.Errorf("invalid DID in session response: %w", err)
	}

	c.Auth = &PasswordAuth{
		Session: PasswordSessionData{
			AccessToken:  out.AccessJwt,
			RefreshToken: out.RefreshJwt,
			AccountDID:   did,
			Host:         c.Host,
		},
	}
	c.AccountDID = &did
	return c, nil
}
