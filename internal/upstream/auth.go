package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dimitrije/pod-console/internal/metrics"
	"github.com/dimitrije/pod-console/internal/models"
)

// AuthResult is a token response. Admin is nil when the upstream omitted
// it, which refresh-token is allowed to do.
type AuthResult struct {
	Token string
	Admin *models.Admin
}

func decodeAuth(body []byte) (*AuthResult, error) {
	var token string
	if err := tokenEnvelope.decode(body, &token); err != nil || token == "" {
		return nil, ErrMissingToken
	}
	result := &AuthResult{Token: token}
	if raw, ok := adminEnvelope.unwrapKeyed(body); ok {
		var w wireAdmin
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("%w: admin: %v", ErrMalformedReply, err)
		}
		admin := w.model()
		result.Admin = &admin
	}
	return result, nil
}

// unwrapKeyed is unwrap without the bare fallback, for payloads that share
// a body with other payloads.
func (e envelope) unwrapKeyed(body []byte) (json.RawMessage, bool) {
	keyed := e
	keyed.bare = false
	return keyed.unwrap(body)
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	req, err := jsonCall("POST /admin/login", http.MethodPost, "/admin/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	req.public = true
	req.noRetry = true

	body, err := c.anonymous().do(ctx, req)
	if err != nil {
		return nil, err
	}
	result, err := decodeAuth(body)
	if err != nil {
		return nil, err
	}
	if result.Admin == nil {
		return nil, fmt.Errorf("%w: login reply carried no admin", ErrMalformedReply)
	}
	return result, nil
}

// SetupPassword completes an invited admin's account with the token from the
// invitation email.
func (c *Client) SetupPassword(ctx context.Context, token, password string) error {
	req, err := jsonCall("POST /admin/setup-password", http.MethodPost, "/admin/setup-password", map[string]string{
		"token":    token,
		"password": password,
	})
	if err != nil {
		return err
	}
	req.public = true
	_, err = c.anonymous().do(ctx, req)
	return err
}

func (a *API) Logout(ctx context.Context) error {
	req, _ := jsonCall("POST /admin/logout", http.MethodPost, "/admin/logout", nil)
	req.noRetry = true
	_, err := a.do(ctx, req)
	return err
}

func (a *API) Me(ctx context.Context) (*models.Admin, error) {
	req, _ := jsonCall("GET /admin/me", http.MethodGet, "/admin/me", nil)
	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var w wireAdmin
	if err := adminEnvelope.decode(body, &w); err != nil {
		return nil, err
	}
	admin := w.model()
	return &admin, nil
}

// RefreshToken exchanges the current token for a new one and installs it in
// the bound credentials.
func (a *API) RefreshToken(ctx context.Context) (*AuthResult, error) {
	req, _ := jsonCall("POST /admin/refresh-token", http.MethodPost, "/admin/refresh-token", struct{}{})
	req.noRetry = true

	body, err := a.do(ctx, req)
	if err != nil {
		metrics.TokenRefresh(false)
		return nil, err
	}
	result, err := decodeAuth(body)
	if err != nil {
		metrics.TokenRefresh(false)
		return nil, err
	}
	metrics.TokenRefresh(true)
	if a.creds != nil {
		a.creds.Set(result.Token)
	}
	return result, nil
}
