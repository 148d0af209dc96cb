package sdk

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// AuthUser is the signed-in operator as reported by the server. Role and the
// superuser flag feed the authorization evaluator.
type AuthUser struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Role        string  `json:"role"`
	IsSuperuser bool    `json:"is_superuser"`
	PersonID    *string `json:"person_id,omitempty"`
}

// tokenResponse mirrors the server's token endpoints.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AuthClient drives the authentication endpoints. It must be built on a
// client whose transport injects the credential but does not retry on 401:
// an unauthorized renewal is terminal, not recoverable.
type AuthClient struct {
	client  *Client
	session *Session
}

// NewAuthClient constructs an AuthClient bound to the given session.
func NewAuthClient(client *Client, session *Session) *AuthClient {
	return &AuthClient{client: client, session: session}
}

// Login exchanges the operator's username and password for a bearer token
// via the OAuth2 password grant, stores the credential, and returns the
// signed-in identity.
func (a *AuthClient) Login(ctx context.Context, username, password string) (*AuthUser, error) {
	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  a.client.baseURL + "/api/v1/auth/login",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client.http)
	token, err := conf.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		if err := a.session.Clear(); err != nil {
			a.client.logger.Warn("clearing session after failed login", "error", err)
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	var lifetime time.Duration
	if !token.Expiry.IsZero() {
		lifetime = time.Until(token.Expiry)
	}
	if err := a.session.SetCredential(token.AccessToken, lifetime); err != nil {
		return nil, err
	}

	user, err := a.Me(ctx)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Logout revokes the session server-side on a best-effort basis and always
// clears the local credential.
func (a *AuthClient) Logout(ctx context.Context) error {
	if _, ok := a.session.Credential(); ok {
		if err := a.client.post(ctx, "/api/v1/auth/logout", nil, nil); err != nil {
			a.client.logger.Debug("server-side logout failed", "error", err)
		}
	}
	return a.session.Clear()
}

// Me returns the currently signed-in operator.
func (a *AuthClient) Me(ctx context.Context) (*AuthUser, error) {
	var user AuthUser
	if err := a.client.get(ctx, "/api/v1/auth/me", nil, &user); err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}
	return &user, nil
}

// RenewToken exchanges the current credential for a fresh one. It satisfies
// RenewFunc for the renewal scheduler.
func (a *AuthClient) RenewToken(ctx context.Context) (string, time.Duration, error) {
	var resp tokenResponse
	if err := a.client.post(ctx, "/api/v1/auth/refresh", nil, &resp); err != nil {
		return "", 0, err
	}
	return resp.AccessToken, time.Duration(resp.ExpiresIn) * time.Second, nil
}
