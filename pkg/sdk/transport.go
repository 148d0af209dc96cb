package sdk

import (
	"context"
	"io"
	"net/http"
	"time"
)

// RequestTimeout bounds every outbound call, including the renewal retry.
const RequestTimeout = 30 * time.Second

// Renewer is the reactive renewal path the transport falls back to on an
// authorization failure.
type Renewer interface {
	Renew(ctx context.Context) error
	Expire()
}

// Transport is an http.RoundTripper that attaches the session credential to
// every request and recovers from a single authorization failure by renewing
// the credential and retrying once. All other failure classes pass through
// untouched. No call is ever retried more than once.
type Transport struct {
	Base    http.RoundTripper
	Session *Session
	Renewer Renewer
}

// NewHTTPClient builds the authenticated http.Client used for all API calls.
func NewHTTPClient(session *Session, renewer Renewer) *http.Client {
	return &http.Client{
		Timeout: RequestTimeout,
		Transport: &Transport{
			Session: session,
			Renewer: renewer,
		},
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	attempt := cloneWithCredential(req, t.Session)
	resp, err := base.RoundTrip(attempt)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || t.Renewer == nil {
		return resp, nil
	}

	// One silent renew-and-retry for the first unauthorized response.
	drain(resp)
	if err := t.Renewer.Renew(req.Context()); err != nil {
		return nil, ErrSessionExpired
	}
	retry := cloneWithCredential(req, t.Session)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	resp, err = base.RoundTrip(retry)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		// The renewed credential was rejected too; the session is gone.
		drain(resp)
		t.Renewer.Expire()
		return nil, ErrSessionExpired
	}
	return resp, nil
}

func cloneWithCredential(req *http.Request, session *Session) *http.Request {
	cloned := req.Clone(req.Context())
	if session != nil {
		if creds, ok := session.Credential(); ok {
			cloned.Header.Set("Authorization", creds.TokenType+" "+creds.AccessToken)
		}
	}
	return cloned
}

// drain consumes and closes a response body so the underlying connection can
// be reused for the retry.
func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
