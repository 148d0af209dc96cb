package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/pterm/pterm"

	"github.com/picobrain/console/cmd/picoctl/internal/auth"
	"github.com/picobrain/console/pkg/authz"
	"github.com/picobrain/console/pkg/grid"
	"github.com/picobrain/console/pkg/sdk"
)

// ErrNotLoggedIn is returned for commands that need an authenticated session
// when no credential is stored.
var ErrNotLoggedIn = errors.New("not logged in; run `picoctl auth login`")

// Provider wires the session, renewal scheduler, SDK clients and the
// authorization evaluator once per process and hands them to commands on
// demand. Everything is injected from here; no package keeps its own
// singleton.
type Provider struct {
	serverURL string
	logger    *slog.Logger

	wireOnce  sync.Once
	wireErr   error
	session   *sdk.Session
	scheduler *sdk.RenewalScheduler
	authCli   *sdk.AuthClient
	apiCli    *sdk.Client

	evalOnce  sync.Once
	evalErr   error
	evaluator *authz.Evaluator

	userOnce sync.Once
	userErr  error
	user     *sdk.AuthUser

	registryOnce sync.Once
	registry     *grid.Registry
}

// NewProvider constructs a Provider bound to the given server URL.
func NewProvider(serverURL string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Provider{serverURL: serverURL, logger: logger}
}

// wire builds the session stack: credential store, session, a non-retrying
// client for the auth endpoints, the renewal scheduler, and the main client
// whose transport renews once on 401. The auth client must not sit behind
// the retrying transport, or a failed renewal would try to renew itself.
func (p *Provider) wire() error {
	p.wireOnce.Do(func() {
		store, err := auth.NewFileStore()
		if err != nil {
			p.wireErr = fmt.Errorf("failed to create credential store: %w", err)
			return
		}

		session := sdk.NewSession(store, sdk.WithSessionLogger(p.logger))

		authHTTP := &http.Client{
			Transport: &sdk.Transport{Session: session},
			Timeout:   sdk.RequestTimeout,
		}
		p.authCli = sdk.NewAuthClient(
			sdk.NewClient(p.serverURL, sdk.WithHTTPClient(authHTTP), sdk.WithLogger(p.logger)),
			session,
		)

		p.scheduler = sdk.NewRenewalScheduler(session, p.authCli.RenewToken,
			sdk.WithSchedulerLogger(p.logger),
			sdk.OnSessionEnded(func() {
				pterm.Warning.Println("Session ended; run `picoctl auth login` to sign in again.")
			}))

		p.apiCli = sdk.NewClient(p.serverURL,
			sdk.WithHTTPClient(sdk.NewHTTPClient(session, p.scheduler)),
			sdk.WithLogger(p.logger))
		p.session = session
	})
	return p.wireErr
}

// Session returns the process-wide credential session.
func (p *Provider) Session() (*sdk.Session, error) {
	if err := p.wire(); err != nil {
		return nil, err
	}
	return p.session, nil
}

// AuthClient returns the client for the auth endpoints.
func (p *Provider) AuthClient() (*sdk.AuthClient, error) {
	if err := p.wire(); err != nil {
		return nil, err
	}
	return p.authCli, nil
}

// SDKClient returns the authenticated API client. It requires a stored
// credential.
func (p *Provider) SDKClient() (*sdk.Client, error) {
	if err := p.wire(); err != nil {
		return nil, err
	}
	if _, ok := p.session.Credential(); !ok {
		return nil, ErrNotLoggedIn
	}
	return p.apiCli, nil
}

// Evaluator returns the authorization evaluator over the embedded
// permission matrix.
func (p *Provider) Evaluator() (*authz.Evaluator, error) {
	p.evalOnce.Do(func() {
		p.evaluator, p.evalErr = authz.NewEvaluator()
	})
	return p.evaluator, p.evalErr
}

// GridRegistry returns the shared per-collection page-cache registry.
func (p *Provider) GridRegistry() *grid.Registry {
	p.registryOnce.Do(func() {
		p.registry = grid.NewRegistry(grid.DefaultCacheTTL)
	})
	return p.registry
}

// CurrentUser returns the signed-in operator, fetched once per process.
func (p *Provider) CurrentUser(ctx context.Context) (*sdk.AuthUser, error) {
	p.userOnce.Do(func() {
		if err := p.wire(); err != nil {
			p.userErr = err
			return
		}
		if _, ok := p.session.Credential(); !ok {
			p.userErr = ErrNotLoggedIn
			return
		}
		p.user, p.userErr = p.authCli.Me(ctx)
	})
	return p.user, p.userErr
}

// Identity resolves the current operator into an authorization identity.
func (p *Provider) Identity(ctx context.Context) (authz.Identity, error) {
	user, err := p.CurrentUser(ctx)
	if err != nil {
		return authz.Identity{}, err
	}
	return authz.Identity{Role: user.Role, Privileged: user.IsSuperuser}, nil
}
