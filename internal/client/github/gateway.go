// Package github is the gateway for every remote API call the client makes.
// All calls, authenticated or anonymous, funnel through the rate-limit guard
// and normalize their errors before returning.
package github

import (
	"context"
	"sync"

	"github.com/google/go-github/v48/github"
	"golang.org/x/oauth2"

	"github.com/dipcp/dipcp/internal/client/ratelimit"
	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/logging"
)

// Gateway wraps the go-github client. The authenticated client is cached
// and keyed by the current token; anonymous calls build a throwaway client
// per call so they never carry stale credentials.
type Gateway struct {
	mu     sync.Mutex
	token  string
	client *github.Client

	guard *ratelimit.Guard
	log   logging.Logger
}

func NewGateway(guard *ratelimit.Guard, log logging.Logger) *Gateway {
	return &Gateway{guard: guard, log: log}
}

// SetToken installs the access token for authenticated calls. The underlying
// client is rebuilt only when the token actually changes. An empty token
// drops the authenticated client entirely.
func (g *Gateway) SetToken(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if token == "" {
		g.token = ""
		g.client = nil
		return
	}
	if token == g.token && g.client != nil {
		return
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)

	g.token = token
	g.client = github.NewClient(httpClient)
}

// HasToken reports whether an authenticated client is available.
func (g *Gateway) HasToken() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.client != nil
}

func (g *Gateway) authClient() *github.Client {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.client
}

// call runs fn against the cached authenticated client. The guard must
// report clear before dispatch; otherwise the call fails fast with a typed
// rate-limited error carrying the remaining wait.
func (g *Gateway) call(ctx context.Context, fn func(ctx context.Context, c *github.Client) error) error {
	client := g.authClient()
	if client == nil {
		return common.ErrNotInitialized
	}
	return g.dispatch(ctx, client, fn)
}

// publicCall runs fn against a fresh anonymous client. Public reads still
// pass through the guard and can still trip a violation.
func (g *Gateway) publicCall(ctx context.Context, fn func(ctx context.Context, c *github.Client) error) error {
	return g.dispatch(ctx, github.NewClient(nil), fn)
}

func (g *Gateway) dispatch(ctx context.Context, client *github.Client, fn func(ctx context.Context, c *github.Client) error) error {
	if g.guard.IsBlocked() {
		return &RateLimitedError{Remaining: g.guard.Remaining()}
	}

	err := fn(ctx, client)
	if err == nil {
		return nil
	}

	if isRateLimitSignal(err) {
		g.guard.RecordViolation()
		return &RateLimitedError{Remaining: g.guard.Remaining()}
	}

	return normalizeError(err)
}

// CheckRateLimit probes the dedicated rate-limit endpoint, which does not
// count against the core quota.
func (g *Gateway) CheckRateLimit(ctx context.Context) (limit, remaining int, err error) {
	err = g.call(ctx, func(ctx context.Context, c *github.Client) error {
		limits, _, err := c.RateLimits(ctx)
		if err != nil {
			return err
		}
		if core := limits.Core; core != nil {
			limit = core.Limit
			remaining = core.Remaining
		}
		return nil
	})
	return limit, remaining, err
}
