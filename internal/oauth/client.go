package oauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrRequestPending is returned by BeginAuthorization while another request
// is still outstanding.
var ErrRequestPending = errors.New("an authorization request is already pending")

// errUnknownRequest marks callbacks that do not belong to the pending request.
var errUnknownRequest = errors.New("unknown or expired sign-in request")

// Config holds the OAuth client credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	// Endpoint overrides google.Endpoint; used by tests.
	Endpoint oauth2.Endpoint
}

// Client runs the browser-based authorization code flow with PKCE against
// Google, receiving the redirect on a loopback listener.
type Client struct {
	config      *oauth2.Config
	instanceID  uuid.UUID
	openBrowser func(url string) error
	logger      *slog.Logger

	mu      sync.Mutex
	pending *Request
}

// Option configures a Client.
type Option func(*Client)

// WithBrowserOpener replaces the system browser launcher.
func WithBrowserOpener(fn func(url string) error) Option {
	return func(c *Client) { c.openBrowser = fn }
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewGoogleClient creates a client whose redirect target lives under
// redirectBase (for example "http://127.0.0.1:53682"). The redirect URL is
// fixed for the lifetime of the client.
func NewGoogleClient(cfg Config, redirectBase string, opts ...Option) *Client {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	c := &Client{
		instanceID:  uuid.New(),
		openBrowser: browser.OpenURL,
		logger:      slog.Default(),
	}
	c.config = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  strings.TrimRight(redirectBase, "/") + c.CallbackPath(),
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: endpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CallbackPath is the path the provider redirects back to.
func (c *Client) CallbackPath() string {
	return "/oauth/" + c.instanceID.String() + "/callback"
}

// RedirectURL is the full redirect URI registered with the provider.
func (c *Client) RedirectURL() string {
	return c.config.RedirectURL
}

// BeginAuthorization starts a new request and opens the system browser at
// the provider's consent page. It does not wait for the user; the outcome is
// delivered through the returned Request.
func (c *Client) BeginAuthorization(ctx context.Context) (*Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.pending != nil && c.pending.Status() == StatusPending {
		c.mu.Unlock()
		return nil, ErrRequestPending
	}

	req := NewRequest("")
	state, nonce, err := EncodeState(req.ID)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	req.nonce = nonce
	req.verifier = oauth2.GenerateVerifier()
	req.authURL = c.config.AuthCodeURL(state, oauth2.S256ChallengeOption(req.verifier))
	c.pending = req
	c.mu.Unlock()

	if err := c.openBrowser(req.authURL); err != nil {
		// The URL is still shown to the user, who can open it by hand.
		c.logger.Warn("could not open browser", slog.String("error", err.Error()))
	}
	c.logger.Info("authorization started", slog.String("request_id", req.ID.String()))
	return req, nil
}

// complete handles the redirect query for the pending request and resolves
// it. Callbacks that cannot be correlated return errUnknownRequest and leave
// the pending request untouched.
func (c *Client) complete(ctx context.Context, query url.Values) (Result, error) {
	payload, err := DecodeState(query.Get("state"))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", errUnknownRequest, err)
	}

	c.mu.Lock()
	req := c.pending
	if req == nil || req.ID != payload.RequestID || req.Status() != StatusPending ||
		subtle.ConstantTimeCompare([]byte(req.nonce), []byte(payload.Nonce)) != 1 {
		c.mu.Unlock()
		return Result{}, errUnknownRequest
	}
	c.pending = nil
	c.mu.Unlock()

	res := c.exchange(ctx, req, query)
	if !req.Resolve(res) {
		// Cancelled while the exchange was in flight.
		return Result{Status: StatusCancelled}, nil
	}
	c.logger.Info("authorization completed",
		slog.String("request_id", req.ID.String()),
		slog.String("status", res.Status.String()))
	return res, nil
}

func (c *Client) exchange(ctx context.Context, req *Request, query url.Values) Result {
	if e := query.Get("error"); e != "" {
		if e == "access_denied" {
			return Result{Status: StatusCancelled}
		}
		reason := e
		if desc := query.Get("error_description"); desc != "" {
			reason += ": " + desc
		}
		return Result{Status: StatusError, Reason: reason}
	}

	code := query.Get("code")
	if code == "" {
		return Result{Status: StatusError, Reason: "missing authorization code"}
	}

	t, err := c.config.Exchange(ctx, code, oauth2.VerifierOption(req.verifier))
	if err != nil {
		return Result{Status: StatusError, Reason: fmt.Sprintf("google token exchange: %v", err)}
	}
	if t.AccessToken == "" {
		return Result{Status: StatusError, Reason: "empty access token in response"}
	}
	return Result{Status: StatusSuccess, AccessToken: t.AccessToken}
}
