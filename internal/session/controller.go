// Package session owns the sign-in lifecycle: restoring a cached profile at
// startup, running an authorization request through to a fetched profile,
// and signing out.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gsarma/jobboard/internal/jobs"
	"github.com/gsarma/jobboard/internal/model"
	"github.com/gsarma/jobboard/internal/oauth"
)

// DefaultAuthTimeout bounds how long SignIn waits for the browser flow.
const DefaultAuthTimeout = 5 * time.Minute

var (
	// ErrInvalidTransition is returned when an operation is not allowed in
	// the current state.
	ErrInvalidTransition = errors.New("session: operation not allowed in current state")
	// ErrUnknownJob is returned by SelectJob for an id not in the catalog.
	ErrUnknownJob = errors.New("session: unknown job")
)

// State is the controller's position in the sign-in lifecycle.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Store is the single-slot profile cache.
type Store interface {
	Save(ctx context.Context, profile model.UserProfile) error
	Load(ctx context.Context) (*model.UserProfile, error)
	Clear(ctx context.Context) error
}

// Authorizer starts interactive authorization requests.
type Authorizer interface {
	BeginAuthorization(ctx context.Context) (*oauth.Request, error)
}

// ProfileFetcher exchanges an access token for the user's profile.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (*model.UserProfile, error)
}

// Notifier shows an alert to the user.
type Notifier interface {
	Notify(alert model.Alert)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(model.Alert)

func (f NotifierFunc) Notify(a model.Alert) { f(a) }

// Snapshot is an immutable view of the session for presentation.
type Snapshot struct {
	State       State
	User        *model.UserProfile
	SelectedJob *jobs.Job
	AuthURL     string // set while Authenticating
}

// Controller is the session state machine. All methods are safe for
// concurrent use; observers are invoked outside the lock.
type Controller struct {
	store       Store
	auth        Authorizer
	fetcher     ProfileFetcher
	notifier    Notifier
	logger      *slog.Logger
	authTimeout time.Duration

	mu        sync.Mutex
	state     State
	user      *model.UserProfile
	selected  *jobs.Job
	pending   *oauth.Request
	nextObsID int
	observers map[int]func(Snapshot)
}

// Option configures a Controller.
type Option func(*Controller)

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithAuthTimeout bounds the authorization wait. Zero disables the bound.
func WithAuthTimeout(d time.Duration) Option {
	return func(c *Controller) { c.authTimeout = d }
}

func New(store Store, auth Authorizer, fetcher ProfileFetcher, opts ...Option) *Controller {
	c := &Controller{
		store:       store,
		auth:        auth,
		fetcher:     fetcher,
		notifier:    NotifierFunc(func(model.Alert) {}),
		logger:      slog.Default(),
		authTimeout: DefaultAuthTimeout,
		observers:   map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn to receive a Snapshot after every change. The
// returned function removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{State: c.state}
	if c.user != nil {
		u := *c.user
		s.User = &u
	}
	if c.selected != nil {
		j := *c.selected
		s.SelectedJob = &j
	}
	if c.pending != nil {
		s.AuthURL = c.pending.AuthURL()
	}
	return s
}

// update applies fn under the lock and, when fn succeeds, publishes the new
// snapshot to observers.
func (c *Controller) update(fn func() error) error {
	c.mu.Lock()
	if err := fn(); err != nil {
		c.mu.Unlock()
		return err
	}
	snap := c.snapshotLocked()
	observers := make([]func(Snapshot), 0, len(c.observers))
	for _, o := range c.observers {
		observers = append(observers, o)
	}
	c.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
	return nil
}

func (c *Controller) alert(err error) {
	c.notifier.Notify(model.AlertFor(err))
}

// CheckStoredUser restores a cached profile, if any. A store that cannot be
// read is logged and treated as empty.
func (c *Controller) CheckStoredUser(ctx context.Context) Snapshot {
	profile, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Error("error loading user from storage", slog.String("error", err.Error()))
	}
	_ = c.update(func() error {
		if profile != nil && c.state == Unauthenticated {
			c.user = profile
			c.state = Authenticated
		}
		return nil
	})
	return c.Snapshot()
}

// SignIn runs one authorization request to completion. It blocks until the
// user finishes in the browser, the auth timeout expires or ctx ends. Every
// failure is also reported through the Notifier and leaves the controller
// Unauthenticated.
func (c *Controller) SignIn(ctx context.Context) error {
	err := c.update(func() error {
		if c.state != Unauthenticated {
			return ErrInvalidTransition
		}
		c.state = Authenticating
		return nil
	})
	if err != nil {
		return err
	}

	req, err := c.auth.BeginAuthorization(ctx)
	if err != nil {
		return c.fail(&model.AuthError{Kind: model.AuthProviderError, Reason: err.Error()})
	}
	_ = c.update(func() error {
		c.pending = req
		return nil
	})

	res, err := c.await(ctx, req)
	if err != nil {
		return c.fail(err)
	}

	switch res.Status {
	case oauth.StatusCancelled:
		return c.fail(&model.AuthError{Kind: model.AuthCancelled})
	case oauth.StatusError:
		return c.fail(&model.AuthError{Kind: model.AuthProviderError, Reason: res.Reason})
	}

	return c.fetchUserInfo(ctx, res.AccessToken)
}

func (c *Controller) await(ctx context.Context, req *oauth.Request) (oauth.Result, error) {
	waitCtx := ctx
	if c.authTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.authTimeout)
		defer cancel()
	}

	res, err := req.Wait(waitCtx)
	if err == nil {
		return res, nil
	}
	if !req.Cancel() {
		// Resolved between the deadline and the cancel; keep that outcome.
		return req.Wait(context.Background())
	}
	if ctx.Err() != nil {
		return res, &model.AuthError{Kind: model.AuthCancelled}
	}
	return res, &model.AuthError{Kind: model.AuthProviderError, Reason: "timed out waiting for authorization"}
}

// fetchUserInfo turns a fresh access token into the signed-in user.
func (c *Controller) fetchUserInfo(ctx context.Context, token string) error {
	profile, err := c.fetcher.FetchProfile(ctx, token)
	if err != nil {
		return c.fail(err)
	}

	_ = c.update(func() error {
		c.user = profile
		c.pending = nil
		c.state = Authenticated
		return nil
	})
	c.logger.Info("signed in", slog.String("user_id", profile.ID))

	if err := c.store.Save(ctx, *profile); err != nil {
		c.logger.Error("failed to save user", slog.String("error", err.Error()))
		c.alert(err)
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (c *Controller) fail(err error) error {
	_ = c.update(func() error {
		c.state = Unauthenticated
		c.user = nil
		c.selected = nil
		c.pending = nil
		return nil
	})
	var authErr *model.AuthError
	if errors.As(err, &authErr) && authErr.Kind == model.AuthCancelled {
		c.logger.Info("sign-in cancelled")
	} else {
		c.logger.Error("sign-in failed", slog.String("error", err.Error()))
	}
	c.alert(err)
	return err
}

// Logout clears the in-memory session, then the cached profile.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.update(func() error {
		if c.state == Authenticating {
			return ErrInvalidTransition
		}
		c.state = Unauthenticated
		c.user = nil
		c.selected = nil
		return nil
	})
	if err != nil {
		return err
	}

	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error("failed to clear stored user", slog.String("error", err.Error()))
		c.alert(err)
		return fmt.Errorf("clear profile: %w", err)
	}
	return nil
}

// SelectJob shows the detail view for the job with the given id.
func (c *Controller) SelectJob(id string) error {
	job, ok := jobs.Find(id)
	if !ok {
		return ErrUnknownJob
	}
	return c.update(func() error {
		if c.state != Authenticated {
			return ErrInvalidTransition
		}
		c.selected = &job
		return nil
	})
}

// ClearSelection returns to the job list.
func (c *Controller) ClearSelection() {
	_ = c.update(func() error {
		c.selected = nil
		return nil
	})
}
