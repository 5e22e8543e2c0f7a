package oauth

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Status is the lifecycle position of an authorization request.
type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusError
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// Result is the terminal outcome of a Request.
type Result struct {
	Status      Status
	AccessToken string // set on StatusSuccess
	Reason      string // set on StatusError
}

// Request is one authorization attempt. It resolves exactly once; later
// resolutions are ignored.
type Request struct {
	ID      uuid.UUID
	authURL string

	// correlation material, set by Client
	nonce    string
	verifier string

	once   sync.Once
	done   chan struct{}
	mu     sync.Mutex
	result Result
}

// NewRequest returns a pending request that directs the user to authURL.
func NewRequest(authURL string) *Request {
	return &Request{
		ID:      uuid.New(),
		authURL: authURL,
		done:    make(chan struct{}),
	}
}

// AuthURL is the provider URL the user must visit.
func (r *Request) AuthURL() string { return r.authURL }

// Status reports the current status without blocking.
func (r *Request) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result.Status
}

// Done is closed once the request has resolved.
func (r *Request) Done() <-chan struct{} { return r.done }

// Wait blocks until the request resolves or ctx ends. A resolved result wins
// over a context that ended at the same time.
func (r *Request) Wait(ctx context.Context) (Result, error) {
	select {
	case <-r.done:
		return r.resolved(), nil
	case <-ctx.Done():
		select {
		case <-r.done:
			return r.resolved(), nil
		default:
			return Result{Status: StatusPending}, ctx.Err()
		}
	}
}

func (r *Request) resolved() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Resolve records the terminal result. It reports whether this call was
// the one that resolved the request.
func (r *Request) Resolve(res Result) bool {
	if res.Status == StatusPending {
		return false
	}
	resolved := false
	r.once.Do(func() {
		r.mu.Lock()
		r.result = res
		r.mu.Unlock()
		close(r.done)
		resolved = true
	})
	return resolved
}

// Cancel resolves the request as cancelled if it is still pending. It
// reports false when the request had already resolved.
func (r *Request) Cancel() bool {
	return r.Resolve(Result{Status: StatusCancelled})
}
