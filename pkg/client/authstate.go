package client

import (
	"context"
	"sync"

	"github.com/danesh-portal/danesh/storage/model"
)

// Snapshot is a point-in-time view of an AuthState
type Snapshot struct {
	// Loading is true until the first session check resolved
	Loading       bool
	Authenticated bool
	Checked       bool
	User          *model.Identity
}

// AuthState tracks whether the client is logged in. It only reflects what
// the server said last; the server stays authoritative for every request.
//
// The session is checked at most once per instance. A failed check (no
// session or network error) leaves the state anonymous until Login, Register
// or Refetch.
type AuthState struct {
	api    *Client
	reload func()

	mu       sync.Mutex
	user     *model.Identity
	checked  bool
	gen      uint64
	inflight chan struct{}
}

// NewAuthState creates an AuthState using api. reload is called after
// logout; it may be nil.
func NewAuthState(api *Client, reload func()) *AuthState {
	return &AuthState{
		api:    api,
		reload: reload,
	}
}

// Snapshot returns the current state
func (a *AuthState) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

func (a *AuthState) snapshot() Snapshot {
	s := Snapshot{
		Loading: !a.checked,
		Checked: a.checked,
	}
	if a.user != nil {
		u := *a.user
		s.User = &u
		s.Authenticated = true
	}
	return s
}

// Ensure performs the session check unless it already happened. Concurrent
// callers share one call. It returns the resolved state, or the current one
// if ctx is done first.
func (a *AuthState) Ensure(ctx context.Context) Snapshot {
	a.mu.Lock()
	if a.checked {
		defer a.mu.Unlock()
		return a.snapshot()
	}
	ch := a.inflight
	if ch == nil {
		ch = make(chan struct{})
		a.inflight = ch
		go a.check(a.gen, ch)
	}
	a.mu.Unlock()

	select {
	case <-ch:
	case <-ctx.Done():
	}
	return a.Snapshot()
}

func (a *AuthState) check(gen uint64, done chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	user, err := a.api.CurrentUser(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inflight == done {
		a.inflight = nil
	}
	close(done)
	if gen != a.gen {
		// superseded by login, register, refetch or logout
		return
	}
	a.checked = true
	a.user = nil
	if err == nil {
		a.user = user
	}
}

func (a *AuthState) set(user *model.Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.user = user
	a.checked = true
}

// Login logs in; on success the state becomes authenticated with the
// returned user. On failure the state is left unchanged.
func (a *AuthState) Login(ctx context.Context, username, password string) (*model.Identity, error) {
	user, err := a.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	a.set(user)
	return user, nil
}

// Register creates an account; on success the state becomes authenticated
// with the new user
func (a *AuthState) Register(ctx context.Context, account Account) (*model.Identity, error) {
	user, err := a.api.Register(ctx, account)
	if err != nil {
		return nil, err
	}
	a.set(user)
	return user, nil
}

// Refetch re-seeds the state. With a known identity no call is made;
// otherwise the session is checked again.
func (a *AuthState) Refetch(ctx context.Context, known *model.Identity) Snapshot {
	if known != nil {
		u := *known
		a.set(&u)
		return a.Snapshot()
	}
	a.mu.Lock()
	a.gen++
	a.checked = false
	a.user = nil
	a.inflight = nil
	a.mu.Unlock()
	return a.Ensure(ctx)
}

// Logout ends the session, calls reload and resets the state to unchecked.
// The state is reset even when the call fails.
func (a *AuthState) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	if a.reload != nil {
		a.reload()
	}
	a.mu.Lock()
	a.gen++
	a.checked = false
	a.user = nil
	a.inflight = nil
	a.mu.Unlock()
	return err
}
