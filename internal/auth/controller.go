// Package auth owns the client's authenticated/unauthenticated view and
// the login, register and logout operations that move between them.
package auth

import (
	"context"
	"fmt"
	"log"
	"sync"

	"campusevents/internal/api"
	"campusevents/internal/model"
	"campusevents/internal/session"
)

// Status is the controller's current phase.
type Status string

const (
	StatusLoading         Status = "loading"
	StatusUnauthenticated Status = "unauthenticated"
	StatusAuthenticated   Status = "authenticated"
)

// State is a snapshot of the auth view. A failed login or registration is
// StatusUnauthenticated with Error set.
type State struct {
	Status Status
	User   *model.User
	Error  string
}

// Authenticated reports whether a user is signed in.
func (s State) Authenticated() bool { return s.Status == StatusAuthenticated && s.User != nil }

// Gateway is the subset of the API the controller calls.
type Gateway interface {
	Login(ctx context.Context, email, password string) (model.TokenResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (model.User, error)
	CurrentUser(ctx context.Context) (model.User, error)
}

// Controller drives the auth state machine. Overlapping Login/Register
// calls are not coordinated: whichever finishes last sets the state.
type Controller struct {
	gw    Gateway
	store session.Store

	mu       sync.Mutex
	state    State
	onChange func(State)
}

// NewController starts in StatusLoading until Init runs.
func NewController(gw Gateway, store session.Store) *Controller {
	return &Controller{gw: gw, store: store, state: State{Status: StatusLoading}}
}

// OnChange registers a callback invoked after every transition.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) set(s State) {
	c.mu.Lock()
	c.state = s
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// loading enters StatusLoading, keeping the current user and clearing any error.
func (c *Controller) loading() {
	prev := c.State()
	c.set(State{Status: StatusLoading, User: prev.User})
}

// Init restores a persisted session.
func (c *Controller) Init(ctx context.Context) State {
	c.set(State{Status: StatusLoading})
	sess := c.store.Load(ctx)
	if sess.IsAuthenticated() {
		c.set(State{Status: StatusAuthenticated, User: sess.User})
	} else {
		c.set(State{Status: StatusUnauthenticated})
	}
	return c.State()
}

// Login authenticates, persists the session and flips to authenticated.
// On failure the state carries the server's detail (or "Login failed")
// and the original error is returned.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	c.loading()
	user, err := c.login(ctx, email, password)
	if err != nil {
		log.Printf("login error: %v", err)
		c.set(State{Status: StatusUnauthenticated, Error: api.Detail(err, "Login failed")})
		return err
	}
	c.set(State{Status: StatusAuthenticated, User: &user})
	return nil
}

func (c *Controller) login(ctx context.Context, email, password string) (model.User, error) {
	tok, err := c.gw.Login(ctx, email, password)
	if err != nil {
		return model.User{}, err
	}
	if tok.AccessToken == "" {
		return model.User{}, fmt.Errorf("login: empty access token")
	}
	if err := c.store.SaveToken(ctx, tok.AccessToken); err != nil {
		return model.User{}, err
	}
	user, err := c.gw.CurrentUser(ctx)
	if err != nil {
		c.discard(ctx)
		return model.User{}, err
	}
	if err := c.store.Save(ctx, tok.AccessToken, user); err != nil {
		c.discard(ctx)
		return model.User{}, err
	}
	return user, nil
}

// discard drops a half-written session.
func (c *Controller) discard(ctx context.Context) {
	if err := c.store.Clear(context.WithoutCancel(ctx)); err != nil {
		log.Printf("discard partial session: %v", err)
	}
}

// Register validates the form, creates the account and logs in with the
// same credentials. A *ValidationError is returned without any request
// and without touching the state.
func (c *Controller) Register(ctx context.Context, form RegisterForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	c.loading()
	req := form.Request()
	if _, err := c.gw.Register(ctx, req); err != nil {
		log.Printf("registration error: %v", err)
		c.set(State{Status: StatusUnauthenticated, Error: api.Detail(err, "Registration failed")})
		return err
	}
	user, err := c.login(ctx, req.Email, req.Password)
	if err != nil {
		log.Printf("registration error: %v", err)
		c.set(State{Status: StatusUnauthenticated, Error: api.Detail(err, "Registration failed")})
		return err
	}
	c.set(State{Status: StatusAuthenticated, User: &user})
	return nil
}

// Logout clears the stored session and always ends unauthenticated.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.store.Clear(ctx)
	if err != nil {
		log.Printf("logout: %v", err)
	}
	c.set(State{Status: StatusUnauthenticated})
	return err
}

// Invalidate records that the API ended the session (a 401). The gateway
// has already cleared the store.
func (c *Controller) Invalidate() {
	c.set(State{Status: StatusUnauthenticated, Error: "Your session has ended. Please log in again."})
}
