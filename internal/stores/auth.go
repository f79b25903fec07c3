package stores

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/loadable"
	"github.com/five82/mlconsole/internal/observable"
)

// Session is the authentication state.
type Session struct {
	Authenticated bool
	User          api.User
}

// TokenStore persists the session between runs.
type TokenStore interface {
	SaveSession(token, username string) error
	ClearSession() error
}

// Auth owns the session. Logging out, or the master rejecting the token,
// runs every OnLogout hook.
type Auth struct {
	api    api.AuthAPI
	tokens TokenStore
	users  *Users
	logger zerolog.Logger
	state  *observable.Value[loadable.Loadable[Session]]

	mu      sync.Mutex
	hooks   []func()
	expired bool // set by Expire, cleared by the next Check or Login that succeeds
}

func newAuth(client api.AuthAPI, users *Users, tokens TokenStore, logger zerolog.Logger) *Auth {
	return &Auth{
		api:    client,
		tokens: tokens,
		users:  users,
		logger: logger.With().Str("component", "auth").Logger(),
		state:  observable.New(loadable.NotLoaded[Session]()),
	}
}

func (a *Auth) Session() observable.Readable[loadable.Loadable[Session]] {
	return a.state
}

// Authenticated reports whether the last check or login succeeded.
func (a *Auth) Authenticated() bool {
	return loadable.GetOrElse(Session{}, a.state.Get()).Authenticated
}

// OnLogout registers fn to run after the session ends.
func (a *Auth) OnLogout(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, fn)
}

// Check asks the master whether the current token is valid. A rejected
// token is not an error: the session simply becomes unauthenticated.
func (a *Auth) Check(ctx context.Context) error {
	user, err := a.api.GetMe(ctx)
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		a.state.Set(loadable.Loaded(Session{}))
		return nil
	case err != nil:
		return fmt.Errorf("check session: %w", err)
	}
	a.renew()
	a.state.Set(loadable.Loaded(Session{Authenticated: true, User: user}))
	a.users.setCurrent(user)
	return nil
}

// Login exchanges credentials for a token and persists it.
func (a *Auth) Login(ctx context.Context, username, password string) error {
	resp, err := a.api.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if a.tokens != nil {
		if err := a.tokens.SaveSession(resp.Token, username); err != nil {
			a.logger.Warn().Err(err).Msg("session not persisted")
		}
	}
	a.renew()
	a.state.Set(loadable.Loaded(Session{Authenticated: true, User: resp.User}))
	a.users.setCurrent(resp.User)
	a.logger.Info().Str("username", username).Msg("logged in")
	return nil
}

// Logout ends the session on the master and locally. The local session is
// cleared even when the remote call fails.
func (a *Auth) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	a.Expire()
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Expire clears the local session without calling the master. It is the
// hook for requests rejected with 401. Only the first call per session
// does anything, so several pollers failing together reset the stores once.
func (a *Auth) Expire() {
	a.mu.Lock()
	if a.expired {
		a.mu.Unlock()
		return
	}
	a.expired = true
	a.mu.Unlock()

	if a.tokens != nil {
		if err := a.tokens.ClearSession(); err != nil {
			a.logger.Warn().Err(err).Msg("stored session not cleared")
		}
	}
	a.state.Set(loadable.Loaded(Session{}))

	a.mu.Lock()
	hooks := append([]func(){}, a.hooks...)
	a.mu.Unlock()
	for _, hook := range hooks {
		hook()
	}
}

func (a *Auth) renew() {
	a.mu.Lock()
	a.expired = false
	a.mu.Unlock()
}
