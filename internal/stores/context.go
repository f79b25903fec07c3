package stores

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/errs"
	"github.com/five82/mlconsole/internal/polling"
	"github.com/five82/mlconsole/internal/settings"
)

// API is everything the stores need from the master client.
type API interface {
	api.ResourceAPI
	api.AuthAPI
	api.WorkspaceWriter
	api.SettingsAPI
}

// ErrorHandler receives poll and write failures. *errs.Handler satisfies it.
type ErrorHandler interface {
	Handle(err error, opts errs.Options) errs.Type
}

// Options wires the shared infrastructure into every store.
type Options struct {
	Handler ErrorHandler
	Logger  zerolog.Logger
	Metrics *polling.Metrics
	Tokens  TokenStore
}

type pollerFactory func(name string, fn polling.Func) *polling.Poller

// Context bundles one instance of every store. A logout resets them all.
type Context struct {
	Settings    *settings.Store
	Auth        *Auth
	Users       *Users
	Workspaces  *Workspaces
	Projects    *Projects
	Cluster     *Cluster
	Experiments *Experiments
	Tasks       *Tasks
	Info        *Info

	logger zerolog.Logger
}

// New builds the stores around client.
func New(client API, opts Options) *Context {
	logger := opts.Logger.With().Str("component", "stores").Logger()
	newPoller := func(name string, fn polling.Func) *polling.Poller {
		pollerOpts := []polling.Option{polling.WithLogger(opts.Logger), polling.WithMetrics(opts.Metrics)}
		if opts.Handler != nil {
			pollerOpts = append(pollerOpts, polling.WithReporter(opts.Handler))
		}
		return polling.New(name, fn, pollerOpts...)
	}

	settingsOpts := []settings.Option{settings.WithLogger(opts.Logger), settings.WithMetrics(opts.Metrics)}
	if opts.Handler != nil {
		settingsOpts = append(settingsOpts, settings.WithErrorHandler(opts.Handler))
	}

	users := newUsers(client, newPoller)
	c := &Context{
		Settings:    settings.New(client, settingsOpts...),
		Users:       users,
		Auth:        newAuth(client, users, opts.Tokens, opts.Logger),
		Workspaces:  newWorkspaces(client, newPoller),
		Projects:    newProjects(client, newPoller),
		Cluster:     newCluster(client, newPoller),
		Experiments: newExperiments(client, newPoller),
		Tasks:       newTasks(client, newPoller),
		Info:        newInfo(client),
		logger:      logger,
	}
	c.Auth.OnLogout(c.Reset)
	return c
}

// Refresh loads every unparameterised store once, concurrently. All fetches
// run to completion; the first error is returned.
func (c *Context) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return c.Settings.Poll(ctx) })
	g.Go(func() error { return c.Users.Fetch(ctx) })
	g.Go(func() error { return c.Users.FetchCurrent(ctx) })
	g.Go(func() error { return c.Workspaces.Fetch(ctx) })
	g.Go(func() error { return c.Cluster.Fetch(ctx) })
	g.Go(func() error { return c.Tasks.Fetch(ctx) })
	g.Go(func() error { return c.Info.Fetch(ctx) })
	return g.Wait()
}

// StartPolling starts the pollers of the unparameterised stores. Projects
// and experiments are polled through Watch once a workspace or project is
// selected.
func (c *Context) StartPolling(ctx context.Context, resources, settingsDelay time.Duration) {
	opts := polling.DefaultOptions()
	opts.Delay = resources
	for _, p := range []*polling.Poller{c.Users.Poller(), c.Workspaces.Poller(), c.Cluster.Poller(), c.Tasks.Poller()} {
		p.Start(ctx, opts)
	}
	settingsOpts := polling.DefaultOptions()
	settingsOpts.Delay = settingsDelay
	c.Settings.StartPolling(ctx, settingsOpts)
	c.logger.Debug().Dur("delay", resources).Dur("settings_delay", settingsDelay).Msg("polling started")
}

// Pollers lists every poller, parameterised ones included.
func (c *Context) Pollers() []*polling.Poller {
	return []*polling.Poller{
		c.Settings.Poller(),
		c.Users.Poller(),
		c.Workspaces.Poller(),
		c.Projects.Poller(),
		c.Cluster.Poller(),
		c.Experiments.Poller(),
		c.Tasks.Poller(),
	}
}

// StopPolling stops every poller and waits for in-flight polls.
func (c *Context) StopPolling() {
	for _, p := range c.Pollers() {
		p.Stop()
	}
}

// Reset stops polling and returns every store to NotLoaded. It runs after
// logout so no data outlives the session. Like Poller.Stop it must not be
// called from inside a poll, so auth failures reported by a poller have to
// expire the session from another goroutine.
func (c *Context) Reset() {
	c.StopPolling()
	c.Settings.Reset()
	c.Users.Reset()
	c.Workspaces.Reset()
	c.Projects.Reset()
	c.Cluster.Reset()
	c.Experiments.Reset()
	c.Tasks.Reset()
	c.Info.Reset()
	c.logger.Info().Msg("stores reset")
}
