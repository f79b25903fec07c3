package polling

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog"

	"github.com/five82/mlconsole/internal/errs"
)

const (
	// DefaultDelay is the wait between successful polls.
	DefaultDelay = 10 * time.Second

	baseRetryDelay = time.Second
	maxRetryDelay  = 600 * time.Second
)

// Lifecycle states reported by State.
const (
	StateIdle    = "idle"
	StatePolling = "polling"
	StateWaiting = "waiting"
	StateBackoff = "backoff"
)

const (
	eventPoll    = "poll"
	eventSucceed = "succeed"
	eventFail    = "fail"
	eventStop    = "stop"
)

// Func performs one poll. It must honour ctx cancellation.
type Func func(ctx context.Context, args ...any) error

// Reporter receives poll failures. *errs.Handler satisfies it.
type Reporter interface {
	Handle(err error, opts errs.Options) errs.Type
}

// Options control one polling cycle.
type Options struct {
	// Delay between successful polls. Zero means DefaultDelay.
	Delay time.Duration
	// MaxRetry bounds consecutive failures; negative retries forever.
	// The zero value of Options therefore allows no retries, so callers
	// usually start from DefaultOptions.
	MaxRetry int
	// Condition, when set and false, turns Start into a no-op.
	Condition func() bool
	// Args are forwarded to every Func call.
	Args []any
}

// DefaultOptions polls every DefaultDelay and retries forever.
func DefaultOptions() Options {
	return Options{Delay: DefaultDelay, MaxRetry: -1}
}

// Poller repeatedly runs a Func, backing off exponentially on failure and
// resetting after every success. At most one poll is in flight and one
// timer pending per Poller.
type Poller struct {
	name     string
	fn       Func
	catch    func(error)
	reporter Reporter
	logger   zerolog.Logger
	metrics  *Metrics
	after    func(time.Duration) <-chan time.Time

	state *fsm.FSM

	// lifecycle serialises Start and Stop.
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// Option configures a Poller.
type Option func(*Poller)

// WithCatch installs a hook run on every failed poll before reporting.
func WithCatch(fn func(error)) Option {
	return func(p *Poller) { p.catch = fn }
}

// WithReporter routes failures to r.
func WithReporter(r Reporter) Option {
	return func(p *Poller) { p.reporter = r }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Poller) { p.logger = logger }
}

// WithMetrics records cycles in m.
func WithMetrics(m *Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// New returns an idle Poller named after the store it drives.
func New(name string, fn Func, opts ...Option) *Poller {
	p := &Poller{
		name:   name,
		fn:     fn,
		catch:  func(error) {},
		logger: zerolog.Nop(),
		after:  time.After,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With().Str("component", "poller").Str("store", name).Logger()
	p.state = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventPoll, Src: []string{StateIdle, StateWaiting, StateBackoff}, Dst: StatePolling},
			{Name: eventSucceed, Src: []string{StatePolling}, Dst: StateWaiting},
			{Name: eventFail, Src: []string{StatePolling}, Dst: StateBackoff},
			{Name: eventStop, Src: []string{StatePolling, StateWaiting, StateBackoff}, Dst: StateIdle},
		},
		fsm.Callbacks{},
	)
	return p
}

// Name returns the store name.
func (p *Poller) Name() string { return p.name }

// State returns the current lifecycle state.
func (p *Poller) State() string { return p.state.Current() }

// Running reports whether a cycle is active.
func (p *Poller) Running() bool {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	return p.done != nil && !isClosed(p.done)
}

// Start stops any active cycle and begins a new one with an immediate poll.
// The cycle ends when ctx is cancelled, Stop is called, the retry budget is
// exhausted, or Func returns an aborted error.
func (p *Poller) Start(ctx context.Context, opts Options) {
	if opts.Condition != nil && !opts.Condition() {
		return
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}

	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	p.stopLocked()

	cycleCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	go p.run(cycleCtx, opts, done)
}

// Stop cancels the in-flight poll and the pending timer and waits for the
// cycle to exit. It is safe to call repeatedly and from any state, but not
// from inside Func.
func (p *Poller) Stop() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil
}

func (p *Poller) run(ctx context.Context, opts Options, done chan struct{}) {
	defer close(done)
	defer p.fire(eventStop)

	retry := newBackoff()
	retries := 0

	for {
		p.fire(eventPoll)
		started := time.Now()
		err := p.fn(ctx, opts.Args...)
		took := time.Since(started)

		if ctx.Err() != nil {
			p.metrics.observe(p.name, resultAborted, took)
			return
		}

		var wait time.Duration
		switch {
		case err == nil:
			p.metrics.observe(p.name, resultSuccess, took)
			retries = 0
			retry.Reset()
			wait = opts.Delay
			p.fire(eventSucceed)
		case errors.Is(err, context.Canceled):
			p.metrics.observe(p.name, resultAborted, took)
			p.logger.Debug().Err(err).Msg("poll aborted")
			return
		default:
			p.metrics.observe(p.name, resultFailure, took)
			p.catch(err)
			p.report(err, retries)
			if opts.MaxRetry >= 0 && retries >= opts.MaxRetry {
				p.logger.Warn().Err(err).Int("retries", retries).Msg("retry budget exhausted, polling stopped")
				return
			}
			wait = retry.NextBackOff()
			retries++
			p.fire(eventFail)
			p.logger.Debug().Err(err).Dur("retry_in", wait).Int("retries", retries).Msg("poll failed")
		}

		p.metrics.setDelay(p.name, wait)
		select {
		case <-ctx.Done():
			return
		case <-p.after(wait):
		}
	}
}

// report notifies the user once per failure streak; retries stay in the log.
func (p *Poller) report(err error, retries int) {
	if p.reporter == nil {
		p.logger.Warn().Err(err).Msg("poll failed")
		return
	}
	opts := errs.Options{Component: p.name, Silent: retries > 0, Level: errs.LevelWarn}
	// A request timeout is a failure of this cycle, not a cancellation.
	if errs.Classify(err) == errs.TypeAborted {
		opts.Type = errs.TypeAPI
	}
	p.reporter.Handle(err, opts)
}

func (p *Poller) fire(event string) {
	if !p.state.Can(event) {
		return
	}
	if err := p.state.Event(context.Background(), event); err != nil {
		p.logger.Debug().Err(err).Str("event", event).Msg("state transition skipped")
	}
}

// newBackoff yields min(600s, 1s*2^n) for the n-th consecutive failure.
func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseRetryDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = maxRetryDelay
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
