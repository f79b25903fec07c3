package settings

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tiendc/go-deepcopy"
	"golang.org/x/sync/errgroup"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/errs"
	"github.com/five82/mlconsole/internal/loadable"
	"github.com/five82/mlconsole/internal/observable"
	"github.com/five82/mlconsole/internal/polling"
)

const (
	storeName           = "settings"
	defaultWriteTimeout = 10 * time.Second
)

// ErrorHandler receives failures the store cannot return to a caller.
// *errs.Handler satisfies it.
type ErrorHandler interface {
	Handle(err error, opts errs.Options) errs.Type
}

// Store caches the user's settings and keeps them in sync with the master.
// Local writes apply immediately; remote writes run in the background and
// are never rolled back. A later poll is the only correction.
type Store struct {
	api          api.SettingsAPI
	handler      ErrorHandler
	logger       zerolog.Logger
	writeTimeout time.Duration
	metrics      *polling.Metrics

	state  *observable.Value[loadable.Loadable[State]]
	poller *polling.Poller
	writes sync.WaitGroup

	mu        sync.Mutex
	lastWrite chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithErrorHandler routes decode and write failures to h.
func WithErrorHandler(h ErrorHandler) Option {
	return func(s *Store) { s.handler = h }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithWriteTimeout bounds each background remote write.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithMetrics records poll cycles in m.
func WithMetrics(m *polling.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New returns a Store in the NotLoaded state.
func New(client api.SettingsAPI, opts ...Option) *Store {
	s := &Store{
		api:          client,
		logger:       zerolog.Nop(),
		writeTimeout: defaultWriteTimeout,
		state:        observable.New(loadable.NotLoaded[State]()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", storeName).Logger()

	pollerOpts := []polling.Option{polling.WithLogger(s.logger), polling.WithMetrics(s.metrics)}
	if s.handler != nil {
		pollerOpts = append(pollerOpts, polling.WithReporter(s.handler))
	}
	s.poller = polling.New(storeName, func(ctx context.Context, _ ...any) error {
		return s.Poll(ctx)
	}, pollerOpts...)
	return s
}

// State exposes the raw settings map.
func (s *Store) State() observable.Readable[loadable.Loadable[State]] {
	return s.state
}

// Poller returns the poller driving Poll.
func (s *Store) Poller() *polling.Poller {
	return s.poller
}

// StartPolling begins the poll cycle.
func (s *Store) StartPolling(ctx context.Context, opts polling.Options) {
	s.poller.Start(ctx, opts)
}

// StopPolling ends the poll cycle.
func (s *Store) StopPolling() {
	s.poller.Stop()
}

// Poll fetches every setting and merges it into the local state. When the
// fetch fails before anything was loaded, the state becomes an empty loaded
// map so readers stop waiting.
func (s *Store) Poll(ctx context.Context) error {
	cells, err := s.api.GetUserSetting(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.state.Update(func(l loadable.Loadable[State]) loadable.Loadable[State] {
				if l.IsNotLoaded() {
					return loadable.Loaded(State{})
				}
				return l
			})
		}
		return fmt.Errorf("fetch settings: %w", err)
	}

	var mergeErr error
	s.state.Update(func(l loadable.Loadable[State]) loadable.Loadable[State] {
		var next State
		next, mergeErr = Merge(loadable.GetOrElse(State{}, l), cells)
		return loadable.Loaded(next)
	})
	if mergeErr != nil {
		s.logger.Debug().Err(mergeErr).Msg("skipped malformed settings")
	}
	return nil
}

// Reset drops all local state back to NotLoaded. Nothing is sent remotely.
func (s *Store) Reset() {
	s.state.Set(loadable.NotLoaded[State]())
}

// Overwrite replaces the local state with a loaded copy of values.
func (s *Store) Overwrite(values map[string]any) error {
	next := State{}
	if len(values) > 0 {
		if err := deepcopy.Copy(&next, State(values)); err != nil {
			return fmt.Errorf("copy settings: %w", err)
		}
	}
	s.state.Set(loadable.Loaded(next))
	return nil
}

// Remove clears the entry at key locally and remotely. The master keeps
// every row of a path until it is written with an empty value, so the
// RootField row is cleared together with each field row known from the
// local state or listed in fields.
func (s *Store) Remove(key string, fields ...string) {
	var stored []string
	s.state.Update(func(l loadable.Loadable[State]) loadable.Loadable[State] {
		st, ok := l.Value()
		if !ok {
			return l
		}
		cur, exists := st[key]
		if !exists {
			return l
		}
		stored = objectFields(cur)
		next := maps.Clone(st)
		delete(next, key)
		return loadable.Loaded(next)
	})
	s.write(clearCells(key, append(stored, fields...)))
}

// ResetRemote clears every setting on the master and locally.
func (s *Store) ResetRemote(ctx context.Context) error {
	if err := s.api.ResetUserSetting(ctx); err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}
	return s.Overwrite(nil)
}

// Flush waits for outstanding remote writes.
func (s *Store) Flush() {
	s.writes.Wait()
}

// Lookup decodes the current value at key. It returns nil without error
// when the state is not loaded or the key is absent, and a *errs.DecodeError
// when the stored value does not satisfy typ.
func Lookup[T any](s *Store, typ Type[T], key string) (*T, error) {
	st, ok := s.state.Get().Value()
	if !ok {
		return nil, nil
	}
	return decodeEntry(typ, key, st)
}

// Get returns an observable of the decoded value at key. Absent values and
// values that fail to decode both read as nil.
func Get[T any](s *Store, typ Type[T], key string) *observable.Derived[loadable.Loadable[*T]] {
	return observable.Select[loadable.Loadable[State], loadable.Loadable[*T]](s.state, func(l loadable.Loadable[State]) loadable.Loadable[*T] {
		return loadable.Map(l, func(st State) *T {
			v, err := decodeEntry(typ, key, st)
			if err != nil {
				s.handle(err, errs.Options{Type: errs.TypeDecode, Component: storeName})
				return nil
			}
			return v
		})
	})
}

// Set writes v at key. Structured types merge each encoded field into the
// stored object and issue one remote write per field. Other types replace
// the entry and issue a single RootField write.
func Set[T any](s *Store, typ Type[T], key string, v T) error {
	encoded, err := typ.Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if !typ.Structured() {
		return replaceEntry(s, typ, key, encoded)
	}
	fields, ok := encoded.(map[string]any)
	if !ok {
		return fmt.Errorf("encode %s: %s is not an object", key, typ.Name())
	}
	return mergeEntry(s, typ, key, fields)
}

// SetPartial merges patch into the structured entry at key. Patch keys must
// be fields of typ; a nil value deletes the field.
func SetPartial[T any](s *Store, typ Type[T], key string, patch map[string]any) error {
	if !typ.Structured() {
		return fmt.Errorf("set %s: %s is not a structured type", key, typ.Name())
	}
	known := typ.Fields()
	nonNull := make(map[string]any, len(patch))
	for field, v := range patch {
		if !slices.Contains(known, field) {
			return fmt.Errorf("set %s: unknown field %q for %s", key, field, typ.Name())
		}
		if v != nil {
			nonNull[field] = v
		}
	}
	var probe T
	if err := roundTrip(nonNull, &probe); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	normalized := make(map[string]any, len(patch))
	if err := roundTrip(patch, &normalized); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return mergeEntry(s, typ, key, normalized)
}

// Update applies fn to the current value (the zero value when absent or
// undecodable) and writes the result with Set.
func Update[T any](s *Store, typ Type[T], key string, fn func(T) T) error {
	var base T
	if cur, err := Lookup(s, typ, key); err == nil && cur != nil {
		base = *cur
	}
	return Set(s, typ, key, fn(base))
}

func decodeEntry[T any](typ Type[T], key string, st State) (*T, error) {
	raw, ok := st[key]
	if !ok || raw == nil {
		return nil, nil
	}
	v, err := typ.Decode(raw)
	if err != nil {
		return nil, &errs.DecodeError{Key: key, Type: typ.Name(), Err: err}
	}
	return &v, nil
}

// mergeEntry applies fields to the object at key and writes one cell per
// field. Incoming values must fit T. The merged entry must also decode
// unless it was already undecodable, so a corrupt stored field never blocks
// writes to the others.
func mergeEntry[T any](s *Store, typ Type[T], key string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	names := slices.Sorted(maps.Keys(fields))
	cells := make([]api.UserWebSetting, 0, len(names))
	incoming := make(map[string]any, len(names))
	for _, name := range names {
		if fields[name] == nil {
			cells = append(cells, api.UserWebSetting{StoragePath: key, Key: name, Value: deleteValue})
			continue
		}
		value, err := encodeValue(fields[name])
		if err != nil {
			return fmt.Errorf("encode %s.%s: %w", key, name, err)
		}
		cells = append(cells, api.UserWebSetting{StoragePath: key, Key: name, Value: value})
		incoming[name] = fields[name]
	}
	var probe T
	if err := roundTrip(incoming, &probe); err != nil {
		return fmt.Errorf("set %s: %w", key, &errs.DecodeError{Key: key, Type: typ.Name(), Err: err})
	}

	var invalid error
	s.state.Update(func(l loadable.Loadable[State]) loadable.Loadable[State] {
		st, ok := l.Value()
		if !ok {
			return l
		}
		base, exists := st[key]
		next := maps.Clone(st)
		for _, name := range names {
			next = apply(next, key, name, fields[name])
		}
		if exists {
			if _, err := typ.Decode(base); err != nil {
				return loadable.Loaded(next)
			}
		}
		if _, err := typ.Decode(next[key]); err != nil {
			invalid = &errs.DecodeError{Key: key, Type: typ.Name(), Err: err}
			return l
		}
		return loadable.Loaded(next)
	})
	if invalid != nil {
		return fmt.Errorf("set %s: %w", key, invalid)
	}

	s.write(cells)
	return nil
}

func replaceEntry[T any](s *Store, typ Type[T], key string, encoded any) error {
	if _, err := typ.Decode(encoded); err != nil {
		return fmt.Errorf("set %s: %w", key, &errs.DecodeError{Key: key, Type: typ.Name(), Err: err})
	}
	value, err := encodeValue(encoded)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	var stale []string
	s.state.Update(func(l loadable.Loadable[State]) loadable.Loadable[State] {
		st, ok := l.Value()
		if !ok {
			return l
		}
		stale = objectFields(st[key])
		next := maps.Clone(st)
		next[key] = encoded
		return loadable.Loaded(next)
	})

	// Field rows left over from an object would be merged back over the
	// new value on the next load.
	cells := []api.UserWebSetting{{StoragePath: key, Key: RootField, Value: value}}
	for _, name := range stale {
		cells = append(cells, api.UserWebSetting{StoragePath: key, Key: name, Value: deleteValue})
	}
	s.write(cells)
	return nil
}

// write sends cells concurrently in the background. Every cell settles on
// its own; failures are logged and reported once as a warning. Batches
// reach the master in call order so a later write to a row wins.
func (s *Store) write(cells []api.UserWebSetting) {
	s.mu.Lock()
	prev := s.lastWrite
	done := make(chan struct{})
	s.lastWrite = done
	s.mu.Unlock()

	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		defer cancel()

		var g errgroup.Group
		failures := make([]error, len(cells))
		for i, cell := range cells {
			g.Go(func() error {
				if err := s.api.UpdateUserSetting(ctx, cell); err != nil {
					s.logger.Warn().Err(err).Str("key", cell.StoragePath).Str("field", cell.Key).Msg("settings write failed")
					failures[i] = fmt.Errorf("save %s.%s: %w", cell.StoragePath, cell.Key, err)
				}
				return nil
			})
		}
		_ = g.Wait()

		if err := errors.Join(failures...); err != nil {
			s.handle(err, errs.Options{Level: errs.LevelWarn, PublicMessage: "Unable to save settings.", Component: storeName})
		}
	}()
}

func (s *Store) handle(err error, opts errs.Options) {
	if s.handler == nil {
		s.logger.Debug().Err(err).Msg("unhandled settings error")
		return
	}
	s.handler.Handle(err, opts)
}
