// Package errs classifies failures and routes them to logs, notifications
// and Sentry.
package errs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/united-manufacturing-hub/expiremap/v2/pkg/expiremap"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/observable"
)

// Type is the failure class.
type Type int

const (
	// TypeUnknown asks Handle to classify the error itself.
	TypeUnknown Type = iota
	TypeAborted
	TypeAuth
	TypeAPI
	TypeDecode
)

func (t Type) String() string {
	switch t {
	case TypeAborted:
		return "aborted"
	case TypeAuth:
		return "auth"
	case TypeAPI:
		return "api"
	case TypeDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Level is the severity of a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// DecodeError reports a stored value that does not satisfy its type.
type DecodeError struct {
	Key  string
	Type string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s as %s: %v", e.Key, e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsAborted reports whether err comes from a cancelled request.
func IsAborted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Classify maps an error onto the taxonomy.
func Classify(err error) Type {
	var decodeErr *DecodeError
	switch {
	case err == nil:
		return TypeUnknown
	case IsAborted(err):
		return TypeAborted
	case errors.Is(err, api.ErrUnauthorized):
		return TypeAuth
	case errors.As(err, &decodeErr):
		return TypeDecode
	default:
		return TypeAPI
	}
}

// Options tune a single Handle call.
type Options struct {
	Type          Type
	Level         Level
	Silent        bool
	PublicMessage string
	Component     string
}

// Notification is a user-facing message kept for a short while.
type Notification struct {
	ID      string
	Level   Level
	Message string
	At      time.Time
}

const (
	defaultNotificationTTL = 8 * time.Second
	notificationCull       = time.Second
)

// Handler is the shared error path. The zero value is not usable; call New.
type Handler struct {
	logger zerolog.Logger
	notes  *expiremap.ExpireMap[string, Notification]
	latest *observable.Value[Notification]
	sentry bool

	mu     sync.Mutex
	onAuth func()
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithSentry forwards API failures to the initialised Sentry hub.
func WithSentry() HandlerOption {
	return func(h *Handler) { h.sentry = true }
}

// WithNotificationTTL changes how long notifications stay active.
func WithNotificationTTL(ttl time.Duration) HandlerOption {
	return func(h *Handler) {
		if ttl > 0 {
			h.notes = expiremap.NewEx[string, Notification](notificationCull, ttl)
		}
	}
}

// New returns a Handler logging through logger.
func New(logger zerolog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		logger: logger.With().Str("component", "errors").Logger(),
		notes:  expiremap.NewEx[string, Notification](notificationCull, defaultNotificationTTL),
		latest: observable.New(Notification{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnAuthFailure installs the hook run for TypeAuth errors, typically a
// logout that resets the stores.
func (h *Handler) OnAuthFailure(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onAuth = fn
}

// Handle logs err and, depending on its type, notifies the user, reports
// to Sentry or runs the auth hook. It returns the resolved type.
func (h *Handler) Handle(err error, opts Options) Type {
	if err == nil {
		return TypeUnknown
	}
	typ := opts.Type
	if typ == TypeUnknown {
		typ = Classify(err)
	}

	event := func() *zerolog.Event {
		if opts.Level == LevelError {
			return h.logger.Error()
		}
		return h.logger.Warn()
	}

	switch typ {
	case TypeAborted:
		return typ
	case TypeDecode:
		h.logger.Debug().Err(err).Str("source", opts.Component).Msg("stored value ignored")
		return typ
	case TypeAuth:
		event().Err(err).Str("source", opts.Component).Msg("session rejected")
		h.mu.Lock()
		hook := h.onAuth
		h.mu.Unlock()
		if hook != nil {
			hook()
		}
		if !opts.Silent {
			h.Notify(LevelWarn, "Session expired, please log in again.")
		}
		return typ
	}

	event().Err(err).Str("source", opts.Component).Msg(publicOr(opts.PublicMessage, "request failed"))
	if h.sentry {
		sentry.CaptureException(err)
	}
	if !opts.Silent {
		level := opts.Level
		if level == "" {
			level = LevelError
		}
		msg := publicOr(opts.PublicMessage, err.Error())
		h.Notify(level, msg)
	}
	return typ
}

// Notify records a user-facing notification.
func (h *Handler) Notify(level Level, message string) Notification {
	n := Notification{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
		At:      time.Now(),
	}
	h.notes.Set(n.ID, n)
	h.latest.Set(n)
	return n
}

// Active returns unexpired notifications, oldest first.
func (h *Handler) Active() []Notification {
	var out []Notification
	h.notes.Range(func(_ string, n Notification) bool {
		out = append(out, n)
		return true
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// Latest is the most recent notification, for subscribers that want to react
// immediately rather than poll Active.
func (h *Handler) Latest() observable.Readable[Notification] {
	return h.latest
}

func publicOr(public, fallback string) string {
	if public != "" {
		return public
	}
	return fallback
}
