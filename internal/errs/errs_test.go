package errs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/mlconsole/internal/api"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Type
	}{
		{"nil", nil, TypeUnknown},
		{"cancelled", fmt.Errorf("execute request: %w", context.Canceled), TypeAborted},
		{"deadline", context.DeadlineExceeded, TypeAborted},
		{"unauthorized", fmt.Errorf("api /api/v1/me: %w", api.ErrUnauthorized), TypeAuth},
		{"decode", &DecodeError{Key: "theme", Type: "Theme", Err: errors.New("bad")}, TypeDecode},
		{"status", &api.StatusError{Path: "/x", StatusCode: 500}, TypeAPI},
		{"plain", errors.New("dial tcp: refused"), TypeAPI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestHandle_AbortedIsIgnored(t *testing.T) {
	var buf bytes.Buffer
	h := New(zerolog.New(&buf))

	typ := h.Handle(context.Canceled, Options{})
	assert.Equal(t, TypeAborted, typ)
	assert.Empty(t, h.Active())
	assert.Zero(t, buf.Len())
}

func TestHandle_APIErrorNotifiesUnlessSilent(t *testing.T) {
	var buf bytes.Buffer
	h := New(zerolog.New(&buf))

	h.Handle(errors.New("boom"), Options{Silent: true, Component: "cluster"})
	assert.Empty(t, h.Active())
	assert.Contains(t, buf.String(), "boom")

	h.Handle(errors.New("boom"), Options{PublicMessage: "Unable to fetch agents."})
	active := h.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Unable to fetch agents.", active[0].Message)
	assert.Equal(t, LevelError, active[0].Level)
	assert.Equal(t, active[0], h.Latest().Get())
}

func TestHandle_AuthRunsHook(t *testing.T) {
	h := New(zerolog.Nop())
	called := 0
	h.OnAuthFailure(func() { called++ })

	typ := h.Handle(fmt.Errorf("x: %w", api.ErrUnauthorized), Options{Silent: true})
	assert.Equal(t, TypeAuth, typ)
	assert.Equal(t, 1, called)
}

func TestHandle_DecodeLogsAtDebugOnly(t *testing.T) {
	var buf bytes.Buffer
	h := New(zerolog.New(&buf).Level(zerolog.InfoLevel))

	typ := h.Handle(&DecodeError{Key: "k", Type: "T", Err: errors.New("bad")}, Options{})
	assert.Equal(t, TypeDecode, typ)
	assert.Empty(t, h.Active())
	assert.Zero(t, buf.Len())
}

func TestActive_OrderedOldestFirst(t *testing.T) {
	h := New(zerolog.Nop())
	first := h.Notify(LevelInfo, "one")
	time.Sleep(2 * time.Millisecond)
	second := h.Notify(LevelWarn, "two")

	active := h.Active()
	require.Len(t, active, 2)
	assert.Equal(t, first.ID, active[0].ID)
	assert.Equal(t, second.ID, active[1].ID)
}
