package loadable

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap_PassesThroughNonLoaded(t *testing.T) {
	double := func(v int) int { return v * 2 }

	got := Map(Loaded(21), double)
	v, ok := got.Value()
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	assert.True(t, Map(NotLoaded[int](), double).IsNotLoaded())

	boom := errors.New("boom")
	failed := Map(Failed[int](boom), double)
	assert.True(t, failed.IsFailed())
	assert.ErrorIs(t, failed.Err(), boom)
}

func TestFlatMap(t *testing.T) {
	parse := func(s string) Loadable[int] {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Failed[int](err)
		}
		return Loaded(n)
	}

	assert.Equal(t, 7, GetOrElse(0, FlatMap(Loaded("7"), parse)))
	assert.True(t, FlatMap(Loaded("x"), parse).IsFailed())
	assert.True(t, FlatMap(NotLoaded[string](), parse).IsNotLoaded())
}

func TestGetOrElse(t *testing.T) {
	assert.Equal(t, "v", GetOrElse("def", Loaded("v")))
	assert.Equal(t, "def", GetOrElse("def", NotLoaded[string]()))
	assert.Equal(t, "def", GetOrElse("def", Failed[string](errors.New("x"))))
}

func TestMatch(t *testing.T) {
	m := Matcher[int, string]{
		Loaded:    func(v int) string { return "loaded " + strconv.Itoa(v) },
		NotLoaded: func() string { return "spinner" },
		Failed:    func(err error) string { return "error " + err.Error() },
	}

	assert.Equal(t, "loaded 3", Match(Loaded(3), m))
	assert.Equal(t, "spinner", Match(NotLoaded[int](), m))
	assert.Equal(t, "error x", Match(Failed[int](errors.New("x")), m))
}

func TestMatch_DefaultAndZero(t *testing.T) {
	withDefault := Matcher[int, string]{
		Loaded:  func(int) string { return "loaded" },
		Default: func() string { return "other" },
	}
	assert.Equal(t, "other", Match(NotLoaded[int](), withDefault))
	assert.Equal(t, "other", Match(Failed[int](errors.New("x")), withDefault))

	assert.Equal(t, "", Match(Failed[int](errors.New("x")), Matcher[int, string]{}))
}

func TestFailed_NilErrorStillFailed(t *testing.T) {
	l := Failed[int](nil)
	assert.True(t, l.IsFailed())
	assert.Error(t, l.Err())
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Loadable[map[string]any]
		want bool
	}{
		{"not loaded", NotLoaded[map[string]any](), NotLoaded[map[string]any](), true},
		{"same maps", Loaded(map[string]any{"x": 1}), Loaded(map[string]any{"x": 1}), true},
		{"different maps", Loaded(map[string]any{"x": 1}), Loaded(map[string]any{"x": 2}), false},
		{"tag mismatch", Loaded(map[string]any{}), NotLoaded[map[string]any](), false},
		{"same failure text", Failed[map[string]any](errors.New("a")), Failed[map[string]any](errors.New("a")), true},
		{"different failure", Failed[map[string]any](errors.New("a")), Failed[map[string]any](errors.New("b")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestAll2(t *testing.T) {
	sum := func(a, b int) int { return a + b }

	assert.Equal(t, 5, GetOrElse(0, All2(Loaded(2), Loaded(3), sum)))
	assert.True(t, All2(Loaded(2), NotLoaded[int](), sum).IsNotLoaded())
	assert.True(t, All2(NotLoaded[int](), Failed[int](errors.New("x")), sum).IsFailed())
}
