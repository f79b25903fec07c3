package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type themeConfig struct {
	Mode     string `json:"mode,omitempty"`
	FontSize int    `json:"fontSize,omitempty"`
}

var themeType = Object(ObjectOptions[themeConfig]{
	Name: "ThemeConfig",
	Validate: func(c themeConfig) error {
		if c.Mode == "" {
			return nil
		}
		return OneOf("dark", "light")(c.Mode)
	},
})

type point struct {
	X float64 `json:"x"`
}

var pointType = Object(ObjectOptions[point]{Required: []string{"x"}})

func TestObject_Fields(t *testing.T) {
	assert.Equal(t, []string{"mode", "fontSize"}, themeType.Fields())
	assert.True(t, themeType.Structured())
	assert.Equal(t, "ThemeConfig", themeType.Name())
	assert.Equal(t, "point", pointType.Name())
}

func TestObject_Decode(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    themeConfig
		wantErr string
	}{
		{"full", map[string]any{"mode": "dark", "fontSize": float64(14)}, themeConfig{Mode: "dark", FontSize: 14}, ""},
		{"missing fields are zero", map[string]any{"fontSize": float64(12)}, themeConfig{FontSize: 12}, ""},
		{"extra fields ignored", map[string]any{"mode": "light", "legacy": true}, themeConfig{Mode: "light"}, ""},
		{"not an object", "dark", themeConfig{}, "expected object, got string"},
		{"wrong field type", map[string]any{"fontSize": "big"}, themeConfig{}, "decode"},
		{"validator", map[string]any{"mode": "neon"}, themeConfig{}, "not one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := themeType.Decode(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObject_RequiredField(t *testing.T) {
	_, err := pointType.Decode(map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing field "x"`)

	got, err := pointType.Decode(map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, point{X: 1}, got)
}

func TestObject_EncodeOmitsEmptyFields(t *testing.T) {
	raw, err := themeType.Encode(themeConfig{FontSize: 14})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"fontSize": float64(14)}, raw)
}

func TestScalar_Decode(t *testing.T) {
	rowHeight := Scalar(OneOf("small", "medium", "large"))
	got, err := rowHeight.Decode("medium")
	require.NoError(t, err)
	assert.Equal(t, "medium", got)
	assert.False(t, rowHeight.Structured())
	assert.Nil(t, rowHeight.Fields())

	_, err = rowHeight.Decode("huge")
	assert.Error(t, err)
	_, err = rowHeight.Decode(nil)
	assert.Error(t, err)
	_, err = rowHeight.Decode(float64(3))
	assert.Error(t, err)

	pageSize := Scalar(Range(10, 100))
	_, err = pageSize.Decode(float64(5))
	assert.ErrorContains(t, err, "outside")
	n, err := pageSize.Decode(float64(20))
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	columns := Scalar[[]string](nil)
	cols, err := columns.Decode([]any{"name", "state"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "state"}, cols)
}
