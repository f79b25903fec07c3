package ui

import (
	"fmt"
	"slices"

	"github.com/five82/mlconsole/internal/settings"
	"github.com/five82/mlconsole/internal/stores"
)

// Storage paths of the settings the dashboard owns.
const (
	themeSettingsKey = "mlconsole.theme"
	tableSettingsKey = "mlconsole.experimentTable"
	featureFlagsKey  = "mlconsole.features"
)

// Row heights of the experiment table.
const (
	RowCompact     = "compact"
	RowDefault     = "default"
	RowComfortable = "comfortable"
)

// Feature flags toggled from the settings view.
const (
	FlagShowArchived  = "showArchived"
	FlagRelativeTimes = "relativeTimes"
	FlagShowPools     = "showResourcePools"
)

var (
	rowHeights   = []string{RowCompact, RowDefault, RowComfortable}
	pageSizes    = []int{10, 25, 50, 100}
	featureFlags = []string{FlagShowArchived, FlagRelativeTimes, FlagShowPools}
)

// ThemeSettings is the user's theme choice.
type ThemeSettings struct {
	Mode string `json:"mode,omitempty"`
}

// TableSettings holds the experiment table state. Fields are written one
// at a time through SetPartial so false and zero values are stored too.
type TableSettings struct {
	Filter    string `json:"filter,omitempty"`
	SortKey   string `json:"sortKey,omitempty"`
	SortDesc  bool   `json:"sortDesc,omitempty"`
	PageSize  int    `json:"pageSize,omitempty"`
	RowHeight string `json:"rowHeight,omitempty"`
}

// FeatureFlags maps flag names to their state. It is stored as a whole.
type FeatureFlags map[string]bool

var themeSettingsType = settings.Object(settings.ObjectOptions[ThemeSettings]{
	Name: "ThemeSettings",
	Validate: func(t ThemeSettings) error {
		if t.Mode == "" {
			return nil
		}
		return settings.OneOf(ModeDark, ModeLight)(t.Mode)
	},
})

var tableSettingsType = settings.Object(settings.ObjectOptions[TableSettings]{
	Name: "TableSettings",
	Validate: func(t TableSettings) error {
		if err := settings.Range(0, 500)(t.PageSize); err != nil {
			return fmt.Errorf("pageSize: %w", err)
		}
		if t.RowHeight != "" && !slices.Contains(rowHeights, t.RowHeight) {
			return fmt.Errorf("rowHeight %q is not one of %v", t.RowHeight, rowHeights)
		}
		if t.SortKey != "" && !slices.Contains(stores.SortKeys, stores.SortKey(t.SortKey)) {
			return fmt.Errorf("sortKey %q is not one of %v", t.SortKey, stores.SortKeys)
		}
		return nil
	},
})

var featureFlagsType = settings.Scalar[FeatureFlags](nil)

// userSettings binds the dashboard's entries to one store.
type userSettings struct {
	theme settings.Entry[ThemeSettings]
	table settings.Entry[TableSettings]
	flags settings.Entry[FeatureFlags]
}

func bindUserSettings(s *settings.Store) userSettings {
	return userSettings{
		theme: settings.Bind(s, themeSettingsType, themeSettingsKey),
		table: settings.Bind(s, tableSettingsType, tableSettingsKey),
		flags: settings.Bind(s, featureFlagsType, featureFlagsKey),
	}
}

// pageSize returns the stored page size or the default.
func (t TableSettings) pageSize() int {
	if t.PageSize > 0 {
		return t.PageSize
	}
	return DefaultPageSize
}

func (t TableSettings) rowHeight() string {
	if t.RowHeight == "" {
		return RowDefault
	}
	return t.RowHeight
}

func (t TableSettings) sortKey() stores.SortKey {
	if t.SortKey == "" {
		return stores.SortByID
	}
	return stores.SortKey(t.SortKey)
}

// next returns the element after cur in list, wrapping around. Unknown
// values restart at the first element.
func next[T comparable](list []T, cur T) T {
	i := slices.Index(list, cur)
	return list[(i+1)%len(list)]
}
