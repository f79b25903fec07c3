package ui

import (
	"testing"

	"github.com/five82/mlconsole/internal/stores"
)

func TestThemeSettingsValidation(t *testing.T) {
	if _, err := themeSettingsType.Decode(map[string]any{"mode": "light"}); err != nil {
		t.Fatalf("light rejected: %v", err)
	}
	if _, err := themeSettingsType.Decode(map[string]any{}); err != nil {
		t.Fatalf("empty rejected: %v", err)
	}
	if _, err := themeSettingsType.Decode(map[string]any{"mode": "sepia"}); err == nil {
		t.Fatal("sepia accepted")
	}
}

func TestTableSettingsValidation(t *testing.T) {
	valid := map[string]any{"pageSize": 50, "rowHeight": RowCompact, "sortKey": "progress", "sortDesc": true}
	if _, err := tableSettingsType.Decode(valid); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}
	for name, raw := range map[string]map[string]any{
		"page size":  {"pageSize": 1000},
		"row height": {"rowHeight": "huge"},
		"sort key":   {"sortKey": "color"},
	} {
		if _, err := tableSettingsType.Decode(raw); err == nil {
			t.Errorf("%s: invalid value accepted", name)
		}
	}
}

func TestTableSettingsDefaults(t *testing.T) {
	var ts TableSettings
	if ts.pageSize() != DefaultPageSize {
		t.Fatalf("pageSize = %d", ts.pageSize())
	}
	if ts.rowHeight() != RowDefault {
		t.Fatalf("rowHeight = %q", ts.rowHeight())
	}
	if ts.sortKey() != stores.SortByID {
		t.Fatalf("sortKey = %q", ts.sortKey())
	}
}

func TestNext(t *testing.T) {
	if got := next(pageSizes, 25); got != 50 {
		t.Fatalf("next(25) = %d", got)
	}
	if got := next(pageSizes, 100); got != 10 {
		t.Fatalf("next wraps: %d", got)
	}
	if got := next(pageSizes, 7); got != 10 {
		t.Fatalf("next unknown = %d, want first", got)
	}
}
