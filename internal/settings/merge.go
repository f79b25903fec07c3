package settings

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-json"

	"github.com/five82/mlconsole/internal/api"
)

// RootField addresses a whole entry rather than one of its fields.
const RootField = "_ROOT"

// deleteValue is the only value the master treats as a row deletion.
const deleteValue = ""

// State maps storage paths to raw JSON trees. A State is never mutated
// after it is published; every change builds a new map.
type State map[string]any

// Merge reconciles remote cells into state and returns the new state.
// A RootField cell replaces the entry; any other cell sets one field of an
// object entry, creating the object when the entry is absent or not an
// object. A null or empty value deletes the field, or the entry for
// RootField.
// Cells whose value is not valid JSON are skipped and reported in the
// returned error; the other cells still apply.
func Merge(state State, cells []api.UserWebSetting) (State, error) {
	next := make(State, len(state)+len(cells))
	maps.Copy(next, state)

	var errs []error
	for _, cell := range cells {
		value, err := parseValue(cell.Value)
		if err != nil {
			errs = append(errs, fmt.Errorf("setting %s.%s: %w", cell.StoragePath, cell.Key, err))
			continue
		}
		next = apply(next, cell.StoragePath, cell.Key, value)
	}
	return next, errors.Join(errs...)
}

// apply writes one field into next, which the caller owns. Nested objects
// are copied before being changed.
func apply(next State, path, field string, value any) State {
	if field == RootField {
		if value == nil {
			delete(next, path)
		} else {
			next[path] = value
		}
		return next
	}

	existing, isObject := next[path].(map[string]any)
	if value == nil {
		if !isObject {
			return next
		}
		entry := maps.Clone(existing)
		delete(entry, field)
		next[path] = entry
		return next
	}

	entry := make(map[string]any, len(existing)+1)
	if isObject {
		maps.Copy(entry, existing)
	}
	entry[field] = value
	next[path] = entry
	return next
}

func parseValue(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// objectFields lists the fields of an object entry in sorted order.
func objectFields(v any) []string {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(obj))
}

// clearCells deletes the RootField row and each named field row of path.
func clearCells(path string, fields []string) []api.UserWebSetting {
	names := slices.Compact(slices.Sorted(slices.Values(fields)))
	cells := make([]api.UserWebSetting, 0, len(names)+1)
	cells = append(cells, api.UserWebSetting{StoragePath: path, Key: RootField, Value: deleteValue})
	for _, name := range names {
		if name == RootField {
			continue
		}
		cells = append(cells, api.UserWebSetting{StoragePath: path, Key: name, Value: deleteValue})
	}
	return cells
}

func encodeValue(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
