package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width for the user and start columns.
	LayoutWideWidth = 130
)

const (
	// DefaultPageSize is the experiment page size when none is stored.
	DefaultPageSize = 25

	// DefaultUIInterval redraws relative times and expires toasts.
	DefaultUIInterval = time.Second

	// ActionTimeout bounds pin, refresh and reset requests started from keys.
	ActionTimeout = 10 * time.Second
)
