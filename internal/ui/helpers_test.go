package ui

import (
	"strings"
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"  padded  ", 10, "padded"},
		{"exactly10!", 10, "exactly10!"},
		{"much too long", 8, "much ..."},
		{"abcdef", 3, "abc"},
		{"ünïcödé", 5, "ün..."},
		{"anything", 0, "anything"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.limit); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Fatalf("padRight = %q", got)
	}
	if got := padRight("abcdefgh", 6); got != "abc..." {
		t.Fatalf("padRight long = %q", got)
	}
	if got := padRight("abc", 0); got != "abc" {
		t.Fatalf("padRight zero width = %q", got)
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("STOPPING_CANCELED"); got != "Stopping Canceled" {
		t.Fatalf("titleCase = %q", got)
	}
	if got := titleCase(""); got != "" {
		t.Fatalf("titleCase empty = %q", got)
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, "-"},
		{now.Add(-10 * time.Second), "now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
		{now.Add(-10 * 24 * time.Hour), "2025-02-28"},
	}
	for _, tc := range cases {
		if got := relativeTime(tc.at, now); got != tc.want {
			t.Errorf("relativeTime(%v) = %q, want %q", tc.at, got, tc.want)
		}
	}
}

func TestBar(t *testing.T) {
	if got := bar(0.5, 4); got != "██░░" {
		t.Fatalf("bar(0.5) = %q", got)
	}
	if got := bar(2, 3); got != "███" {
		t.Fatalf("bar clamps high: %q", got)
	}
	if got := bar(-1, 3); got != "░░░" {
		t.Fatalf("bar clamps low: %q", got)
	}
	if got := bar(0.5, 0); got != "" {
		t.Fatalf("bar zero width = %q", got)
	}
}

func TestScrollStart(t *testing.T) {
	if got := scrollStart(2, 5, 20); got != 0 {
		t.Fatalf("scrollStart visible = %d", got)
	}
	if got := scrollStart(9, 5, 20); got != 5 {
		t.Fatalf("scrollStart below = %d, want 5", got)
	}
	if got := scrollStart(19, 5, 20); got != 15 {
		t.Fatalf("scrollStart last = %d, want 15", got)
	}
}

func TestMoveRow(t *testing.T) {
	if got := moveRow("j", 0, 3, 10); got != 1 {
		t.Fatalf("down = %d", got)
	}
	if got := moveRow("k", 0, 3, 10); got != 0 {
		t.Fatalf("up clamps = %d", got)
	}
	if got := moveRow("G", 0, 3, 10); got != 2 {
		t.Fatalf("bottom = %d", got)
	}
	if got := moveRow("j", 0, 0, 10); got != 0 {
		t.Fatalf("empty list = %d", got)
	}
}

func TestRenderTitledBox_Dimensions(t *testing.T) {
	m := Model{theme: ThemeForMode(ModeDark)}
	out := m.renderTitledBox("Agents", "one\ntwo", 20, 5, true)
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("box has %d lines, want 5", len(lines))
	}
	if !strings.Contains(lines[0], "Agents") {
		t.Fatalf("title missing from top border: %q", lines[0])
	}
	if !strings.Contains(lines[1], "one") || !strings.Contains(lines[2], "two") {
		t.Fatalf("content missing: %q", out)
	}
}
