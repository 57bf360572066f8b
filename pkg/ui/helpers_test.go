package ui

import (
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"Setup React Native", 8, "Setup R…"},
		{"日本語のタスク", 5, "日本…"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestIDLabel(t *testing.T) {
	if got := idLabel(7); got != "07" {
		t.Errorf("idLabel(7) = %q", got)
	}
	if got := idLabel(42); got != "42" {
		t.Errorf("idLabel(42) = %q", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("title\nmore"); got != "title" {
		t.Errorf("firstLine = %q", got)
	}
}

func TestFormatTimeRel(t *testing.T) {
	now := time.Now()
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, "unknown"},
		{now.Add(time.Hour), "now"},
		{now.Add(-10 * time.Second), "now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
		{now.Add(-15 * 24 * time.Hour), "2w ago"},
		{now.Add(-90 * 24 * time.Hour), "3mo ago"},
	}
	for _, tt := range tests {
		if got := FormatTimeRel(tt.t); got != tt.want {
			t.Errorf("FormatTimeRel(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestKeyMapHelpCoversEveryAction(t *testing.T) {
	k := DefaultKeyMap()
	seen := 0
	for _, col := range k.FullHelp() {
		for _, b := range col {
			if b.Help().Key == "" {
				t.Errorf("binding %v has no help text", b.Keys())
			}
			seen++
		}
	}
	if seen < 30 {
		t.Errorf("full help lists %d bindings", seen)
	}
}
