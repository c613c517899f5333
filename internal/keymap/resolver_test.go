//nolint:goconst // test cases intentionally repeat strings for readability
package keymap

import (
	"slices"
	"testing"
)

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(All)

	tests := []struct {
		key      string
		expected Action
	}{
		{"q", ActionQuit},
		{"ctrl+c", ActionQuit},
		{" ", ActionPlayPause},
		{"n", ActionNextTrack},
		{"h", ActionHide},
		{"s", ActionShow},
		{"unknown", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if result := r.Resolve(tt.key); result != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.key, result, tt.expected)
			}
		})
	}
}

func TestResolver_KeysFor(t *testing.T) {
	bindings := []Binding{
		{ActionQuit, []string{"q", "ctrl+c"}, "quit"},
		{ActionQuit, []string{"q", "esc"}, "quit"},
		{ActionNextTrack, []string{"n"}, "next"},
	}
	r := NewResolver(bindings)

	if got := r.KeysFor(ActionQuit); !slices.Equal(got, []string{"q", "ctrl+c", "esc"}) {
		t.Errorf("KeysFor(quit) = %v", got)
	}
	if got := r.KeysFor(ActionHide); len(got) != 0 {
		t.Errorf("KeysFor(hide) = %v, want empty", got)
	}
}

func TestAllKeysUnique(t *testing.T) {
	seen := make(map[string]Action)
	for _, b := range All {
		for _, key := range b.Keys {
			if prev, ok := seen[key]; ok {
				t.Errorf("key %q bound to both %q and %q", key, prev, b.Action)
			}
			seen[key] = b.Action
		}
	}
}
