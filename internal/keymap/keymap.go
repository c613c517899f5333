package keymap

import "strings"

// Binding maps keys to an action.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
}

// All contains all key bindings, in help order.
var All = []Binding{
	{ActionPlayPause, []string{" "}, "play/pause"},
	{ActionNextTrack, []string{"n"}, "next"},
	{ActionHide, []string{"h"}, "hide"},
	{ActionShow, []string{"s"}, "show"},
	{ActionQuit, []string{"q", "ctrl+c"}, "quit"},
}

// Help renders bindings as a one-line hint. Each action is listed once,
// in binding order, with every key bound to it.
func (r *Resolver) Help(bindings []Binding) string {
	parts := make([]string, 0, len(bindings))
	seen := make(map[Action]bool)
	for _, b := range bindings {
		if seen[b.Action] {
			continue
		}
		seen[b.Action] = true
		keys := r.KeysFor(b.Action)
		if len(keys) == 0 {
			continue
		}
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = keyName(k)
		}
		parts = append(parts, strings.Join(names, "/")+" "+b.Description)
	}
	return strings.Join(parts, "  ")
}

func keyName(key string) string {
	if key == " " {
		return "space"
	}
	return key
}
