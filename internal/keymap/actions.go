// Package keymap defines key bindings and action dispatch for the demo player.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	ActionQuit      Action = "quit"
	ActionPlayPause Action = "play_pause"
	ActionNextTrack Action = "next_track"
	ActionHide      Action = "hide_notification"
	ActionShow      Action = "show_notification"
)
