// Package action defines the media controls shared by the notification
// buttons and the receiver that relays taps back to the player.
package action

// Action is one of the media controls a notification can carry.
type Action int

const (
	Play Action = iota
	Pause
	Next
)

// Wire identifiers. These are both the button keys posted with a
// notification and the keys the receiver filters on.
const (
	keyPlay  = "PLAY"
	keyPause = "PAUSE"
	keyNext  = "NEXT"
)

// All returns every action in declaration order.
func All() []Action {
	return []Action{Play, Pause, Next}
}

// Keys returns the wire identifiers of All.
func Keys() []string {
	all := All()
	keys := make([]string, len(all))
	for i, a := range all {
		keys[i] = a.String()
	}
	return keys
}

func (a Action) String() string {
	switch a {
	case Play:
		return keyPlay
	case Pause:
		return keyPause
	case Next:
		return keyNext
	}
	return ""
}

// Parse maps a wire identifier back to its action.
// Matching is exact: "play" is not an action.
func Parse(s string) (Action, bool) {
	switch s {
	case keyPlay:
		return Play, true
	case keyPause:
		return Pause, true
	case keyNext:
		return Next, true
	}
	return 0, false
}

// Handler receives actions requested by the user.
type Handler interface {
	OnActionRequested(a Action)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(a Action)

// OnActionRequested calls f(a).
func (f HandlerFunc) OnActionRequested(a Action) {
	f(a)
}
