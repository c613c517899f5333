// Package notify provides desktop notifications via D-Bus.
package notify

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Timeouts understood by the notification server.
const (
	TimeoutDefault int32 = -1
	TimeoutNever   int32 = 0
)

// DefaultActionKey is the freedesktop key invoked when the notification
// body itself is clicked.
const DefaultActionKey = "default"

// Button is an action button shown on a notification.
type Button struct {
	Key   string // Sent back in ActionInvoked
	Label string // Text shown on the button
}

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // Summary text (required)
	Body       string  // Body text (optional, supports basic markup)
	Icon       string  // Path to image file or icon name (optional)
	Image      *Image  // Large icon sent as raw pixels (optional)
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 = new notification, >0 = replace existing
	Urgency    Urgency // Low, Normal, Critical
	Category   string  // e.g. "x-gnome.music"
	Resident   bool    // Stays after an action is invoked

	Actions []Button
	// Default is the action key sent when the body is clicked.
	// Empty means the body is not clickable.
	Default string
	// CompactActions are indices into Actions that should stay visible
	// when the server collapses the notification. They are posted first.
	CompactActions []int

	// ChannelID selects a channel created with CreateChannel.
	ChannelID string
}

// Channel groups notifications sharing the same presentation.
type Channel struct {
	ID       string
	Name     string
	Urgency  Urgency
	Category string
}

// CloseReason tells why the server closed a notification.
type CloseReason uint32

const (
	CloseExpired   CloseReason = 1
	CloseDismissed CloseReason = 2
	CloseByCall    CloseReason = 3
	CloseUndefined CloseReason = 4
)

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	// Returns 0 and nil error if notifications are disabled or unavailable.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
}

// ChannelCreator is implemented by notifiers that support channels.
type ChannelCreator interface {
	// CreateChannel registers ch. Creating an existing channel is a no-op.
	CreateChannel(ch Channel) error
}

// ActionListener is implemented by notifiers that report user interaction.
type ActionListener interface {
	// ListenActions calls fn for every action invoked on any notification.
	ListenActions(fn func(id uint32, key string)) (stop func(), err error)
	// ListenClosed calls fn whenever a notification is closed.
	ListenClosed(fn func(id uint32, reason CloseReason)) (stop func(), err error)
}

// Disconnector is implemented by notifiers that hold their own connection
// to the notification server.
type Disconnector interface {
	// Disconnect releases the connection. The notifier is unusable after.
	Disconnect() error
}

// orderedActions returns n.Actions with the compact ones first.
// Out-of-range and duplicate indices are ignored.
func orderedActions(n Notification) []Button {
	if len(n.CompactActions) == 0 {
		return n.Actions
	}

	out := make([]Button, 0, len(n.Actions))
	used := make([]bool, len(n.Actions))
	for _, i := range n.CompactActions {
		if i < 0 || i >= len(n.Actions) || used[i] {
			continue
		}
		used[i] = true
		out = append(out, n.Actions[i])
	}
	for i, b := range n.Actions {
		if !used[i] {
			out = append(out, b)
		}
	}
	return out
}

// actionList flattens the default action and buttons into the
// key, label, key, label... form expected by the Notify call.
func actionList(n Notification) []string {
	list := make([]string, 0, 2*(len(n.Actions)+1))
	if n.Default != "" {
		list = append(list, n.Default, "")
	}
	for _, b := range orderedActions(n) {
		list = append(list, b.Key, b.Label)
	}
	return list
}
