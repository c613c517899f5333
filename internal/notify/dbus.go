//go:build linux

package notify

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	dbusNotifyDest      = "org.freedesktop.Notifications"
	dbusNotifyPath      = "/org/freedesktop/Notifications"
	dbusNotifyInterface = "org.freedesktop.Notifications"

	signalActionInvoked      = "ActionInvoked"
	signalNotificationClosed = "NotificationClosed"

	signalBufferSize = 16
)

// imageData is the (iiibiiay) layout of the image-data hint.
type imageData struct {
	Width         int32
	Height        int32
	Rowstride     int32
	HasAlpha      bool
	BitsPerSample int32
	Channels      int32
	Data          []byte
}

// dbusNotifier sends notifications via D-Bus.
type dbusNotifier struct {
	conn         *dbus.Conn
	obj          dbus.BusObject
	appName      string
	desktopEntry string

	mu       sync.Mutex
	channels map[string]Channel
}

var (
	_ Notifier       = (*dbusNotifier)(nil)
	_ ChannelCreator = (*dbusNotifier)(nil)
	_ ActionListener = (*dbusNotifier)(nil)
	_ Disconnector   = (*dbusNotifier)(nil)
)

// New creates a Notifier that sends desktop notifications via D-Bus.
// Returns a no-op notifier if D-Bus is unavailable.
//
// The notifier opens a private session bus connection. The shared one
// belongs to whoever closes it first, and the MPRIS server closes it
// when it cannot claim its name.
func New(appName, desktopEntry string) (Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		// D-Bus not available, return no-op notifier (intentional graceful degradation)
		return &stubNotifier{}, nil //nolint:nilerr // graceful fallback when D-Bus unavailable
	}

	obj := conn.Object(dbusNotifyDest, dbusNotifyPath)
	return &dbusNotifier{
		conn:         conn,
		obj:          obj,
		appName:      appName,
		desktopEntry: desktopEntry,
		channels:     make(map[string]Channel),
	}, nil
}

// Notify sends a notification via D-Bus.
func (n *dbusNotifier) Notify(notif Notification) (uint32, error) {
	n.mu.Lock()
	ch, hasChannel := n.channels[notif.ChannelID]
	n.mu.Unlock()
	if hasChannel {
		notif.Urgency = ch.Urgency
		if notif.Category == "" {
			notif.Category = ch.Category
		}
	}

	actions := actionList(notif)
	hints := buildHints(notif, n.desktopEntry)

	// D-Bus Notify method signature:
	// Notify(app_name, replaces_id, icon, summary, body, actions, hints, timeout) -> id
	call := n.obj.Call(
		dbusNotifyInterface+".Notify",
		0,                // flags
		n.appName,        // app_name
		notif.ReplacesID, // replaces_id
		notif.Icon,       // app_icon (path or icon name)
		notif.Title,      // summary
		notif.Body,       // body
		actions,          // actions
		hints,            // hints
		notif.Timeout,    // expire_timeout
	)

	if call.Err != nil {
		return 0, call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}

	return id, nil
}

// Close closes a notification by ID.
func (n *dbusNotifier) Close(id uint32) error {
	call := n.obj.Call(dbusNotifyInterface+".CloseNotification", 0, id)
	return call.Err
}

// Disconnect closes the private bus connection.
func (n *dbusNotifier) Disconnect() error {
	return n.conn.Close()
}

// CreateChannel records ch after checking that a notification server
// is answering on the bus.
func (n *dbusNotifier) CreateChannel(ch Channel) error {
	n.mu.Lock()
	_, exists := n.channels[ch.ID]
	n.mu.Unlock()
	if exists {
		return nil
	}

	var caps []string
	if err := n.obj.Call(dbusNotifyInterface+".GetCapabilities", 0).Store(&caps); err != nil {
		return fmt.Errorf("notification service unavailable: %w", err)
	}

	n.mu.Lock()
	n.channels[ch.ID] = ch
	n.mu.Unlock()
	return nil
}

// ListenActions subscribes to ActionInvoked signals.
func (n *dbusNotifier) ListenActions(fn func(id uint32, key string)) (func(), error) {
	return n.listen(signalActionInvoked, func(sig *dbus.Signal) {
		if id, key, ok := parseActionInvoked(sig); ok {
			fn(id, key)
		}
	})
}

// ListenClosed subscribes to NotificationClosed signals.
func (n *dbusNotifier) ListenClosed(fn func(id uint32, reason CloseReason)) (func(), error) {
	return n.listen(signalNotificationClosed, func(sig *dbus.Signal) {
		if id, reason, ok := parseNotificationClosed(sig); ok {
			fn(id, reason)
		}
	})
}

func (n *dbusNotifier) listen(member string, handle func(*dbus.Signal)) (func(), error) {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(dbusNotifyPath),
		dbus.WithMatchInterface(dbusNotifyInterface),
		dbus.WithMatchMember(member),
	}
	if err := n.conn.AddMatchSignal(opts...); err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", member, err)
	}

	ch := make(chan *dbus.Signal, signalBufferSize)
	n.conn.Signal(ch)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case sig, ok := <-ch:
				if !ok {
					return
				}
				handle(sig)
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			n.conn.RemoveSignal(ch)
			_ = n.conn.RemoveMatchSignal(opts...)
			close(done)
		})
	}
	return stop, nil
}

// buildHints returns the hints map for notif.
func buildHints(notif Notification, desktopEntry string) map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(notif.Urgency)),
	}
	if desktopEntry != "" {
		hints["desktop-entry"] = dbus.MakeVariant(desktopEntry)
	}
	if notif.Category != "" {
		hints["category"] = dbus.MakeVariant(notif.Category)
	}
	if notif.Resident {
		hints["resident"] = dbus.MakeVariant(true)
	}
	if img := notif.Image; img != nil {
		hints["image-data"] = dbus.MakeVariant(imageData{
			Width:         int32(img.Width),       //nolint:gosec // image sizes are bounded
			Height:        int32(img.Height),      //nolint:gosec // image sizes are bounded
			Rowstride:     int32(img.Rowstride()), //nolint:gosec // image sizes are bounded
			HasAlpha:      true,
			BitsPerSample: 8,
			Channels:      4,
			Data:          img.Pix,
		})
	}
	return hints
}

func isNotificationSignal(sig *dbus.Signal, member string) bool {
	return sig != nil &&
		sig.Path == dbusNotifyPath &&
		sig.Name == dbusNotifyInterface+"."+member
}

// parseActionInvoked decodes ActionInvoked(u id, s action_key).
func parseActionInvoked(sig *dbus.Signal) (uint32, string, bool) {
	if !isNotificationSignal(sig, signalActionInvoked) || len(sig.Body) != 2 {
		return 0, "", false
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return 0, "", false
	}
	key, ok := sig.Body[1].(string)
	if !ok {
		return 0, "", false
	}
	return id, key, true
}

// parseNotificationClosed decodes NotificationClosed(u id, u reason).
func parseNotificationClosed(sig *dbus.Signal) (uint32, CloseReason, bool) {
	if !isNotificationSignal(sig, signalNotificationClosed) || len(sig.Body) != 2 {
		return 0, 0, false
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return 0, 0, false
	}
	reason, ok := sig.Body[1].(uint32)
	if !ok {
		return 0, 0, false
	}
	return id, CloseReason(reason), true
}

// stubNotifier is used when D-Bus is unavailable.
type stubNotifier struct{}

func (s *stubNotifier) Notify(_ Notification) (uint32, error) {
	return 0, nil
}

func (s *stubNotifier) Close(_ uint32) error {
	return nil
}
