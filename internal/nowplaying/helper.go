// Package nowplaying owns the "now playing" notification: one persistent
// notification with play/pause/next buttons, and the receiver that relays
// taps on those buttons to the player.
package nowplaying

import (
	"log/slog"
	"sync"

	"github.com/llehouerou/nowplaying/internal/action"
	"github.com/llehouerou/nowplaying/internal/broadcast"
	"github.com/llehouerou/nowplaying/internal/logging"
	"github.com/llehouerou/nowplaying/internal/notify"
)

const (
	ChannelID   = "MediaPlayer"
	ChannelName = "Media Player"

	// PlayerNotification is the slot the player notification lives in.
	PlayerNotification = 1
)

// NotificationManager posts and removes notifications by slot.
type NotificationManager interface {
	Notify(slot int, n notify.Notification) error
	Cancel(slot int) error
}

// Style controls how the notification looks.
type Style struct {
	SmallIcon   string // icon name or path shown next to the app name
	IconSize    uint   // max edge of the large icon; 0 = notify.DefaultImageSize
	ChannelName string
	Urgency     notify.Urgency
	Category    string
}

// Context is what the helper needs from the host process.
type Context interface {
	NotificationManager() NotificationManager
	// ChannelService returns nil when the notification service is unavailable.
	ChannelService() notify.ChannelCreator
	RegisterReceiver(r broadcast.Receiver, f broadcast.Filter) error
	UnregisterReceiver(r broadcast.Receiver) error
	// StartService starts the companion service that mirrors src.
	StartService(src StatusSource) error
	ActionHandler() action.Handler
	// LaunchIntent is the action key that brings the application to front.
	LaunchIntent() string
	Style() Style
	Logger() *slog.Logger
}

// State is the lifecycle state of a Helper.
type State int

const (
	Hidden State = iota
	Shown
	Released
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Shown:
		return "shown"
	case Released:
		return "released"
	}
	return "unknown"
}

// Snapshot is what the player notification currently shows.
type Snapshot struct {
	Playing     bool
	Icon        string // path to the large icon
	ContentText string
	Title       string
}

// StatusSource exposes the notification contents to the companion service.
type StatusSource interface {
	// Snapshot returns the current contents, or false when nothing is shown.
	Snapshot() (Snapshot, bool)
	// OnChange registers fn to run after every show or hide.
	OnChange(fn func())
}

// Helper manages the player notification.
type Helper struct {
	ctx      Context
	receiver *receiver
	log      *slog.Logger

	// postMu serializes show, hide and release so that no post lands
	// after release has cancelled the slot.
	postMu sync.Mutex

	mu        sync.Mutex
	state     State
	current   Snapshot
	listeners []func()
}

var _ StatusSource = (*Helper)(nil)

// New registers the action receiver, clears any notification left in the
// slot, creates the channel and starts the companion service.
func New(ctx Context) *Helper {
	log := ctx.Logger()
	if log == nil {
		log = logging.L("nowplaying")
	}

	h := &Helper{
		ctx: ctx,
		log: log,
		receiver: &receiver{
			handler: ctx.ActionHandler(),
			log:     log,
		},
	}

	if err := ctx.RegisterReceiver(h.receiver, broadcast.NewFilter(action.Keys()...)); err != nil {
		log.Warn("register action receiver", logging.Err(err))
	}
	h.HidePlayerNotification()
	h.createNotificationChannel()
	if err := ctx.StartService(h); err != nil {
		log.Warn("start companion service", logging.Err(err))
	}

	return h
}

// Release unregisters the receiver and hides the notification.
// It must be called once; a second call reports the unregister failure.
func (h *Helper) Release() error {
	h.postMu.Lock()
	err := h.ctx.UnregisterReceiver(h.receiver)
	h.hide()
	h.mu.Lock()
	h.state = Released
	h.mu.Unlock()
	h.postMu.Unlock()

	h.notifyChange()
	return err
}

// ShowPlayerNotification posts or replaces the player notification.
// icon is a path to an image file; an unreadable file shows no image.
func (h *Helper) ShowPlayerNotification(playing bool, icon, contentText, title string) {
	h.postMu.Lock()
	if h.State() == Released {
		h.postMu.Unlock()
		h.log.Debug("show after release ignored")
		return
	}

	snap := Snapshot{
		Playing:     playing,
		Icon:        icon,
		ContentText: contentText,
		Title:       title,
	}
	n := buildPlayerNotification(snap, h.ctx.Style(), h.ctx.LaunchIntent())

	if err := h.ctx.NotificationManager().Notify(PlayerNotification, n); err != nil {
		h.log.Warn("show player notification", logging.KeySlot, PlayerNotification, logging.Err(err))
	}

	h.mu.Lock()
	h.state = Shown
	h.current = snap
	h.mu.Unlock()
	h.postMu.Unlock()

	h.notifyChange()
}

// HidePlayerNotification removes the player notification if shown.
func (h *Helper) HidePlayerNotification() {
	h.postMu.Lock()
	h.hide()
	h.postMu.Unlock()

	h.notifyChange()
}

// hide cancels the slot. The caller holds postMu.
func (h *Helper) hide() {
	if err := h.ctx.NotificationManager().Cancel(PlayerNotification); err != nil {
		h.log.Warn("hide player notification", logging.KeySlot, PlayerNotification, logging.Err(err))
	}

	h.mu.Lock()
	if h.state != Released {
		h.state = Hidden
	}
	h.current = Snapshot{}
	h.mu.Unlock()
}

// State returns the current lifecycle state.
func (h *Helper) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Playing reports whether the shown notification is in the playing state.
func (h *Helper) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state == Shown && h.current.Playing
}

// Snapshot implements StatusSource.
func (h *Helper) Snapshot() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current, h.state == Shown
}

// OnChange implements StatusSource.
func (h *Helper) OnChange(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

func (h *Helper) notifyChange() {
	h.mu.Lock()
	listeners := make([]func(), len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (h *Helper) createNotificationChannel() {
	// A missing notification service is not an error here.
	svc := h.ctx.ChannelService()
	if svc == nil {
		return
	}

	style := h.ctx.Style()
	name := style.ChannelName
	if name == "" {
		name = ChannelName
	}
	err := svc.CreateChannel(notify.Channel{
		ID:       ChannelID,
		Name:     name,
		Urgency:  style.Urgency,
		Category: style.Category,
	})
	if err != nil {
		h.log.Debug("create notification channel", logging.Err(err))
	}
}

// buildPlayerNotification describes the notification for snap.
// The first button is pause while playing and play otherwise; next is
// always second. Both stay visible in the compact layout.
func buildPlayerNotification(snap Snapshot, style Style, launch string) notify.Notification {
	toggle := action.Play
	if snap.Playing {
		toggle = action.Pause
	}

	size := style.IconSize
	if size == 0 {
		size = notify.DefaultImageSize
	}

	timeout := notify.TimeoutDefault
	if snap.Playing {
		timeout = notify.TimeoutNever
	}

	return notify.Notification{
		Title:    snap.Title,
		Body:     snap.ContentText,
		Icon:     style.SmallIcon,
		Image:    notify.LoadImage(snap.Icon, size),
		Timeout:  timeout,
		Urgency:  style.Urgency,
		Category: style.Category,
		Resident: snap.Playing,
		Actions: []notify.Button{
			button(toggle),
			button(action.Next),
		},
		Default:        launch,
		CompactActions: []int{0, 1},
		ChannelID:      ChannelID,
	}
}

func button(a action.Action) notify.Button {
	return notify.Button{Key: a.String(), Label: a.String()}
}

// receiver relays delivered action keys to the action handler.
type receiver struct {
	handler action.Handler
	log     *slog.Logger
}

func (r *receiver) OnReceive(key string) {
	a, ok := action.Parse(key)
	if !ok {
		r.log.Debug("unknown action", logging.KeyAction, key)
		return
	}
	if r.handler != nil {
		r.handler.OnActionRequested(a)
	}
}
