// Package app assembles the process-wide context the now playing helper
// runs in: notification server, slot storage, action bus and the MPRIS
// companion service.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/llehouerou/nowplaying/internal/action"
	"github.com/llehouerou/nowplaying/internal/broadcast"
	"github.com/llehouerou/nowplaying/internal/config"
	"github.com/llehouerou/nowplaying/internal/logging"
	"github.com/llehouerou/nowplaying/internal/mpris"
	"github.com/llehouerou/nowplaying/internal/notify"
	"github.com/llehouerou/nowplaying/internal/nowplaying"
	"github.com/llehouerou/nowplaying/internal/state"
)

// Options supplies the application callbacks.
type Options struct {
	// Handler receives play, pause and next requests.
	Handler action.Handler
	// Launch brings the application to front. Called when the
	// notification body is clicked or MPRIS asks to raise. May be nil.
	Launch func() error
}

// slotStore is a notify.SlotStore that must be closed.
type slotStore interface {
	notify.SlotStore
	Close() error
}

// Context implements nowplaying.Context.
type Context struct {
	cfg      *config.Config
	opts     Options
	log      *slog.Logger
	notifier notify.Notifier
	manager  *notify.Manager
	store    slotStore
	bus      *broadcast.Bus

	mu      sync.Mutex
	service *mpris.Adapter
	stops   []func()
	closed  bool
}

var _ nowplaying.Context = (*Context)(nil)

// New connects to the notification server and opens the state database.
func New(cfg *config.Config, opts Options) (*Context, error) {
	notifier, err := notify.New(cfg.GetAppName(), cfg.GetDesktopEntry())
	if err != nil {
		return nil, fmt.Errorf("connect to notification server: %w", err)
	}

	store, err := state.Open(cfg.State.Path)
	if err != nil {
		_ = disconnect(notifier)
		return nil, fmt.Errorf("open state database: %w", err)
	}

	c, err := newContext(cfg, notifier, store, opts)
	if err != nil {
		store.Close()
		_ = disconnect(notifier)
		return nil, err
	}
	return c, nil
}

// disconnect releases the notifier's bus connection, if it has one.
func disconnect(n notify.Notifier) error {
	if d, ok := n.(notify.Disconnector); ok {
		return d.Disconnect()
	}
	return nil
}

func newContext(cfg *config.Config, notifier notify.Notifier, store slotStore, opts Options) (*Context, error) {
	c := &Context{
		cfg:      cfg,
		opts:     opts,
		log:      logging.L("app"),
		notifier: notifier,
		manager:  notify.NewManager(notifier, store),
		store:    store,
		bus:      broadcast.New(),
	}

	if err := c.listen(); err != nil {
		c.bus.Close()
		return nil, err
	}
	return c, nil
}

// listen forwards server signals about our notifications.
func (c *Context) listen() error {
	listener, ok := c.notifier.(notify.ActionListener)
	if !ok {
		c.log.Info("notification server does not report actions")
		return nil
	}

	stopActions, err := listener.ListenActions(c.onAction)
	if err != nil {
		return fmt.Errorf("listen for notification actions: %w", err)
	}
	stopClosed, err := listener.ListenClosed(c.onClosed)
	if err != nil {
		stopActions()
		return fmt.Errorf("listen for closed notifications: %w", err)
	}

	c.stops = append(c.stops, stopActions, stopClosed)
	return nil
}

func (c *Context) onAction(id uint32, key string) {
	if !c.manager.Owns(id) {
		return
	}
	if key == notify.DefaultActionKey {
		c.launch()
		return
	}
	c.log.Debug("action invoked", logging.KeyID, id, logging.KeyAction, key)
	c.bus.Send(key)
}

func (c *Context) onClosed(id uint32, reason notify.CloseReason) {
	if err := c.manager.Forget(id); err != nil {
		c.log.Warn("forget closed notification", logging.KeyID, id, logging.Err(err))
		return
	}
	c.log.Debug("notification closed", logging.KeyID, id, "reason", uint32(reason))
}

func (c *Context) launch() {
	if c.opts.Launch == nil {
		return
	}
	if err := c.opts.Launch(); err != nil {
		c.log.Warn("launch application", logging.Err(err))
	}
}

// NotificationManager implements nowplaying.Context.
func (c *Context) NotificationManager() nowplaying.NotificationManager {
	return c.manager
}

// ChannelService implements nowplaying.Context.
func (c *Context) ChannelService() notify.ChannelCreator {
	if cc, ok := c.notifier.(notify.ChannelCreator); ok {
		return cc
	}
	return nil
}

// RegisterReceiver implements nowplaying.Context.
func (c *Context) RegisterReceiver(r broadcast.Receiver, f broadcast.Filter) error {
	return c.bus.Register(r, f)
}

// UnregisterReceiver implements nowplaying.Context.
func (c *Context) UnregisterReceiver(r broadcast.Receiver) error {
	return c.bus.Unregister(r)
}

// StartService starts the MPRIS companion service, unless disabled.
func (c *Context) StartService(src nowplaying.StatusSource) error {
	if !c.cfg.MPRISEnabled() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("context closed")
	}
	if c.service != nil {
		return errors.New("companion service already running")
	}

	svc, err := mpris.New(src, mpris.Options{
		Name:     c.cfg.GetDesktopEntry(),
		Identity: c.cfg.GetAppName(),
		Send:     c.bus.Send,
		Raise:    c.opts.Launch,
		Logger:   logging.L("mpris"),
	})
	if err != nil {
		return err
	}
	c.service = svc
	return nil
}

// ActionHandler implements nowplaying.Context.
func (c *Context) ActionHandler() action.Handler {
	return c.opts.Handler
}

// LaunchIntent implements nowplaying.Context.
func (c *Context) LaunchIntent() string {
	return notify.DefaultActionKey
}

// Style implements nowplaying.Context.
func (c *Context) Style() nowplaying.Style {
	ch := c.cfg.GetChannelConfig()
	return nowplaying.Style{
		SmallIcon:   c.cfg.GetIcon(),
		IconSize:    c.cfg.GetIconSize(),
		ChannelName: ch.Name,
		Urgency:     parseUrgency(ch.Urgency),
		Category:    ch.Category,
	}
}

// Logger implements nowplaying.Context.
func (c *Context) Logger() *slog.Logger {
	return logging.L("nowplaying")
}

// Send posts key on the action bus, as a notification button would.
func (c *Context) Send(key string) {
	c.bus.Send(key)
}

// Close stops the companion service and listeners, drops the notification
// server connection and closes the store.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	svc := c.service
	stops := c.stops
	c.service = nil
	c.stops = nil
	c.mu.Unlock()

	var errs []error
	if svc != nil {
		if err := svc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("stop companion service: %w", err))
		}
	}
	for _, stop := range stops {
		stop()
	}
	c.bus.Close()
	if err := disconnect(c.notifier); err != nil {
		errs = append(errs, fmt.Errorf("disconnect notification server: %w", err))
	}
	if err := c.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close state database: %w", err))
	}
	return errors.Join(errs...)
}

func parseUrgency(s string) notify.Urgency {
	switch strings.ToLower(s) {
	case "normal":
		return notify.UrgencyNormal
	case "critical":
		return notify.UrgencyCritical
	default:
		return notify.UrgencyLow
	}
}
