//go:build linux

package mpris

import (
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/nowplaying/internal/action"
	"github.com/llehouerou/nowplaying/internal/logging"
	"github.com/llehouerou/nowplaying/internal/nowplaying"
)

const noTrackObjectPath = "/org/mpris/MediaPlayer2/TrackList/NoTrack"

var errNotSupported = errors.New("not supported")

var (
	_ types.OrgMprisMediaPlayer2Adapter       = (*rootAdapter)(nil)
	_ types.OrgMprisMediaPlayer2PlayerAdapter = (*playerAdapter)(nil)
)

// Options configures an Adapter.
type Options struct {
	Name     string // bus name suffix: org.mpris.MediaPlayer2.<Name>
	Identity string // human readable player name
	// Send delivers an action key to the application.
	Send func(key string)
	// Raise brings the application to front. Nil disables Raise.
	Raise func() error
	Logger *slog.Logger
}

// Adapter publishes the now playing notification over MPRIS so that
// media keys and desktop players can drive the same actions.
type Adapter struct {
	server *server.Server
	events *events.EventHandler
	log    *slog.Logger

	mu        sync.Mutex
	listening bool
	done      chan struct{}
}

// New creates and starts a new MPRIS adapter mirroring src.
func New(src nowplaying.StatusSource, opts Options) (*Adapter, error) {
	if opts.Send == nil {
		return nil, errors.New("mpris: Send is required")
	}
	log := opts.Logger
	if log == nil {
		log = logging.L("mpris")
	}

	a := &Adapter{
		log:  log,
		done: make(chan struct{}),
	}

	root := &rootAdapter{identity: opts.Identity, raise: opts.Raise}
	player := &playerAdapter{source: src, send: opts.Send}

	a.server = server.NewServer(opts.Name, root, player)
	a.events = events.NewEventHandler(a.server)

	src.OnChange(a.changed)

	a.listening = true
	// Start the server in background
	go func() {
		if err := a.server.Listen(); err != nil {
			a.mu.Lock()
			a.listening = false
			a.mu.Unlock()
			a.log.Warn("mpris server stopped", logging.Err(err))
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	default:
	}
	close(a.done)

	if !a.listening {
		return nil
	}
	a.listening = false
	return a.server.Stop()
}

// changed emits PropertiesChanged for status and metadata.
func (a *Adapter) changed() {
	a.mu.Lock()
	listening := a.listening
	a.mu.Unlock()
	if !listening {
		return
	}

	a.events.Player.OnPlayPause()
	a.events.Player.OnTitle()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct {
	identity string
	raise    func() error
}

func (r *rootAdapter) Raise() error {
	if r.raise == nil {
		return errNotSupported
	}
	return r.raise()
}

func (r *rootAdapter) Quit() error {
	return errNotSupported // app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return r.raise != nil, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return r.identity, nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter. Controls are
// turned into action keys and sent through the same route as
// notification buttons.
type playerAdapter struct {
	source nowplaying.StatusSource
	send   func(key string)
}

func (p *playerAdapter) Next() error {
	p.send(action.Next.String())
	return nil
}

func (p *playerAdapter) Previous() error {
	return errNotSupported
}

func (p *playerAdapter) Pause() error {
	p.send(action.Pause.String())
	return nil
}

func (p *playerAdapter) PlayPause() error {
	if snap, shown := p.source.Snapshot(); shown && snap.Playing {
		return p.Pause()
	}
	return p.Play()
}

func (p *playerAdapter) Stop() error {
	return errNotSupported
}

func (p *playerAdapter) Play() error {
	p.send(action.Play.String())
	return nil
}

func (p *playerAdapter) Seek(_ types.Microseconds) error {
	return errNotSupported
}

func (p *playerAdapter) SetPosition(_ string, _ types.Microseconds) error {
	return errNotSupported
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return errNotSupported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	snap, shown := p.source.Snapshot()
	switch {
	case !shown:
		return types.PlaybackStatusStopped, nil
	case snap.Playing:
		return types.PlaybackStatusPlaying, nil
	default:
		return types.PlaybackStatusPaused, nil
	}
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return errNotSupported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	snap, shown := p.source.Snapshot()
	if !shown {
		return types.Metadata{TrackId: dbus.ObjectPath(noTrackObjectPath)}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(snap.Title, snap.ContentText)),
		Title:   snap.Title,
	}
	if snap.ContentText != "" {
		meta.Artist = []string{snap.ContentText}
	}
	if snap.Icon != "" {
		meta.ArtUrl = "file://" + snap.Icon
	}

	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return errNotSupported
}

func (p *playerAdapter) Position() (int64, error) {
	return 0, nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	_, shown := p.source.Snapshot()
	return shown, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	_, shown := p.source.Snapshot()
	return shown, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	_, shown := p.source.Snapshot()
	return shown, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

func formatTrackID(title, body string) string {
	h := fnv.New64a()
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(body))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
