//go:build linux

package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/nowplaying/internal/action"
	"github.com/llehouerou/nowplaying/internal/config"
	"github.com/llehouerou/nowplaying/internal/nowplaying"
)

const (
	notificationsName = "org.freedesktop.Notifications"
	notificationsPath = dbus.ObjectPath("/org/freedesktop/Notifications")
)

// notificationServer is a minimal org.freedesktop.Notifications service.
type notificationServer struct {
	conn *dbus.Conn

	mu     sync.Mutex
	nextID uint32
	posted []uint32
	closed []uint32
}

func (s *notificationServer) Notify(
	appName string,
	replacesID uint32,
	icon, summary, body string,
	actions []string,
	hints map[string]dbus.Variant,
	timeout int32,
) (uint32, *dbus.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := replacesID
	if id == 0 {
		s.nextID++
		id = s.nextID
	}
	s.posted = append(s.posted, id)
	return id, nil
}

func (s *notificationServer) CloseNotification(id uint32) *dbus.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, id)
	return nil
}

func (s *notificationServer) GetCapabilities() ([]string, *dbus.Error) {
	return []string{"actions", "body", "persistence"}, nil
}

func (s *notificationServer) lastPosted() (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.posted) == 0 {
		return 0, false
	}
	return s.posted[len(s.posted)-1], true
}

func (s *notificationServer) waitPosted(t *testing.T) uint32 {
	t.Helper()
	var id uint32
	require.Eventually(t, func() bool {
		var ok bool
		id, ok = s.lastPosted()
		return ok
	}, 2*time.Second, 10*time.Millisecond, "nothing posted")
	return id
}

func (s *notificationServer) invoke(id uint32, key string) error {
	return s.conn.Emit(notificationsPath, notificationsName+".ActionInvoked", id, key)
}

func requireSessionBus(t *testing.T) {
	t.Helper()
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("no D-Bus session available")
	}
}

// startNotificationServer claims the notifications name on a private
// connection, skipping when a real server already owns it.
func startNotificationServer(t *testing.T) *notificationServer {
	t.Helper()
	requireSessionBus(t)

	conn, err := dbus.ConnectSessionBus()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	srv := &notificationServer{conn: conn}
	require.NoError(t, conn.Export(srv, notificationsPath, notificationsName))

	reply, err := conn.RequestName(notificationsName, dbus.NameFlagDoNotQueue)
	require.NoError(t, err)
	if reply != dbus.RequestNameReplyPrimaryOwner {
		t.Skip("a notification server is already running")
	}
	return srv
}

// claimName holds name on its own connection for the rest of the test.
func claimName(t *testing.T, name string) {
	t.Helper()

	conn, err := dbus.ConnectSessionBus()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	reply, err := conn.RequestName(name, dbus.NameFlagDoNotQueue)
	require.NoError(t, err)
	require.Equal(t, dbus.RequestNameReplyPrimaryOwner, reply)
}

func nameHasOwner(t *testing.T, name string) bool {
	t.Helper()

	conn, err := dbus.ConnectSessionBus()
	require.NoError(t, err)
	defer conn.Close()

	var has bool
	require.NoError(t, conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, name).Store(&has))
	return has
}

func busConfig(t *testing.T, entry string) *config.Config {
	t.Helper()
	return &config.Config{
		AppName:      "nowplaying test",
		DesktopEntry: entry,
		State:        config.StateConfig{Path: filepath.Join(t.TempDir(), "state.db")},
	}
}

func testEntry(suffix string) string {
	return fmt.Sprintf("nowplaying_test_%d_%s", os.Getpid(), suffix)
}

func TestSessionBusActionReachesHandler(t *testing.T) {
	srv := startNotificationServer(t)
	entry := testEntry("action")

	rec := newRecorder()
	c, err := New(busConfig(t, entry), Options{Handler: rec})
	require.NoError(t, err)
	defer c.Close()

	h := nowplaying.New(c)
	defer h.Release()

	require.Eventually(t, func() bool {
		return nameHasOwner(t, "org.mpris.MediaPlayer2."+entry)
	}, 2*time.Second, 20*time.Millisecond, "MPRIS name not claimed")

	h.ShowPlayerNotification(true, "", "Artist - Album", "Song")
	id := srv.waitPosted(t)

	require.NoError(t, srv.invoke(id, "PAUSE"))
	assert.Equal(t, action.Pause, rec.next(t))

	require.NoError(t, srv.invoke(id+100, "NEXT"))
	rec.none(t)
}

func TestNotifierSurvivesTakenMPRISName(t *testing.T) {
	srv := startNotificationServer(t)
	entry := testEntry("taken")
	claimName(t, "org.mpris.MediaPlayer2."+entry)

	rec := newRecorder()
	c, err := New(busConfig(t, entry), Options{Handler: rec})
	require.NoError(t, err)

	h := nowplaying.New(c)

	// Give the MPRIS server time to fail its name claim.
	time.Sleep(200 * time.Millisecond)

	h.ShowPlayerNotification(false, "", "Artist - Album", "Song")
	id := srv.waitPosted(t)

	require.NoError(t, srv.invoke(id, "PLAY"))
	assert.Equal(t, action.Play, rec.next(t))

	require.NoError(t, h.Release())
	srv.mu.Lock()
	closed := append([]uint32(nil), srv.closed...)
	srv.mu.Unlock()
	assert.Equal(t, []uint32{id}, closed)

	assert.NoError(t, c.Close())
}
