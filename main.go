package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/nowplaying/internal/action"
	"github.com/llehouerou/nowplaying/internal/app"
	"github.com/llehouerou/nowplaying/internal/config"
	"github.com/llehouerou/nowplaying/internal/errmsg"
	"github.com/llehouerou/nowplaying/internal/keymap"
	"github.com/llehouerou/nowplaying/internal/logging"
	"github.com/llehouerou/nowplaying/internal/nowplaying"
	"github.com/llehouerou/nowplaying/internal/track"
)

var playerBarStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240"))

var (
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	flashStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// actionMsg carries a request relayed from the notification.
type actionMsg action.Action

// launchMsg is sent when the notification body is clicked.
type launchMsg struct{}

// eventHandler forwards notification events to the program.
type eventHandler chan<- tea.Msg

func (h eventHandler) OnActionRequested(a action.Action) {
	select {
	case h <- actionMsg(a):
	default:
	}
}

func (h eventHandler) launch() error {
	select {
	case h <- launchMsg{}:
	default:
	}
	return nil
}

var keys = keymap.NewResolver(keymap.All)

type model struct {
	ctx     *app.Context
	helper  *nowplaying.Helper
	events  <-chan tea.Msg
	tracks  []track.Info
	index   int
	playing bool
	hidden  bool
	flash   string
	width   int
}

func initialModel(cfg *config.Config, paths []string) (model, error) {
	tracks := loadTracks(paths)
	if len(tracks) == 0 {
		return model{}, fmt.Errorf("no audio files in %s", strings.Join(paths, ", "))
	}

	events := make(chan tea.Msg, 16)
	handler := eventHandler(events)

	ctx, err := app.New(cfg, app.Options{
		Handler: handler,
		Launch:  handler.launch,
	})
	if err != nil {
		return model{}, err
	}

	return model{
		ctx:    ctx,
		helper: nowplaying.New(ctx),
		events: events,
		tracks: tracks,
	}, nil
}

// loadTracks reads audio files named in paths. Directories contribute
// their audio files in name order.
func loadTracks(paths []string) []track.Info {
	var tracks []track.Info
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			if track.IsAudioFile(p) {
				tracks = append(tracks, track.Read(p))
			}
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			continue
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() && track.IsAudioFile(e.Name()) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			tracks = append(tracks, track.Read(filepath.Join(p, name)))
		}
	}
	return tracks
}

func (m model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func (m model) current() track.Info {
	return m.tracks[m.index]
}

// show posts the notification for the current track and state.
func (m model) show() {
	t := m.current()
	m.helper.ShowPlayerNotification(m.playing, t.Cover, t.ContentText(), t.Title)
}

func (m model) apply(a action.Action) model {
	switch a {
	case action.Play:
		m.playing = true
	case action.Pause:
		m.playing = false
	case action.Next:
		m.index = (m.index + 1) % len(m.tracks)
	}
	m.hidden = false
	m.show()
	return m
}

func (m model) quit() (tea.Model, tea.Cmd) {
	if err := m.helper.Release(); err != nil {
		logging.L("main").Warn(errmsg.Format(errmsg.OpNotificationRelease, err))
	}
	if err := m.ctx.Close(); err != nil {
		logging.L("main").Warn("close context", logging.Err(err))
	}
	return m, tea.Quit
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case actionMsg:
		m = m.apply(action.Action(msg))
		m.flash = "from notification: " + action.Action(msg).String()
		return m, waitForEvent(m.events)

	case launchMsg:
		m.flash = "notification clicked"
		return m, waitForEvent(m.events)

	case tea.KeyMsg:
		m.flash = ""
		switch keys.Resolve(msg.String()) {
		case keymap.ActionQuit:
			return m.quit()
		case keymap.ActionPlayPause:
			if m.playing {
				m = m.apply(action.Pause)
			} else {
				m = m.apply(action.Play)
			}
		case keymap.ActionNextTrack:
			m = m.apply(action.Next)
		case keymap.ActionHide:
			m.hidden = true
			m.helper.HidePlayerNotification()
		case keymap.ActionShow:
			m.hidden = false
			m.show()
		}
	}

	return m, nil
}

func (m model) View() string {
	t := m.current()

	status := "⏸"
	if m.playing {
		status = "▶"
	}
	if m.hidden {
		status = "·"
	}

	left := " " + status + "  " + t.Title
	if body := t.ContentText(); body != "" {
		left += "  " + dimStyle.Render(body)
	}
	right := fmt.Sprintf("%d/%d ", m.index+1, len(m.tracks))

	innerWidth := m.width - 2
	if innerWidth < 0 {
		innerWidth = 0
	}
	padding := innerWidth - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	bar := playerBarStyle.Width(innerWidth).Render(left + strings.Repeat(" ", padding) + right)

	help := dimStyle.Render(fmt.Sprintf(" %s  [%s]", keys.Help(keymap.All), m.helper.State()))
	view := bar + "\n" + help
	if m.flash != "" {
		view += "\n " + flashStyle.Render(m.flash)
	}
	return view
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: nowplaying <file or directory>...")
		os.Exit(2)
	}
	os.Exit(run(os.Args[1:]))
}

func run(paths []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println(errmsg.Format(errmsg.OpConfigLoad, err))
		return 1
	}

	logCfg := cfg.GetLogConfig()
	logFile, err := logging.OpenFile(logCfg.File)
	if err != nil {
		fmt.Println(errmsg.FormatWith(errmsg.OpLogOpen, logCfg.File, err))
		return 1
	}
	defer logFile.Close()
	logging.Init(logCfg.Format, logCfg.Level, logFile)

	m, err := initialModel(cfg, paths)
	if err != nil {
		fmt.Println(errmsg.Format(errmsg.OpInitialize, err))
		return 1
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		return 1
	}
	return 0
}
