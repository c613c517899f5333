package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appDir = "nowplaying"

type Config struct {
	AppName      string `koanf:"app_name"`      // shown by the notification server
	DesktopEntry string `koanf:"desktop_entry"` // .desktop file name without extension
	Icon         string `koanf:"icon"`          // small icon name or path
	IconSize     int    `koanf:"icon_size"`     // max edge of the large icon in pixels

	Channel ChannelConfig `koanf:"channel"`
	Log     LogConfig     `koanf:"log"`
	MPRIS   MPRISConfig   `koanf:"mpris"`
	State   StateConfig   `koanf:"state"`
}

// ChannelConfig holds presentation settings for the media player channel.
type ChannelConfig struct {
	Name     string `koanf:"name"`     // default: "Media Player"
	Urgency  string `koanf:"urgency"`  // "low", "normal", "critical" (default: "low")
	Category string `koanf:"category"` // default: "x-gnome.music"
}

// LogConfig configures the log file.
type LogConfig struct {
	Level  string `koanf:"level"`  // "debug", "info", "warn", "error" (default: "info")
	Format string `koanf:"format"` // "text" or "json" (default: "text")
	File   string `koanf:"file"`   // default: XDG state dir
}

// MPRISConfig controls the MPRIS companion service.
type MPRISConfig struct {
	Enabled *bool `koanf:"enabled"` // default: true
}

// StateConfig locates the state database.
type StateConfig struct {
	Path string `koanf:"path"` // default: XDG state dir
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.AppName = strings.TrimSpace(cfg.AppName)
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.State.Path = expandPath(cfg.State.Path)
	cfg.Icon = expandPath(cfg.Icon)

	return cfg, nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/nowplaying/config.toml
		filepath.Join(xdg.ConfigHome, appDir, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetAppName returns the application name with its default applied.
func (c *Config) GetAppName() string {
	if c.AppName == "" {
		return "Now Playing"
	}
	return c.AppName
}

// GetDesktopEntry returns the desktop entry with its default applied.
func (c *Config) GetDesktopEntry() string {
	if c.DesktopEntry == "" {
		return appDir
	}
	return c.DesktopEntry
}

// GetIcon returns the small icon with its default applied.
func (c *Config) GetIcon() string {
	if c.Icon == "" {
		return "audio-x-generic"
	}
	return c.Icon
}

// GetIconSize returns the large icon size with its default applied.
func (c *Config) GetIconSize() uint {
	if c.IconSize <= 0 || c.IconSize > 1024 {
		return 256
	}
	return uint(c.IconSize)
}

// GetChannelConfig returns the channel configuration with defaults applied.
func (c *Config) GetChannelConfig() ChannelConfig {
	cfg := c.Channel

	if cfg.Name == "" {
		cfg.Name = "Media Player"
	}
	switch strings.ToLower(cfg.Urgency) {
	case "low", "normal", "critical":
		cfg.Urgency = strings.ToLower(cfg.Urgency)
	default:
		cfg.Urgency = "low"
	}
	if cfg.Category == "" {
		cfg.Category = "x-gnome.music"
	}

	return cfg
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log

	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format != "json" {
		cfg.Format = "text"
	}
	if cfg.File == "" {
		if path, err := xdg.StateFile(filepath.Join(appDir, "nowplaying.log")); err == nil {
			cfg.File = path
		}
	}

	return cfg
}

// MPRISEnabled returns true unless the companion service is disabled.
func (c *Config) MPRISEnabled() bool {
	return c.MPRIS.Enabled == nil || *c.MPRIS.Enabled
}
