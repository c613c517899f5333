// Package track reads what the player notification shows about a file.
package track

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

var audioExts = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
	".opus": true,
}

// Info describes a track.
type Info struct {
	Path   string
	Title  string
	Artist string
	Album  string
	Cover  string // path to folder art, empty if none
}

// Read returns the tags of the file at path. Files without readable
// tags fall back to their base name as title.
func Read(path string) Info {
	info := Info{
		Path:  path,
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Cover: FindCover(path),
	}

	f, err := os.Open(path)
	if err != nil {
		return info
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return info
	}

	if title := strings.TrimSpace(m.Title()); title != "" {
		info.Title = title
	}
	info.Artist = strings.TrimSpace(m.Artist())
	if info.Artist == "" {
		info.Artist = strings.TrimSpace(m.AlbumArtist())
	}
	info.Album = strings.TrimSpace(m.Album())

	return info
}

// ContentText is the notification body: "Artist - Album", or whichever
// of the two is set.
func (i Info) ContentText() string {
	switch {
	case i.Artist != "" && i.Album != "":
		return i.Artist + " - " + i.Album
	case i.Artist != "":
		return i.Artist
	default:
		return i.Album
	}
}

// IsAudioFile reports whether path has a known audio extension.
func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}
