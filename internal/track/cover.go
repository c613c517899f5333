package track

import (
	"os"
	"path/filepath"
	"strings"
)

// coverNames lists folder art filenames in priority order.
var coverNames = []string{
	"cover.jpg", "cover.jpeg", "cover.png",
	"folder.jpg", "folder.jpeg", "folder.png",
	"album.jpg", "album.jpeg", "album.png",
	"front.jpg", "front.jpeg", "front.png",
	"artwork.jpg", "artwork.jpeg", "artwork.png",
}

// FindCover returns the folder art next to the track at path, or "".
// Names are matched case-insensitively, earlier entries of coverNames win.
func FindCover(path string) string {
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		return ""
	}

	found := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lower := strings.ToLower(e.Name())
		if _, ok := found[lower]; !ok {
			found[lower] = e.Name()
		}
	}

	for _, name := range coverNames {
		if actual, ok := found[name]; ok {
			return filepath.Join(filepath.Dir(path), actual)
		}
	}
	return ""
}
