//go:build !linux

package mpris

import (
	"log/slog"

	"github.com/llehouerou/nowplaying/internal/nowplaying"
)

// Options configures an Adapter.
type Options struct {
	Name     string
	Identity string
	Send     func(key string)
	Raise    func() error
	Logger   *slog.Logger
}

// Adapter is a no-op on non-Linux platforms.
type Adapter struct{}

// New returns a no-op adapter on non-Linux platforms.
func New(_ nowplaying.StatusSource, _ Options) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *Adapter) Close() error {
	return nil
}
