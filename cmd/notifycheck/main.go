// Posts a player notification on the session bus and logs the actions
// relayed back from it, for checking a notification server by hand.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/llehouerou/nowplaying/internal/action"
	"github.com/llehouerou/nowplaying/internal/app"
	"github.com/llehouerou/nowplaying/internal/config"
	"github.com/llehouerou/nowplaying/internal/errmsg"
	"github.com/llehouerou/nowplaying/internal/logging"
	"github.com/llehouerou/nowplaying/internal/nowplaying"
	"github.com/llehouerou/nowplaying/internal/track"
)

func main() {
	duration := flag.Duration("for", 30*time.Second, "how long to wait for actions")
	file := flag.String("file", "", "audio file to show instead of the sample track")
	verbose := flag.Bool("v", false, "log at debug level to stderr")
	flag.Parse()

	if *verbose {
		logging.Init("text", "debug", os.Stderr)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(errmsg.Format(errmsg.OpConfigLoad, err))
	}

	info := track.Info{Title: "Hells Bells", Artist: "AC/DC", Album: "Back in Black"}
	if *file != "" {
		info = track.Read(*file)
	}

	var h *nowplaying.Helper
	playing := true
	show := func() {
		h.ShowPlayerNotification(playing, info.Cover, info.ContentText(), info.Title)
	}

	actions := make(chan action.Action, 8)
	ctx, err := app.New(cfg, app.Options{
		Handler: relay(actions),
		Launch: func() error {
			log.Println("Notification clicked")
			return nil
		},
	})
	if err != nil {
		log.Fatal(errmsg.Format(errmsg.OpInitialize, err))
	}

	h = nowplaying.New(ctx)
	log.Printf("Showing %q - %q for %s", info.Title, info.ContentText(), *duration)
	show()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	timeout := time.After(*duration)

loop:
	for {
		select {
		case a := <-actions:
			log.Printf("Action: %s", a)
			switch a {
			case action.Play:
				playing = true
			case action.Pause:
				playing = false
			case action.Next:
				info.Title += " (next)"
			}
			show()
		case <-interrupt:
			break loop
		case <-timeout:
			break loop
		}
	}

	if err := h.Release(); err != nil {
		log.Println(errmsg.Format(errmsg.OpNotificationRelease, err))
	}
	if err := ctx.Close(); err != nil {
		log.Printf("Close: %v", err)
	}
	log.Println("Done")
}

// relay forwards actions to ch without blocking the bus dispatcher.
// Actions arriving while ch is full are dropped.
func relay(ch chan<- action.Action) action.Handler {
	return action.HandlerFunc(func(a action.Action) {
		select {
		case ch <- a:
		default:
			log.Printf("Dropped action %s", a)
		}
	})
}
