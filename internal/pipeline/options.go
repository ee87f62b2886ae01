package pipeline

import (
	"runtime"
	"time"

	"github.com/imamik/phototune/internal/render"
	"github.com/imamik/phototune/internal/throttle"
)

type Options struct {
	// ThrottleDelay is the minimum interval between two preview renders.
	ThrottleDelay time.Duration
	// PreviewMaxSize bounds the longer side of the preview source. 0 keeps
	// the source as given.
	PreviewMaxSize int
	// PreviewQuality is the JPEG quality the preview base is round-tripped
	// through. 0 disables the round trip.
	PreviewQuality int
	Workers        int
	ThumbnailSize  int
	CacheEntries   int
	// Dispatcher receives publications and export completions. Nil runs
	// them on the render goroutine.
	Dispatcher render.Dispatcher

	throttleOpts []throttle.Option
}

func DefaultOptions() Options {
	return Options{
		ThrottleDelay:  throttle.DefaultDelay,
		PreviewMaxSize: 1280,
		PreviewQuality: 80,
		Workers:        runtime.GOMAXPROCS(0),
		ThumbnailSize:  160,
		CacheEntries:   8,
	}
}
