// Package gallery renders one thumbnail per photo filter.
package gallery

import (
	"context"
	"image"
	"io"
	"runtime"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/imamik/phototune/internal/filters"
)

type Preview struct {
	ID    filters.ID
	Title string
	// Image is nil when the filter failed for this entry.
	Image *image.NRGBA
}

type Options struct {
	// Size bounds the thumbnail's longer side. 0 keeps the input size.
	Size    int
	Workers int
	Logger  logrus.FieldLogger
}

// Generate applies every descriptor independently to a thumbnail of img.
// The result has one entry per descriptor, in the same order. A failing
// filter leaves its entry's Image nil and does not affect the others.
func Generate(ctx context.Context, img image.Image, descriptors []filters.Descriptor, opts Options) []Preview {
	log := opts.Logger
	if log == nil {
		log = discard()
	}
	previews := make([]Preview, len(descriptors))
	for i, d := range descriptors {
		previews[i] = Preview{ID: d.ID, Title: d.Title}
	}
	if img == nil || img.Bounds().Empty() {
		log.Warn("gallery: no image to preview")
		return previews
	}

	thumb := imaging.Clone(img)
	if opts.Size > 0 {
		thumb = imaging.Fit(img, opts.Size, opts.Size, imaging.Lanczos)
	}

	workers := opts.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, d := range descriptors {
		i, d := i, d
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			out, err := filters.Apply(d, thumb)
			if err != nil {
				log.WithFields(logrus.Fields{
					"filter": d.ID,
					"error":  err,
				}).Warn("gallery: filter preview failed")
				return nil
			}
			previews[i].Image = out
			return nil
		})
	}
	_ = g.Wait()
	return previews
}

func discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
