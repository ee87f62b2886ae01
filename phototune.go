package phototune

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/imamik/phototune/internal/chain"
	"github.com/imamik/phototune/internal/enhance"
	"github.com/imamik/phototune/internal/filters"
	"github.com/imamik/phototune/internal/gallery"
	"github.com/imamik/phototune/internal/pipeline"
	"github.com/imamik/phototune/internal/render"
)

type (
	Settings   = chain.Settings
	FilterID   = filters.ID
	Descriptor = filters.Descriptor
	Tool       = filters.Tool
	Preview    = gallery.Preview
	Sink       = pipeline.Sink
	Processor  = pipeline.Processor
	Options    = pipeline.Options
)

var (
	ErrSourceMissing = pipeline.ErrSourceMissing
	ErrExportFailed  = pipeline.ErrExportFailed
	ErrStepFailed    = chain.ErrStepFailed
	ErrFilterUnknown = filters.ErrNotFound
)

func DefaultSettings() Settings {
	return chain.DefaultSettings()
}

func DefaultOptions() Options {
	return pipeline.DefaultOptions()
}

// NewProcessor starts an editing session publishing to sink. A nil logger
// discards.
func NewProcessor(opts Options, sink Sink, logger logrus.FieldLogger) *Processor {
	return pipeline.New(opts, sink, logger)
}

func PhotoFilters() []Descriptor {
	return filters.PhotoFilters()
}

func TuneTools() []Tool {
	return filters.TuneTools()
}

// Tune applies s to img at full size, synchronously.
func Tune(ctx context.Context, img image.Image, s Settings) (*image.NRGBA, error) {
	var enhanced []chain.Step
	if s.AutoEnhance {
		enhanced = enhance.Analyze(img)
	}
	out, err := chain.Run(ctx, img, chain.Build(s, enhanced))
	if err != nil {
		return nil, err
	}
	return render.Materialize(out)
}

// Previews renders one thumbnail per photo filter, size bounding the longer
// side.
func Previews(ctx context.Context, img image.Image, size int) []Preview {
	return gallery.Generate(ctx, img, filters.PhotoFilters(), gallery.Options{Size: size})
}

// Process tunes the image at inputPath and writes it to outputPath. The
// output format follows the output extension.
func Process(ctx context.Context, inputPath, outputPath string, s Settings) error {
	img, err := imaging.Open(inputPath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	out, err := Tune(ctx, img, s)
	if err != nil {
		return err
	}
	if err := imaging.Save(out, outputPath, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to save output: %w", err)
	}
	return nil
}
