package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/imamik/phototune/internal/chain"
	"github.com/imamik/phototune/internal/enhance"
	"github.com/imamik/phototune/internal/filters"
	"github.com/imamik/phototune/internal/gallery"
	"github.com/imamik/phototune/internal/render"
	"github.com/imamik/phototune/internal/throttle"
)

var (
	ErrSourceMissing = errors.New("no source image")
	ErrExportFailed  = errors.New("full-size export failed")
	ErrClosed        = errors.New("processor closed")
)

// Sink is the host side of a processor.
type Sink interface {
	// Publish receives each completed, non-superseded preview on the
	// dispatcher's context.
	Publish(img *image.NRGBA)
	// FetchOriginal returns the full-resolution source for export.
	FetchOriginal() (image.Image, error)
}

type request struct {
	settings   chain.Settings
	version    uint64
	generation uint64
}

// Processor owns one editing session: the preview source, the current
// settings and the last published preview.
type Processor struct {
	opts      Options
	sink      Sink
	log       logrus.FieldLogger
	pool      *render.Pool
	rctx      *render.Context
	dispatch  render.Dispatcher
	throttler *throttle.Throttler[request]

	mu         sync.Mutex
	source     *image.NRGBA
	generation uint64
	genCtx     context.Context
	genCancel  context.CancelFunc
	settings   chain.Settings
	version    uint64
	output     *image.NRGBA
	published  uint64
	closed     bool

	enhanceGen   uint64
	enhanceSteps []chain.Step
	enhanceValid bool
}

func New(opts Options, sink Sink, logger logrus.FieldLogger) *Processor {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	dispatch := opts.Dispatcher
	if dispatch == nil {
		dispatch = render.Inline{}
	}
	p := &Processor{
		opts:     opts,
		sink:     sink,
		log:      logger,
		pool:     render.NewPool(opts.Workers),
		rctx:     render.NewContext(opts.CacheEntries),
		dispatch: dispatch,
		settings: chain.DefaultSettings(),
	}
	p.genCtx, p.genCancel = context.WithCancel(context.Background())
	p.throttler = throttle.New(opts.ThrottleDelay, p.renderRequest, opts.throttleOpts...)
	return p
}

// SetSource replaces the preview source. Pending and in-flight previews for
// the previous source are discarded, as is the cached auto-enhancement.
func (p *Processor) SetSource(img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return ErrSourceMissing
	}
	var src *image.NRGBA
	if size := p.opts.PreviewMaxSize; size > 0 {
		src = imaging.Fit(img, size, size, imaging.Lanczos)
	} else {
		src = imaging.Clone(img)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.genCancel()
	p.genCtx, p.genCancel = context.WithCancel(context.Background())
	p.generation++
	p.source = src
	p.output = nil
	p.published = 0
	p.enhanceValid = false
	p.enhanceSteps = nil
	gen := p.generation
	// Cancel before unlocking so an Update for the new source is never
	// dropped with the old source's pending render.
	p.throttler.Cancel()
	p.mu.Unlock()

	p.log.WithFields(logrus.Fields{
		"generation": gen,
		"width":      src.Bounds().Dx(),
		"height":     src.Bounds().Dy(),
	}).Debug("source image set")
	return nil
}

func (p *Processor) Source() *image.NRGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}

func (p *Processor) Settings() chain.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

// Update replaces the current settings and schedules a preview render.
func (p *Processor) Update(s chain.Settings) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.version++
	p.settings = s
	req := p.requestLocked()
	p.mu.Unlock()

	p.throttler.Notify(req)
}

// Output returns the last published preview.
func (p *Processor) Output() *image.NRGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output
}

// RenderPreview renders the current settings in the background, bypassing
// the throttle. The result is delivered only through the dispatcher, so it
// is safe to call from the interactive context.
func (p *Processor) RenderPreview(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	req := p.requestLocked()
	genCtx := p.genCtx
	p.mu.Unlock()

	go func() {
		ctx, cancel := mergeCancel(ctx, genCtx)
		defer cancel()
		p.renderAndPublish(ctx, req)
	}()
	return nil
}

// Render renders the current settings against the preview source and
// returns the bitmap without publishing it. It blocks until the chain has
// run and must not be called from the interactive context.
func (p *Processor) Render(ctx context.Context) (*image.NRGBA, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	req := p.requestLocked()
	genCtx := p.genCtx
	p.mu.Unlock()

	ctx, cancel := mergeCancel(ctx, genCtx)
	defer cancel()
	return p.renderOnPool(ctx, req)
}

// ExportFullSize renders the current settings against the full-resolution
// original in the background. completion runs on the dispatcher with the
// bitmap, or with an error matching ErrExportFailed.
func (p *Processor) ExportFullSize(ctx context.Context, completion func(*image.NRGBA, error)) {
	go func() {
		bmp, err := p.Export(ctx)
		p.dispatch.Dispatch(func() { completion(bmp, err) })
	}()
}

// Export is the blocking form of ExportFullSize. Settings are captured when
// it is called; later updates do not affect the result.
func (p *Processor) Export(ctx context.Context) (*image.NRGBA, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	s := p.settings
	p.mu.Unlock()

	start := time.Now()
	bmp, err := render.Do(ctx, p.pool, func() (*image.NRGBA, error) {
		defer p.rctx.Clear()
		return p.exportBitmap(ctx, s)
	})
	if err != nil {
		if !errors.Is(err, ErrExportFailed) {
			err = fmt.Errorf("%w: %w", ErrExportFailed, err)
		}
		p.log.WithError(err).Warn("full-size export failed")
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"width":      bmp.Bounds().Dx(),
		"height":     bmp.Bounds().Dy(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("full-size export done")
	return bmp, nil
}

// ClearCache drops the render context cache. Safe during renders.
func (p *Processor) ClearCache() {
	p.rctx.Clear()
}

// Previews renders the photo-filter gallery for img.
func (p *Processor) Previews(ctx context.Context, img image.Image) []gallery.Preview {
	return gallery.Generate(ctx, img, filters.PhotoFilters(), gallery.Options{
		Size:    p.opts.ThumbnailSize,
		Workers: p.opts.Workers,
		Logger:  p.log,
	})
}

// Close tears the session down. Pending renders are dropped and nothing is
// published afterwards.
func (p *Processor) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.genCancel()
	p.mu.Unlock()

	p.throttler.Stop()
	p.pool.Close()
	p.rctx.Clear()
}

func (p *Processor) requestLocked() request {
	return request{
		settings:   p.settings,
		version:    p.version,
		generation: p.generation,
	}
}

// renderRequest is the throttle fire. It blocks until the bitmap is ready so
// the throttle sees one render in flight at a time.
func (p *Processor) renderRequest(req request) {
	p.mu.Lock()
	if p.closed || req.generation != p.generation {
		p.mu.Unlock()
		return
	}
	ctx := p.genCtx
	p.mu.Unlock()

	p.renderAndPublish(ctx, req)
}

func (p *Processor) renderAndPublish(ctx context.Context, req request) {
	bmp, err := p.renderOnPool(ctx, req)
	if err != nil {
		return
	}
	p.dispatch.Dispatch(func() { p.publish(req, bmp) })
}

func (p *Processor) renderOnPool(ctx context.Context, req request) (*image.NRGBA, error) {
	start := time.Now()
	bmp, err := render.Do(ctx, p.pool, func() (*image.NRGBA, error) {
		return p.renderBitmap(ctx, req)
	})
	log := p.log.WithFields(logrus.Fields{
		"version":    req.version,
		"generation": req.generation,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, render.ErrPoolClosed) {
			log.Debug("preview render cancelled")
		} else {
			log.WithError(err).Warn("preview render failed")
		}
		return nil, err
	}
	log.Debug("preview rendered")
	return bmp, nil
}

func (p *Processor) renderBitmap(ctx context.Context, req request) (*image.NRGBA, error) {
	p.mu.Lock()
	src := p.source
	gen := p.generation
	p.mu.Unlock()

	if src == nil {
		return nil, ErrSourceMissing
	}
	if gen != req.generation {
		return nil, context.Canceled
	}

	base, err := p.rctx.Load(fmt.Sprintf("preview-base/%d", gen), func() (*image.NRGBA, error) {
		return render.Recompress(src, p.opts.PreviewQuality)
	})
	if err != nil {
		return nil, err
	}

	var enhanced []chain.Step
	if req.settings.AutoEnhance {
		enhanced = p.autoEnhance(gen, src)
	}

	out, err := chain.Run(ctx, base, chain.Build(req.settings, enhanced))
	if err != nil {
		return nil, err
	}
	return render.Materialize(out)
}

func (p *Processor) exportBitmap(ctx context.Context, s chain.Settings) (*image.NRGBA, error) {
	if p.sink == nil {
		return nil, fmt.Errorf("%w: no sink to fetch the original from", ErrExportFailed)
	}
	original, err := p.sink.FetchOriginal()
	if err != nil {
		return nil, fmt.Errorf("%w: fetch original: %w", ErrExportFailed, err)
	}
	if original == nil || original.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, ErrSourceMissing)
	}

	var enhanced []chain.Step
	if s.AutoEnhance {
		enhanced = enhance.Analyze(original)
	}
	out, err := chain.Run(ctx, original, chain.Build(s, enhanced))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	bmp, err := render.Materialize(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return bmp, nil
}

// autoEnhance returns the correction steps for the source of generation gen,
// analysing the source once per generation.
func (p *Processor) autoEnhance(gen uint64, src image.Image) []chain.Step {
	p.mu.Lock()
	if p.enhanceValid && p.enhanceGen == gen {
		steps := p.enhanceSteps
		p.mu.Unlock()
		return steps
	}
	p.mu.Unlock()

	steps := enhance.Analyze(src)

	p.mu.Lock()
	if gen == p.generation {
		p.enhanceGen = gen
		p.enhanceSteps = steps
		p.enhanceValid = true
	}
	p.mu.Unlock()
	p.log.WithFields(logrus.Fields{
		"generation": gen,
		"steps":      len(steps),
	}).Debug("auto-enhancement analysed")
	return steps
}

func (p *Processor) publish(req request, bmp *image.NRGBA) {
	p.mu.Lock()
	if p.closed || req.generation != p.generation || req.version < p.published {
		p.mu.Unlock()
		p.log.WithFields(logrus.Fields{
			"version":    req.version,
			"generation": req.generation,
		}).Debug("stale preview dropped")
		return
	}
	p.output = bmp
	p.published = req.version
	sink := p.sink
	p.mu.Unlock()

	if sink != nil {
		sink.Publish(bmp)
	}
}

// mergeCancel returns a context that ends when either parent does.
func mergeCancel(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
