package filters

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

var (
	ErrNotFound         = errors.New("filter not found")
	ErrUnknownOperation = errors.New("unknown filter operation")
)

type ID string

const (
	IDOriginal ID = "original"
	IDChrome   ID = "chrome"
	IDFade     ID = "fade"
	IDInstant  ID = "instant"
	IDMono     ID = "mono"
	IDNoir     ID = "noir"
	IDProcess  ID = "process"
	IDTonal    ID = "tonal"
	IDTransfer ID = "transfer"
	IDPolaroid ID = "polaroid"
	IDInstax   ID = "instax"

	IDColorControls ID = "color_controls"
	IDSharpen       ID = "sharpen"
	IDVignette      ID = "vignette"
	IDRotate        ID = "rotate"
)

type Kind int

const (
	KindPhoto Kind = iota
	KindAdjustment
)

func (k Kind) String() string {
	switch k {
	case KindPhoto:
		return "photo"
	case KindAdjustment:
		return "adjustment"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Descriptor names a filter and the operation that implements it.
// An empty Operation means the filter passes its input through unchanged.
type Descriptor struct {
	ID        ID
	Title     string
	Kind      Kind
	Operation string
}

var photoFilters = []Descriptor{
	{ID: IDOriginal, Title: "Original", Kind: KindPhoto},
	{ID: IDChrome, Title: "Chrome", Kind: KindPhoto, Operation: "photo_effect_chrome"},
	{ID: IDFade, Title: "Fade", Kind: KindPhoto, Operation: "photo_effect_fade"},
	{ID: IDInstant, Title: "Instant", Kind: KindPhoto, Operation: "photo_effect_instant"},
	{ID: IDMono, Title: "Mono", Kind: KindPhoto, Operation: "photo_effect_mono"},
	{ID: IDNoir, Title: "Noir", Kind: KindPhoto, Operation: "photo_effect_noir"},
	{ID: IDProcess, Title: "Process", Kind: KindPhoto, Operation: "photo_effect_process"},
	{ID: IDTonal, Title: "Tonal", Kind: KindPhoto, Operation: "photo_effect_tonal"},
	{ID: IDTransfer, Title: "Transfer", Kind: KindPhoto, Operation: "photo_effect_transfer"},
	{ID: IDPolaroid, Title: "Polaroid", Kind: KindPhoto, Operation: "film_polaroid"},
	{ID: IDInstax, Title: "Instax", Kind: KindPhoto, Operation: "film_instax"},
}

var adjustments = []Descriptor{
	{ID: IDColorControls, Title: "Color Controls", Kind: KindAdjustment, Operation: "color_controls"},
	{ID: IDSharpen, Title: "Sharpen", Kind: KindAdjustment, Operation: "sharpen_luminance"},
	{ID: IDVignette, Title: "Vignette", Kind: KindAdjustment, Operation: "vignette"},
	{ID: IDRotate, Title: "Rotate", Kind: KindAdjustment, Operation: "affine_rotate"},
}

// Tool is a user-facing tuning control backed by an adjustment filter.
type Tool struct {
	Title      string
	Adjustment ID
}

var tuneTools = []Tool{
	{Title: "Brightness", Adjustment: IDColorControls},
	{Title: "Contrast", Adjustment: IDColorControls},
	{Title: "Saturation", Adjustment: IDColorControls},
	{Title: "Vignette", Adjustment: IDVignette},
}

var byID = func() map[ID]Descriptor {
	m := make(map[ID]Descriptor, len(photoFilters)+len(adjustments))
	for _, d := range photoFilters {
		m[d.ID] = d
	}
	for _, d := range adjustments {
		m[d.ID] = d
	}
	return m
}()

// PhotoFilters returns the named photo filters in gallery display order.
func PhotoFilters() []Descriptor {
	out := make([]Descriptor, len(photoFilters))
	copy(out, photoFilters)
	return out
}

// Adjustments returns the reusable adjustment filters.
func Adjustments() []Descriptor {
	out := make([]Descriptor, len(adjustments))
	copy(out, adjustments)
	return out
}

func TuneTools() []Tool {
	out := make([]Tool, len(tuneTools))
	copy(out, tuneTools)
	return out
}

func Resolve(id ID) (Descriptor, error) {
	d, ok := byID[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d, nil
}

// Apply runs the descriptor's operation on img at its default parameters.
func Apply(d Descriptor, img image.Image) (*image.NRGBA, error) {
	if d.Operation == "" {
		return imaging.Clone(img), nil
	}
	op, ok := operations[d.Operation]
	if !ok {
		return nil, fmt.Errorf("%w: %q (filter %s)", ErrUnknownOperation, d.Operation, d.ID)
	}
	return op(img), nil
}
