package chain

import (
	"fmt"
	"image"

	"github.com/imamik/phototune/internal/filters"
)

type Kind int

const (
	KindRotate Kind = iota
	KindColorControls
	KindVignette
	KindSharpen
	KindNamedFilter
	KindAutoEnhance
	KindLevels
	KindGamma
)

var kindNames = [...]string{
	KindRotate:        "rotate",
	KindColorControls: "color_controls",
	KindVignette:      "vignette",
	KindSharpen:       "sharpen",
	KindNamedFilter:   "named_filter",
	KindAutoEnhance:   "auto_enhance",
	KindLevels:        "levels",
	KindGamma:         "gamma",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Step is one transformation in a chain. The set of implementations is
// closed: Rotate, ColorControls, Vignette, Sharpen, NamedFilter, AutoEnhance,
// Levels and Gamma.
type Step interface {
	Kind() Kind
	// Neutral reports whether Apply would return its input unchanged.
	Neutral() bool
	Apply(src image.Image) (image.Image, error)

	step()
}

type Rotate struct {
	Angle float64
}

func (Rotate) Kind() Kind      { return KindRotate }
func (s Rotate) Neutral() bool { return normalizeAngle(s.Angle) == 0 }
func (Rotate) step()           {}

func (s Rotate) Apply(src image.Image) (image.Image, error) {
	return filters.Rotate(src, s.Angle), nil
}

type ColorControls struct {
	Brightness float64
	Contrast   float64
	Saturation float64
}

func (ColorControls) Kind() Kind { return KindColorControls }
func (ColorControls) step()      {}

func (s ColorControls) Neutral() bool {
	return s.Brightness == 0 && s.Contrast == 0 && s.Saturation == 0
}

func (s ColorControls) Apply(src image.Image) (image.Image, error) {
	return filters.ColorControls(src, s.Brightness, s.Contrast, s.Saturation), nil
}

type Vignette struct {
	Intensity float64
	Radius    float64
}

func (Vignette) Kind() Kind      { return KindVignette }
func (s Vignette) Neutral() bool { return s.Intensity == 0 }
func (Vignette) step()           {}

func (s Vignette) Apply(src image.Image) (image.Image, error) {
	return filters.Vignette(src, s.Intensity, s.Radius), nil
}

type Sharpen struct {
	Intensity float64
	Radius    float64
}

func (Sharpen) Kind() Kind      { return KindSharpen }
func (s Sharpen) Neutral() bool { return s.Intensity == 0 || s.Radius <= 0 }
func (Sharpen) step()           {}

func (s Sharpen) Apply(src image.Image) (image.Image, error) {
	return filters.Sharpen(src, s.Intensity, s.Radius), nil
}

// NamedFilter applies one registered photo filter at its default parameters.
type NamedFilter struct {
	ID filters.ID
}

func (NamedFilter) Kind() Kind { return KindNamedFilter }
func (NamedFilter) step()      {}

func (s NamedFilter) Neutral() bool {
	d, err := filters.Resolve(s.ID)
	return err == nil && d.Operation == ""
}

func (s NamedFilter) Apply(src image.Image) (image.Image, error) {
	d, err := filters.Resolve(s.ID)
	if err != nil {
		return nil, err
	}
	return filters.Apply(d, src)
}

// AutoEnhance runs a precomputed sub-chain after every other step.
type AutoEnhance struct {
	Steps []Step
}

func (AutoEnhance) Kind() Kind { return KindAutoEnhance }
func (AutoEnhance) step()      {}

func (s AutoEnhance) Neutral() bool {
	for _, st := range s.Steps {
		if !st.Neutral() {
			return false
		}
	}
	return true
}

func (s AutoEnhance) Apply(src image.Image) (image.Image, error) {
	img := src
	for _, st := range s.Steps {
		if st.Neutral() {
			continue
		}
		out, err := st.Apply(img)
		if err != nil {
			return nil, &StepError{Kind: st.Kind(), Err: err}
		}
		img = out
	}
	return img, nil
}

type Levels struct {
	Low, High uint8
}

func (Levels) Kind() Kind      { return KindLevels }
func (s Levels) Neutral() bool { return s.Low == 0 && s.High == 255 }
func (Levels) step()           {}

func (s Levels) Apply(src image.Image) (image.Image, error) {
	if s.High <= s.Low {
		return nil, fmt.Errorf("empty levels range [%d, %d]", s.Low, s.High)
	}
	return filters.Levels(src, s.Low, s.High), nil
}

type Gamma struct {
	Exponent float64
}

func (Gamma) Kind() Kind      { return KindGamma }
func (s Gamma) Neutral() bool { return s.Exponent == 1 }
func (Gamma) step()           {}

func (s Gamma) Apply(src image.Image) (image.Image, error) {
	if s.Exponent <= 0 {
		return nil, fmt.Errorf("gamma exponent %v must be positive", s.Exponent)
	}
	return filters.Gamma(src, s.Exponent), nil
}
