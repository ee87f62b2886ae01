package chain

import (
	"math"

	"github.com/imamik/phototune/internal/filters"
)

const (
	DefaultSharpnessRadius = 1.69
	DefaultVignetteRadius  = 0.5
)

// Settings is one complete set of tuning parameters. The zero value is the
// identity: every intensity is neutral, no filter is selected and
// auto-enhancement is off.
type Settings struct {
	Brightness float64
	Contrast   float64
	Saturation float64

	SharpnessIntensity float64
	SharpnessRadius    float64

	VignetteIntensity float64
	VignetteRadius    float64

	// Rotation is in radians, counter-clockwise.
	Rotation float64

	Filter      filters.ID
	AutoEnhance bool
}

func DefaultSettings() Settings {
	return Settings{
		SharpnessRadius: DefaultSharpnessRadius,
		VignetteRadius:  DefaultVignetteRadius,
	}
}

// Neutral reports whether running the chain for s would leave any image
// unchanged. Auto-enhancement depends on the image, so it never counts as
// neutral.
func (s Settings) Neutral() bool {
	if s.AutoEnhance {
		return false
	}
	for _, st := range Build(s, nil) {
		if !st.Neutral() {
			return false
		}
	}
	return true
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
