// Package enhance derives an automatic correction chain from the tonal
// statistics of an image.
package enhance

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/imamik/phototune/internal/chain"
)

const (
	lowCutoff  = 0.5 // percent of pixels clipped at the dark end
	highCutoff = 0.5 // percent of pixels clipped at the light end

	// Analysis runs on a reduced copy; statistics are stable well below this.
	analysisSize = 256

	minChroma   = 0.12
	chromaBoost = 0.2
)

// Analyze returns the correction steps for img, in application order.
// A balanced image yields an empty slice.
func Analyze(img image.Image) []chain.Step {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	small := imaging.Fit(img, analysisSize, analysisSize, imaging.Box)
	bounds := small.Bounds()
	total := bounds.Dx() * bounds.Dy()

	var hist [256]int
	var sumLum, sumChroma float64
	for i := 0; i+3 < len(small.Pix); i += 4 {
		r, g, b := float64(small.Pix[i]), float64(small.Pix[i+1]), float64(small.Pix[i+2])
		lum := 0.299*r + 0.587*g + 0.114*b
		hist[int(lum)]++
		sumLum += lum
		sumChroma += (math.Max(r, math.Max(g, b)) - math.Min(r, math.Min(g, b))) / 255.0
	}

	var steps []chain.Step

	low, high := findRange(hist, total)
	if high > low && (low > 0 || high < 255) {
		steps = append(steps, chain.Levels{Low: low, High: high})
	}

	mean := sumLum / float64(total)
	if high > low {
		mean = (mean - float64(low)) * 255.0 / float64(high-low)
	}
	if g := gammaFor(mean); g != 1 {
		steps = append(steps, chain.Gamma{Exponent: g})
	}

	if chroma := sumChroma / float64(total); chroma > 0.01 && chroma < minChroma {
		steps = append(steps, chain.ColorControls{Saturation: chromaBoost})
	}
	return steps
}

func findRange(hist [256]int, total int) (uint8, uint8) {
	lowThr := int(float64(total) * lowCutoff / 100.0)
	highThr := int(float64(total) * highCutoff / 100.0)
	low, high := 0, 255
	sum := 0
	for i := 0; i < 256; i++ {
		sum += hist[i]
		if sum > lowThr {
			low = i
			break
		}
	}
	sum = 0
	for i := 255; i >= 0; i-- {
		sum += hist[i]
		if sum > highThr {
			high = i
			break
		}
	}
	return uint8(low), uint8(high) //nolint:gosec // both in [0, 255]
}

// gammaFor maps the mean luminance towards mid grey. Means within a band
// around the middle are left alone.
func gammaFor(mean float64) float64 {
	m := mean / 255.0
	if m <= 0.01 || m >= 0.99 || math.Abs(m-0.5) < 0.1 {
		return 1
	}
	// imaging.AdjustGamma computes out = in^(1/g); solve for mean -> 0.5.
	g := math.Log(m) / math.Log(0.5)
	g = math.Max(0.5, math.Min(2.0, g))
	return math.Round(g*100) / 100
}
