package filters

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// ColorControls adjusts brightness, contrast and saturation in one pass.
// Brightness is an additive offset of full scale; contrast and saturation
// are offsets from a factor of 1. All zero leaves the image unchanged.
// Contrast at or below -1 flattens every channel to mid grey.
func ColorControls(img image.Image, brightness, contrast, saturation float64) *image.NRGBA {
	lift := brightness * 255.0
	cf := math.Max(0, 1.0+contrast)
	sf := 1.0 + saturation
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)

		r, g, b = r+lift, g+lift, b+lift

		r = (r-127.5)*cf + 127.5
		g = (g-127.5)*cf + 127.5
		b = (b-127.5)*cf + 127.5

		lum := 0.299*r + 0.587*g + 0.114*b
		r = lum + (r-lum)*sf
		g = lum + (g-lum)*sf
		b = lum + (b-lum)*sf

		return color.NRGBA{clamp8(r), clamp8(g), clamp8(b), c.A}
	})
}

// Vignette darkens (positive intensity) or lightens (negative intensity) the
// image towards its corners. Falloff starts at radius, a fraction of the
// half diagonal, and reaches full strength at the corners.
func Vignette(img image.Image, intensity, radius float64) *image.NRGBA {
	src := imaging.Clone(img)
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w*h == 0 || intensity == 0 {
		return src
	}
	radius = math.Max(0, math.Min(0.99, radius))

	cx, cy := float64(w)/2.0, float64(h)/2.0
	maxR := math.Sqrt(cx*cx + cy*cy)

	dc := gg.NewContext(w, h)
	grad := gg.NewRadialGradient(cx, cy, maxR*radius, cx, cy, maxR)
	grad.AddColorStop(0, color.Black)
	grad.AddColorStop(1, color.White)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()
	mask := dc.Image()

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w; x++ {
			mr, _, _, _ := mask.At(x, y).RGBA()
			f := 1.0 - intensity*float64(mr)/65535.0
			i := x * 4
			row[i+0] = clamp8(float64(row[i+0]) * f)
			row[i+1] = clamp8(float64(row[i+1]) * f)
			row[i+2] = clamp8(float64(row[i+2]) * f)
		}
	}
	return src
}

// Sharpen applies an unsharp mask: the difference between the image and its
// gaussian blur of the given radius, scaled by intensity, is added back.
func Sharpen(img image.Image, intensity, radius float64) *image.NRGBA {
	src := imaging.Clone(img)
	bounds := src.Bounds()
	if bounds.Dx()*bounds.Dy() == 0 || intensity == 0 || radius <= 0 {
		return src
	}
	blurred := imaging.Blur(src, radius)

	res := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for i := 0; i+3 < len(src.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			s := float64(src.Pix[i+c])
			d := s - float64(blurred.Pix[i+c])
			res.Pix[i+c] = clamp8(s + d*intensity)
		}
		res.Pix[i+3] = src.Pix[i+3]
	}
	return res
}

// Rotate turns the image counter-clockwise by angle radians. The canvas grows
// to fit the rotated image and uncovered areas are transparent.
func Rotate(img image.Image, angle float64) *image.NRGBA {
	deg := angle * 180.0 / math.Pi
	// Snap so that quarter turns hit the exact, lossless rotations.
	if r := math.Round(deg); math.Abs(deg-r) < 1e-9 {
		deg = r
	}
	return imaging.Rotate(img, deg, color.Transparent)
}

// Levels stretches the [low, high] range of every channel to [0, 255].
func Levels(img image.Image, low, high uint8) *image.NRGBA {
	if high <= low {
		return imaging.Clone(img)
	}
	scale := 255.0 / float64(high-low)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		r := (float64(c.R) - float64(low)) * scale
		g := (float64(c.G) - float64(low)) * scale
		b := (float64(c.B) - float64(low)) * scale
		return color.NRGBA{clamp8(r), clamp8(g), clamp8(b), c.A}
	})
}

// Gamma applies a power curve; exponents above 1 lighten the image.
func Gamma(img image.Image, exponent float64) *image.NRGBA {
	return imaging.AdjustGamma(img, exponent)
}

func vintageCurve(r, g, b, a float32) (float32, float32, float32, float32) {
	const t = 25700.0 / 65535.0
	const band = 1280.0 / 65535.0
	switch {
	case r < t-band:
		r *= 1.05
	case r > t+band:
		r = r + (1-r)*0.1
	default:
		v1, v2 := r*1.05, r+(1-r)*0.1
		f := (r - (t - band)) / (2 * band)
		r = v1*(1-f) + v2*f
	}
	g = g*0.98 + 1280.0/65535.0
	b = b*0.85 + 5120.0/65535.0
	return clampUnit(r), clampUnit(g), clampUnit(b), a
}

func instaxCurve(r, g, b, a float32) (float32, float32, float32, float32) {
	if r > 51400.0/65535.0 {
		r *= 0.95
	} else if r > 12850.0/65535.0 {
		r *= 1.05
	}
	b = b*1.05 + 1280.0/65535.0
	return clampUnit(r), g, clampUnit(b), a
}

func fadeCurve(r, g, b, a float32) (float32, float32, float32, float32) {
	return r*0.85 + 0.1, g*0.85 + 0.1, b*0.85 + 0.1, a
}

func clamp8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
