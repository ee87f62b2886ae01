package filters

import (
	"image"

	"github.com/disintegration/gift"
)

type operation func(img image.Image) *image.NRGBA

// operations maps operation names to their default-parameter implementation.
var operations = map[string]operation{
	"photo_effect_chrome": look(
		gift.Contrast(15),
		gift.Saturation(25),
	),
	"photo_effect_fade": look(
		gift.Saturation(-40),
		gift.ColorFunc(fadeCurve),
	),
	"photo_effect_instant": look(
		gift.ColorBalance(8, 0, -6),
		gift.Saturation(-10),
		gift.Gamma(1.1),
	),
	"photo_effect_mono": look(
		gift.Grayscale(),
	),
	"photo_effect_noir": look(
		gift.Grayscale(),
		gift.Sigmoid(0.5, 6),
	),
	"photo_effect_process": look(
		gift.ColorBalance(-5, 0, 10),
		gift.Contrast(10),
	),
	"photo_effect_tonal": look(
		gift.Grayscale(),
		gift.Contrast(-10),
	),
	"photo_effect_transfer": look(
		gift.ColorBalance(10, 5, -10),
		gift.Gamma(0.9),
	),
	"film_polaroid": look(
		gift.ColorFunc(vintageCurve),
		gift.Saturation(-15),
	),
	"film_instax": look(
		gift.ColorFunc(instaxCurve),
		gift.Saturation(-15),
	),

	"color_controls": func(img image.Image) *image.NRGBA {
		return ColorControls(img, 0, 0, 0)
	},
	"sharpen_luminance": func(img image.Image) *image.NRGBA {
		return Sharpen(img, 0.4, 1.69)
	},
	"vignette": func(img image.Image) *image.NRGBA {
		return Vignette(img, 0, 1)
	},
	"affine_rotate": func(img image.Image) *image.NRGBA {
		return Rotate(img, 0)
	},
}

func look(fs ...gift.Filter) operation {
	g := gift.New(fs...)
	return func(img image.Image) *image.NRGBA {
		dst := image.NewNRGBA(g.Bounds(img.Bounds()))
		g.Draw(dst, img)
		return dst
	}
}
