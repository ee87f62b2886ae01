package filters

import (
	"errors"
	"hash/fnv"
	"image"
	"image/color"
	"math"
	"testing"
)

func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / max(width, 1))  //nolint:gosec // test image generation
			g := uint8((y * 255) / max(height, 1)) //nolint:gosec // test image generation
			b := uint8(128)
			img.Set(x, y, color.NRGBA{r, g, b, 255})
		}
	}
	return img
}

func createSolidImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func imageFingerprint(img image.Image) uint64 {
	h := fnv.New64a()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			_, _ = h.Write([]byte{byte(r >> 8), byte(g >> 8), byte(b >> 8), byte(a >> 8)})
		}
	}
	return h.Sum64()
}

func TestColorControlsNeutral(t *testing.T) {
	img := createTestImage(40, 30)
	out := ColorControls(img, 0, 0, 0)
	if imageFingerprint(out) != imageFingerprint(img) {
		t.Fatal("ColorControls(0, 0, 0) changed the image")
	}
}

func TestColorControlsBrightnessOnGray(t *testing.T) {
	img := createSolidImage(20, 20, color.NRGBA{128, 128, 128, 255})
	out := ColorControls(img, 0.2, 0, 0)

	want := out.NRGBAAt(0, 0)
	if want.R != want.G || want.G != want.B {
		t.Fatalf("brightened gray is not gray: %v", want)
	}
	if want.R != 179 {
		t.Errorf("brightened gray = %d, want 179", want.R)
	}
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if out.NRGBAAt(x, y) != want {
				t.Fatalf("pixel (%d,%d) = %v, want uniform %v", x, y, out.NRGBAAt(x, y), want)
			}
		}
	}
}

func TestColorControlsSaturation(t *testing.T) {
	img := createSolidImage(4, 4, color.NRGBA{200, 100, 50, 255})
	gray := ColorControls(img, 0, 0, -1).NRGBAAt(0, 0)
	if gray.R != gray.G || gray.G != gray.B {
		t.Errorf("saturation -1 should produce gray, got %v", gray)
	}
}

func TestColorControlsContrast(t *testing.T) {
	img := createSolidImage(4, 4, color.NRGBA{200, 200, 200, 255})
	up := ColorControls(img, 0, 0.5, 0).NRGBAAt(0, 0)
	if up.R <= 200 {
		t.Errorf("raising contrast on a light pixel should lighten it, got %d", up.R)
	}
}

func TestColorControlsContrastFloor(t *testing.T) {
	img := createTestImage(8, 8)
	for _, c := range []float64{-1, -2} {
		out := ColorControls(img, 0, c, 0)
		for i := 0; i < len(out.Pix); i += 4 {
			if out.Pix[i] != 128 || out.Pix[i+1] != 128 || out.Pix[i+2] != 128 {
				t.Fatalf("contrast %v: pixel %v, want mid grey", c, out.Pix[i:i+4])
			}
		}
	}
}

func TestVignette(t *testing.T) {
	img := createSolidImage(101, 101, color.NRGBA{200, 200, 200, 255})

	t.Run("zero intensity", func(t *testing.T) {
		out := Vignette(img, 0, 0.5)
		if imageFingerprint(out) != imageFingerprint(img) {
			t.Error("Vignette with zero intensity changed the image")
		}
	})

	t.Run("darkens corners", func(t *testing.T) {
		out := Vignette(img, 0.8, 0.5)
		center := out.NRGBAAt(50, 50)
		corner := out.NRGBAAt(0, 0)
		if math.Abs(float64(center.R)-200) > 1 {
			t.Errorf("center = %d, want ~200", center.R)
		}
		if corner.R >= center.R {
			t.Errorf("corner %d should be darker than center %d", corner.R, center.R)
		}
		if out.Bounds() != img.Bounds() {
			t.Errorf("Vignette changed bounds: %v", out.Bounds())
		}
	})
}

func TestSharpen(t *testing.T) {
	t.Run("solid image unchanged", func(t *testing.T) {
		img := createSolidImage(30, 30, color.NRGBA{90, 90, 90, 255})
		out := Sharpen(img, 1, 2)
		if imageFingerprint(out) != imageFingerprint(img) {
			t.Error("Sharpen changed a solid image")
		}
	})

	t.Run("edge contrast increases", func(t *testing.T) {
		img := createSolidImage(30, 30, color.NRGBA{60, 60, 60, 255})
		for y := 0; y < 30; y++ {
			for x := 15; x < 30; x++ {
				img.SetNRGBA(x, y, color.NRGBA{180, 180, 180, 255})
			}
		}
		out := Sharpen(img, 1, 2)
		if out.NRGBAAt(14, 15).R >= 60 {
			t.Errorf("dark side of edge = %d, want < 60", out.NRGBAAt(14, 15).R)
		}
		if out.NRGBAAt(15, 15).R <= 180 {
			t.Errorf("light side of edge = %d, want > 180", out.NRGBAAt(15, 15).R)
		}
	})
}

func TestRotate(t *testing.T) {
	img := createTestImage(40, 20)

	tests := []struct {
		name  string
		angle float64
		w, h  int
	}{
		{"zero", 0, 40, 20},
		{"quarter turn", math.Pi / 2, 20, 40},
		{"half turn", math.Pi, 40, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Rotate(img, tt.angle)
			if out.Bounds().Dx() != tt.w || out.Bounds().Dy() != tt.h {
				t.Errorf("Rotate(%v) size = %dx%d, want %dx%d", tt.angle, out.Bounds().Dx(), out.Bounds().Dy(), tt.w, tt.h)
			}
		})
	}
}

func TestLevels(t *testing.T) {
	img := createSolidImage(2, 2, color.NRGBA{100, 150, 200, 255})
	out := Levels(img, 100, 200).NRGBAAt(0, 0)
	if out.R != 0 || out.B != 255 {
		t.Errorf("Levels(100, 200) = %v, want R=0 B=255", out)
	}
	if same := Levels(img, 50, 50); imageFingerprint(same) != imageFingerprint(img) {
		t.Error("Levels with empty range should not change the image")
	}
}

func TestClamp8(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-5, 0},
		{0, 0},
		{127.4, 127},
		{127.6, 128},
		{300, 255},
	}
	for _, tt := range tests {
		if got := clamp8(tt.in); got != tt.want {
			t.Errorf("clamp8(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPhotoFiltersOrder(t *testing.T) {
	want := []ID{
		IDOriginal, IDChrome, IDFade, IDInstant, IDMono, IDNoir,
		IDProcess, IDTonal, IDTransfer, IDPolaroid, IDInstax,
	}
	got := PhotoFilters()
	if len(got) != len(want) {
		t.Fatalf("PhotoFilters() returned %d filters, want %d", len(got), len(want))
	}
	for i, d := range got {
		if d.ID != want[i] {
			t.Errorf("PhotoFilters()[%d] = %s, want %s", i, d.ID, want[i])
		}
		if d.Title == "" {
			t.Errorf("PhotoFilters()[%d] has empty title", i)
		}
		if d.Kind != KindPhoto {
			t.Errorf("PhotoFilters()[%d].Kind = %v, want photo", i, d.Kind)
		}
	}

	got[0].Title = "mutated"
	if PhotoFilters()[0].Title != "Original" {
		t.Error("PhotoFilters() exposes the registry backing array")
	}
}

func TestResolve(t *testing.T) {
	for _, d := range append(PhotoFilters(), Adjustments()...) {
		got, err := Resolve(d.ID)
		if err != nil {
			t.Errorf("Resolve(%s) error = %v", d.ID, err)
			continue
		}
		if got != d {
			t.Errorf("Resolve(%s) = %+v, want %+v", d.ID, got, d)
		}
	}

	if _, err := Resolve("does_not_exist"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestTuneTools(t *testing.T) {
	tools := TuneTools()
	titles := []string{"Brightness", "Contrast", "Saturation", "Vignette"}
	if len(tools) != len(titles) {
		t.Fatalf("TuneTools() returned %d tools, want %d", len(tools), len(titles))
	}
	for i, tool := range tools {
		if tool.Title != titles[i] {
			t.Errorf("TuneTools()[%d].Title = %q, want %q", i, tool.Title, titles[i])
		}
		if _, err := Resolve(tool.Adjustment); err != nil {
			t.Errorf("tool %q references unknown adjustment %s", tool.Title, tool.Adjustment)
		}
	}
}

func TestApply(t *testing.T) {
	img := createTestImage(50, 50)

	for _, d := range PhotoFilters() {
		t.Run(string(d.ID), func(t *testing.T) {
			out, err := Apply(d, img)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if out.Bounds().Dx() != 50 || out.Bounds().Dy() != 50 {
				t.Errorf("Apply() changed image size: got %dx%d, want 50x50", out.Bounds().Dx(), out.Bounds().Dy())
			}
		})
	}
}

func TestApplyOriginalIsIdentity(t *testing.T) {
	img := createTestImage(30, 30)
	d, _ := Resolve(IDOriginal)
	out, err := Apply(d, img)
	if err != nil {
		t.Fatalf("Apply(original) error = %v", err)
	}
	if imageFingerprint(out) != imageFingerprint(img) {
		t.Error("Apply(original) changed the image")
	}
	if out == img {
		t.Error("Apply(original) returned its input instead of a copy")
	}
}

func TestApplyMonoIsGray(t *testing.T) {
	img := createSolidImage(4, 4, color.NRGBA{220, 40, 90, 255})
	d, _ := Resolve(IDMono)
	out, err := Apply(d, img)
	if err != nil {
		t.Fatalf("Apply(mono) error = %v", err)
	}
	c := out.NRGBAAt(1, 1)
	if c.R != c.G || c.G != c.B {
		t.Errorf("mono pixel = %v, want gray", c)
	}
}

func TestApplyUnknownOperation(t *testing.T) {
	d := Descriptor{ID: "broken", Title: "Broken", Kind: KindPhoto, Operation: "no_such_operation"}
	out, err := Apply(d, createTestImage(10, 10))
	if !errors.Is(err, ErrUnknownOperation) {
		t.Errorf("Apply() error = %v, want ErrUnknownOperation", err)
	}
	if out != nil {
		t.Error("Apply() returned an image for an unknown operation")
	}
}

func TestKindString(t *testing.T) {
	if KindPhoto.String() != "photo" || KindAdjustment.String() != "adjustment" {
		t.Errorf("Kind strings = %q, %q", KindPhoto, KindAdjustment)
	}
}

func BenchmarkColorControls(b *testing.B) {
	img := createTestImage(200, 200)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ColorControls(img, 0.1, 0.2, -0.1)
	}
}
