package chain

import (
	"context"
	"errors"
	"fmt"
	"image"
)

var ErrStepFailed = errors.New("transform step failed")

// StepError reports which step of a chain could not produce output.
type StepError struct {
	Kind Kind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step: %v", e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func (e *StepError) Is(target error) bool { return target == ErrStepFailed }

// Build returns the ordered steps for s. The order is fixed:
// rotate, color controls, vignette, sharpen, named filter, auto-enhance.
// The named filter step is present only when s.Filter is set and the
// auto-enhance step only when s.AutoEnhance is set, wrapping enhanced.
func Build(s Settings, enhanced []Step) []Step {
	steps := []Step{
		Rotate{Angle: s.Rotation},
		ColorControls{
			Brightness: s.Brightness,
			Contrast:   s.Contrast,
			Saturation: s.Saturation,
		},
		Vignette{Intensity: s.VignetteIntensity, Radius: s.VignetteRadius},
		Sharpen{Intensity: s.SharpnessIntensity, Radius: s.SharpnessRadius},
	}
	if s.Filter != "" {
		steps = append(steps, NamedFilter{ID: s.Filter})
	}
	if s.AutoEnhance {
		steps = append(steps, AutoEnhance{Steps: enhanced})
	}
	return steps
}

// Run applies steps to src in order, skipping neutral ones. When every step
// is skipped the returned image is src itself. ctx is checked before each
// step.
func Run(ctx context.Context, src image.Image, steps []Step) (image.Image, error) {
	if src == nil {
		return nil, &StepError{Kind: firstKind(steps), Err: errors.New("nil input image")}
	}
	img := src
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if st.Neutral() {
			continue
		}
		out, err := st.Apply(img)
		if err != nil {
			return nil, &StepError{Kind: st.Kind(), Err: err}
		}
		if out == nil || out.Bounds().Empty() && !img.Bounds().Empty() {
			return nil, &StepError{Kind: st.Kind(), Err: errors.New("step produced no image")}
		}
		img = out
	}
	return img, nil
}

func firstKind(steps []Step) Kind {
	if len(steps) == 0 {
		return KindRotate
	}
	return steps[0].Kind()
}
