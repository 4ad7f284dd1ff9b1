package imagefx

import "github.com/gogpu/imagefx/internal/filter"

// Built-in effect filters, grounded directly on internal/filter's
// separable-blur, color-matrix, and drop-shadow implementations. CPU
// handlers read src in place and write the result back into src's own
// backing array through a scratch buffer, since the dispatcher threads a
// single buffer through the chain rather than allocating a fresh dst per
// filter. Color-matrix filters additionally register a GPU handler that
// dispatches the same math as a compute shader (render.GPUBackend,
// §4.9 C9).

func applyRGBA8888InPlace(buf *EffectBuffer, apply func(dst []byte, dstStride int, src []byte, srcStride, width, height int)) error {
	info := buf.Info
	scratch := make([]byte, len(buf.Addr()))
	apply(scratch, info.RowStride, buf.Addr(), info.RowStride, info.Width, info.Height)
	copy(buf.Addr(), scratch)
	return nil
}

// NewBlurEffectFilter builds a "Blur" filter applying Gaussian blur with
// equal radius in both directions.
func NewBlurEffectFilter(radius float64) *EffectFilter {
	f := filter.NewBlurFilter(radius)
	cpu := &Handlers{
		Path:             IPTypeCPU,
		SupportedFormats: []PixelFormat{FormatRGBA8888},
		OnApplyRGBA8888: func(ctx *EffectContext, src, dst *EffectBuffer) error {
			return applyRGBA8888InPlace(src, f.Apply)
		},
	}
	ef := NewEffectFilter("Blur", cpu, nil)
	ef.Values["radiusX"] = f.RadiusX
	ef.Values["radiusY"] = f.RadiusY
	return ef
}

// colorMatrixGPUHandler builds a GPU OnApplyRGBA8888 handler that runs m
// through the render environment's GPUBackend (§4.9). Falling back to CPU
// on GPU unavailability is the caller's responsibility (§4.4 negotiation);
// this handler only runs once the GPU path has already been chosen.
func colorMatrixGPUHandler(m [20]float32) HandlerFunc {
	return func(ctx *EffectContext, src, dst *EffectBuffer) error {
		if ctx.Env == nil {
			return newStatus(ErrInvalidOperation, "GPU color matrix requires a render environment")
		}
		backend, err := ctx.Env.GPU()
		if err != nil {
			return newStatus(ErrInvalidOperation, "GPU backend unavailable: "+err.Error())
		}
		result, err := backend.ApplyColorMatrix(src.Addr(), src.Info.Width, src.Info.Height, m)
		if err != nil {
			return newStatus(ErrInvalidOperation, err.Error())
		}
		copy(src.Addr(), result)
		return nil
	}
}

// newColorMatrixEffectFilter builds an EffectFilter with both a CPU handler
// (internal/filter.ColorMatrixFilter.Apply) and a GPU handler
// (colorMatrixGPUHandler) for the same matrix, so capability negotiation
// can pick either path (§4.4).
func newColorMatrixEffectFilter(name string, f *filter.ColorMatrixFilter) *EffectFilter {
	cpu := &Handlers{
		Path:             IPTypeCPU,
		SupportedFormats: []PixelFormat{FormatRGBA8888},
		OnApplyRGBA8888: func(ctx *EffectContext, src, dst *EffectBuffer) error {
			return applyRGBA8888InPlace(src, f.Apply)
		},
	}
	gpu := &Handlers{
		Path:             IPTypeGPU,
		SupportedFormats: []PixelFormat{FormatRGBA8888},
		OnApplyRGBA8888:  colorMatrixGPUHandler(f.Matrix),
	}
	return NewEffectFilter(name, cpu, gpu)
}

// NewBrightnessEffectFilter builds a "Brightness" color-matrix filter.
// factor 0.0 is black, 1.0 is unchanged, 2.0 is twice as bright.
func NewBrightnessEffectFilter(factor float32) *EffectFilter {
	ef := newColorMatrixEffectFilter("Brightness", filter.NewBrightnessFilter(factor))
	ef.Values["factor"] = factor
	return ef
}

// NewContrastEffectFilter builds a "Contrast" color-matrix filter.
// factor 0.0 is flat gray, 1.0 is unchanged, 2.0 is high contrast.
func NewContrastEffectFilter(factor float32) *EffectFilter {
	ef := newColorMatrixEffectFilter("Contrast", filter.NewContrastFilter(factor))
	ef.Values["factor"] = factor
	return ef
}

// NewSaturationEffectFilter builds a "Saturation" color-matrix filter.
// factor 0.0 is grayscale, 1.0 is unchanged, 2.0 is oversaturated.
func NewSaturationEffectFilter(factor float32) *EffectFilter {
	ef := newColorMatrixEffectFilter("Saturation", filter.NewSaturationFilter(factor))
	ef.Values["factor"] = factor
	return ef
}

// NewGrayscaleEffectFilter builds a "Grayscale" color-matrix filter using
// Rec. 709 luminance weights.
func NewGrayscaleEffectFilter() *EffectFilter {
	return newColorMatrixEffectFilter("Grayscale", filter.NewGrayscaleFilter())
}

// NewInvertEffectFilter builds an "Invert" color-matrix filter.
func NewInvertEffectFilter() *EffectFilter {
	return newColorMatrixEffectFilter("Invert", filter.NewInvertFilter())
}

// NewDropShadowEffectFilter builds a "DropShadow" filter.
func NewDropShadowEffectFilter(offsetX, offsetY, blurRadius float64, color filter.ShadowColor) *EffectFilter {
	f := filter.NewDropShadowFilter(offsetX, offsetY, blurRadius, color)
	cpu := &Handlers{
		Path:             IPTypeCPU,
		SupportedFormats: []PixelFormat{FormatRGBA8888},
		OnApplyRGBA8888: func(ctx *EffectContext, src, dst *EffectBuffer) error {
			return applyRGBA8888InPlace(src, f.Apply)
		},
	}
	ef := NewEffectFilter("DropShadow", cpu, nil)
	ef.Values["offsetX"] = offsetX
	ef.Values["offsetY"] = offsetY
	ef.Values["blurRadius"] = blurRadius
	return ef
}
