package imagefx

// HandlerFunc processes one pixel buffer in place or into dst, honoring
// strides (the shape every per-format apply method shares).
type HandlerFunc func(ctx *EffectContext, src, dst *EffectBuffer) error

// Handlers is one execution path's registered per-format apply methods
// (§4.9 "OnApplyRGBA8888, OnApplyYUVNV21, OnApplyYUVNV12").
type Handlers struct {
	Path IPType

	OnApplyRGBA8888 HandlerFunc
	OnApplyYUVNV21  HandlerFunc
	OnApplyYUVNV12  HandlerFunc

	// SupportedFormats lists every format this handler set declares,
	// used by capability negotiation (§4.4) independently of which
	// OnApply* hooks are actually wired.
	SupportedFormats []PixelFormat
}

func (h *Handlers) supports(format PixelFormat) bool {
	for _, f := range h.SupportedFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (h *Handlers) dispatch(format PixelFormat) HandlerFunc {
	switch format {
	case FormatRGBA8888, FormatRGBA1010102, FormatRGBAF16:
		return h.OnApplyRGBA8888
	case FormatYUVNV21:
		return h.OnApplyYUVNV21
	case FormatYUVNV12:
		return h.OnApplyYUVNV12
	default:
		return nil
	}
}

// EffectFilter is one pipeline effect node: a factory-registered set of
// CPU and/or GPU handlers dispatched on the invocation's IPType and the
// incoming buffer's pixel format (§4.9).
type EffectFilter struct {
	FilterName string
	CPU        *Handlers
	GPU        *Handlers
	state      filterState

	// Values holds the filter's configured parameters for Save/Restore
	// JSON serialization (§4.11, §6 "Effect-chain JSON").
	Values map[string]any
}

// NewEffectFilter constructs a filter from its name and CPU/GPU handler
// sets; either may be nil if the filter only runs on one path.
func NewEffectFilter(name string, cpu, gpu *Handlers) *EffectFilter {
	return &EffectFilter{FilterName: name, CPU: cpu, GPU: gpu, state: stateCreated, Values: map[string]any{}}
}

// Name returns the filter's identity.
func (f *EffectFilter) Name() string { return f.FilterName }

// Capability reports this filter's advertised (format -> paths) map for
// negotiation (§4.4).
func (f *EffectFilter) Capability() map[PixelFormat]map[IPType]bool {
	out := map[PixelFormat]map[IPType]bool{}
	if f.CPU != nil {
		for _, fmt := range f.CPU.SupportedFormats {
			if out[fmt] == nil {
				out[fmt] = map[IPType]bool{}
			}
			out[fmt][IPTypeCPU] = true
		}
	}
	if f.GPU != nil {
		for _, fmt := range f.GPU.SupportedFormats {
			if out[fmt] == nil {
				out[fmt] = map[IPType]bool{}
			}
			out[fmt][IPTypeGPU] = true
		}
	}
	return out
}

// Render dispatches to the handler matching ctx.IPType, then to the
// per-format OnApply method matching src's pixel format (§4.9).
func (f *EffectFilter) Render(ctx *EffectContext, src, dst *EffectBuffer) error {
	f.state = stateRunning
	defer func() { f.state = stateReady }()

	var handlers *Handlers
	switch ctx.IPType {
	case IPTypeGPU:
		handlers = f.GPU
	default:
		handlers = f.CPU
	}
	if handlers == nil {
		return newStatus(ErrUnsupportedIPTypeForEffect, f.FilterName)
	}

	if !handlers.supports(src.Info.Format) {
		return newStatus(ErrUnsupportedFormatType, src.Info.Format.String())
	}

	apply := handlers.dispatch(src.Info.Format)
	if apply == nil {
		return newStatus(ErrUnsupportedFormatType, src.Info.Format.String())
	}

	// GPU handlers receiving a CPU-memory buffer must upload first; CPU
	// handlers receiving a GPU-resident buffer must download first
	// (§4.9). Every EffectBuffer in this implementation addresses
	// CPU-resident memory (membuf.Manager never hands out GPU addresses),
	// so a GPU handler's upload is folded into its own dispatch call
	// (render.GPUBackend.ApplyColorMatrix stages the buffer itself) and
	// there is no separate download step -- this dispatcher only
	// guarantees the right OnApply* is called for the right path and
	// format.
	return apply(ctx, src, dst)
}
