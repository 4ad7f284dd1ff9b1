package imagefx

import "github.com/gogpu/imagefx/internal/membuf"

// SourceFilter is the pipeline's first node: it holds the caller-supplied
// input buffer and publishes its capability during negotiation, then
// pushes the buffer (or a DMA copy of it) downstream on Start (§4.8).
type SourceFilter struct {
	buf   *EffectBuffer
	state filterState
}

type filterState uint8

const (
	stateCreated filterState = iota
	stateInitialized
	statePreparing
	stateRunning
	stateReady
)

// NewSourceFilter creates a source filter with no buffer set yet.
func NewSourceFilter() *SourceFilter {
	return &SourceFilter{state: stateCreated}
}

// Name returns the filter's identity for Save/Restore chains and logging.
func (f *SourceFilter) Name() string { return "Source" }

// SetSource installs the caller's input buffer (§4.8 "SetSource(buffer, context)").
func (f *SourceFilter) SetSource(buf *EffectBuffer) {
	f.buf = buf
	f.state = stateInitialized
}

// Prepare publishes the source's capability (width, height, format) via
// its out-port (§4.8 "Prepare publishes src capability").
func (f *SourceFilter) Prepare(ctx *EffectContext) (width, height int, format PixelFormat, err error) {
	if f.buf == nil {
		return 0, 0, FormatDefault, newStatus(ErrNullInput, "source filter has no buffer")
	}
	f.state = statePreparing
	return f.buf.Info.Width, f.buf.Info.Height, f.buf.Info.Format, nil
}

// Start pushes the source buffer downstream. If the invocation's execution
// path is GPU and the source is not already DMA-backed, a DMA scratch
// buffer is allocated and the source is copied into it first (§4.8).
func (f *SourceFilter) Start(ctx *EffectContext) (*EffectBuffer, error) {
	if f.buf == nil {
		return nil, newStatus(ErrNullInput, "source filter has no buffer")
	}
	f.state = stateRunning
	defer func() { f.state = stateReady }()

	if ctx.IPType != IPTypeGPU || f.buf.Info.Backing == BackingDMA {
		return f.buf, nil
	}

	info := membuf.AllocInfo{
		Width:     f.buf.Info.Width,
		Height:    f.buf.Info.Height,
		RowStride: f.buf.Info.RowStride,
		Format:    uint8(f.buf.Info.Format),
		Backing:   membuf.BackingDMA,
	}
	rec, err := ctx.Memory.Alloc(ctx.SrcAddr, info)
	if err != nil {
		return nil, newStatus(ErrAllocFailed, err.Error())
	}
	copy(rec.Addr, f.buf.Addr())

	dmaInfo := f.buf.Info
	dmaInfo.Backing = BackingDMA
	dmaInfo.Addr = rec.Addr
	return NewEffectBuffer(dmaInfo, rec.Addr, f.buf.Extra), nil
}
