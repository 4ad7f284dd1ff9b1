package imagefx

import "testing"

func newTestContext() *EffectContext {
	return NewEffectContext(nil, nil)
}

func TestSourceFilterPrepareReportsCapability(t *testing.T) {
	f := NewSourceFilter()
	data := make([]byte, 4*4*4)
	buf := NewEffectBuffer(BufferInfo{Width: 4, Height: 4, RowStride: 16, Length: len(data), Format: FormatRGBA8888}, data, ExtraInfo{})
	f.SetSource(buf)

	w, h, format, err := f.Prepare(newTestContext())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if w != 4 || h != 4 || format != FormatRGBA8888 {
		t.Fatalf("Prepare() = (%d,%d,%v), want (4,4,RGBA8888)", w, h, format)
	}
}

func TestSourceFilterPrepareFailsWithoutBuffer(t *testing.T) {
	f := NewSourceFilter()
	if _, _, _, err := f.Prepare(newTestContext()); err == nil {
		t.Fatal("expected error when no source buffer is set")
	}
}

func TestSourceFilterStartPassesThroughOnCPU(t *testing.T) {
	f := NewSourceFilter()
	data := make([]byte, 16)
	buf := NewEffectBuffer(BufferInfo{Width: 2, Height: 2, RowStride: 8, Length: 16, Format: FormatRGBA8888}, data, ExtraInfo{})
	f.SetSource(buf)

	ctx := newTestContext()
	ctx.SetIPType(IPTypeCPU)
	out, err := f.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !sameAddr(out.Addr(), data) {
		t.Fatal("expected CPU path to pass the source buffer through unchanged")
	}
}

func TestSourceFilterStartCopiesToScratchOnGPUWhenNotDMA(t *testing.T) {
	f := NewSourceFilter()
	data := make([]byte, 16)
	for i := range data {
		data[i] = byte(i)
	}
	buf := NewEffectBuffer(BufferInfo{Width: 2, Height: 2, RowStride: 8, Length: 16, Format: FormatRGBA8888, Backing: BackingHeap}, data, ExtraInfo{})
	f.SetSource(buf)

	ctx := newTestContext()
	ctx.Init(data, nil)
	ctx.SetIPType(IPTypeGPU)

	out, err := f.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sameAddr(out.Addr(), data) {
		t.Fatal("expected GPU path to copy into a new scratch buffer, not alias source")
	}
	if out.Info.Backing != BackingDMA {
		t.Fatalf("expected scratch buffer backing DMA, got %v", out.Info.Backing)
	}
	for i, b := range out.Addr() {
		if b != data[i] {
			t.Fatalf("scratch buffer content mismatch at %d: got %d want %d", i, b, data[i])
		}
	}
}
