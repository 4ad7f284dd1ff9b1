package imagefx

import (
	"testing"

	"github.com/gogpu/imagefx/internal/filter"
)

func TestBlurEffectFilterSmoothsSharpEdge(t *testing.T) {
	bmp := NewPixmap(8, 8)
	// Build a half-black, half-white image directly in the backing buffer.
	buf := NewEffectBuffer(bmp.Info(), bmp.Addr(), ExtraInfo{})
	stride := buf.Info.RowStride
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := byte(0)
			if x >= 4 {
				v = 255
			}
			i := y*stride + x*4
			buf.Addr()[i+0] = v
			buf.Addr()[i+1] = v
			buf.Addr()[i+2] = v
			buf.Addr()[i+3] = 255
		}
	}

	ef := NewBlurEffectFilter(3)
	ctx := newTestContext()
	ctx.SetIPType(IPTypeCPU)
	if err := ef.Render(ctx, buf, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}

	mid := buf.Addr()[3*stride+3*4]
	if mid == 0 || mid == 255 {
		t.Fatalf("expected blur to soften the hard edge, got boundary pixel %d", mid)
	}
}

func TestBrightnessEffectFilterScalesChannels(t *testing.T) {
	bmp := NewPixmap(2, 2)
	bmp.Clear(50, 50, 50, 255)
	buf := NewEffectBuffer(bmp.Info(), bmp.Addr(), ExtraInfo{})

	ef := NewBrightnessEffectFilter(2.0)
	ctx := newTestContext()
	ctx.SetIPType(IPTypeCPU)
	if err := ef.Render(ctx, buf, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if buf.Addr()[0] != 100 {
		t.Fatalf("expected brightness doubling to produce 100, got %d", buf.Addr()[0])
	}
}

func TestDropShadowEffectFilterIsRegisteredAsCPUOnly(t *testing.T) {
	ef := NewDropShadowEffectFilter(2, 2, 3, filter.ShadowColor{A: 0.5})
	caps := ef.Capability()
	paths := caps[FormatRGBA8888]
	if !paths[IPTypeCPU] || paths[IPTypeGPU] {
		t.Fatalf("Capability() = %+v, want CPU only", caps)
	}
}
