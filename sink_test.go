package imagefx

import "testing"

func TestSinkMaterializeBitmapSameAddrUpdatesEXIFOnly(t *testing.T) {
	bmp := NewPixmap(2, 2)
	sink := NewSinkFilter(NewEffectBuffer(bmp.Info(), bmp.Addr(), ExtraInfo{DataType: DataTypePixelMap, Bitmap: bmp}))

	produced := NewEffectBuffer(bmp.Info(), bmp.Addr(), ExtraInfo{})
	if err := sink.Materialize(newTestContext(), produced); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if bmp.EXIF["ImageWidth"] != "2" {
		t.Fatalf("expected EXIF ImageWidth updated, got %q", bmp.EXIF["ImageWidth"])
	}
}

func TestSinkMaterializeBitmapSizeMatchCopiesRows(t *testing.T) {
	bmp := NewPixmap(2, 2)
	sink := NewSinkFilter(NewEffectBuffer(bmp.Info(), bmp.Addr(), ExtraInfo{DataType: DataTypePixelMap, Bitmap: bmp}))

	src := NewPixmap(2, 2)
	src.Clear(10, 20, 30, 255)
	produced := NewEffectBuffer(src.Info(), src.Addr(), ExtraInfo{})

	if err := sink.Materialize(newTestContext(), produced); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	r, g, b, a := bmp.At(0, 0).RGBA()
	if uint8(r>>8) != 10 || uint8(g>>8) != 20 || uint8(b>>8) != 30 || uint8(a>>8) != 255 {
		t.Fatalf("bitmap not copied correctly: r=%d g=%d b=%d a=%d", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestSinkMaterializeBitmapResizeReallocates(t *testing.T) {
	bmp := NewPixmap(2, 2)
	sink := NewSinkFilter(NewEffectBuffer(bmp.Info(), bmp.Addr(), ExtraInfo{DataType: DataTypePixelMap, Bitmap: bmp}))

	src := NewPixmap(4, 4)
	produced := NewEffectBuffer(src.Info(), src.Addr(), ExtraInfo{})

	if err := sink.Materialize(newTestContext(), produced); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if bmp.Width() != 4 || bmp.Height() != 4 {
		t.Fatalf("expected bitmap reallocated to 4x4, got %dx%d", bmp.Width(), bmp.Height())
	}
}

func TestSinkMaterializeGraphicsBufferRejectsSizeMismatch(t *testing.T) {
	dstData := make([]byte, 16)
	dstInfo := BufferInfo{Width: 2, Height: 2, RowStride: 8, Length: 16, Format: FormatRGBA8888, Backing: BackingDMA, NativeBuffer: "handle", Addr: dstData}
	sink := NewSinkFilter(&EffectBuffer{Info: dstInfo, Extra: ExtraInfo{DataType: DataTypeSurfaceBuffer}})

	srcData := make([]byte, 64)
	produced := NewEffectBuffer(BufferInfo{Width: 4, Height: 4, RowStride: 16, Length: 64, Format: FormatRGBA8888}, srcData, ExtraInfo{})

	err := sink.Materialize(newTestContext(), produced)
	if kind, ok := KindOf(err); !ok || kind != ErrBufferNotAllowChange {
		t.Fatalf("Materialize() err = %v, want ErrBufferNotAllowChange", err)
	}
}

func TestSinkMaterializeUnsupportedDataType(t *testing.T) {
	sink := NewSinkFilter(&EffectBuffer{Extra: ExtraInfo{DataType: DataTypeSurface}})
	err := sink.Materialize(newTestContext(), &EffectBuffer{})
	if kind, ok := KindOf(err); !ok || kind != ErrUnsupportedDataType {
		t.Fatalf("Materialize() err = %v, want ErrUnsupportedDataType", err)
	}
}
