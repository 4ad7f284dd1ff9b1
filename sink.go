package imagefx

import (
	"github.com/gogpu/imagefx/internal/color"
	"github.com/gogpu/imagefx/internal/colorspace"
)

// SinkFilter is the pipeline's last node: it materializes the final
// EffectBuffer into the caller's requested output container, following
// the per-output-kind policy table (§4.10).
type SinkFilter struct {
	output *EffectBuffer
	state  filterState
	now    func() string // injected for deterministic EXIF DateTime in tests
}

// NewSinkFilter creates a sink targeting the given output container.
func NewSinkFilter(output *EffectBuffer) *SinkFilter {
	return &SinkFilter{output: output, state: stateCreated}
}

// Name returns the filter's identity.
func (f *SinkFilter) Name() string { return "Sink" }

// Materialize writes produced into the sink's output container following
// the §4.10 policy table, keyed by the output's DataType.
func (f *SinkFilter) Materialize(ctx *EffectContext, produced *EffectBuffer) error {
	f.state = stateRunning
	defer func() { f.state = stateReady }()

	switch f.output.Extra.DataType {
	case DataTypePixelMap:
		return f.materializeBitmap(produced)
	case DataTypeSurfaceBuffer:
		return f.materializeGraphicsBuffer(produced)
	case DataTypePicture:
		return f.materializePicture(produced)
	case DataTypeURI, DataTypePath:
		return f.materializeFile(produced)
	case DataTypeNativeWindow:
		return f.materializeNativeWindow(ctx, produced)
	case DataTypeTexture:
		return f.materializeTexture(ctx, produced)
	default:
		return newStatus(ErrUnsupportedDataType, f.output.Extra.DataType.String())
	}
}

// materializeBitmap implements the "bitmap" row of §4.10's policy table.
func (f *SinkFilter) materializeBitmap(produced *EffectBuffer) error {
	bmp := f.output.Extra.Bitmap
	if bmp == nil {
		return newStatus(ErrInvalidBitmap, "sink output has no bitmap")
	}

	f.recomposeIfRequested(produced)

	if sameAddr(produced.Addr(), bmp.Addr()) {
		f.updateEXIF(bmp)
		bmp.SetColorSpace(produced.Info.ColorSpace)
		return nil
	}

	sizeMatch := produced.Info.Width == bmp.Width() && produced.Info.Height == bmp.Height() && produced.Info.Format == bmp.Format()
	if sizeMatch {
		copyRows(bmp.Addr(), bmp.RowStride(), produced.Addr(), produced.Info.RowStride, produced.Info.Width, produced.Info.Height, produced.Info.Format)
		f.updateEXIF(bmp)
		bmp.SetColorSpace(produced.Info.ColorSpace)
		return nil
	}

	if err := bmp.SetImageInfo(produced.Info.Width, produced.Info.Height, produced.Info.Format); err != nil {
		return err
	}
	if err := bmp.SetRowStride(produced.Info.RowStride); err != nil {
		return err
	}
	copy(bmp.Addr(), produced.Addr())
	f.updateEXIF(bmp)
	bmp.SetColorSpace(produced.Info.ColorSpace)
	return nil
}

// materializeGraphicsBuffer implements the "graphics buffer (DMA)" row.
func (f *SinkFilter) materializeGraphicsBuffer(produced *EffectBuffer) error {
	f.recomposeIfRequested(produced)
	dst := &f.output.Info
	if sameAddr(produced.Addr(), dst.Addr) {
		dst.Metadata = produced.Info.Metadata
		return nil
	}
	sizeMatch := produced.Info.Width == dst.Width && produced.Info.Height == dst.Height && produced.Info.Format == dst.Format
	if sizeMatch {
		copyRows(dst.Addr, dst.RowStride, produced.Addr(), produced.Info.RowStride, produced.Info.Width, produced.Info.Height, produced.Info.Format)
		dst.Metadata = produced.Info.Metadata
		return nil
	}
	return newStatus(ErrBufferNotAllowChange, "destination graphics buffer size or format differs from produced buffer")
}

// materializePicture implements the "picture" row.
func (f *SinkFilter) materializePicture(produced *EffectBuffer) error {
	pic := f.output.Extra.Picture
	if pic == nil || pic.Primary == nil {
		return newStatus(ErrInvalidParameter, "sink output has no picture")
	}
	if err := pic.Primary.SetImageInfo(produced.Info.Width, produced.Info.Height, produced.Info.Format); err != nil {
		return err
	}
	copy(pic.Primary.Addr(), produced.Addr())
	f.updateEXIF(pic.Primary)

	if gainmap := produced.Auxiliary[RoleGainmap]; gainmap != nil {
		if dstGain := pic.AuxInfo(RoleGainmap); dstGain != nil {
			if err := dstGain.SetImageInfo(gainmap.Width, gainmap.Height, gainmap.Format); err != nil {
				return err
			}
			copy(dstGain.Addr(), gainmap.Addr)
		}
	}
	return nil
}

// materializeFile implements the "URI / PATH" row: the produced buffer is
// applied to a picture container, which is then re-encoded to the
// original file format and finalized through the packer (§4.10, "modify
// the internally decoded picture... then re-encode... finalize through
// the packer"). If the caller never supplied a target Picture (the common
// case: SetOutputURI/SetOutputPath with no pre-existing decode), one is
// created here sized to the produced buffer.
func (f *SinkFilter) materializeFile(produced *EffectBuffer) error {
	if f.output.Extra.Picture == nil {
		pm := NewPixmap(produced.Info.Width, produced.Info.Height)
		f.output.Extra.Picture = &Picture{Primary: pm, SourceKind: f.output.Extra.DataType}
	}
	if err := f.materializePicture(produced); err != nil {
		return err
	}
	return encodePictureFile(f.output.Extra.Picture, f.output.Extra.URIOrPath)
}

// materializeNativeWindow implements the "native window (display)" row.
// Full GPU present (buffer request, draw, fence) lives in the render
// environment; this records the target colorspace/state transition and the
// fit transform the environment must apply when it draws the texture into
// the window (§4.10, "draw the texture ... with appropriate transform
// matrix").
func (f *SinkFilter) materializeNativeWindow(ctx *EffectContext, produced *EffectBuffer) error {
	if ctx.Env == nil {
		return newStatus(ErrInvalidOperation, "native window output requires a render environment")
	}
	winW, winH := f.output.Info.Width, f.output.Info.Height
	f.output.Info = produced.Info
	f.output.Extra.Transform = fitTransform(produced.Info.Width, produced.Info.Height, winW, winH)
	f.output.Extra.HasTransform = true
	return nil
}

// recomposeIfRequested reverses an earlier HDR decomposition (§4.3 step 5)
// when the sink's target color space is HDR but produced only carries an
// SDR primary plus gainmap: destinations without a separate auxiliary slot
// (bitmaps, graphics buffers) cannot carry the gainmap forward, so it must
// be folded back into the primary before the copy.
func (f *SinkFilter) recomposeIfRequested(produced *EffectBuffer) {
	if produced.Info.HDRFormat != HDRFormatHDR8Gainmap || !f.output.Info.ColorSpace.IsHDR() {
		return
	}
	gain := produced.Auxiliary[RoleGainmap]
	if gain == nil || len(gain.Addr) == 0 {
		return
	}
	w, h := produced.Info.Width, produced.Info.Height
	pixels := produced.Addr()
	if w <= 0 || h <= 0 || len(pixels) < w*h*4 || len(gain.Addr) < w*h {
		return
	}

	target := colorspace.Space(f.output.Info.ColorSpace)
	encodeLinear := colorspace.LinearToHLG
	if target == colorspace.BT2020PQ || target == colorspace.BT2020PQLimit {
		encodeLinear = colorspace.LinearToPQ
	}

	for i := 0; i < w*h; i++ {
		off := i * 4
		g := gain.Addr[i]
		for c := 0; c < 3; c++ {
			sdrLinear := float64(color.SRGBToLinearFast(pixels[off+c]))
			hdrLinear := colorspace.RecomposeHDR(sdrLinear, g)
			code := encodeLinear(hdrLinear)
			pixels[off+c] = clampCodeToByte(code)
		}
	}
	produced.Info.HDRFormat = HDRFormatHDR10
	produced.Auxiliary[RoleGainmap] = nil
}

func clampCodeToByte(code float64) byte {
	if code < 0 {
		code = 0
	}
	if code > 1 {
		code = 1
	}
	return byte(code*255 + 0.5)
}

// materializeTexture implements the "texture" row.
func (f *SinkFilter) materializeTexture(ctx *EffectContext, produced *EffectBuffer) error {
	if ctx.Env == nil {
		return newStatus(ErrInvalidOperation, "texture output requires a render environment")
	}
	f.output.Info = produced.Info
	f.output.Info.Texture = produced.Info.Texture
	return nil
}

// updateEXIF applies the §4.10 "EXIF update on output" rule.
func (f *SinkFilter) updateEXIF(bmp *Pixmap) {
	now := ""
	if f.now != nil {
		now = f.now()
	}
	bmp.UpdateEXIF(now)
}

func sameAddr(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return &a[0] == &b[0]
}

func copyRows(dst []byte, dstStride int, src []byte, srcStride, width, height int, format PixelFormat) {
	rowBytes := format.RowBytes(width)
	for y := 0; y < height; y++ {
		d := dst[y*dstStride:]
		s := src[y*srcStride:]
		n := rowBytes
		if len(d) < n {
			n = len(d)
		}
		if len(s) < n {
			n = len(s)
		}
		copy(d[:n], s[:n])
	}
}
