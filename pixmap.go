package imagefx

import (
	"image"
	"image/color"
	"image/png"
	"os"
)

// Compile-time interface checks.
var (
	_ image.Image = (*Pixmap)(nil)
)

// Pixmap is the in-process PIXEL_MAP container: a caller-owned RGBA8888
// bitmap with its own backing store, row stride, EXIF tags, and
// color-space/HDR metadata. It is the concrete type behind
// ExtraInfo.Bitmap and Picture.Primary/Auxiliary.
//
// A Pixmap's pixel storage is owned by the caller (or by the Picture that
// holds it), never by an EffectBuffer -- an EffectBuffer only aliases it
// through BufferInfo.Addr.
type Pixmap struct {
	width      int
	height     int
	rowStride  int
	format     PixelFormat
	colorSpace ColorSpace
	data       []uint8 // packed RGBA8888, rowStride bytes per row

	// EXIF holds the subset of tags the sink updates on output (§4.10):
	// ImageWidth, ImageLength, PixelXDimension, PixelYDimension, DateTime.
	EXIF map[string]string
}

// NewPixmap creates a new RGBA8888 pixmap with a tightly packed row stride.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		width:      width,
		height:     height,
		rowStride:  width * 4,
		format:     FormatRGBA8888,
		colorSpace: ColorSpaceSRGB,
		data:       make([]uint8, width*height*4),
	}
}

// Clone returns a deep copy of p with its own backing store, safe for a
// caller to mutate without affecting p (used when a decoded picture is
// served from a cache and must not be corrupted by in-place filters).
func (p *Pixmap) Clone() *Pixmap {
	data := make([]uint8, len(p.data))
	copy(data, p.data)
	exif := make(map[string]string, len(p.EXIF))
	for k, v := range p.EXIF {
		exif[k] = v
	}
	return &Pixmap{
		width:      p.width,
		height:     p.height,
		rowStride:  p.rowStride,
		format:     p.format,
		colorSpace: p.colorSpace,
		data:       data,
		EXIF:       exif,
	}
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int { return p.width }

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int { return p.height }

// RowStride returns the number of bytes between the start of consecutive rows.
func (p *Pixmap) RowStride() int { return p.rowStride }

// Format returns the pixel format (FormatRGBA8888 unless SetImageInfo or
// SetPixelsAddr set another).
func (p *Pixmap) Format() PixelFormat { return p.format }

// ColorSpace returns the pixmap's current color space.
func (p *Pixmap) ColorSpace() ColorSpace { return p.colorSpace }

// SetColorSpace updates the pixmap's color-space metadata without touching pixels.
func (p *Pixmap) SetColorSpace(cs ColorSpace) { p.colorSpace = cs }

// Addr returns the raw backing bytes (rowStride*height long).
func (p *Pixmap) Addr() []byte { return p.data }

// Info returns a BufferInfo snapshot describing this pixmap's current
// dimensions, format, color space, and address -- the bridge from the
// caller's PIXEL_MAP container into the engine's buffer model.
func (p *Pixmap) Info() BufferInfo {
	return BufferInfo{
		Width:      p.width,
		Height:     p.height,
		RowStride:  p.rowStride,
		Length:     len(p.data),
		Format:     p.format,
		ColorSpace: p.colorSpace,
		Backing:    BackingHeap,
		Addr:       p.data,
	}
}

// SetImageInfo reallocates the backing store for new dimensions/format,
// used by the sink when a candidate buffer's size doesn't match the
// caller-supplied bitmap (§4.10: "reallocate bitmap's backing store with
// the new dimensions"). Existing pixel content is discarded.
func (p *Pixmap) SetImageInfo(width, height int, format PixelFormat) error {
	if width <= 0 || height <= 0 {
		return newStatus(ErrInvalidParameter, "pixmap dimensions must be positive")
	}
	p.width = width
	p.height = height
	p.format = format
	p.rowStride = format.RowBytes(width)
	p.data = make([]uint8, format.ImageBytes(width, height))
	return nil
}

// SetRowStride overrides the row stride without reallocating, used when the
// sink copies into an existing buffer whose stride differs from the tight
// packing (§4.10 bitmap policy).
func (p *Pixmap) SetRowStride(stride int) error {
	minStride := p.format.RowBytes(p.width)
	if stride < minStride {
		return newStatus(ErrInvalidParameter, "row stride smaller than format requires")
	}
	p.rowStride = stride
	return nil
}

// SetPixelsAddr replaces the backing store atomically, used by the sink
// when a new allocation is required (§4.10 picture-wide metadata copy:
// "a new backing memory is allocated and the bitmap's SetPixelsAddr... are
// invoked atomically").
func (p *Pixmap) SetPixelsAddr(data []byte, width, height, rowStride int, format PixelFormat) {
	p.data = data
	p.width = width
	p.height = height
	p.rowStride = rowStride
	p.format = format
}

// UpdateEXIF refreshes the output-side EXIF fields from the pixmap's
// current dimensions, setting DateTime only if it was already present
// (§4.10 "EXIF update on output").
func (p *Pixmap) UpdateEXIF(now string) {
	if p.EXIF == nil {
		p.EXIF = make(map[string]string)
	}
	width := itoa(p.width)
	height := itoa(p.height)
	p.EXIF["ImageWidth"] = width
	p.EXIF["ImageLength"] = height
	p.EXIF["PixelXDimension"] = width
	p.EXIF["PixelYDimension"] = height
	if _, ok := p.EXIF["DateTime"]; ok && now != "" {
		p.EXIF["DateTime"] = now
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Clear fills the entire pixmap with a solid color (straight alpha, [0,255]).
func (p *Pixmap) Clear(r, g, b, a uint8) {
	for y := 0; y < p.height; y++ {
		row := p.data[y*p.rowStride:]
		for x := 0; x < p.width; x++ {
			row[x*4+0] = r
			row[x*4+1] = g
			row[x*4+2] = b
			row[x*4+3] = a
		}
	}
}

// ToImage converts the pixmap to a standard library image.RGBA, respecting
// row stride.
func (p *Pixmap) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	rowBytes := p.width * 4
	for y := 0; y < p.height; y++ {
		srcStart := y * p.rowStride
		dstStart := y * img.Stride
		copy(img.Pix[dstStart:dstStart+rowBytes], p.data[srcStart:srcStart+rowBytes])
	}
	return img
}

// FromImage creates a tightly packed RGBA8888 pixmap from a standard
// library image.Image.
func FromImage(img image.Image) *Pixmap {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pm := NewPixmap(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := y*pm.rowStride + x*4
			pm.data[i+0] = uint8(r >> 8)
			pm.data[i+1] = uint8(g >> 8)
			pm.data[i+2] = uint8(b >> 8)
			pm.data[i+3] = uint8(a >> 8)
		}
	}
	return pm
}

// SavePNG saves the pixmap to a PNG file.
func (p *Pixmap) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is caller-provided intentionally
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return png.Encode(f, p.ToImage())
}

// At implements the image.Image interface (straight, non-premultiplied alpha).
func (p *Pixmap) At(x, y int) color.Color {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return color.RGBA{}
	}
	i := y*p.rowStride + x*4
	return color.NRGBA{R: p.data[i], G: p.data[i+1], B: p.data[i+2], A: p.data[i+3]}
}

// Bounds implements the image.Image interface.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Pixmap) ColorModel() color.Model {
	return color.NRGBAModel
}
