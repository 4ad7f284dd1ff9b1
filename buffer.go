// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package imagefx implements a linear image-effect engine: an ordered
// pipeline of pixel-domain filters (source -> N effects -> sink) applied
// to a single still-image input, with pre-render capability negotiation,
// backing-store memory management, and color-space/HDR handling.
package imagefx

// PixelFormat identifies the in-memory layout of a pixel buffer.
type PixelFormat uint8

const (
	// FormatDefault lets the pipeline pick a format during negotiation.
	FormatDefault PixelFormat = iota
	// FormatRGBA8888 is 32-bit packed RGBA, 8 bits per channel.
	FormatRGBA8888
	// FormatRGBA1010102 is 32-bit packed RGBA, 10 bits per color channel
	// and 2 bits of alpha (HDR10 "1010102").
	FormatRGBA1010102
	// FormatRGBAF16 is 64-bit packed RGBA, half-float per channel.
	FormatRGBAF16
	// FormatYUVNV12 is 8-bit planar Y with interleaved CbCr.
	FormatYUVNV12
	// FormatYUVNV21 is 8-bit planar Y with interleaved CrCb.
	FormatYUVNV21
	// FormatP010CbCr is 10-bit planar Y with interleaved CbCr in the high bits.
	FormatP010CbCr
	// FormatP010CrCb is 10-bit planar Y with interleaved CrCb in the high bits.
	FormatP010CrCb

	formatCount
)

// String returns a human-readable format name.
func (f PixelFormat) String() string {
	switch f {
	case FormatDefault:
		return "DEFAULT"
	case FormatRGBA8888:
		return "RGBA8888"
	case FormatRGBA1010102:
		return "RGBA_1010102"
	case FormatRGBAF16:
		return "RGBA_F16"
	case FormatYUVNV12:
		return "NV12"
	case FormatYUVNV21:
		return "NV21"
	case FormatP010CbCr:
		return "P010-CbCr"
	case FormatP010CrCb:
		return "P010-CrCb"
	default:
		return "UNKNOWN"
	}
}

// formatPriority orders formats for intersection per the negotiation rule:
// YUVNV12 > YUVNV21 > RGBA8888 > RGBA_1010102 > P010-CbCr > P010-CrCb.
var formatPriority = []PixelFormat{
	FormatYUVNV12, FormatYUVNV21, FormatRGBA8888,
	FormatRGBA1010102, FormatP010CbCr, FormatP010CrCb,
}

// BytesPerPixel returns bytes per pixel for packed formats, or 1 for the
// planar/semi-planar YUV formats (callers that need plane layout use
// RowBytes/ImageBytes instead of a flat bytes-per-pixel figure).
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA8888, FormatRGBA1010102:
		return 4
	case FormatRGBAF16:
		return 8
	default:
		return 1
	}
}

// IsPlanarYUV reports whether f is one of the NV12/NV21/P010 semi-planar formats.
func (f PixelFormat) IsPlanarYUV() bool {
	switch f {
	case FormatYUVNV12, FormatYUVNV21, FormatP010CbCr, FormatP010CrCb:
		return true
	default:
		return false
	}
}

// RowBytes returns the luma-plane row stride in bytes for a given width,
// or the packed-pixel row stride for packed RGBA formats.
func (f PixelFormat) RowBytes(width int) int {
	switch f {
	case FormatYUVNV12, FormatYUVNV21:
		return width
	case FormatP010CbCr, FormatP010CrCb:
		return width * 2
	default:
		return width * f.BytesPerPixel()
	}
}

// ImageBytes returns the total backing-store size for width x height pixels
// in this format, including chroma planes for semi-planar YUV (1.5x the
// luma plane for 4:2:0 subsampling).
func (f PixelFormat) ImageBytes(width, height int) int {
	switch f {
	case FormatYUVNV12, FormatYUVNV21:
		return width*height + (width*height)/2
	case FormatP010CbCr, FormatP010CrCb:
		return width*height*2 + width*height // luma (2B/px) + chroma (2B/px at half res x2 planes = 1x)
	default:
		return f.RowBytes(width) * height
	}
}

// ColorSpace identifies a gamut + transfer-function + range tuple.
type ColorSpace uint8

const (
	ColorSpaceDefault ColorSpace = iota
	ColorSpaceSRGB
	ColorSpaceSRGBLimit
	ColorSpaceDisplayP3
	ColorSpaceDisplayP3Limit
	ColorSpaceBT2020HLG
	ColorSpaceBT2020HLGLimit
	ColorSpaceBT2020PQ
	ColorSpaceBT2020PQLimit
	ColorSpaceAdobeRGB
)

// String returns a human-readable color space name.
func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceSRGB:
		return "SRGB"
	case ColorSpaceSRGBLimit:
		return "SRGB_LIMIT"
	case ColorSpaceDisplayP3:
		return "DISPLAY_P3"
	case ColorSpaceDisplayP3Limit:
		return "DISPLAY_P3_LIMIT"
	case ColorSpaceBT2020HLG:
		return "BT2020_HLG"
	case ColorSpaceBT2020HLGLimit:
		return "BT2020_HLG_LIMIT"
	case ColorSpaceBT2020PQ:
		return "BT2020_PQ"
	case ColorSpaceBT2020PQLimit:
		return "BT2020_PQ_LIMIT"
	case ColorSpaceAdobeRGB:
		return "ADOBE_RGB"
	default:
		return "DEFAULT"
	}
}

// IsHDR reports whether c belongs to the BT2020 HLG/PQ family (limited or
// full range) -- the spec's IsHdrColorSpace predicate.
func (c ColorSpace) IsHDR() bool {
	switch c {
	case ColorSpaceBT2020HLG, ColorSpaceBT2020HLGLimit, ColorSpaceBT2020PQ, ColorSpaceBT2020PQLimit:
		return true
	default:
		return false
	}
}

// HDRFormat identifies how HDR content is represented in a buffer.
type HDRFormat uint8

const (
	HDRFormatDefault HDRFormat = iota
	HDRFormatSDR
	HDRFormatHDR10
	HDRFormatHDR8Gainmap
)

// BackingKind identifies the physical storage of a buffer.
type BackingKind uint8

const (
	// BackingDefault lets the memory manager choose (DMA under GPU execution, HEAP otherwise).
	BackingDefault BackingKind = iota
	// BackingHeap is plain process memory.
	BackingHeap
	// BackingDMA is a native graphics buffer shared with GPU/codec/display.
	BackingDMA
	// BackingShared is a POSIX-style shared-memory file descriptor.
	BackingShared
)

func (b BackingKind) String() string {
	switch b {
	case BackingHeap:
		return "HEAP"
	case BackingDMA:
		return "DMA"
	case BackingShared:
		return "SHARED"
	default:
		return "DEFAULT"
	}
}

// PixelmapRole identifies the role of an auxiliary image within a Picture.
type PixelmapRole uint8

const (
	RolePrimary PixelmapRole = iota
	RoleGainmap
	RoleDepthmap
	RoleUnrefocus
	RoleLinear
	RoleWatermarkCut
)

// HDRMetadataType is the native HDR_METADATA_TYPE side-channel key value.
type HDRMetadataType uint8

const (
	HDRMetadataNone HDRMetadataType = iota
	HDRMetadataVividSingle
	HDRMetadataVividDual
)

// HDRMetadata is the DMA-buffer native side-channel (§6): three keys
// carried alongside a graphics buffer's pixel data.
type HDRMetadata struct {
	MetadataType    HDRMetadataType
	ColorSpaceInfo  ColorSpace
	StaticMetadata  []byte
	DynamicMetadata []byte
}

// NativeHandle is an opaque handle to a platform graphics buffer (DMA-BUF
// fd, AHardwareBuffer, etc). The engine never interprets its contents --
// only the render environment's GPU backend and the sink's output
// container implementations do.
type NativeHandle any

// BufferInfo is the canonical description of a pixel buffer (§3).
//
// Invariant: Length >= RowStride*rows(Format, Height); RowStride >=
// Format.RowBytes(Width); BackingKind is consistent with which handle
// field is populated (DMA -> NativeBuffer, GPU-resident -> Texture).
type BufferInfo struct {
	Width      int
	Height     int
	RowStride  int
	Length     int
	Format     PixelFormat
	ColorSpace ColorSpace
	HDRFormat  HDRFormat
	Backing    BackingKind
	Role       PixelmapRole

	// Addr is the raw CPU-addressable pointer, nil for GPU-only buffers.
	Addr []byte
	// NativeBuffer is the DMA/shared-memory handle, if Backing != HEAP.
	NativeBuffer NativeHandle
	// Texture is the GPU texture handle, if the buffer is (also) GPU-resident.
	Texture any
	// Metadata carries the HDR side-channel for DMA buffers.
	Metadata *HDRMetadata
}

// Validate checks the BufferInfo invariants from §3.
func (b *BufferInfo) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return newStatus(ErrInvalidParameter, "buffer dimensions must be positive")
	}
	minStride := b.Format.RowBytes(b.Width)
	if b.RowStride < minStride {
		return newStatus(ErrInvalidParameter, "row stride smaller than format requires")
	}
	rows := b.Height
	if b.Format.IsPlanarYUV() {
		// Semi-planar YUV adds Height/2 chroma rows below the Height luma rows.
		rows = b.Height + b.Height/2
	}
	if b.Length < b.RowStride*rows {
		return newStatus(ErrInvalidParameter, "buffer length smaller than rowStride*rows")
	}
	switch b.Backing {
	case BackingDMA, BackingShared:
		if b.NativeBuffer == nil {
			return newStatus(ErrInvalidParameter, "DMA/SHARED backing requires a native buffer handle")
		}
	}
	return nil
}

// DataType identifies the concrete container an EffectBuffer is backed by
// or materialized into (§6 input/output data types).
type DataType uint8

const (
	DataTypeUnknown DataType = iota
	DataTypePixelMap
	DataTypeSurface
	DataTypeSurfaceBuffer
	DataTypeURI
	DataTypePath
	DataTypeTexture
	DataTypeNativeWindow
	DataTypePicture
)

func (d DataType) String() string {
	switch d {
	case DataTypePixelMap:
		return "PIXEL_MAP"
	case DataTypeSurface:
		return "SURFACE"
	case DataTypeSurfaceBuffer:
		return "SURFACE_BUFFER"
	case DataTypeURI:
		return "URI"
	case DataTypePath:
		return "PATH"
	case DataTypeTexture:
		return "TEX"
	case DataTypeNativeWindow:
		return "NATIVE_WINDOW"
	case DataTypePicture:
		return "PICTURE"
	default:
		return "UNKNOWN"
	}
}

// ExtraInfo carries the owning-container reference for an EffectBuffer (§3).
type ExtraInfo struct {
	DataType DataType

	// Bitmap is populated when DataType == DataTypePixelMap.
	Bitmap *Pixmap
	// URIOrPath is the file location when DataType is URI or Path.
	URIOrPath string
	// Picture carries the primary + auxiliary maps when DataType == DataTypePicture.
	Picture *Picture
	// Timestamp is set for streaming (SURFACE) sources, in nanoseconds.
	Timestamp int64
	// Transform positions the source rectangle when the sink draws into a
	// native window (§4.10). The zero value (all-zero coefficients) is not
	// a valid transform; IsIdentity callers must check HasTransform first.
	Transform Matrix
	// HasTransform reports whether Transform was explicitly set. Needed
	// because Matrix{} is degenerate, not the identity.
	HasTransform bool
}

// Picture is a container with a primary pixelmap and up to five auxiliary
// role-keyed maps (GAINMAP, DEPTHMAP, UNREFOCUS, LINEAR, WATERMARK_CUT).
type Picture struct {
	Primary    *Pixmap
	Auxiliary  map[PixelmapRole]*Pixmap
	EXIF       map[string]string
	HDRMeta    *HDRMetadata
	SourceKind DataType // URI or Path, for re-encode on output
}

// AuxInfo returns the auxiliary pixelmap stored under role, or nil if none.
func (p *Picture) AuxInfo(role PixelmapRole) *Pixmap {
	if p.Auxiliary == nil {
		return nil
	}
	return p.Auxiliary[role]
}

// EffectBuffer pairs a BufferInfo with its owning ExtraInfo, a raw-address
// alias, and an optional role-keyed set of auxiliary buffers for HDR
// gainmap pictures (§3). EffectBuffer never owns pixel storage: storage
// belongs to the corresponding memory record (scratch) or to the external
// container (caller bitmap, picture, graphics buffer).
type EffectBuffer struct {
	Info  BufferInfo
	Extra ExtraInfo

	// Auxiliary maps role to the BufferInfo of an auxiliary image. For
	// HDR8_GAINMAP pictures a GAINMAP entry is mandatory; DEPTHMAP,
	// UNREFOCUS, LINEAR entries are optional.
	Auxiliary map[PixelmapRole]*BufferInfo
}

// Addr returns the raw pixel-address alias for this buffer.
func (b *EffectBuffer) Addr() []byte {
	return b.Info.Addr
}

// RequireGainmap reports whether this buffer is HDR8_GAINMAP and carries
// the mandatory GAINMAP auxiliary entry.
func (b *EffectBuffer) RequireGainmap() error {
	if b.Info.HDRFormat != HDRFormatHDR8Gainmap {
		return nil
	}
	if b.Auxiliary == nil || b.Auxiliary[RoleGainmap] == nil {
		return newStatus(ErrInvalidParameter, "HDR8_GAINMAP buffer missing mandatory gainmap auxiliary")
	}
	return nil
}

// NewEffectBuffer constructs an EffectBuffer from a BufferInfo, an optional
// data pointer override, and its ExtraInfo (§4.1). addr may be nil for
// GPU-only buffers where only the texture handle is populated.
func NewEffectBuffer(info BufferInfo, addr []byte, extra ExtraInfo) *EffectBuffer {
	if addr != nil {
		info.Addr = addr
	}
	return &EffectBuffer{Info: info, Extra: extra}
}
