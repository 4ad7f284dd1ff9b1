package filter

import (
	"math"
	"sync"
)

// BlurFilter applies separable Gaussian blur to an RGBA8888 buffer.
// The separable algorithm processes horizontal and vertical passes
// independently, achieving O(w*h*(rx+ry)) complexity instead of O(w*h*rx*ry).
type BlurFilter struct {
	// RadiusX is the horizontal blur radius in pixels.
	RadiusX float64

	// RadiusY is the vertical blur radius in pixels.
	RadiusY float64
}

// NewBlurFilter creates a new blur filter with equal radius in both directions.
func NewBlurFilter(radius float64) *BlurFilter {
	return &BlurFilter{RadiusX: radius, RadiusY: radius}
}

// NewBlurFilterXY creates a new blur filter with different X and Y radii.
// This allows for anisotropic (directional) blur effects.
func NewBlurFilterXY(radiusX, radiusY float64) *BlurFilter {
	return &BlurFilter{RadiusX: radiusX, RadiusY: radiusY}
}

// Apply blurs src (width x height, RGBA8888, srcStride bytes per row) into
// dst (dstStride bytes per row). src and dst must not alias.
func (f *BlurFilter) Apply(dst []byte, dstStride int, src []byte, srcStride, width, height int) {
	if f.RadiusX <= 0 && f.RadiusY <= 0 {
		copyPlane(dst, dstStride, src, srcStride, width, height)
		return
	}

	temp := getTempBuffer(width, height)
	defer putTempBuffer(temp)

	kernelX := CachedGaussianKernel(f.RadiusX)
	kernelY := CachedGaussianKernel(f.RadiusY)

	if f.RadiusX > 0 {
		blurHorizontal(src, srcStride, temp, width, height, kernelX)
	} else {
		copyToTemp(src, srcStride, temp, width, height)
	}

	if f.RadiusY > 0 {
		blurVertical(temp, dst, dstStride, width, height, kernelY)
	} else {
		copyFromTemp(temp, dst, dstStride, width, height)
	}
}

// blurHorizontal applies 1D horizontal convolution, src -> temp (float32 RGBA).
func blurHorizontal(src []byte, srcStride int, temp []float32, width, height int, kernel []float32) {
	kernelSize := len(kernel)
	halfKernel := kernelSize / 2

	for y := 0; y < height; y++ {
		row := src[y*srcStride:]
		for x := 0; x < width; x++ {
			var r, g, b, a float32
			for k := 0; k < kernelSize; k++ {
				kx := clampInt(x+k-halfKernel, 0, width-1)
				weight := kernel[k]
				r += float32(row[kx*4+0]) * weight
				g += float32(row[kx*4+1]) * weight
				b += float32(row[kx*4+2]) * weight
				a += float32(row[kx*4+3]) * weight
			}
			tempIdx := (y*width + x) * 4
			temp[tempIdx+0] = r
			temp[tempIdx+1] = g
			temp[tempIdx+2] = b
			temp[tempIdx+3] = a
		}
	}
}

// blurVertical applies 1D vertical convolution, temp -> dst.
func blurVertical(temp []float32, dst []byte, dstStride, width, height int, kernel []float32) {
	kernelSize := len(kernel)
	halfKernel := kernelSize / 2

	for y := 0; y < height; y++ {
		row := dst[y*dstStride:]
		for x := 0; x < width; x++ {
			var r, g, b, a float32
			for k := 0; k < kernelSize; k++ {
				ky := clampInt(y+k-halfKernel, 0, height-1)
				tempIdx := (ky*width + x) * 4
				weight := kernel[k]
				r += temp[tempIdx+0] * weight
				g += temp[tempIdx+1] * weight
				b += temp[tempIdx+2] * weight
				a += temp[tempIdx+3] * weight
			}
			row[x*4+0] = clampUint8(r)
			row[x*4+1] = clampUint8(g)
			row[x*4+2] = clampUint8(b)
			row[x*4+3] = clampUint8(a)
		}
	}
}

func copyToTemp(src []byte, srcStride int, temp []float32, width, height int) {
	for y := 0; y < height; y++ {
		row := src[y*srcStride:]
		for x := 0; x < width; x++ {
			tempIdx := (y*width + x) * 4
			temp[tempIdx+0] = float32(row[x*4+0])
			temp[tempIdx+1] = float32(row[x*4+1])
			temp[tempIdx+2] = float32(row[x*4+2])
			temp[tempIdx+3] = float32(row[x*4+3])
		}
	}
}

func copyFromTemp(temp []float32, dst []byte, dstStride, width, height int) {
	for y := 0; y < height; y++ {
		row := dst[y*dstStride:]
		for x := 0; x < width; x++ {
			tempIdx := (y*width + x) * 4
			row[x*4+0] = clampUint8(temp[tempIdx+0])
			row[x*4+1] = clampUint8(temp[tempIdx+1])
			row[x*4+2] = clampUint8(temp[tempIdx+2])
			row[x*4+3] = clampUint8(temp[tempIdx+3])
		}
	}
}

func copyPlane(dst []byte, dstStride int, src []byte, srcStride, width, height int) {
	rowBytes := width * 4
	for y := 0; y < height; y++ {
		copy(dst[y*dstStride:y*dstStride+rowBytes], src[y*srcStride:y*srcStride+rowBytes])
	}
}

// floatBuffer wraps a slice for sync.Pool to avoid allocation warnings.
type floatBuffer struct {
	data []float32
}

// tempBufferPool pools temporary float32 RGBA scratch buffers for blur passes.
var tempBufferPool = sync.Pool{
	New: func() interface{} {
		return &floatBuffer{data: make([]float32, 1024*1024*4)} // ~16MB for 1024x1024 RGBA
	},
}

// getTempBuffer retrieves a temporary buffer from the pool.
// The buffer is guaranteed to have at least width*height*4 elements.
func getTempBuffer(width, height int) []float32 {
	size := width * height * 4
	wrapper := tempBufferPool.Get().(*floatBuffer)

	if len(wrapper.data) < size {
		tempBufferPool.Put(wrapper)
		return make([]float32, size)
	}

	for i := 0; i < size; i++ {
		wrapper.data[i] = 0
	}

	return wrapper.data[:size]
}

// putTempBuffer returns a temporary buffer to the pool.
func putTempBuffer(buf []float32) {
	if cap(buf) <= 16*1024*1024 { // 64MB max
		tempBufferPool.Put(&floatBuffer{data: buf[:cap(buf)]})
	}
}

// clampInt clamps an integer to [minVal, maxVal].
func clampInt(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clampUint8 clamps a float32 to [0, 255] and converts to uint8.
func clampUint8(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5) // Round to nearest
}

// ExpandRadius returns how far, in pixels, the blur reads past the image
// edge (ceil(3*sigma)). Callers that need to pre-expand a working buffer
// (e.g. shadow compositing) use this; plain in-place blur clamps at edges.
func (f *BlurFilter) ExpandRadius() (int, int) {
	return int(math.Ceil(f.RadiusX * 3)), int(math.Ceil(f.RadiusY * 3))
}
