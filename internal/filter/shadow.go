package filter

import "math"

// ShadowColor is a straight-alpha RGBA color in [0,1] used to tint a
// drop shadow. It intentionally avoids depending on any image-buffer
// package so this file has no cross-package coupling beyond the stdlib.
type ShadowColor struct {
	R, G, B, A float64
}

// DropShadowFilter creates a drop shadow effect beneath an image.
// The filter extracts the alpha channel, blurs it, colorizes it,
// and composites it under the original image with an offset.
type DropShadowFilter struct {
	// OffsetX is the horizontal shadow offset in pixels.
	OffsetX float64

	// OffsetY is the vertical shadow offset in pixels.
	OffsetY float64

	// BlurRadius is the shadow blur radius in pixels.
	BlurRadius float64

	// Color is the shadow color (typically black with partial alpha).
	Color ShadowColor
}

// NewDropShadowFilter creates a new drop shadow filter.
func NewDropShadowFilter(offsetX, offsetY, blurRadius float64, color ShadowColor) *DropShadowFilter {
	return &DropShadowFilter{OffsetX: offsetX, OffsetY: offsetY, BlurRadius: blurRadius, Color: color}
}

// NewSimpleDropShadow creates a drop shadow with default black color at 50% opacity.
func NewSimpleDropShadow(offsetX, offsetY, blurRadius float64) *DropShadowFilter {
	return &DropShadowFilter{
		OffsetX: offsetX, OffsetY: offsetY, BlurRadius: blurRadius,
		Color: ShadowColor{R: 0, G: 0, B: 0, A: 0.5},
	}
}

// Apply applies the drop shadow filter in place across the full buffer.
// src and dst must have the same width/height; they may alias.
//
//  1. Extract alpha channel from source
//  2. Blur the alpha channel
//  3. Colorize with shadow color
//  4. Composite shadow under original at the configured offset
func (f *DropShadowFilter) Apply(dst []byte, dstStride int, src []byte, srcStride, width, height int) {
	alphaBuffer := make([]float32, width*height)
	extractAlpha(src, srcStride, alphaBuffer, width, height, int(f.OffsetX), int(f.OffsetY))

	if f.BlurRadius > 0 {
		blurred := make([]float32, width*height)
		blurAlphaChannel(alphaBuffer, blurred, width, height, f.BlurRadius)
		alphaBuffer = blurred
	}

	compositeShadow(dst, dstStride, src, srcStride, alphaBuffer, width, height, f.Color)
}

// ExpandRadius returns how far, in pixels, the shadow reads/draws past the
// source edge in each direction (blur spread plus offset).
func (f *DropShadowFilter) ExpandRadius() (left, top, right, bottom int) {
	blurExpand := int(math.Ceil(f.BlurRadius * 3))
	left, right, top, bottom = blurExpand, blurExpand, blurExpand, blurExpand
	if f.OffsetX < 0 {
		left += int(-f.OffsetX)
	} else {
		right += int(f.OffsetX)
	}
	if f.OffsetY < 0 {
		top += int(-f.OffsetY)
	} else {
		bottom += int(f.OffsetY)
	}
	return
}

// extractAlpha extracts the alpha channel from src to a float32 buffer,
// applying the shadow offset (the shadow is sampled offset from source).
func extractAlpha(src []byte, srcStride int, alpha []float32, width, height, offsetX, offsetY int) {
	for y := 0; y < height; y++ {
		srcY := y - offsetY
		for x := 0; x < width; x++ {
			srcX := x - offsetX
			idx := y*width + x
			if srcX < 0 || srcX >= width || srcY < 0 || srcY >= height {
				alpha[idx] = 0
				continue
			}
			alpha[idx] = float32(src[srcY*srcStride+srcX*4+3]) / 255.0
		}
	}
}

// blurAlphaChannel applies separable Gaussian blur to a single-channel buffer.
func blurAlphaChannel(src, dst []float32, width, height int, radius float64) {
	kernel := CachedGaussianKernel(radius)
	kernelSize := len(kernel)
	halfKernel := kernelSize / 2

	temp := make([]float32, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum float32
			for k := 0; k < kernelSize; k++ {
				kx := clampInt(x+k-halfKernel, 0, width-1)
				sum += src[y*width+kx] * kernel[k]
			}
			temp[y*width+x] = sum
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum float32
			for k := 0; k < kernelSize; k++ {
				ky := clampInt(y+k-halfKernel, 0, height-1)
				sum += temp[ky*width+x] * kernel[k]
			}
			dst[y*width+x] = sum
		}
	}
}

// compositeShadow colorizes the blurred alpha mask and composites it
// underneath the source image (source-over: shadow, then src on top).
func compositeShadow(dst []byte, dstStride int, src []byte, srcStride int, shadowAlpha []float32, width, height int, color ShadowColor) {
	shadowR := uint8(clamp255f(color.R * 255))
	shadowG := uint8(clamp255f(color.G * 255))
	shadowB := uint8(clamp255f(color.B * 255))
	shadowBaseA := float32(color.A)

	for y := 0; y < height; y++ {
		srcRow := src[y*srcStride:]
		dstRow := dst[y*dstStride:]
		for x := 0; x < width; x++ {
			shadowA := shadowAlpha[y*width+x] * shadowBaseA

			srcR := srcRow[x*4+0]
			srcG := srcRow[x*4+1]
			srcB := srcRow[x*4+2]
			srcA := srcRow[x*4+3]

			sR := float32(shadowR) * shadowA
			sG := float32(shadowG) * shadowA
			sB := float32(shadowB) * shadowA
			sA := shadowA * 255

			srcAlphaF := float32(srcA) / 255.0
			invSrcA := 1.0 - srcAlphaF

			dstRow[x*4+0] = clampUint8(float32(srcR) + sR*invSrcA)
			dstRow[x*4+1] = clampUint8(float32(srcG) + sG*invSrcA)
			dstRow[x*4+2] = clampUint8(float32(srcB) + sB*invSrcA)
			dstRow[x*4+3] = clampUint8(float32(srcA) + sA*invSrcA)
		}
	}
}

// clamp255f clamps a float64 to [0, 255] range.
func clamp255f(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return x
}
