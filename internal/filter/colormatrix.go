package filter

// ColorMatrixFilter applies a 4x5 color transformation matrix to an
// RGBA8888 buffer. The transformation is:
//
//	[R']   [a00 a01 a02 a03 a04]   [R]
//	[G'] = [a10 a11 a12 a13 a14] * [G]
//	[B']   [a20 a21 a22 a23 a24]   [B]
//	[A']   [a30 a31 a32 a33 a34]   [A]
//	                               [1]
//
// The fifth column provides bias/offset values. Color values are in
// [0, 255] range during transformation, then clamped back.
type ColorMatrixFilter struct {
	// Matrix is the 4x5 transformation matrix in row-major order.
	// [0-4] = row 0 (R), [5-9] = row 1 (G), [10-14] = row 2 (B), [15-19] = row 3 (A)
	Matrix [20]float32
}

// NewColorMatrixFilter creates a color matrix filter with the given matrix.
func NewColorMatrixFilter(matrix [20]float32) *ColorMatrixFilter {
	return &ColorMatrixFilter{Matrix: matrix}
}

// NewIdentityColorMatrix creates a color matrix filter that passes through unchanged.
func NewIdentityColorMatrix() *ColorMatrixFilter {
	return &ColorMatrixFilter{
		Matrix: [20]float32{
			1, 0, 0, 0, 0,
			0, 1, 0, 0, 0,
			0, 0, 1, 0, 0,
			0, 0, 0, 1, 0,
		},
	}
}

// NewBrightnessFilter creates a filter that adjusts brightness.
// factor: 0.0 = black, 1.0 = unchanged, 2.0 = twice as bright.
func NewBrightnessFilter(factor float32) *ColorMatrixFilter {
	return &ColorMatrixFilter{
		Matrix: [20]float32{
			factor, 0, 0, 0, 0,
			0, factor, 0, 0, 0,
			0, 0, factor, 0, 0,
			0, 0, 0, 1, 0,
		},
	}
}

// NewContrastFilter creates a filter that adjusts contrast.
// factor: 0.0 = gray, 1.0 = unchanged, 2.0 = high contrast.
func NewContrastFilter(factor float32) *ColorMatrixFilter {
	offset := 128 * (1 - factor)
	return &ColorMatrixFilter{
		Matrix: [20]float32{
			factor, 0, 0, 0, offset,
			0, factor, 0, 0, offset,
			0, 0, factor, 0, offset,
			0, 0, 0, 1, 0,
		},
	}
}

// NewSaturationFilter creates a filter that adjusts color saturation.
// factor: 0.0 = grayscale, 1.0 = unchanged, 2.0 = oversaturated.
func NewSaturationFilter(factor float32) *ColorMatrixFilter {
	const (
		lumR = 0.2126
		lumG = 0.7152
		lumB = 0.0722
	)
	invFactor := 1 - factor
	return &ColorMatrixFilter{
		Matrix: [20]float32{
			lumR*invFactor + factor, lumG * invFactor, lumB * invFactor, 0, 0,
			lumR * invFactor, lumG*invFactor + factor, lumB * invFactor, 0, 0,
			lumR * invFactor, lumG * invFactor, lumB*invFactor + factor, 0, 0,
			0, 0, 0, 1, 0,
		},
	}
}

// NewGrayscaleFilter creates a filter that converts to grayscale using
// Rec. 709 luminance weights.
func NewGrayscaleFilter() *ColorMatrixFilter {
	return NewSaturationFilter(0)
}

// NewInvertFilter creates a filter that inverts colors.
func NewInvertFilter() *ColorMatrixFilter {
	return &ColorMatrixFilter{
		Matrix: [20]float32{
			-1, 0, 0, 0, 255,
			0, -1, 0, 0, 255,
			0, 0, -1, 0, 255,
			0, 0, 0, 1, 0,
		},
	}
}

// Apply applies the color matrix transformation. src and dst must describe
// the same width/height; they may alias for an in-place transform.
func (f *ColorMatrixFilter) Apply(dst []byte, dstStride int, src []byte, srcStride, width, height int) {
	m := &f.Matrix

	for y := 0; y < height; y++ {
		srcRow := src[y*srcStride:]
		dstRow := dst[y*dstStride:]
		for x := 0; x < width; x++ {
			pr := float32(srcRow[x*4+0])
			pg := float32(srcRow[x*4+1])
			pb := float32(srcRow[x*4+2])
			a := float32(srcRow[x*4+3])

			// RGBA8888 at the filter boundary is straight alpha, not
			// premultiplied, so the matrix coefficients apply directly.
			newR := m[0]*pr + m[1]*pg + m[2]*pb + m[3]*a + m[4]
			newG := m[5]*pr + m[6]*pg + m[7]*pb + m[8]*a + m[9]
			newB := m[10]*pr + m[11]*pg + m[12]*pb + m[13]*a + m[14]
			newA := m[15]*pr + m[16]*pg + m[17]*pb + m[18]*a + m[19]

			dstRow[x*4+0] = clampUint8(newR)
			dstRow[x*4+1] = clampUint8(newG)
			dstRow[x*4+2] = clampUint8(newB)
			dstRow[x*4+3] = clampUint8(newA)
		}
	}
}

// Multiply returns a new filter that is the product of this filter and
// another: the result applies this filter first, then the other.
func (f *ColorMatrixFilter) Multiply(other *ColorMatrixFilter) *ColorMatrixFilter {
	a := &other.Matrix
	b := &f.Matrix

	result := &ColorMatrixFilter{}
	r := &result.Matrix

	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[row*5+k] * b[k*5+col]
			}
			r[row*5+col] = sum
		}
		r[row*5+4] = a[row*5+0]*b[4] + a[row*5+1]*b[9] +
			a[row*5+2]*b[14] + a[row*5+3]*b[19] + a[row*5+4]
	}

	return result
}
