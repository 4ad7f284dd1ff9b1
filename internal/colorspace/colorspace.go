// Package colorspace implements the engine's color-space manager: target
// mapping, pipeline-wide color-space selection, and HDR decomposition to
// an SDR primary plus gainmap. It builds on internal/color's sRGB<->linear
// lookup tables for the per-pixel conversion step.
package colorspace

import (
	"math"

	"github.com/gogpu/imagefx/internal/color"
)

// Space mirrors the root package's ColorSpace enum. It is redeclared here
// (rather than imported) to keep this package import-cycle-free with
// respect to the root engine package, which imports colorspace.
type Space uint8

const (
	Default Space = iota
	SRGB
	SRGBLimit
	DisplayP3
	DisplayP3Limit
	BT2020HLG
	BT2020HLGLimit
	BT2020PQ
	BT2020PQLimit
	AdobeRGB
)

// targetMap is the conversion-needed table from §4.3 step 1.
var targetMap = map[Space]Space{
	SRGB:             SRGB,
	SRGBLimit:        SRGBLimit,
	DisplayP3:        DisplayP3,
	DisplayP3Limit:   DisplayP3Limit,
	BT2020HLG:        BT2020HLG,
	BT2020HLGLimit:   BT2020HLGLimit,
	BT2020PQ:         BT2020PQ,
	BT2020PQLimit:    BT2020PQLimit,
	AdobeRGB:         DisplayP3,
}

// Target returns the color space a source should be converted to before
// pipeline execution (§4.3 step 1).
func Target(s Space) Space {
	if t, ok := targetMap[s]; ok {
		return t
	}
	return s
}

// NeedsConversion reports whether s differs from its target.
func NeedsConversion(s Space) bool {
	return Target(s) != s
}

// IsHDR reports whether s belongs to the BT2020 HLG/PQ family.
func IsHDR(s Space) bool {
	switch s {
	case BT2020HLG, BT2020HLGLimit, BT2020PQ, BT2020PQLimit:
		return true
	default:
		return false
	}
}

// isWideSRGBFamily reports membership in {SRGB, SRGB_LIMIT, DISPLAY_P3, DISPLAY_P3_LIMIT}.
func isWideSRGBFamily(s Space) bool {
	switch s {
	case SRGB, SRGBLimit, DisplayP3, DisplayP3Limit:
		return true
	default:
		return false
	}
}

// hdrToSDRFallback maps a BT2020 HLG/PQ space (limited or full) to its
// DISPLAY_P3 counterpart of matching range, per §4.3 step 3.
func hdrToSDRFallback(s Space) (Space, bool) {
	switch s {
	case BT2020HLG, BT2020PQ:
		return DisplayP3, true
	case BT2020HLGLimit, BT2020PQLimit:
		return DisplayP3Limit, true
	default:
		return Default, false
	}
}

// ErrNotSupportConvert is returned by Choose when no mapping exists.
type ErrNotSupportConvert struct{ Source Space }

func (e *ErrNotSupportConvert) Error() string {
	return "colorspace: source not convertible to any filter-supported space"
}

// Choose implements ChooseColorSpace (§4.3 step 3): given the set of
// color spaces every filter in the chain supports and the source's real
// color space, pick the pipeline-wide working color space.
func Choose(filtersSupported map[Space]bool, srcReal Space) (Space, error) {
	if filtersSupported[srcReal] {
		return srcReal, nil
	}
	if isWideSRGBFamily(srcReal) {
		return srcReal, nil
	}
	if mapped, ok := hdrToSDRFallback(srcReal); ok {
		return mapped, nil
	}
	return Default, &ErrNotSupportConvert{Source: srcReal}
}

// Manager owns the per-invocation color-space state (§4.3).
type Manager struct {
	src Space
	dst Space
}

// Init records the invocation's source and destination color spaces.
func (m *Manager) Init(src, dst Space) {
	m.src = src
	m.dst = dst
}

// Deinit clears invocation state.
func (m *Manager) Deinit() {
	m.src, m.dst = Default, Default
}

// ConvertPixelSRGBToLinear converts one pixel's sRGB-encoded R, G, B bytes
// to linear float32 samples, using the O(1) LUT from internal/color. Alpha
// is not part of the input or the result.
func ConvertPixelSRGBToLinear(srgb [3]uint8) [3]float32 {
	return [3]float32{
		color.SRGBToLinearFast(srgb[0]),
		color.SRGBToLinearFast(srgb[1]),
		color.SRGBToLinearFast(srgb[2]),
	}
}

// ConvertPixelLinearToSRGB is the inverse of ConvertPixelSRGBToLinear.
func ConvertPixelLinearToSRGB(lin [3]float32) [3]uint8 {
	return [3]uint8{
		color.LinearToSRGBFast(lin[0]),
		color.LinearToSRGBFast(lin[1]),
		color.LinearToSRGBFast(lin[2]),
	}
}

// PQToLinear applies the SMPTE ST 2084 (PQ) electro-optical transfer
// function, mapping a normalized PQ code value to linear light in
// [0, 1] relative to a 10,000 nit reference white.
func PQToLinear(pq float64) float64 {
	const (
		m1 = 2610.0 / 16384.0
		m2 = 2523.0 / 4096.0 * 128.0
		c1 = 3424.0 / 4096.0
		c2 = 2413.0 / 4096.0 * 32.0
		c3 = 2392.0 / 4096.0 * 32.0
	)
	if pq <= 0 {
		return 0
	}
	num := math.Max(math.Pow(pq, 1/m2)-c1, 0)
	den := c2 - c3*math.Pow(pq, 1/m2)
	if den <= 0 {
		return 0
	}
	return math.Pow(num/den, 1/m1)
}

// HLGToLinear applies the ARIB STD-B67 (Hybrid Log-Gamma) OETF inverse,
// mapping a normalized HLG signal to scene-linear light in [0, 1].
func HLGToLinear(hlg float64) float64 {
	const a, b, c = 0.17883277, 0.28466892, 0.55991073
	if hlg <= 0.5 {
		return (hlg * hlg) / 3.0
	}
	return (math.Exp((hlg-c)/a) + b) / 12.0
}

// LinearToPQ is the inverse of PQToLinear: the SMPTE ST 2084 OETF.
func LinearToPQ(linear float64) float64 {
	const (
		m1 = 2610.0 / 16384.0
		m2 = 2523.0 / 4096.0 * 128.0
		c1 = 3424.0 / 4096.0
		c2 = 2413.0 / 4096.0 * 32.0
		c3 = 2392.0 / 4096.0 * 32.0
	)
	if linear < 0 {
		linear = 0
	}
	p := math.Pow(linear, m1)
	return math.Pow((c1+c2*p)/(1+c3*p), m2)
}

// LinearToHLG is the inverse of HLGToLinear: the ARIB STD-B67 OETF.
func LinearToHLG(linear float64) float64 {
	const a, b, c = 0.17883277, 0.28466892, 0.55991073
	if linear < 0 {
		linear = 0
	}
	if linear <= 1.0/12.0 {
		return math.Sqrt(3 * linear)
	}
	return a*math.Log(12*linear-b) + c
}

// DecomposeHDR implements the HDR->SDR+gainmap step (§4.3 step 5): given a
// linear-light HDR sample and its corresponding tone-mapped SDR sample,
// compute the gainmap ratio channel stored in an 8-bit auxiliary image.
// ratio = log2(hdr/sdr) normalized into [0,255] over [-1, +6.5] stops,
// following the common single-gain-channel Ultra HDR convention.
func DecomposeHDR(hdrLinear, sdrLinear float64) uint8 {
	const minLog, maxLog = -1.0, 6.5
	if sdrLinear <= 0 {
		sdrLinear = 1e-6
	}
	if hdrLinear <= 0 {
		hdrLinear = 1e-6
	}
	ratio := math.Log2(hdrLinear / sdrLinear)
	norm := (ratio - minLog) / (maxLog - minLog)
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	return uint8(norm*255 + 0.5)
}

// RecomposeHDR is the inverse of DecomposeHDR: apply a gainmap sample to an
// SDR linear sample to reconstruct the HDR linear sample.
func RecomposeHDR(sdrLinear float64, gain uint8) float64 {
	const minLog, maxLog = -1.0, 6.5
	norm := float64(gain) / 255.0
	logRatio := minLog + norm*(maxLog-minLog)
	return sdrLinear * math.Pow(2, logRatio)
}

// ApplyColorSpace implements the ChooseColorSpace+convert step (§4.3 steps
// 2-5) as a single entry point: it resolves requested against real (falling
// back to Target(real) when the caller has no preference), and if real is
// HDR while the resolved space is not, decomposes pixels from their
// HDR-encoded samples into SDR-encoded samples in place plus an 8-bit
// single-channel gainmap. pixels must be packed RGBA8888; width*height*4
// bytes are read and written. When no decomposition is needed pixels is
// left untouched and gainmap is nil.
func ApplyColorSpace(pixels []byte, width, height int, real, requested Space) (chosen Space, gainmap []byte, err error) {
	chosen = requested
	if chosen == Default {
		chosen = Target(real)
	}
	if !IsHDR(real) || IsHDR(chosen) {
		return chosen, nil, nil
	}

	decodeLinear := HLGToLinear
	if real == BT2020PQ || real == BT2020PQLimit {
		decodeLinear = PQToLinear
	}

	n := width * height
	if n <= 0 || len(pixels) < n*4 {
		return chosen, nil, nil
	}

	gainmap = make([]byte, n)
	for i := 0; i < n; i++ {
		off := i * 4
		for c := 0; c < 3; c++ {
			hdrLinear := decodeLinear(float64(pixels[off+c]) / 255.0)
			sdrByte := color.LinearToSRGBFast(float32(hdrLinear))
			if c == 0 {
				sdrLinear := float64(color.SRGBToLinearFast(sdrByte))
				gainmap[i] = DecomposeHDR(hdrLinear, sdrLinear)
			}
			pixels[off+c] = sdrByte
		}
	}
	return chosen, gainmap, nil
}
