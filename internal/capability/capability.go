// Package capability implements the engine's capability negotiation
// (choosing a single execution path and working pixel format that every
// filter in the chain can honor before the pipeline runs).
package capability

// Format is the subset of pixel-format identity capability negotiation
// needs. It mirrors the root package's PixelFormat enum without importing
// it (avoiding an import cycle back to the root engine package); callers
// convert to/from the root enum at the package boundary.
type Format uint8

const (
	FormatDefault Format = iota
	FormatRGBA8888
	FormatRGBA1010102
	FormatRGBAF16
	FormatYUVNV12
	FormatYUVNV21
	FormatP010CbCr
	FormatP010CrCb
)

// Priority orders formats for intersection (§4.4): YUVNV12 > YUVNV21 >
// RGBA8888 > RGBA_1010102 > P010-CbCr > P010-CrCb.
var Priority = []Format{
	FormatYUVNV12, FormatYUVNV21, FormatRGBA8888,
	FormatRGBA1010102, FormatP010CbCr, FormatP010CrCb,
}

// Path identifies an execution path a filter can run on.
type Path uint8

const (
	PathCPU Path = iota
	PathGPU
)

// RunningType selects the user-configured set of allowed execution paths
// (§4.4 step 1, also referenced by the engine's Configure "runningType" key).
type RunningType uint8

const (
	RunningDefault RunningType = iota
	RunningForeground
	RunningBackground
)

// AllowedPaths returns the set of execution paths permitted for rt.
// DEFAULT and FOREGROUND both allow {CPU, GPU}; BACKGROUND allows only {CPU}.
func AllowedPaths(rt RunningType) map[Path]bool {
	switch rt {
	case RunningBackground:
		return map[Path]bool{PathCPU: true}
	default:
		return map[Path]bool{PathCPU: true, PathGPU: true}
	}
}

// Capability is one filter's advertised (format -> execution paths) map,
// plus its preferred output dimensions (§3 "Capability").
type Capability struct {
	FilterName string
	Formats    map[Format]map[Path]bool
	PreferredW int
	PreferredH int
}

// Supports reports whether this capability lists path as available for format.
func (c Capability) Supports(format Format, path Path) bool {
	paths, ok := c.Formats[format]
	if !ok {
		return false
	}
	return paths[path]
}

// HasFormat reports whether this capability lists format at all.
func (c Capability) HasFormat(format Format) bool {
	_, ok := c.Formats[format]
	return ok
}

// Result is the outcome of negotiating across an ordered chain of
// capabilities: the chosen execution path and the pipeline-wide working
// format (§4.4 "Output: (executionPath, pipelineFormat)").
type Result struct {
	Path   Path
	Format Format
}

// Negotiate runs the §4.4 algorithm over an ordered list of per-filter
// capabilities, starting from the source's proposed format.
func Negotiate(chain []Capability, startFormat Format, rt RunningType) Result {
	allowed := AllowedPaths(rt)
	path := PathCPU
	format := startFormat

	cpuLocked := false
	for _, fc := range chain {
		if !fc.HasFormat(format) {
			// §4.4 step 3: negotiation stops, keep the running path chosen so far.
			break
		}
		if !cpuLocked && path == PathCPU && allowed[PathGPU] && fc.Supports(format, PathGPU) {
			path = PathGPU
			format = FormatRGBA8888 // §4.4 step 2: force working format on GPU upgrade.
			continue
		}
		if path == PathCPU {
			// This filter did not upgrade the chain, so CPU stays selected.
			cpuLocked = true
			continue
		}
		if !fc.Supports(format, PathGPU) {
			// A later filter doesn't support GPU at the forced format; fall back.
			// Once CPU is selected, no further GPU upgrades happen.
			if fc.Supports(format, PathCPU) {
				path = PathCPU
				cpuLocked = true
			}
		}
	}

	return Result{Path: path, Format: format}
}

// HighPriorityFormat implements CalculateHighPriorityFormat (§4.4,
// §8 "pure function: reordering the intersection input does not change
// output"): the highest-priority format present in every capability's set,
// or chain[0]'s first format if the intersection is empty.
func HighPriorityFormat(chain []Capability) Format {
	if len(chain) == 0 {
		return FormatDefault
	}
	for _, f := range Priority {
		inAll := true
		for _, fc := range chain {
			if !fc.HasFormat(f) {
				inAll = false
				break
			}
		}
		if inAll {
			return f
		}
	}
	return firstFormat(chain[0])
}

func firstFormat(cap Capability) Format {
	for _, f := range Priority {
		if cap.HasFormat(f) {
			return f
		}
	}
	return FormatDefault
}

// NegotiateFormats implements CalculateNegotiateFormats: the ordered
// subset of Priority that every capability in chain supports.
func NegotiateFormats(chain []Capability) []Format {
	var out []Format
	for _, f := range Priority {
		inAll := true
		for _, fc := range chain {
			if !fc.HasFormat(f) {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, f)
		}
	}
	return out
}
