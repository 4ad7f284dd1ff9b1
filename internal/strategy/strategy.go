// Package strategy implements the engine's render strategy: given a
// filter's candidate output buffer and the negotiated destination, decide
// what the filter should actually write to (§4.5).
package strategy

// Addr identifies a buffer by its backing address for aliasing comparisons.
// Two Addrs alias when both are non-empty and point at the same backing
// array's first byte.
type Addr []byte

// Dims is a width/height pair.
type Dims struct{ W, H int }

// Outcome classifies a Decide result.
type Outcome uint8

const (
	// Unchanged means write to candidate as-is.
	Unchanged Outcome = iota
	// NoChangeNeeded means the filter is already writing to dst.
	NoChangeNeeded
	// UseDst means write to dst.
	UseDst
	// Disallowed means candidate would overwrite src; allocate scratch instead.
	Disallowed
	// UseCandidate means write to candidate, a scratch allocation.
	UseCandidate
)

// Decide implements the render strategy decision function (§4.5):
//   - No user dst, or src==dst: Unchanged, write to candidate.
//   - candidate addr == dst addr: NoChangeNeeded, already writing to dst.
//   - negotiated dims == dst dims: UseDst.
//   - candidate would overwrite src: Disallowed, filter must allocate scratch.
//   - Else: UseCandidate, candidate is scratch memory.
func Decide(candidate, src, dst Addr, negotiated, dstDims Dims) Outcome {
	if len(dst) == 0 || sameAddr(src, dst) {
		return Unchanged
	}
	if sameAddr(candidate, dst) {
		return NoChangeNeeded
	}
	if negotiated == dstDims {
		return UseDst
	}
	if sameAddr(candidate, src) {
		return Disallowed
	}
	return UseCandidate
}

func sameAddr(a, b Addr) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return &a[0] == &b[0]
}
