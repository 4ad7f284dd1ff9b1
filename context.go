package imagefx

import (
	"log/slog"

	"github.com/gogpu/imagefx/internal/membuf"
	"github.com/gogpu/imagefx/render"
)

// IPType selects which kind of handler processes a filter step (§4.9
// "context.ipType").
type IPType uint8

const (
	IPTypeCPU IPType = iota
	IPTypeGPU
)

// EffectContext is the per-invocation state shared across every filter in
// one pipeline run: the memory manager, the chosen execution path, the
// working format and color space, the source/destination addresses, and
// the render environment (§3, §4.2, §4.4, §4.7).
type EffectContext struct {
	Memory *membuf.Manager
	IPType IPType

	// WorkingFormat is the pipeline-wide format chosen by capability
	// negotiation (§4.4 output).
	WorkingFormat PixelFormat
	// WorkingColorSpace is the color space chosen by the color-space
	// manager (§4.3) for this invocation.
	WorkingColorSpace ColorSpace

	// SrcAddr/DstAddr are the invocation's source and user-destination
	// addresses, consulted by the render strategy (§4.5).
	SrcAddr []byte
	DstAddr []byte

	Env *render.Environment

	log *slog.Logger
}

// NewEffectContext creates a context wired to a fresh memory manager.
func NewEffectContext(env *render.Environment, log *slog.Logger) *EffectContext {
	return &EffectContext{
		Memory: membuf.New(log),
		Env:    env,
		log:    log,
	}
}

// Init records the invocation's source and destination, forwarding to the
// memory manager (§4.2).
func (c *EffectContext) Init(srcAddr, dstAddr []byte) {
	c.SrcAddr = srcAddr
	c.DstAddr = dstAddr
	c.Memory.Init(srcAddr, dstAddr)
}

// SetIPType records the resolved execution path and propagates it to the
// memory manager so allocation defaults follow suit (§4.2 DEFAULT backing policy).
func (c *EffectContext) SetIPType(ip IPType) {
	c.IPType = ip
	if ip == IPTypeGPU {
		c.Memory.SetExecutionPath(membuf.PathGPU)
	} else {
		c.Memory.SetExecutionPath(membuf.PathCPU)
	}
}

// Deinit releases per-invocation state between runs (§8 invariant 2).
func (c *EffectContext) Deinit() {
	c.Memory.Deinit()
}
