package imagefx

import (
	"context"

	"github.com/gogpu/imagefx/graph"
	"github.com/gogpu/imagefx/internal/membuf"
	"github.com/gogpu/imagefx/internal/strategy"
)

// toGraphState maps the engine's internal filterState onto graph.State so
// SourceFilter/EffectFilter/SinkFilter can back a graph.Filter without
// exposing filterState outside this package.
func toGraphState(s filterState) graph.State {
	switch s {
	case stateInitialized:
		return graph.StateInitialized
	case statePreparing:
		return graph.StatePreparing
	case stateRunning:
		return graph.StateRunning
	case stateReady:
		return graph.StateReady
	default:
		return graph.StateCreated
	}
}

// sourceNode adapts SourceFilter to graph.Filter.
type sourceNode struct {
	src   *SourceFilter
	ctx   *EffectContext
	state filterState
}

func (n *sourceNode) Name() string      { return n.src.Name() }
func (n *sourceNode) State() graph.State { return toGraphState(n.state) }

func (n *sourceNode) Negotiate(_ context.Context, in graph.Capability) (graph.Capability, error) {
	w, h, format, err := n.src.Prepare(n.ctx)
	if err != nil {
		return graph.Capability{}, err
	}
	n.state = statePreparing
	return graph.Capability{Width: w, Height: h, Format: int(format), Path: int(n.ctx.IPType)}, nil
}

func (n *sourceNode) Prepare(_ context.Context) error { return nil }

func (n *sourceNode) Start(_ context.Context) error {
	n.state = stateRunning
	return nil
}

func (n *sourceNode) Render(_ context.Context, _ any) (any, error) {
	buf, err := n.src.Start(n.ctx)
	n.state = stateReady
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// effectNode adapts EffectFilter to graph.Filter, consulting the render
// strategy (§4.5) before each Render to decide whether the filter's
// candidate write target is safe to use as-is, must be redirected at the
// caller-provided destination, or must be diverted into scratch memory to
// avoid clobbering the original source.
type effectNode struct {
	filter  *EffectFilter
	ctx     *EffectContext
	dstDims strategy.Dims
	state   filterState
}

func (n *effectNode) Name() string       { return n.filter.Name() }
func (n *effectNode) State() graph.State { return toGraphState(n.state) }

func (n *effectNode) Negotiate(_ context.Context, in graph.Capability) (graph.Capability, error) {
	return in, nil
}

func (n *effectNode) Prepare(_ context.Context) error {
	n.state = statePreparing
	return nil
}

func (n *effectNode) Start(_ context.Context) error {
	n.state = stateRunning
	return nil
}

func (n *effectNode) Render(_ context.Context, buf any) (any, error) {
	eb, _ := buf.(*EffectBuffer)
	if eb == nil {
		return nil, newStatus(ErrNullInput, n.filter.FilterName+": no input buffer from upstream")
	}

	working, err := n.applyStrategy(eb)
	if err != nil {
		return nil, err
	}

	if err := n.filter.Render(n.ctx, working, nil); err != nil {
		return nil, err
	}
	n.state = stateReady
	return working, nil
}

// applyStrategy runs strategy.Decide against the working buffer's current
// address and, for the Disallowed outcome, copies it into a fresh scratch
// allocation so the filter never overwrites the invocation's original
// source in place; for UseDst it copies into the caller's destination
// address so later filters (and the sink) finish writing directly into
// the user-supplied output, avoiding one final copy.
func (n *effectNode) applyStrategy(eb *EffectBuffer) (*EffectBuffer, error) {
	candidate := strategy.Addr(eb.Addr())
	src := strategy.Addr(n.ctx.SrcAddr)
	dst := strategy.Addr(n.ctx.DstAddr)
	negotiated := strategy.Dims{W: eb.Info.Width, H: eb.Info.Height}

	switch strategy.Decide(candidate, src, dst, negotiated, n.dstDims) {
	case strategy.UseDst:
		if len(n.ctx.DstAddr) < len(eb.Addr()) {
			return eb, nil
		}
		copy(n.ctx.DstAddr, eb.Addr())
		dstInfo := eb.Info
		dstInfo.Addr = n.ctx.DstAddr
		return NewEffectBuffer(dstInfo, n.ctx.DstAddr, eb.Extra), nil
	case strategy.Disallowed:
		rec, err := n.ctx.Memory.Alloc(n.ctx.SrcAddr, membuf.AllocInfo{
			Width:     eb.Info.Width,
			Height:    eb.Info.Height,
			RowStride: eb.Info.RowStride,
			Format:    uint8(eb.Info.Format),
		})
		if err != nil {
			return nil, newStatus(ErrAllocFailed, err.Error())
		}
		copy(rec.Addr, eb.Addr())
		scratchInfo := eb.Info
		scratchInfo.Addr = rec.Addr
		return NewEffectBuffer(scratchInfo, rec.Addr, eb.Extra), nil
	default:
		return eb, nil
	}
}

// sinkNode adapts SinkFilter to graph.Filter.
type sinkNode struct {
	sink  *SinkFilter
	ctx   *EffectContext
	state filterState
}

func (n *sinkNode) Name() string       { return n.sink.Name() }
func (n *sinkNode) State() graph.State { return toGraphState(n.state) }

func (n *sinkNode) Negotiate(_ context.Context, in graph.Capability) (graph.Capability, error) {
	return in, nil
}

func (n *sinkNode) Prepare(_ context.Context) error {
	n.state = statePreparing
	return nil
}

func (n *sinkNode) Start(_ context.Context) error {
	n.state = stateRunning
	return nil
}

func (n *sinkNode) Render(_ context.Context, buf any) (any, error) {
	eb, _ := buf.(*EffectBuffer)
	if eb == nil {
		return nil, newStatus(ErrNullInput, "sink: no input buffer from upstream")
	}
	if err := n.sink.Materialize(n.ctx, eb); err != nil {
		return nil, err
	}
	n.state = stateReady
	return eb, nil
}

var (
	_ graph.Filter = (*sourceNode)(nil)
	_ graph.Filter = (*effectNode)(nil)
	_ graph.Filter = (*sinkNode)(nil)
)
