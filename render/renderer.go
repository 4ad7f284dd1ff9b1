// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

// Op is a single GPU draw operation a Renderer executes: sample SrcView
// through the named shader pipeline, with Params carrying the effect's
// uniform values (e.g. a color matrix, blur radius), and write to the
// bound RenderTarget.
type Op struct {
	Pipeline string
	SrcView  TextureView
	Params   []float32
}

// Renderer executes GPU effect draws against a render target.
//
// The Renderer interface is the primary GPU-dispatch abstraction for
// effect filters whose execution path is GPU (§4.9): a filter's GPU
// handler builds an Op describing the shader and its source texture, and
// asks the Renderer to draw it into the destination target.
//
// Renderers are stateless between Render calls, allowing the same renderer
// to be used with different targets across filters in one chain.
//
// Thread Safety: Renderers are NOT thread-safe. All GPU dispatch happens
// from the render environment's single render thread (§4.7, §5).
type Renderer interface {
	// Render executes op, writing its result into target.
	Render(target RenderTarget, op Op) error

	// Flush ensures all pending rendering operations are complete.
	//
	// For CPU renderers, this is typically a no-op as operations are
	// synchronous. For GPU renderers, this may submit command buffers
	// and wait for completion.
	Flush() error
}

// RendererCapabilities describes the features supported by a renderer.
type RendererCapabilities struct {
	// IsGPU indicates if this is a GPU-accelerated renderer.
	IsGPU bool

	// SupportsBlendModes indicates if custom blend modes are supported.
	SupportsBlendModes bool

	// SupportsTextures indicates if texture sampling is supported.
	SupportsTextures bool

	// MaxTextureSize is the maximum texture dimension (0 = unlimited).
	MaxTextureSize int
}

// CapableRenderer is an optional interface for renderers that can
// report their capabilities.
type CapableRenderer interface {
	Renderer

	// Capabilities returns the renderer's capabilities.
	Capabilities() RendererCapabilities
}
