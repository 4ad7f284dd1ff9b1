// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu"

	_ "github.com/gogpu/wgpu/hal/allbackends"
)

// colorMatrixWGSL is the compute shader behind ApplyColorMatrix. It mirrors
// internal/filter/colormatrix.go's CPU math exactly: each output channel is
// a dot product of one input pixel's (R,G,B,A) against a row of the 4x5
// matrix plus a bias term, so the two code paths agree bit-for-bit (modulo
// float rounding) on the same coefficients.
//
// The matrix is uploaded as five vec4<f32> columns (col0..col3 are the
// R/G/B/A contribution columns, col4 the bias column) so the dispatch body
// reduces to four vector multiply-adds instead of twenty scalar ones.
const colorMatrixWGSL = `
struct ColorMatrix {
    cols: array<vec4<f32>, 5>,
}

struct Params {
    pixel_count: u32,
}

@group(0) @binding(0) var<storage, read> src: array<u32>;
@group(0) @binding(1) var<storage, read_write> dst: array<u32>;
@group(0) @binding(2) var<uniform> mat: ColorMatrix;
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    let i = id.x;
    if (i >= params.pixel_count) {
        return;
    }
    let packed = src[i];
    let r = f32(packed & 0xffu);
    let g = f32((packed >> 8u) & 0xffu);
    let b = f32((packed >> 16u) & 0xffu);
    let a = f32((packed >> 24u) & 0xffu);

    let out = mat.cols[0] * r + mat.cols[1] * g + mat.cols[2] * b + mat.cols[3] * a + mat.cols[4];

    let nr = u32(clamp(out.x, 0.0, 255.0) + 0.5);
    let ng = u32(clamp(out.y, 0.0, 255.0) + 0.5);
    let nb = u32(clamp(out.z, 0.0, 255.0) + 0.5);
    let na = u32(clamp(out.w, 0.0, 255.0) + 0.5);
    dst[i] = nr | (ng << 8u) | (nb << 16u) | (na << 24u);
}
`

// GPUBackend owns the GPU runtime used by effect filters' GPU handlers
// (C9 GPU dispatch, §4.9): it compiles the color-matrix compute pipeline
// once and reuses it for every EffectFilter whose negotiated path is GPU.
//
// GPUBackend always creates its own wgpu.Instance/Adapter/Device. A host
// DeviceHandle is accepted (NewGPUBackend's host parameter) and kept so
// NullDeviceHandle/DeviceCapabilities reporting has a real caller, but its
// GPU resources are never type-asserted into a *wgpu.Device: gpucontext's
// own provider contract (see the teacher's gpu.SetDeviceProvider, which
// forwards an opaque `any` to an internal accelerator and documents that
// the provider "should... implement gpucontext.HalProvider for direct HAL
// access") exposes no concrete bridge to a *wgpu.Device from the examples
// available here. Sharing the host's literal device is future work; until
// a grounded bridge exists, GPUBackend runs its own independent device
// rather than fabricating one.
type GPUBackend struct {
	host DeviceHandle

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device

	shader         *wgpu.ShaderModule
	bindGroupLayout *wgpu.BindGroupLayout
	pipelineLayout  *wgpu.PipelineLayout
	pipeline        *wgpu.ComputePipeline

	caps DeviceCapabilities
}

// NewGPUBackend creates a GPU backend and compiles its compute pipelines.
// host may be NullDeviceHandle{} when no host device is available.
func NewGPUBackend(host DeviceHandle) (*GPUBackend, error) {
	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("render: create wgpu instance: %w", err)
	}

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("render: request wgpu adapter: %w", err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("render: request wgpu device: %w", err)
	}

	b := &GPUBackend{
		host:     host,
		instance: instance,
		adapter:  adapter,
		device:   device,
		caps: DeviceCapabilities{
			MaxTextureSize:          device.Limits().MaxTextureDimension2D,
			MaxBindGroups:           4,
			SupportsCompute:         true,
			SupportsStorageTextures: true,
			VendorName:              adapter.Info().Vendor,
			DeviceName:              adapter.Info().Name,
		},
	}

	if err := b.buildColorMatrixPipeline(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// compileWGSL validates WGSL source through naga before handing it to
// wgpu.CreateShaderModule (which also accepts WGSL directly). Catching a
// syntax error here, at backend construction, is cheaper than surfacing it
// mid-render from inside the first Op this pipeline ever executes.
func compileWGSL(src string) error {
	if _, err := naga.Compile(src); err != nil {
		return fmt.Errorf("render: compile shader: %w", err)
	}
	return nil
}

func (b *GPUBackend) buildColorMatrixPipeline() error {
	if err := compileWGSL(colorMatrixWGSL); err != nil {
		return err
	}

	shader, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "imagefx-colormatrix",
		WGSL:  colorMatrixWGSL,
	})
	if err != nil {
		return fmt.Errorf("render: create shader module: %w", err)
	}
	b.shader = shader

	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "imagefx-colormatrix-bgl",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 1, Visibility: wgpu.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
			{Binding: 2, Visibility: wgpu.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 3, Visibility: wgpu.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
		},
	})
	if err != nil {
		return fmt.Errorf("render: create bind group layout: %w", err)
	}
	b.bindGroupLayout = layout

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "imagefx-colormatrix-pl",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		return fmt.Errorf("render: create pipeline layout: %w", err)
	}
	b.pipelineLayout = pipelineLayout

	pipeline, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:      "imagefx-colormatrix-pipeline",
		Layout:     pipelineLayout,
		Module:     shader,
		EntryPoint: "main",
	})
	if err != nil {
		return fmt.Errorf("render: create compute pipeline: %w", err)
	}
	b.pipeline = pipeline
	return nil
}

// packMatrix lays out m's 20 coefficients as five vec4<f32> columns
// (col0..col3 the R/G/B/A contribution columns, col4 the bias column),
// matching colorMatrixWGSL's ColorMatrix struct layout.
func packMatrix(m [20]float32) []byte {
	buf := make([]byte, 5*4*4)
	putCol := func(col int, c0, c1, c2, c3 float32) {
		off := col * 16
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(c0))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(c1))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(c2))
		binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(c3))
	}
	putCol(0, m[0], m[5], m[10], m[15])
	putCol(1, m[1], m[6], m[11], m[16])
	putCol(2, m[2], m[7], m[12], m[17])
	putCol(3, m[3], m[8], m[13], m[18])
	putCol(4, m[4], m[9], m[14], m[19])
	return buf
}

// ApplyColorMatrix runs colorMatrixWGSL over a packed RGBA8888 buffer on
// the GPU (the C9 GPU handler for color-matrix effects: brightness,
// contrast, saturation, grayscale, invert all reduce to one matrix). It
// returns a new buffer the same size as pixels; pixels itself is left
// untouched, matching the CPU path's dst/src separation.
func (b *GPUBackend) ApplyColorMatrix(pixels []byte, width, height int, m [20]float32) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: invalid dimensions %dx%d", width, height)
	}
	pixelCount := width * height
	bufSize := uint64(pixelCount * 4)
	if uint64(len(pixels)) < bufSize {
		return nil, fmt.Errorf("render: pixel buffer too small for %dx%d", width, height)
	}

	srcBuf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "colormatrix-src",
		Size:  bufSize,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create src buffer: %w", err)
	}
	defer srcBuf.Release()

	dstBuf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "colormatrix-dst",
		Size:  bufSize,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create dst buffer: %w", err)
	}
	defer dstBuf.Release()

	stagingBuf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "colormatrix-staging",
		Size:  bufSize,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create staging buffer: %w", err)
	}
	defer stagingBuf.Release()

	matBuf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "colormatrix-matrix",
		Size:  5 * 4 * 4,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create matrix uniform buffer: %w", err)
	}
	defer matBuf.Release()

	paramsData := make([]byte, 16)
	binary.LittleEndian.PutUint32(paramsData, uint32(pixelCount))
	paramsBuf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "colormatrix-params",
		Size:  16,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create params uniform buffer: %w", err)
	}
	defer paramsBuf.Release()

	queue := b.device.Queue()
	if err := queue.WriteBuffer(srcBuf, 0, pixels[:bufSize]); err != nil {
		return nil, fmt.Errorf("render: upload pixels: %w", err)
	}
	if err := queue.WriteBuffer(matBuf, 0, packMatrix(m)); err != nil {
		return nil, fmt.Errorf("render: upload matrix: %w", err)
	}
	if err := queue.WriteBuffer(paramsBuf, 0, paramsData); err != nil {
		return nil, fmt.Errorf("render: upload params: %w", err)
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "colormatrix-bg",
		Layout: b.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: srcBuf, Size: bufSize},
			{Binding: 1, Buffer: dstBuf, Size: bufSize},
			{Binding: 2, Buffer: matBuf, Size: 5 * 4 * 4},
			{Binding: 3, Buffer: paramsBuf, Size: 16},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("render: create bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("render: create command encoder: %w", err)
	}

	pass, err := encoder.BeginComputePass(nil)
	if err != nil {
		return nil, fmt.Errorf("render: begin compute pass: %w", err)
	}
	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	workgroups := uint32((pixelCount + 63) / 64)
	pass.Dispatch(workgroups, 1, 1)
	if err := pass.End(); err != nil {
		return nil, fmt.Errorf("render: end compute pass: %w", err)
	}

	encoder.CopyBufferToBuffer(dstBuf, 0, stagingBuf, 0, bufSize)

	cmdBuf, err := encoder.Finish()
	if err != nil {
		return nil, fmt.Errorf("render: finish command encoder: %w", err)
	}

	if err := queue.Submit(cmdBuf); err != nil {
		return nil, fmt.Errorf("render: submit: %w", err)
	}

	result := make([]byte, bufSize)
	if err := queue.ReadBuffer(stagingBuf, 0, result); err != nil {
		return nil, fmt.Errorf("render: read back result: %w", err)
	}
	return result, nil
}

// createTexture allocates a GPU texture and wraps it so it satisfies the
// render.Texture interface, which (unlike *wgpu.Texture) reports its own
// width/height and can mint views.
func (b *GPUBackend) createTexture(desc TextureDescriptor) (Texture, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         desc.Label,
		Size:          wgpu.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: desc.Depth},
		MipLevelCount: desc.MipLevelCount,
		SampleCount:   desc.SampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         toWGPUTextureUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("render: create texture: %w", err)
	}
	return &wgpuTexture{backend: b, tex: tex, width: desc.Width, height: desc.Height, format: desc.Format}, nil
}

// toWGPUTextureUsage converts render.TextureUsage bit-by-bit; the two
// enums are defined independently (render.TextureUsage predates any GPU
// backend) so their bit positions are never assumed to match.
func toWGPUTextureUsage(u TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u&TextureUsageCopySrc != 0 {
		out |= wgpu.TextureUsageCopySrc
	}
	if u&TextureUsageCopyDst != 0 {
		out |= wgpu.TextureUsageCopyDst
	}
	if u&TextureUsageTextureBinding != 0 {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u&TextureUsageStorageBinding != 0 {
		out |= wgpu.TextureUsageStorageBinding
	}
	if u&TextureUsageRenderAttachment != 0 {
		out |= wgpu.TextureUsageRenderAttachment
	}
	return out
}

// wgpuTexture adapts *wgpu.Texture to the render.Texture interface.
type wgpuTexture struct {
	backend *GPUBackend
	tex     *wgpu.Texture
	width   uint32
	height  uint32
	format  gputypes.TextureFormat
}

func (t *wgpuTexture) Width() uint32                    { return t.width }
func (t *wgpuTexture) Height() uint32                   { return t.height }
func (t *wgpuTexture) Format() gputypes.TextureFormat   { return t.format }
func (t *wgpuTexture) Destroy()                         { t.tex.Release() }

func (t *wgpuTexture) CreateView() TextureView {
	view, err := t.backend.device.CreateTextureView(t.tex, nil)
	if err != nil {
		return nil
	}
	return &wgpuTextureView{view: view}
}

// wgpuTextureView adapts *wgpu.TextureView to the render.TextureView interface.
type wgpuTextureView struct {
	view *wgpu.TextureView
}

func (v *wgpuTextureView) Destroy() { v.view.Release() }

// DeviceCapabilities reports the real device limits and adapter identity
// discovered at construction time (§4.9 GPU-path negotiation input).
func (b *GPUBackend) DeviceCapabilities() DeviceCapabilities { return b.caps }

// Render implements render.Renderer for the color-matrix Op: the matrix in
// op.Params is applied on the GPU to target's own CPU-addressable pixels,
// and the result is written back into them. op.SrcView and op.Pipeline are
// not read.
func (b *GPUBackend) Render(target RenderTarget, op Op) error {
	if len(op.Params) != 20 {
		return fmt.Errorf("render: color matrix op requires 20 params, got %d", len(op.Params))
	}
	pixels := target.Pixels()
	if pixels == nil {
		return fmt.Errorf("render: GPU renderer requires a CPU-addressable target for readback")
	}
	var m [20]float32
	copy(m[:], op.Params)

	result, err := b.ApplyColorMatrix(pixels, target.Width(), target.Height(), m)
	if err != nil {
		return err
	}
	copy(pixels, result)
	return nil
}

// Flush is a no-op: ApplyColorMatrix submits and waits for its own command
// buffer synchronously, so there is nothing left pending between calls.
func (b *GPUBackend) Flush() error { return nil }

// Capabilities implements render.CapableRenderer.
func (b *GPUBackend) Capabilities() RendererCapabilities {
	return RendererCapabilities{
		IsGPU:               true,
		SupportsBlendModes:  false,
		SupportsTextures:    true,
		MaxTextureSize:      int(b.caps.MaxTextureSize),
	}
}

// Close releases the pipeline and device resources. Safe to call once.
func (b *GPUBackend) Close() {
	if b.pipeline != nil {
		b.pipeline.Release()
		b.pipeline = nil
	}
	if b.pipelineLayout != nil {
		b.pipelineLayout.Release()
		b.pipelineLayout = nil
	}
	if b.bindGroupLayout != nil {
		b.bindGroupLayout.Release()
		b.bindGroupLayout = nil
	}
	if b.shader != nil {
		b.shader.Release()
		b.shader = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

var (
	_ Renderer        = (*GPUBackend)(nil)
	_ CapableRenderer = (*GPUBackend)(nil)
	_ Texture         = (*wgpuTexture)(nil)
	_ TextureView     = (*wgpuTextureView)(nil)
)
