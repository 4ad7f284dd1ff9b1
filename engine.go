package imagefx

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/gogpu/imagefx/cache"
	"github.com/gogpu/imagefx/graph"
	"github.com/gogpu/imagefx/internal/capability"
	"github.com/gogpu/imagefx/internal/colorspace"
	"github.com/gogpu/imagefx/internal/strategy"
	"github.com/gogpu/imagefx/render"
)

// priorityFilters names filters that must always appear first in the
// chain, in this relative order (§4.11, §8 edge case 6). Crop is the
// paradigm example: cropping before any other effect keeps downstream
// filters working on the final frame size.
var priorityFilters = []string{"Crop"}

func isPriorityFilter(name string) bool {
	for _, p := range priorityFilters {
		if p == name {
			return true
		}
	}
	return false
}

// EngineState is the orchestrator's lifecycle state.
type EngineState uint8

const (
	EngineCreated EngineState = iota
	EngineConfigured
	EngineRunning
	EngineStopped
)

// Engine is the image-effect pipeline orchestrator (§4.11): it owns the
// input/output containers, the ordered filter chain, the render
// environment's dedicated thread, and drives negotiation + execution for
// each Render call.
type Engine struct {
	mu sync.Mutex

	cfg engineConfig
	log *slog.Logger

	input  *EffectBuffer
	output *EffectBuffer

	filters []*EffectFilter
	state   EngineState

	env *render.Environment
	ctx *EffectContext

	flushSurfaceBuffer bool

	// decodeCache holds recently decoded file pictures keyed by path/URI,
	// so repeated Render calls against the same file (common in preview
	// pipelines that re-run a chain while the user tweaks parameters)
	// skip the JPEG decode. Entries are cloned out on every hit so
	// in-place filters never mutate the cached copy.
	decodeCache *cache.ShardedCache[string, *Picture]
}

// NewEngine constructs an Engine with the given options.
func NewEngine(opts ...EngineOption) *Engine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.logger
	if log == nil {
		log = Logger()
	}

	env := render.NewEnvironment()
	if cfg.deviceHandle != nil {
		env.SetDeviceHandle(cfg.deviceHandle)
	}
	e := &Engine{
		cfg:         cfg,
		log:         log,
		env:         env,
		ctx:         NewEffectContext(env, log),
		state:       EngineCreated,
		decodeCache: cache.NewSharded[string, *Picture](cache.DefaultCapacity, cache.StringHasher),
	}
	return e
}

// decodeCached returns the Picture decoded from path, serving a cloned
// copy from decodeCache when available instead of re-decoding the file.
func (e *Engine) decodeCached(path string) (*Picture, error) {
	if pic, ok := e.decodeCache.Get(path); ok {
		return clonePicture(pic), nil
	}
	pic, err := decodePictureFile(path)
	if err != nil {
		return nil, err
	}
	e.decodeCache.Set(path, pic)
	return clonePicture(pic), nil
}

// clonePicture deep-copies a Picture's pixel data so a cached decode can be
// handed to an in-place pipeline without the pipeline corrupting the cache.
func clonePicture(pic *Picture) *Picture {
	clone := &Picture{Primary: pic.Primary.Clone(), SourceKind: pic.SourceKind}
	if pic.HDRMeta != nil {
		meta := *pic.HDRMeta
		clone.HDRMeta = &meta
	}
	if pic.Auxiliary != nil {
		clone.Auxiliary = make(map[PixelmapRole]*Pixmap, len(pic.Auxiliary))
		for role, aux := range pic.Auxiliary {
			clone.Auxiliary[role] = aux.Clone()
		}
	}
	if pic.EXIF != nil {
		clone.EXIF = make(map[string]string, len(pic.EXIF))
		for k, v := range pic.EXIF {
			clone.EXIF[k] = v
		}
	}
	return clone
}

// SetInputPixelMap sets an in-process bitmap as the pipeline's input.
func (e *Engine) SetInputPixelMap(bmp *Pixmap) error {
	if bmp == nil {
		return newStatus(ErrNullInput, "nil bitmap")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input = NewEffectBuffer(bmp.Info(), bmp.Addr(), ExtraInfo{DataType: DataTypePixelMap, Bitmap: bmp})
	return nil
}

// SetInputSurfaceBuffer sets a DMA graphics buffer as the pipeline's input.
func (e *Engine) SetInputSurfaceBuffer(info BufferInfo) error {
	if info.NativeBuffer == nil {
		return newStatus(ErrInvalidGraphicsBuffer, "surface buffer input requires a native handle")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.flushSurfaceBuffer {
		e.log.Debug("imagefx: flushing surface buffer CPU cache before use")
	}
	e.input = NewEffectBuffer(info, info.Addr, ExtraInfo{DataType: DataTypeSurfaceBuffer})
	return nil
}

// SetInputPicture sets a Picture container (primary + auxiliary maps) as input.
func (e *Engine) SetInputPicture(pic *Picture) error {
	if pic == nil || pic.Primary == nil {
		return newStatus(ErrNullInput, "nil picture or missing primary")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input = NewEffectBuffer(pic.Primary.Info(), pic.Primary.Addr(), ExtraInfo{DataType: DataTypePicture, Picture: pic})
	return nil
}

// SetInputURI sets a file URI as the pipeline's input source. The path
// must end in one of the supported file extensions (§4.11).
func (e *Engine) SetInputURI(uri string) error {
	if err := validateFileExtension(uri); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input = &EffectBuffer{Extra: ExtraInfo{DataType: DataTypeURI, URIOrPath: uri}}
	return nil
}

// SetInputPath is the local-filesystem counterpart of SetInputURI.
func (e *Engine) SetInputPath(path string) error {
	if err := validateFileExtension(path); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input = &EffectBuffer{Extra: ExtraInfo{DataType: DataTypePath, URIOrPath: path}}
	return nil
}

// SetOutputPixelMap, SetOutputPicture, SetOutputSurfaceBuffer, SetOutputURI,
// SetOutputPath mirror the SetInput* family for the output side.

func (e *Engine) SetOutputPixelMap(bmp *Pixmap) error {
	if bmp == nil {
		return newStatus(ErrNullInput, "nil bitmap")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.output = NewEffectBuffer(bmp.Info(), bmp.Addr(), ExtraInfo{DataType: DataTypePixelMap, Bitmap: bmp})
	return nil
}

func (e *Engine) SetOutputSurfaceBuffer(info BufferInfo) error {
	if info.NativeBuffer == nil {
		return newStatus(ErrInvalidGraphicsBuffer, "surface buffer output requires a native handle")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.output = NewEffectBuffer(info, info.Addr, ExtraInfo{DataType: DataTypeSurfaceBuffer})
	return nil
}

func (e *Engine) SetOutputPicture(pic *Picture) error {
	if pic == nil || pic.Primary == nil {
		return newStatus(ErrNullInput, "nil picture or missing primary")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.output = NewEffectBuffer(pic.Primary.Info(), pic.Primary.Addr(), ExtraInfo{DataType: DataTypePicture, Picture: pic})
	return nil
}

func (e *Engine) SetOutputURI(uri string) error {
	if err := validateFileExtension(uri); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.output = &EffectBuffer{Extra: ExtraInfo{DataType: DataTypeURI, URIOrPath: uri}}
	return nil
}

func (e *Engine) SetOutputPath(path string) error {
	if err := validateFileExtension(path); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.output = &EffectBuffer{Extra: ExtraInfo{DataType: DataTypePath, URIOrPath: path}}
	return nil
}

// SetOutputNativeWindow sets an external display surface as the output.
func (e *Engine) SetOutputNativeWindow(info BufferInfo) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.output = &EffectBuffer{Info: info, Extra: ExtraInfo{DataType: DataTypeNativeWindow}}
	return nil
}

// SetOutputTexture sets a GPU texture as the output.
func (e *Engine) SetOutputTexture(info BufferInfo) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.output = &EffectBuffer{Info: info, Extra: ExtraInfo{DataType: DataTypeTexture}}
	return nil
}

var supportedFileExtensions = []string{".jpg", ".jpeg", ".heic", ".heif"}

func validateFileExtension(path string) error {
	lower := strings.ToLower(path)
	for _, ext := range supportedFileExtensions {
		if strings.HasSuffix(lower, ext) {
			return nil
		}
	}
	return newStatus(ErrUnsupportedFileExtension, path)
}

// Configure sets an engine configure key (§6). Supported keys:
// "runningType" (RunningType) and "flushSurfaceBuffer" (bool).
func (e *Engine) Configure(key string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch key {
	case "runningType":
		rt, ok := value.(RunningType)
		if !ok {
			return newStatus(ErrUnsupportedConfigKey, key)
		}
		e.cfg.runningType = rt
	case "flushSurfaceBuffer":
		b, ok := value.(bool)
		if !ok {
			return newStatus(ErrUnsupportedConfigKey, key)
		}
		e.flushSurfaceBuffer = b
	default:
		return newStatus(ErrUnsupportedConfigKey, key)
	}
	return nil
}

// AddEFilter appends f to the end of the chain, unless f is a priority
// filter, in which case it is inserted per the priority-reinsertion rule
// (§4.11, §8 edge case 6).
func (e *Engine) AddEFilter(f *EffectFilter) error {
	if f == nil {
		return newStatus(ErrInvalidFilter, "nil filter")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.insertFilterLocked(f)
	return e.rebuildPipelineLocked()
}

// InsertEFilter inserts f at index, clamped to the chain's bounds.
func (e *Engine) InsertEFilter(index int, f *EffectFilter) error {
	if f == nil {
		return newStatus(ErrInvalidFilter, "nil filter")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 {
		index = 0
	}
	if index > len(e.filters) {
		index = len(e.filters)
	}
	e.filters = append(e.filters, nil)
	copy(e.filters[index+1:], e.filters[index:])
	e.filters[index] = f
	return e.rebuildPipelineLocked()
}

// RemoveEFilter removes the first filter with the given name.
func (e *Engine) RemoveEFilter(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, f := range e.filters {
		if f.Name() == name {
			e.filters = append(e.filters[:i], e.filters[i+1:]...)
			return e.rebuildPipelineLocked()
		}
	}
	return newStatus(ErrInvalidFilter, name)
}

// ReplaceEFilter swaps out the first filter named old for replacement.
func (e *Engine) ReplaceEFilter(old string, replacement *EffectFilter) error {
	if replacement == nil {
		return newStatus(ErrInvalidFilter, "nil replacement")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, f := range e.filters {
		if f.Name() == old {
			e.filters[i] = replacement
			return e.rebuildPipelineLocked()
		}
	}
	return newStatus(ErrInvalidFilter, old)
}

// insertFilterLocked implements the priority-reinsertion rule: a new
// priority filter is placed just before the last existing priority
// filter, or at position 0 if none exist yet. Non-priority filters append
// at the end. The caller must hold e.mu.
func (e *Engine) insertFilterLocked(f *EffectFilter) {
	if !isPriorityFilter(f.Name()) {
		e.filters = append(e.filters, f)
		return
	}
	lastPriority := -1
	for i, ef := range e.filters {
		if isPriorityFilter(ef.Name()) {
			lastPriority = i
		}
	}
	pos := 0
	if lastPriority >= 0 {
		pos = lastPriority
	}
	e.filters = append(e.filters, nil)
	copy(e.filters[pos+1:], e.filters[pos:])
	e.filters[pos] = f
}

// rebuildPipelineLocked is called after every chain mutation (§4.11). The
// linear graph is reconstructed lazily at Render time from e.filters, so
// this only validates names are non-empty here.
func (e *Engine) rebuildPipelineLocked() error {
	for _, f := range e.filters {
		if f.Name() == "" {
			return newStatus(ErrInvalidFilter, "filter with empty name")
		}
	}
	return nil
}

// Start runs the pipeline once for single-image inputs: sets state to
// RUNNING, calls Render, then Stop (§4.11). Surface-stream inputs are a
// future extension; this engine targets single still-image invocations.
func (e *Engine) Start() error {
	e.mu.Lock()
	e.state = EngineRunning
	e.mu.Unlock()

	e.env.Start()
	err := e.Render()

	stopErr := e.Stop()
	if err != nil {
		return err
	}
	return stopErr
}

// Render executes one pipeline invocation: lock inputs, negotiate
// capability front-to-back across the filter chain, choose the execution
// path, run the chain, and materialize into the output (§4.11 "Render").
func (e *Engine) Render() error {
	e.mu.Lock()
	input, output, filters := e.input, e.output, append([]*EffectFilter(nil), e.filters...)
	e.mu.Unlock()

	if input == nil {
		return newStatus(ErrNullInput, "no input configured")
	}
	if output == nil {
		return newStatus(ErrNullInput, "no output configured")
	}

	if (input.Extra.DataType == DataTypeURI || input.Extra.DataType == DataTypePath) && input.Extra.Picture == nil {
		pic, err := e.decodeCached(input.Extra.URIOrPath)
		if err != nil {
			return err
		}
		pic.SourceKind = input.Extra.DataType
		input = NewEffectBuffer(pic.Primary.Info(), pic.Primary.Addr(), ExtraInfo{
			DataType:  input.Extra.DataType,
			URIOrPath: input.Extra.URIOrPath,
			Picture:   pic,
		})
	}

	e.ctx.Init(input.Addr(), output.Addr())
	defer e.ctx.Deinit()

	nr := negotiateExecutionPath(filters, input.Info.Format, e.cfg.runningType)
	e.ctx.SetIPType(nr.path)
	e.ctx.WorkingFormat = nr.format

	if err := e.applyColorSpace(input); err != nil {
		return err
	}

	source := NewSourceFilter()
	source.SetSource(input)

	nodes := make([]graph.Filter, 0, len(filters)+2)
	nodes = append(nodes, &sourceNode{src: source, ctx: e.ctx})
	for _, f := range filters {
		nodes = append(nodes, &effectNode{
			filter:  f,
			ctx:     e.ctx,
			dstDims: strategy.Dims{W: output.Info.Width, H: output.Info.Height},
		})
	}
	nodes = append(nodes, &sinkNode{sink: NewSinkFilter(output), ctx: e.ctx})

	g := graph.New(nodes, nil)
	gctx := context.Background()
	if _, err := g.Negotiate(gctx, graph.Capability{Width: input.Info.Width, Height: input.Info.Height, Format: int(input.Info.Format), Path: int(nr.path)}); err != nil {
		return err
	}
	_, err := g.Run(gctx)
	return err
}

// applyColorSpace implements the §4.3 color-space pipeline step: it picks
// the working color space for this invocation and, when the source is HDR
// but the chosen space is not, decomposes input's pixels in place into an
// SDR primary plus an 8-bit gainmap auxiliary (§4.3 step 5, §4.10 "HDR
// output specifics").
func (e *Engine) applyColorSpace(input *EffectBuffer) error {
	real := colorspace.Space(input.Info.ColorSpace)
	requested := colorspace.Space(e.cfg.colorSpace)

	chosen, gainmap, err := colorspace.ApplyColorSpace(input.Addr(), input.Info.Width, input.Info.Height, real, requested)
	if err != nil {
		return err
	}
	e.ctx.WorkingColorSpace = ColorSpace(chosen)

	if gainmap == nil {
		return nil
	}
	input.Info.ColorSpace = ColorSpace(chosen)
	input.Info.HDRFormat = HDRFormatHDR8Gainmap
	if input.Auxiliary == nil {
		input.Auxiliary = map[PixelmapRole]*BufferInfo{}
	}
	input.Auxiliary[RoleGainmap] = &BufferInfo{
		Width:     input.Info.Width,
		Height:    input.Info.Height,
		RowStride: input.Info.Width,
		Format:    FormatDefault,
		Addr:      gainmap,
	}
	return nil
}

// Stop tears down the render environment's thread.
func (e *Engine) Stop() error {
	e.env.Stop()
	e.mu.Lock()
	e.state = EngineStopped
	e.mu.Unlock()
	return nil
}

type negotiatedRun struct {
	path   IPType
	format PixelFormat
}

// toCapabilityRunningType converts the engine's public RunningType to the
// capability package's mirror enum at the orchestrator boundary; the two
// share the same iota ordering (DEFAULT, FOREGROUND, BACKGROUND).
func toCapabilityRunningType(rt RunningType) capability.RunningType {
	return capability.RunningType(rt)
}

// toCapability converts an *EffectFilter's advertised (format -> path) map
// to the capability package's representation, which the root PixelFormat
// and IPType enums share the same ordinal layout with.
func toCapability(f *EffectFilter) capability.Capability {
	formats := map[capability.Format]map[capability.Path]bool{}
	for format, paths := range f.Capability() {
		cp := map[capability.Path]bool{}
		for ip, ok := range paths {
			if !ok {
				continue
			}
			if ip == IPTypeGPU {
				cp[capability.PathGPU] = true
			} else {
				cp[capability.PathCPU] = true
			}
		}
		formats[capability.Format(format)] = cp
	}
	return capability.Capability{FilterName: f.Name(), Formats: formats}
}

// negotiateExecutionPath runs the §4.4 algorithm over the engine's
// concrete EffectFilter chain by delegating to the capability package's
// pure Negotiate function, converting to and from the root PixelFormat/
// IPType enums at the boundary.
func negotiateExecutionPath(filters []*EffectFilter, start PixelFormat, rt RunningType) negotiatedRun {
	chain := make([]capability.Capability, len(filters))
	for i, f := range filters {
		chain[i] = toCapability(f)
	}

	result := capability.Negotiate(chain, capability.Format(start), toCapabilityRunningType(rt))

	path := IPTypeCPU
	if result.Path == capability.PathGPU {
		path = IPTypeGPU
	}
	return negotiatedRun{path: path, format: PixelFormat(result.Format)}
}

// chainJSON mirrors the Save/Restore wire format (§6).
type chainJSON struct {
	ImageEffect struct {
		Name    string           `json:"name"`
		Filters []filterJSON     `json:"filters"`
	} `json:"imageEffect"`
}

type filterJSON struct {
	Name   string         `json:"name"`
	Values map[string]any `json:"values"`
}

// Save serializes the current filter chain to the §6 JSON format.
func (e *Engine) Save(chainName string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var doc chainJSON
	doc.ImageEffect.Name = chainName
	for _, f := range e.filters {
		doc.ImageEffect.Filters = append(doc.ImageEffect.Filters, filterJSON{Name: f.Name(), Values: f.Values})
	}
	return json.Marshal(doc)
}

// Restore rebuilds the filter chain from Save's JSON format, resolving
// each named filter via factory.
func (e *Engine) Restore(data []byte, factory func(name string, values map[string]any) (*EffectFilter, error)) (string, error) {
	var doc chainJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", newStatus(ErrInvalidParameter, err.Error())
	}

	var filters []*EffectFilter
	for _, fj := range doc.ImageEffect.Filters {
		f, err := factory(fj.Name, fj.Values)
		if err != nil {
			return "", err
		}
		filters = append(filters, f)
	}

	e.mu.Lock()
	e.filters = filters
	err := e.rebuildPipelineLocked()
	e.mu.Unlock()
	return doc.ImageEffect.Name, err
}
