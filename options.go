package imagefx

import (
	"log/slog"

	"github.com/gogpu/imagefx/render"
)

// EngineOption configures an Engine at construction time.
type EngineOption func(*engineConfig)

type engineConfig struct {
	logger       *slog.Logger
	runningType  RunningType
	queueDepth   int
	colorSpace   ColorSpace
	deviceHandle render.DeviceHandle
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		runningType: RunningDefault,
		queueDepth:  8,
		colorSpace:  ColorSpaceDefault,
	}
}

// WithLogger attaches a structured logger to the engine and everything it owns.
func WithLogger(l *slog.Logger) EngineOption {
	return func(c *engineConfig) { c.logger = l }
}

// WithRunningType sets the allowed-execution-path policy (§4.4, §6
// "runningType" configure key).
func WithRunningType(rt RunningType) EngineOption {
	return func(c *engineConfig) { c.runningType = rt }
}

// WithRenderQueueDepth records a render task queue depth in the engine
// configuration. The value is not passed to the render environment, whose
// bounded task queue keeps its default depth of 8 (§4.7).
func WithRenderQueueDepth(depth int) EngineOption {
	return func(c *engineConfig) {
		if depth > 0 {
			c.queueDepth = depth
		}
	}
}

// WithColorSpace requests the pipeline's working color space (§4.3 step
// 3). ColorSpaceDefault (the zero value) lets the color-space manager pick
// the source's own target space.
func WithColorSpace(cs ColorSpace) EngineOption {
	return func(c *engineConfig) { c.colorSpace = cs }
}

// WithDeviceHandle lets a host that already created its own GPU device
// (a window-toolkit app, a game engine frame graph) register it with the
// render environment before the first GPU-path filter runs. See
// render.DeviceHandle and render.NewGPUBackend for what is and isn't
// shared with the host's device today.
func WithDeviceHandle(handle render.DeviceHandle) EngineOption {
	return func(c *engineConfig) { c.deviceHandle = handle }
}

// RunningType selects the user-configured set of allowed execution paths
// (§4.4 step 1; also the engine's "runningType" configure key, §6).
type RunningType uint8

const (
	RunningDefault RunningType = iota
	RunningForeground
	RunningBackground
)
