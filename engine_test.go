package imagefx

import "testing"

func identityFilter(name string) *EffectFilter {
	cpu := &Handlers{
		Path:             IPTypeCPU,
		SupportedFormats: []PixelFormat{FormatRGBA8888},
		OnApplyRGBA8888: func(ctx *EffectContext, src, dst *EffectBuffer) error {
			return nil
		},
	}
	return NewEffectFilter(name, cpu, nil)
}

func TestEngineRenderPassesThroughToBitmapOutput(t *testing.T) {
	e := NewEngine()

	src := NewPixmap(2, 2)
	src.Clear(1, 2, 3, 255)
	dst := NewPixmap(2, 2)

	if err := e.SetInputPixelMap(src); err != nil {
		t.Fatalf("SetInputPixelMap: %v", err)
	}
	if err := e.SetOutputPixelMap(dst); err != nil {
		t.Fatalf("SetOutputPixelMap: %v", err)
	}
	if err := e.AddEFilter(identityFilter("NoOp")); err != nil {
		t.Fatalf("AddEFilter: %v", err)
	}

	if err := e.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	r, g, b, a := dst.At(0, 0).RGBA()
	if uint8(r>>8) != 1 || uint8(g>>8) != 2 || uint8(b>>8) != 3 || uint8(a>>8) != 255 {
		t.Fatalf("dst not populated from src: r=%d g=%d b=%d a=%d", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestEngineAddEFilterReinsertsPriorityFilterBeforeLast(t *testing.T) {
	e := NewEngine()

	if err := e.AddEFilter(identityFilter("Blur")); err != nil {
		t.Fatalf("AddEFilter: %v", err)
	}
	if err := e.AddEFilter(identityFilter("Crop")); err != nil {
		t.Fatalf("AddEFilter: %v", err)
	}
	if err := e.AddEFilter(identityFilter("Sharpen")); err != nil {
		t.Fatalf("AddEFilter: %v", err)
	}
	if err := e.AddEFilter(identityFilter("Crop")); err != nil {
		t.Fatalf("AddEFilter: %v", err)
	}

	names := make([]string, len(e.filters))
	for i, f := range e.filters {
		names[i] = f.Name()
	}
	// the first Crop goes to position 0 because no priority filter exists
	// yet; the second Crop must land just before the first Crop, not at the
	// very end behind Sharpen.
	want := []string{"Crop", "Crop", "Blur", "Sharpen"}
	if len(names) != len(want) {
		t.Fatalf("filter order = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("filter order = %v, want %v", names, want)
		}
	}
}

func TestEngineRemoveEFilterUnknownNameErrors(t *testing.T) {
	e := NewEngine()
	err := e.RemoveEFilter("DoesNotExist")
	if kind, ok := KindOf(err); !ok || kind != ErrInvalidFilter {
		t.Fatalf("RemoveEFilter() err = %v, want ErrInvalidFilter", err)
	}
}

func TestEngineSetInputURIRejectsUnsupportedExtension(t *testing.T) {
	e := NewEngine()
	err := e.SetInputURI("file:///tmp/photo.png")
	if kind, ok := KindOf(err); !ok || kind != ErrUnsupportedFileExtension {
		t.Fatalf("SetInputURI() err = %v, want ErrUnsupportedFileExtension", err)
	}
}

func TestEngineSaveRestoreRoundTrip(t *testing.T) {
	e := NewEngine()
	f := identityFilter("Blur")
	f.Values["radius"] = float64(4)
	if err := e.AddEFilter(f); err != nil {
		t.Fatalf("AddEFilter: %v", err)
	}

	data, err := e.Save("my-chain")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored := NewEngine()
	name, err := restored.Restore(data, func(name string, values map[string]any) (*EffectFilter, error) {
		rf := identityFilter(name)
		rf.Values = values
		return rf, nil
	})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if name != "my-chain" {
		t.Fatalf("Restore() name = %q, want %q", name, "my-chain")
	}
	if len(restored.filters) != 1 || restored.filters[0].Name() != "Blur" {
		t.Fatalf("Restore() filters = %+v, want single Blur filter", restored.filters)
	}
	if restored.filters[0].Values["radius"] != float64(4) {
		t.Fatalf("Restore() did not preserve filter values: %+v", restored.filters[0].Values)
	}
}

func TestEngineConfigureRunningTypeRestrictsToCPU(t *testing.T) {
	e := NewEngine()
	if err := e.Configure("runningType", RunningBackground); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	gpuOnly := NewEffectFilter("GPUOnly", nil, &Handlers{
		Path:             IPTypeGPU,
		SupportedFormats: []PixelFormat{FormatRGBA8888},
		OnApplyRGBA8888:  func(ctx *EffectContext, src, dst *EffectBuffer) error { return nil },
	})

	nr := negotiateExecutionPath([]*EffectFilter{gpuOnly}, FormatRGBA8888, e.cfg.runningType)
	if nr.path != IPTypeCPU {
		t.Fatalf("negotiateExecutionPath() path = %v, want CPU when running in background", nr.path)
	}
}

func TestEngineConfigureUnknownKeyErrors(t *testing.T) {
	e := NewEngine()
	err := e.Configure("bogus", 1)
	if kind, ok := KindOf(err); !ok || kind != ErrUnsupportedConfigKey {
		t.Fatalf("Configure() err = %v, want ErrUnsupportedConfigKey", err)
	}
}
