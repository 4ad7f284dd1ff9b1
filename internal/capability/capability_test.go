package capability

import "testing"

func allPaths() map[Path]bool { return map[Path]bool{PathCPU: true, PathGPU: true} }
func cpuOnly() map[Path]bool  { return map[Path]bool{PathCPU: true} }

func TestAllowedPathsBackgroundIsCPUOnly(t *testing.T) {
	got := AllowedPaths(RunningBackground)
	if got[PathGPU] {
		t.Error("background running type must not allow GPU")
	}
	if !got[PathCPU] {
		t.Error("background running type must allow CPU")
	}
}

func TestAllowedPathsForegroundAllowsBoth(t *testing.T) {
	got := AllowedPaths(RunningForeground)
	if !got[PathCPU] || !got[PathGPU] {
		t.Error("foreground running type must allow CPU and GPU")
	}
}

func TestNegotiateUpgradesToGPUWhenSupported(t *testing.T) {
	chain := []Capability{
		{FilterName: "blur", Formats: map[Format]map[Path]bool{FormatRGBA8888: allPaths()}},
	}
	got := Negotiate(chain, FormatRGBA8888, RunningDefault)
	if got.Path != PathGPU {
		t.Errorf("expected GPU path, got %v", got.Path)
	}
	if got.Format != FormatRGBA8888 {
		t.Errorf("expected format forced to RGBA8888, got %v", got.Format)
	}
}

func TestNegotiateStaysCPUInBackground(t *testing.T) {
	chain := []Capability{
		{FilterName: "blur", Formats: map[Format]map[Path]bool{FormatRGBA8888: allPaths()}},
	}
	got := Negotiate(chain, FormatRGBA8888, RunningBackground)
	if got.Path != PathCPU {
		t.Errorf("expected CPU path under background running type, got %v", got.Path)
	}
}

func TestNegotiateStopsWhenFormatUnsupported(t *testing.T) {
	chain := []Capability{
		{FilterName: "a", Formats: map[Format]map[Path]bool{FormatYUVNV12: cpuOnly()}},
		{FilterName: "b", Formats: map[Format]map[Path]bool{FormatRGBA8888: allPaths()}},
	}
	got := Negotiate(chain, FormatYUVNV12, RunningDefault)
	if got.Format != FormatYUVNV12 {
		t.Errorf("negotiation should stop at filter a's format, got %v", got.Format)
	}
}

func TestNegotiateDowngradesWhenLaterFilterLacksGPU(t *testing.T) {
	chain := []Capability{
		{FilterName: "a", Formats: map[Format]map[Path]bool{FormatRGBA8888: allPaths()}},
		{FilterName: "b", Formats: map[Format]map[Path]bool{FormatRGBA8888: cpuOnly()}},
	}
	got := Negotiate(chain, FormatRGBA8888, RunningDefault)
	if got.Path != PathCPU {
		t.Errorf("expected downgrade to CPU when filter b lacks GPU support, got %v", got.Path)
	}
}

func TestHighPriorityFormatPicksIntersection(t *testing.T) {
	chain := []Capability{
		{Formats: map[Format]map[Path]bool{FormatYUVNV12: allPaths(), FormatRGBA8888: allPaths()}},
		{Formats: map[Format]map[Path]bool{FormatRGBA8888: allPaths()}},
	}
	if got := HighPriorityFormat(chain); got != FormatRGBA8888 {
		t.Errorf("HighPriorityFormat() = %v, want RGBA8888", got)
	}
}

func TestHighPriorityFormatOrderIndependent(t *testing.T) {
	a := []Capability{
		{Formats: map[Format]map[Path]bool{FormatYUVNV12: allPaths(), FormatRGBA8888: allPaths()}},
		{Formats: map[Format]map[Path]bool{FormatRGBA8888: allPaths(), FormatYUVNV21: allPaths()}},
	}
	b := []Capability{a[1], a[0]}
	if HighPriorityFormat(a) != HighPriorityFormat(b) {
		t.Error("HighPriorityFormat must be independent of input order")
	}
}

func TestHighPriorityFormatFallsBackToFirstFilterFormat(t *testing.T) {
	chain := []Capability{
		{Formats: map[Format]map[Path]bool{FormatP010CbCr: allPaths()}},
		{Formats: map[Format]map[Path]bool{FormatRGBAF16: allPaths()}},
	}
	if got := HighPriorityFormat(chain); got != FormatP010CbCr {
		t.Errorf("HighPriorityFormat() = %v, want fallback to chain[0]'s format", got)
	}
}

func TestNegotiateFormatsReturnsFullIntersectionInPriorityOrder(t *testing.T) {
	chain := []Capability{
		{Formats: map[Format]map[Path]bool{FormatYUVNV12: allPaths(), FormatYUVNV21: allPaths(), FormatRGBA8888: allPaths()}},
		{Formats: map[Format]map[Path]bool{FormatYUVNV21: allPaths(), FormatRGBA8888: allPaths()}},
	}
	got := NegotiateFormats(chain)
	want := []Format{FormatYUVNV21, FormatRGBA8888}
	if len(got) != len(want) {
		t.Fatalf("NegotiateFormats() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NegotiateFormats() = %v, want %v", got, want)
		}
	}
}
