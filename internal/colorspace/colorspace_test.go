package colorspace

import "testing"

func TestTargetMapping(t *testing.T) {
	tests := []struct {
		name string
		in   Space
		want Space
	}{
		{"srgb passthrough", SRGB, SRGB},
		{"display p3 passthrough", DisplayP3, DisplayP3},
		{"bt2020 hlg passthrough", BT2020HLG, BT2020HLG},
		{"bt2020 pq passthrough", BT2020PQ, BT2020PQ},
		{"adobe rgb maps to display p3", AdobeRGB, DisplayP3},
		{"limited srgb passthrough", SRGBLimit, SRGBLimit},
		{"unknown space passes through unchanged", Default, Default},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Target(tt.in); got != tt.want {
				t.Errorf("Target(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNeedsConversion(t *testing.T) {
	if NeedsConversion(SRGB) {
		t.Error("SRGB should not need conversion")
	}
	if !NeedsConversion(AdobeRGB) {
		t.Error("AdobeRGB should need conversion to DisplayP3")
	}
}

func TestIsHDR(t *testing.T) {
	for _, s := range []Space{BT2020HLG, BT2020HLGLimit, BT2020PQ, BT2020PQLimit} {
		if !IsHDR(s) {
			t.Errorf("IsHDR(%v) = false, want true", s)
		}
	}
	for _, s := range []Space{SRGB, DisplayP3, AdobeRGB} {
		if IsHDR(s) {
			t.Errorf("IsHDR(%v) = true, want false", s)
		}
	}
}

func TestChoosePrefersDirectFilterSupport(t *testing.T) {
	supported := map[Space]bool{BT2020PQ: true}
	got, err := Choose(supported, BT2020PQ)
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if got != BT2020PQ {
		t.Errorf("Choose() = %v, want BT2020PQ", got)
	}
}

func TestChooseFallsBackToSDRForUnsupportedHDR(t *testing.T) {
	supported := map[Space]bool{SRGB: true}
	got, err := Choose(supported, BT2020HLG)
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if got != DisplayP3 {
		t.Errorf("Choose() = %v, want DisplayP3 fallback", got)
	}
}

func TestChooseKeepsWideSRGBFamilyEvenWithoutExplicitSupport(t *testing.T) {
	supported := map[Space]bool{}
	got, err := Choose(supported, DisplayP3)
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if got != DisplayP3 {
		t.Errorf("Choose() = %v, want DisplayP3", got)
	}
}

func TestChooseFallsBackLimitedHDRToDisplayP3Limit(t *testing.T) {
	supported := map[Space]bool{}
	got, err := Choose(supported, BT2020PQLimit)
	if err != nil {
		t.Fatal("expected limited PQ to fall back to DisplayP3Limit, got error:", err)
	}
	if got != DisplayP3Limit {
		t.Errorf("Choose() = %v, want DisplayP3Limit", got)
	}
}

func TestDecomposeRecomposeRoundTrip(t *testing.T) {
	hdr := 4.0
	sdr := 1.0
	gain := DecomposeHDR(hdr, sdr)
	got := RecomposeHDR(sdr, gain)
	if got < hdr*0.9 || got > hdr*1.1 {
		t.Errorf("RecomposeHDR(%v, %v) = %v, want close to %v", sdr, gain, got, hdr)
	}
}

func TestDecomposeHDRClampsToByteRange(t *testing.T) {
	if g := DecomposeHDR(1e9, 1e-9); g != 255 {
		t.Errorf("expected clamp to 255, got %d", g)
	}
	if g := DecomposeHDR(1e-9, 1e9); g != 0 {
		t.Errorf("expected clamp to 0, got %d", g)
	}
}

func TestPQToLinearMonotonic(t *testing.T) {
	prev := -1.0
	for _, v := range []float64{0, 0.25, 0.5, 0.75, 1.0} {
		got := PQToLinear(v)
		if got < prev {
			t.Errorf("PQToLinear not monotonic at %v: got %v after %v", v, got, prev)
		}
		prev = got
	}
}

func TestHLGToLinearMonotonic(t *testing.T) {
	prev := -1.0
	for _, v := range []float64{0, 0.25, 0.5, 0.75, 1.0} {
		got := HLGToLinear(v)
		if got < prev {
			t.Errorf("HLGToLinear not monotonic at %v: got %v after %v", v, got, prev)
		}
		prev = got
	}
}

func TestManagerInitDeinit(t *testing.T) {
	var m Manager
	m.Init(SRGB, DisplayP3)
	if m.src != SRGB || m.dst != DisplayP3 {
		t.Fatal("Init did not record src/dst")
	}
	m.Deinit()
	if m.src != Default || m.dst != Default {
		t.Fatal("Deinit did not reset state")
	}
}
