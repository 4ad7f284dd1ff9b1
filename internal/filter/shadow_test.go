package filter

import "testing"

func TestDropShadowExpandRadius(t *testing.T) {
	f := NewSimpleDropShadow(3, -2, 5)
	left, top, right, bottom := f.ExpandRadius()
	if left <= 0 || bottom <= 0 {
		t.Fatalf("expected positive blur expansion on all sides, got l=%d t=%d r=%d b=%d", left, top, right, bottom)
	}
	if right <= 15 {
		t.Fatalf("positive X offset should expand the right side, got %d", right)
	}
	if top <= 15 {
		t.Fatalf("negative Y offset should expand the top side, got %d", top)
	}
}

func TestDropShadowOpaqueSquareDarkensBackground(t *testing.T) {
	w, h := 16, 16
	src := newBuffer(w, h, 0, 0, 0, 0)
	// opaque white square in the top-left quadrant
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			i := (y*w + x) * 4
			src[i+0], src[i+1], src[i+2], src[i+3] = 255, 255, 255, 255
		}
	}
	dst := make([]byte, len(src))

	f := NewDropShadowFilter(4, 4, 1, ShadowColor{A: 0.8})
	f.Apply(dst, w*4, src, w*4, w, h)

	// a point under the shadow offset, outside the original square, should
	// now carry shadow alpha even though the source was fully transparent.
	_, _, _, a := pixelAt(dst, w*4, 8, 8)
	if a == 0 {
		t.Fatal("expected shadow to add alpha beneath the offset source square")
	}
}

func TestDropShadowZeroAlphaIsNoop(t *testing.T) {
	w, h := 4, 4
	src := newBuffer(w, h, 10, 20, 30, 255)
	dst := make([]byte, len(src))

	f := NewDropShadowFilter(0, 0, 0, ShadowColor{A: 0})
	f.Apply(dst, w*4, src, w*4, w, h)

	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("byte %d: got %d want %d", i, dst[i], src[i])
		}
	}
}
