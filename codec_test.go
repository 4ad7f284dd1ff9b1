// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package imagefx

import (
	"path/filepath"
	"testing"
)

func TestFileRoundTripPreservesDimensions(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.jpg")
	out := filepath.Join(dir, "out.jpg")

	src := NewPixmap(8, 4)
	src.Clear(200, 100, 50, 255)
	if err := encodePictureFile(&Picture{Primary: src}, in); err != nil {
		t.Fatalf("encodePictureFile(in): %v", err)
	}

	e := NewEngine()
	if err := e.SetInputURI(in); err != nil {
		t.Fatalf("SetInputURI: %v", err)
	}
	if err := e.SetOutputURI(out); err != nil {
		t.Fatalf("SetOutputURI: %v", err)
	}
	if err := e.AddEFilter(identityFilter("NoOp")); err != nil {
		t.Fatalf("AddEFilter: %v", err)
	}
	if err := e.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	pic, err := decodePictureFile(out)
	if err != nil {
		t.Fatalf("decodePictureFile(out): %v", err)
	}
	if pic.Primary.Width() != 8 || pic.Primary.Height() != 4 {
		t.Fatalf("round-tripped dimensions = %dx%d, want 8x4", pic.Primary.Width(), pic.Primary.Height())
	}
}

func TestDecodePictureFileRejectsHeif(t *testing.T) {
	_, err := decodePictureFile("/tmp/does-not-matter.heic")
	if kind, ok := KindOf(err); !ok || kind != ErrCreateImageSourceFailed {
		t.Fatalf("decodePictureFile(heic) err = %v, want ErrCreateImageSourceFailed", err)
	}
}
