// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package imagefx

import (
	"image/jpeg"
	"os"
	"strings"
)

// The true HEIF/JPEG image codec is an external collaborator (spec.md §1
// "Out of scope"); this file wires the one concrete, real-library codec
// path the standard library already gives us -- JPEG -- for the URI/PATH
// sink row of §4.10's policy table, so Save/Restore-style file round-trips
// in §8 scenario 5 have something real to decode and re-encode through
// rather than requiring the caller to pre-populate a Picture by hand.

// decodePictureFile opens path, decodes it as JPEG, and wraps the result
// as a single-primary Picture (no auxiliary maps -- a plain JPEG file
// carries no gainmap/depthmap side-channel). HEIC/HEIF files are rejected
// here: there is no HEIF decoder in the standard library or the teacher's
// dependency set, so a HEIF input must arrive already decoded via
// SetInputPicture, matching the "external collaborator" boundary in §1.
func decodePictureFile(path string) (*Picture, error) {
	if isHeif(path) {
		return nil, newStatus(ErrCreateImageSourceFailed, "HEIF decode requires an external codec; pre-decode and use SetInputPicture")
	}
	f, err := os.Open(path) //nolint:gosec // caller-provided path, validated extension
	if err != nil {
		return nil, newStatus(ErrCreateImageSourceFailed, err.Error())
	}
	defer func() { _ = f.Close() }()

	img, err := jpeg.Decode(f)
	if err != nil {
		return nil, newStatus(ErrCreateImageSourceFailed, err.Error())
	}
	pm := FromImage(img)
	pm.EXIF = map[string]string{"DateTime": ""}
	return &Picture{Primary: pm, SourceKind: DataTypePath}, nil
}

// encodePictureFile re-encodes pic's primary pixelmap to path, finalizing
// the sink's "URI / PATH" row (§4.10): "re-encode to the original
// container format (JPEG or HEIF; HEIF falls back to JPEG on encoder
// failure); finalize through the packer." There is no HEIF encoder
// available in this module's dependency set, so the HEIF path always
// takes the documented fallback and writes JPEG bytes.
func encodePictureFile(pic *Picture, path string) error {
	if pic == nil || pic.Primary == nil {
		return newStatus(ErrInvalidParameter, "nothing to encode")
	}
	f, err := os.Create(path) //nolint:gosec // caller-provided path, validated extension
	if err != nil {
		return newStatus(ErrImagePackerFailed, err.Error())
	}
	defer func() { _ = f.Close() }()

	if err := jpeg.Encode(f, pic.Primary.ToImage(), &jpeg.Options{Quality: 95}); err != nil {
		return newStatus(ErrImagePackerFailed, err.Error())
	}
	return nil
}

func isHeif(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".heic") || strings.HasSuffix(lower, ".heif")
}
