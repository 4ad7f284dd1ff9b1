// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package imagefx

import "fmt"

// ErrorKind tags a Status by the taxonomy in §7: every public entry point
// returns a typed status rather than an opaque error string.
type ErrorKind uint8

const (
	// Input errors.
	ErrNullInput ErrorKind = iota
	ErrInvalidBitmap
	ErrInvalidGraphicsBuffer
	ErrUnsupportedFormat
	ErrUnsupportedDataType
	ErrUnsupportedFileExtension
	ErrInvalidParameter

	// Capability errors.
	ErrUnsupportedIPTypeForEffect
	ErrUnsupportedFormatType
	ErrUnsupportedRunningType
	ErrUnsupportedConfigKey
	ErrFormatMismatch
	ErrColorSpaceMismatch
	ErrColorSpaceNotSupportConvert

	// Resource errors.
	ErrAllocSizeOutOfRange
	ErrAllocFailed
	ErrMemcpyFailed
	ErrInvalidGraphicsBufferFD
	ErrSetImageInfoFailed
	ErrCreatePixelmapFailed
	ErrCreateImageSourceFailed
	ErrImagePackerFailed

	// Pipeline errors.
	ErrInvalidFilter
	ErrInvalidPort
	ErrInvalidFilterCallback
	ErrInvalidOperation

	// Color-space & GPU errors.
	ErrGetSetColorSpaceFailed
	ErrGetSetMetadataFailed
	ErrCreateTextureFailed
	ErrDrawFailed
	ErrFramebufferIncomplete

	// Sink errors.
	ErrBufferNotAllowChange

	// VPE (video-processing-engine) errors.
	ErrVPEInvalidInstance
	ErrVPEProcessFailed
)

var errorKindNames = map[ErrorKind]string{
	ErrNullInput:                    "ERR_NULL_INPUT",
	ErrInvalidBitmap:                "ERR_INVALID_BITMAP",
	ErrInvalidGraphicsBuffer:        "ERR_INVALID_GRAPHICS_BUFFER",
	ErrUnsupportedFormat:            "ERR_UNSUPPORTED_FORMAT",
	ErrUnsupportedDataType:          "ERR_UNSUPPORTED_DATA_TYPE",
	ErrUnsupportedFileExtension:     "ERR_UNSUPPORTED_FILE_EXTENSION",
	ErrInvalidParameter:             "ERR_INVALID_PARAMETER",
	ErrUnsupportedIPTypeForEffect:   "ERR_UNSUPPORTED_IPTYPE_FOR_EFFECT",
	ErrUnsupportedFormatType:        "ERR_UNSUPPORTED_FORMAT_TYPE",
	ErrUnsupportedRunningType:       "ERR_UNSUPPORTED_RUNNING_TYPE",
	ErrUnsupportedConfigKey:         "ERR_UNSUPPORTED_CONFIG_KEY",
	ErrFormatMismatch:               "ERR_NOT_SUPPORT_INPUT_OUTPUT_FORMAT",
	ErrColorSpaceMismatch:           "ERR_NOT_SUPPORT_INPUT_OUTPUT_COLORSPACE",
	ErrColorSpaceNotSupportConvert:  "ERR_COLORSPACE_NOT_SUPPORT_CONVERT",
	ErrAllocSizeOutOfRange:          "ERR_ALLOC_SIZE_OUT_OF_RANGE",
	ErrAllocFailed:                  "ERR_ALLOC_FAILED",
	ErrMemcpyFailed:                 "ERR_MEMCPY_FAILED",
	ErrInvalidGraphicsBufferFD:      "ERR_INVALID_GRAPHICS_BUFFER_FD",
	ErrSetImageInfoFailed:           "ERR_SET_IMAGE_INFO_FAILED",
	ErrCreatePixelmapFailed:         "ERR_CREATE_PIXELMAP_FAILED",
	ErrCreateImageSourceFailed:      "ERR_CREATE_IMAGE_SOURCE_FAILED",
	ErrImagePackerFailed:            "ERR_IMAGE_PACKER_FAILED",
	ErrInvalidFilter:                "ERR_INVALID_FILTER",
	ErrInvalidPort:                  "ERR_INVALID_PORT",
	ErrInvalidFilterCallback:        "ERR_INVALID_FILTER_CALLBACK",
	ErrInvalidOperation:             "ERR_INVALID_OPERATION",
	ErrGetSetColorSpaceFailed:       "ERR_GET_SET_COLORSPACE_FAILED",
	ErrGetSetMetadataFailed:         "ERR_GET_SET_METADATA_FAILED",
	ErrCreateTextureFailed:          "ERR_CREATE_TEXTURE_FAILED",
	ErrDrawFailed:                   "ERR_DRAW_FAILED",
	ErrFramebufferIncomplete:        "ERR_FRAMEBUFFER_INCOMPLETE",
	ErrBufferNotAllowChange:         "ERR_BUFFER_NOT_ALLOW_CHANGE",
	ErrVPEInvalidInstance:           "ERR_VPE_INVALID_INSTANCE",
	ErrVPEProcessFailed:             "ERR_VPE_PROCESS_FAILED",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return "ERR_UNKNOWN"
}

// Status is the typed error value returned from every public engine entry
// point, per §7's propagation policy: filters return failure statuses
// upstream and the orchestrator surfaces them to the caller.
type Status struct {
	Kind    ErrorKind
	Message string
}

func (s *Status) Error() string {
	if s.Message == "" {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s: %s", s.Kind, s.Message)
}

// newStatus constructs a *Status wrapped as an error.
func newStatus(kind ErrorKind, msg string) error {
	return &Status{Kind: kind, Message: msg}
}

// Is supports errors.Is comparisons against an ErrorKind-only Status,
// e.g. errors.Is(err, &Status{Kind: ErrInvalidParameter}).
func (s *Status) Is(target error) bool {
	t, ok := target.(*Status)
	if !ok {
		return false
	}
	return s.Kind == t.Kind
}

// KindOf extracts the ErrorKind from err, if it is a *Status.
func KindOf(err error) (ErrorKind, bool) {
	s, ok := err.(*Status)
	if !ok {
		return 0, false
	}
	return s.Kind, true
}
