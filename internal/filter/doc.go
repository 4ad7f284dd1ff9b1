// Package filter implements the concrete per-pixel algorithms backing the
// demonstration CPU effect handlers: Gaussian blur, color-matrix transforms,
// and drop shadow. Every entry point operates on a flat RGBA8888 buffer
// (4 bytes per pixel, row-major, caller-supplied stride) so it can be
// wired directly as an OnApplyRGBA8888 handler body.
package filter
