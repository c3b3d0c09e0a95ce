// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package mipgen builds texture mip chains on the CPU for drivers that
// cannot generate them.
//
// Each level is half the size of the previous one in both dimensions,
// never below one texel. Channels are filtered independently, so the same
// code serves RGBA and BGRA byte orders.
package mipgen

import (
	"image"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"
)

// Supported reports whether Chain can downsample textures of format f.
func Supported(f gputypes.TextureFormat) bool {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		return true
	}
	return false
}

// Levels returns the length of a full chain for a width×height image.
func Levels(width, height int) int {
	n := 1
	for m := max(width, height); m > 1; m >>= 1 {
		n++
	}
	return n
}

// Chain returns base followed by levels-1 downsampled copies, tightly
// packed. base holds width×height 4-byte texels and is copied, not aliased.
// levels is clamped to [1, Levels(width, height)].
func Chain(base []byte, width, height, levels int) []byte {
	levels = min(max(levels, 1), Levels(width, height))

	total := 0
	for l := range levels {
		total += 4 * max(width>>l, 1) * max(height>>l, 1)
	}
	out := make([]byte, 0, total)
	out = append(out, base[:4*width*height]...)

	src := &image.RGBA{
		Pix:    out[:4*width*height],
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}
	for range levels - 1 {
		dst := Downsample(src)
		out = append(out, dst.Pix...)
		src = dst
	}
	return out
}

// Downsample returns a half-size copy of src filtered with a bilinear kernel.
func Downsample(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, max(b.Dx()/2, 1), max(b.Dy()/2, 1)))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}
