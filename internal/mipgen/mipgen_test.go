// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mipgen

import (
	"bytes"
	"image"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		want          int
	}{
		{"1x1", 1, 1, 1},
		{"64x64", 64, 64, 7},
		{"128x64", 128, 64, 8},
		{"100x50 odd", 100, 50, 7},
		{"1x256 tall", 1, 256, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Levels(tt.width, tt.height); got != tt.want {
				t.Errorf("Levels(%d, %d) = %d, want %d", tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func TestChainSizes(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		levels        int
		wantLen       int
	}{
		{"4x4 full", 4, 4, 3, 4 * (16 + 4 + 1)},
		{"4x4 clamped", 4, 4, 10, 4 * (16 + 4 + 1)},
		{"4x4 single", 4, 4, 1, 4 * 16},
		{"8x2", 8, 2, 4, 4 * (16 + 4 + 2 + 1)},
		{"zero levels", 2, 2, 0, 4 * 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := make([]byte, 4*tt.width*tt.height)
			got := Chain(base, tt.width, tt.height, tt.levels)
			if len(got) != tt.wantLen {
				t.Errorf("len(Chain()) = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestChainUniformColor(t *testing.T) {
	const w, h = 8, 8
	texel := []byte{0x80, 0x40, 0xFF, 0xFF}
	base := bytes.Repeat(texel, w*h)

	chain := Chain(base, w, h, Levels(w, h))

	if !bytes.Equal(chain[:len(base)], base) {
		t.Fatal("level 0 differs from base")
	}
	for i := 0; i < len(chain); i += 4 {
		if !bytes.Equal(chain[i:i+4], texel) {
			t.Fatalf("texel at byte %d = %v, want %v", i, chain[i:i+4], texel)
		}
	}
}

func TestChainDoesNotAliasBase(t *testing.T) {
	base := bytes.Repeat([]byte{1, 2, 3, 4}, 4)
	chain := Chain(base, 2, 2, 2)
	chain[0] = 99
	if base[0] != 1 {
		t.Error("Chain() aliased the base slice")
	}
}

func TestDownsample(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 5, 3))
	dst := Downsample(src)
	if got := dst.Bounds().Size(); got != (image.Point{2, 1}) {
		t.Errorf("Downsample() size = %v, want (2,1)", got)
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		format gputypes.TextureFormat
		want   bool
	}{
		{gputypes.TextureFormatRGBA8Unorm, true},
		{gputypes.TextureFormatBGRA8UnormSrgb, true},
		{gputypes.TextureFormatR8Unorm, false},
		{gputypes.TextureFormatRGBA16Float, false},
		{gputypes.TextureFormatBC1RGBAUnorm, false},
	}
	for _, tt := range tests {
		if got := Supported(tt.format); got != tt.want {
			t.Errorf("Supported(%v) = %v, want %v", tt.format, got, tt.want)
		}
	}
}
