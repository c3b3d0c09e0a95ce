// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import "github.com/gogpu/gputypes"

// Format is a DXGI_FORMAT value.
type Format uint32

// DXGI formats used by the driver.
const (
	FormatUnknown               Format = 0
	FormatR32G32B32A32Float     Format = 2
	FormatR32G32B32A32Uint      Format = 3
	FormatR32G32B32A32Sint      Format = 4
	FormatR32G32B32Float        Format = 6
	FormatR32G32B32Uint         Format = 7
	FormatR32G32B32Sint         Format = 8
	FormatR16G16B16A16Float     Format = 10
	FormatR16G16B16A16Unorm     Format = 11
	FormatR16G16B16A16Uint      Format = 12
	FormatR16G16B16A16Snorm     Format = 13
	FormatR16G16B16A16Sint      Format = 14
	FormatR32G32Float           Format = 16
	FormatR32G32Uint            Format = 17
	FormatR32G32Sint            Format = 18
	FormatR32G8X24Typeless      Format = 19
	FormatD32FloatS8X24Uint     Format = 20
	FormatR32FloatX8X24Typeless Format = 21
	FormatR10G10B10A2Unorm      Format = 24
	FormatR10G10B10A2Uint       Format = 25
	FormatR11G11B10Float        Format = 26
	FormatR8G8B8A8Unorm         Format = 28
	FormatR8G8B8A8UnormSRGB     Format = 29
	FormatR8G8B8A8Uint          Format = 30
	FormatR8G8B8A8Snorm         Format = 31
	FormatR8G8B8A8Sint          Format = 32
	FormatR16G16Float           Format = 34
	FormatR16G16Unorm           Format = 35
	FormatR16G16Uint            Format = 36
	FormatR16G16Snorm           Format = 37
	FormatR16G16Sint            Format = 38
	FormatR32Typeless           Format = 39
	FormatD32Float              Format = 40
	FormatR32Float              Format = 41
	FormatR32Uint               Format = 42
	FormatR32Sint               Format = 43
	FormatR24G8Typeless         Format = 44
	FormatD24UnormS8Uint        Format = 45
	FormatR24UnormX8Typeless    Format = 46
	FormatX24TypelessG8Uint     Format = 47
	FormatR8G8Unorm             Format = 49
	FormatR8G8Uint              Format = 50
	FormatR8G8Snorm             Format = 51
	FormatR8G8Sint              Format = 52
	FormatR16Typeless           Format = 53
	FormatR16Float              Format = 54
	FormatD16Unorm              Format = 55
	FormatR16Unorm              Format = 56
	FormatR16Uint               Format = 57
	FormatR16Snorm              Format = 58
	FormatR16Sint               Format = 59
	FormatR8Unorm               Format = 61
	FormatR8Uint                Format = 62
	FormatR8Snorm               Format = 63
	FormatR8Sint                Format = 64
	FormatR9G9B9E5SharedExp     Format = 67
	FormatBC1Unorm              Format = 71
	FormatBC1UnormSRGB          Format = 72
	FormatBC2Unorm              Format = 74
	FormatBC2UnormSRGB          Format = 75
	FormatBC3Unorm              Format = 77
	FormatBC3UnormSRGB          Format = 78
	FormatBC4Unorm              Format = 80
	FormatBC4Snorm              Format = 81
	FormatBC5Unorm              Format = 83
	FormatBC5Snorm              Format = 84
	FormatB8G8R8A8Unorm         Format = 87
	FormatB8G8R8A8UnormSRGB     Format = 91
	FormatBC6HUF16              Format = 95
	FormatBC6HSF16              Format = 96
	FormatBC7Unorm              Format = 98
	FormatBC7UnormSRGB          Format = 99
)

// textureFormat is how a texture format is created and viewed. Depth
// formats get a typeless resource so they can be sampled as well as
// attached.
type textureFormat struct {
	resource Format
	srv      Format
	view     Format // render target or depth-stencil view
}

func plain(f Format) textureFormat { return textureFormat{f, f, f} }

var textureFormats = map[gputypes.TextureFormat]textureFormat{
	gputypes.TextureFormatR8Unorm:  plain(FormatR8Unorm),
	gputypes.TextureFormatR8Snorm:  plain(FormatR8Snorm),
	gputypes.TextureFormatR8Uint:   plain(FormatR8Uint),
	gputypes.TextureFormatR8Sint:   plain(FormatR8Sint),
	gputypes.TextureFormatR16Unorm: plain(FormatR16Unorm),
	gputypes.TextureFormatR16Uint:  plain(FormatR16Uint),
	gputypes.TextureFormatR16Sint:  plain(FormatR16Sint),
	gputypes.TextureFormatR16Float: plain(FormatR16Float),

	gputypes.TextureFormatRG8Unorm: plain(FormatR8G8Unorm),
	gputypes.TextureFormatRG8Snorm: plain(FormatR8G8Snorm),
	gputypes.TextureFormatRG8Uint:  plain(FormatR8G8Uint),
	gputypes.TextureFormatRG8Sint:  plain(FormatR8G8Sint),

	gputypes.TextureFormatR32Float:  plain(FormatR32Float),
	gputypes.TextureFormatR32Uint:   plain(FormatR32Uint),
	gputypes.TextureFormatR32Sint:   plain(FormatR32Sint),
	gputypes.TextureFormatRG16Unorm: plain(FormatR16G16Unorm),
	gputypes.TextureFormatRG16Uint:  plain(FormatR16G16Uint),
	gputypes.TextureFormatRG16Sint:  plain(FormatR16G16Sint),
	gputypes.TextureFormatRG16Float: plain(FormatR16G16Float),

	gputypes.TextureFormatRGBA8Unorm:     plain(FormatR8G8B8A8Unorm),
	gputypes.TextureFormatRGBA8UnormSrgb: plain(FormatR8G8B8A8UnormSRGB),
	gputypes.TextureFormatRGBA8Snorm:     plain(FormatR8G8B8A8Snorm),
	gputypes.TextureFormatRGBA8Uint:      plain(FormatR8G8B8A8Uint),
	gputypes.TextureFormatRGBA8Sint:      plain(FormatR8G8B8A8Sint),
	gputypes.TextureFormatBGRA8Unorm:     plain(FormatB8G8R8A8Unorm),
	gputypes.TextureFormatBGRA8UnormSrgb: plain(FormatB8G8R8A8UnormSRGB),

	gputypes.TextureFormatRGB10A2Unorm:  plain(FormatR10G10B10A2Unorm),
	gputypes.TextureFormatRGB10A2Uint:   plain(FormatR10G10B10A2Uint),
	gputypes.TextureFormatRG11B10Ufloat: plain(FormatR11G11B10Float),
	gputypes.TextureFormatRGB9E5Ufloat:  plain(FormatR9G9B9E5SharedExp),

	gputypes.TextureFormatRG32Float:   plain(FormatR32G32Float),
	gputypes.TextureFormatRG32Uint:    plain(FormatR32G32Uint),
	gputypes.TextureFormatRG32Sint:    plain(FormatR32G32Sint),
	gputypes.TextureFormatRGBA16Unorm: plain(FormatR16G16B16A16Unorm),
	gputypes.TextureFormatRGBA16Uint:  plain(FormatR16G16B16A16Uint),
	gputypes.TextureFormatRGBA16Sint:  plain(FormatR16G16B16A16Sint),
	gputypes.TextureFormatRGBA16Float: plain(FormatR16G16B16A16Float),
	gputypes.TextureFormatRGBA32Float: plain(FormatR32G32B32A32Float),
	gputypes.TextureFormatRGBA32Uint:  plain(FormatR32G32B32A32Uint),
	gputypes.TextureFormatRGBA32Sint:  plain(FormatR32G32B32A32Sint),

	gputypes.TextureFormatDepth16Unorm:         {FormatR16Typeless, FormatR16Unorm, FormatD16Unorm},
	gputypes.TextureFormatDepth24Plus:          {FormatR24G8Typeless, FormatR24UnormX8Typeless, FormatD24UnormS8Uint},
	gputypes.TextureFormatDepth24PlusStencil8:  {FormatR24G8Typeless, FormatR24UnormX8Typeless, FormatD24UnormS8Uint},
	gputypes.TextureFormatDepth32Float:         {FormatR32Typeless, FormatR32Float, FormatD32Float},
	gputypes.TextureFormatDepth32FloatStencil8: {FormatR32G8X24Typeless, FormatR32FloatX8X24Typeless, FormatD32FloatS8X24Uint},
	gputypes.TextureFormatStencil8:             {FormatR24G8Typeless, FormatX24TypelessG8Uint, FormatD24UnormS8Uint},

	gputypes.TextureFormatBC1RGBAUnorm:     plain(FormatBC1Unorm),
	gputypes.TextureFormatBC1RGBAUnormSrgb: plain(FormatBC1UnormSRGB),
	gputypes.TextureFormatBC2RGBAUnorm:     plain(FormatBC2Unorm),
	gputypes.TextureFormatBC2RGBAUnormSrgb: plain(FormatBC2UnormSRGB),
	gputypes.TextureFormatBC3RGBAUnorm:     plain(FormatBC3Unorm),
	gputypes.TextureFormatBC3RGBAUnormSrgb: plain(FormatBC3UnormSRGB),
	gputypes.TextureFormatBC4RUnorm:        plain(FormatBC4Unorm),
	gputypes.TextureFormatBC4RSnorm:        plain(FormatBC4Snorm),
	gputypes.TextureFormatBC5RGUnorm:       plain(FormatBC5Unorm),
	gputypes.TextureFormatBC5RGSnorm:       plain(FormatBC5Snorm),
	gputypes.TextureFormatBC6HRGBUfloat:    plain(FormatBC6HUF16),
	gputypes.TextureFormatBC6HRGBFloat:     plain(FormatBC6HSF16),
	gputypes.TextureFormatBC7RGBAUnorm:     plain(FormatBC7Unorm),
	gputypes.TextureFormatBC7RGBAUnormSrgb: plain(FormatBC7UnormSRGB),
}

// DXGIFormat returns the DXGI format a texture format is sampled as.
// Bindings use it to pick swap chain formats.
func DXGIFormat(f gputypes.TextureFormat) (Format, bool) {
	tf, ok := textureFormats[f]
	return tf.srv, ok
}

var vertexFormats = map[gputypes.VertexFormat]Format{
	gputypes.VertexFormatUint8x2:      FormatR8G8Uint,
	gputypes.VertexFormatUint8x4:      FormatR8G8B8A8Uint,
	gputypes.VertexFormatSint8x2:      FormatR8G8Sint,
	gputypes.VertexFormatSint8x4:      FormatR8G8B8A8Sint,
	gputypes.VertexFormatUnorm8x2:     FormatR8G8Unorm,
	gputypes.VertexFormatUnorm8x4:     FormatR8G8B8A8Unorm,
	gputypes.VertexFormatSnorm8x2:     FormatR8G8Snorm,
	gputypes.VertexFormatSnorm8x4:     FormatR8G8B8A8Snorm,
	gputypes.VertexFormatUint16x2:     FormatR16G16Uint,
	gputypes.VertexFormatUint16x4:     FormatR16G16B16A16Uint,
	gputypes.VertexFormatSint16x2:     FormatR16G16Sint,
	gputypes.VertexFormatSint16x4:     FormatR16G16B16A16Sint,
	gputypes.VertexFormatUnorm16x2:    FormatR16G16Unorm,
	gputypes.VertexFormatUnorm16x4:    FormatR16G16B16A16Unorm,
	gputypes.VertexFormatSnorm16x2:    FormatR16G16Snorm,
	gputypes.VertexFormatSnorm16x4:    FormatR16G16B16A16Snorm,
	gputypes.VertexFormatFloat16x2:    FormatR16G16Float,
	gputypes.VertexFormatFloat16x4:    FormatR16G16B16A16Float,
	gputypes.VertexFormatFloat32:      FormatR32Float,
	gputypes.VertexFormatFloat32x2:    FormatR32G32Float,
	gputypes.VertexFormatFloat32x3:    FormatR32G32B32Float,
	gputypes.VertexFormatFloat32x4:    FormatR32G32B32A32Float,
	gputypes.VertexFormatUint32:       FormatR32Uint,
	gputypes.VertexFormatUint32x2:     FormatR32G32Uint,
	gputypes.VertexFormatUint32x3:     FormatR32G32B32Uint,
	gputypes.VertexFormatUint32x4:     FormatR32G32B32A32Uint,
	gputypes.VertexFormatSint32:       FormatR32Sint,
	gputypes.VertexFormatSint32x2:     FormatR32G32Sint,
	gputypes.VertexFormatSint32x3:     FormatR32G32B32Sint,
	gputypes.VertexFormatSint32x4:     FormatR32G32B32A32Sint,
	gputypes.VertexFormatUnorm1010102: FormatR10G10B10A2Unorm,
}

func indexFormat(f gputypes.IndexFormat) Format {
	if f == gputypes.IndexFormatUint32 {
		return FormatR32Uint
	}
	return FormatR16Uint
}
