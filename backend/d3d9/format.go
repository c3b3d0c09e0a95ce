// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d9

import "github.com/gogpu/gputypes"

// Format is a D3DFORMAT value.
type Format uint32

// fourCC builds a FOURCC format code.
func fourCC(s string) Format {
	return Format(s[0]) | Format(s[1])<<8 | Format(s[2])<<16 | Format(s[3])<<24
}

// Direct3D 9 formats used by the driver.
const (
	FormatUnknown       Format = 0
	FormatA8R8G8B8      Format = 21
	FormatX8R8G8B8      Format = 22
	FormatR5G6B5        Format = 23
	FormatA1R5G5B5      Format = 25
	FormatA4R4G4B4      Format = 26
	FormatA8            Format = 28
	FormatA2B10G10R10   Format = 31
	FormatA8B8G8R8      Format = 32
	FormatG16R16        Format = 34
	FormatA16B16G16R16  Format = 36
	FormatL8            Format = 50
	FormatA8L8          Format = 51
	FormatD24S8         Format = 75
	FormatD24X8         Format = 77
	FormatD16           Format = 80
	FormatIndex16       Format = 101
	FormatIndex32       Format = 102
	FormatR16F          Format = 111
	FormatG16R16F       Format = 112
	FormatA16B16G16R16F Format = 113
	FormatR32F          Format = 114
	FormatG32R32F       Format = 115
	FormatA32B32G32R32F Format = 116
)

// Block compressed formats.
var (
	FormatDXT1 = fourCC("DXT1")
	FormatDXT3 = fourCC("DXT3")
	FormatDXT5 = fourCC("DXT5")
)

// textureFormats maps texture formats to their Direct3D 9 equivalent.
// Direct3D 9 has no integer, signed or sRGB texture formats; sRGB is a
// sampler state there and is not exposed.
var textureFormats = map[gputypes.TextureFormat]Format{
	gputypes.TextureFormatR8Unorm:      FormatL8,
	gputypes.TextureFormatRG8Unorm:     FormatA8L8,
	gputypes.TextureFormatR16Float:     FormatR16F,
	gputypes.TextureFormatR32Float:     FormatR32F,
	gputypes.TextureFormatRG16Unorm:    FormatG16R16,
	gputypes.TextureFormatRG16Float:    FormatG16R16F,
	gputypes.TextureFormatRG32Float:    FormatG32R32F,
	gputypes.TextureFormatRGBA8Unorm:   FormatA8B8G8R8,
	gputypes.TextureFormatBGRA8Unorm:   FormatA8R8G8B8,
	gputypes.TextureFormatRGB10A2Unorm: FormatA2B10G10R10,
	gputypes.TextureFormatRGBA16Unorm:  FormatA16B16G16R16,
	gputypes.TextureFormatRGBA16Float:  FormatA16B16G16R16F,
	gputypes.TextureFormatRGBA32Float:  FormatA32B32G32R32F,

	gputypes.TextureFormatDepth16Unorm:        FormatD16,
	gputypes.TextureFormatDepth24Plus:         FormatD24X8,
	gputypes.TextureFormatDepth24PlusStencil8: FormatD24S8,

	gputypes.TextureFormatBC1RGBAUnorm: FormatDXT1,
	gputypes.TextureFormatBC2RGBAUnorm: FormatDXT3,
	gputypes.TextureFormatBC3RGBAUnorm: FormatDXT5,
}

// D3DFormat returns the Direct3D 9 format of a texture format. Bindings
// use it to pick back buffer formats.
func D3DFormat(f gputypes.TextureFormat) (Format, bool) {
	df, ok := textureFormats[f]
	return df, ok
}

// vertexFormats maps vertex formats to declaration types. Direct3D 9 reads
// unsigned bytes as UBYTE4 and D3DCOLOR only, so two-component byte
// formats are missing.
var vertexFormats = map[gputypes.VertexFormat]DeclType{
	gputypes.VertexFormatFloat32:   DeclFloat1,
	gputypes.VertexFormatFloat32x2: DeclFloat2,
	gputypes.VertexFormatFloat32x3: DeclFloat3,
	gputypes.VertexFormatFloat32x4: DeclFloat4,
	gputypes.VertexFormatUint8x4:   DeclUByte4,
	gputypes.VertexFormatUnorm8x4:  DeclUByte4N,
	gputypes.VertexFormatSint16x2:  DeclShort2,
	gputypes.VertexFormatSint16x4:  DeclShort4,
	gputypes.VertexFormatSnorm16x2: DeclShort2N,
	gputypes.VertexFormatSnorm16x4: DeclShort4N,
	gputypes.VertexFormatUnorm16x2: DeclUShort2N,
	gputypes.VertexFormatUnorm16x4: DeclUShort4N,
	gputypes.VertexFormatFloat16x2: DeclFloat16x2,
	gputypes.VertexFormatFloat16x4: DeclFloat16x4,
}

func indexFormat(f gputypes.IndexFormat) Format {
	if f == gputypes.IndexFormatUint32 {
		return FormatIndex32
	}
	return FormatIndex16
}
