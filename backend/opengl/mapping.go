// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package opengl

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/gles/gl"

	"github.com/gogpu/rhi"
)

// GL enumerations missing from the gl package.
const (
	glTextureBuffer          = 0x8C2A
	glTextureLODBias         = 0x8501
	glPolygonOffsetFill      = 0x8037
	glDepthClamp             = 0x864F
	glMultisample            = 0x809D
	glSampleAlphaToCoverage  = 0x809E
	glLine                   = 0x1B01
	glFill                   = 0x1B02
	glNone                   = 0
	glMaxArrayTextureLayers  = 0x88FF
	glMax3DTextureSize       = 0x8073
	glMaxTextureBufferSize   = 0x8C2B
	glLowerLeft              = 0x8CA1
	glZeroToOne              = 0x935F
	glNegativeOneToOne       = 0x935E
	glNumExtensions          = 0x821D
	glTextureBorderColor     = 0x1004
	glMaxAnisotropy          = 0x84FF
	glDebugSourceApplication = 0x824A
	glDebugTypeMarker        = 0x8268
	glDebugSeverityNotify    = 0x826B

	glR8Snorm                  = 0x8F94
	glRG8Snorm                 = 0x8F95
	glRGBA8Snorm               = 0x8F97
	glR16                      = 0x822A
	glRG16                     = 0x822C
	glRGBA16                   = 0x805B
	glRGB10A2                  = 0x8059
	glRGB10A2UI                = 0x906F
	glR11FG11FB10F             = 0x8C3A
	glRGB9E5                   = 0x8C3D
	glUnsignedInt2101010Rev    = 0x8368
	glUnsignedInt10F11F11FRev  = 0x8C3B
	glUnsignedInt5999Rev       = 0x8C3E
	glDepthComponent32F        = 0x8CAC
	glFloat32UnsignedInt248Rev = 0x8DAD
	glStencilIndex             = 0x1901
	glStencilIndex8            = 0x8D48

	glCompressedRGBAS3TCDXT1      = 0x83F1
	glCompressedRGBAS3TCDXT3      = 0x83F2
	glCompressedRGBAS3TCDXT5      = 0x83F3
	glCompressedSRGBAlphaS3TCDXT1 = 0x8C4D
	glCompressedSRGBAlphaS3TCDXT3 = 0x8C4E
	glCompressedSRGBAlphaS3TCDXT5 = 0x8C4F
	glCompressedRedRGTC1          = 0x8DBB
	glCompressedSignedRedRGTC1    = 0x8DBC
	glCompressedRGRGTC2           = 0x8DBD
	glCompressedSignedRGRGTC2     = 0x8DBE
	glCompressedRGBABPTCUnorm     = 0x8E8C
	glCompressedSRGBAlphaBPTC     = 0x8E8D
	glCompressedRGBBPTCSigned     = 0x8E8E
	glCompressedRGBBPTCUnsigned   = 0x8E8F

	// Object identifiers for ObjectLabel.
	glBufferObject    = 0x82E0
	glShaderObject    = 0x82E1
	glProgramObject   = 0x82E2
	glVertexArrayObj  = 0x8074
	glSamplerObject   = 0x82E6
	glTextureObject   = 0x1702
	glFramebufferObj  = 0x8D40
	glDebugGroupDepth = 0x826D
)

// textureFormat is the internal format and the client pixel transfer
// format of a texture.
type textureFormat struct {
	internal   uint32
	format     uint32
	typ        uint32
	compressed bool
	desktop    bool // not available on OpenGL ES
}

var textureFormats = map[gputypes.TextureFormat]textureFormat{
	gputypes.TextureFormatR8Unorm:  {internal: gl.R8, format: gl.RED, typ: gl.UNSIGNED_BYTE},
	gputypes.TextureFormatR8Snorm:  {internal: glR8Snorm, format: gl.RED, typ: gl.BYTE},
	gputypes.TextureFormatR8Uint:   {internal: gl.R8UI, format: gl.RED_INTEGER, typ: gl.UNSIGNED_BYTE},
	gputypes.TextureFormatR8Sint:   {internal: gl.R8I, format: gl.RED_INTEGER, typ: gl.BYTE},
	gputypes.TextureFormatR16Unorm: {internal: glR16, format: gl.RED, typ: gl.UNSIGNED_SHORT, desktop: true},
	gputypes.TextureFormatR16Uint:  {internal: gl.R16UI, format: gl.RED_INTEGER, typ: gl.UNSIGNED_SHORT},
	gputypes.TextureFormatR16Sint:  {internal: gl.R16I, format: gl.RED_INTEGER, typ: gl.SHORT},
	gputypes.TextureFormatR16Float: {internal: gl.R16F, format: gl.RED, typ: gl.HALF_FLOAT},

	gputypes.TextureFormatRG8Unorm: {internal: gl.RG8, format: gl.RG, typ: gl.UNSIGNED_BYTE},
	gputypes.TextureFormatRG8Snorm: {internal: glRG8Snorm, format: gl.RG, typ: gl.BYTE},
	gputypes.TextureFormatRG8Uint:  {internal: gl.RG8UI, format: gl.RG_INTEGER, typ: gl.UNSIGNED_BYTE},
	gputypes.TextureFormatRG8Sint:  {internal: gl.RG8I, format: gl.RG_INTEGER, typ: gl.BYTE},

	gputypes.TextureFormatR32Float:  {internal: gl.R32F, format: gl.RED, typ: gl.FLOAT},
	gputypes.TextureFormatR32Uint:   {internal: gl.R32UI, format: gl.RED_INTEGER, typ: gl.UNSIGNED_INT},
	gputypes.TextureFormatR32Sint:   {internal: gl.R32I, format: gl.RED_INTEGER, typ: gl.INT},
	gputypes.TextureFormatRG16Unorm: {internal: glRG16, format: gl.RG, typ: gl.UNSIGNED_SHORT, desktop: true},
	gputypes.TextureFormatRG16Uint:  {internal: gl.RG16UI, format: gl.RG_INTEGER, typ: gl.UNSIGNED_SHORT},
	gputypes.TextureFormatRG16Sint:  {internal: gl.RG16I, format: gl.RG_INTEGER, typ: gl.SHORT},
	gputypes.TextureFormatRG16Float: {internal: gl.RG16F, format: gl.RG, typ: gl.HALF_FLOAT},

	gputypes.TextureFormatRGBA8Unorm:     {internal: gl.RGBA8, format: gl.RGBA, typ: gl.UNSIGNED_BYTE},
	gputypes.TextureFormatRGBA8UnormSrgb: {internal: gl.SRGB8_ALPHA8, format: gl.RGBA, typ: gl.UNSIGNED_BYTE},
	gputypes.TextureFormatRGBA8Snorm:     {internal: glRGBA8Snorm, format: gl.RGBA, typ: gl.BYTE},
	gputypes.TextureFormatRGBA8Uint:      {internal: gl.RGBA8UI, format: gl.RGBA_INTEGER, typ: gl.UNSIGNED_BYTE},
	gputypes.TextureFormatRGBA8Sint:      {internal: gl.RGBA8I, format: gl.RGBA_INTEGER, typ: gl.BYTE},
	gputypes.TextureFormatBGRA8Unorm:     {internal: gl.RGBA8, format: gl.BGRA, typ: gl.UNSIGNED_BYTE, desktop: true},
	gputypes.TextureFormatBGRA8UnormSrgb: {internal: gl.SRGB8_ALPHA8, format: gl.BGRA, typ: gl.UNSIGNED_BYTE, desktop: true},

	gputypes.TextureFormatRGB10A2Unorm:  {internal: glRGB10A2, format: gl.RGBA, typ: glUnsignedInt2101010Rev},
	gputypes.TextureFormatRGB10A2Uint:   {internal: glRGB10A2UI, format: gl.RGBA_INTEGER, typ: glUnsignedInt2101010Rev},
	gputypes.TextureFormatRG11B10Ufloat: {internal: glR11FG11FB10F, format: gl.RGB, typ: glUnsignedInt10F11F11FRev},
	gputypes.TextureFormatRGB9E5Ufloat:  {internal: glRGB9E5, format: gl.RGB, typ: glUnsignedInt5999Rev},

	gputypes.TextureFormatRG32Float:    {internal: gl.RG32F, format: gl.RG, typ: gl.FLOAT},
	gputypes.TextureFormatRG32Uint:     {internal: gl.RG32UI, format: gl.RG_INTEGER, typ: gl.UNSIGNED_INT},
	gputypes.TextureFormatRG32Sint:     {internal: gl.RG32I, format: gl.RG_INTEGER, typ: gl.INT},
	gputypes.TextureFormatRGBA16Unorm:  {internal: glRGBA16, format: gl.RGBA, typ: gl.UNSIGNED_SHORT, desktop: true},
	gputypes.TextureFormatRGBA16Uint:   {internal: gl.RGBA16UI, format: gl.RGBA_INTEGER, typ: gl.UNSIGNED_SHORT},
	gputypes.TextureFormatRGBA16Sint:   {internal: gl.RGBA16I, format: gl.RGBA_INTEGER, typ: gl.SHORT},
	gputypes.TextureFormatRGBA16Float:  {internal: gl.RGBA16F, format: gl.RGBA, typ: gl.HALF_FLOAT},
	gputypes.TextureFormatRGBA32Float:  {internal: gl.RGBA32F, format: gl.RGBA, typ: gl.FLOAT},
	gputypes.TextureFormatRGBA32Uint:   {internal: gl.RGBA32UI, format: gl.RGBA_INTEGER, typ: gl.UNSIGNED_INT},
	gputypes.TextureFormatRGBA32Sint:   {internal: gl.RGBA32I, format: gl.RGBA_INTEGER, typ: gl.INT},
	gputypes.TextureFormatStencil8:     {internal: glStencilIndex8, format: glStencilIndex, typ: gl.UNSIGNED_BYTE},
	gputypes.TextureFormatDepth16Unorm: {internal: gl.DEPTH_COMPONENT16, format: gl.DEPTH_COMPONENT, typ: gl.UNSIGNED_SHORT},
	gputypes.TextureFormatDepth24Plus:  {internal: gl.DEPTH_COMPONENT24, format: gl.DEPTH_COMPONENT, typ: gl.UNSIGNED_INT},

	gputypes.TextureFormatDepth24PlusStencil8:  {internal: gl.DEPTH24_STENCIL8, format: gl.DEPTH_STENCIL, typ: gl.UNSIGNED_INT_24_8},
	gputypes.TextureFormatDepth32Float:         {internal: glDepthComponent32F, format: gl.DEPTH_COMPONENT, typ: gl.FLOAT},
	gputypes.TextureFormatDepth32FloatStencil8: {internal: gl.DEPTH32F_STENCIL8, format: gl.DEPTH_STENCIL, typ: glFloat32UnsignedInt248Rev},

	gputypes.TextureFormatBC1RGBAUnorm:     {internal: glCompressedRGBAS3TCDXT1, compressed: true},
	gputypes.TextureFormatBC1RGBAUnormSrgb: {internal: glCompressedSRGBAlphaS3TCDXT1, compressed: true},
	gputypes.TextureFormatBC2RGBAUnorm:     {internal: glCompressedRGBAS3TCDXT3, compressed: true},
	gputypes.TextureFormatBC2RGBAUnormSrgb: {internal: glCompressedSRGBAlphaS3TCDXT3, compressed: true},
	gputypes.TextureFormatBC3RGBAUnorm:     {internal: glCompressedRGBAS3TCDXT5, compressed: true},
	gputypes.TextureFormatBC3RGBAUnormSrgb: {internal: glCompressedSRGBAlphaS3TCDXT5, compressed: true},
	gputypes.TextureFormatBC4RUnorm:        {internal: glCompressedRedRGTC1, compressed: true},
	gputypes.TextureFormatBC4RSnorm:        {internal: glCompressedSignedRedRGTC1, compressed: true},
	gputypes.TextureFormatBC5RGUnorm:       {internal: glCompressedRGRGTC2, compressed: true},
	gputypes.TextureFormatBC5RGSnorm:       {internal: glCompressedSignedRGRGTC2, compressed: true},
	gputypes.TextureFormatBC6HRGBUfloat:    {internal: glCompressedRGBBPTCUnsigned, compressed: true},
	gputypes.TextureFormatBC6HRGBFloat:     {internal: glCompressedRGBBPTCSigned, compressed: true},
	gputypes.TextureFormatBC7RGBAUnorm:     {internal: glCompressedRGBABPTCUnorm, compressed: true},
	gputypes.TextureFormatBC7RGBAUnormSrgb: {internal: glCompressedSRGBAlphaBPTC, compressed: true},
}

// lookupTextureFormat maps a texture format for a desktop or ES context.
func lookupTextureFormat(f gputypes.TextureFormat, es bool) (textureFormat, bool) {
	tf, ok := textureFormats[f]
	if !ok || (es && tf.desktop) {
		return textureFormat{}, false
	}
	return tf, true
}

// textureTarget returns the binding target of a texture kind.
func textureTarget(kind rhi.ResourceType) uint32 {
	switch kind {
	case rhi.ResourceTypeTexture2DArray:
		return gl.TEXTURE_2D_ARRAY
	case rhi.ResourceTypeTexture3D:
		return gl.TEXTURE_3D
	case rhi.ResourceTypeTextureCube:
		return gl.TEXTURE_CUBE_MAP
	case rhi.ResourceTypeTextureBuffer:
		return glTextureBuffer
	}
	return gl.TEXTURE_2D
}

// vertexFormat is the attribute pointer description of a vertex format.
type vertexFormat struct {
	size       int32
	typ        uint32
	normalized bool
	integer    bool
}

var vertexFormats = map[gputypes.VertexFormat]vertexFormat{
	gputypes.VertexFormatUint8x2:      {2, gl.UNSIGNED_BYTE, false, true},
	gputypes.VertexFormatUint8x4:      {4, gl.UNSIGNED_BYTE, false, true},
	gputypes.VertexFormatSint8x2:      {2, gl.BYTE, false, true},
	gputypes.VertexFormatSint8x4:      {4, gl.BYTE, false, true},
	gputypes.VertexFormatUnorm8x2:     {2, gl.UNSIGNED_BYTE, true, false},
	gputypes.VertexFormatUnorm8x4:     {4, gl.UNSIGNED_BYTE, true, false},
	gputypes.VertexFormatSnorm8x2:     {2, gl.BYTE, true, false},
	gputypes.VertexFormatSnorm8x4:     {4, gl.BYTE, true, false},
	gputypes.VertexFormatUint16x2:     {2, gl.UNSIGNED_SHORT, false, true},
	gputypes.VertexFormatUint16x4:     {4, gl.UNSIGNED_SHORT, false, true},
	gputypes.VertexFormatSint16x2:     {2, gl.SHORT, false, true},
	gputypes.VertexFormatSint16x4:     {4, gl.SHORT, false, true},
	gputypes.VertexFormatUnorm16x2:    {2, gl.UNSIGNED_SHORT, true, false},
	gputypes.VertexFormatUnorm16x4:    {4, gl.UNSIGNED_SHORT, true, false},
	gputypes.VertexFormatSnorm16x2:    {2, gl.SHORT, true, false},
	gputypes.VertexFormatSnorm16x4:    {4, gl.SHORT, true, false},
	gputypes.VertexFormatFloat16x2:    {2, gl.HALF_FLOAT, false, false},
	gputypes.VertexFormatFloat16x4:    {4, gl.HALF_FLOAT, false, false},
	gputypes.VertexFormatFloat32:      {1, gl.FLOAT, false, false},
	gputypes.VertexFormatFloat32x2:    {2, gl.FLOAT, false, false},
	gputypes.VertexFormatFloat32x3:    {3, gl.FLOAT, false, false},
	gputypes.VertexFormatFloat32x4:    {4, gl.FLOAT, false, false},
	gputypes.VertexFormatUint32:       {1, gl.UNSIGNED_INT, false, true},
	gputypes.VertexFormatUint32x2:     {2, gl.UNSIGNED_INT, false, true},
	gputypes.VertexFormatUint32x3:     {3, gl.UNSIGNED_INT, false, true},
	gputypes.VertexFormatUint32x4:     {4, gl.UNSIGNED_INT, false, true},
	gputypes.VertexFormatSint32:       {1, gl.INT, false, true},
	gputypes.VertexFormatSint32x2:     {2, gl.INT, false, true},
	gputypes.VertexFormatSint32x3:     {3, gl.INT, false, true},
	gputypes.VertexFormatSint32x4:     {4, gl.INT, false, true},
	gputypes.VertexFormatUnorm1010102: {4, glUnsignedInt2101010Rev, true, false},
}

func primitiveMode(t gputypes.PrimitiveTopology) uint32 {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return gl.POINTS
	case gputypes.PrimitiveTopologyLineList:
		return gl.LINES
	case gputypes.PrimitiveTopologyLineStrip:
		return gl.LINE_STRIP
	case gputypes.PrimitiveTopologyTriangleStrip:
		return gl.TRIANGLE_STRIP
	}
	return gl.TRIANGLES
}

func compareFunc(f gputypes.CompareFunction) uint32 {
	switch f {
	case gputypes.CompareFunctionNever:
		return gl.NEVER
	case gputypes.CompareFunctionLess:
		return gl.LESS
	case gputypes.CompareFunctionEqual:
		return gl.EQUAL
	case gputypes.CompareFunctionLessEqual:
		return gl.LEQUAL
	case gputypes.CompareFunctionGreater:
		return gl.GREATER
	case gputypes.CompareFunctionNotEqual:
		return gl.NOTEQUAL
	case gputypes.CompareFunctionGreaterEqual:
		return gl.GEQUAL
	}
	return gl.ALWAYS
}

func stencilOp(op gputypes.StencilOperation) uint32 {
	switch op {
	case gputypes.StencilOperationZero:
		return gl.ZERO
	case gputypes.StencilOperationReplace:
		return gl.REPLACE
	case gputypes.StencilOperationInvert:
		return gl.INVERT
	case gputypes.StencilOperationIncrementClamp:
		return gl.INCR
	case gputypes.StencilOperationDecrementClamp:
		return gl.DECR
	case gputypes.StencilOperationIncrementWrap:
		return gl.INCR_WRAP
	case gputypes.StencilOperationDecrementWrap:
		return gl.DECR_WRAP
	}
	return gl.KEEP
}

// blendFactor maps f, substituting def for an undefined factor.
func blendFactor(f gputypes.BlendFactor, def uint32) uint32 {
	switch f {
	case gputypes.BlendFactorZero:
		return gl.ZERO
	case gputypes.BlendFactorOne:
		return gl.ONE
	case gputypes.BlendFactorSrc:
		return gl.SRC_COLOR
	case gputypes.BlendFactorOneMinusSrc:
		return gl.ONE_MINUS_SRC_COLOR
	case gputypes.BlendFactorSrcAlpha:
		return gl.SRC_ALPHA
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	case gputypes.BlendFactorDst:
		return gl.DST_COLOR
	case gputypes.BlendFactorOneMinusDst:
		return gl.ONE_MINUS_DST_COLOR
	case gputypes.BlendFactorDstAlpha:
		return gl.DST_ALPHA
	case gputypes.BlendFactorOneMinusDstAlpha:
		return gl.ONE_MINUS_DST_ALPHA
	case gputypes.BlendFactorSrcAlphaSaturated:
		return gl.SRC_ALPHA_SATURATE
	case gputypes.BlendFactorConstant:
		return gl.CONSTANT_COLOR
	case gputypes.BlendFactorOneMinusConstant:
		return gl.ONE_MINUS_CONSTANT_COLOR
	}
	return def
}

func blendEquation(op gputypes.BlendOperation) uint32 {
	switch op {
	case gputypes.BlendOperationSubtract:
		return gl.FUNC_SUBTRACT
	case gputypes.BlendOperationReverseSubtract:
		return gl.FUNC_REVERSE_SUBTRACT
	case gputypes.BlendOperationMin:
		return gl.MIN
	case gputypes.BlendOperationMax:
		return gl.MAX
	}
	return gl.FUNC_ADD
}

// cullFace returns the face to cull and whether culling is enabled.
func cullFace(m gputypes.CullMode) (uint32, bool) {
	switch m {
	case gputypes.CullModeFront:
		return gl.FRONT, true
	case gputypes.CullModeBack:
		return gl.BACK, true
	}
	return gl.BACK, false
}

func frontFace(f gputypes.FrontFace) uint32 {
	if f == gputypes.FrontFaceCW {
		return gl.CW
	}
	return gl.CCW
}

func addressMode(m gputypes.AddressMode) int32 {
	switch m {
	case gputypes.AddressModeRepeat:
		return gl.REPEAT
	case gputypes.AddressModeMirrorRepeat:
		return gl.MIRRORED_REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func magFilter(f gputypes.FilterMode) int32 {
	if f == gputypes.FilterModeNearest {
		return gl.NEAREST
	}
	return gl.LINEAR
}

// minFilter combines the minification and mipmap filters. An undefined
// mipmap filter samples level 0 only.
func minFilter(f gputypes.FilterMode, mip gputypes.MipmapFilterMode) int32 {
	nearest := f == gputypes.FilterModeNearest
	switch mip {
	case gputypes.MipmapFilterModeNearest:
		if nearest {
			return gl.NEAREST_MIPMAP_NEAREST
		}
		return gl.LINEAR_MIPMAP_NEAREST
	case gputypes.MipmapFilterModeLinear:
		if nearest {
			return gl.NEAREST_MIPMAP_LINEAR
		}
		return gl.LINEAR_MIPMAP_LINEAR
	}
	if nearest {
		return gl.NEAREST
	}
	return gl.LINEAR
}

var bufferUsages = [...]uint32{
	rhi.BufferUsageStreamDraw:  gl.STREAM_DRAW,
	rhi.BufferUsageStreamRead:  gl.STREAM_READ,
	rhi.BufferUsageStreamCopy:  gl.STREAM_COPY,
	rhi.BufferUsageStaticDraw:  gl.STATIC_DRAW,
	rhi.BufferUsageStaticRead:  gl.STATIC_READ,
	rhi.BufferUsageStaticCopy:  gl.STATIC_COPY,
	rhi.BufferUsageDynamicDraw: gl.DYNAMIC_DRAW,
	rhi.BufferUsageDynamicRead: gl.DYNAMIC_READ,
	rhi.BufferUsageDynamicCopy: gl.DYNAMIC_COPY,
}

func bufferUsage(u rhi.BufferUsage) uint32 {
	if int(u) < len(bufferUsages) {
		return bufferUsages[u]
	}
	return gl.STATIC_DRAW
}

func mapAccess(m rhi.MapType) uint32 {
	switch m {
	case rhi.MapRead:
		return gl.READ_ONLY
	case rhi.MapReadWrite:
		return gl.READ_WRITE
	}
	return gl.WRITE_ONLY
}

// indexType returns the element type and size of an index format.
func indexType(f gputypes.IndexFormat) (uint32, uint32) {
	if f == gputypes.IndexFormatUint32 {
		return gl.UNSIGNED_INT, 4
	}
	return gl.UNSIGNED_SHORT, 2
}

func clearMask(flags rhi.ClearFlags) uint32 {
	var mask uint32
	if flags&rhi.ClearColor != 0 {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if flags&rhi.ClearDepth != 0 {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if flags&rhi.ClearStencil != 0 {
		mask |= gl.STENCIL_BUFFER_BIT
	}
	return mask
}
