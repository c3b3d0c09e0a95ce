// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d9

import "github.com/gogpu/gpucontext"

// Object is any COM object the driver owns. Release drops the driver's
// reference.
type Object interface {
	Release()
}

// Named is implemented by objects that accept a debug name through
// SetPrivateData.
type Named interface {
	SetName(name string)
}

// Surface is an IDirect3DSurface9.
type Surface interface {
	Object
}

// Buffer is an IDirect3DVertexBuffer9 or IDirect3DIndexBuffer9.
type Buffer interface {
	Object

	// Lock returns size bytes at offset. A zero size locks the rest of
	// the buffer.
	Lock(offset, size uint32, flags LockFlags) ([]byte, error)
	Unlock()
}

// LockedRect is a locked texture level.
type LockedRect struct {
	Data       []byte
	Pitch      uint32
	SlicePitch uint32
}

// Texture is an IDirect3DTexture9, IDirect3DCubeTexture9 or
// IDirect3DVolumeTexture9. face is 0 except for cube textures.
type Texture interface {
	Object
	Lock(face, level uint32, flags LockFlags) (LockedRect, error)
	Unlock(face, level uint32)

	// Surface returns a level of a face as a render target surface. The
	// caller releases it.
	Surface(face, level uint32) (Surface, error)
}

// Query is an IDirect3DQuery9.
type Query interface {
	Object
	Issue()

	// GetData reports whether the query signaled. flush asks the
	// driver to submit queued commands first.
	GetData(flush bool) (bool, error)
}

// Device mirrors the IDirect3DDevice9 methods the driver uses.
type Device interface {
	Caps() DeviceCaps

	// CheckFormat reports whether format can be created with usage as a
	// resource of typ on the adapter, like CheckDeviceFormat.
	CheckFormat(format Format, usage Usage, typ ResourceType) bool

	CreateTexture(desc *TextureDesc) (Texture, error)
	CreateVertexBuffer(length uint32, usage Usage, pool Pool) (Buffer, error)
	CreateIndexBuffer(length uint32, usage Usage, format Format, pool Pool) (Buffer, error)
	CreateVertexShader(bytecode []byte) (Object, error)
	CreatePixelShader(bytecode []byte) (Object, error)

	// CreateVertexDeclaration creates a declaration from elements. The
	// D3DDECL_END terminator is not part of elements.
	CreateVertexDeclaration(elements []VertexElement) (Object, error)
	CreateQuery(typ QueryType) (Query, error)

	// RenderTarget and DepthStencilSurface return the surfaces of the
	// implicit swap chain. The caller releases them.
	RenderTarget() (Surface, error)
	DepthStencilSurface() (Surface, error)

	SetRenderTarget(index uint32, s Surface) error
	SetDepthStencilSurface(s Surface)
	SetViewport(vp Viewport)
	SetScissorRect(r Rect)

	SetRenderState(state RenderState, value uint32)
	SetSamplerState(sampler uint32, typ SamplerStateType, value uint32)
	SetTexture(sampler uint32, tex Texture)

	SetStreamSource(stream uint32, b Buffer, offset, stride uint32)
	SetStreamSourceFreq(stream uint32, setting uint32)
	SetIndices(b Buffer)
	SetVertexDeclaration(decl Object)
	SetVertexShader(s Object)
	SetPixelShader(s Object)
	SetVertexShaderConstantF(start uint32, data []float32)
	SetPixelShaderConstantF(start uint32, data []float32)

	Clear(flags ClearFlags, color uint32, z float32, stencil uint32)
	BeginScene() error
	EndScene() error
	DrawPrimitive(typ PrimitiveType, startVertex, primitiveCount uint32)
	DrawIndexedPrimitive(typ PrimitiveType, baseVertex int32, minIndex, numVertices, startIndex, primitiveCount uint32)
}

// AdapterDevice is implemented by devices that can describe their
// adapter, usually from GetAdapterIdentifier.
type AdapterDevice interface {
	AdapterInfo() gpucontext.AdapterInfo
}

// SwapChainDevice is implemented by devices that can create additional
// swap chains.
type SwapChainDevice interface {
	CreateAdditionalSwapChain(pp *PresentParameters) (SwapChain, error)
}

// SwapChain mirrors IDirect3DSwapChain9.
type SwapChain interface {
	Object
	Present() error

	// BackBuffer returns back buffer 0. The caller releases it.
	BackBuffer() (Surface, error)
}

// Annotation is implemented by devices that forward D3DPERF events.
type Annotation interface {
	BeginEvent(name string)
	EndEvent()
	SetMarker(name string)
}

// Compiler compiles HLSL to shader bytecode, like D3DCompile.
type Compiler interface {
	Compile(source, entryPoint, target string) ([]byte, error)
}

// DeviceCaps is the subset of D3DCAPS9 the driver reads.
type DeviceCaps struct {
	TextureCaps         TextureCaps
	MaxTextureWidth     uint32
	MaxTextureHeight    uint32
	MaxVolumeExtent     uint32
	MaxAnisotropy       uint32
	MaxStreams          uint32
	MaxVertexIndex      uint32
	NumSimultaneousRTs  uint32
	VertexShaderVersion uint32
	PixelShaderVersion  uint32
}

// TextureCaps are D3DPTEXTURECAPS flags.
type TextureCaps uint32

// Texture capability flags.
const (
	TextureCapsPow2      TextureCaps = 0x2
	TextureCapsCubeMap   TextureCaps = 0x800
	TextureCapsVolumeMap TextureCaps = 0x2000
	TextureCapsMipMap    TextureCaps = 0x4000
)

// ShaderVersion encodes a shader model like D3DVS_VERSION and
// D3DPS_VERSION; the type token is masked off.
func ShaderVersion(major, minor uint32) uint32 { return major<<8 | minor }

// shaderModel strips the type token of a version from DeviceCaps.
func shaderModel(v uint32) uint32 { return v & 0xFFFF }

// ResourceType is a D3DRESOURCETYPE.
type ResourceType uint32

// Resource types.
const (
	ResourceSurface       ResourceType = 1
	ResourceTexture       ResourceType = 3
	ResourceVolumeTexture ResourceType = 4
	ResourceCubeTexture   ResourceType = 5
)

// Usage is a set of D3DUSAGE flags.
type Usage uint32

// Usage flags.
const (
	UsageRenderTarget Usage = 0x1
	UsageDepthStencil Usage = 0x2
	UsageWriteOnly    Usage = 0x8
	UsageDynamic      Usage = 0x200
)

// Pool is a D3DPOOL.
type Pool uint32

// Pools.
const (
	PoolDefault   Pool = 0
	PoolManaged   Pool = 1
	PoolSystemMem Pool = 2
)

// LockFlags are D3DLOCK flags.
type LockFlags uint32

// Lock flags.
const (
	LockReadOnly    LockFlags = 0x10
	LockNoOverwrite LockFlags = 0x1000
	LockDiscard     LockFlags = 0x2000
)

// TextureDesc describes a texture. Depth is used by volume textures.
type TextureDesc struct {
	Type   ResourceType
	Width  uint32
	Height uint32
	Depth  uint32
	Levels uint32
	Usage  Usage
	Format Format
	Pool   Pool
}

// QueryType is a D3DQUERYTYPE.
type QueryType uint32

// QueryEvent signals when the GPU reaches it.
const QueryEvent QueryType = 8

// Viewport is a D3DVIEWPORT9.
type Viewport struct {
	X, Y          uint32
	Width, Height uint32
	MinZ, MaxZ    float32
}

// Rect is a RECT.
type Rect struct {
	Left, Top, Right, Bottom int32
}

// ClearFlags are D3DCLEAR flags.
type ClearFlags uint32

// Clear flags.
const (
	ClearTarget  ClearFlags = 0x1
	ClearZBuffer ClearFlags = 0x2
	ClearStencil ClearFlags = 0x4
)

// PrimitiveType is a D3DPRIMITIVETYPE.
type PrimitiveType uint32

// Primitive types.
const (
	PrimitivePointList     PrimitiveType = 1
	PrimitiveLineList      PrimitiveType = 2
	PrimitiveLineStrip     PrimitiveType = 3
	PrimitiveTriangleList  PrimitiveType = 4
	PrimitiveTriangleStrip PrimitiveType = 5
)

// Stream frequency settings of SetStreamSourceFreq.
const (
	StreamIndexedData  uint32 = 1 << 30
	StreamInstanceData uint32 = 2 << 30
)

// PresentParameters is the subset of D3DPRESENT_PARAMETERS used for
// additional swap chains.
type PresentParameters struct {
	Window           any
	BackBufferWidth  uint32
	BackBufferHeight uint32
	BackBufferFormat Format
	BackBufferCount  uint32

	// PresentationInterval is 1 to wait for vertical sync and 0 to
	// present immediately.
	PresentationInterval uint32
}

// RenderState is a D3DRENDERSTATETYPE.
type RenderState uint32

// Render states.
const (
	RSZEnable                  RenderState = 7
	RSFillMode                 RenderState = 8
	RSZWriteEnable             RenderState = 14
	RSSrcBlend                 RenderState = 19
	RSDestBlend                RenderState = 20
	RSCullMode                 RenderState = 22
	RSZFunc                    RenderState = 23
	RSAlphaBlendEnable         RenderState = 27
	RSStencilEnable            RenderState = 52
	RSStencilFail              RenderState = 53
	RSStencilZFail             RenderState = 54
	RSStencilPass              RenderState = 55
	RSStencilFunc              RenderState = 56
	RSStencilRef               RenderState = 57
	RSStencilMask              RenderState = 58
	RSStencilWriteMask         RenderState = 59
	RSClipping                 RenderState = 136
	RSLighting                 RenderState = 137
	RSMultisampleAntialias     RenderState = 161
	RSColorWriteEnable         RenderState = 168
	RSBlendOp                  RenderState = 171
	RSScissorTestEnable        RenderState = 174
	RSSlopeScaleDepthBias      RenderState = 175
	RSAntialiasedLineEnable    RenderState = 176
	RSTwoSidedStencilMode      RenderState = 185
	RSCCWStencilFail           RenderState = 186
	RSCCWStencilZFail          RenderState = 187
	RSCCWStencilPass           RenderState = 188
	RSCCWStencilFunc           RenderState = 189
	RSColorWriteEnable1        RenderState = 190
	RSColorWriteEnable2        RenderState = 191
	RSColorWriteEnable3        RenderState = 192
	RSBlendFactor              RenderState = 193
	RSDepthBias                RenderState = 195
	RSSeparateAlphaBlendEnable RenderState = 206
	RSSrcBlendAlpha            RenderState = 207
	RSDestBlendAlpha           RenderState = 208
	RSBlendOpAlpha             RenderState = 209
)

// SamplerStateType is a D3DSAMPLERSTATETYPE.
type SamplerStateType uint32

// Sampler states.
const (
	SampAddressU      SamplerStateType = 1
	SampAddressV      SamplerStateType = 2
	SampAddressW      SamplerStateType = 3
	SampBorderColor   SamplerStateType = 4
	SampMagFilter     SamplerStateType = 5
	SampMinFilter     SamplerStateType = 6
	SampMipFilter     SamplerStateType = 7
	SampMipMapLODBias SamplerStateType = 8
	SampMaxMipLevel   SamplerStateType = 9
	SampMaxAnisotropy SamplerStateType = 10
)

// VertexSampler0 is the first displacement map sampler, used for vertex
// texture fetch.
const VertexSampler0 = 257

// Values of the render and sampler states.
const (
	FillPoint     = 1
	FillWireframe = 2
	FillSolid     = 3

	CullNone = 1
	CullCW   = 2
	CullCCW  = 3

	CmpNever        = 1
	CmpLess         = 2
	CmpEqual        = 3
	CmpLessEqual    = 4
	CmpGreater      = 5
	CmpNotEqual     = 6
	CmpGreaterEqual = 7
	CmpAlways       = 8

	StencilOpKeep    = 1
	StencilOpZero    = 2
	StencilOpReplace = 3
	StencilOpIncrSat = 4
	StencilOpDecrSat = 5
	StencilOpInvert  = 6
	StencilOpIncr    = 7
	StencilOpDecr    = 8

	BlendZero           = 1
	BlendOne            = 2
	BlendSrcColor       = 3
	BlendInvSrcColor    = 4
	BlendSrcAlpha       = 5
	BlendInvSrcAlpha    = 6
	BlendDestAlpha      = 7
	BlendInvDestAlpha   = 8
	BlendDestColor      = 9
	BlendInvDestColor   = 10
	BlendSrcAlphaSat    = 11
	BlendBlendFactor    = 14
	BlendInvBlendFactor = 15

	BlendOpAdd         = 1
	BlendOpSubtract    = 2
	BlendOpRevSubtract = 3
	BlendOpMin         = 4
	BlendOpMax         = 5

	AddressWrap   = 1
	AddressMirror = 2
	AddressClamp  = 3
	AddressBorder = 4

	TexFilterNone        = 0
	TexFilterPoint       = 1
	TexFilterLinear      = 2
	TexFilterAnisotropic = 3
)

// DeclType is a D3DDECLTYPE.
type DeclType uint8

// Vertex element types.
const (
	DeclFloat1    DeclType = 0
	DeclFloat2    DeclType = 1
	DeclFloat3    DeclType = 2
	DeclFloat4    DeclType = 3
	DeclColor     DeclType = 4
	DeclUByte4    DeclType = 5
	DeclShort2    DeclType = 6
	DeclShort4    DeclType = 7
	DeclUByte4N   DeclType = 8
	DeclShort2N   DeclType = 9
	DeclShort4N   DeclType = 10
	DeclUShort2N  DeclType = 11
	DeclUShort4N  DeclType = 12
	DeclUDec3     DeclType = 13
	DeclDec3N     DeclType = 14
	DeclFloat16x2 DeclType = 15
	DeclFloat16x4 DeclType = 16
)

// DeclUsage is a D3DDECLUSAGE.
type DeclUsage uint8

// Vertex element usages.
const (
	DeclUsagePosition     DeclUsage = 0
	DeclUsageBlendWeight  DeclUsage = 1
	DeclUsageBlendIndices DeclUsage = 2
	DeclUsageNormal       DeclUsage = 3
	DeclUsagePSize        DeclUsage = 4
	DeclUsageTexCoord     DeclUsage = 5
	DeclUsageTangent      DeclUsage = 6
	DeclUsageBinormal     DeclUsage = 7
	DeclUsageColor        DeclUsage = 10
	DeclUsageFog          DeclUsage = 11
	DeclUsageDepth        DeclUsage = 12
)

// VertexElement is a D3DVERTEXELEMENT9. Method is always
// D3DDECLMETHOD_DEFAULT.
type VertexElement struct {
	Stream     uint16
	Offset     uint16
	Type       DeclType
	Usage      DeclUsage
	UsageIndex uint8
}
