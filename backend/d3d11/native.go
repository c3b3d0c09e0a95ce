// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import "github.com/gogpu/gpucontext"

// FeatureLevel is a Direct3D feature level, encoded like
// D3D_FEATURE_LEVEL.
type FeatureLevel uint32

// Feature levels.
const (
	FeatureLevel9_1  FeatureLevel = 0x9100
	FeatureLevel9_2  FeatureLevel = 0x9200
	FeatureLevel9_3  FeatureLevel = 0x9300
	FeatureLevel10_0 FeatureLevel = 0xa000
	FeatureLevel10_1 FeatureLevel = 0xa100
	FeatureLevel11_0 FeatureLevel = 0xb000
	FeatureLevel11_1 FeatureLevel = 0xb100
)

// String returns the level as "11_0".
func (l FeatureLevel) String() string {
	return string([]byte{'0' + byte(l>>12&0xf), '_', '0' + byte(l>>8&0xf)})
}

// Object is any COM object the driver owns. Release drops the driver's
// reference.
type Object interface {
	Release()
}

// Named is implemented by objects that accept a debug name, usually
// through SetPrivateData with WKPDID_D3DDebugObjectName.
type Named interface {
	SetName(name string)
}

// Resource is an ID3D11Buffer or ID3D11Texture*.
type Resource interface {
	Object
}

// View is a shader resource, render target or depth-stencil view.
type View interface {
	Object
}

// Device creates native objects. It mirrors the ID3D11Device methods the
// driver uses.
type Device interface {
	FeatureLevel() FeatureLevel
	CheckFormatSupport(format Format) FormatSupport

	// CreateBuffer creates a buffer. data is nil or covers ByteWidth.
	CreateBuffer(desc *BufferDesc, data *SubresourceData) (Resource, error)

	// CreateTexture creates a texture of desc.Dimension. data is nil or
	// holds one entry per subresource, in subresource order.
	CreateTexture(desc *TextureDesc, data []SubresourceData) (Resource, error)

	CreateShaderResourceView(res Resource, desc *ShaderResourceViewDesc) (View, error)
	CreateRenderTargetView(res Resource, desc *RenderTargetViewDesc) (View, error)
	CreateDepthStencilView(res Resource, desc *DepthStencilViewDesc) (View, error)

	CreateSamplerState(desc *SamplerDesc) (Object, error)
	CreateRasterizerState(desc *RasterizerDesc) (Object, error)
	CreateDepthStencilState(desc *DepthStencilDesc) (Object, error)
	CreateBlendState(desc *BlendDesc) (Object, error)

	CreateVertexShader(bytecode []byte) (Object, error)
	CreatePixelShader(bytecode []byte) (Object, error)

	// CreateInputLayout validates elements against the input signature
	// of vertex shader bytecode.
	CreateInputLayout(elements []InputElementDesc, bytecode []byte) (Object, error)

	CreateQuery(typ QueryType) (Object, error)
}

// AdapterDevice is implemented by devices that can describe their DXGI
// adapter.
type AdapterDevice interface {
	AdapterInfo() gpucontext.AdapterInfo
}

// SwapChainDevice is implemented by devices that can create DXGI swap
// chains for a window.
type SwapChainDevice interface {
	CreateSwapChain(desc *SwapChainDesc) (SwapChain, error)
}

// SwapChain mirrors IDXGISwapChain.
type SwapChain interface {
	Object
	Present(syncInterval uint32) error
	ResizeBuffers(width, height uint32, format Format) error

	// Buffer returns back buffer 0. The caller releases it.
	Buffer() (Resource, error)
}

// Context mirrors the ID3D11DeviceContext methods of the immediate
// context. Slices passed to the Set methods are only valid for the call.
type Context interface {
	IASetInputLayout(layout Object)
	IASetVertexBuffers(startSlot uint32, buffers []Resource, strides, offsets []uint32)
	IASetIndexBuffer(buffer Resource, format Format, offset uint32)
	IASetPrimitiveTopology(topology PrimitiveTopology)

	VSSetShader(shader Object)
	VSSetConstantBuffers(startSlot uint32, buffers []Resource)
	VSSetShaderResources(startSlot uint32, views []View)
	VSSetSamplers(startSlot uint32, samplers []Object)

	PSSetShader(shader Object)
	PSSetConstantBuffers(startSlot uint32, buffers []Resource)
	PSSetShaderResources(startSlot uint32, views []View)
	PSSetSamplers(startSlot uint32, samplers []Object)

	RSSetState(state Object)
	RSSetViewports(viewports []Viewport)
	RSSetScissorRects(rects []Rect)

	OMSetRenderTargets(colors []View, depthStencil View)
	OMSetBlendState(state Object, blendFactor [4]float32, sampleMask uint32)
	OMSetDepthStencilState(state Object, stencilRef uint32)

	ClearRenderTargetView(view View, color [4]float32)
	ClearDepthStencilView(view View, flags ClearFlags, depth float32, stencil uint8)

	Draw(vertexCount, startVertex uint32)
	DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32)
	DrawIndexed(indexCount, startIndex uint32, baseVertex int32)
	DrawIndexedInstanced(indexCountPerInstance, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32)

	Map(res Resource, subresource uint32, mode MapMode) (MappedSubresource, error)
	Unmap(res Resource, subresource uint32)
	UpdateSubresource(res Resource, subresource uint32, data []byte, rowPitch, depthPitch uint32)
	GenerateMips(view View)

	Flush()
	End(query Object)

	// GetData polls a query. It reports true once the query has completed.
	GetData(query Object) (bool, error)
}

// Annotation mirrors ID3DUserDefinedAnnotation. The driver uses it when
// the Context implements it.
type Annotation interface {
	BeginEvent(name string)
	EndEvent()
	SetMarker(name string)
}

// Compiler compiles HLSL source to DXBC bytecode, like D3DCompile.
type Compiler interface {
	Compile(source, entryPoint, target string) ([]byte, error)
}

// MappedSubresource is CPU memory returned by Context.Map.
type MappedSubresource struct {
	Data       []byte
	RowPitch   uint32
	DepthPitch uint32
}

// Usage is D3D11_USAGE.
type Usage uint32

// Resource usages.
const (
	UsageDefault Usage = iota
	UsageImmutable
	UsageDynamic
	UsageStaging
)

// BindFlags is D3D11_BIND_FLAG.
type BindFlags uint32

// Bind flags.
const (
	BindVertexBuffer   BindFlags = 0x1
	BindIndexBuffer    BindFlags = 0x2
	BindConstantBuffer BindFlags = 0x4
	BindShaderResource BindFlags = 0x8
	BindRenderTarget   BindFlags = 0x20
	BindDepthStencil   BindFlags = 0x40
)

// CPUAccess is D3D11_CPU_ACCESS_FLAG.
type CPUAccess uint32

// CPU access flags.
const (
	CPUAccessWrite CPUAccess = 0x10000
	CPUAccessRead  CPUAccess = 0x20000
)

// MiscFlags is D3D11_RESOURCE_MISC_FLAG.
type MiscFlags uint32

// Miscellaneous resource flags.
const (
	MiscGenerateMips MiscFlags = 0x1
	MiscTextureCube  MiscFlags = 0x4
)

// MapMode is D3D11_MAP.
type MapMode uint32

// Map modes.
const (
	MapRead MapMode = iota + 1
	MapWrite
	MapReadWrite
	MapWriteDiscard
	MapWriteNoOverwrite
)

// FormatSupport is D3D11_FORMAT_SUPPORT.
type FormatSupport uint32

// Format support bits.
const (
	FormatSupportBuffer         FormatSupport = 0x1
	FormatSupportVertexBuffer   FormatSupport = 0x2
	FormatSupportIndexBuffer    FormatSupport = 0x4
	FormatSupportTexture2D      FormatSupport = 0x20
	FormatSupportTexture3D      FormatSupport = 0x40
	FormatSupportTextureCube    FormatSupport = 0x80
	FormatSupportShaderSample   FormatSupport = 0x200
	FormatSupportMipAutogen     FormatSupport = 0x2000
	FormatSupportRenderTarget   FormatSupport = 0x4000
	FormatSupportBlendable      FormatSupport = 0x8000
	FormatSupportDepthStencil   FormatSupport = 0x10000
	FormatSupportDisplay        FormatSupport = 0x80000
	FormatSupportShaderLoad     FormatSupport = 0x100
	FormatSupportMultisampleRes FormatSupport = 0x200000
)

// Has reports whether every bit of s2 is set.
func (s FormatSupport) Has(s2 FormatSupport) bool { return s&s2 == s2 }

// ResourceDimension selects the texture type created by
// Device.CreateTexture.
type ResourceDimension uint32

// Texture dimensions.
const (
	ResourceDimensionTexture2D ResourceDimension = iota + 3
	ResourceDimensionTexture3D
)

// BufferDesc is D3D11_BUFFER_DESC.
type BufferDesc struct {
	ByteWidth      uint32
	Usage          Usage
	BindFlags      BindFlags
	CPUAccessFlags CPUAccess
	MiscFlags      MiscFlags
}

// TextureDesc covers D3D11_TEXTURE2D_DESC and D3D11_TEXTURE3D_DESC.
// DepthOrArraySize is the depth of a 3D texture and the array size of a
// 2D one.
type TextureDesc struct {
	Dimension        ResourceDimension
	Width            uint32
	Height           uint32
	DepthOrArraySize uint32
	MipLevels        uint32
	Format           Format
	SampleCount      uint32
	Usage            Usage
	BindFlags        BindFlags
	CPUAccessFlags   CPUAccess
	MiscFlags        MiscFlags
}

// SubresourceData is D3D11_SUBRESOURCE_DATA.
type SubresourceData struct {
	Data       []byte
	RowPitch   uint32
	SlicePitch uint32
}

// ViewDimension selects how a view reinterprets its resource. Bindings
// translate it to the D3D11_*_DIMENSION value of the view kind.
type ViewDimension uint32

// View dimensions.
const (
	ViewDimensionBuffer ViewDimension = iota + 1
	ViewDimensionTexture2D
	ViewDimensionTexture2DArray
	ViewDimensionTexture3D
	ViewDimensionTextureCube
)

// ShaderResourceViewDesc flattens D3D11_SHADER_RESOURCE_VIEW_DESC. Buffer
// views use FirstElement and NumElements, texture views the mip and array
// ranges.
type ShaderResourceViewDesc struct {
	Format          Format
	Dimension       ViewDimension
	MostDetailedMip uint32
	MipLevels       uint32
	FirstArraySlice uint32
	ArraySize       uint32
	FirstElement    uint32
	NumElements     uint32
}

// RenderTargetViewDesc flattens D3D11_RENDER_TARGET_VIEW_DESC.
type RenderTargetViewDesc struct {
	Format          Format
	Dimension       ViewDimension
	MipSlice        uint32
	FirstArraySlice uint32
	ArraySize       uint32
}

// DepthStencilViewDesc flattens D3D11_DEPTH_STENCIL_VIEW_DESC.
type DepthStencilViewDesc struct {
	Format          Format
	Dimension       ViewDimension
	MipSlice        uint32
	FirstArraySlice uint32
	ArraySize       uint32
}

// Filter is D3D11_FILTER.
type Filter uint32

// Filter bits. A filter with no linear bit is MIN_MAG_MIP_POINT.
const (
	FilterMipLinear   Filter = 0x1
	FilterMagLinear   Filter = 0x4
	FilterMinLinear   Filter = 0x10
	FilterAnisotropic Filter = 0x55
	FilterComparison  Filter = 0x80
)

// TextureAddressMode is D3D11_TEXTURE_ADDRESS_MODE.
type TextureAddressMode uint32

// Address modes.
const (
	AddressWrap TextureAddressMode = iota + 1
	AddressMirror
	AddressClamp
	AddressBorder
)

// ComparisonFunc is D3D11_COMPARISON_FUNC.
type ComparisonFunc uint32

// Comparison functions.
const (
	ComparisonNever ComparisonFunc = iota + 1
	ComparisonLess
	ComparisonEqual
	ComparisonLessEqual
	ComparisonGreater
	ComparisonNotEqual
	ComparisonGreaterEqual
	ComparisonAlways
)

// SamplerDesc is D3D11_SAMPLER_DESC.
type SamplerDesc struct {
	Filter         Filter
	AddressU       TextureAddressMode
	AddressV       TextureAddressMode
	AddressW       TextureAddressMode
	MipLODBias     float32
	MaxAnisotropy  uint32
	ComparisonFunc ComparisonFunc
	BorderColor    [4]float32
	MinLOD         float32
	MaxLOD         float32
}

// FillMode is D3D11_FILL_MODE.
type FillMode uint32

// Fill modes.
const (
	FillWireframe FillMode = 2
	FillSolid     FillMode = 3
)

// CullMode is D3D11_CULL_MODE.
type CullMode uint32

// Cull modes.
const (
	CullNone CullMode = iota + 1
	CullFront
	CullBack
)

// RasterizerDesc is D3D11_RASTERIZER_DESC.
type RasterizerDesc struct {
	FillMode              FillMode
	CullMode              CullMode
	FrontCounterClockwise bool
	DepthBias             int32
	DepthBiasClamp        float32
	SlopeScaledDepthBias  float32
	DepthClipEnable       bool
	ScissorEnable         bool
	MultisampleEnable     bool
	AntialiasedLineEnable bool
}

// StencilOp is D3D11_STENCIL_OP.
type StencilOp uint32

// Stencil operations.
const (
	StencilOpKeep StencilOp = iota + 1
	StencilOpZero
	StencilOpReplace
	StencilOpIncrSat
	StencilOpDecrSat
	StencilOpInvert
	StencilOpIncr
	StencilOpDecr
)

// DepthWriteMask is D3D11_DEPTH_WRITE_MASK.
type DepthWriteMask uint32

// Depth write masks.
const (
	DepthWriteMaskZero DepthWriteMask = iota
	DepthWriteMaskAll
)

// DepthStencilOpDesc is D3D11_DEPTH_STENCILOP_DESC.
type DepthStencilOpDesc struct {
	StencilFailOp      StencilOp
	StencilDepthFailOp StencilOp
	StencilPassOp      StencilOp
	StencilFunc        ComparisonFunc
}

// DepthStencilDesc is D3D11_DEPTH_STENCIL_DESC.
type DepthStencilDesc struct {
	DepthEnable      bool
	DepthWriteMask   DepthWriteMask
	DepthFunc        ComparisonFunc
	StencilEnable    bool
	StencilReadMask  uint8
	StencilWriteMask uint8
	FrontFace        DepthStencilOpDesc
	BackFace         DepthStencilOpDesc
}

// Blend is D3D11_BLEND.
type Blend uint32

// Blend factors.
const (
	BlendZero           Blend = 1
	BlendOne            Blend = 2
	BlendSrcColor       Blend = 3
	BlendInvSrcColor    Blend = 4
	BlendSrcAlpha       Blend = 5
	BlendInvSrcAlpha    Blend = 6
	BlendDestAlpha      Blend = 7
	BlendInvDestAlpha   Blend = 8
	BlendDestColor      Blend = 9
	BlendInvDestColor   Blend = 10
	BlendSrcAlphaSat    Blend = 11
	BlendBlendFactor    Blend = 14
	BlendInvBlendFactor Blend = 15
)

// BlendOp is D3D11_BLEND_OP.
type BlendOp uint32

// Blend operations.
const (
	BlendOpAdd BlendOp = iota + 1
	BlendOpSubtract
	BlendOpRevSubtract
	BlendOpMin
	BlendOpMax
)

// RenderTargetBlendDesc is D3D11_RENDER_TARGET_BLEND_DESC.
type RenderTargetBlendDesc struct {
	BlendEnable           bool
	SrcBlend              Blend
	DestBlend             Blend
	BlendOp               BlendOp
	SrcBlendAlpha         Blend
	DestBlendAlpha        Blend
	BlendOpAlpha          BlendOp
	RenderTargetWriteMask uint8
}

// BlendDesc is D3D11_BLEND_DESC.
type BlendDesc struct {
	AlphaToCoverageEnable  bool
	IndependentBlendEnable bool
	RenderTarget           [8]RenderTargetBlendDesc
}

// InputClassification is D3D11_INPUT_CLASSIFICATION.
type InputClassification uint32

// Input classifications.
const (
	InputPerVertexData InputClassification = iota
	InputPerInstanceData
)

// InputElementDesc is D3D11_INPUT_ELEMENT_DESC.
type InputElementDesc struct {
	SemanticName         string
	SemanticIndex        uint32
	Format               Format
	InputSlot            uint32
	AlignedByteOffset    uint32
	InputSlotClass       InputClassification
	InstanceDataStepRate uint32
}

// PrimitiveTopology is D3D11_PRIMITIVE_TOPOLOGY.
type PrimitiveTopology uint32

// Primitive topologies.
const (
	TopologyPointList PrimitiveTopology = iota + 1
	TopologyLineList
	TopologyLineStrip
	TopologyTriangleList
	TopologyTriangleStrip
)

// ClearFlags is D3D11_CLEAR_FLAG.
type ClearFlags uint32

// Depth-stencil clear flags.
const (
	ClearDepth   ClearFlags = 0x1
	ClearStencil ClearFlags = 0x2
)

// Viewport is D3D11_VIEWPORT.
type Viewport struct {
	TopLeftX, TopLeftY float32
	Width, Height      float32
	MinDepth, MaxDepth float32
}

// Rect is a D3D11_RECT scissor rectangle.
type Rect struct {
	Left, Top, Right, Bottom int32
}

// QueryType is D3D11_QUERY.
type QueryType uint32

// QueryEvent completes when the GPU has processed every earlier command.
const QueryEvent QueryType = 0

// SwapChainDesc describes a flip-model swap chain for a window.
type SwapChainDesc struct {
	Window      any
	Width       uint32
	Height      uint32
	Format      Format
	BufferCount uint32
}
