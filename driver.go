// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Driver translates Renderer requests into calls of one native graphics API.
//
// A Driver is the injected "native API bindings" half of a Renderer. It never
// caches bound state and never counts references: the Renderer diffs every
// request against its own state cache and only forwards real changes, and
// resources own the native objects a Driver returns.
//
// Factories must return an untyped nil object together with a non-nil
// error on failure. Bind methods receive nil to unbind a slot.
//
// Drivers are thread-affine, like the native contexts they wrap.
type Driver interface {
	// Info describes the opened device.
	Info() DriverInfo

	// Caps reports what the device supports. The value is fixed after open.
	Caps() Caps

	// IsInitialized reports whether the native device is usable.
	IsInitialized() bool

	// Close releases the native device. Called last, after every resource
	// owned by the Renderer has been released.
	Close()

	NewTexture(desc *TextureDescriptor, data []byte) (NativeResource, error)
	NewBuffer(desc *BufferDescriptor, data []byte) (NativeResource, error)
	NewShader(desc *ShaderDescriptor) (NativeObject, error)
	NewProgram(vertex, fragment NativeObject) (NativeObject, error)
	NewSamplerState(desc *SamplerDescriptor) (NativeObject, error)
	NewRasterizerState(desc *RasterizerDescriptor) (NativeObject, error)
	NewDepthStencilState(desc *DepthStencilDescriptor) (NativeObject, error)
	NewBlendState(desc *BlendDescriptor) (NativeObject, error)

	// NewVertexLayout derives the native input layout used by a pipeline
	// state. program may be nil when the backend does not need the vertex
	// shader signature.
	NewVertexLayout(layout *VertexLayout, program NativeObject) (NativeObject, error)

	// NewVertexArray derives the native vertex array from buffers and layout.
	NewVertexArray(desc *NativeVertexArray) (NativeObject, error)

	NewFramebuffer(colors []NativeAttachment, depthStencil *NativeAttachment) (NativeObject, error)
	NewSwapChain(desc *SwapChainDescriptor) (NativeSwapChain, error)

	// SetRenderTarget binds a framebuffer or swap chain. nil restores the
	// default target.
	SetRenderTarget(target NativeObject)
	SetViewport(vp Viewport)
	SetScissorRect(rect ScissorRect)
	SetPrimitiveTopology(topology gputypes.PrimitiveTopology)
	SetVertexArray(va NativeObject)
	SetVertexLayout(layout NativeObject)
	SetProgram(program NativeObject)
	SetRasterizerState(state NativeObject)
	SetDepthStencilState(state NativeObject)
	SetBlendState(state NativeObject)
	SetTexture(stage ShaderStage, unit uint32, texture NativeResource)
	SetSamplerState(stage ShaderStage, unit uint32, sampler NativeObject)
	SetUniformBuffer(stage ShaderStage, slot uint32, buffer NativeResource)

	Clear(flags ClearFlags, color gputypes.Color, depth float32, stencil uint32)
	Draw(args DrawArguments)
	DrawIndexed(args DrawIndexedArguments)

	// Flush asks the device to start executing queued commands. Non-blocking.
	Flush()

	// Finish blocks until every submitted command has completed.
	// There is no timeout.
	Finish()
}

// DebugAnnotator is implemented by drivers that can show event brackets
// and markers in GPU debuggers.
type DebugAnnotator interface {
	BeginDebugEvent(name string)
	EndDebugEvent()
	SetDebugMarker(name string)
}

// NativeResource is a native texture or buffer.
type NativeResource interface {
	NativeObject

	// Map gives CPU access to one subresource. Drivers return an error
	// wrapping ErrNotMappable when the kind or mode is unsupported.
	Map(subresource uint32, mode MapType) (MappedSubresource, error)

	// Unmap ends CPU access started by a successful Map.
	Unmap(subresource uint32)
}

// NativeSwapChain is a presentable native render target.
type NativeSwapChain interface {
	NativeObject
	Present(vsync bool) error
	Resize(width, height uint32) error
}

// NativeVertexArray is handed to Driver.NewVertexArray.
type NativeVertexArray struct {
	Layout      *VertexLayout
	Buffers     []NativeVertexBuffer
	IndexBuffer NativeResource
	IndexFormat gputypes.IndexFormat
}

// NativeVertexBuffer is one vertex-buffer binding of a vertex array.
type NativeVertexBuffer struct {
	Buffer NativeResource
	Stride uint32
	Offset uint32
}

// NativeAttachment is one framebuffer attachment as seen by a driver.
type NativeAttachment struct {
	Texture  NativeResource
	Desc     TextureDescriptor
	MipLevel uint32
	Layer    uint32
}

// DriverInfo describes an opened driver.
type DriverInfo struct {
	// Name is the registry name ("opengl", "d3d11", ...).
	Name string

	// Version is the native API version string reported by the device.
	Version string

	// Adapter identifies the GPU.
	Adapter gpucontext.AdapterInfo
}

// Caps describes device capabilities detected once when a driver opens.
type Caps struct {
	MaxTextureDimension   uint32
	MaxTextureArrayLayers uint32
	MaxTextureUnits       uint32
	MaxUniformBuffers     uint32
	MaxColorAttachments   uint32
	MaxVertexAttributes   uint32

	Texture2DArray bool
	Texture3D      bool
	TextureBuffer  bool
	IndexUint32    bool

	// InstancedDraw reports whether non-indexed draws can be instanced.
	InstancedDraw bool

	// InstancedIndexedDraw reports whether indexed draws can be instanced.
	InstancedIndexedDraw bool

	// BaseVertex reports whether indexed draws honor a base vertex.
	BaseVertex bool

	// AutoMipmaps reports whether the driver generates mip chains itself.
	AutoMipmaps bool

	// ShaderLanguage is the native source language ("glsl", "hlsl", "wgsl").
	ShaderLanguage string

	// WGSL reports whether shaders may be given as WGSL source.
	WGSL bool

	// DirectStateAccess, VertexArrayObjects and SamplerObjects report the
	// binding strategies an OpenGL driver selected at open.
	DirectStateAccess  bool
	VertexArrayObjects bool
	SamplerObjects     bool
}
