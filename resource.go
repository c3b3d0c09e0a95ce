// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"sync/atomic"
)

// ResourceType tags every resource kind a Renderer can create.
type ResourceType uint8

// Resource types.
const (
	ResourceTypeProgram ResourceType = iota
	ResourceTypeVertexArray
	ResourceTypeSwapChain
	ResourceTypeFramebuffer
	ResourceTypeVertexBuffer
	ResourceTypeIndexBuffer
	ResourceTypeUniformBuffer
	ResourceTypeIndirectBuffer
	ResourceTypeTexture2D
	ResourceTypeTexture2DArray
	ResourceTypeTexture3D
	ResourceTypeTextureCube
	ResourceTypeTextureBuffer
	ResourceTypeTextureCollection
	ResourceTypeSamplerState
	ResourceTypeSamplerStateCollection
	ResourceTypeRasterizerState
	ResourceTypeDepthStencilState
	ResourceTypeBlendState
	ResourceTypePipelineState
	ResourceTypeVertexShader
	ResourceTypeFragmentShader

	resourceTypeCount
)

var resourceTypeNames = [resourceTypeCount]string{
	ResourceTypeProgram:                "Program",
	ResourceTypeVertexArray:            "VertexArray",
	ResourceTypeSwapChain:              "SwapChain",
	ResourceTypeFramebuffer:            "Framebuffer",
	ResourceTypeVertexBuffer:           "VertexBuffer",
	ResourceTypeIndexBuffer:            "IndexBuffer",
	ResourceTypeUniformBuffer:          "UniformBuffer",
	ResourceTypeIndirectBuffer:         "IndirectBuffer",
	ResourceTypeTexture2D:              "Texture2D",
	ResourceTypeTexture2DArray:         "Texture2DArray",
	ResourceTypeTexture3D:              "Texture3D",
	ResourceTypeTextureCube:            "TextureCube",
	ResourceTypeTextureBuffer:          "TextureBuffer",
	ResourceTypeTextureCollection:      "TextureCollection",
	ResourceTypeSamplerState:           "SamplerState",
	ResourceTypeSamplerStateCollection: "SamplerStateCollection",
	ResourceTypeRasterizerState:        "RasterizerState",
	ResourceTypeDepthStencilState:      "DepthStencilState",
	ResourceTypeBlendState:             "BlendState",
	ResourceTypePipelineState:          "PipelineState",
	ResourceTypeVertexShader:           "VertexShader",
	ResourceTypeFragmentShader:         "FragmentShader",
}

// String returns the resource type name.
func (t ResourceType) String() string {
	if t < resourceTypeCount {
		return resourceTypeNames[t]
	}
	return "Unknown"
}

// IsTexture reports whether t is one of the texture kinds.
func (t ResourceType) IsTexture() bool {
	return t >= ResourceTypeTexture2D && t <= ResourceTypeTextureBuffer
}

// IsBuffer reports whether t is one of the buffer kinds.
func (t ResourceType) IsBuffer() bool {
	return t >= ResourceTypeVertexBuffer && t <= ResourceTypeIndirectBuffer
}

// Resource is implemented by every object a Renderer creates.
//
// Resources are reference counted. A factory returns a resource holding one
// reference that belongs to the caller; the Renderer and composite resources
// add their own references while they use it. The native handle is destroyed
// when the count reaches zero.
type Resource interface {
	// Type returns the resource kind.
	Type() ResourceType

	// Renderer returns the renderer that created the resource.
	Renderer() *Renderer

	// AddReference adds a reference and returns the new count.
	AddReference() int32

	// Release drops a reference and returns the new count.
	// The resource is destroyed when the count reaches zero.
	Release() int32

	// RefCount returns the current reference count.
	RefCount() int32

	// SetDebugName attaches a name for GPU debuggers. Best effort.
	SetDebugName(name string)

	// DebugName returns the name set with SetDebugName.
	DebugName() string
}

// NativeObject is a driver handle owned by exactly one resource.
type NativeObject interface {
	// Destroy releases the native handle. Called exactly once.
	Destroy()
}

// DebugNamer is implemented by native objects that accept a debug label.
type DebugNamer interface {
	SetDebugName(name string)
}

// resource implements the Resource bookkeeping shared by every kind.
type resource struct {
	typ      ResourceType
	owner    *Renderer
	native   NativeObject
	refs     atomic.Int32
	released atomic.Bool
	name     string
	destroy  func()
}

// init sets up the bookkeeping with one reference held by the caller.
// destroy runs once, after the native handle, when the last reference
// is released.
func (r *resource) init(owner *Renderer, typ ResourceType, native NativeObject, destroy func()) {
	r.owner = owner
	r.typ = typ
	r.native = native
	r.destroy = destroy
	r.refs.Store(1)
	owner.stats.live[typ].Add(1)
}

func (r *resource) Type() ResourceType { return r.typ }

func (r *resource) Renderer() *Renderer { return r.owner }

func (r *resource) RefCount() int32 { return r.refs.Load() }

func (r *resource) DebugName() string { return r.name }

func (r *resource) AddReference() int32 {
	if r.released.Load() {
		Logger().Warn("rhi: AddReference on destroyed resource", "type", r.typ, "name", r.name)
		return 0
	}
	return r.refs.Add(1)
}

func (r *resource) Release() int32 {
	n := r.refs.Add(-1)
	switch {
	case n == 0:
		if r.released.CompareAndSwap(false, true) {
			if r.native != nil {
				r.native.Destroy()
				r.native = nil
			}
			if r.destroy != nil {
				r.destroy()
			}
			r.owner.stats.live[r.typ].Add(-1)
		}
	case n < 0:
		r.refs.Store(0)
		Logger().Warn("rhi: Release on destroyed resource", "type", r.typ, "name", r.name)
		return 0
	}
	return n
}

func (r *resource) SetDebugName(name string) {
	r.name = name
	if dn, ok := r.native.(DebugNamer); ok {
		dn.SetDebugName(name)
	}
}
