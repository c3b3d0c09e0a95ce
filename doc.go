// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package rhi is a render hardware interface: one rendering API over
// Direct3D 9, Direct3D 11, OpenGL, OpenGL ES 3 and the WebGPU HAL.
//
// # Overview
//
// A [Renderer] wraps a [Driver] that talks to one native API. Clients create
// resources through the renderer's factories, bind them with its setters and
// issue draws:
//
//	r, err := rhi.Open(rhi.DriverNull, rhi.DriverConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	vb, _ := r.CreateVertexBuffer(36, vertices, rhi.BufferUsageStaticDraw)
//	va, _ := r.CreateVertexArray(rhi.VertexArrayDescriptor{
//	    Layout: rhi.VertexLayout{Attributes: []rhi.VertexAttribute{{
//	        Name: "position", Format: gputypes.VertexFormatFloat32x3, SemanticName: "POSITION",
//	    }}},
//	    Buffers: []rhi.VertexArrayBuffer{{Buffer: vb}},
//	})
//	r.SetVertexArray(va)
//	r.SetPrimitiveTopology(gputypes.PrimitiveTopologyTriangleList)
//	r.Draw(0, 3)
//
// # State caching
//
// The renderer remembers everything bound and forwards a setter to the
// driver only when the value changes. Setting a slot that has a default
// state (sampler, rasterizer, depth-stencil, blend) to nil binds the
// default. A [PipelineState] binds vertex layout, program, rasterizer,
// depth-stencil and blend state in that order.
//
// # Lifetime
//
// Every [Resource] is reference counted. Factories return a resource holding
// one reference owned by the caller. Composite resources (programs, vertex
// arrays, framebuffers, collections, pipeline states) and the renderer's
// bound slots hold their own references, so a resource lives as long as
// anything uses it. The native handle is destroyed exactly once, when the
// last reference is released.
//
// Resources belong to the renderer that created them. Handing one to
// another renderer is logged and ignored.
//
// # Errors
//
// Factories return an error and a nil resource on failure. Setters and
// draws never fail: invalid calls are logged through [Logger] and leave the
// bound state as it was.
//
// # Backends
//
// Backend packages register themselves with [Register] from init:
//
//   - backend/native: WebGPU HAL device (gogpu/wgpu)
//   - backend/d3d11: Direct3D 11 over injected device interfaces
//   - backend/opengl: OpenGL 3.3+ and OpenGL ES 3
//   - backend/d3d9: Direct3D 9 over an injected device interface
//   - backend/null: in-memory driver for tests and headless use
//
// The trace package wraps any driver and records the native calls it sees.
package rhi
