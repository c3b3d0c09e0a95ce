// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native implements rhi.Driver on the wgpu hardware abstraction
// layer, reaching Vulkan, Metal, DirectX 12 and OpenGL ES through one
// WebGPU-shaped device.
//
// The driver either opens its own device on a registered hal backend or
// shares one: Options.Device and Options.Queue take a device opened by the
// caller, and NewFromProvider takes the device of a gogpu window. Backends
// register themselves on import:
//
//	import _ "github.com/gogpu/wgpu/hal/allbackends"
//
// # State
//
// WebGPU bakes shaders, vertex input, rasterizer, depth stencil and blend
// state into render pipelines. The driver keeps the piecewise state the
// rhi binds and builds the pipeline at draw time, caching it by a hash of
// the pieces. Uniform buffers are bind group 0 and textures with their
// samplers bind group 1, rebuilt when a binding changes.
//
// # Commands
//
// Draws record into a render pass opened on the bound target. Clears
// become the load operation of the next pass. Flush submits, and objects
// destroyed while the GPU may still use them are released once their
// submission completes.
//
// # Limitations
//
// Shaders are WGSL. Wireframe fill, sampler LOD bias and border colors,
// alpha to coverage, texture buffers and indirect buffers are not
// available; the renderer emulates indirect draws on the CPU. Mip chains
// are built by the renderer.
//
// Importing the package registers the "native" driver. Its
// DriverConfig.Bindings is an Options or *Options; nil Bindings uses
// DriverConfig.Provider when set.
package native
