// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package d3d9 implements rhi.Driver on Direct3D 9 devices running shader
// model 2.0 or 3.0.
//
// The driver does not create the device. The caller hands in a Device, an
// interface mirroring IDirect3DDevice9, so any binding layer can sit
// underneath. Swap chains need the Device to also implement
// SwapChainDevice.
//
// Direct3D 9 has no state objects: rasterizer, depth stencil, blend and
// sampler states are recorded as render and sampler state values and set
// on bind, skipping values the device already holds. Uniform buffers live
// in CPU memory and are uploaded to float constants; slot s starts at
// register c[32*s]. Texture unit u binds to sampler s[u], or to the
// vertex texture sampler u in the vertex stage.
//
// There are no texture arrays, texture buffers, mipmap generation or
// non-indexed instancing. Indexed draws are instanced through stream
// frequencies on shader model 3.0. Shaders are bytecode or HLSL compiled
// for vs_3_0 and ps_3_0, or the 2.0 profiles on older devices.
//
// Draws and clears open a scene; Flush, Finish and Present end it.
//
// Importing the package registers the "d3d9" driver. Its
// DriverConfig.Bindings is an Options or *Options; without a Compiler the
// system compiler is tried.
package d3d9
