// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package d3d11 implements rhi.Driver on Direct3D 11, feature levels 9_1
// to 11_1.
//
// The driver does not create the device. The caller hands in a Device and
// its immediate Context, interfaces mirroring ID3D11Device and
// ID3D11DeviceContext, so any binding layer can sit underneath. Swap
// chains need the Device to also implement SwapChainDevice.
//
// Capabilities follow the feature level. Level 9 devices have no texture
// arrays or texture buffers, fewer render targets and no independent
// blending; instancing starts at 9_3.
//
// Equal sampler, rasterizer, depth stencil and blend descriptors share one
// native state object, reference counted across the handles.
//
// Shaders are bytecode, HLSL or WGSL. HLSL and WGSL need a Compiler; on
// Windows SystemCompiler loads d3dcompiler_47.dll. WGSL is translated with
// naga on feature level 11_0 and above. Uniform buffer slot s binds to
// register bs, texture unit u to tu and its sampler to su, in both stages.
//
// Importing the package registers the "d3d11" driver. Its
// DriverConfig.Bindings is an Options or *Options; without a Compiler the
// system compiler is tried.
package d3d11
