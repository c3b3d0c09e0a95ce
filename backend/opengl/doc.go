// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package opengl implements rhi.Driver on OpenGL 3.0+ and OpenGL ES 3.0+.
//
// The driver does not load GL itself. The caller makes a context current
// and hands its entry points in as a Functions value, optionally also
// implementing the extension interfaces (InstancingFunctions,
// DSAFunctions, SyncFunctions and so on). On Windows and Linux,
// ContextFunctions adapts a *gl.Context from github.com/gogpu/wgpu.
//
// Open inspects the context once and picks its strategies:
//
//   - objects are edited with direct state access on OpenGL 4.5, and by
//     binding them to a scratch target otherwise
//   - each rhi vertex array becomes a vertex array object, unless
//     Options.ForceNoVAO asks for attributes to be set at every bind
//   - sampler states become sampler objects where available, and texture
//     parameters applied at bind time otherwise
//
// WGSL shaders are translated to GLSL 4.20+ or GLSL ES 3.10+ with naga.
// Uniform buffer slot s of a stage binds to UniformBinding(stage, s) and
// texture unit u to TextureUnit(stage, u); native GLSL sources must use the
// same binding points.
//
// Importing the package registers the "opengl" and "opengles" drivers.
// Their DriverConfig.Bindings is an Options, *Options or Functions.
package opengl
