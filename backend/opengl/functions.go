// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package opengl

// Functions is the set of OpenGL entry points the driver needs from a
// current context. It covers OpenGL 3.0 and OpenGL ES 3.0. Entry points of
// later versions and extensions are optional: the driver detects them
// with type assertions against the extension interfaces below and selects
// its strategies from what it finds.
//
// Enumerations are passed as the raw GL values. Byte slices stand in for
// client memory pointers; a nil slice is a NULL pointer.
type Functions interface {
	GetError() uint32
	GetString(name uint32) string
	GetIntegerv(pname uint32, data *int32)
	Enable(capability uint32)
	Disable(capability uint32)
	Clear(mask uint32)
	ClearColor(r, g, b, a float32)
	Viewport(x, y, width, height int32)
	Scissor(x, y, width, height int32)
	DrawArrays(mode uint32, first, count int32)
	DrawElements(mode uint32, count int32, typ uint32, offset uintptr)
	Flush()
	Finish()

	CreateShader(typ uint32) uint32
	DeleteShader(shader uint32)
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	GetShaderiv(shader, pname uint32, params *int32)
	GetShaderInfoLog(shader uint32) string
	CreateProgram() uint32
	DeleteProgram(program uint32)
	AttachShader(program, shader uint32)
	LinkProgram(program uint32)
	UseProgram(program uint32)
	GetProgramiv(program, pname uint32, params *int32)
	GetProgramInfoLog(program uint32) string
	GetAttribLocation(program uint32, name string) int32

	GenBuffers(n int32) uint32
	DeleteBuffers(buffers ...uint32)
	BindBuffer(target, buffer uint32)
	BufferData(target uint32, size int, data []byte, usage uint32)
	BufferSubData(target uint32, offset int, data []byte)
	MapBuffer(target, access uint32, size int) []byte
	UnmapBuffer(target uint32) bool
	BindBufferBase(target, index, buffer uint32)

	GenVertexArrays(n int32) uint32
	DeleteVertexArrays(arrays ...uint32)
	BindVertexArray(array uint32)
	EnableVertexAttribArray(index uint32)
	DisableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride int32, offset uintptr)

	GenTextures(n int32) uint32
	DeleteTextures(textures ...uint32)
	BindTexture(target, texture uint32)
	ActiveTexture(unit uint32)
	TexParameteri(target, pname uint32, param int32)
	TexImage2D(target uint32, level, internalFormat, width, height int32, format, typ uint32, data []byte)
	TexSubImage2D(target uint32, level, x, y, width, height int32, format, typ uint32, data []byte)
	GenerateMipmap(target uint32)
	PixelStorei(pname uint32, param int32)

	GenSamplers(n int32) uint32
	DeleteSamplers(samplers ...uint32)
	BindSampler(unit, sampler uint32)
	SamplerParameteri(sampler, pname uint32, param int32)
	SamplerParameterf(sampler, pname uint32, param float32)

	GenFramebuffers(n int32) uint32
	DeleteFramebuffers(framebuffers ...uint32)
	BindFramebuffer(target, framebuffer uint32)
	FramebufferTexture2D(target, attachment, texTarget, texture uint32, level int32)
	CheckFramebufferStatus(target uint32) uint32

	BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha uint32)
	BlendEquationSeparate(modeRGB, modeAlpha uint32)
	ColorMask(r, g, b, a bool)
	DepthFunc(fn uint32)
	DepthMask(flag bool)
	StencilFuncSeparate(face, fn uint32, ref int32, mask uint32)
	StencilOpSeparate(face, sfail, dpfail, dppass uint32)
	StencilMaskSeparate(face, mask uint32)
	CullFace(mode uint32)
	FrontFace(mode uint32)
}

// InstancingFunctions draws several instances per call.
// OpenGL 3.1, OpenGL ES 3.0.
type InstancingFunctions interface {
	DrawArraysInstanced(mode uint32, first, count, instances int32)
	DrawElementsInstanced(mode uint32, count int32, typ uint32, offset uintptr, instances int32)
}

// AttribFunctions declares integer and per-instance vertex attributes.
// OpenGL 3.3, OpenGL ES 3.0.
type AttribFunctions interface {
	VertexAttribIPointer(index uint32, size int32, typ uint32, stride int32, offset uintptr)
	VertexAttribDivisor(index, divisor uint32)
}

// BaseVertexFunctions offsets the vertex index of indexed draws.
// OpenGL 3.2, OpenGL ES 3.2.
type BaseVertexFunctions interface {
	DrawElementsBaseVertex(mode uint32, count int32, typ uint32, offset uintptr, baseVertex int32)
	DrawElementsInstancedBaseVertex(mode uint32, count int32, typ uint32, offset uintptr, instances, baseVertex int32)
}

// SyncFunctions waits for the GPU with fence objects.
// OpenGL 3.2, OpenGL ES 3.0.
type SyncFunctions interface {
	FenceSync(condition, flags uint32) uintptr
	ClientWaitSync(sync uintptr, flags uint32, timeout uint64) uint32
	DeleteSync(sync uintptr)
}

// Texture3DFunctions creates 3D and 2D array textures and attaches their
// layers to framebuffers. OpenGL 3.0, OpenGL ES 3.0.
type Texture3DFunctions interface {
	TexImage3D(target uint32, level, internalFormat, width, height, depth int32, format, typ uint32, data []byte)
	TexSubImage3D(target uint32, level, x, y, z, width, height, depth int32, format, typ uint32, data []byte)
	FramebufferTextureLayer(target, attachment, texture uint32, level, layer int32)
}

// CompressedTextureFunctions uploads block-compressed texture data.
type CompressedTextureFunctions interface {
	CompressedTexImage2D(target uint32, level int32, internalFormat uint32, width, height, size int32, data []byte)
	CompressedTexImage3D(target uint32, level int32, internalFormat uint32, width, height, depth, size int32, data []byte)
	CompressedTexSubImage2D(target uint32, level, x, y, width, height int32, format uint32, data []byte)
	CompressedTexSubImage3D(target uint32, level, x, y, z, width, height, depth int32, format uint32, data []byte)
}

// DSAFunctions edits objects by name without binding them.
// OpenGL 4.5 or ARB_direct_state_access.
type DSAFunctions interface {
	CreateBuffers() uint32
	NamedBufferData(buffer uint32, size int, data []byte, usage uint32)
	NamedBufferSubData(buffer uint32, offset int, data []byte)
	MapNamedBuffer(buffer, access uint32, size int) []byte
	UnmapNamedBuffer(buffer uint32) bool

	CreateTextures(target uint32) uint32
	TextureStorage2D(texture uint32, levels int32, internalFormat uint32, width, height int32)
	TextureStorage3D(texture uint32, levels int32, internalFormat uint32, width, height, depth int32)
	TextureSubImage2D(texture uint32, level, x, y, width, height int32, format, typ uint32, data []byte)
	TextureSubImage3D(texture uint32, level, x, y, z, width, height, depth int32, format, typ uint32, data []byte)
	TextureParameteri(texture, pname uint32, param int32)
	GenerateTextureMipmap(texture uint32)

	CreateFramebuffers() uint32
	NamedFramebufferTexture(framebuffer, attachment, texture uint32, level int32)
	NamedFramebufferTextureLayer(framebuffer, attachment, texture uint32, level, layer int32)
	NamedFramebufferDrawBuffers(framebuffer uint32, buffers []uint32)
	CheckNamedFramebufferStatus(framebuffer, target uint32) uint32

	CreateVertexArrays() uint32
	VertexArrayVertexBuffer(vao, binding, buffer uint32, offset int, stride int32)
	VertexArrayElementBuffer(vao, buffer uint32)
	EnableVertexArrayAttrib(vao, index uint32)
	VertexArrayAttribFormat(vao, index uint32, size int32, typ uint32, normalized bool, relativeOffset uint32)
	VertexArrayAttribIFormat(vao, index uint32, size int32, typ uint32, relativeOffset uint32)
	VertexArrayAttribBinding(vao, index, binding uint32)
	VertexArrayBindingDivisor(vao, binding, divisor uint32)
}

// DebugFunctions annotates GPU debugger captures.
// OpenGL 4.3, OpenGL ES 3.2 or KHR_debug.
type DebugFunctions interface {
	PushDebugGroup(source, id uint32, message string)
	PopDebugGroup()
	DebugMessageInsert(source, typ, id, severity uint32, message string)
	ObjectLabel(identifier, name uint32, label string)
}

// DrawBuffersFunctions routes fragment outputs to several color attachments.
type DrawBuffersFunctions interface {
	DrawBuffers(buffers []uint32)
}

// TextureBufferFunctions exposes a buffer object as a texture.
// OpenGL 3.1, OpenGL ES 3.2.
type TextureBufferFunctions interface {
	TexBuffer(target, internalFormat, buffer uint32)
}

// RasterFunctions covers rasterizer and clear state missing from the
// OpenGL 3.0 core set on some bindings.
type RasterFunctions interface {
	ClearDepthf(depth float32)
	ClearStencil(s int32)
	DepthRangef(near, far float32)
	PolygonOffset(factor, units float32)
	PolygonMode(face, mode uint32)
}

// ClipControlFunctions selects the clip-space depth range.
// OpenGL 4.5 or ARB_clip_control.
type ClipControlFunctions interface {
	ClipControl(origin, depth uint32)
}

// ExtensionFunctions enumerates extensions on core profiles, where
// GetString(EXTENSIONS) is an error.
type ExtensionFunctions interface {
	GetStringi(name, index uint32) string
}
