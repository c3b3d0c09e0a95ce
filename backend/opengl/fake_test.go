// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package opengl

import (
	"strings"

	"github.com/gogpu/wgpu/hal/gles/gl"
)

// call is one recorded GL call.
type call struct {
	name string
	args []any
}

// fakeGL records GL calls and keeps just enough object state for the
// driver to work: buffer contents, bindings and limits. It implements
// Functions and every optional interface.
type fakeGL struct {
	version    string
	renderer   string
	extensions []string
	ints       map[uint32]int32

	calls   []call
	next    uint32
	buffers map[uint32][]byte
	bound   map[uint32]uint32

	compileLog  string
	linkLog     string
	fbStatus    uint32
	errs        []uint32
	waitResults []uint32
	mapFails    bool
	unmapLost   bool
}

func newFakeGL(version string, extensions ...string) *fakeGL {
	return &fakeGL{
		version:    version,
		renderer:   "Fake Renderer",
		extensions: extensions,
		ints: map[uint32]int32{
			gl.MAX_TEXTURE_SIZE:                 8192,
			gl.MAX_TEXTURE_IMAGE_UNITS:          16,
			gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS: 48,
			gl.MAX_UNIFORM_BUFFER_BINDINGS:      36,
			gl.MAX_COLOR_ATTACHMENTS:            8,
			gl.MAX_DRAW_BUFFERS:                 8,
			gl.MAX_VERTEX_ATTRIBS:               16,
			glMaxArrayTextureLayers:             2048,
			glMaxAnisotropy:                     16,
		},
		buffers:  make(map[uint32][]byte),
		bound:    make(map[uint32]uint32),
		fbStatus: gl.FRAMEBUFFER_COMPLETE,
	}
}

func (g *fakeGL) record(name string, args ...any) {
	g.calls = append(g.calls, call{name: name, args: args})
}

// count returns how many times name was called.
func (g *fakeGL) count(name string) int {
	n := 0
	for _, c := range g.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

// last returns the arguments of the last call to name.
func (g *fakeGL) last(name string) []any {
	for i := len(g.calls) - 1; i >= 0; i-- {
		if g.calls[i].name == name {
			return g.calls[i].args
		}
	}
	return nil
}

func (g *fakeGL) reset() { g.calls = nil }

func (g *fakeGL) newName() uint32 {
	g.next++
	return g.next
}

func (g *fakeGL) GetError() uint32 {
	if len(g.errs) == 0 {
		return gl.NO_ERROR
	}
	e := g.errs[0]
	g.errs = g.errs[1:]
	return e
}

func (g *fakeGL) GetString(name uint32) string {
	switch name {
	case gl.VERSION:
		return g.version
	case gl.RENDERER:
		return g.renderer
	case gl.EXTENSIONS:
		return strings.Join(g.extensions, " ")
	}
	return ""
}

func (g *fakeGL) GetIntegerv(pname uint32, data *int32) { *data = g.ints[pname] }
func (g *fakeGL) Enable(c uint32)                      { g.record("Enable", c) }
func (g *fakeGL) Disable(c uint32)                     { g.record("Disable", c) }
func (g *fakeGL) Clear(mask uint32)                    { g.record("Clear", mask) }
func (g *fakeGL) ClearColor(r, gr, b, a float32)       { g.record("ClearColor", r, gr, b, a) }
func (g *fakeGL) Viewport(x, y, w, h int32)            { g.record("Viewport", x, y, w, h) }
func (g *fakeGL) Scissor(x, y, w, h int32)             { g.record("Scissor", x, y, w, h) }
func (g *fakeGL) DrawArrays(mode uint32, first, count int32) {
	g.record("DrawArrays", mode, first, count)
}
func (g *fakeGL) DrawElements(mode uint32, count int32, typ uint32, offset uintptr) {
	g.record("DrawElements", mode, count, typ, offset)
}
func (g *fakeGL) Flush()  { g.record("Flush") }
func (g *fakeGL) Finish() { g.record("Finish") }

func (g *fakeGL) CreateShader(typ uint32) uint32 {
	g.record("CreateShader", typ)
	return g.newName()
}
func (g *fakeGL) DeleteShader(s uint32)              { g.record("DeleteShader", s) }
func (g *fakeGL) ShaderSource(s uint32, src string)  { g.record("ShaderSource", s, src) }
func (g *fakeGL) CompileShader(s uint32)             { g.record("CompileShader", s) }
func (g *fakeGL) GetShaderInfoLog(uint32) string     { return g.compileLog }
func (g *fakeGL) GetProgramInfoLog(uint32) string    { return g.linkLog }
func (g *fakeGL) DeleteProgram(p uint32)             { g.record("DeleteProgram", p) }
func (g *fakeGL) AttachShader(p, s uint32)           { g.record("AttachShader", p, s) }
func (g *fakeGL) LinkProgram(p uint32)               { g.record("LinkProgram", p) }
func (g *fakeGL) UseProgram(p uint32)                { g.record("UseProgram", p) }
func (g *fakeGL) GetAttribLocation(uint32, string) int32 { return -1 }

func (g *fakeGL) GetShaderiv(_, pname uint32, params *int32) {
	*params = gl.TRUE
	if pname == gl.COMPILE_STATUS && g.compileLog != "" {
		*params = gl.FALSE
	}
}

func (g *fakeGL) CreateProgram() uint32 {
	g.record("CreateProgram")
	return g.newName()
}

func (g *fakeGL) GetProgramiv(_, pname uint32, params *int32) {
	*params = gl.TRUE
	if pname == gl.LINK_STATUS && g.linkLog != "" {
		*params = gl.FALSE
	}
}

func (g *fakeGL) GenBuffers(int32) uint32 {
	g.record("GenBuffers")
	return g.newName()
}

func (g *fakeGL) DeleteBuffers(bufs ...uint32) {
	g.record("DeleteBuffers", bufs[0])
	for _, b := range bufs {
		delete(g.buffers, b)
	}
}

func (g *fakeGL) BindBuffer(target, buf uint32) {
	g.record("BindBuffer", target, buf)
	g.bound[target] = buf
}

func (g *fakeGL) BufferData(target uint32, size int, data []byte, usage uint32) {
	g.record("BufferData", target, size, usage)
	g.storeBuffer(g.bound[target], size, data)
}

func (g *fakeGL) storeBuffer(name uint32, size int, data []byte) {
	buf := make([]byte, size)
	copy(buf, data)
	g.buffers[name] = buf
}

func (g *fakeGL) BufferSubData(target uint32, offset int, data []byte) {
	g.record("BufferSubData", target, offset)
	copy(g.buffers[g.bound[target]][offset:], data)
}

func (g *fakeGL) MapBuffer(target, access uint32, size int) []byte {
	g.record("MapBuffer", target, access)
	if g.mapFails {
		return nil
	}
	return g.buffers[g.bound[target]][:size]
}

func (g *fakeGL) UnmapBuffer(target uint32) bool {
	g.record("UnmapBuffer", target)
	return !g.unmapLost
}

func (g *fakeGL) BindBufferBase(target, index, buf uint32) {
	g.record("BindBufferBase", target, index, buf)
	g.bound[target] = buf
}

func (g *fakeGL) GenVertexArrays(int32) uint32 {
	g.record("GenVertexArrays")
	return g.newName()
}
func (g *fakeGL) DeleteVertexArrays(a ...uint32)      { g.record("DeleteVertexArrays", a[0]) }
func (g *fakeGL) BindVertexArray(a uint32)            { g.record("BindVertexArray", a) }
func (g *fakeGL) EnableVertexAttribArray(i uint32)    { g.record("EnableVertexAttribArray", i) }
func (g *fakeGL) DisableVertexAttribArray(i uint32)   { g.record("DisableVertexAttribArray", i) }
func (g *fakeGL) VertexAttribPointer(i uint32, size int32, typ uint32, norm bool, stride int32, off uintptr) {
	g.record("VertexAttribPointer", i, size, typ, norm, stride, off)
}

func (g *fakeGL) GenTextures(int32) uint32 {
	g.record("GenTextures")
	return g.newName()
}
func (g *fakeGL) DeleteTextures(t ...uint32)                { g.record("DeleteTextures", t[0]) }
func (g *fakeGL) BindTexture(target, tex uint32)            { g.record("BindTexture", target, tex) }
func (g *fakeGL) ActiveTexture(unit uint32)                 { g.record("ActiveTexture", unit) }
func (g *fakeGL) TexParameteri(target, pname uint32, p int32) { g.record("TexParameteri", target, pname, p) }
func (g *fakeGL) TexImage2D(target uint32, level, internal, w, h int32, format, typ uint32, data []byte) {
	g.record("TexImage2D", target, level, internal, w, h)
}
func (g *fakeGL) TexSubImage2D(target uint32, level, x, y, w, h int32, format, typ uint32, data []byte) {
	g.record("TexSubImage2D", target, level, w, h, len(data))
}
func (g *fakeGL) GenerateMipmap(target uint32)     { g.record("GenerateMipmap", target) }
func (g *fakeGL) PixelStorei(pname uint32, p int32) { g.record("PixelStorei", pname, p) }

func (g *fakeGL) GenSamplers(int32) uint32 {
	g.record("GenSamplers")
	return g.newName()
}
func (g *fakeGL) DeleteSamplers(s ...uint32)   { g.record("DeleteSamplers", s[0]) }
func (g *fakeGL) BindSampler(unit, s uint32)   { g.record("BindSampler", unit, s) }
func (g *fakeGL) SamplerParameteri(s, pname uint32, p int32) {
	g.record("SamplerParameteri", s, pname, p)
}
func (g *fakeGL) SamplerParameterf(s, pname uint32, p float32) {
	g.record("SamplerParameterf", s, pname, p)
}

func (g *fakeGL) GenFramebuffers(int32) uint32 {
	g.record("GenFramebuffers")
	return g.newName()
}
func (g *fakeGL) DeleteFramebuffers(f ...uint32) { g.record("DeleteFramebuffers", f[0]) }
func (g *fakeGL) BindFramebuffer(target, fb uint32) {
	g.record("BindFramebuffer", target, fb)
}
func (g *fakeGL) FramebufferTexture2D(target, attachment, texTarget, tex uint32, level int32) {
	g.record("FramebufferTexture2D", attachment, tex, level)
}
func (g *fakeGL) CheckFramebufferStatus(uint32) uint32 { return g.fbStatus }

func (g *fakeGL) BlendFuncSeparate(a, b, c, d uint32) { g.record("BlendFuncSeparate", a, b, c, d) }
func (g *fakeGL) BlendEquationSeparate(a, b uint32)   { g.record("BlendEquationSeparate", a, b) }
func (g *fakeGL) ColorMask(r, gr, b, a bool)          { g.record("ColorMask", r, gr, b, a) }
func (g *fakeGL) DepthFunc(fn uint32)                 { g.record("DepthFunc", fn) }
func (g *fakeGL) DepthMask(flag bool)                 { g.record("DepthMask", flag) }
func (g *fakeGL) StencilFuncSeparate(face, fn uint32, ref int32, mask uint32) {
	g.record("StencilFuncSeparate", face, fn, mask)
}
func (g *fakeGL) StencilOpSeparate(face, a, b, c uint32) { g.record("StencilOpSeparate", face, a, b, c) }
func (g *fakeGL) StencilMaskSeparate(face, mask uint32)  { g.record("StencilMaskSeparate", face, mask) }
func (g *fakeGL) CullFace(mode uint32)                   { g.record("CullFace", mode) }
func (g *fakeGL) FrontFace(mode uint32)                  { g.record("FrontFace", mode) }

// InstancingFunctions, AttribFunctions, BaseVertexFunctions.

func (g *fakeGL) DrawArraysInstanced(mode uint32, first, count, n int32) {
	g.record("DrawArraysInstanced", mode, first, count, n)
}
func (g *fakeGL) DrawElementsInstanced(mode uint32, count int32, typ uint32, off uintptr, n int32) {
	g.record("DrawElementsInstanced", mode, count, typ, off, n)
}
func (g *fakeGL) VertexAttribIPointer(i uint32, size int32, typ uint32, stride int32, off uintptr) {
	g.record("VertexAttribIPointer", i, size, typ, stride, off)
}
func (g *fakeGL) VertexAttribDivisor(i, div uint32) { g.record("VertexAttribDivisor", i, div) }
func (g *fakeGL) DrawElementsBaseVertex(mode uint32, count int32, typ uint32, off uintptr, base int32) {
	g.record("DrawElementsBaseVertex", mode, count, typ, off, base)
}
func (g *fakeGL) DrawElementsInstancedBaseVertex(mode uint32, count int32, typ uint32, off uintptr, n, base int32) {
	g.record("DrawElementsInstancedBaseVertex", mode, count, typ, off, n, base)
}

// SyncFunctions.

func (g *fakeGL) FenceSync(condition, flags uint32) uintptr {
	g.record("FenceSync")
	return 1
}

func (g *fakeGL) ClientWaitSync(sync uintptr, flags uint32, timeout uint64) uint32 {
	g.record("ClientWaitSync")
	if len(g.waitResults) == 0 {
		return gl.ALREADY_SIGNALED
	}
	r := g.waitResults[0]
	g.waitResults = g.waitResults[1:]
	return r
}

func (g *fakeGL) DeleteSync(uintptr) { g.record("DeleteSync") }

// Texture3DFunctions and CompressedTextureFunctions.

func (g *fakeGL) TexImage3D(target uint32, level, internal, w, h, depth int32, format, typ uint32, data []byte) {
	g.record("TexImage3D", target, level, w, h, depth)
}
func (g *fakeGL) TexSubImage3D(target uint32, level, x, y, z, w, h, depth int32, format, typ uint32, data []byte) {
	g.record("TexSubImage3D", target, level, z, depth, len(data))
}
func (g *fakeGL) FramebufferTextureLayer(target, attachment, tex uint32, level, layer int32) {
	g.record("FramebufferTextureLayer", attachment, tex, level, layer)
}
func (g *fakeGL) CompressedTexImage2D(target uint32, level int32, internal uint32, w, h, size int32, data []byte) {
	g.record("CompressedTexImage2D", target, level, internal, size)
}
func (g *fakeGL) CompressedTexImage3D(target uint32, level int32, internal uint32, w, h, depth, size int32, data []byte) {
	g.record("CompressedTexImage3D", target, level, internal, size)
}
func (g *fakeGL) CompressedTexSubImage2D(target uint32, level, x, y, w, h int32, format uint32, data []byte) {
	g.record("CompressedTexSubImage2D", target, level, len(data))
}
func (g *fakeGL) CompressedTexSubImage3D(target uint32, level, x, y, z, w, h, depth int32, format uint32, data []byte) {
	g.record("CompressedTexSubImage3D", target, level, z, len(data))
}

// DSAFunctions.

func (g *fakeGL) CreateBuffers() uint32 {
	g.record("CreateBuffers")
	return g.newName()
}
func (g *fakeGL) NamedBufferData(buf uint32, size int, data []byte, usage uint32) {
	g.record("NamedBufferData", buf, size, usage)
	g.storeBuffer(buf, size, data)
}
func (g *fakeGL) NamedBufferSubData(buf uint32, offset int, data []byte) {
	g.record("NamedBufferSubData", buf, offset)
	copy(g.buffers[buf][offset:], data)
}
func (g *fakeGL) MapNamedBuffer(buf, access uint32, size int) []byte {
	g.record("MapNamedBuffer", buf, access)
	if g.mapFails {
		return nil
	}
	return g.buffers[buf][:size]
}
func (g *fakeGL) UnmapNamedBuffer(buf uint32) bool {
	g.record("UnmapNamedBuffer", buf)
	return !g.unmapLost
}
func (g *fakeGL) CreateTextures(target uint32) uint32 {
	g.record("CreateTextures", target)
	return g.newName()
}
func (g *fakeGL) TextureStorage2D(tex uint32, levels int32, internal uint32, w, h int32) {
	g.record("TextureStorage2D", tex, levels, internal, w, h)
}
func (g *fakeGL) TextureStorage3D(tex uint32, levels int32, internal uint32, w, h, depth int32) {
	g.record("TextureStorage3D", tex, levels, internal, w, h, depth)
}
func (g *fakeGL) TextureSubImage2D(tex uint32, level, x, y, w, h int32, format, typ uint32, data []byte) {
	g.record("TextureSubImage2D", tex, level, w, h, len(data))
}
func (g *fakeGL) TextureSubImage3D(tex uint32, level, x, y, z, w, h, depth int32, format, typ uint32, data []byte) {
	g.record("TextureSubImage3D", tex, level, z, depth, len(data))
}
func (g *fakeGL) TextureParameteri(tex, pname uint32, p int32) {
	g.record("TextureParameteri", tex, pname, p)
}
func (g *fakeGL) GenerateTextureMipmap(tex uint32) { g.record("GenerateTextureMipmap", tex) }
func (g *fakeGL) CreateFramebuffers() uint32 {
	g.record("CreateFramebuffers")
	return g.newName()
}
func (g *fakeGL) NamedFramebufferTexture(fb, attachment, tex uint32, level int32) {
	g.record("NamedFramebufferTexture", fb, attachment, tex, level)
}
func (g *fakeGL) NamedFramebufferTextureLayer(fb, attachment, tex uint32, level, layer int32) {
	g.record("NamedFramebufferTextureLayer", fb, attachment, tex, level, layer)
}
func (g *fakeGL) NamedFramebufferDrawBuffers(fb uint32, bufs []uint32) {
	g.record("NamedFramebufferDrawBuffers", fb, len(bufs))
}
func (g *fakeGL) CheckNamedFramebufferStatus(fb, target uint32) uint32 { return g.fbStatus }
func (g *fakeGL) CreateVertexArrays() uint32 {
	g.record("CreateVertexArrays")
	return g.newName()
}
func (g *fakeGL) VertexArrayVertexBuffer(vao, binding, buf uint32, offset int, stride int32) {
	g.record("VertexArrayVertexBuffer", vao, binding, buf, offset, stride)
}
func (g *fakeGL) VertexArrayElementBuffer(vao, buf uint32) {
	g.record("VertexArrayElementBuffer", vao, buf)
}
func (g *fakeGL) EnableVertexArrayAttrib(vao, index uint32) {
	g.record("EnableVertexArrayAttrib", vao, index)
}
func (g *fakeGL) VertexArrayAttribFormat(vao, index uint32, size int32, typ uint32, norm bool, rel uint32) {
	g.record("VertexArrayAttribFormat", vao, index, size, typ, norm, rel)
}
func (g *fakeGL) VertexArrayAttribIFormat(vao, index uint32, size int32, typ uint32, rel uint32) {
	g.record("VertexArrayAttribIFormat", vao, index, size, typ, rel)
}
func (g *fakeGL) VertexArrayAttribBinding(vao, index, binding uint32) {
	g.record("VertexArrayAttribBinding", vao, index, binding)
}
func (g *fakeGL) VertexArrayBindingDivisor(vao, binding, div uint32) {
	g.record("VertexArrayBindingDivisor", vao, binding, div)
}

// DebugFunctions, DrawBuffersFunctions, TextureBufferFunctions.

func (g *fakeGL) PushDebugGroup(source, id uint32, msg string) { g.record("PushDebugGroup", msg) }
func (g *fakeGL) PopDebugGroup()                               { g.record("PopDebugGroup") }
func (g *fakeGL) DebugMessageInsert(source, typ, id, severity uint32, msg string) {
	g.record("DebugMessageInsert", msg)
}
func (g *fakeGL) ObjectLabel(identifier, name uint32, label string) {
	g.record("ObjectLabel", identifier, name, label)
}
func (g *fakeGL) DrawBuffers(bufs []uint32) { g.record("DrawBuffers", len(bufs)) }
func (g *fakeGL) TexBuffer(target, internal, buf uint32) {
	g.record("TexBuffer", target, internal, buf)
}

// RasterFunctions and ClipControlFunctions.

func (g *fakeGL) ClearDepthf(d float32)         { g.record("ClearDepthf", d) }
func (g *fakeGL) ClearStencil(s int32)          { g.record("ClearStencil", s) }
func (g *fakeGL) DepthRangef(n, f float32)      { g.record("DepthRangef", n, f) }
func (g *fakeGL) PolygonOffset(factor, u float32) { g.record("PolygonOffset", factor, u) }
func (g *fakeGL) PolygonMode(face, mode uint32) { g.record("PolygonMode", face, mode) }
func (g *fakeGL) ClipControl(origin, depth uint32) {
	g.record("ClipControl", origin, depth)
}

// coreOnly hides every optional interface of the wrapped functions.
type coreOnly struct {
	Functions
}
