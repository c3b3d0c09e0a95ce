// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package opengl

import (
	"github.com/gogpu/wgpu/hal/gles/gl"
)

const (
	maxTextureUnits  = 32
	maxUniformSlots  = 28
	maxVertexAttribs = 16
)

// textureTargets are the texture binding points tracked per unit.
var textureTargets = [...]uint32{gl.TEXTURE_2D, gl.TEXTURE_2D_ARRAY, gl.TEXTURE_3D, gl.TEXTURE_CUBE_MAP, glTextureBuffer}

func targetIndex(target uint32) int {
	for i, t := range textureTargets {
		if t == target {
			return i
		}
	}
	panic("opengl: unknown texture target")
}

type vertexAttrib struct {
	buf        uint32
	enabled    bool
	size       int32
	typ        uint32
	normalized bool
	integer    bool
	stride     int32
	offset     uintptr
	divisor    uint32
}

type stencilFace struct {
	fn                    uint32
	mask                  uint32
	sfail, dpfail, dppass uint32
}

// glState tracks the context state the driver last set, so that redundant
// GL calls are skipped. It assumes the driver is the only user of the
// context between Open and Close.
type glState struct {
	prog      uint32
	vertArray uint32
	fbo       uint32
	buffers   map[uint32]uint32
	uniBufs   [maxUniformSlots]uint32
	texUnits  struct {
		active uint32
		binds  [maxTextureUnits][len(textureTargets)]uint32
	}
	samplers    [maxTextureUnits]uint32
	vertAttribs [maxVertexAttribs]vertexAttrib
	enabled     map[uint32]bool

	viewport     [4]int32
	scissor      [4]int32
	depthRange   [2]float32
	clearColor   [4]float32
	clearDepth   float32
	clearStencil int32
	colorMask    [4]bool
	depthMask    bool
	depthFunc    uint32
	stencil      [2]stencilFace
	stencilWrite uint32
	blend        struct {
		srcRGB, dstRGB uint32
		srcA, dstA     uint32
		eqRGB, eqA     uint32
	}
	cullFace      uint32
	frontFace     uint32
	polygonMode   uint32
	polygonOffset [2]float32
}

// newGLState returns the state of a fresh context.
func newGLState() glState {
	s := glState{
		buffers:      make(map[uint32]uint32),
		enabled:      map[uint32]bool{gl.DITHER: true, glMultisample: true},
		depthRange:   [2]float32{0, 1},
		clearDepth:   1,
		colorMask:    [4]bool{true, true, true, true},
		depthMask:    true,
		depthFunc:    gl.LESS,
		stencilWrite: 0xFFFFFFFF,
		cullFace:     gl.BACK,
		frontFace:    gl.CCW,
		polygonMode:  glFill,
	}
	s.texUnits.active = gl.TEXTURE0
	for i := range s.stencil {
		s.stencil[i] = stencilFace{fn: gl.ALWAYS, mask: 0xFFFFFFFF, sfail: gl.KEEP, dpfail: gl.KEEP, dppass: gl.KEEP}
	}
	s.blend.srcRGB, s.blend.srcA = gl.ONE, gl.ONE
	s.blend.dstRGB, s.blend.dstA = gl.ZERO, gl.ZERO
	s.blend.eqRGB, s.blend.eqA = gl.FUNC_ADD, gl.FUNC_ADD
	return s
}

func (s *glState) useProgram(f Functions, p uint32) {
	if p != s.prog {
		f.UseProgram(p)
		s.prog = p
	}
}

func (s *glState) bindVertexArray(f Functions, a uint32) {
	if a != s.vertArray {
		f.BindVertexArray(a)
		s.vertArray = a
		// The element array binding belongs to the vertex array.
		delete(s.buffers, gl.ELEMENT_ARRAY_BUFFER)
	}
}

func (s *glState) bindFramebuffer(f Functions, fbo uint32) {
	if fbo != s.fbo {
		f.BindFramebuffer(gl.FRAMEBUFFER, fbo)
		s.fbo = fbo
	}
}

func (s *glState) bindBuffer(f Functions, target, buf uint32) {
	if cur, ok := s.buffers[target]; ok && cur == buf {
		return
	}
	f.BindBuffer(target, buf)
	s.buffers[target] = buf
}

func (s *glState) bindBufferBase(f Functions, idx int, buf uint32) {
	if buf == s.uniBufs[idx] {
		return
	}
	f.BindBufferBase(gl.UNIFORM_BUFFER, uint32(idx), buf)
	s.uniBufs[idx] = buf
	// BindBufferBase also replaces the generic binding.
	s.buffers[gl.UNIFORM_BUFFER] = buf
}

func (s *glState) activeTexture(f Functions, unit uint32) {
	if unit != s.texUnits.active {
		f.ActiveTexture(unit)
		s.texUnits.active = unit
	}
}

func (s *glState) bindTexture(f Functions, unit int, target, tex uint32) {
	s.activeTexture(f, gl.TEXTURE0+uint32(unit))
	slot := &s.texUnits.binds[unit][targetIndex(target)]
	if tex != *slot {
		f.BindTexture(target, tex)
		*slot = tex
	}
}

// boundTexture returns the texture bound to target on the active unit.
func (s *glState) boundTexture(target uint32) (unit int, tex uint32) {
	unit = int(s.texUnits.active - gl.TEXTURE0)
	return unit, s.texUnits.binds[unit][targetIndex(target)]
}

func (s *glState) bindSampler(f Functions, unit int, sampler uint32) {
	if sampler != s.samplers[unit] {
		f.BindSampler(uint32(unit), sampler)
		s.samplers[unit] = sampler
	}
}

// setVertexAttrib enables and points attribute idx, or disables it when a
// is nil. Only used when vertex array objects are emulated.
func (s *glState) setVertexAttrib(f Functions, af AttribFunctions, idx int, a *vertexAttrib) {
	cur := &s.vertAttribs[idx]
	if a == nil {
		if cur.enabled {
			f.DisableVertexAttribArray(uint32(idx))
			cur.enabled = false
		}
		return
	}
	if !cur.enabled {
		f.EnableVertexAttribArray(uint32(idx))
	}
	want := *a
	want.enabled = true
	if want == *cur {
		return
	}
	s.bindBuffer(f, gl.ARRAY_BUFFER, a.buf)
	if a.integer && af != nil {
		af.VertexAttribIPointer(uint32(idx), a.size, a.typ, a.stride, a.offset)
	} else {
		f.VertexAttribPointer(uint32(idx), a.size, a.typ, a.normalized, a.stride, a.offset)
	}
	if af != nil && a.divisor != cur.divisor {
		af.VertexAttribDivisor(uint32(idx), a.divisor)
	}
	*cur = want
}

func (s *glState) set(f Functions, capability uint32, enable bool) {
	if cur, ok := s.enabled[capability]; ok && cur == enable {
		return
	}
	if enable {
		f.Enable(capability)
	} else {
		f.Disable(capability)
	}
	s.enabled[capability] = enable
}

func (s *glState) setViewport(f Functions, x, y, width, height int32) {
	view := [4]int32{x, y, width, height}
	if view != s.viewport {
		f.Viewport(x, y, width, height)
		s.viewport = view
	}
}

func (s *glState) setScissor(f Functions, x, y, width, height int32) {
	rect := [4]int32{x, y, width, height}
	if rect != s.scissor {
		f.Scissor(x, y, width, height)
		s.scissor = rect
	}
}

func (s *glState) setDepthRange(rf RasterFunctions, near, far float32) {
	r := [2]float32{near, far}
	if r != s.depthRange {
		rf.DepthRangef(near, far)
		s.depthRange = r
	}
}

func (s *glState) setClearColor(f Functions, r, g, b, a float32) {
	col := [4]float32{r, g, b, a}
	if col != s.clearColor {
		f.ClearColor(r, g, b, a)
		s.clearColor = col
	}
}

func (s *glState) setClearDepth(rf RasterFunctions, d float32) {
	if d != s.clearDepth {
		rf.ClearDepthf(d)
		s.clearDepth = d
	}
}

func (s *glState) setClearStencil(rf RasterFunctions, v int32) {
	if v != s.clearStencil {
		rf.ClearStencil(v)
		s.clearStencil = v
	}
}

func (s *glState) setColorMask(f Functions, mask [4]bool) {
	if mask != s.colorMask {
		f.ColorMask(mask[0], mask[1], mask[2], mask[3])
		s.colorMask = mask
	}
}

func (s *glState) setDepthMask(f Functions, enable bool) {
	if enable != s.depthMask {
		f.DepthMask(enable)
		s.depthMask = enable
	}
}

func (s *glState) setDepthFunc(f Functions, df uint32) {
	if df != s.depthFunc {
		f.DepthFunc(df)
		s.depthFunc = df
	}
}

func (s *glState) setStencilWriteMask(f Functions, mask uint32) {
	if mask != s.stencilWrite {
		f.StencilMaskSeparate(gl.FRONT_AND_BACK, mask)
		s.stencilWrite = mask
	}
}

// setStencil sets the test of face 0 (front) or 1 (back).
func (s *glState) setStencil(f Functions, face int, want stencilFace) {
	cur := &s.stencil[face]
	glFace := uint32(gl.FRONT)
	if face == 1 {
		glFace = gl.BACK
	}
	if want.fn != cur.fn || want.mask != cur.mask {
		f.StencilFuncSeparate(glFace, want.fn, 0, want.mask)
	}
	if want.sfail != cur.sfail || want.dpfail != cur.dpfail || want.dppass != cur.dppass {
		f.StencilOpSeparate(glFace, want.sfail, want.dpfail, want.dppass)
	}
	*cur = want
}

func (s *glState) setBlendFuncSeparate(f Functions, srcRGB, dstRGB, srcA, dstA uint32) {
	if srcRGB != s.blend.srcRGB || dstRGB != s.blend.dstRGB || srcA != s.blend.srcA || dstA != s.blend.dstA {
		s.blend.srcRGB = srcRGB
		s.blend.dstRGB = dstRGB
		s.blend.srcA = srcA
		s.blend.dstA = dstA
		f.BlendFuncSeparate(srcRGB, dstRGB, srcA, dstA)
	}
}

func (s *glState) setBlendEquationSeparate(f Functions, eqRGB, eqA uint32) {
	if eqRGB != s.blend.eqRGB || eqA != s.blend.eqA {
		s.blend.eqRGB = eqRGB
		s.blend.eqA = eqA
		f.BlendEquationSeparate(eqRGB, eqA)
	}
}

func (s *glState) setCullFace(f Functions, face uint32) {
	if face != s.cullFace {
		f.CullFace(face)
		s.cullFace = face
	}
}

func (s *glState) setFrontFace(f Functions, face uint32) {
	if face != s.frontFace {
		f.FrontFace(face)
		s.frontFace = face
	}
}

func (s *glState) setPolygonMode(rf RasterFunctions, mode uint32) {
	if mode != s.polygonMode {
		rf.PolygonMode(gl.FRONT_AND_BACK, mode)
		s.polygonMode = mode
	}
}

func (s *glState) setPolygonOffset(rf RasterFunctions, factor, units float32) {
	off := [2]float32{factor, units}
	if off != s.polygonOffset {
		rf.PolygonOffset(factor, units)
		s.polygonOffset = off
	}
}

func (s *glState) deleteBuffer(f Functions, b uint32) {
	f.DeleteBuffers(b)
	for target, cur := range s.buffers {
		if cur == b {
			delete(s.buffers, target)
		}
	}
	for i, cur := range s.uniBufs {
		if cur == b {
			s.uniBufs[i] = 0
		}
	}
	for i := range s.vertAttribs {
		if s.vertAttribs[i].buf == b {
			s.vertAttribs[i] = vertexAttrib{enabled: s.vertAttribs[i].enabled}
		}
	}
}

func (s *glState) deleteTexture(f Functions, t uint32) {
	f.DeleteTextures(t)
	for u := range s.texUnits.binds {
		for i, cur := range s.texUnits.binds[u] {
			if cur == t {
				s.texUnits.binds[u][i] = 0
			}
		}
	}
}

func (s *glState) deleteSampler(f Functions, sampler uint32) {
	f.DeleteSamplers(sampler)
	for i, cur := range s.samplers {
		if cur == sampler {
			s.samplers[i] = 0
		}
	}
}

func (s *glState) deleteProgram(f Functions, p uint32) {
	f.DeleteProgram(p)
	if p == s.prog {
		s.prog = 0
	}
}

func (s *glState) deleteVertexArray(f Functions, a uint32) {
	f.DeleteVertexArrays(a)
	if a == s.vertArray {
		s.vertArray = 0
		delete(s.buffers, gl.ELEMENT_ARRAY_BUFFER)
	}
}

func (s *glState) deleteFramebuffer(f Functions, fbo uint32) {
	f.DeleteFramebuffers(fbo)
	if fbo == s.fbo {
		s.fbo = 0
	}
}
