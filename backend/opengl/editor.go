// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package opengl

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/gles/gl"

	"github.com/gogpu/rhi"
)

// editor creates and updates GL objects. bindEditor binds objects to edit
// them; dsaEditor edits them by name. Editors restore every binding the
// rhi.Renderer diffs against, so edits never disturb bound state.
type editor interface {
	createBuffer(b *buffer, data []byte)
	bufferData(b *buffer, data []byte)
	bufferSubData(b *buffer, offset int, data []byte)
	mapBuffer(b *buffer, access uint32) []byte
	unmapBuffer(b *buffer) bool

	createTexture(t *texture)
	textureSubImage(t *texture, sub rhi.SubresourceData)
	generateMipmap(t *texture)
	attachTextureBuffer(t *texture)

	createFramebuffer(fb *framebuffer) error
	createVertexArray(va *vertexArray, desc *rhi.NativeVertexArray)
}

// bindEditor edits objects the OpenGL 3.0 way, through binding points.
// Buffers are edited on the copy-write target, which no draw state uses.
type bindEditor struct {
	d *Driver
}

func (e *bindEditor) createBuffer(b *buffer, data []byte) {
	b.name = e.d.f.GenBuffers(1)
	e.bufferData(b, data)
}

func (e *bindEditor) bufferData(b *buffer, data []byte) {
	e.d.state.bindBuffer(e.d.f, gl.COPY_WRITE_BUFFER, b.name)
	e.d.f.BufferData(gl.COPY_WRITE_BUFFER, b.size, data, b.usage)
}

func (e *bindEditor) bufferSubData(b *buffer, offset int, data []byte) {
	e.d.state.bindBuffer(e.d.f, gl.COPY_WRITE_BUFFER, b.name)
	e.d.f.BufferSubData(gl.COPY_WRITE_BUFFER, offset, data)
}

func (e *bindEditor) mapBuffer(b *buffer, access uint32) []byte {
	e.d.state.bindBuffer(e.d.f, gl.COPY_WRITE_BUFFER, b.name)
	return e.d.f.MapBuffer(gl.COPY_WRITE_BUFFER, access, b.size)
}

func (e *bindEditor) unmapBuffer(b *buffer) bool {
	e.d.state.bindBuffer(e.d.f, gl.COPY_WRITE_BUFFER, b.name)
	return e.d.f.UnmapBuffer(gl.COPY_WRITE_BUFFER)
}

// withTexture binds t on the active unit for the duration of fn and then
// restores the previous binding.
func (e *bindEditor) withTexture(t *texture, fn func()) {
	s, f := &e.d.state, e.d.f
	unit, prev := s.boundTexture(t.target)
	s.bindTexture(f, unit, t.target, t.name)
	fn()
	s.bindTexture(f, unit, t.target, prev)
}

func (e *bindEditor) createTexture(t *texture) {
	f := e.d.f
	t.name = f.GenTextures(1)
	if t.desc.Kind == rhi.ResourceTypeTextureBuffer {
		return
	}
	e.withTexture(t, func() {
		levels := int32(t.desc.MipLevelCount)
		f.TexParameteri(t.target, gl.TEXTURE_BASE_LEVEL, 0)
		f.TexParameteri(t.target, gl.TEXTURE_MAX_LEVEL, levels-1)
		for level := range t.desc.MipLevelCount {
			e.allocateLevel(t, level)
		}
	})
}

// allocateLevel defines the storage of one mip level of the bound texture.
func (e *bindEditor) allocateLevel(t *texture, level uint32) {
	f, tf := e.d.f, t.format
	w := int32(rhi.MipSize(t.desc.Width, level))
	h := int32(rhi.MipSize(t.desc.Height, level))
	lvl := int32(level)
	switch t.desc.Kind {
	case rhi.ResourceTypeTexture2D:
		if tf.compressed {
			size := int32(rhi.SlicePitch(t.desc.Format, uint32(w), uint32(h)))
			e.d.compressed.CompressedTexImage2D(gl.TEXTURE_2D, lvl, tf.internal, w, h, size, nil)
			return
		}
		f.TexImage2D(gl.TEXTURE_2D, lvl, int32(tf.internal), w, h, tf.format, tf.typ, nil)
	case rhi.ResourceTypeTextureCube:
		for face := range uint32(6) {
			target := gl.TEXTURE_CUBE_MAP_POSITIVE_X + face
			if tf.compressed {
				size := int32(rhi.SlicePitch(t.desc.Format, uint32(w), uint32(h)))
				e.d.compressed.CompressedTexImage2D(target, lvl, tf.internal, w, h, size, nil)
				continue
			}
			f.TexImage2D(target, lvl, int32(tf.internal), w, h, tf.format, tf.typ, nil)
		}
	case rhi.ResourceTypeTexture2DArray, rhi.ResourceTypeTexture3D:
		depth := int32(t.desc.Layers())
		if t.desc.Kind == rhi.ResourceTypeTexture3D {
			depth = int32(rhi.MipSize(t.desc.Depth(), level))
		}
		if tf.compressed {
			size := int32(rhi.SlicePitch(t.desc.Format, uint32(w), uint32(h))) * depth
			e.d.compressed.CompressedTexImage3D(t.target, lvl, tf.internal, w, h, depth, size, nil)
			return
		}
		e.d.tex3D.TexImage3D(t.target, lvl, int32(tf.internal), w, h, depth, tf.format, tf.typ, nil)
	}
}

func (e *bindEditor) textureSubImage(t *texture, sub rhi.SubresourceData) {
	e.withTexture(t, func() { e.subImage(t, sub) })
}

// subImage uploads one subresource into the bound texture.
func (e *bindEditor) subImage(t *texture, sub rhi.SubresourceData) {
	f, tf := e.d.f, t.format
	lvl, w, h := int32(sub.MipLevel), int32(sub.Width), int32(sub.Height)
	switch t.desc.Kind {
	case rhi.ResourceTypeTexture2D, rhi.ResourceTypeTextureCube:
		target := t.target
		if t.desc.Kind == rhi.ResourceTypeTextureCube {
			target = gl.TEXTURE_CUBE_MAP_POSITIVE_X + sub.Layer
		}
		if tf.compressed {
			e.d.compressed.CompressedTexSubImage2D(target, lvl, 0, 0, w, h, tf.internal, sub.Data)
			return
		}
		f.TexSubImage2D(target, lvl, 0, 0, w, h, tf.format, tf.typ, sub.Data)
	case rhi.ResourceTypeTexture2DArray:
		if tf.compressed {
			e.d.compressed.CompressedTexSubImage3D(t.target, lvl, 0, 0, int32(sub.Layer), w, h, 1, tf.internal, sub.Data)
			return
		}
		e.d.tex3D.TexSubImage3D(t.target, lvl, 0, 0, int32(sub.Layer), w, h, 1, tf.format, tf.typ, sub.Data)
	case rhi.ResourceTypeTexture3D:
		if tf.compressed {
			e.d.compressed.CompressedTexSubImage3D(t.target, lvl, 0, 0, 0, w, h, int32(sub.Depth), tf.internal, sub.Data)
			return
		}
		e.d.tex3D.TexSubImage3D(t.target, lvl, 0, 0, 0, w, h, int32(sub.Depth), tf.format, tf.typ, sub.Data)
	}
}

func (e *bindEditor) generateMipmap(t *texture) {
	e.withTexture(t, func() { e.d.f.GenerateMipmap(t.target) })
}

func (e *bindEditor) attachTextureBuffer(t *texture) {
	e.withTexture(t, func() { e.d.texBuffer.TexBuffer(glTextureBuffer, t.format.internal, t.buf.name) })
}

func (e *bindEditor) createFramebuffer(fb *framebuffer) error {
	s, f := &e.d.state, e.d.f
	fb.name = f.GenFramebuffers(1)
	prev := s.fbo
	s.bindFramebuffer(f, fb.name)
	defer s.bindFramebuffer(f, prev)

	for i, a := range fb.colors {
		if a.tex == nil {
			continue
		}
		f.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0+uint32(i), gl.TEXTURE_2D, a.tex.name, a.level)
	}
	if a := fb.depth; a != nil {
		f.FramebufferTexture2D(gl.FRAMEBUFFER, depthAttachment(a.tex), gl.TEXTURE_2D, a.tex.name, a.level)
	}
	if e.d.drawBuffers != nil {
		e.d.drawBuffers.DrawBuffers(fb.drawBuffers())
	}
	if status := f.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("%w: status 0x%04X", ErrIncompleteFramebuffer, status)
	}
	return nil
}

func (e *bindEditor) createVertexArray(va *vertexArray, desc *rhi.NativeVertexArray) {
	s, f := &e.d.state, e.d.f
	va.name = f.GenVertexArrays(1)
	prev := s.vertArray
	s.bindVertexArray(f, va.name)
	// The attribute cache describes the emulated default vertex array only.
	s.vertAttribs = [maxVertexAttribs]vertexAttrib{}
	for loc, a := range va.attribs {
		if a != nil {
			s.setVertexAttrib(f, e.d.attr, loc, a)
		}
	}
	if va.index != nil {
		s.bindBuffer(f, gl.ELEMENT_ARRAY_BUFFER, va.index.name)
	}
	s.vertAttribs = [maxVertexAttribs]vertexAttrib{}
	s.bindVertexArray(f, prev)
}

// dsaEditor edits objects by name with OpenGL 4.5 direct state access.
// Compressed textures and texture buffers go through the embedded
// bindEditor.
type dsaEditor struct {
	*bindEditor
	dsa DSAFunctions
}

func (e *dsaEditor) createBuffer(b *buffer, data []byte) {
	b.name = e.dsa.CreateBuffers()
	e.bufferData(b, data)
}

func (e *dsaEditor) bufferData(b *buffer, data []byte) {
	e.dsa.NamedBufferData(b.name, b.size, data, b.usage)
}

func (e *dsaEditor) bufferSubData(b *buffer, offset int, data []byte) {
	e.dsa.NamedBufferSubData(b.name, offset, data)
}

func (e *dsaEditor) mapBuffer(b *buffer, access uint32) []byte {
	return e.dsa.MapNamedBuffer(b.name, access, b.size)
}

func (e *dsaEditor) unmapBuffer(b *buffer) bool {
	return e.dsa.UnmapNamedBuffer(b.name)
}

func (e *dsaEditor) createTexture(t *texture) {
	if t.format.compressed || t.desc.Kind == rhi.ResourceTypeTextureBuffer {
		e.bindEditor.createTexture(t)
		return
	}
	t.name = e.dsa.CreateTextures(t.target)
	levels := int32(t.desc.MipLevelCount)
	w, h := int32(t.desc.Width), int32(t.desc.Height)
	switch t.desc.Kind {
	case rhi.ResourceTypeTexture2D, rhi.ResourceTypeTextureCube:
		e.dsa.TextureStorage2D(t.name, levels, t.format.internal, w, h)
	case rhi.ResourceTypeTexture2DArray:
		e.dsa.TextureStorage3D(t.name, levels, t.format.internal, w, h, int32(t.desc.Layers()))
	case rhi.ResourceTypeTexture3D:
		e.dsa.TextureStorage3D(t.name, levels, t.format.internal, w, h, int32(t.desc.Depth()))
	}
	e.dsa.TextureParameteri(t.name, gl.TEXTURE_BASE_LEVEL, 0)
	e.dsa.TextureParameteri(t.name, gl.TEXTURE_MAX_LEVEL, levels-1)
}

func (e *dsaEditor) textureSubImage(t *texture, sub rhi.SubresourceData) {
	if t.format.compressed {
		e.bindEditor.textureSubImage(t, sub)
		return
	}
	tf := t.format
	lvl, w, h := int32(sub.MipLevel), int32(sub.Width), int32(sub.Height)
	switch t.desc.Kind {
	case rhi.ResourceTypeTexture2D:
		e.dsa.TextureSubImage2D(t.name, lvl, 0, 0, w, h, tf.format, tf.typ, sub.Data)
	case rhi.ResourceTypeTextureCube, rhi.ResourceTypeTexture2DArray:
		// Cube faces are layers of the texture object.
		e.dsa.TextureSubImage3D(t.name, lvl, 0, 0, int32(sub.Layer), w, h, 1, tf.format, tf.typ, sub.Data)
	case rhi.ResourceTypeTexture3D:
		e.dsa.TextureSubImage3D(t.name, lvl, 0, 0, 0, w, h, int32(sub.Depth), tf.format, tf.typ, sub.Data)
	}
}

func (e *dsaEditor) generateMipmap(t *texture) {
	e.dsa.GenerateTextureMipmap(t.name)
}

func (e *dsaEditor) createFramebuffer(fb *framebuffer) error {
	fb.name = e.dsa.CreateFramebuffers()
	for i, a := range fb.colors {
		if a.tex == nil {
			continue
		}
		e.dsa.NamedFramebufferTexture(fb.name, gl.COLOR_ATTACHMENT0+uint32(i), a.tex.name, a.level)
	}
	if a := fb.depth; a != nil {
		e.dsa.NamedFramebufferTexture(fb.name, depthAttachment(a.tex), a.tex.name, a.level)
	}
	e.dsa.NamedFramebufferDrawBuffers(fb.name, fb.drawBuffers())
	if status := e.dsa.CheckNamedFramebufferStatus(fb.name, gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("%w: status 0x%04X", ErrIncompleteFramebuffer, status)
	}
	return nil
}

func (e *dsaEditor) createVertexArray(va *vertexArray, desc *rhi.NativeVertexArray) {
	vao := e.dsa.CreateVertexArrays()
	va.name = vao
	for slot, vb := range desc.Buffers {
		buf := vb.Buffer.(*buffer)
		e.dsa.VertexArrayVertexBuffer(vao, uint32(slot), buf.name, int(vb.Offset), int32(vb.Stride))
	}
	divisors := make(map[uint32]uint32)
	for i := range desc.Layout.Attributes {
		a := &desc.Layout.Attributes[i]
		vf := vertexFormats[a.Format]
		loc := a.ShaderLocation
		e.dsa.EnableVertexArrayAttrib(vao, loc)
		if vf.integer {
			e.dsa.VertexArrayAttribIFormat(vao, loc, vf.size, vf.typ, a.Offset)
		} else {
			e.dsa.VertexArrayAttribFormat(vao, loc, vf.size, vf.typ, vf.normalized, a.Offset)
		}
		e.dsa.VertexArrayAttribBinding(vao, loc, a.InputSlot)
		if prev, ok := divisors[a.InputSlot]; ok && prev != a.InstancesPerElement {
			e.d.logger().Warn("opengl: attributes of one input slot step at different rates",
				"slot", a.InputSlot, "rates", []uint32{prev, a.InstancesPerElement})
			continue
		}
		divisors[a.InputSlot] = a.InstancesPerElement
	}
	for slot, div := range divisors {
		if div != 0 {
			e.dsa.VertexArrayBindingDivisor(vao, slot, div)
		}
	}
	if va.index != nil {
		e.dsa.VertexArrayElementBuffer(vao, va.index.name)
	}
}

// depthAttachment returns the attachment point of a depth or stencil texture.
func depthAttachment(t *texture) uint32 {
	switch {
	case t.desc.Format == gputypes.TextureFormatStencil8:
		return gl.STENCIL_ATTACHMENT
	case rhi.HasStencil(t.desc.Format):
		return gl.DEPTH_STENCIL_ATTACHMENT
	}
	return gl.DEPTH_ATTACHMENT
}
