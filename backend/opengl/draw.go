// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package opengl

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/gles/gl"

	"github.com/gogpu/rhi"
)

// finishPoll is how long one ClientWaitSync call blocks in Finish.
const finishPoll = uint64(time.Millisecond)

// SetRenderTarget binds a framebuffer. Swap chains and nil bind the
// default framebuffer of the current context.
func (d *Driver) SetRenderTarget(target rhi.NativeObject) {
	var fbo uint32
	switch t := target.(type) {
	case nil:
	case *framebuffer:
		fbo = t.name
	case *swapChain:
		t.makeCurrent()
	default:
		d.logger().Error("opengl: render target from another driver", "type", typeName(target))
		return
	}
	d.state.bindFramebuffer(d.f, fbo)
	d.bound.target = target
}

// SetViewport sets the viewport in the GL window convention, with the
// origin at the lower left corner.
func (d *Driver) SetViewport(vp rhi.Viewport) {
	d.state.setViewport(d.f, int32(vp.X), int32(vp.Y), int32(vp.Width), int32(vp.Height))
	if d.raster != nil {
		d.state.setDepthRange(d.raster, vp.MinDepth, vp.MaxDepth)
	} else if vp.MinDepth != 0 || vp.MaxDepth != 1 {
		d.warnOnce("depth-range", "opengl: viewport depth range unsupported by the bindings")
	}
	d.bound.viewport = vp
}

func (d *Driver) SetScissorRect(rect rhi.ScissorRect) {
	d.state.setScissor(d.f, rect.X, rect.Y, int32(rect.Width), int32(rect.Height))
}

func (d *Driver) SetPrimitiveTopology(topology gputypes.PrimitiveTopology) {
	d.bound.topology = primitiveMode(topology)
}

func (d *Driver) SetVertexArray(obj rhi.NativeObject) {
	va, ok := obj.(*vertexArray)
	if va == nil {
		if !ok && obj != nil {
			d.logger().Error("opengl: vertex array from another driver", "type", typeName(obj))
		}
		d.bound.vertexArray = nil
		return
	}
	va.bind(d)
	d.bound.vertexArray = va
}

// SetVertexLayout checks the layout against the bound vertex array. The
// attribute setup itself belongs to the vertex array.
func (d *Driver) SetVertexLayout(obj rhi.NativeObject) {
	vl, ok := obj.(*vertexLayout)
	if !ok || vl == nil || d.bound.vertexArray == nil {
		return
	}
	for i := range vl.layout.Attributes {
		if loc := vl.layout.Attributes[i].ShaderLocation; loc < maxVertexAttribs && d.bound.vertexArray.attribs[loc] == nil {
			d.logger().Debug("opengl: layout attribute missing from the bound vertex array", "location", loc)
		}
	}
}

// SetProgram uses a program and selects its clip-space depth convention
// when the context supports clip control.
func (d *Driver) SetProgram(obj rhi.NativeObject) {
	p, _ := obj.(*program)
	if p == nil {
		d.state.useProgram(d.f, 0)
		d.bound.program = nil
		return
	}
	d.state.useProgram(d.f, p.name)
	if d.clip != nil && p.clipDepth != d.bound.clipDepth {
		d.clip.ClipControl(glLowerLeft, p.clipDepth)
		d.bound.clipDepth = p.clipDepth
	}
	d.bound.program = p
}

func (d *Driver) SetRasterizerState(obj rhi.NativeObject) {
	rs, _ := obj.(*rasterizerState)
	d.bound.rasterizer = rs
	d.currentRasterizer().apply(d)
}

func (d *Driver) SetDepthStencilState(obj rhi.NativeObject) {
	ds, _ := obj.(*depthStencilState)
	d.bound.depthStencil = ds
	d.currentDepthStencil().apply(d)
}

func (d *Driver) SetBlendState(obj rhi.NativeObject) {
	bs, _ := obj.(*blendState)
	d.bound.blend = bs
	d.currentBlend().apply(d)
}

func (d *Driver) currentRasterizer() *rasterizerState {
	if d.bound.rasterizer != nil {
		return d.bound.rasterizer
	}
	return d.defaults.rasterizer
}

func (d *Driver) currentDepthStencil() *depthStencilState {
	if d.bound.depthStencil != nil {
		return d.bound.depthStencil
	}
	return d.defaults.depthStencil
}

func (d *Driver) currentBlend() *blendState {
	if d.bound.blend != nil {
		return d.bound.blend
	}
	return d.defaults.blend
}

// SetTexture binds a texture to the GL unit of a renderer unit. With
// emulated samplers the unit's sampler state is applied to the texture.
func (d *Driver) SetTexture(stage rhi.ShaderStage, unit uint32, res rhi.NativeResource) {
	u := int(d.TextureUnit(stage, unit))
	if u >= maxTextureUnits {
		d.logger().Error("opengl: texture unit out of range", "stage", stage, "unit", unit)
		return
	}
	s, f := &d.state, d.f
	t, _ := res.(*texture)
	prev := d.bound.textures[u]
	if prev != nil && (t == nil || prev.target != t.target) {
		s.bindTexture(f, u, prev.target, 0)
	}
	d.bound.textures[u] = t
	if t == nil {
		return
	}
	s.bindTexture(f, u, t.target, t.name)
	if !d.samplerObjs {
		if ss := d.bound.samplers[u]; ss != nil {
			ss.applyTo(t)
		}
	}
}

func (d *Driver) SetSamplerState(stage rhi.ShaderStage, unit uint32, obj rhi.NativeObject) {
	u := int(d.TextureUnit(stage, unit))
	if u >= maxTextureUnits {
		d.logger().Error("opengl: sampler unit out of range", "stage", stage, "unit", unit)
		return
	}
	ss, _ := obj.(*samplerState)
	d.bound.samplers[u] = ss
	if d.samplerObjs {
		var name uint32
		if ss != nil {
			name = ss.name
		}
		d.state.bindSampler(d.f, u, name)
		return
	}
	if t := d.bound.textures[u]; ss != nil && t != nil {
		d.state.activeTexture(d.f, gl.TEXTURE0+uint32(u))
		ss.applyTo(t)
	}
}

func (d *Driver) SetUniformBuffer(stage rhi.ShaderStage, slot uint32, res rhi.NativeResource) {
	idx := int(d.UniformBinding(stage, slot))
	if idx >= maxUniformSlots {
		d.logger().Error("opengl: uniform buffer slot out of range", "stage", stage, "slot", slot)
		return
	}
	b, _ := res.(*buffer)
	var name uint32
	if b != nil {
		name = b.name
	}
	d.state.bindBufferBase(d.f, idx, name)
	d.bound.uniforms[idx] = b
}

// Clear clears the bound target. The scissor test and write masks are
// lifted for the clear and restored from the bound states afterwards.
func (d *Driver) Clear(flags rhi.ClearFlags, color gputypes.Color, depth float32, stencil uint32) {
	mask := clearMask(flags)
	if mask == 0 {
		return
	}
	s, f := &d.state, d.f
	s.set(f, gl.SCISSOR_TEST, false)
	if flags&rhi.ClearColor != 0 {
		s.setColorMask(f, [4]bool{true, true, true, true})
		s.setClearColor(f, float32(color.R), float32(color.G), float32(color.B), float32(color.A))
	}
	if flags&rhi.ClearDepth != 0 {
		s.setDepthMask(f, true)
		if d.raster != nil {
			s.setClearDepth(d.raster, depth)
		} else if depth != 1 {
			d.warnOnce("clear-depth", "opengl: clear depth unsupported by the bindings, clearing to 1")
		}
	}
	if flags&rhi.ClearStencil != 0 {
		s.setStencilWriteMask(f, 0xFF)
		if d.raster != nil {
			s.setClearStencil(d.raster, int32(stencil))
		} else if stencil != 0 {
			d.warnOnce("clear-stencil", "opengl: clear stencil unsupported by the bindings, clearing to 0")
		}
	}
	f.Clear(mask)

	d.currentRasterizer().apply(d)
	d.currentDepthStencil().apply(d)
	d.currentBlend().apply(d)
	if flags&rhi.ClearStencil != 0 {
		s.setStencilWriteMask(f, d.currentDepthStencil().writeMask)
	}
}

func (d *Driver) Draw(args rhi.DrawArguments) {
	if d.bound.vertexArray == nil {
		d.logger().Error("opengl: draw without a vertex array")
		return
	}
	d.checkStartInstance(args.StartInstanceLocation)
	mode := d.bound.topology
	first, count := int32(args.StartVertexLocation), int32(args.VertexCountPerInstance)
	if args.InstanceCount > 1 && d.inst != nil {
		d.inst.DrawArraysInstanced(mode, first, count, int32(args.InstanceCount))
		return
	}
	d.f.DrawArrays(mode, first, count)
}

func (d *Driver) DrawIndexed(args rhi.DrawIndexedArguments) {
	va := d.bound.vertexArray
	if va == nil || va.index == nil {
		d.logger().Error("opengl: indexed draw without an index buffer")
		return
	}
	d.checkStartInstance(args.StartInstanceLocation)
	mode, typ := d.bound.topology, va.indexType
	count := int32(args.IndexCountPerInstance)
	offset := uintptr(args.StartIndexLocation) * uintptr(va.indexSize)
	instances := int32(max(args.InstanceCount, 1))
	base := args.BaseVertexLocation
	if base != 0 && d.baseVertex == nil {
		d.warnOnce("base-vertex", "opengl: base vertex unsupported, drawing from vertex 0")
		base = 0
	}
	if instances > 1 && d.inst == nil {
		instances = 1
	}
	switch {
	case base != 0 && instances > 1:
		d.baseVertex.DrawElementsInstancedBaseVertex(mode, count, typ, offset, instances, base)
	case base != 0:
		d.baseVertex.DrawElementsBaseVertex(mode, count, typ, offset, base)
	case instances > 1:
		d.inst.DrawElementsInstanced(mode, count, typ, offset, instances)
	default:
		d.f.DrawElements(mode, count, typ, offset)
	}
}

func (d *Driver) checkStartInstance(start uint32) {
	if start != 0 {
		d.warnOnce("start-instance", "opengl: start instance location ignored")
	}
}

func (d *Driver) Flush() { d.f.Flush() }

// Finish waits on a fence when sync objects exist and falls back to
// glFinish otherwise.
func (d *Driver) Finish() {
	if d.sync == nil {
		d.f.Finish()
		return
	}
	fence := d.sync.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	if fence == 0 {
		d.f.Finish()
		return
	}
	defer d.sync.DeleteSync(fence)
	for {
		switch d.sync.ClientWaitSync(fence, gl.SYNC_FLUSH_COMMANDS_BIT, finishPoll) {
		case gl.ALREADY_SIGNALED, gl.CONDITION_SATISFIED:
			return
		case gl.WAIT_FAILED:
			d.logger().Warn("opengl: fence wait failed, falling back to glFinish", "err", d.glError("ClientWaitSync"))
			d.f.Finish()
			return
		}
	}
}

func typeName(v any) string { return fmt.Sprintf("%T", v) }
