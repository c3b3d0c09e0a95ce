// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

var defaultBlendFactor = [4]float32{1, 1, 1, 1}

// SetRenderTarget binds the views of a framebuffer or the back buffer of a
// swap chain. nil unbinds every target. Textures bound for sampling that
// are attached to the new target are unbound first, as Direct3D would
// silently do.
func (d *Driver) SetRenderTarget(target rhi.NativeObject) {
	var (
		colors   []View
		depth    View
		attached []*texture
	)
	switch t := target.(type) {
	case nil:
	case *framebuffer:
		colors, depth, attached = t.colors, t.depth, t.textures
	case *swapChain:
		v, err := t.view()
		if err != nil {
			d.logger().Error("d3d11: bind swap chain", "err", err)
			return
		}
		colors = []View{v}
	default:
		d.logger().Error("d3d11: render target from another driver", "type", typeName(target))
		return
	}
	for stage := range d.bound.textures {
		for unit, t := range d.bound.textures[stage] {
			if t != nil && slices.Contains(attached, t) {
				d.logger().Debug("d3d11: unbinding texture attached to the render target", "stage", rhi.ShaderStage(stage), "unit", unit)
				d.setShaderResource(rhi.ShaderStage(stage), uint32(unit), nil)
				d.bound.textures[stage][unit] = nil
			}
		}
	}
	d.ctx.OMSetRenderTargets(colors, depth)
	d.bound.target, d.bound.colors, d.bound.depth, d.bound.attachments = target, colors, depth, attached
}

// SetViewport sets the viewport with the origin at the upper left corner.
func (d *Driver) SetViewport(vp rhi.Viewport) {
	d.ctx.RSSetViewports([]Viewport{{
		TopLeftX: vp.X,
		TopLeftY: vp.Y,
		Width:    vp.Width,
		Height:   vp.Height,
		MinDepth: vp.MinDepth,
		MaxDepth: vp.MaxDepth,
	}})
}

func (d *Driver) SetScissorRect(rect rhi.ScissorRect) {
	d.ctx.RSSetScissorRects([]Rect{{
		Left:   rect.X,
		Top:    rect.Y,
		Right:  rect.X + int32(rect.Width),
		Bottom: rect.Y + int32(rect.Height),
	}})
}

func (d *Driver) SetPrimitiveTopology(topology gputypes.PrimitiveTopology) {
	d.ctx.IASetPrimitiveTopology(primitiveTopology(topology))
}

func (d *Driver) SetVertexArray(obj rhi.NativeObject) {
	va, ok := obj.(*vertexArray)
	if va == nil {
		if !ok && obj != nil {
			d.logger().Error("d3d11: vertex array from another driver", "type", typeName(obj))
		}
		if d.bound.vertexArray != nil && len(d.bound.vertexArray.buffers) > 0 {
			n := len(d.bound.vertexArray.buffers)
			d.ctx.IASetVertexBuffers(0, make([]Resource, n), make([]uint32, n), make([]uint32, n))
		}
		d.ctx.IASetIndexBuffer(nil, FormatR16Uint, 0)
		d.bound.vertexArray = nil
		d.applyInputLayout()
		return
	}
	buffers, strides, offsets := va.buffers, va.strides, va.offsets
	if prev := d.bound.vertexArray; prev != nil && len(prev.buffers) > len(buffers) {
		n := len(prev.buffers)
		buffers = append(slices.Clone(buffers), make([]Resource, n-len(buffers))...)
		strides = append(slices.Clone(strides), make([]uint32, n-len(strides))...)
		offsets = append(slices.Clone(offsets), make([]uint32, n-len(offsets))...)
	}
	if len(buffers) > 0 {
		d.ctx.IASetVertexBuffers(0, buffers, strides, offsets)
	}
	d.ctx.IASetIndexBuffer(va.index, va.indexFormat, 0)
	d.bound.vertexArray = va
	d.applyInputLayout()
}

// SetVertexLayout binds the input layout of a pipeline state. It takes
// precedence over the layout of the bound vertex array until it is set
// to nil.
func (d *Driver) SetVertexLayout(obj rhi.NativeObject) {
	l, _ := obj.(*inputLayout)
	d.bound.layout = l
	d.applyInputLayout()
}

// applyInputLayout activates the bound layout, or else the layout of the
// bound vertex array for the bound vertex shader, when the context holds
// another one.
func (d *Driver) applyInputLayout() {
	var native Object
	switch {
	case d.bound.layout != nil:
		native = d.bound.layout.obj
	case d.bound.vertexArray != nil && d.bound.program != nil:
		native = d.bound.vertexArray.inputLayout(d.bound.program.vs)
	}
	if native == d.bound.input {
		return
	}
	d.ctx.IASetInputLayout(native)
	d.bound.input = native
}

func (d *Driver) SetProgram(obj rhi.NativeObject) {
	p, _ := obj.(*program)
	if p == nil {
		d.ctx.VSSetShader(nil)
		d.ctx.PSSetShader(nil)
		d.bound.program = nil
		d.applyInputLayout()
		return
	}
	d.ctx.VSSetShader(p.vs.obj)
	d.ctx.PSSetShader(p.ps.obj)
	d.bound.program = p
	d.applyInputLayout()
}

// The state setters bind the runtime defaults for nil.

func (d *Driver) SetRasterizerState(obj rhi.NativeObject) {
	d.ctx.RSSetState(nativeState(obj))
}

func (d *Driver) SetDepthStencilState(obj rhi.NativeObject) {
	d.ctx.OMSetDepthStencilState(nativeState(obj), 0)
}

func (d *Driver) SetBlendState(obj rhi.NativeObject) {
	d.ctx.OMSetBlendState(nativeState(obj), defaultBlendFactor, 0xFFFFFFFF)
}

func (d *Driver) setShaderResource(stage rhi.ShaderStage, unit uint32, v View) {
	if stage == rhi.ShaderStageVertex {
		d.ctx.VSSetShaderResources(unit, []View{v})
	} else {
		d.ctx.PSSetShaderResources(unit, []View{v})
	}
}

// SetTexture binds the shader resource view of a texture to register t of
// unit. A texture attached to the bound render target is not bound.
func (d *Driver) SetTexture(stage rhi.ShaderStage, unit uint32, res rhi.NativeResource) {
	if int(stage) >= len(d.bound.textures) || unit >= maxTextureUnits {
		d.logger().Error("d3d11: texture unit out of range", "stage", stage, "unit", unit)
		return
	}
	t, _ := res.(*texture)
	var v View
	if t != nil {
		switch {
		case t.srv == nil:
			d.warnOnce("srv:"+t.label, "d3d11: texture has no shader resource view", "name", t.label, "usage", t.usage)
			t = nil
		case slices.Contains(d.bound.attachments, t):
			d.warnOnce(fmt.Sprintf("hazard:%d:%d", stage, unit), "d3d11: texture is attached to the render target, binding nothing", "stage", stage, "unit", unit)
			t = nil
		default:
			v = t.srv
		}
	}
	d.setShaderResource(stage, unit, v)
	d.bound.textures[stage][unit] = t
}

func (d *Driver) SetSamplerState(stage rhi.ShaderStage, unit uint32, obj rhi.NativeObject) {
	if unit >= maxTextureUnits {
		d.logger().Error("d3d11: sampler unit out of range", "stage", stage, "unit", unit)
		return
	}
	s := []Object{nativeState(obj)}
	if stage == rhi.ShaderStageVertex {
		d.ctx.VSSetSamplers(unit, s)
	} else {
		d.ctx.PSSetSamplers(unit, s)
	}
}

// SetUniformBuffer binds a constant buffer to register b of slot.
func (d *Driver) SetUniformBuffer(stage rhi.ShaderStage, slot uint32, res rhi.NativeResource) {
	if slot >= maxUniformSlots {
		d.logger().Error("d3d11: uniform buffer slot out of range", "stage", stage, "slot", slot)
		return
	}
	var r Resource
	if b, ok := res.(*buffer); ok && b != nil {
		r = b.res
	}
	if stage == rhi.ShaderStageVertex {
		d.ctx.VSSetConstantBuffers(slot, []Resource{r})
	} else {
		d.ctx.PSSetConstantBuffers(slot, []Resource{r})
	}
}

// Clear clears the views of the bound target. Clears ignore the
// viewport, scissor and bound states.
func (d *Driver) Clear(flags rhi.ClearFlags, color gputypes.Color, depth float32, stencil uint32) {
	if flags&rhi.ClearColor != 0 {
		c := clearColor(color)
		for _, v := range d.bound.colors {
			if v != nil {
				d.ctx.ClearRenderTargetView(v, c)
			}
		}
	}
	var df ClearFlags
	if flags&rhi.ClearDepth != 0 {
		df |= ClearDepth
	}
	if flags&rhi.ClearStencil != 0 {
		df |= ClearStencil
	}
	if df != 0 && d.bound.depth != nil {
		d.ctx.ClearDepthStencilView(d.bound.depth, df, depth, uint8(stencil))
	}
}

func (d *Driver) Draw(args rhi.DrawArguments) {
	if args.InstanceCount <= 1 && args.StartInstanceLocation == 0 {
		d.ctx.Draw(args.VertexCountPerInstance, args.StartVertexLocation)
		return
	}
	d.ctx.DrawInstanced(args.VertexCountPerInstance, args.InstanceCount, args.StartVertexLocation, args.StartInstanceLocation)
}

func (d *Driver) DrawIndexed(args rhi.DrawIndexedArguments) {
	va := d.bound.vertexArray
	if va == nil || va.index == nil {
		d.logger().Error("d3d11: indexed draw without an index buffer")
		return
	}
	if args.InstanceCount <= 1 && args.StartInstanceLocation == 0 {
		d.ctx.DrawIndexed(args.IndexCountPerInstance, args.StartIndexLocation, args.BaseVertexLocation)
		return
	}
	d.ctx.DrawIndexedInstanced(args.IndexCountPerInstance, args.InstanceCount, args.StartIndexLocation, args.BaseVertexLocation, args.StartInstanceLocation)
}

func (d *Driver) Flush() { d.ctx.Flush() }

// Finish ends an event query and polls it until the GPU has caught up.
// Without a query it only flushes.
func (d *Driver) Finish() {
	if d.query == nil {
		q, err := d.dev.CreateQuery(QueryEvent)
		if err != nil {
			d.warnOnce("query", "d3d11: event query unavailable, Finish only flushes", "err", err)
			d.ctx.Flush()
			return
		}
		d.query = q
	}
	d.ctx.End(d.query)
	for {
		done, err := d.ctx.GetData(d.query)
		if err != nil {
			d.logger().Warn("d3d11: poll event query", "err", err)
			return
		}
		if done {
			return
		}
		runtime.Gosched()
	}
}

func typeName(v any) string { return fmt.Sprintf("%T", v) }
