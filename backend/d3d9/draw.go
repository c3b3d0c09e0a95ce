// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d9

import (
	"encoding/binary"
	"fmt"
	"math"
	"runtime"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

// samplerIndex returns the device sampler of a texture unit. Vertex
// texture fetch uses the displacement map samplers.
func samplerIndex(stage rhi.ShaderStage, unit uint32) uint32 {
	if stage == rhi.ShaderStageVertex {
		return VertexSampler0 + unit
	}
	return unit
}

// SetRenderTarget binds the surfaces of a framebuffer or the back buffer
// of a swap chain. nil restores the implicit back buffer and depth
// surface. Textures bound for sampling that are attached to the new
// target are unbound first. Direct3D 9 resets the viewport to the new
// target.
func (d *Driver) SetRenderTarget(target rhi.NativeObject) {
	var (
		colors   []Surface
		depth    Surface
		attached []*texture
	)
	switch t := target.(type) {
	case nil:
		if d.backBuffer != nil {
			colors = []Surface{d.backBuffer}
		}
		depth = d.depthSurface
	case *framebuffer:
		colors, depth, attached = t.colors, t.depth, t.textures
		if len(colors) == 0 || colors[0] == nil {
			// Render target 0 cannot be unbound; depth-only passes keep
			// drawing color into the back buffer.
			d.warnOnce("depth-only", "d3d9: framebuffer without a first color attachment keeps the back buffer bound")
			if d.backBuffer != nil {
				colors = append([]Surface{d.backBuffer}, colors[min(1, len(colors)):]...)
			}
		}
	case *swapChain:
		s, err := t.surface()
		if err != nil {
			d.logger().Error("d3d9: bind swap chain", "err", err)
			return
		}
		colors = []Surface{s}
	default:
		d.logger().Error("d3d9: render target from another driver", "type", typeName(target))
		return
	}
	for stage := range d.bound.textures {
		for unit, t := range d.bound.textures[stage] {
			if t != nil && slices.Contains(attached, t) {
				d.logger().Debug("d3d9: unbinding texture attached to the render target", "stage", rhi.ShaderStage(stage), "unit", unit)
				d.dev.SetTexture(samplerIndex(rhi.ShaderStage(stage), uint32(unit)), nil)
				d.bound.textures[stage][unit] = nil
			}
		}
	}
	for i, s := range colors {
		if err := d.dev.SetRenderTarget(uint32(i), s); err != nil {
			d.logger().Error("d3d9: SetRenderTarget", "index", i, "err", err)
		}
	}
	for i := len(colors); i < d.bound.colors; i++ {
		if i > 0 {
			d.dev.SetRenderTarget(uint32(i), nil)
		}
	}
	d.dev.SetDepthStencilSurface(depth)
	d.bound.target, d.bound.colors, d.bound.attachments = target, len(colors), attached
	d.bound.depth = depth != nil
	d.bound.stencil = depth != nil
	if fb, ok := target.(*framebuffer); ok && fb.depth != nil {
		d.bound.stencil = rhi.HasStencil(fb.textures[len(fb.textures)-1].desc.Format)
	}
}

// SetViewport sets the viewport. Direct3D 9 viewports have integer
// origins and extents.
func (d *Driver) SetViewport(vp rhi.Viewport) {
	d.dev.SetViewport(Viewport{
		X:      uint32(max(vp.X, 0)),
		Y:      uint32(max(vp.Y, 0)),
		Width:  uint32(max(vp.Width, 0)),
		Height: uint32(max(vp.Height, 0)),
		MinZ:   vp.MinDepth,
		MaxZ:   vp.MaxDepth,
	})
}

func (d *Driver) SetScissorRect(rect rhi.ScissorRect) {
	d.dev.SetScissorRect(Rect{
		Left:   rect.X,
		Top:    rect.Y,
		Right:  rect.X + int32(rect.Width),
		Bottom: rect.Y + int32(rect.Height),
	})
}

// SetPrimitiveTopology selects the primitive type of later draws;
// Direct3D 9 passes it with each draw.
func (d *Driver) SetPrimitiveTopology(topology gputypes.PrimitiveTopology) {
	d.topology = primitiveType(topology)
}

func (d *Driver) SetVertexArray(obj rhi.NativeObject) {
	va, ok := obj.(*vertexArray)
	prev := 0
	if d.bound.vertexArray != nil {
		prev = len(d.bound.vertexArray.streams)
	}
	if va == nil {
		if !ok && obj != nil {
			d.logger().Error("d3d9: vertex array from another driver", "type", typeName(obj))
		}
		for i := range prev {
			d.dev.SetStreamSource(uint32(i), nil, 0, 0)
		}
		d.dev.SetIndices(nil)
		d.bound.vertexArray = nil
		d.applyDecl()
		return
	}
	d.bound.vertexArray = va
	d.applyDecl()
	d.bindStreams(va, 0)
	for i := len(va.streams); i < prev; i++ {
		d.dev.SetStreamSource(uint32(i), nil, 0, 0)
	}
	var index Buffer
	if va.index != nil {
		index = va.index.res
	}
	d.dev.SetIndices(index)
}

// bindStreams binds the streams of va. Per-instance streams skip
// startInstance elements.
func (d *Driver) bindStreams(va *vertexArray, startInstance uint32) {
	var rates []uint32
	if d.bound.decl != nil {
		rates = d.bound.decl.rates
	}
	for i, s := range va.streams {
		if s.buf == nil {
			d.dev.SetStreamSource(uint32(i), nil, 0, 0)
			continue
		}
		offset := s.offset
		if i < len(rates) && rates[i] != 0 {
			offset += startInstance / rates[i] * s.stride
		}
		d.dev.SetStreamSource(uint32(i), s.buf.res, offset, s.stride)
	}
}

// SetVertexLayout binds the declaration of a pipeline state. It takes
// precedence over the declaration of the bound vertex array until it is
// set to nil.
func (d *Driver) SetVertexLayout(obj rhi.NativeObject) {
	v, _ := obj.(*vertexDecl)
	d.bound.layout = v
	d.applyDecl()
}

// applyDecl activates the bound layout, or else the declaration of the
// bound vertex array, when the device holds another one.
func (d *Driver) applyDecl() {
	v := d.bound.layout
	if v == nil && d.bound.vertexArray != nil {
		v = d.bound.vertexArray.decl
	}
	if v == d.bound.decl {
		return
	}
	var native Object
	if v != nil {
		native = v.obj
	}
	d.dev.SetVertexDeclaration(native)
	d.bound.decl = v
}

func (d *Driver) SetProgram(obj rhi.NativeObject) {
	p, _ := obj.(*program)
	if p == nil {
		d.dev.SetVertexShader(nil)
		d.dev.SetPixelShader(nil)
		d.bound.program = nil
		return
	}
	d.dev.SetVertexShader(p.vs.obj)
	d.dev.SetPixelShader(p.ps.obj)
	d.bound.program = p
}

// The state setters apply the default descriptors for nil.

func (d *Driver) SetRasterizerState(obj rhi.NativeObject) {
	d.applyStates(obj, defaultRasterizer)
}

func (d *Driver) SetDepthStencilState(obj rhi.NativeObject) {
	d.applyStates(obj, defaultDepthStencil)
}

func (d *Driver) SetBlendState(obj rhi.NativeObject) {
	d.applyStates(obj, defaultBlend)
}

// unitInRange checks a texture unit against the samplers of its stage.
// Vertex textures need shader model 3.0.
func (d *Driver) unitInRange(stage rhi.ShaderStage, unit uint32) bool {
	if stage == rhi.ShaderStageVertex {
		return d.sm3() && unit < maxVertexTextureUnits
	}
	return stage == rhi.ShaderStageFragment && unit < maxTextureUnits
}

// SetTexture binds a texture to sampler register s of unit. A texture
// attached to the bound render target, or one in system memory, is not
// bound.
func (d *Driver) SetTexture(stage rhi.ShaderStage, unit uint32, res rhi.NativeResource) {
	if !d.unitInRange(stage, unit) {
		d.logger().Error("d3d9: texture unit out of range", "stage", stage, "unit", unit)
		return
	}
	t, _ := res.(*texture)
	var native Texture
	if t != nil {
		switch {
		case t.pool == PoolSystemMem:
			d.warnOnce("staging:"+t.label, "d3d9: staging textures cannot be sampled", "name", t.label)
			t = nil
		case slices.Contains(d.bound.attachments, t):
			d.warnOnce(fmt.Sprintf("hazard:%d:%d", stage, unit), "d3d9: texture is attached to the render target, binding nothing", "stage", stage, "unit", unit)
			t = nil
		default:
			native = t.res
		}
	}
	d.dev.SetTexture(samplerIndex(stage, unit), native)
	d.bound.textures[stage][unit] = t
}

func (d *Driver) SetSamplerState(stage rhi.ShaderStage, unit uint32, obj rhi.NativeObject) {
	if !d.unitInRange(stage, unit) {
		d.logger().Error("d3d9: sampler unit out of range", "stage", stage, "unit", unit)
		return
	}
	states := defaultSampler
	if s, ok := obj.(*samplerBlock); ok && s != nil {
		states = s.states
	}
	sampler := samplerIndex(stage, unit)
	for _, v := range states {
		d.setSamplerState(sampler, v.typ, v.value)
	}
}

// SetUniformBuffer uploads a uniform buffer to the float constants of
// slot. The buffer is uploaded again when it is unmapped after a write.
func (d *Driver) SetUniformBuffer(stage rhi.ShaderStage, slot uint32, res rhi.NativeResource) {
	if slot >= d.caps.MaxUniformBuffers || int(stage) >= len(d.bound.uniforms) {
		d.logger().Error("d3d9: uniform buffer slot out of range", "stage", stage, "slot", slot)
		return
	}
	b, _ := res.(*buffer)
	if b != nil && b.res != nil {
		d.logger().Error("d3d9: uniform binding is not a uniform buffer", "stage", stage, "slot", slot)
		b = nil
	}
	d.bound.uniforms[stage][slot] = b
	if b != nil {
		d.uploadConstants(stage, slot, b)
	}
}

// uploadConstants sets the float4 registers of slot from b.
func (d *Driver) uploadConstants(stage rhi.ShaderStage, slot uint32, b *buffer) {
	consts := make([]float32, len(b.data)/4)
	for i := range consts {
		consts[i] = math.Float32frombits(binary.LittleEndian.Uint32(b.data[i*4:]))
	}
	start := slot * registersPerSlot
	if stage == rhi.ShaderStageVertex {
		d.dev.SetVertexShaderConstantF(start, consts)
	} else {
		d.dev.SetPixelShaderConstantF(start, consts)
	}
}

// Clear clears the bound target. Clears honor the viewport and, when the
// scissor test is on, the scissor rectangle.
func (d *Driver) Clear(flags rhi.ClearFlags, color gputypes.Color, depth float32, stencil uint32) {
	var cf ClearFlags
	if flags&rhi.ClearColor != 0 && d.bound.colors > 0 {
		cf |= ClearTarget
	}
	if flags&rhi.ClearDepth != 0 && d.bound.depth {
		cf |= ClearZBuffer
	}
	if flags&rhi.ClearStencil != 0 && d.bound.stencil {
		cf |= ClearStencil
	}
	if cf == 0 || !d.beginScene() {
		return
	}
	d.dev.Clear(cf, clearColor(color), depth, stencil)
}

// Draw draws non-indexed primitives. Direct3D 9 instances indexed draws
// only.
func (d *Driver) Draw(args rhi.DrawArguments) {
	if args.InstanceCount > 1 || args.StartInstanceLocation != 0 {
		d.logger().Error("d3d9: instanced draws need an index buffer", "instances", args.InstanceCount)
		return
	}
	n := primitiveCount(d.topology, args.VertexCountPerInstance)
	if n == 0 || !d.beginScene() {
		return
	}
	d.dev.DrawPrimitive(d.topology, args.StartVertexLocation, n)
}

// DrawIndexed draws indexed primitives, instanced through stream
// frequencies on shader model 3.0. A zero VertexCount covers every vertex
// the per-vertex streams hold.
func (d *Driver) DrawIndexed(args rhi.DrawIndexedArguments) {
	va := d.bound.vertexArray
	if va == nil || va.index == nil {
		d.logger().Error("d3d9: indexed draw without an index buffer")
		return
	}
	n := primitiveCount(d.topology, args.IndexCountPerInstance)
	if n == 0 || args.InstanceCount == 0 {
		return
	}
	var rates []uint32
	if d.bound.decl != nil {
		rates = d.bound.decl.rates
	}
	numVertices := args.VertexCount
	if numVertices == 0 {
		total := int64(va.vertexCount(rates)) - int64(args.BaseVertexLocation) - int64(args.MinIndex)
		numVertices = uint32(max(total, 1))
	}
	instanced := args.InstanceCount > 1 || args.StartInstanceLocation != 0
	if instanced && !d.caps.InstancedIndexedDraw {
		d.logger().Error("d3d9: instancing needs shader model 3.0")
		return
	}
	if !d.beginScene() {
		return
	}
	if !instanced {
		d.dev.DrawIndexedPrimitive(d.topology, args.BaseVertexLocation, args.MinIndex, numVertices, args.StartIndexLocation, n)
		return
	}
	for i := range va.streams {
		freq := StreamIndexedData | args.InstanceCount
		if i < len(rates) && rates[i] != 0 {
			freq = StreamInstanceData | rates[i]
		}
		d.dev.SetStreamSourceFreq(uint32(i), freq)
	}
	if args.StartInstanceLocation != 0 {
		d.bindStreams(va, args.StartInstanceLocation)
	}
	d.dev.DrawIndexedPrimitive(d.topology, args.BaseVertexLocation, args.MinIndex, numVertices, args.StartIndexLocation, n)
	for i := range va.streams {
		d.dev.SetStreamSourceFreq(uint32(i), 1)
	}
	if args.StartInstanceLocation != 0 {
		d.bindStreams(va, 0)
	}
}

// Flush ends the scene and submits queued commands through an event
// query.
func (d *Driver) Flush() {
	d.endScene()
	if q := d.eventQuery(); q != nil {
		q.Issue()
		if _, err := q.GetData(true); err != nil {
			d.logger().Warn("d3d9: flush event query", "err", err)
		}
	}
}

// Finish ends the scene and polls an event query until the GPU has caught
// up.
func (d *Driver) Finish() {
	d.endScene()
	q := d.eventQuery()
	if q == nil {
		return
	}
	q.Issue()
	for {
		done, err := q.GetData(true)
		if err != nil {
			d.logger().Warn("d3d9: poll event query", "err", err)
			return
		}
		if done {
			return
		}
		runtime.Gosched()
	}
}

func (d *Driver) eventQuery() Query {
	if d.query == nil {
		q, err := d.dev.CreateQuery(QueryEvent)
		if err != nil {
			d.warnOnce("query", "d3d9: event queries unavailable, Flush and Finish only end the scene", "err", err)
			return nil
		}
		d.query = q
	}
	return d.query
}

func typeName(v any) string { return fmt.Sprintf("%T", v) }
