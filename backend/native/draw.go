// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi"
)

// recorder is the open command encoder and render pass, with the state
// already applied to the pass.
type recorder struct {
	enc  hal.CommandEncoder
	pass hal.RenderPassEncoder

	// serial numbers encoders. Resources remember the serial of the last
	// encoder that used them.
	serial uint64

	// garbage is released after the open encoder's submission completes.
	garbage []func()

	pipeline hal.RenderPipeline
	groups   [bindGroupCount]hal.BindGroup
	vertex   [maxVertexBuffers]vertexBinding
	index    indexBinding
	viewport rhi.Viewport
	scissor  [4]uint32
}

type vertexBinding struct {
	buf    *buffer
	offset uint32
}

type indexBinding struct {
	buf    *buffer
	format gputypes.IndexFormat
}

// resetPass forgets the state applied to the previous pass.
func (r *recorder) resetPass() {
	r.pipeline = nil
	r.groups = [bindGroupCount]hal.BindGroup{}
	r.vertex = [maxVertexBuffers]vertexBinding{}
	r.index = indexBinding{}
	r.viewport = rhi.Viewport{Width: -1}
	r.scissor = [4]uint32{^uint32(0), ^uint32(0), ^uint32(0), ^uint32(0)}
}

// retiredObject is released once submission after completes.
type retiredObject struct {
	after   uint64
	release func()
}

// boundState is the state set through the rhi.Driver setters. It is
// applied at draw time.
type boundState struct {
	target      renderTarget
	viewport    rhi.Viewport
	hasViewport bool
	scissor     rhi.ScissorRect
	topology    gputypes.PrimitiveTopology

	vertexArray  *vertexArray
	layout       *vertexLayout
	program      *program
	rasterizer   *rasterizerState
	depthStencil *depthStencilState
	blend        *blendState

	textures [2][maxTextureUnits]*texture
	samplers [2][maxTextureUnits]*sampler
	uniforms [2][maxUniformSlots]*buffer
	groups   [bindGroupCount]boundGroup

	clear pendingClear
}

// boundGroup is the bind group built for the bound resources of one
// group, with the resources it references.
type boundGroup struct {
	group hal.BindGroup
	// owned groups are destroyed when replaced; program empty groups are not.
	owned    bool
	dirty    bool
	buffers  []*buffer
	textures []*texture
}

// pendingClear is a clear not yet recorded. It becomes the load operation
// of the next pass on the target.
type pendingClear struct {
	flags   rhi.ClearFlags
	color   gputypes.Color
	depth   float32
	stencil uint32
}

// retire releases fn once the GPU no longer uses what it frees.
func (d *Driver) retire(fn func()) {
	switch {
	case d.rec.enc != nil:
		d.rec.garbage = append(d.rec.garbage, fn)
	case d.lastSubmit <= d.queue.PollCompleted():
		fn()
	default:
		d.retired = append(d.retired, retiredObject{after: d.lastSubmit, release: fn})
	}
}

func (d *Driver) reclaim() { d.releaseRetired(false) }

// releaseRetired runs the releases whose submission completed, or all of
// them when force is set.
func (d *Driver) releaseRetired(force bool) {
	if len(d.retired) == 0 {
		return
	}
	done := d.queue.PollCompleted()
	var run []func()
	keep := d.retired[:0]
	for _, r := range d.retired {
		if force || r.after <= done {
			run = append(run, r.release)
		} else {
			keep = append(keep, r)
		}
	}
	clear(d.retired[len(keep):])
	d.retired = keep
	for _, fn := range run {
		fn()
	}
}

// beforeWrite submits the open encoder when it references a resource
// about to be overwritten through the queue. Queue writes execute before
// the commands of the next submission, so without this a draw recorded
// earlier would see the new contents.
func (d *Driver) beforeWrite(usedIn uint64) {
	if d.rec.enc != nil && usedIn == d.rec.serial {
		d.stats.WriteStalls++
		d.Flush()
	}
}

func (d *Driver) beginEncoder() bool {
	if d.rec.enc != nil {
		return true
	}
	enc, err := d.dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: d.label("encoder", "")})
	if err != nil {
		d.logger().Error("native: create command encoder", "err", err)
		return false
	}
	if err := enc.BeginEncoding(d.label("frame", "")); err != nil {
		enc.Destroy()
		d.logger().Error("native: begin encoding", "err", err)
		return false
	}
	d.rec.enc = enc
	d.rec.serial++
	return true
}

// openPass begins a render pass on the bound target. A pending clear
// becomes its load operation.
func (d *Driver) openPass() bool {
	if d.rec.pass != nil {
		return true
	}
	t := d.bound.target
	colors, depth, err := t.views()
	if err != nil {
		d.logger().Error("native: render target", "err", err)
		return false
	}
	if !d.beginEncoder() {
		return false
	}
	c := d.bound.clear
	d.bound.clear = pendingClear{}

	desc := &hal.RenderPassDescriptor{Label: d.label("pass", "")}
	for _, v := range colors {
		a := hal.RenderPassColorAttachment{View: v, LoadOp: gputypes.LoadOpLoad, StoreOp: gputypes.StoreOpStore}
		if c.flags&rhi.ClearColor != 0 {
			a.LoadOp, a.ClearValue = gputypes.LoadOpClear, c.color
		}
		desc.ColorAttachments = append(desc.ColorAttachments, a)
	}
	if depth != nil {
		ds := &hal.RenderPassDepthStencilAttachment{
			View:            depth,
			DepthLoadOp:     gputypes.LoadOpLoad,
			DepthStoreOp:    gputypes.StoreOpStore,
			DepthClearValue: 1,
		}
		if c.flags&rhi.ClearDepth != 0 {
			ds.DepthLoadOp, ds.DepthClearValue = gputypes.LoadOpClear, c.depth
		}
		if rhi.HasStencil(t.formats().depth) {
			ds.StencilLoadOp, ds.StencilStoreOp = gputypes.LoadOpLoad, gputypes.StoreOpStore
			if c.flags&rhi.ClearStencil != 0 {
				ds.StencilLoadOp, ds.StencilClearValue = gputypes.LoadOpClear, c.stencil
			}
		}
		desc.DepthStencilAttachment = ds
	}
	d.rec.pass = d.rec.enc.BeginRenderPass(desc)
	d.rec.resetPass()
	for _, tex := range t.textures() {
		tex.usedIn = d.rec.serial
	}
	d.stats.Passes++
	return true
}

func (d *Driver) endPass() {
	if d.rec.pass != nil {
		d.rec.pass.End()
		d.rec.pass = nil
	}
}

// flushClear records a pending clear as an empty pass.
func (d *Driver) flushClear() {
	if d.bound.clear.flags == 0 {
		return
	}
	if d.bound.target == nil || !d.openPass() {
		d.bound.clear = pendingClear{}
		return
	}
	d.endPass()
}

// Flush submits the recorded commands.
func (d *Driver) Flush() {
	d.flushClear()
	if d.rec.enc == nil {
		d.reclaim()
		return
	}
	d.endPass()
	enc, garbage := d.rec.enc, d.rec.garbage
	d.rec.enc, d.rec.garbage = nil, nil
	d.stats.Flushes++

	cb, err := enc.EndEncoding()
	if err != nil {
		d.logger().Error("native: end encoding", "err", err)
		enc.DiscardEncoding()
		enc.Destroy()
		for _, fn := range garbage {
			d.retire(fn)
		}
		return
	}
	idx, err := d.queue.Submit([]hal.CommandBuffer{cb})
	if err != nil {
		d.logger().Error("native: submit", "err", fmt.Errorf("%w: %w", ErrDeviceLost, err))
		idx = d.lastSubmit
	} else {
		d.lastSubmit = idx
		d.stats.Submits++
	}
	d.retired = append(d.retired, retiredObject{after: idx, release: func() {
		d.dev.FreeCommandBuffer(cb)
		enc.Destroy()
	}})
	for _, fn := range garbage {
		d.retired = append(d.retired, retiredObject{after: idx, release: fn})
	}
	d.reclaim()
}

// Finish submits the recorded commands and waits for the device.
func (d *Driver) Finish() {
	d.Flush()
	if d.queue.PollCompleted() < d.lastSubmit {
		if err := d.dev.WaitIdle(); err != nil {
			d.logger().Error("native: wait idle", "err", err)
		}
	}
	d.reclaim()
}

// SetRenderTarget binds a framebuffer or swap chain. nil unbinds; the
// native driver has no default target. Textures attached to the new
// target are unbound from the shader stages.
func (d *Driver) SetRenderTarget(obj rhi.NativeObject) {
	var t renderTarget
	if obj != nil {
		var ok bool
		if t, ok = obj.(renderTarget); !ok {
			d.logger().Error("native: render target from another driver", "type", typeName(obj))
			return
		}
	}
	if t == d.bound.target {
		return
	}
	d.flushClear()
	d.endPass()
	d.bound.target = t
	if t == nil {
		return
	}
	attached := t.textures()
	for stage := range d.bound.textures {
		for unit, bt := range d.bound.textures[stage] {
			if bt != nil && slices.Contains(attached, bt) {
				d.logger().Debug("native: unbinding texture attached to the render target", "stage", rhi.ShaderStage(stage), "unit", unit)
				d.bound.textures[stage][unit] = nil
				d.bound.groups[rhi.WGSLTextureGroup].dirty = true
			}
		}
	}
}

func (d *Driver) SetViewport(vp rhi.Viewport) {
	d.bound.viewport, d.bound.hasViewport = vp, true
}

func (d *Driver) SetScissorRect(rect rhi.ScissorRect) { d.bound.scissor = rect }

func (d *Driver) SetPrimitiveTopology(t gputypes.PrimitiveTopology) { d.bound.topology = t }

func (d *Driver) SetVertexArray(obj rhi.NativeObject) {
	va, ok := obj.(*vertexArray)
	if obj != nil && !ok {
		d.logger().Error("native: vertex array from another driver", "type", typeName(obj))
	}
	d.bound.vertexArray = va
}

func (d *Driver) SetVertexLayout(obj rhi.NativeObject) {
	l, ok := obj.(*vertexLayout)
	if obj != nil && !ok {
		d.logger().Error("native: vertex layout from another driver", "type", typeName(obj))
	}
	d.bound.layout = l
}

func (d *Driver) SetProgram(obj rhi.NativeObject) {
	p, ok := obj.(*program)
	if obj != nil && !ok {
		d.logger().Error("native: program from another driver", "type", typeName(obj))
	}
	d.setProgram(p)
}

// setProgram binds p. Bind groups are rebuilt for its layouts.
func (d *Driver) setProgram(p *program) {
	if d.bound.program == p {
		return
	}
	d.bound.program = p
	for g := range d.bound.groups {
		d.bound.groups[g].dirty = true
	}
}

func (d *Driver) SetRasterizerState(obj rhi.NativeObject) {
	s, _ := obj.(*rasterizerState)
	d.bound.rasterizer = s
}

func (d *Driver) SetDepthStencilState(obj rhi.NativeObject) {
	s, _ := obj.(*depthStencilState)
	d.bound.depthStencil = s
}

func (d *Driver) SetBlendState(obj rhi.NativeObject) {
	s, _ := obj.(*blendState)
	d.bound.blend = s
}

// SetTexture binds a texture to a unit. A texture attached to the bound
// render target cannot be sampled and is not bound.
func (d *Driver) SetTexture(stage rhi.ShaderStage, unit uint32, res rhi.NativeResource) {
	if int(stage) >= len(d.bound.textures) || unit >= maxTextureUnits {
		d.logger().Error("native: texture unit out of range", "stage", stage, "unit", unit)
		return
	}
	t, _ := res.(*texture)
	if t != nil && d.bound.target != nil && slices.Contains(d.bound.target.textures(), t) {
		d.warnOnce("sample-target", "native: texture is attached to the render target, not binding", "name", t.label)
		t = nil
	}
	if d.bound.textures[stage][unit] != t {
		d.bound.textures[stage][unit] = t
		d.bound.groups[rhi.WGSLTextureGroup].dirty = true
	}
}

func (d *Driver) SetSamplerState(stage rhi.ShaderStage, unit uint32, obj rhi.NativeObject) {
	if int(stage) >= len(d.bound.samplers) || unit >= maxTextureUnits {
		d.logger().Error("native: sampler unit out of range", "stage", stage, "unit", unit)
		return
	}
	s, _ := obj.(*sampler)
	if d.bound.samplers[stage][unit] != s {
		d.bound.samplers[stage][unit] = s
		d.bound.groups[rhi.WGSLTextureGroup].dirty = true
	}
}

func (d *Driver) SetUniformBuffer(stage rhi.ShaderStage, slot uint32, res rhi.NativeResource) {
	if int(stage) >= len(d.bound.uniforms) || slot >= maxUniformSlots {
		d.logger().Error("native: uniform slot out of range", "stage", stage, "slot", slot)
		return
	}
	b, _ := res.(*buffer)
	if d.bound.uniforms[stage][slot] != b {
		d.bound.uniforms[stage][slot] = b
		d.bound.groups[rhi.WGSLUniformGroup].dirty = true
	}
}

// Clear clears the bound target. The clear is deferred to the load
// operation of the next pass, so consecutive clears merge.
func (d *Driver) Clear(flags rhi.ClearFlags, color gputypes.Color, depth float32, stencil uint32) {
	if flags == 0 {
		return
	}
	if d.bound.target == nil {
		d.warnOnce("clear-no-target", "native: clear without a render target, ignoring")
		return
	}
	d.endPass()
	c := &d.bound.clear
	c.flags |= flags
	if flags&rhi.ClearColor != 0 {
		c.color = color
	}
	if flags&rhi.ClearDepth != 0 {
		c.depth = depth
	}
	if flags&rhi.ClearStencil != 0 {
		c.stencil = stencil
	}
}

func (d *Driver) Draw(args rhi.DrawArguments) {
	if !d.prepareDraw(false) {
		return
	}
	d.rec.pass.Draw(args.VertexCountPerInstance, max(args.InstanceCount, 1), args.StartVertexLocation, args.StartInstanceLocation)
	d.stats.Draws++
}

func (d *Driver) DrawIndexed(args rhi.DrawIndexedArguments) {
	if va := d.bound.vertexArray; va == nil || va.index == nil {
		d.warnOnce("draw-no-index", "native: indexed draw without an index buffer, skipping")
		return
	}
	if !d.prepareDraw(true) {
		return
	}
	d.rec.pass.DrawIndexed(args.IndexCountPerInstance, max(args.InstanceCount, 1),
		args.StartIndexLocation, args.BaseVertexLocation, args.StartInstanceLocation)
	d.stats.Draws++
}

// prepareDraw makes the bound state current in an open pass. It reports
// false when the draw must be skipped.
func (d *Driver) prepareDraw(indexed bool) bool {
	b := &d.bound
	switch {
	case b.target == nil:
		d.warnOnce("draw-no-target", "native: draw without a render target, skipping")
		return false
	case b.program == nil:
		d.warnOnce("draw-no-program", "native: draw without a program, skipping")
		return false
	case !d.checkVertexInput():
		return false
	}
	pl, err := d.pipeline(indexed)
	if err != nil {
		d.warnOnce("pipeline:"+err.Error(), "native: create render pipeline, skipping draws", "err", err)
		return false
	}
	if !d.updateGroups() || !d.openPass() {
		return false
	}
	d.applyPassState(pl, indexed)
	return true
}

// checkVertexInput reports whether every slot of the bound layout has a
// vertex buffer.
func (d *Driver) checkVertexInput() bool {
	l, va := d.bound.layout, d.bound.vertexArray
	if l == nil {
		return true
	}
	for i, s := range l.slots {
		if s.step == gputypes.VertexStepModeVertexBufferNotUsed {
			continue
		}
		if va == nil || i >= len(va.buffers) || va.buffers[i] == nil {
			d.warnOnce(fmt.Sprintf("vertex-slot:%d", i), "native: no vertex buffer in a used input slot, skipping draw", "slot", i)
			return false
		}
	}
	return true
}

// pipeline returns the render pipeline of the bound state.
func (d *Driver) pipeline(indexed bool) (hal.RenderPipeline, error) {
	b := &d.bound
	p := b.program
	if p.vs.destroyed || p.fs.destroyed {
		return nil, errDestroyed
	}
	rs := &defaultRasterizer
	if b.rasterizer != nil {
		rs = &b.rasterizer.desc
	}
	ds := &defaultDepthStencil
	if b.depthStencil != nil {
		ds = &b.depthStencil.desc
	}
	bl := &defaultBlend
	if b.blend != nil {
		bl = &b.blend.desc
	}
	fmts := b.target.formats()
	key := pipelineKey{
		program:      p.id,
		raster:       rasterizerKey(rs),
		depthStencil: *ds,
		blend:        blendKey(bl),
		topology:     b.topology,
		formats:      *fmts,
	}
	if b.layout != nil {
		key.layout = b.layout.id
	}
	if b.vertexArray != nil {
		key.strides = b.vertexArray.strideKey
	}
	if indexed && isStrip(b.topology) {
		key.strip = b.vertexArray.indexFormat
	}

	pl, created, err := d.pipelines.getOrCreate(key, func() *hal.RenderPipelineDescriptor {
		return d.pipelineDesc(rs, ds, bl, fmts, key.strip)
	})
	if created && d.opts.Debug {
		d.logger().Debug("native: pipeline created", "program", key.program, "layout", key.layout, "cached", d.pipelines.size())
	}
	return pl, err
}

func (d *Driver) pipelineDesc(rs *rhi.RasterizerDescriptor, ds *rhi.DepthStencilDescriptor,
	bl *rhi.BlendDescriptor, fmts *targetFormats, strip gputypes.IndexFormat,
) *hal.RenderPipelineDescriptor {
	b := &d.bound
	p := b.program
	var buffers []gputypes.VertexBufferLayout
	if b.layout != nil {
		buffers = b.layout.buffers(b.vertexArray)
	}
	desc := &hal.RenderPipelineDescriptor{
		Label:  d.label("pipeline", p.label),
		Layout: p.layout,
		Vertex: hal.VertexState{Module: p.vs.module, EntryPoint: p.vs.entry, Buffers: buffers},
		Primitive: gputypes.PrimitiveState{
			Topology:  b.topology,
			FrontFace: rs.FrontFace,
			CullMode:  rs.CullMode,
		},
		Multisample: gputypes.DefaultMultisampleState(),
		Fragment: &hal.FragmentState{
			Module:     p.fs.module,
			EntryPoint: p.fs.entry,
			Targets:    colorTargets(bl, fmts),
		},
	}
	if strip != gputypes.IndexFormatUndefined {
		desc.Primitive.StripIndexFormat = &strip
	}
	if fmts.depth != gputypes.TextureFormatUndefined {
		dss := halDepthStencil(ds, fmts.depth)
		dss.DepthBias = rs.DepthBias
		dss.DepthBiasSlopeScale = rs.SlopeScaledDepthBias
		dss.DepthBiasClamp = rs.DepthBiasClamp
		desc.DepthStencil = dss
	}
	return desc
}

// updateGroups rebuilds the dirty bind groups of the bound program. It
// reports false when a resource the program reads is not bound.
func (d *Driver) updateGroups() bool {
	p := d.bound.program
	for g := range d.bound.groups {
		bg := &d.bound.groups[g]
		if !bg.dirty && bg.group != nil {
			continue
		}
		if len(p.entries[g]) == 0 {
			d.replaceGroup(bg, boundGroup{group: p.empty[g]})
			continue
		}
		next, ok := d.buildGroup(p, g)
		if !ok {
			return false
		}
		d.replaceGroup(bg, next)
	}
	return true
}

func (d *Driver) replaceGroup(bg *boundGroup, next boundGroup) {
	if bg.owned && bg.group != nil {
		old := bg.group
		d.retire(func() { d.dev.DestroyBindGroup(old) })
	}
	*bg = next
}

// releaseGroups destroys the bound bind groups. The GPU must be idle.
func (d *Driver) releaseGroups() {
	for g := range d.bound.groups {
		bg := &d.bound.groups[g]
		if bg.owned && bg.group != nil {
			d.dev.DestroyBindGroup(bg.group)
		}
		*bg = boundGroup{}
	}
}

// buildGroup creates bind group g of p from the bound resources.
func (d *Driver) buildGroup(p *program, g int) (boundGroup, bool) {
	b := &d.bound
	next := boundGroup{owned: true}
	entries := make([]gputypes.BindGroupEntry, 0, len(p.entries[g]))
	for i := range p.entries[g] {
		e := &p.entries[g][i]
		var res gputypes.BindingResource
		switch e.kind {
		case rhi.BindingUniformBuffer:
			u := pick(d, e, b.uniforms[rhi.ShaderStageVertex][e.slot], b.uniforms[rhi.ShaderStageFragment][e.slot])
			if u == nil {
				d.warnOnce(fmt.Sprintf("uniform:%d", e.slot), "native: uniform buffer slot not bound, skipping draw", "slot", e.slot)
				return next, false
			}
			res = gputypes.BufferBinding{Buffer: u.buf.NativeHandle(), Size: uint64(u.width)}
			next.buffers = append(next.buffers, u)
		case rhi.BindingTexture:
			t := pick(d, e, b.textures[rhi.ShaderStageVertex][e.slot], b.textures[rhi.ShaderStageFragment][e.slot])
			if t == nil {
				d.warnOnce(fmt.Sprintf("texture:%d", e.slot), "native: texture unit not bound, skipping draw", "unit", e.slot)
				return next, false
			}
			if t.dim != e.Texture.ViewDimension {
				d.warnOnce(fmt.Sprintf("texture-dim:%d", e.slot), "native: texture kind does not match the shader, skipping draw",
					"unit", e.slot, "texture", t.dim, "shader", e.Texture.ViewDimension)
				return next, false
			}
			res = gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()}
			next.textures = append(next.textures, t)
		case rhi.BindingSampler:
			var native hal.Sampler
			if s := pick(d, e, b.samplers[rhi.ShaderStageVertex][e.slot], b.samplers[rhi.ShaderStageFragment][e.slot]); s != nil {
				native = s.native
			} else if native = d.fallbackSampler(); native == nil {
				return next, false
			}
			res = gputypes.SamplerBinding{Sampler: native.NativeHandle()}
		}
		entries = append(entries, gputypes.BindGroupEntry{Binding: e.Binding, Resource: res})
	}
	group, err := d.dev.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   d.label("bind group", fmt.Sprint(g)),
		Layout:  p.layouts[g],
		Entries: entries,
	})
	if err != nil {
		d.logger().Error("native: create bind group", "group", g, "err", err)
		return next, false
	}
	d.stats.BindGroups++
	next.group = group
	return next, true
}

// pick returns the resource bound for a layout entry. A resource both
// stages see is taken from the vertex stage when the two disagree.
func pick[T any](d *Driver, e *layoutEntry, vertex, fragment *T) *T {
	vis := e.Visibility
	switch {
	case vis&gputypes.ShaderStageVertex != 0 && vertex != nil:
		if vis&gputypes.ShaderStageFragment != 0 && fragment != nil && fragment != vertex {
			d.warnOnce(fmt.Sprintf("stage-conflict:%d:%d", e.kind, e.slot),
				"native: stages bind different resources to a shared slot, using the vertex one", "slot", e.slot)
		}
		return vertex
	case vis&gputypes.ShaderStageFragment != 0:
		return fragment
	}
	return nil
}

// fallbackSampler is bound to sampler slots nothing was set on.
func (d *Driver) fallbackSampler() hal.Sampler {
	if d.defaultSampler == nil {
		desc := rhi.DefaultSamplerDescriptor()
		s, err := d.samplers.Acquire(desc, func() (hal.Sampler, error) {
			sd := samplerDesc(&desc, d.label("default sampler", ""))
			return d.dev.CreateSampler(&sd)
		})
		if err != nil {
			d.logger().Error("native: create default sampler", "err", err)
			return nil
		}
		d.defaultSampler = s
	}
	return d.defaultSampler
}

// applyPassState records the state the pass does not have yet.
func (d *Driver) applyPassState(pl hal.RenderPipeline, indexed bool) {
	r, b := &d.rec, &d.bound
	if r.pipeline != pl {
		r.pass.SetPipeline(pl)
		r.pipeline = pl
	}
	for g := range b.groups {
		bg := &b.groups[g]
		if r.groups[g] != bg.group {
			r.pass.SetBindGroup(uint32(g), bg.group, nil)
			r.groups[g] = bg.group
		}
		for _, u := range bg.buffers {
			u.usedIn = r.serial
		}
		for _, t := range bg.textures {
			t.usedIn = r.serial
		}
	}
	if va := b.vertexArray; va != nil && b.layout != nil {
		for i := range b.layout.slots {
			if i >= len(va.buffers) || va.buffers[i] == nil {
				continue
			}
			vb := vertexBinding{va.buffers[i], va.offsets[i]}
			if r.vertex[i] != vb {
				r.pass.SetVertexBuffer(uint32(i), vb.buf.buf, uint64(vb.offset))
				r.vertex[i] = vb
			}
			vb.buf.usedIn = r.serial
		}
	}
	if indexed {
		va := b.vertexArray
		ib := indexBinding{va.index, va.indexFormat}
		if r.index != ib {
			r.pass.SetIndexBuffer(ib.buf.buf, ib.format, 0)
			r.index = ib
		}
		ib.buf.usedIn = r.serial
	}

	w, h := b.target.size()
	vp := rhi.Viewport{Width: float32(w), Height: float32(h), MaxDepth: 1}
	if b.hasViewport {
		vp = b.viewport
	}
	if r.viewport != vp {
		r.pass.SetViewport(vp.X, vp.Y, vp.Width, vp.Height, vp.MinDepth, vp.MaxDepth)
		r.viewport = vp
	}
	sc := [4]uint32{0, 0, w, h}
	if b.rasterizer != nil && b.rasterizer.desc.ScissorEnable {
		sc = clampScissor(b.scissor, w, h)
	}
	if r.scissor != sc {
		r.pass.SetScissorRect(sc[0], sc[1], sc[2], sc[3])
		r.scissor = sc
	}
}

// clampScissor clips rect to a w by h target and returns x, y, width and
// height.
func clampScissor(rect rhi.ScissorRect, w, h uint32) [4]uint32 {
	clip := func(v int64, limit uint32) uint32 {
		return uint32(min(max(v, 0), int64(limit)))
	}
	x0, y0 := clip(int64(rect.X), w), clip(int64(rect.Y), h)
	x1 := clip(int64(rect.X)+int64(rect.Width), w)
	y1 := clip(int64(rect.Y)+int64(rect.Height), h)
	return [4]uint32{x0, y0, x1 - x0, y1 - y0}
}
