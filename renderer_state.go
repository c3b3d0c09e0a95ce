// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"github.com/gogpu/gputypes"
)

// Every setter follows the same contract: a value equal to the bound one
// makes no native call; a resource from another renderer is logged and
// ignored; otherwise the old value is released, the new one retained and
// the driver called. Slots with a default state fall back to it on nil.

func (r *Renderer) issued() { r.stats.bindsIssued.Add(1) }
func (r *Renderer) elided() { r.stats.bindsElided.Add(1) }

// detachPipeline forgets the pipeline state after one of its facets was
// changed directly, so binding it again is not skipped.
func (r *Renderer) detachPipeline() {
	release(&r.state.pipeline)
}

// SetVertexArray binds va. nil unbinds the current vertex array.
func (r *Renderer) SetVertexArray(va *VertexArray) {
	if !r.usable() {
		return
	}
	if va == r.state.vertexArray {
		r.elided()
		return
	}
	if va != nil && !r.owns(va, "SetVertexArray") {
		return
	}
	rebind(&r.state.vertexArray, va)
	if va == nil {
		r.driver.SetVertexArray(nil)
	} else {
		r.driver.SetVertexArray(va.handle)
	}
	r.issued()
}

// SetPrimitiveTopology selects how vertices assemble into primitives.
func (r *Renderer) SetPrimitiveTopology(topology gputypes.PrimitiveTopology) {
	if !r.usable() {
		return
	}
	if r.state.topologySet && r.state.topology == topology {
		r.elided()
		return
	}
	r.state.topology, r.state.topologySet = topology, true
	r.driver.SetPrimitiveTopology(topology)
	r.issued()
}

// PrimitiveTopology returns the bound primitive topology.
func (r *Renderer) PrimitiveTopology() gputypes.PrimitiveTopology { return r.state.topology }

// SetViewport sets the viewport transform.
func (r *Renderer) SetViewport(vp Viewport) {
	if !r.usable() {
		return
	}
	if r.state.viewportSet && r.state.viewport == vp {
		r.elided()
		return
	}
	r.state.viewport, r.state.viewportSet = vp, true
	r.driver.SetViewport(vp)
	r.issued()
}

// SetScissorRect sets the scissor rectangle, used when the bound rasterizer
// state enables scissoring.
func (r *Renderer) SetScissorRect(rect ScissorRect) {
	if !r.usable() {
		return
	}
	if r.state.scissorSet && r.state.scissor == rect {
		r.elided()
		return
	}
	r.state.scissor, r.state.scissorSet = rect, true
	r.driver.SetScissorRect(rect)
	r.issued()
}

// SetRasterizerState binds s. nil binds the default rasterizer state.
func (r *Renderer) SetRasterizerState(s *RasterizerState) {
	if !r.usable() {
		return
	}
	if s == nil {
		s = r.defaultRasterizer
	}
	if s == r.state.rasterizer {
		r.elided()
		return
	}
	if !r.owns(s, "SetRasterizerState") {
		return
	}
	r.detachPipeline()
	r.bindRasterizerState(s)
}

func (r *Renderer) bindRasterizerState(s *RasterizerState) {
	if s == r.state.rasterizer {
		r.elided()
		return
	}
	rebind(&r.state.rasterizer, s)
	r.driver.SetRasterizerState(s.handle)
	r.issued()
}

// SetDepthStencilState binds s. nil binds the default depth-stencil state.
func (r *Renderer) SetDepthStencilState(s *DepthStencilState) {
	if !r.usable() {
		return
	}
	if s == nil {
		s = r.defaultDepthStencil
	}
	if s == r.state.depthStencil {
		r.elided()
		return
	}
	if !r.owns(s, "SetDepthStencilState") {
		return
	}
	r.detachPipeline()
	r.bindDepthStencilState(s)
}

func (r *Renderer) bindDepthStencilState(s *DepthStencilState) {
	if s == r.state.depthStencil {
		r.elided()
		return
	}
	rebind(&r.state.depthStencil, s)
	r.driver.SetDepthStencilState(s.handle)
	r.issued()
}

// SetBlendState binds s. nil binds the default blend state.
func (r *Renderer) SetBlendState(s *BlendState) {
	if !r.usable() {
		return
	}
	if s == nil {
		s = r.defaultBlend
	}
	if s == r.state.blend {
		r.elided()
		return
	}
	if !r.owns(s, "SetBlendState") {
		return
	}
	r.detachPipeline()
	r.bindBlendState(s)
}

func (r *Renderer) bindBlendState(s *BlendState) {
	if s == r.state.blend {
		r.elided()
		return
	}
	rebind(&r.state.blend, s)
	r.driver.SetBlendState(s.handle)
	r.issued()
}

// SetRenderTarget binds a framebuffer or swap chain. nil restores the
// default target; with nothing bound it does nothing.
func (r *Renderer) SetRenderTarget(target RenderTarget) {
	if !r.usable() {
		return
	}
	if isNilTarget(target) {
		target = nil
	}
	if target == r.state.renderTarget {
		r.elided()
		return
	}
	if target != nil && !r.owns(target, "SetRenderTarget") {
		return
	}
	rebind(&r.state.renderTarget, target)
	if target == nil {
		r.driver.SetRenderTarget(nil)
	} else {
		r.driver.SetRenderTarget(target.nativeTarget())
	}
	r.issued()
}

// RenderTarget returns the bound render target, nil for the default one.
func (r *Renderer) RenderTarget() RenderTarget { return r.state.renderTarget }

func isNilTarget(t RenderTarget) bool {
	switch v := t.(type) {
	case nil:
		return true
	case *Framebuffer:
		return v == nil
	case *SwapChain:
		return v == nil
	}
	return false
}

// SetProgram binds p. nil unbinds the current program.
func (r *Renderer) SetProgram(p *Program) {
	if !r.usable() {
		return
	}
	if p == r.state.program {
		r.elided()
		return
	}
	if p != nil && !r.owns(p, "SetProgram") {
		return
	}
	r.detachPipeline()
	r.bindProgram(p)
}

func (r *Renderer) bindProgram(p *Program) {
	if p == r.state.program {
		r.elided()
		return
	}
	rebind(&r.state.program, p)
	if p == nil {
		r.driver.SetProgram(nil)
	} else {
		r.driver.SetProgram(p.handle)
	}
	r.issued()
}

// SetPipelineState binds the vertex layout, program, rasterizer,
// depth-stencil and blend state of p, in that order. Binding the pipeline
// state that is already bound does nothing. nil forgets the bound pipeline
// state and leaves its facets in place.
func (r *Renderer) SetPipelineState(p *PipelineState) {
	if !r.usable() {
		return
	}
	if p == r.state.pipeline {
		r.elided()
		return
	}
	if p == nil {
		r.detachPipeline()
		return
	}
	if !r.owns(p, "SetPipelineState") {
		return
	}

	if r.state.layoutOwner != p {
		rebind(&r.state.layoutOwner, p)
		r.driver.SetVertexLayout(p.layoutHandle)
		r.issued()
	} else {
		r.elided()
	}
	r.bindProgram(p.program)
	r.bindRasterizerState(p.rasterizer)
	r.bindDepthStencilState(p.depthStencil)
	r.bindBlendState(p.blend)
	rebind(&r.state.pipeline, p)
}

// PipelineState returns the bound pipeline state, or nil when none is bound
// or one of its facets has been changed since.
func (r *Renderer) PipelineState() *PipelineState { return r.state.pipeline }

// SetTexture binds t to a texture unit of stage. nil unbinds the unit.
func (r *Renderer) SetTexture(stage ShaderStage, unit uint32, t *Texture) {
	if !r.usable() || !r.checkUnit(stage, unit, uint32(len(r.state.textures[0])), "SetTexture") {
		return
	}
	if t != nil && !r.owns(t, "SetTexture") {
		return
	}
	r.bindTexture(stage, unit, t)
}

func (r *Renderer) bindTexture(stage ShaderStage, unit uint32, t *Texture) {
	slot := &r.state.textures[stage][unit]
	if *slot == t {
		r.elided()
		return
	}
	rebind(slot, t)
	if t == nil {
		r.driver.SetTexture(stage, unit, nil)
	} else {
		r.driver.SetTexture(stage, unit, t.handle)
	}
	r.issued()
}

// SetTextureCollection binds the textures of c to consecutive units of
// stage starting at startUnit. Elements past the last unit are dropped.
func (r *Renderer) SetTextureCollection(stage ShaderStage, startUnit uint32, c *TextureCollection) {
	if !r.usable() || c == nil || !r.checkUnit(stage, startUnit, uint32(len(r.state.textures[0])), "SetTextureCollection") {
		return
	}
	if !r.owns(c, "SetTextureCollection") {
		return
	}
	n := r.clampRange(startUnit, c.Len(), len(r.state.textures[stage]), "SetTextureCollection")
	for i := range n {
		r.bindTexture(stage, startUnit+uint32(i), c.At(i))
	}
}

// SetSamplerState binds s to a sampler unit of stage. nil binds the default
// sampler state.
func (r *Renderer) SetSamplerState(stage ShaderStage, unit uint32, s *SamplerState) {
	if !r.usable() || !r.checkUnit(stage, unit, uint32(len(r.state.samplers[0])), "SetSamplerState") {
		return
	}
	if s == nil {
		s = r.defaultSampler
	}
	if !r.owns(s, "SetSamplerState") {
		return
	}
	r.bindSamplerState(stage, unit, s)
}

func (r *Renderer) bindSamplerState(stage ShaderStage, unit uint32, s *SamplerState) {
	slot := &r.state.samplers[stage][unit]
	if *slot == s {
		r.elided()
		return
	}
	rebind(slot, s)
	r.driver.SetSamplerState(stage, unit, s.handle)
	r.issued()
}

// SetSamplerStateCollection binds the samplers of c to consecutive units of
// stage starting at startUnit. Empty slots bind the default sampler state.
func (r *Renderer) SetSamplerStateCollection(stage ShaderStage, startUnit uint32, c *SamplerStateCollection) {
	if !r.usable() || c == nil || !r.checkUnit(stage, startUnit, uint32(len(r.state.samplers[0])), "SetSamplerStateCollection") {
		return
	}
	if !r.owns(c, "SetSamplerStateCollection") {
		return
	}
	n := r.clampRange(startUnit, c.Len(), len(r.state.samplers[stage]), "SetSamplerStateCollection")
	for i := range n {
		s := c.At(i)
		if s == nil {
			s = r.defaultSampler
		}
		r.bindSamplerState(stage, startUnit+uint32(i), s)
	}
}

// SetUniformBuffer binds a uniform buffer to a slot of stage. nil unbinds
// the slot.
func (r *Renderer) SetUniformBuffer(stage ShaderStage, slot uint32, b *Buffer) {
	if !r.usable() || !r.checkUnit(stage, slot, uint32(len(r.state.uniformBuffers[0])), "SetUniformBuffer") {
		return
	}
	if b != nil {
		if !r.owns(b, "SetUniformBuffer") {
			return
		}
		if b.Type() != ResourceTypeUniformBuffer {
			Logger().Error("rhi: SetUniformBuffer with non-uniform buffer", "type", b.Type(), "name", b.name)
			return
		}
	}
	cur := &r.state.uniformBuffers[stage][slot]
	if *cur == b {
		r.elided()
		return
	}
	rebind(cur, b)
	if b == nil {
		r.driver.SetUniformBuffer(stage, slot, nil)
	} else {
		r.driver.SetUniformBuffer(stage, slot, b.handle)
	}
	r.issued()
}

// Texture returns the texture bound to a unit of stage.
func (r *Renderer) Texture(stage ShaderStage, unit uint32) *Texture {
	if stage >= shaderStageCount || unit >= uint32(len(r.state.textures[stage])) {
		return nil
	}
	return r.state.textures[stage][unit]
}

// SamplerState returns the sampler state bound to a unit of stage.
func (r *Renderer) SamplerState(stage ShaderStage, unit uint32) *SamplerState {
	if stage >= shaderStageCount || unit >= uint32(len(r.state.samplers[stage])) {
		return nil
	}
	return r.state.samplers[stage][unit]
}

func (r *Renderer) VertexArray() *VertexArray             { return r.state.vertexArray }
func (r *Renderer) Program() *Program                     { return r.state.program }
func (r *Renderer) RasterizerState() *RasterizerState     { return r.state.rasterizer }
func (r *Renderer) DepthStencilState() *DepthStencilState { return r.state.depthStencil }
func (r *Renderer) BlendState() *BlendState               { return r.state.blend }

func (r *Renderer) checkUnit(stage ShaderStage, unit, count uint32, op string) bool {
	if stage >= shaderStageCount {
		Logger().Error("rhi: invalid shader stage", "op", op, "stage", stage)
		return false
	}
	if unit >= count {
		Logger().Error("rhi: unit out of range", "op", op, "unit", unit, "units", count)
		return false
	}
	return true
}

func (r *Renderer) clampRange(start uint32, n, units int, op string) int {
	if avail := units - int(start); n > avail {
		Logger().Warn("rhi: collection exceeds unit range", "op", op, "start", start, "len", n, "units", units)
		return avail
	}
	return n
}
