// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"fmt"
)

// PipelineStateDescriptor describes the five facets a pipeline state binds.
type PipelineStateDescriptor struct {
	Label        string
	Program      *Program
	VertexLayout VertexLayout
	Rasterizer   RasterizerDescriptor
	DepthStencil DepthStencilDescriptor
	Blend        BlendDescriptor
}

// DefaultPipelineStateDescriptor returns a descriptor for program with
// default rasterizer, depth-stencil and blend states.
func DefaultPipelineStateDescriptor(program *Program, layout VertexLayout) PipelineStateDescriptor {
	return PipelineStateDescriptor{
		Program:      program,
		VertexLayout: layout,
		Rasterizer:   DefaultRasterizerDescriptor(),
		DepthStencil: DefaultDepthStencilDescriptor(),
		Blend:        DefaultBlendDescriptor(),
	}
}

// PipelineState bundles vertex layout, program, rasterizer, depth-stencil
// and blend state. SetPipelineState binds them in that order.
//
// The derived native vertex layout belongs to the pipeline state alone.
type PipelineState struct {
	resource
	program      *Program
	layout       VertexLayout
	layoutHandle NativeObject
	rasterizer   *RasterizerState
	depthStencil *DepthStencilState
	blend        *BlendState
}

func (p *PipelineState) Program() *Program                     { return p.program }
func (p *PipelineState) VertexLayout() VertexLayout            { return p.layout.clone() }
func (p *PipelineState) RasterizerState() *RasterizerState     { return p.rasterizer }
func (p *PipelineState) DepthStencilState() *DepthStencilState { return p.depthStencil }
func (p *PipelineState) BlendState() *BlendState               { return p.blend }

// NativeLayout returns the derived native vertex layout.
func (p *PipelineState) NativeLayout() NativeObject { return p.layoutHandle }

// CreatePipelineState creates a pipeline state. It derives the native vertex
// layout and the three fixed-function state objects from desc.
func (r *Renderer) CreatePipelineState(desc PipelineStateDescriptor) (ps *PipelineState, err error) {
	if err := r.checkReady(); err != nil {
		return nil, err
	}
	const typ = ResourceTypePipelineState
	if desc.Program == nil {
		return nil, r.creationFailed(typ, fmt.Errorf("%w: pipeline state without program", ErrInvalidDescriptor))
	}
	if !r.owns(desc.Program, "CreatePipelineState") {
		return nil, ErrRendererMismatch
	}
	if err := desc.VertexLayout.Validate(); err != nil {
		return nil, r.creationFailed(typ, err)
	}

	defer r.debugEvent("CreatePipelineState")()

	p := &PipelineState{program: desc.Program, layout: desc.VertexLayout.clone()}
	defer func() {
		if err == nil {
			return
		}
		if p.layoutHandle != nil {
			p.layoutHandle.Destroy()
		}
		if p.rasterizer != nil {
			p.rasterizer.Release()
		}
		if p.depthStencil != nil {
			p.depthStencil.Release()
		}
	}()

	if p.layoutHandle, err = r.driver.NewVertexLayout(&desc.VertexLayout, desc.Program.handle); err != nil {
		return nil, r.creationFailed(typ, err)
	}
	if p.rasterizer, err = r.CreateRasterizerState(desc.Rasterizer); err != nil {
		return nil, err
	}
	if p.depthStencil, err = r.CreateDepthStencilState(desc.DepthStencil); err != nil {
		return nil, err
	}
	if p.blend, err = r.CreateBlendState(desc.Blend); err != nil {
		return nil, err
	}

	desc.Program.AddReference()
	p.init(r, typ, p.layoutHandle, func() {
		p.program.Release()
		p.rasterizer.Release()
		p.depthStencil.Release()
		p.blend.Release()
	})
	if desc.Label != "" {
		p.SetDebugName(desc.Label)
	}
	return p, nil
}
