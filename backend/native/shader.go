// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi"
)

// shader is a hal shader module with the resources its entry point can
// reach, reflected from the WGSL source.
type shader struct {
	object
	module   hal.ShaderModule
	stage    rhi.ShaderStage
	entry    string
	bindings []layoutEntry
}

// layoutEntry is one bind group layout entry and the renderer slot it
// is fed from.
type layoutEntry struct {
	gputypes.BindGroupLayoutEntry
	kind rhi.BindingKind
	slot uint32
}

// NewShader creates a shader module from WGSL. Native source is WGSL too;
// SPIR-V bytecode is not accepted.
func (d *Driver) NewShader(desc *rhi.ShaderDescriptor) (rhi.NativeObject, error) {
	if desc.Stage != rhi.ShaderStageVertex && desc.Stage != rhi.ShaderStageFragment {
		return nil, fmt.Errorf("%w: %v", rhi.ErrShaderStage, desc.Stage)
	}
	src, entry := desc.Source.WGSL, desc.Source.EntryPoint
	if src == "" {
		src = desc.Source.Native
	}
	if src == "" {
		if len(desc.Source.Bytecode) > 0 {
			return nil, fmt.Errorf("%w: shader bytecode, want WGSL", rhi.ErrUnsupported)
		}
		return nil, fmt.Errorf("%w: no WGSL source", rhi.ErrMissingData)
	}
	module, entry, err := rhi.ParseWGSL(src, desc.Stage, entry)
	if errors.Is(err, rhi.ErrShaderStage) && desc.Source.WGSL == "" && desc.Source.EntryPoint == "main" {
		// The renderer names native entry points "main" by default.
		module, entry, err = rhi.ParseWGSL(src, desc.Stage, "")
	}
	if err != nil {
		return nil, err
	}
	bindings, err := reflectBindings(module, desc.Stage)
	if err != nil {
		return nil, err
	}
	sm, err := d.dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  d.label("shader", desc.Label),
		Source: hal.ShaderSource{WGSL: src},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create %v module: %w", rhi.ErrShaderCompilation, desc.Stage, err)
	}
	d.logger().Debug("native: shader created", "stage", desc.Stage, "entry", entry, "bindings", len(bindings))
	return &shader{
		object:   d.newObject("shader"),
		module:   sm,
		stage:    desc.Stage,
		entry:    entry,
		bindings: bindings,
	}, nil
}

// reflectBindings builds the layout entries of every resource a module
// declares, checked against the slot limits.
func reflectBindings(module *ir.Module, stage rhi.ShaderStage) ([]layoutEntry, error) {
	bindings, err := rhi.ShaderBindings(module)
	if err != nil {
		return nil, err
	}
	visibility := gputypes.ShaderStageVertex
	if stage == rhi.ShaderStageFragment {
		visibility = gputypes.ShaderStageFragment
	}
	types := make(map[[2]uint32]ir.TypeInner, len(bindings))
	for _, gv := range module.GlobalVariables {
		if gv.Binding != nil && int(gv.Type) < len(module.Types) {
			types[[2]uint32{gv.Binding.Group, gv.Binding.Binding}] = module.Types[gv.Type].Inner
		}
	}

	out := make([]layoutEntry, 0, len(bindings))
	for _, b := range bindings {
		e := layoutEntry{kind: b.Kind, slot: b.Slot}
		e.Binding, e.Visibility = b.Binding, visibility
		limit := uint32(maxTextureUnits)
		inner := types[[2]uint32{b.Group, b.Binding}]
		switch b.Kind {
		case rhi.BindingUniformBuffer:
			limit = maxUniformSlots
			e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
		case rhi.BindingTexture:
			img, _ := inner.(ir.ImageType)
			e.Texture = &gputypes.TextureBindingLayout{
				SampleType:    sampleType(img),
				ViewDimension: imageViewDimension(img),
				Multisampled:  img.Multisampled,
			}
		case rhi.BindingSampler:
			st := gputypes.SamplerBindingTypeFiltering
			if s, ok := inner.(ir.SamplerType); ok && s.Comparison {
				st = gputypes.SamplerBindingTypeComparison
			}
			e.Sampler = &gputypes.SamplerBindingLayout{Type: st}
		}
		if b.Slot >= limit {
			return nil, fmt.Errorf("%w: %q uses slot %d of %d", rhi.ErrShaderBinding, b.Name, b.Slot, limit)
		}
		out = append(out, e)
	}
	return out, nil
}

func sampleType(img ir.ImageType) gputypes.TextureSampleType {
	if img.Class == ir.ImageClassDepth {
		return gputypes.TextureSampleTypeDepth
	}
	switch img.SampledKind {
	case ir.ScalarSint:
		return gputypes.TextureSampleTypeSint
	case ir.ScalarUint:
		return gputypes.TextureSampleTypeUint
	}
	return gputypes.TextureSampleTypeFloat
}

func imageViewDimension(img ir.ImageType) gputypes.TextureViewDimension {
	switch img.Dim {
	case ir.Dim1D:
		return gputypes.TextureViewDimension1D
	case ir.Dim3D:
		return gputypes.TextureViewDimension3D
	case ir.DimCube:
		if img.Arrayed {
			return gputypes.TextureViewDimensionCubeArray
		}
		return gputypes.TextureViewDimensionCube
	}
	if img.Arrayed {
		return gputypes.TextureViewDimension2DArray
	}
	return gputypes.TextureViewDimension2D
}

func (s *shader) Destroy() {
	if !s.release() {
		return
	}
	d, module := s.d, s.module
	d.retire(func() { d.dev.DestroyShaderModule(module) })
}

// program pairs a vertex and a fragment shader with the pipeline layout
// both share: group 0 holds uniform buffers and group 1 textures and
// samplers, following the WGSL binding convention.
type program struct {
	object
	id     uint64
	vs, fs *shader

	entries [bindGroupCount][]layoutEntry
	layouts [bindGroupCount]hal.BindGroupLayout
	layout  hal.PipelineLayout

	// empty holds a bind group for each group without entries.
	empty [bindGroupCount]hal.BindGroup
}

func (d *Driver) NewProgram(vertex, fragment rhi.NativeObject) (rhi.NativeObject, error) {
	vs, ok := vertex.(*shader)
	if !ok || vs.stage != rhi.ShaderStageVertex {
		return nil, fmt.Errorf("%w: vertex shader is not a native vertex shader", rhi.ErrShaderStage)
	}
	fs, ok := fragment.(*shader)
	if !ok || fs.stage != rhi.ShaderStageFragment {
		return nil, fmt.Errorf("%w: fragment shader is not a native fragment shader", rhi.ErrShaderStage)
	}
	if vs.destroyed || fs.destroyed {
		return nil, errDestroyed
	}
	entries, err := mergeEntries(vs.bindings, fs.bindings)
	if err != nil {
		return nil, err
	}
	p := &program{vs: vs, fs: fs, entries: entries}
	if err := d.createLayouts(p); err != nil {
		p.releaseLayouts(d)
		return nil, err
	}
	p.object = d.newObject("program")
	p.id = d.nextID.Add(1)
	return p, nil
}

// mergeEntries combines the entries of both stages by group, widening the
// visibility of resources both stages use.
func mergeEntries(stages ...[]layoutEntry) ([bindGroupCount][]layoutEntry, error) {
	var out [bindGroupCount][]layoutEntry
	for _, entries := range stages {
		for _, e := range entries {
			g := rhi.WGSLTextureGroup
			if e.kind == rhi.BindingUniformBuffer {
				g = rhi.WGSLUniformGroup
			}
			i := slices.IndexFunc(out[g], func(o layoutEntry) bool { return o.Binding == e.Binding })
			if i < 0 {
				out[g] = append(out[g], e)
				continue
			}
			o := &out[g][i]
			if !sameResource(o, &e) {
				return out, fmt.Errorf("%w: stages disagree on @group(%d) @binding(%d)", rhi.ErrShaderBinding, g, e.Binding)
			}
			o.Visibility |= e.Visibility
		}
	}
	for g := range out {
		slices.SortFunc(out[g], func(a, b layoutEntry) int { return int(a.Binding) - int(b.Binding) })
	}
	return out, nil
}

func sameResource(a, b *layoutEntry) bool {
	switch {
	case a.kind != b.kind:
		return false
	case a.Texture != nil:
		return *a.Texture == *b.Texture
	case a.Sampler != nil:
		return *a.Sampler == *b.Sampler
	}
	return true
}

func (d *Driver) createLayouts(p *program) error {
	for g := range p.layouts {
		entries := make([]gputypes.BindGroupLayoutEntry, len(p.entries[g]))
		for i := range entries {
			entries[i] = p.entries[g][i].BindGroupLayoutEntry
		}
		l, err := d.dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   d.label("bind group layout", fmt.Sprint(g)),
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("native: create bind group layout %d: %w", g, err)
		}
		p.layouts[g] = l
		if len(entries) == 0 {
			if p.empty[g], err = d.dev.CreateBindGroup(&hal.BindGroupDescriptor{Label: d.label("empty bind group", ""), Layout: l}); err != nil {
				return fmt.Errorf("native: create empty bind group %d: %w", g, err)
			}
		}
	}
	l, err := d.dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            d.label("pipeline layout", ""),
		BindGroupLayouts: p.layouts[:],
	})
	if err != nil {
		return fmt.Errorf("native: create pipeline layout: %w", err)
	}
	p.layout = l
	return nil
}

func (p *program) releaseLayouts(d *Driver) {
	for g := range p.layouts {
		if p.empty[g] != nil {
			d.dev.DestroyBindGroup(p.empty[g])
		}
		if p.layouts[g] != nil {
			d.dev.DestroyBindGroupLayout(p.layouts[g])
		}
	}
	if p.layout != nil {
		d.dev.DestroyPipelineLayout(p.layout)
	}
}

// Destroy releases the program with its pipelines once the GPU is done
// with them.
func (p *program) Destroy() {
	if !p.release() {
		return
	}
	d := p.d
	if d.bound.program == p {
		d.setProgram(nil)
	}
	for _, pl := range d.pipelines.evict(func(e *pipelineEntry) bool { return e.program == p.id }) {
		d.retire(func() { d.dev.DestroyRenderPipeline(pl) })
	}
	d.retire(func() { p.releaseLayouts(d) })
}
