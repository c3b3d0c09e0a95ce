// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gogpu/naga/hlsl"

	"github.com/gogpu/rhi"
)

// shader is a vertex or pixel shader object.
type shader struct {
	object
	obj      Object
	stage    rhi.ShaderStage
	bytecode []byte
	wgsl     bool
}

// NewShader creates a shader from bytecode, HLSL or WGSL. HLSL and WGSL
// need a Compiler. HLSL must declare its resources at the registers of
// their renderer slots: b for uniform buffers, t for textures and s for
// samplers.
func (d *Driver) NewShader(desc *rhi.ShaderDescriptor) (rhi.NativeObject, error) {
	if desc.Stage != rhi.ShaderStageVertex && desc.Stage != rhi.ShaderStageFragment {
		return nil, fmt.Errorf("%w: %v", rhi.ErrShaderStage, desc.Stage)
	}
	code, wgsl := desc.Source.Bytecode, false
	if len(code) == 0 {
		src, entry := desc.Source.Native, desc.Source.EntryPoint
		if desc.Source.WGSL != "" {
			var err error
			if src, entry, err = d.translate(desc); err != nil {
				return nil, err
			}
			wgsl = true
		}
		if src == "" {
			return nil, fmt.Errorf("%w: no HLSL source or bytecode", rhi.ErrMissingData)
		}
		var err error
		if code, err = d.compile(desc.Stage, src, entry); err != nil {
			return nil, err
		}
	}

	var (
		obj Object
		err error
	)
	if desc.Stage == rhi.ShaderStageVertex {
		obj, err = d.dev.CreateVertexShader(code)
	} else {
		obj, err = d.dev.CreatePixelShader(code)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: create %v shader: %w", rhi.ErrShaderCompilation, desc.Stage, err)
	}
	s := &shader{object: d.newObject("shader"), obj: obj, stage: desc.Stage, wgsl: wgsl}
	if desc.Stage == rhi.ShaderStageVertex {
		s.bytecode = code
	}
	return s, nil
}

// profile returns the compile target of a stage at the device feature
// level.
func (d *Driver) profile(stage rhi.ShaderStage) string {
	prefix := "vs_"
	if stage == rhi.ShaderStageFragment {
		prefix = "ps_"
	}
	switch {
	case d.level >= FeatureLevel11_0:
		return prefix + d.opts.ShaderModel.ProfileSuffix()
	case d.level >= FeatureLevel10_1:
		return prefix + "4_1"
	case d.level >= FeatureLevel10_0:
		return prefix + "4_0"
	case d.level >= FeatureLevel9_3:
		return prefix + "4_0_level_9_3"
	}
	return prefix + "4_0_level_9_1"
}

func (d *Driver) compile(stage rhi.ShaderStage, src, entry string) ([]byte, error) {
	if d.compiler == nil {
		return nil, fmt.Errorf("%w: HLSL source without a compiler", rhi.ErrUnsupported)
	}
	if entry == "" {
		entry = "main"
	}
	target := d.profile(stage)
	code, err := d.compiler.Compile(src, entry, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v shader (%s): %w", rhi.ErrShaderCompilation, stage, target, err)
	}
	return code, nil
}

// translate converts WGSL to HLSL and returns it with its entry point.
func (d *Driver) translate(desc *rhi.ShaderDescriptor) (string, string, error) {
	if !d.caps.WGSL {
		return "", "", fmt.Errorf("%w: WGSL at feature level %v", rhi.ErrUnsupported, d.level)
	}
	module, entry, err := rhi.ParseWGSL(desc.Source.WGSL, desc.Stage, desc.Source.EntryPoint)
	if err != nil {
		return "", "", err
	}
	bindings, err := rhi.ShaderBindings(module)
	if err != nil {
		return "", "", err
	}
	bindingMap := make(map[hlsl.ResourceBinding]hlsl.BindTarget, len(bindings))
	for _, b := range bindings {
		limit := uint32(maxTextureUnits)
		if b.Kind == rhi.BindingUniformBuffer {
			limit = maxUniformSlots
		}
		if b.Slot >= limit {
			return "", "", fmt.Errorf("%w: %q uses slot %d of %d", rhi.ErrShaderBinding, b.Name, b.Slot, limit)
		}
		bindingMap[hlsl.ResourceBinding{Group: b.Group, Binding: b.Binding}] = hlsl.BindTarget{Register: b.Slot}
	}
	src, info, err := hlsl.Compile(module, &hlsl.Options{
		ShaderModel:         d.opts.ShaderModel,
		BindingMap:          bindingMap,
		FakeMissingBindings: true,
		EntryPoint:          entry,
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", rhi.ErrShaderCompilation, err)
	}
	if name, ok := info.EntryPointNames[entry]; ok && name != "" {
		entry = name
	}
	src = rebindSamplers(src)
	d.logger().Debug("d3d11: translated WGSL",
		"stage", desc.Stage,
		"entry", entry,
		"model", d.opts.ShaderModel.ProfileSuffix())
	return src, entry, nil
}

var (
	samplerHeapDecl = regexp.MustCompile(`^\s*(SamplerState nagaSamplerHeap\[|SamplerComparisonState nagaComparisonSamplerHeap\[|StructuredBuffer<uint> nagaGroup\d+SamplerIndexArray)`)
	samplerHeapVar  = regexp.MustCompile(`^(\s*)static const (SamplerState|SamplerComparisonState) (\w+) = \w+\[\w+\[(\d+)\]\];`)
)

// rebindSamplers replaces the sampler heap the HLSL writer emits with
// plain sampler registers, since Direct3D 11 has no descriptor heaps.
// Each sampler lands on the s register of its unit.
func rebindSamplers(src string) string {
	lines := strings.Split(src, "\n")
	out := lines[:0]
	for _, line := range lines {
		if samplerHeapDecl.MatchString(line) {
			continue
		}
		if m := samplerHeapVar.FindStringSubmatch(line); m != nil {
			line = fmt.Sprintf("%s%s %s : register(s%s);", m[1], m[2], m[3], m[4])
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func (s *shader) Destroy() {
	if s.release() {
		s.obj.Release()
		s.bytecode = nil
	}
}

func (s *shader) SetDebugName(name string) {
	s.label = name
	s.d.name(s.obj, name)
}

// program pairs a vertex and a pixel shader. Direct3D 11 has no program
// object; binding a program sets both stages.
type program struct {
	object
	vs, ps *shader
}

func (d *Driver) NewProgram(vertex, fragment rhi.NativeObject) (rhi.NativeObject, error) {
	vs, ok := vertex.(*shader)
	if !ok || vs.stage != rhi.ShaderStageVertex {
		return nil, fmt.Errorf("%w: vertex shader is not a Direct3D 11 vertex shader", rhi.ErrShaderStage)
	}
	ps, ok := fragment.(*shader)
	if !ok || ps.stage != rhi.ShaderStageFragment {
		return nil, fmt.Errorf("%w: fragment shader is not a Direct3D 11 pixel shader", rhi.ErrShaderStage)
	}
	if vs.destroyed || ps.destroyed {
		return nil, errDestroyed
	}
	return &program{object: d.newObject("program"), vs: vs, ps: ps}, nil
}

func (p *program) Destroy() {
	if p.release() && p.d.bound.program == p {
		p.d.bound.program = nil
	}
}

func (p *program) SetDebugName(name string) { p.label = name }
