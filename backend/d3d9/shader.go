// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d9

import (
	"fmt"

	"github.com/gogpu/rhi"
)

// shader is a vertex or pixel shader object.
type shader struct {
	object
	obj   Object
	stage rhi.ShaderStage
}

// NewShader creates a shader from bytecode or HLSL; HLSL needs a
// Compiler. Uniform buffer slot s is read from the float4 constants
// starting at register c[32*s] and texture unit u from sampler register
// s[u]. WGSL is not accepted: shader model 3 has no translation target.
func (d *Driver) NewShader(desc *rhi.ShaderDescriptor) (rhi.NativeObject, error) {
	if desc.Stage != rhi.ShaderStageVertex && desc.Stage != rhi.ShaderStageFragment {
		return nil, fmt.Errorf("%w: %v", rhi.ErrShaderStage, desc.Stage)
	}
	code := desc.Source.Bytecode
	if len(code) == 0 {
		if desc.Source.WGSL != "" && desc.Source.Native == "" {
			return nil, fmt.Errorf("%w: WGSL on Direct3D 9", rhi.ErrUnsupported)
		}
		if desc.Source.Native == "" {
			return nil, fmt.Errorf("%w: no HLSL source or bytecode", rhi.ErrMissingData)
		}
		var err error
		if code, err = d.compile(desc.Stage, desc.Source.Native, desc.Source.EntryPoint); err != nil {
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
	return &shader{object: d.newObject("shader"), obj: obj, stage: desc.Stage}, nil
}

// profile returns the compile target of a stage: shader model 3.0 when
// the device runs it in both stages, 2.0 otherwise.
func (d *Driver) profile(stage rhi.ShaderStage) string {
	prefix := "vs_"
	if stage == rhi.ShaderStageFragment {
		prefix = "ps_"
	}
	if d.sm3() {
		return prefix + "3_0"
	}
	return prefix + "2_0"
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

func (s *shader) Destroy() {
	if s.release() {
		s.obj.Release()
	}
}

func (s *shader) SetDebugName(name string) {
	s.label = name
	s.d.name(s.obj, name)
}

// program pairs a vertex and a pixel shader.
type program struct {
	object
	vs, ps *shader
}

func (d *Driver) NewProgram(vertex, fragment rhi.NativeObject) (rhi.NativeObject, error) {
	vs, ok := vertex.(*shader)
	if !ok || vs.stage != rhi.ShaderStageVertex {
		return nil, fmt.Errorf("%w: vertex shader is not a Direct3D 9 vertex shader", rhi.ErrShaderStage)
	}
	ps, ok := fragment.(*shader)
	if !ok || ps.stage != rhi.ShaderStageFragment {
		return nil, fmt.Errorf("%w: fragment shader is not a Direct3D 9 pixel shader", rhi.ErrShaderStage)
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
