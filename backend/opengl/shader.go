// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package opengl

import (
	"fmt"
	"strings"

	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/wgpu/hal/gles/gl"

	"github.com/gogpu/rhi"
)

// shader is a compiled GL shader object.
type shader struct {
	object
	name  uint32
	stage rhi.ShaderStage
	wgsl  bool
}

// NewShader compiles GLSL source, translating WGSL first when given.
// Native GLSL is compiled as-is and must declare the bindings returned by
// UniformBinding and TextureUnit.
func (d *Driver) NewShader(desc *rhi.ShaderDescriptor) (rhi.NativeObject, error) {
	src, wgsl := desc.Source.Native, false
	if desc.Source.WGSL != "" {
		out, err := d.translate(desc)
		if err != nil {
			return nil, err
		}
		src, wgsl = out, true
	}
	if src == "" {
		if len(desc.Source.Bytecode) > 0 {
			return nil, fmt.Errorf("%w: shader binaries", rhi.ErrUnsupported)
		}
		return nil, fmt.Errorf("%w: no GLSL source", rhi.ErrMissingData)
	}

	typ := uint32(gl.VERTEX_SHADER)
	if desc.Stage == rhi.ShaderStageFragment {
		typ = gl.FRAGMENT_SHADER
	}
	f := d.f
	name := f.CreateShader(typ)
	f.ShaderSource(name, src)
	f.CompileShader(name)
	var ok int32
	f.GetShaderiv(name, gl.COMPILE_STATUS, &ok)
	if ok == gl.FALSE {
		log := strings.TrimSpace(f.GetShaderInfoLog(name))
		f.DeleteShader(name)
		return nil, fmt.Errorf("%w: %v shader: %s", rhi.ErrShaderCompilation, desc.Stage, log)
	}
	return &shader{object: d.newObject("shader"), name: name, stage: desc.Stage, wgsl: wgsl}, nil
}

// translate converts the WGSL source of desc to GLSL. Uniform buffers and
// textures get the GL binding points of their renderer slots. Samplers are
// combined with the texture of the same unit.
func (d *Driver) translate(desc *rhi.ShaderDescriptor) (string, error) {
	if !d.caps.WGSL {
		return "", fmt.Errorf("%w: WGSL on %v", rhi.ErrUnsupported, d.version)
	}
	module, entry, err := rhi.ParseWGSL(desc.Source.WGSL, desc.Stage, desc.Source.EntryPoint)
	if err != nil {
		return "", err
	}
	bindings, err := rhi.ShaderBindings(module)
	if err != nil {
		return "", err
	}
	bindingMap := make(map[glsl.BindingMapKey]uint8, len(bindings))
	for _, b := range bindings {
		key := glsl.BindingMapKey{Group: b.Group, Binding: b.Binding}
		switch b.Kind {
		case rhi.BindingUniformBuffer:
			if b.Slot >= d.caps.MaxUniformBuffers {
				return "", fmt.Errorf("%w: uniform %q uses slot %d of %d", rhi.ErrShaderBinding, b.Name, b.Slot, d.caps.MaxUniformBuffers)
			}
			bindingMap[key] = uint8(d.UniformBinding(desc.Stage, b.Slot))
		case rhi.BindingTexture:
			if b.Slot >= d.caps.MaxTextureUnits {
				return "", fmt.Errorf("%w: texture %q uses unit %d of %d", rhi.ErrShaderBinding, b.Name, b.Slot, d.caps.MaxTextureUnits)
			}
			bindingMap[key] = uint8(d.TextureUnit(desc.Stage, b.Slot))
		}
	}
	src, info, err := glsl.Compile(module, glsl.Options{
		LangVersion:        d.glsl,
		EntryPoint:         entry,
		BindingMap:         bindingMap,
		ForceHighPrecision: d.version.es,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", rhi.ErrShaderCompilation, err)
	}
	d.logger().Debug("opengl: translated WGSL",
		"stage", desc.Stage,
		"entry", entry,
		"glsl", d.glsl.String(),
		"extensions", info.UsedExtensions)
	return src, nil
}

func (s *shader) Destroy() {
	if s.release() {
		s.d.f.DeleteShader(s.name)
	}
}

func (s *shader) SetDebugName(name string) {
	s.label = name
	s.d.label(glShaderObject, s.name, name)
}

// program is a linked GL program.
type program struct {
	object
	name uint32

	// clipDepth is the clip-space depth convention of the vertex shader:
	// zero-to-one for translated WGSL, negative-one-to-one for GLSL.
	clipDepth uint32
}

func (d *Driver) NewProgram(vertex, fragment rhi.NativeObject) (rhi.NativeObject, error) {
	vs, ok := vertex.(*shader)
	if !ok || vs.stage != rhi.ShaderStageVertex {
		return nil, fmt.Errorf("%w: vertex shader is not an OpenGL vertex shader", rhi.ErrShaderStage)
	}
	fs, ok := fragment.(*shader)
	if !ok || fs.stage != rhi.ShaderStageFragment {
		return nil, fmt.Errorf("%w: fragment shader is not an OpenGL fragment shader", rhi.ErrShaderStage)
	}

	f := d.f
	name := f.CreateProgram()
	f.AttachShader(name, vs.name)
	f.AttachShader(name, fs.name)
	f.LinkProgram(name)
	var ok32 int32
	f.GetProgramiv(name, gl.LINK_STATUS, &ok32)
	if ok32 == gl.FALSE {
		log := strings.TrimSpace(f.GetProgramInfoLog(name))
		f.DeleteProgram(name)
		return nil, fmt.Errorf("%w: link: %s", rhi.ErrShaderCompilation, log)
	}
	p := &program{object: d.newObject("program"), name: name, clipDepth: glNegativeOneToOne}
	if vs.wgsl {
		p.clipDepth = glZeroToOne
	}
	return p, nil
}

func (p *program) Destroy() {
	if !p.release() {
		return
	}
	if p.d.bound.program == p {
		p.d.bound.program = nil
	}
	p.d.state.deleteProgram(p.d.f, p.name)
}

func (p *program) SetDebugName(name string) {
	p.label = name
	p.d.label(glProgramObject, p.name, name)
}
