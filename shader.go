// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// ShaderSource holds one shader in the forms a driver may accept.
//
// WGSL is translated by drivers that report Caps.WGSL. Native is source in
// the driver's own language (GLSL, HLSL) and Bytecode is a precompiled
// blob. Drivers use the first form they support, in that order.
type ShaderSource struct {
	WGSL       string
	EntryPoint string
	Native     string
	Bytecode   []byte
}

// ShaderDescriptor describes one shader stage.
type ShaderDescriptor struct {
	Label  string
	Stage  ShaderStage
	Source ShaderSource
}

// Shader is a vertex or fragment shader.
type Shader struct {
	resource
	desc   ShaderDescriptor
	handle NativeObject
}

// Stage returns the shader stage.
func (s *Shader) Stage() ShaderStage { return s.desc.Stage }

// EntryPoint returns the resolved entry point name.
func (s *Shader) EntryPoint() string { return s.desc.Source.EntryPoint }

// Source returns the source the shader was created from.
func (s *Shader) Source() ShaderSource { return s.desc.Source }

// Native returns the wrapped driver handle.
func (s *Shader) Native() NativeObject { return s.handle }

// Program links a vertex and a fragment shader. It holds a reference to
// both for its lifetime.
type Program struct {
	resource
	vertex   *Shader
	fragment *Shader
	handle   NativeObject
}

func (p *Program) VertexShader() *Shader   { return p.vertex }
func (p *Program) FragmentShader() *Shader { return p.fragment }

// Native returns the wrapped driver handle.
func (p *Program) Native() NativeObject { return p.handle }

// ParseWGSL parses and validates WGSL source and resolves the entry point
// for stage. An empty entry selects the first entry point of that stage.
func ParseWGSL(source string, stage ShaderStage, entry string) (*ir.Module, string, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrShaderCompilation, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrShaderCompilation, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrShaderCompilation, err)
	}
	if len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, v := range verrs {
			errs[i] = errors.New(v.Message)
		}
		return nil, "", fmt.Errorf("%w: %w", ErrShaderCompilation, errors.Join(errs...))
	}

	want := ir.StageVertex
	if stage == ShaderStageFragment {
		want = ir.StageFragment
	}
	for _, ep := range module.EntryPoints {
		if ep.Stage != want {
			continue
		}
		if entry == "" || ep.Name == entry {
			return module, ep.Name, nil
		}
	}
	if entry == "" {
		return nil, "", fmt.Errorf("%w: no %v entry point", ErrShaderStage, stage)
	}
	return nil, "", fmt.Errorf("%w: no %v entry point %q", ErrShaderStage, stage, entry)
}

// WGSL resources bind to renderer slots by group and binding number:
//
//	@group(0) @binding(s)       uniform buffer slot s
//	@group(1) @binding(2*u)     texture unit u
//	@group(1) @binding(2*u+1)   sampler state unit u
const (
	WGSLUniformGroup = 0
	WGSLTextureGroup = 1
)

// BindingKind is the kind of a shader resource binding.
type BindingKind uint8

// Binding kinds.
const (
	BindingUniformBuffer BindingKind = iota
	BindingTexture
	BindingSampler
)

// ShaderBinding is one WGSL resource mapped to a renderer slot.
type ShaderBinding struct {
	Name    string
	Group   uint32
	Binding uint32
	Kind    BindingKind
	Slot    uint32
}

// ShaderBindings lists the resources a parsed WGSL module declares, mapped
// to uniform buffer slots and texture units. Drivers use it to build the
// binding tables of their shader translators.
func ShaderBindings(module *ir.Module) ([]ShaderBinding, error) {
	var out []ShaderBinding
	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		b := ShaderBinding{Name: gv.Name, Group: gv.Binding.Group, Binding: gv.Binding.Binding}
		var inner ir.TypeInner
		if int(gv.Type) < len(module.Types) {
			inner = module.Types[gv.Type].Inner
		}
		switch {
		case gv.Space == ir.SpaceUniform:
			if b.Group != WGSLUniformGroup {
				return nil, fmt.Errorf("%w: uniform %q in group %d", ErrShaderBinding, b.Name, b.Group)
			}
			b.Kind, b.Slot = BindingUniformBuffer, b.Binding
		case gv.Space == ir.SpaceHandle && isImage(inner):
			if b.Group != WGSLTextureGroup || b.Binding%2 != 0 {
				return nil, fmt.Errorf("%w: texture %q at @group(%d) @binding(%d)", ErrShaderBinding, b.Name, b.Group, b.Binding)
			}
			b.Kind, b.Slot = BindingTexture, b.Binding/2
		case gv.Space == ir.SpaceHandle && isSampler(inner):
			if b.Group != WGSLTextureGroup || b.Binding%2 != 1 {
				return nil, fmt.Errorf("%w: sampler %q at @group(%d) @binding(%d)", ErrShaderBinding, b.Name, b.Group, b.Binding)
			}
			b.Kind, b.Slot = BindingSampler, b.Binding/2
		default:
			return nil, fmt.Errorf("%w: resource %q in address space %d", ErrUnsupported, b.Name, gv.Space)
		}
		out = append(out, b)
	}
	return out, nil
}

func isImage(t ir.TypeInner) bool {
	_, ok := t.(ir.ImageType)
	return ok
}

func isSampler(t ir.TypeInner) bool {
	_, ok := t.(ir.SamplerType)
	return ok
}

// CreateShader creates a shader. WGSL sources are validated before they
// reach the driver.
func (r *Renderer) CreateShader(desc ShaderDescriptor) (*Shader, error) {
	if err := r.checkReady(); err != nil {
		return nil, err
	}
	typ := ResourceTypeVertexShader
	switch desc.Stage {
	case ShaderStageVertex:
	case ShaderStageFragment:
		typ = ResourceTypeFragmentShader
	default:
		return nil, r.creationFailed(typ, fmt.Errorf("%w: stage %v", ErrShaderStage, desc.Stage))
	}

	src := &desc.Source
	switch {
	case src.WGSL != "" && r.caps.WGSL:
		module, entry, err := ParseWGSL(src.WGSL, desc.Stage, src.EntryPoint)
		if err != nil {
			return nil, r.creationFailed(typ, err)
		}
		if _, err := ShaderBindings(module); err != nil {
			return nil, r.creationFailed(typ, err)
		}
		src.EntryPoint = entry
	case src.Native != "" || len(src.Bytecode) > 0:
		src.WGSL = ""
		if src.EntryPoint == "" {
			src.EntryPoint = "main"
		}
	case src.WGSL != "":
		return nil, r.creationFailed(typ, fmt.Errorf("%w: WGSL shaders", ErrUnsupported))
	default:
		return nil, r.creationFailed(typ, fmt.Errorf("%w: empty shader source", ErrMissingData))
	}

	defer r.debugEvent("Create" + typ.String())()
	native, err := r.driver.NewShader(&desc)
	if err != nil {
		return nil, r.creationFailed(typ, err)
	}
	s := &Shader{desc: desc, handle: native}
	s.init(r, typ, native, nil)
	if desc.Label != "" {
		s.SetDebugName(desc.Label)
	}
	return s, nil
}

// CreateProgram links vs and fs into a program.
func (r *Renderer) CreateProgram(vs, fs *Shader) (*Program, error) {
	if err := r.checkReady(); err != nil {
		return nil, err
	}
	if vs == nil || fs == nil {
		return nil, r.creationFailed(ResourceTypeProgram, fmt.Errorf("%w: program needs vertex and fragment shaders", ErrInvalidDescriptor))
	}
	if vs.Stage() != ShaderStageVertex || fs.Stage() != ShaderStageFragment {
		return nil, r.creationFailed(ResourceTypeProgram, fmt.Errorf("%w: got %v and %v", ErrShaderStage, vs.Stage(), fs.Stage()))
	}
	if !r.owns(vs, "CreateProgram") || !r.owns(fs, "CreateProgram") {
		return nil, ErrRendererMismatch
	}

	defer r.debugEvent("CreateProgram")()
	native, err := r.driver.NewProgram(vs.handle, fs.handle)
	if err != nil {
		return nil, r.creationFailed(ResourceTypeProgram, err)
	}
	vs.AddReference()
	fs.AddReference()
	p := &Program{vertex: vs, fragment: fs, handle: native}
	p.init(r, ResourceTypeProgram, native, func() {
		vs.Release()
		fs.Release()
	})
	return p, nil
}
