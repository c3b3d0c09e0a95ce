// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d9

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

func newTestShader(t *testing.T, d *Driver, stage rhi.ShaderStage) *shader {
	t.Helper()
	res, err := d.NewShader(&rhi.ShaderDescriptor{Stage: stage, Source: rhi.ShaderSource{Native: "float4 main() : COLOR { return 0; }"}})
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}
	return res.(*shader)
}

func newTestProgram(t *testing.T, d *Driver) *program {
	t.Helper()
	res, err := d.NewProgram(newTestShader(t, d, rhi.ShaderStageVertex), newTestShader(t, d, rhi.ShaderStageFragment))
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	return res.(*program)
}

func TestShaderProfiles(t *testing.T) {
	tests := []struct {
		major  uint32
		stage  rhi.ShaderStage
		kind   string
		target string
	}{
		{3, rhi.ShaderStageVertex, "vs", "vs_3_0"},
		{3, rhi.ShaderStageFragment, "ps", "ps_3_0"},
		{2, rhi.ShaderStageVertex, "vs", "vs_2_0"},
		{2, rhi.ShaderStageFragment, "ps", "ps_2_0"},
	}
	for _, tt := range tests {
		f := newFakeDevice(tt.major)
		d := openFake(t, f, Options{})
		newTestShader(t, d, tt.stage)
		args := f.last("Compile")
		if len(args) != 3 || args[1] != "main" || args[2] != tt.target {
			t.Errorf("SM%d %v: Compile args = %v, want target %s", tt.major, tt.stage, args, tt.target)
		}
		objs := f.created(tt.kind)
		if len(objs) != 1 || string(objs[0].data) != "dxbc "+tt.target {
			t.Errorf("SM%d %v: %s objects = %v", tt.major, tt.stage, tt.kind, objs)
		}
	}
}

func TestShaderSources(t *testing.T) {
	d, f := openDriver(t)
	res, err := d.NewShader(&rhi.ShaderDescriptor{
		Stage:  rhi.ShaderStageFragment,
		Source: rhi.ShaderSource{Bytecode: []byte{1, 2, 3}, Native: "ignored", EntryPoint: "ps_main"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if f.count("Compile") != 0 {
		t.Error("bytecode was compiled")
	}
	if ps := f.created("ps"); len(ps) != 1 || len(ps[0].data) != 3 {
		t.Errorf("pixel shaders = %v", ps)
	}
	res.Destroy()
	if f.created("ps")[0].released != 1 {
		t.Error("pixel shader not released")
	}

	if _, err := d.NewShader(&rhi.ShaderDescriptor{Stage: rhi.ShaderStageVertex, Source: rhi.ShaderSource{Native: "x", EntryPoint: "vs_main"}}); err != nil {
		t.Fatal(err)
	}
	if args := f.last("Compile"); args[1] != "vs_main" {
		t.Errorf("entry point = %v", args[1])
	}
}

func TestShaderErrors(t *testing.T) {
	tests := []struct {
		name string
		desc rhi.ShaderDescriptor
		want error
	}{
		{"wgsl", rhi.ShaderDescriptor{Stage: rhi.ShaderStageVertex, Source: rhi.ShaderSource{WGSL: "@vertex fn main() {}"}}, rhi.ErrUnsupported},
		{"empty", rhi.ShaderDescriptor{Stage: rhi.ShaderStageVertex}, rhi.ErrMissingData},
		{"stage", rhi.ShaderDescriptor{Stage: rhi.ShaderStage(7), Source: rhi.ShaderSource{Native: "x"}}, rhi.ErrShaderStage},
	}
	d, f := openDriver(t)
	for _, tt := range tests {
		if _, err := d.NewShader(&tt.desc); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}

	f.compileErr = errFake
	_, err := d.NewShader(&rhi.ShaderDescriptor{Stage: rhi.ShaderStageVertex, Source: rhi.ShaderSource{Native: "x"}})
	if !errors.Is(err, rhi.ErrShaderCompilation) || !errors.Is(err, errFake) {
		t.Errorf("compile failure err = %v", err)
	}
	f.compileErr = nil
	f.fail["vs"] = errFake
	_, err = d.NewShader(&rhi.ShaderDescriptor{Stage: rhi.ShaderStageVertex, Source: rhi.ShaderSource{Native: "x"}})
	if !errors.Is(err, rhi.ErrShaderCompilation) {
		t.Errorf("create failure err = %v", err)
	}

	noCompiler, err := Open(Options{Device: newFakeDevice(3)})
	if err != nil {
		t.Fatal(err)
	}
	defer noCompiler.Close()
	_, err = noCompiler.NewShader(&rhi.ShaderDescriptor{Stage: rhi.ShaderStageVertex, Source: rhi.ShaderSource{Native: "x"}})
	if !errors.Is(err, rhi.ErrUnsupported) {
		t.Errorf("HLSL without compiler err = %v, want ErrUnsupported", err)
	}
	if d.Live() != 0 {
		t.Errorf("Live = %d after failed creates", d.Live())
	}
}

func TestNewProgram(t *testing.T) {
	d, _ := openDriver(t)
	vs := newTestShader(t, d, rhi.ShaderStageVertex)
	ps := newTestShader(t, d, rhi.ShaderStageFragment)
	if _, err := d.NewProgram(ps, vs); !errors.Is(err, rhi.ErrShaderStage) {
		t.Errorf("swapped stages err = %v, want ErrShaderStage", err)
	}
	p, err := d.NewProgram(vs, ps)
	if err != nil {
		t.Fatal(err)
	}
	d.SetProgram(p)
	p.Destroy()
	if d.bound.program != nil {
		t.Error("destroyed program still bound")
	}
	ps.Destroy()
	if _, err := d.NewProgram(vs, ps); !errors.Is(err, errDestroyed) {
		t.Errorf("destroyed shader err = %v", err)
	}
}

func TestVertexElements(t *testing.T) {
	layout := &rhi.VertexLayout{Attributes: []rhi.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x3, SemanticName: "position"},
		{Format: gputypes.VertexFormatUnorm8x4, SemanticName: "COLOR", SemanticIndex: 1, Offset: 12},
		{Format: gputypes.VertexFormatFloat32x2, ShaderLocation: 3, Offset: 16},
		{Format: gputypes.VertexFormatFloat32x4, InputSlot: 2, InstancesPerElement: 4},
	}}
	elems, rates, err := vertexElements(layout)
	if err != nil {
		t.Fatal(err)
	}
	want := []VertexElement{
		{Stream: 0, Offset: 0, Type: DeclFloat3, Usage: DeclUsagePosition},
		{Stream: 0, Offset: 12, Type: DeclUByte4N, Usage: DeclUsageColor, UsageIndex: 1},
		{Stream: 0, Offset: 16, Type: DeclFloat2, Usage: DeclUsageTexCoord, UsageIndex: 3},
		{Stream: 2, Offset: 0, Type: DeclFloat4, Usage: DeclUsageTexCoord},
	}
	if len(elems) != len(want) {
		t.Fatalf("elements = %+v", elems)
	}
	for i := range want {
		if elems[i] != want[i] {
			t.Errorf("element %d = %+v, want %+v", i, elems[i], want[i])
		}
	}
	if len(rates) != 3 || rates[0] != 0 || rates[2] != 4 {
		t.Errorf("rates = %v, want [0 0 4]", rates)
	}
}

func TestVertexElementsErrors(t *testing.T) {
	tests := []struct {
		name  string
		attrs []rhi.VertexAttribute
		want  error
	}{
		{"format", []rhi.VertexAttribute{{Format: gputypes.VertexFormatUint8x2}}, rhi.ErrUnsupported},
		{"semantic", []rhi.VertexAttribute{{Format: gputypes.VertexFormatFloat32, SemanticName: "SV_Position"}}, rhi.ErrInvalidDescriptor},
		{"rates", []rhi.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32, InstancesPerElement: 1},
			{Format: gputypes.VertexFormatFloat32, Offset: 4, InstancesPerElement: 2},
		}, rhi.ErrInvalidInputSlot},
	}
	for _, tt := range tests {
		if _, _, err := vertexElements(&rhi.VertexLayout{Attributes: tt.attrs}); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestNewVertexLayout(t *testing.T) {
	d, f := openDriver(t)
	prog := newTestProgram(t, d)
	layout := &rhi.VertexLayout{Attributes: []rhi.VertexAttribute{{Format: gputypes.VertexFormatFloat32x2, SemanticName: "POSITION"}}}
	obj, err := d.NewVertexLayout(layout, prog)
	if err != nil {
		t.Fatal(err)
	}
	decls := f.created("declaration")
	if len(decls) != 1 || len(decls[0].desc.([]VertexElement)) != 1 {
		t.Errorf("declarations = %v", decls)
	}
	d.SetVertexLayout(obj)
	obj.Destroy()
	if d.bound.decl != nil || decls[0].released != 1 {
		t.Error("destroyed declaration still bound or not released")
	}
	if args := f.last("SetVertexDeclaration"); len(args) != 1 || args[0] != Object(nil) {
		t.Errorf("SetVertexDeclaration args = %v, want nil", args)
	}

	if _, err := d.NewVertexLayout(layout, newTestShader(t, d, rhi.ShaderStageVertex)); !errors.Is(err, rhi.ErrInvalidDescriptor) {
		t.Errorf("shader as program err = %v", err)
	}
	f.caps.MaxStreams = 2
	d.devCaps.MaxStreams = 2
	wide := &rhi.VertexLayout{Attributes: []rhi.VertexAttribute{{Format: gputypes.VertexFormatFloat32, InputSlot: 2}}}
	if _, err := d.NewVertexLayout(wide, prog); !errors.Is(err, rhi.ErrInvalidInputSlot) {
		t.Errorf("stream limit err = %v, want ErrInvalidInputSlot", err)
	}
}

func TestNewVertexArray(t *testing.T) {
	d, _ := openDriver(t)
	vb := newTestBuffer(t, d, rhi.ResourceTypeVertexBuffer, rhi.BufferUsageStaticDraw, 64, nil)
	inst := newTestBuffer(t, d, rhi.ResourceTypeVertexBuffer, rhi.BufferUsageStaticDraw, 16, nil)
	ub := newTestBuffer(t, d, rhi.ResourceTypeUniformBuffer, rhi.BufferUsageStaticDraw, 16, nil)

	obj, err := d.NewVertexArray(&rhi.NativeVertexArray{Buffers: []rhi.NativeVertexBuffer{
		{Buffer: vb, Stride: 8, Offset: 16},
		{Buffer: inst, Stride: 4},
		{},
	}})
	if err != nil {
		t.Fatal(err)
	}
	va := obj.(*vertexArray)
	if n := va.vertexCount([]uint32{0, 1}); n != 6 {
		t.Errorf("vertexCount with an instanced stream = %d, want 6", n)
	}
	if n := va.vertexCount(nil); n != 4 {
		t.Errorf("vertexCount = %d, want 4", n)
	}

	if _, err := d.NewVertexArray(&rhi.NativeVertexArray{Buffers: []rhi.NativeVertexBuffer{{Buffer: ub, Stride: 16}}}); !errors.Is(err, rhi.ErrInvalidDescriptor) {
		t.Errorf("uniform vertex buffer err = %v", err)
	}
	if _, err := d.NewVertexArray(&rhi.NativeVertexArray{IndexBuffer: ub}); !errors.Is(err, rhi.ErrInvalidDescriptor) {
		t.Errorf("uniform index buffer err = %v", err)
	}
	live := d.Live()
	obj.Destroy()
	if d.Live() != live-1 {
		t.Error("vertex array not released")
	}
}

func TestVertexArrayDeclaration(t *testing.T) {
	d, f := openDriver(t)
	vb := newTestBuffer(t, d, rhi.ResourceTypeVertexBuffer, rhi.BufferUsageStaticDraw, 36, nil)
	obj, err := d.NewVertexArray(&rhi.NativeVertexArray{
		Layout: &rhi.VertexLayout{Attributes: []rhi.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, SemanticName: "POSITION"},
		}},
		Buffers: []rhi.NativeVertexBuffer{{Buffer: vb, Stride: 12}},
	})
	if err != nil {
		t.Fatal(err)
	}
	va := obj.(*vertexArray)
	decls := f.created("declaration")
	if len(decls) != 1 || va.decl == nil {
		t.Fatalf("%d declarations created", len(decls))
	}

	d.SetPrimitiveTopology(gputypes.PrimitiveTopologyTriangleList)
	d.SetVertexArray(obj)
	d.Draw(rhi.DrawArguments{VertexCountPerInstance: 3, InstanceCount: 1})
	if args := f.last("SetVertexDeclaration"); len(args) != 1 || args[0] != Object(va.decl.obj) {
		t.Errorf("SetVertexDeclaration args = %v, want the array's declaration", args)
	}
	if f.count("DrawPrimitive") != 1 {
		t.Errorf("DrawPrimitive %d times", f.count("DrawPrimitive"))
	}

	// A pipeline layout wins over the array's declaration.
	layout, err := d.NewVertexLayout(&rhi.VertexLayout{Attributes: []rhi.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x2, SemanticName: "POSITION"},
	}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	d.SetVertexLayout(layout)
	if d.bound.decl != layout.(*vertexDecl) {
		t.Error("pipeline layout not active")
	}
	n := f.count("SetVertexDeclaration")
	d.SetVertexArray(nil)
	d.SetVertexArray(obj)
	if f.count("SetVertexDeclaration") != n {
		t.Error("rebinding the array replaced the pipeline layout")
	}
	d.SetVertexLayout(nil)
	if d.bound.decl != va.decl {
		t.Error("array declaration not restored after the layout was unset")
	}

	live := d.Live()
	obj.Destroy()
	if d.Live() != live-2 || decls[0].released != 1 {
		t.Errorf("Live = %d, want %d; declaration released %d times", d.Live(), live-2, decls[0].released)
	}
	if d.bound.decl != nil {
		t.Error("destroyed declaration still bound")
	}
}

func TestStateObjects(t *testing.T) {
	d, f := openDriver(t)
	desc := rhi.DefaultSamplerDescriptor()
	desc.Compare = gputypes.CompareFunctionLess
	desc.MaxAnisotropy = 64
	s, err := d.NewSamplerState(&desc)
	if err != nil {
		t.Fatal(err)
	}
	if got := samplerState(t, s.(*samplerBlock).states, SampMaxAnisotropy); got != f.caps.MaxAnisotropy {
		t.Errorf("anisotropy = %d, want device limit %d", got, f.caps.MaxAnisotropy)
	}
	if !d.warned["compare-sampler"] {
		t.Error("comparison sampler not warned about")
	}

	blend := rhi.DefaultBlendDescriptor()
	blend.IndependentBlend = true
	blend.AlphaToCoverage = true
	blend.RenderTargets[2].BlendEnable = true
	if _, err := d.NewBlendState(&blend); err != nil {
		t.Fatal(err)
	}
	if !d.warned["independent-blend"] || !d.warned["alpha-to-coverage"] {
		t.Errorf("warnings = %v", d.warned)
	}

	rs, err := d.NewRasterizerState(&rhi.RasterizerDescriptor{FillMode: rhi.FillModeWireframe})
	if err != nil {
		t.Fatal(err)
	}
	f.reset()
	d.SetRasterizerState(rs)
	if got := f.all("SetRenderState"); len(got) == 0 {
		t.Fatal("binding a rasterizer state set nothing")
	}
	n := f.count("SetRenderState")
	d.SetRasterizerState(rs)
	if f.count("SetRenderState") != n {
		t.Error("rebinding the same state reached the device")
	}
	d.SetRasterizerState(nil)
	if d.renderStates[RSFillMode] != FillSolid || d.renderStates[RSCullMode] != CullCW {
		t.Errorf("nil state left fill %d cull %d", d.renderStates[RSFillMode], d.renderStates[RSCullMode])
	}
	rs.Destroy()
	s.Destroy()
}
