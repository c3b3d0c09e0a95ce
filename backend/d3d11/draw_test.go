// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

func renderTexture(t *testing.T, d *Driver, kind rhi.ResourceType, format gputypes.TextureFormat) *texture {
	t.Helper()
	desc := texDesc(kind, format, rhi.TextureUsageDefault)
	desc.Flags = rhi.TextureFlagRenderTarget
	if kind == rhi.ResourceTypeTexture2DArray {
		desc.DepthOrLayers = 3
	}
	return newTestTexture(t, d, desc, nil)
}

func newFramebuffer(t *testing.T, d *Driver, colors []*texture, depth *texture) *framebuffer {
	t.Helper()
	var ca []rhi.NativeAttachment
	for _, c := range colors {
		ca = append(ca, rhi.NativeAttachment{Texture: c, Desc: c.desc})
	}
	var da *rhi.NativeAttachment
	if depth != nil {
		da = &rhi.NativeAttachment{Texture: depth, Desc: depth.desc}
	}
	fb, err := d.NewFramebuffer(ca, da)
	if err != nil {
		t.Fatalf("NewFramebuffer: %v", err)
	}
	return fb.(*framebuffer)
}

func TestFramebuffer(t *testing.T) {
	d, f := openDriver(t)
	color := renderTexture(t, d, rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm)
	depth := renderTexture(t, d, rhi.ResourceTypeTexture2D, gputypes.TextureFormatDepth24PlusStencil8)
	fb := newFramebuffer(t, d, []*texture{color}, depth)

	rtv := f.created("rtv")
	if len(rtv) != 1 {
		t.Fatalf("%d render target views, want 1", len(rtv))
	}
	want := RenderTargetViewDesc{Format: FormatR8G8B8A8Unorm, Dimension: ViewDimensionTexture2D, ArraySize: 1}
	if got := rtv[0].desc.(RenderTargetViewDesc); got != want {
		t.Errorf("render target view = %+v, want %+v", got, want)
	}
	if got := f.created("dsv")[0].desc.(DepthStencilViewDesc).Format; got != FormatD24UnormS8Uint {
		t.Errorf("depth view format = %v", got)
	}

	d.SetRenderTarget(fb)
	args := f.last("OMSetRenderTargets")
	if views := args[0].([]View); len(views) != 1 || views[0] != fb.colors[0] || args[1] != fb.depth {
		t.Errorf("OMSetRenderTargets args = %v", args)
	}

	d.Clear(rhi.ClearColor|rhi.ClearDepth, gputypes.Color{R: 1, A: 1}, 1, 0)
	if args := f.last("ClearRenderTargetView"); args == nil || args[1] != [4]float32{1, 0, 0, 1} {
		t.Errorf("ClearRenderTargetView args = %v", args)
	}
	if args := f.last("ClearDepthStencilView"); args == nil || args[1] != ClearDepth || args[2] != float32(1) {
		t.Errorf("ClearDepthStencilView args = %v", args)
	}

	f.reset()
	fb.Destroy()
	if args := f.last("OMSetRenderTargets"); args == nil || len(args[0].([]View)) != 0 {
		t.Errorf("destroying the bound framebuffer did not unbind it: %v", args)
	}
	if rtv[0].released != 1 || f.created("dsv")[0].released != 1 {
		t.Error("views not released")
	}
	if color.destroyed || native(color.res).released != 0 {
		t.Error("framebuffer released its texture")
	}
}

func TestFramebufferEmptySlot(t *testing.T) {
	d, f := openDriver(t)
	color := renderTexture(t, d, rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm)
	obj, err := d.NewFramebuffer([]rhi.NativeAttachment{{}, {Texture: color, Desc: color.desc}}, nil)
	if err != nil {
		t.Fatalf("NewFramebuffer: %v", err)
	}
	fb := obj.(*framebuffer)
	if len(fb.colors) != 2 || fb.colors[0] != nil || fb.colors[1] == nil {
		t.Fatalf("colors = %v, want an empty first slot", fb.colors)
	}

	d.SetRenderTarget(fb)
	if views := f.last("OMSetRenderTargets")[0].([]View); len(views) != 2 || views[0] != nil {
		t.Errorf("bound views = %v", views)
	}
	d.Clear(rhi.ClearColor, gputypes.Color{}, 1, 0)
	if n := f.count("ClearRenderTargetView"); n != 1 {
		t.Errorf("ClearRenderTargetView calls = %d, want 1", n)
	}
	fb.Destroy()
	if rtv := f.created("rtv"); len(rtv) != 1 || rtv[0].released != 1 {
		t.Error("render target view not released")
	}
}

func TestFramebufferLayers(t *testing.T) {
	d, f := openDriver(t)
	arr := renderTexture(t, d, rhi.ResourceTypeTexture2DArray, gputypes.TextureFormatRGBA8Unorm)
	_, err := d.NewFramebuffer([]rhi.NativeAttachment{{Texture: arr, Desc: arr.desc, Layer: 2}}, nil)
	if err != nil {
		t.Fatalf("NewFramebuffer: %v", err)
	}
	got := f.created("rtv")[0].desc.(RenderTargetViewDesc)
	if got.Dimension != ViewDimensionTexture2DArray || got.FirstArraySlice != 2 || got.ArraySize != 1 {
		t.Errorf("render target view = %+v", got)
	}
}

func TestFramebufferErrors(t *testing.T) {
	d, f := openDriver(t)
	plain := newTestTexture(t, d, texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm, rhi.TextureUsageDefault), nil)
	vol := newTestTexture(t, d, texDesc(rhi.ResourceTypeTexture3D, gputypes.TextureFormatRGBA8Unorm, rhi.TextureUsageDefault), nil)
	color := renderTexture(t, d, rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm)
	depth := renderTexture(t, d, rhi.ResourceTypeTexture2D, gputypes.TextureFormatDepth32Float)

	tests := []struct {
		name   string
		colors []rhi.NativeAttachment
		depth  *rhi.NativeAttachment
	}{
		{"not a render target", []rhi.NativeAttachment{{Texture: plain}}, nil},
		{"3D texture", []rhi.NativeAttachment{{Texture: vol}}, nil},
		{"mip out of range", []rhi.NativeAttachment{{Texture: color, MipLevel: 1}}, nil},
		{"layer out of range", []rhi.NativeAttachment{{Texture: color, Layer: 1}}, nil},
		{"color as depth", nil, &rhi.NativeAttachment{Texture: color}},
		{"depth as color", []rhi.NativeAttachment{{Texture: depth}}, nil},
	}
	for _, tt := range tests {
		if _, err := d.NewFramebuffer(tt.colors, tt.depth); !errors.Is(err, rhi.ErrUnsupportedAttachment) {
			t.Errorf("%s: err = %v, want ErrUnsupportedAttachment", tt.name, err)
		}
	}

	f.fail["dsv"] = errFake
	_, err := d.NewFramebuffer([]rhi.NativeAttachment{{Texture: color}}, &rhi.NativeAttachment{Texture: depth})
	if !errors.Is(err, errFake) {
		t.Fatalf("err = %v, want the device error", err)
	}
	if rtv := f.created("rtv"); len(rtv) != 1 || rtv[0].released != 1 {
		t.Error("color view leaked by a failed framebuffer")
	}

	many := make([]rhi.NativeAttachment, 9)
	if _, err := d.NewFramebuffer(many, nil); !errors.Is(err, rhi.ErrUnsupported) {
		t.Errorf("9 color attachments err = %v, want ErrUnsupported", err)
	}
}

func TestRenderTargetUnbindsSampledAttachment(t *testing.T) {
	d, f := openDriver(t)
	color := renderTexture(t, d, rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm)
	other := renderTexture(t, d, rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm)
	fb := newFramebuffer(t, d, []*texture{color}, nil)

	d.SetTexture(rhi.ShaderStageFragment, 3, color)
	d.SetTexture(rhi.ShaderStageFragment, 4, other)
	f.reset()
	d.SetRenderTarget(fb)
	if f.count("PSSetShaderResources") != 1 {
		t.Fatalf("PSSetShaderResources called %d times, want 1", f.count("PSSetShaderResources"))
	}
	args := f.last("PSSetShaderResources")
	if args[0] != uint32(3) || args[1].([]View)[0] != nil {
		t.Errorf("PSSetShaderResources args = %v", args)
	}
	if d.bound.textures[rhi.ShaderStageFragment][3] != nil || d.bound.textures[rhi.ShaderStageFragment][4] != other {
		t.Error("bound textures not tracked")
	}

	d.SetTexture(rhi.ShaderStageFragment, 0, color)
	if v := f.last("PSSetShaderResources")[1].([]View)[0]; v != nil {
		t.Error("attachment of the bound target bound for sampling")
	}
	d.SetRenderTarget(nil)
	d.SetTexture(rhi.ShaderStageVertex, 0, color)
	if v := f.last("VSSetShaderResources")[1].([]View)[0]; v != color.srv {
		t.Error("texture not bound once its framebuffer is unbound")
	}
	color.Destroy()
	if d.bound.textures[rhi.ShaderStageVertex][0] != nil {
		t.Error("destroyed texture still tracked")
	}
}

func TestSetTextureWithoutView(t *testing.T) {
	d, f := openDriver(t)
	staging := newTestTexture(t, d, texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm, rhi.TextureUsageStaging), nil)
	d.SetTexture(rhi.ShaderStageFragment, 0, staging)
	if v := f.last("PSSetShaderResources")[1].([]View)[0]; v != nil {
		t.Error("staging texture bound")
	}
	f.reset()
	d.SetTexture(rhi.ShaderStageFragment, maxTextureUnits, staging)
	d.SetSamplerState(rhi.ShaderStageFragment, maxTextureUnits, nil)
	d.SetUniformBuffer(rhi.ShaderStageFragment, maxUniformSlots, nil)
	if len(f.calls) != 0 {
		t.Errorf("out of range units reached the context: %v", f.calls)
	}
}

func TestSetUniformBufferAndSampler(t *testing.T) {
	d, f := openDriver(t)
	cb := newTestBuffer(t, d, rhi.ResourceTypeUniformBuffer, rhi.BufferUsageDynamicDraw, 64, nil)
	d.SetUniformBuffer(rhi.ShaderStageVertex, 2, cb)
	if args := f.last("VSSetConstantBuffers"); args[0] != uint32(2) || args[1].([]Resource)[0] != cb.res {
		t.Errorf("VSSetConstantBuffers args = %v", args)
	}
	d.SetUniformBuffer(rhi.ShaderStageFragment, 0, nil)
	if args := f.last("PSSetConstantBuffers"); args[1].([]Resource)[0] != nil {
		t.Errorf("PSSetConstantBuffers args = %v", args)
	}

	s := rhi.DefaultSamplerDescriptor()
	obj, err := d.NewSamplerState(&s)
	if err != nil {
		t.Fatalf("NewSamplerState: %v", err)
	}
	d.SetSamplerState(rhi.ShaderStageFragment, 5, obj)
	if args := f.last("PSSetSamplers"); args[0] != uint32(5) || args[1].([]Object)[0] != nativeState(obj) {
		t.Errorf("PSSetSamplers args = %v", args)
	}
}

func TestStateSetters(t *testing.T) {
	d, f := openDriver(t)
	bs := rhi.AlphaBlendDescriptor()
	blend, err := d.NewBlendState(&bs)
	if err != nil {
		t.Fatalf("NewBlendState: %v", err)
	}
	d.SetBlendState(blend)
	args := f.last("OMSetBlendState")
	if args[0] != nativeState(blend) || args[1] != defaultBlendFactor || args[2] != uint32(0xFFFFFFFF) {
		t.Errorf("OMSetBlendState args = %v", args)
	}
	d.SetBlendState(nil)
	if args := f.last("OMSetBlendState"); args[0] != nil {
		t.Errorf("nil blend state bound %v", args[0])
	}
	d.SetDepthStencilState(nil)
	d.SetRasterizerState(nil)
	if f.count("OMSetDepthStencilState") != 1 || f.count("RSSetState") != 1 {
		t.Error("default states not bound")
	}

	d.SetViewport(rhi.Viewport{X: 1, Y: 2, Width: 30, Height: 40, MaxDepth: 1})
	vp := f.last("RSSetViewports")[0].([]Viewport)[0]
	if vp != (Viewport{TopLeftX: 1, TopLeftY: 2, Width: 30, Height: 40, MaxDepth: 1}) {
		t.Errorf("viewport = %+v", vp)
	}
	d.SetScissorRect(rhi.ScissorRect{X: 5, Y: 6, Width: 10, Height: 20})
	if r := f.last("RSSetScissorRects")[0].([]Rect)[0]; r != (Rect{Left: 5, Top: 6, Right: 15, Bottom: 26}) {
		t.Errorf("scissor = %+v", r)
	}
	d.SetPrimitiveTopology(gputypes.PrimitiveTopologyLineStrip)
	if args := f.last("IASetPrimitiveTopology"); args[0] != TopologyLineStrip {
		t.Errorf("topology = %v", args[0])
	}
}

func TestInputElements(t *testing.T) {
	layout := &rhi.VertexLayout{Attributes: []rhi.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x2, ShaderLocation: 0},
		{Format: gputypes.VertexFormatFloat32x2, SemanticName: "COLOR", SemanticIndex: 1, Offset: 8, ShaderLocation: 1},
		{Format: gputypes.VertexFormatFloat32x4, InputSlot: 1, ShaderLocation: 2, InstancesPerElement: 1},
	}}
	tests := []struct {
		wgsl  bool
		names []string
		index []uint32
	}{
		{false, []string{"TEXCOORD", "COLOR", "TEXCOORD"}, []uint32{0, 1, 2}},
		{true, []string{"LOC", "LOC", "LOC"}, []uint32{0, 1, 2}},
	}
	for _, tt := range tests {
		elems, err := inputElements(layout, tt.wgsl)
		if err != nil {
			t.Fatalf("inputElements: %v", err)
		}
		for i, e := range elems {
			if e.SemanticName != tt.names[i] || e.SemanticIndex != tt.index[i] {
				t.Errorf("wgsl %v: element %d = %s%d, want %s%d", tt.wgsl, i, e.SemanticName, e.SemanticIndex, tt.names[i], tt.index[i])
			}
		}
		if elems[1].AlignedByteOffset != 8 || elems[0].Format != FormatR32G32Float {
			t.Errorf("element 1 = %+v", elems[1])
		}
		if elems[2].InputSlotClass != InputPerInstanceData || elems[2].InstanceDataStepRate != 1 || elems[2].InputSlot != 1 {
			t.Errorf("instance element = %+v", elems[2])
		}
		if elems[0].InputSlotClass != InputPerVertexData {
			t.Errorf("vertex element class = %v", elems[0].InputSlotClass)
		}
	}

	bad := &rhi.VertexLayout{Attributes: []rhi.VertexAttribute{{Format: gputypes.VertexFormatFloat32, InputSlot: maxVertexBuffers}}}
	if _, err := inputElements(bad, false); !errors.Is(err, rhi.ErrInvalidDescriptor) {
		t.Errorf("slot %d err = %v, want ErrInvalidDescriptor", maxVertexBuffers, err)
	}
}

func TestNewVertexLayout(t *testing.T) {
	d, f := openDriver(t)
	vs := newShader(t, d, rhi.ShaderStageVertex, rhi.ShaderSource{Bytecode: []byte("vs bytecode")})
	ps := newShader(t, d, rhi.ShaderStageFragment, rhi.ShaderSource{Bytecode: []byte("ps bytecode")})
	p := newProgram(t, d, vs, ps)
	layout := &rhi.VertexLayout{Attributes: []rhi.VertexAttribute{{Format: gputypes.VertexFormatFloat32x3}}}

	obj, err := d.NewVertexLayout(layout, p)
	if err != nil {
		t.Fatalf("NewVertexLayout: %v", err)
	}
	created := f.created("input layout")[0]
	if string(created.data) != "vs bytecode" {
		t.Errorf("input layout validated against %q", created.data)
	}
	d.SetVertexLayout(obj)
	if args := f.last("IASetInputLayout"); args[0] != Object(created) {
		t.Errorf("IASetInputLayout args = %v", args)
	}
	obj.Destroy()
	if created.released != 1 {
		t.Error("input layout not released")
	}

	if _, err := d.NewVertexLayout(layout, vs); !errors.Is(err, rhi.ErrInvalidDescriptor) {
		t.Errorf("shader as program err = %v, want ErrInvalidDescriptor", err)
	}
	f.fail["input layout"] = errFake
	if _, err := d.NewVertexLayout(layout, p); !errors.Is(err, rhi.ErrInvalidDescriptor) || !errors.Is(err, errFake) {
		t.Errorf("mismatched layout err = %v", err)
	}
	unknown := &rhi.VertexLayout{Attributes: []rhi.VertexAttribute{{Format: gputypes.VertexFormat(0xFF)}}}
	if _, err := d.NewVertexLayout(unknown, p); !errors.Is(err, rhi.ErrUnsupported) {
		t.Errorf("unknown format err = %v, want ErrUnsupported", err)
	}
}

func TestVertexArrayInputLayout(t *testing.T) {
	d, f := openDriver(t)
	vs := newShader(t, d, rhi.ShaderStageVertex, rhi.ShaderSource{Bytecode: []byte("vs bytecode")})
	ps := newShader(t, d, rhi.ShaderStageFragment, rhi.ShaderSource{Bytecode: []byte("ps bytecode")})
	p := newProgram(t, d, vs, ps)
	vb := newTestBuffer(t, d, rhi.ResourceTypeVertexBuffer, rhi.BufferUsageStaticDraw, 36, nil)
	obj, err := d.NewVertexArray(&rhi.NativeVertexArray{
		Layout: &rhi.VertexLayout{Attributes: []rhi.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, SemanticName: "POSITION"},
		}},
		Buffers: []rhi.NativeVertexBuffer{{Buffer: vb, Stride: 12}},
	})
	if err != nil {
		t.Fatalf("NewVertexArray: %v", err)
	}

	d.SetVertexArray(obj)
	if f.count("IASetInputLayout") != 0 {
		t.Error("input layout set before a vertex shader is bound")
	}
	d.SetProgram(p)
	layouts := f.created("input layout")
	if len(layouts) != 1 || string(layouts[0].data) != "vs bytecode" {
		t.Fatalf("input layouts = %v", layouts)
	}
	if elems := layouts[0].desc.([]InputElementDesc); len(elems) != 1 || elems[0].SemanticName != "POSITION" {
		t.Errorf("elements = %+v", elems)
	}
	if args := f.last("IASetInputLayout"); args[0] != Object(layouts[0]) {
		t.Errorf("IASetInputLayout args = %v", args)
	}
	d.Draw(rhi.DrawArguments{VertexCountPerInstance: 3, InstanceCount: 1})
	if f.count("Draw") != 1 {
		t.Errorf("Draw %d times", f.count("Draw"))
	}

	// Rebinding reuses the layout created for the shader.
	d.SetVertexArray(nil)
	d.SetVertexArray(obj)
	if n := len(f.created("input layout")); n != 1 {
		t.Errorf("%d input layouts after rebinding", n)
	}

	// A pipeline layout wins over the array's layout.
	pl, err := d.NewVertexLayout(&rhi.VertexLayout{Attributes: []rhi.VertexAttribute{{Format: gputypes.VertexFormatFloat32x2}}}, p)
	if err != nil {
		t.Fatalf("NewVertexLayout: %v", err)
	}
	d.SetVertexLayout(pl)
	n := f.count("IASetInputLayout")
	d.SetVertexArray(nil)
	d.SetVertexArray(obj)
	if f.count("IASetInputLayout") != n {
		t.Error("rebinding the array replaced the pipeline layout")
	}
	d.SetVertexLayout(nil)
	if args := f.last("IASetInputLayout"); args[0] != Object(layouts[0]) {
		t.Errorf("array layout not restored: %v", args)
	}

	obj.Destroy()
	if layouts[0].released != 1 {
		t.Errorf("input layout released %d times", layouts[0].released)
	}
	if args := f.last("IASetInputLayout"); args[0] != nil {
		t.Errorf("destroyed layout still set: %v", args)
	}
}

func TestSetVertexArray(t *testing.T) {
	d, f := openDriver(t)
	vb0 := newTestBuffer(t, d, rhi.ResourceTypeVertexBuffer, rhi.BufferUsageStaticDraw, 64, nil)
	vb1 := newTestBuffer(t, d, rhi.ResourceTypeVertexBuffer, rhi.BufferUsageStaticDraw, 64, nil)
	ib := newTestBuffer(t, d, rhi.ResourceTypeIndexBuffer, rhi.BufferUsageStaticDraw, 12, nil)

	two, err := d.NewVertexArray(&rhi.NativeVertexArray{
		Buffers:     []rhi.NativeVertexBuffer{{Buffer: vb0, Stride: 8}, {Buffer: vb1, Stride: 16, Offset: 4}},
		IndexBuffer: ib,
		IndexFormat: gputypes.IndexFormatUint32,
	})
	if err != nil {
		t.Fatalf("NewVertexArray: %v", err)
	}
	one, err := d.NewVertexArray(&rhi.NativeVertexArray{Buffers: []rhi.NativeVertexBuffer{{Buffer: vb1, Stride: 12}}})
	if err != nil {
		t.Fatalf("NewVertexArray: %v", err)
	}

	d.SetVertexArray(two)
	args := f.last("IASetVertexBuffers")
	if bufs := args[1].([]Resource); len(bufs) != 2 || bufs[1] != vb1.res {
		t.Errorf("buffers = %v", bufs)
	}
	if strides := args[2].([]uint32); strides[0] != 8 || strides[1] != 16 {
		t.Errorf("strides = %v", strides)
	}
	if args := f.last("IASetIndexBuffer"); args[0] != ib.res || args[1] != FormatR32Uint {
		t.Errorf("IASetIndexBuffer args = %v", args)
	}

	d.SetVertexArray(one)
	args = f.last("IASetVertexBuffers")
	if bufs := args[1].([]Resource); len(bufs) != 2 || bufs[0] != vb1.res || bufs[1] != nil {
		t.Errorf("stale slot not cleared: %v", bufs)
	}
	if args := f.last("IASetIndexBuffer"); args[0] != nil {
		t.Errorf("index buffer kept: %v", args)
	}
	if va := one.(*vertexArray); len(va.buffers) != 1 {
		t.Error("padding modified the vertex array")
	}

	d.SetVertexArray(nil)
	if bufs := f.last("IASetVertexBuffers")[1].([]Resource); len(bufs) != 1 || bufs[0] != nil {
		t.Errorf("unbind buffers = %v", bufs)
	}
	if d.bound.vertexArray != nil {
		t.Error("vertex array still bound")
	}
}

func TestNewVertexArrayErrors(t *testing.T) {
	d, _ := openDriver(t)
	tex := newTestTexture(t, d, texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm, rhi.TextureUsageDefault), nil)
	if _, err := d.NewVertexArray(&rhi.NativeVertexArray{Buffers: []rhi.NativeVertexBuffer{{Buffer: tex}}}); !errors.Is(err, rhi.ErrInvalidDescriptor) {
		t.Errorf("texture as vertex buffer err = %v", err)
	}
	if _, err := d.NewVertexArray(&rhi.NativeVertexArray{IndexBuffer: tex}); !errors.Is(err, rhi.ErrInvalidDescriptor) {
		t.Errorf("texture as index buffer err = %v", err)
	}
	many := &rhi.NativeVertexArray{Buffers: make([]rhi.NativeVertexBuffer, maxVertexBuffers+1)}
	if _, err := d.NewVertexArray(many); !errors.Is(err, rhi.ErrUnsupported) {
		t.Errorf("%d buffers err = %v", maxVertexBuffers+1, err)
	}
}

func TestDrawCalls(t *testing.T) {
	d, f := openDriver(t)
	d.Draw(rhi.DrawArguments{VertexCountPerInstance: 3, InstanceCount: 1, StartVertexLocation: 6})
	if args := f.last("Draw"); args == nil || args[0] != uint32(3) || args[1] != uint32(6) {
		t.Errorf("Draw args = %v", args)
	}
	d.Draw(rhi.DrawArguments{VertexCountPerInstance: 3, InstanceCount: 1, StartInstanceLocation: 2})
	d.Draw(rhi.DrawArguments{VertexCountPerInstance: 3, InstanceCount: 4})
	if f.count("DrawInstanced") != 2 {
		t.Errorf("DrawInstanced called %d times, want 2", f.count("DrawInstanced"))
	}

	d.DrawIndexed(rhi.DrawIndexedArguments{IndexCountPerInstance: 6, InstanceCount: 1})
	if f.count("DrawIndexed") != 0 {
		t.Error("indexed draw without an index buffer reached the context")
	}
	ib := newTestBuffer(t, d, rhi.ResourceTypeIndexBuffer, rhi.BufferUsageStaticDraw, 12, nil)
	va, err := d.NewVertexArray(&rhi.NativeVertexArray{IndexBuffer: ib, IndexFormat: gputypes.IndexFormatUint16})
	if err != nil {
		t.Fatalf("NewVertexArray: %v", err)
	}
	d.SetVertexArray(va)
	d.DrawIndexed(rhi.DrawIndexedArguments{IndexCountPerInstance: 6, StartIndexLocation: 3, BaseVertexLocation: -2})
	if args := f.last("DrawIndexed"); args == nil || args[0] != uint32(6) || args[1] != uint32(3) || args[2] != int32(-2) {
		t.Errorf("DrawIndexed args = %v", args)
	}
	d.DrawIndexed(rhi.DrawIndexedArguments{IndexCountPerInstance: 6, InstanceCount: 2, StartInstanceLocation: 1})
	if args := f.last("DrawIndexedInstanced"); args == nil || args[1] != uint32(2) || args[4] != uint32(1) {
		t.Errorf("DrawIndexedInstanced args = %v", args)
	}
}

func TestSetProgram(t *testing.T) {
	d, f := openDriver(t)
	vs := newShader(t, d, rhi.ShaderStageVertex, rhi.ShaderSource{Bytecode: []byte("vs")})
	ps := newShader(t, d, rhi.ShaderStageFragment, rhi.ShaderSource{Bytecode: []byte("ps")})
	p := newProgram(t, d, vs, ps)
	d.SetProgram(p)
	if f.last("VSSetShader")[0] != vs.obj || f.last("PSSetShader")[0] != ps.obj {
		t.Error("program stages not bound")
	}
	d.SetProgram(nil)
	if f.last("VSSetShader")[0] != nil || f.last("PSSetShader")[0] != nil {
		t.Error("stages not cleared")
	}
	vs.Destroy()
	if _, err := d.NewProgram(vs, ps); !errors.Is(err, errDestroyed) {
		t.Errorf("program from a destroyed shader err = %v", err)
	}
}

func TestFinish(t *testing.T) {
	d, f := openDriver(t)
	f.pending = 3
	d.Finish()
	if f.count("End") != 1 || f.count("GetData") != 4 {
		t.Errorf("End %d, GetData %d; want 1, 4", f.count("End"), f.count("GetData"))
	}
	d.Finish()
	if len(f.created("query")) != 1 {
		t.Errorf("%d queries created, want 1", len(f.created("query")))
	}

	// Finish has no timeout: it polls for as long as the GPU is busy.
	f.reset()
	f.pending = 100_000
	d.Finish()
	if f.pending != 0 || f.count("GetData") != 100_001 {
		t.Errorf("Finish returned with %d polls pending after %d polls", f.pending, f.count("GetData"))
	}

	f.reset()
	f.queryErr = errFake
	d.Finish()
	if f.count("GetData") != 1 {
		t.Errorf("GetData polled %d times after an error", f.count("GetData"))
	}
	d.Close()
	if f.created("query")[0].released != 1 {
		t.Error("query not released at close")
	}
}

func TestFinishWithoutQuery(t *testing.T) {
	d, f := openDriver(t)
	f.fail["query"] = errFake
	d.Finish()
	if f.count("Flush") != 1 || f.count("End") != 0 {
		t.Errorf("Flush %d, End %d; want 1, 0", f.count("Flush"), f.count("End"))
	}
	d.Flush()
	if f.count("Flush") != 2 {
		t.Error("Flush not forwarded")
	}
}

func TestSwapChain(t *testing.T) {
	d, f := openDriver(t)
	obj, err := d.NewSwapChain(&rhi.SwapChainDescriptor{Window: uintptr(1), Width: 640, Height: 480})
	if err != nil {
		t.Fatalf("NewSwapChain: %v", err)
	}
	sc := obj.(*swapChain)
	fake := f.swapChains[0]
	desc := fake.desc.(SwapChainDesc)
	if desc.Format != FormatB8G8R8A8Unorm || desc.BufferCount != 2 || desc.Width != 640 || desc.Window != uintptr(1) {
		t.Errorf("swap chain desc = %+v", desc)
	}

	d.SetRenderTarget(sc)
	if len(f.created("rtv")) != 1 || sc.rtv == nil {
		t.Fatal("back buffer view not created")
	}
	if bb := f.created("back buffer"); len(bb) != 1 || bb[0].released != 1 {
		t.Error("back buffer reference not released")
	}
	d.Clear(rhi.ClearAll, gputypes.Color{}, 1, 0)
	if f.count("ClearRenderTargetView") != 1 || f.count("ClearDepthStencilView") != 0 {
		t.Error("swap chain clear")
	}

	if err := sc.Present(true); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if err := sc.Present(false); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if len(fake.presents) != 2 || fake.presents[0] != 1 || fake.presents[1] != 0 {
		t.Errorf("presents = %v", fake.presents)
	}

	old := f.created("rtv")[0]
	if err := sc.Resize(800, 600); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if old.released != 1 {
		t.Error("old back buffer view not released before resizing")
	}
	if len(fake.resizes) != 1 || fake.resizes[0] != [2]uint32{800, 600} {
		t.Errorf("resizes = %v", fake.resizes)
	}
	rtv := f.created("rtv")
	if len(rtv) != 2 {
		t.Fatalf("%d back buffer views, want 2", len(rtv))
	}
	if views := f.last("OMSetRenderTargets")[0].([]View); len(views) != 1 || views[0] != View(rtv[1]) {
		t.Error("resized swap chain not rebound")
	}

	sc.Destroy()
	if rtv[1].released != 1 || fake.released != 1 {
		t.Error("swap chain not released")
	}
	if d.bound.target != nil {
		t.Error("destroyed swap chain still bound")
	}
	if err := sc.Present(true); !errors.Is(err, errDestroyed) {
		t.Errorf("Present after Destroy err = %v", err)
	}
}

func TestSwapChainUnsupported(t *testing.T) {
	f := newFakeDevice(FeatureLevel11_0)
	d := openFake(t, f, Options{Device: bareDevice{f}})
	if _, err := d.NewSwapChain(&rhi.SwapChainDescriptor{Width: 1, Height: 1}); !errors.Is(err, rhi.ErrUnsupported) {
		t.Errorf("device without swap chains err = %v", err)
	}

	d, f = openDriver(t)
	if _, err := d.NewSwapChain(&rhi.SwapChainDescriptor{Format: gputypes.TextureFormatDepth32Float}); !errors.Is(err, rhi.ErrUnsupported) {
		t.Errorf("depth swap chain err = %v", err)
	}
	f.support[FormatB8G8R8A8Unorm] = FormatSupportTexture2D
	if _, err := d.NewSwapChain(&rhi.SwapChainDescriptor{}); !errors.Is(err, rhi.ErrUnsupported) {
		t.Errorf("non display format err = %v", err)
	}
}
