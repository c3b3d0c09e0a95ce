// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import (
	"errors"
	"slices"

	"github.com/gogpu/gpucontext"
)

// call is one recorded context call.
type call struct {
	name string
	args []any
}

// fakeObject is any object created by the fake device. desc holds a copy
// of the creation descriptor and data the initial or current contents.
type fakeObject struct {
	kind     string
	desc     any
	data     []byte
	subs     [][]byte
	name     string
	released int
}

func (o *fakeObject) Release()            { o.released++ }
func (o *fakeObject) SetName(name string) { o.name = name }

// fakeDevice is a Device, SwapChainDevice and AdapterDevice and its own
// immediate Context, Annotation and Compiler. It records calls and keeps
// buffer contents.
type fakeDevice struct {
	level   FeatureLevel
	support map[Format]FormatSupport
	fail    map[string]error

	objects    []*fakeObject
	swapChains []*fakeSwapChain
	calls      []call

	compileErr error
	mapErr     error
	pending    int
	queryErr   error
}

func newFakeDevice(level FeatureLevel) *fakeDevice {
	return &fakeDevice{
		level:   level,
		support: make(map[Format]FormatSupport),
		fail:    make(map[string]error),
	}
}

func (f *fakeDevice) record(name string, args ...any) {
	f.calls = append(f.calls, call{name: name, args: args})
}

// count returns how many times name was called.
func (f *fakeDevice) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

// last returns the arguments of the last call to name.
func (f *fakeDevice) last(name string) []any {
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].name == name {
			return f.calls[i].args
		}
	}
	return nil
}

func (f *fakeDevice) reset() { f.calls = nil }

// created returns the objects of kind in creation order.
func (f *fakeDevice) created(kind string) []*fakeObject {
	var out []*fakeObject
	for _, o := range f.objects {
		if o.kind == kind {
			out = append(out, o)
		}
	}
	return out
}

// alive counts objects not yet released.
func (f *fakeDevice) alive() int {
	n := 0
	for _, o := range f.objects {
		if o.released == 0 {
			n++
		}
	}
	return n
}

func (f *fakeDevice) create(kind string, desc any) (*fakeObject, error) {
	if err := f.fail[kind]; err != nil {
		return nil, err
	}
	o := &fakeObject{kind: kind, desc: desc}
	f.objects = append(f.objects, o)
	return o, nil
}

// Device.

func (f *fakeDevice) FeatureLevel() FeatureLevel { return f.level }

func (f *fakeDevice) CheckFormatSupport(format Format) FormatSupport {
	if s, ok := f.support[format]; ok {
		return s
	}
	return ^FormatSupport(0)
}

func (f *fakeDevice) CreateBuffer(desc *BufferDesc, data *SubresourceData) (Resource, error) {
	o, err := f.create("buffer", *desc)
	if err != nil {
		return nil, err
	}
	o.data = make([]byte, desc.ByteWidth)
	if data != nil {
		copy(o.data, data.Data)
	}
	return o, nil
}

func (f *fakeDevice) CreateTexture(desc *TextureDesc, data []SubresourceData) (Resource, error) {
	o, err := f.create("texture", *desc)
	if err != nil {
		return nil, err
	}
	for _, sd := range data {
		o.subs = append(o.subs, slices.Clone(sd.Data))
	}
	return o, nil
}

func (f *fakeDevice) CreateShaderResourceView(res Resource, desc *ShaderResourceViewDesc) (View, error) {
	return f.create("srv", *desc)
}

func (f *fakeDevice) CreateRenderTargetView(res Resource, desc *RenderTargetViewDesc) (View, error) {
	return f.create("rtv", *desc)
}

func (f *fakeDevice) CreateDepthStencilView(res Resource, desc *DepthStencilViewDesc) (View, error) {
	return f.create("dsv", *desc)
}

func (f *fakeDevice) CreateSamplerState(desc *SamplerDesc) (Object, error) {
	return f.create("sampler", *desc)
}

func (f *fakeDevice) CreateRasterizerState(desc *RasterizerDesc) (Object, error) {
	return f.create("rasterizer", *desc)
}

func (f *fakeDevice) CreateDepthStencilState(desc *DepthStencilDesc) (Object, error) {
	return f.create("depth stencil", *desc)
}

func (f *fakeDevice) CreateBlendState(desc *BlendDesc) (Object, error) {
	return f.create("blend", *desc)
}

func (f *fakeDevice) CreateVertexShader(bytecode []byte) (Object, error) {
	o, err := f.create("vs", nil)
	if err == nil {
		o.data = slices.Clone(bytecode)
	}
	return o, err
}

func (f *fakeDevice) CreatePixelShader(bytecode []byte) (Object, error) {
	o, err := f.create("ps", nil)
	if err == nil {
		o.data = slices.Clone(bytecode)
	}
	return o, err
}

func (f *fakeDevice) CreateInputLayout(elements []InputElementDesc, bytecode []byte) (Object, error) {
	o, err := f.create("input layout", slices.Clone(elements))
	if err == nil {
		o.data = slices.Clone(bytecode)
	}
	return o, err
}

func (f *fakeDevice) CreateQuery(typ QueryType) (Object, error) {
	return f.create("query", typ)
}

func (f *fakeDevice) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "Fake Adapter"}
}

func (f *fakeDevice) CreateSwapChain(desc *SwapChainDesc) (SwapChain, error) {
	o, err := f.create("swap chain", *desc)
	if err != nil {
		return nil, err
	}
	sc := &fakeSwapChain{fakeObject: o, dev: f}
	f.swapChains = append(f.swapChains, sc)
	return sc, nil
}

// fakeSwapChain records presents and resizes.
type fakeSwapChain struct {
	*fakeObject
	dev      *fakeDevice
	presents []uint32
	resizes  [][2]uint32
}

func (s *fakeSwapChain) Present(interval uint32) error {
	s.presents = append(s.presents, interval)
	return nil
}

func (s *fakeSwapChain) ResizeBuffers(w, h uint32, format Format) error {
	s.resizes = append(s.resizes, [2]uint32{w, h})
	return nil
}

func (s *fakeSwapChain) Buffer() (Resource, error) {
	return s.dev.create("back buffer", nil)
}

// Context.

func (f *fakeDevice) IASetInputLayout(l Object) { f.record("IASetInputLayout", l) }
func (f *fakeDevice) IASetVertexBuffers(start uint32, bufs []Resource, strides, offsets []uint32) {
	f.record("IASetVertexBuffers", start, slices.Clone(bufs), slices.Clone(strides), slices.Clone(offsets))
}
func (f *fakeDevice) IASetIndexBuffer(b Resource, format Format, offset uint32) {
	f.record("IASetIndexBuffer", b, format, offset)
}
func (f *fakeDevice) IASetPrimitiveTopology(t PrimitiveTopology) {
	f.record("IASetPrimitiveTopology", t)
}
func (f *fakeDevice) VSSetShader(s Object) { f.record("VSSetShader", s) }
func (f *fakeDevice) VSSetConstantBuffers(start uint32, bufs []Resource) {
	f.record("VSSetConstantBuffers", start, slices.Clone(bufs))
}
func (f *fakeDevice) VSSetShaderResources(start uint32, views []View) {
	f.record("VSSetShaderResources", start, slices.Clone(views))
}
func (f *fakeDevice) VSSetSamplers(start uint32, s []Object) {
	f.record("VSSetSamplers", start, slices.Clone(s))
}
func (f *fakeDevice) PSSetShader(s Object) { f.record("PSSetShader", s) }
func (f *fakeDevice) PSSetConstantBuffers(start uint32, bufs []Resource) {
	f.record("PSSetConstantBuffers", start, slices.Clone(bufs))
}
func (f *fakeDevice) PSSetShaderResources(start uint32, views []View) {
	f.record("PSSetShaderResources", start, slices.Clone(views))
}
func (f *fakeDevice) PSSetSamplers(start uint32, s []Object) {
	f.record("PSSetSamplers", start, slices.Clone(s))
}
func (f *fakeDevice) RSSetState(s Object)            { f.record("RSSetState", s) }
func (f *fakeDevice) RSSetViewports(vps []Viewport)  { f.record("RSSetViewports", slices.Clone(vps)) }
func (f *fakeDevice) RSSetScissorRects(rects []Rect) { f.record("RSSetScissorRects", slices.Clone(rects)) }
func (f *fakeDevice) OMSetRenderTargets(colors []View, depth View) {
	f.record("OMSetRenderTargets", slices.Clone(colors), depth)
}
func (f *fakeDevice) OMSetBlendState(s Object, factor [4]float32, mask uint32) {
	f.record("OMSetBlendState", s, factor, mask)
}
func (f *fakeDevice) OMSetDepthStencilState(s Object, ref uint32) {
	f.record("OMSetDepthStencilState", s, ref)
}
func (f *fakeDevice) ClearRenderTargetView(v View, c [4]float32) {
	f.record("ClearRenderTargetView", v, c)
}
func (f *fakeDevice) ClearDepthStencilView(v View, flags ClearFlags, depth float32, stencil uint8) {
	f.record("ClearDepthStencilView", v, flags, depth, stencil)
}
func (f *fakeDevice) Draw(count, start uint32) { f.record("Draw", count, start) }
func (f *fakeDevice) DrawInstanced(count, instances, start, startInstance uint32) {
	f.record("DrawInstanced", count, instances, start, startInstance)
}
func (f *fakeDevice) DrawIndexed(count, start uint32, base int32) {
	f.record("DrawIndexed", count, start, base)
}
func (f *fakeDevice) DrawIndexedInstanced(count, instances, start uint32, base int32, startInstance uint32) {
	f.record("DrawIndexedInstanced", count, instances, start, base, startInstance)
}

// Map returns the contents of a buffer, or 64 bytes with a 16 byte row
// pitch for a texture.
func (f *fakeDevice) Map(res Resource, sub uint32, mode MapMode) (MappedSubresource, error) {
	f.record("Map", res, sub, mode)
	if f.mapErr != nil {
		return MappedSubresource{}, f.mapErr
	}
	o := res.(*fakeObject)
	if o.kind == "buffer" {
		return MappedSubresource{Data: o.data, RowPitch: uint32(len(o.data)), DepthPitch: uint32(len(o.data))}, nil
	}
	return MappedSubresource{Data: make([]byte, 64), RowPitch: 16, DepthPitch: 64}, nil
}

func (f *fakeDevice) Unmap(res Resource, sub uint32) { f.record("Unmap", res, sub) }

func (f *fakeDevice) UpdateSubresource(res Resource, sub uint32, data []byte, rowPitch, depthPitch uint32) {
	f.record("UpdateSubresource", res, sub, slices.Clone(data), rowPitch, depthPitch)
	if o := res.(*fakeObject); o.kind == "buffer" {
		copy(o.data, data)
	}
}

func (f *fakeDevice) GenerateMips(v View) { f.record("GenerateMips", v) }
func (f *fakeDevice) Flush()              { f.record("Flush") }
func (f *fakeDevice) End(q Object)        { f.record("End", q) }

// GetData reports the query pending for f.pending polls.
func (f *fakeDevice) GetData(q Object) (bool, error) {
	f.record("GetData", q)
	if f.queryErr != nil {
		return false, f.queryErr
	}
	if f.pending > 0 {
		f.pending--
		return false, nil
	}
	return true, nil
}

// Annotation.

func (f *fakeDevice) BeginEvent(name string) { f.record("BeginEvent", name) }
func (f *fakeDevice) EndEvent()              { f.record("EndEvent") }
func (f *fakeDevice) SetMarker(name string)  { f.record("SetMarker", name) }

// Compile returns "dxbc " followed by the target.
func (f *fakeDevice) Compile(source, entry, target string) ([]byte, error) {
	f.record("Compile", source, entry, target)
	if f.compileErr != nil {
		return nil, f.compileErr
	}
	return []byte("dxbc " + target), nil
}

// bareDevice hides the optional device interfaces.
type bareDevice struct {
	Device
}

// bareContext hides Annotation.
type bareContext struct {
	Context
}

var errFake = errors.New("fake failure")
