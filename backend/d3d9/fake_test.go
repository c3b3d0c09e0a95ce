// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d9

import (
	"errors"
	"slices"

	"github.com/gogpu/gpucontext"
)

// call is one recorded device call.
type call struct {
	name string
	args []any
}

// fakeObject is any object created by the fake device. desc holds a copy
// of the creation arguments and data the bytecode or buffer contents.
type fakeObject struct {
	kind     string
	desc     any
	data     []byte
	name     string
	released int
}

func (o *fakeObject) Release()            { o.released++ }
func (o *fakeObject) SetName(name string) { o.name = name }

// fakeBuffer keeps its contents and records locks.
type fakeBuffer struct {
	*fakeObject
	locks   []LockFlags
	unlocks int
	lockErr error
}

func (b *fakeBuffer) Lock(offset, size uint32, flags LockFlags) ([]byte, error) {
	if b.lockErr != nil {
		return nil, b.lockErr
	}
	b.locks = append(b.locks, flags)
	if size == 0 {
		return b.data[offset:], nil
	}
	return b.data[offset : offset+size], nil
}

func (b *fakeBuffer) Unlock() { b.unlocks++ }

// fakePitch is the row pitch of every locked texture level.
const fakePitch = 64

// fakeTexture hands out 16 rows of fakePitch bytes per level and keeps
// them for inspection.
type fakeTexture struct {
	*fakeObject
	dev     *fakeDevice
	levels  map[[2]uint32][]byte
	locks   []LockFlags
	unlocks int
}

func (t *fakeTexture) Lock(face, level uint32, flags LockFlags) (LockedRect, error) {
	t.locks = append(t.locks, flags)
	k := [2]uint32{face, level}
	if t.levels[k] == nil {
		t.levels[k] = make([]byte, fakePitch*16)
	}
	return LockedRect{Data: t.levels[k], Pitch: fakePitch}, nil
}

func (t *fakeTexture) Unlock(face, level uint32) { t.unlocks++ }

func (t *fakeTexture) Surface(face, level uint32) (Surface, error) {
	return t.dev.create("surface", [2]uint32{face, level})
}

// fakeQuery reports pending for dev.pending polls.
type fakeQuery struct {
	*fakeObject
	dev *fakeDevice
}

func (q *fakeQuery) Issue() { q.dev.record("Issue") }

func (q *fakeQuery) GetData(flush bool) (bool, error) {
	q.dev.record("GetData", flush)
	if q.dev.queryErr != nil {
		return false, q.dev.queryErr
	}
	if q.dev.pending > 0 {
		q.dev.pending--
		return false, nil
	}
	return true, nil
}

// fakeDevice is a Device, SwapChainDevice, AdapterDevice, Annotation and
// Compiler. It records calls and keeps resource contents.
type fakeDevice struct {
	caps        DeviceCaps
	unsupported map[Format]bool
	fail        map[string]error

	objects    []*fakeObject
	buffers    []*fakeBuffer
	textures   []*fakeTexture
	swapChains []*fakeSwapChain
	calls      []call

	backBuffer *fakeObject
	depth      *fakeObject

	compileErr error
	pending    int
	queryErr   error
}

// newFakeDevice returns a device running shader model major.0.
func newFakeDevice(major uint32) *fakeDevice {
	f := &fakeDevice{
		caps: DeviceCaps{
			TextureCaps:         TextureCapsCubeMap | TextureCapsVolumeMap | TextureCapsMipMap,
			MaxTextureWidth:     4096,
			MaxTextureHeight:    8192,
			MaxVolumeExtent:     256,
			MaxAnisotropy:       16,
			MaxStreams:          16,
			MaxVertexIndex:      0xFFFFFF,
			NumSimultaneousRTs:  4,
			VertexShaderVersion: 0xFFFE0000 | ShaderVersion(major, 0),
			PixelShaderVersion:  0xFFFF0000 | ShaderVersion(major, 0),
		},
		unsupported: make(map[Format]bool),
		fail:        make(map[string]error),
	}
	f.backBuffer = &fakeObject{kind: "back buffer"}
	f.depth = &fakeObject{kind: "depth surface"}
	return f
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

// all returns the arguments of every call to name.
func (f *fakeDevice) all(name string) [][]any {
	var out [][]any
	for _, c := range f.calls {
		if c.name == name {
			out = append(out, c.args)
		}
	}
	return out
}

// names lists the recorded call names in order.
func (f *fakeDevice) names() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.name
	}
	return out
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

func (f *fakeDevice) create(kind string, desc any) (*fakeObject, error) {
	if err := f.fail[kind]; err != nil {
		return nil, err
	}
	o := &fakeObject{kind: kind, desc: desc}
	f.objects = append(f.objects, o)
	return o, nil
}

// Device.

func (f *fakeDevice) Caps() DeviceCaps { return f.caps }

func (f *fakeDevice) CheckFormat(format Format, usage Usage, typ ResourceType) bool {
	return !f.unsupported[format]
}

func (f *fakeDevice) CreateTexture(desc *TextureDesc) (Texture, error) {
	o, err := f.create("texture", *desc)
	if err != nil {
		return nil, err
	}
	t := &fakeTexture{fakeObject: o, dev: f, levels: make(map[[2]uint32][]byte)}
	f.textures = append(f.textures, t)
	return t, nil
}

func (f *fakeDevice) newBuffer(kind string, desc any, length uint32) (Buffer, error) {
	o, err := f.create(kind, desc)
	if err != nil {
		return nil, err
	}
	o.data = make([]byte, length)
	b := &fakeBuffer{fakeObject: o}
	f.buffers = append(f.buffers, b)
	return b, nil
}

func (f *fakeDevice) CreateVertexBuffer(length uint32, usage Usage, pool Pool) (Buffer, error) {
	return f.newBuffer("vertex buffer", [2]uint32{uint32(usage), uint32(pool)}, length)
}

func (f *fakeDevice) CreateIndexBuffer(length uint32, usage Usage, format Format, pool Pool) (Buffer, error) {
	return f.newBuffer("index buffer", [3]uint32{uint32(usage), uint32(format), uint32(pool)}, length)
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

func (f *fakeDevice) CreateVertexDeclaration(elements []VertexElement) (Object, error) {
	return f.create("declaration", slices.Clone(elements))
}

func (f *fakeDevice) CreateQuery(typ QueryType) (Query, error) {
	o, err := f.create("query", typ)
	if err != nil {
		return nil, err
	}
	return &fakeQuery{fakeObject: o, dev: f}, nil
}

func (f *fakeDevice) RenderTarget() (Surface, error) {
	if f.backBuffer == nil {
		return nil, errFake
	}
	return f.backBuffer, nil
}

func (f *fakeDevice) DepthStencilSurface() (Surface, error) {
	if f.depth == nil {
		return nil, errFake
	}
	return f.depth, nil
}

func (f *fakeDevice) SetRenderTarget(index uint32, s Surface) error {
	f.record("SetRenderTarget", index, s)
	return nil
}

func (f *fakeDevice) SetDepthStencilSurface(s Surface) { f.record("SetDepthStencilSurface", s) }
func (f *fakeDevice) SetViewport(vp Viewport)          { f.record("SetViewport", vp) }
func (f *fakeDevice) SetScissorRect(r Rect)            { f.record("SetScissorRect", r) }

func (f *fakeDevice) SetRenderState(state RenderState, value uint32) {
	f.record("SetRenderState", state, value)
}

func (f *fakeDevice) SetSamplerState(sampler uint32, typ SamplerStateType, value uint32) {
	f.record("SetSamplerState", sampler, typ, value)
}

func (f *fakeDevice) SetTexture(sampler uint32, tex Texture) { f.record("SetTexture", sampler, tex) }

func (f *fakeDevice) SetStreamSource(stream uint32, b Buffer, offset, stride uint32) {
	f.record("SetStreamSource", stream, b, offset, stride)
}

func (f *fakeDevice) SetStreamSourceFreq(stream, setting uint32) {
	f.record("SetStreamSourceFreq", stream, setting)
}

func (f *fakeDevice) SetIndices(b Buffer)           { f.record("SetIndices", b) }
func (f *fakeDevice) SetVertexDeclaration(o Object) { f.record("SetVertexDeclaration", o) }
func (f *fakeDevice) SetVertexShader(s Object)      { f.record("SetVertexShader", s) }
func (f *fakeDevice) SetPixelShader(s Object)       { f.record("SetPixelShader", s) }

func (f *fakeDevice) SetVertexShaderConstantF(start uint32, data []float32) {
	f.record("SetVertexShaderConstantF", start, slices.Clone(data))
}

func (f *fakeDevice) SetPixelShaderConstantF(start uint32, data []float32) {
	f.record("SetPixelShaderConstantF", start, slices.Clone(data))
}

func (f *fakeDevice) Clear(flags ClearFlags, color uint32, z float32, stencil uint32) {
	f.record("Clear", flags, color, z, stencil)
}

func (f *fakeDevice) BeginScene() error {
	f.record("BeginScene")
	return f.fail["BeginScene"]
}

func (f *fakeDevice) EndScene() error {
	f.record("EndScene")
	return nil
}

func (f *fakeDevice) DrawPrimitive(typ PrimitiveType, startVertex, primitiveCount uint32) {
	f.record("DrawPrimitive", typ, startVertex, primitiveCount)
}

func (f *fakeDevice) DrawIndexedPrimitive(typ PrimitiveType, baseVertex int32, minIndex, numVertices, startIndex, primitiveCount uint32) {
	f.record("DrawIndexedPrimitive", typ, baseVertex, minIndex, numVertices, startIndex, primitiveCount)
}

func (f *fakeDevice) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "Fake Adapter"}
}

func (f *fakeDevice) CreateAdditionalSwapChain(pp *PresentParameters) (SwapChain, error) {
	o, err := f.create("swap chain", *pp)
	if err != nil {
		return nil, err
	}
	sc := &fakeSwapChain{fakeObject: o, dev: f}
	f.swapChains = append(f.swapChains, sc)
	return sc, nil
}

// fakeSwapChain counts presents.
type fakeSwapChain struct {
	*fakeObject
	dev      *fakeDevice
	presents int
}

func (s *fakeSwapChain) Present() error {
	s.presents++
	s.dev.record("Present")
	return nil
}

func (s *fakeSwapChain) BackBuffer() (Surface, error) {
	return s.dev.create("swap chain buffer", nil)
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

var errFake = errors.New("fake failure")
