// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"log/slog"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/rhi"
)

// fakeDevice is a noop hal device that records what the driver asks of
// it.
type fakeDevice struct {
	*noop.Device
	queue *fakeQueue

	counts    map[string]int
	pipelines []hal.RenderPipelineDescriptor
	groups    []hal.BindGroupDescriptor
	passes    []hal.RenderPassDescriptor
	calls     []passCall

	// pipelineErr fails CreateRenderPipeline.
	pipelineErr error
}

// passCall is one command recorded into a render pass.
type passCall struct {
	name string
	args []any
}

func newFakeDevice() *fakeDevice {
	f := &fakeDevice{Device: &noop.Device{}, counts: make(map[string]int)}
	f.queue = &fakeQueue{Queue: &noop.Queue{}, f: f}
	return f
}

func (f *fakeDevice) count(name string) { f.counts[name]++ }

// pass returns the commands named name recorded so far.
func (f *fakeDevice) pass(name string) [][]any {
	var out [][]any
	for _, c := range f.calls {
		if c.name == name {
			out = append(out, c.args)
		}
	}
	return out
}

func (f *fakeDevice) reset() {
	clear(f.counts)
	f.pipelines, f.groups, f.passes, f.calls = nil, nil, nil, nil
}

func (f *fakeDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	if f.pipelineErr != nil {
		return nil, f.pipelineErr
	}
	f.count("CreateRenderPipeline")
	f.pipelines = append(f.pipelines, *desc)
	return f.Device.CreateRenderPipeline(desc)
}

func (f *fakeDevice) DestroyRenderPipeline(p hal.RenderPipeline) { f.count("DestroyRenderPipeline") }

func (f *fakeDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	f.count("CreateBindGroup")
	f.groups = append(f.groups, *desc)
	return f.Device.CreateBindGroup(desc)
}

func (f *fakeDevice) DestroyBindGroup(hal.BindGroup) { f.count("DestroyBindGroup") }

func (f *fakeDevice) CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	f.count("CreateSampler")
	return f.Device.CreateSampler(desc)
}

func (f *fakeDevice) DestroySampler(hal.Sampler) { f.count("DestroySampler") }

func (f *fakeDevice) DestroyBuffer(hal.Buffer) { f.count("DestroyBuffer") }

func (f *fakeDevice) DestroyTexture(hal.Texture) { f.count("DestroyTexture") }

func (f *fakeDevice) DestroyShaderModule(hal.ShaderModule) { f.count("DestroyShaderModule") }

func (f *fakeDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	f.count("CreateCommandEncoder")
	return &fakeEncoder{CommandEncoder: &noop.CommandEncoder{}, f: f}, nil
}

func (f *fakeDevice) WaitIdle() error {
	f.count("WaitIdle")
	f.queue.completed = f.queue.submitted
	return nil
}

// fakeQueue completes submissions at once unless hold is set.
type fakeQueue struct {
	*noop.Queue
	f *fakeDevice

	submitted, completed uint64
	hold                 bool
}

func (q *fakeQueue) Submit([]hal.CommandBuffer) (uint64, error) {
	q.f.count("Submit")
	q.submitted++
	if !q.hold {
		q.completed = q.submitted
	}
	return q.submitted, nil
}

func (q *fakeQueue) PollCompleted() uint64 { return q.completed }

func (q *fakeQueue) WriteBuffer(buf hal.Buffer, offset uint64, data []byte) error {
	q.f.count("WriteBuffer")
	return q.Queue.WriteBuffer(buf, offset, data)
}

func (q *fakeQueue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) error {
	q.f.count("WriteTexture")
	return nil
}

type fakeEncoder struct {
	*noop.CommandEncoder
	f *fakeDevice
}

func (e *fakeEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.f.passes = append(e.f.passes, *desc)
	return &fakePass{RenderPassEncoder: &noop.RenderPassEncoder{}, f: e.f}
}

type fakePass struct {
	*noop.RenderPassEncoder
	f *fakeDevice
}

func (p *fakePass) record(name string, args ...any) {
	p.f.calls = append(p.f.calls, passCall{name, args})
}

func (p *fakePass) End() { p.record("End") }

func (p *fakePass) SetPipeline(pl hal.RenderPipeline) { p.record("SetPipeline", pl) }

func (p *fakePass) SetBindGroup(index uint32, group hal.BindGroup, _ []uint32) {
	p.record("SetBindGroup", index, group)
}

func (p *fakePass) SetVertexBuffer(slot uint32, buf hal.Buffer, offset uint64) {
	p.record("SetVertexBuffer", slot, buf, offset)
}

func (p *fakePass) SetIndexBuffer(buf hal.Buffer, format gputypes.IndexFormat, offset uint64) {
	p.record("SetIndexBuffer", buf, format, offset)
}

func (p *fakePass) SetViewport(x, y, w, h, minDepth, maxDepth float32) {
	p.record("SetViewport", x, y, w, h, minDepth, maxDepth)
}

func (p *fakePass) SetScissorRect(x, y, w, h uint32) { p.record("SetScissorRect", x, y, w, h) }

func (p *fakePass) Draw(vertices, instances, first, firstInstance uint32) {
	p.record("Draw", vertices, instances, first, firstInstance)
}

func (p *fakePass) DrawIndexed(indices, instances, first uint32, base int32, firstInstance uint32) {
	p.record("DrawIndexed", indices, instances, first, base, firstInstance)
}

func openDriver(t *testing.T) (*Driver, *fakeDevice) {
	t.Helper()
	f := newFakeDevice()
	d, err := Open(Options{Device: f, Queue: f.queue, Debug: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	d.SetLogger(slog.New(slog.DiscardHandler))
	t.Cleanup(d.Close)
	return d, f
}

func texDesc(kind rhi.ResourceType, format gputypes.TextureFormat, usage rhi.TextureUsage) rhi.TextureDescriptor {
	return rhi.TextureDescriptor{
		Kind:          kind,
		Width:         16,
		Height:        8,
		DepthOrLayers: 1,
		Format:        format,
		Usage:         usage,
		MipLevelCount: 1,
	}
}

func newTestTexture(t *testing.T, d *Driver, desc rhi.TextureDescriptor, data []byte) *texture {
	t.Helper()
	res, err := d.NewTexture(&desc, data)
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	return res.(*texture)
}

func renderTexture(t *testing.T, d *Driver, format gputypes.TextureFormat) *texture {
	t.Helper()
	desc := texDesc(rhi.ResourceTypeTexture2D, format, rhi.TextureUsageDefault)
	desc.Flags = rhi.TextureFlagRenderTarget
	return newTestTexture(t, d, desc, nil)
}

func newTestBuffer(t *testing.T, d *Driver, kind rhi.ResourceType, size uint32, data []byte) *buffer {
	t.Helper()
	res, err := d.NewBuffer(&rhi.BufferDescriptor{Kind: kind, Size: size}, data)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	return res.(*buffer)
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

const texturedWGSL = `
struct Globals {
    mvp: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> globals: Globals;
@group(1) @binding(0) var tex: texture_2d<f32>;
@group(1) @binding(1) var samp: sampler;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec3<f32>, @location(1) uv: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = globals.mvp * vec4<f32>(pos, 1.0);
    out.uv = uv;
    return out;
}

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(tex, samp, uv);
}
`

const triangleWGSL = `
@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    var pos = array<vec2<f32>, 3>(
        vec2<f32>(0.0, 0.5),
        vec2<f32>(-0.5, -0.5),
        vec2<f32>(0.5, -0.5)
    );
    return vec4<f32>(pos[idx], 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

func newTestShader(t *testing.T, d *Driver, stage rhi.ShaderStage, src string) *shader {
	t.Helper()
	res, err := d.NewShader(&rhi.ShaderDescriptor{Stage: stage, Source: rhi.ShaderSource{WGSL: src}})
	if err != nil {
		t.Fatalf("NewShader(%v): %v", stage, err)
	}
	return res.(*shader)
}

func newTestProgram(t *testing.T, d *Driver, src string) *program {
	t.Helper()
	vs := newTestShader(t, d, rhi.ShaderStageVertex, src)
	fs := newTestShader(t, d, rhi.ShaderStageFragment, src)
	p, err := d.NewProgram(vs, fs)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	return p.(*program)
}

// texturedLayout matches the inputs of texturedWGSL.
func texturedLayout() *rhi.VertexLayout {
	return &rhi.VertexLayout{Attributes: []rhi.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x3, ShaderLocation: 0},
		{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
	}}
}
