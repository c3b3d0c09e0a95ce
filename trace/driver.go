// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package trace

import (
	"log/slog"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

// Driver wraps an rhi.Driver and records every call that reaches it.
//
// Objects returned by the factories are wrappers around the inner driver's
// objects, so destruction, mapping and presentation are recorded too. Bind
// calls unwrap them before forwarding.
//
// The Driver is not safe for concurrent use.
type Driver struct {
	inner    rhi.Driver
	commands []Command
	objects  *ObjectPool
}

var (
	_ rhi.Driver         = (*Driver)(nil)
	_ rhi.DebugAnnotator = (*Driver)(nil)
)

// New wraps inner.
func New(inner rhi.Driver) *Driver {
	return &Driver{
		inner:    inner,
		commands: make([]Command, 0, 256),
		objects:  NewObjectPool(),
	}
}

// Inner returns the wrapped driver.
func (d *Driver) Inner() rhi.Driver { return d.inner }

// Recording returns a snapshot of the commands recorded so far.
func (d *Driver) Recording() *Recording {
	return &Recording{
		commands: slices.Clone(d.commands),
		objects:  d.objects,
	}
}

// Reset drops the recorded commands. Objects stay in the pool so commands
// recorded later can still reference them.
func (d *Driver) Reset() {
	d.commands = d.commands[:0]
}

// SetLogger forwards the logger to the inner driver.
func (d *Driver) SetLogger(l *slog.Logger) {
	if ls, ok := d.inner.(interface{ SetLogger(*slog.Logger) }); ok {
		ls.SetLogger(l)
	}
}

func (d *Driver) record(c Command) {
	d.commands = append(d.commands, c)
}

// unwrap returns the pool reference and inner object of a traced object.
// Objects not created through d pass through untouched.
func (d *Driver) unwrap(obj rhi.NativeObject) (ObjectRef, rhi.NativeObject) {
	if obj == nil {
		return InvalidRef, nil
	}
	if w, ok := obj.(wrapped); ok {
		o := w.traced()
		return o.ref, o.inner
	}
	return InvalidRef, obj
}

func (d *Driver) unwrapResource(res rhi.NativeResource) (ObjectRef, rhi.NativeResource) {
	if res == nil {
		return InvalidRef, nil
	}
	if r, ok := res.(*resource); ok {
		return r.ref, r.res
	}
	return InvalidRef, res
}

func (d *Driver) newObject(kind string, obj rhi.NativeObject, err error) (*object, error) {
	if err != nil {
		d.record(CreateCommand{Object: InvalidRef, Kind: kind, Err: err})
		return nil, err
	}
	ref := d.objects.Add(kind, obj)
	d.record(CreateCommand{Object: ref, Kind: kind})
	return &object{driver: d, ref: ref, inner: obj}, nil
}

func (d *Driver) traceObject(kind string, obj rhi.NativeObject, err error) (rhi.NativeObject, error) {
	o, err := d.newObject(kind, obj, err)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (d *Driver) traceResource(kind string, res rhi.NativeResource, err error) (rhi.NativeResource, error) {
	o, err := d.newObject(kind, res, err)
	if err != nil {
		return nil, err
	}
	return &resource{object: *o, res: res}, nil
}

func (d *Driver) Info() rhi.DriverInfo { return d.inner.Info() }
func (d *Driver) Caps() rhi.Caps       { return d.inner.Caps() }
func (d *Driver) IsInitialized() bool  { return d.inner.IsInitialized() }
func (d *Driver) Close()               { d.inner.Close() }

func (d *Driver) NewTexture(desc *rhi.TextureDescriptor, data []byte) (rhi.NativeResource, error) {
	res, err := d.inner.NewTexture(desc, data)
	return d.traceResource("texture", res, err)
}

func (d *Driver) NewBuffer(desc *rhi.BufferDescriptor, data []byte) (rhi.NativeResource, error) {
	res, err := d.inner.NewBuffer(desc, data)
	return d.traceResource("buffer", res, err)
}

func (d *Driver) NewShader(desc *rhi.ShaderDescriptor) (rhi.NativeObject, error) {
	obj, err := d.inner.NewShader(desc)
	return d.traceObject("shader", obj, err)
}

func (d *Driver) NewProgram(vertex, fragment rhi.NativeObject) (rhi.NativeObject, error) {
	_, vs := d.unwrap(vertex)
	_, fs := d.unwrap(fragment)
	obj, err := d.inner.NewProgram(vs, fs)
	return d.traceObject("program", obj, err)
}

func (d *Driver) NewSamplerState(desc *rhi.SamplerDescriptor) (rhi.NativeObject, error) {
	obj, err := d.inner.NewSamplerState(desc)
	return d.traceObject("sampler", obj, err)
}

func (d *Driver) NewRasterizerState(desc *rhi.RasterizerDescriptor) (rhi.NativeObject, error) {
	obj, err := d.inner.NewRasterizerState(desc)
	return d.traceObject("rasterizer", obj, err)
}

func (d *Driver) NewDepthStencilState(desc *rhi.DepthStencilDescriptor) (rhi.NativeObject, error) {
	obj, err := d.inner.NewDepthStencilState(desc)
	return d.traceObject("depth-stencil", obj, err)
}

func (d *Driver) NewBlendState(desc *rhi.BlendDescriptor) (rhi.NativeObject, error) {
	obj, err := d.inner.NewBlendState(desc)
	return d.traceObject("blend", obj, err)
}

func (d *Driver) NewVertexLayout(layout *rhi.VertexLayout, program rhi.NativeObject) (rhi.NativeObject, error) {
	_, prog := d.unwrap(program)
	obj, err := d.inner.NewVertexLayout(layout, prog)
	return d.traceObject("vertex-layout", obj, err)
}

func (d *Driver) NewVertexArray(desc *rhi.NativeVertexArray) (rhi.NativeObject, error) {
	inner := *desc
	inner.Buffers = make([]rhi.NativeVertexBuffer, len(desc.Buffers))
	for i, b := range desc.Buffers {
		_, b.Buffer = d.unwrapResource(b.Buffer)
		inner.Buffers[i] = b
	}
	_, inner.IndexBuffer = d.unwrapResource(desc.IndexBuffer)
	obj, err := d.inner.NewVertexArray(&inner)
	return d.traceObject("vertex-array", obj, err)
}

func (d *Driver) NewFramebuffer(colors []rhi.NativeAttachment, depthStencil *rhi.NativeAttachment) (rhi.NativeObject, error) {
	innerColors := make([]rhi.NativeAttachment, len(colors))
	for i, a := range colors {
		_, a.Texture = d.unwrapResource(a.Texture)
		innerColors[i] = a
	}
	var innerDepth *rhi.NativeAttachment
	if depthStencil != nil {
		a := *depthStencil
		_, a.Texture = d.unwrapResource(a.Texture)
		innerDepth = &a
	}
	obj, err := d.inner.NewFramebuffer(innerColors, innerDepth)
	return d.traceObject("framebuffer", obj, err)
}

func (d *Driver) NewSwapChain(desc *rhi.SwapChainDescriptor) (rhi.NativeSwapChain, error) {
	sc, err := d.inner.NewSwapChain(desc)
	o, err := d.newObject("swap-chain", sc, err)
	if err != nil {
		return nil, err
	}
	return &swapChain{object: *o, sc: sc}, nil
}

func (d *Driver) bind(cmd CommandType, obj rhi.NativeObject, forward func(rhi.NativeObject)) {
	ref, inner := d.unwrap(obj)
	d.record(BindCommand{Cmd: cmd, Object: ref})
	forward(inner)
}

func (d *Driver) SetRenderTarget(target rhi.NativeObject) {
	d.bind(CmdSetRenderTarget, target, d.inner.SetRenderTarget)
}

func (d *Driver) SetViewport(vp rhi.Viewport) {
	d.record(SetViewportCommand{Viewport: vp})
	d.inner.SetViewport(vp)
}

func (d *Driver) SetScissorRect(rect rhi.ScissorRect) {
	d.record(SetScissorRectCommand{Rect: rect})
	d.inner.SetScissorRect(rect)
}

func (d *Driver) SetPrimitiveTopology(topology gputypes.PrimitiveTopology) {
	d.record(SetPrimitiveTopologyCommand{Topology: topology})
	d.inner.SetPrimitiveTopology(topology)
}

func (d *Driver) SetVertexArray(va rhi.NativeObject) {
	d.bind(CmdSetVertexArray, va, d.inner.SetVertexArray)
}

func (d *Driver) SetVertexLayout(layout rhi.NativeObject) {
	d.bind(CmdSetVertexLayout, layout, d.inner.SetVertexLayout)
}

func (d *Driver) SetProgram(program rhi.NativeObject) {
	d.bind(CmdSetProgram, program, d.inner.SetProgram)
}

func (d *Driver) SetRasterizerState(state rhi.NativeObject) {
	d.bind(CmdSetRasterizerState, state, d.inner.SetRasterizerState)
}

func (d *Driver) SetDepthStencilState(state rhi.NativeObject) {
	d.bind(CmdSetDepthStencilState, state, d.inner.SetDepthStencilState)
}

func (d *Driver) SetBlendState(state rhi.NativeObject) {
	d.bind(CmdSetBlendState, state, d.inner.SetBlendState)
}

func (d *Driver) SetTexture(stage rhi.ShaderStage, unit uint32, texture rhi.NativeResource) {
	ref, inner := d.unwrapResource(texture)
	d.record(StageBindCommand{Cmd: CmdSetTexture, Stage: stage, Unit: unit, Object: ref})
	d.inner.SetTexture(stage, unit, inner)
}

func (d *Driver) SetSamplerState(stage rhi.ShaderStage, unit uint32, sampler rhi.NativeObject) {
	ref, inner := d.unwrap(sampler)
	d.record(StageBindCommand{Cmd: CmdSetSamplerState, Stage: stage, Unit: unit, Object: ref})
	d.inner.SetSamplerState(stage, unit, inner)
}

func (d *Driver) SetUniformBuffer(stage rhi.ShaderStage, slot uint32, buffer rhi.NativeResource) {
	ref, inner := d.unwrapResource(buffer)
	d.record(StageBindCommand{Cmd: CmdSetUniformBuffer, Stage: stage, Unit: slot, Object: ref})
	d.inner.SetUniformBuffer(stage, slot, inner)
}

func (d *Driver) Clear(flags rhi.ClearFlags, color gputypes.Color, depth float32, stencil uint32) {
	d.record(ClearCommand{Flags: flags, Color: color, Depth: depth, Stencil: stencil})
	d.inner.Clear(flags, color, depth, stencil)
}

func (d *Driver) Draw(args rhi.DrawArguments) {
	d.record(DrawCommand{Args: args})
	d.inner.Draw(args)
}

func (d *Driver) DrawIndexed(args rhi.DrawIndexedArguments) {
	d.record(DrawIndexedCommand{Args: args})
	d.inner.DrawIndexed(args)
}

func (d *Driver) Flush() {
	d.record(FlushCommand{})
	d.inner.Flush()
}

func (d *Driver) Finish() {
	d.record(FinishCommand{})
	d.inner.Finish()
}

// BeginDebugEvent records the event and forwards it when the inner driver
// is a DebugAnnotator.
func (d *Driver) BeginDebugEvent(name string) {
	d.record(DebugCommand{Cmd: CmdBeginDebugEvent, Name: name})
	if a, ok := d.inner.(rhi.DebugAnnotator); ok {
		a.BeginDebugEvent(name)
	}
}

func (d *Driver) EndDebugEvent() {
	d.record(DebugCommand{Cmd: CmdEndDebugEvent})
	if a, ok := d.inner.(rhi.DebugAnnotator); ok {
		a.EndDebugEvent()
	}
}

func (d *Driver) SetDebugMarker(name string) {
	d.record(DebugCommand{Cmd: CmdSetDebugMarker, Name: name})
	if a, ok := d.inner.(rhi.DebugAnnotator); ok {
		a.SetDebugMarker(name)
	}
}
