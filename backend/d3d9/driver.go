// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d9

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/rhi"
)

// Errors returned by the Direct3D 9 driver.
var (
	// ErrNoDevice is returned by Open without a device.
	ErrNoDevice = errors.New("d3d9: no device")

	// ErrShaderModel is returned by Open when the device runs less than
	// shader model 2.0.
	ErrShaderModel = errors.New("d3d9: shader model 2.0 required")

	errDestroyed = errors.New("d3d9: object destroyed")
)

// Register and slot limits.
const (
	maxTextureUnits       = 16
	maxVertexTextureUnits = 4
	maxRenderTargets      = 4
	maxVertexAttributes   = 16

	// A uniform buffer slot s occupies the 32 float4 constant registers
	// starting at c[32*s].
	registersPerSlot = 32
	maxUniformSlots  = 7
	maxUniformSize   = registersPerSlot * 16
)

// Options configures the Direct3D 9 driver.
type Options struct {
	// Device is the IDirect3DDevice9. Required.
	Device Device

	// Compiler turns HLSL into bytecode. Without one only bytecode
	// shaders are accepted.
	Compiler Compiler

	// Debug names native objects.
	Debug bool
}

// Driver is the Direct3D 9 rhi.Driver.
//
// Direct3D 9 has no state objects. Sampler, rasterizer, depth stencil and
// blend states are lists of render and sampler states the driver applies
// when bound, skipping values the device already holds.
type Driver struct {
	dev      Device
	compiler Compiler
	annot    Annotation
	opts     Options
	devCaps  DeviceCaps
	caps     rhi.Caps
	info     rhi.DriverInfo
	log      atomic.Pointer[slog.Logger]

	renderStates  map[RenderState]uint32
	samplerStates map[samplerKey]uint32

	// backBuffer and depthSurface are the implicit swap chain surfaces,
	// bound when the render target is reset.
	backBuffer   Surface
	depthSurface Surface

	topology    PrimitiveType
	query       Query
	inScene     bool
	initialized bool
	live        atomic.Int64
	warned      map[string]bool
	debugDepth  int

	bound boundState
}

type samplerKey struct {
	sampler uint32
	typ     SamplerStateType
}

// boundState holds the objects the driver last bound.
type boundState struct {
	target      any
	colors      int
	depth       bool
	stencil     bool
	attachments []*texture
	program     *program
	vertexArray *vertexArray
	layout      *vertexDecl // set by SetVertexLayout
	decl        *vertexDecl // held by the device
	textures    [2][maxTextureUnits]*texture
	uniforms    [2][maxUniformSlots]*buffer
}

var (
	_ rhi.Driver         = (*Driver)(nil)
	_ rhi.DebugAnnotator = (*Driver)(nil)
)

// Open creates a driver over an existing device.
func Open(opts Options) (*Driver, error) {
	if opts.Device == nil {
		return nil, ErrNoDevice
	}
	dc := opts.Device.Caps()
	if shaderModel(dc.PixelShaderVersion) < ShaderVersion(2, 0) || shaderModel(dc.VertexShaderVersion) < ShaderVersion(2, 0) {
		return nil, fmt.Errorf("%w: vs 0x%x ps 0x%x", ErrShaderModel, dc.VertexShaderVersion, dc.PixelShaderVersion)
	}
	d := &Driver{
		dev:           opts.Device,
		compiler:      opts.Compiler,
		opts:          opts,
		devCaps:       dc,
		renderStates:  make(map[RenderState]uint32),
		samplerStates: make(map[samplerKey]uint32),
		topology:      PrimitiveTriangleList,
		warned:        make(map[string]bool),
	}
	d.log.Store(rhi.Logger())
	if a, ok := opts.Device.(Annotation); ok {
		d.annot = a
	}
	d.caps = d.detectCaps()
	d.info = d.detectInfo()

	if s, err := d.dev.RenderTarget(); err == nil {
		d.backBuffer = s
	} else {
		d.logger().Debug("d3d9: no implicit back buffer", "err", err)
	}
	if s, err := d.dev.DepthStencilSurface(); err == nil {
		d.depthSurface = s
	}
	// The implicit depth surface is assumed to carry stencil, as the
	// usual D24S8 auto depth stencil format does.
	if d.backBuffer != nil {
		d.bound.colors = 1
	}
	d.bound.depth = d.depthSurface != nil
	d.bound.stencil = d.bound.depth
	// Fixed function lighting would override the vertex colors of
	// shader-less draws; clipping is left on.
	d.setRenderState(RSLighting, 0)
	d.initialized = true

	d.logger().Info("d3d9: driver opened",
		"adapter", d.info.Adapter.Name,
		"vs", shaderModelString(dc.VertexShaderVersion),
		"ps", shaderModelString(dc.PixelShaderVersion),
		"compiler", d.compiler != nil)
	return d, nil
}

func shaderModelString(v uint32) string {
	return fmt.Sprintf("%d_%d", v>>8&0xFF, v&0xFF)
}

// SetLogger sets the driver logger. rhi.SetLogger calls it.
func (d *Driver) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	d.log.Store(l)
}

func (d *Driver) logger() *slog.Logger { return d.log.Load() }

// warnOnce logs msg the first time key is seen.
func (d *Driver) warnOnce(key, msg string, args ...any) {
	if d.warned[key] {
		return
	}
	d.warned[key] = true
	d.logger().Warn(msg, args...)
}

// sm3 reports whether both stages run shader model 3.0.
func (d *Driver) sm3() bool {
	return shaderModel(d.devCaps.VertexShaderVersion) >= ShaderVersion(3, 0) &&
		shaderModel(d.devCaps.PixelShaderVersion) >= ShaderVersion(3, 0)
}

// detectCaps derives capabilities from D3DCAPS9. Pixel shader 2.0 has 32
// constant registers, one uniform slot; 3.0 has 224.
func (d *Driver) detectCaps() rhi.Caps {
	dc := d.devCaps
	uniforms := uint32(1)
	if d.sm3() {
		uniforms = maxUniformSlots
	}
	return rhi.Caps{
		MaxTextureDimension:  min(dc.MaxTextureWidth, dc.MaxTextureHeight),
		MaxTextureUnits:      maxTextureUnits,
		MaxUniformBuffers:    uniforms,
		MaxColorAttachments:  min(max(dc.NumSimultaneousRTs, 1), maxRenderTargets),
		MaxVertexAttributes:  maxVertexAttributes,
		Texture3D:            dc.TextureCaps&TextureCapsVolumeMap != 0,
		IndexUint32:          dc.MaxVertexIndex > 0xFFFF,
		InstancedIndexedDraw: d.sm3(),
		BaseVertex:           true,
		ShaderLanguage:       "hlsl",
	}
}

func (d *Driver) detectInfo() rhi.DriverInfo {
	info := rhi.DriverInfo{
		Name:    rhi.DriverD3D9,
		Version: "Direct3D 9 shader model " + shaderModelString(d.devCaps.PixelShaderVersion),
		Adapter: gpucontext.AdapterInfo{Name: "Direct3D 9 device"},
	}
	if a, ok := d.dev.(AdapterDevice); ok {
		info.Adapter = a.AdapterInfo()
	}
	return info
}

// Info describes the opened device.
func (d *Driver) Info() rhi.DriverInfo { return d.info }

func (d *Driver) Caps() rhi.Caps { return d.caps }

func (d *Driver) IsInitialized() bool { return d.initialized }

// Close ends the scene, restores the implicit render target and releases
// the surfaces the driver holds. The device belongs to the caller.
func (d *Driver) Close() {
	if !d.initialized {
		return
	}
	d.endScene()
	d.SetRenderTarget(nil)
	for stage := range d.bound.textures {
		for unit, t := range d.bound.textures[stage] {
			if t != nil {
				d.dev.SetTexture(samplerIndex(rhi.ShaderStage(stage), uint32(unit)), nil)
			}
		}
	}
	if d.query != nil {
		d.query.Release()
		d.query = nil
	}
	if d.backBuffer != nil {
		d.backBuffer.Release()
		d.backBuffer = nil
	}
	if d.depthSurface != nil {
		d.depthSurface.Release()
		d.depthSurface = nil
	}
	if n := d.live.Load(); n != 0 {
		d.logger().Warn("d3d9: native objects alive at close", "count", n)
	}
	d.bound = boundState{}
	d.initialized = false
}

// Live returns the number of native objects created and not yet destroyed.
func (d *Driver) Live() int64 { return d.live.Load() }

// name labels o for debuggers when the driver runs in debug mode.
func (d *Driver) name(o any, label string) {
	if !d.opts.Debug || label == "" {
		return
	}
	if n, ok := o.(Named); ok {
		n.SetName(label)
	}
}

// setRenderState sets a render state unless the device already holds the
// value.
func (d *Driver) setRenderState(rs RenderState, v uint32) {
	if cur, ok := d.renderStates[rs]; ok && cur == v {
		return
	}
	d.renderStates[rs] = v
	d.dev.SetRenderState(rs, v)
}

func (d *Driver) setSamplerState(sampler uint32, typ SamplerStateType, v uint32) {
	k := samplerKey{sampler, typ}
	if cur, ok := d.samplerStates[k]; ok && cur == v {
		return
	}
	d.samplerStates[k] = v
	d.dev.SetSamplerState(sampler, typ, v)
}

// beginScene opens a scene before the first draw or clear after a
// flush.
func (d *Driver) beginScene() bool {
	if d.inScene {
		return true
	}
	if err := d.dev.BeginScene(); err != nil {
		d.logger().Error("d3d9: BeginScene", "err", err)
		return false
	}
	d.inScene = true
	return true
}

func (d *Driver) endScene() {
	if !d.inScene {
		return
	}
	d.inScene = false
	if err := d.dev.EndScene(); err != nil {
		d.logger().Error("d3d9: EndScene", "err", err)
	}
}

func (d *Driver) BeginDebugEvent(name string) {
	d.debugDepth++
	if d.annot != nil {
		d.annot.BeginEvent(name)
	}
}

func (d *Driver) EndDebugEvent() {
	if d.debugDepth == 0 {
		d.logger().Warn("d3d9: EndDebugEvent without BeginDebugEvent")
		return
	}
	d.debugDepth--
	if d.annot != nil {
		d.annot.EndEvent()
	}
}

func (d *Driver) SetDebugMarker(name string) {
	if d.annot != nil {
		d.annot.SetMarker(name)
	}
}
