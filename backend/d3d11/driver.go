// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/naga/hlsl"

	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/internal/statecache"
)

// Errors returned by the Direct3D 11 driver.
var (
	// ErrNoDevice is returned by Open when the device or immediate
	// context is missing.
	ErrNoDevice = errors.New("d3d11: no device or context")

	// ErrFeatureLevel is returned by Open below feature level 9_1.
	ErrFeatureLevel = errors.New("d3d11: unsupported feature level")

	errDestroyed = errors.New("d3d11: object destroyed")
)

// Slot limits of the pipeline stages, from D3D11_COMMONSHADER_*.
const (
	maxTextureUnits  = 16
	maxUniformSlots  = 14
	maxVertexBuffers = 32
)

// Options configures the Direct3D 11 driver.
type Options struct {
	// Device and Context are the device and its immediate context.
	// Required.
	Device  Device
	Context Context

	// Compiler turns HLSL into bytecode. Without one only bytecode
	// shaders are accepted.
	Compiler Compiler

	// ShaderModel is the HLSL model WGSL is translated to on feature
	// level 11_0 and above. The zero value is shader model 5.0.
	ShaderModel hlsl.ShaderModel

	// Debug names native objects.
	Debug bool
}

// Driver is the Direct3D 11 rhi.Driver.
//
// Immutable state objects are shared: equal rhi descriptors map to one
// native object, like the runtime itself does for state creation.
type Driver struct {
	dev      Device
	ctx      Context
	compiler Compiler
	annot    Annotation
	opts     Options
	level    FeatureLevel
	caps     rhi.Caps
	info     rhi.DriverInfo
	log      atomic.Pointer[slog.Logger]

	samplers      *statecache.Cache[SamplerDesc, Object]
	rasterizers   *statecache.Cache[RasterizerDesc, Object]
	depthStencils *statecache.Cache[DepthStencilDesc, Object]
	blends        *statecache.Cache[BlendDesc, Object]

	query       Object
	initialized bool
	live        atomic.Int64
	warned      map[string]bool
	debugDepth  int

	bound boundState
}

// boundState holds the objects the driver last bound.
type boundState struct {
	target      any
	colors      []View
	depth       View
	attachments []*texture
	program     *program
	vertexArray *vertexArray
	layout      *inputLayout // set by SetVertexLayout
	input       Object       // held by the context
	textures    [2][maxTextureUnits]*texture
}

var (
	_ rhi.Driver         = (*Driver)(nil)
	_ rhi.DebugAnnotator = (*Driver)(nil)
)

func releaseObject(o Object) { o.Release() }

// Open creates a driver over an existing device and immediate context.
func Open(opts Options) (*Driver, error) {
	if opts.Device == nil || opts.Context == nil {
		return nil, ErrNoDevice
	}
	level := opts.Device.FeatureLevel()
	if level < FeatureLevel9_1 {
		return nil, fmt.Errorf("%w: 0x%x", ErrFeatureLevel, uint32(level))
	}
	d := &Driver{
		dev:           opts.Device,
		ctx:           opts.Context,
		compiler:      opts.Compiler,
		opts:          opts,
		level:         level,
		warned:        make(map[string]bool),
		samplers:      statecache.New[SamplerDesc](releaseObject),
		rasterizers:   statecache.New[RasterizerDesc](releaseObject),
		depthStencils: statecache.New[DepthStencilDesc](releaseObject),
		blends:        statecache.New[BlendDesc](releaseObject),
	}
	d.log.Store(rhi.Logger())
	if a, ok := opts.Context.(Annotation); ok {
		d.annot = a
	}
	d.caps = d.detectCaps()
	d.info = d.detectInfo()

	d.ctx.IASetPrimitiveTopology(TopologyTriangleList)
	d.initialized = true

	d.logger().Info("d3d11: driver opened",
		"level", level.String(),
		"adapter", d.info.Adapter.Name,
		"compiler", d.compiler != nil,
		"wgsl", d.caps.WGSL)
	return d, nil
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

// detectCaps derives capabilities from the feature level, following the
// limits table of the Direct3D 11 documentation.
func (d *Driver) detectCaps() rhi.Caps {
	l := d.level
	caps := rhi.Caps{
		MaxTextureDimension:  2048,
		MaxTextureUnits:      maxTextureUnits,
		MaxUniformBuffers:    maxUniformSlots,
		MaxColorAttachments:  1,
		MaxVertexAttributes:  16,
		Texture3D:            true,
		IndexUint32:          l >= FeatureLevel9_2,
		InstancedDraw:        l >= FeatureLevel9_3,
		InstancedIndexedDraw: l >= FeatureLevel9_3,
		BaseVertex:           true,
		AutoMipmaps:          true,
		ShaderLanguage:       "hlsl",
		WGSL:                 d.compiler != nil && l >= FeatureLevel11_0,
	}
	switch {
	case l >= FeatureLevel11_0:
		caps.MaxTextureDimension = 16384
		caps.MaxTextureArrayLayers = 2048
		caps.MaxColorAttachments = 8
		caps.MaxVertexAttributes = 32
	case l >= FeatureLevel10_0:
		caps.MaxTextureDimension = 8192
		caps.MaxTextureArrayLayers = 512
		caps.MaxColorAttachments = 8
	case l >= FeatureLevel9_3:
		caps.MaxTextureDimension = 4096
		caps.MaxColorAttachments = 4
	}
	caps.Texture2DArray = caps.MaxTextureArrayLayers > 0
	caps.TextureBuffer = l >= FeatureLevel10_0
	return caps
}

func (d *Driver) detectInfo() rhi.DriverInfo {
	info := rhi.DriverInfo{
		Name:    rhi.DriverD3D11,
		Version: "Direct3D 11 feature level " + d.level.String(),
		Adapter: gpucontext.AdapterInfo{Name: "Direct3D 11 device"},
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

// FeatureLevel returns the feature level of the device.
func (d *Driver) FeatureLevel() FeatureLevel { return d.level }

// Close unbinds everything and releases the shared state objects. The
// device and context belong to the caller.
func (d *Driver) Close() {
	if !d.initialized {
		return
	}
	d.ctx.OMSetRenderTargets(nil, nil)
	d.ctx.Flush()
	if d.query != nil {
		d.query.Release()
		d.query = nil
	}
	n := d.samplers.Clear() + d.rasterizers.Clear() + d.depthStencils.Clear() + d.blends.Clear()
	if n != 0 {
		d.logger().Debug("d3d11: released shared state objects", "count", n)
	}
	if n := d.live.Load(); n != 0 {
		d.logger().Warn("d3d11: native objects alive at close", "count", n)
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

func (d *Driver) BeginDebugEvent(name string) {
	d.debugDepth++
	if d.annot != nil {
		d.annot.BeginEvent(name)
	}
}

func (d *Driver) EndDebugEvent() {
	if d.debugDepth == 0 {
		d.logger().Warn("d3d11: EndDebugEvent without BeginDebugEvent")
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
