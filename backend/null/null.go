// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package null provides an rhi.Driver that keeps resources in memory and
// renders nothing.
//
// Buffers and textures are backed by byte slices and can be mapped in any
// mode, which makes the driver suitable for headless tests of code built on
// rhi. It also counts native objects so tests can check that every handle
// is destroyed exactly once.
//
// The driver registers itself as "null", the lowest priority in the rhi
// registry.
package null

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

func init() {
	rhi.Register(rhi.DriverNull, func(cfg rhi.DriverConfig) (rhi.Driver, error) {
		opts, _ := cfg.Bindings.(Options)
		return Open(opts)
	})
}

// Options configures the null driver.
type Options struct {
	// Caps replaces the default capabilities when non-nil.
	Caps *rhi.Caps

	// FailInit opens the driver in the uninitialized state.
	FailInit bool
}

// DefaultCaps returns the capabilities the null driver reports by default.
func DefaultCaps() rhi.Caps {
	return rhi.Caps{
		MaxTextureDimension:   16384,
		MaxTextureArrayLayers: 2048,
		MaxTextureUnits:       16,
		MaxUniformBuffers:     14,
		MaxColorAttachments:   8,
		MaxVertexAttributes:   16,
		Texture2DArray:        true,
		Texture3D:             true,
		TextureBuffer:         true,
		IndexUint32:           true,
		InstancedDraw:         true,
		InstancedIndexedDraw:  true,
		BaseVertex:            true,
		AutoMipmaps:           true,
		ShaderLanguage:        "wgsl",
		WGSL:                  true,
	}
}

// Driver is the null rhi.Driver.
type Driver struct {
	caps        rhi.Caps
	initialized atomic.Bool
	log         atomic.Pointer[slog.Logger]

	live          atomic.Int64
	created       atomic.Int64
	doubleDestroy atomic.Int64
	draws         atomic.Int64
	presents      atomic.Int64
	debugDepth    int
}

var (
	_ rhi.Driver         = (*Driver)(nil)
	_ rhi.DebugAnnotator = (*Driver)(nil)
)

// Open creates a null driver.
func Open(opts Options) (*Driver, error) {
	d := &Driver{caps: DefaultCaps()}
	if opts.Caps != nil {
		d.caps = *opts.Caps
	}
	d.log.Store(rhi.Logger())
	d.initialized.Store(!opts.FailInit)
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

// Info describes the null device.
func (d *Driver) Info() rhi.DriverInfo {
	return rhi.DriverInfo{
		Name:    rhi.DriverNull,
		Version: "1.0",
		Adapter: gpucontext.AdapterInfo{Name: "null", Type: gpucontext.AdapterTypeSoftware},
	}
}

func (d *Driver) Caps() rhi.Caps { return d.caps }

func (d *Driver) IsInitialized() bool { return d.initialized.Load() }

// SetLost simulates a lost device.
func (d *Driver) SetLost(lost bool) { d.initialized.Store(!lost) }

func (d *Driver) Close() {
	if n := d.live.Load(); n != 0 {
		d.logger().Warn("null: native objects alive at close", "count", n)
	}
	d.initialized.Store(false)
}

// Live returns the number of native objects created and not yet destroyed.
func (d *Driver) Live() int64 { return d.live.Load() }

// Created returns the number of native objects ever created.
func (d *Driver) Created() int64 { return d.created.Load() }

// DoubleDestroys returns how many times Destroy was called on an object
// that was already destroyed.
func (d *Driver) DoubleDestroys() int64 { return d.doubleDestroy.Load() }

// Draws returns the number of Draw and DrawIndexed calls.
func (d *Driver) Draws() int64 { return d.draws.Load() }

// Presents returns the number of swap chain presents.
func (d *Driver) Presents() int64 { return d.presents.Load() }

// DebugDepth returns the number of open debug events.
func (d *Driver) DebugDepth() int { return d.debugDepth }

func (d *Driver) newObject(kind string) object {
	d.live.Add(1)
	d.created.Add(1)
	return object{driver: d, kind: kind}
}

func (d *Driver) NewTexture(desc *rhi.TextureDescriptor, data []byte) (rhi.NativeResource, error) {
	if desc.Kind == rhi.ResourceTypeTextureBuffer {
		size := desc.DataSize()
		res := &Resource{object: d.newObject("texture-buffer"), usage: desc.Usage}
		res.subs = []subresource{{data: make([]byte, size), rowPitch: uint32(size), depthPitch: uint32(size)}}
		copy(res.subs[0].data, data)
		return res, nil
	}
	res := &Resource{object: d.newObject("texture"), usage: desc.Usage}
	layers, levels := desc.Layers(), desc.MipLevelCount
	res.subs = make([]subresource, layers*levels)
	for layer := range layers {
		for level := range levels {
			w := rhi.MipSize(desc.Width, level)
			h := rhi.MipSize(desc.Height, level)
			depth := rhi.MipSize(desc.Depth(), level)
			slice := rhi.SlicePitch(desc.Format, w, h)
			res.subs[desc.Subresource(level, layer)] = subresource{
				data:       make([]byte, uint64(slice)*uint64(depth)),
				rowPitch:   rhi.RowPitch(desc.Format, w),
				depthPitch: slice,
			}
		}
	}
	if data != nil {
		uploadLevels := uint32(1)
		if desc.Flags.Has(rhi.TextureFlagDataContainsMipmaps) {
			uploadLevels = levels
		}
		off := 0
		for level := range uploadLevels {
			for layer := range layers {
				sub := &res.subs[desc.Subresource(level, layer)]
				off += copy(sub.data, data[off:])
			}
		}
	}
	return res, nil
}

func (d *Driver) NewBuffer(desc *rhi.BufferDescriptor, data []byte) (rhi.NativeResource, error) {
	res := &Resource{object: d.newObject("buffer")}
	res.subs = []subresource{{data: make([]byte, desc.Size), rowPitch: desc.Size, depthPitch: desc.Size}}
	copy(res.subs[0].data, data)
	return res, nil
}

func (d *Driver) NewShader(desc *rhi.ShaderDescriptor) (rhi.NativeObject, error) {
	o := d.newObject("shader")
	return &o, nil
}

func (d *Driver) NewProgram(vertex, fragment rhi.NativeObject) (rhi.NativeObject, error) {
	if vertex == nil || fragment == nil {
		return nil, fmt.Errorf("null: program needs two shaders")
	}
	o := d.newObject("program")
	return &o, nil
}

func (d *Driver) NewSamplerState(*rhi.SamplerDescriptor) (rhi.NativeObject, error) {
	o := d.newObject("sampler")
	return &o, nil
}

func (d *Driver) NewRasterizerState(*rhi.RasterizerDescriptor) (rhi.NativeObject, error) {
	o := d.newObject("rasterizer")
	return &o, nil
}

func (d *Driver) NewDepthStencilState(*rhi.DepthStencilDescriptor) (rhi.NativeObject, error) {
	o := d.newObject("depth-stencil")
	return &o, nil
}

func (d *Driver) NewBlendState(*rhi.BlendDescriptor) (rhi.NativeObject, error) {
	o := d.newObject("blend")
	return &o, nil
}

func (d *Driver) NewVertexLayout(*rhi.VertexLayout, rhi.NativeObject) (rhi.NativeObject, error) {
	o := d.newObject("vertex-layout")
	return &o, nil
}

func (d *Driver) NewVertexArray(*rhi.NativeVertexArray) (rhi.NativeObject, error) {
	o := d.newObject("vertex-array")
	return &o, nil
}

func (d *Driver) NewFramebuffer([]rhi.NativeAttachment, *rhi.NativeAttachment) (rhi.NativeObject, error) {
	o := d.newObject("framebuffer")
	return &o, nil
}

func (d *Driver) NewSwapChain(desc *rhi.SwapChainDescriptor) (rhi.NativeSwapChain, error) {
	return &SwapChain{object: d.newObject("swap-chain"), width: desc.Width, height: desc.Height}, nil
}

func (d *Driver) SetRenderTarget(rhi.NativeObject)                             {}
func (d *Driver) SetViewport(rhi.Viewport)                                     {}
func (d *Driver) SetScissorRect(rhi.ScissorRect)                               {}
func (d *Driver) SetPrimitiveTopology(gputypes.PrimitiveTopology)              {}
func (d *Driver) SetVertexArray(rhi.NativeObject)                              {}
func (d *Driver) SetVertexLayout(rhi.NativeObject)                             {}
func (d *Driver) SetProgram(rhi.NativeObject)                                  {}
func (d *Driver) SetRasterizerState(rhi.NativeObject)                          {}
func (d *Driver) SetDepthStencilState(rhi.NativeObject)                        {}
func (d *Driver) SetBlendState(rhi.NativeObject)                               {}
func (d *Driver) SetTexture(rhi.ShaderStage, uint32, rhi.NativeResource)       {}
func (d *Driver) SetSamplerState(rhi.ShaderStage, uint32, rhi.NativeObject)    {}
func (d *Driver) SetUniformBuffer(rhi.ShaderStage, uint32, rhi.NativeResource) {}
func (d *Driver) Clear(rhi.ClearFlags, gputypes.Color, float32, uint32)        {}
func (d *Driver) Flush()                                                       {}
func (d *Driver) Finish()                                                      {}
func (d *Driver) Draw(rhi.DrawArguments)                                       { d.draws.Add(1) }
func (d *Driver) DrawIndexed(rhi.DrawIndexedArguments)                         { d.draws.Add(1) }
func (d *Driver) BeginDebugEvent(string)                                       { d.debugDepth++ }
func (d *Driver) SetDebugMarker(string)                                        {}

func (d *Driver) EndDebugEvent() {
	if d.debugDepth == 0 {
		d.logger().Warn("null: EndDebugEvent without BeginDebugEvent")
		return
	}
	d.debugDepth--
}
