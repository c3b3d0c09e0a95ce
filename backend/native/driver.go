// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/internal/statecache"
)

// Binding limits of one shader stage.
const (
	maxTextureUnits  = 16
	maxUniformSlots  = 12
	maxVertexBuffers = 8
	bindGroupCount   = 2
)

// Options configures the native driver.
type Options struct {
	// Device and Queue are an opened hal device and its queue. When Device
	// is nil, Open opens one on Backend and destroys it at Close.
	Device hal.Device
	Queue  hal.Queue

	// Adapter describes the device. It supplies DriverInfo and the limits
	// Caps are derived from; nil means default WebGPU limits.
	Adapter *hal.ExposedAdapter

	// Backend is the hal backend Open uses without a Device. The zero
	// value selects the most capable registered backend.
	Backend gputypes.Backend

	// Label prefixes the debug labels of native objects.
	Label string

	// ColorFormat is the swap chain format used when a descriptor leaves
	// it undefined. The zero value is BGRA8Unorm.
	ColorFormat gputypes.TextureFormat

	// Debug labels every native object and logs pipeline creation.
	Debug bool
}

// Driver is the rhi.Driver over a wgpu hal device.
//
// Commands are recorded into one command encoder at a time. A render pass
// is opened lazily by the first draw or pending clear after a state change
// that needs one, and Flush submits everything recorded so far. Objects
// the GPU may still read are destroyed only after the submission using
// them completes.
//
// Thread Safety:
// Driver is not safe for concurrent use, like every rhi.Driver.
type Driver struct {
	dev   hal.Device
	queue hal.Queue
	opts  Options

	// instance is non-nil when Open created the device.
	instance hal.Instance
	owned    bool

	limits gputypes.Limits
	caps   rhi.Caps
	info   rhi.DriverInfo
	log    atomic.Pointer[slog.Logger]

	samplers       *statecache.Cache[rhi.SamplerDescriptor, hal.Sampler]
	pipelines      *pipelineCache
	defaultSampler hal.Sampler

	rec        recorder
	retired    []retiredObject
	lastSubmit uint64

	initialized bool
	live        atomic.Int64
	nextID      atomic.Uint64
	warned      map[string]bool
	debugDepth  int
	stats       Stats

	bound boundState
}

// Stats counts native work issued by the driver.
type Stats struct {
	Passes      uint64
	Draws       uint64
	Submits     uint64
	BindGroups  uint64
	Flushes     uint64
	WriteStalls uint64

	// Pipelines is the number of cached render pipelines.
	Pipelines      int
	PipelineHits   uint64
	PipelineMisses uint64
}

var (
	_ rhi.Driver         = (*Driver)(nil)
	_ rhi.DebugAnnotator = (*Driver)(nil)
)

// Open creates a driver over opts.Device, or over a device opened on
// opts.Backend when Device is nil.
func Open(opts Options) (*Driver, error) {
	d := &Driver{opts: opts, warned: make(map[string]bool)}
	d.log.Store(rhi.Logger())
	if opts.Device == nil {
		if err := d.openBackend(); err != nil {
			return nil, err
		}
	} else {
		if opts.Queue == nil {
			return nil, fmt.Errorf("%w: device without queue", ErrNoDevice)
		}
		d.dev, d.queue = opts.Device, opts.Queue
	}
	d.init()
	return d, nil
}

// NewFromProvider creates a driver sharing the device of p. The provider
// must expose HalDevice() and HalQueue() returning hal.Device and
// hal.Queue, as gogpu windows do. The device stays owned by p.
func NewFromProvider(p gpucontext.DeviceProvider, opts Options) (*Driver, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider %T does not expose hal types", ErrNoDevice, p)
	}
	dev, ok := hp.HalDevice().(hal.Device)
	if !ok || dev == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not a hal.Device", ErrNoDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not a hal.Queue", ErrNoDevice)
	}
	opts.Device, opts.Queue = dev, queue
	if opts.ColorFormat == gputypes.TextureFormatUndefined {
		opts.ColorFormat = p.SurfaceFormat()
	}
	d, err := Open(opts)
	if err != nil {
		return nil, err
	}
	if info := p.AdapterInfo(); opts.Adapter == nil && info.Name != "" {
		d.info.Adapter = info
	}
	return d, nil
}

// openBackend opens a device on the configured hal backend, preferring
// discrete and integrated GPUs.
func (d *Driver) openBackend() error {
	var (
		backend hal.Backend
		err     error
	)
	if d.opts.Backend == gputypes.BackendEmpty {
		backend, err = hal.SelectBestBackend()
	} else if b, ok := hal.GetBackend(d.opts.Backend); ok {
		backend = b
	} else {
		backend, err = hal.CreateBackend(d.opts.Backend)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoDevice, err)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return fmt.Errorf("native: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		t := adapters[i].Info.DeviceType
		if t == gputypes.DeviceTypeDiscreteGPU || t == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	open, err := selected.Adapter.Open(0, selected.Capabilities.Limits)
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("native: open device: %w", err)
	}
	d.instance, d.owned = instance, true
	d.dev, d.queue = open.Device, open.Queue
	d.opts.Adapter = selected
	return nil
}

func (d *Driver) init() {
	d.limits = gputypes.DefaultLimits()
	if a := d.opts.Adapter; a != nil {
		d.limits = a.Capabilities.Limits
	}
	d.samplers = statecache.New[rhi.SamplerDescriptor](d.dev.DestroySampler)
	d.pipelines = newPipelineCache(d.dev)
	d.caps = d.detectCaps()
	d.info = d.detectInfo()
	d.bound.topology = gputypes.PrimitiveTopologyTriangleList
	d.initialized = true

	d.logger().Info("native: driver opened",
		"adapter", d.info.Adapter.Name,
		"version", d.info.Version,
		"owned", d.owned)
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

// detectCaps derives capabilities from the adapter limits, capped at the
// slots the rhi binding convention can address.
func (d *Driver) detectCaps() rhi.Caps {
	l := d.limits
	return rhi.Caps{
		MaxTextureDimension:   l.MaxTextureDimension2D,
		MaxTextureArrayLayers: l.MaxTextureArrayLayers,
		MaxTextureUnits:       min(l.MaxSampledTexturesPerShaderStage, l.MaxSamplersPerShaderStage, maxTextureUnits),
		MaxUniformBuffers:     min(l.MaxUniformBuffersPerShaderStage, maxUniformSlots),
		MaxColorAttachments:   min(l.MaxColorAttachments, rhi.MaxRenderTargets),
		MaxVertexAttributes:   l.MaxVertexAttributes,
		Texture2DArray:        true,
		Texture3D:             true,
		IndexUint32:           true,
		InstancedDraw:         true,
		InstancedIndexedDraw:  true,
		BaseVertex:            true,
		ShaderLanguage:        "wgsl",
		WGSL:                  true,
	}
}

func (d *Driver) detectInfo() rhi.DriverInfo {
	info := rhi.DriverInfo{
		Name:    rhi.DriverNative,
		Version: "wgpu hal",
		Adapter: gpucontext.AdapterInfo{Name: "hal device", Type: gpucontext.AdapterTypeUnknown},
	}
	if a := d.opts.Adapter; a != nil {
		info.Version = "wgpu hal " + a.Info.Backend.String()
		if a.Info.Driver != "" {
			info.Version += " (" + a.Info.Driver + ")"
		}
		info.Adapter = gpucontext.AdapterInfo{Name: a.Info.Name, Type: adapterType(a.Info.DeviceType)}
	}
	return info
}

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	}
	return gpucontext.AdapterTypeUnknown
}

// Info describes the opened device.
func (d *Driver) Info() rhi.DriverInfo { return d.info }

func (d *Driver) Caps() rhi.Caps { return d.caps }

func (d *Driver) IsInitialized() bool { return d.initialized }

// Stats returns the work counters.
func (d *Driver) Stats() Stats {
	s := d.stats
	s.Pipelines = d.pipelines.size()
	s.PipelineHits, s.PipelineMisses = d.pipelines.stats()
	return s
}

// Live returns the number of native objects created and not yet destroyed.
func (d *Driver) Live() int64 { return d.live.Load() }

// Device returns the hal device.
func (d *Driver) Device() hal.Device { return d.dev }

// Close submits outstanding work, waits for the device and releases the
// shared samplers and pipelines. A device opened by Open is destroyed; a
// device passed in Options belongs to the caller.
func (d *Driver) Close() {
	if !d.initialized {
		return
	}
	d.Finish()
	d.releaseGroups()
	d.releaseRetired(true)
	d.defaultSampler = nil
	n := d.pipelines.destroyAll() + d.samplers.Clear()
	if n != 0 {
		d.logger().Debug("native: released shared objects", "count", n, "pipeline hit rate", d.pipelines.hitRate())
	}
	if n := d.live.Load(); n != 0 {
		d.logger().Warn("native: native objects alive at close", "count", n)
	}
	d.bound = boundState{}
	d.initialized = false
	if d.owned {
		d.dev.Destroy()
		d.instance.Destroy()
	}
}

// label builds the debug label of a native object.
func (d *Driver) label(kind, name string) string {
	if !d.opts.Debug {
		return ""
	}
	s := kind
	if name != "" {
		s += " " + name
	}
	if d.opts.Label != "" {
		s = d.opts.Label + ": " + s
	}
	return s
}

// Debug events have no hal equivalent. They are tracked for balance and
// logged at debug level.
func (d *Driver) BeginDebugEvent(name string) {
	d.debugDepth++
	if d.opts.Debug {
		d.logger().Debug("native: begin event", "name", name, "depth", d.debugDepth)
	}
}

func (d *Driver) EndDebugEvent() {
	if d.debugDepth == 0 {
		d.logger().Warn("native: EndDebugEvent without BeginDebugEvent")
		return
	}
	d.debugDepth--
}

func (d *Driver) SetDebugMarker(name string) {
	if d.opts.Debug {
		d.logger().Debug("native: marker", "name", name)
	}
}
