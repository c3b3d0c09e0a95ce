// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// Renderer is the stateful façade over one Driver.
//
// It creates resources, caches every bound state slot and forwards only
// real changes to the driver. Bound resources hold one reference owned by
// the renderer until they are replaced or the renderer is closed.
//
// A Renderer is thread-affine: all calls must come from the goroutine that
// owns the native context.
type Renderer struct {
	driver Driver
	info   DriverInfo
	caps   Caps
	opts   options
	closed bool

	stats stats

	defaultSampler      *SamplerState
	defaultRasterizer   *RasterizerState
	defaultDepthStencil *DepthStencilState
	defaultBlend        *BlendState

	state renderState
}

// renderState mirrors what the driver has bound.
type renderState struct {
	renderTarget RenderTarget
	vertexArray  *VertexArray

	// pipeline is the pipeline state all facets currently match. A direct
	// facet change clears it.
	pipeline *PipelineState

	// layoutOwner keeps the pipeline whose native layout is bound alive.
	layoutOwner *PipelineState

	program      *Program
	rasterizer   *RasterizerState
	depthStencil *DepthStencilState
	blend        *BlendState

	topology    gputypes.PrimitiveTopology
	topologySet bool
	viewport    Viewport
	viewportSet bool
	scissor     ScissorRect
	scissorSet  bool

	textures       [shaderStageCount][]*Texture
	samplers       [shaderStageCount][]*SamplerState
	uniformBuffers [shaderStageCount][]*Buffer
}

type stats struct {
	live        [resourceTypeCount]atomic.Int64
	drawCalls   atomic.Uint64
	bindsIssued atomic.Uint64
	bindsElided atomic.Uint64
}

// Statistics is a snapshot of renderer counters.
type Statistics struct {
	live [resourceTypeCount]int64

	// DrawCalls counts draws forwarded to the driver.
	DrawCalls uint64

	// BindsIssued counts bind calls forwarded to the driver.
	BindsIssued uint64

	// BindsElided counts setter calls that matched the bound state.
	BindsElided uint64
}

// Live returns the number of live resources of type t.
func (s Statistics) Live(t ResourceType) int64 {
	if t >= resourceTypeCount {
		return 0
	}
	return s.live[t]
}

// TotalLive returns the number of live resources of every type.
func (s Statistics) TotalLive() int64 {
	var n int64
	for _, c := range s.live {
		n += c
	}
	return n
}

// Default slot counts used when a driver reports zero.
const (
	defaultTextureUnits   = 16
	defaultUniformBuffers = 14
)

// New creates a renderer over driver, creates the default sampler,
// rasterizer, depth-stencil and blend states and binds them.
func New(driver Driver, opts ...Option) (*Renderer, error) {
	if driver == nil {
		return nil, ErrNilDriver
	}
	if !driver.IsInitialized() {
		return nil, fmt.Errorf("%w: driver %q", ErrNotInitialized, driver.Info().Name)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	r := &Renderer{
		driver: driver,
		info:   driver.Info(),
		caps:   driver.Caps(),
		opts:   o,
	}
	if r.caps.MaxTextureUnits == 0 {
		r.caps.MaxTextureUnits = defaultTextureUnits
	}
	if r.caps.MaxUniformBuffers == 0 {
		r.caps.MaxUniformBuffers = defaultUniformBuffers
	}
	for stage := range shaderStageCount {
		r.state.textures[stage] = make([]*Texture, r.caps.MaxTextureUnits)
		r.state.samplers[stage] = make([]*SamplerState, r.caps.MaxTextureUnits)
		r.state.uniformBuffers[stage] = make([]*Buffer, r.caps.MaxUniformBuffers)
	}
	trackDriver(driver)

	if err := r.createDefaults(); err != nil {
		r.releaseDefaults()
		untrackDriver(driver)
		return nil, err
	}
	r.bindRasterizerState(r.defaultRasterizer)
	r.bindDepthStencilState(r.defaultDepthStencil)
	r.bindBlendState(r.defaultBlend)
	for stage := range shaderStageCount {
		for unit := range r.state.samplers[stage] {
			r.bindSamplerState(stage, uint32(unit), r.defaultSampler)
		}
	}

	Logger().Info("rhi: renderer created",
		"label", o.label,
		"driver", r.info.Name,
		"version", r.info.Version,
		"adapter", r.info.Adapter.Name)
	return r, nil
}

func (r *Renderer) createDefaults() (err error) {
	if r.defaultSampler, err = r.CreateSamplerState(DefaultSamplerDescriptor()); err != nil {
		return err
	}
	if r.defaultRasterizer, err = r.CreateRasterizerState(DefaultRasterizerDescriptor()); err != nil {
		return err
	}
	if r.defaultDepthStencil, err = r.CreateDepthStencilState(DefaultDepthStencilDescriptor()); err != nil {
		return err
	}
	r.defaultBlend, err = r.CreateBlendState(DefaultBlendDescriptor())
	return err
}

func (r *Renderer) releaseDefaults() {
	release(&r.defaultSampler)
	release(&r.defaultRasterizer)
	release(&r.defaultDepthStencil)
	release(&r.defaultBlend)
}

// Driver returns the driver the renderer forwards to.
func (r *Renderer) Driver() Driver { return r.driver }

// Info describes the driver.
func (r *Renderer) Info() DriverInfo { return r.info }

// Caps returns the driver capabilities, with zero slot counts replaced by
// the defaults the renderer uses.
func (r *Renderer) Caps() Caps { return r.caps }

// IsInitialized reports whether the renderer is open and the native device
// is usable. Calling anything else on a renderer that is not initialized is
// a caller error; such calls are ignored.
func (r *Renderer) IsInitialized() bool {
	return r != nil && !r.closed && r.driver.IsInitialized()
}

// Statistics returns a snapshot of the renderer counters.
func (r *Renderer) Statistics() Statistics {
	var s Statistics
	for i := range s.live {
		s.live[i] = r.stats.live[i].Load()
	}
	s.DrawCalls = r.stats.drawCalls.Load()
	s.BindsIssued = r.stats.bindsIssued.Load()
	s.BindsElided = r.stats.bindsElided.Load()
	return s
}

// Close releases every bound state and the default states, then closes
// the driver. Resources still referenced by the caller are reported as
// leaks.
func (r *Renderer) Close() {
	if r == nil || r.closed {
		return
	}
	st := &r.state
	rebind(&st.renderTarget, nil)
	release(&st.vertexArray)
	release(&st.pipeline)
	release(&st.layoutOwner)
	release(&st.program)
	release(&st.rasterizer)
	release(&st.depthStencil)
	release(&st.blend)
	for stage := range shaderStageCount {
		for i := range st.textures[stage] {
			release(&st.textures[stage][i])
		}
		for i := range st.samplers[stage] {
			release(&st.samplers[stage][i])
		}
		for i := range st.uniformBuffers[stage] {
			release(&st.uniformBuffers[stage][i])
		}
	}
	r.releaseDefaults()
	r.closed = true

	if stats := r.Statistics(); stats.TotalLive() > 0 {
		args := []any{"driver", r.info.Name}
		for t := range resourceTypeCount {
			if n := stats.Live(t); n > 0 {
				args = append(args, t.String(), n)
			}
		}
		Logger().Warn("rhi: resources leaked at close", args...)
	}

	r.driver.Close()
	untrackDriver(r.driver)
}

// checkReady guards factories.
func (r *Renderer) checkReady() error {
	if r == nil || r.closed || !r.driver.IsInitialized() {
		return ErrNotInitialized
	}
	return nil
}

// usable guards setters and draws.
func (r *Renderer) usable() bool {
	return r != nil && !r.closed
}

// creationFailed logs a failed factory call and returns err.
func (r *Renderer) creationFailed(typ ResourceType, err error) error {
	Logger().Error("rhi: create failed", "type", typ, "driver", r.info.Name, "err", err)
	return err
}

// owns reports whether res was created by r, logging a violation.
func (r *Renderer) owns(res Resource, op string) bool {
	if res.Renderer() == r {
		return true
	}
	Logger().Error("rhi: resource belongs to a different renderer",
		"op", op, "type", res.Type(), "name", res.DebugName(), "err", ErrRendererMismatch)
	return false
}

// debugEvent opens a debug event bracket and returns the function closing it.
func (r *Renderer) debugEvent(name string) func() {
	a, ok := r.driver.(DebugAnnotator)
	if !ok || !r.opts.debugEvents {
		return func() {}
	}
	a.BeginDebugEvent(name)
	return a.EndDebugEvent
}

// BeginDebugEvent opens a named event bracket in GPU debuggers.
func (r *Renderer) BeginDebugEvent(name string) {
	if a, ok := r.driver.(DebugAnnotator); ok && r.usable() && r.opts.debugEvents {
		a.BeginDebugEvent(name)
	}
}

// EndDebugEvent closes the innermost event bracket.
func (r *Renderer) EndDebugEvent() {
	if a, ok := r.driver.(DebugAnnotator); ok && r.usable() && r.opts.debugEvents {
		a.EndDebugEvent()
	}
}

// SetDebugMarker inserts a named marker in GPU debuggers.
func (r *Renderer) SetDebugMarker(name string) {
	if a, ok := r.driver.(DebugAnnotator); ok && r.usable() && r.opts.debugEvents {
		a.SetDebugMarker(name)
	}
}

type refCounted interface {
	comparable
	AddReference() int32
	Release() int32
}

// rebind stores v in slot, taking a reference to v and dropping the one
// held on the previous value.
func rebind[T refCounted](slot *T, v T) {
	var zero T
	if v != zero {
		v.AddReference()
	}
	if old := *slot; old != zero {
		old.Release()
	}
	*slot = v
}

// release drops the reference held in slot and clears it.
func release[T refCounted](slot *T) {
	var zero T
	rebind(slot, zero)
}
