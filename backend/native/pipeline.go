// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi"
)

// pipelineKey is every piece of bound state a render pipeline is built
// from. Equal keys build identical pipelines.
type pipelineKey struct {
	program      uint64
	layout       uint64
	strides      [maxVertexBuffers]uint32
	raster       rasterKey
	depthStencil rhi.DepthStencilDescriptor
	blend        rhi.BlendDescriptor
	topology     gputypes.PrimitiveTopology
	formats      targetFormats
	strip        gputypes.IndexFormat
}

// pipelineEntry is one cached render pipeline with the ids of the program
// and vertex layout it was built from.
type pipelineEntry struct {
	pipeline hal.RenderPipeline
	program  uint64
	layout   uint64
}

// pipelineCache caches render pipelines by state key.
//
// WebGPU bakes shaders, vertex input, rasterizer, depth stencil and blend
// state and the target formats into one pipeline object, which the rhi
// binds piecewise. The driver collects the bound pieces into a
// pipelineKey at draw time and looks the pipeline up here, creating it on
// a miss.
//
// Thread Safety:
// pipelineCache is safe for concurrent use. It uses an RWMutex with
// double-check locking so lookups only take the read lock.
//
// Lifecycle:
// Pipelines live until the program or vertex layout they were built from
// is destroyed, which evicts them, or until destroyAll at driver close.
type pipelineCache struct {
	// mu protects entries.
	mu sync.RWMutex

	// entries maps state keys to pipelines.
	entries map[pipelineKey]*pipelineEntry

	// dev creates and destroys pipelines.
	dev hal.Device

	// hits and misses count lookups.
	hits   atomic.Uint64
	misses atomic.Uint64
}

func newPipelineCache(dev hal.Device) *pipelineCache {
	return &pipelineCache{entries: make(map[pipelineKey]*pipelineEntry), dev: dev}
}

// getOrCreate returns the pipeline of key, building it with desc on a
// miss. desc is only called on a miss.
func (c *pipelineCache) getOrCreate(key pipelineKey, desc func() *hal.RenderPipelineDescriptor) (hal.RenderPipeline, bool, error) {
	c.mu.RLock()
	if e, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		c.hits.Add(1)
		return e.pipeline, false, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.hits.Add(1)
		return e.pipeline, false, nil
	}
	pl, err := c.dev.CreateRenderPipeline(desc())
	if err != nil {
		return nil, false, err
	}
	c.entries[key] = &pipelineEntry{pipeline: pl, program: key.program, layout: key.layout}
	c.misses.Add(1)
	return pl, true, nil
}

// evict removes the pipelines match selects and returns them for the
// caller to destroy once the GPU is done with them.
func (c *pipelineCache) evict(match func(*pipelineEntry) bool) []hal.RenderPipeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []hal.RenderPipeline
	for key, e := range c.entries {
		if match(e) {
			out = append(out, e.pipeline)
			delete(c.entries, key)
		}
	}
	return out
}

// stats returns the lookup counters.
func (c *pipelineCache) stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// hitRate returns hits over lookups, or 0 before the first lookup.
func (c *pipelineCache) hitRate() float64 {
	hits, misses := c.stats()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

func (c *pipelineCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// destroyAll destroys every pipeline immediately and returns how many
// there were. The GPU must be idle.
func (c *pipelineCache) destroyAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	for _, e := range c.entries {
		c.dev.DestroyRenderPipeline(e.pipeline)
	}
	c.entries = make(map[pipelineKey]*pipelineEntry)
	return n
}
