// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package null

import (
	"errors"
	"fmt"

	"github.com/gogpu/rhi"
)

// errDestroyed is returned when a destroyed object is used.
var errDestroyed = errors.New("null: object destroyed")

// object is the common native object. Destroy is counted so tests can
// detect leaks and double frees.
type object struct {
	driver    *Driver
	kind      string
	name      string
	destroyed bool
}

func (o *object) Destroy() {
	if o.destroyed {
		o.driver.doubleDestroy.Add(1)
		o.driver.logger().Error("null: double destroy", "kind", o.kind, "name", o.name)
		return
	}
	o.destroyed = true
	o.driver.live.Add(-1)
}

func (o *object) SetDebugName(name string) { o.name = name }

// Name returns the debug name set on the object.
func (o *object) Name() string { return o.name }

// Destroyed reports whether Destroy has been called.
func (o *object) Destroyed() bool { return o.destroyed }

type subresource struct {
	data       []byte
	rowPitch   uint32
	depthPitch uint32
	mapped     bool
}

// Resource is an in-memory buffer or texture.
type Resource struct {
	object
	usage rhi.TextureUsage
	subs  []subresource
}

// Bytes returns the contents of a subresource as the GPU would read them.
func (r *Resource) Bytes(sub uint32) []byte {
	if int(sub) >= len(r.subs) {
		return nil
	}
	return r.subs[sub].data
}

// Subresources returns the number of subresources.
func (r *Resource) Subresources() int { return len(r.subs) }

func (r *Resource) Map(sub uint32, mode rhi.MapType) (rhi.MappedSubresource, error) {
	if r.destroyed {
		return rhi.MappedSubresource{}, errDestroyed
	}
	if int(sub) >= len(r.subs) {
		return rhi.MappedSubresource{}, fmt.Errorf("%w: subresource %d of %d", rhi.ErrNotMappable, sub, len(r.subs))
	}
	if r.usage == rhi.TextureUsageImmutable && mode.Writes() {
		return rhi.MappedSubresource{}, fmt.Errorf("%w: immutable texture", rhi.ErrNotMappable)
	}
	s := &r.subs[sub]
	if s.mapped {
		return rhi.MappedSubresource{}, rhi.ErrAlreadyMapped
	}
	s.mapped = true
	if mode == rhi.MapWriteDiscard {
		clear(s.data)
	}
	return rhi.MappedSubresource{Data: s.data, RowPitch: s.rowPitch, DepthPitch: s.depthPitch}, nil
}

func (r *Resource) Unmap(sub uint32) {
	if int(sub) < len(r.subs) {
		r.subs[sub].mapped = false
	}
}

// SwapChain is an in-memory swap chain.
type SwapChain struct {
	object
	width, height uint32
}

func (sc *SwapChain) Present(vsync bool) error {
	if sc.destroyed {
		return errDestroyed
	}
	sc.driver.presents.Add(1)
	return nil
}

func (sc *SwapChain) Resize(width, height uint32) error {
	if sc.destroyed {
		return errDestroyed
	}
	sc.width, sc.height = width, height
	return nil
}

// Size returns the back buffer size.
func (sc *SwapChain) Size() (width, height uint32) { return sc.width, sc.height }
