// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package trace

import (
	"github.com/gogpu/rhi"
)

type wrapped interface {
	traced() *object
}

// object wraps a native object created through a traced driver.
type object struct {
	driver *Driver
	ref    ObjectRef
	inner  rhi.NativeObject
}

func (o *object) traced() *object { return o }

// Destroy records the call and forwards it, including repeated calls, so
// the inner driver sees exactly what the renderer did.
func (o *object) Destroy() {
	o.driver.record(DestroyCommand{Object: o.ref})
	o.driver.objects.markDestroyed(o.ref)
	o.inner.Destroy()
}

func (o *object) SetDebugName(name string) {
	if dn, ok := o.inner.(rhi.DebugNamer); ok {
		dn.SetDebugName(name)
	}
}

type resource struct {
	object
	res rhi.NativeResource
}

func (r *resource) Map(sub uint32, mode rhi.MapType) (rhi.MappedSubresource, error) {
	m, err := r.res.Map(sub, mode)
	r.driver.record(MapCommand{Object: r.ref, Subresource: sub, Mode: mode, Err: err})
	return m, err
}

func (r *resource) Unmap(sub uint32) {
	r.driver.record(UnmapCommand{Object: r.ref, Subresource: sub})
	r.res.Unmap(sub)
}

type swapChain struct {
	object
	sc rhi.NativeSwapChain
}

func (s *swapChain) Present(vsync bool) error {
	s.driver.record(PresentCommand{Object: s.ref, VSync: vsync})
	return s.sc.Present(vsync)
}

func (s *swapChain) Resize(width, height uint32) error {
	s.driver.record(ResizeCommand{Object: s.ref, Width: width, Height: height})
	return s.sc.Resize(width, height)
}
