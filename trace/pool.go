// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package trace

import (
	"github.com/gogpu/rhi"
)

// ObjectPool stores the native objects referenced by commands. Entries are
// the wrapped driver's own handles, so a recording can be played back onto
// that driver.
//
// ObjectPool is not safe for concurrent use.
type ObjectPool struct {
	objects []rhi.NativeObject
	kinds   []string
	live    []bool
}

// NewObjectPool creates an empty pool.
func NewObjectPool() *ObjectPool {
	return &ObjectPool{
		objects: make([]rhi.NativeObject, 0, 64),
		kinds:   make([]string, 0, 64),
		live:    make([]bool, 0, 64),
	}
}

// Add adds an object and returns its reference.
func (p *ObjectPool) Add(kind string, obj rhi.NativeObject) ObjectRef {
	p.objects = append(p.objects, obj)
	p.kinds = append(p.kinds, kind)
	p.live = append(p.live, true)
	// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
	return ObjectRef(uint32(len(p.objects) - 1))
}

// Get returns the object for ref, or nil if ref is invalid.
func (p *ObjectPool) Get(ref ObjectRef) rhi.NativeObject {
	if int(ref) >= len(p.objects) {
		return nil
	}
	return p.objects[ref]
}

// Kind returns the factory kind ref was created by.
func (p *ObjectPool) Kind(ref ObjectRef) string {
	if int(ref) >= len(p.kinds) {
		return ""
	}
	return p.kinds[ref]
}

// Live reports whether ref has not been destroyed.
func (p *ObjectPool) Live(ref ObjectRef) bool {
	return int(ref) < len(p.live) && p.live[ref]
}

// LiveCount returns the number of objects not yet destroyed.
func (p *ObjectPool) LiveCount() int {
	n := 0
	for _, l := range p.live {
		if l {
			n++
		}
	}
	return n
}

// Len returns the number of objects ever added.
func (p *ObjectPool) Len() int {
	return len(p.objects)
}

func (p *ObjectPool) markDestroyed(ref ObjectRef) {
	if int(ref) < len(p.live) {
		p.live[ref] = false
	}
}
