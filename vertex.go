// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
)

// VertexAttribute describes one vertex shader input.
//
// Name is the attribute name in GLSL, SemanticName and SemanticIndex the
// HLSL semantic. InstancesPerElement is zero for per-vertex data and the
// instance step rate otherwise.
type VertexAttribute struct {
	Name                string
	Format              gputypes.VertexFormat
	SemanticName        string
	SemanticIndex       uint32
	InputSlot           uint32
	Offset              uint32
	ShaderLocation      uint32
	InstancesPerElement uint32
}

// PerInstance reports whether the attribute steps per instance.
func (a *VertexAttribute) PerInstance() bool { return a.InstancesPerElement > 0 }

// VertexLayout is an ordered list of vertex attributes.
type VertexLayout struct {
	Attributes []VertexAttribute
}

// Slots returns one past the highest input slot used.
func (l *VertexLayout) Slots() uint32 {
	var n uint32
	for i := range l.Attributes {
		n = max(n, l.Attributes[i].InputSlot+1)
	}
	return n
}

// Stride returns the smallest vertex stride covering every attribute of slot.
func (l *VertexLayout) Stride(slot uint32) uint32 {
	var stride uint32
	for i := range l.Attributes {
		a := &l.Attributes[i]
		if a.InputSlot == slot {
			stride = max(stride, a.Offset+uint32(a.Format.Size()))
		}
	}
	return stride
}

// Validate checks every attribute format and that no two attributes share
// a shader location.
func (l *VertexLayout) Validate() error {
	seen := make(map[uint32]struct{}, len(l.Attributes))
	for i := range l.Attributes {
		a := &l.Attributes[i]
		if a.Format.Size() == 0 {
			return fmt.Errorf("%w: attribute %d has format %v", ErrInvalidDescriptor, i, a.Format)
		}
		if _, dup := seen[a.ShaderLocation]; dup {
			return fmt.Errorf("%w: duplicate shader location %d", ErrInvalidDescriptor, a.ShaderLocation)
		}
		seen[a.ShaderLocation] = struct{}{}
	}
	return nil
}

func (l VertexLayout) clone() VertexLayout {
	return VertexLayout{Attributes: slices.Clone(l.Attributes)}
}

// VertexArrayBuffer binds one vertex buffer to an input slot. The slot is
// the index in VertexArrayDescriptor.Buffers. A zero Stride is derived from
// the layout.
type VertexArrayBuffer struct {
	Buffer *Buffer
	Stride uint32
	Offset uint32
}

// VertexArrayDescriptor describes a vertex array.
type VertexArrayDescriptor struct {
	Label       string
	Layout      VertexLayout
	Buffers     []VertexArrayBuffer
	IndexBuffer *Buffer
}

// VertexArray combines vertex buffers, an optional index buffer and the
// attribute layout into one bindable object. It holds a reference to every
// buffer; the native layout object it derives is its own.
type VertexArray struct {
	resource
	layout  VertexLayout
	buffers []VertexArrayBuffer
	index   *Buffer
	handle  NativeObject
}

// Layout returns the attribute layout.
func (va *VertexArray) Layout() VertexLayout { return va.layout.clone() }

// Buffers returns the vertex buffer bindings.
func (va *VertexArray) Buffers() []VertexArrayBuffer { return slices.Clone(va.buffers) }

// IndexBuffer returns the index buffer, or nil.
func (va *VertexArray) IndexBuffer() *Buffer { return va.index }

// Native returns the derived driver object.
func (va *VertexArray) Native() NativeObject { return va.handle }

// CreateVertexArray creates a vertex array. Every attribute's input slot
// must have a buffer in desc.Buffers.
func (r *Renderer) CreateVertexArray(desc VertexArrayDescriptor) (*VertexArray, error) {
	if err := r.checkReady(); err != nil {
		return nil, err
	}
	const typ = ResourceTypeVertexArray
	if err := desc.Layout.Validate(); err != nil {
		return nil, r.creationFailed(typ, err)
	}
	if limit := r.caps.MaxVertexAttributes; limit != 0 && uint32(len(desc.Layout.Attributes)) > limit {
		return nil, r.creationFailed(typ, fmt.Errorf("%w: %d attributes exceeds %d", ErrUnsupported, len(desc.Layout.Attributes), limit))
	}
	for i := range desc.Layout.Attributes {
		if slot := desc.Layout.Attributes[i].InputSlot; slot >= uint32(len(desc.Buffers)) {
			return nil, r.creationFailed(typ, fmt.Errorf("%w: attribute %d uses slot %d of %d buffers",
				ErrInvalidInputSlot, i, slot, len(desc.Buffers)))
		}
	}

	buffers := slices.Clone(desc.Buffers)
	native := NativeVertexArray{
		Layout:  &desc.Layout,
		Buffers: make([]NativeVertexBuffer, len(buffers)),
	}
	for i := range buffers {
		vb := &buffers[i]
		if vb.Buffer == nil || vb.Buffer.Type() != ResourceTypeVertexBuffer {
			return nil, r.creationFailed(typ, fmt.Errorf("%w: slot %d needs a vertex buffer", ErrInvalidDescriptor, i))
		}
		if !r.owns(vb.Buffer, "CreateVertexArray") {
			return nil, ErrRendererMismatch
		}
		if vb.Stride == 0 {
			vb.Stride = desc.Layout.Stride(uint32(i))
		}
		native.Buffers[i] = NativeVertexBuffer{Buffer: vb.Buffer.handle, Stride: vb.Stride, Offset: vb.Offset}
	}
	if ib := desc.IndexBuffer; ib != nil {
		if ib.Type() != ResourceTypeIndexBuffer {
			return nil, r.creationFailed(typ, fmt.Errorf("%w: %v is not an index buffer", ErrInvalidDescriptor, ib.Type()))
		}
		if !r.owns(ib, "CreateVertexArray") {
			return nil, ErrRendererMismatch
		}
		native.IndexBuffer = ib.handle
		native.IndexFormat = ib.IndexFormat()
	}

	defer r.debugEvent("CreateVertexArray")()
	handle, err := r.driver.NewVertexArray(&native)
	if err != nil {
		return nil, r.creationFailed(typ, err)
	}

	for i := range buffers {
		buffers[i].Buffer.AddReference()
	}
	if desc.IndexBuffer != nil {
		desc.IndexBuffer.AddReference()
	}
	va := &VertexArray{
		layout:  desc.Layout.clone(),
		buffers: buffers,
		index:   desc.IndexBuffer,
		handle:  handle,
	}
	va.init(r, typ, handle, func() {
		for i := range va.buffers {
			va.buffers[i].Buffer.Release()
		}
		if va.index != nil {
			va.index.Release()
		}
	})
	if desc.Label != "" {
		va.SetDebugName(desc.Label)
	}
	return va, nil
}
