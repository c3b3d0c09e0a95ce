// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

// vertexLayout holds the per-slot buffer layouts of a pipeline. Strides
// come from the bound vertex array at draw time.
type vertexLayout struct {
	object
	id    uint64
	slots []vertexSlot
}

type vertexSlot struct {
	step  gputypes.VertexStepMode
	attrs []gputypes.VertexAttribute
	// minStride covers every attribute of the slot.
	minStride uint32
}

// NewVertexLayout groups attributes by input slot. WebGPU steps a whole
// buffer per vertex or per instance, so a slot cannot mix the two and
// instance data cannot repeat over several instances.
func (d *Driver) NewVertexLayout(layout *rhi.VertexLayout, _ rhi.NativeObject) (rhi.NativeObject, error) {
	if len(layout.Attributes) > int(d.caps.MaxVertexAttributes) {
		return nil, fmt.Errorf("%w: %d vertex attributes, limit %d", rhi.ErrUnsupported, len(layout.Attributes), d.caps.MaxVertexAttributes)
	}
	n := layout.Slots()
	if n > maxVertexBuffers {
		return nil, fmt.Errorf("%w: input slot %d", rhi.ErrInvalidInputSlot, n-1)
	}
	slots := make([]vertexSlot, n)
	for i := range layout.Attributes {
		a := &layout.Attributes[i]
		if a.Format == gputypes.VertexFormatUndefined {
			return nil, fmt.Errorf("%w: attribute %d has no format", rhi.ErrInvalidDescriptor, i)
		}
		if a.InstancesPerElement > 1 {
			return nil, fmt.Errorf("%w: attribute %d steps every %d instances", rhi.ErrUnsupported, i, a.InstancesPerElement)
		}
		step := gputypes.VertexStepModeVertex
		if a.PerInstance() {
			step = gputypes.VertexStepModeInstance
		}
		s := &slots[a.InputSlot]
		if s.step != gputypes.VertexStepModeUndefined && s.step != step {
			return nil, fmt.Errorf("%w: slot %d mixes per-vertex and per-instance attributes", rhi.ErrUnsupported, a.InputSlot)
		}
		s.step = step
		s.attrs = append(s.attrs, gputypes.VertexAttribute{
			Format:         a.Format,
			Offset:         uint64(a.Offset),
			ShaderLocation: a.ShaderLocation,
		})
	}
	for i := range slots {
		if slots[i].step == gputypes.VertexStepModeUndefined {
			slots[i].step = gputypes.VertexStepModeVertexBufferNotUsed
			continue
		}
		slots[i].minStride = layout.Stride(uint32(i))
	}
	return &vertexLayout{object: d.newObject("vertex layout"), id: d.nextID.Add(1), slots: slots}, nil
}

// buffers returns the hal buffer layouts for the strides of va.
func (l *vertexLayout) buffers(va *vertexArray) []gputypes.VertexBufferLayout {
	out := make([]gputypes.VertexBufferLayout, len(l.slots))
	for i, s := range l.slots {
		stride := s.minStride
		if va != nil && i < len(va.strides) && va.strides[i] != 0 {
			stride = va.strides[i]
		}
		out[i] = gputypes.VertexBufferLayout{ArrayStride: uint64(stride), StepMode: s.step, Attributes: s.attrs}
		if s.step == gputypes.VertexStepModeVertexBufferNotUsed {
			out[i].ArrayStride = 0
		}
	}
	return out
}

func (l *vertexLayout) Destroy() {
	if !l.release() {
		return
	}
	d := l.d
	if d.bound.layout == l {
		d.bound.layout = nil
	}
	for _, pl := range d.pipelines.evict(func(e *pipelineEntry) bool { return e.layout == l.id }) {
		d.retire(func() { d.dev.DestroyRenderPipeline(pl) })
	}
}

// vertexArray holds the buffer bindings of a draw. It owns no native
// object.
type vertexArray struct {
	object
	buffers     []*buffer
	strides     []uint32
	offsets     []uint32
	index       *buffer
	indexFormat gputypes.IndexFormat

	// strideKey keys pipelines on the strides.
	strideKey [maxVertexBuffers]uint32
}

func (d *Driver) NewVertexArray(desc *rhi.NativeVertexArray) (rhi.NativeObject, error) {
	if len(desc.Buffers) > maxVertexBuffers {
		return nil, fmt.Errorf("%w: %d vertex buffers, limit %d", rhi.ErrUnsupported, len(desc.Buffers), maxVertexBuffers)
	}
	va := &vertexArray{
		buffers: make([]*buffer, len(desc.Buffers)),
		strides: make([]uint32, len(desc.Buffers)),
		offsets: make([]uint32, len(desc.Buffers)),
	}
	for i, vb := range desc.Buffers {
		if vb.Buffer == nil {
			continue
		}
		b, ok := vb.Buffer.(*buffer)
		if !ok {
			return nil, fmt.Errorf("%w: vertex buffer %d is %s", rhi.ErrInvalidDescriptor, i, typeName(vb.Buffer))
		}
		va.buffers[i], va.strides[i], va.offsets[i] = b, vb.Stride, vb.Offset
		va.strideKey[i] = vb.Stride
	}
	if desc.IndexBuffer != nil {
		b, ok := desc.IndexBuffer.(*buffer)
		if !ok {
			return nil, fmt.Errorf("%w: index buffer is %s", rhi.ErrInvalidDescriptor, typeName(desc.IndexBuffer))
		}
		va.index, va.indexFormat = b, desc.IndexFormat
		if va.indexFormat == gputypes.IndexFormatUndefined {
			va.indexFormat = gputypes.IndexFormatUint16
		}
	}
	va.object = d.newObject("vertex array")
	return va, nil
}

func (va *vertexArray) Destroy() {
	if !va.release() {
		return
	}
	if va.d.bound.vertexArray == va {
		va.d.bound.vertexArray = nil
	}
	va.buffers, va.index = nil, nil
}

func typeName(v any) string { return fmt.Sprintf("%T", v) }
