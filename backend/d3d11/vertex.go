// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import (
	"fmt"

	"github.com/gogpu/rhi"
)

// wgslSemantic is the semantic the HLSL writer gives vertex inputs; the
// index is the shader location.
const wgslSemantic = "LOC"

// inputLayout is an ID3D11InputLayout.
type inputLayout struct {
	object
	obj Object
}

// inputElements builds the input element descriptions of layout. WGSL
// programs match attributes by location; HLSL programs by the attribute
// semantic, with TEXCOORD<location> when none is given.
func inputElements(layout *rhi.VertexLayout, wgsl bool) ([]InputElementDesc, error) {
	elems := make([]InputElementDesc, 0, len(layout.Attributes))
	for i := range layout.Attributes {
		a := &layout.Attributes[i]
		f, ok := vertexFormats[a.Format]
		if !ok {
			return nil, fmt.Errorf("%w: vertex format %v", rhi.ErrUnsupported, a.Format)
		}
		if a.InputSlot >= maxVertexBuffers {
			return nil, fmt.Errorf("%w: input slot %d", rhi.ErrInvalidDescriptor, a.InputSlot)
		}
		e := InputElementDesc{
			SemanticName:      a.SemanticName,
			SemanticIndex:     a.SemanticIndex,
			Format:            f,
			InputSlot:         a.InputSlot,
			AlignedByteOffset: a.Offset,
		}
		switch {
		case wgsl:
			e.SemanticName, e.SemanticIndex = wgslSemantic, a.ShaderLocation
		case e.SemanticName == "":
			e.SemanticName, e.SemanticIndex = "TEXCOORD", a.ShaderLocation
		}
		if a.PerInstance() {
			e.InputSlotClass = InputPerInstanceData
			e.InstanceDataStepRate = a.InstancesPerElement
		}
		elems = append(elems, e)
	}
	return elems, nil
}

// NewVertexLayout creates an input layout validated against the vertex
// shader of program.
func (d *Driver) NewVertexLayout(layout *rhi.VertexLayout, prog rhi.NativeObject) (rhi.NativeObject, error) {
	p, ok := prog.(*program)
	if !ok {
		return nil, fmt.Errorf("%w: vertex layout needs a Direct3D 11 program, got %T", rhi.ErrInvalidDescriptor, prog)
	}
	if len(layout.Attributes) > int(d.caps.MaxVertexAttributes) {
		return nil, fmt.Errorf("%w: %d vertex attributes, limit %d", rhi.ErrUnsupported, len(layout.Attributes), d.caps.MaxVertexAttributes)
	}
	elems, err := inputElements(layout, p.vs.wgsl)
	if err != nil {
		return nil, err
	}
	obj, err := d.dev.CreateInputLayout(elems, p.vs.bytecode)
	if err != nil {
		return nil, fmt.Errorf("%w: input layout does not match the vertex shader: %w", rhi.ErrInvalidDescriptor, err)
	}
	return &inputLayout{object: d.newObject("input layout"), obj: obj}, nil
}

func (l *inputLayout) Destroy() {
	if !l.release() {
		return
	}
	if l.d.bound.layout == l {
		l.d.bound.layout = nil
		l.d.applyInputLayout()
	}
	l.obj.Release()
}

func (l *inputLayout) SetDebugName(name string) {
	l.label = name
	l.d.name(l.obj, name)
}

// vertexArray holds the buffer bindings of the input assembler and the
// input elements derived from its layout. Input layouts need the vertex
// shader signature, so the array creates one per vertex shader it is
// drawn with and owns them.
type vertexArray struct {
	object
	buffers     []Resource
	strides     []uint32
	offsets     []uint32
	index       Resource
	indexFormat Format

	// elems holds the elements matched by semantic, then by WGSL location.
	elems   [2][]InputElementDesc
	layouts map[*shader]Object
}

func (d *Driver) NewVertexArray(desc *rhi.NativeVertexArray) (rhi.NativeObject, error) {
	if len(desc.Buffers) > maxVertexBuffers {
		return nil, fmt.Errorf("%w: %d vertex buffers, limit %d", rhi.ErrUnsupported, len(desc.Buffers), maxVertexBuffers)
	}
	va := &vertexArray{
		buffers: make([]Resource, len(desc.Buffers)),
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
		va.buffers[i], va.strides[i], va.offsets[i] = b.res, vb.Stride, vb.Offset
	}
	if desc.IndexBuffer != nil {
		b, ok := desc.IndexBuffer.(*buffer)
		if !ok {
			return nil, fmt.Errorf("%w: index buffer is %s", rhi.ErrInvalidDescriptor, typeName(desc.IndexBuffer))
		}
		va.index, va.indexFormat = b.res, indexFormat(desc.IndexFormat)
	}
	if desc.Layout != nil && len(desc.Layout.Attributes) > 0 {
		if len(desc.Layout.Attributes) > int(d.caps.MaxVertexAttributes) {
			return nil, fmt.Errorf("%w: %d vertex attributes, limit %d", rhi.ErrUnsupported, len(desc.Layout.Attributes), d.caps.MaxVertexAttributes)
		}
		for i, wgsl := range []bool{false, true} {
			elems, err := inputElements(desc.Layout, wgsl)
			if err != nil {
				return nil, err
			}
			va.elems[i] = elems
		}
		va.layouts = make(map[*shader]Object)
	}
	va.object = d.newObject("vertex array")
	return va, nil
}

// inputLayout returns the input layout of va for vs, creating it on first
// use. It returns nil when va has no layout or vs rejects it.
func (va *vertexArray) inputLayout(vs *shader) Object {
	if va.layouts == nil || vs == nil {
		return nil
	}
	if l, ok := va.layouts[vs]; ok {
		return l
	}
	elems := va.elems[0]
	if vs.wgsl {
		elems = va.elems[1]
	}
	l, err := va.d.dev.CreateInputLayout(elems, vs.bytecode)
	if err != nil {
		va.d.logger().Error("d3d11: vertex array layout does not match the vertex shader", "array", va.label, "shader", vs.label, "err", err)
		l = nil
	}
	va.layouts[vs] = l
	return l
}

func (va *vertexArray) Destroy() {
	if !va.release() {
		return
	}
	if va.d.bound.vertexArray == va {
		va.d.bound.vertexArray = nil
		va.d.applyInputLayout()
	}
	for _, l := range va.layouts {
		if l != nil {
			l.Release()
		}
	}
	va.buffers, va.index, va.layouts = nil, nil, nil
}

func (va *vertexArray) SetDebugName(name string) { va.label = name }
