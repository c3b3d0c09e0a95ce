// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d9

import (
	"fmt"
	"strings"

	"github.com/gogpu/rhi"
)

// declUsages maps HLSL semantic names to declaration usages.
var declUsages = map[string]DeclUsage{
	"POSITION":     DeclUsagePosition,
	"BLENDWEIGHT":  DeclUsageBlendWeight,
	"BLENDINDICES": DeclUsageBlendIndices,
	"NORMAL":       DeclUsageNormal,
	"PSIZE":        DeclUsagePSize,
	"TEXCOORD":     DeclUsageTexCoord,
	"TANGENT":      DeclUsageTangent,
	"BINORMAL":     DeclUsageBinormal,
	"COLOR":        DeclUsageColor,
	"FOG":          DeclUsageFog,
	"DEPTH":        DeclUsageDepth,
}

// vertexDecl is an IDirect3DVertexDeclaration9 with the step rate of each
// stream.
type vertexDecl struct {
	object
	obj Object

	// rates holds the instance step rate of per-instance streams; zero
	// marks per-vertex streams.
	rates []uint32
}

// vertexElements builds the declaration of layout. Attributes without a
// semantic read TEXCOORD<location>.
func vertexElements(layout *rhi.VertexLayout) ([]VertexElement, []uint32, error) {
	elems := make([]VertexElement, 0, len(layout.Attributes))
	rates := make([]uint32, layout.Slots())
	for i := range layout.Attributes {
		a := &layout.Attributes[i]
		typ, ok := vertexFormats[a.Format]
		if !ok {
			return nil, nil, fmt.Errorf("%w: vertex format %v", rhi.ErrUnsupported, a.Format)
		}
		usage, index := DeclUsageTexCoord, a.ShaderLocation
		if a.SemanticName != "" {
			if usage, ok = declUsages[strings.ToUpper(a.SemanticName)]; !ok {
				return nil, nil, fmt.Errorf("%w: semantic %q", rhi.ErrInvalidDescriptor, a.SemanticName)
			}
			index = a.SemanticIndex
		}
		if a.Offset > 0xFFFF || index > 0xFF {
			return nil, nil, fmt.Errorf("%w: attribute %d offset %d index %d", rhi.ErrInvalidDescriptor, i, a.Offset, index)
		}
		if a.PerInstance() {
			if rates[a.InputSlot] != 0 && rates[a.InputSlot] != a.InstancesPerElement {
				return nil, nil, fmt.Errorf("%w: slot %d mixes step rates", rhi.ErrInvalidInputSlot, a.InputSlot)
			}
			rates[a.InputSlot] = a.InstancesPerElement
		}
		elems = append(elems, VertexElement{
			Stream:     uint16(a.InputSlot),
			Offset:     uint16(a.Offset),
			Type:       typ,
			Usage:      usage,
			UsageIndex: uint8(index),
		})
	}
	return elems, rates, nil
}

// NewVertexLayout creates a vertex declaration. Direct3D 9 matches
// declarations to shaders at draw time, so program is only type checked.
func (d *Driver) NewVertexLayout(layout *rhi.VertexLayout, prog rhi.NativeObject) (rhi.NativeObject, error) {
	if _, ok := prog.(*program); !ok && prog != nil {
		return nil, fmt.Errorf("%w: vertex layout needs a Direct3D 9 program, got %s", rhi.ErrInvalidDescriptor, typeName(prog))
	}
	return d.newVertexDecl(layout)
}

func (d *Driver) newVertexDecl(layout *rhi.VertexLayout) (*vertexDecl, error) {
	if len(layout.Attributes) > maxVertexAttributes {
		return nil, fmt.Errorf("%w: %d vertex attributes, limit %d", rhi.ErrUnsupported, len(layout.Attributes), maxVertexAttributes)
	}
	if layout.Slots() > d.devCaps.MaxStreams && d.devCaps.MaxStreams > 0 {
		return nil, fmt.Errorf("%w: %d vertex streams, limit %d", rhi.ErrInvalidInputSlot, layout.Slots(), d.devCaps.MaxStreams)
	}
	elems, rates, err := vertexElements(layout)
	if err != nil {
		return nil, err
	}
	obj, err := d.dev.CreateVertexDeclaration(elems)
	if err != nil {
		return nil, fmt.Errorf("%w: create vertex declaration: %w", rhi.ErrInvalidDescriptor, err)
	}
	return &vertexDecl{object: d.newObject("vertex declaration"), obj: obj, rates: rates}, nil
}

func (v *vertexDecl) Destroy() {
	if !v.release() {
		return
	}
	if v.d.bound.layout == v {
		v.d.bound.layout = nil
	}
	if v.d.bound.decl == v {
		v.d.bound.decl = nil
		v.d.dev.SetVertexDeclaration(nil)
		v.d.applyDecl()
	}
	v.obj.Release()
}

func (v *vertexDecl) SetDebugName(name string) {
	v.label = name
	v.d.name(v.obj, name)
}

// vertexStream is one SetStreamSource binding.
type vertexStream struct {
	buf    *buffer
	stride uint32
	offset uint32
}

// vertexArray holds the stream and index bindings and owns the
// declaration derived from its layout.
type vertexArray struct {
	object
	streams []vertexStream
	index   *buffer
	decl    *vertexDecl
}

func (d *Driver) NewVertexArray(desc *rhi.NativeVertexArray) (rhi.NativeObject, error) {
	if n := uint32(len(desc.Buffers)); d.devCaps.MaxStreams > 0 && n > d.devCaps.MaxStreams {
		return nil, fmt.Errorf("%w: %d vertex buffers, limit %d", rhi.ErrUnsupported, n, d.devCaps.MaxStreams)
	}
	va := &vertexArray{streams: make([]vertexStream, len(desc.Buffers))}
	for i, vb := range desc.Buffers {
		if vb.Buffer == nil {
			continue
		}
		b, ok := vb.Buffer.(*buffer)
		if !ok || b.res == nil {
			return nil, fmt.Errorf("%w: vertex buffer %d is %s", rhi.ErrInvalidDescriptor, i, typeName(vb.Buffer))
		}
		va.streams[i] = vertexStream{buf: b, stride: vb.Stride, offset: vb.Offset}
	}
	if desc.IndexBuffer != nil {
		b, ok := desc.IndexBuffer.(*buffer)
		if !ok || b.res == nil {
			return nil, fmt.Errorf("%w: index buffer is %s", rhi.ErrInvalidDescriptor, typeName(desc.IndexBuffer))
		}
		va.index = b
	}
	if desc.Layout != nil && len(desc.Layout.Attributes) > 0 {
		decl, err := d.newVertexDecl(desc.Layout)
		if err != nil {
			return nil, err
		}
		va.decl = decl
	}
	va.object = d.newObject("vertex array")
	return va, nil
}

// vertexCount returns how many vertices the per-vertex streams hold, the
// range indexed draws may touch.
func (va *vertexArray) vertexCount(rates []uint32) uint32 {
	n := ^uint32(0)
	for i, s := range va.streams {
		if s.buf == nil || s.stride == 0 || (i < len(rates) && rates[i] != 0) || s.offset > s.buf.size {
			continue
		}
		n = min(n, (s.buf.size-s.offset)/s.stride)
	}
	if n == ^uint32(0) {
		return 0
	}
	return n
}

func (va *vertexArray) Destroy() {
	if !va.release() {
		return
	}
	if va.d.bound.vertexArray == va {
		va.d.bound.vertexArray = nil
	}
	if va.decl != nil {
		va.decl.Destroy()
	}
	va.streams, va.index, va.decl = nil, nil, nil
}

func (va *vertexArray) SetDebugName(name string) { va.label = name }
