// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
)

// BufferUsage is the expected update frequency and access direction of a
// buffer, in the OpenGL usage-hint vocabulary every backend maps from.
type BufferUsage uint8

// Buffer usages.
const (
	BufferUsageStreamDraw BufferUsage = iota
	BufferUsageStreamRead
	BufferUsageStreamCopy
	BufferUsageStaticDraw
	BufferUsageStaticRead
	BufferUsageStaticCopy
	BufferUsageDynamicDraw
	BufferUsageDynamicRead
	BufferUsageDynamicCopy
)

var bufferUsageNames = [...]string{
	"StreamDraw", "StreamRead", "StreamCopy",
	"StaticDraw", "StaticRead", "StaticCopy",
	"DynamicDraw", "DynamicRead", "DynamicCopy",
}

func (u BufferUsage) String() string {
	if int(u) < len(bufferUsageNames) {
		return bufferUsageNames[u]
	}
	return "Unknown"
}

// Static reports whether the contents are written once.
func (u BufferUsage) Static() bool {
	return u >= BufferUsageStaticDraw && u <= BufferUsageStaticCopy
}

// Dynamic reports whether the contents are rewritten repeatedly.
func (u BufferUsage) Dynamic() bool {
	return u >= BufferUsageDynamicDraw && u <= BufferUsageDynamicCopy
}

// Stream reports whether the contents are rewritten every use.
func (u BufferUsage) Stream() bool { return u <= BufferUsageStreamCopy }

// CPURead reports whether the CPU reads the contents back.
func (u BufferUsage) CPURead() bool { return u%3 == 1 }

// BufferDescriptor describes a buffer. Kind is one of the buffer resource
// types. IndexFormat is only used by index buffers.
type BufferDescriptor struct {
	Label       string
	Kind        ResourceType
	Size        uint32
	Usage       BufferUsage
	IndexFormat gputypes.IndexFormat
}

// Buffer is a vertex, index, uniform or indirect buffer.
//
// Indirect buffers live in CPU memory on every backend; DrawIndirect and
// DrawIndexedIndirect read their argument records from it.
type Buffer struct {
	resource
	desc   BufferDescriptor
	handle NativeResource
	shadow []byte
	mapped bool
}

// Descriptor returns the descriptor the buffer was created with.
func (b *Buffer) Descriptor() BufferDescriptor { return b.desc }

// Size returns the byte length.
func (b *Buffer) Size() uint32 { return b.desc.Size }

// IndexFormat returns the index width of an index buffer.
func (b *Buffer) IndexFormat() gputypes.IndexFormat { return b.desc.IndexFormat }

// Native returns the wrapped driver handle, nil for indirect buffers.
func (b *Buffer) Native() NativeResource { return b.handle }

// Map gives CPU access to the buffer. subresource must be 0. It returns
// false when the driver cannot map the buffer or it is already mapped.
func (b *Buffer) Map(subresource uint32, mode MapType) (MappedSubresource, bool) {
	if subresource != 0 || b.released.Load() {
		return MappedSubresource{}, false
	}
	if b.mapped {
		Logger().Debug("rhi: buffer already mapped", "name", b.name)
		return MappedSubresource{}, false
	}
	if b.shadow != nil {
		b.mapped = true
		return MappedSubresource{Data: b.shadow, RowPitch: b.desc.Size, DepthPitch: b.desc.Size}, true
	}
	if b.handle == nil {
		return MappedSubresource{}, false
	}
	m, err := b.handle.Map(0, mode)
	if err != nil {
		Logger().Debug("rhi: buffer map failed", "name", b.name, "mode", mode, "err", err)
		return MappedSubresource{}, false
	}
	b.mapped = true
	return m, true
}

// Unmap ends a Map. Unmapping a buffer that is not mapped does nothing.
func (b *Buffer) Unmap(subresource uint32) {
	if subresource != 0 || !b.mapped {
		return
	}
	b.mapped = false
	if b.handle != nil {
		b.handle.Unmap(0)
	}
}

// Write copies data into the buffer at offset through a mapping. It
// reports false when the buffer cannot be mapped or data does not fit.
func (b *Buffer) Write(offset uint32, data []byte) bool {
	if uint64(offset)+uint64(len(data)) > uint64(b.desc.Size) {
		return false
	}
	mode := MapWrite
	if offset == 0 && uint32(len(data)) == b.desc.Size {
		mode = MapWriteDiscard
	}
	m, ok := b.Map(0, mode)
	if !ok {
		return false
	}
	copy(m.Data[offset:], data)
	b.Unmap(0)
	return true
}

// drawArguments decodes the indirect record at byte offset.
func (b *Buffer) drawArguments(offset uint32) (DrawArguments, bool) {
	if uint64(offset)+DrawArgumentsSize > uint64(len(b.shadow)) {
		return DrawArguments{}, false
	}
	p := b.shadow[offset:]
	return DrawArguments{
		VertexCountPerInstance: binary.LittleEndian.Uint32(p[0:]),
		InstanceCount:          binary.LittleEndian.Uint32(p[4:]),
		StartVertexLocation:    binary.LittleEndian.Uint32(p[8:]),
		StartInstanceLocation:  binary.LittleEndian.Uint32(p[12:]),
	}, true
}

// drawIndexedArguments decodes the indexed indirect record at byte offset.
func (b *Buffer) drawIndexedArguments(offset uint32) (DrawIndexedArguments, bool) {
	if uint64(offset)+DrawIndexedArgumentsSize > uint64(len(b.shadow)) {
		return DrawIndexedArguments{}, false
	}
	p := b.shadow[offset:]
	return DrawIndexedArguments{
		IndexCountPerInstance: binary.LittleEndian.Uint32(p[0:]),
		InstanceCount:         binary.LittleEndian.Uint32(p[4:]),
		StartIndexLocation:    binary.LittleEndian.Uint32(p[8:]),
		BaseVertexLocation:    int32(binary.LittleEndian.Uint32(p[12:])),
		StartInstanceLocation: binary.LittleEndian.Uint32(p[16:]),
	}, true
}

// EncodeDrawArguments appends the indirect record of args to dst.
func EncodeDrawArguments(dst []byte, args DrawArguments) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, args.VertexCountPerInstance)
	dst = binary.LittleEndian.AppendUint32(dst, args.InstanceCount)
	dst = binary.LittleEndian.AppendUint32(dst, args.StartVertexLocation)
	return binary.LittleEndian.AppendUint32(dst, args.StartInstanceLocation)
}

// EncodeDrawIndexedArguments appends the indexed indirect record of args to dst.
// MinIndex and VertexCount are not encoded.
func EncodeDrawIndexedArguments(dst []byte, args DrawIndexedArguments) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, args.IndexCountPerInstance)
	dst = binary.LittleEndian.AppendUint32(dst, args.InstanceCount)
	dst = binary.LittleEndian.AppendUint32(dst, args.StartIndexLocation)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(args.BaseVertexLocation))
	return binary.LittleEndian.AppendUint32(dst, args.StartInstanceLocation)
}

// CreateVertexBuffer creates a vertex buffer of size bytes.
func (r *Renderer) CreateVertexBuffer(size uint32, data []byte, usage BufferUsage) (*Buffer, error) {
	return r.CreateBuffer(BufferDescriptor{Kind: ResourceTypeVertexBuffer, Size: size, Usage: usage}, data)
}

// CreateIndexBuffer creates an index buffer of size bytes holding
// format-wide indices.
func (r *Renderer) CreateIndexBuffer(size uint32, format gputypes.IndexFormat, data []byte, usage BufferUsage) (*Buffer, error) {
	return r.CreateBuffer(BufferDescriptor{Kind: ResourceTypeIndexBuffer, Size: size, Usage: usage, IndexFormat: format}, data)
}

// CreateUniformBuffer creates a uniform buffer of size bytes.
func (r *Renderer) CreateUniformBuffer(size uint32, data []byte, usage BufferUsage) (*Buffer, error) {
	return r.CreateBuffer(BufferDescriptor{Kind: ResourceTypeUniformBuffer, Size: size, Usage: usage}, data)
}

// CreateIndirectBuffer creates an indirect-argument buffer of size bytes.
// See EncodeDrawArguments for the record layout.
func (r *Renderer) CreateIndirectBuffer(size uint32, data []byte) (*Buffer, error) {
	return r.CreateBuffer(BufferDescriptor{Kind: ResourceTypeIndirectBuffer, Size: size, Usage: BufferUsageDynamicDraw}, data)
}

// CreateBuffer creates a buffer of any kind. data may be nil; when present
// it must hold at least Size bytes.
func (r *Renderer) CreateBuffer(desc BufferDescriptor, data []byte) (*Buffer, error) {
	if err := r.checkReady(); err != nil {
		return nil, err
	}
	typ := desc.Kind
	if !typ.IsBuffer() {
		return nil, r.creationFailed(ResourceTypeVertexBuffer, fmt.Errorf("%w: %v is not a buffer kind", ErrInvalidDescriptor, typ))
	}
	if desc.Size == 0 {
		return nil, r.creationFailed(typ, fmt.Errorf("%w: zero-size buffer", ErrInvalidDimensions))
	}
	if data != nil && uint32(len(data)) < desc.Size {
		return nil, r.creationFailed(typ, fmt.Errorf("%w: got %d bytes, need %d", ErrMissingData, len(data), desc.Size))
	}

	switch typ {
	case ResourceTypeIndexBuffer:
		switch desc.IndexFormat {
		case gputypes.IndexFormatUint16:
		case gputypes.IndexFormatUint32:
			if !r.caps.IndexUint32 {
				return nil, r.creationFailed(typ, fmt.Errorf("%w: 32-bit indices", ErrUnsupported))
			}
		default:
			return nil, r.creationFailed(typ, fmt.Errorf("%w: index format %v", ErrInvalidDescriptor, desc.IndexFormat))
		}
	case ResourceTypeIndirectBuffer:
		b := &Buffer{desc: desc, shadow: make([]byte, desc.Size)}
		copy(b.shadow, data)
		b.init(r, typ, nil, nil)
		b.name = desc.Label
		return b, nil
	default:
		desc.IndexFormat = gputypes.IndexFormatUndefined
	}

	defer r.debugEvent("Create" + typ.String())()
	native, err := r.driver.NewBuffer(&desc, data)
	if err != nil {
		return nil, r.creationFailed(typ, err)
	}
	b := &Buffer{desc: desc, handle: native}
	b.init(r, typ, native, nil)
	if desc.Label != "" {
		b.SetDebugName(desc.Label)
	}
	return b, nil
}

// indexSize returns the byte width of one index.
func indexSize(f gputypes.IndexFormat) uint32 {
	if f == gputypes.IndexFormatUint32 {
		return 4
	}
	return 2
}
