// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

// ShaderStage selects the programmable stage a texture, sampler or uniform
// buffer slot belongs to.
type ShaderStage uint8

// Shader stages.
const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment

	shaderStageCount
)

// String returns the stage name.
func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	}
	return "unknown"
}

// ClearFlags selects the buffers Renderer.Clear touches.
type ClearFlags uint8

// Clear flags.
const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
	ClearStencil

	ClearColorDepth = ClearColor | ClearDepth
	ClearAll        = ClearColor | ClearDepth | ClearStencil
)

// MapType is the CPU access requested by Map.
type MapType uint8

// Map types.
const (
	MapRead MapType = iota + 1
	MapWrite
	MapReadWrite
	MapWriteDiscard
	MapWriteNoOverwrite
)

// String returns the map type name.
func (m MapType) String() string {
	switch m {
	case MapRead:
		return "Read"
	case MapWrite:
		return "Write"
	case MapReadWrite:
		return "ReadWrite"
	case MapWriteDiscard:
		return "WriteDiscard"
	case MapWriteNoOverwrite:
		return "WriteNoOverwrite"
	}
	return "Unknown"
}

// Reads reports whether the mapping must observe current contents.
func (m MapType) Reads() bool { return m == MapRead || m == MapReadWrite }

// Writes reports whether the mapping may modify contents.
func (m MapType) Writes() bool { return m != MapRead && m != 0 }

// MappedSubresource is the CPU view of a mapped subresource.
//
// Data aliases driver memory and is valid until Unmap.
type MappedSubresource struct {
	Data       []byte
	RowPitch   uint32
	DepthPitch uint32
}

// Viewport is the rasterizer viewport transform.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// ScissorRect is a scissor rectangle in pixels.
type ScissorRect struct {
	X, Y          int32
	Width, Height uint32
}

// DrawArguments describes one non-indexed draw. Its four uint32 fields are
// also the record layout read from indirect buffers.
type DrawArguments struct {
	VertexCountPerInstance uint32
	InstanceCount          uint32
	StartVertexLocation    uint32
	StartInstanceLocation  uint32
}

// DrawIndexedArguments describes one indexed draw. The first five fields are
// the record layout read from indirect buffers.
type DrawIndexedArguments struct {
	IndexCountPerInstance uint32
	InstanceCount         uint32
	StartIndexLocation    uint32
	BaseVertexLocation    int32
	StartInstanceLocation uint32

	// MinIndex and VertexCount bound the referenced vertex range. Only
	// Direct3D 9 consumes them; zero VertexCount means unknown.
	MinIndex    uint32
	VertexCount uint32
}

// Indirect record sizes in bytes.
const (
	DrawArgumentsSize        = 16
	DrawIndexedArgumentsSize = 20
)
