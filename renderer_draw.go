// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"github.com/gogpu/gputypes"
)

// Clear clears the selected buffers of the bound render target.
func (r *Renderer) Clear(flags ClearFlags, color gputypes.Color, depth float32, stencil uint32) {
	if !r.usable() || flags == 0 {
		return
	}
	r.driver.Clear(flags, color, depth, stencil)
}

// Draw draws vertexCount vertices of the bound vertex array starting at
// startVertex.
func (r *Renderer) Draw(startVertex, vertexCount uint32) {
	r.draw(DrawArguments{
		VertexCountPerInstance: vertexCount,
		InstanceCount:          1,
		StartVertexLocation:    startVertex,
	}, "Draw")
}

// DrawInstanced draws instanceCount instances of a vertex range.
//
// Drivers without non-indexed instancing (Direct3D 9) ignore the call.
func (r *Renderer) DrawInstanced(startVertex, vertexCount, instanceCount uint32) {
	if !r.usable() || !r.caps.InstancedDraw {
		return
	}
	r.draw(DrawArguments{
		VertexCountPerInstance: vertexCount,
		InstanceCount:          instanceCount,
		StartVertexLocation:    startVertex,
	}, "DrawInstanced")
}

// DrawIndexed draws indexCount indices of the bound vertex array's index
// buffer starting at startIndex. baseVertex is added to every index.
// minIndex and vertexCount bound the referenced vertices; only Direct3D 9
// uses them and zero vertexCount means unknown.
func (r *Renderer) DrawIndexed(startIndex, indexCount uint32, baseVertex int32, minIndex, vertexCount uint32) {
	r.drawIndexed(DrawIndexedArguments{
		IndexCountPerInstance: indexCount,
		InstanceCount:         1,
		StartIndexLocation:    startIndex,
		BaseVertexLocation:    baseVertex,
		MinIndex:              minIndex,
		VertexCount:           vertexCount,
	}, "DrawIndexed")
}

// DrawIndexedInstanced draws instanceCount instances of an index range.
func (r *Renderer) DrawIndexedInstanced(startIndex, indexCount uint32, baseVertex int32, minIndex, vertexCount, instanceCount uint32) {
	r.drawIndexed(DrawIndexedArguments{
		IndexCountPerInstance: indexCount,
		InstanceCount:         instanceCount,
		StartIndexLocation:    startIndex,
		BaseVertexLocation:    baseVertex,
		MinIndex:              minIndex,
		VertexCount:           vertexCount,
	}, "DrawIndexedInstanced")
}

// DrawIndirect issues drawCount draws whose arguments are read from an
// indirect buffer starting at byte offset, one DrawArgumentsSize record each.
func (r *Renderer) DrawIndirect(buf *Buffer, offset, drawCount uint32) {
	if !r.usable() || !r.checkIndirect(buf, "DrawIndirect") {
		return
	}
	for i := range drawCount {
		args, ok := buf.drawArguments(offset + i*DrawArgumentsSize)
		if !ok {
			Logger().Error("rhi: indirect record out of range", "op", "DrawIndirect", "record", i, "size", buf.Size())
			return
		}
		if args.InstanceCount > 1 && !r.caps.InstancedDraw {
			continue
		}
		r.draw(args, "DrawIndirect")
	}
}

// DrawIndexedIndirect issues drawCount indexed draws whose arguments are
// read from an indirect buffer, one DrawIndexedArgumentsSize record each.
func (r *Renderer) DrawIndexedIndirect(buf *Buffer, offset, drawCount uint32) {
	if !r.usable() || !r.checkIndirect(buf, "DrawIndexedIndirect") {
		return
	}
	for i := range drawCount {
		args, ok := buf.drawIndexedArguments(offset + i*DrawIndexedArgumentsSize)
		if !ok {
			Logger().Error("rhi: indirect record out of range", "op", "DrawIndexedIndirect", "record", i, "size", buf.Size())
			return
		}
		r.drawIndexed(args, "DrawIndexedIndirect")
	}
}

func (r *Renderer) checkIndirect(buf *Buffer, op string) bool {
	if buf == nil {
		Logger().Error("rhi: nil indirect buffer", "op", op)
		return false
	}
	if !r.owns(buf, op) {
		return false
	}
	if buf.Type() != ResourceTypeIndirectBuffer {
		Logger().Error("rhi: buffer is not an indirect buffer", "op", op, "type", buf.Type())
		return false
	}
	return true
}

func (r *Renderer) draw(args DrawArguments, op string) {
	if !r.usable() {
		return
	}
	if r.state.vertexArray == nil {
		Logger().Error("rhi: draw without vertex array", "op", op)
		return
	}
	if args.VertexCountPerInstance == 0 || args.InstanceCount == 0 {
		return
	}
	r.driver.Draw(args)
	r.stats.drawCalls.Add(1)
}

func (r *Renderer) drawIndexed(args DrawIndexedArguments, op string) {
	if !r.usable() {
		return
	}
	va := r.state.vertexArray
	if va == nil {
		Logger().Error("rhi: draw without vertex array", "op", op)
		return
	}
	if va.index == nil {
		Logger().Error("rhi: indexed draw without index buffer", "op", op)
		return
	}
	if args.IndexCountPerInstance == 0 || args.InstanceCount == 0 {
		return
	}
	if args.BaseVertexLocation != 0 && !r.caps.BaseVertex {
		Logger().Error("rhi: base vertex not supported by driver", "op", op, "driver", r.info.Name)
		return
	}
	if args.InstanceCount > 1 && !r.caps.InstancedIndexedDraw {
		Logger().Warn("rhi: indexed instancing not supported by driver", "op", op, "driver", r.info.Name)
		return
	}
	if end := uint64(args.StartIndexLocation) + uint64(args.IndexCountPerInstance); end*uint64(indexSize(va.index.IndexFormat())) > uint64(va.index.Size()) {
		Logger().Error("rhi: index range exceeds index buffer", "op", op, "end", end, "size", va.index.Size())
		return
	}
	r.driver.DrawIndexed(args)
	r.stats.drawCalls.Add(1)
}

// Flush asks the driver to start executing queued commands. It does not
// wait.
func (r *Renderer) Flush() {
	if r.usable() {
		r.driver.Flush()
	}
}

// Finish blocks until the GPU has executed every submitted command. There
// is no timeout: a hung driver hangs the caller.
func (r *Renderer) Finish() {
	if r.usable() {
		r.driver.Finish()
	}
}
