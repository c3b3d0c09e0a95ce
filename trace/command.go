// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package trace

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

// CommandType identifies the native call a command records.
type CommandType uint8

const (
	// Object lifetime
	CmdCreate  CommandType = iota // Driver factory call
	CmdDestroy                    // NativeObject.Destroy
	CmdMap                        // NativeResource.Map
	CmdUnmap                      // NativeResource.Unmap
	CmdPresent                    // NativeSwapChain.Present
	CmdResize                     // NativeSwapChain.Resize

	// Bind commands
	CmdSetRenderTarget
	CmdSetViewport
	CmdSetScissorRect
	CmdSetPrimitiveTopology
	CmdSetVertexArray
	CmdSetVertexLayout
	CmdSetProgram
	CmdSetRasterizerState
	CmdSetDepthStencilState
	CmdSetBlendState
	CmdSetTexture
	CmdSetSamplerState
	CmdSetUniformBuffer

	// Work commands
	CmdClear
	CmdDraw
	CmdDrawIndexed
	CmdFlush
	CmdFinish

	// Debug annotations
	CmdBeginDebugEvent
	CmdEndDebugEvent
	CmdSetDebugMarker

	commandTypeCount
)

var commandTypeNames = [commandTypeCount]string{
	CmdCreate:               "Create",
	CmdDestroy:              "Destroy",
	CmdMap:                  "Map",
	CmdUnmap:                "Unmap",
	CmdPresent:              "Present",
	CmdResize:               "Resize",
	CmdSetRenderTarget:      "SetRenderTarget",
	CmdSetViewport:          "SetViewport",
	CmdSetScissorRect:       "SetScissorRect",
	CmdSetPrimitiveTopology: "SetPrimitiveTopology",
	CmdSetVertexArray:       "SetVertexArray",
	CmdSetVertexLayout:      "SetVertexLayout",
	CmdSetProgram:           "SetProgram",
	CmdSetRasterizerState:   "SetRasterizerState",
	CmdSetDepthStencilState: "SetDepthStencilState",
	CmdSetBlendState:        "SetBlendState",
	CmdSetTexture:           "SetTexture",
	CmdSetSamplerState:      "SetSamplerState",
	CmdSetUniformBuffer:     "SetUniformBuffer",
	CmdClear:                "Clear",
	CmdDraw:                 "Draw",
	CmdDrawIndexed:          "DrawIndexed",
	CmdFlush:                "Flush",
	CmdFinish:               "Finish",
	CmdBeginDebugEvent:      "BeginDebugEvent",
	CmdEndDebugEvent:        "EndDebugEvent",
	CmdSetDebugMarker:       "SetDebugMarker",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if c < commandTypeCount {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// ObjectRef identifies a native object in the recording's ObjectPool.
type ObjectRef uint32

// InvalidRef marks an unbound slot.
const InvalidRef = ^ObjectRef(0)

// IsValid returns true if the reference points to an object.
func (r ObjectRef) IsValid() bool {
	return r != InvalidRef
}

// --------------------------------------------------------------------------
// Lifetime Commands
// --------------------------------------------------------------------------

// CreateCommand records a Driver factory call.
type CreateCommand struct {
	// Object is the created object, InvalidRef when creation failed.
	Object ObjectRef
	// Kind names the factory ("texture", "buffer", "program", ...).
	Kind string
	// Err is the factory error, if any.
	Err error
}

// Type implements Command.
func (CreateCommand) Type() CommandType { return CmdCreate }

// DestroyCommand records the destruction of a native object.
type DestroyCommand struct {
	Object ObjectRef
}

// Type implements Command.
func (DestroyCommand) Type() CommandType { return CmdDestroy }

// MapCommand records a Map call.
type MapCommand struct {
	Object      ObjectRef
	Subresource uint32
	Mode        rhi.MapType
	Err         error
}

// Type implements Command.
func (MapCommand) Type() CommandType { return CmdMap }

// UnmapCommand records an Unmap call.
type UnmapCommand struct {
	Object      ObjectRef
	Subresource uint32
}

// Type implements Command.
func (UnmapCommand) Type() CommandType { return CmdUnmap }

// PresentCommand records a swap chain present.
type PresentCommand struct {
	Object ObjectRef
	VSync  bool
}

// Type implements Command.
func (PresentCommand) Type() CommandType { return CmdPresent }

// ResizeCommand records a swap chain resize.
type ResizeCommand struct {
	Object        ObjectRef
	Width, Height uint32
}

// Type implements Command.
func (ResizeCommand) Type() CommandType { return CmdResize }

// --------------------------------------------------------------------------
// Bind Commands
// --------------------------------------------------------------------------

// BindCommand records a bind of a native object into a single slot.
// Object is InvalidRef when the slot was cleared.
type BindCommand struct {
	Cmd    CommandType
	Object ObjectRef
}

// Type implements Command.
func (c BindCommand) Type() CommandType { return c.Cmd }

// StageBindCommand records a bind into a per-stage unit: texture, sampler
// or uniform buffer.
type StageBindCommand struct {
	Cmd    CommandType
	Stage  rhi.ShaderStage
	Unit   uint32
	Object ObjectRef
}

// Type implements Command.
func (c StageBindCommand) Type() CommandType { return c.Cmd }

// SetViewportCommand records a viewport change.
type SetViewportCommand struct {
	Viewport rhi.Viewport
}

// Type implements Command.
func (SetViewportCommand) Type() CommandType { return CmdSetViewport }

// SetScissorRectCommand records a scissor change.
type SetScissorRectCommand struct {
	Rect rhi.ScissorRect
}

// Type implements Command.
func (SetScissorRectCommand) Type() CommandType { return CmdSetScissorRect }

// SetPrimitiveTopologyCommand records a topology change.
type SetPrimitiveTopologyCommand struct {
	Topology gputypes.PrimitiveTopology
}

// Type implements Command.
func (SetPrimitiveTopologyCommand) Type() CommandType { return CmdSetPrimitiveTopology }

// --------------------------------------------------------------------------
// Work Commands
// --------------------------------------------------------------------------

// ClearCommand records a Clear call.
type ClearCommand struct {
	Flags   rhi.ClearFlags
	Color   gputypes.Color
	Depth   float32
	Stencil uint32
}

// Type implements Command.
func (ClearCommand) Type() CommandType { return CmdClear }

// DrawCommand records a non-indexed draw.
type DrawCommand struct {
	Args rhi.DrawArguments
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }

// DrawIndexedCommand records an indexed draw.
type DrawIndexedCommand struct {
	Args rhi.DrawIndexedArguments
}

// Type implements Command.
func (DrawIndexedCommand) Type() CommandType { return CmdDrawIndexed }

// FlushCommand records a Flush call.
type FlushCommand struct{}

// Type implements Command.
func (FlushCommand) Type() CommandType { return CmdFlush }

// FinishCommand records a Finish call.
type FinishCommand struct{}

// Type implements Command.
func (FinishCommand) Type() CommandType { return CmdFinish }

// DebugCommand records a debug event bracket or marker.
type DebugCommand struct {
	Cmd  CommandType
	Name string
}

// Type implements Command.
func (c DebugCommand) Type() CommandType { return c.Cmd }
