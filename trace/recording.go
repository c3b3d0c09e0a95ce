// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package trace

import (
	"errors"
	"fmt"

	"github.com/gogpu/rhi"
)

var (
	// ErrUnknownObject is returned by Playback for a reference missing
	// from the object pool.
	ErrUnknownObject = errors.New("trace: unknown object")

	// ErrDestroyedObject is returned by Playback when a command binds an
	// object that has since been destroyed.
	ErrDestroyedObject = errors.New("trace: object destroyed")

	// ErrNotResource is returned by Playback when a texture or buffer slot
	// references an object that is not a resource.
	ErrNotResource = errors.New("trace: object is not a resource")
)

// Recording is an immutable list of recorded driver calls.
type Recording struct {
	commands []Command
	objects  *ObjectPool
}

// Commands returns the recorded commands.
func (r *Recording) Commands() []Command {
	return r.commands
}

// Objects returns the object pool.
func (r *Recording) Objects() *ObjectPool {
	return r.objects
}

// Len returns the number of recorded commands.
func (r *Recording) Len() int {
	return len(r.commands)
}

// Count returns the number of commands of type t.
func (r *Recording) Count(t CommandType) int {
	n := 0
	for _, c := range r.commands {
		if c.Type() == t {
			n++
		}
	}
	return n
}

// Types returns the command types in recording order.
func (r *Recording) Types() []CommandType {
	types := make([]CommandType, len(r.commands))
	for i, c := range r.commands {
		types[i] = c.Type()
	}
	return types
}

// Filter returns the commands whose type is one of types.
func (r *Recording) Filter(types ...CommandType) []Command {
	var out []Command
	for _, c := range r.commands {
		for _, t := range types {
			if c.Type() == t {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Playback replays binds, clears, draws, sync and debug commands onto drv.
//
// Bind commands carry the recorded driver's native objects, so drv must be
// that driver (usually the traced driver's Inner) and the objects must
// still be alive. Lifetime commands are not replayed.
func (r *Recording) Playback(drv rhi.Driver) error {
	annotator, _ := drv.(rhi.DebugAnnotator)

	for i, cmd := range r.commands {
		switch c := cmd.(type) {
		case BindCommand:
			obj, err := r.lookup(c.Object)
			if err != nil {
				return fmt.Errorf("command %d (%s): %w", i, c.Cmd, err)
			}
			bindFunc(drv, c.Cmd)(obj)
		case StageBindCommand:
			obj, err := r.lookup(c.Object)
			if err != nil {
				return fmt.Errorf("command %d (%s): %w", i, c.Cmd, err)
			}
			if err := playStageBind(drv, c, obj); err != nil {
				return fmt.Errorf("command %d (%s): %w", i, c.Cmd, err)
			}
		case SetViewportCommand:
			drv.SetViewport(c.Viewport)
		case SetScissorRectCommand:
			drv.SetScissorRect(c.Rect)
		case SetPrimitiveTopologyCommand:
			drv.SetPrimitiveTopology(c.Topology)
		case ClearCommand:
			drv.Clear(c.Flags, c.Color, c.Depth, c.Stencil)
		case DrawCommand:
			drv.Draw(c.Args)
		case DrawIndexedCommand:
			drv.DrawIndexed(c.Args)
		case FlushCommand:
			drv.Flush()
		case FinishCommand:
			drv.Finish()
		case DebugCommand:
			if annotator == nil {
				continue
			}
			switch c.Cmd {
			case CmdBeginDebugEvent:
				annotator.BeginDebugEvent(c.Name)
			case CmdEndDebugEvent:
				annotator.EndDebugEvent()
			case CmdSetDebugMarker:
				annotator.SetDebugMarker(c.Name)
			}
		// Lifetime commands describe what happened to objects, they are
		// not replayable on their own.
		case CreateCommand, DestroyCommand, MapCommand, UnmapCommand,
			PresentCommand, ResizeCommand:
		}
	}
	return nil
}

func (r *Recording) lookup(ref ObjectRef) (rhi.NativeObject, error) {
	if !ref.IsValid() {
		return nil, nil
	}
	obj := r.objects.Get(ref)
	if obj == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownObject, ref)
	}
	if !r.objects.Live(ref) {
		return nil, fmt.Errorf("%w: %d (%s)", ErrDestroyedObject, ref, r.objects.Kind(ref))
	}
	return obj, nil
}

func bindFunc(drv rhi.Driver, cmd CommandType) func(rhi.NativeObject) {
	switch cmd {
	case CmdSetRenderTarget:
		return drv.SetRenderTarget
	case CmdSetVertexArray:
		return drv.SetVertexArray
	case CmdSetVertexLayout:
		return drv.SetVertexLayout
	case CmdSetProgram:
		return drv.SetProgram
	case CmdSetRasterizerState:
		return drv.SetRasterizerState
	case CmdSetDepthStencilState:
		return drv.SetDepthStencilState
	case CmdSetBlendState:
		return drv.SetBlendState
	}
	return func(rhi.NativeObject) {}
}

func playStageBind(drv rhi.Driver, c StageBindCommand, obj rhi.NativeObject) error {
	if c.Cmd == CmdSetSamplerState {
		drv.SetSamplerState(c.Stage, c.Unit, obj)
		return nil
	}
	var res rhi.NativeResource
	if obj != nil {
		var ok bool
		if res, ok = obj.(rhi.NativeResource); !ok {
			return ErrNotResource
		}
	}
	switch c.Cmd {
	case CmdSetTexture:
		drv.SetTexture(c.Stage, c.Unit, res)
	case CmdSetUniformBuffer:
		drv.SetUniformBuffer(c.Stage, c.Unit, res)
	}
	return nil
}
