// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build (windows || linux) && !(js && wasm)

package opengl

import (
	"unsafe"

	"github.com/gogpu/wgpu/hal/gles/gl"
)

// ContextFunctions adapts a loaded *gl.Context to Functions and
// InstancingFunctions. Entry points the context does not load, such as
// direct state access or fences, stay unavailable to the driver.
type ContextFunctions struct {
	*gl.Context
}

var (
	_ Functions           = (*ContextFunctions)(nil)
	_ InstancingFunctions = (*ContextFunctions)(nil)
)

// NewContextFunctions wraps c, which must be loaded and current.
func NewContextFunctions(c *gl.Context) *ContextFunctions {
	return &ContextFunctions{Context: c}
}

func (c *ContextFunctions) BufferData(target uint32, size int, data []byte, usage uint32) {
	c.Context.BufferData(target, size, bytesPtr(data), usage)
}

func (c *ContextFunctions) BufferSubData(target uint32, offset int, data []byte) {
	c.Context.BufferSubData(target, offset, len(data), bytesPtr(data))
}

func (c *ContextFunctions) MapBuffer(target, access uint32, size int) []byte {
	p := c.Context.MapBuffer(target, access)
	if p == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), size)
}

func (c *ContextFunctions) TexImage2D(target uint32, level, internalFormat, width, height int32, format, typ uint32, data []byte) {
	c.Context.TexImage2D(target, level, internalFormat, width, height, 0, format, typ, bytesPtr(data))
}

func (c *ContextFunctions) TexSubImage2D(target uint32, level, x, y, width, height int32, format, typ uint32, data []byte) {
	c.Context.TexSubImage2D(target, level, x, y, width, height, format, typ, bytesPtr(data))
}
