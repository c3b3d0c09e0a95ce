// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import "errors"

// Renderer and resource errors.
var (
	// ErrNilDriver is returned when a renderer is created without a driver.
	ErrNilDriver = errors.New("rhi: driver is nil")

	// ErrNotInitialized is returned by factories of a renderer whose device
	// failed to initialize.
	ErrNotInitialized = errors.New("rhi: renderer not initialized")

	// ErrInvalidDimensions is returned when a width, height, depth or size is zero
	// or exceeds the driver limits.
	ErrInvalidDimensions = errors.New("rhi: invalid dimensions")

	// ErrInvalidDescriptor is returned when a descriptor is malformed.
	ErrInvalidDescriptor = errors.New("rhi: invalid descriptor")

	// ErrUnsupported is returned when the backend cannot express a resource
	// kind, format or feature.
	ErrUnsupported = errors.New("rhi: unsupported by backend")

	// ErrUnsupportedAttachment is returned when a framebuffer attachment is
	// not a 2D texture.
	ErrUnsupportedAttachment = errors.New("rhi: framebuffer attachment must be a 2D texture")

	// ErrRendererMismatch is returned when a resource created by one renderer
	// is handed to another.
	ErrRendererMismatch = errors.New("rhi: resource belongs to a different renderer")

	// ErrMissingData is returned when initial data is required but absent or
	// shorter than the resource.
	ErrMissingData = errors.New("rhi: initial data missing or too short")

	// ErrInvalidInputSlot is returned when a vertex attribute references an
	// input slot without a bound vertex buffer.
	ErrInvalidInputSlot = errors.New("rhi: vertex attribute input slot out of range")

	// ErrNotMappable is returned by drivers when a resource cannot be mapped.
	ErrNotMappable = errors.New("rhi: resource cannot be mapped")

	// ErrAlreadyMapped is returned when a subresource is mapped twice.
	ErrAlreadyMapped = errors.New("rhi: subresource already mapped")

	// ErrShaderStage is returned when a shader is used in the wrong stage.
	ErrShaderStage = errors.New("rhi: shader stage mismatch")

	// ErrShaderCompilation is returned when a shader fails to translate or compile.
	ErrShaderCompilation = errors.New("rhi: shader compilation failed")
)

// Registry errors.
var (
	// ErrBackendNotAvailable is returned when a requested driver is not registered.
	ErrBackendNotAvailable = errors.New("rhi: backend not available")

	// ErrInvalidBindings is returned by driver factories when DriverConfig.Bindings
	// has the wrong type for the backend.
	ErrInvalidBindings = errors.New("rhi: invalid native bindings for backend")

	// ErrShaderBinding is returned when a WGSL resource does not follow the
	// group and binding numbering of ShaderBindings.
	ErrShaderBinding = errors.New("rhi: shader resource binding out of convention")
)
