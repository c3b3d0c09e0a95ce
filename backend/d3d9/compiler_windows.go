// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build windows

package d3d9

import (
	"github.com/gogpu/wgpu/hal/dx12/d3dcompile"
)

// SystemCompiler loads d3dcompiler_47.dll, which still targets shader
// models 2.0 and 3.0.
func SystemCompiler() (Compiler, error) {
	lib, err := d3dcompile.Load()
	if err != nil {
		return nil, err
	}
	return lib, nil
}
