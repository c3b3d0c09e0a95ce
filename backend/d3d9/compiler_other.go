// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !windows

package d3d9

import (
	"fmt"

	"github.com/gogpu/rhi"
)

// SystemCompiler is only available on Windows. Elsewhere pass a Compiler
// in Options.
func SystemCompiler() (Compiler, error) {
	return nil, fmt.Errorf("%w: d3dcompiler outside Windows", rhi.ErrBackendNotAvailable)
}
