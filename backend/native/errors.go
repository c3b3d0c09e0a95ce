// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import "errors"

// Package errors for the native driver.
var (
	// ErrNoDevice is returned when neither a device nor an openable hal
	// backend is available.
	ErrNoDevice = errors.New("native: no hal device")

	// ErrNoAdapter is returned when the selected hal backend exposes no
	// adapter.
	ErrNoAdapter = errors.New("native: no GPU adapter available")

	// ErrDeviceLost wraps failed queue submissions.
	ErrDeviceLost = errors.New("native: GPU device lost")

	// ErrNoSurface is returned by NewSwapChain when the window is not a
	// hal.Surface.
	ErrNoSurface = errors.New("native: swap chain window is not a hal.Surface")

	errDestroyed = errors.New("native: object destroyed")
)
