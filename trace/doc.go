// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package trace records the native calls an rhi.Renderer makes.
//
// A trace.Driver wraps any rhi.Driver. Every factory, bind, draw and sync
// call is captured as a typed Command before it is forwarded, and the
// objects the factories return are wrapped so their destruction, mapping
// and presentation are captured as well. Native objects are stored in an
// ObjectPool and referenced from commands by ObjectRef.
//
// Traces are how the state cache is tested: a redundant setter must not
// produce a command, and a pipeline state must produce its five binds in
// order.
//
// # Example
//
//	drv, _ := null.Open(null.Options{})
//	tr := trace.New(drv)
//	r, _ := rhi.New(tr)
//	defer r.Close()
//
//	tr.Reset()
//	r.SetVertexArray(va)
//	r.Draw(0, 3)
//
//	rec := tr.Recording()
//	fmt.Println(rec.Count(trace.CmdDraw)) // 1
//
//	// Replay onto the wrapped driver
//	rec.Playback(tr.Inner())
package trace
