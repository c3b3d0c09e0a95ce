// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi_test

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/backend/null"
	"github.com/gogpu/rhi/trace"
)

// env is a renderer over a traced null driver.
type env struct {
	r    *rhi.Renderer
	tr   *trace.Driver
	null *null.Driver
}

func newEnv(t *testing.T, opts ...rhi.Option) *env {
	t.Helper()
	return newEnvCaps(t, null.DefaultCaps(), opts...)
}

func newEnvCaps(t *testing.T, caps rhi.Caps, opts ...rhi.Option) *env {
	t.Helper()
	drv, err := null.Open(null.Options{Caps: &caps})
	if err != nil {
		t.Fatalf("null.Open: %v", err)
	}
	tr := trace.New(drv)
	r, err := rhi.New(tr, opts...)
	if err != nil {
		t.Fatalf("rhi.New: %v", err)
	}
	t.Cleanup(r.Close)
	tr.Reset()
	return &env{r: r, tr: tr, null: drv}
}

// types returns the commands recorded since the last reset.
func (e *env) types() []trace.CommandType {
	return e.tr.Recording().Types()
}

func (e *env) count(c trace.CommandType) int {
	return e.tr.Recording().Count(c)
}

// syncBuffer is a bytes.Buffer safe for slog handlers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// captureLogs routes rhi logging into a buffer for the rest of the test.
func captureLogs(t *testing.T) *syncBuffer {
	t.Helper()
	orig := rhi.Logger()
	t.Cleanup(func() { rhi.SetLogger(orig) })
	buf := &syncBuffer{}
	rhi.SetLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return buf
}

func positionLayout() rhi.VertexLayout {
	return rhi.VertexLayout{Attributes: []rhi.VertexAttribute{{
		Name:         "position",
		Format:       gputypes.VertexFormatFloat32x3,
		SemanticName: "POSITION",
	}}}
}

func mustVertexBuffer(t *testing.T, r *rhi.Renderer, size uint32) *rhi.Buffer {
	t.Helper()
	vb, err := r.CreateVertexBuffer(size, nil, rhi.BufferUsageStaticDraw)
	if err != nil {
		t.Fatalf("CreateVertexBuffer: %v", err)
	}
	return vb
}

func mustVertexArray(t *testing.T, r *rhi.Renderer, ib *rhi.Buffer) *rhi.VertexArray {
	t.Helper()
	vb := mustVertexBuffer(t, r, 36)
	defer vb.Release()
	va, err := r.CreateVertexArray(rhi.VertexArrayDescriptor{
		Layout:      positionLayout(),
		Buffers:     []rhi.VertexArrayBuffer{{Buffer: vb}},
		IndexBuffer: ib,
	})
	if err != nil {
		t.Fatalf("CreateVertexArray: %v", err)
	}
	return va
}

func mustTexture(t *testing.T, r *rhi.Renderer, w, h uint32, format gputypes.TextureFormat, flags rhi.TextureFlags) *rhi.Texture {
	t.Helper()
	tex, err := r.CreateTexture2D(w, h, format, nil, flags, rhi.TextureUsageDefault)
	if err != nil {
		t.Fatalf("CreateTexture2D(%d, %d, %v): %v", w, h, format, err)
	}
	return tex
}

func mustProgram(t *testing.T, r *rhi.Renderer) *rhi.Program {
	t.Helper()
	vs, err := r.CreateShader(rhi.ShaderDescriptor{
		Stage:  rhi.ShaderStageVertex,
		Source: rhi.ShaderSource{Native: "void main() {}"},
	})
	if err != nil {
		t.Fatalf("CreateShader(vertex): %v", err)
	}
	defer vs.Release()
	fs, err := r.CreateShader(rhi.ShaderDescriptor{
		Stage:  rhi.ShaderStageFragment,
		Source: rhi.ShaderSource{Native: "void main() {}"},
	})
	if err != nil {
		t.Fatalf("CreateShader(fragment): %v", err)
	}
	defer fs.Release()
	p, err := r.CreateProgram(vs, fs)
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	return p
}
