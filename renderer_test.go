// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/backend/null"
	"github.com/gogpu/rhi/trace"
)

func TestNewErrors(t *testing.T) {
	if _, err := rhi.New(nil); !errors.Is(err, rhi.ErrNilDriver) {
		t.Errorf("New(nil) err = %v, want ErrNilDriver", err)
	}
	drv, _ := null.Open(null.Options{FailInit: true})
	if _, err := rhi.New(drv); !errors.Is(err, rhi.ErrNotInitialized) {
		t.Errorf("New(uninitialized) err = %v, want ErrNotInitialized", err)
	}
}

func TestNewBindsDefaults(t *testing.T) {
	drv, _ := null.Open(null.Options{})
	tr := trace.New(drv)
	r, err := rhi.New(tr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	rec := tr.Recording()
	if got := rec.Count(trace.CmdCreate); got != 4 {
		t.Errorf("creates = %d, want 4 default states", got)
	}
	units := int(r.Caps().MaxTextureUnits)
	if got := rec.Count(trace.CmdSetSamplerState); got != 2*units {
		t.Errorf("sampler binds = %d, want %d", got, 2*units)
	}
	for _, c := range []trace.CommandType{trace.CmdSetRasterizerState, trace.CmdSetDepthStencilState, trace.CmdSetBlendState} {
		if got := rec.Count(c); got != 1 {
			t.Errorf("%v count = %d, want 1", c, got)
		}
	}

	if got := r.RasterizerState().Descriptor(); got != rhi.DefaultRasterizerDescriptor() {
		t.Errorf("default rasterizer = %+v", got)
	}
	if got := r.DepthStencilState().Descriptor(); got != rhi.DefaultDepthStencilDescriptor() {
		t.Errorf("default depth-stencil = %+v", got)
	}
	if got := r.BlendState().Descriptor(); got != rhi.DefaultBlendDescriptor() {
		t.Errorf("default blend = %+v", got)
	}
	if r.SamplerState(rhi.ShaderStageFragment, uint32(units-1)) == nil {
		t.Error("last fragment sampler unit has no default sampler")
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	drv, _ := null.Open(null.Options{})
	r, err := rhi.New(drv)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tex, _ := r.CreateTexture2D(4, 4, gputypes.TextureFormatRGBA8Unorm, nil, 0, rhi.TextureUsageDefault)
	r.SetTexture(rhi.ShaderStageFragment, 0, tex)
	tex.Release()
	if tex.RefCount() != 1 {
		t.Fatalf("bound texture RefCount = %d, want 1", tex.RefCount())
	}

	r.Close()
	if drv.Live() != 0 {
		t.Errorf("native objects alive after Close: %d", drv.Live())
	}
	if drv.DoubleDestroys() != 0 {
		t.Errorf("double destroys: %d", drv.DoubleDestroys())
	}
	if r.IsInitialized() {
		t.Error("IsInitialized after Close")
	}
	r.Close()

	if _, err := r.CreateVertexBuffer(4, nil, rhi.BufferUsageStaticDraw); !errors.Is(err, rhi.ErrNotInitialized) {
		t.Errorf("create after Close err = %v, want ErrNotInitialized", err)
	}
}

func TestCloseReportsLeaks(t *testing.T) {
	logs := captureLogs(t)
	drv, _ := null.Open(null.Options{})
	r, _ := rhi.New(drv)
	if _, err := r.CreateTexture2D(4, 4, gputypes.TextureFormatRGBA8Unorm, nil, 0, rhi.TextureUsageDefault); err != nil {
		t.Fatalf("CreateTexture2D: %v", err)
	}
	r.Close()

	out := logs.String()
	if !strings.Contains(out, "resources leaked") || !strings.Contains(out, "Texture2D=1") {
		t.Errorf("leak warning missing, log:\n%s", out)
	}
}

func TestLostDevice(t *testing.T) {
	e := newEnv(t)
	e.null.SetLost(true)
	if e.r.IsInitialized() {
		t.Error("IsInitialized with lost device")
	}
	if _, err := e.r.CreateBlendState(rhi.AlphaBlendDescriptor()); !errors.Is(err, rhi.ErrNotInitialized) {
		t.Errorf("create on lost device err = %v, want ErrNotInitialized", err)
	}
	e.null.SetLost(false)
}

func TestSetterIdempotence(t *testing.T) {
	e := newEnv(t)
	r := e.r

	r.SetPrimitiveTopology(gputypes.PrimitiveTopologyTriangleList)
	r.SetPrimitiveTopology(gputypes.PrimitiveTopologyTriangleList)
	r.SetViewport(rhi.Viewport{Width: 640, Height: 480, MaxDepth: 1})
	r.SetViewport(rhi.Viewport{Width: 640, Height: 480, MaxDepth: 1})
	r.SetScissorRect(rhi.ScissorRect{Width: 10, Height: 10})
	r.SetScissorRect(rhi.ScissorRect{Width: 10, Height: 10})
	r.SetRasterizerState(nil)
	r.SetDepthStencilState(nil)
	r.SetBlendState(nil)
	r.SetSamplerState(rhi.ShaderStageVertex, 3, nil)

	want := []trace.CommandType{trace.CmdSetPrimitiveTopology, trace.CmdSetViewport, trace.CmdSetScissorRect}
	if got := e.types(); !slices.Equal(got, want) {
		t.Errorf("commands = %v, want %v", got, want)
	}
	if r.PrimitiveTopology() != gputypes.PrimitiveTopologyTriangleList {
		t.Errorf("PrimitiveTopology() = %v", r.PrimitiveTopology())
	}
}

func TestSetterRebindsResources(t *testing.T) {
	e := newEnv(t)
	r := e.r
	a := mustTexture(t, r, 4, 4, gputypes.TextureFormatRGBA8Unorm, 0)
	b := mustTexture(t, r, 4, 4, gputypes.TextureFormatRGBA8Unorm, 0)
	defer a.Release()
	defer b.Release()
	e.tr.Reset()

	r.SetTexture(rhi.ShaderStageFragment, 2, a)
	if a.RefCount() != 2 {
		t.Errorf("bound RefCount = %d, want 2", a.RefCount())
	}
	r.SetTexture(rhi.ShaderStageFragment, 2, a)
	r.SetTexture(rhi.ShaderStageFragment, 2, b)
	if a.RefCount() != 1 || b.RefCount() != 2 {
		t.Errorf("after rebind RefCount a=%d b=%d, want 1 and 2", a.RefCount(), b.RefCount())
	}
	r.SetTexture(rhi.ShaderStageFragment, 2, nil)
	if b.RefCount() != 1 || r.Texture(rhi.ShaderStageFragment, 2) != nil {
		t.Error("SetTexture(nil) did not unbind")
	}
	if got := e.count(trace.CmdSetTexture); got != 3 {
		t.Errorf("SetTexture commands = %d, want 3", got)
	}
}

func TestSetterOutOfRangeUnit(t *testing.T) {
	e := newEnv(t)
	tex := mustTexture(t, e.r, 4, 4, gputypes.TextureFormatRGBA8Unorm, 0)
	defer tex.Release()
	e.tr.Reset()

	e.r.SetTexture(rhi.ShaderStageFragment, e.r.Caps().MaxTextureUnits, tex)
	e.r.SetTexture(rhi.ShaderStage(7), 0, tex)
	if len(e.types()) != 0 {
		t.Errorf("out of range binds reached the driver: %v", e.types())
	}
	if tex.RefCount() != 1 {
		t.Errorf("RefCount = %d, want 1", tex.RefCount())
	}
}

func TestOwnershipRejected(t *testing.T) {
	logs := captureLogs(t)
	a := newEnv(t)
	b := newEnv(t)

	foreignTex := mustTexture(t, b.r, 4, 4, gputypes.TextureFormatRGBA8Unorm, 0)
	defer foreignTex.Release()
	foreignRS, _ := b.r.CreateRasterizerState(rhi.RasterizerDescriptor{FillMode: rhi.FillModeWireframe})
	defer foreignRS.Release()
	foreignVA := mustVertexArray(t, b.r, nil)
	defer foreignVA.Release()
	a.tr.Reset()

	a.r.SetTexture(rhi.ShaderStageFragment, 0, foreignTex)
	a.r.SetRasterizerState(foreignRS)
	a.r.SetVertexArray(foreignVA)

	if len(a.types()) != 0 {
		t.Errorf("foreign binds reached the driver: %v", a.types())
	}
	if a.r.Texture(rhi.ShaderStageFragment, 0) != nil || a.r.VertexArray() != nil {
		t.Error("foreign resource stored in renderer state")
	}
	if a.r.RasterizerState() == foreignRS {
		t.Error("foreign rasterizer state bound")
	}
	if foreignTex.RefCount() != 1 || foreignRS.RefCount() != 1 {
		t.Error("foreign resource reference count changed")
	}
	if !strings.Contains(logs.String(), "different renderer") {
		t.Errorf("ownership violation not logged:\n%s", logs.String())
	}
}

func TestUniformBufferSlot(t *testing.T) {
	e := newEnv(t)
	ub, err := e.r.CreateUniformBuffer(64, nil, rhi.BufferUsageDynamicDraw)
	if err != nil {
		t.Fatalf("CreateUniformBuffer: %v", err)
	}
	defer ub.Release()
	vb := mustVertexBuffer(t, e.r, 64)
	defer vb.Release()
	e.tr.Reset()

	e.r.SetUniformBuffer(rhi.ShaderStageVertex, 1, vb)
	e.r.SetUniformBuffer(rhi.ShaderStageVertex, 1, ub)
	e.r.SetUniformBuffer(rhi.ShaderStageVertex, 1, ub)
	if got := e.count(trace.CmdSetUniformBuffer); got != 1 {
		t.Errorf("SetUniformBuffer commands = %d, want 1", got)
	}
	if ub.RefCount() != 2 || vb.RefCount() != 1 {
		t.Errorf("RefCount ub=%d vb=%d, want 2 and 1", ub.RefCount(), vb.RefCount())
	}
}

func TestCollectionsBindContiguousUnits(t *testing.T) {
	e := newEnv(t)
	r := e.r
	a := mustTexture(t, r, 4, 4, gputypes.TextureFormatRGBA8Unorm, 0)
	b := mustTexture(t, r, 4, 4, gputypes.TextureFormatRGBA8Unorm, 0)
	defer a.Release()
	defer b.Release()
	tc, _ := r.CreateTextureCollection([]*rhi.Texture{a, nil, b})
	defer tc.Release()

	s, _ := r.CreateSamplerState(rhi.SamplerDescriptor{MaxLOD: 4, MaxAnisotropy: 8})
	defer s.Release()
	sc, _ := r.CreateSamplerStateCollection([]*rhi.SamplerState{s, nil})
	defer sc.Release()
	e.tr.Reset()

	r.SetTextureCollection(rhi.ShaderStageFragment, 4, tc)
	if r.Texture(rhi.ShaderStageFragment, 4) != a || r.Texture(rhi.ShaderStageFragment, 5) != nil || r.Texture(rhi.ShaderStageFragment, 6) != b {
		t.Error("texture collection bound to the wrong units")
	}
	if got := e.count(trace.CmdSetTexture); got != 2 {
		t.Errorf("SetTexture commands = %d, want 2", got)
	}

	def := r.SamplerState(rhi.ShaderStageFragment, 1)
	r.SetSamplerStateCollection(rhi.ShaderStageFragment, 0, sc)
	if r.SamplerState(rhi.ShaderStageFragment, 0) != s {
		t.Error("sampler collection element 0 not bound")
	}
	if r.SamplerState(rhi.ShaderStageFragment, 1) != def {
		t.Error("empty sampler collection slot did not keep the default sampler")
	}

	units := r.Caps().MaxTextureUnits
	e.tr.Reset()
	r.SetTextureCollection(rhi.ShaderStageVertex, units-1, tc)
	if got := e.count(trace.CmdSetTexture); got != 1 {
		t.Errorf("clamped collection issued %d binds, want 1", got)
	}
}

func TestStatistics(t *testing.T) {
	e := newEnv(t)
	r := e.r
	before := r.Statistics()
	if before.Live(rhi.ResourceTypeSamplerState) != 1 || before.Live(rhi.ResourceTypeBlendState) != 1 {
		t.Errorf("default states not counted: %+v", before)
	}

	vb := mustVertexBuffer(t, r, 16)
	if got := r.Statistics().Live(rhi.ResourceTypeVertexBuffer); got != 1 {
		t.Errorf("Live(VertexBuffer) = %d, want 1", got)
	}
	vb.Release()
	if got := r.Statistics().Live(rhi.ResourceTypeVertexBuffer); got != 0 {
		t.Errorf("Live(VertexBuffer) after release = %d, want 0", got)
	}

	r.SetPrimitiveTopology(gputypes.PrimitiveTopologyLineList)
	r.SetPrimitiveTopology(gputypes.PrimitiveTopologyLineList)
	after := r.Statistics()
	if after.BindsIssued != before.BindsIssued+1 || after.BindsElided != before.BindsElided+1 {
		t.Errorf("binds issued %d->%d elided %d->%d", before.BindsIssued, after.BindsIssued, before.BindsElided, after.BindsElided)
	}
	if after.TotalLive() != before.TotalLive() {
		t.Errorf("TotalLive = %d, want %d", after.TotalLive(), before.TotalLive())
	}
	if after.Live(rhi.ResourceType(200)) != 0 {
		t.Error("Live of an unknown type is not zero")
	}
}

func TestDebugEvents(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		e := newEnv(t, rhi.WithDebugEvents(true))
		vb := mustVertexBuffer(t, e.r, 16)
		defer vb.Release()
		e.r.BeginDebugEvent("frame")
		e.r.SetDebugMarker("here")
		e.r.EndDebugEvent()

		want := []trace.CommandType{
			trace.CmdBeginDebugEvent, trace.CmdCreate, trace.CmdEndDebugEvent,
			trace.CmdBeginDebugEvent, trace.CmdSetDebugMarker, trace.CmdEndDebugEvent,
		}
		if got := e.types(); !slices.Equal(got, want) {
			t.Errorf("commands = %v, want %v", got, want)
		}
		if e.null.DebugDepth() != 0 {
			t.Errorf("DebugDepth = %d, want 0", e.null.DebugDepth())
		}
	})
	t.Run("disabled", func(t *testing.T) {
		e := newEnv(t)
		vb := mustVertexBuffer(t, e.r, 16)
		defer vb.Release()
		e.r.BeginDebugEvent("frame")
		if got := e.types(); !slices.Equal(got, []trace.CommandType{trace.CmdCreate}) {
			t.Errorf("commands = %v, want only the create", got)
		}
	})
}

func TestClear(t *testing.T) {
	e := newEnv(t)
	e.r.Clear(0, gputypes.Color{}, 1, 0)
	e.r.Clear(rhi.ClearAll, gputypes.Color{R: 1, A: 1}, 1, 0)
	cmds := e.tr.Recording().Filter(trace.CmdClear)
	if len(cmds) != 1 {
		t.Fatalf("Clear commands = %d, want 1", len(cmds))
	}
	if c := cmds[0].(trace.ClearCommand); c.Flags != rhi.ClearAll || c.Color.R != 1 {
		t.Errorf("clear = %+v", c)
	}
}

func TestFlushFinish(t *testing.T) {
	e := newEnv(t)
	e.r.Flush()
	e.r.Finish()
	want := []trace.CommandType{trace.CmdFlush, trace.CmdFinish}
	if got := e.types(); !slices.Equal(got, want) {
		t.Errorf("commands = %v, want %v", got, want)
	}
}
