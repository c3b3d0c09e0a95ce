// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import (
	"errors"
	"testing"

	"github.com/gogpu/rhi"
)

// openFake opens a driver over f with f as its compiler.
func openFake(t *testing.T, f *fakeDevice, opts Options) *Driver {
	t.Helper()
	if opts.Device == nil {
		opts.Device = f
	}
	if opts.Context == nil {
		opts.Context = f
	}
	if opts.Compiler == nil {
		opts.Compiler = f
	}
	d, err := Open(opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

// openDriver opens a feature level 11_0 driver.
func openDriver(t *testing.T) (*Driver, *fakeDevice) {
	t.Helper()
	f := newFakeDevice(FeatureLevel11_0)
	return openFake(t, f, Options{}), f
}

func TestOpen(t *testing.T) {
	d, f := openDriver(t)
	if !d.IsInitialized() {
		t.Fatal("IsInitialized = false")
	}
	info := d.Info()
	if info.Name != rhi.DriverD3D11 {
		t.Errorf("Name = %q, want %q", info.Name, rhi.DriverD3D11)
	}
	if info.Adapter.Name != "Fake Adapter" {
		t.Errorf("Adapter.Name = %q", info.Adapter.Name)
	}
	if info.Version != "Direct3D 11 feature level 11_0" {
		t.Errorf("Version = %q", info.Version)
	}
	if args := f.last("IASetPrimitiveTopology"); len(args) != 1 || args[0] != TopologyTriangleList {
		t.Errorf("IASetPrimitiveTopology args = %v", args)
	}
	if d.FeatureLevel() != FeatureLevel11_0 {
		t.Errorf("FeatureLevel = %v", d.FeatureLevel())
	}
}

func TestCapsByFeatureLevel(t *testing.T) {
	tests := []struct {
		level      FeatureLevel
		dim        uint32
		layers     uint32
		colors     uint32
		instancing bool
		index32    bool
		texBuffer  bool
		wgsl       bool
	}{
		{FeatureLevel11_1, 16384, 2048, 8, true, true, true, true},
		{FeatureLevel11_0, 16384, 2048, 8, true, true, true, true},
		{FeatureLevel10_1, 8192, 512, 8, true, true, true, false},
		{FeatureLevel10_0, 8192, 512, 8, true, true, true, false},
		{FeatureLevel9_3, 4096, 0, 4, true, true, false, false},
		{FeatureLevel9_2, 2048, 0, 1, false, true, false, false},
		{FeatureLevel9_1, 2048, 0, 1, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			d := openFake(t, newFakeDevice(tt.level), Options{})
			caps := d.Caps()
			if caps.MaxTextureDimension != tt.dim {
				t.Errorf("MaxTextureDimension = %d, want %d", caps.MaxTextureDimension, tt.dim)
			}
			if caps.MaxTextureArrayLayers != tt.layers || caps.Texture2DArray != (tt.layers > 0) {
				t.Errorf("MaxTextureArrayLayers = %d Texture2DArray = %v, want %d", caps.MaxTextureArrayLayers, caps.Texture2DArray, tt.layers)
			}
			if caps.MaxColorAttachments != tt.colors {
				t.Errorf("MaxColorAttachments = %d, want %d", caps.MaxColorAttachments, tt.colors)
			}
			if caps.InstancedDraw != tt.instancing || caps.InstancedIndexedDraw != tt.instancing {
				t.Errorf("instancing = %v/%v, want %v", caps.InstancedDraw, caps.InstancedIndexedDraw, tt.instancing)
			}
			if caps.IndexUint32 != tt.index32 {
				t.Errorf("IndexUint32 = %v, want %v", caps.IndexUint32, tt.index32)
			}
			if caps.TextureBuffer != tt.texBuffer {
				t.Errorf("TextureBuffer = %v, want %v", caps.TextureBuffer, tt.texBuffer)
			}
			if caps.WGSL != tt.wgsl {
				t.Errorf("WGSL = %v, want %v", caps.WGSL, tt.wgsl)
			}
			if !caps.BaseVertex || !caps.AutoMipmaps || !caps.Texture3D || caps.ShaderLanguage != "hlsl" {
				t.Errorf("fixed caps = %+v", caps)
			}
		})
	}
}

func TestWGSLNeedsCompiler(t *testing.T) {
	f := newFakeDevice(FeatureLevel11_0)
	d, err := Open(Options{Device: f, Context: f})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()
	if d.Caps().WGSL {
		t.Error("WGSL = true without a compiler")
	}
}

func TestOpenErrors(t *testing.T) {
	f := newFakeDevice(FeatureLevel11_0)
	if _, err := Open(Options{Context: f}); !errors.Is(err, ErrNoDevice) {
		t.Errorf("Open without device err = %v, want ErrNoDevice", err)
	}
	if _, err := Open(Options{Device: f}); !errors.Is(err, ErrNoDevice) {
		t.Errorf("Open without context err = %v, want ErrNoDevice", err)
	}
	old := newFakeDevice(0x9000)
	if _, err := Open(Options{Device: old, Context: old}); !errors.Is(err, ErrFeatureLevel) {
		t.Errorf("Open(0x9000) err = %v, want ErrFeatureLevel", err)
	}
}

func TestOpenWithoutAdapterInfo(t *testing.T) {
	f := newFakeDevice(FeatureLevel10_0)
	d, err := Open(Options{Device: bareDevice{f}, Context: f})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()
	if d.Info().Adapter.Name != "Direct3D 11 device" {
		t.Errorf("Adapter.Name = %q", d.Info().Adapter.Name)
	}
}

func TestFeatureLevelString(t *testing.T) {
	for level, want := range map[FeatureLevel]string{
		FeatureLevel9_1:  "9_1",
		FeatureLevel10_1: "10_1",
		FeatureLevel11_0: "11_0",
	} {
		if got := level.String(); got != want {
			t.Errorf("%#x.String() = %q, want %q", uint32(level), got, want)
		}
	}
}

func TestClose(t *testing.T) {
	f := newFakeDevice(FeatureLevel11_0)
	d, err := Open(Options{Device: f, Context: f})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s := rhi.DefaultSamplerDescriptor()
	if _, err := d.NewSamplerState(&s); err != nil {
		t.Fatalf("NewSamplerState: %v", err)
	}
	d.Finish()
	d.Close()
	if d.IsInitialized() {
		t.Error("IsInitialized = true after Close")
	}
	if n := f.alive(); n != 0 {
		t.Errorf("%d native objects alive after Close", n)
	}
	if f.count("Flush") == 0 {
		t.Error("Close did not flush")
	}
	d.Close()
}

func TestLiveCounting(t *testing.T) {
	d, _ := openDriver(t)
	rs := rhi.DefaultRasterizerDescriptor()
	obj, err := d.NewRasterizerState(&rs)
	if err != nil {
		t.Fatalf("NewRasterizerState: %v", err)
	}
	if d.Live() != 1 {
		t.Fatalf("Live = %d, want 1", d.Live())
	}
	obj.Destroy()
	obj.Destroy()
	if d.Live() != 0 {
		t.Errorf("Live after double destroy = %d, want 0", d.Live())
	}
}

func TestDebugEvents(t *testing.T) {
	d, f := openDriver(t)
	d.BeginDebugEvent("frame")
	d.SetDebugMarker("mark")
	d.EndDebugEvent()
	d.EndDebugEvent()
	if f.count("BeginEvent") != 1 || f.count("EndEvent") != 1 {
		t.Errorf("begin %d, end %d; want 1, 1", f.count("BeginEvent"), f.count("EndEvent"))
	}
	if args := f.last("SetMarker"); len(args) != 1 || args[0] != "mark" {
		t.Errorf("SetMarker args = %v", args)
	}
}

func TestDebugEventsWithoutAnnotation(t *testing.T) {
	f := newFakeDevice(FeatureLevel11_0)
	d := openFake(t, f, Options{Context: bareContext{f}})
	d.BeginDebugEvent("frame")
	d.EndDebugEvent()
	if f.count("BeginEvent") != 0 {
		t.Error("annotation used through a context that hides it")
	}
}

func TestDebugNames(t *testing.T) {
	f := newFakeDevice(FeatureLevel11_0)
	d := openFake(t, f, Options{Debug: true})
	res, err := d.NewBuffer(&rhi.BufferDescriptor{Kind: rhi.ResourceTypeVertexBuffer, Size: 16}, nil)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	res.(rhi.DebugNamer).SetDebugName("quad")
	if got := f.created("buffer")[0].name; got != "quad" {
		t.Errorf("buffer name = %q, want quad", got)
	}

	d2, f2 := openDriver(t)
	res, _ = d2.NewBuffer(&rhi.BufferDescriptor{Kind: rhi.ResourceTypeVertexBuffer, Size: 16}, nil)
	res.(rhi.DebugNamer).SetDebugName("quad")
	if got := f2.created("buffer")[0].name; got != "" {
		t.Errorf("buffer named %q outside debug mode", got)
	}
}
