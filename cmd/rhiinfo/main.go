// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command rhiinfo lists the registered rhi drivers, opens one, renders a
// triangle into an offscreen target and prints what the driver reports.
//
// Usage:
//
//	rhiinfo [-driver name] [-size n] [-png file] [-trace] [-v]
//
// Without -driver the highest-priority driver that opens is used. The
// native driver opens on the noop HAL unless a real HAL backend is linked
// in.
package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/gogpu/gputypes"
	_ "github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/rhi"
	_ "github.com/gogpu/rhi/backend/d3d11"
	_ "github.com/gogpu/rhi/backend/d3d9"
	"github.com/gogpu/rhi/backend/native"
	"github.com/gogpu/rhi/backend/null"
	_ "github.com/gogpu/rhi/backend/opengl"
	"github.com/gogpu/rhi/trace"
)

const triangleWGSL = `
@vertex
fn vs_main(@location(0) pos: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.5, 0.0, 1.0);
}
`

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "rhiinfo:", err)
		os.Exit(1)
	}
}

type config struct {
	driver  string
	size    uint
	png     string
	trace   bool
	verbose bool
}

func parseFlags(args []string) (config, error) {
	var c config
	fs := flag.NewFlagSet("rhiinfo", flag.ContinueOnError)
	fs.StringVar(&c.driver, "driver", "", "driver to open (default: best available)")
	fs.UintVar(&c.size, "size", 64, "render target size in pixels")
	fs.StringVar(&c.png, "png", "", "write the rendered target to this PNG file")
	fs.BoolVar(&c.trace, "trace", false, "print the native calls of the frame")
	fs.BoolVar(&c.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	if c.size == 0 || c.size > 8192 {
		return c, fmt.Errorf("size %d out of range", c.size)
	}
	return c, nil
}

func run(w io.Writer, args []string) error {
	cfg, err := parseFlags(args)
	if err != nil {
		return err
	}
	if cfg.verbose {
		rhi.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		defer rhi.SetLogger(nil)
	}

	fmt.Fprintf(w, "drivers: %s\n", strings.Join(rhi.Available(), ", "))

	r, rec, err := open(cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	info, caps := r.Info(), r.Caps()
	fmt.Fprintf(w, "driver:  %s %s\n", info.Name, info.Version)
	fmt.Fprintf(w, "adapter: %s (%v)\n", info.Adapter.Name, info.Adapter.Type)
	printCaps(w, caps)

	pix, err := renderTriangle(r, uint32(cfg.size))
	if err != nil {
		return err
	}
	if rec != nil {
		printTrace(w, rec.Recording())
	}
	printStats(w, r.Statistics())

	if cfg.png != "" && pix != nil {
		if err := writePNG(cfg.png, pix); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s\n", cfg.png)
	}
	return nil
}

// open opens the requested driver. Tracing needs the driver itself, so
// the drivers that open without bindings are opened directly.
func open(cfg config) (*rhi.Renderer, *trace.Driver, error) {
	dc := rhi.DriverConfig{Debug: cfg.verbose}
	if !cfg.trace {
		if cfg.driver == "" {
			r, err := rhi.OpenDefault(dc)
			return r, nil, err
		}
		r, err := rhi.Open(cfg.driver, dc)
		return r, nil, err
	}

	var (
		drv rhi.Driver
		err error
	)
	switch cfg.driver {
	case rhi.DriverNull:
		drv, err = null.Open(null.Options{})
	case rhi.DriverNative, "":
		drv, err = native.Open(native.Options{Debug: cfg.verbose})
	default:
		return nil, nil, fmt.Errorf("-trace supports %s and %s, not %q", rhi.DriverNative, rhi.DriverNull, cfg.driver)
	}
	if err != nil {
		return nil, nil, err
	}
	tr := trace.New(drv)
	r, err := rhi.New(tr)
	if err != nil {
		drv.Close()
		return nil, nil, err
	}
	tr.Reset()
	return r, tr, nil
}

// renderTriangle draws one triangle into a size by size RGBA8 target and
// reads it back. It returns nil pixels when the target cannot be mapped.
func renderTriangle(r *rhi.Renderer, size uint32) (*image.RGBA, error) {
	color, err := r.CreateTexture2D(size, size, gputypes.TextureFormatRGBA8Unorm, nil, rhi.TextureFlagRenderTarget, rhi.TextureUsageDefault)
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	defer color.Release()
	fb, err := r.CreateFramebuffer([]rhi.FramebufferAttachment{{Texture: color}}, nil)
	if err != nil {
		return nil, fmt.Errorf("create framebuffer: %w", err)
	}
	defer fb.Release()

	prog, err := createProgram(r)
	if err != nil {
		return nil, err
	}
	defer prog.Release()

	verts := []float32{0, 0.75, -0.75, -0.75, 0.75, -0.75}
	data := make([]byte, 0, len(verts)*4)
	for _, v := range verts {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
	}
	vb, err := r.CreateVertexBuffer(uint32(len(data)), data, rhi.BufferUsageStaticDraw)
	if err != nil {
		return nil, fmt.Errorf("create vertex buffer: %w", err)
	}
	defer vb.Release()
	va, err := r.CreateVertexArray(rhi.VertexArrayDescriptor{
		Label: "triangle",
		Layout: rhi.VertexLayout{Attributes: []rhi.VertexAttribute{{
			Name:         "position",
			Format:       gputypes.VertexFormatFloat32x2,
			SemanticName: "POSITION",
		}}},
		Buffers: []rhi.VertexArrayBuffer{{Buffer: vb, Stride: 8}},
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex array: %w", err)
	}
	defer va.Release()

	r.BeginDebugEvent("triangle")
	r.SetRenderTarget(fb)
	r.Clear(rhi.ClearColor, gputypes.Color{R: 0.1, G: 0.1, B: 0.2, A: 1}, 1, 0)
	r.SetProgram(prog)
	r.SetVertexArray(va)
	r.SetPrimitiveTopology(gputypes.PrimitiveTopologyTriangleList)
	r.Draw(0, 3)
	r.EndDebugEvent()
	r.SetRenderTarget(nil)
	r.Finish()

	m, ok := color.Map(0, rhi.MapRead)
	if !ok {
		return nil, nil
	}
	defer color.Unmap(0)
	img := image.NewRGBA(image.Rect(0, 0, int(size), int(size)))
	for y := range int(size) {
		row := m.Data[y*int(m.RowPitch):]
		copy(img.Pix[y*img.Stride:(y+1)*img.Stride], row[:img.Stride])
	}
	return img, nil
}

func createProgram(r *rhi.Renderer) (*rhi.Program, error) {
	var shaders [2]*rhi.Shader
	for i, stage := range []rhi.ShaderStage{rhi.ShaderStageVertex, rhi.ShaderStageFragment} {
		s, err := r.CreateShader(rhi.ShaderDescriptor{
			Label:  "triangle " + stage.String(),
			Stage:  stage,
			Source: rhi.ShaderSource{WGSL: triangleWGSL},
		})
		if err != nil {
			if errors.Is(err, rhi.ErrUnsupported) {
				return nil, fmt.Errorf("%s cannot run WGSL shaders: %w", r.Info().Name, err)
			}
			return nil, fmt.Errorf("create %v shader: %w", stage, err)
		}
		defer s.Release()
		shaders[i] = s
	}
	prog, err := r.CreateProgram(shaders[0], shaders[1])
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}
	return prog, nil
}

func printCaps(w io.Writer, c rhi.Caps) {
	fmt.Fprintf(w, "shaders: %s\n", c.ShaderLanguage)
	fmt.Fprintf(w, "limits:  texture %d, layers %d, units %d, uniform buffers %d, targets %d, attributes %d\n",
		c.MaxTextureDimension, c.MaxTextureArrayLayers, c.MaxTextureUnits,
		c.MaxUniformBuffers, c.MaxColorAttachments, c.MaxVertexAttributes)
	features := []struct {
		name string
		ok   bool
	}{
		{"texture arrays", c.Texture2DArray},
		{"3d textures", c.Texture3D},
		{"texture buffers", c.TextureBuffer},
		{"32-bit indices", c.IndexUint32},
		{"instancing", c.InstancedDraw},
		{"indexed instancing", c.InstancedIndexedDraw},
		{"base vertex", c.BaseVertex},
		{"mipmap generation", c.AutoMipmaps},
	}
	var have, lack []string
	for _, f := range features {
		if f.ok {
			have = append(have, f.name)
		} else {
			lack = append(lack, f.name)
		}
	}
	fmt.Fprintf(w, "has:     %s\n", strings.Join(have, ", "))
	if len(lack) > 0 {
		fmt.Fprintf(w, "lacks:   %s\n", strings.Join(lack, ", "))
	}
}

func printTrace(w io.Writer, rec *trace.Recording) {
	counts := make(map[string]int)
	for _, c := range rec.Commands() {
		counts[c.Type().String()]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	slices.Sort(names)
	fmt.Fprintf(w, "trace:   %d native calls\n", rec.Len())
	for _, name := range names {
		fmt.Fprintf(w, "  %-24s %d\n", name, counts[name])
	}
}

func printStats(w io.Writer, s rhi.Statistics) {
	fmt.Fprintf(w, "stats:   %d draws, %d binds issued, %d elided, %d live resources\n",
		s.DrawCalls, s.BindsIssued, s.BindsElided, s.TotalLive())
}

func writePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}
