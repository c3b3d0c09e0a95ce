// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package opengl

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/wgpu/hal/gles/gl"

	"github.com/gogpu/rhi"
)

// Errors returned by the OpenGL driver.
var (
	// ErrNoFunctions is returned by Open when Options.Functions is nil.
	ErrNoFunctions = errors.New("opengl: no GL functions")

	// ErrVersion is returned by Open when the context is older than
	// OpenGL 3.0 or OpenGL ES 3.0.
	ErrVersion = errors.New("opengl: unsupported GL version")

	// ErrIncompleteFramebuffer is returned when a framebuffer fails the
	// completeness check.
	ErrIncompleteFramebuffer = errors.New("opengl: framebuffer incomplete")
)

// Options configures the OpenGL driver.
type Options struct {
	// Functions are the entry points of the current context. Required.
	Functions Functions

	// ForceBindToEdit disables direct state access even when available.
	ForceBindToEdit bool

	// ForceNoVAO sets vertex attributes at every vertex array bind instead
	// of creating one vertex array object per rhi vertex array.
	ForceNoVAO bool

	// ForceNoSamplerObjects emulates sampler states with texture parameters.
	ForceNoSamplerObjects bool

	// Debug labels objects and checks glGetError after object creation.
	Debug bool
}

// Driver is the OpenGL and OpenGL ES 3 rhi.Driver.
//
// The driver assumes it is the only user of the context between Open and
// Close: every piece of bound state is cached and redundant calls are
// skipped.
type Driver struct {
	f       Functions
	opts    Options
	name    string
	version glVersion
	glsl    glsl.Version
	caps    rhi.Caps
	info    rhi.DriverInfo
	log     atomic.Pointer[slog.Logger]

	// Optional entry points, nil when absent or unusable on this context.
	inst        InstancingFunctions
	attr        AttribFunctions
	baseVertex  BaseVertexFunctions
	sync        SyncFunctions
	tex3D       Texture3DFunctions
	compressed  CompressedTextureFunctions
	dsa         DSAFunctions
	debug       DebugFunctions
	drawBuffers DrawBuffersFunctions
	texBuffer   TextureBufferFunctions
	raster      RasterFunctions
	clip        ClipControlFunctions

	extensions    map[string]bool
	s3tc          bool
	s3tcSRGB      bool
	rgtc          bool
	bptc          bool
	maxAnisotropy uint32

	edit        editor
	state       glState
	vaos        bool
	samplerObjs bool
	defaultVAO  uint32
	initialized bool
	live        atomic.Int64
	warned      map[string]bool
	debugDepth  int

	bound    boundState
	defaults struct {
		rasterizer   *rasterizerState
		depthStencil *depthStencilState
		blend        *blendState
	}
}

// boundState holds the rhi objects the driver last bound.
type boundState struct {
	target       any
	topology     uint32
	viewport     rhi.Viewport
	program      *program
	vertexArray  *vertexArray
	rasterizer   *rasterizerState
	depthStencil *depthStencilState
	blend        *blendState
	clipDepth    uint32
	textures     [maxTextureUnits]*texture
	samplers     [maxTextureUnits]*samplerState
	uniforms     [maxUniformSlots]*buffer
}

var (
	_ rhi.Driver         = (*Driver)(nil)
	_ rhi.DebugAnnotator = (*Driver)(nil)
)

// Open creates a driver over the current context of opts.Functions.
//
// Opening inspects the context version, extensions and the optional
// function interfaces, then selects the editing, vertex array and sampler
// strategies.
func Open(opts Options) (*Driver, error) {
	if opts.Functions == nil {
		return nil, ErrNoFunctions
	}
	f := opts.Functions
	v, err := parseVersion(f.GetString(gl.VERSION))
	if err != nil {
		return nil, err
	}
	if !v.atLeast(3, 0) {
		return nil, fmt.Errorf("%w: %v, need OpenGL 3.0 or OpenGL ES 3.0", ErrVersion, v)
	}

	d := &Driver{
		f:       f,
		opts:    opts,
		name:    rhi.DriverOpenGL,
		version: v,
		state:   newGLState(),
		warned:  make(map[string]bool),
		bound:   boundState{topology: gl.TRIANGLES, clipDepth: glNegativeOneToOne},
	}
	if v.es {
		d.name = rhi.DriverOpenGLES
	}
	d.log.Store(rhi.Logger())

	d.extensions = d.loadExtensions()
	d.detectFunctions()
	d.selectStrategies()
	d.caps = d.detectCaps()
	d.info = d.detectInfo()

	rs, ds, bs := rhi.DefaultRasterizerDescriptor(), rhi.DefaultDepthStencilDescriptor(), rhi.DefaultBlendDescriptor()
	d.defaults.rasterizer = d.rasterizer(&rs)
	d.defaults.depthStencil = depthStencil(&ds)
	d.defaults.blend = d.blendState(&bs)

	f.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	f.PixelStorei(gl.PACK_ALIGNMENT, 1)
	if !d.vaos {
		// Core profiles cannot draw without a vertex array object bound.
		d.defaultVAO = f.GenVertexArrays(1)
		d.state.bindVertexArray(f, d.defaultVAO)
	}
	d.initialized = true

	d.logger().Info("opengl: driver opened",
		"version", v.String(),
		"renderer", d.info.Adapter.Name,
		"dsa", d.caps.DirectStateAccess,
		"vao", d.vaos,
		"samplers", d.samplerObjs,
		"wgsl", d.caps.WGSL)
	return d, nil
}

// SetLogger sets the driver logger. rhi.SetLogger calls it.
func (d *Driver) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	d.log.Store(l)
}

func (d *Driver) logger() *slog.Logger { return d.log.Load() }

// warnOnce logs msg the first time key is seen.
func (d *Driver) warnOnce(key, msg string, args ...any) {
	if d.warned[key] {
		return
	}
	d.warned[key] = true
	d.logger().Warn(msg, args...)
}

func (d *Driver) loadExtensions() map[string]bool {
	exts := make(map[string]bool)
	if ef, ok := d.f.(ExtensionFunctions); ok {
		n := d.getInt(glNumExtensions)
		for i := range n {
			exts[ef.GetStringi(gl.EXTENSIONS, i)] = true
		}
		return exts
	}
	for _, e := range strings.Fields(d.f.GetString(gl.EXTENSIONS)) {
		exts[e] = true
	}
	return exts
}

// hasExtension reports whether any of names is advertised.
func (d *Driver) hasExtension(names ...string) bool {
	return slices.ContainsFunc(names, func(n string) bool { return d.extensions[n] })
}

// desktop reports whether the context is desktop OpenGL of at least
// major.minor.
func (d *Driver) desktop(major, minor int) bool {
	return !d.version.es && d.version.atLeast(major, minor)
}

// es reports whether the context is OpenGL ES of at least major.minor.
func (d *Driver) es(major, minor int) bool {
	return d.version.es && d.version.atLeast(major, minor)
}

// detectFunctions type-asserts the optional interfaces and keeps those the
// context version or extensions allow.
func (d *Driver) detectFunctions() {
	f := d.f
	if i, ok := f.(InstancingFunctions); ok && (d.desktop(3, 1) || d.version.es || d.hasExtension("GL_ARB_draw_instanced")) {
		d.inst = i
	}
	if a, ok := f.(AttribFunctions); ok && (d.desktop(3, 3) || d.version.es || d.hasExtension("GL_ARB_instanced_arrays")) {
		d.attr = a
	}
	if b, ok := f.(BaseVertexFunctions); ok && (d.desktop(3, 2) || d.es(3, 2) ||
		d.hasExtension("GL_ARB_draw_elements_base_vertex", "GL_EXT_draw_elements_base_vertex", "GL_OES_draw_elements_base_vertex")) {
		d.baseVertex = b
	}
	if s, ok := f.(SyncFunctions); ok && (d.desktop(3, 2) || d.version.es || d.hasExtension("GL_ARB_sync")) {
		d.sync = s
	}
	if t, ok := f.(Texture3DFunctions); ok {
		d.tex3D = t
	}
	if c, ok := f.(CompressedTextureFunctions); ok {
		d.compressed = c
	}
	if dsa, ok := f.(DSAFunctions); ok && (d.desktop(4, 5) || d.hasExtension("GL_ARB_direct_state_access")) {
		d.dsa = dsa
	}
	if dbg, ok := f.(DebugFunctions); ok && (d.desktop(4, 3) || d.es(3, 2) || d.hasExtension("GL_KHR_debug")) {
		d.debug = dbg
	}
	if db, ok := f.(DrawBuffersFunctions); ok {
		d.drawBuffers = db
	}
	if tb, ok := f.(TextureBufferFunctions); ok && (d.desktop(3, 1) || d.es(3, 2) ||
		d.hasExtension("GL_EXT_texture_buffer", "GL_OES_texture_buffer")) {
		d.texBuffer = tb
	}
	if r, ok := f.(RasterFunctions); ok {
		d.raster = r
	}
	if c, ok := f.(ClipControlFunctions); ok && (d.desktop(4, 5) || d.hasExtension("GL_ARB_clip_control")) {
		d.clip = c
	}

	d.s3tc = d.hasExtension("GL_EXT_texture_compression_s3tc")
	d.s3tcSRGB = d.s3tc && d.hasExtension("GL_EXT_texture_sRGB", "GL_EXT_texture_compression_s3tc_srgb")
	d.rgtc = d.desktop(3, 0) || d.hasExtension("GL_ARB_texture_compression_rgtc", "GL_EXT_texture_compression_rgtc")
	d.bptc = d.desktop(4, 2) || d.hasExtension("GL_ARB_texture_compression_bptc", "GL_EXT_texture_compression_bptc")
	if d.desktop(4, 6) || d.hasExtension("GL_EXT_texture_filter_anisotropic", "GL_ARB_texture_filter_anisotropic") {
		d.maxAnisotropy = max(d.getInt(glMaxAnisotropy), 1)
	}
}

func (d *Driver) selectStrategies() {
	if d.opts.ForceBindToEdit {
		d.dsa = nil
	}
	bind := &bindEditor{d: d}
	if d.dsa != nil {
		d.edit = &dsaEditor{bindEditor: bind, dsa: d.dsa}
	} else {
		d.edit = bind
	}
	d.vaos = !d.opts.ForceNoVAO
	d.samplerObjs = !d.opts.ForceNoSamplerObjects &&
		(d.version.es || d.desktop(3, 3) || d.hasExtension("GL_ARB_sampler_objects"))
	if v, ok := d.version.shadingLanguage(); ok {
		d.glsl = v
	}
}

func (d *Driver) getInt(pname uint32) uint32 {
	var v int32
	d.f.GetIntegerv(pname, &v)
	return uint32(max(v, 0))
}

func (d *Driver) detectCaps() rhi.Caps {
	// Vertex and fragment slots share the GL binding points, so each
	// stage gets half of them.
	units := min(d.getInt(gl.MAX_TEXTURE_IMAGE_UNITS), d.getInt(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS)/2, maxTextureUnits/2)
	caps := rhi.Caps{
		MaxTextureDimension:  d.getInt(gl.MAX_TEXTURE_SIZE),
		MaxTextureUnits:      units,
		MaxUniformBuffers:    min(d.getInt(gl.MAX_UNIFORM_BUFFER_BINDINGS)/2, maxUniformSlots/2),
		MaxColorAttachments:  1,
		MaxVertexAttributes:  min(d.getInt(gl.MAX_VERTEX_ATTRIBS), maxVertexAttribs),
		Texture2DArray:       d.tex3D != nil,
		Texture3D:            d.tex3D != nil,
		TextureBuffer:        d.texBuffer != nil,
		IndexUint32:          true,
		InstancedDraw:        d.inst != nil && d.attr != nil,
		InstancedIndexedDraw: d.inst != nil && d.attr != nil,
		BaseVertex:           d.baseVertex != nil,
		AutoMipmaps:          true,
		ShaderLanguage:       "glsl",
		WGSL:                 d.glsl != glsl.Version{},
		DirectStateAccess:    d.dsa != nil,
		VertexArrayObjects:   d.vaos,
		SamplerObjects:       d.samplerObjs,
	}
	if d.drawBuffers != nil {
		caps.MaxColorAttachments = min(d.getInt(gl.MAX_COLOR_ATTACHMENTS), d.getInt(gl.MAX_DRAW_BUFFERS), rhi.MaxRenderTargets)
	}
	if d.tex3D != nil {
		caps.MaxTextureArrayLayers = d.getInt(glMaxArrayTextureLayers)
	}
	return caps
}

func (d *Driver) detectInfo() rhi.DriverInfo {
	renderer := d.f.GetString(gl.RENDERER)
	typ := gpucontext.AdapterTypeUnknown
	for _, sw := range []string{"llvmpipe", "softpipe", "SwiftShader", "Software"} {
		if strings.Contains(renderer, sw) {
			typ = gpucontext.AdapterTypeSoftware
			break
		}
	}
	return rhi.DriverInfo{
		Name:    d.name,
		Version: d.f.GetString(gl.VERSION),
		Adapter: gpucontext.AdapterInfo{Name: renderer, Type: typ},
	}
}

// Info describes the opened context.
func (d *Driver) Info() rhi.DriverInfo { return d.info }

func (d *Driver) Caps() rhi.Caps { return d.caps }

func (d *Driver) IsInitialized() bool { return d.initialized }

// Close deletes the driver's own objects. The context itself belongs to
// the caller.
func (d *Driver) Close() {
	if !d.initialized {
		return
	}
	if d.defaultVAO != 0 {
		d.state.deleteVertexArray(d.f, d.defaultVAO)
		d.defaultVAO = 0
	}
	if n := d.live.Load(); n != 0 {
		d.logger().Warn("opengl: native objects alive at close", "count", n)
	}
	d.initialized = false
}

// Live returns the number of native objects created and not yet destroyed.
func (d *Driver) Live() int64 { return d.live.Load() }

// UniformBinding returns the GL uniform buffer binding point of a renderer
// uniform buffer slot. Native GLSL shaders declare these bindings.
func (d *Driver) UniformBinding(stage rhi.ShaderStage, slot uint32) uint32 {
	if stage == rhi.ShaderStageVertex {
		return d.caps.MaxUniformBuffers + slot
	}
	return slot
}

// TextureUnit returns the GL texture unit of a renderer texture unit.
// Native GLSL shaders declare these sampler bindings.
func (d *Driver) TextureUnit(stage rhi.ShaderStage, unit uint32) uint32 {
	if stage == rhi.ShaderStageVertex {
		return d.caps.MaxTextureUnits + unit
	}
	return unit
}

// glError drains the GL error queue and reports the first error.
func (d *Driver) glError(op string) error {
	first := uint32(gl.NO_ERROR)
	for range 8 {
		e := d.f.GetError()
		if e == gl.NO_ERROR {
			break
		}
		if first == gl.NO_ERROR {
			first = e
		}
	}
	if first != gl.NO_ERROR {
		return fmt.Errorf("opengl: %s: GL error 0x%04X", op, first)
	}
	return nil
}

// checkCreate reports GL errors raised while creating an object in debug mode.
func (d *Driver) checkCreate(op string) error {
	if !d.opts.Debug {
		return nil
	}
	return d.glError(op)
}

// label names a GL object for debuggers.
func (d *Driver) label(identifier, name uint32, label string) {
	if d.debug != nil && name != 0 {
		d.debug.ObjectLabel(identifier, name, label)
	}
}

func (d *Driver) BeginDebugEvent(name string) {
	d.debugDepth++
	if d.debug != nil {
		d.debug.PushDebugGroup(glDebugSourceApplication, 0, name)
	}
}

func (d *Driver) EndDebugEvent() {
	if d.debugDepth == 0 {
		d.logger().Warn("opengl: EndDebugEvent without BeginDebugEvent")
		return
	}
	d.debugDepth--
	if d.debug != nil {
		d.debug.PopDebugGroup()
	}
}

func (d *Driver) SetDebugMarker(name string) {
	if d.debug != nil {
		d.debug.DebugMessageInsert(glDebugSourceApplication, glDebugTypeMarker, 0, glDebugSeverityNotify, name)
	}
}
