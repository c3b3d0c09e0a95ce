// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package opengl

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/gles/gl"

	"github.com/gogpu/rhi"
)

var errDestroyed = errors.New("opengl: object destroyed")

// object is embedded in every native object. It counts live objects and
// catches double destroys.
type object struct {
	d         *Driver
	kind      string
	label     string
	destroyed bool
}

func (d *Driver) newObject(kind string) object {
	d.live.Add(1)
	return object{d: d, kind: kind}
}

// release marks the object destroyed. It returns false when it already was.
func (o *object) release() bool {
	if o.destroyed {
		o.d.logger().Error("opengl: double destroy", "kind", o.kind, "name", o.label)
		return false
	}
	o.destroyed = true
	o.d.live.Add(-1)
	return true
}

// buffer is a GL buffer object.
type buffer struct {
	object
	name   uint32
	kind   rhi.ResourceType
	size   int
	usage  uint32
	mapped bool
}

// NewBuffer creates a buffer object. Short initial data is zero padded.
func (d *Driver) NewBuffer(desc *rhi.BufferDescriptor, data []byte) (rhi.NativeResource, error) {
	if desc.Kind == rhi.ResourceTypeIndirectBuffer {
		return nil, fmt.Errorf("%w: indirect buffers", rhi.ErrUnsupported)
	}
	b := &buffer{
		object: d.newObject("buffer"),
		kind:   desc.Kind,
		size:   int(desc.Size),
		usage:  bufferUsage(desc.Usage),
	}
	d.edit.createBuffer(b, fitData(data, b.size))
	if err := d.checkCreate("create buffer"); err != nil {
		b.Destroy()
		return nil, err
	}
	return b, nil
}

// fitData pads or truncates data to size. nil stays nil.
func fitData(data []byte, size int) []byte {
	switch {
	case data == nil || len(data) == size:
		return data
	case len(data) > size:
		return data[:size]
	}
	padded := make([]byte, size)
	copy(padded, data)
	return padded
}

func (b *buffer) Map(sub uint32, mode rhi.MapType) (rhi.MappedSubresource, error) {
	if b.destroyed {
		return rhi.MappedSubresource{}, errDestroyed
	}
	if sub != 0 {
		return rhi.MappedSubresource{}, fmt.Errorf("%w: buffer subresource %d", rhi.ErrNotMappable, sub)
	}
	if b.mapped {
		return rhi.MappedSubresource{}, rhi.ErrAlreadyMapped
	}
	e := b.d.edit
	if mode == rhi.MapWriteDiscard {
		// Orphan the storage so the GPU keeps reading the old contents.
		e.bufferData(b, nil)
	}
	data := e.mapBuffer(b, mapAccess(mode))
	if data == nil {
		return rhi.MappedSubresource{}, fmt.Errorf("%w: glMapBuffer failed", rhi.ErrNotMappable)
	}
	b.mapped = true
	size := uint32(b.size)
	return rhi.MappedSubresource{Data: data, RowPitch: size, DepthPitch: size}, nil
}

func (b *buffer) Unmap(uint32) {
	if !b.mapped || b.destroyed {
		return
	}
	b.mapped = false
	if !b.d.edit.unmapBuffer(b) {
		b.d.logger().Warn("opengl: buffer contents lost while mapped", "name", b.label)
	}
}

func (b *buffer) Destroy() {
	if !b.release() {
		return
	}
	if b.mapped {
		b.d.edit.unmapBuffer(b)
		b.mapped = false
	}
	for i, ub := range b.d.bound.uniforms {
		if ub == b {
			b.d.bound.uniforms[i] = nil
		}
	}
	b.d.state.deleteBuffer(b.d.f, b.name)
}

func (b *buffer) SetDebugName(name string) {
	b.label = name
	b.d.label(glBufferObject, b.name, name)
}

// mapping is an open texture map.
type mapping struct {
	mode rhi.MapType
	data []byte
}

// texture is a GL texture object. Texture buffers own a buffer object that
// holds their texels.
type texture struct {
	object
	name   uint32
	target uint32
	desc   rhi.TextureDescriptor
	format textureFormat
	buf    *buffer

	// shadows keep the CPU copy of dynamic and staging textures, one
	// slice per subresource.
	shadows [][]byte
	mapped  map[uint32]mapping

	// sampler is the state last applied with texture parameters when
	// sampler objects are emulated.
	sampler *samplerState
}

// NewTexture creates a texture object and uploads data.
func (d *Driver) NewTexture(desc *rhi.TextureDescriptor, data []byte) (rhi.NativeResource, error) {
	tf, ok := lookupTextureFormat(desc.Format, d.version.es)
	if !ok {
		return nil, fmt.Errorf("%w: texture format %v on %v", rhi.ErrUnsupported, desc.Format, d.version)
	}
	if tf.compressed && !d.compressedFormat(desc.Format) {
		return nil, fmt.Errorf("%w: compressed format %v", rhi.ErrUnsupported, desc.Format)
	}
	switch desc.Kind {
	case rhi.ResourceTypeTexture2DArray, rhi.ResourceTypeTexture3D:
		if d.tex3D == nil {
			return nil, fmt.Errorf("%w: %v", rhi.ErrUnsupported, desc.Kind)
		}
	case rhi.ResourceTypeTextureBuffer:
		if d.texBuffer == nil {
			return nil, fmt.Errorf("%w: %v", rhi.ErrUnsupported, desc.Kind)
		}
	}

	t := &texture{
		object: d.newObject("texture"),
		target: textureTarget(desc.Kind),
		desc:   *desc,
		format: tf,
	}
	if desc.Kind == rhi.ResourceTypeTextureBuffer {
		d.newTextureBuffer(t, data)
	} else {
		d.edit.createTexture(t)
		for sub := range desc.InitialData(data) {
			d.edit.textureSubImage(t, sub)
		}
		if data != nil && desc.MipLevelCount > 1 && !tf.compressed &&
			desc.Flags.Has(rhi.TextureFlagGenerateMipmaps) && !desc.Flags.Has(rhi.TextureFlagDataContainsMipmaps) {
			d.edit.generateMipmap(t)
		}
		if desc.Usage == rhi.TextureUsageDynamic || desc.Usage == rhi.TextureUsageStaging {
			t.initShadows(data)
		}
	}
	if err := d.checkCreate("create texture"); err != nil {
		t.Destroy()
		return nil, err
	}
	return t, nil
}

func (d *Driver) newTextureBuffer(t *texture, data []byte) {
	usage := rhi.BufferUsageStaticDraw
	if t.desc.Usage == rhi.TextureUsageDynamic || t.desc.Usage == rhi.TextureUsageStaging {
		usage = rhi.BufferUsageDynamicDraw
	}
	// The storage buffer belongs to the texture and is not counted.
	t.buf = &buffer{
		object: object{d: d, kind: "texture buffer storage"},
		kind:   rhi.ResourceTypeTextureBuffer,
		size:   int(t.desc.DataSize()),
		usage:  bufferUsage(usage),
	}
	d.edit.createBuffer(t.buf, fitData(data, t.buf.size))
	d.edit.createTexture(t)
	d.edit.attachTextureBuffer(t)
}

// compressedFormat reports whether the context advertises the extension
// of a block-compressed format.
func (d *Driver) compressedFormat(f gputypes.TextureFormat) bool {
	if d.compressed == nil {
		return false
	}
	switch f {
	case gputypes.TextureFormatBC1RGBAUnorm, gputypes.TextureFormatBC2RGBAUnorm, gputypes.TextureFormatBC3RGBAUnorm:
		return d.s3tc
	case gputypes.TextureFormatBC1RGBAUnormSrgb, gputypes.TextureFormatBC2RGBAUnormSrgb, gputypes.TextureFormatBC3RGBAUnormSrgb:
		return d.s3tcSRGB
	case gputypes.TextureFormatBC4RUnorm, gputypes.TextureFormatBC4RSnorm,
		gputypes.TextureFormatBC5RGUnorm, gputypes.TextureFormatBC5RGSnorm:
		return d.rgtc
	}
	return d.bptc
}

func (t *texture) subresources() uint32 {
	return t.desc.MipLevelCount * t.desc.Layers()
}

// subresourceLayout returns the level, layer and extent of a subresource.
func (t *texture) subresourceLayout(sub uint32) rhi.SubresourceData {
	level, layer := sub%t.desc.MipLevelCount, sub/t.desc.MipLevelCount
	w, h := rhi.MipSize(t.desc.Width, level), rhi.MipSize(t.desc.Height, level)
	return rhi.SubresourceData{
		MipLevel:   level,
		Layer:      layer,
		Width:      w,
		Height:     h,
		Depth:      rhi.MipSize(t.desc.Depth(), level),
		RowPitch:   rhi.RowPitch(t.desc.Format, w),
		SlicePitch: rhi.SlicePitch(t.desc.Format, w, h),
	}
}

func (t *texture) initShadows(data []byte) {
	t.shadows = make([][]byte, t.subresources())
	for i := range t.shadows {
		l := t.subresourceLayout(uint32(i))
		t.shadows[i] = make([]byte, int(l.SlicePitch)*int(l.Depth))
	}
	for sub := range t.desc.InitialData(data) {
		copy(t.shadows[t.desc.Subresource(sub.MipLevel, sub.Layer)], sub.Data)
	}
}

// Map maps a subresource. Dynamic and staging textures map their CPU copy
// in any mode. Default textures map for WriteDiscard only, into memory
// uploaded at Unmap. Immutable textures never map.
func (t *texture) Map(sub uint32, mode rhi.MapType) (rhi.MappedSubresource, error) {
	if t.destroyed {
		return rhi.MappedSubresource{}, errDestroyed
	}
	if t.buf != nil {
		if sub != 0 {
			return rhi.MappedSubresource{}, fmt.Errorf("%w: buffer texture subresource %d", rhi.ErrNotMappable, sub)
		}
		return t.buf.Map(0, mode)
	}
	if sub >= t.subresources() {
		return rhi.MappedSubresource{}, fmt.Errorf("%w: subresource %d of %d", rhi.ErrNotMappable, sub, t.subresources())
	}
	if _, ok := t.mapped[sub]; ok {
		return rhi.MappedSubresource{}, rhi.ErrAlreadyMapped
	}

	l := t.subresourceLayout(sub)
	var data []byte
	switch {
	case t.shadows != nil:
		data = t.shadows[sub]
		if mode == rhi.MapWriteDiscard {
			clear(data)
		}
	case t.desc.Usage == rhi.TextureUsageImmutable:
		return rhi.MappedSubresource{}, fmt.Errorf("%w: immutable texture", rhi.ErrNotMappable)
	case mode == rhi.MapWriteDiscard:
		data = make([]byte, int(l.SlicePitch)*int(l.Depth))
	default:
		return rhi.MappedSubresource{}, fmt.Errorf("%w: %v on a default-usage texture", rhi.ErrNotMappable, mode)
	}
	if t.mapped == nil {
		t.mapped = make(map[uint32]mapping)
	}
	t.mapped[sub] = mapping{mode: mode, data: data}
	return rhi.MappedSubresource{Data: data, RowPitch: l.RowPitch, DepthPitch: l.SlicePitch}, nil
}

// Unmap uploads written contents.
func (t *texture) Unmap(sub uint32) {
	if t.destroyed {
		return
	}
	if t.buf != nil {
		t.buf.Unmap(0)
		return
	}
	m, ok := t.mapped[sub]
	if !ok {
		return
	}
	delete(t.mapped, sub)
	if !m.mode.Writes() {
		return
	}
	l := t.subresourceLayout(sub)
	l.Data = m.data
	t.d.edit.textureSubImage(t, l)
}

func (t *texture) Destroy() {
	if !t.release() {
		return
	}
	d := t.d
	for i, bt := range d.bound.textures {
		if bt == t {
			d.bound.textures[i] = nil
		}
	}
	d.state.deleteTexture(d.f, t.name)
	if t.buf != nil {
		t.buf.destroyed = true
		d.state.deleteBuffer(d.f, t.buf.name)
	}
}

func (t *texture) SetDebugName(name string) {
	t.label = name
	t.d.label(glTextureObject, t.name, name)
}

// texParam is one sampler or texture parameter.
type texParam struct {
	pname uint32
	value int32
}

// samplerState is a GL sampler object, or the parameters to apply to
// textures when sampler objects are emulated.
type samplerState struct {
	object
	name   uint32
	desc   rhi.SamplerDescriptor
	params []texParam
}

func samplerParams(desc *rhi.SamplerDescriptor) []texParam {
	params := []texParam{
		{gl.TEXTURE_MIN_FILTER, minFilter(desc.MinFilter, desc.MipmapFilter)},
		{gl.TEXTURE_MAG_FILTER, magFilter(desc.MagFilter)},
		{gl.TEXTURE_WRAP_S, addressMode(desc.AddressModeU)},
		{gl.TEXTURE_WRAP_T, addressMode(desc.AddressModeV)},
		{gl.TEXTURE_WRAP_R, addressMode(desc.AddressModeW)},
	}
	if desc.Compare != gputypes.CompareFunctionUndefined {
		params = append(params,
			texParam{gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE},
			texParam{gl.TEXTURE_COMPARE_FUNC, int32(compareFunc(desc.Compare))})
	} else {
		params = append(params, texParam{gl.TEXTURE_COMPARE_MODE, glNone})
	}
	return params
}

// NewSamplerState creates a sampler object. Border colors are not applied:
// the bindings have no vector parameter entry point.
func (d *Driver) NewSamplerState(desc *rhi.SamplerDescriptor) (rhi.NativeObject, error) {
	s := &samplerState{
		object: d.newObject("sampler"),
		desc:   *desc,
		params: samplerParams(desc),
	}
	if !d.samplerObjs {
		return s, nil
	}
	f := d.f
	s.name = f.GenSamplers(1)
	for _, p := range s.params {
		f.SamplerParameteri(s.name, p.pname, p.value)
	}
	f.SamplerParameterf(s.name, gl.TEXTURE_MIN_LOD, desc.MinLOD)
	f.SamplerParameterf(s.name, gl.TEXTURE_MAX_LOD, desc.MaxLOD)
	if d.maxAnisotropy > 1 && desc.MaxAnisotropy > 1 {
		f.SamplerParameterf(s.name, gl.TEXTURE_MAX_ANISOTROPY, float32(min(desc.MaxAnisotropy, d.maxAnisotropy)))
	}
	if desc.MipLODBias != 0 && !d.version.es {
		f.SamplerParameterf(s.name, glTextureLODBias, desc.MipLODBias)
	}
	if err := d.checkCreate("create sampler"); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

// applyTo sets the sampler parameters on t, bound to the active unit.
func (s *samplerState) applyTo(t *texture) {
	if t.sampler == s || t.buf != nil {
		return
	}
	f := s.d.f
	for _, p := range s.params {
		f.TexParameteri(t.target, p.pname, p.value)
	}
	t.sampler = s
}

func (s *samplerState) Destroy() {
	if !s.release() {
		return
	}
	for i, bs := range s.d.bound.samplers {
		if bs == s {
			s.d.bound.samplers[i] = nil
		}
	}
	if s.name != 0 {
		s.d.state.deleteSampler(s.d.f, s.name)
	}
}

func (s *samplerState) SetDebugName(name string) {
	s.label = name
	s.d.label(glSamplerObject, s.name, name)
}

// rasterizerState is the GL form of a rasterizer descriptor.
type rasterizerState struct {
	object
	cull          bool
	cullFace      uint32
	frontFace     uint32
	fill          uint32
	offset        bool
	factor, units float32
	depthClamp    bool
	scissor       bool
	multisample   bool
}

func (d *Driver) NewRasterizerState(desc *rhi.RasterizerDescriptor) (rhi.NativeObject, error) {
	rs := d.rasterizer(desc)
	rs.object = d.newObject("rasterizer state")
	return rs, nil
}

func (d *Driver) rasterizer(desc *rhi.RasterizerDescriptor) *rasterizerState {
	face, cull := cullFace(desc.CullMode)
	rs := &rasterizerState{
		cull:        cull,
		cullFace:    face,
		frontFace:   frontFace(desc.FrontFace),
		fill:        glFill,
		offset:      desc.DepthBias != 0 || desc.SlopeScaledDepthBias != 0,
		factor:      desc.SlopeScaledDepthBias,
		units:       float32(desc.DepthBias),
		depthClamp:  !desc.DepthClipEnable,
		scissor:     desc.ScissorEnable,
		multisample: desc.MultisampleEnable,
	}
	if desc.FillMode == rhi.FillModeWireframe {
		if d.version.es || d.raster == nil {
			d.warnOnce("wireframe", "opengl: wireframe fill unsupported, drawing solid")
		} else {
			rs.fill = glLine
		}
	}
	if rs.offset && d.raster == nil {
		d.warnOnce("depth-bias", "opengl: depth bias unsupported by the bindings")
		rs.offset = false
	}
	if desc.DepthBiasClamp != 0 {
		d.warnOnce("depth-bias-clamp", "opengl: depth bias clamp ignored")
	}
	return rs
}

func (rs *rasterizerState) apply(d *Driver) {
	s, f := &d.state, d.f
	s.set(f, gl.CULL_FACE, rs.cull)
	if rs.cull {
		s.setCullFace(f, rs.cullFace)
	}
	s.setFrontFace(f, rs.frontFace)
	s.set(f, gl.SCISSOR_TEST, rs.scissor)
	s.set(f, glPolygonOffsetFill, rs.offset)
	if d.raster != nil {
		if rs.offset {
			s.setPolygonOffset(d.raster, rs.factor, rs.units)
		}
		if !d.version.es {
			s.setPolygonMode(d.raster, rs.fill)
		}
	}
	if !d.version.es {
		s.set(f, glDepthClamp, rs.depthClamp)
		s.set(f, glMultisample, rs.multisample)
	}
}

func (rs *rasterizerState) Destroy() {
	if rs.release() && rs.d.bound.rasterizer == rs {
		rs.d.bound.rasterizer = nil
	}
}

// depthStencilState is the GL form of a depth-stencil descriptor.
type depthStencilState struct {
	object
	depthTest   bool
	depthWrite  bool
	depthFunc   uint32
	stencilTest bool
	writeMask   uint32
	faces       [2]stencilFace
}

func (d *Driver) NewDepthStencilState(desc *rhi.DepthStencilDescriptor) (rhi.NativeObject, error) {
	ds := depthStencil(desc)
	ds.object = d.newObject("depth-stencil state")
	return ds, nil
}

func depthStencil(desc *rhi.DepthStencilDescriptor) *depthStencilState {
	face := func(sf rhi.StencilFace) stencilFace {
		return stencilFace{
			fn:     compareFunc(sf.Func),
			mask:   uint32(desc.StencilReadMask),
			sfail:  stencilOp(sf.FailOp),
			dpfail: stencilOp(sf.DepthFailOp),
			dppass: stencilOp(sf.PassOp),
		}
	}
	return &depthStencilState{
		depthTest:   desc.DepthEnable,
		depthWrite:  desc.DepthEnable && desc.DepthWriteEnable,
		depthFunc:   compareFunc(desc.DepthFunc),
		stencilTest: desc.StencilEnable,
		writeMask:   uint32(desc.StencilWriteMask),
		faces:       [2]stencilFace{face(desc.Front), face(desc.Back)},
	}
}

func (ds *depthStencilState) apply(d *Driver) {
	s, f := &d.state, d.f
	s.set(f, gl.DEPTH_TEST, ds.depthTest)
	s.setDepthMask(f, ds.depthWrite)
	if ds.depthTest {
		s.setDepthFunc(f, ds.depthFunc)
	}
	s.set(f, gl.STENCIL_TEST, ds.stencilTest)
	if ds.stencilTest {
		s.setStencilWriteMask(f, ds.writeMask)
		s.setStencil(f, 0, ds.faces[0])
		s.setStencil(f, 1, ds.faces[1])
	}
}

func (ds *depthStencilState) Destroy() {
	if ds.release() && ds.d.bound.depthStencil == ds {
		ds.d.bound.depthStencil = nil
	}
}

// blendState is the GL form of a blend descriptor. OpenGL 3 blends every
// color target the same way, so only render target 0 is used.
type blendState struct {
	object
	enable          bool
	srcRGB, dstRGB  uint32
	srcA, dstA      uint32
	eqRGB, eqA      uint32
	mask            [4]bool
	alphaToCoverage bool
}

func (d *Driver) NewBlendState(desc *rhi.BlendDescriptor) (rhi.NativeObject, error) {
	bs := d.blendState(desc)
	bs.object = d.newObject("blend state")
	return bs, nil
}

func (d *Driver) blendState(desc *rhi.BlendDescriptor) *blendState {
	if desc.IndependentBlend {
		for i := 1; i < rhi.MaxRenderTargets; i++ {
			if desc.Target(i) != desc.Target(0) {
				d.warnOnce("independent-blend", "opengl: independent blending unsupported, using render target 0")
				break
			}
		}
	}
	rt := desc.Target(0)
	return &blendState{
		enable:          rt.BlendEnable,
		srcRGB:          blendFactor(rt.Color.SrcFactor, gl.ONE),
		dstRGB:          blendFactor(rt.Color.DstFactor, gl.ZERO),
		srcA:            blendFactor(rt.Alpha.SrcFactor, gl.ONE),
		dstA:            blendFactor(rt.Alpha.DstFactor, gl.ZERO),
		eqRGB:           blendEquation(rt.Color.Operation),
		eqA:             blendEquation(rt.Alpha.Operation),
		mask:            writeMask(rt),
		alphaToCoverage: desc.AlphaToCoverage,
	}
}

func writeMask(rt rhi.RenderTargetBlend) [4]bool {
	m := rt.WriteMask
	return [4]bool{
		m&gputypes.ColorWriteMaskRed != 0,
		m&gputypes.ColorWriteMaskGreen != 0,
		m&gputypes.ColorWriteMaskBlue != 0,
		m&gputypes.ColorWriteMaskAlpha != 0,
	}
}

func (bs *blendState) apply(d *Driver) {
	s, f := &d.state, d.f
	s.set(f, gl.BLEND, bs.enable)
	if bs.enable {
		s.setBlendFuncSeparate(f, bs.srcRGB, bs.dstRGB, bs.srcA, bs.dstA)
		s.setBlendEquationSeparate(f, bs.eqRGB, bs.eqA)
	}
	s.setColorMask(f, bs.mask)
	s.set(f, glSampleAlphaToCoverage, bs.alphaToCoverage)
}

func (bs *blendState) Destroy() {
	if bs.release() && bs.d.bound.blend == bs {
		bs.d.bound.blend = nil
	}
}

// vertexLayout keeps the attribute layout a pipeline state binds. The GL
// attribute setup lives in vertex arrays, so binding a layout only checks
// it against the bound vertex array.
type vertexLayout struct {
	object
	layout rhi.VertexLayout
}

func (d *Driver) NewVertexLayout(layout *rhi.VertexLayout, prog rhi.NativeObject) (rhi.NativeObject, error) {
	for i := range layout.Attributes {
		a := &layout.Attributes[i]
		if _, ok := vertexFormats[a.Format]; !ok {
			return nil, fmt.Errorf("%w: vertex format %v", rhi.ErrUnsupported, a.Format)
		}
	}
	if p, ok := prog.(*program); ok && p != nil {
		for i := range layout.Attributes {
			a := &layout.Attributes[i]
			if a.Name == "" {
				continue
			}
			if loc := d.f.GetAttribLocation(p.name, a.Name); loc >= 0 && uint32(loc) != a.ShaderLocation {
				d.logger().Warn("opengl: attribute location differs from the program",
					"attribute", a.Name, "layout", a.ShaderLocation, "program", loc)
			}
		}
	}
	return &vertexLayout{object: d.newObject("vertex layout"), layout: *layout}, nil
}

func (vl *vertexLayout) Destroy() { vl.release() }

// vertexArray is a vertex array object, or the attribute setup applied to
// the default vertex array when vertex array objects are emulated.
type vertexArray struct {
	object
	name      uint32
	attribs   [maxVertexAttribs]*vertexAttrib
	index     *buffer
	indexType uint32
	indexSize uint32
}

func (d *Driver) NewVertexArray(desc *rhi.NativeVertexArray) (rhi.NativeObject, error) {
	var attribs [maxVertexAttribs]*vertexAttrib
	for i := range desc.Layout.Attributes {
		a := &desc.Layout.Attributes[i]
		vf, ok := vertexFormats[a.Format]
		if !ok {
			return nil, fmt.Errorf("%w: vertex format %v", rhi.ErrUnsupported, a.Format)
		}
		if a.ShaderLocation >= d.caps.MaxVertexAttributes {
			return nil, fmt.Errorf("%w: shader location %d exceeds %d", rhi.ErrInvalidDescriptor, a.ShaderLocation, d.caps.MaxVertexAttributes)
		}
		if (vf.integer || a.PerInstance()) && d.attr == nil {
			return nil, fmt.Errorf("%w: integer or per-instance attribute %d", rhi.ErrUnsupported, i)
		}
		vb := desc.Buffers[a.InputSlot]
		buf, ok := vb.Buffer.(*buffer)
		if !ok {
			return nil, fmt.Errorf("%w: slot %d is not an OpenGL buffer", rhi.ErrInvalidDescriptor, a.InputSlot)
		}
		attribs[a.ShaderLocation] = &vertexAttrib{
			buf:        buf.name,
			size:       vf.size,
			typ:        vf.typ,
			normalized: vf.normalized,
			integer:    vf.integer,
			stride:     int32(vb.Stride),
			offset:     uintptr(vb.Offset + a.Offset),
			divisor:    a.InstancesPerElement,
		}
	}
	va := &vertexArray{object: d.newObject("vertex array"), attribs: attribs}
	if desc.IndexBuffer != nil {
		ib, ok := desc.IndexBuffer.(*buffer)
		if !ok {
			va.release()
			return nil, fmt.Errorf("%w: index buffer is not an OpenGL buffer", rhi.ErrInvalidDescriptor)
		}
		va.index = ib
		va.indexType, va.indexSize = indexType(desc.IndexFormat)
	}
	if d.vaos {
		d.edit.createVertexArray(va, desc)
		if err := d.checkCreate("create vertex array"); err != nil {
			va.Destroy()
			return nil, err
		}
	}
	return va, nil
}

// bind makes va current. Without vertex array objects the attributes are
// set on the default vertex array.
func (va *vertexArray) bind(d *Driver) {
	s, f := &d.state, d.f
	if va.name != 0 {
		s.bindVertexArray(f, va.name)
		return
	}
	s.bindVertexArray(f, d.defaultVAO)
	for loc, a := range va.attribs {
		s.setVertexAttrib(f, d.attr, loc, a)
	}
	if va.index != nil {
		s.bindBuffer(f, gl.ELEMENT_ARRAY_BUFFER, va.index.name)
	}
}

func (va *vertexArray) Destroy() {
	if !va.release() {
		return
	}
	if va.d.bound.vertexArray == va {
		va.d.bound.vertexArray = nil
	}
	if va.name != 0 {
		va.d.state.deleteVertexArray(va.d.f, va.name)
	}
}

func (va *vertexArray) SetDebugName(name string) {
	va.label = name
	va.d.label(glVertexArrayObj, va.name, name)
}

type attachment struct {
	tex   *texture
	level int32
}

// framebuffer is a GL framebuffer object.
type framebuffer struct {
	object
	name          uint32
	colors        []attachment
	depth         *attachment
	width, height uint32
}

// drawBuffers lists the color attachments fragment outputs write to.
func (fb *framebuffer) drawBuffers() []uint32 {
	if len(fb.colors) == 0 {
		return []uint32{glNone}
	}
	bufs := make([]uint32, len(fb.colors))
	for i := range bufs {
		bufs[i] = glNone
		if fb.colors[i].tex != nil {
			bufs[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
		}
	}
	return bufs
}

func (d *Driver) NewFramebuffer(colors []rhi.NativeAttachment, depth *rhi.NativeAttachment) (rhi.NativeObject, error) {
	if uint32(len(colors)) > d.caps.MaxColorAttachments {
		return nil, fmt.Errorf("%w: %d color attachments, at most %d", rhi.ErrUnsupported, len(colors), d.caps.MaxColorAttachments)
	}
	toAttachment := func(a *rhi.NativeAttachment) (attachment, error) {
		t, ok := a.Texture.(*texture)
		if !ok || t.desc.Kind != rhi.ResourceTypeTexture2D {
			return attachment{}, rhi.ErrUnsupportedAttachment
		}
		return attachment{tex: t, level: int32(a.MipLevel)}, nil
	}
	var first *rhi.NativeAttachment
	fb := &framebuffer{colors: make([]attachment, len(colors))}
	for i := range colors {
		if colors[i].Texture == nil {
			continue
		}
		a, err := toAttachment(&colors[i])
		if err != nil {
			return nil, err
		}
		fb.colors[i] = a
		if first == nil {
			first = &colors[i]
		}
	}
	if depth != nil {
		a, err := toAttachment(depth)
		if err != nil {
			return nil, err
		}
		fb.depth = &a
		if first == nil {
			first = depth
		}
	}
	if first != nil {
		fb.width = rhi.MipSize(first.Desc.Width, first.MipLevel)
		fb.height = rhi.MipSize(first.Desc.Height, first.MipLevel)
	}

	fb.object = d.newObject("framebuffer")
	if err := d.edit.createFramebuffer(fb); err != nil {
		fb.Destroy()
		return nil, err
	}
	return fb, nil
}

func (fb *framebuffer) Destroy() {
	if !fb.release() {
		return
	}
	if fb.d.bound.target == fb {
		fb.d.bound.target = nil
	}
	fb.d.state.deleteFramebuffer(fb.d.f, fb.name)
}

func (fb *framebuffer) SetDebugName(name string) {
	fb.label = name
	fb.d.label(glFramebufferObj, fb.name, name)
}
