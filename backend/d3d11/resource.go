// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import (
	"fmt"

	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/internal/mipgen"
)

// maxConstantBufferSize is 4096 float4 constants.
const maxConstantBufferSize = 4096 * 16

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
		o.d.logger().Error("d3d11: double destroy", "kind", o.kind, "name", o.label)
		return false
	}
	o.destroyed = true
	o.d.live.Add(-1)
	return true
}

// mapping is an open map of a subresource. Native mappings are unmapped
// through the context; the others hold CPU memory uploaded at Unmap.
type mapping struct {
	mode   rhi.MapType
	native bool
	data   []byte
	layout rhi.SubresourceData
}

// buffer is an ID3D11Buffer. Buffers that are not dynamic keep a CPU copy
// that Map returns and Unmap uploads with UpdateSubresource.
type buffer struct {
	object
	res    Resource
	kind   rhi.ResourceType
	size   uint32
	width  uint32
	usage  Usage
	shadow []byte
	mapped *mapping
}

func bufferBindFlags(kind rhi.ResourceType) BindFlags {
	switch kind {
	case rhi.ResourceTypeIndexBuffer:
		return BindIndexBuffer
	case rhi.ResourceTypeUniformBuffer:
		return BindConstantBuffer
	}
	return BindVertexBuffer
}

// NewBuffer creates a buffer. Constant buffers are rounded up to a
// multiple of 16 bytes and short initial data is zero padded.
func (d *Driver) NewBuffer(desc *rhi.BufferDescriptor, data []byte) (rhi.NativeResource, error) {
	if desc.Kind == rhi.ResourceTypeIndirectBuffer {
		return nil, fmt.Errorf("%w: indirect buffers", rhi.ErrUnsupported)
	}
	width := desc.Size
	if desc.Kind == rhi.ResourceTypeUniformBuffer {
		width = (width + 15) &^ 15
		if width > maxConstantBufferSize {
			return nil, fmt.Errorf("%w: constant buffer of %d bytes exceeds %d", rhi.ErrUnsupported, width, maxConstantBufferSize)
		}
	}
	bd := BufferDesc{ByteWidth: width, BindFlags: bufferBindFlags(desc.Kind)}
	u := desc.Usage
	if (u.Dynamic() || u.Stream()) && !u.CPURead() {
		bd.Usage = UsageDynamic
		bd.CPUAccessFlags = CPUAccessWrite
	}

	b := &buffer{
		object: d.newObject("buffer"),
		kind:   desc.Kind,
		size:   desc.Size,
		width:  width,
		usage:  bd.Usage,
	}
	init := fitData(data, int(width))
	if bd.Usage == UsageDefault {
		b.shadow = make([]byte, width)
		copy(b.shadow, init)
	}
	var sd *SubresourceData
	if init != nil {
		sd = &SubresourceData{Data: init, RowPitch: width, SlicePitch: width}
	}
	res, err := d.dev.CreateBuffer(&bd, sd)
	if err != nil {
		b.release()
		return nil, fmt.Errorf("d3d11: create buffer: %w", err)
	}
	b.res = res
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

// Map maps a buffer. Dynamic buffers are write-only: WriteDiscard renames
// the buffer and other writes map without overwrite. Constant buffers
// always discard.
func (b *buffer) Map(sub uint32, mode rhi.MapType) (rhi.MappedSubresource, error) {
	if b.destroyed {
		return rhi.MappedSubresource{}, errDestroyed
	}
	if sub != 0 {
		return rhi.MappedSubresource{}, fmt.Errorf("%w: buffer subresource %d", rhi.ErrNotMappable, sub)
	}
	if b.mapped != nil {
		return rhi.MappedSubresource{}, rhi.ErrAlreadyMapped
	}
	if b.shadow != nil {
		b.mapped = &mapping{mode: mode, data: b.shadow}
		return rhi.MappedSubresource{Data: b.shadow[:b.size], RowPitch: b.size, DepthPitch: b.size}, nil
	}
	if mode.Reads() {
		return rhi.MappedSubresource{}, fmt.Errorf("%w: %v on a dynamic buffer", rhi.ErrNotMappable, mode)
	}
	mm := MapWriteDiscard
	if mode != rhi.MapWriteDiscard && b.kind != rhi.ResourceTypeUniformBuffer {
		mm = MapWriteNoOverwrite
	}
	m, err := b.d.ctx.Map(b.res, 0, mm)
	if err != nil {
		return rhi.MappedSubresource{}, fmt.Errorf("%w: %w", rhi.ErrNotMappable, err)
	}
	b.mapped = &mapping{mode: mode, native: true}
	data := m.Data
	if uint32(len(data)) > b.size {
		data = data[:b.size]
	}
	return rhi.MappedSubresource{Data: data, RowPitch: b.size, DepthPitch: b.size}, nil
}

func (b *buffer) Unmap(uint32) {
	m := b.mapped
	if m == nil || b.destroyed {
		return
	}
	b.mapped = nil
	switch {
	case m.native:
		b.d.ctx.Unmap(b.res, 0)
	case m.mode.Writes():
		b.d.ctx.UpdateSubresource(b.res, 0, b.shadow, b.width, b.width)
	}
}

func (b *buffer) Destroy() {
	if !b.release() {
		return
	}
	if b.mapped != nil && b.mapped.native {
		b.d.ctx.Unmap(b.res, 0)
	}
	b.mapped = nil
	b.res.Release()
}

func (b *buffer) SetDebugName(name string) {
	b.label = name
	b.d.name(b.res, name)
}

// texture is an ID3D11Texture2D or ID3D11Texture3D with its shader
// resource view. Buffer textures are a buffer viewed as texels.
type texture struct {
	object
	res    Resource
	srv    View
	desc   rhi.TextureDescriptor
	format textureFormat
	usage  Usage
	bind   BindFlags
	mapped map[uint32]*mapping
}

// textureUsage picks the native usage and CPU access of a texture.
func textureUsage(desc *rhi.TextureDescriptor) (Usage, CPUAccess, error) {
	switch desc.Usage {
	case rhi.TextureUsageImmutable:
		if desc.Flags.Has(rhi.TextureFlagRenderTarget) {
			return UsageDefault, 0, nil
		}
		return UsageImmutable, 0, nil
	case rhi.TextureUsageDynamic:
		if desc.MipLevelCount > 1 || desc.Flags.Has(rhi.TextureFlagRenderTarget) {
			return 0, 0, fmt.Errorf("%w: dynamic texture with %d mip levels or render target flag", rhi.ErrUnsupported, desc.MipLevelCount)
		}
		return UsageDynamic, CPUAccessWrite, nil
	case rhi.TextureUsageStaging:
		return UsageStaging, CPUAccessRead | CPUAccessWrite, nil
	}
	return UsageDefault, 0, nil
}

// formatSupport returns the support bit a texture kind needs.
func formatSupport(kind rhi.ResourceType) FormatSupport {
	switch kind {
	case rhi.ResourceTypeTexture3D:
		return FormatSupportTexture3D
	case rhi.ResourceTypeTextureCube:
		return FormatSupportTextureCube
	case rhi.ResourceTypeTextureBuffer:
		return FormatSupportBuffer
	}
	return FormatSupportTexture2D
}

// NewTexture creates a texture and uploads data. Subresources the data
// does not cover start zeroed.
func (d *Driver) NewTexture(desc *rhi.TextureDescriptor, data []byte) (rhi.NativeResource, error) {
	tf, ok := textureFormats[desc.Format]
	if !ok {
		return nil, fmt.Errorf("%w: texture format %v", rhi.ErrUnsupported, desc.Format)
	}
	support := d.dev.CheckFormatSupport(tf.view)
	if !support.Has(formatSupport(desc.Kind)) {
		return nil, fmt.Errorf("%w: %v %v at feature level %v", rhi.ErrUnsupported, desc.Format, desc.Kind, d.level)
	}
	usage, cpu, err := textureUsage(desc)
	if err != nil {
		return nil, err
	}
	depth := rhi.IsDepthFormat(desc.Format)
	if desc.Flags.Has(rhi.TextureFlagRenderTarget) {
		need := FormatSupportRenderTarget
		if depth {
			need = FormatSupportDepthStencil
		}
		if !support.Has(need) {
			return nil, fmt.Errorf("%w: %v as render target", rhi.ErrUnsupported, desc.Format)
		}
		if usage == UsageStaging {
			d.logger().Warn("d3d11: render target flag ignored on staging texture", "format", desc.Format)
		}
	}

	t := &texture{
		object: d.newObject("texture"),
		desc:   *desc,
		format: tf,
		usage:  usage,
	}
	if desc.Kind == rhi.ResourceTypeTextureBuffer {
		err = d.newTextureBuffer(t, cpu, data)
	} else {
		err = d.newTexture(t, cpu, support, data)
	}
	if err != nil {
		t.release()
		return nil, err
	}
	return t, nil
}

func (d *Driver) newTexture(t *texture, cpu CPUAccess, support FormatSupport, data []byte) error {
	desc := &t.desc
	td := TextureDesc{
		Dimension:        ResourceDimensionTexture2D,
		Width:            desc.Width,
		Height:           desc.Height,
		DepthOrArraySize: desc.Layers(),
		MipLevels:        desc.MipLevelCount,
		Format:           t.format.resource,
		SampleCount:      1,
		Usage:            t.usage,
		CPUAccessFlags:   cpu,
	}
	switch desc.Kind {
	case rhi.ResourceTypeTexture3D:
		td.Dimension = ResourceDimensionTexture3D
		td.DepthOrArraySize = desc.Depth()
	case rhi.ResourceTypeTextureCube:
		td.MiscFlags |= MiscTextureCube
	}
	if t.usage != UsageStaging {
		td.BindFlags = BindShaderResource
		if desc.Flags.Has(rhi.TextureFlagRenderTarget) {
			if rhi.IsDepthFormat(desc.Format) {
				td.BindFlags |= BindDepthStencil
			} else {
				td.BindFlags |= BindRenderTarget
			}
		}
	}

	generate := false
	if data != nil && desc.MipLevelCount > 1 &&
		desc.Flags.Has(rhi.TextureFlagGenerateMipmaps) && !desc.Flags.Has(rhi.TextureFlagDataContainsMipmaps) {
		data, generate = d.prepareMipmaps(t, &td, support, data)
	}
	t.bind = td.BindFlags

	res, err := d.dev.CreateTexture(&td, t.initialData(data))
	if err != nil {
		return fmt.Errorf("d3d11: create %v: %w", desc.Kind, err)
	}
	t.res = res
	if t.usage == UsageStaging {
		return nil
	}
	srv := t.srvDesc()
	if t.srv, err = d.dev.CreateShaderResourceView(res, &srv); err != nil {
		res.Release()
		return fmt.Errorf("d3d11: create %v view: %w", desc.Kind, err)
	}
	if generate {
		d.ctx.GenerateMips(t.srv)
	}
	return nil
}

// prepareMipmaps decides how the mip chain of a texture is filled. The GPU
// generates it when the format allows; otherwise RGBA8 and BGRA8 chains
// are built on the CPU and other formats keep zeroed levels.
func (d *Driver) prepareMipmaps(t *texture, td *TextureDesc, support FormatSupport, data []byte) ([]byte, bool) {
	desc := &t.desc
	if t.usage == UsageDefault && !rhi.IsDepthFormat(desc.Format) &&
		support.Has(FormatSupportMipAutogen|FormatSupportRenderTarget) {
		td.BindFlags |= BindShaderResource | BindRenderTarget
		td.MiscFlags |= MiscGenerateMips
		return data, true
	}
	if desc.Kind == rhi.ResourceTypeTexture2D && mipgen.Supported(desc.Format) {
		base := rhi.SlicePitch(desc.Format, desc.Width, desc.Height)
		if uint32(len(data)) >= base {
			desc.Flags = desc.Flags&^rhi.TextureFlagGenerateMipmaps | rhi.TextureFlagDataContainsMipmaps
			return mipgen.Chain(data[:base], int(desc.Width), int(desc.Height), int(desc.MipLevelCount)), false
		}
	}
	d.warnOnce("mipgen:"+desc.Format.String(), "d3d11: mipmaps not generated for format", "format", desc.Format, "usage", t.usage)
	return data, false
}

func (d *Driver) newTextureBuffer(t *texture, cpu CPUAccess, data []byte) error {
	size := uint32(t.desc.DataSize())
	bd := BufferDesc{ByteWidth: size, Usage: t.usage, CPUAccessFlags: cpu}
	if t.usage != UsageStaging {
		bd.BindFlags = BindShaderResource
	}
	var sd *SubresourceData
	if init := fitData(data, int(size)); init != nil {
		sd = &SubresourceData{Data: init, RowPitch: size, SlicePitch: size}
	}
	res, err := d.dev.CreateBuffer(&bd, sd)
	if err != nil {
		return fmt.Errorf("d3d11: create texture buffer: %w", err)
	}
	t.res, t.bind = res, bd.BindFlags
	if t.usage == UsageStaging {
		return nil
	}
	srv := t.srvDesc()
	if t.srv, err = d.dev.CreateShaderResourceView(res, &srv); err != nil {
		res.Release()
		return fmt.Errorf("d3d11: create texture buffer view: %w", err)
	}
	return nil
}

func (t *texture) srvDesc() ShaderResourceViewDesc {
	v := ShaderResourceViewDesc{Format: t.format.srv, MipLevels: t.desc.MipLevelCount}
	switch t.desc.Kind {
	case rhi.ResourceTypeTexture2DArray:
		v.Dimension = ViewDimensionTexture2DArray
		v.ArraySize = t.desc.Layers()
	case rhi.ResourceTypeTexture3D:
		v.Dimension = ViewDimensionTexture3D
	case rhi.ResourceTypeTextureCube:
		v.Dimension = ViewDimensionTextureCube
	case rhi.ResourceTypeTextureBuffer:
		v = ShaderResourceViewDesc{Format: t.format.srv, Dimension: ViewDimensionBuffer, NumElements: t.desc.Width}
	default:
		v.Dimension = ViewDimensionTexture2D
	}
	return v
}

func (t *texture) subresources() uint32 {
	if t.desc.Kind == rhi.ResourceTypeTextureBuffer {
		return 1
	}
	return t.desc.MipLevelCount * t.desc.Layers()
}

// layout returns the level, layer and extent of a subresource.
func (t *texture) layout(sub uint32) rhi.SubresourceData {
	if t.desc.Kind == rhi.ResourceTypeTextureBuffer {
		size := uint32(t.desc.DataSize())
		return rhi.SubresourceData{Width: t.desc.Width, Height: 1, Depth: 1, RowPitch: size, SlicePitch: size}
	}
	mips := max(t.desc.MipLevelCount, 1)
	level, layer := sub%mips, sub/mips
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

// initialData lays data out per subresource. Direct3D needs every
// subresource once any is given, so missing ones are zero filled.
func (t *texture) initialData(data []byte) []SubresourceData {
	if data == nil {
		return nil
	}
	out := make([]SubresourceData, t.subresources())
	for sub := range t.desc.InitialData(data) {
		out[t.desc.Subresource(sub.MipLevel, sub.Layer)] = SubresourceData{Data: sub.Data, RowPitch: sub.RowPitch, SlicePitch: sub.SlicePitch}
	}
	for i := range out {
		if out[i].Data == nil {
			l := t.layout(uint32(i))
			out[i] = SubresourceData{Data: make([]byte, int(l.SlicePitch)*int(l.Depth)), RowPitch: l.RowPitch, SlicePitch: l.SlicePitch}
		}
	}
	return out
}

// Map maps a subresource. Staging textures map natively in any mode and
// dynamic ones with WriteDiscard only. Default textures accept writes into
// memory uploaded at Unmap. Immutable textures never map.
func (t *texture) Map(sub uint32, mode rhi.MapType) (rhi.MappedSubresource, error) {
	if t.destroyed {
		return rhi.MappedSubresource{}, errDestroyed
	}
	if sub >= t.subresources() {
		return rhi.MappedSubresource{}, fmt.Errorf("%w: subresource %d of %d", rhi.ErrNotMappable, sub, t.subresources())
	}
	if _, ok := t.mapped[sub]; ok {
		return rhi.MappedSubresource{}, rhi.ErrAlreadyMapped
	}

	l := t.layout(sub)
	m := &mapping{mode: mode, layout: l}
	var out rhi.MappedSubresource
	switch t.usage {
	case UsageImmutable:
		return rhi.MappedSubresource{}, fmt.Errorf("%w: immutable texture", rhi.ErrNotMappable)
	case UsageDynamic, UsageStaging:
		mm := MapWriteDiscard
		if t.usage == UsageStaging {
			mm = mapMode(mode)
			if mm == MapWriteDiscard || mm == MapWriteNoOverwrite {
				mm = MapWrite
			}
		} else if mode != rhi.MapWriteDiscard {
			return rhi.MappedSubresource{}, fmt.Errorf("%w: %v on a dynamic texture, want WriteDiscard", rhi.ErrNotMappable, mode)
		}
		nm, err := t.d.ctx.Map(t.res, sub, mm)
		if err != nil {
			return rhi.MappedSubresource{}, fmt.Errorf("%w: %w", rhi.ErrNotMappable, err)
		}
		m.native = true
		out = rhi.MappedSubresource{Data: nm.Data, RowPitch: nm.RowPitch, DepthPitch: nm.DepthPitch}
	default:
		if mode.Reads() {
			return rhi.MappedSubresource{}, fmt.Errorf("%w: %v on a default-usage texture", rhi.ErrNotMappable, mode)
		}
		m.data = make([]byte, int(l.SlicePitch)*int(l.Depth))
		out = rhi.MappedSubresource{Data: m.data, RowPitch: l.RowPitch, DepthPitch: l.SlicePitch}
	}
	if t.mapped == nil {
		t.mapped = make(map[uint32]*mapping)
	}
	t.mapped[sub] = m
	return out, nil
}

// Unmap ends a map, uploading written memory of default textures.
func (t *texture) Unmap(sub uint32) {
	m, ok := t.mapped[sub]
	if !ok || t.destroyed {
		return
	}
	delete(t.mapped, sub)
	switch {
	case m.native:
		t.d.ctx.Unmap(t.res, sub)
	case m.mode.Writes():
		t.d.ctx.UpdateSubresource(t.res, sub, m.data, m.layout.RowPitch, m.layout.SlicePitch)
	}
}

func (t *texture) Destroy() {
	if !t.release() {
		return
	}
	d := t.d
	for stage := range d.bound.textures {
		for unit, bt := range d.bound.textures[stage] {
			if bt == t {
				d.bound.textures[stage][unit] = nil
			}
		}
	}
	for sub, m := range t.mapped {
		if m.native {
			d.ctx.Unmap(t.res, sub)
		}
	}
	t.mapped = nil
	if t.srv != nil {
		t.srv.Release()
	}
	t.res.Release()
}

func (t *texture) SetDebugName(name string) {
	t.label = name
	t.d.name(t.res, name)
	if t.srv != nil {
		t.d.name(t.srv, name+" view")
	}
}
