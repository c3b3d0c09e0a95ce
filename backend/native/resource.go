// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi"
)

// copyPitchAlignment is the WebGPU row pitch alignment of buffer texture
// copies.
const copyPitchAlignment = 256

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
		o.d.logger().Error("native: double destroy", "kind", o.kind, "name", o.label)
		return false
	}
	o.destroyed = true
	o.d.live.Add(-1)
	return true
}

func (o *object) SetDebugName(name string) { o.label = name }

// buffer is a hal buffer with a CPU copy of its contents. The GPU never
// writes buffers, so the copy serves reads and Unmap uploads it whole.
type buffer struct {
	object
	buf    hal.Buffer
	kind   rhi.ResourceType
	size   uint32
	width  uint32
	shadow []byte
	mapped *rhi.MapType

	// usedIn is the serial of the last encoder that referenced the buffer.
	usedIn uint64
}

// NewBuffer creates a buffer. Sizes round up to the 4 byte queue write
// granularity, and uniform buffers to 16 bytes.
func (d *Driver) NewBuffer(desc *rhi.BufferDescriptor, data []byte) (rhi.NativeResource, error) {
	if desc.Kind == rhi.ResourceTypeIndirectBuffer {
		return nil, fmt.Errorf("%w: indirect buffers", rhi.ErrUnsupported)
	}
	width := alignUp(max(desc.Size, 4), 4)
	if desc.Kind == rhi.ResourceTypeUniformBuffer {
		width = alignUp(width, 16)
	}
	buf, err := d.dev.CreateBuffer(&hal.BufferDescriptor{
		Label: d.label("buffer", desc.Label),
		Size:  uint64(width),
		Usage: bufferUsage(desc.Kind),
	})
	if err != nil {
		return nil, fmt.Errorf("native: create buffer: %w", err)
	}
	b := &buffer{
		object: d.newObject("buffer"),
		buf:    buf,
		kind:   desc.Kind,
		size:   desc.Size,
		width:  width,
		shadow: make([]byte, width),
	}
	if data != nil {
		copy(b.shadow[:b.size], data)
		if err := d.queue.WriteBuffer(buf, 0, b.shadow); err != nil {
			d.dev.DestroyBuffer(buf)
			b.release()
			return nil, fmt.Errorf("native: upload buffer: %w", err)
		}
	}
	return b, nil
}

// Map returns the CPU copy. WriteDiscard zeroes it first.
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
	if mode == rhi.MapWriteDiscard {
		clear(b.shadow)
	}
	b.mapped = &mode
	return rhi.MappedSubresource{Data: b.shadow[:b.size], RowPitch: b.size, DepthPitch: b.size}, nil
}

// Unmap uploads the CPU copy after a writing map.
func (b *buffer) Unmap(uint32) {
	if b.mapped == nil || b.destroyed {
		return
	}
	mode := *b.mapped
	b.mapped = nil
	if !mode.Writes() {
		return
	}
	d := b.d
	d.beforeWrite(b.usedIn)
	if err := d.queue.WriteBuffer(b.buf, 0, b.shadow); err != nil {
		d.logger().Error("native: upload buffer", "name", b.label, "err", err)
	}
}

func (b *buffer) Destroy() {
	if !b.release() {
		return
	}
	d := b.d
	for stage := range d.bound.uniforms {
		for slot, u := range d.bound.uniforms[stage] {
			if u == b {
				d.bound.uniforms[stage][slot] = nil
				d.bound.groups[rhi.WGSLUniformGroup].dirty = true
			}
		}
	}
	buf := b.buf
	d.retire(func() { d.dev.DestroyBuffer(buf) })
	b.shadow, b.mapped = nil, nil
}

// mapping is an open map of a texture subresource. Written data is
// uploaded at Unmap.
type mapping struct {
	mode   rhi.MapType
	data   []byte
	layout rhi.SubresourceData
}

// texture is a hal texture with the view it is sampled through.
type texture struct {
	object
	tex    hal.Texture
	view   hal.TextureView
	desc   rhi.TextureDescriptor
	dim    gputypes.TextureViewDimension
	usage  gputypes.TextureUsage
	mapped map[uint32]*mapping
	usedIn uint64
}

// NewTexture creates a texture and uploads the subresources data covers.
// Mip chains the renderer did not build are left zeroed.
func (d *Driver) NewTexture(desc *rhi.TextureDescriptor, data []byte) (rhi.NativeResource, error) {
	if desc.Kind == rhi.ResourceTypeTextureBuffer {
		return nil, fmt.Errorf("%w: buffer textures", rhi.ErrUnsupported)
	}
	if dim, _ := rhi.BlockInfo(desc.Format); dim == 0 {
		return nil, fmt.Errorf("%w: texture format %v", rhi.ErrUnsupported, desc.Format)
	}
	if desc.Flags.Has(rhi.TextureFlagGenerateMipmaps) && !desc.Flags.Has(rhi.TextureFlagDataContainsMipmaps) && desc.MipLevelCount > 1 {
		d.warnOnce("mipgen:"+desc.Format.String(), "native: mipmaps not generated for format", "format", desc.Format, "kind", desc.Kind)
	}
	td := textureDesc(desc, d.label("texture", desc.Label))
	tex, err := d.dev.CreateTexture(&td)
	if err != nil {
		return nil, fmt.Errorf("native: create %v: %w", desc.Kind, err)
	}
	t := &texture{
		object: d.newObject("texture"),
		tex:    tex,
		desc:   *desc,
		dim:    textureViewDimension(desc.Kind),
		usage:  td.Usage,
	}
	t.desc.MipLevelCount = td.MipLevelCount
	aspect := gputypes.TextureAspectAll
	if rhi.IsDepthFormat(desc.Format) {
		aspect = gputypes.TextureAspectDepthOnly
	}
	t.view, err = d.dev.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           d.label("texture view", desc.Label),
		Format:          desc.Format,
		Dimension:       t.dim,
		Aspect:          aspect,
		MipLevelCount:   td.MipLevelCount,
		ArrayLayerCount: desc.Layers(),
	})
	if err != nil {
		d.dev.DestroyTexture(tex)
		t.release()
		return nil, fmt.Errorf("native: create %v view: %w", desc.Kind, err)
	}
	for sub := range t.desc.InitialData(data) {
		if err := t.write(sub, sub.Data); err != nil {
			t.Destroy()
			return nil, err
		}
	}
	return t, nil
}

// write uploads one subresource through the queue.
func (t *texture) write(l rhi.SubresourceData, data []byte) error {
	dst := hal.ImageCopyTexture{
		Texture:  t.tex,
		MipLevel: l.MipLevel,
		Origin:   hal.Origin3D{Z: l.Layer},
		Aspect:   gputypes.TextureAspectAll,
	}
	layout := hal.ImageDataLayout{BytesPerRow: l.RowPitch, RowsPerImage: l.SlicePitch / max(l.RowPitch, 1)}
	size := copyExtent(t.desc.Format, l.Width, l.Height, l.Depth)
	if err := t.d.queue.WriteTexture(&dst, data, &layout, &size); err != nil {
		return fmt.Errorf("native: upload %v level %d layer %d: %w", t.desc.Kind, l.MipLevel, l.Layer, err)
	}
	return nil
}

func (t *texture) subresources() uint32 { return t.desc.MipLevelCount * t.desc.Layers() }

// layout returns the level, layer and extent of a subresource.
func (t *texture) layout(sub uint32) rhi.SubresourceData {
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

// Map maps a subresource into CPU memory. Reading maps copy the
// subresource back from the GPU and wait for it; writing maps are
// uploaded at Unmap. Immutable textures never map and depth textures
// cannot be read.
func (t *texture) Map(sub uint32, mode rhi.MapType) (rhi.MappedSubresource, error) {
	if t.destroyed {
		return rhi.MappedSubresource{}, errDestroyed
	}
	if t.desc.Usage == rhi.TextureUsageImmutable {
		return rhi.MappedSubresource{}, fmt.Errorf("%w: immutable texture", rhi.ErrNotMappable)
	}
	if sub >= t.subresources() {
		return rhi.MappedSubresource{}, fmt.Errorf("%w: subresource %d of %d", rhi.ErrNotMappable, sub, t.subresources())
	}
	if _, ok := t.mapped[sub]; ok {
		return rhi.MappedSubresource{}, rhi.ErrAlreadyMapped
	}
	l := t.layout(sub)
	m := &mapping{mode: mode, layout: l}
	if mode.Reads() {
		if rhi.IsDepthFormat(t.desc.Format) {
			return rhi.MappedSubresource{}, fmt.Errorf("%w: reading depth texture %v", rhi.ErrNotMappable, t.desc.Format)
		}
		data, err := t.d.readback(t, l)
		if err != nil {
			return rhi.MappedSubresource{}, fmt.Errorf("%w: %w", rhi.ErrNotMappable, err)
		}
		m.data = data
	} else {
		m.data = make([]byte, int(l.SlicePitch)*int(l.Depth))
	}
	if t.mapped == nil {
		t.mapped = make(map[uint32]*mapping)
	}
	t.mapped[sub] = m
	return rhi.MappedSubresource{Data: m.data, RowPitch: l.RowPitch, DepthPitch: l.SlicePitch}, nil
}

// Unmap ends a map, uploading written memory.
func (t *texture) Unmap(sub uint32) {
	m, ok := t.mapped[sub]
	if !ok || t.destroyed {
		return
	}
	delete(t.mapped, sub)
	if !m.mode.Writes() {
		return
	}
	t.d.beforeWrite(t.usedIn)
	if err := t.write(m.layout, m.data); err != nil {
		t.d.logger().Error("native: unmap texture", "name", t.label, "err", err)
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
				d.bound.groups[rhi.WGSLTextureGroup].dirty = true
			}
		}
	}
	t.mapped = nil
	tex, view := t.tex, t.view
	d.retire(func() {
		d.dev.DestroyTextureView(view)
		d.dev.DestroyTexture(tex)
	})
}

// readback copies a subresource into a mappable buffer, waits for the
// copy and returns the rows tightly packed. Pending work is submitted
// first so the copy sees it.
func (d *Driver) readback(t *texture, l rhi.SubresourceData) ([]byte, error) {
	d.Flush()
	pitch := alignUp(l.RowPitch, copyPitchAlignment)
	rows := l.SlicePitch / l.RowPitch
	size := uint64(pitch) * uint64(rows) * uint64(l.Depth)
	staging, err := d.dev.CreateBuffer(&hal.BufferDescriptor{
		Label: d.label("readback", t.label),
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create readback buffer: %w", err)
	}
	defer d.dev.DestroyBuffer(staging)

	enc, err := d.dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "readback"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	defer enc.Destroy()
	if err := enc.BeginEncoding("readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	enc.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{BytesPerRow: pitch, RowsPerImage: rows},
		TextureBase: hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: l.MipLevel,
			Origin:   hal.Origin3D{Z: l.Layer},
			Aspect:   gputypes.TextureAspectAll,
		},
		Size: copyExtent(t.desc.Format, l.Width, l.Height, l.Depth),
	}})
	cb, err := enc.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer d.dev.FreeCommandBuffer(cb)
	idx, err := d.queue.Submit([]hal.CommandBuffer{cb})
	if err != nil {
		return nil, fmt.Errorf("%w: submit readback: %w", ErrDeviceLost, err)
	}
	d.lastSubmit = max(d.lastSubmit, idx)
	d.stats.Submits++
	if err := d.dev.WaitIdle(); err != nil {
		return nil, fmt.Errorf("%w: wait for readback: %w", ErrDeviceLost, err)
	}

	m, err := d.dev.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("map readback buffer: %w", err)
	}
	src := unsafe.Slice((*byte)(m.Ptr), size)
	out := make([]byte, int(l.SlicePitch)*int(l.Depth))
	for slice := range l.Depth {
		for row := range rows {
			s := (uint64(slice)*uint64(rows) + uint64(row)) * uint64(pitch)
			o := uint64(slice)*uint64(l.SlicePitch) + uint64(row)*uint64(l.RowPitch)
			copy(out[o:o+uint64(l.RowPitch)], src[s:s+uint64(l.RowPitch)])
		}
	}
	if err := d.dev.UnmapBuffer(staging); err != nil {
		d.logger().Warn("native: unmap readback buffer", "err", err)
	}
	d.reclaim()
	return out, nil
}
