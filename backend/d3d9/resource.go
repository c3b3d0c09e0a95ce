// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d9

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

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
		o.d.logger().Error("d3d9: double destroy", "kind", o.kind, "name", o.label)
		return false
	}
	o.destroyed = true
	o.d.live.Add(-1)
	return true
}

// buffer is a vertex or index buffer, or a uniform buffer kept in CPU
// memory and uploaded to shader constants when bound.
type buffer struct {
	object
	res     Buffer
	kind    rhi.ResourceType
	size    uint32
	dynamic bool
	data    []byte
	mapped  bool
	mode    rhi.MapType
}

// NewBuffer creates a buffer. Dynamic and stream buffers live in the
// default pool and are write-only; the others are managed.
func (d *Driver) NewBuffer(desc *rhi.BufferDescriptor, data []byte) (rhi.NativeResource, error) {
	switch desc.Kind {
	case rhi.ResourceTypeIndirectBuffer:
		return nil, fmt.Errorf("%w: indirect buffers", rhi.ErrUnsupported)
	case rhi.ResourceTypeUniformBuffer:
		if desc.Size > maxUniformSize {
			return nil, fmt.Errorf("%w: uniform buffer of %d bytes exceeds %d", rhi.ErrUnsupported, desc.Size, maxUniformSize)
		}
		b := &buffer{object: d.newObject("buffer"), kind: desc.Kind, size: desc.Size}
		b.data = make([]byte, (desc.Size+15)&^15)
		copy(b.data, data)
		return b, nil
	case rhi.ResourceTypeIndexBuffer:
		if desc.IndexFormat == gputypes.IndexFormatUint32 && !d.caps.IndexUint32 {
			return nil, fmt.Errorf("%w: 32-bit indices", rhi.ErrUnsupported)
		}
	}

	u := desc.Usage
	usage, pool := UsageWriteOnly, PoolManaged
	dynamic := (u.Dynamic() || u.Stream()) && !u.CPURead()
	if dynamic {
		usage, pool = UsageWriteOnly|UsageDynamic, PoolDefault
	} else if u.CPURead() {
		usage = 0
	}

	b := &buffer{object: d.newObject("buffer"), kind: desc.Kind, size: desc.Size, dynamic: dynamic}
	var (
		res Buffer
		err error
	)
	if desc.Kind == rhi.ResourceTypeIndexBuffer {
		res, err = d.dev.CreateIndexBuffer(desc.Size, usage, indexFormat(desc.IndexFormat), pool)
	} else {
		res, err = d.dev.CreateVertexBuffer(desc.Size, usage, pool)
	}
	if err != nil {
		b.release()
		return nil, fmt.Errorf("d3d9: create buffer: %w", err)
	}
	b.res = res
	if len(data) > 0 {
		flags := LockFlags(0)
		if dynamic {
			flags = LockDiscard
		}
		mem, err := res.Lock(0, 0, flags)
		if err != nil {
			res.Release()
			b.release()
			return nil, fmt.Errorf("d3d9: fill buffer: %w", err)
		}
		copy(mem, data)
		res.Unlock()
	}
	return b, nil
}

// Map locks a buffer. Dynamic buffers take WriteDiscard and
// WriteNoOverwrite; managed buffers take any mode. Uniform buffers return
// their CPU memory.
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
	if b.res == nil {
		b.mapped, b.mode = true, mode
		return rhi.MappedSubresource{Data: b.data[:b.size], RowPitch: b.size, DepthPitch: b.size}, nil
	}
	var flags LockFlags
	switch {
	case b.dynamic && mode.Reads():
		return rhi.MappedSubresource{}, fmt.Errorf("%w: %v on a dynamic buffer", rhi.ErrNotMappable, mode)
	case b.dynamic && mode == rhi.MapWriteDiscard:
		flags = LockDiscard
	case b.dynamic:
		flags = LockNoOverwrite
	case mode == rhi.MapRead:
		flags = LockReadOnly
	}
	mem, err := b.res.Lock(0, b.size, flags)
	if err != nil {
		return rhi.MappedSubresource{}, fmt.Errorf("%w: %w", rhi.ErrNotMappable, err)
	}
	b.mapped, b.mode = true, mode
	return rhi.MappedSubresource{Data: mem, RowPitch: b.size, DepthPitch: b.size}, nil
}

// Unmap unlocks a buffer. A written uniform buffer that is bound is
// uploaded again.
func (b *buffer) Unmap(uint32) {
	if !b.mapped || b.destroyed {
		return
	}
	b.mapped = false
	if b.res != nil {
		b.res.Unlock()
		return
	}
	if !b.mode.Writes() {
		return
	}
	d := b.d
	for stage := range d.bound.uniforms {
		for slot, u := range d.bound.uniforms[stage] {
			if u == b {
				d.uploadConstants(rhi.ShaderStage(stage), uint32(slot), b)
			}
		}
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
			}
		}
	}
	if b.res == nil {
		b.data = nil
		return
	}
	if b.mapped {
		b.res.Unlock()
	}
	b.res.Release()
}

func (b *buffer) SetDebugName(name string) {
	b.label = name
	if b.res != nil {
		b.d.name(b.res, name)
	}
}

// texture is an IDirect3DTexture9, IDirect3DCubeTexture9 or
// IDirect3DVolumeTexture9.
type texture struct {
	object
	res    Texture
	desc   rhi.TextureDescriptor
	format Format
	pool   Pool
	usage  Usage
	mapped map[uint32]bool
}

func resourceType(kind rhi.ResourceType) (ResourceType, bool) {
	switch kind {
	case rhi.ResourceTypeTexture2D:
		return ResourceTexture, true
	case rhi.ResourceTypeTextureCube:
		return ResourceCubeTexture, true
	case rhi.ResourceTypeTexture3D:
		return ResourceVolumeTexture, true
	}
	return 0, false
}

// texturePool picks the pool and usage of a texture. Render targets and
// dynamic textures live in the default pool, staging textures in system
// memory and the others are managed.
func texturePool(desc *rhi.TextureDescriptor) (Pool, Usage, error) {
	if desc.Flags.Has(rhi.TextureFlagRenderTarget) {
		if desc.Usage == rhi.TextureUsageStaging || desc.Usage == rhi.TextureUsageDynamic {
			return 0, 0, fmt.Errorf("%w: %v render target", rhi.ErrUnsupported, desc.Usage)
		}
		if rhi.IsDepthFormat(desc.Format) {
			return PoolDefault, UsageDepthStencil, nil
		}
		return PoolDefault, UsageRenderTarget, nil
	}
	if rhi.IsDepthFormat(desc.Format) {
		return 0, 0, fmt.Errorf("%w: depth texture without the render target flag", rhi.ErrUnsupported)
	}
	switch desc.Usage {
	case rhi.TextureUsageDynamic:
		return PoolDefault, UsageDynamic, nil
	case rhi.TextureUsageStaging:
		return PoolSystemMem, 0, nil
	}
	return PoolManaged, 0, nil
}

// NewTexture creates a texture and copies data into its levels. Render
// targets live in the default pool, which cannot be locked, so their data
// is dropped.
func (d *Driver) NewTexture(desc *rhi.TextureDescriptor, data []byte) (rhi.NativeResource, error) {
	typ, ok := resourceType(desc.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %v", rhi.ErrUnsupported, desc.Kind)
	}
	if desc.Kind == rhi.ResourceTypeTexture3D && !d.caps.Texture3D {
		return nil, fmt.Errorf("%w: volume textures", rhi.ErrUnsupported)
	}
	format, ok := textureFormats[desc.Format]
	if !ok {
		return nil, fmt.Errorf("%w: texture format %v", rhi.ErrUnsupported, desc.Format)
	}
	pool, usage, err := texturePool(desc)
	if err != nil {
		return nil, err
	}
	if !d.dev.CheckFormat(format, usage, typ) {
		return nil, fmt.Errorf("%w: %v %v", rhi.ErrUnsupported, desc.Format, desc.Kind)
	}
	if desc.Flags.Has(rhi.TextureFlagGenerateMipmaps) && !desc.Flags.Has(rhi.TextureFlagDataContainsMipmaps) && desc.MipLevelCount > 1 {
		d.warnOnce("mipgen:"+desc.Format.String(), "d3d9: mipmaps not generated for format", "format", desc.Format)
	}

	td := TextureDesc{
		Type:   typ,
		Width:  desc.Width,
		Height: desc.Height,
		Depth:  desc.Depth(),
		Levels: max(desc.MipLevelCount, 1),
		Usage:  usage,
		Format: format,
		Pool:   pool,
	}
	res, err := d.dev.CreateTexture(&td)
	if err != nil {
		return nil, fmt.Errorf("d3d9: create %v: %w", desc.Kind, err)
	}
	t := &texture{
		object: d.newObject("texture"),
		res:    res,
		desc:   *desc,
		format: format,
		pool:   pool,
		usage:  usage,
	}
	if len(data) > 0 {
		if pool == PoolDefault && usage != UsageDynamic {
			d.warnOnce("rt-data", "d3d9: initial data of render target textures is ignored")
			return t, nil
		}
		if err := t.upload(data); err != nil {
			t.Destroy()
			return nil, err
		}
	}
	return t, nil
}

// upload copies tightly packed initial data into the locked levels, row
// by row to honor the native pitch.
func (t *texture) upload(data []byte) error {
	flags := LockFlags(0)
	if t.usage == UsageDynamic {
		flags = LockDiscard
	}
	for sub := range t.desc.InitialData(data) {
		face := t.face(sub.Layer)
		lr, err := t.res.Lock(face, sub.MipLevel, flags)
		if err != nil {
			return fmt.Errorf("d3d9: lock level %d face %d: %w", sub.MipLevel, face, err)
		}
		copyRows(lr, sub)
		t.res.Unlock(face, sub.MipLevel)
	}
	return nil
}

// copyRows copies a subresource into locked memory. Compressed formats
// copy rows of blocks.
func copyRows(lr LockedRect, sub rhi.SubresourceData) {
	if sub.RowPitch == 0 {
		return
	}
	rows := sub.SlicePitch / sub.RowPitch
	slicePitch := lr.SlicePitch
	if slicePitch == 0 {
		slicePitch = lr.Pitch * rows
	}
	for z := range max(sub.Depth, 1) {
		for r := range rows {
			src := uint64(z)*uint64(sub.SlicePitch) + uint64(r)*uint64(sub.RowPitch)
			dst := uint64(z)*uint64(slicePitch) + uint64(r)*uint64(lr.Pitch)
			if src+uint64(sub.RowPitch) > uint64(len(sub.Data)) || dst >= uint64(len(lr.Data)) {
				return
			}
			copy(lr.Data[dst:], sub.Data[src:src+uint64(sub.RowPitch)])
		}
	}
}

// face returns the cube face of a layer; other textures have one face.
func (t *texture) face(layer uint32) uint32 {
	if t.desc.Kind == rhi.ResourceTypeTextureCube {
		return layer
	}
	return 0
}

func (t *texture) subresources() uint32 {
	return max(t.desc.MipLevelCount, 1) * t.desc.Layers()
}

// Map locks a subresource. Managed and staging textures lock in any mode
// and dynamic ones with WriteDiscard only. Immutable textures and render
// targets never map.
func (t *texture) Map(sub uint32, mode rhi.MapType) (rhi.MappedSubresource, error) {
	if t.destroyed {
		return rhi.MappedSubresource{}, errDestroyed
	}
	if sub >= t.subresources() {
		return rhi.MappedSubresource{}, fmt.Errorf("%w: subresource %d of %d", rhi.ErrNotMappable, sub, t.subresources())
	}
	if t.mapped[sub] {
		return rhi.MappedSubresource{}, rhi.ErrAlreadyMapped
	}
	var flags LockFlags
	switch {
	case t.desc.Usage == rhi.TextureUsageImmutable:
		return rhi.MappedSubresource{}, fmt.Errorf("%w: immutable texture", rhi.ErrNotMappable)
	case t.pool == PoolDefault && t.usage != UsageDynamic:
		return rhi.MappedSubresource{}, fmt.Errorf("%w: render target texture", rhi.ErrNotMappable)
	case t.usage == UsageDynamic:
		if mode != rhi.MapWriteDiscard {
			return rhi.MappedSubresource{}, fmt.Errorf("%w: %v on a dynamic texture, want WriteDiscard", rhi.ErrNotMappable, mode)
		}
		flags = LockDiscard
	case mode == rhi.MapRead:
		flags = LockReadOnly
	}
	mips := max(t.desc.MipLevelCount, 1)
	level, face := sub%mips, t.face(sub/mips)
	lr, err := t.res.Lock(face, level, flags)
	if err != nil {
		return rhi.MappedSubresource{}, fmt.Errorf("%w: %w", rhi.ErrNotMappable, err)
	}
	if t.mapped == nil {
		t.mapped = make(map[uint32]bool)
	}
	t.mapped[sub] = true
	depthPitch := lr.SlicePitch
	if depthPitch == 0 {
		w, h := rhi.MipSize(t.desc.Width, level), rhi.MipSize(t.desc.Height, level)
		depthPitch = lr.Pitch * (rhi.SlicePitch(t.desc.Format, w, h) / rhi.RowPitch(t.desc.Format, w))
	}
	return rhi.MappedSubresource{Data: lr.Data, RowPitch: lr.Pitch, DepthPitch: depthPitch}, nil
}

func (t *texture) Unmap(sub uint32) {
	if !t.mapped[sub] || t.destroyed {
		return
	}
	delete(t.mapped, sub)
	mips := max(t.desc.MipLevelCount, 1)
	t.res.Unlock(t.face(sub/mips), sub%mips)
}

func (t *texture) Destroy() {
	if !t.release() {
		return
	}
	d := t.d
	for stage := range d.bound.textures {
		for unit, bt := range d.bound.textures[stage] {
			if bt == t {
				d.dev.SetTexture(samplerIndex(rhi.ShaderStage(stage), uint32(unit)), nil)
				d.bound.textures[stage][unit] = nil
			}
		}
	}
	mips := max(t.desc.MipLevelCount, 1)
	for sub := range t.mapped {
		t.res.Unlock(t.face(sub/mips), sub%mips)
	}
	t.mapped = nil
	t.res.Release()
}

func (t *texture) SetDebugName(name string) {
	t.label = name
	t.d.name(t.res, name)
}
