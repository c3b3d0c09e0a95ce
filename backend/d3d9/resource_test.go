// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d9

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

func newTestBuffer(t *testing.T, d *Driver, kind rhi.ResourceType, usage rhi.BufferUsage, size uint32, data []byte) *buffer {
	t.Helper()
	res, err := d.NewBuffer(&rhi.BufferDescriptor{Kind: kind, Size: size, Usage: usage}, data)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	return res.(*buffer)
}

func texDesc(kind rhi.ResourceType, format gputypes.TextureFormat, usage rhi.TextureUsage) *rhi.TextureDescriptor {
	return &rhi.TextureDescriptor{
		Kind:          kind,
		Width:         4,
		Height:        4,
		DepthOrLayers: 1,
		Format:        format,
		Usage:         usage,
		MipLevelCount: 1,
	}
}

func newTestTexture(t *testing.T, d *Driver, desc *rhi.TextureDescriptor, data []byte) *texture {
	t.Helper()
	res, err := d.NewTexture(desc, data)
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	return res.(*texture)
}

func nativeBuffer(b *buffer) *fakeBuffer { return b.res.(*fakeBuffer) }
func nativeTexture(t *texture) *fakeTexture { return t.res.(*fakeTexture) }

func TestBufferPools(t *testing.T) {
	tests := []struct {
		usage rhi.BufferUsage
		want  [2]uint32
	}{
		{rhi.BufferUsageStaticDraw, [2]uint32{uint32(UsageWriteOnly), uint32(PoolManaged)}},
		{rhi.BufferUsageStaticRead, [2]uint32{0, uint32(PoolManaged)}},
		{rhi.BufferUsageDynamicDraw, [2]uint32{uint32(UsageWriteOnly | UsageDynamic), uint32(PoolDefault)}},
		{rhi.BufferUsageStreamDraw, [2]uint32{uint32(UsageWriteOnly | UsageDynamic), uint32(PoolDefault)}},
		{rhi.BufferUsageDynamicRead, [2]uint32{0, uint32(PoolManaged)}},
	}
	for _, tt := range tests {
		d, f := openDriver(t)
		newTestBuffer(t, d, rhi.ResourceTypeVertexBuffer, tt.usage, 16, nil)
		vb := f.created("vertex buffer")
		if len(vb) != 1 || vb[0].desc != tt.want {
			t.Errorf("%v: vertex buffers %v, want desc %v", tt.usage, vb, tt.want)
		}
	}
}

func TestBufferInitialData(t *testing.T) {
	d, f := openDriver(t)
	b := newTestBuffer(t, d, rhi.ResourceTypeVertexBuffer, rhi.BufferUsageStaticDraw, 8, []byte{1, 2})
	fb := nativeBuffer(b)
	if want := []byte{1, 2, 0, 0, 0, 0, 0, 0}; !bytes.Equal(fb.data, want) {
		t.Errorf("contents = %v, want %v", fb.data, want)
	}
	if len(fb.locks) != 1 || fb.locks[0] != 0 || fb.unlocks != 1 {
		t.Errorf("locks %v unlocks %d", fb.locks, fb.unlocks)
	}

	dyn := newTestBuffer(t, d, rhi.ResourceTypeVertexBuffer, rhi.BufferUsageDynamicDraw, 4, []byte{7})
	if locks := nativeBuffer(dyn).locks; len(locks) != 1 || locks[0] != LockDiscard {
		t.Errorf("dynamic fill locks = %v, want a discard", locks)
	}

	f.fail["vertex buffer"] = errFake
	if _, err := d.NewBuffer(&rhi.BufferDescriptor{Kind: rhi.ResourceTypeVertexBuffer, Size: 4}, nil); !errors.Is(err, errFake) {
		t.Errorf("NewBuffer err = %v, want the device error", err)
	}
	if d.Live() != 2 {
		t.Errorf("Live = %d, want 2", d.Live())
	}
}

func TestIndexBuffer(t *testing.T) {
	d, f := openDriver(t)
	res, err := d.NewBuffer(&rhi.BufferDescriptor{
		Kind:        rhi.ResourceTypeIndexBuffer,
		Size:        12,
		Usage:       rhi.BufferUsageStaticDraw,
		IndexFormat: gputypes.IndexFormatUint32,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	res.Destroy()
	ib := f.created("index buffer")
	want := [3]uint32{uint32(UsageWriteOnly), uint32(FormatIndex32), uint32(PoolManaged)}
	if len(ib) != 1 || ib[0].desc != want || ib[0].released != 1 {
		t.Errorf("index buffers = %+v", ib)
	}

	f = newFakeDevice(3)
	f.caps.MaxVertexIndex = 0xFFFF
	d = openFake(t, f, Options{})
	_, err = d.NewBuffer(&rhi.BufferDescriptor{Kind: rhi.ResourceTypeIndexBuffer, Size: 12, IndexFormat: gputypes.IndexFormatUint32}, nil)
	if !errors.Is(err, rhi.ErrUnsupported) {
		t.Errorf("32-bit indices err = %v, want ErrUnsupported", err)
	}
	if _, err := d.NewBuffer(&rhi.BufferDescriptor{Kind: rhi.ResourceTypeIndirectBuffer, Size: 16}, nil); !errors.Is(err, rhi.ErrUnsupported) {
		t.Errorf("indirect buffer err = %v, want ErrUnsupported", err)
	}
}

func TestBufferMap(t *testing.T) {
	d, _ := openDriver(t)
	static := newTestBuffer(t, d, rhi.ResourceTypeVertexBuffer, rhi.BufferUsageStaticDraw, 8, nil)
	dyn := newTestBuffer(t, d, rhi.ResourceTypeVertexBuffer, rhi.BufferUsageDynamicDraw, 8, nil)
	tests := []struct {
		b    *buffer
		mode rhi.MapType
		want LockFlags
	}{
		{static, rhi.MapRead, LockReadOnly},
		{static, rhi.MapReadWrite, 0},
		{static, rhi.MapWrite, 0},
		{dyn, rhi.MapWriteDiscard, LockDiscard},
		{dyn, rhi.MapWriteNoOverwrite, LockNoOverwrite},
		{dyn, rhi.MapWrite, LockNoOverwrite},
	}
	for _, tt := range tests {
		m, err := tt.b.Map(0, tt.mode)
		if err != nil {
			t.Fatalf("Map(%v): %v", tt.mode, err)
		}
		if len(m.Data) != 8 || m.RowPitch != 8 {
			t.Errorf("Map(%v) = %d bytes pitch %d", tt.mode, len(m.Data), m.RowPitch)
		}
		locks := nativeBuffer(tt.b).locks
		if got := locks[len(locks)-1]; got != tt.want {
			t.Errorf("Map(%v) lock flags = %#x, want %#x", tt.mode, got, tt.want)
		}
		tt.b.Unmap(0)
	}

	if _, err := dyn.Map(0, rhi.MapRead); !errors.Is(err, rhi.ErrNotMappable) {
		t.Errorf("dynamic read err = %v, want ErrNotMappable", err)
	}
	if _, err := static.Map(1, rhi.MapWrite); !errors.Is(err, rhi.ErrNotMappable) {
		t.Errorf("Map(1) err = %v, want ErrNotMappable", err)
	}
	if _, err := static.Map(0, rhi.MapWrite); err != nil {
		t.Fatal(err)
	}
	if _, err := static.Map(0, rhi.MapWrite); !errors.Is(err, rhi.ErrAlreadyMapped) {
		t.Errorf("second Map err = %v, want ErrAlreadyMapped", err)
	}
	static.Destroy()
	if fb := nativeBuffer(static); fb.unlocks != len(fb.locks) || fb.released != 1 {
		t.Errorf("destroyed while mapped: locks %d unlocks %d released %d", len(fb.locks), fb.unlocks, fb.released)
	}
	if _, err := static.Map(0, rhi.MapWrite); !errors.Is(err, errDestroyed) {
		t.Errorf("Map after Destroy err = %v", err)
	}

	nativeBuffer(dyn).lockErr = errFake
	if _, err := dyn.Map(0, rhi.MapWriteDiscard); !errors.Is(err, rhi.ErrNotMappable) || !errors.Is(err, errFake) {
		t.Errorf("failed lock err = %v", err)
	}
}

func TestUniformBuffer(t *testing.T) {
	d, f := openDriver(t)
	b := newTestBuffer(t, d, rhi.ResourceTypeUniformBuffer, rhi.BufferUsageDynamicDraw, 20, []byte{1})
	if b.res != nil {
		t.Error("uniform buffer created a native buffer")
	}
	if len(b.data) != 32 {
		t.Errorf("uniform storage = %d bytes, want 32", len(b.data))
	}
	if len(f.buffers) != 0 {
		t.Errorf("native buffers = %d", len(f.buffers))
	}
	m, err := b.Map(0, rhi.MapRead)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Data) != 20 || m.Data[0] != 1 {
		t.Errorf("mapped %v", m.Data)
	}
	b.Unmap(0)

	if _, err := d.NewBuffer(&rhi.BufferDescriptor{Kind: rhi.ResourceTypeUniformBuffer, Size: maxUniformSize + 16}, nil); !errors.Is(err, rhi.ErrUnsupported) {
		t.Errorf("oversized uniform err = %v, want ErrUnsupported", err)
	}
}

func TestTexturePool(t *testing.T) {
	rt := func(format gputypes.TextureFormat, usage rhi.TextureUsage) *rhi.TextureDescriptor {
		desc := texDesc(rhi.ResourceTypeTexture2D, format, usage)
		desc.Flags = rhi.TextureFlagRenderTarget
		return desc
	}
	tests := []struct {
		name  string
		desc  *rhi.TextureDescriptor
		pool  Pool
		usage Usage
		err   error
	}{
		{"default", texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm, rhi.TextureUsageDefault), PoolManaged, 0, nil},
		{"immutable", texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm, rhi.TextureUsageImmutable), PoolManaged, 0, nil},
		{"dynamic", texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm, rhi.TextureUsageDynamic), PoolDefault, UsageDynamic, nil},
		{"staging", texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm, rhi.TextureUsageStaging), PoolSystemMem, 0, nil},
		{"color target", rt(gputypes.TextureFormatBGRA8Unorm, rhi.TextureUsageDefault), PoolDefault, UsageRenderTarget, nil},
		{"depth target", rt(gputypes.TextureFormatDepth24PlusStencil8, rhi.TextureUsageDefault), PoolDefault, UsageDepthStencil, nil},
		{"dynamic target", rt(gputypes.TextureFormatBGRA8Unorm, rhi.TextureUsageDynamic), 0, 0, rhi.ErrUnsupported},
		{"sampled depth", texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatDepth16Unorm, rhi.TextureUsageDefault), 0, 0, rhi.ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, usage, err := texturePool(tt.desc)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if pool != tt.pool || usage != tt.usage {
				t.Errorf("pool %d usage %#x, want %d %#x", pool, usage, tt.pool, tt.usage)
			}
		})
	}
}

func TestNewTexture(t *testing.T) {
	d, f := openDriver(t)
	desc := texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm, rhi.TextureUsageDefault)
	desc.MipLevelCount = 3
	data := make([]byte, 4*4*4)
	for i := range data {
		data[i] = byte(i)
	}
	tex := newTestTexture(t, d, desc, data)
	td := f.textures[0].desc.(TextureDesc)
	want := TextureDesc{Type: ResourceTexture, Width: 4, Height: 4, Depth: 1, Levels: 3, Format: FormatA8B8G8R8, Pool: PoolManaged}
	if td != want {
		t.Errorf("desc = %+v, want %+v", td, want)
	}

	// Rows land at the native pitch.
	level := nativeTexture(tex).levels[[2]uint32{0, 0}]
	for r := range 4 {
		row := level[r*fakePitch : r*fakePitch+16]
		if !bytes.Equal(row, data[r*16:r*16+16]) {
			t.Errorf("row %d = %v", r, row)
		}
	}
	if nativeTexture(tex).unlocks != 1 {
		t.Errorf("unlocks = %d, want 1", nativeTexture(tex).unlocks)
	}
	tex.Destroy()
	if f.textures[0].released != 1 {
		t.Error("native texture not released")
	}
}

func TestNewTextureCube(t *testing.T) {
	d, f := openDriver(t)
	desc := texDesc(rhi.ResourceTypeTextureCube, gputypes.TextureFormatBGRA8Unorm, rhi.TextureUsageDefault)
	data := make([]byte, 6*4*4*4)
	for face := range 6 {
		data[face*64] = byte(face + 1)
	}
	tex := newTestTexture(t, d, desc, data)
	if td := f.textures[0].desc.(TextureDesc); td.Type != ResourceCubeTexture || td.Format != FormatA8R8G8B8 {
		t.Errorf("desc = %+v", td)
	}
	for face := range uint32(6) {
		level := nativeTexture(tex).levels[[2]uint32{face, 0}]
		if level == nil || level[0] != byte(face+1) {
			t.Errorf("face %d not uploaded", face)
		}
	}
}

func TestNewTextureErrors(t *testing.T) {
	d, f := openDriver(t)
	f.unsupported[FormatR32F] = true
	tests := []struct {
		name string
		desc *rhi.TextureDescriptor
	}{
		{"array", texDesc(rhi.ResourceTypeTexture2DArray, gputypes.TextureFormatRGBA8Unorm, rhi.TextureUsageDefault)},
		{"buffer", texDesc(rhi.ResourceTypeTextureBuffer, gputypes.TextureFormatRGBA8Unorm, rhi.TextureUsageDefault)},
		{"srgb", texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8UnormSrgb, rhi.TextureUsageDefault)},
		{"device format", texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatR32Float, rhi.TextureUsageDefault)},
	}
	for _, tt := range tests {
		if _, err := d.NewTexture(tt.desc, nil); !errors.Is(err, rhi.ErrUnsupported) {
			t.Errorf("%s: err = %v, want ErrUnsupported", tt.name, err)
		}
	}
	if len(f.textures) != 0 || d.Live() != 0 {
		t.Errorf("failed creates left %d textures, %d live", len(f.textures), d.Live())
	}

	f.fail["texture"] = errFake
	if _, err := d.NewTexture(texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm, rhi.TextureUsageDefault), nil); !errors.Is(err, errFake) {
		t.Errorf("device failure err = %v", err)
	}
}

func TestRenderTargetDataIgnored(t *testing.T) {
	d, f := openDriver(t)
	desc := texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatBGRA8Unorm, rhi.TextureUsageDefault)
	desc.Flags = rhi.TextureFlagRenderTarget
	tex := newTestTexture(t, d, desc, make([]byte, 64))
	if len(nativeTexture(tex).locks) != 0 {
		t.Error("render target texture was locked")
	}
	if _, err := tex.Map(0, rhi.MapWrite); !errors.Is(err, rhi.ErrNotMappable) {
		t.Errorf("Map err = %v, want ErrNotMappable", err)
	}
	if len(f.textures) != 1 {
		t.Errorf("textures = %d", len(f.textures))
	}
}

func TestTextureMap(t *testing.T) {
	d, _ := openDriver(t)
	managed := newTestTexture(t, d, texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm, rhi.TextureUsageDefault), nil)
	dynamic := newTestTexture(t, d, texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm, rhi.TextureUsageDynamic), nil)
	immutable := newTestTexture(t, d, texDesc(rhi.ResourceTypeTexture2D, gputypes.TextureFormatRGBA8Unorm, rhi.TextureUsageImmutable), make([]byte, 64))

	m, err := managed.Map(0, rhi.MapRead)
	if err != nil {
		t.Fatal(err)
	}
	if m.RowPitch != fakePitch || m.DepthPitch != fakePitch*4 {
		t.Errorf("pitches %d %d, want %d %d", m.RowPitch, m.DepthPitch, fakePitch, fakePitch*4)
	}
	if locks := nativeTexture(managed).locks; locks[len(locks)-1] != LockReadOnly {
		t.Errorf("read lock flags = %#x", locks[len(locks)-1])
	}
	if _, err := managed.Map(0, rhi.MapWrite); !errors.Is(err, rhi.ErrAlreadyMapped) {
		t.Errorf("second Map err = %v", err)
	}
	managed.Unmap(0)
	managed.Unmap(0)
	if nativeTexture(managed).unlocks != 1 {
		t.Errorf("unlocks = %d, want 1", nativeTexture(managed).unlocks)
	}

	if _, err := dynamic.Map(0, rhi.MapWriteDiscard); err != nil {
		t.Fatal(err)
	}
	if locks := nativeTexture(dynamic).locks; locks[len(locks)-1] != LockDiscard {
		t.Errorf("dynamic lock flags = %#x", locks[len(locks)-1])
	}
	dynamic.Unmap(0)

	tests := []struct {
		name string
		tex  *texture
		sub  uint32
		mode rhi.MapType
	}{
		{"dynamic write", dynamic, 0, rhi.MapWrite},
		{"dynamic read", dynamic, 0, rhi.MapRead},
		{"immutable", immutable, 0, rhi.MapRead},
		{"out of range", managed, 1, rhi.MapRead},
	}
	for _, tt := range tests {
		if _, err := tt.tex.Map(tt.sub, tt.mode); !errors.Is(err, rhi.ErrNotMappable) {
			t.Errorf("%s: err = %v, want ErrNotMappable", tt.name, err)
		}
	}

	if _, err := managed.Map(0, rhi.MapWrite); err != nil {
		t.Fatal(err)
	}
	managed.Destroy()
	if ft := nativeTexture(managed); ft.unlocks != 2 || ft.released != 1 {
		t.Errorf("destroy while mapped: unlocks %d released %d", ft.unlocks, ft.released)
	}
	managed.Destroy()
	if nativeTexture(managed).released != 1 {
		t.Error("double destroy released twice")
	}
}

func TestCopyRowsCompressed(t *testing.T) {
	data := make([]byte, 16)
	for i := range data {
		data[i] = byte(i + 1)
	}
	// An 8x8 BC1 image is two rows of two 8-byte blocks.
	sub := rhi.SubresourceData{Width: 8, Height: 8, Depth: 1, RowPitch: 16, SlicePitch: 32, Data: append(data, data...)}
	dst := LockedRect{Data: make([]byte, 128), Pitch: 64}
	copyRows(dst, sub)
	if !bytes.Equal(dst.Data[:16], data) || !bytes.Equal(dst.Data[64:80], data) {
		t.Errorf("block rows not copied at the pitch: %v", dst.Data)
	}
	if dst.Data[16] != 0 {
		t.Error("copy ran past the row")
	}
}
