// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"fmt"
	"image"
	"iter"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/rhi/internal/mipgen"
)

// TextureFlags modify how a texture is created.
type TextureFlags uint8

// Texture flags.
const (
	// TextureFlagRenderTarget allows the texture as a framebuffer attachment.
	TextureFlagRenderTarget TextureFlags = 1 << iota

	// TextureFlagGenerateMipmaps fills the mip chain from level 0.
	TextureFlagGenerateMipmaps

	// TextureFlagDataContainsMipmaps marks initial data as holding every
	// mip level, level-major: all layers of level 0, then level 1, ...
	TextureFlagDataContainsMipmaps
)

// Has reports whether every flag in f2 is set.
func (f TextureFlags) Has(f2 TextureFlags) bool { return f&f2 == f2 }

// TextureUsage is the expected CPU/GPU access pattern.
type TextureUsage uint8

// Texture usages.
const (
	TextureUsageDefault TextureUsage = iota
	TextureUsageImmutable
	TextureUsageDynamic
	TextureUsageStaging
)

// TextureDescriptor describes a texture of any kind.
//
// Kind is one of the texture resource types. DepthOrLayers is the depth of
// a 3D texture, the layer count of a 2D array, and ignored otherwise.
// A zero MipLevelCount selects one level, or a full chain when mipmaps are
// generated or supplied.
type TextureDescriptor struct {
	Label         string
	Kind          ResourceType
	Width         uint32
	Height        uint32
	DepthOrLayers uint32
	Format        gputypes.TextureFormat
	Flags         TextureFlags
	Usage         TextureUsage
	MipLevelCount uint32
}

// Layers returns the number of 2D images per mip level.
func (d *TextureDescriptor) Layers() uint32 {
	switch d.Kind {
	case ResourceTypeTexture2DArray:
		return d.DepthOrLayers
	case ResourceTypeTextureCube:
		return 6
	}
	return 1
}

// Depth returns the depth of mip level 0.
func (d *TextureDescriptor) Depth() uint32 {
	if d.Kind == ResourceTypeTexture3D {
		return d.DepthOrLayers
	}
	return 1
}

// Subresource returns the subresource index of a mip level in a layer.
func (d *TextureDescriptor) Subresource(mipLevel, layer uint32) uint32 {
	return mipLevel + layer*d.MipLevelCount
}

// DataSize returns the byte length of initial data for the descriptor,
// covering every level when the data contains mipmaps.
func (d *TextureDescriptor) DataSize() uint64 {
	levels := uint32(1)
	if d.Flags.Has(TextureFlagDataContainsMipmaps) {
		levels = d.MipLevelCount
	}
	if d.Kind == ResourceTypeTextureBuffer {
		return uint64(d.Width) * uint64(BytesPerPixel(d.Format))
	}
	var n uint64
	for level := range levels {
		w, h := MipSize(d.Width, level), MipSize(d.Height, level)
		depth := MipSize(d.Depth(), level)
		n += uint64(SlicePitch(d.Format, w, h)) * uint64(depth) * uint64(d.Layers())
	}
	return n
}

// SubresourceData is one subresource of initial texture data.
type SubresourceData struct {
	MipLevel, Layer      uint32
	Width, Height, Depth uint32
	RowPitch, SlicePitch uint32
	Data                 []byte
}

// InitialData splits level-major initial data into subresources, in upload
// order. Only level 0 is produced unless the data contains mipmaps, and
// iteration stops early when data runs out.
func (d *TextureDescriptor) InitialData(data []byte) iter.Seq[SubresourceData] {
	return func(yield func(SubresourceData) bool) {
		if len(data) == 0 {
			return
		}
		levels := uint32(1)
		if d.Flags.Has(TextureFlagDataContainsMipmaps) {
			levels = max(d.MipLevelCount, 1)
		}
		off := uint64(0)
		for level := range levels {
			w, h := MipSize(d.Width, level), MipSize(d.Height, level)
			depth := MipSize(d.Depth(), level)
			row, slice := RowPitch(d.Format, w), SlicePitch(d.Format, w, h)
			size := uint64(slice) * uint64(depth)
			for layer := range d.Layers() {
				if off+size > uint64(len(data)) {
					return
				}
				sub := SubresourceData{
					MipLevel: level, Layer: layer,
					Width: w, Height: h, Depth: depth,
					RowPitch: row, SlicePitch: slice,
					Data: data[off : off+size],
				}
				if !yield(sub) {
					return
				}
				off += size
			}
		}
	}
}

// Texture is a 2D, 2D array, 3D, cube or buffer-backed texture.
type Texture struct {
	resource
	desc   TextureDescriptor
	handle NativeResource
	mapped map[uint32]struct{}
}

// Descriptor returns the resolved descriptor the texture was created with.
func (t *Texture) Descriptor() TextureDescriptor { return t.desc }

func (t *Texture) Width() uint32                  { return t.desc.Width }
func (t *Texture) Height() uint32                 { return t.desc.Height }
func (t *Texture) Format() gputypes.TextureFormat { return t.desc.Format }
func (t *Texture) MipLevelCount() uint32          { return t.desc.MipLevelCount }

// Native returns the wrapped driver handle.
func (t *Texture) Native() NativeResource { return t.handle }

// Is2D reports whether the texture can be a framebuffer attachment.
func (t *Texture) Is2D() bool { return t.desc.Kind == ResourceTypeTexture2D }

// Map gives CPU access to one subresource. It returns false when the driver
// cannot map this texture or mode, or when the subresource is already mapped.
func (t *Texture) Map(subresource uint32, mode MapType) (MappedSubresource, bool) {
	if t.handle == nil || t.released.Load() {
		return MappedSubresource{}, false
	}
	if _, ok := t.mapped[subresource]; ok {
		Logger().Debug("rhi: texture subresource already mapped", "name", t.name, "subresource", subresource)
		return MappedSubresource{}, false
	}
	m, err := t.handle.Map(subresource, mode)
	if err != nil {
		Logger().Debug("rhi: texture map failed", "name", t.name, "subresource", subresource, "mode", mode, "err", err)
		return MappedSubresource{}, false
	}
	if t.mapped == nil {
		t.mapped = make(map[uint32]struct{})
	}
	t.mapped[subresource] = struct{}{}
	return m, true
}

// Unmap ends a Map. Unmapping a subresource that is not mapped does nothing.
func (t *Texture) Unmap(subresource uint32) {
	if _, ok := t.mapped[subresource]; !ok {
		return
	}
	delete(t.mapped, subresource)
	t.handle.Unmap(subresource)
}

// CreateTexture2D creates a 2D texture.
func (r *Renderer) CreateTexture2D(width, height uint32, format gputypes.TextureFormat, data []byte, flags TextureFlags, usage TextureUsage) (*Texture, error) {
	return r.CreateTexture(TextureDescriptor{
		Kind:   ResourceTypeTexture2D,
		Width:  width,
		Height: height,
		Format: format,
		Flags:  flags,
		Usage:  usage,
	}, data)
}

// CreateTexture2DArray creates an array of layers 2D images.
func (r *Renderer) CreateTexture2DArray(width, height, layers uint32, format gputypes.TextureFormat, data []byte, flags TextureFlags, usage TextureUsage) (*Texture, error) {
	return r.CreateTexture(TextureDescriptor{
		Kind:          ResourceTypeTexture2DArray,
		Width:         width,
		Height:        height,
		DepthOrLayers: layers,
		Format:        format,
		Flags:         flags,
		Usage:         usage,
	}, data)
}

// CreateTexture3D creates a volume texture.
func (r *Renderer) CreateTexture3D(width, height, depth uint32, format gputypes.TextureFormat, data []byte, flags TextureFlags, usage TextureUsage) (*Texture, error) {
	return r.CreateTexture(TextureDescriptor{
		Kind:          ResourceTypeTexture3D,
		Width:         width,
		Height:        height,
		DepthOrLayers: depth,
		Format:        format,
		Flags:         flags,
		Usage:         usage,
	}, data)
}

// CreateTextureCube creates a cube map. Data holds six faces per level in
// +X, -X, +Y, -Y, +Z, -Z order.
func (r *Renderer) CreateTextureCube(size uint32, format gputypes.TextureFormat, data []byte, flags TextureFlags, usage TextureUsage) (*Texture, error) {
	return r.CreateTexture(TextureDescriptor{
		Kind:   ResourceTypeTextureCube,
		Width:  size,
		Height: size,
		Format: format,
		Flags:  flags,
		Usage:  usage,
	}, data)
}

// CreateTextureBuffer creates a buffer-backed texture of texels elements.
func (r *Renderer) CreateTextureBuffer(texels uint32, format gputypes.TextureFormat, data []byte, usage TextureUsage) (*Texture, error) {
	return r.CreateTexture(TextureDescriptor{
		Kind:   ResourceTypeTextureBuffer,
		Width:  texels,
		Height: 1,
		Format: format,
		Usage:  usage,
	}, data)
}

// CreateTextureFromImage uploads img as an RGBA8 2D texture. With
// TextureFlagGenerateMipmaps the chain is built on the CPU when the driver
// cannot generate it.
func (r *Renderer) CreateTextureFromImage(img image.Image, flags TextureFlags) (*Texture, error) {
	if img == nil {
		return nil, r.creationFailed(ResourceTypeTexture2D, fmt.Errorf("%w: nil image", ErrMissingData))
	}
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return r.CreateTexture2D(uint32(b.Dx()), uint32(b.Dy()), gputypes.TextureFormatRGBA8Unorm,
		rgba.Pix, flags&^TextureFlagDataContainsMipmaps, TextureUsageDefault)
}

// CreateTexture creates a texture of any kind. data may be nil unless the
// usage is immutable; when present it must cover the whole texture.
func (r *Renderer) CreateTexture(desc TextureDescriptor, data []byte) (*Texture, error) {
	if err := r.checkReady(); err != nil {
		return nil, err
	}
	typ := desc.Kind
	if !typ.IsTexture() {
		return nil, r.creationFailed(ResourceTypeTexture2D, fmt.Errorf("%w: %v is not a texture kind", ErrInvalidDescriptor, typ))
	}
	if err := r.validateTexture(&desc); err != nil {
		return nil, r.creationFailed(typ, err)
	}

	if data == nil && desc.Usage == TextureUsageImmutable {
		return nil, r.creationFailed(typ, fmt.Errorf("%w: immutable texture needs initial data", ErrMissingData))
	}
	if data != nil {
		data = r.prepareMipmaps(&desc, data)
		if need := desc.DataSize(); uint64(len(data)) < need {
			return nil, r.creationFailed(typ, fmt.Errorf("%w: got %d bytes, need %d", ErrMissingData, len(data), need))
		}
	}

	defer r.debugEvent("Create" + typ.String())()
	native, err := r.driver.NewTexture(&desc, data)
	if err != nil {
		return nil, r.creationFailed(typ, err)
	}
	t := &Texture{desc: desc, handle: native}
	t.init(r, typ, native, nil)
	if desc.Label != "" {
		t.SetDebugName(desc.Label)
	}
	return t, nil
}

func (r *Renderer) validateTexture(desc *TextureDescriptor) error {
	if desc.Width == 0 || desc.Height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, desc.Width, desc.Height)
	}
	if dim, _ := BlockInfo(desc.Format); dim == 0 {
		return fmt.Errorf("%w: texture format %v", ErrUnsupported, desc.Format)
	}
	limit := r.caps.MaxTextureDimension
	if limit != 0 && desc.Kind != ResourceTypeTextureBuffer && (desc.Width > limit || desc.Height > limit) {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrInvalidDimensions, desc.Width, desc.Height, limit)
	}

	switch desc.Kind {
	case ResourceTypeTexture2D:
		desc.DepthOrLayers = 1
	case ResourceTypeTexture2DArray:
		if !r.caps.Texture2DArray {
			return fmt.Errorf("%w: 2D texture arrays", ErrUnsupported)
		}
		if desc.DepthOrLayers == 0 {
			return fmt.Errorf("%w: zero layers", ErrInvalidDimensions)
		}
		if l := r.caps.MaxTextureArrayLayers; l != 0 && desc.DepthOrLayers > l {
			return fmt.Errorf("%w: %d layers exceeds %d", ErrInvalidDimensions, desc.DepthOrLayers, l)
		}
	case ResourceTypeTexture3D:
		if !r.caps.Texture3D {
			return fmt.Errorf("%w: 3D textures", ErrUnsupported)
		}
		if desc.DepthOrLayers == 0 {
			return fmt.Errorf("%w: zero depth", ErrInvalidDimensions)
		}
	case ResourceTypeTextureCube:
		if desc.Width != desc.Height {
			return fmt.Errorf("%w: cube face %dx%d is not square", ErrInvalidDimensions, desc.Width, desc.Height)
		}
		desc.DepthOrLayers = 6
	case ResourceTypeTextureBuffer:
		if !r.caps.TextureBuffer {
			return fmt.Errorf("%w: buffer textures", ErrUnsupported)
		}
		if IsCompressed(desc.Format) {
			return fmt.Errorf("%w: compressed buffer texture", ErrUnsupported)
		}
		desc.Height, desc.DepthOrLayers = 1, 1
		desc.Flags &^= TextureFlagGenerateMipmaps | TextureFlagDataContainsMipmaps | TextureFlagRenderTarget
	}

	if desc.Flags.Has(TextureFlagRenderTarget) && desc.Kind != ResourceTypeTexture2D {
		Logger().Warn("rhi: render target flag ignored on non-2D texture", "kind", desc.Kind)
		desc.Flags &^= TextureFlagRenderTarget
	}

	full := MipLevelCount(desc.Width, desc.Height, desc.Depth())
	switch {
	case desc.MipLevelCount == 0 && desc.Flags&(TextureFlagGenerateMipmaps|TextureFlagDataContainsMipmaps) != 0:
		desc.MipLevelCount = full
	case desc.MipLevelCount == 0:
		desc.MipLevelCount = 1
	case desc.MipLevelCount > full:
		return fmt.Errorf("%w: %d mip levels, at most %d", ErrInvalidDescriptor, desc.MipLevelCount, full)
	}
	return nil
}

// prepareMipmaps builds the mip chain on the CPU when the driver cannot,
// or when WithCPUMipmaps forces it. Only single-layer RGBA8/BGRA8 textures
// qualify; anything else is left for the driver.
func (r *Renderer) prepareMipmaps(desc *TextureDescriptor, data []byte) []byte {
	if !desc.Flags.Has(TextureFlagGenerateMipmaps) || desc.Flags.Has(TextureFlagDataContainsMipmaps) {
		return data
	}
	if r.caps.AutoMipmaps && !r.opts.cpuMipmaps {
		return data
	}
	if desc.Kind != ResourceTypeTexture2D || !mipgen.Supported(desc.Format) {
		return data
	}
	base := int(SlicePitch(desc.Format, desc.Width, desc.Height))
	if len(data) < base {
		return data
	}
	chain := mipgen.Chain(data[:base], int(desc.Width), int(desc.Height), int(desc.MipLevelCount))
	desc.Flags = desc.Flags&^TextureFlagGenerateMipmaps | TextureFlagDataContainsMipmaps
	return chain
}
