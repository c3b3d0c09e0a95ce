// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

// TextureCollection is an immutable group of textures bound to a contiguous
// range of units in one call. It holds one reference to every element.
type TextureCollection struct {
	resource
	textures []*Texture
}

// Len returns the number of slots.
func (c *TextureCollection) Len() int { return len(c.textures) }

// At returns the texture in slot i. Slots whose texture was rejected at
// construction are nil.
func (c *TextureCollection) At(i int) *Texture { return c.textures[i] }

// SamplerStateCollection is an immutable group of sampler states bound to a
// contiguous range of units in one call.
type SamplerStateCollection struct {
	resource
	samplers []*SamplerState
}

func (c *SamplerStateCollection) Len() int               { return len(c.samplers) }
func (c *SamplerStateCollection) At(i int) *SamplerState { return c.samplers[i] }

// CreateTextureCollection groups textures. Elements created by another
// renderer are logged and left out of the collection; nil elements are kept
// as empty slots.
func (r *Renderer) CreateTextureCollection(textures []*Texture) (*TextureCollection, error) {
	if err := r.checkReady(); err != nil {
		return nil, err
	}
	c := &TextureCollection{textures: make([]*Texture, len(textures))}
	for i, t := range textures {
		if t == nil || !r.owns(t, "CreateTextureCollection") {
			continue
		}
		t.AddReference()
		c.textures[i] = t
	}
	c.init(r, ResourceTypeTextureCollection, nil, func() {
		for i, t := range c.textures {
			if t != nil {
				t.Release()
				c.textures[i] = nil
			}
		}
	})
	return c, nil
}

// CreateSamplerStateCollection groups sampler states, with the same element
// rules as CreateTextureCollection.
func (r *Renderer) CreateSamplerStateCollection(samplers []*SamplerState) (*SamplerStateCollection, error) {
	if err := r.checkReady(); err != nil {
		return nil, err
	}
	c := &SamplerStateCollection{samplers: make([]*SamplerState, len(samplers))}
	for i, s := range samplers {
		if s == nil || !r.owns(s, "CreateSamplerStateCollection") {
			continue
		}
		s.AddReference()
		c.samplers[i] = s
	}
	c.init(r, ResourceTypeSamplerStateCollection, nil, func() {
		for i, s := range c.samplers {
			if s != nil {
				s.Release()
				c.samplers[i] = nil
			}
		}
	})
	return c, nil
}
