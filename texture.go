package strata

import "image"

// Texture is 2D pixel storage owned by a graphics device.
type Texture interface {
	// Size returns the texture dimensions in pixels.
	Size() image.Point
	// Upload writes src's pixels with src.Bounds().Min mapped to dst.
	Upload(dst image.Point, src image.Image)
	// Copy copies srcRect of src into this texture at dst. Blending is not
	// applied; destination pixels are replaced.
	Copy(src Texture, srcRect image.Rectangle, dst image.Point)
	// Clear sets every pixel to transparent black.
	Clear()
	// Dispose releases the texture. It must not be used afterwards.
	Dispose()
}

// TextureOptions configures texture allocation. The zero value is a
// nearest-filtered texture.
type TextureOptions struct {
	Filter Filter
}

// Device allocates textures. Allocation failures are reported as errors and
// surface from strata wrapped in ErrOutOfMemory.
type Device interface {
	NewTexture(width, height int, opts TextureOptions) (Texture, error)
}

// textureSlot is the shared cell behind an OwnedTexture and all of its refs.
type textureSlot struct {
	tex    Texture
	filter Filter
}

// TextureRef is a non-owning handle to a texture. It follows its owner across
// reallocation and becomes empty once the owner is disposed, so a held
// reference is always either valid or explicitly empty.
//
// TextureRef values are comparable; two refs are equal when they refer to the
// same owner.
type TextureRef struct {
	slot *textureSlot
}

// Texture returns the referenced texture, or nil if the reference is empty.
func (r TextureRef) Texture() Texture {
	if r.slot == nil {
		return nil
	}
	return r.slot.tex
}

// Empty reports whether the reference currently resolves to no texture.
func (r TextureRef) Empty() bool {
	return r.slot == nil || r.slot.tex == nil
}

// IsZero reports whether r was never bound to an owner.
func (r TextureRef) IsZero() bool {
	return r.slot == nil
}

// Filter returns the owner's sampling filter.
func (r TextureRef) Filter() Filter {
	if r.slot == nil {
		return FilterNearest
	}
	return r.slot.filter
}

// OwnedTexture exclusively owns a texture and hands out TextureRefs to it.
type OwnedTexture struct {
	slot *textureSlot
}

// Own takes ownership of tex. A nil tex yields an owner whose refs are empty
// until Replace is called.
func Own(tex Texture, filter Filter) *OwnedTexture {
	return &OwnedTexture{slot: &textureSlot{tex: tex, filter: filter}}
}

// Ref returns a reference that tracks this owner.
func (o *OwnedTexture) Ref() TextureRef {
	return TextureRef{slot: o.slot}
}

// Texture returns the owned texture, or nil.
func (o *OwnedTexture) Texture() Texture {
	return o.slot.tex
}

// Replace swaps in a new texture, disposing the previous one. Existing refs
// observe the new texture.
func (o *OwnedTexture) Replace(tex Texture) {
	old := o.slot.tex
	o.slot.tex = tex
	if old != nil && old != tex {
		old.Dispose()
	}
}

// Dispose releases the texture and empties every reference to it.
func (o *OwnedTexture) Dispose() {
	if o.slot.tex != nil {
		o.slot.tex.Dispose()
		o.slot.tex = nil
	}
}
