package grender

import (
	"image"
	"strconv"
	"sync/atomic"
)

// TextureID is a backend texture identifier. The zero value means no texture.
type TextureID uint32

// AtlasHandle uniquely identifies a TextureAtlas for its whole lifetime.
type AtlasHandle uint32

func (h AtlasHandle) String() string {
	return "atlas#" + strconv.FormatUint(uint64(h), 10)
}

// Quad is a textured quad staged in a TextureAtlas.
//
// Src is the source rectangle in texture pixels. Transform maps quad-local
// space, where the quad covers (0, 0)-(Src.Dx(), Src.Dy()), into command space.
type Quad struct {
	Src       image.Rectangle
	Transform Affine
}

// QuadRange is a contiguous range of quads staged in a TextureAtlas.
type QuadRange struct {
	Start int
	Count int
}

// End returns the index following the last quad in the range.
func (r QuadRange) End() int { return r.Start + r.Count }

// Empty reports whether the range holds no quads.
func (r QuadRange) Empty() bool { return r.Count <= 0 }

// A TextureAtlas is a texture packed with many small images, together with the
// quads staged against it for the current frame.
//
// Render commands reference atlases, they never own them. Once released, an
// atlas must not be drawn: a Renderer skips commands referencing it and reports
// an InvalidResourceReference.
type TextureAtlas struct {
	handle   AtlasHandle
	texture  TextureID
	quads    []Quad
	released atomic.Bool
}

// NewTextureAtlas returns a new atlas wrapping texture t.
func NewTextureAtlas(h AtlasHandle, t TextureID) *TextureAtlas {
	return &TextureAtlas{handle: h, texture: t}
}

func (a *TextureAtlas) Handle() AtlasHandle { return a.handle }
func (a *TextureAtlas) Texture() TextureID  { return a.texture }

// Stage appends quads to the atlas and returns their range.
func (a *TextureAtlas) Stage(q ...Quad) QuadRange {
	r := QuadRange{Start: len(a.quads), Count: len(q)}
	a.quads = append(a.quads, q...)
	return r
}

// Quads returns all staged quads. The returned slice must not be modified.
func (a *TextureAtlas) Quads() []Quad { return a.quads }

// QuadsIn returns the staged quads in range r, or nil if r is out of bounds.
func (a *TextureAtlas) QuadsIn(r QuadRange) []Quad {
	if !a.Contains(r) {
		return nil
	}
	return a.quads[r.Start:r.End()]
}

// Contains reports whether r lies within the staged quads.
func (a *TextureAtlas) Contains(r QuadRange) bool {
	return r.Start >= 0 && r.Count >= 0 && r.End() <= len(a.quads)
}

// Len returns the number of staged quads.
func (a *TextureAtlas) Len() int { return len(a.quads) }

// ResetQuads drops all staged quads and keeps the underlying storage.
func (a *TextureAtlas) ResetQuads() { a.quads = a.quads[:0] }

// Release marks the atlas as released. It is safe for concurrent use.
func (a *TextureAtlas) Release() { a.released.Store(true) }

// Released reports whether Release has been called.
func (a *TextureAtlas) Released() bool { return a.released.Load() }

func (a *TextureAtlas) String() string { return a.handle.String() }
