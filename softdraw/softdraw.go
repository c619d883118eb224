// Package softdraw implements a grender.DrawManager rendering into an
// *image.RGBA. It is slow but exact, which makes it handy for tests, headless
// rendering and screenshots.
package softdraw

import (
	"image"
	"image/color"

	"github.com/db47h/grender"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// A Canvas is a software render target.
//
// Textures are stored as premultiplied *image.RGBA. Blend functions are
// evaluated per pixel and per channel like a fixed-function GPU blender would.
//
// A Canvas is not safe for concurrent use.
type Canvas struct {
	dst      *image.RGBA
	textures map[grender.TextureID]*image.RGBA
	next     grender.TextureID
	bound    *image.RGBA
	blend    grender.BlendFunc
	lost     bool
	log      *zap.Logger

	scratch *image.RGBA
	mask    *image.Alpha
}

var (
	_ grender.DrawManager      = (*Canvas)(nil)
	_ grender.Surface          = (*Canvas)(nil)
	_ grender.TextureValidator = (*Canvas)(nil)
)

// Option configures a Canvas.
type Option func(*Canvas)

// WithLogger sets the canvas logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Canvas) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a new transparent canvas of size w×h.
func New(w, h int, opts ...Option) *Canvas {
	c := &Canvas{
		dst:      image.NewRGBA(image.Rect(0, 0, w, h)),
		textures: make(map[grender.TextureID]*image.RGBA),
		blend:    grender.BlendAlphaPremultiplied,
		log:      zap.NewNop(),
		scratch:  image.NewRGBA(image.Rect(0, 0, w, h)),
		mask:     image.NewAlpha(image.Rect(0, 0, w, h)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Image returns the canvas backing image.
func (c *Canvas) Image() *image.RGBA { return c.dst }

// Size returns the canvas size in pixels.
func (c *Canvas) Size() image.Point { return c.dst.Rect.Size() }

// Clear fills the canvas with col.
func (c *Canvas) Clear(col color.Color) {
	draw.Draw(c.dst, c.dst.Rect, image.NewUniform(col), image.Point{}, draw.Src)
}

// Upload copies img into a new texture and returns its id. The returned id is
// never zero.
func (c *Canvas) Upload(img image.Image) grender.TextureID {
	b := img.Bounds()
	t := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(t, t.Rect, img, b.Min, draw.Src)
	c.next++
	c.textures[c.next] = t
	c.log.Debug("Texture uploaded", zap.Uint32("id", uint32(c.next)), zap.Int("w", b.Dx()), zap.Int("h", b.Dy()))
	return c.next
}

// DeleteTexture frees texture id. Deleting an unknown texture does nothing.
func (c *Canvas) DeleteTexture(id grender.TextureID) {
	t, ok := c.textures[id]
	if !ok {
		return
	}
	if c.bound == t {
		c.bound = nil
	}
	delete(c.textures, id)
	c.log.Debug("Texture deleted", zap.Uint32("id", uint32(id)))
}

// Texture returns the pixels of texture id, or nil if there is no such
// texture.
func (c *Canvas) Texture(id grender.TextureID) *image.RGBA { return c.textures[id] }

// TextureValid implements grender.TextureValidator.
func (c *Canvas) TextureValid(id grender.TextureID) bool {
	_, ok := c.textures[id]
	return ok
}

// Valid implements grender.Surface.
func (c *Canvas) Valid() bool { return !c.lost }

// SetLost simulates the loss or restoration of the render surface.
func (c *Canvas) SetLost(lost bool) { c.lost = lost }

func (c *Canvas) BindTexture(id grender.TextureID) {
	c.bound = c.textures[id]
}

func (c *Canvas) SetBlendFunc(b grender.BlendFunc) {
	c.blend = b
}

// SubmitQuads draws the quads in range r of atlas with the bound texture and
// blend function. Each quad is transformed by its own transform, then by m.
// Without a bound texture, SubmitQuads does nothing.
func (c *Canvas) SubmitQuads(atlas *grender.TextureAtlas, r grender.QuadRange, m grender.Affine) {
	if c.bound == nil || c.lost {
		c.log.Debug("Quads submitted without texture", zap.Stringer("atlas", atlas))
		return
	}
	qs := atlas.QuadsIn(r)
	for i := range qs {
		c.drawQuad(&qs[i], m)
	}
}

func (c *Canvas) drawQuad(q *grender.Quad, m grender.Affine) {
	sr := q.Src.Intersect(c.bound.Rect)
	if sr.Empty() {
		return
	}
	t := m.Mul(q.Transform)
	if t.Det() == 0 {
		return
	}
	// Transform samples src at its own origin, so src is a view of the quad
	// rebased to (0, 0).
	src := rebase(c.bound, sr)
	db := t.Bounds(src.Rect).Intersect(c.dst.Rect)
	if db.Empty() {
		return
	}
	s2d := f64.Aff3{
		float64(t.A), float64(t.C), float64(t.Tx),
		float64(t.B), float64(t.D), float64(t.Ty),
	}
	draw.Draw(c.mask, db, image.Transparent, image.Point{}, draw.Src)
	draw.NearestNeighbor.Transform(c.scratch, s2d, src, src.Rect, draw.Src, nil)
	draw.NearestNeighbor.Transform(c.mask, s2d, image.Opaque, src.Rect, draw.Src, nil)

	for y := db.Min.Y; y < db.Max.Y; y++ {
		for x := db.Min.X; x < db.Max.X; x++ {
			if c.mask.AlphaAt(x, y).A == 0 {
				continue
			}
			si := c.scratch.PixOffset(x, y)
			di := c.dst.PixOffset(x, y)
			blendPixel(c.dst.Pix[di:di+4:di+4], c.scratch.Pix[si:si+4:si+4], c.blend)
		}
	}
}

// rebase returns the pixels of img within r as an image with bounds
// (0, 0)-r.Size(). The pixels are shared, not copied.
func rebase(img *image.RGBA, r image.Rectangle) *image.RGBA {
	return &image.RGBA{
		Pix:    img.Pix[img.PixOffset(r.Min.X, r.Min.Y):],
		Stride: img.Stride,
		Rect:   image.Rectangle{Max: r.Size()},
	}
}
