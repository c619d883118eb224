package atlas

import (
	"image"
	"unicode"

	"github.com/db47h/grender"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"golang.org/x/xerrors"
)

// GlyphTextureWidth is the width of glyph atlas textures. The height depends
// on the number of glyphs.
var GlyphTextureWidth = 512

type glyph struct {
	src image.Rectangle // in texture space, empty for blank glyphs
	org image.Point     // top-left corner relative to the dot
	adv fixed.Int26_6
}

// A GlyphAtlas is a texture atlas holding pre-rendered glyphs of a font face.
// Glyphs are white with premultiplied alpha coverage, meant to be drawn with
// grender.BlendAlphaPremultiplied.
type GlyphAtlas struct {
	face   font.Face
	up     Uploader
	atlas  *grender.TextureAtlas
	glyphs map[rune]glyph
	quads  []grender.Quad
}

// NewGlyphAtlas renders the given runes of face into a new texture uploaded
// with up. Runes missing from face are ignored.
func NewGlyphAtlas(up Uploader, face font.Face, runes string) (*GlyphAtlas, error) {
	g := &GlyphAtlas{
		face:   face,
		up:     up,
		glyphs: make(map[rune]glyph),
	}

	type pending struct {
		r    rune
		mask *image.Alpha
	}
	var (
		todo []pending
		p    image.Point // current point
		lh   int         // current line height
	)
	// shelf packing, one pixel between glyphs
	for _, r := range runes {
		if _, ok := g.glyphs[r]; ok {
			continue
		}
		dr, mask, maskp, advance, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			// blank glyphs may not rasterize
			if adv, ok := face.GlyphAdvance(r); ok {
				g.glyphs[r] = glyph{adv: adv}
			}
			continue
		}
		gl := glyph{org: dr.Min, adv: advance}
		if sz := dr.Size(); sz.X > 0 && sz.Y > 0 {
			if sz.X > GlyphTextureWidth {
				return nil, xerrors.Errorf("glyph %q: %d pixels wide, texture is %d", r, sz.X, GlyphTextureWidth)
			}
			if p.X+sz.X > GlyphTextureWidth {
				p = image.Pt(0, p.Y+lh)
				lh = 0
			}
			gl.src = image.Rectangle{Min: p, Max: p.Add(sz)}
			p.X += sz.X + 1
			if h := sz.Y + 1; h > lh {
				lh = h
			}
			// the face may reuse mask on the next call
			cp := image.NewAlpha(image.Rectangle{Max: sz})
			draw.Draw(cp, cp.Rect, mask, maskp, draw.Src)
			todo = append(todo, pending{r, cp})
		}
		g.glyphs[r] = gl
	}

	h := p.Y + lh
	if h == 0 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, GlyphTextureWidth, h))
	for _, pg := range todo {
		draw.DrawMask(img, g.glyphs[pg.r].src, image.White, image.Point{}, pg.mask, image.Point{}, draw.Over)
	}
	g.atlas = grender.NewTextureAtlas(newHandle(), up.Upload(img))
	return g, nil
}

// NewDefaultGlyphAtlas returns a glyph atlas of the printable ASCII characters
// of the Go Regular font, at the given size in points and 72 DPI.
func NewDefaultGlyphAtlas(up Uploader, size float64) (*GlyphAtlas, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, xerrors.Errorf("parse Go Regular: %w", err)
	}
	return NewGlyphAtlas(up, NewFace(f, size), PrintableASCII())
}

// NewFace returns a font face for f at the given size in points and 72 DPI.
func NewFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// PrintableASCII returns all printable ASCII characters.
func PrintableASCII() string {
	rs := make([]rune, 0, 0x7f-0x20)
	for r := rune(0x20); r < 0x7f; r++ {
		if unicode.IsPrint(r) {
			rs = append(rs, r)
		}
	}
	return string(rs)
}

// Atlas returns the underlying texture atlas.
func (g *GlyphAtlas) Atlas() *grender.TextureAtlas { return g.atlas }

// Face returns the font face glyphs were rendered from.
func (g *GlyphAtlas) Face() font.Face { return g.face }

// Has reports whether r is available in the atlas.
func (g *GlyphAtlas) Has(r rune) bool {
	_, ok := g.glyphs[r]
	return ok
}

// LineHeight returns the recommended line height in pixels.
func (g *GlyphAtlas) LineHeight() float32 {
	return float32(g.face.Metrics().Height) / 64
}

// StageString stages one quad per visible glyph of s, with the first glyph's
// dot at dot. It returns the range of staged quads and the dot following the
// last glyph. Runes not in the atlas are skipped.
func (g *GlyphAtlas) StageString(s string, dot grender.Point) (grender.QuadRange, grender.Point) {
	x := fixed.Int26_6(dot.X * 64)
	g.quads = g.quads[:0]
	prev := rune(-1)
	for _, r := range s {
		gl, ok := g.glyphs[r]
		if !ok {
			continue
		}
		if prev >= 0 {
			x += g.face.Kern(prev, r)
		}
		if !gl.src.Empty() {
			ox := float32(x.Round() + gl.org.X)
			oy := dot.Y + float32(gl.org.Y)
			g.quads = append(g.quads, grender.Quad{Src: gl.src, Transform: grender.Translation(ox, oy)})
		}
		x += gl.adv
		prev = r
	}
	return g.atlas.Stage(g.quads...), grender.Pt(float32(x)/64, dot.Y)
}

// Close releases the atlas, deletes its texture and closes the font face.
func (g *GlyphAtlas) Close() error {
	g.atlas.Release()
	g.up.DeleteTexture(g.atlas.Texture())
	return g.face.Close()
}
