package softdraw_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/chewxy/math32"
	"github.com/db47h/grender"
	"github.com/db47h/grender/softdraw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red     = color.RGBA{255, 0, 0, 255}
	green   = color.RGBA{0, 255, 0, 255}
	blue    = color.RGBA{0, 0, 255, 255}
	halfRed = color.RGBA{128, 0, 0, 128}
	none    = color.RGBA{}
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestTextures(t *testing.T) {
	c := softdraw.New(4, 4)
	id := c.Upload(solid(2, 3, blue))
	assert.NotZero(t, id)
	assert.True(t, c.TextureValid(id))
	assert.Equal(t, image.Rect(0, 0, 2, 3), c.Texture(id).Rect)
	assert.NotEqual(t, id, c.Upload(solid(1, 1, blue)))

	c.DeleteTexture(id)
	assert.False(t, c.TextureValid(id))
	c.DeleteTexture(id)
	assert.Nil(t, c.Texture(id))
}

func TestDrawQuads(t *testing.T) {
	c := softdraw.New(4, 4)
	tex := solid(4, 2, blue)
	tex.SetRGBA(2, 0, halfRed)
	id := c.Upload(tex)
	a := grender.NewTextureAtlas(1, id)
	// right half of the texture, moved to (1, 1)
	qr := a.Stage(grender.Quad{Src: image.Rect(2, 0, 4, 2), Transform: grender.Translation(1, 1)})

	r := grender.New(c)
	require.NoError(t, r.Enqueue(grender.NewBatchCommand(0, grender.Identity(), grender.BlendOpaque, a, qr)))
	require.NoError(t, r.Flush())

	img := c.Image()
	assert.Equal(t, none, img.RGBAAt(0, 0))
	assert.Equal(t, halfRed, img.RGBAAt(1, 1))
	assert.Equal(t, blue, img.RGBAAt(2, 1))
	assert.Equal(t, blue, img.RGBAAt(1, 2))
	assert.Equal(t, none, img.RGBAAt(3, 3))
}

func TestDrawRotatedSubImage(t *testing.T) {
	c := softdraw.New(4, 4)
	tex := solid(4, 2, blue)
	tex.SetRGBA(2, 0, halfRed)
	tex.SetRGBA(3, 0, red)
	tex.SetRGBA(3, 1, green)
	a := grender.NewTextureAtlas(1, c.Upload(tex))
	// quarter turn clockwise in screen space, then moved by (2, 1)
	qr := a.Stage(grender.Quad{Src: image.Rect(2, 0, 4, 2), Transform: grender.Rotation(math32.Pi/2).Translate(2, 1)})

	r := grender.New(c)
	require.NoError(t, r.Enqueue(grender.NewBatchCommand(0, grender.Identity(), grender.BlendOpaque, a, qr)))
	require.NoError(t, r.Flush())

	img := c.Image()
	for _, td := range []struct {
		x, y int
		want color.RGBA
	}{
		{1, 1, halfRed},
		{1, 2, red},
		{0, 1, blue},
		{0, 2, green},
		{2, 1, none},
		{1, 0, none},
		{0, 0, none},
		{3, 3, none},
	} {
		assert.Equal(t, td.want, img.RGBAAt(td.x, td.y), "pixel (%d, %d)", td.x, td.y)
	}
}

func TestDrawScaled(t *testing.T) {
	c := softdraw.New(4, 4)
	a := grender.NewTextureAtlas(1, c.Upload(solid(2, 2, blue)))
	qr := a.Stage(grender.Quad{Src: image.Rect(0, 0, 2, 2), Transform: grender.Identity()})

	r := grender.New(c)
	require.NoError(t, r.Enqueue(grender.NewBatchCommand(0, grender.Scaling(2, 2), grender.BlendOpaque, a, qr)))
	require.NoError(t, r.Flush())

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, blue, c.Image().RGBAAt(x, y), "pixel (%d, %d)", x, y)
		}
	}
}

func TestBlendFuncs(t *testing.T) {
	for _, td := range []struct {
		blend grender.BlendFunc
		want  color.RGBA
	}{
		{grender.BlendAlphaPremultiplied, color.RGBA{128, 0, 127, 255}},
		{grender.BlendAdditive, color.RGBA{64, 0, 255, 255}},
		{grender.BlendOpaque, halfRed},
		{grender.BlendFunc{Src: grender.Zero, Dst: grender.One}, blue},
	} {
		t.Run(td.blend.String(), func(t *testing.T) {
			c := softdraw.New(1, 1)
			c.Clear(blue)
			a := grender.NewTextureAtlas(1, c.Upload(solid(1, 1, halfRed)))
			qr := a.Stage(grender.Quad{Src: image.Rect(0, 0, 1, 1), Transform: grender.Identity()})
			grender.NewBatchCommand(0, grender.Identity(), td.blend, a, qr).RenderBatch(c)
			assert.Equal(t, td.want, c.Image().RGBAAt(0, 0))
		})
	}
}

func TestSubmitWithoutTexture(t *testing.T) {
	c := softdraw.New(2, 2)
	id := c.Upload(solid(1, 1, blue))
	a := grender.NewTextureAtlas(1, id)
	qr := a.Stage(grender.Quad{Src: image.Rect(0, 0, 1, 1), Transform: grender.Identity()})

	c.BindTexture(id)
	c.DeleteTexture(id)
	c.SubmitQuads(a, qr, grender.Identity())
	assert.Equal(t, none, c.Image().RGBAAt(0, 0))
}

func TestLostSurface(t *testing.T) {
	c := softdraw.New(2, 2)
	a := grender.NewTextureAtlas(1, c.Upload(solid(1, 1, blue)))
	qr := a.Stage(grender.Quad{Src: image.Rect(0, 0, 1, 1), Transform: grender.Identity()})
	r := grender.New(c)

	c.SetLost(true)
	assert.False(t, c.Valid())
	require.NoError(t, r.Enqueue(grender.NewBatchCommand(0, grender.Identity(), grender.BlendOpaque, a, qr)))
	assert.Equal(t, grender.ErrContextLost, r.Flush())
	assert.Equal(t, none, c.Image().RGBAAt(0, 0))

	c.SetLost(false)
	require.NoError(t, r.Enqueue(grender.NewBatchCommand(0, grender.Identity(), grender.BlendOpaque, a, qr)))
	assert.NoError(t, r.Flush())
	assert.Equal(t, blue, c.Image().RGBAAt(0, 0))
}

func TestDeletedTextureIsSkipped(t *testing.T) {
	c := softdraw.New(1, 1)
	id := c.Upload(solid(1, 1, blue))
	a := grender.NewTextureAtlas(1, id)
	qr := a.Stage(grender.Quad{Src: image.Rect(0, 0, 1, 1), Transform: grender.Identity()})
	c.DeleteTexture(id)

	r := grender.New(c)
	require.NoError(t, r.Enqueue(grender.NewBatchCommand(0, grender.Identity(), grender.BlendOpaque, a, qr)))
	err := r.Flush()
	assert.ErrorIs(t, err, grender.ErrInvalidResource)
	assert.Equal(t, 1, r.Stats().Skipped)
}
