package atlas_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/db47h/grender"
	"github.com/db47h/grender/atlas"
	"github.com/db47h/grender/softdraw"
	"github.com/db47h/ofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/font/gofont/goregular"
)

func writeImage(t *testing.T, name string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(name)
	require.NoError(t, err)
	defer f.Close()
	if filepath.Ext(name) == ".bmp" {
		require.NoError(t, bmp.Encode(f, img))
		return
	}
	require.NoError(t, png.Encode(f, img))
}

// setup returns a manager loading atlases from <tmp>/atlases and fonts from
// <tmp>/fonts.
func setup(t *testing.T, opts ...atlas.Option) (*atlas.Manager, *softdraw.Canvas, string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "atlases")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "fonts"), 0o755))
	writeImage(t, filepath.Join(dir, "a.png"), 4, 4, color.White)
	writeImage(t, filepath.Join(dir, "b.png"), 8, 2, color.Black)
	writeImage(t, filepath.Join(dir, "c.bmp"), 2, 2, color.White)
	require.NoError(t, os.WriteFile(filepath.Join(root, "fonts", "Go-Regular.ttf"), goregular.TTF, 0o644))

	var ovl ofs.Overlay
	require.NoError(t, ovl.Add(false, root))
	c := softdraw.New(8, 8)
	opts = append([]atlas.Option{atlas.AtlasPath("atlases"), atlas.FontPath("fonts")}, opts...)
	m := atlas.NewManager(&ovl, c, opts...)
	t.Cleanup(func() { m.Close() })
	return m, c, dir
}

func TestAtlas(t *testing.T) {
	m, c, _ := setup(t)

	a, err := m.Atlas("a.png")
	require.NoError(t, err)
	assert.True(t, c.TextureValid(a.Texture()))
	assert.Equal(t, image.Rect(0, 0, 4, 4), c.Texture(a.Texture()).Rect)

	again, err := m.Atlas("a.png")
	require.NoError(t, err)
	assert.Same(t, a, again)

	b, err := m.Bounds("b.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 2), b)

	bm, err := m.Atlas("c.bmp")
	require.NoError(t, err)
	assert.NotEqual(t, a.Handle(), bm.Handle())
	assert.NotEqual(t, a.Texture(), bm.Texture())

	_, err = m.Atlas("missing.png")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "load atlas missing.png")
}

func TestPreload(t *testing.T) {
	m, c, _ := setup(t, atlas.Workers(2))

	rc, n := m.Preload([]string{"a.png", "b.png", "c.bmp", "missing.png"}, false)
	assert.Equal(t, 4, n)
	err := atlas.Wait(rc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preload atlas missing.png")
	assert.NotContains(t, err.Error(), "a.png")

	rc, n = m.Preload([]string{"a.png", "b.png", "missing.png"}, false)
	assert.Equal(t, 1, n)
	assert.Error(t, atlas.Wait(rc))

	a, err := m.Atlas("a.png")
	require.NoError(t, err)
	b, err := m.Atlas("b.png")
	require.NoError(t, err)

	// flush everything but b
	rc, n = m.Preload([]string{"b.png"}, true)
	assert.Zero(t, n)
	require.NoError(t, atlas.Wait(rc))
	assert.True(t, a.Released())
	assert.False(t, b.Released())
	assert.True(t, c.TextureValid(a.Texture()), "textures are deleted by Sweep")
	assert.Equal(t, 1, m.Sweep())
	assert.False(t, c.TextureValid(a.Texture()))
	assert.Zero(t, m.Sweep())

	reloaded, err := m.Atlas("a.png")
	require.NoError(t, err)
	assert.NotSame(t, a, reloaded)
}

func TestDiscard(t *testing.T) {
	m, c, _ := setup(t)
	a, err := m.Atlas("a.png")
	require.NoError(t, err)
	qr := a.Stage(grender.Quad{Src: image.Rect(0, 0, 4, 4), Transform: grender.Identity()})

	r := grender.New(c)
	require.NoError(t, m.Discard("a.png"))
	assert.True(t, a.Released())
	assert.False(t, c.TextureValid(a.Texture()))
	assert.Error(t, m.Discard("a.png"))

	require.NoError(t, r.Enqueue(grender.NewBatchCommand(0, grender.Identity(), grender.BlendOpaque, a, qr)))
	err = r.Flush()
	assert.ErrorIs(t, err, grender.ErrInvalidResource)
	assert.Equal(t, 1, r.Stats().Skipped)
}

func TestFontConcurrent(t *testing.T) {
	m, _, _ := setup(t)
	var wg sync.WaitGroup
	fonts := make([]interface{}, 8)
	for i := range fonts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := m.Font("Go-Regular.ttf")
			assert.NoError(t, err)
			fonts[i] = f
		}(i)
	}
	wg.Wait()
	for _, f := range fonts[1:] {
		assert.Same(t, fonts[0], f)
	}
	_, err := m.Atlas("../fonts/Go-Regular.ttf")
	assert.Error(t, err, "fonts are not images")
}

func TestClose(t *testing.T) {
	m, c, _ := setup(t)
	a, err := m.Atlas("a.png")
	require.NoError(t, err)
	b, err := m.Atlas("b.png")
	require.NoError(t, err)

	require.NoError(t, m.Close())
	assert.True(t, a.Released())
	assert.True(t, b.Released())
	assert.False(t, c.TextureValid(a.Texture()))
	assert.False(t, c.TextureValid(b.Texture()))
}

func TestWatch(t *testing.T) {
	m, c, dir := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Watch(ctx, dir))
	assert.Error(t, m.Watch(ctx, filepath.Join(dir, "nope")))

	a, err := m.Atlas("a.png")
	require.NoError(t, err)
	b, err := m.Atlas("b.png")
	require.NoError(t, err)

	writeImage(t, filepath.Join(dir, "a.png"), 2, 2, color.Black)
	assert.Eventually(t, a.Released, 5*time.Second, 10*time.Millisecond)
	assert.False(t, b.Released())
	assert.Equal(t, 1, m.Sweep())
	assert.False(t, c.TextureValid(a.Texture()))

	a2, err := m.Atlas("a.png")
	require.NoError(t, err)
	assert.NotEqual(t, a.Handle(), a2.Handle())
	assert.Equal(t, image.Rect(0, 0, 2, 2), c.Texture(a2.Texture()).Rect)
}
