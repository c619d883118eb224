package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"time"

	"github.com/chewxy/math32"
	"github.com/db47h/grender"
	"github.com/db47h/grender/atlas"
	"github.com/db47h/ofs"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type sprite struct {
	src   image.Rectangle
	pos   grender.Point
	z     float32
	scale float32
	spin  float32
	atlas int
}

type demo struct {
	cfg   *config
	log   *zap.Logger
	reg   *prometheus.Registry
	stats *statsHandler

	mgr     *atlas.Manager
	atlases []*grender.TextureAtlas
	names   []string // atlas names, empty for generated atlases
	bounds  []image.Rectangle
	glyphs  *atlas.GlyphAtlas
	hud     *grender.TextureAtlas // one translucent black pixel
	sprites []sprite
	t       float32
	cancel  context.CancelFunc
}

func newDemo(cfg *config, log *zap.Logger, reg *prometheus.Registry, stats *statsHandler) *demo {
	return &demo{cfg: cfg, log: log, reg: reg, stats: stats}
}

func (d *demo) Init(r *grender.Renderer) error {
	up, ok := r.DrawManager().(atlas.Uploader)
	if !ok {
		return errors.Errorf("%T cannot upload textures", r.DrawManager())
	}
	if d.reg != nil {
		if err := d.reg.Register(r.Collector()); err != nil {
			return errors.Wrap(err, "register metrics")
		}
	}

	var ovl ofs.Overlay
	if err := ovl.Add(false, d.cfg.Assets.Dirs...); err != nil {
		return errors.Wrap(err, "asset directories")
	}
	d.mgr = atlas.NewManager(&ovl, up,
		atlas.AtlasPath("textures"),
		atlas.FontPath("fonts"),
		atlas.Logger(d.log.Named("atlas")))

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	if d.cfg.Assets.Watch != "" {
		if err := d.mgr.Watch(ctx, d.cfg.Assets.Watch); err != nil {
			d.log.Warn("Atlas hot reload disabled", zap.Error(err))
		}
	}

	// Retrieve assets: for the demo, just waiting for atlases to finish
	// loading is sufficient.
	rc, n := d.mgr.Preload(d.cfg.Assets.Atlases, false)
	d.log.Info("Preloading atlases", zap.Int("count", n))
	if err := atlas.Wait(rc); err != nil {
		d.log.Warn("Some atlases failed to load, using generated sprites", zap.Error(err))
	}
	for _, name := range d.cfg.Assets.Atlases {
		a, err := d.mgr.Atlas(name)
		if err != nil {
			continue
		}
		b, _ := d.mgr.Bounds(name)
		d.atlases = append(d.atlases, a)
		d.names = append(d.names, name)
		d.bounds = append(d.bounds, b)
	}
	if len(d.atlases) == 0 {
		img := boxes()
		d.atlases = append(d.atlases, grender.NewTextureAtlas(atlasHandle(), up.Upload(img)))
		d.names = append(d.names, "")
		d.bounds = append(d.bounds, img.Bounds())
	}
	px := image.NewRGBA(image.Rect(0, 0, 1, 1))
	px.SetRGBA(0, 0, color.RGBA{0, 0, 0, 160})
	d.hud = grender.NewTextureAtlas(atlasHandle(), up.Upload(px))

	var err error
	if f, ferr := d.mgr.Font(d.cfg.Assets.Font); ferr == nil {
		d.glyphs, err = atlas.NewGlyphAtlas(up, atlas.NewFace(f, d.cfg.Assets.FontSize), atlas.PrintableASCII())
	} else {
		d.log.Info("Using default font", zap.NamedError("reason", ferr))
		d.glyphs, err = atlas.NewDefaultGlyphAtlas(up, d.cfg.Assets.FontSize)
	}
	if err != nil {
		return err
	}

	rnd := rand.New(rand.NewSource(d.cfg.Seed))
	d.sprites = make([]sprite, d.cfg.Sprites)
	for i := range d.sprites {
		ai := rnd.Intn(len(d.atlases))
		d.sprites[i] = sprite{
			src:   randomRegion(rnd, d.bounds[ai]),
			pos:   grender.PtI(rnd.Intn(d.cfg.Width), rnd.Intn(d.cfg.Height)),
			z:     float32(rnd.Intn(4)),
			scale: rnd.Float32() + 0.5,
			spin:  rnd.Float32() + 0.5,
			atlas: ai,
		}
	}
	return nil
}

func (d *demo) Terminate() error {
	if d.cancel != nil {
		d.cancel()
	}
	var errs []error
	if d.glyphs != nil {
		if err := d.glyphs.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.mgr != nil {
		if err := d.mgr.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Errorf("terminate: %v", errs)
	}
	return nil
}

func (d *demo) Update(dt time.Duration) {
	d.t += float32(dt.Seconds())
	if n := d.mgr.Sweep(); n > 0 {
		d.log.Info("Reloading changed atlases", zap.Int("count", n))
		d.reload()
	}
}

// reload replaces released atlases.
func (d *demo) reload() {
	for i, a := range d.atlases {
		if !a.Released() || d.names[i] == "" {
			continue
		}
		na, err := d.mgr.Atlas(d.names[i])
		if err != nil {
			d.log.Warn("Atlas reload failed", zap.String("name", d.names[i]), zap.Error(err))
			continue
		}
		d.atlases[i] = na
	}
}

func (d *demo) Draw(r *grender.Renderer) {
	d.stats.set(r.Stats())
	for _, a := range d.atlases {
		a.ResetQuads()
	}
	d.hud.ResetQuads()
	d.glyphs.Atlas().ResetQuads()

	// sprites: one command per sprite, the renderer batches them
	for i := range d.sprites {
		s := &d.sprites[i]
		a := d.atlases[s.atlas]
		sz := grender.PtPt(s.src.Size())
		local := grender.Translation(-sz.X/2, -sz.Y/2).
			Scale(s.scale, s.scale).
			Rotate(d.t * s.spin)
		qr := a.Stage(grender.Quad{Src: s.src, Transform: local})
		m := grender.Translation(s.pos.X, s.pos.Y)
		if err := r.Enqueue(grender.NewBatchCommand(s.z, m, grender.BlendAlphaPremultiplied, a, qr)); err != nil {
			d.log.Error("Enqueue failed", zap.Error(err))
			return
		}
	}

	// HUD on top
	st := r.Stats()
	label := fmt.Sprintf("frame %d  binds %d  submits %d  flush %v",
		st.Frame, st.Binds, st.Submits, r.AverageFlushTime().Round(time.Microsecond))
	lh := d.glyphs.LineHeight()
	tr, end := d.glyphs.StageString(label, grender.Pt(4, lh))
	bg := d.hud.Stage(grender.Quad{Src: image.Rect(0, 0, 1, 1), Transform: grender.Scaling(end.X+4, lh*1.3)})
	err := r.Enqueue(grender.NewGroupCommand(math32.MaxFloat32, grender.Identity(),
		grender.NewCustomCommand(0, grender.Identity(), func(dm grender.DrawManager, m grender.Affine) {
			dm.BindTexture(d.hud.Texture())
			dm.SetBlendFunc(grender.BlendAlphaPremultiplied)
			dm.SubmitQuads(d.hud, bg, m)
		}),
		grender.NewBatchCommand(1, grender.Identity(), grender.BlendAlphaPremultiplied, d.glyphs.Atlas(), tr)))
	if err != nil {
		d.log.Error("Enqueue failed", zap.Error(err))
	}
}

// randomRegion returns a random 32x32 cell of a sprite sheet with bounds b,
// or b itself if smaller.
func randomRegion(rnd *rand.Rand, b image.Rectangle) image.Rectangle {
	cols, rows := b.Dx()/32, b.Dy()/32
	if cols == 0 || rows == 0 {
		return b
	}
	return image.Rect(0, 0, 32, 32).Add(b.Min).Add(image.Pt(32*rnd.Intn(cols), 32*rnd.Intn(rows)))
}

var handles uint32 = 1 << 31

// atlasHandle returns handles for atlases created by the demo itself, far
// from those assigned by the atlas manager.
func atlasHandle() grender.AtlasHandle {
	handles++
	return grender.AtlasHandle(handles)
}

// boxes generates a 128x32 sprite sheet of four 32x32 boxes.
func boxes() image.Image {
	cols := []color.RGBA{{200, 40, 40, 255}, {40, 200, 40, 255}, {40, 40, 200, 255}, {200, 200, 40, 255}}
	img := image.NewRGBA(image.Rect(0, 0, 128, 32))
	for i, c := range cols {
		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				if x == 0 || y == 0 || x == 31 || y == 31 {
					img.SetRGBA(32*i+x, y, color.RGBA{255, 255, 255, 255})
					continue
				}
				img.SetRGBA(32*i+x, y, c)
			}
		}
	}
	return img
}
