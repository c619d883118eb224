package app

import (
	"image"
	"image/color"
	"time"

	"github.com/db47h/grender"
	"github.com/db47h/grender/loop"
	"github.com/db47h/grender/softdraw"
	"go.uber.org/zap"
)

// Headless is a Driver rendering into a softdraw canvas. By default it runs a
// deterministic fixed-step loop where every frame advances the clock by one
// timestep. See RealTime for wall clock pacing.
type Headless struct {
	cfg    *config
	canvas *softdraw.Canvas
	bg     color.Color
	frames int
	quit   bool
}

var _ Driver = (*Headless)(nil)

// NewHeadless returns a new headless driver. Without a Frames option, the
// driver runs until Quit is called.
func NewHeadless(opts ...Option) *Headless {
	cfg := newConfig(opts)
	if cfg.dt == 0 {
		cfg.dt = time.Second / 60
	}
	return &Headless{
		cfg:    cfg,
		canvas: softdraw.New(cfg.w, cfg.h, softdraw.WithLogger(cfg.log)),
		bg:     color.Transparent,
	}
}

// Canvas returns the driver's render target. Textures are uploaded to it.
func (d *Headless) Canvas() *softdraw.Canvas { return d.canvas }

// Image returns the last rendered frame.
func (d *Headless) Image() *image.RGBA { return d.canvas.Image() }

// SetBackground sets the colour the canvas is cleared with before each frame.
func (d *Headless) SetBackground(c color.Color) { d.bg = c }

// Suspend simulates the loss (true) or restoration (false) of the render
// surface, like a minimized window would.
func (d *Headless) Suspend(b bool) {
	d.canvas.SetLost(b)
	d.cfg.log.Debug("Surface suspended", zap.Bool("suspended", b))
}

// Quit makes Run return after the current frame.
func (d *Headless) Quit() { d.quit = true }

// Frames returns the number of frames drawn so far.
func (d *Headless) Frames() int { return d.frames }

func (d *Headless) Run(a Interface) error {
	r := grender.New(d.canvas, d.cfg.rendererOptions()...)
	if err := a.Init(r); err != nil {
		return err
	}
	hl := &headlessLoop{d: d, a: a, r: r}
	if d.cfg.realTime {
		var l loop.Simple
		l.MinFrameTime(d.cfg.minFT)
		l.Run(&realTimeLoop{headlessLoop: hl})
	} else {
		l := loop.FixedStep{DT: d.cfg.dt}
		l.Clock = loop.Stepper(time.Now(), d.cfg.dt)
		l.Run(hl)
	}
	d.cfg.log.Info("Headless driver stopped",
		zap.Int("frames", d.frames),
		zap.Duration("avgFlush", r.AverageFlushTime()))
	return a.Terminate()
}

type headlessLoop struct {
	d *Headless
	a Interface
	r *grender.Renderer
}

func (l *headlessLoop) ProcessEvents() bool {
	return l.d.quit || l.d.cfg.frames > 0 && l.d.frames >= l.d.cfg.frames
}

func (l *headlessLoop) Update(dt time.Duration) {
	l.a.Update(dt)
}

func (l *headlessLoop) Draw(_, _ time.Duration) {
	if l.d.canvas.Valid() {
		l.d.canvas.Clear(l.d.bg)
	}
	logFlush(l.d.cfg.log, Frame(l.r, l.a))
	l.d.frames++
}

func (l *headlessLoop) FrameStart(t time.Time) {
	if fs, ok := l.a.(loop.FrameStarter); ok {
		fs.FrameStart(t)
	}
}

// realTimeLoop adapts headlessLoop to loop.Simple.
type realTimeLoop struct {
	*headlessLoop
	prev, now time.Time
}

func (l *realTimeLoop) FrameStart(t time.Time) {
	l.prev, l.now = l.now, t
	l.headlessLoop.FrameStart(t)
}

func (l *realTimeLoop) Update() {
	var dt time.Duration
	if !l.prev.IsZero() {
		dt = l.now.Sub(l.prev)
	}
	l.headlessLoop.Update(dt)
}

func (l *realTimeLoop) Draw() {
	l.headlessLoop.Draw(0, 0)
}
