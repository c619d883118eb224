package ebitendraw

import (
	"time"

	"github.com/db47h/grender"
	"github.com/db47h/grender/app"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var errQuit = errors.New("quit")

// Driver runs an app.Interface in an Ebiten window.
type Driver struct {
	DM     *DrawManager
	Width  int
	Height int
	Title  string
	Frames int // quit after that many frames if > 0
	Log    *zap.Logger
	Opts   []grender.Option

	a      app.Interface
	r      *grender.Renderer
	frames int
}

var _ app.Driver = (*Driver)(nil)

// NewDriver returns a driver for a window of size w×h.
func NewDriver(w, h int, title string, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{
		DM:     NewDrawManager(log),
		Width:  w,
		Height: h,
		Title:  title,
		Log:    log,
	}
}

func (d *Driver) Run(a app.Interface) error {
	d.a = a
	d.r = grender.New(d.DM, append([]grender.Option{grender.WithLogger(d.Log)}, d.Opts...)...)
	if err := a.Init(d.r); err != nil {
		return err
	}
	ebiten.SetWindowSize(d.Width, d.Height)
	ebiten.SetWindowTitle(d.Title)
	err := ebiten.RunGame(d)
	if err == errQuit {
		err = nil
	}
	if err != nil {
		a.Terminate()
		return errors.Wrap(err, "ebiten")
	}
	return a.Terminate()
}

// Update implements ebiten.Game.
func (d *Driver) Update() error {
	if d.Frames > 0 && d.frames >= d.Frames {
		return errQuit
	}
	tps := ebiten.MaxTPS()
	if tps <= 0 {
		tps = 60
	}
	d.a.Update(time.Second / time.Duration(tps))
	return nil
}

// Draw implements ebiten.Game.
func (d *Driver) Draw(screen *ebiten.Image) {
	d.DM.SetScreen(screen)
	err := app.Frame(d.r, d.a)
	d.DM.SetScreen(nil)
	d.frames++
	if err != nil && !errors.Is(err, grender.ErrInvalidResource) {
		d.Log.Debug("Frame flush", zap.Error(err))
	}
}

// Layout implements ebiten.Game.
func (d *Driver) Layout(outsideWidth, outsideHeight int) (int, int) {
	return d.Width, d.Height
}
