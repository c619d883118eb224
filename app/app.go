// Package app glues an application to a platform driver. Drivers own the
// render target and the frame loop; applications only enqueue render commands.
package app

import (
	"time"

	"github.com/db47h/grender"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Interface is implemented by applications.
//
// Init is called once the driver's Renderer exists. Update is called at a
// fixed timestep. Draw enqueues the frame's render commands; the driver
// flushes the renderer right after Draw returns.
type Interface interface {
	Init(r *grender.Renderer) error
	Terminate() error

	Update(dt time.Duration)
	Draw(r *grender.Renderer)
}

// A Driver runs an application until it quits.
type Driver interface {
	Run(a Interface) error
}

// Frame performs one Draw→Flush cycle and returns the flush error, if any.
// Flush errors are not fatal: skipped commands and dropped frames only affect
// the current frame.
func Frame(r *grender.Renderer, a Interface) error {
	a.Draw(r)
	return r.Flush()
}

// logFlush logs a non-nil Frame error. Skipped commands are already logged by
// the renderer.
func logFlush(log *zap.Logger, err error) {
	var fe *grender.FlushError
	switch {
	case err == nil:
	case errors.Is(err, grender.ErrContextLost):
		log.Debug("Frame dropped")
	case errors.As(err, &fe):
		log.Debug("Frame flushed with errors",
			zap.Uint64("frame", fe.Frame),
			zap.Int("conditions", len(fe.Conditions)))
	default:
		log.Error("Flush failed", zap.Error(err))
	}
}

type Option interface {
	set(*config)
}

type config struct {
	w, h     int
	frames   int
	title    string
	dt       time.Duration
	realTime bool
	minFT    time.Duration
	log      *zap.Logger
	renderer []grender.Option
}

type winOption func(*config)

func (f winOption) set(cfg *config) {
	f(cfg)
}

func newConfig(opts []Option) *config {
	cfg := &config{
		w:     640,
		h:     480,
		title: "grender",
		log:   zap.NewNop(),
	}
	for _, o := range opts {
		o.set(cfg)
	}
	return cfg
}

// Size sets the size of the render target in pixels.
func Size(w, h int) Option {
	return winOption(func(cfg *config) {
		cfg.w, cfg.h = w, h
	})
}

// Title sets the window title, if any.
func Title(title string) Option {
	return winOption(func(cfg *config) {
		cfg.title = title
	})
}

// Frames makes the driver quit after n frames. n <= 0 means no limit.
func Frames(n int) Option {
	return winOption(func(cfg *config) {
		cfg.frames = n
	})
}

// Timestep sets the update timestep.
func Timestep(dt time.Duration) Option {
	return winOption(func(cfg *config) {
		cfg.dt = dt
	})
}

// RealTime makes the headless driver follow the wall clock instead of a fixed
// timestep: one update per frame, with the time elapsed since the previous
// frame, and at most one frame every minFT when minFT > 0.
func RealTime(minFT time.Duration) Option {
	return winOption(func(cfg *config) {
		cfg.realTime = true
		cfg.minFT = minFT
	})
}

// Logger sets the driver logger. It is also passed to the Renderer.
func Logger(l *zap.Logger) Option {
	return winOption(func(cfg *config) {
		if l != nil {
			cfg.log = l
		}
	})
}

// RendererOptions sets additional options for the driver's Renderer.
func RendererOptions(opts ...grender.Option) Option {
	return winOption(func(cfg *config) {
		cfg.renderer = append(cfg.renderer, opts...)
	})
}

func (cfg *config) rendererOptions() []grender.Option {
	return append([]grender.Option{grender.WithLogger(cfg.log)}, cfg.renderer...)
}
