//go:build !headless
// +build !headless

package main

import (
	"github.com/db47h/grender"
	"github.com/db47h/grender/app"
	"github.com/db47h/grender/ebitendraw"
	"go.uber.org/zap"
)

func newDriver(cfg *config, log *zap.Logger) (app.Driver, error) {
	if cfg.Driver == "headless" {
		return newHeadless(cfg, log), nil
	}
	d := ebitendraw.NewDriver(cfg.Width, cfg.Height, "grender demo", log)
	d.Frames = cfg.Frames
	d.Opts = []grender.Option{grender.WithCapacity(cfg.Sprites + 8)}
	return d, nil
}
