// Command demo renders a few hundred spinning sprites and a text overlay
// through a grender.Renderer, either headless or in an Ebiten window.
//
// Build with -tags headless to leave Ebiten out.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/db47h/grender"
	"github.com/db47h/grender/app"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfgFile := flag.String("config", "", "TOML configuration `file`")
	flag.Parse()

	if err := run(*cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgFile string) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	stats := new(statsHandler)
	if cfg.Metrics.Addr != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		serveMetrics(ctx, cfg.Metrics.Addr, newRouter(reg, stats), log)
	}

	drv, err := newDriver(cfg, log)
	if err != nil {
		return err
	}
	log.Info("Starting demo",
		zap.String("driver", cfg.Driver),
		zap.Int("sprites", cfg.Sprites),
		zap.Int("frames", cfg.Frames))
	if err = drv.Run(newDemo(cfg, log, reg, stats)); err != nil {
		return err
	}

	if h, ok := drv.(*app.Headless); ok && cfg.Output.PNG != "" {
		return savePNG(cfg.Output.PNG, h)
	}
	return nil
}

func newHeadless(cfg *config, log *zap.Logger) *app.Headless {
	opts := []app.Option{
		app.Size(cfg.Width, cfg.Height),
		app.Frames(cfg.Frames),
		app.Logger(log),
		app.RendererOptions(grender.WithCapacity(cfg.Sprites + 8)),
	}
	if cfg.RealTime {
		opts = append(opts, app.RealTime(time.Second/60))
	}
	return app.NewHeadless(opts...)
}

func savePNG(name string, h *app.Headless) error {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "save frame")
	}
	if err = png.Encode(f, h.Image()); err != nil {
		f.Close()
		return errors.Wrap(err, "save frame")
	}
	return f.Close()
}
