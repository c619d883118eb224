//go:build headless
// +build headless

package main

import (
	"github.com/db47h/grender/app"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func newDriver(cfg *config, log *zap.Logger) (app.Driver, error) {
	if cfg.Driver != "headless" {
		return nil, errors.Errorf("driver %q not available in headless builds", cfg.Driver)
	}
	return newHeadless(cfg, log), nil
}
