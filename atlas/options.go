package atlas

import (
	"runtime"

	"go.uber.org/zap"
)

type config struct {
	atlasPath string
	fontPath  string
	workers   int
	log       *zap.Logger
}

// Option is implemented by option functions passed as arguments to NewManager.
type Option interface {
	set(*config)
}

type cfn func(*config)

func (f cfn) set(cfg *config) {
	f(cfg)
}

// AtlasPath returns an Option that sets the default path for atlas images.
func AtlasPath(name string) Option {
	return cfn(func(cfg *config) {
		cfg.atlasPath = name
	})
}

// FontPath returns an Option that sets the default font path.
func FontPath(name string) Option {
	return cfn(func(cfg *config) {
		cfg.fontPath = name
	})
}

// Workers sets the maximum number of files decoded concurrently by Preload.
// The default is twice the number of CPUs.
func Workers(n int) Option {
	return cfn(func(cfg *config) {
		if n > 0 {
			cfg.workers = n
		}
	})
}

// Logger sets the manager's logger.
func Logger(l *zap.Logger) Option {
	return cfn(func(cfg *config) {
		if l != nil {
			cfg.log = l
		}
	})
}

func defaultConfig() *config {
	return &config{
		workers: 2 * runtime.NumCPU(),
		log:     zap.NewNop(),
	}
}
