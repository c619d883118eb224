package main

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type config struct {
	Driver  string `toml:"driver"` // "headless" or "ebiten"
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
	Frames  int    `toml:"frames"` // 0: run until closed
	Sprites int    `toml:"sprites"`
	Seed    int64  `toml:"seed"`
	// headless: follow the wall clock at up to 60 frames per second instead
	// of a fixed timestep
	RealTime bool `toml:"realtime"`

	Log struct {
		Level string `toml:"level"`
		Dev   bool   `toml:"dev"`
	} `toml:"log"`

	Metrics struct {
		Addr string `toml:"addr"` // empty: no metrics server
	} `toml:"metrics"`

	Assets struct {
		Dirs     []string `toml:"dirs"`
		Atlases  []string `toml:"atlases"`
		Font     string   `toml:"font"`
		FontSize float64  `toml:"font_size"`
		Watch    string   `toml:"watch"` // host directory of atlases to watch for changes
	} `toml:"assets"`

	Output struct {
		PNG string `toml:"png"` // headless: last frame
	} `toml:"output"`
}

func defaultConfig() *config {
	cfg := &config{
		Driver:  "headless",
		Width:   640,
		Height:  480,
		Frames:  120,
		Sprites: 500,
		Seed:    424242,
	}
	cfg.Log.Level = "info"
	cfg.Assets.Dirs = []string{"assets", "cmd/demo/assets"}
	cfg.Assets.Atlases = []string{"box.png"}
	cfg.Assets.Font = "Go-Regular.ttf"
	cfg.Assets.FontSize = 16
	return cfg
}

// loadConfig reads a TOML configuration file over the defaults. An empty name
// returns the defaults.
func loadConfig(name string) (*config, error) {
	cfg := defaultConfig()
	if name == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err = toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", name)
	}
	switch cfg.Driver {
	case "headless", "ebiten":
	default:
		return nil, errors.Errorf("config %s: unknown driver %q", name, cfg.Driver)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Errorf("config %s: invalid size %dx%d", name, cfg.Width, cfg.Height)
	}
	return cfg, nil
}

func newLogger(cfg *config) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	var enc zapcore.Encoder
	if cfg.Log.Dev {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl)
	return zap.New(core), nil
}
