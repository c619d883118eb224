package grender

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type config struct {
	log       *zap.Logger
	report    func(Condition)
	capacity  int
	namespace string
	labels    prometheus.Labels
}

func defaultConfig() config {
	return config{
		log:       zap.NewNop(),
		capacity:  256,
		namespace: "grender",
	}
}

// Option is implemented by option functions passed as arguments to New.
type Option interface {
	set(*config)
}

type optionFunc func(*config)

func (f optionFunc) set(cfg *config) {
	f(cfg)
}

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(cfg *config) {
		if l == nil {
			l = zap.NewNop()
		}
		cfg.log = l
	})
}

// WithReporter sets a function receiving every Condition met during flushes.
// It is called synchronously from Flush and must not call back into the
// Renderer.
func WithReporter(fn func(Condition)) Option {
	return optionFunc(func(cfg *config) {
		cfg.report = fn
	})
}

// WithCapacity sets the initial capacity of the frame queue.
func WithCapacity(n int) Option {
	return optionFunc(func(cfg *config) {
		if n > 0 {
			cfg.capacity = n
		}
	})
}

// WithMetrics sets the namespace and constant labels of the metrics exposed by
// Renderer.Collector. Renderers registered with the same registry need
// distinct labels.
func WithMetrics(namespace string, labels prometheus.Labels) Option {
	return optionFunc(func(cfg *config) {
		cfg.namespace = namespace
		cfg.labels = labels
	})
}
