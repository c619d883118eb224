package grender

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FrameStats describes the last flushed frame.
type FrameStats struct {
	Frame        uint64        `json:"frame"`
	Commands     int           `json:"commands"`
	Binds        int           `json:"binds"`        // texture binds, one per batch run
	BlendChanges int           `json:"blendChanges"` // SetBlendFunc calls
	Submits      int           `json:"submits"`      // SubmitQuads calls
	Custom       int           `json:"custom"`       // custom commands run
	Skipped      int           `json:"skipped"`      // commands skipped on invalid resources
	Aborted      bool          `json:"aborted"`
	Dropped      bool          `json:"dropped"`
	Duration     time.Duration `json:"duration"`
}

type metrics struct {
	frames        prometheus.Counter
	commands      prometheus.Counter
	binds         prometheus.Counter
	blendChanges  prometheus.Counter
	submits       prometheus.Counter
	skipped       prometheus.Counter
	dropped       prometheus.Counter
	aborted       prometheus.Counter
	flushDuration prometheus.Histogram
}

func newMetrics(ns string, labels prometheus.Labels) *metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "renderer",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}
	return &metrics{
		frames:       counter("frames_total", "Number of flushed frames"),
		commands:     counter("commands_total", "Number of render commands flushed"),
		binds:        counter("texture_binds_total", "Number of texture binds issued"),
		blendChanges: counter("blend_changes_total", "Number of blend function changes issued"),
		submits:      counter("quad_submits_total", "Number of quad submissions issued"),
		skipped:      counter("skipped_commands_total", "Number of commands skipped because of invalid resources"),
		dropped:      counter("dropped_frames_total", "Number of frames dropped because the surface was unavailable"),
		aborted:      counter("aborted_frames_total", "Number of frames aborted because the queue was mutated during a flush"),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   "renderer",
			Name:        "flush_duration_seconds",
			Help:        "Time spent issuing draw calls for a frame",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.frames, m.commands, m.binds, m.blendChanges, m.submits,
		m.skipped, m.dropped, m.aborted, m.flushDuration,
	}
}

func (m *metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

func (m *metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

func (m *metrics) observe(s *FrameStats) {
	if s.Dropped {
		m.dropped.Inc()
		return
	}
	m.frames.Inc()
	m.commands.Add(float64(s.Commands))
	m.binds.Add(float64(s.Binds))
	m.blendChanges.Add(float64(s.BlendChanges))
	m.submits.Add(float64(s.Submits))
	m.skipped.Add(float64(s.Skipped))
	if s.Aborted {
		m.aborted.Inc()
	}
	m.flushDuration.Observe(s.Duration.Seconds())
}
