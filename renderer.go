package grender

import (
	"cmp"
	"slices"
	"time"

	"github.com/chewxy/math32"
	"github.com/db47h/grender/debug"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// State is the state of a Renderer within a frame.
type State int

const (
	StateIdle         State = iota // empty queue
	StateAccumulating              // commands queued, waiting for Flush
	StateFlushing                  // Flush in progress
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAccumulating:
		return "Accumulating"
	case StateFlushing:
		return "Flushing"
	}
	return "Unknown"
}

type entry struct {
	cmd RenderCommand
	z   float32
	seq int
}

// run tracks the GPU state left by the last batch drawn.
type run struct {
	atlas      *TextureAtlas // nil when no run is open
	blend      BlendFunc
	blendKnown bool
}

// A Renderer owns the command queue of a frame. Commands are enqueued in any
// order during scene traversal, then Flush draws them back to front through a
// DrawManager, coalescing adjacent batches that share an atlas and a blend
// function.
//
// A Renderer is not safe for concurrent use. Renderers sharing a GPU context
// need external synchronization around Flush.
type Renderer struct {
	dm      DrawManager
	cfg     config
	log     *zap.Logger
	metrics *metrics

	queue   []entry
	state   State
	frame   uint64
	current int
	run     run
	abort   bool
	lost    bool
	conds   []Condition

	stats FrameStats
	timer debug.Timer
}

// New returns a new Renderer drawing through dm.
func New(dm DrawManager, opts ...Option) *Renderer {
	if dm == nil {
		panic("grender: nil DrawManager")
	}
	cfg := defaultConfig()
	for _, o := range opts {
		o.set(&cfg)
	}
	return &Renderer{
		dm:      dm,
		cfg:     cfg,
		log:     cfg.log,
		metrics: newMetrics(cfg.namespace, cfg.labels),
		queue:   make([]entry, 0, cfg.capacity),
	}
}

// DrawManager returns the DrawManager r draws through.
func (r *Renderer) DrawManager() DrawManager { return r.dm }

// State returns the current state of r.
func (r *Renderer) State() State { return r.state }

// Len returns the number of queued commands.
func (r *Renderer) Len() int { return len(r.queue) }

// Stats returns statistics about the last flushed or dropped frame.
func (r *Renderer) Stats() FrameStats { return r.stats }

// AverageFlushTime returns the average duration of recent flushes.
func (r *Renderer) AverageFlushTime() time.Duration { return r.timer.Average() }

// Collector returns the renderer metrics. They are not registered with any
// registry.
func (r *Renderer) Collector() prometheus.Collector { return r.metrics }

// Enqueue appends cmd to the frame queue. It has no GPU side effect.
//
// Enqueue panics if cmd is nil or not one of the command types of this
// package. Called while a flush is in progress, it returns
// ErrReentrantMutation and the flush is aborted.
func (r *Renderer) Enqueue(cmd RenderCommand) error {
	mustKnow(cmd)
	if r.state == StateFlushing {
		r.abortFlush()
		return ErrReentrantMutation
	}
	r.queue = append(r.queue, entry{cmd: cmd, z: sortKey(cmd.GlobalZOrder()), seq: len(r.queue)})
	r.state = StateAccumulating
	return nil
}

// Reset drops all queued commands without drawing them. It must not be called
// during a flush.
func (r *Renderer) Reset() {
	if r.state == StateFlushing {
		panic("grender: Reset called during Flush")
	}
	r.clearQueue()
	r.state = StateIdle
}

// Flush draws all queued commands and empties the queue.
//
// Commands are drawn in ascending global z order. Commands with equal z order
// are drawn in enqueue order. Adjacent batch commands using the same atlas and
// blend function are drawn with a single texture bind, and the blend function
// is set only when it changes.
//
// A command referencing a released atlas or unknown texture is skipped and the
// flush goes on. The returned error is then a *FlushError listing the skipped
// commands. If the DrawManager's surface is unavailable, Flush drops the queue
// without drawing and returns ErrContextLost.
//
// Flushing an empty queue does nothing.
func (r *Renderer) Flush() error {
	if r.state == StateFlushing {
		r.abortFlush()
		return ErrReentrantMutation
	}
	if len(r.queue) == 0 {
		r.state = StateIdle
		return nil
	}
	if !r.surfaceValid() {
		r.stats = FrameStats{Frame: r.frame, Commands: len(r.queue), Dropped: true}
		r.metrics.observe(&r.stats)
		r.clearQueue()
		r.state = StateIdle
		return ErrContextLost
	}

	start := time.Now()
	r.frame++
	r.state = StateFlushing
	r.stats = FrameStats{Frame: r.frame, Commands: len(r.queue)}
	r.run = run{}
	r.abort = false
	r.conds = r.conds[:0]
	defer func() {
		// leave a consistent state if a DrawFunc panics
		if r.state == StateFlushing {
			r.clearQueue()
			r.state = StateIdle
		}
	}()

	slices.SortStableFunc(r.queue, func(a, b entry) int {
		return cmp.Compare(a.z, b.z)
	})
	for i := range r.queue {
		if r.abort {
			break
		}
		e := &r.queue[i]
		r.current = e.seq
		e.cmd.requestRenderCommand(r, e.seq)
	}

	r.clearQueue()
	r.state = StateIdle
	r.stats.Aborted = r.abort
	r.stats.Duration = time.Since(start)
	r.timer.Add(r.stats.Duration)
	r.metrics.observe(&r.stats)

	if len(r.conds) == 0 {
		return nil
	}
	err := &FlushError{Frame: r.frame, Conditions: make([]Condition, len(r.conds))}
	copy(err.Conditions, r.conds)
	if n := err.Count(InvalidResourceReference); n > 0 {
		r.log.Warn("Skipped render commands",
			zap.Uint64("frame", r.frame),
			zap.Int("skipped", n),
			zap.Ints("indices", skippedIndices(r.conds)))
	}
	return err
}

func (r *Renderer) processBatchCommand(c *BatchCommand, index int) {
	if err := r.validate(c); err != nil {
		r.stats.Skipped++
		r.addCondition(Condition{Kind: InvalidResourceReference, Index: index, Err: err})
		return
	}
	if r.run.atlas != c.atlas || r.run.blend != c.blend {
		setBlend := !r.run.blendKnown || r.run.blend != c.blend
		c.bind(r.dm, setBlend)
		r.stats.Binds++
		if setBlend {
			r.stats.BlendChanges++
		}
		r.run = run{atlas: c.atlas, blend: c.blend, blendKnown: true}
	}
	c.submit(r.dm)
	r.stats.Submits++
}

func (r *Renderer) processCustomCommand(c *CustomCommand, index int) {
	r.run = run{}
	r.stats.Custom++
	c.fn(r.dm, c.m)
	// the callback may have changed any state
	r.run = run{}
}

func (r *Renderer) processGroupCommand(c *GroupCommand, index int) {
	for _, cmd := range c.cmds {
		if r.abort {
			return
		}
		cmd.requestRenderCommand(r, index)
	}
}

func (r *Renderer) validate(c *BatchCommand) error {
	a := c.atlas
	switch {
	case a == nil:
		return errors.Wrap(ErrInvalidResource, "nil atlas")
	case a.Released():
		return errors.Wrapf(ErrInvalidResource, "%v released", a)
	case !a.Contains(c.quads):
		return errors.Wrapf(ErrInvalidResource, "%v: quads [%d, %d) out of range [0, %d)",
			a, c.quads.Start, c.quads.End(), a.Len())
	}
	if tv, ok := r.dm.(TextureValidator); ok && !tv.TextureValid(a.Texture()) {
		return errors.Wrapf(ErrInvalidResource, "%v: texture %d not found", a, a.Texture())
	}
	return nil
}

func (r *Renderer) abortFlush() {
	if r.abort {
		return
	}
	r.abort = true
	r.addCondition(Condition{Kind: ReentrantMutation, Index: r.current, Err: ErrReentrantMutation})
	r.log.Error("Render queue mutated during flush, frame aborted",
		zap.Uint64("frame", r.frame),
		zap.Int("index", r.current))
}

// surfaceValid checks the DrawManager surface. State changes are logged and
// reported once.
func (r *Renderer) surfaceValid() bool {
	s, ok := r.dm.(Surface)
	valid := !ok || s.Valid()
	switch {
	case !valid && !r.lost:
		r.lost = true
		r.log.Warn("Render surface unavailable, dropping frames", zap.Uint64("frame", r.frame))
		r.addCondition(Condition{Kind: DeadContext, Index: -1, Err: ErrContextLost})
	case valid && r.lost:
		r.lost = false
		r.log.Info("Render surface restored", zap.Uint64("frame", r.frame))
	}
	return valid
}

func (r *Renderer) addCondition(c Condition) {
	r.conds = append(r.conds, c)
	if r.cfg.report != nil {
		r.cfg.report(c)
	}
}

func (r *Renderer) clearQueue() {
	for i := range r.queue {
		r.queue[i] = entry{}
	}
	r.queue = r.queue[:0]
}

func skippedIndices(conds []Condition) []int {
	var idx []int
	for _, c := range conds {
		if c.Kind == InvalidResourceReference {
			idx = append(idx, c.Index)
		}
	}
	return idx
}

// sortKey maps NaN to +Inf so that z orders compare consistently.
func sortKey(z float32) float32 {
	if math32.IsNaN(z) {
		return math32.Inf(1)
	}
	return z
}

// sortCommands sorts cmds by z order, keeping the relative order of commands
// with equal z.
func sortCommands(cmds []RenderCommand) {
	slices.SortStableFunc(cmds, func(a, b RenderCommand) int {
		return cmp.Compare(sortKey(a.GlobalZOrder()), sortKey(b.GlobalZOrder()))
	})
}
