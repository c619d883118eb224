package grender

import "fmt"

// CommandKind identifies a RenderCommand variant.
type CommandKind uint8

const (
	KindBatch  CommandKind = iota // textured quads sharing one atlas and blend function
	KindCustom                    // arbitrary draw callback
	KindGroup                     // nested command queue
	kindCount
)

var commandKindNames = [...]string{
	KindBatch:  "Batch",
	KindCustom: "Custom",
	KindGroup:  "Group",
}

func (k CommandKind) String() string {
	if k < kindCount {
		return commandKindNames[k]
	}
	return "Unknown"
}

// RenderCommand is one frame-scoped draw intent.
//
// The set of commands is closed: BatchCommand, CustomCommand and GroupCommand
// are the only implementations. Each one tells the Renderer how to process it
// through requestRenderCommand, so that adding a variant does not grow the
// Renderer's flush loop.
//
// Commands are immutable values. They capture their world transform by value
// when created.
type RenderCommand interface {
	// GlobalZOrder is the sort key. Lower values render first.
	GlobalZOrder() float32
	// WorldTransform is the transform composed when the command was recorded.
	WorldTransform() Affine
	Kind() CommandKind

	requestRenderCommand(r *Renderer, index int)
}

type command struct {
	z float32
	m Affine
}

func (c *command) GlobalZOrder() float32  { return c.z }
func (c *command) WorldTransform() Affine { return c.m }

// A BatchCommand draws a contiguous range of quads staged in a single texture
// atlas, using a single blend function.
type BatchCommand struct {
	command
	atlas *TextureAtlas
	blend BlendFunc
	quads QuadRange
}

// NewBatchCommand returns a command drawing the quads in range r of atlas.
func NewBatchCommand(z float32, m Affine, blend BlendFunc, atlas *TextureAtlas, r QuadRange) *BatchCommand {
	return &BatchCommand{
		command: command{z: z, m: m},
		atlas:   atlas,
		blend:   blend,
		quads:   r,
	}
}

func (c *BatchCommand) Kind() CommandKind           { return KindBatch }
func (c *BatchCommand) TextureAtlas() *TextureAtlas { return c.atlas }
func (c *BatchCommand) BlendType() BlendFunc        { return c.blend }
func (c *BatchCommand) Quads() QuadRange            { return c.quads }

// CompatibleWith reports whether c and o can be drawn without a state change
// between them: same atlas and same blend function.
func (c *BatchCommand) CompatibleWith(o *BatchCommand) bool {
	return c.atlas == o.atlas && c.blend == o.blend
}

// RenderBatch binds the atlas texture, sets the blend function and submits the
// quads, in that order.
func (c *BatchCommand) RenderBatch(dm DrawManager) {
	c.bind(dm, true)
	c.submit(dm)
}

func (c *BatchCommand) bind(dm DrawManager, setBlend bool) {
	dm.BindTexture(c.atlas.Texture())
	if setBlend {
		dm.SetBlendFunc(c.blend)
	}
}

func (c *BatchCommand) submit(dm DrawManager) {
	dm.SubmitQuads(c.atlas, c.quads, c.m)
}

func (c *BatchCommand) requestRenderCommand(r *Renderer, index int) {
	r.processBatchCommand(c, index)
}

func (c *BatchCommand) String() string {
	return fmt.Sprintf("Batch{z=%g %v %v quads=%d+%d}", c.z, c.atlas, c.blend, c.quads.Start, c.quads.Count)
}

// DrawFunc draws directly through a DrawManager. m is the command's world
// transform.
type DrawFunc func(dm DrawManager, m Affine)

// A CustomCommand runs a DrawFunc at its place in the frame. It ends any batch
// in progress, and the Renderer assumes nothing about the GPU state it leaves
// behind.
type CustomCommand struct {
	command
	fn DrawFunc
}

// NewCustomCommand returns a command calling fn when flushed.
func NewCustomCommand(z float32, m Affine, fn DrawFunc) *CustomCommand {
	if fn == nil {
		panic("grender: nil DrawFunc")
	}
	return &CustomCommand{command: command{z: z, m: m}, fn: fn}
}

func (c *CustomCommand) Kind() CommandKind { return KindCustom }

func (c *CustomCommand) requestRenderCommand(r *Renderer, index int) {
	r.processCustomCommand(c, index)
}

// A GroupCommand renders a set of commands as a unit at its own z order.
// Children are sorted by their own z order within the group.
type GroupCommand struct {
	command
	cmds []RenderCommand
}

// NewGroupCommand returns a group of cmds. It panics if any of cmds is nil or
// of an unknown type.
func NewGroupCommand(z float32, m Affine, cmds ...RenderCommand) *GroupCommand {
	for _, c := range cmds {
		mustKnow(c)
	}
	g := &GroupCommand{command: command{z: z, m: m}, cmds: make([]RenderCommand, len(cmds))}
	copy(g.cmds, cmds)
	sortCommands(g.cmds)
	return g
}

func (c *GroupCommand) Kind() CommandKind { return KindGroup }

// Len returns the number of commands in the group.
func (c *GroupCommand) Len() int { return len(c.cmds) }

// Commands returns a copy of the group's commands in execution order.
func (c *GroupCommand) Commands() []RenderCommand {
	cmds := make([]RenderCommand, len(c.cmds))
	copy(cmds, c.cmds)
	return cmds
}

func (c *GroupCommand) requestRenderCommand(r *Renderer, index int) {
	r.processGroupCommand(c, index)
}

// mustKnow panics if c is nil or not one of the known command types.
func mustKnow(c RenderCommand) {
	switch c := c.(type) {
	case *BatchCommand:
		if c != nil {
			return
		}
	case *CustomCommand:
		if c != nil {
			return
		}
	case *GroupCommand:
		if c != nil {
			return
		}
	case nil:
	default:
		panic(fmt.Sprintf("grender: unknown RenderCommand type %T", c))
	}
	panic("grender: nil RenderCommand")
}
