// Package drawtest provides a DrawManager recording every call, for tests.
package drawtest

import (
	"fmt"
	"strings"

	"github.com/db47h/grender"
)

// Op identifies a DrawManager method.
type Op int

const (
	Bind Op = iota
	Blend
	Submit
	Custom
)

func (o Op) String() string {
	switch o {
	case Bind:
		return "bind"
	case Blend:
		return "blend"
	case Submit:
		return "submit"
	case Custom:
		return "custom"
	}
	return "unknown"
}

// Call is one recorded DrawManager call.
type Call struct {
	Op        Op
	Texture   grender.TextureID
	Blend     grender.BlendFunc
	Atlas     grender.AtlasHandle
	Range     grender.QuadRange
	Transform grender.Affine
	Tag       string // set by Mark
}

func (c Call) String() string {
	switch c.Op {
	case Bind:
		return fmt.Sprintf("bind(%d)", c.Texture)
	case Blend:
		return fmt.Sprintf("blend(%v)", c.Blend)
	case Submit:
		return fmt.Sprintf("submit(%d,%d)", uint32(c.Atlas), c.Range.Count)
	case Custom:
		return "custom(" + c.Tag + ")"
	}
	return "unknown"
}

// Recorder is a grender.DrawManager, grender.Surface and
// grender.TextureValidator that records calls.
type Recorder struct {
	Calls []Call

	lost    bool
	invalid map[grender.TextureID]bool
}

var (
	_ grender.DrawManager      = (*Recorder)(nil)
	_ grender.Surface          = (*Recorder)(nil)
	_ grender.TextureValidator = (*Recorder)(nil)
)

func (r *Recorder) BindTexture(t grender.TextureID) {
	r.Calls = append(r.Calls, Call{Op: Bind, Texture: t})
}

func (r *Recorder) SetBlendFunc(b grender.BlendFunc) {
	r.Calls = append(r.Calls, Call{Op: Blend, Blend: b})
}

func (r *Recorder) SubmitQuads(a *grender.TextureAtlas, qr grender.QuadRange, m grender.Affine) {
	r.Calls = append(r.Calls, Call{Op: Submit, Atlas: a.Handle(), Range: qr, Transform: m})
}

// Mark records a Custom call tagged with tag. Custom commands use it to show
// where they ran.
func (r *Recorder) Mark(tag string) {
	r.Calls = append(r.Calls, Call{Op: Custom, Tag: tag})
}

// Valid implements grender.Surface.
func (r *Recorder) Valid() bool { return !r.lost }

// SetLost marks the surface as lost or restored.
func (r *Recorder) SetLost(lost bool) { r.lost = lost }

// TextureValid implements grender.TextureValidator.
func (r *Recorder) TextureValid(t grender.TextureID) bool { return !r.invalid[t] }

// Invalidate makes TextureValid return false for t.
func (r *Recorder) Invalidate(t grender.TextureID) {
	if r.invalid == nil {
		r.invalid = make(map[grender.TextureID]bool)
	}
	r.invalid[t] = true
}

// Count returns the number of recorded calls of type op.
func (r *Recorder) Count(op Op) int {
	n := 0
	for _, c := range r.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Ops returns the recorded calls, one per element, formatted with Call.String.
func (r *Recorder) Ops() []string {
	s := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		s[i] = c.String()
	}
	return s
}

func (r *Recorder) String() string {
	return strings.Join(r.Ops(), " ")
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.Calls = r.Calls[:0]
}
