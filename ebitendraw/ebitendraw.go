// Package ebitendraw implements a grender.DrawManager and an app.Driver on top
// of Ebiten.
package ebitendraw

import (
	"image"

	"github.com/db47h/grender"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

var compositeModes = map[grender.BlendFunc]ebiten.CompositeMode{
	{Src: grender.One, Dst: grender.OneMinusSrcAlpha}:              ebiten.CompositeModeSourceOver,
	{Src: grender.Zero, Dst: grender.Zero}:                         ebiten.CompositeModeClear,
	{Src: grender.One, Dst: grender.Zero}:                          ebiten.CompositeModeCopy,
	{Src: grender.Zero, Dst: grender.One}:                          ebiten.CompositeModeDestination,
	{Src: grender.OneMinusDstAlpha, Dst: grender.One}:              ebiten.CompositeModeDestinationOver,
	{Src: grender.DstAlpha, Dst: grender.Zero}:                     ebiten.CompositeModeSourceIn,
	{Src: grender.Zero, Dst: grender.SrcAlpha}:                     ebiten.CompositeModeDestinationIn,
	{Src: grender.OneMinusDstAlpha, Dst: grender.Zero}:             ebiten.CompositeModeSourceOut,
	{Src: grender.Zero, Dst: grender.OneMinusSrcAlpha}:             ebiten.CompositeModeDestinationOut,
	{Src: grender.DstAlpha, Dst: grender.OneMinusSrcAlpha}:         ebiten.CompositeModeSourceAtop,
	{Src: grender.OneMinusDstAlpha, Dst: grender.SrcAlpha}:         ebiten.CompositeModeDestinationAtop,
	{Src: grender.OneMinusDstAlpha, Dst: grender.OneMinusSrcAlpha}: ebiten.CompositeModeXor,
	{Src: grender.One, Dst: grender.One}:                           ebiten.CompositeModeLighter,
	{Src: grender.DstColor, Dst: grender.OneMinusSrcAlpha}:         ebiten.CompositeModeMultiply,

	// Ebiten images are premultiplied.
	grender.BlendAlphaNonPremultiplied: ebiten.CompositeModeSourceOver,
	grender.BlendAdditive:              ebiten.CompositeModeLighter,
}

// CompositeMode returns the Ebiten composite mode for b. ok is false if Ebiten
// has no equivalent, in which case CompositeModeSourceOver is returned.
func CompositeMode(b grender.BlendFunc) (mode ebiten.CompositeMode, ok bool) {
	mode, ok = compositeModes[b]
	if !ok {
		return ebiten.CompositeModeSourceOver, false
	}
	return mode, true
}

// GeoM converts m to an Ebiten geometry matrix.
func GeoM(m grender.Affine) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, float64(m.A))
	g.SetElement(0, 1, float64(m.C))
	g.SetElement(0, 2, float64(m.Tx))
	g.SetElement(1, 0, float64(m.B))
	g.SetElement(1, 1, float64(m.D))
	g.SetElement(1, 2, float64(m.Ty))
	return g
}

// DrawManager draws quads onto an Ebiten screen. Textures are Ebiten images.
//
// The screen is only available during Game.Draw; outside of it, the surface
// is reported invalid and flushes are dropped.
type DrawManager struct {
	screen   *ebiten.Image
	textures map[grender.TextureID]*ebiten.Image
	next     grender.TextureID
	bound    *ebiten.Image
	op       ebiten.DrawImageOptions
	log      *zap.Logger
	warned   map[grender.BlendFunc]bool
}

var (
	_ grender.DrawManager      = (*DrawManager)(nil)
	_ grender.Surface          = (*DrawManager)(nil)
	_ grender.TextureValidator = (*DrawManager)(nil)
)

// NewDrawManager returns a new DrawManager. A nil logger discards all logs.
func NewDrawManager(log *zap.Logger) *DrawManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &DrawManager{
		textures: make(map[grender.TextureID]*ebiten.Image),
		log:      log,
		warned:   make(map[grender.BlendFunc]bool),
	}
}

// SetScreen sets the render target. Pass nil once the screen is no longer
// valid.
func (dm *DrawManager) SetScreen(screen *ebiten.Image) { dm.screen = screen }

// Upload creates a texture from img.
func (dm *DrawManager) Upload(img image.Image) grender.TextureID {
	dm.next++
	dm.textures[dm.next] = ebiten.NewImageFromImage(img)
	return dm.next
}

// DeleteTexture disposes of texture id.
func (dm *DrawManager) DeleteTexture(id grender.TextureID) {
	t, ok := dm.textures[id]
	if !ok {
		return
	}
	if dm.bound == t {
		dm.bound = nil
	}
	t.Dispose()
	delete(dm.textures, id)
}

func (dm *DrawManager) TextureValid(id grender.TextureID) bool {
	_, ok := dm.textures[id]
	return ok
}

func (dm *DrawManager) Valid() bool { return dm.screen != nil }

func (dm *DrawManager) BindTexture(id grender.TextureID) {
	dm.bound = dm.textures[id]
}

func (dm *DrawManager) SetBlendFunc(b grender.BlendFunc) {
	mode, ok := CompositeMode(b)
	if !ok && !dm.warned[b] {
		dm.warned[b] = true
		dm.log.Warn("Unsupported blend function, using source-over", zap.Stringer("blend", b))
	}
	dm.op.CompositeMode = mode
}

func (dm *DrawManager) SubmitQuads(atlas *grender.TextureAtlas, r grender.QuadRange, m grender.Affine) {
	if dm.bound == nil || dm.screen == nil {
		return
	}
	for _, q := range atlas.QuadsIn(r) {
		sub, ok := dm.bound.SubImage(q.Src).(*ebiten.Image)
		if !ok {
			continue
		}
		dm.op.GeoM = GeoM(m.Mul(q.Transform))
		dm.screen.DrawImage(sub, &dm.op)
	}
}
