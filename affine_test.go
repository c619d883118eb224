package grender_test

import (
	"image"
	"testing"

	"github.com/chewxy/math32"
	"github.com/db47h/grender"
	"github.com/stretchr/testify/assert"
)

func assertPoint(t *testing.T, want, got grender.Point) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-4, "X")
	assert.InDelta(t, want.Y, got.Y, 1e-4, "Y")
}

func TestAffineApply(t *testing.T) {
	p := grender.Pt(2, 3)
	assertPoint(t, grender.Pt(12, 23), grender.Translation(10, 20).Apply(p))
	assertPoint(t, grender.Pt(4, 9), grender.Scaling(2, 3).Apply(p))
	assertPoint(t, grender.Pt(-3, 2), grender.Rotation(math32.Pi/2).Apply(p))
	assert.True(t, grender.Identity().IsIdentity())
	assert.Equal(t, p, grender.Identity().Apply(p))
}

func TestAffineComposition(t *testing.T) {
	// scale first, then translate
	m := grender.Scaling(2, 2).Translate(10, 0)
	assertPoint(t, grender.Pt(12, 2), m.Apply(grender.Pt(1, 1)))
	assert.Equal(t, grender.Translation(10, 0).Mul(grender.Scaling(2, 2)), m)

	// translate first, then scale
	n := grender.Translation(10, 0).Scale(2, 2)
	assertPoint(t, grender.Pt(22, 2), n.Apply(grender.Pt(1, 1)))

	r := grender.Translation(5, 0).Rotate(math32.Pi)
	assertPoint(t, grender.Pt(-5, 0), r.Apply(grender.Pt(0, 0)))
}

func TestAffineInvert(t *testing.T) {
	m := grender.Translation(3, -7).Rotate(0.3).Scale(2, 0.5)
	inv, ok := m.Invert()
	assert.True(t, ok)
	p := grender.Pt(11, 13)
	assertPoint(t, p, inv.Apply(m.Apply(p)))
	assert.InDelta(t, 1, m.Det(), 1e-5)

	_, ok = grender.Scaling(0, 1).Invert()
	assert.False(t, ok)
}

func TestAffineBounds(t *testing.T) {
	r := image.Rect(0, 0, 10, 20)
	assert.Equal(t, image.Rect(5, 5, 15, 25), grender.Translation(5, 5).Bounds(r))
	assert.Equal(t, image.Rect(0, 0, 5, 10), grender.Scaling(0.5, 0.5).Bounds(r))
	assert.Equal(t, image.Rect(0, 0, 4, 5), grender.Scaling(0.35, 0.25).Bounds(r))
}
