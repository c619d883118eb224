package grender

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"
)

// Affine is a 2D affine transform. A point (x, y) maps to
//
//	x' = A*x + C*y + Tx
//	y' = B*x + D*y + Ty
//
// Affine is a value type: commands store a copy taken when they are recorded,
// never a reference into the scene graph that produced them.
type Affine struct {
	A, B, C, D float32
	Tx, Ty     float32
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{A: 1, D: 1}
}

// Translation returns a transform translating by (tx, ty).
func Translation(tx, ty float32) Affine {
	return Affine{A: 1, D: 1, Tx: tx, Ty: ty}
}

// Scaling returns a transform scaling by (sx, sy).
func Scaling(sx, sy float32) Affine {
	return Affine{A: sx, D: sy}
}

// Rotation returns a transform rotating by angle radians.
func Rotation(angle float32) Affine {
	sin, cos := math32.Sincos(angle)
	return Affine{A: cos, B: sin, C: -sin, D: cos}
}

// Mul returns the transform that applies n first, then m.
func (m Affine) Mul(n Affine) Affine {
	return Affine{
		A:  m.A*n.A + m.C*n.B,
		B:  m.B*n.A + m.D*n.B,
		C:  m.A*n.C + m.C*n.D,
		D:  m.B*n.C + m.D*n.D,
		Tx: m.A*n.Tx + m.C*n.Ty + m.Tx,
		Ty: m.B*n.Tx + m.D*n.Ty + m.Ty,
	}
}

// Translate returns m followed by a translation.
func (m Affine) Translate(tx, ty float32) Affine { return Translation(tx, ty).Mul(m) }

// Scale returns m followed by a scale.
func (m Affine) Scale(sx, sy float32) Affine { return Scaling(sx, sy).Mul(m) }

// Rotate returns m followed by a rotation.
func (m Affine) Rotate(angle float32) Affine { return Rotation(angle).Mul(m) }

// Apply transforms p.
func (m Affine) Apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.C*p.Y + m.Tx,
		Y: m.B*p.X + m.D*p.Y + m.Ty,
	}
}

// Det returns the determinant of the linear part of m.
func (m Affine) Det() float32 {
	return m.A*m.D - m.B*m.C
}

// Invert returns the inverse of m. ok is false if m is singular.
func (m Affine) Invert() (inv Affine, ok bool) {
	det := m.Det()
	if det == 0 || math32.IsNaN(det) {
		return Affine{}, false
	}
	id := 1 / det
	inv = Affine{
		A: m.D * id,
		B: -m.B * id,
		C: -m.C * id,
		D: m.A * id,
	}
	inv.Tx = -(inv.A*m.Tx + inv.C*m.Ty)
	inv.Ty = -(inv.B*m.Tx + inv.D*m.Ty)
	return inv, true
}

func (m Affine) IsIdentity() bool {
	return m == Identity()
}

// Bounds returns the smallest integer rectangle containing r transformed by m.
func (m Affine) Bounds(r image.Rectangle) image.Rectangle {
	pts := [4]Point{
		m.Apply(PtPt(r.Min)),
		m.Apply(Pt(float32(r.Max.X), float32(r.Min.Y))),
		m.Apply(Pt(float32(r.Min.X), float32(r.Max.Y))),
		m.Apply(PtPt(r.Max)),
	}
	min, max := pts[0], pts[0]
	for _, p := range pts[1:] {
		min.X, min.Y = math32.Min(min.X, p.X), math32.Min(min.Y, p.Y)
		max.X, max.Y = math32.Max(max.X, p.X), math32.Max(max.Y, p.Y)
	}
	return image.Rect(int(floor(min.X)), int(floor(min.Y)), int(math32.Ceil(max.X)), int(math32.Ceil(max.Y)))
}

func (m Affine) String() string {
	return fmt.Sprintf("[%g %g %g; %g %g %g]", m.A, m.C, m.Tx, m.B, m.D, m.Ty)
}

func floor(v float32) float32 { return math32.Floor(v) }
