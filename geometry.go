package walkmesh

import (
	gomath "math"

	"github.com/Faultbox/walkmesh/pkg/math"
)

// geomEpsilon absorbs float32 drift in containment and intersection
// tests. Edge-touching points count as inside.
const geomEpsilon = 1e-5

// pointInTriangle reports whether p lies inside or on the triangle
// (a, b, c) projected onto the ground plane. Sign-of-cross-product
// test; tolerant of either winding.
func pointInTriangle(p, a, b, c math.Vec2) bool {
	d1 := b.Sub(a).Cross(p.Sub(a))
	d2 := c.Sub(b).Cross(p.Sub(b))
	d3 := a.Sub(c).Cross(p.Sub(c))

	hasNeg := d1 < -geomEpsilon || d2 < -geomEpsilon || d3 < -geomEpsilon
	hasPos := d1 > geomEpsilon || d2 > geomEpsilon || d3 > geomEpsilon

	return !(hasNeg && hasPos)
}

// planeHeight evaluates the face plane A*x + B*y + C*z + D = 0 at the
// given ground position. Returns false for a near-vertical face
// (|C| ~ 0); the caller falls back to averaging vertex heights.
func planeHeight(x, y float32, normal math.Vec3, planeD float32) (float32, bool) {
	if gomath.Abs(float64(normal.Z)) < geomEpsilon {
		return 0, false
	}
	return -(normal.X*x + normal.Y*y + planeD) / normal.Z, true
}

// rayTriangleIntersect runs the Moller-Trumbore test against triangle
// (a, b, c). Hits behind the origin or beyond maxDist are rejected.
// Returns the distance along dir (which must be normalized for the
// distance to be metric).
func rayTriangleIntersect(origin, dir, a, b, c math.Vec3, maxDist float32) (float32, bool) {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)

	pvec := dir.Cross(edge2)
	det := edge1.Dot(pvec)
	if det > -geomEpsilon && det < geomEpsilon {
		return 0, false // parallel or degenerate triangle
	}
	invDet := 1 / det

	tvec := origin.Sub(a)
	u := tvec.Dot(pvec) * invDet
	if u < -geomEpsilon || u > 1+geomEpsilon {
		return 0, false
	}

	qvec := tvec.Cross(edge1)
	v := dir.Dot(qvec) * invDet
	if v < -geomEpsilon || u+v > 1+geomEpsilon {
		return 0, false
	}

	t := edge2.Dot(qvec) * invDet
	if t < geomEpsilon || t > maxDist {
		return 0, false
	}
	return t, true
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max math.Vec3
}

// emptyAABB returns a box that expands to exactly the first point
// added to it.
func emptyAABB() AABB {
	inf := float32(gomath.Inf(1))
	return AABB{
		Min: math.Vec3{X: inf, Y: inf, Z: inf},
		Max: math.Vec3{X: -inf, Y: -inf, Z: -inf},
	}
}

// ExpandToPoint grows the box to include p.
func (b *AABB) ExpandToPoint(p math.Vec3) {
	b.Min.X = minf(b.Min.X, p.X)
	b.Min.Y = minf(b.Min.Y, p.Y)
	b.Min.Z = minf(b.Min.Z, p.Z)
	b.Max.X = maxf(b.Max.X, p.X)
	b.Max.Y = maxf(b.Max.Y, p.Y)
	b.Max.Z = maxf(b.Max.Z, p.Z)
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: math.Vec3{
			X: minf(b.Min.X, other.Min.X),
			Y: minf(b.Min.Y, other.Min.Y),
			Z: minf(b.Min.Z, other.Min.Z),
		},
		Max: math.Vec3{
			X: maxf(b.Max.X, other.Max.X),
			Y: maxf(b.Max.Y, other.Max.Y),
			Z: maxf(b.Max.Z, other.Max.Z),
		},
	}
}

// ContainsXY reports whether the ground-plane projection of the box
// contains (x, y), expanded by epsilon so edge-touching queries are not
// lost between sibling boxes.
func (b AABB) ContainsXY(x, y float32) bool {
	return x >= b.Min.X-geomEpsilon && x <= b.Max.X+geomEpsilon &&
		y >= b.Min.Y-geomEpsilon && y <= b.Max.Y+geomEpsilon
}

// Center returns the box midpoint.
func (b AABB) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// LongestAxis returns 0, 1 or 2 for the longest box dimension.
func (b AABB) LongestAxis() int {
	size := b.Max.Sub(b.Min)
	axis := 0
	if size.Y > size.X {
		axis = 1
	}
	if size.Z > vecAxis(size, axis) {
		axis = 2
	}
	return axis
}

// IntersectRay tests the ray against the box with the slab method.
// Returns the entry distance, or zero if the origin starts inside the
// box. The result is a lower bound on the distance of any hit inside
// the box, which is what tree traversal prunes on.
func (b AABB) IntersectRay(origin, dir math.Vec3) (float32, bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		o := vecAxis(origin, axis)
		d := vecAxis(dir, axis)
		lo := vecAxis(b.Min, axis)
		hi := vecAxis(b.Max, axis)

		if d != 0 {
			t1 := (lo - o) / d
			t2 := (hi - o) / d
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			if t1 > tmin {
				tmin = t1
			}
			if t2 < tmax {
				tmax = t2
			}
		} else if o < lo || o > hi {
			return 0, false
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return 0, true // origin inside the box, entry clamps to zero
	}
	return tmin, true
}

// vecAxis returns the vector component for axis 0 (X), 1 (Y) or 2 (Z).
func vecAxis(v math.Vec3, axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func isFinite(v float32) bool {
	f := float64(v)
	return !gomath.IsNaN(f) && !gomath.IsInf(f, 0)
}
