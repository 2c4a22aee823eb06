package walkmesh

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/walkmesh/pkg/math"
)

func TestPointInTriangle(t *testing.T) {
	a := math.Vec2{X: 0, Y: 0}
	b := math.Vec2{X: 1, Y: 0}
	c := math.Vec2{X: 0, Y: 1}

	tests := []struct {
		name string
		p    math.Vec2
		want bool
	}{
		{"inside", math.Vec2{X: 0.25, Y: 0.25}, true},
		{"outside", math.Vec2{X: 1, Y: 1}, false},
		{"far outside", math.Vec2{X: -5, Y: 3}, false},
		{"on vertex", math.Vec2{X: 0, Y: 0}, true},
		{"on edge", math.Vec2{X: 0.5, Y: 0}, true},
		{"on hypotenuse", math.Vec2{X: 0.5, Y: 0.5}, true},
		{"just outside edge", math.Vec2{X: 0.5, Y: -0.01}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pointInTriangle(tt.p, a, b, c); got != tt.want {
				t.Errorf("pointInTriangle(%v) = %v, want %v", tt.p, got, tt.want)
			}
			// Winding must not matter.
			if got := pointInTriangle(tt.p, c, b, a); got != tt.want {
				t.Errorf("pointInTriangle(%v) reversed winding = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPlaneHeightFlat(t *testing.T) {
	// Horizontal plane at z = 2.
	z, ok := planeHeight(3, -7, math.Vec3{X: 0, Y: 0, Z: 1}, -2)
	if !ok {
		t.Fatal("expected horizontal plane to evaluate")
	}
	if z != 2 {
		t.Errorf("expected height 2, got %f", z)
	}
}

func TestPlaneHeightSloped(t *testing.T) {
	// Plane through (0,0,0), (1,0,1), (0,1,0): z = x.
	a := math.Vec3{X: 0, Y: 0, Z: 0}
	b := math.Vec3{X: 1, Y: 0, Z: 1}
	c := math.Vec3{X: 0, Y: 1, Z: 0}
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	d := -n.Dot(a)

	z, ok := planeHeight(0.25, 0.5, n, d)
	if !ok {
		t.Fatal("expected sloped plane to evaluate")
	}
	if gomath.Abs(float64(z-0.25)) > 1e-5 {
		t.Errorf("expected height 0.25, got %f", z)
	}
}

func TestPlaneHeightVertical(t *testing.T) {
	if _, ok := planeHeight(0, 0, math.Vec3{X: 1, Y: 0, Z: 0}, 0); ok {
		t.Error("expected vertical plane to report no height")
	}
}

func TestRayTriangleIntersect(t *testing.T) {
	a := math.Vec3{X: 0, Y: 0, Z: 0}
	b := math.Vec3{X: 1, Y: 0, Z: 0}
	c := math.Vec3{X: 0, Y: 1, Z: 0}

	down := math.Vec3{X: 0, Y: 0, Z: -1}
	up := math.Vec3{X: 0, Y: 0, Z: 1}

	if d, ok := rayTriangleIntersect(math.Vec3{X: 0.2, Y: 0.2, Z: 5}, down, a, b, c, 100); !ok {
		t.Error("expected hit from above")
	} else if gomath.Abs(float64(d-5)) > 1e-4 {
		t.Errorf("expected distance 5, got %f", d)
	}

	if _, ok := rayTriangleIntersect(math.Vec3{X: 0.2, Y: 0.2, Z: 5}, up, a, b, c, 100); ok {
		t.Error("expected no hit behind the origin")
	}

	if _, ok := rayTriangleIntersect(math.Vec3{X: 0.2, Y: 0.2, Z: 5}, down, a, b, c, 2); ok {
		t.Error("expected no hit beyond max distance")
	}

	if _, ok := rayTriangleIntersect(math.Vec3{X: 2, Y: 2, Z: 5}, down, a, b, c, 100); ok {
		t.Error("expected miss outside the triangle")
	}

	// Ray parallel to the triangle plane.
	if _, ok := rayTriangleIntersect(math.Vec3{X: 0, Y: 0, Z: 5}, math.Vec3{X: 1, Y: 0, Z: 0}, a, b, c, 100); ok {
		t.Error("expected no hit for a parallel ray")
	}
}

func TestAABBContainsXY(t *testing.T) {
	box := AABB{
		Min: math.Vec3{X: 0, Y: 0, Z: 0},
		Max: math.Vec3{X: 2, Y: 1, Z: 5},
	}

	if !box.ContainsXY(1, 0.5) {
		t.Error("expected interior point contained")
	}
	if !box.ContainsXY(2, 1) {
		t.Error("expected corner contained")
	}
	if box.ContainsXY(2.1, 0.5) {
		t.Error("expected point past max excluded")
	}
	if box.ContainsXY(-0.1, 0.5) {
		t.Error("expected point before min excluded")
	}
}

func TestAABBIntersectRay(t *testing.T) {
	box := AABB{
		Min: math.Vec3{X: 0, Y: 0, Z: 0},
		Max: math.Vec3{X: 1, Y: 1, Z: 1},
	}

	// Straight at the box.
	if d, ok := box.IntersectRay(math.Vec3{X: 0.5, Y: 0.5, Z: 3}, math.Vec3{X: 0, Y: 0, Z: -1}); !ok {
		t.Error("expected hit")
	} else if gomath.Abs(float64(d-2)) > 1e-5 {
		t.Errorf("expected entry distance 2, got %f", d)
	}

	// Origin inside: the entry distance clamps to zero so the result
	// never overestimates the distance of a hit inside the box.
	if d, ok := box.IntersectRay(math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}, math.Vec3{X: 0, Y: 0, Z: -1}); !ok {
		t.Error("expected hit from inside")
	} else if d != 0 {
		t.Errorf("expected zero entry distance from inside, got %f", d)
	}

	// Pointing away.
	if _, ok := box.IntersectRay(math.Vec3{X: 0.5, Y: 0.5, Z: 3}, math.Vec3{X: 0, Y: 0, Z: 1}); ok {
		t.Error("expected miss pointing away")
	}

	// Parallel to a slab and outside it.
	if _, ok := box.IntersectRay(math.Vec3{X: 5, Y: 0.5, Z: 0.5}, math.Vec3{X: 0, Y: 1, Z: 0}); ok {
		t.Error("expected miss for parallel ray outside the slab")
	}
}

func TestAABBLongestAxis(t *testing.T) {
	box := AABB{
		Min: math.Vec3{X: 0, Y: 0, Z: 0},
		Max: math.Vec3{X: 1, Y: 5, Z: 2},
	}
	if got := box.LongestAxis(); got != 1 {
		t.Errorf("expected longest axis 1 (Y), got %d", got)
	}
}

func TestAABBUnionExpand(t *testing.T) {
	box := emptyAABB()
	box.ExpandToPoint(math.Vec3{X: 1, Y: 2, Z: 3})
	box.ExpandToPoint(math.Vec3{X: -1, Y: 0, Z: 5})

	want := AABB{
		Min: math.Vec3{X: -1, Y: 0, Z: 3},
		Max: math.Vec3{X: 1, Y: 2, Z: 5},
	}
	if box != want {
		t.Errorf("expanded box = %v, want %v", box, want)
	}

	other := AABB{
		Min: math.Vec3{X: 0, Y: -4, Z: 0},
		Max: math.Vec3{X: 0, Y: 0, Z: 9},
	}
	union := box.Union(other)
	if union.Min.Y != -4 || union.Max.Z != 9 || union.Min.X != -1 {
		t.Errorf("unexpected union: %v", union)
	}
}
