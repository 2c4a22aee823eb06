package walkmesh

import (
	"testing"

	"github.com/Faultbox/walkmesh/pkg/math"
)

// blockedGridMesh is a 3x3 grid whose center cell is non-walkable and
// whose top row carries the given material.
func blockedGridMesh(t *testing.T, topRow Material) *Mesh {
	t.Helper()
	material := func(cx, cy int) Material {
		if cx == 1 && cy == 1 {
			return MaterialNonWalk
		}
		if cy == 2 {
			return topRow
		}
		return MaterialDirt
	}
	return buildMesh(t, gridData(3, 3, material), Options{Indexed: true})
}

func TestFindPathSameFace(t *testing.T) {
	m := buildMesh(t, squareData(0, MaterialDirt, MaterialDirt), Options{})

	start := math.Vec3{X: 0.6, Y: 0.3, Z: 0}
	goal := math.Vec3{X: 0.9, Y: 0.05, Z: 0}
	path := m.FindPath(start, goal, PathOptions{})
	if len(path) != 2 {
		t.Fatalf("expected exactly [start, goal], got %d points", len(path))
	}
	if path[0] != start || path[1] != goal {
		t.Errorf("expected endpoints unchanged, got %v", path)
	}
}

func TestFindPathStraightCorridorCollapses(t *testing.T) {
	m := buildMesh(t, gridData(5, 1, allDirt), Options{Indexed: true})

	start := math.Vec3{X: 0.5, Y: 0.5, Z: 0}
	goal := math.Vec3{X: 4.5, Y: 0.5, Z: 0}
	path := m.FindPath(start, goal, PathOptions{})
	if path == nil {
		t.Fatal("expected a path along the corridor")
	}
	// Nothing blocks the straight segment, so smoothing must drop every
	// intermediate edge midpoint.
	if len(path) != 2 {
		t.Errorf("expected the smoothed path to be [start, goal], got %d points: %v", len(path), path)
	}
	if path[0] != start || path[len(path)-1] != goal {
		t.Errorf("expected endpoints unchanged, got %v", path)
	}
}

func TestFindPathAroundBlockedCenter(t *testing.T) {
	m := blockedGridMesh(t, MaterialDirt)

	start := math.Vec3{X: 0.5, Y: 1.5, Z: 0}
	goal := math.Vec3{X: 2.5, Y: 1.5, Z: 0}
	path := m.FindPath(start, goal, PathOptions{})
	if path == nil {
		t.Fatal("expected a detour around the blocked cell")
	}
	if path[0] != start || path[len(path)-1] != goal {
		t.Errorf("expected endpoints unchanged, got %v", path)
	}
	// The straight line crosses the blocked cell, so at least one turn
	// must survive smoothing.
	if len(path) < 3 {
		t.Errorf("expected a turn in the path, got %v", path)
	}
	for i, p := range path {
		if _, ok := m.FindFaceAt(p.X, p.Y, true); !ok {
			t.Errorf("waypoint %d at (%f, %f) is off the walkable surface", i, p.X, p.Y)
		}
	}
}

func TestFindPathPrefersCheapSurface(t *testing.T) {
	// Two detours exist around the blocked center: plain dirt below,
	// heavily penalized puddles above. The search must take the dirt.
	m := blockedGridMesh(t, MaterialPuddles)

	start := math.Vec3{X: 0.5, Y: 1.5, Z: 0}
	goal := math.Vec3{X: 2.5, Y: 1.5, Z: 0}
	path := m.FindPath(start, goal, PathOptions{})
	if path == nil {
		t.Fatal("expected a path around the blocked cell")
	}
	for i, p := range path {
		if p.Y >= 2 {
			t.Errorf("waypoint %d at (%f, %f) entered the penalized row", i, p.X, p.Y)
		}
	}
}

func TestFindPathLongShortcutStaysBlocked(t *testing.T) {
	// A corridor long enough that a fixed sample budget would space the
	// surface checks wider than a cell, letting the straight shortcut
	// slip past the blocked cell between samples. The sampling step
	// must scale with mesh density instead, so the shortcut is rejected
	// and the detour through the upper row survives smoothing.
	material := func(cx, cy int) Material {
		if cx == 35 && cy == 0 {
			return MaterialNonWalk
		}
		return MaterialDirt
	}
	m := buildMesh(t, gridData(70, 2, material), Options{Indexed: true})

	start := math.Vec3{X: 0.5, Y: 0.5, Z: 0}
	goal := math.Vec3{X: 69.5, Y: 0.5, Z: 0}

	if m.segmentWalkable(start, goal) {
		t.Fatal("expected the straight segment through the blocked cell to be rejected")
	}

	path := m.FindPath(start, goal, PathOptions{})
	if path == nil {
		t.Fatal("expected a detour around the blocked cell")
	}
	if path[0] != start || path[len(path)-1] != goal {
		t.Errorf("expected endpoints unchanged, got %v and %v", path[0], path[len(path)-1])
	}
	if len(path) < 3 {
		t.Errorf("expected the detour to keep a turn, got %v", path)
	}
}

func TestFindPathUnreachableIsland(t *testing.T) {
	// Two disconnected squares in one mesh.
	m := buildMesh(t, MeshData{
		Vertices: []math.Vec3{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
			{X: 5, Y: 0}, {X: 6, Y: 0}, {X: 6, Y: 1}, {X: 5, Y: 1},
		},
		Indices:   []int32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7},
		Materials: []Material{MaterialDirt, MaterialDirt, MaterialDirt, MaterialDirt},
	}, Options{Indexed: true})

	path := m.FindPath(math.Vec3{X: 0.5, Y: 0.5}, math.Vec3{X: 5.5, Y: 0.5}, PathOptions{})
	if path != nil {
		t.Errorf("expected no path between islands, got %v", path)
	}
}

func TestFindPathEndpointResolution(t *testing.T) {
	m := buildMesh(t, squareData(0, MaterialDirt, MaterialLava), Options{})

	onDirt := math.Vec3{X: 0.8, Y: 0.1}
	if path := m.FindPath(math.Vec3{X: -1, Y: -1}, onDirt, PathOptions{}); path != nil {
		t.Errorf("expected nil for a start off the mesh, got %v", path)
	}
	// (0.2, 0.8) lies above the diagonal, on the lava face only.
	if path := m.FindPath(onDirt, math.Vec3{X: 0.2, Y: 0.8}, PathOptions{}); path != nil {
		t.Errorf("expected nil for a goal on lava, got %v", path)
	}
}

func TestFindPathIterationCap(t *testing.T) {
	m := buildMesh(t, gridData(5, 1, allDirt), Options{Indexed: true})

	start := math.Vec3{X: 0.5, Y: 0.5}
	goal := math.Vec3{X: 4.5, Y: 0.5}
	if path := m.FindPath(start, goal, PathOptions{MaxIterations: 1}); path != nil {
		t.Errorf("expected the capped search to fail, got %v", path)
	}
	if path := m.FindPath(start, goal, PathOptions{}); path == nil {
		t.Error("expected the uncapped search to succeed")
	}
}

func TestFindPathDeterministic(t *testing.T) {
	m := blockedGridMesh(t, MaterialDirt)

	start := math.Vec3{X: 0.5, Y: 1.5, Z: 0}
	goal := math.Vec3{X: 2.5, Y: 1.5, Z: 0}
	first := m.FindPath(start, goal, PathOptions{})
	second := m.FindPath(start, goal, PathOptions{})
	if len(first) == 0 || len(first) != len(second) {
		t.Fatalf("expected identical repeat results, got %d and %d points", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("waypoint %d differs between runs: %v != %v", i, first[i], second[i])
		}
	}
}
