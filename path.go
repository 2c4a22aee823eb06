package walkmesh

import (
	"container/heap"

	"github.com/Faultbox/walkmesh/pkg/math"
)

// pathNode represents one walkable face in the A* search.
type pathNode struct {
	face   int32
	g      float32 // accumulated cost from start
	h      float32 // heuristic (straight-line centroid-to-goal distance)
	f      float32 // total cost (g + h)
	parent *pathNode
	index  int // index in heap
	seq    int // insertion order, breaks f-score ties deterministically
}

// pathHeap implements a priority queue for the A* open set.
type pathHeap []*pathNode

func (h pathHeap) Len() int { return len(h) }
func (h pathHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}
func (h pathHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *pathHeap) Push(x interface{}) {
	n := len(*h)
	node := x.(*pathNode)
	node.index = n
	*h = append(*h, node)
}

func (h *pathHeap) Pop() interface{} {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[0 : n-1]
	return node
}

// PathOptions tunes a single path request.
type PathOptions struct {
	// MaxIterations caps the number of A* expansions; exceeding it is
	// reported as "no path". Zero selects the face count, which already
	// lets every face be expanded once.
	MaxIterations int
}

// FindPath searches for a walkable route between two world positions
// and returns the smoothed waypoint sequence, or nil when either
// endpoint misses the walkable surface, the goal is unreachable, or
// the iteration cap is hit. A failed search never returns a partial
// path. All search state is call-local, so concurrent requests against
// the same mesh do not interfere.
func (m *Mesh) FindPath(start, goal math.Vec3, opts PathOptions) []math.Vec3 {
	startFace, ok := m.FindFaceAt(start.X, start.Y, true)
	if !ok {
		return nil
	}
	goalFace, ok := m.FindFaceAt(goal.X, goal.Y, true)
	if !ok {
		return nil
	}

	// Both endpoints on one face: the straight segment is the path.
	if startFace == goalFace {
		return []math.Vec3{start, goal}
	}

	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = int(m.FaceCount())
	}

	openSet := &pathHeap{}
	heap.Init(openSet)
	closedSet := make(map[int32]bool)
	nodeMap := make(map[int32]*pathNode)
	seq := 0

	startNode := &pathNode{
		face: startFace,
		g:    0,
		h:    m.centroids[startFace].Distance(goal),
		seq:  seq,
	}
	startNode.f = startNode.g + startNode.h
	heap.Push(openSet, startNode)
	nodeMap[startFace] = startNode

	iterations := 0
	for openSet.Len() > 0 && iterations < maxIterations {
		iterations++

		current := heap.Pop(openSet).(*pathNode)
		if current.face == goalFace {
			return m.buildWaypoints(start, goal, current)
		}
		closedSet[current.face] = true

		for edge := int32(0); edge < 3; edge++ {
			next, ok := m.GetNeighbor(current.face, edge)
			if !ok || !m.IsWalkable(next) || closedSet[next] {
				continue
			}

			// Edge cost: centroid-to-centroid distance scaled by the
			// destination material's traversal multiplier (>= 1, so
			// the straight-line heuristic never overestimates).
			step := m.centroids[current.face].Distance(m.centroids[next])
			g := current.g + step*m.surfaces.Cost(m.materials[next])

			neighbor, exists := nodeMap[next]
			if !exists {
				seq++
				neighbor = &pathNode{
					face:   next,
					g:      g,
					h:      m.centroids[next].Distance(goal),
					parent: current,
					seq:    seq,
				}
				neighbor.f = neighbor.g + neighbor.h
				nodeMap[next] = neighbor
				heap.Push(openSet, neighbor)
			} else if g < neighbor.g {
				neighbor.g = g
				neighbor.f = neighbor.g + neighbor.h
				neighbor.parent = current
				heap.Fix(openSet, neighbor.index)
			}
		}
	}

	// Open set exhausted or iteration cap hit.
	return nil
}

// buildWaypoints converts the face chain ending at goalNode into a
// waypoint list: the start point, the midpoint of each crossed shared
// edge, and the goal point, then smooths it.
func (m *Mesh) buildWaypoints(start, goal math.Vec3, goalNode *pathNode) []math.Vec3 {
	var faces []int32
	for n := goalNode; n != nil; n = n.parent {
		faces = append(faces, n.face)
	}
	for i, j := 0, len(faces)-1; i < j; i, j = i+1, j-1 {
		faces[i], faces[j] = faces[j], faces[i]
	}

	points := make([]math.Vec3, 0, len(faces)+1)
	points = append(points, start)
	for i := 0; i+1 < len(faces); i++ {
		if mid, ok := m.sharedEdgeMidpoint(faces[i], faces[i+1]); ok {
			points = append(points, mid)
		} else {
			points = append(points, m.centroids[faces[i+1]])
		}
	}
	points = append(points, goal)

	return m.smoothPath(points)
}

// sharedEdgeMidpoint returns the midpoint of the edge face a shares
// with face b.
func (m *Mesh) sharedEdgeMidpoint(a, b int32) (math.Vec3, bool) {
	for edge := int32(0); edge < 3; edge++ {
		if n, ok := m.GetNeighbor(a, edge); ok && n == b {
			v0 := m.verts[m.indices[a*3+edge]]
			v1 := m.verts[m.indices[a*3+(edge+1)%3]]
			return v0.Add(v1).Scale(0.5), true
		}
	}
	return math.Vec3{}, false
}

// smoothPath drops intermediate waypoints whenever the direct segment
// between two non-adjacent waypoints stays on walkable surface, which
// also removes colinear points. Turns that route around non-walkable
// faces survive because the shortcut segment fails the surface check.
func (m *Mesh) smoothPath(points []math.Vec3) []math.Vec3 {
	if len(points) <= 2 {
		return points
	}

	out := make([]math.Vec3, 0, len(points))
	out = append(out, points[0])
	i := 0
	for i < len(points)-1 {
		j := len(points) - 1
		for j > i+1 && !m.segmentWalkable(points[i], points[j]) {
			j--
		}
		out = append(out, points[j])
		i = j
	}
	return out
}

// segmentWalkable samples the ground projection of the segment and
// checks that every sample lands on a walkable face. The sampling step
// is a quarter of the mean face edge length, so resolution tracks the
// mesh density and no face-sized gap can slip between samples, however
// long the candidate shortcut is.
func (m *Mesh) segmentWalkable(a, b math.Vec3) bool {
	dist := a.XY().Distance(b.XY())
	if dist == 0 {
		return true
	}
	step := m.meanEdge / 4
	if step <= 0 {
		step = dist
	}
	samples := int(dist/step) + 1
	for s := 0; s <= samples; s++ {
		p := a.Lerp(b, float32(s)/float32(samples))
		if _, ok := m.FindFaceAt(p.X, p.Y, true); !ok {
			return false
		}
	}
	return true
}
