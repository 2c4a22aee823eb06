package walkmesh

import (
	gomath "math"
	"sort"

	"github.com/Faultbox/walkmesh/pkg/math"
)

// nilNode marks an absent child or face slot in the tree arena.
const nilNode = int32(-1)

// treeNode is one arena slot of the AABB tree. A leaf holds a single
// face index and no children; an internal node holds two child arena
// indices and the union box of its subtree. Nodes are appended during
// construction and never mutated afterwards, so the structure cannot
// alias or cycle.
type treeNode struct {
	box   AABB
	left  int32
	right int32
	face  int32
}

// aabbTree accelerates point and ray queries from O(n) to O(log n).
// The tree is a flat arena indexed by int32; root is the index of the
// last node appended.
type aabbTree struct {
	nodes []treeNode
	root  int32
}

// buildTree constructs the tree over every face of the mesh. Returns
// nil for an empty face set.
func buildTree(m *Mesh) *aabbTree {
	n := m.FaceCount()
	if n == 0 {
		return nil
	}
	faces := make([]int32, n)
	for i := range faces {
		faces[i] = int32(i)
	}
	t := &aabbTree{nodes: make([]treeNode, 0, 2*n-1)}
	t.root = t.build(m, faces)
	return t
}

// build recursively splits the face set and appends the resulting
// subtree to the arena, returning its root index.
func (t *aabbTree) build(m *Mesh, faces []int32) int32 {
	if len(faces) == 1 {
		return t.append(treeNode{
			box:  m.faceBox(faces[0]),
			left: nilNode, right: nilNode,
			face: faces[0],
		})
	}

	box := emptyAABB()
	for _, f := range faces {
		box = box.Union(m.faceBox(f))
	}

	left, right := partitionFaces(m, faces, box)
	li := t.build(m, left)
	ri := t.build(m, right)
	return t.append(treeNode{box: box, left: li, right: ri, face: nilNode})
}

func (t *aabbTree) append(n treeNode) int32 {
	t.nodes = append(t.nodes, n)
	return int32(len(t.nodes) - 1)
}

// partitionFaces splits the face set in two for recursion. Strategy per
// axis, starting at the longest box dimension: midpoint split by face
// centroid; if one side comes up empty but the centroids spread along
// the axis, a stable median split; otherwise rotate to the next axis.
// When all three axes degenerate (coincident centroids) the slice is
// halved so recursion always makes progress.
func partitionFaces(m *Mesh, faces []int32, box AABB) ([]int32, []int32) {
	axis := box.LongestAxis()

	for try := 0; try < 3; try++ {
		mid := vecAxis(box.Center(), axis)

		var left, right []int32
		lo := float32(gomath.MaxFloat32)
		hi := float32(-gomath.MaxFloat32)
		for _, f := range faces {
			c := vecAxis(m.centroids[f], axis)
			if c < lo {
				lo = c
			}
			if c > hi {
				hi = c
			}
			if c < mid {
				left = append(left, f)
			} else {
				right = append(right, f)
			}
		}
		if len(left) > 0 && len(right) > 0 {
			return left, right
		}

		if hi > lo {
			// Centroids spread on this axis but the midpoint missed
			// them all; split at the median instead.
			sorted := make([]int32, len(faces))
			copy(sorted, faces)
			sort.SliceStable(sorted, func(i, j int) bool {
				return vecAxis(m.centroids[sorted[i]], axis) < vecAxis(m.centroids[sorted[j]], axis)
			})
			h := len(sorted) / 2
			return sorted[:h], sorted[h:]
		}

		axis = (axis + 1) % 3
	}

	// Coincident centroids on every axis.
	h := len(faces) / 2
	return faces[:h], faces[h:]
}

// findFaceAt returns the smallest-indexed face whose ground projection
// contains (x, y), honoring the walkable filter. The tie-break matches
// the linear scan so tree and brute-force queries agree exactly.
func (t *aabbTree) findFaceAt(m *Mesh, x, y float32, walkableOnly bool) (int32, bool) {
	best := nilNode
	t.findAt(m, t.root, x, y, walkableOnly, &best)
	return best, best != nilNode
}

func (t *aabbTree) findAt(m *Mesh, node int32, x, y float32, walkableOnly bool, best *int32) {
	n := &t.nodes[node]
	if !n.box.ContainsXY(x, y) {
		return
	}
	if n.face != nilNode {
		if *best != nilNode && n.face >= *best {
			return
		}
		if walkableOnly && !m.IsWalkable(n.face) {
			return
		}
		if m.faceContainsXY(n.face, x, y) {
			*best = n.face
		}
		return
	}
	t.findAt(m, n.left, x, y, walkableOnly, best)
	t.findAt(m, n.right, x, y, walkableOnly, best)
}

// raycast returns the nearest face hit along the ray, pruning subtrees
// whose box lies entirely beyond the closest hit found so far.
func (t *aabbTree) raycast(m *Mesh, origin, dir math.Vec3, maxDist float32) (RayHit, bool) {
	hit := RayHit{Face: nilNode, Distance: maxDist}
	t.raycastNode(m, t.root, origin, dir, &hit)
	if hit.Face == nilNode {
		return RayHit{}, false
	}
	hit.Point = origin.Add(dir.Scale(hit.Distance))
	return hit, true
}

func (t *aabbTree) raycastNode(m *Mesh, node int32, origin, dir math.Vec3, best *RayHit) {
	n := &t.nodes[node]
	entry, ok := n.box.IntersectRay(origin, dir)
	if !ok || entry > best.Distance {
		return
	}
	if n.face != nilNode {
		if d, ok := m.faceRayIntersect(n.face, origin, dir, best.Distance); ok && d < best.Distance {
			best.Face = n.face
			best.Distance = d
		}
		return
	}
	t.raycastNode(m, n.left, origin, dir, best)
	t.raycastNode(m, n.right, origin, dir, best)
}
