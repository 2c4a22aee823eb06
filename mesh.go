package walkmesh

import (
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/walkmesh/internal/logger"
	"github.com/Faultbox/walkmesh/pkg/math"
)

// Mesh construction errors.
var (
	ErrNoVertices        = errors.New("walkmesh: mesh has no vertices")
	ErrNoFaces           = errors.New("walkmesh: mesh has no faces")
	ErrBadIndexCount     = errors.New("walkmesh: face index count is not a multiple of 3")
	ErrBadMaterialCount  = errors.New("walkmesh: material count does not match face count")
	ErrBadNormalCount    = errors.New("walkmesh: normal count does not match face count")
	ErrBadAdjacencyCount = errors.New("walkmesh: adjacency count is not 3 per face")
	ErrVertexRange       = errors.New("walkmesh: face references vertex out of range")
	ErrAdjacencyRange    = errors.New("walkmesh: adjacency entry out of range")
	ErrNonFinite         = errors.New("walkmesh: vertex coordinate is not finite")
)

// NoAdjacency is the sentinel for a face edge with no neighbor (a mesh
// boundary edge).
const NoAdjacency = int32(-1)

// defaultWeldTolerance is the position tolerance used when matching
// shared edges, both for intra-mesh adjacency derivation and for
// cross-mesh stitching. Large enough to absorb float32 drift from
// transform composition, small enough not to weld distinct edges.
const defaultWeldTolerance = 1e-3

// MeshData is the raw input handed over by the format-parsing
// collaborator: flat arrays describing vertices, faces and materials,
// plus optional precomputed plane data and adjacency.
type MeshData struct {
	// Vertices are deduplicated world-space positions.
	Vertices []math.Vec3
	// Indices hold three vertex indices per face, wound
	// counter-clockwise seen from above (+Z).
	Indices []int32
	// Materials holds one surface material per face.
	Materials []Material
	// Normals and PlaneD optionally carry per-face unit normals and
	// plane offsets; both are derived from the vertices when absent.
	Normals []math.Vec3
	PlaneD  []float32
	// Adjacency optionally encodes the neighbor of each (face, edge)
	// pair as neighborFace*3+edge, or NoAdjacency at boundaries, three
	// entries per face. Derived by shared-edge matching when absent.
	Adjacency []int32
}

// Options parameterizes mesh construction. One implementation covers
// every mesh category; there is no subclassing.
type Options struct {
	// Indexed selects the full, spatially-indexed category: an AABB
	// tree is built over all faces. Small brute-force meshes leave it
	// false and fall back to linear-time queries.
	Indexed bool
	// Surfaces is the shared classification table; nil selects
	// DefaultSurfaceTable().
	Surfaces *SurfaceTable
	// WeldTolerance overrides the edge-matching position tolerance;
	// zero selects the default.
	WeldTolerance float32
}

// RayHit describes the nearest intersection found by Raycast.
type RayHit struct {
	Face     int32
	Distance float32
	Point    math.Vec3
}

// Mesh is an immutable walkable-surface mesh. All arrays are built once
// during construction and never mutated, so every query is safe for
// concurrent use without locking.
type Mesh struct {
	verts     []math.Vec3
	indices   []int32 // 3 per face
	materials []Material
	normals   []math.Vec3
	planeD    []float32
	centroids []math.Vec3
	adjacency []int32 // 3 per face, NoAdjacency at boundaries
	surfaces  *SurfaceTable
	tree      *aabbTree // nil for brute-force meshes
	bounds    AABB
	weldTol   float32
	meanEdge  float32 // average face edge length, sampling step for path smoothing
}

// NewMesh validates and copies the raw arrays, precomputes face planes
// and centroids, derives adjacency when the source format did not
// provide it, and builds the spatial index for indexed meshes.
func NewMesh(data MeshData, opts Options) (*Mesh, error) {
	if len(data.Vertices) == 0 {
		return nil, ErrNoVertices
	}
	if len(data.Indices) == 0 {
		return nil, ErrNoFaces
	}
	if len(data.Indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices", ErrBadIndexCount, len(data.Indices))
	}
	faceCount := len(data.Indices) / 3
	if len(data.Materials) != faceCount {
		return nil, fmt.Errorf("%w: %d materials for %d faces", ErrBadMaterialCount, len(data.Materials), faceCount)
	}
	if len(data.Normals) != 0 && (len(data.Normals) != faceCount || len(data.PlaneD) != faceCount) {
		return nil, fmt.Errorf("%w: %d normals, %d offsets for %d faces", ErrBadNormalCount, len(data.Normals), len(data.PlaneD), faceCount)
	}
	if len(data.Adjacency) != 0 && len(data.Adjacency) != 3*faceCount {
		return nil, fmt.Errorf("%w: %d entries for %d faces", ErrBadAdjacencyCount, len(data.Adjacency), faceCount)
	}

	for i, v := range data.Vertices {
		if !isFinite(v.X) || !isFinite(v.Y) || !isFinite(v.Z) {
			return nil, fmt.Errorf("%w: vertex %d", ErrNonFinite, i)
		}
	}
	for i, idx := range data.Indices {
		if idx < 0 || int(idx) >= len(data.Vertices) {
			return nil, fmt.Errorf("%w: face %d references vertex %d of %d", ErrVertexRange, i/3, idx, len(data.Vertices))
		}
	}
	for i, a := range data.Adjacency {
		if a != NoAdjacency && (a < 0 || int(a) >= 3*faceCount) {
			return nil, fmt.Errorf("%w: entry %d = %d", ErrAdjacencyRange, i, a)
		}
	}

	surfaces := opts.Surfaces
	if surfaces == nil {
		surfaces = DefaultSurfaceTable()
	}
	weldTol := opts.WeldTolerance
	if weldTol <= 0 {
		weldTol = defaultWeldTolerance
	}

	m := &Mesh{
		verts:     append([]math.Vec3(nil), data.Vertices...),
		indices:   append([]int32(nil), data.Indices...),
		materials: append([]Material(nil), data.Materials...),
		surfaces:  surfaces,
		weldTol:   weldTol,
	}

	if len(data.Normals) == faceCount {
		m.normals = append([]math.Vec3(nil), data.Normals...)
		m.planeD = append([]float32(nil), data.PlaneD...)
	} else {
		m.computePlanes()
	}
	m.computeCentroidsAndBounds()

	if len(data.Adjacency) == 3*faceCount {
		m.adjacency = append([]int32(nil), data.Adjacency...)
	} else {
		m.deriveAdjacency()
	}

	if opts.Indexed {
		m.tree = buildTree(m)
	}

	logger.Debug("walkmesh built",
		zap.Int("vertices", len(m.verts)),
		zap.Int32("faces", m.FaceCount()),
		zap.Bool("indexed", m.tree != nil),
	)
	return m, nil
}

// computePlanes derives the unit normal and plane offset of every face
// from its vertices. A degenerate face keeps a zero normal; height
// queries on it fall back to averaging its vertex heights.
func (m *Mesh) computePlanes() {
	count := m.FaceCount()
	m.normals = make([]math.Vec3, count)
	m.planeD = make([]float32, count)
	for f := int32(0); f < count; f++ {
		a, b, c := m.faceVerts(f)
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Length() > 0 {
			n = n.Normalize()
		}
		m.normals[f] = n
		m.planeD[f] = -n.Dot(a)
	}
}

func (m *Mesh) computeCentroidsAndBounds() {
	count := m.FaceCount()
	m.centroids = make([]math.Vec3, count)
	m.bounds = emptyAABB()
	var edgeSum float32
	for f := int32(0); f < count; f++ {
		a, b, c := m.faceVerts(f)
		m.centroids[f] = a.Add(b).Add(c).Scale(1.0 / 3.0)
		edgeSum += a.Distance(b) + b.Distance(c) + c.Distance(a)
	}
	m.meanEdge = edgeSum / float32(3*count)
	for _, v := range m.verts {
		m.bounds.ExpandToPoint(v)
	}
}

// edgeKey identifies an unordered pair of edge endpoints quantized to
// the weld tolerance grid.
type edgeKey struct {
	a, b [3]int32
}

func (m *Mesh) quantize(v math.Vec3) [3]int32 {
	inv := float64(1 / m.weldTol)
	return [3]int32{
		int32(gomath.Round(float64(v.X) * inv)),
		int32(gomath.Round(float64(v.Y) * inv)),
		int32(gomath.Round(float64(v.Z) * inv)),
	}
}

// edgeKeyFor builds the canonical key for edge e of face f; the two
// quantized endpoints are ordered so that either winding produces the
// same key.
func (m *Mesh) edgeKeyFor(f, e int32) edgeKey {
	v0 := m.verts[m.indices[f*3+e]]
	v1 := m.verts[m.indices[f*3+(e+1)%3]]
	qa, qb := m.quantize(v0), m.quantize(v1)
	if quantizedLess(qb, qa) {
		qa, qb = qb, qa
	}
	return edgeKey{a: qa, b: qb}
}

func quantizedLess(a, b [3]int32) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// deriveAdjacency links faces sharing an edge, matching endpoint
// positions within the weld tolerance in either vertex order. Links
// are only created between two walkable faces, the same rule the
// stitcher applies across meshes; non-walkable faces always report no
// neighbor. First pairing in face order wins.
func (m *Mesh) deriveAdjacency() {
	count := m.FaceCount()
	m.adjacency = make([]int32, 3*count)
	for i := range m.adjacency {
		m.adjacency[i] = NoAdjacency
	}

	open := make(map[edgeKey]int32, 3*count) // key -> face*3+edge awaiting a partner
	for f := int32(0); f < count; f++ {
		if !m.surfaces.Walkable(m.materials[f]) {
			continue
		}
		for e := int32(0); e < 3; e++ {
			key := m.edgeKeyFor(f, e)
			slot := f*3 + e
			if other, ok := open[key]; ok {
				m.adjacency[slot] = other
				m.adjacency[other] = slot
				delete(open, key)
			} else {
				open[key] = slot
			}
		}
	}
}

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int32 {
	return int32(len(m.indices) / 3)
}

// Indexed reports whether the mesh carries an AABB tree. A mesh
// without one answers every spatial query by linear scan.
func (m *Mesh) Indexed() bool {
	return m.tree != nil
}

// Surfaces returns the shared classification table.
func (m *Mesh) Surfaces() *SurfaceTable {
	return m.surfaces
}

// Bounds returns the bounding box of all vertices.
func (m *Mesh) Bounds() AABB {
	return m.bounds
}

// FaceMaterial returns the material of the face, or MaterialUndefined
// for an out-of-range index.
func (m *Mesh) FaceMaterial(face int32) Material {
	if face < 0 || face >= m.FaceCount() {
		return MaterialUndefined
	}
	return m.materials[face]
}

// FaceVertices returns the three corner positions of the face.
func (m *Mesh) FaceVertices(face int32) ([3]math.Vec3, bool) {
	if face < 0 || face >= m.FaceCount() {
		return [3]math.Vec3{}, false
	}
	a, b, c := m.faceVerts(face)
	return [3]math.Vec3{a, b, c}, true
}

// FaceCentroid returns the centroid of the face.
func (m *Mesh) FaceCentroid(face int32) (math.Vec3, bool) {
	if face < 0 || face >= m.FaceCount() {
		return math.Vec3{}, false
	}
	return m.centroids[face], true
}

// IsWalkable reports whether the face exists and carries a walkable
// material. Out-of-range indices are non-walkable, never an error.
func (m *Mesh) IsWalkable(face int32) bool {
	if face < 0 || face >= m.FaceCount() {
		return false
	}
	return m.surfaces.Walkable(m.materials[face])
}

// GetNeighbor returns the face across the given edge, or false at a
// mesh boundary or for invalid input.
func (m *Mesh) GetNeighbor(face, edge int32) (int32, bool) {
	if face < 0 || face >= m.FaceCount() || edge < 0 || edge > 2 {
		return NoAdjacency, false
	}
	v := m.adjacency[face*3+edge]
	if v == NoAdjacency {
		return NoAdjacency, false
	}
	return v / 3, true
}

// FindFaceAt returns the face whose ground-plane projection contains
// (x, y), optionally restricted to walkable faces. When several faces
// contain the point (shared edges, overlapping levels) the smallest
// face index wins; tree-accelerated and linear lookups agree on this.
func (m *Mesh) FindFaceAt(x, y float32, walkableOnly bool) (int32, bool) {
	if !isFinite(x) || !isFinite(y) {
		return NoAdjacency, false
	}
	if m.tree != nil {
		return m.tree.findFaceAt(m, x, y, walkableOnly)
	}
	return m.findFaceAtLinear(x, y, walkableOnly)
}

// findFaceAtLinear is the brute-force containment scan; it is also the
// reference the tree query is tested against.
func (m *Mesh) findFaceAtLinear(x, y float32, walkableOnly bool) (int32, bool) {
	for f := int32(0); f < m.FaceCount(); f++ {
		if walkableOnly && !m.IsWalkable(f) {
			continue
		}
		if m.faceContainsXY(f, x, y) {
			return f, true
		}
	}
	return NoAdjacency, false
}

// DetermineZ returns the surface height at (x, y) from whichever face
// contains the point, walkable or not.
func (m *Mesh) DetermineZ(x, y float32) (float32, bool) {
	f, ok := m.FindFaceAt(x, y, false)
	if !ok {
		return 0, false
	}
	return m.faceHeight(f, x, y), true
}

// ProjectToSurface drops the 2D point onto the walkable surface,
// returning the full 3D position. False when no walkable face contains
// the point.
func (m *Mesh) ProjectToSurface(x, y float32) (math.Vec3, bool) {
	f, ok := m.FindFaceAt(x, y, true)
	if !ok {
		return math.Vec3{}, false
	}
	return math.Vec3{X: x, Y: y, Z: m.faceHeight(f, x, y)}, true
}

// Raycast returns the nearest face intersected by the ray within
// maxDist. The direction need not be normalized; it is normalized
// internally so the reported distance is metric.
func (m *Mesh) Raycast(origin, dir math.Vec3, maxDist float32) (RayHit, bool) {
	if !isFinite(origin.X) || !isFinite(origin.Y) || !isFinite(origin.Z) ||
		!isFinite(dir.X) || !isFinite(dir.Y) || !isFinite(dir.Z) ||
		!isFinite(maxDist) || maxDist <= 0 {
		return RayHit{}, false
	}
	if dir.Length() == 0 {
		return RayHit{}, false
	}
	dir = dir.Normalize()

	if m.tree != nil {
		return m.tree.raycast(m, origin, dir, maxDist)
	}

	hit := RayHit{Face: NoAdjacency, Distance: maxDist}
	for f := int32(0); f < m.FaceCount(); f++ {
		if d, ok := m.faceRayIntersect(f, origin, dir, hit.Distance); ok && d < hit.Distance {
			hit.Face = f
			hit.Distance = d
		}
	}
	if hit.Face == NoAdjacency {
		return RayHit{}, false
	}
	hit.Point = origin.Add(dir.Scale(hit.Distance))
	return hit, true
}

// Translated returns a copy of the mesh moved by offset. Materials,
// adjacency and category are preserved; only geometry changes.
func (m *Mesh) Translated(offset math.Vec3) (*Mesh, error) {
	verts := make([]math.Vec3, len(m.verts))
	for i, v := range m.verts {
		verts[i] = v.Add(offset)
	}
	return NewMesh(MeshData{
		Vertices:  verts,
		Indices:   m.indices,
		Materials: m.materials,
		Adjacency: m.adjacency,
	}, Options{
		Indexed:       m.tree != nil,
		Surfaces:      m.surfaces,
		WeldTolerance: m.weldTol,
	})
}

func (m *Mesh) faceVerts(face int32) (a, b, c math.Vec3) {
	return m.verts[m.indices[face*3]],
		m.verts[m.indices[face*3+1]],
		m.verts[m.indices[face*3+2]]
}

func (m *Mesh) faceBox(face int32) AABB {
	a, b, c := m.faceVerts(face)
	box := emptyAABB()
	box.ExpandToPoint(a)
	box.ExpandToPoint(b)
	box.ExpandToPoint(c)
	return box
}

func (m *Mesh) faceContainsXY(face int32, x, y float32) bool {
	a, b, c := m.faceVerts(face)
	return pointInTriangle(math.Vec2{X: x, Y: y}, a.XY(), b.XY(), c.XY())
}

// faceHeight evaluates the face plane at (x, y), averaging the vertex
// heights when the face is too close to vertical for the plane
// equation to be stable.
func (m *Mesh) faceHeight(face int32, x, y float32) float32 {
	if z, ok := planeHeight(x, y, m.normals[face], m.planeD[face]); ok {
		return z
	}
	a, b, c := m.faceVerts(face)
	return (a.Z + b.Z + c.Z) / 3
}

func (m *Mesh) faceRayIntersect(face int32, origin, dir math.Vec3, maxDist float32) (float32, bool) {
	a, b, c := m.faceVerts(face)
	return rayTriangleIntersect(origin, dir, a, b, c, maxDist)
}
