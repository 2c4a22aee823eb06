package walkmesh

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/walkmesh/internal/logger"
	"github.com/Faultbox/walkmesh/pkg/math"
)

// Stitch errors.
var (
	ErrNoMeshes        = errors.New("walkmesh: no meshes to stitch")
	ErrSurfaceMismatch = errors.New("walkmesh: meshes use different surface tables")
)

// StitchOptions tunes the merge.
type StitchOptions struct {
	// Tolerance is the maximum positional distance between two edge
	// endpoints considered coincident; zero selects the default. It
	// absorbs float32 drift left by the caller's transform composition.
	Tolerance float32
}

// boundaryEdge is an unmatched face edge collected for welding.
type boundaryEdge struct {
	face   int32 // face index in the combined mesh
	edge   int32
	source int // input mesh the face came from
	a, b   math.Vec3
	welded bool
}

// Stitch merges several meshes, already placed in a common world frame
// by the caller, into one connected navigation mesh. Vertex and face
// arrays are concatenated with renumbered indices, boundary edges whose
// endpoints coincide within the tolerance are welded into shared
// adjacency, and a fresh AABB tree is built over the full face set.
// The inputs are copied, never mutated.
//
// Welding only ever links two walkable faces; the shared surface table
// decides, and all inputs must reference the same table instance.
func Stitch(meshes []*Mesh, opts StitchOptions) (*Mesh, error) {
	if len(meshes) == 0 {
		return nil, ErrNoMeshes
	}
	table := meshes[0].surfaces
	for _, m := range meshes[1:] {
		if m.surfaces != table {
			return nil, ErrSurfaceMismatch
		}
	}
	tolerance := opts.Tolerance
	if tolerance <= 0 {
		tolerance = defaultWeldTolerance
	}

	// Concatenate with renumbered vertex and face indices.
	var verts []math.Vec3
	var indices []int32
	var materials []Material
	var normals []math.Vec3
	var planeD []float32
	var adjacency []int32

	for _, m := range meshes {
		vertOffset := int32(len(verts))
		faceOffset := int32(len(indices) / 3)

		verts = append(verts, m.verts...)
		for _, idx := range m.indices {
			indices = append(indices, idx+vertOffset)
		}
		materials = append(materials, m.materials...)
		normals = append(normals, m.normals...)
		planeD = append(planeD, m.planeD...)
		for _, a := range m.adjacency {
			if a == NoAdjacency {
				adjacency = append(adjacency, NoAdjacency)
			} else {
				adjacency = append(adjacency, a+faceOffset*3)
			}
		}
	}

	welded := weldBoundaries(meshes, verts, indices, materials, adjacency, table, tolerance)

	merged, err := NewMesh(MeshData{
		Vertices:  verts,
		Indices:   indices,
		Materials: materials,
		Normals:   normals,
		PlaneD:    planeD,
		Adjacency: adjacency,
	}, Options{
		Indexed:       true,
		Surfaces:      table,
		WeldTolerance: tolerance,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("walkmesh stitched",
		zap.Int("meshes", len(meshes)),
		zap.Int32("faces", merged.FaceCount()),
		zap.Int("welded_edges", welded),
	)
	return merged, nil
}

// weldBoundaries links boundary edges of walkable faces across
// different source meshes whose endpoints coincide within the
// tolerance, in either vertex order. Matching walks edge pairs in face
// order, so the first coincident partner wins deterministically.
// Returns the number of welds applied to the adjacency array.
func weldBoundaries(meshes []*Mesh, verts []math.Vec3, indices []int32, materials []Material, adjacency []int32, table *SurfaceTable, tolerance float32) int {
	var edges []*boundaryEdge
	faceOffset := int32(0)
	for src, m := range meshes {
		for f := int32(0); f < m.FaceCount(); f++ {
			face := f + faceOffset
			if !table.Walkable(materials[face]) {
				continue
			}
			for e := int32(0); e < 3; e++ {
				if adjacency[face*3+e] != NoAdjacency {
					continue
				}
				edges = append(edges, &boundaryEdge{
					face:   face,
					edge:   e,
					source: src,
					a:      verts[indices[face*3+e]],
					b:      verts[indices[face*3+(e+1)%3]],
				})
			}
		}
		faceOffset += m.FaceCount()
	}

	welds := 0
	for i, ea := range edges {
		if ea.welded {
			continue
		}
		for _, eb := range edges[i+1:] {
			if eb.welded || eb.source == ea.source {
				continue
			}
			if !edgesCoincide(ea, eb, tolerance) {
				continue
			}
			adjacency[ea.face*3+ea.edge] = eb.face*3 + eb.edge
			adjacency[eb.face*3+eb.edge] = ea.face*3 + ea.edge
			ea.welded = true
			eb.welded = true
			welds++
			break
		}
	}
	return welds
}

// edgesCoincide reports whether the two edges span the same two
// positions within the tolerance. Winding usually differs between the
// two sides of a shared border, so both endpoint orders are tried.
func edgesCoincide(ea, eb *boundaryEdge, tolerance float32) bool {
	if ea.a.Distance(eb.a) <= tolerance && ea.b.Distance(eb.b) <= tolerance {
		return true
	}
	return ea.a.Distance(eb.b) <= tolerance && ea.b.Distance(eb.a) <= tolerance
}
