// Package walkmesh implements a queryable walkable-surface mesh:
// point containment, ground-height lookup, ray intersection, A*
// pathfinding over the face adjacency graph, and stitching of several
// independently built meshes into one connected surface.
//
// A Mesh is immutable once constructed, so every query is safe to call
// concurrently without locking.
package walkmesh

import "fmt"

// Material identifies the surface type of a face. The id domain is
// 0-30; ids the engine does not recognize are treated as non-walkable.
type Material int32

// Surface material ids.
const (
	MaterialUndefined     Material = 0
	MaterialDirt          Material = 1
	MaterialObscuring     Material = 2
	MaterialGrass         Material = 3
	MaterialStone         Material = 4
	MaterialWood          Material = 5
	MaterialWater         Material = 6
	MaterialNonWalk       Material = 7
	MaterialTransparent   Material = 8
	MaterialCarpet        Material = 9
	MaterialMetal         Material = 10
	MaterialPuddles       Material = 11
	MaterialSwamp         Material = 12
	MaterialMud           Material = 13
	MaterialLeaves        Material = 14
	MaterialLava          Material = 15
	MaterialBottomlessPit Material = 16
	MaterialDeepWater     Material = 17
	MaterialDoor          Material = 18
	MaterialNonWalkGrass  Material = 19
	MaterialTrigger       Material = 30
)

// MaterialCount bounds the material id domain; valid ids are
// 0 through MaterialCount-1.
const MaterialCount = 31

// String returns a human-readable material name.
func (m Material) String() string {
	switch m {
	case MaterialUndefined:
		return "Undefined"
	case MaterialDirt:
		return "Dirt"
	case MaterialObscuring:
		return "Obscuring"
	case MaterialGrass:
		return "Grass"
	case MaterialStone:
		return "Stone"
	case MaterialWood:
		return "Wood"
	case MaterialWater:
		return "Water"
	case MaterialNonWalk:
		return "NonWalk"
	case MaterialTransparent:
		return "Transparent"
	case MaterialCarpet:
		return "Carpet"
	case MaterialMetal:
		return "Metal"
	case MaterialPuddles:
		return "Puddles"
	case MaterialSwamp:
		return "Swamp"
	case MaterialMud:
		return "Mud"
	case MaterialLeaves:
		return "Leaves"
	case MaterialLava:
		return "Lava"
	case MaterialBottomlessPit:
		return "BottomlessPit"
	case MaterialDeepWater:
		return "DeepWater"
	case MaterialDoor:
		return "Door"
	case MaterialNonWalkGrass:
		return "NonWalkGrass"
	case MaterialTrigger:
		return "Trigger"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(m))
	}
}

// SurfaceTable classifies materials as walkable and assigns per-material
// traversal cost multipliers for pathfinding. It is the single source of
// truth for walkability: mesh queries, the pathfinder cost function and
// the stitcher all consult the same table. Immutable after construction.
type SurfaceTable struct {
	walkable [MaterialCount]bool
	cost     [MaterialCount]float32
}

// defaultTable is the shared stock table. Meshes built without an
// explicit table all reference this one instance, which keeps the
// stitcher's same-table requirement trivially satisfied.
var defaultTable = NewSurfaceTable(DefaultWalkableMaterials(), DefaultCostOverrides())

// DefaultWalkableMaterials returns a copy of the stock walkable
// material set.
func DefaultWalkableMaterials() []Material {
	return []Material{
		MaterialDirt, MaterialGrass, MaterialStone, MaterialWood,
		MaterialWater, MaterialCarpet, MaterialMetal, MaterialPuddles,
		MaterialSwamp, MaterialMud, MaterialLeaves, MaterialDoor,
	}
}

// DefaultCostOverrides returns a copy of the stock non-unit traversal
// multipliers: water mildly discouraged, swamp and mud hazardous,
// puddles strongly discouraged.
func DefaultCostOverrides() map[Material]float32 {
	return map[Material]float32{
		MaterialWater:   2,
		MaterialSwamp:   4,
		MaterialMud:     4,
		MaterialPuddles: 32,
	}
}

// DefaultSurfaceTable returns the shared stock table. The exact cost
// ratios are tunable; only the ordering plain < hazardous <
// strongly-discouraged is relied upon.
func DefaultSurfaceTable() *SurfaceTable {
	return defaultTable
}

// NewSurfaceTable builds a table marking the given materials walkable.
// Cost multipliers default to 1 and may be raised per material via
// costs; values below 1 and materials outside the id domain are
// ignored so the pathfinding heuristic stays admissible.
func NewSurfaceTable(walkable []Material, costs map[Material]float32) *SurfaceTable {
	t := &SurfaceTable{}
	for i := range t.cost {
		t.cost[i] = 1
	}
	for _, m := range walkable {
		if m >= 0 && m < MaterialCount {
			t.walkable[m] = true
		}
	}
	for m, c := range costs {
		if m >= 0 && m < MaterialCount && c >= 1 {
			t.cost[m] = c
		}
	}
	return t
}

// Walkable reports whether the material allows walking. Out-of-domain
// ids are non-walkable.
func (t *SurfaceTable) Walkable(m Material) bool {
	if m < 0 || m >= MaterialCount {
		return false
	}
	return t.walkable[m]
}

// Cost returns the traversal cost multiplier for the material, always
// >= 1. The value is only meaningful for walkable materials; the
// pathfinder never expands non-walkable faces.
func (t *SurfaceTable) Cost(m Material) float32 {
	if m < 0 || m >= MaterialCount {
		return 1
	}
	return t.cost[m]
}
