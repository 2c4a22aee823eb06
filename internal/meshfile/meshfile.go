// Package meshfile loads and saves YAML walkmesh descriptions. The
// format exists for fixtures and the inspection CLI; production meshes
// arrive from the game's binary format parser as raw arrays.
package meshfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/walkmesh"
	"github.com/Faultbox/walkmesh/pkg/math"
)

// Mesh description errors.
var (
	ErrNoVertices  = errors.New("meshfile: document has no vertices")
	ErrNoFaces     = errors.New("meshfile: document has no faces")
	ErrVertexRange = errors.New("meshfile: face references vertex out of range")
)

// Face is one triangle of the description: three vertex indices wound
// counter-clockwise seen from above, and a surface material id.
type Face struct {
	Verts    [3]int32 `yaml:"verts"`
	Material int32    `yaml:"material"`
}

// Document is a complete mesh description.
type Document struct {
	Name     string       `yaml:"name"`
	Indexed  bool         `yaml:"indexed"`
	Vertices [][3]float32 `yaml:"vertices"`
	Faces    []Face       `yaml:"faces"`
}

// Parse parses a YAML mesh description from raw bytes.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("meshfile: parsing document: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load parses a YAML mesh description from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("meshfile: reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("meshfile: %s: %w", path, err)
	}
	if doc.Name == "" {
		doc.Name = filepath.Base(path)
	}
	return doc, nil
}

// Save writes the description to disk, creating parent directories as
// needed.
func (d *Document) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (d *Document) validate() error {
	if len(d.Vertices) == 0 {
		return ErrNoVertices
	}
	if len(d.Faces) == 0 {
		return ErrNoFaces
	}
	for i, f := range d.Faces {
		for _, v := range f.Verts {
			if v < 0 || int(v) >= len(d.Vertices) {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrVertexRange, i, v, len(d.Vertices))
			}
		}
	}
	return nil
}

// Data converts the description into the raw arrays mesh construction
// consumes. Normals, plane offsets and adjacency are left for the
// mesh to derive.
func (d *Document) Data() walkmesh.MeshData {
	data := walkmesh.MeshData{
		Vertices:  make([]math.Vec3, len(d.Vertices)),
		Indices:   make([]int32, 0, 3*len(d.Faces)),
		Materials: make([]walkmesh.Material, 0, len(d.Faces)),
	}
	for i, v := range d.Vertices {
		data.Vertices[i] = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
	}
	for _, f := range d.Faces {
		data.Indices = append(data.Indices, f.Verts[0], f.Verts[1], f.Verts[2])
		data.Materials = append(data.Materials, walkmesh.Material(f.Material))
	}
	return data
}

// Build constructs the mesh described by the document.
func (d *Document) Build(surfaces *walkmesh.SurfaceTable, tolerance float32) (*walkmesh.Mesh, error) {
	return walkmesh.NewMesh(d.Data(), walkmesh.Options{
		Indexed:       d.Indexed,
		Surfaces:      surfaces,
		WeldTolerance: tolerance,
	})
}
