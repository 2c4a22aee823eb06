// walkmeshtool is a CLI utility for inspecting and querying walkmesh
// description files.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/Faultbox/walkmesh"
	"github.com/Faultbox/walkmesh/internal/config"
	"github.com/Faultbox/walkmesh/internal/logger"
	"github.com/Faultbox/walkmesh/internal/meshfile"
	"github.com/Faultbox/walkmesh/pkg/math"
)

func main() {
	// Global flags (-config, -debug, -tolerance, -max-iterations) come
	// before the command; parsing stops at the first positional arg.
	config.ParseFlags()
	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "info":
		cmdInfo(cfg, args)
	case "height", "z":
		cmdHeight(cfg, args)
	case "path":
		cmdPath(cfg, args)
	case "raycast", "ray":
		cmdRaycast(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`walkmeshtool - walkmesh inspection utility

Usage:
  walkmeshtool <command> [options]

Commands:
  info <mesh.yaml...>                        Show mesh statistics
  height <mesh.yaml> <x> <y>                 Surface height at a point
  path <mesh.yaml...> <x1> <y1> <x2> <y2>    Find a walkable route
  raycast <mesh.yaml> <ox oy oz> <dx dy dz>  Nearest face hit by a ray

Several mesh files given to path are stitched before the search.

Global flags go before the command: -config <file>, -debug,
-tolerance <t>, -max-iterations <n>.

Examples:
  walkmeshtool info room1.yaml
  walkmeshtool height room1.yaml 4.5 2.0
  walkmeshtool path room1.yaml room2.yaml 0.5 0.5 9.5 2.5
  walkmeshtool raycast room1.yaml 1 1 10 0 0 -1`)
}

// buildMeshes loads and builds every mesh file on the command line
// with the shared surface table from the config.
func buildMeshes(cfg *config.Config, paths []string) []*walkmesh.Mesh {
	table := cfg.SurfaceTable()
	meshes := make([]*walkmesh.Mesh, 0, len(paths))
	for _, path := range paths {
		doc, err := meshfile.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		mesh, err := doc.Build(table, cfg.Stitch.Tolerance)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building %s: %v\n", path, err)
			os.Exit(1)
		}
		meshes = append(meshes, mesh)
	}
	return meshes
}

// combined stitches the inputs when more than one file is given.
func combined(cfg *config.Config, paths []string) *walkmesh.Mesh {
	meshes := buildMeshes(cfg, paths)
	if len(meshes) == 1 {
		return meshes[0]
	}
	merged, err := walkmesh.Stitch(meshes, walkmesh.StitchOptions{Tolerance: cfg.Stitch.Tolerance})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error stitching: %v\n", err)
		os.Exit(1)
	}
	return merged
}

func parseFloats(args []string) ([]float32, bool) {
	out := make([]float32, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return nil, false
		}
		out = append(out, float32(v))
	}
	return out, true
}

func cmdInfo(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: walkmeshtool info <mesh.yaml...>")
		os.Exit(1)
	}

	for _, path := range args {
		mesh := combined(cfg, []string{path})

		walkable := int32(0)
		byMaterial := make(map[walkmesh.Material]int)
		for f := int32(0); f < mesh.FaceCount(); f++ {
			if mesh.IsWalkable(f) {
				walkable++
			}
			byMaterial[mesh.FaceMaterial(f)]++
		}

		bounds := mesh.Bounds()
		fmt.Printf("Mesh:     %s\n", path)
		fmt.Printf("Faces:    %d (%d walkable)\n", mesh.FaceCount(), walkable)
		fmt.Printf("Indexed:  %v\n", mesh.Indexed())
		fmt.Printf("Bounds:   (%.2f, %.2f, %.2f) - (%.2f, %.2f, %.2f)\n",
			bounds.Min.X, bounds.Min.Y, bounds.Min.Z,
			bounds.Max.X, bounds.Max.Y, bounds.Max.Z)
		fmt.Println("Faces by material:")
		for m := walkmesh.Material(0); m < walkmesh.MaterialCount; m++ {
			if count := byMaterial[m]; count > 0 {
				fmt.Printf("  %-14s %d\n", m, count)
			}
		}
		fmt.Println()
	}
}

func cmdHeight(cfg *config.Config, args []string) {
	if len(args) != 3 {
		fmt.Fprintln(os.Stderr, "Usage: walkmeshtool height <mesh.yaml> <x> <y>")
		os.Exit(1)
	}
	coords, ok := parseFloats(args[1:])
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: coordinates must be numbers")
		os.Exit(1)
	}

	mesh := combined(cfg, args[:1])
	if p, ok := mesh.ProjectToSurface(coords[0], coords[1]); ok {
		fmt.Printf("Walkable surface at (%.3f, %.3f, %.3f)\n", p.X, p.Y, p.Z)
		return
	}
	if z, ok := mesh.DetermineZ(coords[0], coords[1]); ok {
		fmt.Printf("Non-walkable surface at height %.3f\n", z)
		return
	}
	fmt.Println("No surface at that point")
	os.Exit(1)
}

func cmdPath(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("path", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 5 {
		fmt.Fprintln(os.Stderr, "Usage: walkmeshtool path <mesh.yaml...> <x1> <y1> <x2> <y2>")
		os.Exit(1)
	}
	paths := fs.Args()[:fs.NArg()-4]
	coords, ok := parseFloats(fs.Args()[fs.NArg()-4:])
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: coordinates must be numbers")
		os.Exit(1)
	}

	mesh := combined(cfg, paths)

	start, okS := mesh.ProjectToSurface(coords[0], coords[1])
	goal, okG := mesh.ProjectToSurface(coords[2], coords[3])
	if !okS || !okG {
		fmt.Println("No path (endpoint off the walkable surface)")
		os.Exit(1)
	}

	route := mesh.FindPath(start, goal, walkmesh.PathOptions{MaxIterations: cfg.Path.MaxIterations})
	if route == nil {
		fmt.Println("No path")
		os.Exit(1)
	}
	for i, p := range route {
		fmt.Printf("%2d: (%.3f, %.3f, %.3f)\n", i, p.X, p.Y, p.Z)
	}
}

func cmdRaycast(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("raycast", flag.ExitOnError)
	maxDist := fs.Float64("max", 1000, "Maximum ray distance")
	fs.Parse(args)

	if fs.NArg() != 7 {
		fmt.Fprintln(os.Stderr, "Usage: walkmeshtool raycast <mesh.yaml> <ox> <oy> <oz> <dx> <dy> <dz>")
		os.Exit(1)
	}
	coords, ok := parseFloats(fs.Args()[1:])
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: coordinates must be numbers")
		os.Exit(1)
	}

	mesh := combined(cfg, fs.Args()[:1])
	origin := math.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}
	dir := math.Vec3{X: coords[3], Y: coords[4], Z: coords[5]}

	hit, ok := mesh.Raycast(origin, dir, float32(*maxDist))
	if !ok {
		fmt.Println("No hit")
		os.Exit(1)
	}
	fmt.Printf("Face:     %d (%s)\n", hit.Face, mesh.FaceMaterial(hit.Face))
	fmt.Printf("Distance: %.3f\n", hit.Distance)
	fmt.Printf("Point:    (%.3f, %.3f, %.3f)\n", hit.Point.X, hit.Point.Y, hit.Point.Z)
}
