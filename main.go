package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hailam/gdsview/internal/adapters/factory"
	"github.com/hailam/gdsview/internal/application"

	_ "github.com/hailam/gdsview/internal/adapters/dxf"
	_ "github.com/hailam/gdsview/internal/adapters/gdsii"
)

// main is the minimal one-shot entry point: load a single file and print
// its statistics, with format dispatch by extension. cmd/cli holds the
// full command tree (stats/render with flags); this is the direct
// equivalent of the teacher's single-shot extension-dispatch main.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: gdsview <layout-file>")
		os.Exit(1)
	}
	path := os.Args[1]
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "gds", "gds2", "gdsii", "dxf":
	default:
		fmt.Fprintf(os.Stderr, "Unsupported file extension: %s\n", ext)
		os.Exit(1)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	eng := application.NewEngine(factory.NewLoaderFactory(), application.DefaultConfig())
	if err := eng.Load(context.Background(), data, path, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
		os.Exit(1)
	}

	stats := eng.GetStats()
	fmt.Printf("Loaded %s: %d cells, %d polygons, %.3f x %.3f um\n",
		path, stats.TotalCells, stats.TotalPolygons, stats.WidthMicrons, stats.HeightMicrons)
}
