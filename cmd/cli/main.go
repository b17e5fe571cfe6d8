package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hailam/gdsview/internal/adapters/factory"
	adapterutils "github.com/hailam/gdsview/internal/adapters/utils"
	"github.com/hailam/gdsview/internal/application"
	"github.com/hailam/gdsview/internal/drawlist"
	"github.com/hailam/gdsview/internal/obs"

	// Blank imports for every format adapter so their init() functions run
	// and register with the loader factory.
	_ "github.com/hailam/gdsview/internal/adapters/dxf"
	_ "github.com/hailam/gdsview/internal/adapters/gdsii"
)

// Variables to hold flag values
var (
	maxPolygonsStr string
	maxDepthStr    string
	verbose        bool
)

func main() {
	// --- Composition Root: Initialize Adapters and Core Logic ---
	quantityParser := adapterutils.NewUtilQuantityParser()
	// --- End Composition Root ---

	var rootCmd = &cobra.Command{
		Use:   "gdsview",
		Short: "Loads and renders GDSII/DXF integrated-circuit layout files.",
		Long: `gdsview is a CLI front end over the layout viewer's rendering engine
core: it loads a GDSII or DXF file, runs it through the scene-graph
traversal and spatial index, and reports load statistics or a headless
render summary without requiring a GPU-backed UI.`,
	}

	rootCmd.PersistentFlags().StringVar(&maxPolygonsStr, "max-polygons", "2M", "polygon budget per traversal (e.g. 500K, 2M)")
	rootCmd.PersistentFlags().StringVar(&maxDepthStr, "max-depth", "10", "scene-graph recursion depth limit")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(statsCmd(quantityParser))
	rootCmd.AddCommand(renderCmd(quantityParser))

	// Execute the root command
	if err := rootCmd.Execute(); err != nil {
		// Cobra prints errors automatically, but we exit non-zero
		os.Exit(1)
	}
}

func statsCmd(quantityParser interface {
	Parse(string) (int64, error)
}) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file>",
		Short: "Load a layout file and print its load statistics.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, data, path, err := loadEngine(quantityParser, args[0])
			if err != nil {
				return err
			}

			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			s.Prefix = fmt.Sprintf("Loading %s... ", path)
			s.Start()
			err = eng.Load(context.Background(), data, path, nil)
			s.Stop()
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", path, err)
			}

			stats := eng.GetStats()
			fmt.Printf("cells: %d\n", stats.TotalCells)
			fmt.Printf("polygons: %d\n", stats.TotalPolygons)
			fmt.Printf("top cells: %v\n", stats.TopCellNames)
			fmt.Printf("size: %.3f x %.3f um\n", stats.WidthMicrons, stats.HeightMicrons)
			fmt.Printf("degenerate polygons dropped: %d\n", stats.DegeneratePolygons)
			fmt.Printf("unknown records: %d\n", stats.UnknownRecords)
			for _, w := range eng.Warnings() {
				fmt.Printf("warning: %s (cell=%s offset=%d): %s\n", w.Kind, w.Cell, w.Offset, w.Message)
			}
			return nil
		},
	}
}

func renderCmd(quantityParser interface {
	Parse(string) (int64, error)
}) *cobra.Command {
	return &cobra.Command{
		Use:   "render <file>",
		Short: "Load a layout file and render one headless frame.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, data, path, err := loadEngine(quantityParser, args[0])
			if err != nil {
				return err
			}
			if err := eng.Load(context.Background(), data, path, nil); err != nil {
				return fmt.Errorf("failed to load %s: %w", path, err)
			}
			eng.FitToView()

			dl := drawlist.New()
			metrics, err := eng.Render(dl, 0)
			if err != nil {
				return fmt.Errorf("failed to render %s: %w", path, err)
			}
			fmt.Printf("depth: %d\n", metrics.CurrentDepth)
			fmt.Printf("visible polygons: %d\n", metrics.VisiblePolygons)
			fmt.Printf("budget utilization: %.1f%%\n", metrics.BudgetUtilization*100)
			return nil
		},
	}
}

// loadEngine constructs an Engine from the shared CLI flags and reads the
// input file, leaving the caller to call eng.Load.
func loadEngine(quantityParser interface {
	Parse(string) (int64, error)
}, path string) (*application.Engine, []byte, string, error) {
	// The gdsii adapter (bound at registration time) and the loader registry
	// log through logrus.StandardLogger(); verbosity is applied to that
	// shared instance.
	obs.SetVerbose(logrus.StandardLogger(), verbose)

	maxPolygons, err := quantityParser.Parse(maxPolygonsStr)
	if err != nil {
		return nil, nil, "", fmt.Errorf("invalid --max-polygons: %w", err)
	}
	maxDepth, err := quantityParser.Parse(maxDepthStr)
	if err != nil {
		return nil, nil, "", fmt.Errorf("invalid --max-depth: %w", err)
	}

	cfg := application.DefaultConfig()
	cfg.Budget.MaxPolygons = int(maxPolygons)
	cfg.Budget.MaxDepth = int(maxDepth)

	eng := application.NewEngine(factory.NewLoaderFactory(), cfg)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return eng, data, path, nil
}
