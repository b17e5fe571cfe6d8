// Package dxf (adapter) wraps internal/dxfconv behind ports.Loader and
// self-registers for ports.FormatDXF, in the same self-registration style
// as internal/adapters/gdsii and the teacher's output generator adapters.
package dxf

import (
	"context"

	"github.com/hailam/gdsview/internal/adapters/factory"
	"github.com/hailam/gdsview/internal/dxfconv"
	"github.com/hailam/gdsview/internal/geometry"
	"github.com/hailam/gdsview/internal/ports"
)

func init() {
	factory.RegisterLoader(ports.FormatDXF, New(dxfconv.DefaultConfig()))
}

// Loader adapts dxfconv.Convert to ports.Loader.
type Loader struct {
	cfg dxfconv.Config
}

// New constructs a Loader with the given converter configuration.
func New(cfg dxfconv.Config) *Loader {
	return &Loader{cfg: cfg}
}

// Load implements ports.Loader. DXF conversion is not chunked (layout files
// small enough to be DXF text do not warrant cooperative yielding), so
// onProgress is only called once at completion.
func (l *Loader) Load(ctx context.Context, data []byte, filename string, onProgress ports.ProgressFunc) (*geometry.Document, ports.Stats, []geometry.Warning, error) {
	doc, warnings, err := dxfconv.Convert(data, filename, l.cfg)
	if err != nil {
		return nil, ports.Stats{}, warnings, err
	}
	if onProgress != nil {
		onProgress(100, "done")
	}
	stats := ports.Stats{
		TotalCells:       len(doc.Cells),
		TotalPolygons:    doc.TotalPolygons(),
		TopCellNames:     append([]string{}, doc.TopCells...),
		PerLayerPolygons: doc.PerLayerPolygonCounts(),
		Bounds:           doc.Bounds,
	}
	mpd := doc.Units.MetersPerDBU()
	stats.WidthMicrons = float64(doc.Bounds.Width()) * mpd * 1e6
	stats.HeightMicrons = float64(doc.Bounds.Height()) * mpd * 1e6
	return doc, stats, warnings, nil
}
