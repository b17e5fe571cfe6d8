// Package gdsii (adapter) wraps internal/gdsii's Binary Record Reader and
// Document Builder behind the ports.Loader interface, and self-registers
// for ports.FormatGDSII, mirroring the teacher's generator adapter packages
// (internal/adapters/png, internal/adapters/dxf, ...).
package gdsii

import (
	"context"

	"github.com/hailam/gdsview/internal/adapters/factory"
	coregdsii "github.com/hailam/gdsview/internal/gdsii"
	"github.com/hailam/gdsview/internal/geometry"
	"github.com/hailam/gdsview/internal/ports"
	"github.com/sirupsen/logrus"
)

func init() {
	factory.RegisterLoader(ports.FormatGDSII, New(logrus.StandardLogger()))
}

// Loader adapts internal/gdsii.Build to ports.Loader.
type Loader struct {
	log *logrus.Logger
}

// New constructs a Loader that logs warnings through log.
func New(log *logrus.Logger) *Loader {
	return &Loader{log: log}
}

// Load implements ports.Loader.
func (l *Loader) Load(ctx context.Context, data []byte, filename string, onProgress ports.ProgressFunc) (*geometry.Document, ports.Stats, []geometry.Warning, error) {
	doc, stats, warnings, err := coregdsii.Build(ctx, data, filename, coregdsii.ProgressFunc(onProgress), l.log)
	if err != nil {
		return nil, ports.Stats{}, warnings, err
	}
	return doc, toPortsStats(stats), warnings, nil
}

func toPortsStats(s coregdsii.Statistics) ports.Stats {
	return ports.Stats{
		FileSize:           s.FileSize,
		TotalCells:         s.TotalCells,
		TotalPolygons:      s.TotalPolygons,
		TopCellNames:       s.TopCellNames,
		PerLayerPolygons:   s.PerLayerPolygons,
		Bounds:             s.Bounds,
		WidthMicrons:       s.WidthMicrons,
		HeightMicrons:      s.HeightMicrons,
		DegeneratePolygons: s.DegeneratePolygons,
		UnknownRecords:     s.UnknownRecords,
	}
}
