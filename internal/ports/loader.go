package ports

import (
	"context"

	"github.com/hailam/gdsview/internal/geometry"
)

// ProgressFunc reports a monotonic 0-100 value and a human-readable message
// at cooperative yield points during a load.
type ProgressFunc func(percent int, message string)

// Stats is the format-agnostic load summary returned alongside a Document,
// per the §6 load entry point (`load(bytes, filename) -> (Document,
// Statistics)`).
type Stats struct {
	FileSize           int64
	TotalCells         int
	TotalPolygons      int
	TopCellNames       []string
	PerLayerPolygons   map[geometry.LayerID]int
	Bounds             geometry.AABB
	WidthMicrons       float64
	HeightMicrons      float64
	DegeneratePolygons int
	UnknownRecords     int
}

// Loader is the port for anything that can turn an input byte buffer into a
// geometry.Document, per the §6 load entry point.
type Loader interface {
	// Load parses data and returns the assembled document, its load
	// statistics, any accumulated non-fatal warnings, and a fatal error if
	// the load could not complete.
	Load(ctx context.Context, data []byte, filename string, onProgress ProgressFunc) (*geometry.Document, Stats, []geometry.Warning, error)
}

// LoaderFactory is the port for looking up a Loader by input Format.
type LoaderFactory interface {
	// For returns a Loader for the given Format, or an error if unsupported.
	For(f Format) (Loader, error)
}
