// Package overlay implements the Overlay Renderer (§4.8): the scale bar,
// adaptive coordinate grid, FPS/metrics readout and cursor coordinate
// display drawn on top of the layout itself.
package overlay

import (
	"fmt"
	"math"

	"github.com/hailam/gdsview/internal/geometry"
	"github.com/hailam/gdsview/internal/viewport"
)

// GridSpacing picks a "nice" world-space grid line spacing (1/2/5 * 10^n)
// such that the resulting screen-space spacing falls within
// [minPixels,maxPixels], per §4.8's adaptive grid rule.
func GridSpacing(scale, minPixels, maxPixels float64) float64 {
	if scale <= 0 {
		return 0
	}
	if minPixels <= 0 {
		minPixels = 40
	}
	if maxPixels <= 0 {
		maxPixels = 160
	}
	target := (minPixels + maxPixels) / 2
	worldTarget := target / scale

	exp := math.Floor(math.Log10(worldTarget))
	base := math.Pow(10, exp)
	for _, mult := range []float64{1, 2, 5, 10} {
		spacing := base * mult
		px := spacing * scale
		if px >= minPixels && px <= maxPixels {
			return spacing
		}
	}
	// Fall back to the closest candidate by ratio-distance if none landed in
	// range (extreme zoom where no 1/2/5 step lands exactly in the band).
	best := base
	bestDist := math.Inf(1)
	for _, mult := range []float64{1, 2, 5, 10} {
		spacing := base * mult
		px := spacing * scale
		dist := math.Abs(px - target)
		if dist < bestDist {
			bestDist = dist
			best = spacing
		}
	}
	return best
}

// ScaleBarLength picks a round world-space length for the scale bar whose
// screen projection does not exceed maxPixels, returning the length and its
// display label (e.g. "10 um").
func ScaleBarLength(scale, maxPixels float64, metersPerDBU float64) (lengthDBU float64, label string) {
	if scale <= 0 || maxPixels <= 0 {
		return 0, ""
	}
	worldMax := maxPixels / scale
	exp := math.Floor(math.Log10(worldMax))
	base := math.Pow(10, exp)
	length := base
	for _, mult := range []float64{1, 2, 5} {
		candidate := base * mult
		if candidate <= worldMax {
			length = candidate
		}
	}
	return length, formatLength(length, metersPerDBU)
}

func formatLength(lengthDBU, metersPerDBU float64) string {
	meters := lengthDBU * metersPerDBU
	switch {
	case meters >= 1:
		return fmt.Sprintf("%.3g m", meters)
	case meters >= 1e-3:
		return fmt.Sprintf("%.3g mm", meters*1e3)
	case meters >= 1e-6:
		return fmt.Sprintf("%.3g um", meters*1e6)
	default:
		return fmt.Sprintf("%.3g nm", meters*1e9)
	}
}

// Metrics is the live performance readout §4.8/§6 get_metrics() asks for.
type Metrics struct {
	FPS                  float64
	VisiblePolygons      int
	TotalPolygons        int
	PolygonBudget        int
	BudgetUtilization    float64
	CurrentDepth         int
	ZoomLevel            float64
	NextLODThresholdLow  float64
	NextLODThresholdHigh float64
}

// CoordinateReadout formats the world point under the cursor for display,
// honoring the document's unit metadata.
func CoordinateReadout(c viewport.Camera, units geometry.UnitMetadata, screenX, screenY float64) string {
	p := c.ScreenToWorld(screenX, screenY)
	mpd := units.MetersPerDBU()
	return fmt.Sprintf("(%s, %s)", formatLength(float64(p.X), mpd), formatLength(float64(p.Y), mpd))
}
