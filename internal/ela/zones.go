package ela

import (
	"image"
	"sort"
)

// SuspiciousZone is a grid cell whose mean difference stands out.
// Intensity is the cell mean relative to the field maximum.
type SuspiciousZone struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Intensity float64 `json:"intensity"`
}

// GridCells partitions a width x height extent into size x size cells, row by
// row. Cells on the right and bottom edges are truncated to the extent.
func GridCells(width, height, size int) []image.Rectangle {
	if width <= 0 || height <= 0 || size <= 0 {
		return nil
	}

	cells := make([]image.Rectangle, 0, ((width+size-1)/size)*((height+size-1)/size))
	for y := 0; y < height; y += size {
		for x := 0; x < width; x += size {
			cells = append(cells, image.Rect(x, y, min(x+size, width), min(y+size, height)))
		}
	}
	return cells
}

// DetectZones returns the cells whose mean difference exceeds
// cfg.ZoneThreshold * f.Max, strongest first, at most cfg.MaxZones of them.
// Ties keep grid order.
func DetectZones(f *DifferenceField, cfg Config) []SuspiciousZone {
	zones := []SuspiciousZone{}
	if f.Max <= 0 {
		return zones
	}

	threshold := f.Max * cfg.ZoneThreshold
	for _, cell := range GridCells(f.Width, f.Height, cfg.GridSize) {
		var sum float64
		for y := cell.Min.Y; y < cell.Max.Y; y++ {
			row := f.Values[y*f.Width : (y+1)*f.Width]
			for x := cell.Min.X; x < cell.Max.X; x++ {
				sum += row[x]
			}
		}

		mean := sum / float64(cell.Dx()*cell.Dy())
		if mean > threshold {
			zones = append(zones, SuspiciousZone{
				X:         cell.Min.X,
				Y:         cell.Min.Y,
				Width:     cell.Dx(),
				Height:    cell.Dy(),
				Intensity: mean / f.Max,
			})
		}
	}

	sort.SliceStable(zones, func(i, j int) bool {
		return zones[i].Intensity > zones[j].Intensity
	})

	if len(zones) > cfg.MaxZones {
		zones = zones[:cfg.MaxZones]
	}
	return zones
}
