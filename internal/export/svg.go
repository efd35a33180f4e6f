package export

import (
	"fmt"
	"strings"

	"github.com/railkit/railsim/internal/storage"
)

type Point struct{ X, Y float64 }

// TrajectorySVG draws one polyline over a dark background, padded 10%
// past the data bounds on each side. Fewer than two points yields an
// empty string.
func TrajectorySVG(points []Point, width, height int, stroke string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, stroke))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// SeriesSVG plots one named column of a recorded series against time.
func SeriesSVG(series *storage.Series, column string, width, height int, stroke string) (string, error) {
	idx := -1
	for i, name := range series.Columns {
		if name == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("export: series has no column %q", column)
	}

	points := make([]Point, 0, len(series.Times))
	for i, t := range series.Times {
		if idx >= len(series.Rows[i]) {
			continue
		}
		points = append(points, Point{X: t, Y: series.Rows[i][idx]})
	}
	return TrajectorySVG(points, width, height, stroke), nil
}
