package display

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/joshuadavidthomas/copilotstatus/internal/store"
)

// HistorySeries returns the remaining percentage of each point, in order.
func HistorySeries(points []store.HistoryPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.RemainingPercent
	}
	return out
}

// RenderHistoryChart plots the remaining percentage over time.
func RenderHistoryChart(points []store.HistoryPoint, width, height int) string {
	if len(points) == 0 {
		return dimStyle.Render("No history recorded yet.")
	}

	width = max(width, 20)
	height = max(height, 3)

	data := HistorySeries(points)
	if len(data) == 1 {
		data = append(data, data[0])
	}

	first, last := points[0].FetchedAt, points[len(points)-1].FetchedAt
	caption := fmt.Sprintf("%% remaining, %s to %s", first.Local().Format("Jan 2 15:04"), last.Local().Format("Jan 2 15:04"))

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
		asciigraph.Caption(caption),
	)
}
