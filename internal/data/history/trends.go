package history

import (
	"fmt"
	"math"
	"time"
)

// BuildTrendReport computes per-run deltas and the average problem count
// over the trailing window. Runs must be in timestamp order.
func BuildTrendReport(key string, runs []Run, window time.Duration) (TrendReport, error) {
	if len(runs) == 0 {
		return TrendReport{}, fmt.Errorf("no runs recorded for %q", key)
	}

	points := make([]TrendPoint, 0, len(runs))
	for i, current := range runs {
		point := TrendPoint{Run: current}
		if i > 0 {
			prev := runs[i-1]
			point.DeltaProblems = current.Problems() - prev.Problems()
			point.DeltaReferences = current.ReferenceCount - prev.ReferenceCount
			point.DeltaDecls = current.DeclCount - prev.DeclCount
		}
		point.AvgProblems = round2(movingAverage(runs, i, window))
		points = append(points, point)
	}

	return TrendReport{
		WorkspaceKey: key,
		Since:        runs[0].Timestamp,
		Until:        runs[len(runs)-1].Timestamp,
		Window:       window.String(),
		RunCount:     len(points),
		Points:       points,
	}, nil
}

func movingAverage(runs []Run, index int, window time.Duration) float64 {
	if window <= 0 {
		return float64(runs[index].Problems())
	}
	cutoff := runs[index].Timestamp.Add(-window)
	total, count := 0, 0
	for i := index; i >= 0; i-- {
		if runs[i].Timestamp.Before(cutoff) {
			break
		}
		total += runs[i].Problems()
		count++
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
