package zassign

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/lidarmap/cadoverlay/internal/overlay"
)

// Statistic selects the cloud-wide elevation statistic used as the
// constant/fallback height.
type Statistic string

const (
	StatMedian Statistic = "MEDIAN"
	StatP95    Statistic = "P95"
)

// ConstantZ computes a global robust elevation over the retained cloud
// subset. It is evaluated once per run, independent of the per-sample
// queries.
func ConstantZ(zs []float64, statistic Statistic, offset float64) (float64, error) {
	if len(zs) == 0 {
		return 0, &overlay.InvalidParameterError{Name: "cloud-points", Value: 0}
	}
	sorted := make([]float64, len(zs))
	copy(sorted, zs)
	sort.Float64s(sorted)

	var q float64
	switch statistic {
	case StatMedian:
		q = 0.5
	case StatP95:
		q = 0.95
	default:
		return 0, &overlay.InvalidParameterError{Name: "statistic", Value: 0}
	}
	return stat.Quantile(q, stat.LinInterp, sorted, nil) + offset, nil
}
