package pkg

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/lidarmap/cadoverlay/internal/overlay"
	"github.com/lidarmap/cadoverlay/tools"
)

// coord formats a coordinate with fixed millimeter precision.
func coord(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(3)
}

// WriteXYZ writes one "x y z" line per point.
func WriteXYZ(path string, xs, ys, zs []float64) error {
	return writeLines(path, xs, ys, zs, func(w *bufio.Writer, i int) error {
		_, err := w.WriteString(coord(xs[i]) + " " + coord(ys[i]) + " " + coord(zs[i]) + "\n")
		return err
	})
}

// WriteXYZWithID appends the source polyline index as a fourth column.
func WriteXYZWithID(path string, xs, ys, zs []float64, ids []int) error {
	if len(ids) != len(xs) {
		return &overlay.DimensionMismatchError{What: "polyline ids", Want: len(xs), Got: len(ids)}
	}
	return writeLines(path, xs, ys, zs, func(w *bufio.Writer, i int) error {
		_, err := w.WriteString(coord(xs[i]) + " " + coord(ys[i]) + " " + coord(zs[i]) + " " + strconv.Itoa(ids[i]) + "\n")
		return err
	})
}

// WriteXYZWithScalar appends a scalar field as a fourth column.
func WriteXYZWithScalar(path string, xs, ys, zs, sf []float64) error {
	if len(sf) != len(xs) {
		return &overlay.DimensionMismatchError{What: "scalar field", Want: len(xs), Got: len(sf)}
	}
	return writeLines(path, xs, ys, zs, func(w *bufio.Writer, i int) error {
		_, err := w.WriteString(coord(xs[i]) + " " + coord(ys[i]) + " " + coord(zs[i]) + " " +
			decimal.NewFromFloat(sf[i]).StringFixed(6) + "\n")
		return err
	})
}

// WriteXYZRGB appends the resolved 8 bit color as three columns.
func WriteXYZRGB(path string, xs, ys, zs []float64, colors []overlay.RGB) error {
	if len(colors) != len(xs) {
		return &overlay.DimensionMismatchError{What: "colors", Want: len(xs), Got: len(colors)}
	}
	return writeLines(path, xs, ys, zs, func(w *bufio.Writer, i int) error {
		c := colors[i]
		_, err := w.WriteString(coord(xs[i]) + " " + coord(ys[i]) + " " + coord(zs[i]) + " " +
			strconv.Itoa(int(c.R)) + " " + strconv.Itoa(int(c.G)) + " " + strconv.Itoa(int(c.B)) + "\n")
		return err
	})
}

func writeLines(path string, xs, ys, zs []float64, line func(*bufio.Writer, int) error) error {
	if len(ys) != len(xs) {
		return &overlay.DimensionMismatchError{What: "y coordinates", Want: len(xs), Got: len(ys)}
	}
	if len(zs) != len(xs) {
		return &overlay.DimensionMismatchError{What: "z coordinates", Want: len(xs), Got: len(zs)}
	}
	if err := tools.CreateDirectoryIfDoesNotExist(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for i := range xs {
		if err := line(w, i); err != nil {
			f.Close()
			os.Remove(path)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
