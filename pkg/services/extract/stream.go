package extract

import (
	"math"
	"sort"
	"strings"

	"github.com/de-tools/statement-atlas/pkg/models/domain"
	"github.com/de-tools/statement-atlas/pkg/pdf"
)

// Stream infers column boundaries from the x positions of text fragments
// when the page draws no grid. Fragment start positions are clustered
// across all lines; a gap wider than MinColumnGap separates two columns.
type Stream struct {
	// MinColumnGap is in PDF points. Label indentation within a column is
	// usually around 10pt, while value columns sit far apart, so the
	// default cleanly separates the two without splitting indented labels
	// into their own column.
	MinColumnGap float64
}

func NewStream() *Stream { return &Stream{MinColumnGap: 18} }

func (s *Stream) Name() string { return "stream" }

func (s *Stream) Extract(pt *pdf.PageText) ([]domain.RawTable, error) {
	var xs []float64
	for _, line := range pt.Lines {
		for _, f := range line.Fragments {
			xs = append(xs, f.X)
		}
	}
	cols := clusterColumns(xs, s.MinColumnGap)
	if len(cols) < 2 {
		return nil, nil
	}

	cells := make([][]string, 0, len(pt.Lines))
	for _, line := range pt.Lines {
		row := make([]string, len(cols))
		for _, f := range line.Fragments {
			text := strings.TrimSpace(f.Text)
			if text == "" {
				continue
			}
			ci := nearestColumn(cols, f.X)
			if row[ci] == "" {
				row[ci] = text
			} else {
				row[ci] += " " + text
			}
		}
		cells = append(cells, row)
	}

	cells = dropEmptyRows(cells)
	if len(cells) == 0 {
		return nil, nil
	}
	return []domain.RawTable{{Page: pt.Number, Strategy: s.Name(), Cells: cells}}, nil
}

// clusterColumns sorts start positions and opens a new column wherever
// the gap to the previous position exceeds minGap. Each column is
// represented by its leftmost start position.
func clusterColumns(xs []float64, minGap float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	cols := []float64{sorted[0]}
	prev := sorted[0]
	for _, x := range sorted[1:] {
		if x-prev > minGap {
			cols = append(cols, x)
		}
		prev = x
	}
	return cols
}

func nearestColumn(cols []float64, x float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, c := range cols {
		if d := math.Abs(c - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
