package extract

import (
	"sort"
	"strings"

	"github.com/de-tools/statement-atlas/pkg/models/domain"
	"github.com/de-tools/statement-atlas/pkg/pdf"
)

// cutTolerance merges ruling positions that differ by less than this many
// points into a single grid cut.
const cutTolerance = 2.0

// Lattice builds a grid from the page's ruling lines. It only produces a
// candidate when the page actually draws a grid: at least three vertical
// and three horizontal cuts, enough for a 2x2 table.
type Lattice struct{}

func NewLattice() *Lattice { return &Lattice{} }

func (l *Lattice) Name() string { return "lattice" }

func (l *Lattice) Extract(pt *pdf.PageText) ([]domain.RawTable, error) {
	var xs, ys []float64
	for _, r := range pt.Rulings {
		switch {
		case r.Vertical():
			xs = append(xs, r.X0)
		case r.Horizontal():
			ys = append(ys, r.Y0)
		}
	}
	xs = dedupeCuts(xs)
	ys = dedupeCuts(ys)
	if len(xs) < 3 || len(ys) < 3 {
		return nil, nil
	}

	cols := len(xs) - 1
	rows := len(ys) - 1
	cells := make([][]string, rows)
	for i := range cells {
		cells[i] = make([]string, cols)
	}

	for _, line := range pt.Lines {
		for _, f := range line.Fragments {
			ci := bandIndex(xs, f.X)
			yi := bandIndex(ys, f.Y)
			if ci < 0 || yi < 0 {
				continue
			}
			// ys ascend but rows read top-down, so the highest band is row 0.
			ri := rows - 1 - yi
			text := strings.TrimSpace(f.Text)
			if text == "" {
				continue
			}
			if cells[ri][ci] == "" {
				cells[ri][ci] = text
			} else {
				cells[ri][ci] += " " + text
			}
		}
	}

	cells = dropEmptyRows(cells)
	if len(cells) == 0 {
		return nil, nil
	}
	return []domain.RawTable{{Page: pt.Number, Strategy: l.Name(), Cells: cells}}, nil
}

// dedupeCuts sorts positions and merges runs closer than cutTolerance,
// keeping the first position of each run.
func dedupeCuts(cuts []float64) []float64 {
	if len(cuts) == 0 {
		return nil
	}
	sort.Float64s(cuts)
	out := cuts[:1]
	for _, c := range cuts[1:] {
		if c-out[len(out)-1] > cutTolerance {
			out = append(out, c)
		}
	}
	return out
}

// bandIndex locates v between consecutive cuts, -1 when outside the grid.
func bandIndex(cuts []float64, v float64) int {
	for i := 0; i+1 < len(cuts); i++ {
		if v >= cuts[i] && v < cuts[i+1] {
			return i
		}
	}
	return -1
}

func dropEmptyRows(cells [][]string) [][]string {
	out := cells[:0]
	for _, row := range cells {
		empty := true
		for _, c := range row {
			if c != "" {
				empty = false
				break
			}
		}
		if !empty {
			out = append(out, row)
		}
	}
	return out
}
