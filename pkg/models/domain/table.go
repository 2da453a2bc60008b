package domain

// RawTable is a two-dimensional grid of text cells as extracted from a PDF
// page. It is produced by an extraction strategy and consumed once by the
// normalizer.
type RawTable struct {
	Page     int // 0-indexed page number
	Strategy string
	Cells    [][]string
}

// Rows returns the number of rows in the table.
func (t *RawTable) Rows() int { return len(t.Cells) }

// Cols returns the widest row of the table. Extraction strategies do not
// guarantee a perfectly rectangular grid.
func (t *RawTable) Cols() int {
	max := 0
	for _, row := range t.Cells {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// ScoreBreakdown records the individual features that contributed to a
// candidate's score, so tie-breaks and thresholds are auditable.
type ScoreBreakdown struct {
	TitleMatch   float64
	KeywordHits  float64
	NumericRatio float64
	DateHeader   float64
}

// Total sums the weighted feature contributions.
func (b ScoreBreakdown) Total() float64 {
	return b.TitleMatch + b.KeywordHits + b.NumericRatio + b.DateHeader
}

// ScoredCandidate pairs a raw table with its score. The score is
// deterministic given the same table and weights.
type ScoredCandidate struct {
	Table     RawTable
	Score     float64
	Breakdown ScoreBreakdown
}
