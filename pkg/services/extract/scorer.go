package extract

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/statement-atlas/pkg/models/domain"
	"github.com/de-tools/statement-atlas/pkg/services/normalize"
)

// ScoreWeights configure candidate scoring. A candidate scoring below
// MinScore is never selected.
type ScoreWeights struct {
	Title        float64
	Keyword      float64
	NumericRatio float64
	DateHeader   float64
	MinScore     float64
}

// DefaultScoreWeights returns the scoring defaults. Title alone is not
// enough to pass MinScore; a real balance sheet also carries keywords
// and numeric density.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Title:        30,
		Keyword:      10,
		NumericRatio: 20,
		DateHeader:   15,
		MinScore:     35,
	}
}

var tableTitles = []string{
	"balance sheet",
	"statement of financial position",
}

var tableKeywords = []string{
	"assets", "liabilities", "equity", "cash", "total",
	"receivable", "payable", "stockholders", "shareholders",
}

var dateLayouts = []string{"January 2, 2006", "1/2/2006", "2006-01-02"}

// Scorer ranks table candidates. Scoring is pure: the same table and
// weights always produce the same breakdown.
type Scorer struct {
	weights  ScoreWeights
	registry *Registry
}

func NewScorer(weights ScoreWeights, registry *Registry) *Scorer {
	return &Scorer{weights: weights, registry: registry}
}

// Score computes the weighted feature breakdown for one candidate.
func (s *Scorer) Score(table domain.RawTable) domain.ScoredCandidate {
	b := domain.ScoreBreakdown{}
	if hasTitle(table) {
		b.TitleMatch = s.weights.Title
	}
	b.KeywordHits = float64(keywordHits(table)) * s.weights.Keyword
	b.NumericRatio = numericRatio(table) * s.weights.NumericRatio
	if hasDateHeader(table) {
		b.DateHeader = s.weights.DateHeader
	}
	return domain.ScoredCandidate{Table: table, Score: b.Total(), Breakdown: b}
}

// Select scores every candidate and returns the best one at or above the
// acceptance threshold. Ties go to the candidate with more rows, then the
// earlier-registered strategy, then the lower page number.
func (s *Scorer) Select(ctx context.Context, tables []domain.RawTable) (domain.ScoredCandidate, error) {
	logger := zerolog.Ctx(ctx)

	var best domain.ScoredCandidate
	have := false
	bestOverall := 0.0
	page := -1
	for _, t := range tables {
		c := s.Score(t)
		logger.Debug().
			Int("page", t.Page).
			Str("strategy", t.Strategy).
			Float64("score", c.Score).
			Float64("title", c.Breakdown.TitleMatch).
			Float64("keywords", c.Breakdown.KeywordHits).
			Float64("numeric", c.Breakdown.NumericRatio).
			Float64("dates", c.Breakdown.DateHeader).
			Msg("scored table candidate")

		if c.Score > bestOverall || page < 0 {
			bestOverall = c.Score
			page = t.Page
		}
		if c.Score < s.weights.MinScore {
			continue
		}
		if !have || s.prefer(c, best) {
			best, have = c, true
		}
	}
	if !have {
		return domain.ScoredCandidate{}, &domain.NoTableFoundError{
			Page:       page,
			Candidates: len(tables),
			BestScore:  bestOverall,
		}
	}
	return best, nil
}

func (s *Scorer) prefer(a, b domain.ScoredCandidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Table.Rows() != b.Table.Rows() {
		return a.Table.Rows() > b.Table.Rows()
	}
	if ra, rb := s.registry.rank(a.Table.Strategy), s.registry.rank(b.Table.Strategy); ra != rb {
		return ra < rb
	}
	return a.Table.Page < b.Table.Page
}

// hasTitle looks for a statement title in the leading rows.
func hasTitle(table domain.RawTable) bool {
	limit := len(table.Cells)
	if limit > 3 {
		limit = 3
	}
	for _, row := range table.Cells[:limit] {
		text := strings.ToLower(strings.Join(row, " "))
		for _, title := range tableTitles {
			if strings.Contains(text, title) {
				return true
			}
		}
	}
	return false
}

// keywordHits counts distinct vocabulary words among the label column.
func keywordHits(table domain.RawTable) int {
	var labels strings.Builder
	for _, row := range table.Cells {
		if len(row) > 0 {
			labels.WriteString(strings.ToLower(row[0]))
			labels.WriteByte(' ')
		}
	}
	text := labels.String()
	hits := 0
	for _, kw := range tableKeywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

// numericRatio is the fraction of non-empty value cells that parse as
// amounts. Prose pages that merely mention the vocabulary score near
// zero here.
func numericRatio(table domain.RawTable) float64 {
	numeric, total := 0, 0
	for _, row := range table.Cells {
		if len(row) < 2 {
			continue
		}
		for _, cell := range row[1:] {
			v := strings.TrimSpace(cell)
			if v == "" || v == "$" {
				continue
			}
			total++
			if normalize.IsNumericCell(v) {
				numeric++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(numeric) / float64(total)
}

// hasDateHeader reports whether a leading row carries period-end dates
// ordered most recent first.
func hasDateHeader(table domain.RawTable) bool {
	limit := len(table.Cells)
	if limit > 3 {
		limit = 3
	}
	for _, row := range table.Cells[:limit] {
		var dates []time.Time
		for _, cell := range row {
			v := strings.TrimSpace(cell)
			if v == "" {
				continue
			}
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, v); err == nil {
					dates = append(dates, t)
					break
				}
			}
		}
		if len(dates) == 0 {
			continue
		}
		ordered := true
		for i := 1; i < len(dates); i++ {
			if dates[i].After(dates[i-1]) {
				ordered = false
				break
			}
		}
		if ordered {
			return true
		}
	}
	return false
}
