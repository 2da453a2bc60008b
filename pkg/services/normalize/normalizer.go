package normalize

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/de-tools/statement-atlas/pkg/models/domain"
)

// Settings configure normalization. KnownLabels is explicit configuration,
// not implicit global state: callers that have a canonical label set (for
// example from previously loaded statements) pass it in here.
type Settings struct {
	Rules       []CategoryRule
	KnownLabels []string
	// MaxLabelDistance is the max fuzzy edit distance for folding an
	// extracted label into a known canonical label.
	MaxLabelDistance int
	// OutputScale converts amounts from the statement's declared scale.
	// Zero keeps the declared scale.
	OutputScale domain.Scale
	// MaxIrregularRowFraction is the tolerated fraction of rows whose
	// value-column count disagrees with the dominant width.
	MaxIrregularRowFraction float64
}

// DefaultSettings returns the normalizer defaults.
func DefaultSettings() Settings {
	return Settings{
		Rules:                   DefaultRules(),
		MaxLabelDistance:        2,
		MaxIrregularRowFraction: 0.5,
	}
}

// Meta carries statement-level context the table itself may not contain.
type Meta struct {
	SourceURL  string
	SourceFile string
	// FallbackPeriods label the value columns when no date header row is
	// found, most recent first (e.g. fiscal quarter from the URL).
	FallbackPeriods []string
	ExtractedAt     time.Time
}

// Result is the output of normalizing one raw table.
type Result struct {
	// RecordSets holds one record set per period column, most recent first.
	RecordSets []domain.StatementRecordSet
	// SkippedRows are the row-scoped parse failures that were recovered
	// by skipping. They are also logged as they occur.
	SkippedRows []*domain.CellParseError
	// NotReported counts blank/dash cells that produced no line item.
	NotReported int
}

// footnoteMarker strips trailing footnote references from labels:
// "Goodwill (1)" and "Deferred revenue*" both lose their marker.
var footnoteMarker = regexp.MustCompile(`\s*(\(\d+\)|\([a-z]\)|\*+)\s*$`)

// boilerplateMarkers identify non-data rows carried into the grid by
// extraction: table titles, scale notes, share count details.
var boilerplateMarkers = []string{
	"consolidated", "unaudited", "in thousands", "in millions",
	"see accompanying", "as of", "par value", "shares authorized",
	"shares issued", "shares outstanding",
}

var headerDateLayouts = []string{"January 2, 2006", "1/2/2006", "2006-01-02"}

// Normalizer transforms raw tables into statement record sets.
type Normalizer struct {
	settings Settings
}

func NewNormalizer(settings Settings) *Normalizer {
	return &Normalizer{settings: settings}
}

// Normalize transforms each table row into zero or one line item per
// period column. Rows that fail to parse are skipped and logged; a grid
// whose rows disagree about column count beyond tolerance is fatal.
func (n *Normalizer) Normalize(ctx context.Context, table domain.RawTable, meta Meta) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	if err := n.checkStructure(table); err != nil {
		return nil, err
	}

	scale := detectScale(table)
	periods, dataStart := detectPeriods(table, meta.FallbackPeriods)

	factor := decimal.NewFromInt(1)
	outScale := scale
	if n.settings.OutputScale != 0 && n.settings.OutputScale != scale {
		factor = scale.Factor().Div(n.settings.OutputScale.Factor())
		outScale = n.settings.OutputScale
	}

	sets := make([]domain.StatementRecordSet, len(periods))
	for i, p := range periods {
		sets[i] = domain.StatementRecordSet{
			Period:      p,
			SourceURL:   meta.SourceURL,
			SourceFile:  meta.SourceFile,
			Scale:       outScale,
			ExtractedAt: meta.ExtractedAt,
		}
	}

	res := &Result{}
	section := domain.Category("")

	for rowIdx := dataStart; rowIdx < len(table.Cells); rowIdx++ {
		row := table.Cells[rowIdx]
		if len(row) == 0 {
			continue
		}

		label := cleanLabel(row[0])
		if label == "" || isBoilerplate(label) {
			continue
		}

		values := valueCells(row[1:])

		if sec, ok := sectionFor(label); ok && !anyReported(values) {
			section = sec
			continue
		}

		cat, review := classify(label, n.settings.Rules, section)
		label = n.canonicalize(label)
		isTotal := strings.Contains(strings.ToLower(label), "total")

		// Parse the whole row before committing anything: a parse failure
		// skips the row across all periods, not just one column.
		type parsed struct {
			col  int
			item domain.LineItem
		}
		var rowItems []parsed
		notReported := 0
		rowFailed := false
		for col, cell := range values {
			if col >= len(sets) {
				break
			}
			amount, reported, err := ParseAmount(cell)
			if err != nil {
				cellErr := &domain.CellParseError{Row: rowIdx, Cell: cell, Label: label, Err: err}
				logger.Warn().Str("label", label).Int("row", rowIdx).Str("cell", cell).
					Msg("skipping row: unparseable cell")
				res.SkippedRows = append(res.SkippedRows, cellErr)
				rowFailed = true
				break
			}
			if !reported {
				// A blank or dash cell means "not reported", never zero.
				notReported++
				continue
			}

			rowItems = append(rowItems, parsed{col: col, item: domain.LineItem{
				Label:       label,
				Amount:      amount.Mul(factor),
				Period:      sets[col].Period,
				Category:    cat,
				IsTotal:     isTotal,
				NeedsReview: review,
			}})
		}
		if rowFailed {
			continue
		}
		res.NotReported += notReported
		for _, p := range rowItems {
			item := p.item
			if !item.IsTotal && sumConfirmsTotal(sets[p.col].Items, item) {
				item.IsTotal = true
			}
			sets[p.col].Items = append(sets[p.col].Items, item)
		}
	}

	for i := range sets {
		if len(sets[i].Items) > 0 {
			res.RecordSets = append(res.RecordSets, sets[i])
		}
	}
	return res, nil
}

// checkStructure verifies the grid is regular enough to normalize: the
// dominant value-column width must be shared by enough rows.
func (n *Normalizer) checkStructure(table domain.RawTable) error {
	widths := map[int]int{}
	counted := 0
	for _, row := range table.Cells {
		if len(row) < 2 {
			continue
		}
		widths[len(row)]++
		counted++
	}
	if counted == 0 {
		return &domain.TableStructureError{Page: table.Page, Detail: "no multi-column rows"}
	}

	dominant, support := 0, 0
	for w, c := range widths {
		if c > support || (c == support && w > dominant) {
			dominant, support = w, c
		}
	}

	irregular := 0
	for w, c := range widths {
		if w < dominant-1 || w > dominant+1 {
			irregular += c
		}
	}
	if frac := float64(irregular) / float64(counted); frac > n.settings.MaxIrregularRowFraction {
		return &domain.TableStructureError{
			Page:   table.Page,
			Detail: "column counts disagree across rows",
		}
	}
	return nil
}

// detectScale scans the leading rows for a scale note near the title.
func detectScale(table domain.RawTable) domain.Scale {
	limit := len(table.Cells)
	if limit > 5 {
		limit = 5
	}
	for _, row := range table.Cells[:limit] {
		text := strings.ToLower(strings.Join(row, " "))
		switch {
		case strings.Contains(text, "in thousands"):
			return domain.ScaleThousands
		case strings.Contains(text, "in millions"):
			return domain.ScaleMillions
		case strings.Contains(text, "in billions"):
			return domain.ScaleBillions
		}
	}
	return domain.ScaleUnits
}

// detectPeriods finds the header row carrying period-end dates. Data rows
// start after it. Without one, the fallback labels apply and data starts
// at the top.
func detectPeriods(table domain.RawTable, fallback []string) ([]string, int) {
	limit := len(table.Cells)
	if limit > 6 {
		limit = 6
	}
	for i := 0; i < limit; i++ {
		var dates []string
		for _, cell := range table.Cells[i] {
			if d, ok := parseHeaderDate(cell); ok {
				dates = append(dates, d)
			}
		}
		if len(dates) >= 1 {
			return dates, i + 1
		}
	}
	if len(fallback) > 0 {
		return fallback, 0
	}
	return []string{"current"}, 0
}

// parseHeaderDate parses a column header date like "January 31, 2024".
func parseHeaderDate(cell string) (string, bool) {
	v := strings.TrimSpace(cell)
	if v == "" {
		return "", false
	}
	for _, layout := range headerDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// cleanLabel collapses whitespace and strips footnote markers.
func cleanLabel(raw string) string {
	label := strings.Join(strings.Fields(raw), " ")
	return strings.TrimSpace(footnoteMarker.ReplaceAllString(label, ""))
}

func isBoilerplate(label string) bool {
	l := strings.ToLower(label)
	for _, marker := range boilerplateMarkers {
		if strings.Contains(l, marker) {
			return true
		}
	}
	return false
}

// canonicalize folds an extracted label into the configured canonical
// label set when it fuzzily matches one.
func (n *Normalizer) canonicalize(label string) string {
	if len(n.settings.KnownLabels) == 0 {
		return label
	}
	best := ""
	bestRank := n.settings.MaxLabelDistance + 1
	for _, known := range n.settings.KnownLabels {
		rank := fuzzy.RankMatchNormalizedFold(label, known)
		if rank >= 0 && rank < bestRank {
			best, bestRank = known, rank
		}
	}
	if best != "" {
		return best
	}
	return label
}

// valueCells drops cells that are bare currency symbols; extraction often
// splits "$ 1,330,411" into two cells.
func valueCells(cells []string) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		v := strings.TrimSpace(c)
		if v == "$" || v == "€" || v == "£" || v == "¥" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func anyReported(cells []string) bool {
	for _, c := range cells {
		if IsNumericCell(c) {
			return true
		}
	}
	return false
}

// sumConfirmsTotal checks whether the item's amount equals the sum of the
// immediately preceding contiguous run of same-category non-total items.
// This is a secondary confirmation for totals whose label lost the word
// "total" during extraction.
func sumConfirmsTotal(prev []domain.LineItem, item domain.LineItem) bool {
	sum := decimal.Zero
	run := 0
	for i := len(prev) - 1; i >= 0; i-- {
		if prev[i].Category != item.Category || prev[i].IsTotal {
			break
		}
		sum = sum.Add(prev[i].Amount)
		run++
	}
	return run >= 2 && sum.Equal(item.Amount)
}
