package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/statement-atlas/pkg/models/domain"
	"github.com/de-tools/statement-atlas/pkg/pdf"
)

func frag(x, y float64, text string) pdf.Fragment {
	return pdf.Fragment{X: x, Y: y, Text: text}
}

func line(frags ...pdf.Fragment) pdf.Line {
	return pdf.Line{Y: frags[0].Y, Fragments: frags}
}

func TestStream_InfersColumnsFromGaps(t *testing.T) {
	page := &pdf.PageText{
		Number: 3,
		Lines: []pdf.Line{
			line(frag(72, 700, "Cash and cash equivalents"), frag(300, 700, "1,330,411"), frag(400, 700, "1,762,749")),
			// indented label, 8pt in, must stay in the label column
			line(frag(80, 680, "Short-term investments"), frag(300, 680, "2,200,935"), frag(400, 680, "2,083,499")),
		},
	}

	tables, err := NewStream().Extract(page)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	got := tables[0]
	assert.Equal(t, 3, got.Page)
	assert.Equal(t, "stream", got.Strategy)
	require.Equal(t, [][]string{
		{"Cash and cash equivalents", "1,330,411", "1,762,749"},
		{"Short-term investments", "2,200,935", "2,083,499"},
	}, got.Cells)
}

func TestStream_SingleColumnIsNoCandidate(t *testing.T) {
	page := &pdf.PageText{
		Lines: []pdf.Line{
			line(frag(72, 700, "Management discussion")),
			line(frag(74, 680, "and analysis of results")),
		},
	}
	tables, err := NewStream().Extract(page)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestLattice_BuildsGridFromRulings(t *testing.T) {
	page := &pdf.PageText{
		Number: 5,
		Lines: []pdf.Line{
			line(frag(72, 700, "Cash"), frag(300, 700, "100"), frag(400, 700, "200")),
			line(frag(72, 680, "Total assets"), frag(300, 680, "100"), frag(400, 680, "200")),
		},
		Rulings: []pdf.Ruling{
			{X0: 50, Y0: 660, X1: 50, Y1: 710},
			{X0: 250, Y0: 660, X1: 250, Y1: 710},
			{X0: 350, Y0: 660, X1: 350, Y1: 710},
			{X0: 450, Y0: 660, X1: 450, Y1: 710},
			{X0: 50, Y0: 710, X1: 450, Y1: 710},
			{X0: 50, Y0: 690, X1: 450, Y1: 690},
			{X0: 50, Y0: 670, X1: 450, Y1: 670},
		},
	}

	tables, err := NewLattice().Extract(page)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	got := tables[0]
	assert.Equal(t, "lattice", got.Strategy)
	require.Equal(t, [][]string{
		{"Cash", "100", "200"},
		{"Total assets", "100", "200"},
	}, got.Cells)
}

func TestLattice_NoRulingsNoCandidate(t *testing.T) {
	page := &pdf.PageText{
		Lines: []pdf.Line{
			line(frag(72, 700, "Cash"), frag(300, 700, "100")),
		},
	}
	tables, err := NewLattice().Extract(page)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func balanceTable(page int, strategy string) domain.RawTable {
	return domain.RawTable{
		Page:     page,
		Strategy: strategy,
		Cells: [][]string{
			{"Condensed Consolidated Balance Sheets", "", ""},
			{"", "April 30, 2024", "January 31, 2024"},
			{"Cash and cash equivalents", "1,330,411", "1,762,749"},
			{"Accounts receivable, net", "345,505", "926,902"},
			{"Total assets", "5,100,221", "5,965,364"},
			{"Accounts payable", "51,721", "51,790"},
			{"Total liabilities", "2,566,801", "2,949,639"},
			{"Total stockholders' equity", "2,533,420", "3,015,725"},
		},
	}
}

func proseTable(page int) domain.RawTable {
	return domain.RawTable{
		Page:     page,
		Strategy: "stream",
		Cells: [][]string{
			{"Item 2. Management's Discussion", "of our results"},
			{"We review the market risks", "described below"},
		},
	}
}

func TestScorer_BalanceSheetOutscoresProse(t *testing.T) {
	scorer := NewScorer(DefaultScoreWeights(), DefaultRegistry())

	best, err := scorer.Select(context.Background(),
		[]domain.RawTable{proseTable(1), balanceTable(4, "stream")})
	require.NoError(t, err)
	assert.Equal(t, 4, best.Table.Page)
	assert.Equal(t, DefaultScoreWeights().Title, best.Breakdown.TitleMatch)
	assert.Equal(t, DefaultScoreWeights().DateHeader, best.Breakdown.DateHeader)
	assert.Greater(t, best.Breakdown.KeywordHits, 0.0)
	assert.Greater(t, best.Breakdown.NumericRatio, 0.0)
}

func TestScorer_NothingAboveThreshold(t *testing.T) {
	scorer := NewScorer(DefaultScoreWeights(), DefaultRegistry())

	_, err := scorer.Select(context.Background(), []domain.RawTable{proseTable(2)})

	var notFound *domain.NoTableFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 2, notFound.Page)
	assert.Equal(t, 1, notFound.Candidates)
	assert.Less(t, notFound.BestScore, DefaultScoreWeights().MinScore)
}

func TestScorer_NoCandidatesAtAll(t *testing.T) {
	scorer := NewScorer(DefaultScoreWeights(), DefaultRegistry())

	_, err := scorer.Select(context.Background(), nil)

	var notFound *domain.NoTableFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 0, notFound.Candidates)
}

func TestScorer_Deterministic(t *testing.T) {
	scorer := NewScorer(DefaultScoreWeights(), DefaultRegistry())
	table := balanceTable(4, "stream")

	first := scorer.Score(table)
	second := scorer.Score(table)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Breakdown, second.Breakdown)
}

// tieTable drops the date header so every value cell is numeric; adding
// another numeric row then leaves the score unchanged and only the
// tie-breaks decide.
func tieTable(page int, strategy string) domain.RawTable {
	table := balanceTable(page, strategy)
	table.Cells[1] = []string{"", "", ""}
	return table
}

func TestScorer_TieBreaksByRowsThenStrategyThenPage(t *testing.T) {
	scorer := NewScorer(DefaultScoreWeights(), DefaultRegistry())

	bigger := tieTable(4, "stream")
	bigger.Cells = append(bigger.Cells, []string{"Restricted cash", "10", "10"})
	require.Equal(t, scorer.Score(tieTable(4, "stream")).Score, scorer.Score(bigger).Score)

	best, err := scorer.Select(context.Background(),
		[]domain.RawTable{tieTable(4, "stream"), bigger})
	require.NoError(t, err)
	assert.Equal(t, bigger.Rows(), best.Table.Rows())

	// identical tables, different strategy: lattice registered first wins
	best, err = scorer.Select(context.Background(),
		[]domain.RawTable{tieTable(4, "stream"), tieTable(4, "lattice")})
	require.NoError(t, err)
	assert.Equal(t, "lattice", best.Table.Strategy)

	// identical tables on different pages: lower page wins
	best, err = scorer.Select(context.Background(),
		[]domain.RawTable{tieTable(6, "stream"), tieTable(4, "stream")})
	require.NoError(t, err)
	assert.Equal(t, 4, best.Table.Page)
}

func TestService_BestTableFromPages(t *testing.T) {
	page := &pdf.PageText{
		Number: 3,
		Lines: []pdf.Line{
			line(frag(72, 720, "Condensed Consolidated Balance Sheets")),
			line(frag(300, 705, "April 30, 2024"), frag(400, 705, "January 31, 2024")),
			line(frag(72, 690, "Cash and cash equivalents"), frag(300, 690, "1,330,411"), frag(400, 690, "1,762,749")),
			line(frag(72, 675, "Total assets"), frag(300, 675, "5,100,221"), frag(400, 675, "5,965,364")),
			line(frag(72, 660, "Total liabilities"), frag(300, 660, "2,566,801"), frag(400, 660, "2,949,639")),
			line(frag(72, 645, "Total stockholders' equity"), frag(300, 645, "2,533,420"), frag(400, 645, "3,015,725")),
		},
	}

	svc := NewService(DefaultScoreWeights())
	best, err := svc.BestTable(context.Background(), []*pdf.PageText{page})
	require.NoError(t, err)
	assert.Equal(t, 3, best.Table.Page)
	assert.Equal(t, "stream", best.Table.Strategy)
	assert.GreaterOrEqual(t, best.Score, DefaultScoreWeights().MinScore)
}
