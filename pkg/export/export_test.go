package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/statement-atlas/pkg/models/domain"
)

func sampleSets() []domain.StatementRecordSet {
	return []domain.StatementRecordSet{
		{
			Period:      "FY25Q1",
			SourceURL:   "https://example.com/Q1-FY25-10Q.pdf",
			Scale:       domain.ScaleThousands,
			ExtractedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Items: []domain.LineItem{
				{Label: "Cash and cash equivalents", Amount: decimal.NewFromInt(1330411), Period: "FY25Q1", Category: domain.CategoryAsset},
				{Label: "Accumulated deficit", Amount: decimal.NewFromInt(-6782128), Period: "FY25Q1", Category: domain.CategoryEquity},
				{Label: "Total assets", Amount: decimal.NewFromInt(5100221), Period: "FY25Q1", Category: domain.CategoryAsset, IsTotal: true},
			},
		},
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	sets := sampleSets()

	require.NoError(t, WriteCSV(path, sets))

	got, err := ReadRecords(path)
	require.NoError(t, err)
	want := Records(sets)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].FiscalQuarter, got[i].FiscalQuarter)
		assert.Equal(t, want[i].Category, got[i].Category)
		assert.Equal(t, want[i].LineItem, got[i].LineItem)
		assert.True(t, want[i].Amount.Equal(got[i].Amount), "amount %s != %s", want[i].Amount, got[i].Amount)
		assert.Equal(t, want[i].IsTotal, got[i].IsTotal)
	}
}

func TestWriteCSV_Header(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSV(path, sampleSets()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "fiscal_quarter,category,line_item,amount,is_total", strings.TrimSpace(lines[0]))
	assert.Len(t, lines, 4)
}

func TestWriteCSV_BadPath(t *testing.T) {
	err := WriteCSV(filepath.Join(t.TempDir(), "missing", "out.csv"), sampleSets())

	var writeErr *domain.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Contains(t, writeErr.Path, "out.csv")
}

func TestWriteMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.md")
	require.NoError(t, WriteMarkdown(path, sampleSets()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "## FY25Q1")
	assert.Contains(t, text, "| Cash and cash equivalents | Assets | 1,330,411 |")
	assert.Contains(t, text, "| Accumulated deficit | Stockholders' Equity | -6,782,128 |")
	assert.Contains(t, text, "| **Total assets** | Assets | 5,100,221 |")
	assert.Contains(t, text, "_Amounts in thousands._")
	assert.Contains(t, text, "Source: https://example.com/Q1-FY25-10Q.pdf")
}

func TestGroupDigits(t *testing.T) {
	cases := map[string]string{
		"0":        "0",
		"999":      "999",
		"1000":     "1,000",
		"1330411":  "1,330,411",
		"-8220":    "-8,220",
		"1234.5":   "1,234.5",
		"-1234567": "-1,234,567",
	}
	for in, want := range cases {
		d, err := decimal.NewFromString(in)
		require.NoError(t, err)
		assert.Equal(t, want, groupDigits(d), "input %s", in)
	}
}
